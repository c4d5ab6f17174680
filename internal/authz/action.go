package authz

// Action is an operation requested against a target entity.
type Action string

// Generic CRUD actions plus the user-domain privilege actions.
const (
	ActionCreate               Action = "create"
	ActionGet                  Action = "get"
	ActionUpdate               Action = "update"
	ActionDelete               Action = "delete"
	ActionSetAdminPrivilege    Action = "set_admin_privilege"
	ActionRevokeAdminPrivilege Action = "revoke_admin_privilege"
)

func (a Action) String() string {
	return string(a)
}

// IsPrivilegeChange reports whether a changes another principal's role.
func (a Action) IsPrivilegeChange() bool {
	return a == ActionSetAdminPrivilege || a == ActionRevokeAdminPrivilege
}

// Domain names the kind of target entity an action is performed on. Each
// domain has a closed action vocabulary.
type Domain string

// Known domains.
const (
	DomainUser    Domain = "user"
	DomainAuthor  Domain = "author"
	DomainCourse  Domain = "course"
	DomainLesson  Domain = "lesson"
	DomainPayment Domain = "payment"
)

var crudActions = []Action{ActionCreate, ActionGet, ActionUpdate, ActionDelete}

var domainActions = map[Domain][]Action{
	DomainUser:    append(append([]Action{}, crudActions...), ActionSetAdminPrivilege, ActionRevokeAdminPrivilege),
	DomainAuthor:  crudActions,
	DomainCourse:  crudActions,
	DomainLesson:  crudActions,
	DomainPayment: crudActions,
}

// Actions returns the vocabulary of d, or nil for an unknown domain.
func (d Domain) Actions() []Action {
	actions, ok := domainActions[d]
	if !ok {
		return nil
	}
	out := make([]Action, len(actions))
	copy(out, actions)
	return out
}

// Allows reports whether a belongs to the vocabulary of d.
func (d Domain) Allows(a Action) bool {
	for _, candidate := range domainActions[d] {
		if candidate == a {
			return true
		}
	}
	return false
}
