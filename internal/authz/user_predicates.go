package authz

import "fmt"

// AdminGroupAction checks an action performed by an admin-group principal
// on another principal.
//
// Acting on oneself is allowed except for DELETE and the privilege actions.
// Otherwise the target's role must be strictly below the actor's, and the
// privilege actions additionally require a superadmin. The self check must
// run first: an admin never manages its own role bucket.
var AdminGroupAction = NewPredicate("AdminGroupAction", FieldTargetUser, func(pc *Context) error {
	actor := pc.Principal
	if actor == nil {
		return Deny(ErrNotAuthorized, "", "authentication required")
	}
	target := pc.TargetUser
	if actor.Same(target) {
		switch pc.Action {
		case ActionDelete, ActionSetAdminPrivilege, ActionRevokeAdminPrivilege:
			return Deny(ErrSelfActionForbidden, "", fmt.Sprintf("cannot %s own account", pc.Action))
		default:
			return nil
		}
	}
	if pc.Action.IsPrivilegeChange() && !actor.IsSuperadmin() {
		return Deny(ErrPermissionDenied, "", "only a superadmin can change admin privileges")
	}
	if !CanManage(actor.Role, target.Role) {
		return Deny(ErrPermissionDenied, "", fmt.Sprintf("%s cannot %s a %s", actor.Role.Normalize(), pc.Action, target.Role.Normalize()))
	}
	return nil
})

// RegularUserAction checks an action performed by a non-admin principal on
// another principal. Such a principal may only act on itself, and never
// change privileges.
var RegularUserAction = NewPredicate("RegularUserAction", FieldTargetUser, func(pc *Context) error {
	actor := pc.Principal
	if actor == nil {
		return Deny(ErrNotAuthorized, "", "authentication required")
	}
	if !actor.Same(pc.TargetUser) {
		return Deny(ErrPermissionDenied, "", "users may only act on their own account")
	}
	if pc.Action.IsPrivilegeChange() {
		return Deny(ErrSelfActionForbidden, "", fmt.Sprintf("cannot %s own account", pc.Action))
	}
	return nil
})

// UserAction dispatches to AdminGroupAction or RegularUserAction depending
// on the acting principal's role.
var UserAction = NewPredicate("UserAction", FieldTargetUser, func(pc *Context) error {
	if pc.Principal.InAdminGroup() {
		return AdminGroupAction.Check(pc)
	}
	return RegularUserAction.Check(pc)
})
