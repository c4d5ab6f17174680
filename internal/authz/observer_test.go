package authz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	mixed := &AggregateDenial{Denials: []error{
		Deny(ErrNotAuthorized, "IsAuthenticated", "authentication required"),
		Deny(ErrPermissionDenied, "IsAdminGroup", "admin group required"),
	}}
	cases := []struct {
		name string
		err  error
		want Outcome
	}{
		{"allowed", nil, OutcomeAllowed},
		{"not authorized", Deny(ErrNotAuthorized, "UserAction", ""), OutcomeNotAuthorized},
		{"denied", Deny(ErrPermissionDenied, "UserAction", ""), OutcomeDenied},
		{"self", Deny(ErrSelfActionForbidden, "UserAction", ""), OutcomeSelfForbidden},
		{"concealed", Conceal(Deny(ErrNotAuthorized, "UserAction", "")), OutcomeNotFound},
		{"mixed aggregate", mixed, OutcomeDenied},
		{"infrastructure", errors.New("db down"), OutcomeError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}
