package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coursedesk/enrollment-hub/internal/domain/shared"
)

func principal(role shared.Role) shared.Principal {
	return shared.Principal{UserID: 1, Role: role, LinkedEntityID: 7}
}

func TestAuthorize_Matrix(t *testing.T) {
	cases := []struct {
		cap     Capability
		allowed []shared.Role
	}{
		{CapEnroll, []shared.Role{shared.RoleStudent}},
		{CapReview, []shared.Role{shared.RoleAdmin}},
		{CapRecharge, []shared.Role{shared.RoleStudent}},
		{CapViewBalance, []shared.Role{shared.RoleStudent}},
		{CapListEnrollments, []shared.Role{shared.RoleAdmin, shared.RoleTeacher, shared.RoleStudent}},
	}

	roles := []shared.Role{shared.RoleAdmin, shared.RoleTeacher, shared.RoleStudent}

	for _, tc := range cases {
		for _, role := range roles {
			err := Authorize(principal(role), tc.cap)

			permitted := false
			for _, a := range tc.allowed {
				if a == role {
					permitted = true
				}
			}

			if permitted {
				assert.NoError(t, err, "capability %s role %s", tc.cap, role)
			} else {
				assert.ErrorIs(t, err, shared.ErrNotPermitted, "capability %s role %s", tc.cap, role)
			}
		}
	}
}

func TestAuthorize_InvalidPrincipal(t *testing.T) {
	assert.ErrorIs(t, Authorize(shared.Principal{}, CapListEnrollments), shared.ErrNotPermitted)
	assert.ErrorIs(t, Authorize(shared.Principal{UserID: 1, Role: "ghost"}, CapEnroll), shared.ErrNotPermitted)
}

func TestAuthorize_UnknownCapability(t *testing.T) {
	assert.ErrorIs(t, Authorize(principal(shared.RoleAdmin), Capability("unknown")), shared.ErrNotPermitted)
}
