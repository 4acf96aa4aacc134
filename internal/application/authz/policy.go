// Package authz consolidates role-based access into a single capability
// policy applied uniformly before each state-machine operation, instead of
// per-operation role branching.
package authz

import (
	"github.com/coursedesk/enrollment-hub/internal/domain/shared"
)

// Capability identifies an operation a principal may or may not perform.
type Capability string

const (
	// CapEnroll - submit an enrollment. Students only.
	CapEnroll Capability = "enroll"
	// CapReview - approve/reject/reset an enrollment. Admins only.
	CapReview Capability = "review"
	// CapRecharge - top up the own balance. Students only.
	CapRecharge Capability = "recharge"
	// CapViewBalance - read the own balance. Students only.
	CapViewBalance Capability = "view_balance"
	// CapListEnrollments - list enrollments. Any role; students are
	// restricted to their own rows by the query handler.
	CapListEnrollments Capability = "list_enrollments"
)

// policy maps each capability to the roles allowed to exercise it.
var policy = map[Capability][]shared.Role{
	CapEnroll:          {shared.RoleStudent},
	CapReview:          {shared.RoleAdmin},
	CapRecharge:        {shared.RoleStudent},
	CapViewBalance:     {shared.RoleStudent},
	CapListEnrollments: {shared.RoleAdmin, shared.RoleTeacher, shared.RoleStudent},
}

// Authorize checks that the principal may exercise the capability.
// Returns ErrNotPermitted on role mismatch or an invalid principal.
func Authorize(p shared.Principal, cap Capability) error {
	if !p.IsValid() {
		return shared.ErrNotPermitted
	}
	for _, role := range policy[cap] {
		if p.Role == role {
			return nil
		}
	}
	return shared.ErrNotPermitted
}
