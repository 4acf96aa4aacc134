// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"

	"github.com/coursedesk/enrollment-hub/internal/application/authz"
	"github.com/coursedesk/enrollment-hub/internal/domain/enrollment"
	"github.com/coursedesk/enrollment-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST ENROLLMENTS QUERY
// ══════════════════════════════════════════════════════════════════════════════

// ListEnrollmentsQuery narrows the enrollment listing. Student principals are
// always restricted to their own rows regardless of filters.
type ListEnrollmentsQuery struct {
	// Principal is the authenticated identity.
	Principal shared.Principal

	// StudentID filters by student. Ignored for student principals.
	StudentID int64

	// StudentName filters by student name substring.
	StudentName string

	// CourseName filters by course name substring.
	CourseName string
}

// ListEnrollmentsHandler handles the ListEnrollmentsQuery.
type ListEnrollmentsHandler struct {
	enrollments enrollment.Repository
}

// NewListEnrollmentsHandler creates a new ListEnrollmentsHandler.
func NewListEnrollmentsHandler(enrollments enrollment.Repository) *ListEnrollmentsHandler {
	return &ListEnrollmentsHandler{enrollments: enrollments}
}

// Handle executes the query.
func (h *ListEnrollmentsHandler) Handle(ctx context.Context, q ListEnrollmentsQuery) ([]*enrollment.Row, error) {
	if err := authz.Authorize(q.Principal, authz.CapListEnrollments); err != nil {
		return nil, err
	}

	filter := enrollment.ListFilter{
		StudentID:   q.StudentID,
		StudentName: q.StudentName,
		CourseName:  q.CourseName,
	}

	// Students see only their own enrollments.
	if q.Principal.Role == shared.RoleStudent {
		filter.StudentID = q.Principal.StudentID()
	}

	rows, err := h.enrollments.List(ctx, filter)
	if err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, shared.WrapError("enrollment", "List", shared.ErrInternal, "listing failed", err)
	}
	return rows, nil
}
