// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coursedesk/enrollment-hub/internal/application/authz"
	"github.com/coursedesk/enrollment-hub/internal/domain/account"
	"github.com/coursedesk/enrollment-hub/internal/domain/course"
	"github.com/coursedesk/enrollment-hub/internal/domain/enrollment"
	"github.com/coursedesk/enrollment-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENROLL COMMAND
// Creates a pending enrollment and debits the student's balance by the course
// price in one atomic unit. Preconditions are checked in a fixed order; the
// first failure wins and nothing is mutated.
// ══════════════════════════════════════════════════════════════════════════════

// EnrollCommand contains the data to enroll a student into a course.
type EnrollCommand struct {
	// Principal is the authenticated identity. Must carry the student role;
	// the student ID is taken from the principal, never from the request.
	Principal shared.Principal

	// CourseID is the course to enroll into.
	CourseID int64
}

// Validate validates the command.
func (c EnrollCommand) Validate() error {
	if c.CourseID <= 0 {
		return shared.NewDomainError("enrollment", "Enroll", shared.ErrInvalidID, "course ID must be a positive number")
	}
	if c.Principal.StudentID() <= 0 {
		return shared.NewDomainError("enrollment", "Enroll", shared.ErrInvalidID, "principal carries no student ID")
	}
	return nil
}

// EnrollResult contains the outcome of a successful enrollment.
type EnrollResult struct {
	// Enrollment is the created enrollment (status pending).
	Enrollment *enrollment.Enrollment

	// RemainingBalance is the student's balance after the debit.
	RemainingBalance shared.Money

	// Message is a human-readable summary for the caller.
	Message string
}

// EnrollHandler handles the EnrollCommand.
type EnrollHandler struct {
	catalog     course.Catalog
	ledger      account.Ledger
	enrollments enrollment.Repository
	uow         enrollment.UnitOfWork
	publisher   shared.EventPublisher
}

// NewEnrollHandler creates a new EnrollHandler.
func NewEnrollHandler(
	catalog course.Catalog,
	ledger account.Ledger,
	enrollments enrollment.Repository,
	uow enrollment.UnitOfWork,
	publisher shared.EventPublisher,
) *EnrollHandler {
	return &EnrollHandler{
		catalog:     catalog,
		ledger:      ledger,
		enrollments: enrollments,
		uow:         uow,
		publisher:   publisher,
	}
}

// Handle executes the enroll command.
func (h *EnrollHandler) Handle(ctx context.Context, cmd EnrollCommand) (*EnrollResult, error) {
	if err := authz.Authorize(cmd.Principal, authz.CapEnroll); err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	studentID := cmd.Principal.StudentID()

	// Precondition 1-2: course exists, is not soft-deleted, and still
	// accepts enrollments.
	crs, err := h.catalog.FindActive(ctx, cmd.CourseID)
	if err != nil {
		return nil, err
	}
	if !crs.Status.AcceptsEnrollment() {
		return nil, shared.ErrCourseClosed
	}

	// Precondition 3: no active enrollment for this pair. Advisory check
	// for deterministic error ordering; the unique constraint inside the
	// unit is what actually closes the race.
	active, err := h.enrollments.HasActive(ctx, studentID, cmd.CourseID)
	if err != nil {
		return nil, internalErr("enrollment", "Enroll", err)
	}
	if active {
		return nil, shared.ErrDuplicateEnrollment
	}

	// Precondition 4-5: account exists and covers the price.
	acct, err := h.ledger.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if !acct.CanAfford(crs.Price) {
		return nil, shared.ErrInsufficientFunds
	}

	created := enrollment.New(uuid.NewString(), studentID, cmd.CourseID, crs.Price, time.Now())

	// Atomic effect: debit then insert. The debit re-checks sufficiency
	// under the row lock, so a racing enroll on the same account cannot
	// overdraw; the insert hits the active-pair unique constraint if a
	// racing enroll on the same pair won.
	var remaining shared.Money
	err = h.uow.Execute(ctx, func(ctx context.Context, s enrollment.Scope) error {
		remaining, err = s.Ledger().Debit(ctx, studentID, crs.Price)
		if err != nil {
			return err
		}
		return s.Enrollments().Insert(ctx, created)
	})
	if err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, internalErr("enrollment", "Enroll", err)
	}

	if h.publisher != nil {
		event := shared.EnrollmentSubmittedEvent{
			BaseEvent:  shared.NewBaseEvent(shared.EventEnrollmentSubmitted, created.ID),
			StudentID:  studentID,
			CourseID:   cmd.CourseID,
			AmountPaid: crs.Price.String(),
		}
		_ = h.publisher.Publish(event)
	}

	return &EnrollResult{
		Enrollment:       created,
		RemainingBalance: remaining,
		Message:          fmt.Sprintf("enrollment submitted, awaiting review; %s debited, balance %s", crs.Price, remaining),
	}, nil
}

// internalErr wraps unexpected storage/transaction errors so callers see a
// single retriable failure classification. The atomic unit already rolled
// back, so no partial state persists.
func internalErr(domain, op string, err error) error {
	return shared.WrapError(domain, op, shared.ErrInternal, "operation failed", err)
}
