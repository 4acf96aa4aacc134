package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/coursedesk/enrollment-hub/internal/application/authz"
	"github.com/coursedesk/enrollment-hub/internal/domain/enrollment"
	"github.com/coursedesk/enrollment-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REVIEW COMMAND
// Transitions an enrollment to approved, rejected, or back to pending. A
// transition to rejected refunds the frozen amount_paid exactly once; the
// approved/rejected transitions keep the student's course link in step.
// ══════════════════════════════════════════════════════════════════════════════

// ReviewCommand contains the data to review an enrollment.
type ReviewCommand struct {
	// Principal is the authenticated identity. Must carry the admin role.
	Principal shared.Principal

	// EnrollmentID is the enrollment under review.
	EnrollmentID string

	// NewStatus is the requested status: approved, rejected or pending.
	NewStatus string
}

// Validate validates the command.
func (c ReviewCommand) Validate() error {
	if c.EnrollmentID == "" {
		return shared.NewDomainError("enrollment", "Review", shared.ErrInvalidID, "enrollment ID is required")
	}
	if _, err := enrollment.ParseStatus(c.NewStatus); err != nil {
		return err
	}
	return nil
}

// ReviewResult contains the outcome of a review.
type ReviewResult struct {
	// Status is the resulting enrollment status.
	Status enrollment.Status

	// Refund is the amount credited back to the student. Zero when the
	// transition issued no refund.
	Refund shared.Money

	// NewBalance is the student's balance after the refund. Nil when no
	// refund was issued.
	NewBalance *shared.Money

	// Message is a human-readable summary for the caller.
	Message string
}

// ReviewHandler handles the ReviewCommand.
type ReviewHandler struct {
	uow       enrollment.UnitOfWork
	publisher shared.EventPublisher
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(uow enrollment.UnitOfWork, publisher shared.EventPublisher) *ReviewHandler {
	return &ReviewHandler{uow: uow, publisher: publisher}
}

// Handle executes the review command.
func (h *ReviewHandler) Handle(ctx context.Context, cmd ReviewCommand) (*ReviewResult, error) {
	if err := authz.Authorize(cmd.Principal, authz.CapReview); err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	newStatus, _ := enrollment.ParseStatus(cmd.NewStatus)

	result := &ReviewResult{Status: newStatus, Refund: shared.Zero}
	var reviewed *enrollment.Enrollment
	var priorStatus enrollment.Status

	err := h.uow.Execute(ctx, func(ctx context.Context, s enrollment.Scope) error {
		// Lock the enrollment row so concurrent reviews of the same
		// enrollment serialize; re-rejecting stays refund-free even when
		// two rejects race.
		enr, err := s.Enrollments().GetForUpdate(ctx, cmd.EnrollmentID)
		if err != nil {
			return err
		}
		reviewed = enr
		priorStatus = enr.Status

		// Legacy rows without a snapshot refund the course's current price.
		currentPrice := shared.Zero
		if enr.AmountPaid == nil {
			currentPrice, err = s.Catalog().CurrentPrice(ctx, enr.CourseID)
			if err != nil {
				return err
			}
		}
		refund := enr.RefundDue(newStatus, currentPrice)

		if err := s.Enrollments().UpdateStatus(ctx, enr.ID, newStatus); err != nil {
			return err
		}

		if refund.IsPositive() {
			balance, err := s.Ledger().Credit(ctx, enr.StudentID, refund)
			if err != nil {
				return err
			}
			result.Refund = refund
			result.NewBalance = &balance
		}

		// Course-link rules: approving links the student to the course;
		// rejecting a previously approved enrollment unlinks only when the
		// link still points at this course. Resetting to pending touches
		// neither the link nor the balance.
		switch {
		case newStatus == enrollment.StatusApproved:
			return s.Ledger().LinkCourse(ctx, enr.StudentID, enr.CourseID)
		case newStatus == enrollment.StatusRejected && priorStatus == enrollment.StatusApproved:
			return s.Ledger().UnlinkCourse(ctx, enr.StudentID, enr.CourseID)
		}
		return nil
	})
	if err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, internalErr("enrollment", "Review", err)
	}

	if h.publisher != nil {
		event := shared.EnrollmentReviewedEvent{
			BaseEvent:      shared.NewBaseEvent(reviewEventType(newStatus), reviewed.ID),
			StudentID:      reviewed.StudentID,
			CourseID:       reviewed.CourseID,
			PreviousStatus: string(priorStatus),
			NewStatus:      string(newStatus),
			Refund:         result.Refund.String(),
		}
		_ = h.publisher.Publish(event)
	}

	result.Message = reviewMessage(newStatus, result.Refund)
	return result, nil
}

func reviewEventType(status enrollment.Status) shared.EventType {
	switch status {
	case enrollment.StatusApproved:
		return shared.EventEnrollmentApproved
	case enrollment.StatusRejected:
		return shared.EventEnrollmentRejected
	default:
		return shared.EventEnrollmentReset
	}
}

func reviewMessage(status enrollment.Status, refund shared.Money) string {
	switch status {
	case enrollment.StatusApproved:
		return "enrollment approved"
	case enrollment.StatusRejected:
		if refund.IsPositive() {
			return fmt.Sprintf("enrollment rejected, %s refunded to balance", refund)
		}
		return "enrollment rejected"
	default:
		return "enrollment reset to pending"
	}
}
