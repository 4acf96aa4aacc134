// Package enrollment contains the enrollment aggregate and the state machine
// rules governing its review lifecycle: pending on creation, then approved,
// rejected, or administratively reset back to pending. The amount paid is
// snapshotted at enroll time so later course price changes never alter the
// refund owed.
package enrollment

import (
	"time"

	"github.com/coursedesk/enrollment-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status is the review status of an enrollment.
type Status string

const (
	// StatusPending - submitted, awaiting administrator review.
	StatusPending Status = "pending"
	// StatusApproved - accepted; the student is linked to the course.
	StatusApproved Status = "approved"
	// StatusRejected - declined; the amount paid has been refunded.
	StatusRejected Status = "rejected"
)

// IsValid checks that the status is one of the three review states.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// IsActive reports whether the status blocks a second enrollment for the same
// (student, course) pair. A rejected enrollment does not block re-enrollment.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusApproved
}

// ParseStatus parses a review status supplied by a caller.
// Returns ErrInvalidStatus for anything but approved, rejected or pending.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.IsValid() {
		return "", shared.ErrInvalidStatus
	}
	return s, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Enrollment links a student to a course with a review status and the frozen
// payment amount.
type Enrollment struct {
	// ID is a generated UUID. Unique across all enrollments.
	ID string

	// StudentID references the student account debited at enroll time.
	StudentID int64

	// CourseID references the course enrolled into. The course may later be
	// deleted or change price without altering AmountPaid.
	CourseID int64

	// Status is the current review status.
	Status Status

	// AmountPaid is the course price snapshotted at enroll time. Immutable
	// after creation. Nil only on legacy rows that predate the snapshot
	// column; refunds for those fall back to the course's current price.
	AmountPaid *shared.Money

	// EnrolledAt is the creation timestamp.
	EnrolledAt time.Time
}

// New creates a pending enrollment with the price snapshot taken now.
func New(id string, studentID, courseID int64, price shared.Money, now time.Time) *Enrollment {
	paid := price
	return &Enrollment{
		ID:         id,
		StudentID:  studentID,
		CourseID:   courseID,
		Status:     StatusPending,
		AmountPaid: &paid,
		EnrolledAt: now.UTC(),
	}
}

// RefundDue returns the amount to refund when this enrollment transitions to
// rejected, applying the review rules: no refund when already rejected, and
// the legacy nil snapshot falls back to the supplied current course price.
func (e *Enrollment) RefundDue(newStatus Status, currentPrice shared.Money) shared.Money {
	if newStatus != StatusRejected || e.Status == StatusRejected {
		return shared.Zero
	}
	paid := currentPrice
	if e.AmountPaid != nil {
		paid = *e.AmountPaid
	}
	if !paid.IsPositive() {
		return shared.Zero
	}
	return paid
}
