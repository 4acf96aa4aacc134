// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened to an enrollment or a student balance.
const (
	// Enrollment events
	EventEnrollmentSubmitted EventType = "enrollment.submitted"
	EventEnrollmentApproved  EventType = "enrollment.approved"
	EventEnrollmentRejected  EventType = "enrollment.rejected"
	EventEnrollmentReset     EventType = "enrollment.reset"

	// Ledger events
	EventBalanceDebited   EventType = "ledger.debited"
	EventBalanceRefunded  EventType = "ledger.refunded"
	EventBalanceRecharged EventType = "ledger.recharged"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// EventPublisher publishes domain events to interested subscribers.
type EventPublisher interface {
	Publish(event Event) error
}

// EventHandler processes a published event.
type EventHandler func(event Event)

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Enrollment Events
// ═══════════════════════════════════════════════════════════════════════════

// EnrollmentSubmittedEvent is emitted when a student enrolls in a course and
// the balance debit commits.
type EnrollmentSubmittedEvent struct {
	BaseEvent
	StudentID  int64  `json:"student_id"`
	CourseID   int64  `json:"course_id"`
	AmountPaid string `json:"amount_paid"`
}

// Payload implements Event interface.
func (e EnrollmentSubmittedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":  e.StudentID,
		"course_id":   e.CourseID,
		"amount_paid": e.AmountPaid,
	}
}

// EnrollmentReviewedEvent is emitted when an administrator reviews an
// enrollment. Covers approved, rejected and reset-to-pending outcomes.
type EnrollmentReviewedEvent struct {
	BaseEvent
	StudentID      int64  `json:"student_id"`
	CourseID       int64  `json:"course_id"`
	PreviousStatus string `json:"previous_status"`
	NewStatus      string `json:"new_status"`
	Refund         string `json:"refund"`
}

// Payload implements Event interface.
func (e EnrollmentReviewedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":      e.StudentID,
		"course_id":       e.CourseID,
		"previous_status": e.PreviousStatus,
		"new_status":      e.NewStatus,
		"refund":          e.Refund,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Ledger Events
// ═══════════════════════════════════════════════════════════════════════════

// BalanceRechargedEvent is emitted when a student tops up their balance.
type BalanceRechargedEvent struct {
	BaseEvent
	StudentID  int64  `json:"student_id"`
	Amount     string `json:"amount"`
	NewBalance string `json:"new_balance"`
}

// Payload implements Event interface.
func (e BalanceRechargedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":  e.StudentID,
		"amount":      e.Amount,
		"new_balance": e.NewBalance,
	}
}
