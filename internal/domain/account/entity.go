// Package account contains the student account aggregate: the prepaid balance
// and the optional link to the course the student was approved into. The
// account itself is created by the student-management collaborator; this
// service only mutates balance and course link, and only through the Ledger.
package account

import (
	"time"

	"github.com/coursedesk/enrollment-hub/internal/domain/shared"
)

// Account represents a student account holding a prepaid balance.
type Account struct {
	// ID is the student identifier assigned by the student-management
	// collaborator.
	ID int64

	// Name is the student's display name. Used by enrollment listing
	// filters; never mutated here.
	Name string

	// Balance is the prepaid balance. Non-negative at all times; mutated
	// only through Ledger.Debit and Ledger.Credit.
	Balance shared.Money

	// LinkedCourseID is the course the student was approved into, nil when
	// none. Set and cleared by the enrollment review step.
	LinkedCourseID *int64

	// UpdatedAt is when the account row last changed.
	UpdatedAt time.Time
}

// IsLinkedTo reports whether the account is linked to the given course.
func (a *Account) IsLinkedTo(courseID int64) bool {
	return a.LinkedCourseID != nil && *a.LinkedCourseID == courseID
}

// CanAfford reports whether the balance covers the given amount.
func (a *Account) CanAfford(amount shared.Money) bool {
	return !a.Balance.LessThan(amount)
}
