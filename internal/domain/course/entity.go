// Package course contains the read-only course catalog consumed by the
// enrollment state machine. Courses are owned by the course-management
// collaborator; this service resolves price, lifecycle status and existence
// and never mutates a course.
package course

import (
	"github.com/coursedesk/enrollment-hub/internal/domain/shared"
)

// Status is the lifecycle status of a course.
type Status string

const (
	// StatusNotStarted - the course has not started yet.
	StatusNotStarted Status = "not_started"
	// StatusInProgress - the course is currently running.
	StatusInProgress Status = "in_progress"
	// StatusCompleted - the course has finished; enrollment is closed.
	StatusCompleted Status = "completed"
)

// IsValid checks that the status is one of the known lifecycle states.
func (s Status) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// AcceptsEnrollment reports whether students may still enroll.
func (s Status) AcceptsEnrollment() bool {
	return s != StatusCompleted
}

// Course represents a course as seen by the enrollment core.
type Course struct {
	// ID is the course identifier.
	ID int64

	// Name is the course display name.
	Name string

	// TeacherName is the name of the teacher running the course.
	TeacherName string

	// Price is the enrollment price. Positive; snapshotted into the
	// enrollment as amount_paid at enroll time.
	Price shared.Money

	// Status is the lifecycle status.
	Status Status

	// IsDeleted marks a soft-deleted course. Soft-deleted courses are
	// invisible to FindActive.
	IsDeleted bool
}
