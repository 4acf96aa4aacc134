package enrollment

import (
	"context"

	"github.com/coursedesk/enrollment-hub/internal/domain/account"
	"github.com/coursedesk/enrollment-hub/internal/domain/course"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// ListFilter narrows the enrollment listing. Zero values mean "no filter".
type ListFilter struct {
	// StudentID restricts rows to one student. Always set for student
	// principals, who may only see their own enrollments.
	StudentID int64

	// StudentName matches student display names by substring.
	StudentName string

	// CourseName matches course names by substring.
	CourseName string
}

// Row is an enrollment joined with student, course and teacher names for
// listing. Read model only.
type Row struct {
	Enrollment
	StudentName  string
	CourseName   string
	TeacherName  string
	CoursePrice  string
	CourseStatus course.Status
}

// Repository provides enrollment reads outside an atomic unit.
type Repository interface {
	// GetByID returns the enrollment.
	// Returns ErrEnrollmentNotFound if it does not exist.
	GetByID(ctx context.Context, id string) (*Enrollment, error)

	// List returns enrollments joined with names, newest first.
	List(ctx context.Context, filter ListFilter) ([]*Row, error)

	// HasActive reports whether an enrollment with status pending or
	// approved exists for the pair. Advisory only: the atomic unit closes
	// the race with a uniqueness constraint, this powers the precondition
	// check ordering.
	HasActive(ctx context.Context, studentID, courseID int64) (bool, error)
}

// TxRepository is the enrollment surface available inside an atomic unit.
type TxRepository interface {
	// Insert creates the enrollment row. Returns ErrDuplicateEnrollment when
	// the active-pair uniqueness constraint rejects it.
	Insert(ctx context.Context, e *Enrollment) error

	// GetForUpdate returns the enrollment with its row locked for the
	// remainder of the unit. Returns ErrEnrollmentNotFound if it does not
	// exist.
	GetForUpdate(ctx context.Context, id string) (*Enrollment, error)

	// UpdateStatus sets the enrollment's review status.
	UpdateStatus(ctx context.Context, id string, status Status) error
}

// ══════════════════════════════════════════════════════════════════════════════
// TRANSACTION COORDINATOR
// ══════════════════════════════════════════════════════════════════════════════

// Scope is the set of repositories bound to one atomic unit.
type Scope interface {
	Enrollments() TxRepository
	Ledger() account.TxLedger
	Catalog() course.TxCatalog
}

// UnitOfWork executes a function within an atomic unit: every mutation made
// through the Scope commits or rolls back together, with at least
// read-committed isolation. A unit left open across a cancelled context is
// rolled back.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context, s Scope) error) error
}
