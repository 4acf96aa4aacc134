// Package memory provides an in-memory implementation of the ledger, catalog
// and enrollment stores for tests and local development. A single mutex held
// for the duration of each atomic unit gives the same serialization and
// rollback guarantees the PostgreSQL layer provides with transactions and row
// locks.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/coursedesk/enrollment-hub/internal/domain/account"
	"github.com/coursedesk/enrollment-hub/internal/domain/course"
	"github.com/coursedesk/enrollment-hub/internal/domain/enrollment"
	"github.com/coursedesk/enrollment-hub/internal/domain/shared"
)

// Store holds all in-memory state.
type Store struct {
	mu          sync.Mutex
	accounts    map[int64]*account.Account
	courses     map[int64]*course.Course
	enrollments map[string]*enrollment.Enrollment
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts:    make(map[int64]*account.Account),
		courses:     make(map[int64]*course.Course),
		enrollments: make(map[string]*enrollment.Enrollment),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Seeding helpers (tests and local development)
// ─────────────────────────────────────────────────────────────────────────────

// PutAccount stores an account.
func (s *Store) PutAccount(a *account.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.accounts[a.ID] = &cp
}

// PutCourse stores a course.
func (s *Store) PutCourse(c *course.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.courses[c.ID] = &cp
}

// PutEnrollment stores an enrollment. Used to seed legacy rows in tests.
func (s *Store) PutEnrollment(e *enrollment.Enrollment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.enrollments[e.ID] = &cp
}

// Account returns a copy of the stored account, or nil.
func (s *Store) Account(id int64) *account.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil
	}
	cp := *a
	return &cp
}

// Enrollment returns a copy of the stored enrollment, or nil.
func (s *Store) Enrollment(id string) *enrollment.Enrollment {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.enrollments[id]
	if !ok {
		return nil
	}
	cp := *e
	return &cp
}

// ─────────────────────────────────────────────────────────────────────────────
// Locked primitives shared by the pool-level and tx-scoped views
// ─────────────────────────────────────────────────────────────────────────────

func (s *Store) creditLocked(studentID int64, amount shared.Money) (shared.Money, error) {
	if !amount.IsPositive() {
		return shared.Zero, shared.ErrInvalidAmount
	}
	a, ok := s.accounts[studentID]
	if !ok {
		return shared.Zero, shared.ErrStudentNotFound
	}
	a.Balance = a.Balance.Add(amount)
	return a.Balance, nil
}

func (s *Store) debitLocked(studentID int64, amount shared.Money) (shared.Money, error) {
	if !amount.IsPositive() {
		return shared.Zero, shared.ErrInvalidAmount
	}
	a, ok := s.accounts[studentID]
	if !ok {
		return shared.Zero, shared.ErrStudentNotFound
	}
	if a.Balance.LessThan(amount) {
		return shared.Zero, shared.ErrInsufficientFunds
	}
	a.Balance = a.Balance.Sub(amount)
	return a.Balance, nil
}

func (s *Store) hasActiveLocked(studentID, courseID int64) bool {
	for _, e := range s.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID && e.Status.IsActive() {
			return true
		}
	}
	return false
}

// ─────────────────────────────────────────────────────────────────────────────
// account.Ledger
// ─────────────────────────────────────────────────────────────────────────────

// GetByID returns the account.
func (s *Store) GetByID(ctx context.Context, studentID int64) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[studentID]
	if !ok {
		return nil, shared.ErrStudentNotFound
	}
	cp := *a
	return &cp, nil
}

// Balance returns the current balance.
func (s *Store) Balance(ctx context.Context, studentID int64) (shared.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[studentID]
	if !ok {
		return shared.Zero, shared.ErrStudentNotFound
	}
	return a.Balance, nil
}

// Credit adds amount to the balance.
func (s *Store) Credit(ctx context.Context, studentID int64, amount shared.Money) (shared.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creditLocked(studentID, amount)
}

// ─────────────────────────────────────────────────────────────────────────────
// course.Catalog
// ─────────────────────────────────────────────────────────────────────────────

// FindActive returns the course, excluding soft-deleted rows.
func (s *Store) FindActive(ctx context.Context, courseID int64) (*course.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courses[courseID]
	if !ok || c.IsDeleted {
		return nil, shared.ErrCourseNotFound
	}
	cp := *c
	return &cp, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// enrollment.Repository
// ─────────────────────────────────────────────────────────────────────────────

// GetEnrollment returns the enrollment.
func (s *Store) GetEnrollment(ctx context.Context, id string) (*enrollment.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.enrollments[id]
	if !ok {
		return nil, shared.ErrEnrollmentNotFound
	}
	cp := *e
	return &cp, nil
}

// HasActive reports whether a pending or approved enrollment exists for the pair.
func (s *Store) HasActive(ctx context.Context, studentID, courseID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasActiveLocked(studentID, courseID), nil
}

// List returns enrollments joined with names, newest first.
func (s *Store) List(ctx context.Context, filter enrollment.ListFilter) ([]*enrollment.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []*enrollment.Row
	for _, e := range s.enrollments {
		if filter.StudentID > 0 && e.StudentID != filter.StudentID {
			continue
		}

		row := &enrollment.Row{Enrollment: *e}
		if a, ok := s.accounts[e.StudentID]; ok {
			row.StudentName = a.Name
		}
		if c, ok := s.courses[e.CourseID]; ok {
			row.CourseName = c.Name
			row.TeacherName = c.TeacherName
			row.CoursePrice = c.Price.String()
			row.CourseStatus = c.Status
		}

		if filter.StudentName != "" && !containsFold(row.StudentName, filter.StudentName) {
			continue
		}
		if filter.CourseName != "" && !containsFold(row.CourseName, filter.CourseName) {
			continue
		}

		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].EnrolledAt.After(rows[j].EnrolledAt)
	})
	return rows, nil
}

// enrollmentRepoAdapter exposes GetEnrollment under the interface name.
type enrollmentRepoAdapter struct {
	s *Store
}

func (a enrollmentRepoAdapter) GetByID(ctx context.Context, id string) (*enrollment.Enrollment, error) {
	return a.s.GetEnrollment(ctx, id)
}

func (a enrollmentRepoAdapter) List(ctx context.Context, filter enrollment.ListFilter) ([]*enrollment.Row, error) {
	return a.s.List(ctx, filter)
}

func (a enrollmentRepoAdapter) HasActive(ctx context.Context, studentID, courseID int64) (bool, error) {
	return a.s.HasActive(ctx, studentID, courseID)
}

// Enrollments returns the store as an enrollment.Repository.
func (s *Store) Enrollments() enrollment.Repository {
	return enrollmentRepoAdapter{s: s}
}
