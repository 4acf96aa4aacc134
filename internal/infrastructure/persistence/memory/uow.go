package memory

import (
	"context"
	"strings"

	"github.com/coursedesk/enrollment-hub/internal/domain/account"
	"github.com/coursedesk/enrollment-hub/internal/domain/course"
	"github.com/coursedesk/enrollment-hub/internal/domain/enrollment"
	"github.com/coursedesk/enrollment-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// UNIT OF WORK
// The store mutex is held for the whole unit, so units are serializable. A
// snapshot taken at entry restores the state when fn fails, which gives full
// rollback without a journal.
// ══════════════════════════════════════════════════════════════════════════════

// UnitOfWork implements enrollment.UnitOfWork on the in-memory store.
type UnitOfWork struct {
	store *Store
}

// NewUnitOfWork creates a new UnitOfWork.
func NewUnitOfWork(store *Store) *UnitOfWork {
	return &UnitOfWork{store: store}
}

// Execute runs fn atomically against the store.
func (u *UnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, s enrollment.Scope) error) error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := u.store.snapshotLocked()
	scope := txScope{store: u.store}

	if err := fn(ctx, scope); err != nil {
		u.store.restoreLocked(snapshot)
		return err
	}
	if err := ctx.Err(); err != nil {
		u.store.restoreLocked(snapshot)
		return err
	}
	return nil
}

type storeSnapshot struct {
	accounts    map[int64]*account.Account
	enrollments map[string]*enrollment.Enrollment
}

func (s *Store) snapshotLocked() storeSnapshot {
	snap := storeSnapshot{
		accounts:    make(map[int64]*account.Account, len(s.accounts)),
		enrollments: make(map[string]*enrollment.Enrollment, len(s.enrollments)),
	}
	for id, a := range s.accounts {
		cp := *a
		snap.accounts[id] = &cp
	}
	for id, e := range s.enrollments {
		cp := *e
		snap.enrollments[id] = &cp
	}
	return snap
}

func (s *Store) restoreLocked(snap storeSnapshot) {
	s.accounts = snap.accounts
	s.enrollments = snap.enrollments
}

// ─────────────────────────────────────────────────────────────────────────────
// Scope implementation. The mutex is already held by Execute, so the
// tx-scoped views call the *Locked primitives directly.
// ─────────────────────────────────────────────────────────────────────────────

type txScope struct {
	store *Store
}

func (s txScope) Enrollments() enrollment.TxRepository { return txEnrollments{store: s.store} }
func (s txScope) Ledger() account.TxLedger             { return txLedger{store: s.store} }
func (s txScope) Catalog() course.TxCatalog            { return txCatalog{store: s.store} }

type txLedger struct {
	store *Store
}

func (l txLedger) Debit(ctx context.Context, studentID int64, amount shared.Money) (shared.Money, error) {
	return l.store.debitLocked(studentID, amount)
}

func (l txLedger) Credit(ctx context.Context, studentID int64, amount shared.Money) (shared.Money, error) {
	return l.store.creditLocked(studentID, amount)
}

func (l txLedger) LinkCourse(ctx context.Context, studentID, courseID int64) error {
	a, ok := l.store.accounts[studentID]
	if !ok {
		return shared.ErrStudentNotFound
	}
	if a.LinkedCourseID == nil || *a.LinkedCourseID != courseID {
		id := courseID
		a.LinkedCourseID = &id
	}
	return nil
}

func (l txLedger) UnlinkCourse(ctx context.Context, studentID, courseID int64) error {
	a, ok := l.store.accounts[studentID]
	if !ok {
		return shared.ErrStudentNotFound
	}
	if a.LinkedCourseID != nil && *a.LinkedCourseID == courseID {
		a.LinkedCourseID = nil
	}
	return nil
}

type txEnrollments struct {
	store *Store
}

func (t txEnrollments) Insert(ctx context.Context, e *enrollment.Enrollment) error {
	if _, exists := t.store.enrollments[e.ID]; exists {
		return shared.ErrDuplicateEnrollment
	}
	if e.Status.IsActive() && t.store.hasActiveLocked(e.StudentID, e.CourseID) {
		return shared.ErrDuplicateEnrollment
	}
	cp := *e
	t.store.enrollments[e.ID] = &cp
	return nil
}

func (t txEnrollments) GetForUpdate(ctx context.Context, id string) (*enrollment.Enrollment, error) {
	e, ok := t.store.enrollments[id]
	if !ok {
		return nil, shared.ErrEnrollmentNotFound
	}
	cp := *e
	return &cp, nil
}

func (t txEnrollments) UpdateStatus(ctx context.Context, id string, status enrollment.Status) error {
	e, ok := t.store.enrollments[id]
	if !ok {
		return shared.ErrEnrollmentNotFound
	}
	e.Status = status
	return nil
}

type txCatalog struct {
	store *Store
}

func (c txCatalog) CurrentPrice(ctx context.Context, courseID int64) (shared.Money, error) {
	crs, ok := c.store.courses[courseID]
	if !ok {
		return shared.Zero, nil
	}
	return crs.Price, nil
}

// containsFold reports whether s contains substr, case-insensitively.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
