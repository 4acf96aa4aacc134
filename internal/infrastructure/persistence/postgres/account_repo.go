// Package postgres implements the PostgreSQL persistence layer for the
// enrollment service.
package postgres

import (
	"context"
	"fmt"

	"github.com/coursedesk/enrollment-hub/internal/domain/account"
	"github.com/coursedesk/enrollment-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACCOUNT LEDGER IMPLEMENTATION
// Balances are NUMERIC(10,2) in storage and shared.Money in Go; every scan
// goes through a ::text cast so arithmetic never touches float64. Per-account
// serialization comes from SELECT ... FOR UPDATE row locks.
// ══════════════════════════════════════════════════════════════════════════════

// AccountRepository implements account.Ledger for PostgreSQL.
type AccountRepository struct {
	conn *Connection
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(conn *Connection) *AccountRepository {
	return &AccountRepository{conn: conn}
}

// GetByID returns the account.
func (r *AccountRepository) GetByID(ctx context.Context, studentID int64) (*account.Account, error) {
	return getAccount(ctx, r.conn, studentID)
}

// Balance returns the current balance, treating an absent prior balance as zero.
func (r *AccountRepository) Balance(ctx context.Context, studentID int64) (shared.Money, error) {
	query := `SELECT COALESCE(balance, 0)::text FROM students WHERE student_id = $1`

	var raw string
	err := r.conn.QueryRow(ctx, query, studentID).Scan(&raw)
	if err != nil {
		if IsNoRows(err) {
			return shared.Zero, shared.ErrStudentNotFound
		}
		return shared.Zero, fmt.Errorf("failed to query balance: %w", err)
	}

	return shared.NewMoney(raw)
}

// Credit atomically adds amount to the balance and returns the new balance.
// A single UPDATE statement, so no explicit transaction is needed.
func (r *AccountRepository) Credit(ctx context.Context, studentID int64, amount shared.Money) (shared.Money, error) {
	return creditAccount(ctx, r.conn, studentID, amount)
}

// ─────────────────────────────────────────────────────────────────────────────
// Shared query implementations, written against Querier so the same code runs
// on the pool and inside atomic units.
// ─────────────────────────────────────────────────────────────────────────────

func getAccount(ctx context.Context, q Querier, studentID int64) (*account.Account, error) {
	query := `
		SELECT student_id, student_name, COALESCE(balance, 0)::text, course_id, updated_at
		FROM students
		WHERE student_id = $1
	`

	var (
		acct    account.Account
		rawBal  string
		linked  *int64
	)
	err := q.QueryRow(ctx, query, studentID).Scan(&acct.ID, &acct.Name, &rawBal, &linked, &acct.UpdatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to query account: %w", err)
	}

	acct.Balance, err = shared.NewMoney(rawBal)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored balance: %w", err)
	}
	acct.LinkedCourseID = linked

	return &acct, nil
}

func creditAccount(ctx context.Context, q Querier, studentID int64, amount shared.Money) (shared.Money, error) {
	if !amount.IsPositive() {
		return shared.Zero, shared.ErrInvalidAmount
	}

	query := `
		UPDATE students
		SET balance = COALESCE(balance, 0) + $2::numeric, updated_at = NOW()
		WHERE student_id = $1
		RETURNING balance::text
	`

	var raw string
	err := q.QueryRow(ctx, query, studentID, amount.String()).Scan(&raw)
	if err != nil {
		if IsNoRows(err) {
			return shared.Zero, shared.ErrStudentNotFound
		}
		return shared.Zero, fmt.Errorf("failed to credit account: %w", err)
	}

	return shared.NewMoney(raw)
}

// ══════════════════════════════════════════════════════════════════════════════
// TX-SCOPED LEDGER
// ══════════════════════════════════════════════════════════════════════════════

// txLedger implements account.TxLedger on a transaction's Querier.
type txLedger struct {
	q Querier
}

// Debit locks the account row, re-checks sufficiency under the lock, and
// subtracts the amount. Two concurrent debits on one account serialize here;
// the second sees the post-debit balance and fails the sufficiency check if
// the funds are gone.
func (l txLedger) Debit(ctx context.Context, studentID int64, amount shared.Money) (shared.Money, error) {
	if !amount.IsPositive() {
		return shared.Zero, shared.ErrInvalidAmount
	}

	lockQuery := `SELECT COALESCE(balance, 0)::text FROM students WHERE student_id = $1 FOR UPDATE`

	var raw string
	err := l.q.QueryRow(ctx, lockQuery, studentID).Scan(&raw)
	if err != nil {
		if IsNoRows(err) {
			return shared.Zero, shared.ErrStudentNotFound
		}
		return shared.Zero, fmt.Errorf("failed to lock account: %w", err)
	}

	balance, err := shared.NewMoney(raw)
	if err != nil {
		return shared.Zero, fmt.Errorf("failed to parse stored balance: %w", err)
	}
	if balance.LessThan(amount) {
		return shared.Zero, shared.ErrInsufficientFunds
	}

	updateQuery := `
		UPDATE students
		SET balance = balance - $2::numeric, updated_at = NOW()
		WHERE student_id = $1
		RETURNING balance::text
	`

	err = l.q.QueryRow(ctx, updateQuery, studentID, amount.String()).Scan(&raw)
	if err != nil {
		if IsCheckViolation(err) {
			// The CHECK constraint is a backstop; the locked sufficiency
			// check above should have caught this.
			return shared.Zero, shared.ErrInsufficientFunds
		}
		return shared.Zero, fmt.Errorf("failed to debit account: %w", err)
	}

	return shared.NewMoney(raw)
}

// Credit mirrors the pool-level credit inside the unit.
func (l txLedger) Credit(ctx context.Context, studentID int64, amount shared.Money) (shared.Money, error) {
	return creditAccount(ctx, l.q, studentID, amount)
}

// LinkCourse sets the linked course, skipping the write when unchanged.
func (l txLedger) LinkCourse(ctx context.Context, studentID, courseID int64) error {
	query := `
		UPDATE students
		SET course_id = $2, updated_at = NOW()
		WHERE student_id = $1 AND (course_id IS NULL OR course_id <> $2)
	`

	if _, err := l.q.Exec(ctx, query, studentID, courseID); err != nil {
		return fmt.Errorf("failed to link course: %w", err)
	}
	return nil
}

// UnlinkCourse clears the linked course only when it currently equals courseID.
func (l txLedger) UnlinkCourse(ctx context.Context, studentID, courseID int64) error {
	query := `
		UPDATE students
		SET course_id = NULL, updated_at = NOW()
		WHERE student_id = $1 AND course_id = $2
	`

	if _, err := l.q.Exec(ctx, query, studentID, courseID); err != nil {
		return fmt.Errorf("failed to unlink course: %w", err)
	}
	return nil
}
