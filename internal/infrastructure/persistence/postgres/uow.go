// Package postgres implements the PostgreSQL persistence layer for the
// enrollment service.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/coursedesk/enrollment-hub/internal/domain/account"
	"github.com/coursedesk/enrollment-hub/internal/domain/course"
	"github.com/coursedesk/enrollment-hub/internal/domain/enrollment"
)

// ══════════════════════════════════════════════════════════════════════════════
// UNIT OF WORK
// One pgx transaction per atomic unit, read-committed, with FOR UPDATE row
// locks taken by the tx-scoped repositories. Commit on nil, rollback on
// error, panic, or cancellation.
// ══════════════════════════════════════════════════════════════════════════════

// UnitOfWork implements enrollment.UnitOfWork on a PostgreSQL connection.
type UnitOfWork struct {
	conn *Connection
}

// NewUnitOfWork creates a new UnitOfWork.
func NewUnitOfWork(conn *Connection) *UnitOfWork {
	return &UnitOfWork{conn: conn}
}

// Execute runs fn inside a single transaction.
func (u *UnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, s enrollment.Scope) error) error {
	return u.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		return fn(ctx, txScope{tx: tx})
	})
}

// txScope binds the tx-scoped repositories to one transaction.
type txScope struct {
	tx pgx.Tx
}

// Enrollments returns the enrollment repository bound to this unit.
func (s txScope) Enrollments() enrollment.TxRepository {
	return txEnrollments{q: s.tx}
}

// Ledger returns the account ledger bound to this unit.
func (s txScope) Ledger() account.TxLedger {
	return txLedger{q: s.tx}
}

// Catalog returns the catalog lookup bound to this unit.
func (s txScope) Catalog() course.TxCatalog {
	return txCatalog{q: s.tx}
}
