package account

import (
	"context"

	"github.com/coursedesk/enrollment-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER INTERFACES
// The ledger is the only way balances change. Implementations must serialize
// concurrent debits/credits per account (row lock or equivalent) so two
// debits can never both pass the sufficiency check against a stale balance.
// ══════════════════════════════════════════════════════════════════════════════

// Ledger provides account reads and single-statement balance mutations
// executed outside an explicit atomic unit.
type Ledger interface {
	// GetByID returns the account.
	// Returns ErrStudentNotFound if the account does not exist.
	GetByID(ctx context.Context, studentID int64) (*Account, error)

	// Balance returns the current balance, treating an absent prior balance
	// as zero. Returns ErrStudentNotFound if the account does not exist.
	Balance(ctx context.Context, studentID int64) (shared.Money, error)

	// Credit atomically adds amount to the balance and returns the new
	// balance. Amount must be positive with at most 2 fractional digits,
	// else ErrInvalidAmount. Returns ErrStudentNotFound if the account does
	// not exist. There is no upper bound.
	Credit(ctx context.Context, studentID int64, amount shared.Money) (shared.Money, error)
}

// TxLedger is the ledger surface available inside an atomic unit. All methods
// run on the unit's transaction; the unit commits or rolls back as a whole.
type TxLedger interface {
	// Debit atomically subtracts amount from the balance and returns the new
	// balance. The implementation locks the account row for the remainder of
	// the unit. Returns ErrInsufficientFunds when balance < amount,
	// ErrStudentNotFound when there is no such account, and ErrInvalidAmount
	// when the amount is not a positive 2-decimal value.
	Debit(ctx context.Context, studentID int64, amount shared.Money) (shared.Money, error)

	// Credit mirrors Ledger.Credit inside the unit.
	Credit(ctx context.Context, studentID int64, amount shared.Money) (shared.Money, error)

	// LinkCourse sets the account's linked course, skipping the write when it
	// already equals courseID.
	LinkCourse(ctx context.Context, studentID, courseID int64) error

	// UnlinkCourse clears the account's linked course only when it currently
	// equals courseID.
	UnlinkCourse(ctx context.Context, studentID, courseID int64) error
}
