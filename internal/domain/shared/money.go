// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ═══════════════════════════════════════════════════════════════════════════
// Money Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Money is a fixed-point monetary amount with 2 fractional digits. All balance
// arithmetic goes through this type; float64 is never used for currency.
type Money struct {
	amount decimal.Decimal
}

// Zero is the zero monetary amount.
var Zero = Money{amount: decimal.Zero}

// NewMoney parses a decimal string ("80.00") into Money, rounding to 2
// fractional digits. Returns ErrInvalidAmount for unparseable input.
func NewMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Zero, WrapError("shared", "NewMoney", ErrInvalidInput, "not a decimal amount", err)
	}
	return Money{amount: d.Round(2)}, nil
}

// MustMoney parses a decimal string and panics on failure. For constants and
// tests only.
func MustMoney(s string) Money {
	m, err := NewMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// MoneyFromDecimal wraps a decimal, rounding to 2 fractional digits.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{amount: d.Round(2)}
}

// ParseAmount parses and validates a caller-supplied amount: it must be
// strictly positive and carry at most 2 fractional digits. Used for recharge
// amounts and everywhere a debit/credit amount enters the ledger.
func ParseAmount(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Zero, ErrInvalidAmount
	}
	if d.Sign() <= 0 {
		return Zero, ErrInvalidAmount
	}
	if d.Exponent() < -2 && !d.Equal(d.Round(2)) {
		return Zero, ErrInvalidAmount
	}
	return Money{amount: d.Round(2)}, nil
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount).Round(2)}
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return Money{amount: m.amount.Sub(other.amount).Round(2)}
}

// LessThan reports whether m < other.
func (m Money) LessThan(other Money) bool {
	return m.amount.LessThan(other.amount)
}

// Equal reports whether m == other.
func (m Money) Equal(other Money) bool {
	return m.amount.Equal(other.amount)
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// IsPositive reports whether the amount is above zero.
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// Decimal returns the underlying decimal value.
func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

// String formats the amount with exactly 2 fractional digits ("80.00").
// This is the only representation used in messages and on the wire.
func (m Money) String() string {
	return m.amount.StringFixed(2)
}

// MarshalJSON encodes the amount as a JSON string with 2 fractional digits.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON decodes a JSON string or number into Money.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := NewMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Principal Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Role is the role carried by an authenticated principal.
type Role string

const (
	// RoleAdmin - administrative staff; reviews enrollments.
	RoleAdmin Role = "admin"
	// RoleTeacher - teaching staff; read-only here.
	RoleTeacher Role = "teacher"
	// RoleStudent - enrolled or prospective student; owns a balance.
	RoleStudent Role = "student"
)

// IsValid checks that the role is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	default:
		return false
	}
}

// Principal is the authenticated identity attached to each request by the
// upstream authentication collaborator. The core trusts it without
// re-validating credentials.
type Principal struct {
	// UserID is the identifier of the authenticated user account.
	UserID int64

	// Role determines which operations the principal may perform.
	Role Role

	// LinkedEntityID links the user to a student or teacher row. For
	// students this is the student_id the ledger operates on.
	LinkedEntityID int64
}

// IsValid checks that the principal carries a usable identity.
func (p Principal) IsValid() bool {
	return p.UserID > 0 && p.Role.IsValid()
}

// StudentID returns the linked student identifier. Only meaningful when
// Role is RoleStudent.
func (p Principal) StudentID() int64 {
	return p.LinkedEntityID
}
