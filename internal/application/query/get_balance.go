package query

import (
	"context"
	"errors"

	"github.com/coursedesk/enrollment-hub/internal/application/authz"
	"github.com/coursedesk/enrollment-hub/internal/domain/account"
	"github.com/coursedesk/enrollment-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET BALANCE QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetBalanceQuery reads the principal's own balance.
type GetBalanceQuery struct {
	// Principal is the authenticated identity. Must carry the student role.
	Principal shared.Principal
}

// GetBalanceHandler handles the GetBalanceQuery.
type GetBalanceHandler struct {
	ledger account.Ledger
}

// NewGetBalanceHandler creates a new GetBalanceHandler.
func NewGetBalanceHandler(ledger account.Ledger) *GetBalanceHandler {
	return &GetBalanceHandler{ledger: ledger}
}

// Handle executes the query.
func (h *GetBalanceHandler) Handle(ctx context.Context, q GetBalanceQuery) (shared.Money, error) {
	if err := authz.Authorize(q.Principal, authz.CapViewBalance); err != nil {
		return shared.Zero, err
	}

	studentID := q.Principal.StudentID()
	if studentID <= 0 {
		return shared.Zero, shared.NewDomainError("ledger", "GetBalance", shared.ErrInvalidID, "principal carries no student ID")
	}

	balance, err := h.ledger.Balance(ctx, studentID)
	if err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			return shared.Zero, err
		}
		return shared.Zero, shared.WrapError("ledger", "GetBalance", shared.ErrInternal, "balance lookup failed", err)
	}
	return balance, nil
}
