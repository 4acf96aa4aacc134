package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/coursedesk/enrollment-hub/internal/application/authz"
	"github.com/coursedesk/enrollment-hub/internal/domain/account"
	"github.com/coursedesk/enrollment-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECHARGE COMMAND
// Pure credit with no associated enrollment: the student tops up their own
// prepaid balance.
// ══════════════════════════════════════════════════════════════════════════════

// RechargeCommand contains the data to top up a balance.
type RechargeCommand struct {
	// Principal is the authenticated identity. Must carry the student role.
	Principal shared.Principal

	// Amount is the top-up amount as a decimal string. Must be positive
	// with at most 2 fractional digits.
	Amount string
}

// RechargeResult contains the outcome of a recharge.
type RechargeResult struct {
	// NewBalance is the balance after the credit.
	NewBalance shared.Money

	// Message is a human-readable summary for the caller.
	Message string
}

// RechargeHandler handles the RechargeCommand.
type RechargeHandler struct {
	ledger    account.Ledger
	publisher shared.EventPublisher
}

// NewRechargeHandler creates a new RechargeHandler.
func NewRechargeHandler(ledger account.Ledger, publisher shared.EventPublisher) *RechargeHandler {
	return &RechargeHandler{ledger: ledger, publisher: publisher}
}

// Handle executes the recharge command.
func (h *RechargeHandler) Handle(ctx context.Context, cmd RechargeCommand) (*RechargeResult, error) {
	if err := authz.Authorize(cmd.Principal, authz.CapRecharge); err != nil {
		return nil, err
	}

	amount, err := shared.ParseAmount(cmd.Amount)
	if err != nil {
		return nil, err
	}

	studentID := cmd.Principal.StudentID()
	if studentID <= 0 {
		return nil, shared.NewDomainError("ledger", "Recharge", shared.ErrInvalidID, "principal carries no student ID")
	}

	balance, err := h.ledger.Credit(ctx, studentID, amount)
	if err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, internalErr("ledger", "Recharge", err)
	}

	if h.publisher != nil {
		event := shared.BalanceRechargedEvent{
			BaseEvent:  shared.NewBaseEvent(shared.EventBalanceRecharged, fmt.Sprintf("%d", studentID)),
			StudentID:  studentID,
			Amount:     amount.String(),
			NewBalance: balance.String(),
		}
		_ = h.publisher.Publish(event)
	}

	return &RechargeResult{
		NewBalance: balance,
		Message:    fmt.Sprintf("recharge successful, balance %s", balance),
	}, nil
}
