package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursedesk/enrollment-hub/internal/domain/shared"
)

func TestRecharge_Success(t *testing.T) {
	env := newTestEnv()
	env.seedStudent(7, "Aliya", "10.00")

	result, err := env.recharge.Handle(context.Background(), RechargeCommand{
		Principal: studentPrincipal(7),
		Amount:    "50",
	})
	require.NoError(t, err)

	assert.Equal(t, "60.00", result.NewBalance.String())
	assert.Equal(t, "recharge successful, balance 60.00", result.Message)
	assert.Equal(t, "60.00", env.store.Account(7).Balance.String())

	events := env.events.byType(shared.EventBalanceRecharged)
	require.Len(t, events, 1)
	assert.Equal(t, "7", events[0].AggregateID())
}

func TestRecharge_InvalidAmounts(t *testing.T) {
	env := newTestEnv()
	env.seedStudent(7, "Aliya", "10.00")

	for _, amount := range []string{"", "0", "0.00", "-5", "10.001", "abc"} {
		_, err := env.recharge.Handle(context.Background(), RechargeCommand{
			Principal: studentPrincipal(7),
			Amount:    amount,
		})
		assert.ErrorIs(t, err, shared.ErrInvalidAmount, "amount %q", amount)
	}

	// Balance never moved.
	assert.Equal(t, "10.00", env.store.Account(7).Balance.String())
}

func TestRecharge_StudentNotFound(t *testing.T) {
	env := newTestEnv()

	_, err := env.recharge.Handle(context.Background(), RechargeCommand{
		Principal: studentPrincipal(42),
		Amount:    "50.00",
	})
	assert.ErrorIs(t, err, shared.ErrStudentNotFound)
}

func TestRecharge_RequiresStudentRole(t *testing.T) {
	env := newTestEnv()
	env.seedStudent(7, "Aliya", "10.00")

	for _, p := range []shared.Principal{
		adminPrincipal(),
		{UserID: 2, Role: shared.RoleTeacher, LinkedEntityID: 5},
	} {
		_, err := env.recharge.Handle(context.Background(), RechargeCommand{
			Principal: p,
			Amount:    "50.00",
		})
		assert.ErrorIs(t, err, shared.ErrNotPermitted)
	}
}
