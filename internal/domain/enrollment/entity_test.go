package enrollment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursedesk/enrollment-hub/internal/domain/shared"
)

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"pending", "approved", "rejected"} {
		s, err := ParseStatus(valid)
		require.NoError(t, err)
		assert.Equal(t, Status(valid), s)
	}

	for _, invalid := range []string{"", "Pending", "APPROVED", "cancelled", "done"} {
		_, err := ParseStatus(invalid)
		assert.ErrorIs(t, err, shared.ErrInvalidStatus, "input %q", invalid)
	}
}

func TestStatus_IsActive(t *testing.T) {
	assert.True(t, StatusPending.IsActive())
	assert.True(t, StatusApproved.IsActive())
	assert.False(t, StatusRejected.IsActive())
}

func TestNew_SnapshotsPrice(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	e := New("e-1", 7, 3, shared.MustMoney("80.00"), now)

	assert.Equal(t, StatusPending, e.Status)
	require.NotNil(t, e.AmountPaid)
	assert.Equal(t, "80.00", e.AmountPaid.String())
	assert.Equal(t, now, e.EnrolledAt)
}

func TestRefundDue_RejectRefundsSnapshot(t *testing.T) {
	e := New("e-1", 7, 3, shared.MustMoney("80.00"), time.Now())

	// The snapshot governs the refund even when the current price differs.
	refund := e.RefundDue(StatusRejected, shared.MustMoney("120.00"))
	assert.Equal(t, "80.00", refund.String())
}

func TestRefundDue_NoRefundCases(t *testing.T) {
	e := New("e-1", 7, 3, shared.MustMoney("80.00"), time.Now())

	// Approving or resetting never refunds.
	assert.True(t, e.RefundDue(StatusApproved, shared.Zero).IsZero())
	assert.True(t, e.RefundDue(StatusPending, shared.Zero).IsZero())

	// Re-rejecting an already rejected enrollment refunds nothing.
	e.Status = StatusRejected
	assert.True(t, e.RefundDue(StatusRejected, shared.Zero).IsZero())
}

func TestRefundDue_LegacyRowFallsBackToCurrentPrice(t *testing.T) {
	e := &Enrollment{
		ID:        "legacy-1",
		StudentID: 7,
		CourseID:  3,
		Status:    StatusPending,
	}

	refund := e.RefundDue(StatusRejected, shared.MustMoney("60.00"))
	assert.Equal(t, "60.00", refund.String())

	// Course row gone: current price is zero, so nothing is refunded.
	assert.True(t, e.RefundDue(StatusRejected, shared.Zero).IsZero())
}
