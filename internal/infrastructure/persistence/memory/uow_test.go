package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursedesk/enrollment-hub/internal/domain/account"
	"github.com/coursedesk/enrollment-hub/internal/domain/course"
	"github.com/coursedesk/enrollment-hub/internal/domain/enrollment"
	"github.com/coursedesk/enrollment-hub/internal/domain/shared"
)

func newEnrollment(id string, studentID, courseID int64, price string) *enrollment.Enrollment {
	return enrollment.New(id, studentID, courseID, shared.MustMoney(price), time.Now().UTC())
}

func TestUnitOfWork_CommitsOnSuccess(t *testing.T) {
	store := NewStore()
	store.PutAccount(&account.Account{ID: 7, Name: "Aliya", Balance: shared.MustMoney("100.00")})
	uow := NewUnitOfWork(store)

	err := uow.Execute(context.Background(), func(ctx context.Context, s enrollment.Scope) error {
		if _, err := s.Ledger().Debit(ctx, 7, shared.MustMoney("80.00")); err != nil {
			return err
		}
		return s.Enrollments().Insert(ctx, newEnrollment("e-1", 7, 3, "80.00"))
	})
	require.NoError(t, err)

	assert.Equal(t, "20.00", store.Account(7).Balance.String())
	assert.NotNil(t, store.Enrollment("e-1"))
}

func TestUnitOfWork_RollsBackOnError(t *testing.T) {
	store := NewStore()
	store.PutAccount(&account.Account{ID: 7, Name: "Aliya", Balance: shared.MustMoney("100.00")})
	uow := NewUnitOfWork(store)

	boom := errors.New("boom")
	err := uow.Execute(context.Background(), func(ctx context.Context, s enrollment.Scope) error {
		if _, err := s.Ledger().Debit(ctx, 7, shared.MustMoney("80.00")); err != nil {
			return err
		}
		if err := s.Enrollments().Insert(ctx, newEnrollment("e-1", 7, 3, "80.00")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	// Both mutations were undone together.
	assert.Equal(t, "100.00", store.Account(7).Balance.String())
	assert.Nil(t, store.Enrollment("e-1"))
}

func TestUnitOfWork_InsertRejectsActivePair(t *testing.T) {
	store := NewStore()
	store.PutEnrollment(newEnrollment("e-1", 7, 3, "80.00"))
	uow := NewUnitOfWork(store)

	err := uow.Execute(context.Background(), func(ctx context.Context, s enrollment.Scope) error {
		return s.Enrollments().Insert(ctx, newEnrollment("e-2", 7, 3, "80.00"))
	})
	assert.ErrorIs(t, err, shared.ErrDuplicateEnrollment)

	// A rejected row does not block the pair.
	rejected := newEnrollment("e-1", 7, 3, "80.00")
	rejected.Status = enrollment.StatusRejected
	store.PutEnrollment(rejected)

	err = uow.Execute(context.Background(), func(ctx context.Context, s enrollment.Scope) error {
		return s.Enrollments().Insert(ctx, newEnrollment("e-2", 7, 3, "80.00"))
	})
	assert.NoError(t, err)
}

func TestUnitOfWork_DebitInsufficientFunds(t *testing.T) {
	store := NewStore()
	store.PutAccount(&account.Account{ID: 7, Name: "Aliya", Balance: shared.MustMoney("50.00")})
	uow := NewUnitOfWork(store)

	err := uow.Execute(context.Background(), func(ctx context.Context, s enrollment.Scope) error {
		_, err := s.Ledger().Debit(ctx, 7, shared.MustMoney("80.00"))
		return err
	})
	assert.ErrorIs(t, err, shared.ErrInsufficientFunds)
	assert.Equal(t, "50.00", store.Account(7).Balance.String())
}

func TestUnitOfWork_LinkAndUnlinkCourse(t *testing.T) {
	store := NewStore()
	store.PutAccount(&account.Account{ID: 7, Name: "Aliya", Balance: shared.Zero})
	uow := NewUnitOfWork(store)
	ctx := context.Background()

	require.NoError(t, uow.Execute(ctx, func(ctx context.Context, s enrollment.Scope) error {
		return s.Ledger().LinkCourse(ctx, 7, 3)
	}))
	require.NotNil(t, store.Account(7).LinkedCourseID)
	assert.Equal(t, int64(3), *store.Account(7).LinkedCourseID)

	// Unlinking a different course leaves the link alone.
	require.NoError(t, uow.Execute(ctx, func(ctx context.Context, s enrollment.Scope) error {
		return s.Ledger().UnlinkCourse(ctx, 7, 4)
	}))
	require.NotNil(t, store.Account(7).LinkedCourseID)

	require.NoError(t, uow.Execute(ctx, func(ctx context.Context, s enrollment.Scope) error {
		return s.Ledger().UnlinkCourse(ctx, 7, 3)
	}))
	assert.Nil(t, store.Account(7).LinkedCourseID)
}

func TestUnitOfWork_CurrentPriceMissingCourseIsZero(t *testing.T) {
	store := NewStore()
	store.PutCourse(&course.Course{ID: 3, Name: "Go Basics", Price: shared.MustMoney("80.00"), Status: course.StatusInProgress})
	uow := NewUnitOfWork(store)

	err := uow.Execute(context.Background(), func(ctx context.Context, s enrollment.Scope) error {
		price, err := s.Catalog().CurrentPrice(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, "80.00", price.String())

		price, err = s.Catalog().CurrentPrice(ctx, 999)
		require.NoError(t, err)
		assert.True(t, price.IsZero())
		return nil
	})
	require.NoError(t, err)
}

func TestUnitOfWork_CancelledContext(t *testing.T) {
	store := NewStore()
	uow := NewUnitOfWork(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := uow.Execute(ctx, func(ctx context.Context, s enrollment.Scope) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
