package command

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursedesk/enrollment-hub/internal/domain/course"
	"github.com/coursedesk/enrollment-hub/internal/domain/enrollment"
	"github.com/coursedesk/enrollment-hub/internal/domain/shared"
)

func TestEnroll_Success(t *testing.T) {
	env := newTestEnv()
	env.seedStudent(7, "Aliya", "100.00")
	env.seedCourse(3, "Go Basics", "80.00", course.StatusInProgress)

	result, err := env.enroll.Handle(context.Background(), EnrollCommand{
		Principal: studentPrincipal(7),
		CourseID:  3,
	})
	require.NoError(t, err)

	assert.Equal(t, enrollment.StatusPending, result.Enrollment.Status)
	require.NotNil(t, result.Enrollment.AmountPaid)
	assert.Equal(t, "80.00", result.Enrollment.AmountPaid.String())
	assert.Equal(t, "20.00", result.RemainingBalance.String())
	assert.Contains(t, result.Message, "80.00 debited")
	assert.Contains(t, result.Message, "balance 20.00")

	// Balance was debited in the store.
	acct := env.store.Account(7)
	require.NotNil(t, acct)
	assert.Equal(t, "20.00", acct.Balance.String())

	// Submission event carries the frozen amount.
	events := env.events.byType(shared.EventEnrollmentSubmitted)
	require.Len(t, events, 1)
	assert.Equal(t, result.Enrollment.ID, events[0].AggregateID())
}

func TestEnroll_ExactBalance(t *testing.T) {
	env := newTestEnv()
	env.seedStudent(7, "Aliya", "80.00")
	env.seedCourse(3, "Go Basics", "80.00", course.StatusInProgress)

	result, err := env.enroll.Handle(context.Background(), EnrollCommand{
		Principal: studentPrincipal(7),
		CourseID:  3,
	})
	require.NoError(t, err)
	assert.Equal(t, "0.00", result.RemainingBalance.String())
}

func TestEnroll_CourseNotFound(t *testing.T) {
	env := newTestEnv()
	env.seedStudent(7, "Aliya", "100.00")

	_, err := env.enroll.Handle(context.Background(), EnrollCommand{
		Principal: studentPrincipal(7),
		CourseID:  99,
	})
	assert.ErrorIs(t, err, shared.ErrCourseNotFound)
}

func TestEnroll_SoftDeletedCourse(t *testing.T) {
	env := newTestEnv()
	env.seedStudent(7, "Aliya", "100.00")
	env.store.PutCourse(&course.Course{
		ID:        3,
		Name:      "Retired",
		Price:     shared.MustMoney("80.00"),
		Status:    course.StatusInProgress,
		IsDeleted: true,
	})

	_, err := env.enroll.Handle(context.Background(), EnrollCommand{
		Principal: studentPrincipal(7),
		CourseID:  3,
	})
	assert.ErrorIs(t, err, shared.ErrCourseNotFound)
}

func TestEnroll_CompletedCourse(t *testing.T) {
	env := newTestEnv()
	env.seedStudent(7, "Aliya", "100.00")
	env.seedCourse(3, "Finished", "80.00", course.StatusCompleted)

	_, err := env.enroll.Handle(context.Background(), EnrollCommand{
		Principal: studentPrincipal(7),
		CourseID:  3,
	})
	assert.ErrorIs(t, err, shared.ErrCourseClosed)
}

func TestEnroll_DuplicateActive(t *testing.T) {
	env := newTestEnv()
	env.seedStudent(7, "Aliya", "200.00")
	env.seedCourse(3, "Go Basics", "80.00", course.StatusInProgress)

	ctx := context.Background()
	cmd := EnrollCommand{Principal: studentPrincipal(7), CourseID: 3}

	_, err := env.enroll.Handle(ctx, cmd)
	require.NoError(t, err)

	// A second submission for the same pair is rejected while the first is
	// still pending, and the balance is not debited twice.
	_, err = env.enroll.Handle(ctx, cmd)
	assert.ErrorIs(t, err, shared.ErrDuplicateEnrollment)
	assert.Equal(t, "120.00", env.store.Account(7).Balance.String())
}

func TestEnroll_AllowedAgainAfterRejection(t *testing.T) {
	env := newTestEnv()
	env.seedStudent(7, "Aliya", "200.00")
	env.seedCourse(3, "Go Basics", "80.00", course.StatusInProgress)

	ctx := context.Background()
	first, err := env.enroll.Handle(ctx, EnrollCommand{Principal: studentPrincipal(7), CourseID: 3})
	require.NoError(t, err)

	_, err = env.review.Handle(ctx, ReviewCommand{
		Principal:    adminPrincipal(),
		EnrollmentID: first.Enrollment.ID,
		NewStatus:    "rejected",
	})
	require.NoError(t, err)

	// The rejected enrollment no longer blocks the pair.
	second, err := env.enroll.Handle(ctx, EnrollCommand{Principal: studentPrincipal(7), CourseID: 3})
	require.NoError(t, err)
	assert.NotEqual(t, first.Enrollment.ID, second.Enrollment.ID)
}

func TestEnroll_StudentNotFound(t *testing.T) {
	env := newTestEnv()
	env.seedCourse(3, "Go Basics", "80.00", course.StatusInProgress)

	_, err := env.enroll.Handle(context.Background(), EnrollCommand{
		Principal: studentPrincipal(42),
		CourseID:  3,
	})
	assert.ErrorIs(t, err, shared.ErrStudentNotFound)
}

func TestEnroll_InsufficientFunds(t *testing.T) {
	env := newTestEnv()
	env.seedStudent(7, "Aliya", "79.99")
	env.seedCourse(3, "Go Basics", "80.00", course.StatusInProgress)

	_, err := env.enroll.Handle(context.Background(), EnrollCommand{
		Principal: studentPrincipal(7),
		CourseID:  3,
	})
	assert.ErrorIs(t, err, shared.ErrInsufficientFunds)

	// Nothing was created or debited.
	assert.Equal(t, "79.99", env.store.Account(7).Balance.String())
	rows, err := env.store.List(context.Background(), enrollment.ListFilter{StudentID: 7})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestEnroll_PreconditionOrder(t *testing.T) {
	// Course existence is checked before the account, so an unknown course
	// wins over an unknown student.
	env := newTestEnv()

	_, err := env.enroll.Handle(context.Background(), EnrollCommand{
		Principal: studentPrincipal(42),
		CourseID:  99,
	})
	assert.ErrorIs(t, err, shared.ErrCourseNotFound)
}

func TestEnroll_RequiresStudentRole(t *testing.T) {
	env := newTestEnv()
	env.seedCourse(3, "Go Basics", "80.00", course.StatusInProgress)

	for _, p := range []shared.Principal{
		adminPrincipal(),
		{UserID: 2, Role: shared.RoleTeacher, LinkedEntityID: 5},
		{},
	} {
		_, err := env.enroll.Handle(context.Background(), EnrollCommand{Principal: p, CourseID: 3})
		assert.ErrorIs(t, err, shared.ErrNotPermitted)
	}
}

func TestEnroll_InvalidCourseID(t *testing.T) {
	env := newTestEnv()
	env.seedStudent(7, "Aliya", "100.00")

	_, err := env.enroll.Handle(context.Background(), EnrollCommand{
		Principal: studentPrincipal(7),
		CourseID:  0,
	})
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}

func TestEnroll_ConcurrentSameCourse(t *testing.T) {
	// Two racing submissions for the same pair: exactly one wins and the
	// balance is debited exactly once.
	env := newTestEnv()
	env.seedStudent(7, "Aliya", "500.00")
	env.seedCourse(3, "Go Basics", "80.00", course.StatusInProgress)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.enroll.Handle(context.Background(), EnrollCommand{
				Principal: studentPrincipal(7),
				CourseID:  3,
			})
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, shared.ErrDuplicateEnrollment)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, "420.00", env.store.Account(7).Balance.String())
}

func TestEnroll_ConcurrentSpendingNeverOverdraws(t *testing.T) {
	// Balance covers two of the three courses. Racing submissions must not
	// drive the balance negative.
	env := newTestEnv()
	env.seedStudent(7, "Aliya", "160.00")
	for _, id := range []int64{1, 2, 3} {
		env.seedCourse(id, "Course", "80.00", course.StatusInProgress)
	}

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i, courseID := range []int64{1, 2, 3} {
		wg.Add(1)
		go func(i int, courseID int64) {
			defer wg.Done()
			_, errs[i] = env.enroll.Handle(context.Background(), EnrollCommand{
				Principal: studentPrincipal(7),
				CourseID:  courseID,
			})
		}(i, courseID)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, shared.ErrInsufficientFunds)
		}
	}
	assert.Equal(t, 2, successes)

	final := env.store.Account(7).Balance
	assert.False(t, final.IsNegative())
	assert.Equal(t, "0.00", final.String())
}
