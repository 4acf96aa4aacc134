package command

import (
	"sync"

	"github.com/coursedesk/enrollment-hub/internal/domain/account"
	"github.com/coursedesk/enrollment-hub/internal/domain/course"
	"github.com/coursedesk/enrollment-hub/internal/domain/shared"
	"github.com/coursedesk/enrollment-hub/internal/infrastructure/persistence/memory"
)

// testEnv wires the command handlers against the in-memory store.
type testEnv struct {
	store    *memory.Store
	events   *eventRecorder
	enroll   *EnrollHandler
	review   *ReviewHandler
	recharge *RechargeHandler
}

func newTestEnv() *testEnv {
	store := memory.NewStore()
	events := &eventRecorder{}
	uow := memory.NewUnitOfWork(store)

	return &testEnv{
		store:    store,
		events:   events,
		enroll:   NewEnrollHandler(store, store, store.Enrollments(), uow, events),
		review:   NewReviewHandler(uow, events),
		recharge: NewRechargeHandler(store, events),
	}
}

func (e *testEnv) seedStudent(id int64, name, balance string) {
	e.store.PutAccount(&account.Account{
		ID:      id,
		Name:    name,
		Balance: shared.MustMoney(balance),
	})
}

func (e *testEnv) seedCourse(id int64, name, price string, status course.Status) {
	e.store.PutCourse(&course.Course{
		ID:          id,
		Name:        name,
		TeacherName: "T. Mentor",
		Price:       shared.MustMoney(price),
		Status:      status,
	})
}

func studentPrincipal(studentID int64) shared.Principal {
	return shared.Principal{UserID: 100 + studentID, Role: shared.RoleStudent, LinkedEntityID: studentID}
}

func adminPrincipal() shared.Principal {
	return shared.Principal{UserID: 1, Role: shared.RoleAdmin}
}

// eventRecorder captures published events for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []shared.Event
}

func (r *eventRecorder) Publish(event shared.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) byType(t shared.EventType) []shared.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []shared.Event
	for _, e := range r.events {
		if e.EventType() == t {
			out = append(out, e)
		}
	}
	return out
}
