package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"taskhub/internal/db/models"

	"github.com/google/uuid"
)

func TestStartTrackingOpensIntervalAndMovesToDoing(t *testing.T) {
	svc, store, notifier := newTestService(t)
	actor := Actor{ID: uuid.New(), Name: "Alice"}
	task := seedTask(t, store, uuid.New(), "Build it")

	updated, previous, err := svc.StartTracking(context.Background(), actor, task.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if updated.Status != models.StatusDoing {
		t.Fatalf("expected doing, got %s", updated.Status)
	}
	if previous != nil {
		t.Fatalf("expected no previous interval, got %+v", previous)
	}
	if n := store.OpenIntervals(actor.ID); n != 1 {
		t.Fatalf("expected 1 open interval, got %d", n)
	}

	toasts := notifier.toasts()
	if len(toasts) != 1 || toasts[0].Kind != ToastSuccess {
		t.Fatalf("expected success toast, got %+v", toasts)
	}
}

func TestStartTrackingSwitchesTasks(t *testing.T) {
	svc, store, _ := newTestService(t)
	actor := Actor{ID: uuid.New(), Name: "Alice"}
	taskA := seedTask(t, store, uuid.New(), "A")
	taskB := seedTask(t, store, uuid.New(), "B")

	if _, _, err := svc.StartTracking(context.Background(), actor, taskA.ID); err != nil {
		t.Fatalf("start A: %v", err)
	}
	_, previous, err := svc.StartTracking(context.Background(), actor, taskB.ID)
	if err != nil {
		t.Fatalf("start B: %v", err)
	}

	if previous == nil || previous.TaskID != taskA.ID {
		t.Fatalf("expected previous interval on A, got %+v", previous)
	}
	if n := store.OpenIntervals(actor.ID); n != 1 {
		t.Fatalf("expected exactly 1 open interval after switch, got %d", n)
	}

	// A's interval is closed and A reverted to todo; B is doing.
	open, err := store.OpenTrackingForTask(context.Background(), taskA.ID, actor.ID)
	if err != nil || open != nil {
		t.Fatalf("A must have no open interval, got %+v %v", open, err)
	}
	gotA, _ := store.GetTask(context.Background(), taskA.ID)
	gotB, _ := store.GetTask(context.Background(), taskB.ID)
	if gotA.Status != models.StatusTodo || gotB.Status != models.StatusDoing {
		t.Fatalf("expected A todo / B doing, got %s / %s", gotA.Status, gotB.Status)
	}
}

func TestStartTrackingIsIdempotentPerTask(t *testing.T) {
	svc, store, _ := newTestService(t)
	actor := Actor{ID: uuid.New(), Name: "Alice"}
	task := seedTask(t, store, uuid.New(), "A")

	if _, _, err := svc.StartTracking(context.Background(), actor, task.ID); err != nil {
		t.Fatalf("first start: %v", err)
	}
	first, _ := store.ActiveTracking(context.Background(), actor.ID)

	if _, _, err := svc.StartTracking(context.Background(), actor, task.ID); err != nil {
		t.Fatalf("second start: %v", err)
	}
	second, _ := store.ActiveTracking(context.Background(), actor.ID)

	if first == nil || second == nil || first.ID != second.ID {
		t.Fatalf("expected the open interval to be reused, got %+v then %+v", first, second)
	}
	if n := store.OpenIntervals(actor.ID); n != 1 {
		t.Fatalf("expected 1 open interval, got %d", n)
	}
}

func TestConcurrentStartsKeepSingleOpenInterval(t *testing.T) {
	svc, store, _ := newTestService(t)
	actor := Actor{ID: uuid.New(), Name: "Alice"}
	taskA := seedTask(t, store, uuid.New(), "A")
	taskB := seedTask(t, store, uuid.New(), "B")

	targets := []uuid.UUID{taskA.ID, taskB.ID, taskA.ID, taskB.ID, taskA.ID, taskB.ID}
	errs := make(chan error, len(targets))
	var wg sync.WaitGroup
	for _, id := range targets {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, _, err := svc.StartTracking(context.Background(), actor, id)
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("start: %v", err)
		}
	}

	if n := store.OpenIntervals(actor.ID); n != 1 {
		t.Fatalf("expected exactly 1 open interval after racing starts, got %d", n)
	}
}

func TestStopTrackingClosesIntervalAndRevertsToTodo(t *testing.T) {
	svc, store, notifier := newTestService(t)
	actor := Actor{ID: uuid.New(), Name: "Alice"}
	task := seedTask(t, store, uuid.New(), "A")

	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = fixedNow(start)
	if _, _, err := svc.StartTracking(context.Background(), actor, task.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	svc.now = fixedNow(start.Add(45 * time.Minute))
	updated, err := svc.StopTracking(context.Background(), actor, task.ID, false)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if updated.Status != models.StatusTodo {
		t.Fatalf("expected todo, got %s", updated.Status)
	}
	persisted, _ := store.GetTask(context.Background(), task.ID)
	if persisted.Status != updated.Status {
		t.Fatalf("returned snapshot %s diverges from stored row %s", updated.Status, persisted.Status)
	}
	if n := store.OpenIntervals(actor.ID); n != 0 {
		t.Fatalf("expected no open intervals, got %d", n)
	}

	trackings, _ := store.ListTrackings(context.Background(), task.ID, &actor.ID)
	if len(trackings) != 1 {
		t.Fatalf("expected 1 interval, got %d", len(trackings))
	}
	tr := trackings[0]
	if tr.EndTime == nil || tr.EndTime.Sub(tr.StartTime) != 45*time.Minute {
		t.Fatalf("unexpected interval bounds: %+v", tr)
	}

	if len(notifier.toasts()) != 2 {
		t.Fatalf("expected start and stop toasts, got %+v", notifier.toasts())
	}
}

func TestStopTrackingIsIdempotent(t *testing.T) {
	svc, store, notifier := newTestService(t)
	actor := Actor{ID: uuid.New(), Name: "Alice"}
	task := seedTask(t, store, uuid.New(), "A")

	updated, err := svc.StopTracking(context.Background(), actor, task.ID, true)
	if err != nil {
		t.Fatalf("stop on untracked task: %v", err)
	}
	if updated.Status != models.StatusTodo {
		t.Fatalf("expected todo, got %s", updated.Status)
	}
	if n := store.OpenIntervals(actor.ID); n != 0 {
		t.Fatalf("expected no open intervals, got %d", n)
	}
	if len(notifier.effects) != 0 {
		t.Fatalf("silent stop must emit nothing, got %+v", notifier.effects)
	}
}

func TestTrackingUnknownTask(t *testing.T) {
	svc, _, _ := newTestService(t)
	actor := Actor{ID: uuid.New()}

	if _, _, err := svc.StartTracking(context.Background(), actor, uuid.New()); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("start: expected ErrTaskNotFound, got %v", err)
	}
	if _, err := svc.StopTracking(context.Background(), actor, uuid.New(), true); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("stop: expected ErrTaskNotFound, got %v", err)
	}
	if _, err := svc.EndTrackingAdmin(context.Background(), uuid.New()); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("end admin: expected ErrTaskNotFound, got %v", err)
	}
}

func TestEndTrackingAdminClosesAllUsers(t *testing.T) {
	svc, store, notifier := newTestService(t)
	alice := Actor{ID: uuid.New(), Name: "Alice"}
	bob := Actor{ID: uuid.New(), Name: "Bob"}
	task := seedTask(t, store, uuid.New(), "Shared")

	if _, _, err := svc.StartTracking(context.Background(), alice, task.ID); err != nil {
		t.Fatalf("alice start: %v", err)
	}
	if _, _, err := svc.StartTracking(context.Background(), bob, task.ID); err != nil {
		t.Fatalf("bob start: %v", err)
	}
	notifier.effects = nil

	updated, err := svc.EndTrackingAdmin(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("end admin: %v", err)
	}
	if updated.Status != models.StatusTodo {
		t.Fatalf("expected todo, got %s", updated.Status)
	}
	if store.OpenIntervals(alice.ID) != 0 || store.OpenIntervals(bob.ID) != 0 {
		t.Fatal("expected all open intervals closed")
	}
	if len(notifier.effects) != 0 {
		t.Fatalf("admin end must be silent, got %+v", notifier.effects)
	}
}
