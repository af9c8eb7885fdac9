package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskhub/internal/db/models"

	"github.com/google/uuid"
)

type recordingNotifier struct {
	effects []Effect
}

func (r *recordingNotifier) Dispatch(_ context.Context, effects []Effect) {
	r.effects = append(r.effects, effects...)
}

func (r *recordingNotifier) notifications() []NotifyUser {
	var out []NotifyUser
	for _, e := range r.effects {
		if n, ok := e.(NotifyUser); ok {
			out = append(out, n)
		}
	}
	return out
}

func (r *recordingNotifier) mails() []QueueMail {
	var out []QueueMail
	for _, e := range r.effects {
		if m, ok := e.(QueueMail); ok {
			out = append(out, m)
		}
	}
	return out
}

func (r *recordingNotifier) toasts() []Toast {
	var out []Toast
	for _, e := range r.effects {
		if to, ok := e.(Toast); ok {
			out = append(out, to)
		}
	}
	return out
}

func newTestService(t *testing.T) (*Service, *MemStore, *recordingNotifier) {
	t.Helper()
	store := NewMemStore()
	notifier := &recordingNotifier{}
	svc := NewService(store, notifier)
	return svc, store, notifier
}

func seedUser(t *testing.T, store *MemStore, name, role string) models.User {
	t.Helper()
	u := models.User{
		ID:    uuid.New(),
		Name:  name,
		Email: name + "@example.com",
		Role:  role,
	}
	store.AddUser(u)
	return u
}

func seedTask(t *testing.T, store *MemStore, projectID uuid.UUID, name string) *models.Task {
	t.Helper()
	task := &models.Task{
		ID:        uuid.New(),
		ProjectID: projectID,
		Name:      name,
		Status:    models.StatusTodo,
		Priority:  models.PriorityMedium,
		PageOrder: 1,
	}
	if err := store.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("seed task: %v", err)
	}
	return task
}

func TestCreateTaskAssignsPageOrder(t *testing.T) {
	svc, store, _ := newTestService(t)
	actor := Actor{ID: uuid.New(), Name: "Alice"}
	projectID := uuid.New()

	first, err := svc.CreateOrUpdateTask(context.Background(), actor, TaskInput{
		ProjectID: projectID,
		Name:      "First",
	})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := svc.CreateOrUpdateTask(context.Background(), actor, TaskInput{
		ProjectID: projectID,
		Name:      "Second",
	})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	if first.PageOrder != 1 || second.PageOrder != 2 {
		t.Fatalf("expected page orders 1,2 got %d,%d", first.PageOrder, second.PageOrder)
	}
	if first.Status != models.StatusTodo || first.Priority != models.PriorityMedium {
		t.Fatalf("unexpected defaults: %s %s", first.Status, first.Priority)
	}

	saved, err := store.GetTask(context.Background(), first.ID)
	if err != nil || saved == nil {
		t.Fatalf("task not persisted: %v", err)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	actor := Actor{ID: uuid.New()}

	_, err := svc.CreateOrUpdateTask(context.Background(), actor, TaskInput{ProjectID: uuid.New()})
	if !IsValidation(err) {
		t.Fatalf("expected validation error for empty name, got %v", err)
	}

	_, err = svc.CreateOrUpdateTask(context.Background(), actor, TaskInput{Name: "x"})
	if !IsValidation(err) {
		t.Fatalf("expected validation error for missing project, got %v", err)
	}

	_, err = svc.CreateOrUpdateTask(context.Background(), actor, TaskInput{
		ProjectID: uuid.New(), Name: "x", Priority: "urgent",
	})
	if !IsValidation(err) {
		t.Fatalf("expected validation error for bad priority, got %v", err)
	}
}

func TestReassignNotifiesOnlyNewUsers(t *testing.T) {
	svc, store, notifier := newTestService(t)
	actor := Actor{ID: uuid.New(), Name: "Alice"}
	userA := seedUser(t, store, "a", "member")
	userB := seedUser(t, store, "b", "member")
	userC := seedUser(t, store, "c", "member")

	projectID := uuid.New()
	task, err := svc.CreateOrUpdateTask(context.Background(), actor, TaskInput{
		ProjectID:       projectID,
		Name:            "Shared work",
		AssignedUserIDs: []uuid.UUID{userA.ID, userB.ID},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := len(notifier.notifications()); got != 2 {
		t.Fatalf("expected 2 initial notifications, got %d", got)
	}

	notifier.effects = nil
	_, err = svc.CreateOrUpdateTask(context.Background(), actor, TaskInput{
		ID:              &task.ID,
		ProjectID:       projectID,
		Name:            "Shared work",
		AssignedUserIDs: []uuid.UUID{userB.ID, userC.ID},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	notes := notifier.notifications()
	if len(notes) != 1 {
		t.Fatalf("expected exactly 1 notification, got %d", len(notes))
	}
	if notes[0].UserID != userC.ID {
		t.Fatal("only the newly assigned user C must be notified")
	}
	if notes[0].Body != "You were Assigned to task Shared work by Alice." {
		t.Fatalf("unexpected body: %q", notes[0].Body)
	}

	assignees, _ := store.Assignees(context.Background(), task.ID)
	if len(assignees) != 2 {
		t.Fatalf("expected assignment set replaced, got %d members", len(assignees))
	}
}

func TestSelfAssignmentIsNotNotified(t *testing.T) {
	svc, store, notifier := newTestService(t)
	self := seedUser(t, store, "alice", "member")
	actor := Actor{ID: self.ID, Name: "Alice"}

	_, err := svc.CreateOrUpdateTask(context.Background(), actor, TaskInput{
		ProjectID:       uuid.New(),
		Name:            "Solo",
		AssignedUserIDs: []uuid.UUID{self.ID},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(notifier.notifications()) != 0 {
		t.Fatal("actor must not be notified about self-assignment")
	}
}

func TestSetStatusDoneNotifiesReviewer(t *testing.T) {
	svc, store, notifier := newTestService(t)
	reviewer := seedUser(t, store, "reviewer", "member")
	task := seedTask(t, store, uuid.New(), "Audit")
	task.CheckByUserID = &reviewer.ID
	if err := store.UpdateTask(context.Background(), task); err != nil {
		t.Fatalf("update: %v", err)
	}

	actor := Actor{ID: uuid.New(), Name: "Bob", Role: "member"}
	updated, err := svc.SetStatus(context.Background(), actor, task.ID, models.StatusDone)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}

	if updated.IsChecked == nil || !*updated.IsChecked || !updated.IsMarkAsDone {
		t.Fatal("approval flags not set")
	}
	if updated.IsConfirmed != nil {
		t.Fatal("non-owner must not confirm")
	}
	notes := notifier.notifications()
	if len(notes) != 1 || notes[0].UserID != reviewer.ID {
		t.Fatalf("expected exactly one notification to reviewer, got %+v", notes)
	}
	mails := notifier.mails()
	if len(mails) != 1 || mails[0].To != reviewer.Email {
		t.Fatalf("expected one mail to reviewer, got %+v", mails)
	}
}

func TestSetStatusDoneCreatesFollowUp(t *testing.T) {
	svc, store, notifier := newTestService(t)
	followUpUser := seedUser(t, store, "fred", "member")
	projectID := uuid.New()
	task := seedTask(t, store, projectID, "Deploy")
	task.FollowUpUserID = &followUpUser.ID
	if err := store.UpdateTask(context.Background(), task); err != nil {
		t.Fatalf("update: %v", err)
	}

	actor := Actor{ID: uuid.New(), Name: "Alice", Role: "member"}
	if _, err := svc.SetStatus(context.Background(), actor, task.ID, models.StatusDone); err != nil {
		t.Fatalf("set status: %v", err)
	}

	child, err := store.TaskByParent(context.Background(), task.ID)
	if err != nil || child == nil {
		t.Fatalf("expected follow-up child, got %v %v", child, err)
	}
	if child.Status != models.StatusTodo || child.Priority != models.PriorityHigh {
		t.Fatalf("unexpected follow-up task: %s %s", child.Status, child.Priority)
	}
	if child.Name != "Deploy Follow Up" {
		t.Fatalf("unexpected follow-up name %q", child.Name)
	}
	if child.PageOrder != task.PageOrder+1 {
		t.Fatalf("expected page_order %d, got %d", task.PageOrder+1, child.PageOrder)
	}

	assignees, _ := store.Assignees(context.Background(), child.ID)
	if len(assignees) != 1 || assignees[0] != followUpUser.ID {
		t.Fatalf("follow-up not assigned to %s: %v", followUpUser.ID, assignees)
	}

	notes := notifier.notifications()
	if len(notes) != 1 || notes[0].UserID != followUpUser.ID {
		t.Fatalf("expected follow-up user notified, got %+v", notes)
	}

	// Second completion must not create a second follow-up.
	notifier.effects = nil
	if _, err := svc.SetStatus(context.Background(), actor, task.ID, models.StatusDone); err != nil {
		t.Fatalf("second set status: %v", err)
	}
	all, _ := store.ListTasks(context.Background(), projectID, nil)
	if len(all) != 2 {
		t.Fatalf("expected 2 tasks (source + one follow-up), got %d", len(all))
	}
}

func TestRevertToTodoDeletesFollowUpChild(t *testing.T) {
	svc, store, _ := newTestService(t)
	followUpUser := seedUser(t, store, "fred", "member")
	task := seedTask(t, store, uuid.New(), "Deploy")
	task.FollowUpUserID = &followUpUser.ID
	if err := store.UpdateTask(context.Background(), task); err != nil {
		t.Fatalf("update: %v", err)
	}

	actor := Actor{ID: uuid.New(), Name: "Alice", Role: "member"}
	if _, err := svc.SetStatus(context.Background(), actor, task.ID, models.StatusDone); err != nil {
		t.Fatalf("done: %v", err)
	}
	if child, _ := store.TaskByParent(context.Background(), task.ID); child == nil {
		t.Fatal("precondition: follow-up child exists")
	}

	if _, err := svc.SetStatus(context.Background(), actor, task.ID, models.StatusTodo); err != nil {
		t.Fatalf("revert: %v", err)
	}
	if child, _ := store.TaskByParent(context.Background(), task.ID); child != nil {
		t.Fatal("follow-up child must be deleted on revert")
	}
}

func TestSetStatusUnknownTask(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.SetStatus(context.Background(), Actor{ID: uuid.New()}, uuid.New(), models.StatusDone)
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestSetStatusInvalidStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.SetStatus(context.Background(), Actor{ID: uuid.New()}, uuid.New(), "blocked")
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListTasksWithSearchFilter(t *testing.T) {
	svc, store, _ := newTestService(t)
	projectID := uuid.New()
	seedTask(t, store, projectID, "Fix login bug")
	seedTask(t, store, projectID, "Write docs")

	found, err := svc.ListTasks(context.Background(), projectID, "login")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(found) != 1 || found[0].Name != "Fix login bug" {
		t.Fatalf("unexpected search result: %+v", found)
	}

	none, err := svc.ListTasks(context.Background(), projectID, "nomatch")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected empty result, got %d", len(none))
	}
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
