package tasks

import (
	"context"
	"strings"
	"sync"
	"time"

	"taskhub/internal/db/models"

	"github.com/google/uuid"
)

// MemStore is an in-memory Store used by tests and local development.
// Individual methods are guarded by mu; Transact additionally holds txMu
// for the whole callback so concurrent transactions cannot interleave,
// matching the serialization the database gives mutations. Transact does
// not simulate rollback.
type MemStore struct {
	txMu          sync.Mutex
	mu            sync.Mutex
	tasks         map[uuid.UUID]models.Task
	subtasks      map[uuid.UUID]models.SubTask
	assignees     map[uuid.UUID][]uuid.UUID
	users         map[uuid.UUID]models.User
	trackings     []models.TaskTracking
	notifications []models.Notification
	nextID        int64
}

func NewMemStore() *MemStore {
	return &MemStore{
		tasks:     make(map[uuid.UUID]models.Task),
		subtasks:  make(map[uuid.UUID]models.SubTask),
		assignees: make(map[uuid.UUID][]uuid.UUID),
		users:     make(map[uuid.UUID]models.User),
	}
}

func (m *MemStore) Transact(ctx context.Context, fn func(Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(m)
}

func (m *MemStore) GetTask(_ context.Context, id uuid.UUID) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *MemStore) CreateTask(_ context.Context, t *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = *t
	return nil
}

func (m *MemStore) UpdateTask(_ context.Context, t *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = *t
	return nil
}

func (m *MemStore) DeleteTask(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, id)
	delete(m.assignees, id)
	return nil
}

func (m *MemStore) TaskByParent(_ context.Context, parentID uuid.UUID) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.ParentTaskID != nil && *t.ParentTaskID == parentID {
			t := t
			return &t, nil
		}
	}
	return nil, nil
}

func (m *MemStore) ListTasks(_ context.Context, projectID uuid.UUID, ids []uuid.UUID) ([]*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	allowed := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		allowed[id] = true
	}
	var out []*models.Task
	for _, t := range m.tasks {
		if projectID != uuid.Nil && t.ProjectID != projectID {
			continue
		}
		if len(ids) > 0 && !allowed[t.ID] {
			continue
		}
		t := t
		out = append(out, &t)
	}
	return out, nil
}

func (m *MemStore) SearchTasks(_ context.Context, query string) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := strings.ToLower(query)
	var out []uuid.UUID
	for _, t := range m.tasks {
		if strings.Contains(strings.ToLower(t.Name), q) {
			out = append(out, t.ID)
		}
	}
	return out, nil
}

func (m *MemStore) NextPageOrder(_ context.Context, projectID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	max := 0
	for _, t := range m.tasks {
		if t.ProjectID == projectID && t.PageOrder > max {
			max = t.PageOrder
		}
	}
	return max + 1, nil
}

func (m *MemStore) Assignees(_ context.Context, taskID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uuid.UUID(nil), m.assignees[taskID]...), nil
}

func (m *MemStore) ReplaceAssignees(_ context.Context, taskID uuid.UUID, userIDs []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignees[taskID] = append([]uuid.UUID(nil), userIDs...)
	return nil
}

func (m *MemStore) ListSubTasks(_ context.Context, taskID uuid.UUID) ([]*models.SubTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.SubTask
	for _, st := range m.subtasks {
		if st.TaskID == taskID {
			st := st
			out = append(out, &st)
		}
	}
	return out, nil
}

func (m *MemStore) UpsertSubTask(_ context.Context, st *models.SubTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subtasks[st.ID] = *st
	return nil
}

func (m *MemStore) DeleteSubTasks(_ context.Context, ids []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.subtasks, id)
	}
	return nil
}

func (m *MemStore) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// AddUser seeds a user record.
func (m *MemStore) AddUser(u models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *MemStore) ActiveTracking(_ context.Context, userID uuid.UUID) (*models.TaskTracking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.trackings) - 1; i >= 0; i-- {
		tr := m.trackings[i]
		if tr.UserID == userID && tr.Open() {
			return &tr, nil
		}
	}
	return nil, nil
}

func (m *MemStore) OpenTrackingForTask(_ context.Context, taskID, userID uuid.UUID) (*models.TaskTracking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.trackings) - 1; i >= 0; i-- {
		tr := m.trackings[i]
		if tr.TaskID == taskID && tr.UserID == userID && tr.Open() {
			return &tr, nil
		}
	}
	return nil, nil
}

func (m *MemStore) OpenTrackingsForTask(_ context.Context, taskID uuid.UUID) ([]*models.TaskTracking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.TaskTracking
	for i := range m.trackings {
		if m.trackings[i].TaskID == taskID && m.trackings[i].Open() {
			tr := m.trackings[i]
			out = append(out, &tr)
		}
	}
	return out, nil
}

func (m *MemStore) CreateTracking(_ context.Context, tr *models.TaskTracking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	tr.ID = m.nextID
	m.trackings = append(m.trackings, *tr)
	return nil
}

func (m *MemStore) CloseTracking(_ context.Context, id int64, end time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.trackings {
		if m.trackings[i].ID == id && m.trackings[i].EndTime == nil {
			end := end
			m.trackings[i].EndTime = &end
			m.trackings[i].EnableTracking = false
		}
	}
	return nil
}

func (m *MemStore) DisableTracking(_ context.Context, taskID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.trackings {
		if m.trackings[i].TaskID == taskID && m.trackings[i].UserID == userID {
			m.trackings[i].EnableTracking = false
		}
	}
	return nil
}

func (m *MemStore) ListTrackings(_ context.Context, taskID uuid.UUID, userID *uuid.UUID) ([]*models.TaskTracking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.TaskTracking
	for i := range m.trackings {
		tr := m.trackings[i]
		if tr.TaskID != taskID {
			continue
		}
		if userID != nil && tr.UserID != *userID {
			continue
		}
		out = append(out, &tr)
	}
	return out, nil
}

func (m *MemStore) TrackingHistory(_ context.Context, start, end time.Time, userID *uuid.UUID) ([]*models.TrackingWithTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.TrackingWithTask
	for i := range m.trackings {
		tr := m.trackings[i]
		if tr.StartTime.Before(start) || !tr.StartTime.Before(end) {
			continue
		}
		if userID != nil && tr.UserID != *userID {
			continue
		}
		task, ok := m.tasks[tr.TaskID]
		if !ok {
			continue
		}
		out = append(out, &models.TrackingWithTask{
			Tracking: &tr,
			Task:     &task,
			UserName: m.users[tr.UserID].Name,
		})
	}
	return out, nil
}

// CreateNotification satisfies the notification dispatcher's store.
func (m *MemStore) CreateNotification(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, *n)
	return nil
}

// Notifications returns persisted notifications, newest last.
func (m *MemStore) Notifications() []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Notification(nil), m.notifications...)
}

// OpenIntervals counts rows satisfying the open-interval predicate for a
// user, for invariant checks.
func (m *MemStore) OpenIntervals(userID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for i := range m.trackings {
		if m.trackings[i].UserID == userID && m.trackings[i].Open() {
			n++
		}
	}
	return n
}
