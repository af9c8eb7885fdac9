package tasks

import (
	"context"
	"time"

	"taskhub/internal/db/models"

	"github.com/google/uuid"
)

// Store is the persistence surface the core operates against. Lookup
// methods return (nil, nil) when no row matches. Transact runs fn against
// a transactional view of the store; any error rolls the whole unit back.
type Store interface {
	Transact(ctx context.Context, fn func(Store) error) error

	GetTask(ctx context.Context, id uuid.UUID) (*models.Task, error)
	CreateTask(ctx context.Context, t *models.Task) error
	UpdateTask(ctx context.Context, t *models.Task) error
	DeleteTask(ctx context.Context, id uuid.UUID) error
	TaskByParent(ctx context.Context, parentID uuid.UUID) (*models.Task, error)
	ListTasks(ctx context.Context, projectID uuid.UUID, ids []uuid.UUID) ([]*models.Task, error)
	SearchTasks(ctx context.Context, query string) ([]uuid.UUID, error)
	NextPageOrder(ctx context.Context, projectID uuid.UUID) (int, error)

	Assignees(ctx context.Context, taskID uuid.UUID) ([]uuid.UUID, error)
	ReplaceAssignees(ctx context.Context, taskID uuid.UUID, userIDs []uuid.UUID) error

	ListSubTasks(ctx context.Context, taskID uuid.UUID) ([]*models.SubTask, error)
	UpsertSubTask(ctx context.Context, st *models.SubTask) error
	DeleteSubTasks(ctx context.Context, ids []uuid.UUID) error

	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)

	// ActiveTracking returns the user's open interval across any task.
	ActiveTracking(ctx context.Context, userID uuid.UUID) (*models.TaskTracking, error)
	// OpenTrackingForTask returns the newest open interval for (task, user),
	// ordered by descending insertion id.
	OpenTrackingForTask(ctx context.Context, taskID, userID uuid.UUID) (*models.TaskTracking, error)
	OpenTrackingsForTask(ctx context.Context, taskID uuid.UUID) ([]*models.TaskTracking, error)
	CreateTracking(ctx context.Context, tr *models.TaskTracking) error
	CloseTracking(ctx context.Context, id int64, end time.Time) error
	// DisableTracking clears enable_tracking on every row for (task, user),
	// self-healing any stale open rows.
	DisableTracking(ctx context.Context, taskID, userID uuid.UUID) error
	ListTrackings(ctx context.Context, taskID uuid.UUID, userID *uuid.UUID) ([]*models.TaskTracking, error)
	TrackingHistory(ctx context.Context, start, end time.Time, userID *uuid.UUID) ([]*models.TrackingWithTask, error)
}
