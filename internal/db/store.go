package db

import (
	"context"
	"fmt"
	"time"

	"taskhub/internal/db/models"
	"taskhub/internal/tasks"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements tasks.Store on top of PostgreSQL. A Store either wraps
// the pool or, inside Transact, a single transaction.
type Store struct {
	db *DB
	q  querier
}

func NewStore(database *DB) *Store {
	return &Store{db: database, q: database.Pool}
}

func (s *Store) Transact(ctx context.Context, fn func(tasks.Store) error) error {
	if _, ok := s.q.(pgx.Tx); ok {
		// Already inside a transaction, reuse it.
		return fn(s)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(&Store{db: s.db, q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}

const taskColumns = `id, project_id, parent_task_id, name, description, status, priority,
	check_by_user_id, follow_up_user_id, follow_up_message,
	is_checked, is_confirmed, is_mark_as_done, is_archived, page_order, created_at, updated_at`

func scanTask(row pgx.Row) (*models.Task, error) {
	task := &models.Task{}
	err := row.Scan(
		&task.ID,
		&task.ProjectID,
		&task.ParentTaskID,
		&task.Name,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.CheckByUserID,
		&task.FollowUpUserID,
		&task.FollowUpMessage,
		&task.IsChecked,
		&task.IsConfirmed,
		&task.IsMarkAsDone,
		&task.IsArchived,
		&task.PageOrder,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Store) GetTask(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return scanTask(s.q.QueryRow(ctx, query, id.String()))
}

func (s *Store) CreateTask(ctx context.Context, t *models.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err := s.q.Exec(ctx, query,
		t.ID.String(),
		t.ProjectID.String(),
		uuidPtr(t.ParentTaskID),
		t.Name,
		t.Description,
		t.Status,
		t.Priority,
		uuidPtr(t.CheckByUserID),
		uuidPtr(t.FollowUpUserID),
		t.FollowUpMessage,
		t.IsChecked,
		t.IsConfirmed,
		t.IsMarkAsDone,
		t.IsArchived,
		t.PageOrder,
		t.CreatedAt,
		t.UpdatedAt,
	)
	return err
}

func (s *Store) UpdateTask(ctx context.Context, t *models.Task) error {
	query := `
		UPDATE tasks
		SET name = $1, description = $2, status = $3, priority = $4,
			check_by_user_id = $5, follow_up_user_id = $6, follow_up_message = $7,
			is_checked = $8, is_confirmed = $9, is_mark_as_done = $10,
			is_archived = $11, page_order = $12, updated_at = $13
		WHERE id = $14`

	_, err := s.q.Exec(ctx, query,
		t.Name,
		t.Description,
		t.Status,
		t.Priority,
		uuidPtr(t.CheckByUserID),
		uuidPtr(t.FollowUpUserID),
		t.FollowUpMessage,
		t.IsChecked,
		t.IsConfirmed,
		t.IsMarkAsDone,
		t.IsArchived,
		t.PageOrder,
		t.UpdatedAt,
		t.ID.String(),
	)
	return err
}

func (s *Store) DeleteTask(ctx context.Context, id uuid.UUID) error {
	_, err := s.q.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id.String())
	return err
}

func (s *Store) TaskByParent(ctx context.Context, parentID uuid.UUID) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE parent_task_id = $1 LIMIT 1`
	return scanTask(s.q.QueryRow(ctx, query, parentID.String()))
}

func (s *Store) ListTasks(ctx context.Context, projectID uuid.UUID, ids []uuid.UUID) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE 1=1`
	var args []any
	if projectID != uuid.Nil {
		args = append(args, projectID.String())
		query += fmt.Sprintf(" AND project_id = $%d", len(args))
	}
	if len(ids) > 0 {
		args = append(args, uuidStrings(ids))
		query += fmt.Sprintf(" AND id = ANY($%d)", len(args))
	}
	query += " ORDER BY page_order, created_at"

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func (s *Store) SearchTasks(ctx context.Context, query string) ([]uuid.UUID, error) {
	rows, err := s.q.Query(ctx,
		`SELECT id FROM tasks WHERE name ILIKE '%' || $1 || '%'`, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) NextPageOrder(ctx context.Context, projectID uuid.UUID) (int, error) {
	var order int
	err := s.q.QueryRow(ctx,
		`SELECT COALESCE(MAX(page_order), 0) + 1 FROM tasks WHERE project_id = $1`,
		projectID.String(),
	).Scan(&order)
	return order, err
}

func (s *Store) Assignees(ctx context.Context, taskID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.q.Query(ctx,
		`SELECT user_id FROM task_users WHERE task_id = $1`, taskID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) ReplaceAssignees(ctx context.Context, taskID uuid.UUID, userIDs []uuid.UUID) error {
	if _, err := s.q.Exec(ctx,
		`DELETE FROM task_users WHERE task_id = $1`, taskID.String()); err != nil {
		return err
	}
	for _, userID := range userIDs {
		_, err := s.q.Exec(ctx,
			`INSERT INTO task_users (task_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			taskID.String(), userID.String())
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListSubTasks(ctx context.Context, taskID uuid.UUID) ([]*models.SubTask, error) {
	rows, err := s.q.Query(ctx,
		`SELECT id, task_id, name, is_completed FROM subtasks WHERE task_id = $1 ORDER BY id`,
		taskID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.SubTask
	for rows.Next() {
		st := &models.SubTask{}
		if err := rows.Scan(&st.ID, &st.TaskID, &st.Name, &st.IsCompleted); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) UpsertSubTask(ctx context.Context, st *models.SubTask) error {
	query := `
		INSERT INTO subtasks (id, task_id, name, is_completed)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = $3, is_completed = $4`

	_, err := s.q.Exec(ctx, query, st.ID.String(), st.TaskID.String(), st.Name, st.IsCompleted)
	return err
}

func (s *Store) DeleteSubTasks(ctx context.Context, ids []uuid.UUID) error {
	_, err := s.q.Exec(ctx, `DELETE FROM subtasks WHERE id = ANY($1)`, uuidStrings(ids))
	return err
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	err := s.q.QueryRow(ctx,
		`SELECT id, name, email, role, timezone, created_at FROM users WHERE id = $1`,
		id.String(),
	).Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.Timezone, &user.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

const trackingColumns = `id, task_id, user_id, start_time, end_time, enable_tracking`

func scanTracking(row pgx.Row) (*models.TaskTracking, error) {
	tr := &models.TaskTracking{}
	err := row.Scan(&tr.ID, &tr.TaskID, &tr.UserID, &tr.StartTime, &tr.EndTime, &tr.EnableTracking)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tr, nil
}

func (s *Store) ActiveTracking(ctx context.Context, userID uuid.UUID) (*models.TaskTracking, error) {
	query := `
		SELECT ` + trackingColumns + `
		FROM task_trackings
		WHERE user_id = $1 AND end_time IS NULL AND enable_tracking
		ORDER BY id DESC
		LIMIT 1`
	return scanTracking(s.q.QueryRow(ctx, query, userID.String()))
}

func (s *Store) OpenTrackingForTask(ctx context.Context, taskID, userID uuid.UUID) (*models.TaskTracking, error) {
	query := `
		SELECT ` + trackingColumns + `
		FROM task_trackings
		WHERE task_id = $1 AND user_id = $2 AND end_time IS NULL AND enable_tracking
		ORDER BY id DESC
		LIMIT 1`
	return scanTracking(s.q.QueryRow(ctx, query, taskID.String(), userID.String()))
}

func (s *Store) OpenTrackingsForTask(ctx context.Context, taskID uuid.UUID) ([]*models.TaskTracking, error) {
	query := `
		SELECT ` + trackingColumns + `
		FROM task_trackings
		WHERE task_id = $1 AND end_time IS NULL AND enable_tracking
		ORDER BY id`

	rows, err := s.q.Query(ctx, query, taskID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.TaskTracking
	for rows.Next() {
		tr, err := scanTracking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

func (s *Store) CreateTracking(ctx context.Context, tr *models.TaskTracking) error {
	query := `
		INSERT INTO task_trackings (task_id, user_id, start_time, end_time, enable_tracking)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	return s.q.QueryRow(ctx, query,
		tr.TaskID.String(),
		tr.UserID.String(),
		tr.StartTime,
		tr.EndTime,
		tr.EnableTracking,
	).Scan(&tr.ID)
}

func (s *Store) CloseTracking(ctx context.Context, id int64, end time.Time) error {
	_, err := s.q.Exec(ctx,
		`UPDATE task_trackings SET end_time = $1, enable_tracking = false
		 WHERE id = $2 AND end_time IS NULL`,
		end, id)
	return err
}

func (s *Store) DisableTracking(ctx context.Context, taskID, userID uuid.UUID) error {
	_, err := s.q.Exec(ctx,
		`UPDATE task_trackings SET enable_tracking = false
		 WHERE task_id = $1 AND user_id = $2 AND enable_tracking`,
		taskID.String(), userID.String())
	return err
}

func (s *Store) ListTrackings(ctx context.Context, taskID uuid.UUID, userID *uuid.UUID) ([]*models.TaskTracking, error) {
	query := `SELECT ` + trackingColumns + ` FROM task_trackings WHERE task_id = $1`
	args := []any{taskID.String()}
	if userID != nil {
		args = append(args, userID.String())
		query += " AND user_id = $2"
	}
	query += " ORDER BY id"

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.TaskTracking
	for rows.Next() {
		tr, err := scanTracking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

func (s *Store) TrackingHistory(ctx context.Context, start, end time.Time, userID *uuid.UUID) ([]*models.TrackingWithTask, error) {
	query := `
		SELECT tr.id, tr.task_id, tr.user_id, tr.start_time, tr.end_time, tr.enable_tracking,
			t.name, t.project_id, u.name
		FROM task_trackings tr
		JOIN tasks t ON tr.task_id = t.id
		JOIN users u ON tr.user_id = u.id
		WHERE tr.start_time >= $1 AND tr.start_time < $2 AND tr.end_time IS NOT NULL`
	args := []any{start, end}
	if userID != nil {
		args = append(args, userID.String())
		query += " AND tr.user_id = $3"
	}
	query += " ORDER BY tr.start_time DESC"

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.TrackingWithTask
	for rows.Next() {
		h := &models.TrackingWithTask{
			Tracking: &models.TaskTracking{},
			Task:     &models.Task{},
		}
		err := rows.Scan(
			&h.Tracking.ID,
			&h.Tracking.TaskID,
			&h.Tracking.UserID,
			&h.Tracking.StartTime,
			&h.Tracking.EndTime,
			&h.Tracking.EnableTracking,
			&h.Task.Name,
			&h.Task.ProjectID,
			&h.UserName,
		)
		if err != nil {
			return nil, err
		}
		h.Task.ID = h.Tracking.TaskID
		out = append(out, h)
	}
	return out, rows.Err()
}

func uuidPtr(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
