package db

import (
	"context"
	"time"

	"taskhub/internal/db/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const projectColumns = `id, user_id, title, visibility, bg_color, font_color, guest_users, page_order, created_at, deleted_at`

func scanProject(row pgx.Row) (*models.Project, error) {
	p := &models.Project{}
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Title,
		&p.Visibility,
		&p.BgColor,
		&p.FontColor,
		&p.GuestUsers,
		&p.PageOrder,
		&p.CreatedAt,
		&p.DeletedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) CreateProject(ctx context.Context, p *models.Project) error {
	query := `
		INSERT INTO projects (id, user_id, title, visibility, bg_color, font_color, guest_users, page_order, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.q.Exec(ctx, query,
		p.ID.String(),
		p.UserID.String(),
		p.Title,
		p.Visibility,
		p.BgColor,
		p.FontColor,
		p.GuestUsers,
		p.PageOrder,
		p.CreatedAt,
	)
	return err
}

func (s *Store) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1 AND deleted_at IS NULL`
	return scanProject(s.q.QueryRow(ctx, query, id.String()))
}

func (s *Store) ListProjects(ctx context.Context) ([]*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE deleted_at IS NULL ORDER BY page_order, created_at`

	rows, err := s.q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) NextProjectOrder(ctx context.Context) (int, error) {
	var order int
	err := s.q.QueryRow(ctx,
		`SELECT COALESCE(MAX(page_order), 0) + 1 FROM projects WHERE deleted_at IS NULL`,
	).Scan(&order)
	return order, err
}

// SoftDeleteProject hides the project; its tasks disappear from listings
// through the project filter rather than being removed.
func (s *Store) SoftDeleteProject(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := s.q.Exec(ctx,
		`UPDATE projects SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`,
		at, id.String())
	return err
}
