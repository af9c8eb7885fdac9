package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Project struct {
	ID         uuid.UUID      `db:"id" json:"id"`
	UserID     uuid.UUID      `db:"user_id" json:"user_id"`
	Title      string         `db:"title" json:"title"`
	Visibility string         `db:"visibility" json:"visibility"`
	BgColor    string         `db:"bg_color" json:"bg_color"`
	FontColor  string         `db:"font_color" json:"font_color"`
	GuestUsers pq.StringArray `db:"guest_users" json:"guest_users"`
	PageOrder  int            `db:"page_order" json:"page_order"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	DeletedAt  *time.Time     `db:"deleted_at" json:"deleted_at"`
}
