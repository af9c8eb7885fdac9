package models

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusTodo  Status = "todo"
	StatusDoing Status = "doing"
	StatusDone  Status = "done"
)

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusDoing, StatusDone:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	ProjectID       uuid.UUID  `db:"project_id" json:"project_id"`
	ParentTaskID    *uuid.UUID `db:"parent_task_id" json:"parent_task_id"`
	Name            string     `db:"name" json:"name"`
	Description     string     `db:"description" json:"description"`
	Status          Status     `db:"status" json:"status"`
	Priority        Priority   `db:"priority" json:"priority"`
	CheckByUserID   *uuid.UUID `db:"check_by_user_id" json:"check_by_user_id"`
	FollowUpUserID  *uuid.UUID `db:"follow_up_user_id" json:"follow_up_user_id"`
	FollowUpMessage string     `db:"follow_up_message" json:"follow_up_message"`
	IsChecked       *bool      `db:"is_checked" json:"is_checked"`
	IsConfirmed     *bool      `db:"is_confirmed" json:"is_confirmed"`
	IsMarkAsDone    bool       `db:"is_mark_as_done" json:"is_mark_as_done"`
	IsArchived      bool       `db:"is_archived" json:"is_archived"`
	PageOrder       int        `db:"page_order" json:"page_order"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

type SubTask struct {
	ID          uuid.UUID `db:"id" json:"id"`
	TaskID      uuid.UUID `db:"task_id" json:"task_id"`
	Name        string    `db:"name" json:"name"`
	IsCompleted bool      `db:"is_completed" json:"is_completed"`
}
