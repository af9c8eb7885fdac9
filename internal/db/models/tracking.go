package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskTracking is one ledger interval. A nil EndTime together with
// EnableTracking marks the interval as the user's active timer.
type TaskTracking struct {
	ID             int64      `db:"id" json:"id"`
	TaskID         uuid.UUID  `db:"task_id" json:"task_id"`
	UserID         uuid.UUID  `db:"user_id" json:"user_id"`
	StartTime      time.Time  `db:"start_time" json:"start_time"`
	EndTime        *time.Time `db:"end_time" json:"end_time"`
	EnableTracking bool       `db:"enable_tracking" json:"enable_tracking"`
}

func (t *TaskTracking) Open() bool {
	return t.EndTime == nil && t.EnableTracking
}

type TrackingWithTask struct {
	Tracking *TaskTracking
	Task     *Task
	UserName string
}
