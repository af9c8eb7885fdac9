package tasks

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// FormatHMS formats a duration as HH:MM:SS with unbounded hours.
func FormatHMS(d time.Duration) string {
	total := int64(d.Seconds())
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// TotalTrackedTime sums the ledger for a task, optionally filtered by
// user: end−start for closed intervals, now−start for the open one.
// Returns "00:00:00" when no rows exist. Read-only.
func (s *Service) TotalTrackedTime(ctx context.Context, taskID uuid.UUID, userID *uuid.UUID) (string, error) {
	rows, err := s.store.ListTrackings(ctx, taskID, userID)
	if err != nil {
		return "", fmt.Errorf("error listing trackings: %w", err)
	}

	var total time.Duration
	now := s.now()
	for _, tr := range rows {
		if tr.EndTime != nil {
			total += tr.EndTime.Sub(tr.StartTime)
		} else {
			total += now.Sub(tr.StartTime)
		}
	}
	return FormatHMS(total), nil
}

type ReportRow struct {
	UserName string `json:"user"`
	TaskName string `json:"task"`
	Duration string `json:"duration"`
}

// TrackingReport aggregates closed intervals per (user, task) over a
// period ("today", "week" or "month"), sorted by user then task.
func (s *Service) TrackingReport(ctx context.Context, period string, userID *uuid.UUID) ([]ReportRow, error) {
	now := s.now()
	start, err := periodStart(period, now)
	if err != nil {
		return nil, err
	}

	history, err := s.store.TrackingHistory(ctx, start, now, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting tracking history: %w", err)
	}

	type key struct {
		user uuid.UUID
		task uuid.UUID
	}
	durations := make(map[key]time.Duration)
	taskNames := make(map[uuid.UUID]string)
	userNames := make(map[uuid.UUID]string)

	for _, h := range history {
		if h.Tracking.EndTime == nil {
			continue
		}
		k := key{user: h.Tracking.UserID, task: h.Tracking.TaskID}
		durations[k] += h.Tracking.EndTime.Sub(h.Tracking.StartTime)
		taskNames[h.Tracking.TaskID] = h.Task.Name
		if h.UserName != "" {
			userNames[h.Tracking.UserID] = h.UserName
		} else {
			userNames[h.Tracking.UserID] = h.Tracking.UserID.String()
		}
	}

	rows := make([]ReportRow, 0, len(durations))
	for k, d := range durations {
		rows = append(rows, ReportRow{
			UserName: userNames[k.user],
			TaskName: taskNames[k.task],
			Duration: FormatHMS(d),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].UserName != rows[j].UserName {
			return rows[i].UserName < rows[j].UserName
		}
		return rows[i].TaskName < rows[j].TaskName
	})
	return rows, nil
}

func periodStart(period string, now time.Time) (time.Time, error) {
	switch period {
	case "today":
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), nil
	case "week":
		return now.AddDate(0, 0, -7), nil
	case "month":
		return now.AddDate(0, -1, 0), nil
	}
	return time.Time{}, invalid("invalid report period %q", period)
}
