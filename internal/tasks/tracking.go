package tasks

import (
	"context"
	"fmt"

	"taskhub/internal/db/models"

	"github.com/google/uuid"
)

// StartTracking opens a tracking interval for (actor, task) and moves the
// task to doing. If the actor already has an open interval on a different
// task it is closed first, silently. Starting on a task that is already
// being tracked reuses the open interval.
//
// The single-active-timer invariant (at most one open interval per user)
// is additionally enforced by a partial unique index in storage, so two
// racing starts cannot both create an open row.
func (s *Service) StartTracking(ctx context.Context, actor Actor, taskID uuid.UUID) (*models.Task, *models.TaskTracking, error) {
	var (
		updated  *models.Task
		previous *models.TaskTracking
	)

	err := s.store.Transact(ctx, func(tx Store) error {
		task, err := tx.GetTask(ctx, taskID)
		if err != nil {
			return fmt.Errorf("error getting task: %w", err)
		}
		if task == nil {
			return ErrTaskNotFound
		}

		active, err := tx.ActiveTracking(ctx, actor.ID)
		if err != nil {
			return fmt.Errorf("error getting active tracking: %w", err)
		}
		previous = active

		if active != nil && active.TaskID != task.ID {
			if _, err := s.closeTracking(ctx, tx, active.TaskID, actor.ID); err != nil {
				return err
			}
		}

		if active == nil || active.TaskID != task.ID {
			tr := &models.TaskTracking{
				TaskID:         task.ID,
				UserID:         actor.ID,
				StartTime:      s.now(),
				EnableTracking: true,
			}
			if err := tx.CreateTracking(ctx, tr); err != nil {
				return fmt.Errorf("error creating tracking: %w", err)
			}
		}

		task.Status = models.StatusDoing
		task.UpdatedAt = s.now()
		if err := tx.UpdateTask(ctx, task); err != nil {
			return fmt.Errorf("error updating task: %w", err)
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.notifier.Dispatch(ctx, []Effect{
		Toast{Kind: ToastSuccess, Message: "Task tracking started successfully"},
	})
	return updated, previous, nil
}

// StopTracking closes the actor's open interval on the task and reverts
// the task to todo. Idempotent: stopping an untracked task still leaves it
// in todo with no open interval. Silent stops skip the success toast.
func (s *Service) StopTracking(ctx context.Context, actor Actor, taskID uuid.UUID, silent bool) (*models.Task, error) {
	var updated *models.Task

	err := s.store.Transact(ctx, func(tx Store) error {
		task, err := tx.GetTask(ctx, taskID)
		if err != nil {
			return fmt.Errorf("error getting task: %w", err)
		}
		if task == nil {
			return ErrTaskNotFound
		}

		closed, err := s.closeTracking(ctx, tx, task.ID, actor.ID)
		if err != nil {
			return err
		}
		if closed != nil {
			task = closed
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !silent {
		s.notifier.Dispatch(ctx, []Effect{
			Toast{Kind: ToastSuccess, Message: "Task tracking ended successfully"},
		})
	}
	return updated, nil
}

// closeTracking ends the newest open interval for (task, user), clears any
// stale enable_tracking rows and reverts the task to todo, returning the
// reverted snapshot. Used by both the explicit stop and the implicit stop
// inside StartTracking.
func (s *Service) closeTracking(ctx context.Context, tx Store, taskID, userID uuid.UUID) (*models.Task, error) {
	open, err := tx.OpenTrackingForTask(ctx, taskID, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting open tracking: %w", err)
	}
	if open != nil {
		if err := tx.CloseTracking(ctx, open.ID, s.now()); err != nil {
			return nil, fmt.Errorf("error closing tracking: %w", err)
		}
	}
	if err := tx.DisableTracking(ctx, taskID, userID); err != nil {
		return nil, fmt.Errorf("error disabling tracking: %w", err)
	}

	task, err := tx.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("error getting task: %w", err)
	}
	if task != nil {
		task.Status = models.StatusTodo
		task.UpdatedAt = s.now()
		if err := tx.UpdateTask(ctx, task); err != nil {
			return nil, fmt.Errorf("error updating task: %w", err)
		}
	}
	return task, nil
}

// EndTrackingAdmin force-closes every open interval on the task, for any
// user, and reverts the task to todo. No notifications are emitted; list
// views use this to clean up timers.
func (s *Service) EndTrackingAdmin(ctx context.Context, taskID uuid.UUID) (*models.Task, error) {
	var updated *models.Task

	err := s.store.Transact(ctx, func(tx Store) error {
		task, err := tx.GetTask(ctx, taskID)
		if err != nil {
			return fmt.Errorf("error getting task: %w", err)
		}
		if task == nil {
			return ErrTaskNotFound
		}

		open, err := tx.OpenTrackingsForTask(ctx, task.ID)
		if err != nil {
			return fmt.Errorf("error getting open trackings: %w", err)
		}
		for _, tr := range open {
			if err := tx.CloseTracking(ctx, tr.ID, s.now()); err != nil {
				return fmt.Errorf("error closing tracking: %w", err)
			}
			if err := tx.DisableTracking(ctx, task.ID, tr.UserID); err != nil {
				return fmt.Errorf("error disabling tracking: %w", err)
			}
		}

		task.Status = models.StatusTodo
		task.UpdatedAt = s.now()
		if err := tx.UpdateTask(ctx, task); err != nil {
			return fmt.Errorf("error updating task: %w", err)
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
