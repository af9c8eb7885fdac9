package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskhub/internal/db/models"

	"github.com/google/uuid"
)

// Service implements the task lifecycle core: status transitions, the
// tracking ledger, assignment diffing and tracked-time aggregation. Every
// state-changing operation runs inside one Store transaction; collected
// effects are dispatched only after the transaction commits.
type Service struct {
	store    Store
	notifier Notifier
	now      func() time.Time
}

func NewService(store Store, notifier Notifier) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

// SetStatus moves a task to a new status, applying the checklist approval
// flags and follow-up side effects of the state machine.
func (s *Service) SetStatus(ctx context.Context, actor Actor, taskID uuid.UUID, status models.Status) (*models.Task, error) {
	if !status.Valid() {
		return nil, invalid("invalid status %q", status)
	}

	var (
		updated *models.Task
		effects []Effect
	)

	err := s.store.Transact(ctx, func(tx Store) error {
		task, err := tx.GetTask(ctx, taskID)
		if err != nil {
			return fmt.Errorf("error getting task: %w", err)
		}
		if task == nil {
			return ErrTaskNotFound
		}

		res := Transition(*task, status, actor)
		res.Task.UpdatedAt = s.now()
		if err := tx.UpdateTask(ctx, &res.Task); err != nil {
			return fmt.Errorf("error updating task: %w", err)
		}

		if res.DeleteFollowUp {
			child, err := tx.TaskByParent(ctx, task.ID)
			if err != nil {
				return fmt.Errorf("error getting follow-up task: %w", err)
			}
			if child != nil {
				if err := tx.DeleteTask(ctx, child.ID); err != nil {
					return fmt.Errorf("error deleting follow-up task: %w", err)
				}
			}
		}

		if res.NotifyReviewer {
			reviewer, err := tx.GetUser(ctx, *task.CheckByUserID)
			if err != nil {
				return fmt.Errorf("error getting reviewer: %w", err)
			}
			if reviewer != nil {
				title := "Please check your checklist"
				body := fmt.Sprintf(
					"Fantastic news! %s has successfully completed %s. Please review it on your checklist to appreciate the achievement.",
					actor.Name, task.Name)
				effects = append(effects,
					NotifyUser{UserID: reviewer.ID, Title: title, Body: body, TaskID: task.ID},
					QueueMail{To: reviewer.Email, Subject: title, Body: body},
				)
			}
		}

		if res.FollowUp != nil {
			followUp, effs, err := s.createFollowUp(ctx, tx, task, actor, res.FollowUp)
			if err != nil {
				return err
			}
			if followUp != nil {
				effects = append(effects, effs...)
			}
		}

		updated = &res.Task
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(ctx, effects)
	return updated, nil
}

// createFollowUp synthesizes the follow-up child task unless one already
// exists for this parent.
func (s *Service) createFollowUp(ctx context.Context, tx Store, task *models.Task, actor Actor, spec *FollowUpSpec) (*models.Task, []Effect, error) {
	existing, err := tx.TaskByParent(ctx, task.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("error getting follow-up task: %w", err)
	}
	if existing != nil {
		return nil, nil, nil
	}

	order, err := tx.NextPageOrder(ctx, task.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("error getting page order: %w", err)
	}

	now := s.now()
	followUp := &models.Task{
		ID:           uuid.New(),
		ProjectID:    task.ProjectID,
		ParentTaskID: &task.ID,
		Name:         spec.Name,
		Status:       models.StatusTodo,
		Priority:     spec.Priority,
		PageOrder:    order,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.CreateTask(ctx, followUp); err != nil {
		return nil, nil, fmt.Errorf("error creating follow-up task: %w", err)
	}
	if err := tx.ReplaceAssignees(ctx, followUp.ID, []uuid.UUID{spec.AssigneeID}); err != nil {
		return nil, nil, fmt.Errorf("error assigning follow-up task: %w", err)
	}

	var effects []Effect
	assignee, err := tx.GetUser(ctx, spec.AssigneeID)
	if err != nil {
		return nil, nil, fmt.Errorf("error getting follow-up user: %w", err)
	}
	if assignee != nil {
		title := "New Follow Up Task"
		body := fmt.Sprintf(
			"Fantastic news! %s has successfully completed %s. You are assigned to a Follow Up Task named %s. Please review it on your task list.",
			actor.Name, task.Name, followUp.Name)
		effects = append(effects,
			NotifyUser{UserID: assignee.ID, Title: title, Body: body, TaskID: followUp.ID},
			QueueMail{To: assignee.Email, Subject: title, Body: body},
		)
	}
	return followUp, effects, nil
}

type SubTaskInput struct {
	ID          *uuid.UUID `json:"id"`
	Name        string     `json:"name"`
	IsCompleted bool       `json:"is_completed"`
}

type TaskInput struct {
	ID                *uuid.UUID      `json:"id"`
	ProjectID         uuid.UUID       `json:"project_id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Priority          models.Priority `json:"priority"`
	CheckByUserID     *uuid.UUID      `json:"check_by_user_id"`
	FollowUpUserID    *uuid.UUID      `json:"follow_up_user_id"`
	FollowUpMessage   string          `json:"follow_up_message"`
	SubTasks          []SubTaskInput  `json:"subtasks"`
	RemovedSubTaskIDs []uuid.UUID     `json:"removed_subtask_ids"`
	AssignedUserIDs   []uuid.UUID     `json:"assigned_users"`
}

// CreateOrUpdateTask upserts a task with its subtasks and replaces its
// assignment set, notifying newly assigned users. Runs as one transaction.
func (s *Service) CreateOrUpdateTask(ctx context.Context, actor Actor, input TaskInput) (*models.Task, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, invalid("name is required")
	}
	if input.ProjectID == uuid.Nil {
		return nil, invalid("project_id is required")
	}
	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, invalid("invalid priority %q", input.Priority)
	}

	var (
		saved   *models.Task
		effects []Effect
	)

	err := s.store.Transact(ctx, func(tx Store) error {
		task, err := s.upsertTask(ctx, tx, input)
		if err != nil {
			return err
		}

		if err := s.syncSubTasks(ctx, tx, task.ID, input); err != nil {
			return err
		}

		effs, err := s.syncAssignees(ctx, tx, task, actor, input.AssignedUserIDs)
		if err != nil {
			return err
		}
		effects = effs

		saved = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(ctx, effects)
	return saved, nil
}

func (s *Service) upsertTask(ctx context.Context, tx Store, input TaskInput) (*models.Task, error) {
	now := s.now()

	if input.ID != nil {
		task, err := tx.GetTask(ctx, *input.ID)
		if err != nil {
			return nil, fmt.Errorf("error getting task: %w", err)
		}
		if task == nil {
			return nil, ErrTaskNotFound
		}
		task.Name = input.Name
		task.Description = input.Description
		task.Priority = input.Priority
		task.CheckByUserID = input.CheckByUserID
		task.FollowUpUserID = input.FollowUpUserID
		task.FollowUpMessage = input.FollowUpMessage
		task.UpdatedAt = now
		if err := tx.UpdateTask(ctx, task); err != nil {
			return nil, fmt.Errorf("error updating task: %w", err)
		}
		return task, nil
	}

	order, err := tx.NextPageOrder(ctx, input.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("error getting page order: %w", err)
	}
	task := &models.Task{
		ID:              uuid.New(),
		ProjectID:       input.ProjectID,
		Name:            input.Name,
		Description:     input.Description,
		Status:          models.StatusTodo,
		Priority:        input.Priority,
		CheckByUserID:   input.CheckByUserID,
		FollowUpUserID:  input.FollowUpUserID,
		FollowUpMessage: input.FollowUpMessage,
		PageOrder:       order,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := tx.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("error creating task: %w", err)
	}
	return task, nil
}

func (s *Service) syncSubTasks(ctx context.Context, tx Store, taskID uuid.UUID, input TaskInput) error {
	for _, st := range input.SubTasks {
		if strings.TrimSpace(st.Name) == "" {
			continue
		}
		sub := &models.SubTask{
			TaskID:      taskID,
			Name:        st.Name,
			IsCompleted: st.IsCompleted,
		}
		if st.ID != nil {
			sub.ID = *st.ID
		} else {
			sub.ID = uuid.New()
		}
		if err := tx.UpsertSubTask(ctx, sub); err != nil {
			return fmt.Errorf("error saving subtask: %w", err)
		}
	}
	if len(input.RemovedSubTaskIDs) > 0 {
		if err := tx.DeleteSubTasks(ctx, input.RemovedSubTaskIDs); err != nil {
			return fmt.Errorf("error deleting subtasks: %w", err)
		}
	}
	return nil
}

// syncAssignees replaces the task's assignment set and builds notification
// effects for newly assigned users. Assignment is a pure set: detach all,
// attach the target. Users present in both old and new sets, and the actor
// itself, are not notified.
func (s *Service) syncAssignees(ctx context.Context, tx Store, task *models.Task, actor Actor, target []uuid.UUID) ([]Effect, error) {
	current, err := tx.Assignees(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("error getting assignees: %w", err)
	}
	if err := tx.ReplaceAssignees(ctx, task.ID, target); err != nil {
		return nil, fmt.Errorf("error replacing assignees: %w", err)
	}

	known := make(map[uuid.UUID]bool, len(current))
	for _, id := range current {
		known[id] = true
	}

	var effects []Effect
	for _, id := range target {
		if known[id] || id == actor.ID {
			continue
		}
		user, err := tx.GetUser(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("error getting user: %w", err)
		}
		if user == nil {
			continue
		}
		effects = append(effects,
			NotifyUser{
				UserID: user.ID,
				Title:  "Task Assigned",
				Body:   fmt.Sprintf("You were Assigned to task %s by %s.", task.Name, actor.Name),
				TaskID: task.ID,
			},
			QueueMail{
				To:      user.Email,
				Subject: "New Task.",
				Body: fmt.Sprintf(
					"We are excited to inform you that %s has just assigned you the task %s. Your expertise and skills are valued, and we trust you will excel in this assignment.",
					actor.Name, task.Name),
			},
		)
	}
	return effects, nil
}

// GetTask returns a task snapshot by id.
func (s *Service) GetTask(ctx context.Context, taskID uuid.UUID) (*models.Task, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("error getting task: %w", err)
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// SubTasks lists a task's checklist items.
func (s *Service) SubTasks(ctx context.Context, taskID uuid.UUID) ([]*models.SubTask, error) {
	subs, err := s.store.ListSubTasks(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("error listing subtasks: %w", err)
	}
	return subs, nil
}

// ListTasks lists a project's tasks, optionally pre-filtered by a search
// query. Search results are treated as an opaque id set.
func (s *Service) ListTasks(ctx context.Context, projectID uuid.UUID, query string) ([]*models.Task, error) {
	var ids []uuid.UUID
	if query != "" {
		found, err := s.store.SearchTasks(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("error searching tasks: %w", err)
		}
		if len(found) == 0 {
			return []*models.Task{}, nil
		}
		ids = found
	}
	return s.store.ListTasks(ctx, projectID, ids)
}
