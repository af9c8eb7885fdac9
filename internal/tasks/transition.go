package tasks

import (
	"taskhub/internal/db/models"

	"github.com/google/uuid"
)

// FollowUpSpec describes the follow-up task to synthesize when a task with
// a follow-up assignee transitions to done.
type FollowUpSpec struct {
	Name       string
	AssigneeID uuid.UUID
	Priority   models.Priority
}

// TransitionResult is the outcome of a status transition: the new task
// snapshot plus the side-effect commands the caller must carry out.
type TransitionResult struct {
	Task           models.Task
	NotifyReviewer bool
	DeleteFollowUp bool
	FollowUp       *FollowUpSpec
}

// Transition applies a status change to a task snapshot. It is pure: it
// never touches storage or notification transports, so the full flag
// matrix is testable in isolation.
//
// Rules:
//   - to todo with a reviewer set: checklist approval flags reset.
//   - to todo with a follow-up assignee: the follow-up child is invalidated.
//   - to done with a reviewer set: is_checked and is_mark_as_done are set;
//     an owner additionally confirms, and only the owner branch suppresses
//     self-notification of the reviewer.
//   - to done with a follow-up assignee: a high-priority follow-up task is
//     requested. Reviewer and follow-up effects are independent.
func Transition(task models.Task, status models.Status, actor Actor) TransitionResult {
	task.Status = status
	res := TransitionResult{}

	if status == models.StatusTodo && task.CheckByUserID != nil {
		task.IsChecked = nil
		task.IsConfirmed = nil
		task.IsMarkAsDone = false
		task.IsArchived = false
	}

	if status == models.StatusTodo && task.FollowUpUserID != nil {
		res.DeleteFollowUp = true
	}

	if status == models.StatusDone && task.CheckByUserID != nil {
		task.IsChecked = boolPtr(true)
		task.IsMarkAsDone = true
		if actor.Role == RoleOwner {
			task.IsConfirmed = boolPtr(true)
			res.NotifyReviewer = *task.CheckByUserID != actor.ID
		} else {
			res.NotifyReviewer = true
		}
	}

	if status == models.StatusDone && task.FollowUpUserID != nil {
		name := task.FollowUpMessage
		if name == "" {
			name = task.Name + " Follow Up"
		}
		res.FollowUp = &FollowUpSpec{
			Name:       name,
			AssigneeID: *task.FollowUpUserID,
			Priority:   models.PriorityHigh,
		}
	}

	res.Task = task
	return res
}

func boolPtr(b bool) *bool {
	return &b
}
