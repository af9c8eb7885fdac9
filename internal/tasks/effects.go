package tasks

import (
	"context"

	"github.com/google/uuid"
)

// RoleOwner is the team role that may confirm checklist items on its own
// authority.
const RoleOwner = "owner"

// Actor is the authenticated user performing a mutation. Core operations
// take it explicitly; there is no implicit session lookup below the HTTP
// layer.
type Actor struct {
	ID    uuid.UUID
	Name  string
	Email string
	Role  string
}

// Effect is a side-effect command produced by a mutation. Effects are
// collected during the transaction and handed to the Notifier only after
// commit, so a delivery failure can never roll back the task mutation.
type Effect interface {
	effect()
}

// NotifyUser persists a database notification for a user.
type NotifyUser struct {
	UserID uuid.UUID
	Title  string
	Body   string
	TaskID uuid.UUID
}

// QueueMail enqueues a fire-and-forget email.
type QueueMail struct {
	To      string
	Subject string
	Body    string
}

// Toast is a transient user-facing notice (success or error).
type Toast struct {
	Kind    string
	Message string
}

const (
	ToastSuccess = "success"
	ToastError   = "error"
)

func (NotifyUser) effect() {}
func (QueueMail) effect()  {}
func (Toast) effect()      {}

type Notifier interface {
	Dispatch(ctx context.Context, effects []Effect)
}

// NopNotifier discards all effects.
type NopNotifier struct{}

func (NopNotifier) Dispatch(context.Context, []Effect) {}
