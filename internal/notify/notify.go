package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"taskhub/internal/db/models"
	"taskhub/internal/tasks"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

// NotificationStore persists database notifications.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// Dispatcher executes effect commands after a core transaction has
// committed: it persists database notifications, enqueues mail and
// optionally mirrors toasts to a Discord channel. Failures are logged and
// never propagated back to the mutation that produced the effects.
type Dispatcher struct {
	store     NotificationStore
	mailer    *Mailer
	session   *discordgo.Session
	channelID string
}

func NewDispatcher(store NotificationStore, mailer *Mailer) *Dispatcher {
	return &Dispatcher{store: store, mailer: mailer}
}

// WithDiscord attaches a Discord channel sink. Toasts and notification
// titles are mirrored there as plain messages.
func (d *Dispatcher) WithDiscord(token, channelID string) error {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return fmt.Errorf("error creating Discord session: %w", err)
	}
	d.session = session
	d.channelID = channelID
	return nil
}

func (d *Dispatcher) Dispatch(ctx context.Context, effects []tasks.Effect) {
	for _, eff := range effects {
		switch e := eff.(type) {
		case tasks.NotifyUser:
			n := &models.Notification{
				ID:        uuid.New(),
				UserID:    e.UserID,
				Title:     e.Title,
				Body:      e.Body,
				CreatedAt: time.Now(),
			}
			if e.TaskID != uuid.Nil {
				taskID := e.TaskID
				n.TaskID = &taskID
			}
			if err := d.store.CreateNotification(ctx, n); err != nil {
				log.Printf("Error persisting notification for user %s: %v", e.UserID, err)
			}
			d.sendChannelLog(fmt.Sprintf("%s: %s", e.Title, e.Body))
		case tasks.QueueMail:
			if d.mailer != nil {
				d.mailer.Enqueue(Mail{To: e.To, Subject: e.Subject, Body: e.Body})
			}
		case tasks.Toast:
			log.Printf("[%s] %s", e.Kind, e.Message)
			d.sendChannelLog(e.Message)
		}
	}
}

func (d *Dispatcher) sendChannelLog(message string) {
	if d.session == nil || d.channelID == "" {
		return
	}
	if _, err := d.session.ChannelMessageSend(d.channelID, fmt.Sprintf("`%s`", message)); err != nil {
		log.Printf("Error sending log to Discord: %v", err)
	}
}
