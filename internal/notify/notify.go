package notify

import (
	"context"
	"fmt"
	"time"

	"tikflow-ledger-go/internal/database"
	"tikflow-ledger-go/internal/models"

	"github.com/google/uuid"
)

// Sink records user and admin alerts. Records queued inside an atomic
// unit commit or roll back with the state change they report; delivery
// (push, email, SMS) is an external concern.
type Sink struct {
	db *database.Service
}

func NewSink(db *database.Service) *Sink {
	return &Sink{db: db}
}

// QueueInUnit writes a notification record inside an open atomic unit.
func (s *Sink) QueueInUnit(ctx context.Context, u *database.Unit, n models.Notification) error {
	n.Id = uuid.New().String()
	n.CreatedAt = time.Now()
	return u.InsertNotification(ctx, &n)
}

// Notify records a standalone notification outside any reconciliation flow.
func (s *Sink) Notify(ctx context.Context, n models.Notification) (string, error) {
	var id string
	err := s.db.RunUnit(ctx, func(u *database.Unit) error {
		n.Id = uuid.New().String()
		n.CreatedAt = time.Now()
		id = n.Id
		return u.InsertNotification(ctx, &n)
	})
	if err != nil {
		return "", fmt.Errorf("failed to record notification: %w", err)
	}
	return id, nil
}

// ListForUser returns the most recent notifications for a recipient
// (models.AdminRecipient for the admin feed).
func (s *Sink) ListForUser(ctx context.Context, userId string, limit int) ([]models.Notification, error) {
	return s.db.GetNotificationsForUser(ctx, userId, limit)
}

// MarkRead flags a notification as read for its recipient.
func (s *Sink) MarkRead(ctx context.Context, id, userId string) error {
	return s.db.MarkNotificationRead(ctx, id, userId)
}

// AdminAlert is a convenience wrapper for admin-facing records.
func AdminAlert(title, message, notifType, link string) models.Notification {
	return models.Notification{
		UserId:  models.AdminRecipient,
		Title:   title,
		Message: message,
		Type:    notifType,
		Link:    link,
	}
}
