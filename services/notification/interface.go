package notification

import (
	"context"

	"lexconnect/models"
)

// Notifier is the write side used by other services.
type Notifier interface {
	Notify(ctx context.Context, n Message) error
}

// Message describes a notification before it is persisted.
type Message struct {
	RecipientID   string
	RecipientRole string
	Type          string
	Title         string
	Body          string
	Data          map[string]string
}

// NotificationService defines in-app notification and push operations.
type NotificationService interface {
	Notifier
	List(ctx context.Context, recipientID string, unreadOnly bool, limit, skip int64) ([]models.Notification, error)
	MarkRead(ctx context.Context, recipientID, id string) error
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
	UnreadCount(ctx context.Context, recipientID string) (int64, error)
	// DeliverPush sends a queued push through FCM.
	DeliverPush(ctx context.Context, payload models.PushPayload) error
}
