package notification

import (
	"context"
	"fmt"
	"time"

	citizenRepo "lexconnect/database/repository/citizen"
	lawyerRepo "lexconnect/database/repository/lawyer"
	notificationRepo "lexconnect/database/repository/notification"
	"lexconnect/models"
	"lexconnect/services/tasks"
	"lexconnect/utils"

	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrPushDisabled is returned by DeliverPush when FCM is not configured.
var ErrPushDisabled = fmt.Errorf("push delivery disabled: %w", utils.ErrUnavailable)

// PushSender is satisfied by *messaging.Client.
type PushSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// DefaultNotificationService is the production implementation.
type DefaultNotificationService struct {
	Repo     notificationRepo.NotificationRepository
	Citizens citizenRepo.CitizenRepository
	Lawyers  lawyerRepo.LawyerRepository
	Queue    tasks.Enqueuer
	Sender   PushSender
}

// Notify stores the notification and queues a push when the recipient has
// a device token. Push failures never fail the caller.
func (s *DefaultNotificationService) Notify(ctx context.Context, m Message) error {
	n := &models.Notification{
		ID:            uuid.New().String(),
		RecipientID:   m.RecipientID,
		RecipientRole: m.RecipientRole,
		Type:          m.Type,
		Title:         m.Title,
		Body:          m.Body,
		Data:          m.Data,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, n); err != nil {
		return fmt.Errorf("notify %s: %w", m.RecipientID, err)
	}

	if s.Queue == nil {
		return nil
	}
	token := s.deviceToken(ctx, m.RecipientID, m.RecipientRole)
	if token == "" {
		return nil
	}
	data := map[string]string{"type": m.Type, "role": m.RecipientRole, "notificationId": n.ID}
	for k, v := range m.Data {
		data[k] = v
	}
	payload := models.PushPayload{Token: token, Title: m.Title, Body: m.Body, Data: data}
	if err := s.Queue.EnqueuePush(ctx, payload); err != nil {
		utils.GetLogger().Warn("notification: failed to queue push",
			zap.String("recipient", m.RecipientID), zap.Error(err))
	}
	return nil
}

func (s *DefaultNotificationService) deviceToken(ctx context.Context, id, role string) string {
	switch role {
	case utils.RoleCitizen:
		if s.Citizens == nil {
			return ""
		}
		c, err := s.Citizens.GetByID(ctx, id)
		if err != nil {
			return ""
		}
		return c.FCMToken
	case utils.RoleLawyer:
		if s.Lawyers == nil {
			return ""
		}
		l, err := s.Lawyers.GetByID(ctx, id)
		if err != nil {
			return ""
		}
		return l.Security.FCMToken
	}
	return ""
}

func (s *DefaultNotificationService) DeliverPush(ctx context.Context, p models.PushPayload) error {
	if s.Sender == nil {
		return ErrPushDisabled
	}
	msg := &messaging.Message{
		Token: p.Token,
		Notification: &messaging.Notification{
			Title: p.Title,
			Body:  p.Body,
		},
		Data: p.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}
	if _, err := s.Sender.Send(ctx, msg); err != nil {
		if messaging.IsUnregistered(err) {
			// Stale token; retrying will not help.
			utils.GetLogger().Info("notification: dropping push to unregistered token")
			return nil
		}
		return fmt.Errorf("send FCM message: %w", err)
	}
	return nil
}

func (s *DefaultNotificationService) List(ctx context.Context, recipientID string, unreadOnly bool, limit, skip int64) ([]models.Notification, error) {
	return s.Repo.ListByRecipient(ctx, recipientID, unreadOnly, limit, skip)
}

func (s *DefaultNotificationService) MarkRead(ctx context.Context, recipientID, id string) error {
	return s.Repo.MarkRead(ctx, recipientID, id)
}

func (s *DefaultNotificationService) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	return s.Repo.MarkAllRead(ctx, recipientID)
}

func (s *DefaultNotificationService) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	return s.Repo.CountUnread(ctx, recipientID)
}
