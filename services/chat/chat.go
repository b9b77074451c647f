package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"lexconnect/database/repository"
	caseRepo "lexconnect/database/repository/cases"
	messageRepo "lexconnect/database/repository/message"
	"lexconnect/models"
	"lexconnect/services/notification"
	"lexconnect/services/storage"
	"lexconnect/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MaxBodyLen       = 4000
	DefaultPollLimit = 50
	MaxPollLimit     = 200
	previewLen       = 80
)

var (
	ErrNotParticipant = fmt.Errorf("only the citizen and the assigned lawyer can use this chat: %w", utils.ErrForbidden)
	ErrChatClosed     = fmt.Errorf("chat is read-only once the case is no longer assigned: %w", utils.ErrConflict)
	ErrEmptyMessage   = fmt.Errorf("message body is empty: %w", utils.ErrInvalid)
	ErrMessageTooLong = fmt.Errorf("message exceeds %d characters: %w", MaxBodyLen, utils.ErrInvalid)
)

// Participant is the authenticated caller.
type Participant struct {
	ID   string
	Role string
}

type ChatService interface {
	Send(ctx context.Context, from Participant, caseID, body string) (*models.Message, error)
	SendFile(ctx context.Context, from Participant, caseID, fileName string, size int64, r io.Reader) (*models.Message, error)
	Poll(ctx context.Context, reader Participant, caseID string, cur messageRepo.Cursor, limit int64) ([]models.Message, error)
	MarkRead(ctx context.Context, reader Participant, caseID string) (int64, error)
	UnreadCount(ctx context.Context, reader Participant, caseID string) (int64, error)
}

type DefaultChatService struct {
	Cases    caseRepo.CaseRepository
	Messages messageRepo.MessageRepository
	Notifier notification.Notifier
	Storage  storage.StorageService
	Now      func() time.Time
}

func (s *DefaultChatService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// thread loads the case and returns the counterpart of p.
func (s *DefaultChatService) thread(ctx context.Context, p Participant, caseID string) (*models.Case, Participant, error) {
	c, err := s.Cases.GetByID(ctx, caseID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, Participant{}, fmt.Errorf("case: %w", utils.ErrNotFound)
	}
	if err != nil {
		return nil, Participant{}, err
	}
	if c.AssignedLawyerID == "" {
		return nil, Participant{}, ErrNotParticipant
	}
	switch {
	case p.Role == utils.RoleCitizen && p.ID == c.CitizenID:
		return c, Participant{ID: c.AssignedLawyerID, Role: utils.RoleLawyer}, nil
	case p.Role == utils.RoleLawyer && p.ID == c.AssignedLawyerID:
		return c, Participant{ID: c.CitizenID, Role: utils.RoleCitizen}, nil
	}
	return nil, Participant{}, ErrNotParticipant
}

func (s *DefaultChatService) Send(ctx context.Context, from Participant, caseID, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyMessage
	}
	if len([]rune(body)) > MaxBodyLen {
		return nil, ErrMessageTooLong
	}
	return s.post(ctx, from, caseID, body, nil)
}

func (s *DefaultChatService) SendFile(ctx context.Context, from Participant, caseID, fileName string, size int64, r io.Reader) (*models.Message, error) {
	if err := storage.ValidateUpload(fileName, size); err != nil {
		return nil, err
	}
	c, _, err := s.thread(ctx, from, caseID)
	if err != nil {
		return nil, err
	}
	if c.Status != models.CaseAssigned {
		return nil, ErrChatClosed
	}
	obj, err := s.Storage.Upload(ctx, r, fileName, storage.FolderChat+"/"+caseID, true)
	if err != nil {
		utils.GetLogger().Error("chat: upload failed", zap.String("caseID", caseID), zap.Error(err))
		return nil, fmt.Errorf("upload failed: %w", utils.ErrUnavailable)
	}
	a := &models.Attachment{
		ID:         uuid.New().String(),
		FileName:   fileName,
		StorageKey: obj.Key,
		Size:       max(size, obj.Size),
		UploadedBy: from.ID,
		UploadedAt: s.now(),
	}
	return s.post(ctx, from, caseID, fileName, a)
}

func (s *DefaultChatService) post(ctx context.Context, from Participant, caseID, body string, a *models.Attachment) (*models.Message, error) {
	c, to, err := s.thread(ctx, from, caseID)
	if err != nil {
		return nil, err
	}
	if c.Status != models.CaseAssigned {
		return nil, ErrChatClosed
	}
	m := &models.Message{
		ID:         uuid.New().String(),
		CaseID:     caseID,
		SenderID:   from.ID,
		SenderRole: from.Role,
		Body:       body,
		Attachment: a,
		CreatedAt:  s.now(),
	}
	if err := s.Messages.Create(ctx, m); err != nil {
		return nil, err
	}

	if s.Notifier != nil {
		if err := s.Notifier.Notify(ctx, notification.Message{
			RecipientID:   to.ID,
			RecipientRole: to.Role,
			Type:          models.NotifyNewMessage,
			Title:         c.Title,
			Body:          preview(body),
			Data:          map[string]string{"caseId": caseID, "messageId": m.ID},
		}); err != nil {
			utils.GetLogger().Warn("chat: notification failed", zap.String("caseID", caseID), zap.Error(err))
		}
	}
	return m, nil
}

// Poll returns messages after the cursor, oldest first. Closed cases stay
// readable.
func (s *DefaultChatService) Poll(ctx context.Context, reader Participant, caseID string, cur messageRepo.Cursor, limit int64) ([]models.Message, error) {
	if _, _, err := s.thread(ctx, reader, caseID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultPollLimit
	}
	limit = min(limit, MaxPollLimit)
	return s.Messages.ListSince(ctx, caseID, cur, limit)
}

func (s *DefaultChatService) MarkRead(ctx context.Context, reader Participant, caseID string) (int64, error) {
	if _, _, err := s.thread(ctx, reader, caseID); err != nil {
		return 0, err
	}
	return s.Messages.MarkRead(ctx, caseID, reader.ID, s.now())
}

func (s *DefaultChatService) UnreadCount(ctx context.Context, reader Participant, caseID string) (int64, error) {
	if _, _, err := s.thread(ctx, reader, caseID); err != nil {
		return 0, err
	}
	return s.Messages.CountUnread(ctx, caseID, reader.ID)
}

func preview(body string) string {
	r := []rune(body)
	if len(r) <= previewLen {
		return body
	}
	return string(r[:previewLen-1]) + "…"
}
