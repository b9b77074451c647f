package prequal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lexconnect/models"
	"lexconnect/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	roleVisitor   = "user"
	roleAssistant = "assistant"

	MaxMessageLen = 2000
	MaxTurns      = 20
)

var (
	ErrSessionNotFound = fmt.Errorf("pre-qualification session not found or expired: %w", utils.ErrNotFound)
	ErrAlreadyClaimed  = fmt.Errorf("pre-qualification session already claimed: %w", utils.ErrConflict)
	ErrEmptyMessage    = fmt.Errorf("message must not be empty: %w", utils.ErrInvalid)
	ErrMessageTooLong  = fmt.Errorf("message exceeds %d characters: %w", MaxMessageLen, utils.ErrInvalid)
	ErrTooManyTurns    = fmt.Errorf("conversation is too long, please create an account: %w", utils.ErrInvalid)
)

type PrequalService interface {
	// Message appends a visitor message and returns the assistant reply.
	// An empty session id starts a new conversation.
	Message(ctx context.Context, req models.PrequalRequest) (*models.PrequalReply, error)
	Get(ctx context.Context, sessionID string) (*models.PrequalSession, error)
	// Claim binds a session to a citizen so its assessment can seed a case.
	Claim(ctx context.Context, sessionID, citizenID string) (*models.PrequalSession, error)
}

type DefaultPrequalService struct {
	Store SessionStore
	// Classifier may be nil, in which case Fallback answers alone.
	Classifier Classifier
	Fallback   Classifier
	Now        func() time.Time
}

func NewDefaultPrequalService(store SessionStore, classifier Classifier) *DefaultPrequalService {
	return &DefaultPrequalService{Store: store, Classifier: classifier, Fallback: KeywordClassifier{}}
}

func (s *DefaultPrequalService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *DefaultPrequalService) Message(ctx context.Context, req models.PrequalRequest) (*models.PrequalReply, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if len([]rune(text)) > MaxMessageLen {
		return nil, ErrMessageTooLong
	}
	now := s.now()

	var session *models.PrequalSession
	if req.SessionID != "" {
		var err error
		session, err = s.Store.Get(ctx, req.SessionID)
		if err != nil {
			return nil, fmt.Errorf("load prequal session: %w", err)
		}
		if session == nil || session.ClaimedBy != "" {
			return nil, ErrSessionNotFound
		}
	} else {
		session = &models.PrequalSession{ID: uuid.New().String(), CreatedAt: now}
	}
	if len(session.Turns) >= MaxTurns {
		return nil, ErrTooManyTurns
	}

	session.Turns = append(session.Turns, models.PrequalTurn{Role: roleVisitor, Text: text, At: now})
	a := s.classify(ctx, session.Turns)

	if a.Category != "" {
		session.Category = a.Category
	}
	if a.Urgency != "" {
		session.Urgency = a.Urgency
	}
	if a.Summary != "" {
		session.Summary = a.Summary
	}
	if a.City != "" {
		session.City = a.City
	}
	session.Ready = a.Ready
	session.LastActive = now
	session.Turns = append(session.Turns, models.PrequalTurn{Role: roleAssistant, Text: a.Reply, At: now})

	if err := s.Store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save prequal session: %w", err)
	}
	return &models.PrequalReply{
		SessionID: session.ID,
		Reply:     a.Reply,
		Category:  session.Category,
		Urgency:   session.Urgency,
		Ready:     session.Ready,
	}, nil
}

func (s *DefaultPrequalService) classify(ctx context.Context, turns []models.PrequalTurn) *Assessment {
	if s.Classifier != nil {
		a, err := s.Classifier.Classify(ctx, turns)
		if err == nil {
			return a
		}
		utils.GetLogger().Warn("prequal: classifier failed, using keywords", zap.Error(err))
	}
	fallback := s.Fallback
	if fallback == nil {
		fallback = KeywordClassifier{}
	}
	a, _ := fallback.Classify(ctx, turns)
	return a
}

func (s *DefaultPrequalService) Get(ctx context.Context, sessionID string) (*models.PrequalSession, error) {
	session, err := s.Store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load prequal session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *DefaultPrequalService) Claim(ctx context.Context, sessionID, citizenID string) (*models.PrequalSession, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.ClaimedBy != "" && session.ClaimedBy != citizenID {
		return nil, ErrAlreadyClaimed
	}
	session.ClaimedBy = citizenID
	session.LastActive = s.now()
	if err := s.Store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save prequal session: %w", err)
	}
	utils.GetLogger().Info("prequal: session claimed", zap.String("sessionID", sessionID), zap.String("citizenID", citizenID))
	return session, nil
}
