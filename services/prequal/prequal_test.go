package prequal

import (
	"context"
	"errors"
	"strings"
	"testing"

	"lexconnect/models"
	"lexconnect/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenClassifier struct{}

func (brokenClassifier) Classify(context.Context, []models.PrequalTurn) (*Assessment, error) {
	return nil, errors.New("quota exceeded")
}

func TestKeywordConversation(t *testing.T) {
	svc := NewDefaultPrequalService(NewMemorySessionStore(), nil)
	ctx := context.Background()

	first, err := svc.Message(ctx, models.PrequalRequest{Message: "I have a problem"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.SessionID)
	assert.False(t, first.Ready)

	second, err := svc.Message(ctx, models.PrequalRequest{
		SessionID: first.SessionID,
		Message:   "My landlord wants to keep my deposit and the eviction hearing is tomorrow",
	})
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, "housing", second.Category)
	assert.Equal(t, models.UrgencyHigh, second.Urgency)
	assert.True(t, second.Ready)

	session, err := svc.Get(ctx, first.SessionID)
	require.NoError(t, err)
	assert.Len(t, session.Turns, 4)
	assert.Equal(t, "I have a problem", session.Summary)
}

func TestThreeVagueTurnsFallBackToOther(t *testing.T) {
	svc := NewDefaultPrequalService(NewMemorySessionStore(), nil)
	ctx := context.Background()
	var id string
	var reply *models.PrequalReply
	for i := 0; i < 3; i++ {
		var err error
		reply, err = svc.Message(ctx, models.PrequalRequest{SessionID: id, Message: "something happened"})
		require.NoError(t, err)
		id = reply.SessionID
	}
	assert.Equal(t, "other", reply.Category)
	assert.True(t, reply.Ready)
}

func TestClassifierErrorUsesFallback(t *testing.T) {
	svc := NewDefaultPrequalService(NewMemorySessionStore(), brokenClassifier{})
	reply, err := svc.Message(context.Background(), models.PrequalRequest{Message: "I was fired without notice"})
	require.NoError(t, err)
	assert.Equal(t, "employment", reply.Category)
}

func TestMessageValidation(t *testing.T) {
	svc := NewDefaultPrequalService(NewMemorySessionStore(), nil)
	ctx := context.Background()

	_, err := svc.Message(ctx, models.PrequalRequest{Message: "   "})
	assert.ErrorIs(t, err, ErrEmptyMessage)
	_, err = svc.Message(ctx, models.PrequalRequest{Message: strings.Repeat("a", MaxMessageLen+1)})
	assert.ErrorIs(t, err, utils.ErrInvalid)
	_, err = svc.Message(ctx, models.PrequalRequest{SessionID: "gone", Message: "hello"})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestClaim(t *testing.T) {
	svc := NewDefaultPrequalService(NewMemorySessionStore(), nil)
	ctx := context.Background()
	reply, err := svc.Message(ctx, models.PrequalRequest{Message: "Question about my divorce and child custody"})
	require.NoError(t, err)

	session, err := svc.Claim(ctx, reply.SessionID, "cit-1")
	require.NoError(t, err)
	assert.Equal(t, "family", session.Category)
	assert.Equal(t, "cit-1", session.ClaimedBy)

	_, err = svc.Claim(ctx, reply.SessionID, "cit-1")
	assert.NoError(t, err, "claiming twice by the same citizen is allowed")
	_, err = svc.Claim(ctx, reply.SessionID, "cit-2")
	assert.ErrorIs(t, err, ErrAlreadyClaimed)

	_, err = svc.Message(ctx, models.PrequalRequest{SessionID: reply.SessionID, Message: "more"})
	assert.ErrorIs(t, err, ErrSessionNotFound, "claimed sessions are closed to the anonymous chat")
}

func TestParseAssessment(t *testing.T) {
	a, err := parseAssessment("```json\n{\"category\":\"immigration\",\"urgency\":\"asap\",\"reply\":\"When does your visa expire?\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "immigration", a.Category)
	assert.Equal(t, models.UrgencyNormal, a.Urgency)

	a, err = parseAssessment(`{"category":"tax","urgency":"high","reply":"ok","ready":true}`)
	require.NoError(t, err)
	assert.Empty(t, a.Category)
	assert.False(t, a.Ready)

	_, err = parseAssessment("not json")
	assert.Error(t, err)
}
