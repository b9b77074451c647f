package chat

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"lexconnect/database/repository/memrepo"
	messageRepo "lexconnect/database/repository/message"
	"lexconnect/models"
	"lexconnect/services/notification"
	"lexconnect/services/storage"
	"lexconnect/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	citizen = Participant{ID: "cit-1", Role: utils.RoleCitizen}
	lawyer  = Participant{ID: "law-1", Role: utils.RoleLawyer}
)

func newService(status string) (*DefaultChatService, *memrepo.Notifications, *time.Time) {
	cases := memrepo.NewCases()
	cases.Put(models.Case{ID: "case-1", CitizenID: citizen.ID, AssignedLawyerID: lawyer.ID, Title: "Lease", Status: status})
	cases.Put(models.Case{ID: "case-2", CitizenID: citizen.ID, Title: "Open", Status: models.CaseOpen})
	notes := memrepo.NewNotifications()
	now := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	svc := &DefaultChatService{
		Cases:    cases,
		Messages: memrepo.NewMessages(),
		Notifier: &notification.DefaultNotificationService{Repo: notes},
		Storage:  storage.NewMemoryStorage(),
	}
	svc.Now = func() time.Time { return now }
	return svc, notes, &now
}

func TestSendAndPoll(t *testing.T) {
	svc, notes, now := newService(models.CaseAssigned)
	ctx := context.Background()

	first, err := svc.Send(ctx, citizen, "case-1", "  Hello, when can we meet? ")
	require.NoError(t, err)
	assert.Equal(t, "Hello, when can we meet?", first.Body)
	*now = now.Add(time.Minute)
	_, err = svc.Send(ctx, lawyer, "case-1", "Tomorrow at 10.")
	require.NoError(t, err)

	all, err := svc.Poll(ctx, citizen, "case-1", messageRepo.Cursor{}, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, lawyer.ID, all[1].SenderID)

	newer, err := svc.Poll(ctx, lawyer, "case-1", messageRepo.Cursor{Since: first.CreatedAt, AfterID: first.ID}, 10)
	require.NoError(t, err)
	require.Len(t, newer, 1)
	assert.Equal(t, "Tomorrow at 10.", newer[0].Body)

	msgs := notes.ByType(models.NotifyNewMessage)
	require.Len(t, msgs, 2)
	assert.Equal(t, lawyer.ID, msgs[0].RecipientID)
	assert.Equal(t, citizen.ID, msgs[1].RecipientID)
}

func TestPollPagesThroughSameInstant(t *testing.T) {
	svc, _, _ := newService(models.CaseAssigned)
	ctx := context.Background()

	sent := map[string]bool{}
	for i := 0; i < 5; i++ {
		m, err := svc.Send(ctx, citizen, "case-1", fmt.Sprintf("part %d", i))
		require.NoError(t, err)
		sent[m.ID] = true
	}

	var cur messageRepo.Cursor
	seen := map[string]bool{}
	for page := 0; page < 5; page++ {
		msgs, err := svc.Poll(ctx, lawyer, "case-1", cur, 2)
		require.NoError(t, err)
		if len(msgs) == 0 {
			break
		}
		for _, m := range msgs {
			assert.False(t, seen[m.ID], "message %s returned twice", m.ID)
			seen[m.ID] = true
		}
		last := msgs[len(msgs)-1]
		cur = messageRepo.Cursor{Since: last.CreatedAt, AfterID: last.ID}
	}
	assert.Equal(t, sent, seen)
}

func TestUnreadAndMarkRead(t *testing.T) {
	svc, _, _ := newService(models.CaseAssigned)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := svc.Send(ctx, lawyer, "case-1", "update")
		require.NoError(t, err)
	}
	n, err := svc.UnreadCount(ctx, citizen, "case-1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	n, err = svc.UnreadCount(ctx, lawyer, "case-1")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n, "own messages are never unread")

	marked, err := svc.MarkRead(ctx, citizen, "case-1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, marked)
	n, err = svc.UnreadCount(ctx, citizen, "case-1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAccessRules(t *testing.T) {
	svc, _, _ := newService(models.CaseAssigned)
	ctx := context.Background()

	_, err := svc.Send(ctx, Participant{ID: "law-2", Role: utils.RoleLawyer}, "case-1", "hi")
	assert.ErrorIs(t, err, ErrNotParticipant)
	_, err = svc.Send(ctx, citizen, "case-2", "hi")
	assert.ErrorIs(t, err, ErrNotParticipant, "no chat before assignment")
	_, err = svc.Send(ctx, citizen, "missing", "hi")
	assert.ErrorIs(t, err, utils.ErrNotFound)
	_, err = svc.Send(ctx, citizen, "case-1", "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	_, err = svc.Send(ctx, citizen, "case-1", strings.Repeat("a", MaxBodyLen+1))
	assert.ErrorIs(t, err, ErrMessageTooLong)
}

func TestClosedCaseIsReadOnly(t *testing.T) {
	svc, _, _ := newService(models.CaseClosed)
	ctx := context.Background()
	_, err := svc.Send(ctx, citizen, "case-1", "thanks")
	assert.ErrorIs(t, err, ErrChatClosed)
	_, err = svc.Poll(ctx, citizen, "case-1", messageRepo.Cursor{}, 0)
	assert.NoError(t, err)
}

func TestSendFile(t *testing.T) {
	svc, _, _ := newService(models.CaseAssigned)
	data := []byte("contract")
	m, err := svc.SendFile(context.Background(), lawyer, "case-1", "draft.docx", int64(len(data)), bytes.NewReader(data))
	require.NoError(t, err)
	require.NotNil(t, m.Attachment)
	assert.Equal(t, "draft.docx", m.Body)
}
