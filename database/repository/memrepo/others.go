package memrepo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"lexconnect/database/repository"
	billingRepo "lexconnect/database/repository/billing"
	messageRepo "lexconnect/database/repository/message"
	notificationRepo "lexconnect/database/repository/notification"
	securityLogRepo "lexconnect/database/repository/securitylog"
	"lexconnect/models"
)

type Messages struct {
	mu   sync.Mutex
	list []models.Message
}

var _ messageRepo.MessageRepository = (*Messages)(nil)

func NewMessages() *Messages { return &Messages{} }

func (r *Messages) Create(_ context.Context, m *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, *m)
	return nil
}

func (r *Messages) ListSince(_ context.Context, caseID string, cur messageRepo.Cursor, limit int64) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Message
	for _, m := range r.list {
		if m.CaseID != caseID {
			continue
		}
		if cur.Since.IsZero() || m.CreatedAt.After(cur.Since) ||
			(cur.AfterID != "" && m.CreatedAt.Equal(cur.Since) && m.ID > cur.AfterID) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *Messages) MarkRead(_ context.Context, caseID, readerID string, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.list {
		m := &r.list[i]
		if m.CaseID == caseID && m.SenderID != readerID && m.ReadAt == nil {
			t := now
			m.ReadAt = &t
			n++
		}
	}
	return n, nil
}

func (r *Messages) CountUnread(_ context.Context, caseID, readerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, m := range r.list {
		if m.CaseID == caseID && m.SenderID != readerID && m.ReadAt == nil {
			n++
		}
	}
	return n, nil
}

type Notifications struct {
	mu   sync.Mutex
	list []*models.Notification
}

var _ notificationRepo.NotificationRepository = (*Notifications)(nil)

func NewNotifications() *Notifications { return &Notifications{} }

func (r *Notifications) Create(_ context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *n
	r.list = append(r.list, &cp)
	return nil
}

func (r *Notifications) ListByRecipient(_ context.Context, recipientID string, unreadOnly bool, limit, skip int64) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for i := len(r.list) - 1; i >= 0; i-- {
		n := r.list[i]
		if n.RecipientID == recipientID && (!unreadOnly || !n.Read) {
			out = append(out, *n)
		}
	}
	return paginate(out, limit, skip), nil
}

func (r *Notifications) MarkRead(_ context.Context, recipientID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.list {
		if n.ID == id && n.RecipientID == recipientID {
			n.Read = true
			return nil
		}
	}
	return fmt.Errorf("notification %s: %w", id, repository.ErrNotFound)
}

func (r *Notifications) MarkAllRead(_ context.Context, recipientID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var c int64
	for _, n := range r.list {
		if n.RecipientID == recipientID && !n.Read {
			n.Read = true
			c++
		}
	}
	return c, nil
}

func (r *Notifications) CountUnread(_ context.Context, recipientID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var c int64
	for _, n := range r.list {
		if n.RecipientID == recipientID && !n.Read {
			c++
		}
	}
	return c, nil
}

// ByType returns stored notifications of the given type, for assertions.
func (r *Notifications) ByType(kind string) []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for _, n := range r.list {
		if n.Type == kind {
			out = append(out, *n)
		}
	}
	return out
}

type SecurityLogs struct {
	mu   sync.Mutex
	list []models.SecurityLog
}

var _ securityLogRepo.SecurityLogRepository = (*SecurityLogs)(nil)

func NewSecurityLogs() *SecurityLogs { return &SecurityLogs{} }

func (r *SecurityLogs) Append(_ context.Context, e *models.SecurityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, *e)
	return nil
}

func (r *SecurityLogs) List(_ context.Context, f securityLogRepo.Filter, limit, skip int64) ([]models.SecurityLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.SecurityLog
	for i := len(r.list) - 1; i >= 0; i-- {
		e := r.list[i]
		if (f.ActorID == "" || e.ActorID == f.ActorID) &&
			(f.Event == "" || e.Event == f.Event) &&
			(f.Since.IsZero() || !e.CreatedAt.Before(f.Since)) {
			out = append(out, e)
		}
	}
	return paginate(out, limit, skip), nil
}

type Events struct {
	mu   sync.Mutex
	seen map[string]string
}

var _ billingRepo.EventRepository = (*Events)(nil)

func NewEvents() *Events { return &Events{seen: map[string]string{}} }

func (r *Events) MarkProcessed(_ context.Context, id, kind string, _ time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[id]; ok {
		return false, nil
	}
	r.seen[id] = kind
	return true, nil
}

func (r *Events) Forget(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.seen, id)
	return nil
}
