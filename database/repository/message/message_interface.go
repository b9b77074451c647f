package messageRepo

import (
	"context"
	"time"

	"lexconnect/models"
)

// Cursor marks the last message a client has seen. AfterID breaks ties
// between messages stored in the same millisecond.
type Cursor struct {
	Since   time.Time
	AfterID string
}

// MessageRepository defines methods for case chat data access.
type MessageRepository interface {
	Create(ctx context.Context, m *models.Message) error
	// ListSince returns messages of the case that sort after the cursor,
	// ordered by (createdAt, id).
	ListSince(ctx context.Context, caseID string, cur Cursor, limit int64) ([]models.Message, error)
	// MarkRead stamps readAt on every unread message not sent by readerID.
	MarkRead(ctx context.Context, caseID, readerID string, now time.Time) (int64, error)
	// CountUnread counts messages in the case not sent by readerID and not read.
	CountUnread(ctx context.Context, caseID, readerID string) (int64, error)
}
