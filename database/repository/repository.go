// Package repository holds what every collection repository shares.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrNotFound is returned when a filter matches no document.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate is returned when a unique index rejects a write.
	ErrDuplicate = errors.New("duplicate document")
	// ErrConflict is returned when a guarded update finds the document in
	// an unexpected state.
	ErrConflict = errors.New("document state conflict")
)

const (
	ShortTimeout = 5 * time.Second
	LongTimeout  = 15 * time.Second
)

// WithTimeout bounds a repository call. A caller deadline that is already
// shorter wins.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, d)
}

// Translate maps driver errors onto the package sentinels.
func Translate(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", msg, ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", msg, ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}

// Page bounds list queries.
type Page struct {
	Limit int64
	Skip  int64
}

// Normalize clamps the page to sane values.
func (p Page) Normalize() Page {
	if p.Limit <= 0 || p.Limit > 100 {
		p.Limit = 50
	}
	if p.Skip < 0 {
		p.Skip = 0
	}
	return p
}
