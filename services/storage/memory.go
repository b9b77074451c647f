package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"sync"
	"time"

	"lexconnect/utils"
)

// MemoryStorage keeps objects in memory. Used by tests and local runs
// without cloud credentials.
type MemoryStorage struct {
	mu      sync.Mutex
	seq     int
	Objects map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{Objects: map[string][]byte{}}
}

func (m *MemoryStorage) Upload(_ context.Context, r io.Reader, fileName, folder string, private bool) (Object, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Object{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	key := path.Join(folder, fmt.Sprintf("%d-%s", m.seq, sanitize(fileName)))
	m.Objects[key] = data
	obj := Object{Key: key, Size: int64(len(data))}
	if !private {
		obj.URL = "memory://" + key
	}
	return obj, nil
}

func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Objects[key]; !ok {
		return fmt.Errorf("object %s: %w", key, utils.ErrNotFound)
	}
	delete(m.Objects, key)
	return nil
}

func (m *MemoryStorage) DownloadURL(_ context.Context, key string, private bool, expires time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Objects[key]; !ok {
		return "", fmt.Errorf("object %s: %w", key, utils.ErrNotFound)
	}
	if private {
		return fmt.Sprintf("memory://%s?expires=%d", key, int(expires.Seconds())), nil
	}
	return "memory://" + key, nil
}
