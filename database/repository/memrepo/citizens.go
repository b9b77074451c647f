package memrepo

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"lexconnect/database/repository"
	citizenRepo "lexconnect/database/repository/citizen"
	"lexconnect/models"

	"go.mongodb.org/mongo-driver/bson"
)

type Citizens struct {
	mu   sync.Mutex
	byID map[string]*models.Citizen
}

var _ citizenRepo.CitizenRepository = (*Citizens)(nil)

func NewCitizens() *Citizens {
	return &Citizens{byID: map[string]*models.Citizen{}}
}

func (r *Citizens) Create(_ context.Context, c *models.Citizen) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	for _, existing := range r.byID {
		if existing.Email == c.Email {
			return fmt.Errorf("citizen %s: %w", c.Email, repository.ErrDuplicate)
		}
	}
	if _, ok := r.byID[c.ID]; ok {
		return fmt.Errorf("citizen %s: %w", c.ID, repository.ErrDuplicate)
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	cp := *c
	r.byID[c.ID] = &cp
	return nil
}

func (r *Citizens) find(pred func(*models.Citizen) bool) (*models.Citizen, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.byID {
		if pred(c) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("citizen: %w", repository.ErrNotFound)
}

func (r *Citizens) GetByID(_ context.Context, id string) (*models.Citizen, error) {
	return r.find(func(c *models.Citizen) bool { return c.ID == id })
}

func (r *Citizens) GetByEmail(_ context.Context, email string) (*models.Citizen, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.find(func(c *models.Citizen) bool { return c.Email == email })
}

func (r *Citizens) GetByTokenHash(_ context.Context, hash string) (*models.Citizen, error) {
	return r.find(func(c *models.Citizen) bool { return hash != "" && c.TokenHash == hash })
}

func (r *Citizens) UpdateSetDocument(_ context.Context, id string, set bson.M) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("citizen %s: %w", id, repository.ErrNotFound)
	}
	if err := applySet(c, set); err != nil {
		return err
	}
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *Citizens) List(_ context.Context, status string, limit, skip int64) ([]models.Citizen, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Citizen
	for _, c := range r.byID {
		if status == "" || c.Status == status {
			out = append(out, *c)
		}
	}
	return paginate(out, limit, skip), nil
}

func (r *Citizens) Count(_ context.Context, status string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.byID {
		if status == "" || c.Status == status {
			n++
		}
	}
	return n, nil
}

func paginate[T any](items []T, limit, skip int64) []T {
	page := repository.Page{Limit: limit, Skip: skip}.Normalize()
	if page.Skip >= int64(len(items)) {
		return nil
	}
	items = items[page.Skip:]
	if int64(len(items)) > page.Limit {
		items = items[:page.Limit]
	}
	return items
}
