package memrepo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"lexconnect/database/repository"
	caseRepo "lexconnect/database/repository/cases"
	"lexconnect/models"

	"go.mongodb.org/mongo-driver/bson"
)

type Cases struct {
	mu   sync.Mutex
	byID map[string]*models.Case
}

var _ caseRepo.CaseRepository = (*Cases)(nil)

func NewCases() *Cases {
	return &Cases{byID: map[string]*models.Case{}}
}

func (r *Cases) Create(_ context.Context, c *models.Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[c.ID]; ok {
		return fmt.Errorf("case %s: %w", c.ID, repository.ErrDuplicate)
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	cp := *c
	r.byID[c.ID] = &cp
	return nil
}

// Put stores a case as is, for test fixtures.
func (r *Cases) Put(c models.Case) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[c.ID] = &c
}

func (r *Cases) GetByID(_ context.Context, id string) (*models.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("case %s: %w", id, repository.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (r *Cases) filter(pred func(*models.Case) bool) []models.Case {
	var out []models.Case
	for _, c := range r.byID {
		if pred(c) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *Cases) ListByCitizen(_ context.Context, citizenID, status string) ([]models.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter(func(c *models.Case) bool {
		return c.CitizenID == citizenID && (status == "" || c.Status == status)
	}), nil
}

func (r *Cases) ListByAssignedLawyer(_ context.Context, lawyerID, status string) ([]models.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter(func(c *models.Case) bool {
		return c.AssignedLawyerID == lawyerID && (status == "" || c.Status == status)
	}), nil
}

func (r *Cases) ListByStatus(_ context.Context, status string, limit, skip int64) ([]models.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.filter(func(c *models.Case) bool { return status == "" || c.Status == status })
	return paginate(out, limit, skip), nil
}

func (r *Cases) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]int64{}
	for _, c := range r.byID {
		out[c.Status]++
	}
	return out, nil
}

func (r *Cases) ReserveSlot(_ context.Context, id string, max int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok || c.Status != models.CaseOpen || c.ActiveMatches >= max {
		return false, nil
	}
	c.ActiveMatches++
	c.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *Cases) ReleaseSlots(_ context.Context, id string, n int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byID[id]; ok {
		c.ActiveMatches = max(0, c.ActiveMatches-n)
		c.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (r *Cases) Assign(_ context.Context, id, lawyerID string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok || c.Status != models.CaseOpen {
		return false, nil
	}
	c.Status = models.CaseAssigned
	c.AssignedLawyerID = lawyerID
	c.AssignedAt = &now
	c.UpdatedAt = now
	return true, nil
}

func (r *Cases) Unassign(_ context.Context, id, lawyerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok || c.Status != models.CaseAssigned || c.AssignedLawyerID != lawyerID {
		return false, nil
	}
	c.Status = models.CaseOpen
	c.AssignedLawyerID = ""
	c.AssignedAt = nil
	c.ActiveMatches = max(0, c.ActiveMatches-1)
	c.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *Cases) BeginRedistribution(_ context.Context, id string, limit int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok || c.Status != models.CaseOpen || c.RedistributionCount >= limit {
		return false, nil
	}
	c.RedistributionCount++
	c.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *Cases) MarkUnmatched(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok || c.Status != models.CaseOpen || c.ActiveMatches > 0 {
		return false, nil
	}
	c.Status = models.CaseUnmatched
	c.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *Cases) Transition(_ context.Context, id string, from []string, set bson.M) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return false, nil
	}
	allowed := false
	for _, s := range from {
		if c.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return false, nil
	}
	if err := applySet(c, set); err != nil {
		return false, err
	}
	c.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *Cases) FindStalled(_ context.Context, maxRedistributions int, idleSince time.Time, limit int64) ([]models.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.filter(func(c *models.Case) bool {
		return c.Status == models.CaseOpen &&
			c.ActiveMatches <= 0 &&
			c.RedistributionCount < maxRedistributions &&
			!c.UpdatedAt.After(idleSince)
	})
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *Cases) AddAttachment(_ context.Context, id string, a models.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("case %s: %w", id, repository.ErrNotFound)
	}
	c.Attachments = append(c.Attachments, a)
	return nil
}

func (r *Cases) AppendDescription(_ context.Context, id, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("case %s: %w", id, repository.ErrNotFound)
	}
	c.Description += "\n\n" + text
	return nil
}

// Backdate moves a case's updatedAt into the past, for sweep tests.
func (r *Cases) Backdate(id string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byID[id]; ok {
		c.UpdatedAt = c.UpdatedAt.Add(-d)
	}
}
