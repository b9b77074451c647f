package memrepo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"lexconnect/database/repository"
	matchRepo "lexconnect/database/repository/match"
	"lexconnect/models"
)

type Matches struct {
	mu   sync.Mutex
	byID map[string]*models.Match
}

var _ matchRepo.MatchRepository = (*Matches)(nil)

func NewMatches() *Matches {
	return &Matches{byID: map[string]*models.Match{}}
}

func (r *Matches) Create(_ context.Context, m *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.CaseID == m.CaseID && existing.LawyerID == m.LawyerID {
			return fmt.Errorf("match %s/%s: %w", m.CaseID, m.LawyerID, repository.ErrDuplicate)
		}
	}
	cp := *m
	r.byID[m.ID] = &cp
	return nil
}

func (r *Matches) GetByID(_ context.Context, id string) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("match %s: %w", id, repository.ErrNotFound)
	}
	cp := *m
	return &cp, nil
}

func (r *Matches) filter(pred func(*models.Match) bool) []models.Match {
	var out []models.Match
	for _, m := range r.byID {
		if pred(m) {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OfferedAt.Equal(out[j].OfferedAt) {
			return out[i].OfferedAt.Before(out[j].OfferedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *Matches) ListByCase(_ context.Context, caseID string) ([]models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter(func(m *models.Match) bool { return m.CaseID == caseID }), nil
}

func (r *Matches) ListByLawyer(_ context.Context, lawyerID, status string, limit, skip int64) ([]models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.filter(func(m *models.Match) bool {
		return m.LawyerID == lawyerID && (status == "" || m.Status == status)
	})
	return paginate(out, limit, skip), nil
}

func (r *Matches) OfferedLawyerIDs(_ context.Context, caseID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for _, m := range r.filter(func(m *models.Match) bool { return m.CaseID == caseID }) {
		ids = append(ids, m.LawyerID)
	}
	return ids, nil
}

func (r *Matches) HasPendingFor(_ context.Context, caseID, lawyerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.byID {
		if m.CaseID == caseID && m.LawyerID == lawyerID && m.Status == models.MatchPending {
			return true, nil
		}
	}
	return false, nil
}

func (r *Matches) Respond(_ context.Context, id, lawyerID, status, reason string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok || m.LawyerID != lawyerID || m.Status != models.MatchPending || !now.Before(m.ExpiresAt) {
		return false, nil
	}
	m.Status = status
	m.RespondedAt = &now
	if reason != "" {
		m.RejectReason = reason
	}
	return true, nil
}

func (r *Matches) Transition(_ context.Context, id, from, to string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok || m.Status != from {
		return false, nil
	}
	m.Status = to
	m.RespondedAt = &now
	return true, nil
}

func (r *Matches) ClosePending(_ context.Context, caseID, exceptID, status string, now time.Time) ([]models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var closed []models.Match
	for _, m := range r.byID {
		if m.CaseID == caseID && m.ID != exceptID && m.Status == models.MatchPending {
			m.Status = status
			m.RespondedAt = &now
			closed = append(closed, *m)
		}
	}
	return closed, nil
}

func (r *Matches) FindExpired(_ context.Context, now time.Time, limit int64) ([]models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.filter(func(m *models.Match) bool {
		return m.Status == models.MatchPending && !m.ExpiresAt.After(now)
	})
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *Matches) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]int64{}
	for _, m := range r.byID {
		out[m.Status]++
	}
	return out, nil
}
