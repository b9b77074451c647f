package memrepo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"lexconnect/database/repository"
	lawyerRepo "lexconnect/database/repository/lawyer"
	"lexconnect/models"
	"lexconnect/utils"

	"go.mongodb.org/mongo-driver/bson"
)

type Lawyers struct {
	mu   sync.Mutex
	byID map[string]*models.Lawyer
}

var _ lawyerRepo.LawyerRepository = (*Lawyers)(nil)

func NewLawyers() *Lawyers {
	return &Lawyers{byID: map[string]*models.Lawyer{}}
}

func (r *Lawyers) Create(_ context.Context, l *models.Lawyer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.Profile.Email = strings.ToLower(strings.TrimSpace(l.Profile.Email))
	for _, existing := range r.byID {
		if existing.Profile.Email == l.Profile.Email || existing.ID == l.ID {
			return fmt.Errorf("lawyer %s: %w", l.Profile.Email, repository.ErrDuplicate)
		}
	}
	now := time.Now().UTC()
	l.CreatedAt, l.UpdatedAt = now, now
	if l.Leads.CycleStart.IsZero() {
		l.Leads.CycleStart = now
	}
	if l.Leads.Anchor.IsZero() {
		l.Leads.Anchor = l.Leads.CycleStart
	}
	cp := *l
	r.byID[l.ID] = &cp
	return nil
}

// Put stores a lawyer as is, for test fixtures.
func (r *Lawyers) Put(l models.Lawyer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[l.ID] = &l
}

func (r *Lawyers) find(pred func(*models.Lawyer) bool) (*models.Lawyer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.byID {
		if pred(l) {
			cp := *l
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("lawyer: %w", repository.ErrNotFound)
}

func (r *Lawyers) GetByID(_ context.Context, id string) (*models.Lawyer, error) {
	return r.find(func(l *models.Lawyer) bool { return l.ID == id })
}

func (r *Lawyers) GetByEmail(_ context.Context, email string) (*models.Lawyer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.find(func(l *models.Lawyer) bool { return l.Profile.Email == email })
}

func (r *Lawyers) GetByTokenHash(_ context.Context, hash string) (*models.Lawyer, error) {
	return r.find(func(l *models.Lawyer) bool { return hash != "" && l.Security.TokenHash == hash })
}

func (r *Lawyers) GetByStripeCustomer(_ context.Context, id string) (*models.Lawyer, error) {
	return r.find(func(l *models.Lawyer) bool { return id != "" && l.Plan.StripeCustomerID == id })
}

func (r *Lawyers) GetByIDs(_ context.Context, ids []string) ([]models.Lawyer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Lawyer
	for _, id := range ids {
		if l, ok := r.byID[id]; ok {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *Lawyers) UpdateSetDocument(_ context.Context, id string, set bson.M) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("lawyer %s: %w", id, repository.ErrNotFound)
	}
	if err := applySet(l, set); err != nil {
		return err
	}
	l.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *Lawyers) AddVerificationDocument(_ context.Context, id string, doc models.VerificationDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("lawyer %s: %w", id, repository.ErrNotFound)
	}
	l.Verification.Documents = append(l.Verification.Documents, doc)
	l.Verification.Status = models.VerificationPending
	return nil
}

func matchesFilter(l *models.Lawyer, f lawyerRepo.LawyerFilter) bool {
	return (f.Verification == "" || l.Verification.Status == f.Verification) &&
		(f.Status == "" || l.Status == f.Status)
}

func (r *Lawyers) List(_ context.Context, f lawyerRepo.LawyerFilter, limit, skip int64) ([]models.Lawyer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Lawyer
	for _, l := range r.byID {
		if matchesFilter(l, f) {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, limit, skip), nil
}

func (r *Lawyers) Count(_ context.Context, f lawyerRepo.LawyerFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, l := range r.byID {
		if matchesFilter(l, f) {
			n++
		}
	}
	return n, nil
}

func (r *Lawyers) FindEligible(_ context.Context, c lawyerRepo.EligibilityCriteria) ([]models.Lawyer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	excluded := map[string]bool{}
	for _, id := range c.ExcludeIDs {
		excluded[id] = true
	}
	var out []models.Lawyer
	for _, l := range r.byID {
		if excluded[l.ID] ||
			l.Status != models.AccountActive ||
			l.Verification.Status != models.VerificationVerified ||
			!l.AcceptingCases ||
			!l.HasSpecialty(c.Category) {
			continue
		}
		if c.Location != nil && c.Location.Valid() && c.MaxDistanceKm > 0 {
			g := l.Profile.LocationGeo
			if g == nil || !g.Valid() {
				continue
			}
			if utils.Haversine(c.Location.Lat(), c.Location.Lng(), g.Lat(), g.Lng()) > c.MaxDistanceKm {
				continue
			}
		} else if c.City != "" && !strings.EqualFold(l.Profile.City, c.City) {
			continue
		}
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if c.Limit > 0 && int64(len(out)) > c.Limit {
		out = out[:c.Limit]
	}
	return out, nil
}

func (r *Lawyers) ReserveLead(_ context.Context, id string, quota int, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.byID[id]
	if !ok {
		return false, fmt.Errorf("lawyer %s: %w", id, repository.ErrNotFound)
	}
	if next, rolled := l.Leads.Rolled(now); rolled {
		l.Leads = next
	}
	if quota >= 0 && l.Leads.Count >= quota {
		return false, nil
	}
	l.Leads.Count++
	return true, nil
}

func (r *Lawyers) ReleaseLead(_ context.Context, id string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("lawyer %s: %w", id, repository.ErrNotFound)
	}
	if _, rolled := l.Leads.Rolled(now); !rolled && l.Leads.Count > 0 {
		l.Leads.Count--
	}
	return nil
}

func (r *Lawyers) ResetExpiredCycles(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, l := range r.byID {
		if next, rolled := l.Leads.Rolled(now); rolled {
			l.Leads = next
			n++
		}
	}
	return n, nil
}

func (r *Lawyers) IncrementStat(_ context.Context, id, stat string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("lawyer %s: %w", id, repository.ErrNotFound)
	}
	switch stat {
	case "offered":
		l.Stats.Offered++
	case "accepted":
		l.Stats.Accepted++
	case "rejected":
		l.Stats.Rejected++
	case "expired":
		l.Stats.Expired++
	}
	return nil
}

func (r *Lawyers) AddRating(_ context.Context, id string, rating float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("lawyer %s: %w", id, repository.ErrNotFound)
	}
	total := l.Profile.Rating*float64(l.Profile.RatingCount) + rating
	l.Profile.RatingCount++
	l.Profile.Rating = total / float64(l.Profile.RatingCount)
	return nil
}
