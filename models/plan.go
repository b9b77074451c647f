package models

import "time"

const (
	PlanFree  = "free"
	PlanBasic = "basic"
	PlanPro   = "pro"
)

const (
	PlanStatusActive   = "active"
	PlanStatusPastDue  = "past_due"
	PlanStatusCanceled = "canceled"
)

// UnlimitedLeads marks a plan without a monthly quota.
const UnlimitedLeads = -1

// Plan is a subscription tier. StripePriceID is filled from configuration.
type Plan struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	MonthlyLeads  int    `json:"monthlyLeads"`
	PriceCents    int64  `json:"priceCents"`
	Boost         int    `json:"boost"`
	StripePriceID string `json:"-"`
}

// Unlimited reports whether the plan has no monthly cap.
func (p Plan) Unlimited() bool {
	return p.MonthlyLeads == UnlimitedLeads
}

// LeadUsage is the lawyer-facing view of the current cycle.
type LeadUsage struct {
	PlanID     string    `json:"planId"`
	Used       int       `json:"used"`
	Quota      int       `json:"quota"`
	Remaining  int       `json:"remaining"`
	CycleStart time.Time `json:"cycleStart"`
	CycleEnd   time.Time `json:"cycleEnd"`
}

// StripeEvent records a processed webhook event id.
type StripeEvent struct {
	ID          string    `bson:"id" json:"id"`
	Type        string    `bson:"type" json:"type"`
	ProcessedAt time.Time `bson:"processedAt" json:"processedAt"`
}

var planCatalogue = map[string]Plan{
	PlanFree:  {ID: PlanFree, Name: "Free", MonthlyLeads: 5, PriceCents: 0, Boost: 0},
	PlanBasic: {ID: PlanBasic, Name: "Basic", MonthlyLeads: 25, PriceCents: 2900, Boost: 10},
	PlanPro:   {ID: PlanPro, Name: "Pro", MonthlyLeads: UnlimitedLeads, PriceCents: 7900, Boost: 20},
}

// PlanByID returns the catalogue entry, falling back to the free plan.
func PlanByID(id string) Plan {
	if p, ok := planCatalogue[id]; ok {
		return p
	}
	return planCatalogue[PlanFree]
}

// IsKnownPlan reports whether id names a catalogue plan.
func IsKnownPlan(id string) bool {
	_, ok := planCatalogue[id]
	return ok
}

// Plans lists the catalogue from cheapest to most expensive.
func Plans() []Plan {
	return []Plan{planCatalogue[PlanFree], planCatalogue[PlanBasic], planCatalogue[PlanPro]}
}

// EffectivePlan is the plan whose quota applies right now. A subscription
// that is no longer active falls back to free.
func (l *Lawyer) EffectivePlan() Plan {
	if l.Plan.PlanID == "" || l.Plan.PlanID == PlanFree {
		return PlanByID(PlanFree)
	}
	if l.Plan.Status != PlanStatusActive {
		return PlanByID(PlanFree)
	}
	return PlanByID(l.Plan.PlanID)
}

// AddMonths moves t by n calendar months. The day is clamped to the last
// day of the target month, so Jan 31 + 1 is Feb 28 (or 29), not Mar 3.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// CycleBounds returns the monthly cycle anchored at anchor that contains now.
func CycleBounds(anchor, now time.Time) (start, end time.Time) {
	ay, am, _ := anchor.Date()
	ny, nm, _ := now.Date()
	k := (ny-ay)*12 + int(nm-am)
	if k < 0 {
		k = 0
	}
	for k > 0 && now.Before(AddMonths(anchor, k)) {
		k--
	}
	for !now.Before(AddMonths(anchor, k+1)) {
		k++
	}
	return AddMonths(anchor, k), AddMonths(anchor, k+1)
}

// AnchorOrStart is the cycle anchor, falling back to CycleStart for
// counters written before anchors were stored.
func (c LeadCounter) AnchorOrStart() time.Time {
	if !c.Anchor.IsZero() {
		return c.Anchor
	}
	return c.CycleStart
}

// Rolled returns the counter for the cycle containing now and whether the
// stored cycle had ended. A rolled counter starts from zero.
func (c LeadCounter) Rolled(now time.Time) (LeadCounter, bool) {
	anchor := c.AnchorOrStart()
	if anchor.IsZero() {
		return LeadCounter{CycleStart: now, Anchor: now}, true
	}
	if now.Before(c.CycleStart) {
		return c, false
	}
	start, _ := CycleBounds(anchor, now)
	if start.Equal(c.CycleStart) {
		return c, false
	}
	return LeadCounter{CycleStart: start, Anchor: anchor}, true
}

// Usage reports lead consumption for the cycle containing now.
func (l *Lawyer) Usage(now time.Time) LeadUsage {
	plan := l.EffectivePlan()
	current, _ := l.Leads.Rolled(now)
	start, end := CycleBounds(current.AnchorOrStart(), current.CycleStart)
	used := current.Count
	u := LeadUsage{
		PlanID:     plan.ID,
		Used:       used,
		Quota:      plan.MonthlyLeads,
		Remaining:  UnlimitedLeads,
		CycleStart: start,
		CycleEnd:   end,
	}
	if !plan.Unlimited() {
		u.Remaining = plan.MonthlyLeads - used
		if u.Remaining < 0 {
			u.Remaining = 0
		}
	}
	return u
}
