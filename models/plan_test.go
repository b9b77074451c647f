package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddMonthsClampsToMonthEnd(t *testing.T) {
	jan31 := time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 2, 28, 10, 0, 0, 0, time.UTC), AddMonths(jan31, 1))
	assert.Equal(t, time.Date(2025, 3, 31, 10, 0, 0, 0, time.UTC), AddMonths(jan31, 2))
	assert.Equal(t, time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC), AddMonths(time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC), 1))
	assert.Equal(t, time.Date(2026, 1, 31, 10, 0, 0, 0, time.UTC), AddMonths(jan31, 12))
}

func TestCycleBoundsKeepAnchorDay(t *testing.T) {
	anchor := time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC)

	start, end := CycleBounds(anchor, anchor.Add(24*time.Hour))
	assert.Equal(t, anchor, start)
	assert.Equal(t, time.Date(2025, 2, 28, 10, 0, 0, 0, time.UTC), end)

	start, end = CycleBounds(anchor, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 2, 28, 10, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 3, 31, 10, 0, 0, 0, time.UTC), end)

	start, _ = CycleBounds(anchor, time.Date(2025, 5, 31, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 4, 30, 10, 0, 0, 0, time.UTC), start)
}

func TestRolledCounterDoesNotDrift(t *testing.T) {
	anchor := time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC)
	c := LeadCounter{Count: 4, CycleStart: anchor}

	same, rolled := c.Rolled(anchor.Add(72 * time.Hour))
	assert.False(t, rolled)
	assert.Equal(t, 4, same.Count)

	var starts []time.Time
	now := anchor
	for i := 0; i < 4; i++ {
		now = now.AddDate(0, 0, 31)
		next, rolled := c.Rolled(now)
		if rolled {
			assert.Zero(t, next.Count)
			assert.Equal(t, anchor, next.Anchor)
			starts = append(starts, next.CycleStart)
			c = next
		}
	}
	assert.Equal(t, []time.Time{
		time.Date(2025, 2, 28, 10, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 31, 10, 0, 0, 0, time.UTC),
		time.Date(2025, 4, 30, 10, 0, 0, 0, time.UTC),
		time.Date(2025, 5, 31, 10, 0, 0, 0, time.UTC),
	}, starts)

	now = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	fresh, rolled := LeadCounter{}.Rolled(now)
	assert.True(t, rolled)
	assert.Equal(t, now, fresh.CycleStart)
	assert.Equal(t, now, fresh.Anchor)
}

func TestEffectivePlanFallsBackToFree(t *testing.T) {
	l := &Lawyer{Plan: LawyerPlan{PlanID: PlanPro, Status: PlanStatusActive}}
	assert.Equal(t, PlanPro, l.EffectivePlan().ID)

	l.Plan.Status = PlanStatusPastDue
	assert.Equal(t, PlanFree, l.EffectivePlan().ID)

	l.Plan = LawyerPlan{PlanID: "gold", Status: PlanStatusActive}
	assert.Equal(t, PlanFree, l.EffectivePlan().ID)
}

func TestUsageResetsAcrossCycles(t *testing.T) {
	start := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)
	l := &Lawyer{
		Plan:  LawyerPlan{PlanID: PlanBasic, Status: PlanStatusActive},
		Leads: LeadCounter{Count: 20, CycleStart: start},
	}

	u := l.Usage(start.Add(48 * time.Hour))
	assert.Equal(t, 20, u.Used)
	assert.Equal(t, 5, u.Remaining)
	assert.Equal(t, start.AddDate(0, 1, 0), u.CycleEnd)

	u = l.Usage(start.AddDate(0, 1, 1))
	assert.Equal(t, 0, u.Used)
	assert.Equal(t, 25, u.Remaining)

	l.Plan.PlanID = PlanPro
	u = l.Usage(start)
	assert.Equal(t, UnlimitedLeads, u.Remaining)
}

func TestGeoPointValid(t *testing.T) {
	p := NewGeoPoint(48.85, 2.35)
	assert.True(t, p.Valid())
	assert.Equal(t, 48.85, p.Lat())
	assert.Equal(t, 2.35, p.Lng())
	assert.False(t, GeoPoint{}.Valid())
	assert.False(t, NewGeoPoint(120, 0).Valid())
}
