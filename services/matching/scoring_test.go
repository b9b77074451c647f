package matching

import (
	"testing"
	"time"

	"lexconnect/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lawyerAt(id string, km float64) models.Lawyer {
	return models.Lawyer{
		ID:      id,
		Profile: models.LawyerProfile{LocationGeo: near(km), YearsExperience: 5},
		Plan:    models.LawyerPlan{PlanID: models.PlanFree, Status: models.PlanStatusActive},
		Leads:   models.LeadCounter{CycleStart: time.Now().UTC()},
	}
}

func TestRankPrefersCloserLawyers(t *testing.T) {
	c := &models.Case{LocationGeo: &paris}
	ranked := rank(c, []models.Lawyer{lawyerAt("far", 40), lawyerAt("close", 1)}, 50, time.Now().UTC())
	require.Len(t, ranked, 2)
	assert.Equal(t, "close", ranked[0].Lawyer.ID)
	assert.InDelta(t, 1, ranked[0].DistanceKm, 0.1)
}

func TestPlanBoostOutweighsSmallDistanceGap(t *testing.T) {
	c := &models.Case{LocationGeo: &paris}
	pro := lawyerAt("pro", 10)
	pro.Plan = models.LawyerPlan{PlanID: models.PlanPro, Status: models.PlanStatusActive}
	ranked := rank(c, []models.Lawyer{lawyerAt("free", 5), pro}, 50, time.Now().UTC())
	assert.Equal(t, "pro", ranked[0].Lawyer.ID)
}

func TestTiesGoToFewerLeadsUsed(t *testing.T) {
	c := &models.Case{LocationGeo: &paris}
	busy := lawyerAt("a-busy", 5)
	busy.Leads.Count = 3
	idle := lawyerAt("b-idle", 5)
	ranked := rank(c, []models.Lawyer{busy, idle}, 50, time.Now().UTC())
	assert.Equal(t, "b-idle", ranked[0].Lawyer.ID)
}

func TestRankDropsExhaustedQuota(t *testing.T) {
	c := &models.Case{LocationGeo: &paris}
	spent := lawyerAt("spent", 1)
	spent.Leads.Count = 5
	ranked := rank(c, []models.Lawyer{spent, lawyerAt("ok", 20)}, 50, time.Now().UTC())
	require.Len(t, ranked, 1)
	assert.Equal(t, "ok", ranked[0].Lawyer.ID)
}

func TestScoreComponents(t *testing.T) {
	assert.Zero(t, experienceScore(0))
	assert.InDelta(t, maxExperiencePts, experienceScore(45), 0.001)

	unrated := &models.Lawyer{}
	assert.Equal(t, maxRatingPts/2, ratingScore(unrated))
	top := &models.Lawyer{Profile: models.LawyerProfile{Rating: 5, RatingCount: 10}}
	assert.Equal(t, maxRatingPts, ratingScore(top))

	c := &models.Case{}
	l := lawyerAt("x", 1)
	pts, km := distanceScore(c, &l, 50)
	assert.Equal(t, maxDistancePts/2, pts)
	assert.Equal(t, -1.0, km)
}
