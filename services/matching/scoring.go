package matching

import (
	"math"
	"sort"
	"time"

	"lexconnect/models"
	"lexconnect/utils"
)

const (
	maxDistancePts       = 40.0
	maxRatingPts         = 20.0
	maxExperiencePts     = 10.0
	maxResponsivenessPts = 10.0
	// Experience saturates at 30 years.
	experienceCapYears = 30
)

// Candidate is a scored lawyer ready to be offered a case.
type Candidate struct {
	Lawyer     models.Lawyer
	Score      float64
	DistanceKm float64
	LeadsUsed  int
}

// distanceScore falls off linearly to zero at maxKm. Without coordinates on
// either side the lawyer matched on city and gets half marks.
func distanceScore(c *models.Case, l *models.Lawyer, maxKm float64) (float64, float64) {
	if !c.HasLocation() || l.Profile.LocationGeo == nil || !l.Profile.LocationGeo.Valid() {
		return maxDistancePts / 2, -1
	}
	d := utils.Haversine(c.LocationGeo.Lat(), c.LocationGeo.Lng(), l.Profile.LocationGeo.Lat(), l.Profile.LocationGeo.Lng())
	if d >= maxKm {
		return 0, d
	}
	return maxDistancePts * (1 - d/maxKm), d
}

func ratingScore(l *models.Lawyer) float64 {
	if l.Profile.RatingCount == 0 {
		return maxRatingPts / 2
	}
	r := math.Max(0, math.Min(l.Profile.Rating, 5))
	return r / 5 * maxRatingPts
}

func experienceScore(years int) float64 {
	if years <= 0 {
		return 0
	}
	if years > experienceCapYears {
		years = experienceCapYears
	}
	return math.Log10(float64(years+1)) / math.Log10(experienceCapYears+1) * maxExperiencePts
}

// score computes the ranking of l for c.
func score(c *models.Case, l *models.Lawyer, maxKm float64, now time.Time) Candidate {
	dist, km := distanceScore(c, l, maxKm)
	total := dist +
		ratingScore(l) +
		float64(l.EffectivePlan().Boost) +
		experienceScore(l.Profile.YearsExperience) +
		l.Stats.AcceptRatio()*maxResponsivenessPts

	return Candidate{
		Lawyer:     *l,
		Score:      math.Round(total*100) / 100,
		DistanceKm: km,
		LeadsUsed:  l.Usage(now).Used,
	}
}

// rank drops lawyers without quota left and orders the rest best first.
// Ties go to the lawyer who has used fewer leads this cycle.
func rank(c *models.Case, lawyers []models.Lawyer, maxKm float64, now time.Time) []Candidate {
	out := make([]Candidate, 0, len(lawyers))
	for i := range lawyers {
		l := &lawyers[i]
		if l.Usage(now).Remaining == 0 {
			continue
		}
		out = append(out, score(c, l, maxKm, now))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].LeadsUsed != out[j].LeadsUsed {
			return out[i].LeadsUsed < out[j].LeadsUsed
		}
		return out[i].Lawyer.ID < out[j].Lawyer.ID
	})
	return out
}
