package matching

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"lexconnect/database/repository"
	"lexconnect/database/repository/memrepo"
	"lexconnect/models"
	"lexconnect/services/notification"
	"lexconnect/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var paris = models.NewGeoPoint(48.8566, 2.3522)

type fixture struct {
	engine  *DefaultEngine
	cases   *memrepo.Cases
	matches *memrepo.Matches
	lawyers *memrepo.Lawyers
	notes   *memrepo.Notifications
	now     time.Time
}

func newFixture(t *testing.T, s Settings) *fixture {
	t.Helper()
	f := &fixture{
		cases:   memrepo.NewCases(),
		matches: memrepo.NewMatches(),
		lawyers: memrepo.NewLawyers(),
		notes:   memrepo.NewNotifications(),
		now:     time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	notifier := &notification.DefaultNotificationService{Repo: f.notes}
	f.engine = NewDefaultEngine(f.cases, f.matches, f.lawyers, notifier, utils.NopMetrics(), s)
	f.engine.Now = func() time.Time { return f.now }
	return f
}

func defaultSettings() Settings {
	return Settings{
		MaxActiveMatches:   3,
		InitialBatch:       3,
		RedistributeBatch:  2,
		MaxRedistributions: 3,
		MatchTTL:           48 * time.Hour,
		MaxDistanceKm:      50,
	}
}

// near returns a point roughly km kilometres north of Paris.
func near(km float64) *models.GeoPoint {
	p := models.NewGeoPoint(paris.Lat()+km/111.0, paris.Lng())
	return &p
}

func (f *fixture) addLawyer(id string, km float64, opts ...func(*models.Lawyer)) {
	l := models.Lawyer{
		ID: id,
		Profile: models.LawyerProfile{
			FullName:        "Lawyer " + id,
			Email:           id + "@example.com",
			Specialties:     []string{"family"},
			City:            "Paris",
			LocationGeo:     near(km),
			YearsExperience: 5,
		},
		Verification:   models.LawyerVerification{Status: models.VerificationVerified},
		Status:         models.AccountActive,
		AcceptingCases: true,
		Plan:           models.LawyerPlan{PlanID: models.PlanFree, Status: models.PlanStatusActive},
		Leads:          models.LeadCounter{CycleStart: f.now.Add(-24 * time.Hour)},
	}
	for _, o := range opts {
		o(&l)
	}
	f.lawyers.Put(l)
}

func (f *fixture) addCase(id string) {
	f.cases.Put(models.Case{
		ID:          id,
		CitizenID:   "citizen-1",
		Title:       "Custody dispute",
		Category:    "family",
		City:        "Paris",
		LocationGeo: &paris,
		Status:      models.CaseOpen,
		CreatedAt:   f.now,
		UpdatedAt:   f.now,
	})
}

func (f *fixture) caseByID(t *testing.T, id string) *models.Case {
	t.Helper()
	c, err := f.cases.GetByID(context.Background(), id)
	require.NoError(t, err)
	return c
}

func (f *fixture) pending(t *testing.T, caseID string) []models.Match {
	t.Helper()
	all, err := f.matches.ListByCase(context.Background(), caseID)
	require.NoError(t, err)
	var out []models.Match
	for _, m := range all {
		if m.Status == models.MatchPending {
			out = append(out, m)
		}
	}
	return out
}

func TestDistributeOffersBestLawyersUpToBatch(t *testing.T) {
	f := newFixture(t, defaultSettings())
	for i, km := range []float64{2, 10, 30, 45} {
		f.addLawyer(fmt.Sprintf("l%d", i), km)
	}
	f.addCase("c1")

	n, err := f.engine.Distribute(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	pending := f.pending(t, "c1")
	require.Len(t, pending, 3)
	offered := map[string]bool{}
	for _, m := range pending {
		offered[m.LawyerID] = true
		assert.True(t, m.CountedAsLead)
		assert.Equal(t, f.now.Add(48*time.Hour), m.ExpiresAt)
	}
	assert.False(t, offered["l3"], "farthest lawyer should be left out")

	assert.Equal(t, 3, f.caseByID(t, "c1").ActiveMatches)
	l0, _ := f.lawyers.GetByID(context.Background(), "l0")
	assert.Equal(t, 1, l0.Leads.Count)
	assert.Equal(t, 1, l0.Stats.Offered)
	assert.Len(t, f.notes.ByType(models.NotifyMatchOffered), 3)
}

func TestDistributeNeverExceedsActiveLimit(t *testing.T) {
	s := defaultSettings()
	s.InitialBatch = 10
	f := newFixture(t, s)
	for i := 0; i < 8; i++ {
		f.addLawyer(fmt.Sprintf("l%d", i), float64(i+1))
	}
	f.addCase("c1")

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.Distribute(context.Background(), "c1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, f.pending(t, "c1"), 3)
	assert.Equal(t, 3, f.caseByID(t, "c1").ActiveMatches)
}

func TestEligibilityFilters(t *testing.T) {
	f := newFixture(t, defaultSettings())
	f.addLawyer("ok", 5)
	f.addLawyer("unverified", 5, func(l *models.Lawyer) { l.Verification.Status = models.VerificationPending })
	f.addLawyer("paused", 5, func(l *models.Lawyer) { l.AcceptingCases = false })
	f.addLawyer("suspended", 5, func(l *models.Lawyer) { l.Status = models.AccountSuspended })
	f.addLawyer("criminal", 5, func(l *models.Lawyer) { l.Profile.Specialties = []string{"criminal"} })
	f.addLawyer("faraway", 120)
	f.addLawyer("quota", 5, func(l *models.Lawyer) { l.Leads.Count = 5 })
	f.addCase("c1")

	n, err := f.engine.Distribute(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	pending := f.pending(t, "c1")
	require.Len(t, pending, 1)
	assert.Equal(t, "ok", pending[0].LawyerID)
}

func TestCityFallbackWithoutCoordinates(t *testing.T) {
	f := newFixture(t, defaultSettings())
	f.addLawyer("paris", 5)
	f.addLawyer("lyon", 5, func(l *models.Lawyer) { l.Profile.City = "Lyon" })
	f.cases.Put(models.Case{ID: "c1", CitizenID: "citizen-1", Category: "family", City: "paris", Status: models.CaseOpen})

	n, err := f.engine.Distribute(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "paris", f.pending(t, "c1")[0].LawyerID)
}

func TestLeadCycleRollsOverOnReservation(t *testing.T) {
	f := newFixture(t, defaultSettings())
	f.addLawyer("l1", 5, func(l *models.Lawyer) {
		l.Leads = models.LeadCounter{Count: 5, CycleStart: f.now.AddDate(0, -1, -2)}
	})
	f.addCase("c1")

	n, err := f.engine.Distribute(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	l, _ := f.lawyers.GetByID(context.Background(), "l1")
	assert.Equal(t, 1, l.Leads.Count)
	assert.True(t, l.Leads.CycleStart.After(f.now.AddDate(0, -1, 0)))
}

func TestQuotaIsNeverExceeded(t *testing.T) {
	f := newFixture(t, defaultSettings())
	f.addLawyer("l1", 5, func(l *models.Lawyer) { l.Leads.Count = 4 })
	for i := 0; i < 6; i++ {
		f.addCase(fmt.Sprintf("c%d", i))
	}

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, _ = f.engine.Distribute(context.Background(), id)
		}(fmt.Sprintf("c%d", i))
	}
	wg.Wait()

	l, _ := f.lawyers.GetByID(context.Background(), "l1")
	assert.Equal(t, 5, l.Leads.Count)
	total := 0
	for i := 0; i < 6; i++ {
		total += len(f.pending(t, fmt.Sprintf("c%d", i)))
		assert.LessOrEqual(t, f.caseByID(t, fmt.Sprintf("c%d", i)).ActiveMatches, 1)
	}
	assert.Equal(t, 1, total)
}

func TestAcceptFirstWins(t *testing.T) {
	f := newFixture(t, defaultSettings())
	f.addLawyer("a", 2)
	f.addLawyer("b", 3)
	f.addLawyer("c", 4)
	f.addCase("c1")
	_, err := f.engine.Distribute(context.Background(), "c1")
	require.NoError(t, err)

	pending := f.pending(t, "c1")
	require.Len(t, pending, 3)

	m, err := f.engine.Accept(context.Background(), pending[0].ID, pending[0].LawyerID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchAccepted, m.Status)

	c := f.caseByID(t, "c1")
	assert.Equal(t, models.CaseAssigned, c.Status)
	assert.Equal(t, pending[0].LawyerID, c.AssignedLawyerID)
	assert.Equal(t, 1, c.ActiveMatches)

	_, err = f.engine.Accept(context.Background(), pending[1].ID, pending[1].LawyerID)
	assert.ErrorIs(t, err, ErrMatchClosed)

	others, _ := f.matches.GetByID(context.Background(), pending[2].ID)
	assert.Equal(t, models.MatchSuperseded, others.Status)
	assert.Len(t, f.notes.ByType(models.NotifyMatchSuperseded), 2)
	assert.Len(t, f.notes.ByType(models.NotifyMatchAccepted), 1)
}

func TestConcurrentAcceptsAssignOnce(t *testing.T) {
	f := newFixture(t, defaultSettings())
	f.addLawyer("a", 2)
	f.addLawyer("b", 3)
	f.addLawyer("c", 4)
	f.addCase("c1")
	_, err := f.engine.Distribute(context.Background(), "c1")
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for _, m := range f.pending(t, "c1") {
		wg.Add(1)
		go func(m models.Match) {
			defer wg.Done()
			if _, err := f.engine.Accept(context.Background(), m.ID, m.LawyerID); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(m)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	counts, _ := f.matches.CountByStatus(context.Background())
	assert.Equal(t, int64(1), counts[models.MatchAccepted])
	assert.Equal(t, 1, f.caseByID(t, "c1").ActiveMatches)
}

func TestAcceptRules(t *testing.T) {
	f := newFixture(t, defaultSettings())
	f.addLawyer("a", 2)
	f.addCase("c1")
	_, err := f.engine.Distribute(context.Background(), "c1")
	require.NoError(t, err)
	m := f.pending(t, "c1")[0]

	_, err = f.engine.Accept(context.Background(), m.ID, "someone-else")
	assert.ErrorIs(t, err, ErrNotYourMatch)

	_, err = f.engine.Accept(context.Background(), "missing", "a")
	assert.ErrorIs(t, err, ErrMatchNotFound)

	f.now = f.now.Add(49 * time.Hour)
	_, err = f.engine.Accept(context.Background(), m.ID, "a")
	assert.ErrorIs(t, err, ErrMatchExpired)
	assert.True(t, errors.Is(err, utils.ErrConflict))
}

func TestRejectRedistributesToNewLawyers(t *testing.T) {
	s := defaultSettings()
	s.InitialBatch = 1
	f := newFixture(t, s)
	f.addLawyer("a", 1)
	f.addLawyer("b", 2)
	f.addLawyer("c", 3)
	f.addCase("c1")
	_, err := f.engine.Distribute(context.Background(), "c1")
	require.NoError(t, err)

	first := f.pending(t, "c1")
	require.Len(t, first, 1)
	require.Equal(t, "a", first[0].LawyerID)

	require.NoError(t, f.engine.Reject(context.Background(), first[0].ID, "a", "conflict of interest"))

	c := f.caseByID(t, "c1")
	assert.Equal(t, 1, c.RedistributionCount)
	next := f.pending(t, "c1")
	require.Len(t, next, 2)
	for _, m := range next {
		assert.NotEqual(t, "a", m.LawyerID)
		assert.Equal(t, 1, m.Round)
	}
	assert.Equal(t, 2, c.ActiveMatches)

	rejected, _ := f.matches.GetByID(context.Background(), first[0].ID)
	assert.Equal(t, "conflict of interest", rejected.RejectReason)

	err = f.engine.Reject(context.Background(), first[0].ID, "a", "")
	assert.ErrorIs(t, err, ErrMatchClosed)
}

func TestExhaustedBudgetMarksCaseUnmatched(t *testing.T) {
	s := defaultSettings()
	s.InitialBatch = 1
	s.RedistributeBatch = 1
	s.MaxRedistributions = 2
	f := newFixture(t, s)
	for i := 0; i < 5; i++ {
		f.addLawyer(fmt.Sprintf("l%d", i), float64(i+1))
	}
	f.addCase("c1")
	_, err := f.engine.Distribute(context.Background(), "c1")
	require.NoError(t, err)

	for round := 0; round < 3; round++ {
		p := f.pending(t, "c1")
		require.Len(t, p, 1, "round %d", round)
		require.NoError(t, f.engine.Reject(context.Background(), p[0].ID, p[0].LawyerID, ""))
	}

	c := f.caseByID(t, "c1")
	assert.Equal(t, models.CaseUnmatched, c.Status)
	assert.Equal(t, 2, c.RedistributionCount)
	assert.Zero(t, c.ActiveMatches)
	notes := f.notes.ByType(models.NotifyCaseUnmatched)
	require.Len(t, notes, 1)
	assert.Equal(t, "citizen-1", notes[0].RecipientID)

	n, err := f.engine.ForceRedistribute(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, models.CaseOpen, f.caseByID(t, "c1").Status)
}

func TestExpireDueRedistributes(t *testing.T) {
	s := defaultSettings()
	s.InitialBatch = 2
	f := newFixture(t, s)
	f.addLawyer("a", 1)
	f.addLawyer("b", 2)
	f.addLawyer("c", 3)
	f.addLawyer("d", 4)
	f.addCase("c1")
	_, err := f.engine.Distribute(context.Background(), "c1")
	require.NoError(t, err)

	n, err := f.engine.ExpireDue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	f.now = f.now.Add(48 * time.Hour)
	n, err = f.engine.ExpireDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	a, _ := f.lawyers.GetByID(context.Background(), "a")
	assert.Equal(t, 1, a.Stats.Expired)

	pending := f.pending(t, "c1")
	require.Len(t, pending, 2)
	for _, m := range pending {
		assert.Contains(t, []string{"c", "d"}, m.LawyerID)
	}
	assert.Equal(t, 1, f.caseByID(t, "c1").RedistributionCount)
}

func TestWithdrawReopensCase(t *testing.T) {
	s := defaultSettings()
	s.InitialBatch = 1
	f := newFixture(t, s)
	f.addLawyer("a", 1)
	f.addLawyer("b", 2)
	f.addCase("c1")
	_, err := f.engine.Distribute(context.Background(), "c1")
	require.NoError(t, err)
	m := f.pending(t, "c1")[0]
	_, err = f.engine.Accept(context.Background(), m.ID, m.LawyerID)
	require.NoError(t, err)

	assert.ErrorIs(t, f.engine.Withdraw(context.Background(), "c1", "b"), ErrNotAssigned)
	require.NoError(t, f.engine.Withdraw(context.Background(), "c1", "a"))

	c := f.caseByID(t, "c1")
	assert.Equal(t, models.CaseOpen, c.Status)
	assert.Empty(t, c.AssignedLawyerID)
	withdrawn, _ := f.matches.GetByID(context.Background(), m.ID)
	assert.Equal(t, models.MatchWithdrawn, withdrawn.Status)

	pending := f.pending(t, "c1")
	require.Len(t, pending, 1)
	assert.Equal(t, "b", pending[0].LawyerID)
}

func TestReleaseCaseWithdrawsPendingOffers(t *testing.T) {
	f := newFixture(t, defaultSettings())
	f.addLawyer("a", 1)
	f.addLawyer("b", 2)
	f.addCase("c1")
	_, err := f.engine.Distribute(context.Background(), "c1")
	require.NoError(t, err)

	require.NoError(t, f.engine.ReleaseCase(context.Background(), "c1"))
	assert.Empty(t, f.pending(t, "c1"))
	assert.Zero(t, f.caseByID(t, "c1").ActiveMatches)
	assert.Len(t, f.notes.ByType(models.NotifyCaseCancelled), 2)
}

func TestRetryStalledPicksUpLateLawyers(t *testing.T) {
	f := newFixture(t, defaultSettings())
	f.addCase("c1")

	n, err := f.engine.Distribute(context.Background(), "c1")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, models.CaseOpen, f.caseByID(t, "c1").Status)

	f.addLawyer("late", 3)
	f.cases.Backdate("c1", time.Hour)
	f.now = time.Now().UTC()

	n, err = f.engine.RetryStalled(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Zero(t, f.caseByID(t, "c1").RedistributionCount, "a first distribution does not use budget")
}

func TestResetLeadCycles(t *testing.T) {
	f := newFixture(t, defaultSettings())
	f.addLawyer("old", 1, func(l *models.Lawyer) {
		l.Leads = models.LeadCounter{Count: 5, CycleStart: f.now.AddDate(0, -2, -1)}
	})
	f.addLawyer("fresh", 1, func(l *models.Lawyer) { l.Leads.Count = 2 })

	n, err := f.engine.ResetLeadCycles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	old, _ := f.lawyers.GetByID(context.Background(), "old")
	assert.Zero(t, old.Leads.Count)
	fresh, _ := f.lawyers.GetByID(context.Background(), "fresh")
	assert.Equal(t, 2, fresh.Leads.Count)
}

func TestForceRedistributeWithoutLawyersLeavesCaseUnmatched(t *testing.T) {
	f := newFixture(t, defaultSettings())
	f.cases.Put(models.Case{
		ID:                  "c1",
		CitizenID:           "citizen-1",
		Title:               "Custody dispute",
		Category:            "family",
		City:                "Paris",
		LocationGeo:         &paris,
		Status:              models.CaseUnmatched,
		RedistributionCount: 3,
	})

	n, err := f.engine.ForceRedistribute(context.Background(), "c1")
	require.NoError(t, err)
	assert.Zero(t, n)
	c := f.caseByID(t, "c1")
	assert.Equal(t, models.CaseUnmatched, c.Status)
	assert.Zero(t, c.ActiveMatches)
	assert.Len(t, f.notes.ByType(models.NotifyCaseUnmatched), 1)

	// A case with budget left stays open for the retry sweep.
	f.cases.Put(models.Case{ID: "c2", CitizenID: "citizen-1", Category: "family", City: "Paris",
		LocationGeo: &paris, Status: models.CaseUnmatched, RedistributionCount: 1})
	n, err = f.engine.ForceRedistribute(context.Background(), "c2")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, models.CaseOpen, f.caseByID(t, "c2").Status)
}

type rejectingMatches struct {
	*memrepo.Matches
	err error
}

func (m rejectingMatches) Create(context.Context, *models.Match) error { return m.err }

func TestFailedOfferRefundsLead(t *testing.T) {
	for _, createErr := range []error{
		fmt.Errorf("match: %w", repository.ErrDuplicate),
		errors.New("write concern timeout"),
	} {
		f := newFixture(t, defaultSettings())
		f.engine.Matches = rejectingMatches{Matches: f.matches, err: createErr}
		f.addLawyer("l1", 5, func(l *models.Lawyer) { l.Leads.Count = 2 })
		f.addCase("c1")

		n, _ := f.engine.Distribute(context.Background(), "c1")
		assert.Zero(t, n)

		l, err := f.lawyers.GetByID(context.Background(), "l1")
		require.NoError(t, err)
		assert.Equal(t, 2, l.Leads.Count, createErr.Error())
		assert.Zero(t, f.caseByID(t, "c1").ActiveMatches, createErr.Error())
	}
}

func TestMarkUnmatchedRequiresIdleCase(t *testing.T) {
	f := newFixture(t, defaultSettings())
	f.addCase("c1")
	ctx := context.Background()

	ok, err := f.cases.ReserveSlot(ctx, "c1", 3)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = f.cases.MarkUnmatched(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, models.CaseOpen, f.caseByID(t, "c1").Status)

	require.NoError(t, f.cases.ReleaseSlots(ctx, "c1", 1))
	ok, err = f.cases.MarkUnmatched(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.CaseUnmatched, f.caseByID(t, "c1").Status)
}
