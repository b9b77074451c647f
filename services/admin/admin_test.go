package admin

import (
	"context"
	"fmt"
	"testing"
	"time"

	lawyerRepo "lexconnect/database/repository/lawyer"
	"lexconnect/database/repository/memrepo"
	securityLogRepo "lexconnect/database/repository/securitylog"
	"lexconnect/models"
	"lexconnect/services/account"
	"lexconnect/services/audit"
	"lexconnect/services/notification"
	"lexconnect/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc      *DefaultAdminService
	lawyers  *memrepo.Lawyers
	citizens *memrepo.Citizens
	cases    *memrepo.Cases
	matches  *memrepo.Matches
	notes    *memrepo.Notifications
	sessions *account.MemorySessionCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		lawyers:  memrepo.NewLawyers(),
		citizens: memrepo.NewCitizens(),
		cases:    memrepo.NewCases(),
		matches:  memrepo.NewMatches(),
		notes:    memrepo.NewNotifications(),
		sessions: account.NewMemorySessionCache(),
	}
	f.lawyers.Put(models.Lawyer{
		ID:     "law-1",
		Status: models.AccountActive,
		Verification: models.LawyerVerification{
			Status:    models.VerificationPending,
			Documents: []models.VerificationDocument{{Kind: "bar_certificate", StorageKey: "raw:verification/x"}},
		},
		AcceptingCases: true,
	})
	f.lawyers.Put(models.Lawyer{ID: "law-2", Status: models.AccountActive,
		Verification: models.LawyerVerification{Status: models.VerificationPending}})
	require.NoError(t, f.citizens.Create(context.Background(), &models.Citizen{ID: "cit-1", Email: "a@b.c", Status: models.AccountActive, TokenHash: "h"}))

	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	f.svc = &DefaultAdminService{
		Citizens: f.citizens,
		Lawyers:  f.lawyers,
		Cases:    f.cases,
		Matches:  f.matches,
		Sessions: f.sessions,
		Audit:    &audit.DefaultAuditService{Repo: memrepo.NewSecurityLogs(), Now: func() time.Time { return now }},
		Notifier: &notification.DefaultNotificationService{Repo: f.notes},
		Now:      func() time.Time { return now },
	}
	return f
}

func TestVerifyLawyer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	l, err := f.svc.VerifyLawyer(ctx, "law-1", models.RequestMeta{IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, models.VerificationVerified, l.Verification.Status)
	assert.Equal(t, ActorAdmin, l.Verification.ReviewedBy)
	require.NotNil(t, l.Verification.ReviewedAt)
	assert.Len(t, f.notes.ByType(models.NotifyVerification), 1)

	_, err = f.svc.VerifyLawyer(ctx, "law-1", models.RequestMeta{})
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
	_, err = f.svc.VerifyLawyer(ctx, "law-2", models.RequestMeta{})
	assert.ErrorIs(t, err, ErrNoDocuments)

	logs, err := f.svc.SecurityLogs(ctx, securityLogRepo.Filter{Event: models.EventLawyerVerified}, 0, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "10.0.0.1", logs[0].IP)
}

func TestRejectLawyerNeedsNote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RejectLawyer(ctx, "law-1", "  ", models.RequestMeta{})
	assert.ErrorIs(t, err, utils.ErrInvalid)

	l, err := f.svc.RejectLawyer(ctx, "law-1", "Certificate is illegible", models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.VerificationRejected, l.Verification.Status)
	assert.Equal(t, "Certificate is illegible", l.Verification.Note)

	pending, err := f.svc.ListLawyers(ctx, lawyerRepo.LawyerFilter{Verification: models.VerificationPending}, 0, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "law-2", pending[0].ID)
}

func TestSuspendDropsSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sessions.Put(ctx, utils.RoleLawyer, "law-1", account.SessionState{TokenHash: "x", Status: models.AccountActive}))

	require.NoError(t, f.svc.SetSuspended(ctx, utils.RoleLawyer, "law-1", true, "complaints", models.RequestMeta{}))
	l, _ := f.lawyers.GetByID(ctx, "law-1")
	assert.Equal(t, models.AccountSuspended, l.Status)
	assert.False(t, l.AcceptingCases)
	assert.Empty(t, l.Security.TokenHash)
	_, err := f.sessions.Get(ctx, utils.RoleLawyer, "law-1")
	assert.ErrorIs(t, err, account.ErrCacheMiss)

	require.NoError(t, f.svc.SetSuspended(ctx, utils.RoleCitizen, "cit-1", true, "", models.RequestMeta{}))
	c, _ := f.citizens.GetByID(ctx, "cit-1")
	assert.Equal(t, models.AccountSuspended, c.Status)
	assert.Empty(t, c.TokenHash)

	require.NoError(t, f.svc.SetSuspended(ctx, utils.RoleCitizen, "cit-1", false, "", models.RequestMeta{}))
	c, _ = f.citizens.GetByID(ctx, "cit-1")
	assert.Equal(t, models.AccountActive, c.Status)

	assert.ErrorIs(t, f.svc.SetSuspended(ctx, utils.RoleAdmin, "x", true, "", models.RequestMeta{}), ErrUnknownRole)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.cases.Put(models.Case{ID: "c1", Status: models.CaseOpen})
	f.cases.Put(models.Case{ID: "c2", Status: models.CaseAssigned})
	for i, st := range []string{models.MatchAccepted, models.MatchRejected, models.MatchExpired, models.MatchPending} {
		require.NoError(t, f.matches.Create(ctx, &models.Match{ID: string(rune('a' + i)), CaseID: "c1", LawyerID: fmt.Sprintf("law-%d", i+1), Status: st}))
	}

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Citizens)
	assert.EqualValues(t, 2, stats.Lawyers)
	assert.EqualValues(t, 2, stats.LawyersPending)
	assert.EqualValues(t, 1, stats.CasesByStatus[models.CaseOpen])
	assert.InDelta(t, 1.0/3.0, stats.AcceptanceRate, 1e-9)
}

func TestLegalSectionsForRole(t *testing.T) {
	svc := &DefaultAdminService{}
	citizen := svc.GetLegalSectionsFor(utils.RoleCitizen)
	lawyer := svc.GetLegalSectionsFor(utils.RoleLawyer)
	assert.Len(t, citizen, 3)
	assert.Len(t, lawyer, 3)
	assert.Equal(t, "citizen-disclaimer", citizen[2].ID)
	assert.Equal(t, "lawyer-conduct", lawyer[2].ID)
}
