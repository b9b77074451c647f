package matching

import (
	"context"
	"time"

	"lexconnect/config"
	"lexconnect/models"
)

// Redistribution triggers, used for logging and metrics.
const (
	TriggerRejected  = "rejected"
	TriggerExpired   = "expired"
	TriggerWithdrawn = "withdrawn"
	TriggerRetry     = "retry"
	TriggerAdmin     = "admin"
)

// Engine offers cases to lawyers and moves matches through their lifecycle.
type Engine interface {
	// Distribute makes the initial offers for an open case.
	Distribute(ctx context.Context, caseID string) (int, error)
	// Redistribute spends one round of the case's budget on new offers.
	Redistribute(ctx context.Context, caseID, trigger string) (int, error)
	// ForceRedistribute reopens an unmatched case and offers it again
	// without consuming budget.
	ForceRedistribute(ctx context.Context, caseID string) (int, error)

	Accept(ctx context.Context, matchID, lawyerID string) (*models.Match, error)
	Reject(ctx context.Context, matchID, lawyerID, reason string) error
	// Withdraw releases a case its assigned lawyer no longer wants.
	Withdraw(ctx context.Context, caseID, lawyerID string) error
	// ReleaseCase withdraws every pending offer of a case that is being
	// cancelled or closed.
	ReleaseCase(ctx context.Context, caseID string) error

	// ExpireDue expires overdue pending matches and redistributes their cases.
	ExpireDue(ctx context.Context) (int, error)
	// RetryStalled re-offers open cases that have no active match.
	RetryStalled(ctx context.Context) (int, error)
	// ResetLeadCycles rolls forward every elapsed monthly lead cycle.
	ResetLeadCycles(ctx context.Context) (int64, error)
}

// Settings are the engine's tunables.
type Settings struct {
	MaxActiveMatches   int
	InitialBatch       int
	RedistributeBatch  int
	MaxRedistributions int
	MatchTTL           time.Duration
	MaxDistanceKm      float64
	// CandidatePool bounds how many eligible lawyers are scored per round.
	CandidatePool int64
	// RetryIdle is how long an open case sits without offers before the
	// retry sweep picks it up.
	RetryIdle time.Duration
}

// SettingsFromConfig reads the engine tunables from AppConfig.
func SettingsFromConfig() Settings {
	c := config.AppConfig
	return Settings{
		MaxActiveMatches:   c.MaxActiveMatches,
		InitialBatch:       c.InitialBatch,
		RedistributeBatch:  c.RedistributeBatch,
		MaxRedistributions: c.MaxRedistributions,
		MatchTTL:           c.MatchTTL,
		MaxDistanceKm:      c.MaxDistanceKm,
	}.withDefaults()
}

func (s Settings) withDefaults() Settings {
	if s.MaxActiveMatches <= 0 {
		s.MaxActiveMatches = 3
	}
	if s.InitialBatch <= 0 {
		s.InitialBatch = s.MaxActiveMatches
	}
	if s.RedistributeBatch <= 0 {
		s.RedistributeBatch = 2
	}
	if s.MaxRedistributions < 0 {
		s.MaxRedistributions = 0
	}
	if s.MatchTTL <= 0 {
		s.MatchTTL = 48 * time.Hour
	}
	if s.MaxDistanceKm <= 0 {
		s.MaxDistanceKm = 50
	}
	if s.CandidatePool <= 0 {
		s.CandidatePool = 50
	}
	if s.RetryIdle <= 0 {
		s.RetryIdle = 10 * time.Minute
	}
	return s
}
