package matchRepo

import (
	"context"
	"time"

	"lexconnect/models"
)

// MatchRepository defines methods for match data access. The unique
// (caseId, lawyerId) index makes Create fail with repository.ErrDuplicate
// when a lawyer was already offered the case.
type MatchRepository interface {
	Create(ctx context.Context, m *models.Match) error
	GetByID(ctx context.Context, id string) (*models.Match, error)
	ListByCase(ctx context.Context, caseID string) ([]models.Match, error)
	ListByLawyer(ctx context.Context, lawyerID, status string, limit, skip int64) ([]models.Match, error)
	// OfferedLawyerIDs returns every lawyer ever offered the case.
	OfferedLawyerIDs(ctx context.Context, caseID string) ([]string, error)
	// HasPendingFor reports whether lawyerID holds a pending offer on caseID.
	HasPendingFor(ctx context.Context, caseID, lawyerID string) (bool, error)

	// Respond moves a pending, unexpired match owned by lawyerID to status.
	Respond(ctx context.Context, id, lawyerID, status, reason string, now time.Time) (bool, error)
	// Transition moves a match from one status to another.
	Transition(ctx context.Context, id, from, to string, now time.Time) (bool, error)
	// ClosePending moves every pending match of the case except exceptID to
	// status and returns the matches it changed.
	ClosePending(ctx context.Context, caseID, exceptID, status string, now time.Time) ([]models.Match, error)
	// FindExpired returns pending matches whose deadline has passed.
	FindExpired(ctx context.Context, now time.Time, limit int64) ([]models.Match, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}
