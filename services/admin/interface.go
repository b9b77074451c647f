package admin

import (
	"context"
	"fmt"
	"time"

	caseRepo "lexconnect/database/repository/cases"
	citizenRepo "lexconnect/database/repository/citizen"
	lawyerRepo "lexconnect/database/repository/lawyer"
	matchRepo "lexconnect/database/repository/match"
	securityLogRepo "lexconnect/database/repository/securitylog"
	"lexconnect/models"
	"lexconnect/services/account"
	"lexconnect/services/audit"
	"lexconnect/services/matching"
	"lexconnect/services/notification"
	"lexconnect/utils"
)

// ActorAdmin is the actor id recorded for static-token admin actions.
const ActorAdmin = "admin"

var (
	ErrUnknownRole     = fmt.Errorf("role must be citizen or lawyer: %w", utils.ErrInvalid)
	ErrAlreadyReviewed = fmt.Errorf("lawyer verification already in that state: %w", utils.ErrConflict)
	ErrRejectNeedsNote = fmt.Errorf("a rejection note is required: %w", utils.ErrInvalid)
	ErrNoDocuments     = fmt.Errorf("lawyer has not uploaded verification documents: %w", utils.ErrConflict)
)

type AdminService interface {
	ListLawyers(ctx context.Context, filter lawyerRepo.LawyerFilter, limit, skip int64) ([]models.Lawyer, error)
	ListCitizens(ctx context.Context, status string, limit, skip int64) ([]models.Citizen, error)
	VerifyLawyer(ctx context.Context, lawyerID string, meta models.RequestMeta) (*models.Lawyer, error)
	RejectLawyer(ctx context.Context, lawyerID, note string, meta models.RequestMeta) (*models.Lawyer, error)
	// SetSuspended suspends or reinstates a citizen or lawyer account.
	// Suspension drops the account's session.
	SetSuspended(ctx context.Context, role, id string, suspended bool, reason string, meta models.RequestMeta) error
	ListCases(ctx context.Context, status string, limit, skip int64) ([]models.Case, error)
	ForceRedistribute(ctx context.Context, caseID string, meta models.RequestMeta) (int, error)
	SecurityLogs(ctx context.Context, f securityLogRepo.Filter, limit, skip int64) ([]models.SecurityLog, error)
	Stats(ctx context.Context) (*models.PlatformStats, error)

	GetLegalSections() []models.LegalSection
	GetLegalSectionsFor(role string) []models.LegalSection
}

type DefaultAdminService struct {
	Citizens citizenRepo.CitizenRepository
	Lawyers  lawyerRepo.LawyerRepository
	Cases    caseRepo.CaseRepository
	Matches  matchRepo.MatchRepository
	Engine   matching.Engine
	Sessions account.SessionCache
	Audit    audit.Service
	Notifier notification.Notifier
	Now      func() time.Time
}

func (s *DefaultAdminService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
