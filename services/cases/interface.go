package cases

import (
	"context"
	"fmt"
	"io"
	"time"

	caseRepo "lexconnect/database/repository/cases"
	citizenRepo "lexconnect/database/repository/citizen"
	lawyerRepo "lexconnect/database/repository/lawyer"
	matchRepo "lexconnect/database/repository/match"
	"lexconnect/models"
	"lexconnect/services/geocoding"
	"lexconnect/services/matching"
	"lexconnect/services/notification"
	"lexconnect/services/storage"
	"lexconnect/services/tasks"
	"lexconnect/services/transcription"
	"lexconnect/utils"
)

var (
	ErrCaseNotFound  = fmt.Errorf("case: %w", utils.ErrNotFound)
	ErrNoAccess      = fmt.Errorf("you do not have access to this case: %w", utils.ErrForbidden)
	ErrWrongState    = fmt.Errorf("case cannot be changed in its current state: %w", utils.ErrConflict)
	ErrNoLocation    = fmt.Errorf("a city or coordinates are required: %w", utils.ErrInvalid)
	ErrBadRating     = fmt.Errorf("rating must be between 1 and 5: %w", utils.ErrInvalid)
	ErrNoTranscriber = fmt.Errorf("voice descriptions are not available: %w", utils.ErrUnavailable)
)

// AttachmentURLTTL is the lifetime of signed attachment links.
const AttachmentURLTTL = 15 * time.Minute

// Viewer is the authenticated caller.
type Viewer struct {
	ID   string
	Role string
}

// CitizenContact is shown to the assigned lawyer.
type CitizenContact struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// CaseDetail is a case as seen by one viewer.
type CaseDetail struct {
	Case    *models.Case         `json:"case"`
	Matches []models.Match       `json:"matches,omitempty"`
	Lawyer  *models.LawyerPublic `json:"lawyer,omitempty"`
	Citizen *CitizenContact      `json:"citizen,omitempty"`
}

// PrequalClaimer hands over a finished pre-qualification session.
type PrequalClaimer interface {
	Claim(ctx context.Context, sessionID, citizenID string) (*models.PrequalSession, error)
}

type CaseService interface {
	Create(ctx context.Context, citizenID string, req models.CaseRequest) (*models.Case, error)
	ListForCitizen(ctx context.Context, citizenID, status string) ([]models.Case, error)
	ListForLawyer(ctx context.Context, lawyerID, status string) ([]models.Case, error)
	Get(ctx context.Context, viewer Viewer, caseID string) (*CaseDetail, error)
	Cancel(ctx context.Context, citizenID, caseID string) (*models.Case, error)
	Close(ctx context.Context, citizenID, caseID string, rating *float64) (*models.Case, error)
	Attach(ctx context.Context, viewer Viewer, caseID, fileName string, size int64, r io.Reader) (*models.Attachment, error)
	AttachmentURL(ctx context.Context, viewer Viewer, caseID, attachmentID string) (string, error)
	AddVoiceDescription(ctx context.Context, citizenID, caseID string, audio []byte, language string) (*models.Case, error)
}

// DefaultCaseService is the production implementation. Queue, Geocoder,
// Prequal and Transcriber are optional.
type DefaultCaseService struct {
	Cases       caseRepo.CaseRepository
	Matches     matchRepo.MatchRepository
	Lawyers     lawyerRepo.LawyerRepository
	Citizens    citizenRepo.CitizenRepository
	Engine      matching.Engine
	Queue       tasks.Enqueuer
	Notifier    notification.Notifier
	Storage     storage.StorageService
	Geocoder    geocoding.Geocoder
	Transcriber transcription.Transcriber
	Prequal     PrequalClaimer
	Now         func() time.Time
}

func (s *DefaultCaseService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
