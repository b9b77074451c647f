package lawyer

import (
	"context"
	"io"
	"time"

	caseRepo "lexconnect/database/repository/cases"
	lawyerRepo "lexconnect/database/repository/lawyer"
	matchRepo "lexconnect/database/repository/match"
	"lexconnect/models"
	"lexconnect/services/account"
	"lexconnect/services/audit"
	"lexconnect/services/geocoding"
	"lexconnect/services/storage"
)

type LawyerService interface {
	// Authentication
	Register(ctx context.Context, reg models.LawyerRegistration, meta models.RequestMeta) (*account.AuthResponse, error)
	Login(ctx context.Context, email, password string, meta models.RequestMeta) (*account.AuthResponse, error)
	Logout(ctx context.Context, lawyerID string, meta models.RequestMeta) error
	SessionState(ctx context.Context, lawyerID string) (*account.SessionState, error)
	ChangePassword(ctx context.Context, lawyerID, currentPassword, newPassword string, meta models.RequestMeta) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, otp, newPassword string, meta models.RequestMeta) error

	// Profile
	GetProfile(ctx context.Context, lawyerID string) (*models.Lawyer, error)
	UpdateProfile(ctx context.Context, lawyerID string, upd models.LawyerUpdate) (*models.Lawyer, error)
	SetAcceptingCases(ctx context.Context, lawyerID string, accepting bool) (*models.Lawyer, error)

	// Practice
	UploadVerificationDocument(ctx context.Context, lawyerID, kind, fileName string, size int64, r io.Reader) (*models.VerificationDocument, error)
	ListMatches(ctx context.Context, lawyerID, status string, limit, skip int64) ([]models.MatchView, error)
	LeadUsage(ctx context.Context, lawyerID string) (*models.LeadUsage, error)
}

type DefaultLawyerService struct {
	Repo     lawyerRepo.LawyerRepository
	Matches  matchRepo.MatchRepository
	Cases    caseRepo.CaseRepository
	Storage  storage.StorageService
	Sessions account.SessionCache
	OTP      account.OTPStore
	Audit    audit.Recorder
	Geocoder geocoding.Geocoder
	Now      func() time.Time
}

func (s *DefaultLawyerService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
