package citizen

import (
	"context"
	"time"

	citizenRepo "lexconnect/database/repository/citizen"
	"lexconnect/models"
	"lexconnect/services/account"
	"lexconnect/services/audit"
	"lexconnect/services/geocoding"
)

type CitizenService interface {
	// Authentication
	Register(ctx context.Context, reg models.CitizenRegistration, meta models.RequestMeta) (*account.AuthResponse, error)
	Login(ctx context.Context, email, password string, meta models.RequestMeta) (*account.AuthResponse, error)
	Logout(ctx context.Context, citizenID string, meta models.RequestMeta) error
	SessionState(ctx context.Context, citizenID string) (*account.SessionState, error)

	// Profile
	GetProfile(ctx context.Context, citizenID string) (*models.Citizen, error)
	UpdateProfile(ctx context.Context, citizenID string, upd models.CitizenUpdate) (*models.Citizen, error)
	ChangePassword(ctx context.Context, citizenID, currentPassword, newPassword string, meta models.RequestMeta) error

	// Password reset
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, otp, newPassword string, meta models.RequestMeta) error
}

// DefaultCitizenService is the production implementation. Geocoder is
// optional; without it citizens have no coordinates.
type DefaultCitizenService struct {
	Repo     citizenRepo.CitizenRepository
	Sessions account.SessionCache
	OTP      account.OTPStore
	Audit    audit.Recorder
	Geocoder geocoding.Geocoder
	Now      func() time.Time
}

func (s *DefaultCitizenService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
