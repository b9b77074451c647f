package citizen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lexconnect/database/repository"
	"lexconnect/models"
	"lexconnect/services/account"
	"lexconnect/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func (s *DefaultCitizenService) Register(ctx context.Context, reg models.CitizenRegistration, meta models.RequestMeta) (*account.AuthResponse, error) {
	logger := utils.GetLogger()
	reg.FullName = strings.TrimSpace(reg.FullName)
	if reg.FullName == "" || reg.Email == "" {
		return nil, fmt.Errorf("full name and email are required: %w", utils.ErrInvalid)
	}
	hash, err := account.HashPassword(reg.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	c := &models.Citizen{
		ID:           uuid.New().String(),
		FullName:     reg.FullName,
		Email:        account.NormalizeEmail(reg.Email),
		PhoneNumber:  strings.TrimSpace(reg.PhoneNumber),
		City:         strings.TrimSpace(reg.City),
		Status:       models.AccountActive,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	c.LocationGeo = s.locate(ctx, c.City)

	resp, tokenHash, err := account.IssueToken(utils.RoleCitizen, c.ID, now)
	if err != nil {
		return nil, err
	}
	c.TokenHash = tokenHash

	if err := s.Repo.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, account.ErrEmailTaken
		}
		logger.Error("Failed to create citizen", zap.Error(err))
		return nil, fmt.Errorf("registration failed, please try again")
	}
	s.Audit.Record(ctx, c.ID, utils.RoleCitizen, models.EventRegistered, meta, "")
	return resp, nil
}

func (s *DefaultCitizenService) Login(ctx context.Context, email, password string, meta models.RequestMeta) (*account.AuthResponse, error) {
	c, err := s.Repo.GetByEmail(ctx, account.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, account.ErrInvalidCredentials
		}
		utils.GetLogger().Error("Failed to fetch citizen for authentication", zap.Error(err))
		return nil, fmt.Errorf("authentication failed, please try again")
	}
	if !account.CheckPassword(c.PasswordHash, password) {
		s.Audit.Record(ctx, c.ID, utils.RoleCitizen, models.EventLoginFailed, meta, "")
		return nil, account.ErrInvalidCredentials
	}
	if c.Status == models.AccountSuspended {
		return nil, account.ErrSuspended
	}

	now := s.now()
	resp, tokenHash, err := account.IssueToken(utils.RoleCitizen, c.ID, now)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.UpdateSetDocument(ctx, c.ID, bson.M{"tokenHash": tokenHash, "updatedAt": now}); err != nil {
		utils.GetLogger().Error("Failed to update citizen with token hash", zap.Error(err))
		return nil, fmt.Errorf("authentication failed, please try again")
	}
	account.DropSession(ctx, s.Sessions, utils.RoleCitizen, c.ID)
	s.Audit.Record(ctx, c.ID, utils.RoleCitizen, models.EventLogin, meta, "")
	return resp, nil
}

// Logout clears the token hash so the current token stops working.
func (s *DefaultCitizenService) Logout(ctx context.Context, citizenID string, meta models.RequestMeta) error {
	if err := s.Repo.UpdateSetDocument(ctx, citizenID, bson.M{"tokenHash": "", "updatedAt": s.now()}); err != nil {
		utils.GetLogger().Error("Failed to revoke citizen token", zap.String("citizenID", citizenID), zap.Error(err))
		return fmt.Errorf("failed to logout, please try again")
	}
	account.DropSession(ctx, s.Sessions, utils.RoleCitizen, citizenID)
	s.Audit.Record(ctx, citizenID, utils.RoleCitizen, models.EventLogout, meta, "")
	return nil
}

func (s *DefaultCitizenService) SessionState(ctx context.Context, citizenID string) (*account.SessionState, error) {
	c, err := s.Repo.GetByID(ctx, citizenID)
	if err != nil {
		return nil, err
	}
	return &account.SessionState{TokenHash: c.TokenHash, Status: c.Status}, nil
}

func (s *DefaultCitizenService) ChangePassword(ctx context.Context, citizenID, currentPassword, newPassword string, meta models.RequestMeta) error {
	c, err := s.Repo.GetByID(ctx, citizenID)
	if err != nil {
		return err
	}
	if !account.CheckPassword(c.PasswordHash, currentPassword) {
		return account.ErrInvalidCredentials
	}
	hash, err := account.HashPassword(newPassword)
	if err != nil {
		return err
	}
	// Other sessions are signed out; the caller logs in again.
	if err := s.Repo.UpdateSetDocument(ctx, citizenID, bson.M{"passwordHash": hash, "tokenHash": "", "updatedAt": s.now()}); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	account.DropSession(ctx, s.Sessions, utils.RoleCitizen, citizenID)
	s.Audit.Record(ctx, citizenID, utils.RoleCitizen, models.EventPasswordChange, meta, "")
	return nil
}

// RequestPasswordReset sends a code when the email is known. Unknown
// emails succeed silently so the endpoint cannot be used to probe accounts.
func (s *DefaultCitizenService) RequestPasswordReset(ctx context.Context, email string) error {
	c, err := s.Repo.GetByEmail(ctx, account.NormalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to reset password, please try again")
	}
	destination := c.PhoneNumber
	if destination == "" {
		destination = c.Email
	}
	return s.OTP.Initiate(ctx, account.PurposePasswordReset, account.ResetSubject(utils.RoleCitizen, c.Email), destination)
}

func (s *DefaultCitizenService) ResetPassword(ctx context.Context, email, otp, newPassword string, meta models.RequestMeta) error {
	if err := account.VerifyPasswordComplexity(newPassword); err != nil {
		return err
	}
	c, err := s.Repo.GetByEmail(ctx, account.NormalizeEmail(email))
	if err != nil {
		return account.ErrInvalidOTP
	}
	if err := s.OTP.Verify(ctx, account.PurposePasswordReset, account.ResetSubject(utils.RoleCitizen, c.Email), otp); err != nil {
		return err
	}
	hash, err := account.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Repo.UpdateSetDocument(ctx, c.ID, bson.M{"passwordHash": hash, "tokenHash": "", "updatedAt": s.now()}); err != nil {
		utils.GetLogger().Error("ResetPassword: Failed to update citizen password", zap.Error(err))
		return fmt.Errorf("failed to update password")
	}
	account.DropSession(ctx, s.Sessions, utils.RoleCitizen, c.ID)
	s.Audit.Record(ctx, c.ID, utils.RoleCitizen, models.EventPasswordReset, meta, "")
	return nil
}
