package lawyer

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

func (s *DefaultLawyerService) Register(ctx context.Context, reg models.LawyerRegistration, meta models.RequestMeta) (*account.AuthResponse, error) {
	reg.FullName = strings.TrimSpace(reg.FullName)
	if reg.FullName == "" || reg.Email == "" || strings.TrimSpace(reg.BarNumber) == "" {
		return nil, fmt.Errorf("full name, email and bar number are required: %w", utils.ErrInvalid)
	}
	specialties, err := cleanSpecialties(reg.Specialties)
	if err != nil {
		return nil, err
	}
	hash, err := account.HashPassword(reg.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	l := &models.Lawyer{
		ID: uuid.New().String(),
		Profile: models.LawyerProfile{
			FullName:        reg.FullName,
			Email:           account.NormalizeEmail(reg.Email),
			PhoneNumber:     strings.TrimSpace(reg.PhoneNumber),
			BarNumber:       strings.TrimSpace(reg.BarNumber),
			Specialties:     specialties,
			Languages:       reg.Languages,
			City:            strings.TrimSpace(reg.City),
			Address:         strings.TrimSpace(reg.Address),
			YearsExperience: max(reg.YearsExperience, 0),
			Bio:             strings.TrimSpace(reg.Bio),
		},
		Security:       models.LawyerSecurity{PasswordHash: hash},
		Verification:   models.LawyerVerification{Status: models.VerificationPending},
		Status:         models.AccountActive,
		AcceptingCases: true,
		Plan:           models.LawyerPlan{PlanID: models.PlanFree, Status: models.PlanStatusActive},
		Leads:          models.LeadCounter{CycleStart: now, Anchor: now},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	l.Profile.LocationGeo = s.locate(ctx, reg.Latitude, reg.Longitude, l.Profile.Address, l.Profile.City)

	resp, tokenHash, err := account.IssueToken(utils.RoleLawyer, l.ID, now)
	if err != nil {
		return nil, err
	}
	l.Security.TokenHash = tokenHash

	if err := s.Repo.Create(ctx, l); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, account.ErrEmailTaken
		}
		utils.GetLogger().Error("Failed to create lawyer", zap.Error(err))
		return nil, fmt.Errorf("registration failed, please try again")
	}
	s.Audit.Record(ctx, l.ID, utils.RoleLawyer, models.EventRegistered, meta, "")
	return resp, nil
}

func (s *DefaultLawyerService) Login(ctx context.Context, email, password string, meta models.RequestMeta) (*account.AuthResponse, error) {
	l, err := s.Repo.GetByEmail(ctx, account.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, account.ErrInvalidCredentials
		}
		utils.GetLogger().Error("Failed to fetch lawyer for authentication", zap.Error(err))
		return nil, fmt.Errorf("authentication failed, please try again")
	}
	if !account.CheckPassword(l.Security.PasswordHash, password) {
		s.Audit.Record(ctx, l.ID, utils.RoleLawyer, models.EventLoginFailed, meta, "")
		return nil, account.ErrInvalidCredentials
	}
	if l.Status == models.AccountSuspended {
		return nil, account.ErrSuspended
	}

	now := s.now()
	resp, tokenHash, err := account.IssueToken(utils.RoleLawyer, l.ID, now)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.UpdateSetDocument(ctx, l.ID, bson.M{"security.tokenHash": tokenHash, "updatedAt": now}); err != nil {
		utils.GetLogger().Error("Failed to update lawyer with token hash", zap.Error(err))
		return nil, fmt.Errorf("authentication failed, please try again")
	}
	account.DropSession(ctx, s.Sessions, utils.RoleLawyer, l.ID)
	s.Audit.Record(ctx, l.ID, utils.RoleLawyer, models.EventLogin, meta, "")
	return resp, nil
}

func (s *DefaultLawyerService) Logout(ctx context.Context, lawyerID string, meta models.RequestMeta) error {
	if err := s.Repo.UpdateSetDocument(ctx, lawyerID, bson.M{"security.tokenHash": "", "updatedAt": s.now()}); err != nil {
		utils.GetLogger().Error("Failed to revoke lawyer token", zap.String("lawyerID", lawyerID), zap.Error(err))
		return fmt.Errorf("failed to logout, please try again")
	}
	account.DropSession(ctx, s.Sessions, utils.RoleLawyer, lawyerID)
	s.Audit.Record(ctx, lawyerID, utils.RoleLawyer, models.EventLogout, meta, "")
	return nil
}

func (s *DefaultLawyerService) SessionState(ctx context.Context, lawyerID string) (*account.SessionState, error) {
	l, err := s.Repo.GetByID(ctx, lawyerID)
	if err != nil {
		return nil, err
	}
	return &account.SessionState{TokenHash: l.Security.TokenHash, Status: l.Status}, nil
}

func (s *DefaultLawyerService) ChangePassword(ctx context.Context, lawyerID, currentPassword, newPassword string, meta models.RequestMeta) error {
	l, err := s.Repo.GetByID(ctx, lawyerID)
	if err != nil {
		return err
	}
	if !account.CheckPassword(l.Security.PasswordHash, currentPassword) {
		return account.ErrInvalidCredentials
	}
	hash, err := account.HashPassword(newPassword)
	if err != nil {
		return err
	}
	set := bson.M{"security.passwordHash": hash, "security.tokenHash": "", "updatedAt": s.now()}
	if err := s.Repo.UpdateSetDocument(ctx, lawyerID, set); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	account.DropSession(ctx, s.Sessions, utils.RoleLawyer, lawyerID)
	s.Audit.Record(ctx, lawyerID, utils.RoleLawyer, models.EventPasswordChange, meta, "")
	return nil
}

func (s *DefaultLawyerService) RequestPasswordReset(ctx context.Context, email string) error {
	l, err := s.Repo.GetByEmail(ctx, account.NormalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to reset password, please try again")
	}
	destination := l.Profile.PhoneNumber
	if destination == "" {
		destination = l.Profile.Email
	}
	return s.OTP.Initiate(ctx, account.PurposePasswordReset, account.ResetSubject(utils.RoleLawyer, l.Profile.Email), destination)
}

func (s *DefaultLawyerService) ResetPassword(ctx context.Context, email, otp, newPassword string, meta models.RequestMeta) error {
	if err := account.VerifyPasswordComplexity(newPassword); err != nil {
		return err
	}
	l, err := s.Repo.GetByEmail(ctx, account.NormalizeEmail(email))
	if err != nil {
		return account.ErrInvalidOTP
	}
	if err := s.OTP.Verify(ctx, account.PurposePasswordReset, account.ResetSubject(utils.RoleLawyer, l.Profile.Email), otp); err != nil {
		return err
	}
	hash, err := account.HashPassword(newPassword)
	if err != nil {
		return err
	}
	set := bson.M{"security.passwordHash": hash, "security.tokenHash": "", "updatedAt": s.now()}
	if err := s.Repo.UpdateSetDocument(ctx, l.ID, set); err != nil {
		utils.GetLogger().Error("ResetPassword: Failed to update lawyer password", zap.Error(err))
		return fmt.Errorf("failed to update password")
	}
	account.DropSession(ctx, s.Sessions, utils.RoleLawyer, l.ID)
	s.Audit.Record(ctx, l.ID, utils.RoleLawyer, models.EventPasswordReset, meta, "")
	return nil
}
