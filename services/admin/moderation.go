package admin

import (
	"context"
	"fmt"
	"strings"

	lawyerRepo "lexconnect/database/repository/lawyer"
	securityLogRepo "lexconnect/database/repository/securitylog"
	"lexconnect/models"
	"lexconnect/services/account"
	"lexconnect/services/notification"
	"lexconnect/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func (s *DefaultAdminService) ListLawyers(ctx context.Context, filter lawyerRepo.LawyerFilter, limit, skip int64) ([]models.Lawyer, error) {
	return s.Lawyers.List(ctx, filter, utils.ClampLimit(limit), skip)
}

func (s *DefaultAdminService) ListCitizens(ctx context.Context, status string, limit, skip int64) ([]models.Citizen, error) {
	return s.Citizens.List(ctx, status, utils.ClampLimit(limit), skip)
}

func (s *DefaultAdminService) VerifyLawyer(ctx context.Context, lawyerID string, meta models.RequestMeta) (*models.Lawyer, error) {
	l, err := s.Lawyers.GetByID(ctx, lawyerID)
	if err != nil {
		return nil, err
	}
	if l.Verification.Status == models.VerificationVerified {
		return nil, ErrAlreadyReviewed
	}
	if len(l.Verification.Documents) == 0 {
		return nil, ErrNoDocuments
	}
	now := s.now()
	set := bson.M{
		"verification.status":     models.VerificationVerified,
		"verification.reviewedBy": ActorAdmin,
		"verification.reviewedAt": now,
		"verification.note":       "",
		"updatedAt":               now,
	}
	if err := s.Lawyers.UpdateSetDocument(ctx, lawyerID, set); err != nil {
		return nil, err
	}
	s.Audit.Record(ctx, lawyerID, utils.RoleLawyer, models.EventLawyerVerified, meta, "")
	s.notifyLawyer(ctx, lawyerID, "Profile verified", "Your credentials were verified. You can now receive case offers.")
	return s.Lawyers.GetByID(ctx, lawyerID)
}

func (s *DefaultAdminService) RejectLawyer(ctx context.Context, lawyerID, note string, meta models.RequestMeta) (*models.Lawyer, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, ErrRejectNeedsNote
	}
	l, err := s.Lawyers.GetByID(ctx, lawyerID)
	if err != nil {
		return nil, err
	}
	if l.Verification.Status == models.VerificationRejected {
		return nil, ErrAlreadyReviewed
	}
	now := s.now()
	set := bson.M{
		"verification.status":     models.VerificationRejected,
		"verification.reviewedBy": ActorAdmin,
		"verification.reviewedAt": now,
		"verification.note":       note,
		"updatedAt":               now,
	}
	if err := s.Lawyers.UpdateSetDocument(ctx, lawyerID, set); err != nil {
		return nil, err
	}
	s.Audit.Record(ctx, lawyerID, utils.RoleLawyer, models.EventLawyerRejected, meta, note)
	s.notifyLawyer(ctx, lawyerID, "Verification rejected", "Your documents could not be verified: "+note)
	return s.Lawyers.GetByID(ctx, lawyerID)
}

func (s *DefaultAdminService) SetSuspended(ctx context.Context, role, id string, suspended bool, reason string, meta models.RequestMeta) error {
	status, event := models.AccountActive, models.EventReinstated
	if suspended {
		status, event = models.AccountSuspended, models.EventSuspended
	}
	set := bson.M{"status": status, "updatedAt": s.now()}

	switch role {
	case utils.RoleCitizen:
		if suspended {
			set["tokenHash"] = ""
		}
		if err := s.Citizens.UpdateSetDocument(ctx, id, set); err != nil {
			return err
		}
	case utils.RoleLawyer:
		if suspended {
			set["security.tokenHash"] = ""
			set["acceptingCases"] = false
		}
		if err := s.Lawyers.UpdateSetDocument(ctx, id, set); err != nil {
			return err
		}
	default:
		return ErrUnknownRole
	}

	if s.Sessions != nil {
		account.DropSession(ctx, s.Sessions, role, id)
	}
	s.Audit.Record(ctx, id, role, event, meta, reason)
	utils.GetLogger().Info("admin: account status changed",
		zap.String("role", role), zap.String("id", id), zap.String("status", status))
	return nil
}

func (s *DefaultAdminService) ListCases(ctx context.Context, status string, limit, skip int64) ([]models.Case, error) {
	return s.Cases.ListByStatus(ctx, status, utils.ClampLimit(limit), skip)
}

func (s *DefaultAdminService) ForceRedistribute(ctx context.Context, caseID string, meta models.RequestMeta) (int, error) {
	n, err := s.Engine.ForceRedistribute(ctx, caseID)
	if err != nil {
		return 0, err
	}
	s.Audit.Record(ctx, ActorAdmin, utils.RoleAdmin, models.EventForcedRound, meta, fmt.Sprintf("case=%s offers=%d", caseID, n))
	return n, nil
}

func (s *DefaultAdminService) SecurityLogs(ctx context.Context, f securityLogRepo.Filter, limit, skip int64) ([]models.SecurityLog, error) {
	return s.Audit.List(ctx, f, utils.ClampLimit(limit), skip)
}

func (s *DefaultAdminService) Stats(ctx context.Context) (*models.PlatformStats, error) {
	out := &models.PlatformStats{}
	var err error
	if out.Citizens, err = s.Citizens.Count(ctx, ""); err != nil {
		return nil, err
	}
	if out.Lawyers, err = s.Lawyers.Count(ctx, lawyerRepo.LawyerFilter{}); err != nil {
		return nil, err
	}
	if out.LawyersPending, err = s.Lawyers.Count(ctx, lawyerRepo.LawyerFilter{Verification: models.VerificationPending}); err != nil {
		return nil, err
	}
	if out.LawyersVerified, err = s.Lawyers.Count(ctx, lawyerRepo.LawyerFilter{Verification: models.VerificationVerified}); err != nil {
		return nil, err
	}
	if out.CasesByStatus, err = s.Cases.CountByStatus(ctx); err != nil {
		return nil, err
	}
	if out.MatchesByStatus, err = s.Matches.CountByStatus(ctx); err != nil {
		return nil, err
	}
	m := out.MatchesByStatus
	if answered := m[models.MatchAccepted] + m[models.MatchRejected] + m[models.MatchExpired]; answered > 0 {
		out.AcceptanceRate = float64(m[models.MatchAccepted]) / float64(answered)
	}
	return out, nil
}

func (s *DefaultAdminService) notifyLawyer(ctx context.Context, lawyerID, title, body string) {
	if s.Notifier == nil {
		return
	}
	err := s.Notifier.Notify(ctx, notification.Message{
		RecipientID:   lawyerID,
		RecipientRole: utils.RoleLawyer,
		Type:          models.NotifyVerification,
		Title:         title,
		Body:          body,
	})
	if err != nil {
		utils.GetLogger().Warn("admin: notification failed", zap.String("lawyerID", lawyerID), zap.Error(err))
	}
}
