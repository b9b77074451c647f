package audit

import (
	"context"
	"time"

	securityLogRepo "lexconnect/database/repository/securitylog"
	"lexconnect/models"
	"lexconnect/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recorder writes security events. Recording is best effort: a failed
// write is logged and never fails the caller's operation.
type Recorder interface {
	Record(ctx context.Context, actorID, actorRole, event string, meta models.RequestMeta, detail string)
}

type Service interface {
	Recorder
	List(ctx context.Context, f securityLogRepo.Filter, limit, skip int64) ([]models.SecurityLog, error)
}

type DefaultAuditService struct {
	Repo securityLogRepo.SecurityLogRepository
	Now  func() time.Time
}

func NewDefaultAuditService(repo securityLogRepo.SecurityLogRepository) *DefaultAuditService {
	return &DefaultAuditService{Repo: repo, Now: time.Now}
}

func (s *DefaultAuditService) Record(ctx context.Context, actorID, actorRole, event string, meta models.RequestMeta, detail string) {
	entry := &models.SecurityLog{
		ID:        uuid.New().String(),
		ActorID:   actorID,
		ActorRole: actorRole,
		Event:     event,
		IP:        meta.IP,
		Country:   meta.Country,
		UserAgent: meta.UserAgent,
		Detail:    detail,
		CreatedAt: s.Now().UTC(),
	}
	logger := utils.GetLogger()
	if err := s.Repo.Append(ctx, entry); err != nil {
		logger.Error("audit: failed to record event", zap.String("event", event), zap.String("actorId", actorID), zap.Error(err))
		return
	}
	logger.Info("audit", zap.String("event", event), zap.String("actorId", actorID),
		zap.String("role", actorRole), zap.String("ip", meta.IP), zap.String("country", meta.Country))
}

func (s *DefaultAuditService) List(ctx context.Context, f securityLogRepo.Filter, limit, skip int64) ([]models.SecurityLog, error) {
	return s.Repo.List(ctx, f, limit, skip)
}

// Nop discards events.
type Nop struct{}

func (Nop) Record(context.Context, string, string, string, models.RequestMeta, string) {}
