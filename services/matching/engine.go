package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lexconnect/database/repository"
	caseRepo "lexconnect/database/repository/cases"
	lawyerRepo "lexconnect/database/repository/lawyer"
	matchRepo "lexconnect/database/repository/match"
	"lexconnect/models"
	"lexconnect/services/notification"
	"lexconnect/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// DefaultEngine implements Engine on top of the case, match and lawyer
// repositories. All coordination happens through guarded single-document
// updates, so any number of engine instances can run side by side.
type DefaultEngine struct {
	Cases    caseRepo.CaseRepository
	Matches  matchRepo.MatchRepository
	Lawyers  lawyerRepo.LawyerRepository
	Notifier notification.Notifier
	Metrics  *utils.Metrics
	Settings Settings
	Now      func() time.Time
}

// NewDefaultEngine wires an engine with configuration defaults applied.
func NewDefaultEngine(
	cases caseRepo.CaseRepository,
	matches matchRepo.MatchRepository,
	lawyers lawyerRepo.LawyerRepository,
	notifier notification.Notifier,
	metrics *utils.Metrics,
	settings Settings,
) *DefaultEngine {
	if metrics == nil {
		metrics = utils.NopMetrics()
	}
	return &DefaultEngine{
		Cases:    cases,
		Matches:  matches,
		Lawyers:  lawyers,
		Notifier: notifier,
		Metrics:  metrics,
		Settings: settings.withDefaults(),
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

func (e *DefaultEngine) now() time.Time {
	if e.Now == nil {
		return time.Now().UTC()
	}
	return e.Now()
}

func (e *DefaultEngine) loadCase(ctx context.Context, caseID string) (*models.Case, error) {
	c, err := e.Cases.GetByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}
	return c, nil
}

func (e *DefaultEngine) Distribute(ctx context.Context, caseID string) (int, error) {
	c, err := e.loadCase(ctx, caseID)
	if err != nil {
		return 0, err
	}
	if c.Status != models.CaseOpen {
		return 0, nil
	}
	want := min(e.Settings.InitialBatch, e.Settings.MaxActiveMatches-c.ActiveMatches)
	created, err := e.offer(ctx, c, want, c.RedistributionCount)
	if err != nil {
		return created, err
	}
	if created == 0 {
		utils.GetLogger().Info("matching: no eligible lawyer yet, case left open for retry",
			zap.String("caseId", c.ID), zap.String("category", c.Category))
	}
	return created, nil
}

func (e *DefaultEngine) Redistribute(ctx context.Context, caseID, trigger string) (int, error) {
	c, err := e.loadCase(ctx, caseID)
	if err != nil {
		return 0, err
	}
	if c.Status != models.CaseOpen || c.ActiveMatches >= e.Settings.MaxActiveMatches {
		return 0, nil
	}

	started, err := e.Cases.BeginRedistribution(ctx, c.ID, e.Settings.MaxRedistributions)
	if err != nil {
		return 0, err
	}
	if !started {
		return 0, e.markUnmatchedIfIdle(ctx, c.ID)
	}
	e.Metrics.Redistribution.WithLabelValues(trigger).Inc()
	round := c.RedistributionCount + 1

	want := min(e.Settings.RedistributeBatch, e.Settings.MaxActiveMatches-c.ActiveMatches)
	created, err := e.offer(ctx, c, want, round)
	if err != nil {
		return created, err
	}
	utils.GetLogger().Info("matching: case redistributed",
		zap.String("caseId", c.ID),
		zap.String("trigger", trigger),
		zap.Int("round", round),
		zap.Int("offers", created))

	if created == 0 && round >= e.Settings.MaxRedistributions {
		return 0, e.markUnmatchedIfIdle(ctx, c.ID)
	}
	return created, nil
}

func (e *DefaultEngine) ForceRedistribute(ctx context.Context, caseID string) (int, error) {
	ok, err := e.Cases.Transition(ctx, caseID, []string{models.CaseOpen, models.CaseUnmatched}, bson.M{
		"status": models.CaseOpen,
	})
	if err != nil {
		return 0, err
	}
	if !ok {
		if _, err := e.loadCase(ctx, caseID); err != nil {
			return 0, err
		}
		return 0, ErrCaseUnavailable
	}
	c, err := e.loadCase(ctx, caseID)
	if err != nil {
		return 0, err
	}
	e.Metrics.Redistribution.WithLabelValues(TriggerAdmin).Inc()
	want := min(e.Settings.RedistributeBatch, e.Settings.MaxActiveMatches-c.ActiveMatches)
	created, err := e.offer(ctx, c, want, c.RedistributionCount+1)
	if err != nil {
		return created, err
	}
	if created == 0 && c.RedistributionCount >= e.Settings.MaxRedistributions {
		// The retry sweep never revisits a case without budget.
		return 0, e.markUnmatchedIfIdle(ctx, c.ID)
	}
	return created, nil
}

// markUnmatchedIfIdle gives up on a case whose budget is spent once nothing
// is left pending on it.
func (e *DefaultEngine) markUnmatchedIfIdle(ctx context.Context, caseID string) error {
	c, err := e.loadCase(ctx, caseID)
	if err != nil {
		return err
	}
	if c.Status != models.CaseOpen || c.ActiveMatches > 0 {
		return nil
	}
	ok, err := e.Cases.MarkUnmatched(ctx, caseID)
	if err != nil || !ok {
		return err
	}
	utils.GetLogger().Info("matching: case exhausted its redistribution budget", zap.String("caseId", caseID))
	e.notify(ctx, notification.Message{
		RecipientID:   c.CitizenID,
		RecipientRole: utils.RoleCitizen,
		Type:          models.NotifyCaseUnmatched,
		Title:         "We could not find a lawyer yet",
		Body:          fmt.Sprintf("No lawyer was available for \"%s\". Our team has been alerted.", c.Title),
		Data:          map[string]string{"caseId": c.ID},
	})
	return nil
}

// offer creates up to want new pending matches for c. Each offer takes a
// case slot first and a lead second, and gives the slot back if the lead is
// refused, so neither limit can be overrun by concurrent callers.
func (e *DefaultEngine) offer(ctx context.Context, c *models.Case, want, round int) (int, error) {
	if want <= 0 {
		return 0, nil
	}
	logger := utils.GetLogger()

	offered, err := e.Matches.OfferedLawyerIDs(ctx, c.ID)
	if err != nil {
		return 0, err
	}
	lawyers, err := e.Lawyers.FindEligible(ctx, lawyerRepo.EligibilityCriteria{
		Category:      c.Category,
		Location:      c.LocationGeo,
		City:          c.City,
		MaxDistanceKm: e.Settings.MaxDistanceKm,
		ExcludeIDs:    offered,
		Limit:         e.Settings.CandidatePool,
	})
	if err != nil {
		return 0, err
	}

	now := e.now()
	created := 0
	for _, cand := range rank(c, lawyers, e.Settings.MaxDistanceKm, now) {
		if created >= want {
			break
		}
		slot, err := e.Cases.ReserveSlot(ctx, c.ID, e.Settings.MaxActiveMatches)
		if err != nil {
			return created, err
		}
		if !slot {
			// Case filled up or left the open state under us.
			break
		}

		plan := cand.Lawyer.EffectivePlan()
		reserved, err := e.Lawyers.ReserveLead(ctx, cand.Lawyer.ID, plan.MonthlyLeads, now)
		if err != nil || !reserved {
			e.releaseSlot(ctx, c.ID)
			if err != nil {
				logger.Warn("matching: lead reservation failed", zap.String("lawyerId", cand.Lawyer.ID), zap.Error(err))
			} else {
				e.Metrics.LeadsDenied.Inc()
			}
			continue
		}

		m := &models.Match{
			ID:            uuid.New().String(),
			CaseID:        c.ID,
			LawyerID:      cand.Lawyer.ID,
			Status:        models.MatchPending,
			Score:         cand.Score,
			DistanceKm:    cand.DistanceKm,
			Round:         round,
			CountedAsLead: true,
			OfferedAt:     now,
			ExpiresAt:     now.Add(e.Settings.MatchTTL),
		}
		if err := e.Matches.Create(ctx, m); err != nil {
			e.releaseSlot(ctx, c.ID)
			e.releaseLead(ctx, cand.Lawyer.ID, now)
			if errors.Is(err, repository.ErrDuplicate) {
				continue
			}
			return created, err
		}
		created++
		e.Metrics.MatchesCreated.Inc()
		if err := e.Lawyers.IncrementStat(ctx, cand.Lawyer.ID, "offered"); err != nil {
			logger.Warn("matching: failed to update lawyer stats", zap.Error(err))
		}
		e.notify(ctx, notification.Message{
			RecipientID:   cand.Lawyer.ID,
			RecipientRole: utils.RoleLawyer,
			Type:          models.NotifyMatchOffered,
			Title:         "New case available",
			Body:          fmt.Sprintf("A %s case in %s matches your practice. Respond before %s.", c.Category, c.City, m.ExpiresAt.Format(time.RFC822)),
			Data:          map[string]string{"caseId": c.ID, "matchId": m.ID},
		})
	}
	return created, nil
}

func (e *DefaultEngine) releaseSlot(ctx context.Context, caseID string) {
	if err := e.Cases.ReleaseSlots(ctx, caseID, 1); err != nil {
		utils.GetLogger().Error("matching: failed to release case slot", zap.String("caseId", caseID), zap.Error(err))
	}
}

func (e *DefaultEngine) releaseLead(ctx context.Context, lawyerID string, now time.Time) {
	if err := e.Lawyers.ReleaseLead(ctx, lawyerID, now); err != nil {
		utils.GetLogger().Error("matching: failed to release lead", zap.String("lawyerId", lawyerID), zap.Error(err))
	}
}

func (e *DefaultEngine) notify(ctx context.Context, m notification.Message) {
	if e.Notifier == nil {
		return
	}
	if err := e.Notifier.Notify(ctx, m); err != nil {
		utils.GetLogger().Warn("matching: notification failed",
			zap.String("recipient", m.RecipientID), zap.String("type", m.Type), zap.Error(err))
	}
}
