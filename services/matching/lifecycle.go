package matching

import (
	"context"
	"errors"
	"fmt"

	"lexconnect/database/repository"
	"lexconnect/models"
	"lexconnect/services/notification"
	"lexconnect/utils"

	"go.uber.org/zap"
)

// explainMiss reloads a match after a guarded update missed and returns
// the reason.
func (e *DefaultEngine) explainMiss(ctx context.Context, matchID, lawyerID string) error {
	m, err := e.Matches.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMatchNotFound
		}
		return err
	}
	switch {
	case m.LawyerID != lawyerID:
		return ErrNotYourMatch
	case m.Status == models.MatchExpired:
		return ErrMatchExpired
	case m.Status != models.MatchPending:
		return ErrMatchClosed
	case !e.now().Before(m.ExpiresAt):
		return ErrMatchExpired
	}
	return ErrMatchClosed
}

// Accept records the lawyer's acceptance. The first lawyer to accept wins
// the case; a later acceptance is turned into superseded.
func (e *DefaultEngine) Accept(ctx context.Context, matchID, lawyerID string) (*models.Match, error) {
	now := e.now()
	ok, err := e.Matches.Respond(ctx, matchID, lawyerID, models.MatchAccepted, "", now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, e.explainMiss(ctx, matchID, lawyerID)
	}
	m, err := e.Matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}

	assigned, err := e.Cases.Assign(ctx, m.CaseID, lawyerID, now)
	if err != nil {
		return nil, err
	}
	if !assigned {
		if _, err := e.Matches.Transition(ctx, m.ID, models.MatchAccepted, models.MatchSuperseded, now); err != nil {
			return nil, err
		}
		e.releaseSlot(ctx, m.CaseID)
		e.Metrics.MatchOutcomes.WithLabelValues(models.MatchSuperseded).Inc()
		return nil, ErrCaseUnavailable
	}
	e.Metrics.MatchOutcomes.WithLabelValues(models.MatchAccepted).Inc()

	logger := utils.GetLogger()
	if err := e.Lawyers.IncrementStat(ctx, lawyerID, "accepted"); err != nil {
		logger.Warn("matching: failed to update lawyer stats", zap.Error(err))
	}

	others, err := e.Matches.ClosePending(ctx, m.CaseID, m.ID, models.MatchSuperseded, now)
	if err != nil {
		logger.Error("matching: failed to supersede remaining offers", zap.String("caseId", m.CaseID), zap.Error(err))
	}
	if len(others) > 0 {
		if err := e.Cases.ReleaseSlots(ctx, m.CaseID, len(others)); err != nil {
			logger.Error("matching: failed to release case slots", zap.String("caseId", m.CaseID), zap.Error(err))
		}
	}
	for _, o := range others {
		e.Metrics.MatchOutcomes.WithLabelValues(models.MatchSuperseded).Inc()
		e.notify(ctx, notification.Message{
			RecipientID:   o.LawyerID,
			RecipientRole: utils.RoleLawyer,
			Type:          models.NotifyMatchSuperseded,
			Title:         "Case taken",
			Body:          "Another lawyer accepted this case first.",
			Data:          map[string]string{"caseId": o.CaseID, "matchId": o.ID},
		})
	}

	if c, err := e.Cases.GetByID(ctx, m.CaseID); err == nil {
		e.notify(ctx, notification.Message{
			RecipientID:   c.CitizenID,
			RecipientRole: utils.RoleCitizen,
			Type:          models.NotifyMatchAccepted,
			Title:         "A lawyer accepted your case",
			Body:          fmt.Sprintf("Your case \"%s\" has been accepted. You can now chat with your lawyer.", c.Title),
			Data:          map[string]string{"caseId": c.ID, "lawyerId": lawyerID},
		})
	}
	return m, nil
}

func (e *DefaultEngine) Reject(ctx context.Context, matchID, lawyerID, reason string) error {
	now := e.now()
	ok, err := e.Matches.Respond(ctx, matchID, lawyerID, models.MatchRejected, reason, now)
	if err != nil {
		return err
	}
	if !ok {
		return e.explainMiss(ctx, matchID, lawyerID)
	}
	m, err := e.Matches.GetByID(ctx, matchID)
	if err != nil {
		return err
	}
	e.releaseSlot(ctx, m.CaseID)
	e.Metrics.MatchOutcomes.WithLabelValues(models.MatchRejected).Inc()
	if err := e.Lawyers.IncrementStat(ctx, lawyerID, "rejected"); err != nil {
		utils.GetLogger().Warn("matching: failed to update lawyer stats", zap.Error(err))
	}

	_, err = e.Redistribute(ctx, m.CaseID, TriggerRejected)
	return err
}

func (e *DefaultEngine) Withdraw(ctx context.Context, caseID, lawyerID string) error {
	c, err := e.loadCase(ctx, caseID)
	if err != nil {
		return err
	}
	ok, err := e.Cases.Unassign(ctx, caseID, lawyerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAssigned
	}

	now := e.now()
	matches, err := e.Matches.ListByCase(ctx, caseID)
	if err != nil {
		return err
	}
	for _, m := range matches {
		if m.LawyerID == lawyerID && m.Status == models.MatchAccepted {
			if _, err := e.Matches.Transition(ctx, m.ID, models.MatchAccepted, models.MatchWithdrawn, now); err != nil {
				return err
			}
			e.Metrics.MatchOutcomes.WithLabelValues(models.MatchWithdrawn).Inc()
		}
	}

	e.notify(ctx, notification.Message{
		RecipientID:   c.CitizenID,
		RecipientRole: utils.RoleCitizen,
		Type:          models.NotifyCaseWithdrawn,
		Title:         "Your lawyer withdrew",
		Body:          fmt.Sprintf("We are looking for another lawyer for \"%s\".", c.Title),
		Data:          map[string]string{"caseId": c.ID},
	})

	_, err = e.Redistribute(ctx, caseID, TriggerWithdrawn)
	return err
}

func (e *DefaultEngine) ReleaseCase(ctx context.Context, caseID string) error {
	closed, err := e.Matches.ClosePending(ctx, caseID, "", models.MatchWithdrawn, e.now())
	if err != nil {
		return err
	}
	if len(closed) > 0 {
		if err := e.Cases.ReleaseSlots(ctx, caseID, len(closed)); err != nil {
			return err
		}
	}
	for _, m := range closed {
		e.Metrics.MatchOutcomes.WithLabelValues(models.MatchWithdrawn).Inc()
		e.notify(ctx, notification.Message{
			RecipientID:   m.LawyerID,
			RecipientRole: utils.RoleLawyer,
			Type:          models.NotifyCaseCancelled,
			Title:         "Case withdrawn",
			Body:          "The citizen withdrew this case.",
			Data:          map[string]string{"caseId": caseID, "matchId": m.ID},
		})
	}
	return nil
}
