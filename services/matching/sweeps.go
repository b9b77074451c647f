package matching

import (
	"context"

	"lexconnect/models"
	"lexconnect/utils"

	"go.uber.org/zap"
)

func (e *DefaultEngine) ExpireDue(ctx context.Context) (int, error) {
	logger := utils.GetLogger()
	now := e.now()
	due, err := e.Matches.FindExpired(ctx, now, 500)
	if err != nil {
		return 0, err
	}

	expired := 0
	var cases []string
	seen := map[string]bool{}
	for _, m := range due {
		ok, err := e.Matches.Transition(ctx, m.ID, models.MatchPending, models.MatchExpired, now)
		if err != nil {
			return expired, err
		}
		if !ok {
			continue
		}
		expired++
		e.releaseSlot(ctx, m.CaseID)
		e.Metrics.MatchOutcomes.WithLabelValues(models.MatchExpired).Inc()
		if err := e.Lawyers.IncrementStat(ctx, m.LawyerID, "expired"); err != nil {
			logger.Warn("matching: failed to update lawyer stats", zap.Error(err))
		}
		if !seen[m.CaseID] {
			seen[m.CaseID] = true
			cases = append(cases, m.CaseID)
		}
	}

	for _, caseID := range cases {
		if _, err := e.Redistribute(ctx, caseID, TriggerExpired); err != nil {
			logger.Error("matching: redistribution after expiry failed", zap.String("caseId", caseID), zap.Error(err))
		}
	}
	if expired > 0 {
		logger.Info("matching: expired overdue matches", zap.Int("count", expired), zap.Int("cases", len(cases)))
	}
	return expired, nil
}

// RetryStalled picks up open cases without active offers. A case that was
// never offered to anyone gets a fresh initial distribution; otherwise a
// redistribution round is spent.
func (e *DefaultEngine) RetryStalled(ctx context.Context) (int, error) {
	logger := utils.GetLogger()
	idleSince := e.now().Add(-e.Settings.RetryIdle)
	stalled, err := e.Cases.FindStalled(ctx, e.Settings.MaxRedistributions, idleSince, 100)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, c := range stalled {
		offered, err := e.Matches.OfferedLawyerIDs(ctx, c.ID)
		if err != nil {
			return total, err
		}
		var n int
		if len(offered) == 0 {
			n, err = e.Distribute(ctx, c.ID)
		} else {
			n, err = e.Redistribute(ctx, c.ID, TriggerRetry)
		}
		if err != nil {
			logger.Error("matching: retry failed", zap.String("caseId", c.ID), zap.Error(err))
			continue
		}
		total += n
	}
	return total, nil
}

func (e *DefaultEngine) ResetLeadCycles(ctx context.Context) (int64, error) {
	n, err := e.Lawyers.ResetExpiredCycles(ctx, e.now())
	if err != nil {
		return n, err
	}
	if n > 0 {
		utils.GetLogger().Info("matching: lead cycles reset", zap.Int64("lawyers", n))
	}
	return n, nil
}
