package cron

import (
	"time"

	"lexconnect/services/tasks"
	"lexconnect/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Periodic is one scheduled sweep.
type Periodic struct {
	Spec     string
	TaskType string
}

// DefaultSchedule lists the engine sweeps and their cadence.
var DefaultSchedule = []Periodic{
	{Spec: "@every 5m", TaskType: tasks.TypeMatchExpire},
	{Spec: "@every 10m", TaskType: tasks.TypeCasesRetry},
	{Spec: "@hourly", TaskType: tasks.TypeLeadsReset},
}

// StartScheduler registers the periodic sweeps. Each sweep is unique for
// its interval so several API instances can run a scheduler.
func StartScheduler(redisOpt asynq.RedisConnOpt, schedule []Periodic) (*asynq.Scheduler, error) {
	s := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: time.UTC,
		Logger:   utils.GetLogger().Sugar(),
	})
	for _, p := range schedule {
		id, err := s.Register(p.Spec, asynq.NewTask(p.TaskType, nil), asynq.Unique(4*time.Minute), asynq.MaxRetry(1))
		if err != nil {
			return nil, err
		}
		utils.GetLogger().Info("scheduler: registered", zap.String("task", p.TaskType), zap.String("spec", p.Spec), zap.String("entryID", id))
	}
	if err := s.Start(); err != nil {
		return nil, err
	}
	return s, nil
}
