package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lexconnect/models"

	"github.com/hibiken/asynq"
)

const (
	TypePushSend       = "push:send"
	TypeMatchExpire    = "matches:expire"
	TypeLeadsReset     = "leads:reset"
	TypeCasesRetry     = "cases:retry"
	TypeCaseDistribute = "case:distribute"
)

// CasePayload identifies the case a task works on.
type CasePayload struct {
	CaseID string `json:"caseId"`
}

func NewPushTask(payload models.PushPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	opts := []asynq.Option{asynq.MaxRetry(5), asynq.Timeout(30 * time.Second)}
	return asynq.NewTask(TypePushSend, b), opts, nil
}

func NewDistributeTask(caseID string) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(CasePayload{CaseID: caseID})
	if err != nil {
		return nil, nil, err
	}
	// One pending distribution per case.
	opts := []asynq.Option{asynq.MaxRetry(3), asynq.Unique(time.Minute)}
	return asynq.NewTask(TypeCaseDistribute, b), opts, nil
}

// Enqueuer is the queue-facing side used by services.
type Enqueuer interface {
	EnqueuePush(ctx context.Context, payload models.PushPayload) error
	EnqueueDistribute(ctx context.Context, caseID string) error
}

// AsynqEnqueuer submits tasks through an asynq client.
type AsynqEnqueuer struct {
	Client *asynq.Client
}

func NewAsynqEnqueuer(opt asynq.RedisConnOpt) *AsynqEnqueuer {
	return &AsynqEnqueuer{Client: asynq.NewClient(opt)}
}

func (e *AsynqEnqueuer) EnqueuePush(ctx context.Context, payload models.PushPayload) error {
	task, opts, err := NewPushTask(payload)
	if err != nil {
		return fmt.Errorf("build push task: %w", err)
	}
	if _, err := e.Client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("enqueue push task: %w", err)
	}
	return nil
}

func (e *AsynqEnqueuer) EnqueueDistribute(ctx context.Context, caseID string) error {
	task, opts, err := NewDistributeTask(caseID)
	if err != nil {
		return fmt.Errorf("build distribute task: %w", err)
	}
	if _, err := e.Client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("enqueue distribute task for case %s: %w", caseID, err)
	}
	return nil
}

func (e *AsynqEnqueuer) Close() error {
	return e.Client.Close()
}
