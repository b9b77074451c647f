package cron

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"lexconnect/models"
	"lexconnect/services/matching"
	"lexconnect/services/notification"
	"lexconnect/services/tasks"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	matching.Engine
	distributed []string
	distErr     error
	expired     int
	retried     int
	reset       int64
	sweepErr    error
}

func (f *fakeEngine) Distribute(_ context.Context, caseID string) (int, error) {
	f.distributed = append(f.distributed, caseID)
	return 3, f.distErr
}

func (f *fakeEngine) ExpireDue(context.Context) (int, error) {
	f.expired++
	return 2, f.sweepErr
}

func (f *fakeEngine) RetryStalled(context.Context) (int, error) {
	f.retried++
	return 1, f.sweepErr
}

func (f *fakeEngine) ResetLeadCycles(context.Context) (int64, error) {
	f.reset++
	return 4, f.sweepErr
}

type mockPush struct {
	mock.Mock
}

func (m *mockPush) DeliverPush(ctx context.Context, p models.PushPayload) error {
	return m.Called(ctx, p).Error(0)
}

func TestPushTaskDelivers(t *testing.T) {
	payload := models.PushPayload{Token: "tok", Title: "New case", Body: "A case matches your practice"}
	push := &mockPush{}
	push.On("DeliverPush", mock.Anything, payload).Return(nil).Once()
	mux := NewMux(&fakeEngine{}, push)

	task, _, err := tasks.NewPushTask(payload)
	require.NoError(t, err)
	require.NoError(t, mux.ProcessTask(context.Background(), task))
	push.AssertExpectations(t)
}

func TestPushTaskDisabledIsDropped(t *testing.T) {
	push := &mockPush{}
	push.On("DeliverPush", mock.Anything, mock.Anything).Return(notification.ErrPushDisabled)
	mux := NewMux(&fakeEngine{}, push)
	task, _, err := tasks.NewPushTask(models.PushPayload{Token: "tok"})
	require.NoError(t, err)
	assert.NoError(t, mux.ProcessTask(context.Background(), task))
}

func TestPushTaskBadPayloadSkipsRetry(t *testing.T) {
	push := &mockPush{}
	mux := NewMux(&fakeEngine{}, push)
	err := mux.ProcessTask(context.Background(), asynq.NewTask(tasks.TypePushSend, []byte("{")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
	push.AssertNotCalled(t, "DeliverPush", mock.Anything, mock.Anything)
}

func TestDistributeTask(t *testing.T) {
	engine := &fakeEngine{}
	mux := NewMux(engine, &mockPush{})

	task, _, err := tasks.NewDistributeTask("case-1")
	require.NoError(t, err)
	require.NoError(t, mux.ProcessTask(context.Background(), task))
	assert.Equal(t, []string{"case-1"}, engine.distributed)
}

func TestDistributeTaskClosedCaseIsDropped(t *testing.T) {
	engine := &fakeEngine{distErr: matching.ErrCaseUnavailable}
	mux := NewMux(engine, &mockPush{})

	task, _, err := tasks.NewDistributeTask("case-1")
	require.NoError(t, err)
	assert.NoError(t, mux.ProcessTask(context.Background(), task))
}

func TestDistributeTaskMissingCaseID(t *testing.T) {
	mux := NewMux(&fakeEngine{}, &mockPush{})
	b, _ := json.Marshal(tasks.CasePayload{})
	err := mux.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeCaseDistribute, b))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestSweeps(t *testing.T) {
	engine := &fakeEngine{}
	mux := NewMux(engine, &mockPush{})
	ctx := context.Background()

	for _, typ := range []string{tasks.TypeMatchExpire, tasks.TypeCasesRetry, tasks.TypeLeadsReset} {
		require.NoError(t, mux.ProcessTask(ctx, asynq.NewTask(typ, nil)), typ)
	}
	assert.Equal(t, 1, engine.expired)
	assert.Equal(t, 1, engine.retried)
	assert.Equal(t, int64(1), engine.reset)
}

func TestSweepErrorIsReturned(t *testing.T) {
	engine := &fakeEngine{sweepErr: errors.New("mongo down")}
	mux := NewMux(engine, &mockPush{})
	assert.Error(t, mux.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeMatchExpire, nil)))
}

func TestDefaultScheduleCoversSweeps(t *testing.T) {
	types := map[string]bool{}
	for _, p := range DefaultSchedule {
		types[p.TaskType] = true
	}
	assert.True(t, types[tasks.TypeMatchExpire])
	assert.True(t, types[tasks.TypeCasesRetry])
	assert.True(t, types[tasks.TypeLeadsReset])
}
