package tasks

import (
	"encoding/json"
	"testing"

	"lexconnect/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPushTask(t *testing.T) {
	task, opts, err := NewPushTask(models.PushPayload{Token: "tok", Title: "New case", Body: "A case matches you"})
	require.NoError(t, err)
	assert.Equal(t, TypePushSend, task.Type())
	assert.NotEmpty(t, opts)

	var got models.PushPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &got))
	assert.Equal(t, "tok", got.Token)
}

func TestNewDistributeTask(t *testing.T) {
	task, _, err := NewDistributeTask("case-1")
	require.NoError(t, err)
	assert.Equal(t, TypeCaseDistribute, task.Type())

	var p CasePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, "case-1", p.CaseID)
}
