package audit

import (
	"context"
	"testing"
	"time"

	"lexconnect/database/repository/memrepo"
	securityLogRepo "lexconnect/database/repository/securitylog"
	"lexconnect/models"
	"lexconnect/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndFilter(t *testing.T) {
	svc := NewDefaultAuditService(memrepo.NewSecurityLogs())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return now }
	ctx := context.Background()
	meta := models.RequestMeta{IP: "203.0.113.7", Country: "KE", UserAgent: "curl/8"}

	svc.Record(ctx, "c1", utils.RoleCitizen, models.EventLogin, meta, "")
	svc.Record(ctx, "c1", utils.RoleCitizen, models.EventLoginFailed, meta, "bad password")
	svc.Record(ctx, "l1", utils.RoleLawyer, models.EventLogin, meta, "")

	logins, err := svc.List(ctx, securityLogRepo.Filter{Event: models.EventLogin}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, logins, 2)

	mine, err := svc.List(ctx, securityLogRepo.Filter{ActorID: "c1"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "KE", mine[0].Country)
	assert.Equal(t, now, mine[0].CreatedAt)
}
