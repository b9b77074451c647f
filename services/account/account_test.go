package account

import (
	"testing"
	"time"

	"lexconnect/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyPasswordComplexity(t *testing.T) {
	assert.NoError(t, VerifyPasswordComplexity("Str0ng!pass"))
	for _, pw := range []string{"short1!", "nouppercase1!", "NOLOWERCASE1!", "NoNumbers!!", "NoSymbols123"} {
		err := VerifyPasswordComplexity(pw)
		assert.ErrorIs(t, err, utils.ErrInvalid, pw)
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Str0ng!pass")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "Str0ng!pass"))
	assert.False(t, CheckPassword(hash, "Str0ng!pasS"))
	assert.False(t, CheckPassword("", "anything"))
}

func TestIssueTokenRoundTrip(t *testing.T) {
	now := time.Now()
	resp, hash, err := IssueToken(utils.RoleLawyer, "l-1", now)
	require.NoError(t, err)
	assert.Equal(t, utils.HashToken(resp.Token), hash)
	assert.True(t, resp.ExpiresAt.After(now))

	sub, role, err := utils.ExtractClaims(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "l-1", sub)
	assert.Equal(t, utils.RoleLawyer, role)
}

func TestResetSubject(t *testing.T) {
	assert.Equal(t, "citizen:a@b.c", ResetSubject(utils.RoleCitizen, "  A@B.c "))
}
