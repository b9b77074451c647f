package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndExtractClaims(t *testing.T) {
	token, err := GenerateToken("lawyer-1", RoleLawyer, time.Hour)
	require.NoError(t, err)

	sub, role, err := ExtractClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "lawyer-1", sub)
	assert.Equal(t, RoleLawyer, role)
}

func TestExtractClaimsRejectsExpiredToken(t *testing.T) {
	token, err := GenerateToken("citizen-1", RoleCitizen, -time.Minute)
	require.NoError(t, err)

	_, _, err = ExtractClaims(token)
	assert.Error(t, err)
}

func TestExtractClaimsRejectsTamperedToken(t *testing.T) {
	token, err := GenerateToken("citizen-1", RoleCitizen, time.Hour)
	require.NoError(t, err)

	_, _, err = ExtractClaims(token + "x")
	assert.Error(t, err)
}

func TestHashTokenIsStable(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	assert.Len(t, HashToken("abc"), 64)
}
