package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecureOTPIsNumeric(t *testing.T) {
	for i := 0; i < 20; i++ {
		otp, err := generateSecureOTP(6)
		require.NoError(t, err)
		assert.Len(t, otp, 6)
		for _, r := range otp {
			assert.True(t, r >= '0' && r <= '9', "unexpected rune %q", r)
		}
	}
}

func TestOTPKeyNamespacesPurpose(t *testing.T) {
	assert.Equal(t, "otp:reset:lawyer:a@b.c", otpKey("reset", "lawyer:a@b.c"))
	assert.NotEqual(t, otpKey("reset", "x"), otpKey("verify", "x"))
}
