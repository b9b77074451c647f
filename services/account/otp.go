package account

import (
	"context"
	"errors"

	"lexconnect/utils"

	"github.com/go-redis/redis/v8"
)

const PurposePasswordReset = "reset"

// OTPStore issues and checks one-time codes.
type OTPStore interface {
	Initiate(ctx context.Context, purpose, subject, destination string) error
	Verify(ctx context.Context, purpose, subject, code string) error
}

type RedisOTPStore struct {
	Client *redis.Client
}

func (s RedisOTPStore) Initiate(ctx context.Context, purpose, subject, destination string) error {
	return utils.InitiateOTP(ctx, s.Client, purpose, subject, destination)
}

func (s RedisOTPStore) Verify(ctx context.Context, purpose, subject, code string) error {
	err := utils.VerifyOTP(ctx, s.Client, purpose, subject, code)
	if errors.Is(err, utils.ErrOTPExpired) || errors.Is(err, utils.ErrOTPMismatch) {
		return ErrInvalidOTP
	}
	return err
}

// ResetSubject namespaces the OTP subject by role so a citizen and a lawyer
// sharing an email never collide.
func ResetSubject(role, email string) string {
	return role + ":" + NormalizeEmail(email)
}
