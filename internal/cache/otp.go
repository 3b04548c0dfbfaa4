package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

// SaveOTP stores the hashed code. The attempt counter is left alone, so a
// resend never grants a fresh set of guesses.
func (v *ValkeyClient) SaveOTP(ctx context.Context, phone, codeHash string, ttl time.Duration) error {
	cmd := v.client.B().Set().Key(v.key("otp", phone)).Value(codeHash).ExSeconds(int64(ttl / time.Second)).Build()
	if err := v.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to save otp: %w", err)
	}
	return nil
}

func (v *ValkeyClient) GetOTP(ctx context.Context, phone string) (string, error) {
	hash, err := v.client.Do(ctx, v.client.B().Get().Key(v.key("otp", phone)).Build()).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return "", ErrCacheMiss
		}
		return "", fmt.Errorf("failed to get otp: %w", err)
	}
	return hash, nil
}

// IncrOTPAttempts counts a verification attempt for the phone. The counter
// expires ttl after the first attempt regardless of how many codes are sent.
func (v *ValkeyClient) IncrOTPAttempts(ctx context.Context, phone string, ttl time.Duration) (int64, error) {
	k := v.key("otp", phone, "attempts")
	n, err := v.client.Do(ctx, v.client.B().Incr().Key(k).Build()).AsInt64()
	if err != nil {
		return 0, fmt.Errorf("failed to count otp attempt: %w", err)
	}
	if n == 1 {
		if err := v.client.Do(ctx, v.client.B().Expire().Key(k).Seconds(int64(ttl/time.Second)).Build()).Error(); err != nil {
			return 0, fmt.Errorf("failed to expire otp attempts: %w", err)
		}
	}
	return n, nil
}

// DeleteOTP drops the stored code but keeps the attempt counter
func (v *ValkeyClient) DeleteOTP(ctx context.Context, phone string) error {
	if err := v.client.Do(ctx, v.client.B().Del().Key(v.key("otp", phone)).Build()).Error(); err != nil {
		return fmt.Errorf("failed to delete otp: %w", err)
	}
	return nil
}

func (v *ValkeyClient) ResetOTPAttempts(ctx context.Context, phone string) error {
	if err := v.client.Do(ctx, v.client.B().Del().Key(v.key("otp", phone, "attempts")).Build()).Error(); err != nil {
		return fmt.Errorf("failed to reset otp attempts: %w", err)
	}
	return nil
}

// AcquireResendSlot returns false while a previous code for the phone is
// still inside the resend window
func (v *ValkeyClient) AcquireResendSlot(ctx context.Context, phone string, window time.Duration) (bool, error) {
	cmd := v.client.B().Set().Key(v.key("otp", phone, "resend")).Value("1").Nx().ExSeconds(int64(window / time.Second)).Build()
	err := v.client.Do(ctx, cmd).Error()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to acquire resend slot: %w", err)
	}
	return true, nil
}
