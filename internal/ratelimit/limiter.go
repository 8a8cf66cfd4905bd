package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultPurpose = "general"

	// Fixed window: at most ipRequestLimit requests per ipWindow per IP
	ipRequestLimit = 10
	ipWindow       = 15 * time.Minute

	// Minimum gap between outbound emails to the same address
	emailCooldown = 2 * time.Minute
)

// Limiter is a Redis-backed fixed-window rate limiter keyed by client IP,
// plus a per-email cooldown used by the resend-verification flow.
type Limiter struct {
	client *redis.Client
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

// CheckIPRateLimit reports whether the IP has exceeded the general limit
func (l *Limiter) CheckIPRateLimit(ctx context.Context, ip string) (bool, error) {
	return l.CheckIPRateLimitWithPurpose(ctx, ip, defaultPurpose)
}

// RecordIPRequest counts one request against the IP's general limit
func (l *Limiter) RecordIPRequest(ctx context.Context, ip string) error {
	return l.RecordIPRequestWithPurpose(ctx, ip, defaultPurpose)
}

// CheckIPRateLimitWithPurpose reports whether the IP has exceeded the limit
// for a named purpose (register, login, ...)
func (l *Limiter) CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error) {
	count, err := l.client.Get(ctx, ipKey(ip, purpose)).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read rate limit counter: %w", err)
	}

	return count >= ipRequestLimit, nil
}

// RecordIPRequestWithPurpose counts one request against the IP's limit for
// a named purpose. The window TTL is set when the counter is created.
func (l *Limiter) RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error {
	key := ipKey(ip, purpose)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, key, ipWindow).Err(); err != nil {
			return fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return nil
}

// CheckEmailCooldown reports whether an email was sent to this address recently
func (l *Limiter) CheckEmailCooldown(ctx context.Context, email string) (bool, error) {
	exists, err := l.client.Exists(ctx, emailKey(email)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check email cooldown: %w", err)
	}

	return exists > 0, nil
}

// SetEmailCooldown marks the address as recently emailed
func (l *Limiter) SetEmailCooldown(ctx context.Context, email string) error {
	err := l.client.Set(ctx, emailKey(email), "1", emailCooldown).Err()
	if err != nil {
		return fmt.Errorf("failed to set email cooldown: %w", err)
	}

	return nil
}

func ipKey(ip, purpose string) string {
	return fmt.Sprintf("ratelimit:%s:%s", purpose, ip)
}

// emailKey hashes the address so raw emails never appear in Redis keys
func emailKey(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(email)))
	return fmt.Sprintf("email_cooldown:%s", hex.EncodeToString(sum[:]))
}
