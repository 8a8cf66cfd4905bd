package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/neuroscreen/internal/user"
)

// TokenService defines the interface for session token creation and validation.
// Implementations include JWTService (HS256) and PasetoService (PASETO v4.local).
type TokenService interface {
	CreateToken(userID uuid.UUID, email string, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// UserRepository defines the user persistence operations the auth service needs
type UserRepository interface {
	Create(ctx context.Context, email, passwordHash, verificationToken string, tokenExpiry time.Time) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*user.User, error)
	MarkEmailAsVerified(ctx context.Context, userID uuid.UUID) error
	UpdateVerificationToken(ctx context.Context, userID uuid.UUID, token string, tokenExpiry time.Time) error
}

// RateLimiter defines the abuse-control checks the handlers perform
// before acting on a request
type RateLimiter interface {
	CheckIPRateLimit(ctx context.Context, ip string) (bool, error)
	RecordIPRequest(ctx context.Context, ip string) error
	CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error)
	RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error
	CheckEmailCooldown(ctx context.Context, email string) (bool, error)
	SetEmailCooldown(ctx context.Context, email string) error
}

// EmailService defines the interface for email operations
type EmailService interface {
	SendVerificationEmail(ctx context.Context, toEmail, token string) error
	SendWelcomeEmail(ctx context.Context, toEmail, name string) error
}
