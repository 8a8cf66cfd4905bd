package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/redmonkez12/neuroscreen/internal/logging"
	"github.com/redmonkez12/neuroscreen/internal/user"
)

var (
	ErrInvalidCredentials        = errors.New("invalid email or password")
	ErrEmailRequired             = errors.New("email is required")
	ErrPasswordRequired          = errors.New("password is required")
	ErrConfirmPasswordRequired   = errors.New("password confirmation is required")
	ErrPasswordTooShort          = errors.New("password must be at least 8 characters")
	ErrPasswordMismatch          = errors.New("passwords do not match")
	ErrEmailNotVerified          = errors.New("email not verified, please check your inbox")
	ErrInvalidVerificationToken  = errors.New("invalid or expired verification token")
	ErrTokenExpired              = errors.New("verification token has expired")
	ErrEmailAlreadyVerified      = errors.New("email already verified")
	ErrInvalidEmailFormat        = errors.New("invalid email format")
	ErrVerificationTokenRequired = errors.New("verification token is required")
)

const verificationTokenTTL = 24 * time.Hour

// Service handles authentication business logic
type Service struct {
	userRepo        UserRepository
	tokenService    TokenService
	emailService    EmailService
	logger          *logging.Logger
	sessionDuration time.Duration
}

func NewService(
	userRepo UserRepository,
	tokenService TokenService,
	emailService EmailService,
	logger *logging.Logger,
	sessionDuration time.Duration,
) *Service {
	return &Service{
		userRepo:        userRepo,
		tokenService:    tokenService,
		emailService:    emailService,
		logger:          logger,
		sessionDuration: sessionDuration,
	}
}

// Register creates a new unverified user account and sends a verification email
func (s *Service) Register(ctx context.Context, email, password, confirmPassword string) (*user.User, error) {
	// Validate input
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(email) > 254 {
		return nil, ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmailFormat
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if confirmPassword == "" {
		return nil, ErrConfirmPasswordRequired
	}
	if len(password) < 8 {
		return nil, ErrPasswordTooShort
	}
	if password != confirmPassword {
		return nil, ErrPasswordMismatch
	}

	email = strings.ToLower(email)

	// Hash password using argon2id
	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Generate verification token with its expiry
	verificationToken, err := generateVerificationToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification token: %w", err)
	}
	tokenExpiry := time.Now().Add(verificationTokenTTL)

	// Create user in database
	newUser, err := s.userRepo.Create(ctx, email, passwordHash, verificationToken, tokenExpiry)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Send verification email in a goroutine (non-blocking).
	// Registration still succeeds when the send fails; the user can
	// request a resend later.
	go func() {
		emailCtx := context.Background()
		if err := s.emailService.SendVerificationEmail(emailCtx, email, verificationToken); err != nil {
			s.logger.Warn("failed to send verification email", "email", email, "error", err)
		}
	}()

	return newUser, nil
}

// Login authenticates a user and returns a session token
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	// Validate input
	if email == "" {
		return nil, "", ErrEmailRequired
	}
	if password == "" {
		return nil, "", ErrPasswordRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", ErrInvalidEmailFormat
	}

	// Get user from database
	existingUser, err := s.userRepo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}

	// Check verification before the password comparison outcome is used,
	// so unverified accounts always see 403 over 401.
	if !existingUser.EmailVerified {
		return nil, "", ErrEmailNotVerified
	}

	// Verify password
	if !verifyPassword(existingUser.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	// Issue session token
	token, err := s.tokenService.CreateToken(existingUser.ID, existingUser.Email, s.sessionDuration)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create session token: %w", err)
	}

	return existingUser, token, nil
}

// VerifyEmail verifies a user's email using the verification token.
// Verifying clears the token, so a second attempt with the same token
// fails as "invalid" - that is what prevents token reuse.
func (s *Service) VerifyEmail(ctx context.Context, token string) (*user.User, error) {
	if token == "" {
		return nil, ErrVerificationTokenRequired
	}

	existingUser, err := s.userRepo.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidVerificationToken
		}
		return nil, fmt.Errorf("failed to find user by token: %w", err)
	}

	if existingUser.EmailVerified {
		return nil, ErrEmailAlreadyVerified
	}

	if existingUser.VerificationTokenExpiry == nil {
		return nil, ErrTokenExpired
	}
	if time.Now().After(*existingUser.VerificationTokenExpiry) {
		return nil, ErrTokenExpired
	}

	// Mark email as verified and clear the token fields in one update
	if err := s.userRepo.MarkEmailAsVerified(ctx, existingUser.ID); err != nil {
		return nil, fmt.Errorf("failed to verify email: %w", err)
	}

	existingUser.EmailVerified = true
	existingUser.VerificationToken = nil
	existingUser.VerificationTokenExpiry = nil

	// Best-effort welcome email; verification already succeeded
	go func() {
		emailCtx := context.Background()
		name, _, _ := strings.Cut(existingUser.Email, "@")
		if err := s.emailService.SendWelcomeEmail(emailCtx, existingUser.Email, name); err != nil {
			s.logger.Warn("failed to send welcome email", "email", existingUser.Email, "error", err)
		}
	}()

	return existingUser, nil
}

// ResendVerificationEmail sends a new verification email to the user
// Always returns nil to prevent email enumeration attacks
func (s *Service) ResendVerificationEmail(ctx context.Context, email string) error {
	// Get user by email
	existingUser, err := s.userRepo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		// Don't reveal if user exists
		if errors.Is(err, user.ErrNotFound) {
			return nil
		}
		// Log error but return nil to prevent enumeration
		s.logger.Warn("failed to get user for resend verification", "error", err)
		return nil
	}

	// Check if already verified
	if existingUser.EmailVerified {
		// Don't reveal that email is already verified
		return nil
	}

	// Generate new verification token
	token, err := generateVerificationToken()
	if err != nil {
		s.logger.Warn("failed to generate verification token", "error", err)
		return nil
	}
	tokenExpiry := time.Now().Add(verificationTokenTTL)

	// Update verification token in database
	if err := s.userRepo.UpdateVerificationToken(ctx, existingUser.ID, token, tokenExpiry); err != nil {
		s.logger.Warn("failed to update verification token", "error", err)
		return nil
	}

	// Send verification email in goroutine (non-blocking)
	go func() {
		emailCtx := context.Background()
		if err := s.emailService.SendVerificationEmail(emailCtx, existingUser.Email, token); err != nil {
			s.logger.Warn("failed to resend verification email", "email", existingUser.Email, "error", err)
		}
	}()

	return nil
}

// generateVerificationToken creates a random 32-byte token, hex encoded
func generateVerificationToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
