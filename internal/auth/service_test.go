package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/neuroscreen/internal/logging"
	"github.com/redmonkez12/neuroscreen/internal/user"
)

// fakeUserRepo is an in-memory UserRepository for service tests.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*user.User // keyed by lowercased email
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*user.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, email, passwordHash, verificationToken string, tokenExpiry time.Time) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[email]; exists {
		return nil, user.ErrDuplicateEmail
	}
	expiry := tokenExpiry
	u := &user.User{
		ID:                      uuid.New(),
		Email:                   email,
		PasswordHash:            passwordHash,
		VerificationToken:       &verificationToken,
		VerificationTokenExpiry: &expiry,
		CreatedAt:               time.Now(),
		UpdatedAt:               time.Now(),
	}
	r.users[email] = u
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) GetByVerificationToken(_ context.Context, token string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.VerificationToken != nil && *u.VerificationToken == token {
			clone := *u
			return &clone, nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *fakeUserRepo) MarkEmailAsVerified(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == userID {
			u.EmailVerified = true
			u.VerificationToken = nil
			u.VerificationTokenExpiry = nil
			return nil
		}
	}
	return user.ErrNotFound
}

func (r *fakeUserRepo) UpdateVerificationToken(_ context.Context, userID uuid.UUID, token string, tokenExpiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == userID && !u.EmailVerified {
			t, e := token, tokenExpiry
			u.VerificationToken = &t
			u.VerificationTokenExpiry = &e
			return nil
		}
	}
	return user.ErrNotFound
}

// setExpiry rewrites the stored token expiry to simulate time passing.
func (r *fakeUserRepo) setExpiry(email string, expiry time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[email].VerificationTokenExpiry = &expiry
}

func (r *fakeUserRepo) token(email string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.users[email].VerificationToken
}

type fakeTokenService struct{}

func (fakeTokenService) CreateToken(userID uuid.UUID, email string, _ time.Duration) (string, error) {
	return "session-" + userID.String(), nil
}

func (fakeTokenService) VerifyToken(tokenStr string) (*TokenClaims, error) {
	return nil, ErrInvalidToken
}

type fakeEmailService struct {
	mu            sync.Mutex
	verifications int
	welcomes      int
}

func (s *fakeEmailService) SendVerificationEmail(_ context.Context, _, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifications++
	return nil
}

func (s *fakeEmailService) SendWelcomeEmail(_ context.Context, _, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.welcomes++
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeUserRepo) {
	t.Helper()
	repo := newFakeUserRepo()
	svc := NewService(repo, fakeTokenService{}, &fakeEmailService{}, logging.NewLogger(true), 7*24*time.Hour)
	return svc, repo
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name            string
		email           string
		password        string
		confirmPassword string
		wantErr         error
	}{
		{"missing email", "", "password123", "password123", ErrEmailRequired},
		{"malformed email", "not-an-email", "password123", "password123", ErrInvalidEmailFormat},
		{"missing password", "user@example.com", "", "", ErrPasswordRequired},
		{"missing confirmation", "user@example.com", "password123", "", ErrConfirmPasswordRequired},
		{"short password", "user@example.com", "short", "short", ErrPasswordTooShort},
		{"mismatched confirmation", "user@example.com", "password123", "password124", ErrPasswordMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			_, err := svc.Register(context.Background(), tt.email, tt.password, tt.confirmPassword)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRegister_CreatesUnverifiedUser(t *testing.T) {
	svc, repo := newTestService(t)

	created, err := svc.Register(context.Background(), "User@Example.com", "password123", "password123")
	require.NoError(t, err)

	assert.Equal(t, "user@example.com", created.Email, "email must be normalized to lowercase")
	assert.False(t, created.EmailVerified)
	assert.NotEqual(t, "password123", created.PasswordHash)

	stored, err := repo.GetByEmail(context.Background(), "user@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored.VerificationToken)
	assert.Len(t, *stored.VerificationToken, 64, "token is 32 random bytes, hex encoded")
	require.NotNil(t, stored.VerificationTokenExpiry)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), *stored.VerificationTokenExpiry, time.Minute)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register(context.Background(), "user@example.com", "password123", "password123")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "user@example.com", "different-password", "different-password")
	assert.ErrorIs(t, err, user.ErrDuplicateEmail)

	// Case variants collide with the stored lowercased account
	_, err = svc.Register(context.Background(), "USER@example.com", "password123", "password123")
	assert.ErrorIs(t, err, user.ErrDuplicateEmail)
}

func TestLogin_UnknownEmailAndWrongPasswordLookAlike(t *testing.T) {
	svc, repo := newTestService(t)

	_, err := svc.Register(context.Background(), "user@example.com", "password123", "password123")
	require.NoError(t, err)
	_, err = svc.VerifyEmail(context.Background(), repo.token("user@example.com"))
	require.NoError(t, err)

	_, _, errUnknown := svc.Login(context.Background(), "other@example.com", "password123")
	_, _, errWrongPass := svc.Login(context.Background(), "user@example.com", "wrong-password")

	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errWrongPass, ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrongPass.Error(), "both failures must be indistinguishable")
}

func TestLogin_UnverifiedBlockedBeforePasswordCheck(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register(context.Background(), "user@example.com", "password123", "password123")
	require.NoError(t, err)

	// Correct and wrong passwords both surface the verification error
	_, _, err = svc.Login(context.Background(), "user@example.com", "password123")
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	_, _, err = svc.Login(context.Background(), "user@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrEmailNotVerified)
}

func TestLogin_Success(t *testing.T) {
	svc, repo := newTestService(t)

	created, err := svc.Register(context.Background(), "user@example.com", "password123", "password123")
	require.NoError(t, err)
	_, err = svc.VerifyEmail(context.Background(), repo.token("user@example.com"))
	require.NoError(t, err)

	loggedIn, token, err := svc.Login(context.Background(), "user@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, loggedIn.ID)
	assert.Equal(t, "session-"+created.ID.String(), token)
}

func TestVerifyEmail(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.VerifyEmail(context.Background(), "")
		assert.ErrorIs(t, err, ErrVerificationTokenRequired)
	})

	t.Run("unknown token", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.VerifyEmail(context.Background(), "deadbeef")
		assert.ErrorIs(t, err, ErrInvalidVerificationToken)
	})

	t.Run("expired token", func(t *testing.T) {
		svc, repo := newTestService(t)
		_, err := svc.Register(context.Background(), "user@example.com", "password123", "password123")
		require.NoError(t, err)

		repo.setExpiry("user@example.com", time.Now().Add(-time.Minute))

		_, err = svc.VerifyEmail(context.Background(), repo.token("user@example.com"))
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("token is consumed on success", func(t *testing.T) {
		svc, repo := newTestService(t)
		_, err := svc.Register(context.Background(), "user@example.com", "password123", "password123")
		require.NoError(t, err)

		token := repo.token("user@example.com")

		verified, err := svc.VerifyEmail(context.Background(), token)
		require.NoError(t, err)
		assert.True(t, verified.EmailVerified)
		assert.Nil(t, verified.VerificationToken)

		// Second use of the same token must not work
		_, err = svc.VerifyEmail(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidVerificationToken)
	})
}

func TestResendVerificationEmail_NeverRevealsAccountState(t *testing.T) {
	svc, repo := newTestService(t)

	_, err := svc.Register(context.Background(), "user@example.com", "password123", "password123")
	require.NoError(t, err)
	firstToken := repo.token("user@example.com")

	// Unknown address: still nil
	assert.NoError(t, svc.ResendVerificationEmail(context.Background(), "ghost@example.com"))

	// Unverified address: token is rotated, still nil
	assert.NoError(t, svc.ResendVerificationEmail(context.Background(), "user@example.com"))
	assert.NotEqual(t, firstToken, repo.token("user@example.com"))

	// Old token no longer verifies
	_, err = svc.VerifyEmail(context.Background(), firstToken)
	assert.ErrorIs(t, err, ErrInvalidVerificationToken)

	// Verified address: still nil
	_, err = svc.VerifyEmail(context.Background(), repo.token("user@example.com"))
	require.NoError(t, err)
	assert.NoError(t, svc.ResendVerificationEmail(context.Background(), "user@example.com"))
}

func TestPasswordHashing(t *testing.T) {
	hash, err := hashPassword("password123")
	require.NoError(t, err)

	assert.True(t, verifyPassword(hash, "password123"))
	assert.False(t, verifyPassword(hash, "password124"))

	// Same password hashes differently thanks to the random salt
	hash2, err := hashPassword("password123")
	require.NoError(t, err)
	assert.NotEqual(t, hash, hash2)
}
