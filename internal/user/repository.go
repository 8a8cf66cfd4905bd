package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/neuroscreen/internal/database"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// Repository handles user data persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user with a pending verification token.
func (r *Repository) Create(ctx context.Context, email, passwordHash, verificationToken string, tokenExpiry time.Time) (*User, error) {
	dbUser := &database.User{
		Email:                   email,
		PasswordHash:            passwordHash,
		EmailVerified:           false,
		VerificationToken:       &verificationToken,
		VerificationTokenExpiry: &tokenExpiry,
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmail retrieves a user by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByVerificationToken retrieves a user by verification token. Verified
// users never match: verifying clears the token, which is what makes a
// consumed token unusable.
func (r *Repository) GetByVerificationToken(ctx context.Context, token string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("verification_token = ?", token).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by verification token: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// MarkEmailAsVerified marks a user's email as verified and clears the
// verification token and its expiry in a single update.
func (r *Repository) MarkEmailAsVerified(ctx context.Context, userID uuid.UUID) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("is_email_verified = ?", true).
		Set("verification_token = ?", nil).
		Set("verification_token_expiry = ?", nil).
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to mark email as verified: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateVerificationToken regenerates the verification token for resend.
// Only unverified users are updated.
func (r *Repository) UpdateVerificationToken(ctx context.Context, userID uuid.UUID, token string, tokenExpiry time.Time) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("verification_token = ?", token).
		Set("verification_token_expiry = ?", tokenExpiry).
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Where("is_email_verified = ?", false).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update verification token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:                      dbu.ID,
		Email:                   dbu.Email,
		PasswordHash:            dbu.PasswordHash,
		EmailVerified:           dbu.EmailVerified,
		VerificationToken:       dbu.VerificationToken,
		VerificationTokenExpiry: dbu.VerificationTokenExpiry,
		CreatedAt:               dbu.CreatedAt,
		UpdatedAt:               dbu.UpdatedAt,
	}
}
