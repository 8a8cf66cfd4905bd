package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the users table row. The verification token and its expiry are
// either both set (unverified account with a pending token) or both NULL.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                      uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Email                   string     `bun:"email,unique,notnull"`
	PasswordHash            string     `bun:"password_hash,notnull"`
	EmailVerified           bool       `bun:"is_email_verified,notnull,default:false"`
	VerificationToken       *string    `bun:"verification_token"`
	VerificationTokenExpiry *time.Time `bun:"verification_token_expiry"`
	CreatedAt               time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt               time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
}

// ScreeningRecord is one stored screening artifact (video, image or eeg)
// keyed by the object-store key returned to the client.
type ScreeningRecord struct {
	bun.BaseModel `bun:"table:screening_records,alias:sr"`

	ID         int64     `bun:"id,pk,autoincrement"`
	UserID     uuid.UUID `bun:"user_id,type:uuid,notnull"`
	Kind       string    `bun:"kind,notnull"`
	StorageKey string    `bun:"storage_key,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
