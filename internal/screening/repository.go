package screening

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/neuroscreen/internal/database"
)

// Repository handles screening record persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create records one stored artifact for a user.
func (r *Repository) Create(ctx context.Context, userID uuid.UUID, kind, storageKey string) error {
	record := &database.ScreeningRecord{
		UserID:     userID,
		Kind:       kind,
		StorageKey: storageKey,
	}

	_, err := r.db.NewInsert().
		Model(record).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create screening record: %w", err)
	}

	return nil
}

// CountByUser returns the number of screening records stored for a user.
func (r *Repository) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := r.db.NewSelect().
		Model((*database.ScreeningRecord)(nil)).
		Where("user_id = ?", userID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count screening records: %w", err)
	}

	return count, nil
}
