package store

import (
	"context"
	"fmt"

	"github.com/avvvet/cardvault/internal/cardsvc/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ImageStore struct {
	db *pgxpool.Pool
}

func NewImageStore(db *pgxpool.Pool) *ImageStore {
	return &ImageStore{db: db}
}

// Insert writes all image rows in one statement. Missing ids are generated.
func (s *ImageStore) Insert(ctx context.Context, images []models.CardImage) error {
	if len(images) == 0 {
		return nil
	}

	var (
		ids      = make([]string, len(images))
		cardIDs  = make([]string, len(images))
		paths    = make([]string, len(images))
		primary  = make([]bool, len(images))
		ordinals = make([]int32, len(images))
	)
	for i := range images {
		if images[i].ID == uuid.Nil {
			images[i].ID = uuid.New()
		}
		ids[i] = images[i].ID.String()
		cardIDs[i] = images[i].CardID.String()
		paths[i] = images[i].StoragePath
		primary[i] = images[i].IsPrimary
		ordinals[i] = int32(i)
	}

	// created_at is staggered by ordinal so the read side keeps upload order.
	_, err := s.db.Exec(ctx, `
		INSERT INTO card_images (id, card_id, storage_path, is_primary, created_at)
		SELECT id::uuid, card_id::uuid, path, is_primary, now() + make_interval(secs => ord / 1000.0)
		FROM unnest($1::text[], $2::text[], $3::text[], $4::bool[], $5::int[])
		     AS t(id, card_id, path, is_primary, ord)
	`, ids, cardIDs, paths, primary, ordinals)
	if err != nil {
		return fmt.Errorf("failed to insert card images: %w", err)
	}
	return nil
}

func (s *ImageStore) PathsForCard(ctx context.Context, cardID uuid.UUID) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT storage_path FROM card_images WHERE card_id = $1 ORDER BY created_at, id
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to load image paths: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
