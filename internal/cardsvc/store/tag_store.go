package store

import (
	"context"
	"fmt"

	"github.com/avvvet/cardvault/internal/cardsvc/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TagStore struct {
	db *pgxpool.Pool
}

func NewTagStore(db *pgxpool.Pool) *TagStore {
	return &TagStore{db: db}
}

// Upsert inserts missing labels and returns the rows for every label given.
// The no-op update on conflict makes existing rows come back in RETURNING.
func (s *TagStore) Upsert(ctx context.Context, labels []string) ([]models.Tag, error) {
	if len(labels) == 0 {
		return nil, nil
	}

	ids := make([]string, len(labels))
	for i := range labels {
		ids[i] = uuid.NewString()
	}

	rows, err := s.db.Query(ctx, `
		INSERT INTO tags (id, label)
		SELECT id::uuid, label
		FROM unnest($1::text[], $2::text[]) AS t(id, label)
		ON CONFLICT (label) DO UPDATE SET label = EXCLUDED.label
		RETURNING id, label
	`, ids, labels)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert tags: %w", err)
	}
	return collectTags(rows)
}

func (s *TagStore) FindByLabels(ctx context.Context, labels []string) ([]models.Tag, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, label FROM tags WHERE label = ANY($1::text[])
	`, labels)
	if err != nil {
		return nil, fmt.Errorf("failed to find tags: %w", err)
	}
	return collectTags(rows)
}

func (s *TagStore) ListLabels(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT label FROM tags ORDER BY label`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// LinkedIDs returns the ids of the tags currently linked to a card.
func (s *TagStore) LinkedIDs(ctx context.Context, cardID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx, `
		SELECT tag_id FROM card_tags WHERE card_id = $1
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to load card tags: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Link adds tag links to a card owned by ownerID and returns how many links
// were written. Already present links are skipped.
func (s *TagStore) Link(ctx context.Context, ownerID, cardID uuid.UUID, tagIDs []uuid.UUID) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO card_tags (card_id, tag_id)
		SELECT c.id, t.tag_id::uuid
		FROM cards c, unnest($3::text[]) AS t(tag_id)
		WHERE c.id = $1 AND c.owner_id = $2
		ON CONFLICT DO NOTHING
	`, cardID, ownerID, uuidStrings(tagIDs))
	if err != nil {
		return 0, fmt.Errorf("failed to link tags: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Unlink removes tag links from a card owned by ownerID.
func (s *TagStore) Unlink(ctx context.Context, ownerID, cardID uuid.UUID, tagIDs []uuid.UUID) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM card_tags ct
		USING cards c
		WHERE ct.card_id = c.id
		  AND c.id = $1 AND c.owner_id = $2
		  AND ct.tag_id = ANY($3::text[]::uuid[])
	`, cardID, ownerID, uuidStrings(tagIDs))
	if err != nil {
		return 0, fmt.Errorf("failed to unlink tags: %w", err)
	}
	return tag.RowsAffected(), nil
}

func collectTags(rows pgx.Rows) ([]models.Tag, error) {
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Label); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
