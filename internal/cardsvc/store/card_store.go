package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/avvvet/cardvault/internal/cardsvc/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CardStore struct {
	db *pgxpool.Pool
}

func NewCardStore(db *pgxpool.Pool) *CardStore {
	return &CardStore{db: db}
}

// cardViewSelect is the composite read: card + player + images + tags, with
// the one-to-many sides aggregated as JSON so one row comes back per card.
const cardViewSelect = `
	SELECT c.id, c.owner_id, c.player_id, p.full_name,
	       c.sport, c.brand, c.year, c.card_no,
	       c.is_graded, c.grading_company, c.grading_no, c.grade,
	       c.notes, c.created_at,
	       COALESCE((
	           SELECT json_agg(json_build_object(
	                      'id', i.id, 'card_id', i.card_id,
	                      'storage_path', i.storage_path, 'is_primary', i.is_primary)
	                  ORDER BY i.created_at, i.id)
	           FROM card_images i
	           WHERE i.card_id = c.id
	       ), '[]'::json),
	       COALESCE((
	           SELECT json_agg(json_build_object('id', t.id, 'label', t.label) ORDER BY t.label)
	           FROM card_tags ct
	           JOIN tags t ON t.id = ct.tag_id
	           WHERE ct.card_id = c.id
	       ), '[]'::json)
	FROM cards c
	LEFT JOIN players p ON p.id = c.player_id
`

// Create inserts the card. ID is generated when empty; CreatedAt is filled
// from the database.
func (s *CardStore) Create(ctx context.Context, card *models.Card) error {
	if card.ID == uuid.Nil {
		card.ID = uuid.New()
	}

	err := s.db.QueryRow(ctx, `
		INSERT INTO cards (id, owner_id, player_id, sport, brand, year, card_no,
		                   is_graded, grading_company, grading_no, grade, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at
	`,
		card.ID,
		card.OwnerID,
		card.PlayerID,
		card.Sport,
		card.Brand,
		card.Year,
		card.CardNo,
		card.IsGraded,
		card.GradingCompany,
		card.GradingNo,
		card.Grade,
		card.Notes,
	).Scan(&card.CreatedAt)
	if err != nil {
		return fmt.Errorf("could not create card: %w", err)
	}

	return nil
}

// ListViews returns every card, newest first.
func (s *CardStore) ListViews(ctx context.Context) ([]models.CardView, error) {
	rows, err := s.db.Query(ctx, cardViewSelect+` ORDER BY c.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	cards := []models.CardView{}
	for rows.Next() {
		view, err := scanCardView(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *view)
	}

	return cards, rows.Err()
}

// GetView returns nil, nil when the card does not exist.
func (s *CardStore) GetView(ctx context.Context, id uuid.UUID) (*models.CardView, error) {
	view, err := scanCardView(s.db.QueryRow(ctx, cardViewSelect+` WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return view, nil
}

// UpdateNotes sets the notes of a card owned by ownerID and returns the
// number of affected rows. Zero means the card is missing or not owned.
func (s *CardStore) UpdateNotes(ctx context.Context, ownerID, id uuid.UUID, notes *string) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE cards SET notes = $3
		WHERE id = $1 AND owner_id = $2
	`, id, ownerID, notes)
	if err != nil {
		return 0, fmt.Errorf("failed to update notes: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Delete removes a card owned by ownerID. Images and tag links go with it
// through ON DELETE CASCADE. Zero rows means nothing was removed.
func (s *CardStore) Delete(ctx context.Context, ownerID, id uuid.UUID) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM cards
		WHERE id = $1 AND owner_id = $2
	`, id, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete card: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanCardView(row pgx.Row) (*models.CardView, error) {
	var (
		v          models.CardView
		imagesJSON []byte
		tagsJSON   []byte
	)

	err := row.Scan(
		&v.ID,
		&v.OwnerID,
		&v.PlayerID,
		&v.PlayerName,
		&v.Sport,
		&v.Brand,
		&v.Year,
		&v.CardNo,
		&v.IsGraded,
		&v.GradingCompany,
		&v.GradingNo,
		&v.Grade,
		&v.Notes,
		&v.CreatedAt,
		&imagesJSON,
		&tagsJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan card: %w", err)
	}

	if err := json.Unmarshal(imagesJSON, &v.Images); err != nil {
		return nil, fmt.Errorf("decode card images: %w", err)
	}
	if err := json.Unmarshal(tagsJSON, &v.Tags); err != nil {
		return nil, fmt.Errorf("decode card tags: %w", err)
	}

	return &v, nil
}
