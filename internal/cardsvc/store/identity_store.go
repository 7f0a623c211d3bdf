package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/avvvet/cardvault/internal/cardsvc/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type IdentityStore struct {
	db *pgxpool.Pool
}

func NewIdentityStore(db *pgxpool.Pool) *IdentityStore {
	return &IdentityStore{db: db}
}

func (s *IdentityStore) CreateAnonymous(ctx context.Context) (*models.Identity, error) {
	identity := &models.Identity{ID: uuid.New(), IsAnonymous: true}

	err := s.db.QueryRow(ctx, `
		INSERT INTO identities (id, is_anonymous)
		VALUES ($1, true)
		RETURNING created_at
	`, identity.ID).Scan(&identity.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("could not create identity: %w", err)
	}

	return identity, nil
}

// GetByID returns nil, nil when the identity does not exist.
func (s *IdentityStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	identity := &models.Identity{}
	err := s.db.QueryRow(ctx, `
		SELECT id, is_anonymous, created_at
		FROM identities
		WHERE id = $1
	`, id).Scan(&identity.ID, &identity.IsAnonymous, &identity.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	return identity, nil
}
