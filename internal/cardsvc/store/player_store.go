package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/avvvet/cardvault/internal/cardsvc/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SQLSTATE for unique_violation.
const uniqueViolation = "23505"

type PlayerStore struct {
	db *pgxpool.Pool
}

func NewPlayerStore(db *pgxpool.Pool) *PlayerStore {
	return &PlayerStore{db: db}
}

// FindByName looks a player up by exact full name. It returns nil, nil when
// there is no match.
func (s *PlayerStore) FindByName(ctx context.Context, fullName string) (*models.Player, error) {
	p := &models.Player{}
	err := s.db.QueryRow(ctx, `
		SELECT id, full_name, created_at
		FROM players
		WHERE full_name = $1
		ORDER BY created_at
		LIMIT 1
	`, fullName).Scan(&p.ID, &p.FullName, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find player: %w", err)
	}
	return p, nil
}

func (s *PlayerStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	p := &models.Player{}
	err := s.db.QueryRow(ctx, `
		SELECT id, full_name, created_at
		FROM players
		WHERE id = $1
	`, id).Scan(&p.ID, &p.FullName, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return p, nil
}

// Create inserts a player. When a concurrent insert won the race for the
// same name, the existing row is returned instead.
func (s *PlayerStore) Create(ctx context.Context, fullName string) (*models.Player, error) {
	p := &models.Player{ID: uuid.New(), FullName: fullName}
	err := s.db.QueryRow(ctx, `
		INSERT INTO players (id, full_name)
		VALUES ($1, $2)
		RETURNING created_at
	`, p.ID, p.FullName).Scan(&p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			if existing, ferr := s.FindByName(ctx, fullName); ferr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("could not create player: %w", err)
	}
	return p, nil
}

func (s *PlayerStore) List(ctx context.Context) ([]models.Player, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, full_name, created_at
		FROM players
		ORDER BY full_name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := []models.Player{}
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.ID, &p.FullName, &p.CreatedAt); err != nil {
			return nil, err
		}
		players = append(players, p)
	}

	return players, rows.Err()
}
