package service

import (
	"context"
	"io"

	"github.com/avvvet/cardvault/internal/cardsvc/models"
	"github.com/avvvet/cardvault/internal/comm"
	"github.com/google/uuid"
)

// Contracts the services depend on. The pgx stores, the GridFS bucket and
// the NATS broker satisfy them in production.

type IdentityRepository interface {
	CreateAnonymous(ctx context.Context) (*models.Identity, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Identity, error)
}

type PlayerRepository interface {
	FindByName(ctx context.Context, fullName string) (*models.Player, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Player, error)
	Create(ctx context.Context, fullName string) (*models.Player, error)
	List(ctx context.Context) ([]models.Player, error)
}

type CardRepository interface {
	Create(ctx context.Context, card *models.Card) error
	ListViews(ctx context.Context) ([]models.CardView, error)
	GetView(ctx context.Context, id uuid.UUID) (*models.CardView, error)
	UpdateNotes(ctx context.Context, ownerID, id uuid.UUID, notes *string) (int64, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) (int64, error)
}

type TagRepository interface {
	Upsert(ctx context.Context, labels []string) ([]models.Tag, error)
	FindByLabels(ctx context.Context, labels []string) ([]models.Tag, error)
	ListLabels(ctx context.Context) ([]string, error)
	LinkedIDs(ctx context.Context, cardID uuid.UUID) ([]uuid.UUID, error)
	Link(ctx context.Context, ownerID, cardID uuid.UUID, tagIDs []uuid.UUID) (int64, error)
	Unlink(ctx context.Context, ownerID, cardID uuid.UUID, tagIDs []uuid.UUID) (int64, error)
}

type ImageRepository interface {
	Insert(ctx context.Context, images []models.CardImage) error
	PathsForCard(ctx context.Context, cardID uuid.UUID) ([]string, error)
}

type ObjectStore interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) error
	Remove(ctx context.Context, paths []string) error
	PublicURL(objectPath string) string
}

type EventPublisher interface {
	PublishCardEvent(ev comm.CardEvent) error
}
