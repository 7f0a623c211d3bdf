package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/avvvet/cardvault/internal/cardsvc/catalog"
	"github.com/avvvet/cardvault/internal/cardsvc/imaging"
	"github.com/avvvet/cardvault/internal/cardsvc/models"
	"github.com/avvvet/cardvault/internal/cardsvc/storage"
	"github.com/avvvet/cardvault/internal/comm"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Step names reported in StepError.
const (
	StepResolvePlayer = "resolve player"
	StepInsertCard    = "insert card"
	StepUpsertTags    = "upsert tags"
	StepLinkTags      = "link tags"
	StepUnlinkTags    = "unlink tags"
	StepUploadImage   = "upload image"
	StepInsertImages  = "insert images"
	StepUpdateNotes   = "update notes"
	StepLoadImages    = "load images"
	StepDeleteCard    = "delete card"
)

type CardService struct {
	players PlayerRepository
	cards   CardRepository
	tags    TagRepository
	images  ImageRepository
	objects ObjectStore
	events  EventPublisher // may be nil

	now func() time.Time
}

func NewCardService(players PlayerRepository, cards CardRepository, tags TagRepository,
	images ImageRepository, objects ObjectStore, events EventPublisher) *CardService {
	return &CardService{
		players: players,
		cards:   cards,
		tags:    tags,
		images:  images,
		objects: objects,
		events:  events,
		now:     time.Now,
	}
}

// ListCards fetches the whole collection and runs the catalog query on it.
func (s *CardService) ListCards(ctx context.Context, sel catalog.Selection, key catalog.SortKey) (catalog.Result, error) {
	views, err := s.cards.ListViews(ctx)
	if err != nil {
		return catalog.Result{}, err
	}
	for i := range views {
		s.attachURLs(&views[i])
	}
	return catalog.Query(views, sel, key), nil
}

func (s *CardService) GetCard(ctx context.Context, id uuid.UUID) (*models.CardView, error) {
	view, err := s.cards.GetView(ctx, id)
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, ErrCardNotFound
	}
	s.attachURLs(view)
	return view, nil
}

func (s *CardService) Players(ctx context.Context) ([]models.Player, error) {
	return s.players.List(ctx)
}

// TagSuggestions is the default tag set merged with every stored label.
func (s *CardService) TagSuggestions(ctx context.Context) ([]string, error) {
	stored, err := s.tags.ListLabels(ctx)
	if err != nil {
		return nil, err
	}
	all := append(append([]string{}, DefaultTags...), stored...)
	labels := catalog.NormalizeLabels(all)
	catalog.SortLabels(labels)
	return labels, nil
}

func (s *CardService) Options(ctx context.Context) (*FormOptions, error) {
	tags, err := s.TagSuggestions(ctx)
	if err != nil {
		return nil, err
	}
	return &FormOptions{
		Sports:           Sports,
		Brands:           Brands,
		GradingCompanies: GradingCompanies,
		Tags:             tags,
	}, nil
}

// CreateCard runs the add-card flow. Input errors come back as
// *ValidationError with nothing written. Later failures come back as
// *StepError and leave the earlier writes in place.
func (s *CardService) CreateCard(ctx context.Context, owner uuid.UUID, in CreateCardInput) (*models.Card, error) {
	nc, err := in.validate()
	if err != nil {
		return nil, err
	}

	playerID, err := s.resolvePlayer(ctx, nc)
	if err != nil {
		return nil, step(StepResolvePlayer, err)
	}

	card := &models.Card{
		OwnerID:        owner,
		PlayerID:       &playerID,
		Sport:          nc.sport,
		Brand:          nc.brand,
		Year:           &nc.year,
		CardNo:         nc.cardNo,
		IsGraded:       nc.isGraded,
		GradingCompany: nc.gradingCompany,
		GradingNo:      nc.gradingNo,
		Grade:          nc.grade,
		Notes:          nc.notes,
	}
	if err := s.cards.Create(ctx, card); err != nil {
		return nil, step(StepInsertCard, err)
	}

	if len(nc.tags) > 0 {
		ids, err := s.upsertTags(ctx, nc.tags)
		if err != nil {
			return nil, step(StepUpsertTags, err)
		}
		if _, err := s.tags.Link(ctx, owner, card.ID, ids); err != nil {
			return nil, step(StepLinkTags, err)
		}
	}

	if len(nc.images) > 0 {
		rows, err := s.uploadImages(ctx, owner, card.ID, nc)
		if err != nil {
			return nil, step(StepUploadImage, err)
		}
		if err := s.images.Insert(ctx, rows); err != nil {
			return nil, step(StepInsertImages, err)
		}
	}

	s.publish(comm.CardCreated, card.ID, owner)
	return card, nil
}

func (s *CardService) resolvePlayer(ctx context.Context, nc *newCard) (uuid.UUID, error) {
	if nc.playerID != nil {
		p, err := s.players.GetByID(ctx, *nc.playerID)
		if err != nil {
			return uuid.Nil, err
		}
		if p == nil {
			return uuid.Nil, ErrPlayerNotFound
		}
		return p.ID, nil
	}

	existing, err := s.players.FindByName(ctx, nc.playerName)
	if err != nil {
		return uuid.Nil, err
	}
	if existing != nil {
		return existing.ID, nil
	}

	p, err := s.players.Create(ctx, nc.playerName)
	if err != nil {
		return uuid.Nil, err
	}
	return p.ID, nil
}

// upsertTags returns the ids of labels, creating the ones that are new.
func (s *CardService) upsertTags(ctx context.Context, labels []string) ([]uuid.UUID, error) {
	tags, err := s.tags.Upsert(ctx, labels)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		// some backends return nothing for conflicting rows
		if tags, err = s.tags.FindByLabels(ctx, labels); err != nil {
			return nil, err
		}
	}
	ids := make([]uuid.UUID, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}
	return ids, nil
}

func (s *CardService) uploadImages(ctx context.Context, owner, cardID uuid.UUID, nc *newCard) ([]models.CardImage, error) {
	at := s.now()
	primary := nc.primaryIndex()
	rows := make([]models.CardImage, 0, len(nc.images))

	for i, img := range nc.images {
		data, contentType := img.Data, img.ContentType
		ext := storage.Extension(img.Filename, contentType)

		if img.Crop != nil {
			cropped, err := imaging.Crop(bytes.NewReader(data), *img.Crop)
			if err != nil {
				return nil, fmt.Errorf("crop image %d: %w", i+1, err)
			}
			data, contentType, ext = cropped, "image/jpeg", "jpg"
		}

		path := storage.ObjectPath(owner.String(), cardID.String(), at, i, ext)
		if err := s.objects.Upload(ctx, path, contentType, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("image %d: %w", i+1, err)
		}

		rows = append(rows, models.CardImage{
			CardID:      cardID,
			StoragePath: path,
			IsPrimary:   i == primary,
		})
	}
	return rows, nil
}

// UpdateTagsAndNotes replaces the card's tag set and notes. The three writes
// are independent; a failure part way leaves the earlier ones applied.
func (s *CardService) UpdateTagsAndNotes(ctx context.Context, owner, cardID uuid.UUID, labels []string, notes string) (*models.CardView, error) {
	clean := catalog.NormalizeLabels(labels)

	var desired []uuid.UUID
	if len(clean) > 0 {
		ids, err := s.upsertTags(ctx, clean)
		if err != nil {
			return nil, step(StepUpsertTags, err)
		}
		desired = ids
	}

	current, err := s.tags.LinkedIDs(ctx, cardID)
	if err != nil {
		return nil, step(StepLinkTags, err)
	}

	toRemove, toAdd := diffIDs(current, desired)

	if len(toRemove) > 0 {
		n, err := s.tags.Unlink(ctx, owner, cardID, toRemove)
		if err != nil {
			return nil, step(StepUnlinkTags, err)
		}
		if n == 0 {
			return nil, step(StepUnlinkTags, ErrPermissionDenied)
		}
	}

	if len(toAdd) > 0 {
		n, err := s.tags.Link(ctx, owner, cardID, toAdd)
		if err != nil {
			return nil, step(StepLinkTags, err)
		}
		if n == 0 {
			return nil, step(StepLinkTags, ErrPermissionDenied)
		}
	}

	n, err := s.cards.UpdateNotes(ctx, owner, cardID, optionalText(notes))
	if err != nil {
		return nil, step(StepUpdateNotes, err)
	}
	if n == 0 {
		return nil, step(StepUpdateNotes, ErrPermissionDenied)
	}

	s.publish(comm.CardUpdated, cardID, owner)
	return s.GetCard(ctx, cardID)
}

// DeleteCard removes the card row, then its stored images. Storage cleanup
// is best-effort: the card is gone even if some objects remain.
func (s *CardService) DeleteCard(ctx context.Context, owner, cardID uuid.UUID) error {
	paths, err := s.images.PathsForCard(ctx, cardID)
	if err != nil {
		return step(StepLoadImages, err)
	}

	n, err := s.cards.Delete(ctx, owner, cardID)
	if err != nil {
		return step(StepDeleteCard, err)
	}
	if n == 0 {
		return ErrPermissionDenied
	}

	if len(paths) > 0 {
		if err := s.objects.Remove(ctx, paths); err != nil {
			log.Warnf("card %s deleted but image cleanup failed: %v", cardID, err)
		}
	}

	s.publish(comm.CardDeleted, cardID, owner)
	return nil
}

func (s *CardService) attachURLs(view *models.CardView) {
	for i := range view.Images {
		view.Images[i].URL = s.objects.PublicURL(view.Images[i].StoragePath)
	}
}

func (s *CardService) publish(typ string, cardID, owner uuid.UUID) {
	if s.events == nil {
		return
	}
	ev := comm.CardEvent{
		Type:      typ,
		CardID:    cardID.String(),
		OwnerID:   owner.String(),
		Timestamp: s.now().UTC(),
	}
	if err := s.events.PublishCardEvent(ev); err != nil {
		log.Warnf("unable to publish %s for card %s: %v", typ, cardID, err)
	}
}

// diffIDs returns the ids in current but not desired, and the ids in desired
// but not current, both in input order.
func diffIDs(current, desired []uuid.UUID) (toRemove, toAdd []uuid.UUID) {
	in := func(set []uuid.UUID) map[uuid.UUID]bool {
		m := make(map[uuid.UUID]bool, len(set))
		for _, id := range set {
			m[id] = true
		}
		return m
	}
	cur, want := in(current), in(desired)

	for _, id := range current {
		if !want[id] {
			toRemove = append(toRemove, id)
		}
	}
	for _, id := range desired {
		if !cur[id] {
			toAdd = append(toAdd, id)
		}
	}
	return toRemove, toAdd
}
