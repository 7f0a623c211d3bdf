package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"

	"github.com/avvvet/cardvault/internal/cardsvc/models"
	"github.com/avvvet/cardvault/internal/comm"
	"github.com/google/uuid"
)

// memDB backs the in-memory repositories used by the service tests. It
// mirrors the owner checks the SQL stores perform.
type memDB struct {
	mu         sync.Mutex
	identities map[uuid.UUID]*models.Identity
	players    []models.Player
	cards      map[uuid.UUID]*models.Card
	tags       []models.Tag
	links      map[uuid.UUID][]uuid.UUID
	images     []models.CardImage
}

func newMemDB() *memDB {
	return &memDB{
		identities: map[uuid.UUID]*models.Identity{},
		cards:      map[uuid.UUID]*models.Card{},
		links:      map[uuid.UUID][]uuid.UUID{},
	}
}

func (db *memDB) owns(owner, cardID uuid.UUID) bool {
	c, ok := db.cards[cardID]
	return ok && c.OwnerID == owner
}

type memIdentities struct{ db *memDB }

func (r memIdentities) CreateAnonymous(ctx context.Context) (*models.Identity, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	id := &models.Identity{ID: uuid.New(), IsAnonymous: true}
	r.db.identities[id.ID] = id
	return id, nil
}

func (r memIdentities) GetByID(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.db.identities[id], nil
}

type memPlayers struct {
	db        *memDB
	createErr error
}

func (r *memPlayers) FindByName(ctx context.Context, name string) (*models.Player, error) {
	for _, p := range r.db.players {
		if p.FullName == name {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func (r *memPlayers) GetByID(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	for _, p := range r.db.players {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func (r *memPlayers) Create(ctx context.Context, name string) (*models.Player, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	p := models.Player{ID: uuid.New(), FullName: name}
	r.db.players = append(r.db.players, p)
	return &p, nil
}

func (r *memPlayers) List(ctx context.Context) ([]models.Player, error) {
	out := append([]models.Player{}, r.db.players...)
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

type memCards struct {
	db        *memDB
	createErr error
}

func (r *memCards) Create(ctx context.Context, c *models.Card) error {
	if r.createErr != nil {
		return r.createErr
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	r.db.cards[c.ID] = &cp
	return nil
}

func (r *memCards) ListViews(ctx context.Context) ([]models.CardView, error) {
	var out []models.CardView
	for id := range r.db.cards {
		v, _ := r.GetView(ctx, id)
		out = append(out, *v)
	}
	return out, nil
}

func (r *memCards) GetView(ctx context.Context, id uuid.UUID) (*models.CardView, error) {
	c, ok := r.db.cards[id]
	if !ok {
		return nil, nil
	}
	v := &models.CardView{Card: *c}
	for _, p := range r.db.players {
		if c.PlayerID != nil && p.ID == *c.PlayerID {
			name := p.FullName
			v.PlayerName = &name
		}
	}
	for _, img := range r.db.images {
		if img.CardID == id {
			v.Images = append(v.Images, img)
		}
	}
	for _, tid := range r.db.links[id] {
		for _, t := range r.db.tags {
			if t.ID == tid {
				v.Tags = append(v.Tags, t)
			}
		}
	}
	return v, nil
}

func (r *memCards) UpdateNotes(ctx context.Context, owner, id uuid.UUID, notes *string) (int64, error) {
	if !r.db.owns(owner, id) {
		return 0, nil
	}
	r.db.cards[id].Notes = notes
	return 1, nil
}

func (r *memCards) Delete(ctx context.Context, owner, id uuid.UUID) (int64, error) {
	if !r.db.owns(owner, id) {
		return 0, nil
	}
	delete(r.db.cards, id)
	delete(r.db.links, id)
	kept := r.db.images[:0]
	for _, img := range r.db.images {
		if img.CardID != id {
			kept = append(kept, img)
		}
	}
	r.db.images = kept
	return 1, nil
}

type memTags struct {
	db          *memDB
	emptyUpsert bool // behave like a backend that drops conflicting rows
}

func (r *memTags) Upsert(ctx context.Context, labels []string) ([]models.Tag, error) {
	var out []models.Tag
	for _, l := range labels {
		found := false
		for _, t := range r.db.tags {
			if t.Label == l {
				out = append(out, t)
				found = true
			}
		}
		if !found {
			t := models.Tag{ID: uuid.New(), Label: l}
			r.db.tags = append(r.db.tags, t)
			out = append(out, t)
		}
	}
	if r.emptyUpsert {
		return nil, nil
	}
	return out, nil
}

func (r *memTags) FindByLabels(ctx context.Context, labels []string) ([]models.Tag, error) {
	var out []models.Tag
	for _, t := range r.db.tags {
		for _, l := range labels {
			if t.Label == l {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

func (r *memTags) ListLabels(ctx context.Context) ([]string, error) {
	var out []string
	for _, t := range r.db.tags {
		out = append(out, t.Label)
	}
	return out, nil
}

func (r *memTags) LinkedIDs(ctx context.Context, cardID uuid.UUID) ([]uuid.UUID, error) {
	return append([]uuid.UUID{}, r.db.links[cardID]...), nil
}

func (r *memTags) Link(ctx context.Context, owner, cardID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if !r.db.owns(owner, cardID) {
		return 0, nil
	}
	var n int64
	for _, id := range ids {
		if !containsID(r.db.links[cardID], id) {
			r.db.links[cardID] = append(r.db.links[cardID], id)
			n++
		}
	}
	return n, nil
}

func (r *memTags) Unlink(ctx context.Context, owner, cardID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if !r.db.owns(owner, cardID) {
		return 0, nil
	}
	var n int64
	var kept []uuid.UUID
	for _, id := range r.db.links[cardID] {
		if containsID(ids, id) {
			n++
			continue
		}
		kept = append(kept, id)
	}
	r.db.links[cardID] = kept
	return n, nil
}

type memImages struct {
	db        *memDB
	insertErr error
}

func (r *memImages) Insert(ctx context.Context, images []models.CardImage) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	for i := range images {
		if images[i].ID == uuid.Nil {
			images[i].ID = uuid.New()
		}
	}
	r.db.images = append(r.db.images, images...)
	return nil
}

func (r *memImages) PathsForCard(ctx context.Context, cardID uuid.UUID) ([]string, error) {
	var out []string
	for _, img := range r.db.images {
		if img.CardID == cardID {
			out = append(out, img.StoragePath)
		}
	}
	return out, nil
}

type memObjects struct {
	objects   map[string][]byte
	types     map[string]string
	uploadErr error
	removeErr error
	removed   []string
}

func newMemObjects() *memObjects {
	return &memObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (o *memObjects) Upload(ctx context.Context, p, contentType string, r io.Reader) error {
	if o.uploadErr != nil {
		return o.uploadErr
	}
	if _, ok := o.objects[p]; ok {
		return errors.New("object exists")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	o.objects[p] = data
	o.types[p] = contentType
	return nil
}

func (o *memObjects) Remove(ctx context.Context, paths []string) error {
	o.removed = append(o.removed, paths...)
	if o.removeErr != nil {
		return o.removeErr
	}
	for _, p := range paths {
		delete(o.objects, p)
	}
	return nil
}

func (o *memObjects) PublicURL(p string) string {
	return "http://img.test/v1/images/" + p
}

type memEvents struct {
	events []comm.CardEvent
	err    error
}

func (e *memEvents) PublishCardEvent(ev comm.CardEvent) error {
	e.events = append(e.events, ev)
	return e.err
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

type fixture struct {
	db      *memDB
	players *memPlayers
	cards   *memCards
	tags    *memTags
	images  *memImages
	objects *memObjects
	events  *memEvents
	svc     *CardService
}

func newFixture() *fixture {
	db := newMemDB()
	f := &fixture{
		db:      db,
		players: &memPlayers{db: db},
		cards:   &memCards{db: db},
		tags:    &memTags{db: db},
		images:  &memImages{db: db},
		objects: newMemObjects(),
		events:  &memEvents{},
	}
	f.svc = NewCardService(f.players, f.cards, f.tags, f.images, f.objects, f.events)
	return f
}
