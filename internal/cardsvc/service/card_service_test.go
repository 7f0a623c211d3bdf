package service

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/avvvet/cardvault/internal/cardsvc/catalog"
	"github.com/avvvet/cardvault/internal/cardsvc/imaging"
	"github.com/avvvet/cardvault/internal/cardsvc/models"
	"github.com/avvvet/cardvault/internal/comm"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var owner = uuid.MustParse("8c1f4d0e-1111-4a2b-9c3d-000000000001")

func mantleInput() CreateCardInput {
	return CreateCardInput{
		PlayerName: "  Mickey Mantle ",
		Sport:      "Baseball",
		Brand:      "Topps",
		Year:       "1952",
		CardNo:     "311",
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// oversizedPNG is a bare PNG header declaring a w×h grayscale frame.
func oversizedPNG(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8
	chunk := append([]byte("IHDR"), ihdr...)

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	buf.Write(chunk)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestCreateCardValidation(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*CreateCardInput)
		field string
	}{
		{"no player", func(in *CreateCardInput) { in.PlayerName = "   " }, "player"},
		{"empty year", func(in *CreateCardInput) { in.Year = "" }, "year"},
		{"non-numeric year", func(in *CreateCardInput) { in.Year = "fifty-two" }, "year"},
		{"graded without company", func(in *CreateCardInput) { in.IsGraded = true }, "grading_company"},
		{"bad grade", func(in *CreateCardInput) {
			in.IsGraded, in.GradingCompany, in.Grade = true, "PSA", "mint"
		}, "grade"},
		{"grade above scale", func(in *CreateCardInput) {
			in.IsGraded, in.GradingCompany, in.Grade = true, "PSA", "1000"
		}, "grade"},
		{"negative grade", func(in *CreateCardInput) {
			in.IsGraded, in.GradingCompany, in.Grade = true, "PSA", "-1"
		}, "grade"},
		{"oversized crop", func(in *CreateCardInput) {
			in.Images = []ImageUpload{{
				Filename: "huge.png",
				Data:     oversizedPNG(12000, 12000),
				Crop:     &imaging.Rect{Width: 10, Height: 10},
			}}
		}, "images"},
		{"unreadable crop", func(in *CreateCardInput) {
			in.Images = []ImageUpload{{
				Filename: "front.jpg",
				Data:     []byte("not an image"),
				Crop:     &imaging.Rect{Width: 10, Height: 10},
			}}
		}, "images"},
		{"empty image", func(in *CreateCardInput) {
			in.Images = []ImageUpload{{Filename: "front.png"}}
		}, "images"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			in := mantleInput()
			tc.edit(&in)

			_, err := f.svc.CreateCard(context.Background(), owner, in)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
			assert.Empty(t, f.db.players)
			assert.Empty(t, f.db.cards)
			assert.Empty(t, f.objects.objects, "nothing uploaded")
			assert.Empty(t, f.events.events)
		})
	}
}

func TestCreateCardCreatesPlayerAndLinksTags(t *testing.T) {
	f := newFixture()
	in := mantleInput()
	in.IsGraded = true
	in.GradingCompany = "PSA"
	in.GradingNo = " 123456 "
	in.Grade = "8.5"
	in.Tags = []string{" RC ", "RC", "", "HOF"}
	in.Notes = "  "

	card, err := f.svc.CreateCard(context.Background(), owner, in)
	require.NoError(t, err)

	require.Len(t, f.db.players, 1)
	assert.Equal(t, "Mickey Mantle", f.db.players[0].FullName)
	assert.Equal(t, f.db.players[0].ID, *card.PlayerID)

	stored := f.db.cards[card.ID]
	require.NotNil(t, stored)
	assert.Equal(t, owner, stored.OwnerID)
	assert.Equal(t, 1952, *stored.Year)
	assert.Equal(t, "311", *stored.CardNo)
	assert.Equal(t, "123456", *stored.GradingNo)
	assert.Equal(t, "8.5", stored.Grade.Decimal.String())
	assert.Nil(t, stored.Notes)

	view, err := f.svc.GetCard(context.Background(), card.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"RC", "HOF"}, view.TagLabels())

	require.Len(t, f.events.events, 1)
	assert.Equal(t, comm.CardCreated, f.events.events[0].Type)
	assert.Equal(t, card.ID.String(), f.events.events[0].CardID)
}

func TestCreateCardRawIgnoresGradingFields(t *testing.T) {
	f := newFixture()
	in := mantleInput()
	in.GradingCompany = "PSA"
	in.Grade = "not a number"

	card, err := f.svc.CreateCard(context.Background(), owner, in)
	require.NoError(t, err)

	stored := f.db.cards[card.ID]
	assert.False(t, stored.IsGraded)
	assert.Nil(t, stored.GradingCompany)
	assert.False(t, stored.Grade.Valid)
}

func TestCreateCardReusesPlayerByExactName(t *testing.T) {
	f := newFixture()
	existing := models.Player{ID: uuid.New(), FullName: "Mickey Mantle"}
	f.db.players = append(f.db.players, existing)

	card, err := f.svc.CreateCard(context.Background(), owner, mantleInput())
	require.NoError(t, err)

	assert.Len(t, f.db.players, 1)
	assert.Equal(t, existing.ID, *card.PlayerID)
}

func TestCreateCardWithPickedPlayer(t *testing.T) {
	f := newFixture()
	picked := models.Player{ID: uuid.New(), FullName: "Willie Mays"}
	f.db.players = append(f.db.players, picked)

	in := mantleInput()
	in.PlayerID = &picked.ID
	in.PlayerName = ""

	card, err := f.svc.CreateCard(context.Background(), owner, in)
	require.NoError(t, err)
	assert.Equal(t, picked.ID, *card.PlayerID)

	missing := uuid.New()
	in.PlayerID = &missing
	_, err = f.svc.CreateCard(context.Background(), owner, in)

	var serr *StepError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StepResolvePlayer, serr.Step)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestCreateCardMarksExactlyOnePrimary(t *testing.T) {
	f := newFixture()
	f.svc.now = func() time.Time { return time.UnixMilli(1700000000000) }

	data := pngBytes(t, 4, 4)
	in := mantleInput()
	in.Images = []ImageUpload{
		{Filename: "front.png", ContentType: "image/png", Data: data},
		{Filename: "back.png", ContentType: "image/png", Data: data, IsPrimary: true},
		{Filename: "corner.png", ContentType: "image/png", Data: data, IsPrimary: true},
	}

	card, err := f.svc.CreateCard(context.Background(), owner, in)
	require.NoError(t, err)

	require.Len(t, f.db.images, 3)
	primaries := 0
	for i, img := range f.db.images {
		if img.IsPrimary {
			primaries++
			assert.Equal(t, 1, i)
		}
		assert.True(t, strings.HasPrefix(img.StoragePath, owner.String()+"/"+card.ID.String()+"/"))
	}
	assert.Equal(t, 1, primaries)
	assert.Equal(t, owner.String()+"/"+card.ID.String()+"/1700000000000-2.png", f.db.images[2].StoragePath)
	assert.Len(t, f.objects.objects, 3)

	view, err := f.svc.GetCard(context.Background(), card.ID)
	require.NoError(t, err)
	assert.Equal(t, "http://img.test/v1/images/"+f.db.images[1].StoragePath, view.PrimaryImage().URL)
}

func TestCreateCardFirstImageIsPrimaryByDefault(t *testing.T) {
	f := newFixture()
	data := pngBytes(t, 2, 2)
	in := mantleInput()
	in.Images = []ImageUpload{
		{Filename: "a.png", Data: data},
		{Filename: "b.png", Data: data},
	}

	_, err := f.svc.CreateCard(context.Background(), owner, in)
	require.NoError(t, err)

	require.Len(t, f.db.images, 2)
	assert.True(t, f.db.images[0].IsPrimary)
	assert.False(t, f.db.images[1].IsPrimary)
}

func TestCreateCardCropsBeforeUpload(t *testing.T) {
	f := newFixture()
	in := mantleInput()
	in.Images = []ImageUpload{{
		Filename:    "scan.png",
		ContentType: "image/png",
		Data:        pngBytes(t, 100, 80),
		Crop:        &imaging.Rect{X: 10, Y: 10, Width: 40, Height: 30},
	}}

	_, err := f.svc.CreateCard(context.Background(), owner, in)
	require.NoError(t, err)

	require.Len(t, f.db.images, 1)
	p := f.db.images[0].StoragePath
	assert.True(t, strings.HasSuffix(p, "-0.jpg"))
	assert.Equal(t, "image/jpeg", f.objects.types[p])

	img, err := jpeg.Decode(bytes.NewReader(f.objects.objects[p]))
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 30, img.Bounds().Dy())
}

func TestCreateCardStepFailureKeepsEarlierWrites(t *testing.T) {
	f := newFixture()
	f.objects.uploadErr = errors.New("bucket offline")

	in := mantleInput()
	in.Tags = []string{"RC"}
	in.Images = []ImageUpload{{Filename: "a.png", Data: pngBytes(t, 2, 2)}}

	_, err := f.svc.CreateCard(context.Background(), owner, in)

	var serr *StepError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StepUploadImage, serr.Step)
	assert.Contains(t, err.Error(), "bucket offline")

	assert.Len(t, f.db.players, 1)
	assert.Len(t, f.db.cards, 1)
	assert.Len(t, f.db.tags, 1)
	assert.Empty(t, f.db.images)
	assert.Empty(t, f.events.events)
}

func TestCreateCardInsertFailure(t *testing.T) {
	f := newFixture()
	f.cards.createErr = errors.New("connection reset")

	_, err := f.svc.CreateCard(context.Background(), owner, mantleInput())

	var serr *StepError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StepInsertCard, serr.Step)
	assert.Len(t, f.db.players, 1, "player insert is not rolled back")
}

func seedCard(t *testing.T, f *fixture, tags ...string) uuid.UUID {
	t.Helper()
	in := mantleInput()
	in.Tags = tags
	in.Notes = "original"
	card, err := f.svc.CreateCard(context.Background(), owner, in)
	require.NoError(t, err)
	f.events.events = nil
	return card.ID
}

func TestUpdateTagsAndNotesAppliesDiff(t *testing.T) {
	f := newFixture()
	id := seedCard(t, f, "RC", "Auto")

	view, err := f.svc.UpdateTagsAndNotes(context.Background(), owner, id, []string{"Auto", " HOF ", "HOF"}, "  centered  ")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"Auto", "HOF"}, view.TagLabels())
	require.NotNil(t, view.Notes)
	assert.Equal(t, "centered", *view.Notes)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, comm.CardUpdated, f.events.events[0].Type)

	view, err = f.svc.UpdateTagsAndNotes(context.Background(), owner, id, nil, "")
	require.NoError(t, err)
	assert.Empty(t, view.Tags)
	assert.Nil(t, view.Notes)
}

func TestUpdateTagsFallsBackToLookup(t *testing.T) {
	f := newFixture()
	id := seedCard(t, f)
	f.tags.emptyUpsert = true

	view, err := f.svc.UpdateTagsAndNotes(context.Background(), owner, id, []string{"Patch"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Patch"}, view.TagLabels())
}

func TestUpdateTagsAndNotesNotOwner(t *testing.T) {
	f := newFixture()
	id := seedCard(t, f, "RC")
	stranger := uuid.New()

	_, err := f.svc.UpdateTagsAndNotes(context.Background(), stranger, id, []string{"RC"}, "mine now")
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, "original", *f.db.cards[id].Notes)

	_, err = f.svc.UpdateTagsAndNotes(context.Background(), stranger, id, nil, "")
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Len(t, f.db.links[id], 1)
	assert.Empty(t, f.events.events)
}

func TestDeleteCardRemovesImages(t *testing.T) {
	f := newFixture()
	in := mantleInput()
	in.Images = []ImageUpload{{Filename: "a.png", Data: pngBytes(t, 2, 2)}}
	card, err := f.svc.CreateCard(context.Background(), owner, in)
	require.NoError(t, err)
	path := f.db.images[0].StoragePath

	require.NoError(t, f.svc.DeleteCard(context.Background(), owner, card.ID))

	assert.Empty(t, f.db.cards)
	assert.Equal(t, []string{path}, f.objects.removed)
	assert.Empty(t, f.objects.objects)
	assert.Equal(t, comm.CardDeleted, f.events.events[len(f.events.events)-1].Type)

	_, err = f.svc.GetCard(context.Background(), card.ID)
	assert.ErrorIs(t, err, ErrCardNotFound)
}

func TestDeleteCardNotOwner(t *testing.T) {
	f := newFixture()
	id := seedCard(t, f)

	err := f.svc.DeleteCard(context.Background(), uuid.New(), id)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Len(t, f.db.cards, 1)
	assert.Empty(t, f.objects.removed)
	assert.Empty(t, f.events.events)
}

func TestDeleteCardIgnoresStorageFailure(t *testing.T) {
	f := newFixture()
	f.objects.removeErr = errors.New("gridfs unavailable")
	in := mantleInput()
	in.Images = []ImageUpload{{Filename: "a.png", Data: pngBytes(t, 2, 2)}}
	card, err := f.svc.CreateCard(context.Background(), owner, in)
	require.NoError(t, err)

	assert.NoError(t, f.svc.DeleteCard(context.Background(), owner, card.ID))
	assert.Empty(t, f.db.cards)
}

func TestListCardsRunsQuery(t *testing.T) {
	f := newFixture()
	for _, in := range []CreateCardInput{
		{PlayerName: "Mickey Mantle", Sport: "Baseball", Year: "1952"},
		{PlayerName: "Bobby Orr", Sport: "Hockey", Year: "1966"},
		{PlayerName: "Hank Aaron", Sport: "Baseball", Year: "1954",
			Images: []ImageUpload{{Filename: "a.png", Data: pngBytes(t, 2, 2)}}},
	} {
		_, err := f.svc.CreateCard(context.Background(), owner, in)
		require.NoError(t, err)
	}

	res, err := f.svc.ListCards(context.Background(), catalog.Selection{Sport: "Baseball"}, catalog.SortPlayer)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Total)
	require.Len(t, res.Cards, 2)
	assert.Equal(t, "Hank Aaron", res.Cards[0].PlayerDisplay())
	assert.Equal(t, "Mickey Mantle", res.Cards[1].PlayerDisplay())
	assert.True(t, strings.HasPrefix(res.Cards[0].Images[0].URL, "http://img.test/v1/images/"))
	assert.Equal(t, 1, res.Facets.Sport.Count("Hockey"))
}

func TestTagSuggestionsMergesDefaults(t *testing.T) {
	f := newFixture()
	seedCard(t, f, "Auto", "Error Card")

	labels, err := f.svc.TagSuggestions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Auto", "Error Card", "HOF", "Numbered", "Patch", "RC", "Refractor"}, labels)

	opts, err := f.svc.Options(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Sports, opts.Sports)
	assert.Contains(t, opts.GradingCompanies, "PSA")
	assert.Equal(t, labels, opts.Tags)
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture()
	f.events.err = errors.New("nats down")

	_, err := f.svc.CreateCard(context.Background(), owner, mantleInput())
	assert.NoError(t, err)
	assert.Len(t, f.db.cards, 1)
}

func TestDiffIDs(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	remove, add := diffIDs([]uuid.UUID{a, b}, []uuid.UUID{b, c})
	assert.Equal(t, []uuid.UUID{a}, remove)
	assert.Equal(t, []uuid.UUID{c}, add)

	remove, add = diffIDs([]uuid.UUID{a}, []uuid.UUID{a})
	assert.Empty(t, remove)
	assert.Empty(t, add)
}
