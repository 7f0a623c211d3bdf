package cardclient

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/avvvet/cardvault/internal/cardsvc/catalog"
	"github.com/avvvet/cardvault/internal/cardsvc/models"
	"github.com/google/uuid"
)

// CardForm is the add-card form. Fields are sent as typed; the server
// validates them.
type CardForm struct {
	PlayerID       *uuid.UUID
	PlayerName     string
	Sport          string
	Brand          string
	Year           string
	CardNo         string
	IsGraded       bool
	GradingCompany string
	GradingNo      string
	Grade          string
	Tags           []string
	Notes          string

	Images  []ImageFile
	Primary int // index into Images
}

type ImageFile struct {
	Name string
	Data []byte
	Crop string // "x,y,width,height" or empty
}

type FormOptions struct {
	Sports           []string `json:"sports"`
	Brands           []string `json:"brands"`
	GradingCompanies []string `json:"grading_companies"`
	Tags             []string `json:"tags"`
}

func (c *Client) ListCards(ctx context.Context, sel catalog.Selection, key catalog.SortKey) (*catalog.Result, error) {
	q := sel.Values()
	if key != "" {
		q.Set("sort", string(key))
	}
	path := "/v1/cards"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var res catalog.Result
	if err := c.authed(ctx, http.MethodGet, path, nil, "", &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) GetCard(ctx context.Context, id uuid.UUID) (*models.CardView, error) {
	var card models.CardView
	if err := c.authed(ctx, http.MethodGet, "/v1/cards/"+id.String(), nil, "", &card); err != nil {
		return nil, err
	}
	return &card, nil
}

func (c *Client) CreateCard(ctx context.Context, form CardForm) (*models.Card, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"player_name", form.PlayerName},
		{"sport", form.Sport},
		{"brand", form.Brand},
		{"year", form.Year},
		{"card_no", form.CardNo},
		{"is_graded", strconv.FormatBool(form.IsGraded)},
		{"grading_company", form.GradingCompany},
		{"grading_no", form.GradingNo},
		{"grade", form.Grade},
		{"notes", form.Notes},
		{"primary", strconv.Itoa(form.Primary)},
	}
	if form.PlayerID != nil {
		fields = append(fields, [2]string{"player_id", form.PlayerID.String()})
	}
	for _, t := range form.Tags {
		fields = append(fields, [2]string{"tags", t})
	}
	for _, img := range form.Images {
		fields = append(fields, [2]string{"crop", img.Crop})
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, err
		}
	}

	for _, img := range form.Images {
		fw, err := mw.CreateFormFile("images", img.Name)
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(img.Data); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var card models.Card
	if err := c.authed(ctx, http.MethodPost, "/v1/cards", &buf, mw.FormDataContentType(), &card); err != nil {
		return nil, err
	}
	return &card, nil
}

func (c *Client) UpdateTags(ctx context.Context, id uuid.UUID, tags []string, notes string) (*models.CardView, error) {
	body, err := json.Marshal(map[string]interface{}{"tags": tags, "notes": notes})
	if err != nil {
		return nil, err
	}
	var card models.CardView
	if err := c.authed(ctx, http.MethodPut, "/v1/cards/"+id.String()+"/tags", bytes.NewReader(body), "application/json", &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// DeleteCard fails with an error matching ErrPermissionDenied when the card
// belongs to someone else.
func (c *Client) DeleteCard(ctx context.Context, id uuid.UUID) error {
	return c.authed(ctx, http.MethodDelete, "/v1/cards/"+id.String(), nil, "", nil)
}

func (c *Client) Players(ctx context.Context) ([]models.Player, error) {
	var players []models.Player
	err := c.authed(ctx, http.MethodGet, "/v1/players", nil, "", &players)
	return players, err
}

func (c *Client) Tags(ctx context.Context) ([]string, error) {
	var tags []string
	err := c.authed(ctx, http.MethodGet, "/v1/tags", nil, "", &tags)
	return tags, err
}

func (c *Client) Options(ctx context.Context) (*FormOptions, error) {
	var opts FormOptions
	if err := c.call(ctx, http.MethodGet, "/v1/options", "", nil, "", &opts); err != nil {
		return nil, err
	}
	return &opts, nil
}

// Me asks the server which identity the current token names.
func (c *Client) Me(ctx context.Context) (*models.Identity, error) {
	var user models.Identity
	if err := c.authed(ctx, http.MethodGet, "/v1/auth/user", nil, "", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

