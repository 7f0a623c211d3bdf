package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/avvvet/cardvault/internal/cardsvc/catalog"
	"github.com/avvvet/cardvault/internal/cardsvc/imaging"
	"github.com/avvvet/cardvault/internal/cardsvc/service"
	"github.com/go-chi/chi"
	"github.com/google/uuid"
)

func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sel, err := catalog.ParseSelection(q)
	if err != nil {
		h.badRequest(w, "invalid filter", err)
		return
	}
	key, err := catalog.ParseSortKey(q.Get("sort"))
	if err != nil {
		h.badRequest(w, "invalid sort", err)
		return
	}

	res, err := h.cards.ListCards(r.Context(), sel, key)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.CreateResponse(w, Response{Message: "ok", Code: http.StatusOK, Data: res})
}

func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	id, ok := h.cardID(w, r)
	if !ok {
		return
	}
	card, err := h.cards.GetCard(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.CreateResponse(w, Response{Message: "ok", Code: http.StatusOK, Data: card})
}

// CreateCard takes a multipart form. Files go in "images"; the optional
// "crop" values ("x,y,w,h", or empty) line up with them by position and
// "primary" holds the index of the primary image.
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		h.badRequest(w, "invalid upload", err)
		return
	}

	in := service.CreateCardInput{
		PlayerName:     r.FormValue("player_name"),
		Sport:          r.FormValue("sport"),
		Brand:          r.FormValue("brand"),
		Year:           r.FormValue("year"),
		CardNo:         r.FormValue("card_no"),
		IsGraded:       formBool(r.FormValue("is_graded")),
		GradingCompany: r.FormValue("grading_company"),
		GradingNo:      r.FormValue("grading_no"),
		Grade:          r.FormValue("grade"),
		Tags:           splitTags(r.MultipartForm.Value["tags"]),
		Notes:          r.FormValue("notes"),
	}

	if raw := strings.TrimSpace(r.FormValue("player_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.badRequest(w, "invalid player_id", err)
			return
		}
		in.PlayerID = &id
	}

	primary := -1
	if raw := strings.TrimSpace(r.FormValue("primary")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.badRequest(w, "invalid primary index", err)
			return
		}
		primary = n
	}

	crops := r.MultipartForm.Value["crop"]
	for i, fh := range r.MultipartForm.File["images"] {
		f, err := fh.Open()
		if err != nil {
			h.badRequest(w, "unreadable image", err)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			h.badRequest(w, "unreadable image", err)
			return
		}

		img := service.ImageUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
			IsPrimary:   i == primary,
		}
		if i < len(crops) {
			rect, err := imaging.ParseRect(crops[i])
			if err != nil {
				h.badRequest(w, fmt.Sprintf("invalid crop for image %d", i+1), err)
				return
			}
			img.Crop = rect
		}
		in.Images = append(in.Images, img)
	}

	card, err := h.cards.CreateCard(r.Context(), identityFrom(r.Context()), in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.CreateResponse(w, Response{Message: "card created", Code: http.StatusCreated, Data: card})
}

type updateTagsRequest struct {
	Tags  []string `json:"tags"`
	Notes string   `json:"notes"`
}

func (h *Handler) UpdateTags(w http.ResponseWriter, r *http.Request) {
	id, ok := h.cardID(w, r)
	if !ok {
		return
	}

	var req updateTagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid request body", err)
		return
	}

	card, err := h.cards.UpdateTagsAndNotes(r.Context(), identityFrom(r.Context()), id, req.Tags, req.Notes)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.CreateResponse(w, Response{Message: "card updated", Code: http.StatusOK, Data: card})
}

func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	id, ok := h.cardID(w, r)
	if !ok {
		return
	}
	if err := h.cards.DeleteCard(r.Context(), identityFrom(r.Context()), id); err != nil {
		h.respondError(w, err)
		return
	}
	h.CreateResponse(w, Response{Message: "card deleted", Code: http.StatusOK})
}

func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.cards.Players(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.CreateResponse(w, Response{Message: "ok", Code: http.StatusOK, Data: players})
}

func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.cards.TagSuggestions(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.CreateResponse(w, Response{Message: "ok", Code: http.StatusOK, Data: tags})
}

func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	opts, err := h.cards.Options(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.CreateResponse(w, Response{Message: "ok", Code: http.StatusOK, Data: opts})
}

func (h *Handler) cardID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.badRequest(w, "invalid card id", err)
		return uuid.Nil, false
	}
	return id, true
}

func formBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// splitTags accepts repeated "tags" fields, each of which may also be a
// comma list.
func splitTags(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, strings.Split(v, ",")...)
	}
	return out
}
