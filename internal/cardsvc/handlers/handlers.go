package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/avvvet/cardvault/internal/cardsvc/catalog"
	"github.com/avvvet/cardvault/internal/cardsvc/models"
	"github.com/avvvet/cardvault/internal/cardsvc/service"
	"github.com/avvvet/cardvault/internal/cardsvc/ws"
	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type CardService interface {
	ListCards(ctx context.Context, sel catalog.Selection, key catalog.SortKey) (catalog.Result, error)
	GetCard(ctx context.Context, id uuid.UUID) (*models.CardView, error)
	CreateCard(ctx context.Context, owner uuid.UUID, in service.CreateCardInput) (*models.Card, error)
	UpdateTagsAndNotes(ctx context.Context, owner, id uuid.UUID, tags []string, notes string) (*models.CardView, error)
	DeleteCard(ctx context.Context, owner, id uuid.UUID) error
	Players(ctx context.Context) ([]models.Player, error)
	TagSuggestions(ctx context.Context) ([]string, error)
	Options(ctx context.Context) (*service.FormOptions, error)
}

type IdentityService interface {
	SignInAnonymously(ctx context.Context) (*service.Session, error)
	CurrentUser(ctx context.Context, id uuid.UUID) (*models.Identity, error)
}

// ImageSource streams stored card photos.
type ImageSource interface {
	Open(ctx context.Context, objectPath string) (io.ReadCloser, string, error)
}

type Handler struct {
	tokenAuth  *jwtauth.JWTAuth
	cards      CardService
	identities IdentityService
	images     ImageSource
	ws         *ws.Ws
	maxUpload  int64
	port       string
}

type Options struct {
	TokenAuth      *jwtauth.JWTAuth
	Cards          CardService
	Identities     IdentityService
	Images         ImageSource
	Hub            *ws.Ws
	MaxUploadBytes int64
	Port           string
}

func NewHandler(o Options) *Handler {
	return &Handler{
		tokenAuth:  o.TokenAuth,
		cards:      o.Cards,
		identities: o.Identities,
		images:     o.Images,
		ws:         o.Hub,
		maxUpload:  o.MaxUploadBytes,
		port:       o.Port,
	}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("unable to write response: %v", err)
	}
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.CreateResponse(w, Response{
		Message: "card service is running at port " + h.port,
		Code:    http.StatusOK,
	})
}

// respondError maps service errors onto status codes.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var (
		verr *service.ValidationError
		serr *service.StepError
	)

	switch {
	case errors.As(err, &verr):
		h.CreateResponse(w, Response{Message: verr.Message, Code: http.StatusBadRequest, Error: verr.Field})
	case errors.Is(err, service.ErrPermissionDenied):
		h.CreateResponse(w, Response{
			Message: "You do not have permission to change this card.",
			Code:    http.StatusForbidden,
			Error:   err.Error(),
		})
	case errors.Is(err, service.ErrCardNotFound):
		h.CreateResponse(w, Response{Message: "Card not found.", Code: http.StatusNotFound, Error: err.Error()})
	case errors.Is(err, service.ErrUnauthenticated):
		h.CreateResponse(w, Response{Message: "Sign in required.", Code: http.StatusUnauthorized, Error: err.Error()})
	case errors.As(err, &serr):
		log.Errorf("%v", err)
		h.CreateResponse(w, Response{Message: "Save failed: " + serr.Error(), Code: http.StatusInternalServerError, Error: serr.Step})
	default:
		log.Errorf("request failed: %v", err)
		h.CreateResponse(w, Response{Message: "Something went wrong.", Code: http.StatusInternalServerError, Error: err.Error()})
	}
}

func (h *Handler) badRequest(w http.ResponseWriter, msg string, err error) {
	rsp := Response{Message: msg, Code: http.StatusBadRequest}
	if err != nil {
		rsp.Error = err.Error()
	}
	h.CreateResponse(w, rsp)
}
