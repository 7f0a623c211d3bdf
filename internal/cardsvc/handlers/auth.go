package handlers

import (
	"context"
	"net/http"

	"github.com/avvvet/cardvault/internal/cardsvc/service"
	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
)

type ctxKey int

const identityKey ctxKey = iota

func NewTokenAuth(secret string) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", []byte(secret), nil)
}

// withIdentity runs after jwtauth.Authenticator and puts the token subject
// into the request context.
func (h *Handler) withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			h.respondError(w, service.ErrUnauthenticated)
			return
		}
		id, err := service.IdentityFromClaims(claims)
		if err != nil {
			h.respondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
	})
}

func identityFrom(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(identityKey).(uuid.UUID)
	return id
}

func (h *Handler) SignInAnonymous(w http.ResponseWriter, r *http.Request) {
	sess, err := h.identities.SignInAnonymously(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.CreateResponse(w, Response{Message: "signed in", Code: http.StatusCreated, Data: sess})
}

func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.identities.CurrentUser(r.Context(), identityFrom(r.Context()))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.CreateResponse(w, Response{Message: "ok", Code: http.StatusOK, Data: user})
}
