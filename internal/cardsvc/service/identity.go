package service

import (
	"context"
	"fmt"
	"time"

	"github.com/avvvet/cardvault/internal/cardsvc/models"
	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
)

// Session is what a successful sign-in hands back to the client.
type Session struct {
	AccessToken string          `json:"access_token"`
	ExpiresAt   time.Time       `json:"expires_at"`
	User        models.Identity `json:"user"`
}

type IdentityService struct {
	repo IdentityRepository
	auth *jwtauth.JWTAuth
	ttl  time.Duration
	now  func() time.Time
}

func NewIdentityService(repo IdentityRepository, auth *jwtauth.JWTAuth, ttl time.Duration) *IdentityService {
	return &IdentityService{repo: repo, auth: auth, ttl: ttl, now: time.Now}
}

// SignInAnonymously creates a fresh anonymous identity and signs a token for it.
func (s *IdentityService) SignInAnonymously(ctx context.Context) (*Session, error) {
	identity, err := s.repo.CreateAnonymous(ctx)
	if err != nil {
		return nil, fmt.Errorf("create anonymous identity: %w", err)
	}

	issued := s.now()
	expires := issued.Add(s.ttl)

	_, token, err := s.auth.Encode(map[string]interface{}{
		"sub":  identity.ID.String(),
		"anon": identity.IsAnonymous,
		"iat":  issued.Unix(),
		"exp":  expires.Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &Session{AccessToken: token, ExpiresAt: expires.UTC(), User: *identity}, nil
}

// CurrentUser returns the identity a verified token names. A token for an
// identity that is gone counts as no session at all.
func (s *IdentityService) CurrentUser(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	identity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}
	if identity == nil {
		return nil, ErrUnauthenticated
	}
	return identity, nil
}

// IdentityFromClaims pulls the identity id out of verified token claims.
func IdentityFromClaims(claims map[string]interface{}) (uuid.UUID, error) {
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return uuid.Nil, ErrUnauthenticated
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ErrUnauthenticated
	}
	return id, nil
}
