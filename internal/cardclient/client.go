// Package cardclient talks to the card service over HTTP and keeps an
// identity token for the caller.
package cardclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/avvvet/cardvault/internal/cardsvc/models"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

type Client struct {
	baseURL string
	http    *http.Client
	cache   TokenCache
	now     func() time.Time

	mu      sync.Mutex
	session *Session

	signup singleflight.Group
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTokenCache(tc TokenCache) Option {
	return func(c *Client) { c.cache = tc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EnsureUser yields an identity before any data call. It tries the session
// held in memory, then a cached token the server still accepts, then signs
// up a new anonymous identity. Concurrent sign-ups share one request; once
// it finishes, success or not, the next caller may start another.
func (c *Client) EnsureUser(ctx context.Context) (*models.Identity, error) {
	if s := c.current(); s.valid(c.now()) {
		user := s.User
		return &user, nil
	}

	if c.cache != nil {
		cached, err := c.cache.Load()
		if err != nil {
			log.Warnf("ignoring unreadable token cache: %v", err)
		}
		if cached.valid(c.now()) {
			user, err := c.verify(ctx, cached.AccessToken)
			switch {
			case err == nil:
				cached.User = *user
				c.setSession(cached)
				return user, nil
			case errors.Is(err, ErrUnauthorized):
				_ = c.cache.Clear()
			default:
				return nil, err
			}
		}
	}

	ch := c.signup.DoChan("anonymous", func() (interface{}, error) {
		if s := c.current(); s.valid(c.now()) {
			return s, nil
		}
		return c.signUp(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		user := res.Val.(*Session).User
		return &user, nil
	}
}

// Token returns the access token, signing in first when needed.
func (c *Client) Token(ctx context.Context) (string, error) {
	if _, err := c.EnsureUser(ctx); err != nil {
		return "", err
	}
	return c.current().AccessToken, nil
}

// SignOut forgets the session locally and in the cache.
func (c *Client) SignOut() error {
	c.setSession(nil)
	if c.cache != nil {
		return c.cache.Clear()
	}
	return nil
}

func (c *Client) current() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Client) setSession(s *Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

func (c *Client) signUp(ctx context.Context) (*Session, error) {
	var s Session
	if err := c.call(ctx, http.MethodPost, "/v1/auth/anonymous", "", nil, "", &s); err != nil {
		return nil, fmt.Errorf("anonymous sign-in: %w", err)
	}
	c.setSession(&s)
	if c.cache != nil {
		if err := c.cache.Save(&s); err != nil {
			log.Warnf("unable to cache session: %v", err)
		}
	}
	return &s, nil
}

func (c *Client) verify(ctx context.Context, token string) (*models.Identity, error) {
	var user models.Identity
	if err := c.call(ctx, http.MethodGet, "/v1/auth/user", token, nil, "", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

type envelope struct {
	Message string          `json:"message"`
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// authed runs a request with the caller's token.
func (c *Client) authed(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	token, err := c.Token(ctx)
	if err != nil {
		return err
	}
	return c.call(ctx, method, path, token, body, contentType, out)
}

func (c *Client) call(ctx context.Context, method, path, token string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var env envelope
	jsonErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if jsonErr == nil {
			apiErr.Message, apiErr.Detail = env.Message, env.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}
	if jsonErr != nil {
		return fmt.Errorf("decode response: %w", jsonErr)
	}
	if out == nil || len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
