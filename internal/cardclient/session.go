package cardclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/avvvet/cardvault/internal/cardsvc/models"
)

type Session struct {
	AccessToken string          `json:"access_token"`
	ExpiresAt   time.Time       `json:"expires_at"`
	User        models.Identity `json:"user"`
}

func (s *Session) valid(now time.Time) bool {
	return s != nil && s.AccessToken != "" && now.Before(s.ExpiresAt)
}

// TokenCache persists a session between process runs.
type TokenCache interface {
	Load() (*Session, error) // nil, nil when nothing is cached
	Save(s *Session) error
	Clear() error
}

// FileTokenCache keeps the session as JSON in a single file.
type FileTokenCache struct {
	Path string
}

func (f FileTokenCache) Load() (*Session, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("token file %s: %w", f.Path, err)
	}
	return &s, nil
}

func (f FileTokenCache) Save(s *Session) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, data, 0o600)
}

func (f FileTokenCache) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
