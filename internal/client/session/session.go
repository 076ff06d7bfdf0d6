// Package session caches the logged-in user between client runs. The cache
// is only a hint for which username to restore; balances are always read
// back from the document store.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dmitrijs2005/bonuskeeper/internal/filex"
)

type Session struct {
	Username string `json:"username"`
	Bonuses  int64  `json:"bonuses"`
	UserID   string `json:"userId"`
}

// Store persists one Session as JSON. A Store with an empty path does
// nothing.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the cached session, or nil if there is none.
func (s *Store) Load() (*Session, error) {
	if s.path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil || sess.Username == "" {
		return nil, nil
	}
	return &sess, nil
}

func (s *Store) Save(sess Session) error {
	if s.path == "" {
		return nil
	}
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if err := filex.WriteFileAtomic(s.path, b, 0o600); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	return nil
}

func (s *Store) Clear() error {
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("session: %w", err)
	}
	return nil
}
