// Package memblob is an in-process blob.Client with the same versioning
// semantics as the remote backends. Versions are the hex SHA-256 of the
// content, so like git blob hashes they are content identities.
package memblob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/bonuskeeper/internal/blob"
	"github.com/dmitrijs2005/bonuskeeper/internal/common"
)

// Commit is one accepted write.
type Commit struct {
	Version blob.Version
	Message string
}

type object struct {
	content []byte
	version blob.Version
	history []Commit
}

// Store is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	objects map[string]*object
}

func New() *Store {
	return &Store{objects: make(map[string]*object)}
}

var _ blob.Client = (*Store)(nil)

func (s *Store) Get(ctx context.Context, path string) (blob.Object, error) {
	if err := ctx.Err(); err != nil {
		return blob.Object{}, common.Transport(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.objects[path]
	if !ok {
		return blob.Object{}, fmt.Errorf("memblob: %s: %w", path, common.ErrNotFound)
	}
	return blob.Object{Content: append([]byte(nil), o.content...), Version: o.version}, nil
}

func (s *Store) Put(ctx context.Context, path string, content []byte, version blob.Version, message string) (blob.Version, error) {
	if err := ctx.Err(); err != nil {
		return "", common.Transport(err)
	}
	if err := blob.CheckMessage(message); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	o, exists := s.objects[path]
	switch {
	case version == "" && exists:
		return "", fmt.Errorf("memblob: %s: %w", path, common.ErrAlreadyExists)
	case version != "" && !exists:
		return "", fmt.Errorf("memblob: %s: %w", path, common.ErrConflict)
	case version != "" && o.version != version:
		return "", fmt.Errorf("memblob: %s at %s, not %s: %w", path, o.version, version, common.ErrConflict)
	}

	if o == nil {
		o = &object{}
		s.objects[path] = o
	}
	o.content = append([]byte(nil), content...)
	o.version = hash(content)
	o.history = append(o.history, Commit{Version: o.version, Message: message})
	return o.version, nil
}

// History returns the accepted writes for path, oldest first.
func (s *Store) History(path string) []Commit {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.objects[path]
	if !ok {
		return nil
	}
	return append([]Commit(nil), o.history...)
}

func hash(content []byte) blob.Version {
	sum := sha256.Sum256(content)
	return blob.Version(hex.EncodeToString(sum[:]))
}
