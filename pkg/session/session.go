// Package session keeps the last pipeline result of each caller so it can be
// rendered again without re-running the query.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/cinegraph/backend/pkg/common"

	lru "github.com/hashicorp/golang-lru"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// DefaultMaxSessions bounds the number of sessions kept in memory.
const DefaultMaxSessions = 1024

// ErrNotFound is returned for a session that was never stored or has been
// evicted.
var ErrNotFound = errors.New("session not found")

// Entry is the last result stored for a session.
type Entry struct {
	Question          string
	CorrectedQuestion string
	Query             string
	Records           []common.Record
	UpdatedAt         time.Time
}

// Store maps session ids to their last entry. The least recently used
// session is evicted once the store is full. Store is safe for concurrent use.
type Store struct {
	cache *lru.Cache
}

// NewStore creates a store holding at most size sessions. A non-positive size
// uses DefaultMaxSessions.
func NewStore(size int) (*Store, error) {
	if size <= 0 {
		size = DefaultMaxSessions
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create session cache: %w", err)
	}
	return &Store{cache: cache}, nil
}

// NewID returns a fresh random session id.
func NewID() (string, error) {
	return gonanoid.New()
}

// Put replaces the entry of id.
func (s *Store) Put(id string, e Entry) {
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now()
	}
	s.cache.Add(id, e)
}

// Get returns the entry of id and marks the session as recently used.
func (s *Store) Get(id string) (Entry, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return Entry{}, ErrNotFound
	}
	return v.(Entry), nil
}

// Delete forgets id.
func (s *Store) Delete(id string) {
	s.cache.Remove(id)
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	return s.cache.Len()
}
