// Package memstore implements the docstore backend in process memory.
// It backs single-node deployments without PostgreSQL and the test suite.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/docegestao/docegestao/internal/domain"
	"github.com/docegestao/docegestao/internal/port/docstore"
)

// Store is a mutex-guarded path → document map.
type Store struct {
	mu   sync.RWMutex
	docs map[string]docstore.Document
	now  func() time.Time
}

// New creates an empty in-memory document store.
func New() *Store {
	return &Store{docs: make(map[string]docstore.Document), now: time.Now}
}

// Get returns the document at path, or domain.ErrNotFound.
func (s *Store) Get(_ context.Context, path string) (*docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[path]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", path, domain.ErrNotFound)
	}
	return &doc, nil
}

// Set merge-writes the top-level fields of data over any existing document
// and stamps the modification time and acting principal.
func (s *Store) Set(_ context.Context, path string, data json.RawMessage, modifiedBy string) (*docstore.Document, error) {
	var incoming map[string]json.RawMessage
	if err := json.Unmarshal(data, &incoming); err != nil {
		return nil, fmt.Errorf("set %s: decode: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := incoming
	if existing, ok := s.docs[path]; ok {
		var current map[string]json.RawMessage
		if err := json.Unmarshal(existing.Data, &current); err == nil {
			for k, v := range incoming {
				current[k] = v
			}
			merged = current
		}
	}

	out, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("set %s: encode: %w", path, err)
	}

	doc := docstore.Document{
		Path:       path,
		Data:       out,
		UpdatedAt:  s.now(),
		ModifiedBy: modifiedBy,
	}
	s.docs[path] = doc
	return &doc, nil
}

// Delete removes the document at path. Missing documents are a no-op.
func (s *Store) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, path)
	return nil
}

// List returns all documents under prefix, path-ordered.
func (s *Store) List(_ context.Context, prefix string) ([]docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []docstore.Document
	for path, doc := range s.docs {
		if strings.HasPrefix(path, prefix) {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
