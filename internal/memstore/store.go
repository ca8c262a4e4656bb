// Package memstore is an in-memory services.DocumentStore used for dry
// runs and tests.
package memstore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Lllllllleong/firestore-tools/internal/models"
	"github.com/Lllllllleong/firestore-tools/internal/services"
)

// autoIDLength matches the length of Firestore auto-generated IDs.
const autoIDLength = 20

// Store keeps documents per collection path.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]models.Document
	failures    map[string]error
	createErr   error
	base        services.DocumentStore
}

var _ services.DocumentStore = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		collections: make(map[string]map[string]models.Document),
		failures:    make(map[string]error),
	}
}

// NewOverlay returns a Store that reads through to base for documents it
// does not hold itself. Writes never reach base.
func NewOverlay(base services.DocumentStore) *Store {
	s := New()
	s.base = base
	return s
}

// Seed stores data under id without any failure injection.
func (s *Store) Seed(collectionPath, id string, data models.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(collectionPath, id, data)
}

// FailOn makes every Get or Set of collectionPath/id return err.
func (s *Store) FailOn(collectionPath, id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[key(collectionPath, id)] = err
}

// FailCreates makes every auto-ID write return err.
func (s *Store) FailCreates(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createErr = err
}

// Get implements services.DocumentStore.
func (s *Store) Get(ctx context.Context, collectionPath, id string) (models.Document, error) {
	s.mu.RLock()
	if err := s.failures[key(collectionPath, id)]; err != nil {
		s.mu.RUnlock()
		return nil, err
	}
	doc, ok := s.collections[collectionPath][id]
	if ok {
		doc = copyValue(doc).(models.Document)
	}
	s.mu.RUnlock()

	if ok {
		return doc, nil
	}
	if s.base != nil {
		return s.base.Get(ctx, collectionPath, id)
	}
	return nil, fmt.Errorf("%s/%s: %w", collectionPath, id, services.ErrNotFound)
}

// Set implements services.DocumentStore.
func (s *Store) Set(_ context.Context, collectionPath, id string, data models.Document) error {
	if id == "" {
		return fmt.Errorf("document ID must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures[key(collectionPath, id)]; err != nil {
		return err
	}
	s.put(collectionPath, id, data)
	return nil
}

// Create implements services.DocumentStore.
func (s *Store) Create(_ context.Context, collectionPath string, data models.Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return "", s.createErr
	}
	id := NewAutoID()
	s.put(collectionPath, id, data)
	return id, nil
}

// Documents returns a copy of every document in collectionPath keyed by ID.
func (s *Store) Documents(collectionPath string) map[string]models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.Document, len(s.collections[collectionPath]))
	for id, doc := range s.collections[collectionPath] {
		out[id] = copyValue(doc).(models.Document)
	}
	return out
}

// Len returns the number of documents in collectionPath.
func (s *Store) Len(collectionPath string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collectionPath])
}

func (s *Store) put(collectionPath, id string, data models.Document) {
	coll, ok := s.collections[collectionPath]
	if !ok {
		coll = make(map[string]models.Document)
		s.collections[collectionPath] = coll
	}
	coll[id] = copyValue(data).(models.Document)
}

// NewAutoID returns a random document ID of 20 lowercase hexadecimal
// characters taken from a version 4 UUID.
func NewAutoID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return id[:autoIDLength]
}

func key(collectionPath, id string) string {
	return collectionPath + "/" + id
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = copyValue(elem)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = copyValue(elem)
		}
		return out
	default:
		return v
	}
}
