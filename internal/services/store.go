package services

import (
	"context"
	"errors"

	"github.com/Lllllllleong/firestore-tools/internal/models"
)

var (
	// ErrNotFound is returned by a DocumentStore when the requested document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrParse marks an insert source that is unreadable or not a JSON array.
	ErrParse = errors.New("invalid document source")
)

// DocumentStore is the subset of a document database the tools need.
// collectionPath may be nested, e.g. "users/alice/posts".
type DocumentStore interface {
	// Get returns the data of one document, or ErrNotFound.
	Get(ctx context.Context, collectionPath, id string) (models.Document, error)
	// Set creates or replaces the document with the given ID.
	Set(ctx context.Context, collectionPath, id string, data models.Document) error
	// Create writes data under a database-generated ID and returns that ID.
	Create(ctx context.Context, collectionPath string, data models.Document) (string, error)
}
