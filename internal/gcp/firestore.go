package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Lllllllleong/firestore-tools/internal/models"
	"github.com/Lllllllleong/firestore-tools/internal/services"
)

// ClientConfig selects the project, database and credentials used by the
// Google Cloud clients. Empty fields fall back to the library defaults
// (Application Default Credentials, detected project, "(default)" database).
type ClientConfig struct {
	ProjectID       string
	DatabaseID      string
	CredentialsFile string
}

func (c ClientConfig) options() []option.ClientOption {
	var opts []option.ClientOption
	if c.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(c.CredentialsFile))
	}
	return opts
}

// NewFirestoreClient creates and returns a new Firestore client.
// FIRESTORE_EMULATOR_HOST is honoured by the client library.
func NewFirestoreClient(ctx context.Context, cfg ClientConfig) (*firestore.Client, error) {
	projectID := cfg.ProjectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	databaseID := cfg.DatabaseID
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID, cfg.options()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return client, nil
}

// FirestoreStore implements services.DocumentStore on top of a Firestore client.
type FirestoreStore struct {
	client *firestore.Client
}

var _ services.DocumentStore = (*FirestoreStore)(nil)

// NewFirestoreStore wraps client as a services.DocumentStore. The caller
// keeps ownership of client and closes it.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

// Get implements services.DocumentStore.
func (s *FirestoreStore) Get(ctx context.Context, collectionPath, id string) (models.Document, error) {
	docRef, err := s.doc(collectionPath, id)
	if err != nil {
		return nil, err
	}
	snap, err := docRef.Get(ctx)
	if status.Code(err) == codes.NotFound || (err == nil && !snap.Exists()) {
		return nil, fmt.Errorf("%s: %w", docRef.Path, services.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", docRef.Path, err)
	}
	return snap.Data(), nil
}

// Set implements services.DocumentStore.
func (s *FirestoreStore) Set(ctx context.Context, collectionPath, id string, data models.Document) error {
	docRef, err := s.doc(collectionPath, id)
	if err != nil {
		return err
	}
	if _, err := docRef.Set(ctx, data); err != nil {
		return fmt.Errorf("failed to set %s: %w", docRef.Path, err)
	}
	return nil
}

// Create implements services.DocumentStore. The ID is generated client-side
// by NewDoc, the same way Firestore's Add does.
func (s *FirestoreStore) Create(ctx context.Context, collectionPath string, data models.Document) (string, error) {
	collRef, err := s.collection(collectionPath)
	if err != nil {
		return "", err
	}
	docRef := collRef.NewDoc()
	if _, err := docRef.Set(ctx, data); err != nil {
		return "", fmt.Errorf("failed to create document in %s: %w", collectionPath, err)
	}
	return docRef.ID, nil
}

func (s *FirestoreStore) collection(path string) (*firestore.CollectionRef, error) {
	collRef := s.client.Collection(path)
	if collRef == nil {
		return nil, fmt.Errorf("invalid collection path %q", path)
	}
	return collRef, nil
}

func (s *FirestoreStore) doc(collectionPath, id string) (*firestore.DocumentRef, error) {
	collRef, err := s.collection(collectionPath)
	if err != nil {
		return nil, err
	}
	docRef := collRef.Doc(id)
	if docRef == nil {
		return nil, fmt.Errorf("invalid document ID %q", id)
	}
	return docRef, nil
}
