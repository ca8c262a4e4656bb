package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"github.com/Lllllllleong/firestore-tools/internal/services"
)

const gcsScheme = "gs://"

// NewStorageClient creates a Cloud Storage client with the same credentials
// as the Firestore client.
func NewStorageClient(ctx context.Context, cfg ClientConfig) (*storage.Client, error) {
	client, err := storage.NewClient(ctx, cfg.options()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return client, nil
}

// IsGCSURI reports whether path uses the gs:// scheme.
func IsGCSURI(path string) bool {
	return strings.HasPrefix(path, gcsScheme)
}

// ParseGCSURI splits gs://bucket/object into its bucket and object name.
func ParseGCSURI(uri string) (bucket, object string, ok bool) {
	if !IsGCSURI(uri) {
		return "", "", false
	}
	bucket, object, found := strings.Cut(strings.TrimPrefix(uri, gcsScheme), "/")
	if !found || bucket == "" || object == "" {
		return "", "", false
	}
	return bucket, object, true
}

// ObjectExists checks whether the object named by a gs:// URI exists.
func ObjectExists(ctx context.Context, client *storage.Client, uri string) (bool, error) {
	bucket, object, ok := ParseGCSURI(uri)
	if !ok {
		return false, fmt.Errorf("invalid GCS URI %q", uri)
	}
	_, err := client.Bucket(bucket).Object(object).Attrs(ctx)
	if isNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", uri, err)
	}
	return true, nil
}

// NewSourceOpener returns a services.SourceOpener that reads gs:// URIs from
// Cloud Storage and everything else from the local filesystem. A nil client
// restricts it to local files.
func NewSourceOpener(client *storage.Client) services.SourceOpener {
	return func(ctx context.Context, path string) (io.ReadCloser, error) {
		if !IsGCSURI(path) {
			return services.OpenLocalFile(ctx, path)
		}
		if client == nil {
			return nil, fmt.Errorf("no storage client configured for %s", path)
		}
		bucket, object, ok := ParseGCSURI(path)
		if !ok {
			return nil, fmt.Errorf("invalid GCS URI %q", path)
		}
		reader, err := client.Bucket(bucket).Object(object).NewReader(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get GCS object reader for %s: %w", path, err)
		}
		return reader, nil
	}
}

func isNotExist(err error) bool {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return true
	}
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
