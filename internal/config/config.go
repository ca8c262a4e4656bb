// Package config loads the tool's settings from the environment and an
// optional .env file, and validates them before any work starts.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/Lllllllleong/firestore-tools/internal/gcp"
	"github.com/Lllllllleong/firestore-tools/internal/models"
)

// ErrConfig wraps every configuration problem.
var ErrConfig = errors.New("configuration error")

// LoadEnvFile loads KEY=value pairs from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: failed to load %s: %v", ErrConfig, path, err)
	}
	return nil
}

// Firestore holds the connection settings shared by every command.
type Firestore struct {
	ProjectID       string `env:"PROJECT_ID"`
	DatabaseID      string `env:"DATABASE_ID" envDefault:"(default)"`
	CredentialsFile string `env:"CREDENTIALS_FILE"`
}

// ClientConfig converts the settings for the gcp client constructors.
func (f Firestore) ClientConfig() gcp.ClientConfig {
	return gcp.ClientConfig{
		ProjectID:       f.ProjectID,
		DatabaseID:      f.DatabaseID,
		CredentialsFile: f.CredentialsFile,
	}
}

// Duplicate configures the duplicate command.
type Duplicate struct {
	Firestore
	CollectionPath string `env:"COLLECTION_PATH"`
	SourceDocID    string `env:"SOURCE_DOC_ID"`
	Prefix         string `env:"PREFIX"`
	Postfix        string `env:"POSTFIX"`
	// NumOfDuplicatesRaw is kept as text so an empty value means the default.
	NumOfDuplicatesRaw string `env:"NUM_OF_DUPLICATES" envDefault:"1"`
	// NumOfDuplicates is set by Validate.
	NumOfDuplicates int
}

// LoadDuplicate parses and validates the duplicate settings.
func LoadDuplicate(opts ...env.Options) (*Duplicate, error) {
	cfg := &Duplicate{}
	if err := env.Parse(cfg, opts...); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings and normalises optional ones.
func (c *Duplicate) Validate() error {
	c.CollectionPath = strings.TrimSpace(c.CollectionPath)
	c.SourceDocID = strings.TrimSpace(c.SourceDocID)
	c.Prefix = strings.TrimSpace(c.Prefix)
	c.Postfix = strings.TrimSpace(c.Postfix)

	if c.CollectionPath == "" || c.SourceDocID == "" {
		return fmt.Errorf("%w: COLLECTION_PATH and SOURCE_DOC_ID must be set", ErrConfig)
	}
	if err := validateCollectionPath(c.CollectionPath); err != nil {
		return err
	}
	if strings.Contains(c.SourceDocID, "/") {
		return fmt.Errorf("%w: SOURCE_DOC_ID %q must not contain '/'", ErrConfig, c.SourceDocID)
	}
	raw := strings.TrimSpace(c.NumOfDuplicatesRaw)
	if raw == "" {
		raw = "1"
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fmt.Errorf("%w: NUM_OF_DUPLICATES must be a positive number, got %q", ErrConfig, c.NumOfDuplicatesRaw)
	}
	c.NumOfDuplicates = n
	return nil
}

// Request builds the service request from validated settings.
func (c *Duplicate) Request() *models.DuplicateRequest {
	return &models.DuplicateRequest{
		CollectionPath: c.CollectionPath,
		SourceDocID:    c.SourceDocID,
		Count:          c.NumOfDuplicates,
		Prefix:         c.Prefix,
		Postfix:        c.Postfix,
	}
}

// Insert configures the insert command.
type Insert struct {
	Firestore
	CollectionPath string `env:"COLLECTION_PATH"`
	JSONFilePath   string `env:"JSON_FILE_PATH"`
	// UseSlugAsIDRaw is kept as text: only the exact value "false" disables it.
	UseSlugAsIDRaw string `env:"USE_SLUG_AS_ID" envDefault:"true"`
}

// LoadInsert parses and validates the insert settings.
func LoadInsert(opts ...env.Options) (*Insert, error) {
	cfg := &Insert{}
	if err := env.Parse(cfg, opts...); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UseSlugAsID reports whether documents with a slug are stored under it.
func (c *Insert) UseSlugAsID() bool {
	return strings.TrimSpace(c.UseSlugAsIDRaw) != "false"
}

// Validate checks required settings, resolves JSONFilePath against the
// working directory and makes sure a local file exists. gs:// URIs are
// checked by the caller once a storage client is available.
func (c *Insert) Validate() error {
	c.CollectionPath = strings.TrimSpace(c.CollectionPath)
	c.JSONFilePath = strings.TrimSpace(c.JSONFilePath)

	if c.CollectionPath == "" || c.JSONFilePath == "" {
		return fmt.Errorf("%w: COLLECTION_PATH and JSON_FILE_PATH must be set", ErrConfig)
	}
	if err := validateCollectionPath(c.CollectionPath); err != nil {
		return err
	}
	if gcp.IsGCSURI(c.JSONFilePath) {
		if _, _, ok := gcp.ParseGCSURI(c.JSONFilePath); !ok {
			return fmt.Errorf("%w: JSON_FILE_PATH %q is not a valid gs://bucket/object URI", ErrConfig, c.JSONFilePath)
		}
		return nil
	}

	abs, err := filepath.Abs(c.JSONFilePath)
	if err != nil {
		return fmt.Errorf("%w: failed to resolve JSON_FILE_PATH: %v", ErrConfig, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("%w: JSON file not found: %s", ErrConfig, abs)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: JSON file is a directory: %s", ErrConfig, abs)
	}
	c.JSONFilePath = abs
	return nil
}

// Request builds the service request from validated settings.
func (c *Insert) Request() *models.InsertRequest {
	return &models.InsertRequest{
		CollectionPath: c.CollectionPath,
		JSONFilePath:   c.JSONFilePath,
		UseSlugAsID:    c.UseSlugAsID(),
	}
}

// validateCollectionPath accepts "coll" or "coll/doc/coll"-style paths:
// non-empty segments, odd in number.
func validateCollectionPath(path string) error {
	segments := strings.Split(path, "/")
	for _, s := range segments {
		if s == "" {
			return fmt.Errorf("%w: COLLECTION_PATH %q has an empty segment", ErrConfig, path)
		}
	}
	if len(segments)%2 == 0 {
		return fmt.Errorf("%w: COLLECTION_PATH %q points at a document, not a collection", ErrConfig, path)
	}
	return nil
}
