package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Lllllllleong/firestore-tools/internal/models"
)

// Duplicator copies one document into new documents of the same collection.
type Duplicator struct {
	store  DocumentStore
	out    io.Writer
	errOut io.Writer
	now    func() time.Time
}

// DuplicatorOption customises a Duplicator.
type DuplicatorOption func(*Duplicator)

// WithClock replaces the wall clock used to build document IDs.
func WithClock(now func() time.Time) DuplicatorOption {
	return func(d *Duplicator) { d.now = now }
}

// NewDuplicator creates a Duplicator writing progress lines to out and
// error reports to errOut.
func NewDuplicator(store DocumentStore, out, errOut io.Writer, opts ...DuplicatorOption) *Duplicator {
	d := &Duplicator{store: store, out: out, errOut: errOut, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Process runs req.Count duplications in order. A missing source document
// skips that iteration only; any other read or write error stops the run.
func (d *Duplicator) Process(ctx context.Context, req *models.DuplicateRequest) (*models.DuplicateResult, error) {
	if req.Count < 1 {
		return nil, fmt.Errorf("number of duplicates must be positive, got %d", req.Count)
	}
	logCtx := slog.With("collection", req.CollectionPath, "sourceDocId", req.SourceDocID)
	logCtx.Info("Starting duplication.", "count", req.Count)
	fmt.Fprintf(d.out, "Starting duplication of %d document(s)...\n\n", req.Count)

	result := &models.DuplicateResult{Requested: req.Count, Created: []string{}}
	for i := 0; i < req.Count; i++ {
		newID := NewDocID(req, i, d.now())
		createdID, err := d.duplicateOnce(ctx, logCtx, req, newID)
		switch {
		case errors.Is(err, ErrNotFound):
			result.Missing++
		case err != nil:
			return result, err
		default:
			result.Created = append(result.Created, createdID)
		}
		if i < req.Count-1 {
			fmt.Fprintln(d.out)
		}
	}

	logCtx.Info("Duplication complete.", "created", len(result.Created), "missing", result.Missing)
	fmt.Fprintf(d.out, "\nCompleted %d duplication(s): %d created", req.Count, len(result.Created))
	if result.Missing > 0 {
		fmt.Fprintf(d.out, ", %d skipped (source missing)", result.Missing)
	}
	fmt.Fprintln(d.out)
	return result, nil
}

// duplicateOnce copies the source into newID, or into an auto-generated ID
// when newID is empty. It returns ErrNotFound, already reported, when the
// source does not exist.
func (d *Duplicator) duplicateOnce(ctx context.Context, logCtx *slog.Logger, req *models.DuplicateRequest, newID string) (string, error) {
	data, err := d.store.Get(ctx, req.CollectionPath, req.SourceDocID)
	if errors.Is(err, ErrNotFound) {
		logCtx.Error("Source document does not exist.")
		fmt.Fprintf(d.errOut, "Document %s does not exist in %s\n", req.SourceDocID, req.CollectionPath)
		return "", err
	}
	if err != nil {
		logCtx.Error("Failed to read source document", "error", err)
		return "", fmt.Errorf("failed to read %s/%s: %w", req.CollectionPath, req.SourceDocID, err)
	}

	if newID == "" {
		newID, err = d.store.Create(ctx, req.CollectionPath, data)
	} else {
		err = d.store.Set(ctx, req.CollectionPath, newID, data)
	}
	if err != nil {
		logCtx.Error("Failed to write duplicate", "error", err, "targetDocId", newID)
		return "", fmt.Errorf("failed to write duplicate of %s/%s: %w", req.CollectionPath, req.SourceDocID, err)
	}

	logCtx.Debug("Duplicated document.", "targetDocId", newID)
	fmt.Fprintln(d.out, "✓ Successfully duplicated document!")
	fmt.Fprintf(d.out, "  Source: %s/%s\n", req.CollectionPath, req.SourceDocID)
	fmt.Fprintf(d.out, "  Copy: %s/%s\n", req.CollectionPath, newID)
	return newID, nil
}

// NewDocID builds the destination ID for iteration index (0-based). It
// returns "" when neither prefix nor postfix is set, meaning the database
// should assign the ID. Otherwise the ID is
// [prefix_]source[_postfix]_<unix millis>, with _<index+1> appended when
// more than one copy is requested.
func NewDocID(req *models.DuplicateRequest, index int, now time.Time) string {
	prefix := strings.TrimSpace(req.Prefix)
	postfix := strings.TrimSpace(req.Postfix)
	if prefix == "" && postfix == "" {
		return ""
	}

	parts := make([]string, 0, 5)
	if prefix != "" {
		parts = append(parts, prefix)
	}
	parts = append(parts, req.SourceDocID)
	if postfix != "" {
		parts = append(parts, postfix)
	}
	parts = append(parts, strconv.FormatInt(now.UnixMilli(), 10))
	if req.Count > 1 {
		parts = append(parts, strconv.Itoa(index+1))
	}
	return strings.Join(parts, "_")
}
