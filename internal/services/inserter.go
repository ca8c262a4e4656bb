package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Lllllllleong/firestore-tools/internal/models"
	"github.com/Lllllllleong/firestore-tools/internal/timestamps"
)

// SourceOpener opens the JSON document source named by path.
type SourceOpener func(ctx context.Context, path string) (io.ReadCloser, error)

// OpenLocalFile is the default SourceOpener.
func OpenLocalFile(_ context.Context, path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// Inserter writes documents from a JSON array into a collection.
type Inserter struct {
	store  DocumentStore
	out    io.Writer
	errOut io.Writer
	open   SourceOpener
}

// NewInserter creates an Inserter writing progress lines to out and
// per-document failures to errOut. A nil open falls back to OpenLocalFile.
func NewInserter(store DocumentStore, out, errOut io.Writer, open SourceOpener) *Inserter {
	if open == nil {
		open = OpenLocalFile
	}
	return &Inserter{store: store, out: out, errOut: errOut, open: open}
}

// Process reads req.JSONFilePath and inserts every document in it. An
// unreadable or malformed source fails the whole run before any write;
// a failure on a single document is counted and the run continues.
func (ins *Inserter) Process(ctx context.Context, req *models.InsertRequest) (*models.InsertSummary, error) {
	logCtx := slog.With("collection", req.CollectionPath, "source", req.JSONFilePath)

	docs, err := ins.load(ctx, req.JSONFilePath)
	if err != nil {
		logCtx.Error("Error reading or parsing JSON file", "error", err)
		return nil, err
	}
	logCtx.Info("Starting insertion.", "documentCount", len(docs), "useSlugAsId", req.UseSlugAsID)
	fmt.Fprintf(ins.out, "Found %d document(s) to insert\n\n", len(docs))

	return ins.insertAll(ctx, logCtx, req, docs), nil
}

func (ins *Inserter) load(ctx context.Context, path string) ([]any, error) {
	rc, err := ins.open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %v", ErrParse, path, err)
	}
	defer rc.Close()

	docs, err := ParseDocuments(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return docs, nil
}

func (ins *Inserter) insertAll(ctx context.Context, logCtx *slog.Logger, req *models.InsertRequest, docs []any) *models.InsertSummary {
	summary := &models.InsertSummary{Total: len(docs), Inserted: []models.InsertedDocument{}}

	for i, raw := range docs {
		position := fmt.Sprintf("[%d/%d]", i+1, len(docs))

		id, title, err := ins.insertOne(ctx, req, raw)
		if err != nil {
			summary.ErrorCount++
			slug := slugOf(raw)
			logCtx.Error("Error inserting document", "error", err, "index", i, "slug", slug)
			fmt.Fprintf(ins.errOut, "✗ %s Error inserting document: %v\n", position, err)
			if slug != "" {
				fmt.Fprintf(ins.errOut, "  Slug: %s\n", slug)
			}
			fmt.Fprintln(ins.errOut)
			continue
		}

		summary.SuccessCount++
		summary.Inserted = append(summary.Inserted, models.InsertedDocument{Index: i, ID: id, Title: title})
		fmt.Fprintf(ins.out, "✓ %s Successfully inserted document\n", position)
		fmt.Fprintf(ins.out, "  ID: %s\n", id)
		if title != "" {
			fmt.Fprintf(ins.out, "  Title: %s\n", title)
		}
		fmt.Fprintln(ins.out)
	}

	logCtx.Info("Insertion complete.", "successCount", summary.SuccessCount, "errorCount", summary.ErrorCount, "total", summary.Total)
	fmt.Fprintln(ins.out, strings.Repeat("=", 50))
	fmt.Fprintln(ins.out, "Summary:")
	fmt.Fprintf(ins.out, "  Successfully inserted: %d\n", summary.SuccessCount)
	fmt.Fprintf(ins.out, "  Errors: %d\n", summary.ErrorCount)
	fmt.Fprintf(ins.out, "  Total: %d\n", summary.Total)
	return summary
}

func (ins *Inserter) insertOne(ctx context.Context, req *models.InsertRequest, raw any) (id, title string, err error) {
	doc, ok := raw.(map[string]any)
	if !ok {
		return "", "", fmt.Errorf("document must be a JSON object, got %s", jsonKind(raw))
	}
	data := timestamps.Normalize(doc).(map[string]any)

	if slug := slugOf(data); req.UseSlugAsID && slug != "" {
		id = slug
		err = ins.store.Set(ctx, req.CollectionPath, id, data)
	} else {
		id, err = ins.store.Create(ctx, req.CollectionPath, data)
	}
	if err != nil {
		return "", "", err
	}
	title, _ = data["title"].(string)
	return id, title, nil
}

// slugOf returns the document's slug when it is a non-empty string.
func slugOf(raw any) string {
	doc, ok := raw.(map[string]any)
	if !ok {
		return ""
	}
	slug, _ := doc["slug"].(string)
	return slug
}
