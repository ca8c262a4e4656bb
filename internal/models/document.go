package models

// Document is the field data of a single Firestore document. Values are
// the decoded-JSON value space (nil, bool, int64, float64, string, []any,
// map[string]any) plus time.Time for native timestamps.
type Document = map[string]any

// DuplicateRequest describes one run of the duplicate command.
type DuplicateRequest struct {
	CollectionPath string
	SourceDocID    string
	Count          int
	Prefix         string
	Postfix        string
}

// DuplicateResult reports what a duplicate run did.
type DuplicateResult struct {
	Requested int      `json:"requested"`
	Created   []string `json:"created"`
	Missing   int      `json:"missing"` // iterations that found no source document
}

// InsertRequest describes one run of the insert command.
type InsertRequest struct {
	CollectionPath string
	JSONFilePath   string // local path or gs://bucket/object
	UseSlugAsID    bool
}

// InsertedDocument records a document written by an insert run.
type InsertedDocument struct {
	Index int    `json:"index"`
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// InsertSummary is the outcome of an insert run.
type InsertSummary struct {
	SuccessCount int                `json:"successCount"`
	ErrorCount   int                `json:"errorCount"`
	Total        int                `json:"total"`
	Inserted     []InsertedDocument `json:"inserted"`
}
