package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"--env-file="}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"COLLECTION_PATH", "SOURCE_DOC_ID", "PREFIX", "POSTFIX", "NUM_OF_DUPLICATES",
		"JSON_FILE_PATH", "USE_SLUG_AS_ID", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestRun_NoCommand(t *testing.T) {
	clearEnv(t)
	code, _, stderr := runCLI(t)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "no command specified")
	assert.Contains(t, stderr, "duplicate")
	assert.Contains(t, stderr, "insert")
}

func TestRun_UnknownCommand(t *testing.T) {
	clearEnv(t)
	code, _, stderr := runCLI(t, "explode")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, `unknown command "explode"`)
	assert.Contains(t, stderr, "Usage:")
}

func TestRun_DuplicateMissingConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("COLLECTION_PATH", "posts")

	code, stdout, stderr := runCLI(t, "duplicate")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "COLLECTION_PATH and SOURCE_DOC_ID must be set")
}

func TestRun_DuplicateInvalidCount(t *testing.T) {
	clearEnv(t)
	t.Setenv("COLLECTION_PATH", "posts")
	t.Setenv("SOURCE_DOC_ID", "abc")
	t.Setenv("NUM_OF_DUPLICATES", "0")

	code, _, stderr := runCLI(t, "duplicate")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "NUM_OF_DUPLICATES must be a positive number")
}

func TestRun_InsertMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("COLLECTION_PATH", "articles")
	t.Setenv("JSON_FILE_PATH", filepath.Join(t.TempDir(), "missing.json"))

	code, _, stderr := runCLI(t, "insert", "--dry-run")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "JSON file not found")
}

func TestRun_InsertDryRun(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "articles.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"slug":"a","title":"A"},{"title":"B"}]`), 0o600))
	t.Setenv("COLLECTION_PATH", "articles")
	t.Setenv("JSON_FILE_PATH", path)

	code, stdout, stderr := runCLI(t, "insert", "--dry-run")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Use slug as ID: true")
	assert.Contains(t, stdout, "ID: a")
	assert.Contains(t, stdout, "Successfully inserted: 2")
	assert.Contains(t, stdout, "Errors: 0")
	assert.Contains(t, stdout, "Total: 2")
}

func TestRun_InsertRejectsNonArray(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "articles.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"slug":"a"}`), 0o600))
	t.Setenv("COLLECTION_PATH", "articles")
	t.Setenv("JSON_FILE_PATH", path)

	code, stdout, stderr := runCLI(t, "insert", "--dry-run")
	assert.Equal(t, 1, code)
	assert.NotContains(t, stdout, "Successfully inserted")
	assert.Contains(t, stderr, "must contain an array of documents")
}

func TestRun_InsertItemErrorsGoToStderr(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "articles.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"slug":"a"}, 7]`), 0o600))
	t.Setenv("COLLECTION_PATH", "articles")
	t.Setenv("JSON_FILE_PATH", path)

	code, stdout, stderr := runCLI(t, "insert", "--dry-run")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stderr, "[2/2] Error inserting document")
	assert.NotContains(t, stdout, "Error inserting document")
	assert.Contains(t, stdout, "Errors: 1")
}
