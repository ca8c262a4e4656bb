package services_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/firestore-tools/internal/memstore"
	"github.com/Lllllllleong/firestore-tools/internal/models"
	"github.com/Lllllllleong/firestore-tools/internal/services"
)

const postsCollection = "sites/main/posts"

var fixedNow = time.UnixMilli(1718000000123)

func seededStore() (*memstore.Store, models.Document) {
	source := models.Document{
		"title": "Original",
		"views": int64(12),
		"tags":  []any{"go", "firestore"},
		"meta":  map[string]any{"draft": false},
	}
	store := memstore.New()
	store.Seed(postsCollection, "abc", source)
	return store, source
}

func newTestDuplicator(store services.DocumentStore, out *bytes.Buffer) *services.Duplicator {
	return services.NewDuplicator(store, out, io.Discard, services.WithClock(func() time.Time { return fixedNow }))
}

func TestDuplicator_AutoIDs(t *testing.T) {
	store, source := seededStore()
	var out bytes.Buffer

	res, err := newTestDuplicator(store, &out).Process(context.Background(), &models.DuplicateRequest{
		CollectionPath: postsCollection,
		SourceDocID:    "abc",
		Count:          3,
	})
	require.NoError(t, err)

	require.Len(t, res.Created, 3)
	assert.Equal(t, 3, res.Requested)
	assert.Zero(t, res.Missing)

	seen := map[string]bool{}
	docs := store.Documents(postsCollection)
	for _, id := range res.Created {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
		assert.NotEqual(t, "abc", id)
		assert.Equal(t, source, docs[id])
	}
	assert.Equal(t, 4, store.Len(postsCollection))
	assert.Contains(t, out.String(), "Copy: "+postsCollection+"/"+res.Created[0])
}

func TestDuplicator_PrefixPostfixIDs(t *testing.T) {
	store, source := seededStore()
	var out bytes.Buffer

	res, err := newTestDuplicator(store, &out).Process(context.Background(), &models.DuplicateRequest{
		CollectionPath: postsCollection,
		SourceDocID:    "abc",
		Count:          2,
		Prefix:         "bak",
		Postfix:        "v2",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"bak_abc_v2_1718000000123_1", "bak_abc_v2_1718000000123_2"}, res.Created)
	docs := store.Documents(postsCollection)
	for _, id := range res.Created {
		assert.Equal(t, source, docs[id])
	}
}

func TestDuplicator_SingleCopyHasNoIndexSuffix(t *testing.T) {
	store, _ := seededStore()
	var out bytes.Buffer

	res, err := newTestDuplicator(store, &out).Process(context.Background(), &models.DuplicateRequest{
		CollectionPath: postsCollection,
		SourceDocID:    "abc",
		Count:          1,
		Postfix:        "copy",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"abc_copy_1718000000123"}, res.Created)
}

func TestDuplicator_MissingSource(t *testing.T) {
	store := memstore.New()
	var out, errOut bytes.Buffer

	dup := services.NewDuplicator(store, &out, &errOut, services.WithClock(func() time.Time { return fixedNow }))
	res, err := dup.Process(context.Background(), &models.DuplicateRequest{
		CollectionPath: postsCollection,
		SourceDocID:    "nope",
		Count:          2,
		Prefix:         "bak",
	})
	require.NoError(t, err)

	assert.Empty(t, res.Created)
	assert.Equal(t, 2, res.Missing)
	assert.Zero(t, store.Len(postsCollection))
	assert.Contains(t, errOut.String(), "Document nope does not exist in "+postsCollection)
	assert.NotContains(t, out.String(), "does not exist")
}

func TestDuplicator_WriteFailureStopsRun(t *testing.T) {
	store, _ := seededStore()
	writeErr := errors.New("permission denied")
	store.FailOn(postsCollection, "bak_abc_1718000000123_2", writeErr)
	var out bytes.Buffer

	res, err := newTestDuplicator(store, &out).Process(context.Background(), &models.DuplicateRequest{
		CollectionPath: postsCollection,
		SourceDocID:    "abc",
		Count:          3,
		Prefix:         "bak",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, writeErr)

	assert.Equal(t, []string{"bak_abc_1718000000123_1"}, res.Created)
	_, thirdWritten := store.Documents(postsCollection)["bak_abc_1718000000123_3"]
	assert.False(t, thirdWritten)
	assert.Equal(t, 2, store.Len(postsCollection))
}

func TestDuplicator_AutoIDWriteFailure(t *testing.T) {
	store, _ := seededStore()
	store.FailCreates(errors.New("unavailable"))
	var out bytes.Buffer

	res, err := newTestDuplicator(store, &out).Process(context.Background(), &models.DuplicateRequest{
		CollectionPath: postsCollection,
		SourceDocID:    "abc",
		Count:          2,
	})
	require.Error(t, err)
	assert.Empty(t, res.Created)
}

func TestDuplicator_ReadFailureStopsRun(t *testing.T) {
	store, _ := seededStore()
	readErr := errors.New("deadline exceeded")
	store.FailOn(postsCollection, "abc", readErr)
	var out bytes.Buffer

	_, err := newTestDuplicator(store, &out).Process(context.Background(), &models.DuplicateRequest{
		CollectionPath: postsCollection,
		SourceDocID:    "abc",
		Count:          2,
	})
	assert.ErrorIs(t, err, readErr)
	assert.NotErrorIs(t, err, services.ErrNotFound)
}

func TestDuplicator_RejectsNonPositiveCount(t *testing.T) {
	store, _ := seededStore()
	var out bytes.Buffer

	_, err := newTestDuplicator(store, &out).Process(context.Background(), &models.DuplicateRequest{
		CollectionPath: postsCollection,
		SourceDocID:    "abc",
		Count:          0,
	})
	assert.Error(t, err)
	assert.Equal(t, 1, store.Len(postsCollection))
}

func TestNewDocID(t *testing.T) {
	tests := []struct {
		name  string
		req   models.DuplicateRequest
		index int
		want  string
	}{
		{"auto when no prefix or postfix", models.DuplicateRequest{SourceDocID: "abc", Count: 3}, 0, ""},
		{"blank affixes still auto", models.DuplicateRequest{SourceDocID: "abc", Count: 1, Prefix: "  ", Postfix: "\t"}, 0, ""},
		{"prefix only, single", models.DuplicateRequest{SourceDocID: "abc", Count: 1, Prefix: "bak"}, 0, "bak_abc_1718000000123"},
		{"postfix only, batch", models.DuplicateRequest{SourceDocID: "abc", Count: 5, Postfix: "v2"}, 4, "abc_v2_1718000000123_5"},
		{"both, trimmed", models.DuplicateRequest{SourceDocID: "abc", Count: 2, Prefix: " bak ", Postfix: "v2 "}, 1, "bak_abc_v2_1718000000123_2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, services.NewDocID(&tt.req, tt.index, fixedNow))
		})
	}
}
