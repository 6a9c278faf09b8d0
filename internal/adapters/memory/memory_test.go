package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hypernotes/internal/adapters/memory"
	"hypernotes/internal/docstore"
	"hypernotes/internal/ports/backend"
)

func testDoc(id string, kind docstore.Type, fields map[string]any) docstore.Document {
	now := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)
	return docstore.Document{
		ID:        id,
		Type:      kind,
		CreatedAt: now,
		UpdatedAt: now,
		Fields:    fields,
	}
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	b := memory.New()

	t.Run("absent document yields not found", func(t *testing.T) {
		_, err := b.Get(ctx, "note-absent")
		require.Error(t, err)
		assert.ErrorIs(t, err, backend.ErrNotFound)
	})

	t.Run("stored document is returned", func(t *testing.T) {
		doc := testDoc("note-a", docstore.TypeNote, map[string]any{"title": "x"})
		require.NoError(t, b.Add(ctx, doc))

		got, err := b.Get(ctx, "note-a")
		require.NoError(t, err)
		assert.Equal(t, doc, got)
	})

	t.Run("returned document does not alias the store", func(t *testing.T) {
		got, err := b.Get(ctx, "note-a")
		require.NoError(t, err)
		got.Fields["title"] = "mutated"

		again, err := b.Get(ctx, "note-a")
		require.NoError(t, err)
		assert.Equal(t, "x", again.Fields["title"])
	})
}

func TestQuery(t *testing.T) {
	ctx := context.Background()
	b := memory.New()

	require.NoError(t, b.Add(ctx, testDoc("note-a", docstore.TypeNote, map[string]any{"parent": "user-1", "title": "a"})))
	require.NoError(t, b.Add(ctx, testDoc("note-b", docstore.TypeNote, map[string]any{"parent": "user-1", "title": "b"})))
	require.NoError(t, b.Add(ctx, testDoc("note-c", docstore.TypeNote, map[string]any{"parent": "user-2", "title": "c"})))
	require.NoError(t, b.Add(ctx, testDoc("user-1", docstore.TypeUser, map[string]any{"email": "a@example.com"})))

	t.Run("filters by type and fields", func(t *testing.T) {
		docs, err := b.Query(ctx, map[string]any{"type": "note", "parent": "user-1"})
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	})

	t.Run("type only filter returns all of the kind", func(t *testing.T) {
		docs, err := b.Query(ctx, map[string]any{"type": "note"})
		require.NoError(t, err)
		assert.Len(t, docs, 3)
	})

	t.Run("no match yields empty list", func(t *testing.T) {
		docs, err := b.Query(ctx, map[string]any{"type": "note", "parent": "user-9"})
		require.NoError(t, err)
		assert.Empty(t, docs)
	})
}

func TestAddOverwrites(t *testing.T) {
	ctx := context.Background()
	b := memory.New()

	require.NoError(t, b.Add(ctx, testDoc("note-a", docstore.TypeNote, map[string]any{"title": "v1"})))
	require.NoError(t, b.Add(ctx, testDoc("note-a", docstore.TypeNote, map[string]any{"title": "v2"})))

	got, err := b.Get(ctx, "note-a")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Fields["title"])
	assert.Equal(t, 1, b.Len())
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	b := memory.New()

	require.NoError(t, b.Add(ctx, testDoc("note-a", docstore.TypeNote, map[string]any{"title": "x"})))

	t.Run("removes stored document", func(t *testing.T) {
		require.NoError(t, b.Remove(ctx, "note-a"))

		_, err := b.Get(ctx, "note-a")
		assert.ErrorIs(t, err, backend.ErrNotFound)
	})

	t.Run("second removal yields not found", func(t *testing.T) {
		err := b.Remove(ctx, "note-a")
		assert.ErrorIs(t, err, backend.ErrNotFound)
	})
}

func TestBulk(t *testing.T) {
	ctx := context.Background()
	b := memory.New()

	docs := []docstore.Document{
		testDoc("user-1", docstore.TypeUser, map[string]any{"email": "a@example.com"}),
		testDoc("password-1", docstore.TypePassword, map[string]any{"parent": "user-1", "hash": "h"}),
	}

	require.NoError(t, b.Bulk(ctx, docs))
	assert.Equal(t, 2, b.Len())

	for _, doc := range docs {
		got, err := b.Get(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, doc, got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	b := memory.New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := docstore.NewNoteID()
			doc := testDoc(id, docstore.TypeNote, map[string]any{"parent": "user-1", "title": "t"})
			if err := b.Add(ctx, doc); err != nil {
				t.Error(err)
				return
			}
			if _, err := b.Get(ctx, id); err != nil {
				t.Error(err)
			}
			if _, err := b.Query(ctx, map[string]any{"type": "note", "parent": "user-1"}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, b.Len())
}
