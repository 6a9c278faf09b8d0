package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hypernotes/internal/app"
	"hypernotes/internal/docstore"
	"hypernotes/internal/domain/entities"
)

var errBackendDown = errors.New("backend unavailable")

// stubUserFinder отдает одного фиксированного пользователя.
type stubUserFinder struct {
	user *entities.User
}

func (s *stubUserFinder) GetUserByID(_ context.Context, id string) (*entities.User, error) {
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, nil
}

func createTestUser(t *testing.T, ts *testServices) *entities.User {
	t.Helper()

	user, err := ts.users.CreateUser(context.Background(), "owner@example.com", "long enough password")
	require.NoError(t, err)
	return user
}

func TestCreateNote(t *testing.T) {
	ctx := context.Background()

	t.Run("creates note for existing parent", func(t *testing.T) {
		ts := newTestServices()
		user := createTestUser(t, ts)

		note, err := ts.notes.CreateNote(ctx, user.ID, "groceries", "milk, eggs")
		require.NoError(t, err)
		require.NotNil(t, note)

		assert.True(t, strings.HasPrefix(note.ID, "note-"))
		assert.Equal(t, user.ID, note.Parent)
		assert.Equal(t, "groceries", note.Title)

		stored, err := ts.notes.GetNote(ctx, note.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, *note, *stored)
	})

	t.Run("missing parent blocks the write", func(t *testing.T) {
		ts := newTestServices()
		before := ts.store.Len()

		note, err := ts.notes.CreateNote(ctx, docstore.NewUserID(), "groceries", "milk")
		require.Error(t, err)
		assert.ErrorIs(t, err, entities.ErrNotFound)
		assert.Nil(t, note)
		assert.Equal(t, before, ts.store.Len())
	})

	t.Run("empty title blocks the write", func(t *testing.T) {
		ts := newTestServices()
		user := createTestUser(t, ts)
		before := ts.store.Len()

		_, err := ts.notes.CreateNote(ctx, user.ID, "", "milk")
		require.Error(t, err)
		assert.ErrorIs(t, err, docstore.ErrSchemaValidation)
		assert.Equal(t, before, ts.store.Len())
	})

	t.Run("empty body blocks the write", func(t *testing.T) {
		ts := newTestServices()
		user := createTestUser(t, ts)

		_, err := ts.notes.CreateNote(ctx, user.ID, "groceries", "")
		require.Error(t, err)
		assert.ErrorIs(t, err, docstore.ErrSchemaValidation)
	})
}

func TestGetNote(t *testing.T) {
	ctx := context.Background()

	t.Run("absent note yields nil without error", func(t *testing.T) {
		ts := newTestServices()

		note, err := ts.notes.GetNote(ctx, docstore.NewNoteID())
		require.NoError(t, err)
		assert.Nil(t, note)
	})

	t.Run("malformed identifier yields schema error", func(t *testing.T) {
		ts := newTestServices()

		_, err := ts.notes.GetNote(ctx, "not-note-123")
		require.Error(t, err)
		assert.ErrorIs(t, err, docstore.ErrSchemaValidation)
	})

	t.Run("user identifier is not a note identifier", func(t *testing.T) {
		ts := newTestServices()

		_, err := ts.notes.GetNote(ctx, docstore.NewUserID())
		require.Error(t, err)
		assert.ErrorIs(t, err, docstore.ErrSchemaValidation)
	})

	t.Run("backend failure propagates", func(t *testing.T) {
		owner := &entities.User{ID: docstore.NewUserID(), Email: "owner@example.com"}
		backendMock := &mockBackend{}
		backendMock.On("Get", mock.Anything, mock.Anything).Return(docstore.Document{}, errBackendDown).Once()

		notes := app.NewNoteService(backendMock, &stubUserFinder{user: owner})

		_, err := notes.GetNote(ctx, docstore.NewNoteID())
		require.Error(t, err)
		assert.ErrorIs(t, err, errBackendDown)
		backendMock.AssertExpectations(t)
	})
}

func TestGetNotesByParent(t *testing.T) {
	ctx := context.Background()

	t.Run("returns only the parents notes", func(t *testing.T) {
		ts := newTestServices()
		owner := createTestUser(t, ts)

		other, err := ts.users.CreateUser(ctx, "other@example.com", "long enough password")
		require.NoError(t, err)

		_, err = ts.notes.CreateNote(ctx, owner.ID, "a", "1")
		require.NoError(t, err)
		_, err = ts.notes.CreateNote(ctx, owner.ID, "b", "2")
		require.NoError(t, err)
		_, err = ts.notes.CreateNote(ctx, other.ID, "c", "3")
		require.NoError(t, err)

		notes, err := ts.notes.GetNotesByParent(ctx, owner.ID)
		require.NoError(t, err)
		assert.Len(t, notes, 2)
		for _, note := range notes {
			assert.Equal(t, owner.ID, note.Parent)
		}
	})

	t.Run("parent without notes yields empty list", func(t *testing.T) {
		ts := newTestServices()
		owner := createTestUser(t, ts)

		notes, err := ts.notes.GetNotesByParent(ctx, owner.ID)
		require.NoError(t, err)
		assert.Empty(t, notes)
	})

	t.Run("missing parent yields not found", func(t *testing.T) {
		ts := newTestServices()

		_, err := ts.notes.GetNotesByParent(ctx, docstore.NewUserID())
		require.Error(t, err)
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})
}

func TestDeleteNote(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes own note", func(t *testing.T) {
		ts := newTestServices()
		owner := createTestUser(t, ts)

		note, err := ts.notes.CreateNote(ctx, owner.ID, "groceries", "milk")
		require.NoError(t, err)

		require.NoError(t, ts.notes.DeleteNote(ctx, note.ID, owner.ID))

		got, err := ts.notes.GetNote(ctx, note.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("foreign note reads as not found", func(t *testing.T) {
		ts := newTestServices()
		owner := createTestUser(t, ts)

		stranger, err := ts.users.CreateUser(ctx, "stranger@example.com", "long enough password")
		require.NoError(t, err)

		note, err := ts.notes.CreateNote(ctx, owner.ID, "groceries", "milk")
		require.NoError(t, err)

		err = ts.notes.DeleteNote(ctx, note.ID, stranger.ID)
		require.Error(t, err)
		assert.ErrorIs(t, err, entities.ErrNotFound)

		still, err := ts.notes.GetNote(ctx, note.ID)
		require.NoError(t, err)
		assert.NotNil(t, still)
	})

	t.Run("absent note yields not found", func(t *testing.T) {
		ts := newTestServices()
		owner := createTestUser(t, ts)

		err := ts.notes.DeleteNote(ctx, docstore.NewNoteID(), owner.ID)
		require.Error(t, err)
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})
}
