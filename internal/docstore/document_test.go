package docstore_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hypernotes/internal/docstore"
)

func TestDocumentValidate(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name    string
		doc     docstore.Document
		wantErr bool
	}{
		{
			name: "valid document",
			doc: docstore.Document{
				ID:        "note-abc123",
				Type:      docstore.TypeNote,
				CreatedAt: now,
				UpdatedAt: now,
			},
		},
		{
			name: "type does not match identifier prefix",
			doc: docstore.Document{
				ID:        "note-abc123",
				Type:      docstore.TypeUser,
				CreatedAt: now,
				UpdatedAt: now,
			},
			wantErr: true,
		},
		{
			name: "missing created timestamp",
			doc: docstore.Document{
				ID:        "note-abc123",
				Type:      docstore.TypeNote,
				UpdatedAt: now,
			},
			wantErr: true,
		},
		{
			name: "missing updated timestamp",
			doc: docstore.Document{
				ID:        "note-abc123",
				Type:      docstore.TypeNote,
				CreatedAt: now,
			},
			wantErr: true,
		},
		{
			name:    "malformed identifier",
			doc:     docstore.Document{ID: "garbage", Type: docstore.TypeNote, CreatedAt: now, UpdatedAt: now},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, docstore.ErrSchemaValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDocumentJSONIsFlat(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	updated := time.Date(2024, 3, 2, 11, 30, 0, 0, time.UTC)

	doc := docstore.Document{
		ID:        "note-abc123",
		Type:      docstore.TypeNote,
		CreatedAt: created,
		UpdatedAt: updated,
		Fields: map[string]any{
			"parent": "user-xyz",
			"title":  "groceries",
			"body":   "milk",
		},
	}

	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(raw, &flat))

	assert.Equal(t, "note-abc123", flat["_id"])
	assert.Equal(t, "note", flat["type"])
	assert.Equal(t, "groceries", flat["title"])
	assert.Equal(t, created.Format(time.RFC3339Nano), flat["createdAt"])
	assert.Equal(t, updated.Format(time.RFC3339Nano), flat["updatedAt"])
	assert.NotContains(t, flat, "Fields")
}

func TestDocumentJSONRoundTrip(t *testing.T) {
	doc := docstore.Document{
		ID:        "user-abc123",
		Type:      docstore.TypeUser,
		CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 500, time.UTC),
		UpdatedAt: time.Date(2024, 3, 2, 11, 30, 0, 0, time.UTC),
		Fields:    map[string]any{"email": "user@example.com"},
	}

	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	var decoded docstore.Document
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, doc.ID, decoded.ID)
	assert.Equal(t, doc.Type, decoded.Type)
	assert.True(t, doc.CreatedAt.Equal(decoded.CreatedAt))
	assert.True(t, doc.UpdatedAt.Equal(decoded.UpdatedAt))
	assert.Equal(t, doc.Fields, decoded.Fields)
}

func TestDocumentUnmarshalPreservesUnknownFields(t *testing.T) {
	raw := []byte(`{
		"_id": "note-abc123",
		"type": "note",
		"createdAt": "2024-03-01T10:00:00Z",
		"updatedAt": "2024-03-02T11:30:00Z",
		"title": "groceries",
		"legacy_tag": "imported"
	}`)

	var doc docstore.Document
	require.NoError(t, json.Unmarshal(raw, &doc))

	assert.Equal(t, "imported", doc.Fields["legacy_tag"])
	assert.NotContains(t, doc.Fields, "_id")
	assert.NotContains(t, doc.Fields, "createdAt")
}

func TestDocumentUnmarshalRejectsBrokenEnvelope(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "missing id", raw: `{"type":"note","createdAt":"2024-03-01T10:00:00Z","updatedAt":"2024-03-01T10:00:00Z"}`},
		{name: "missing type", raw: `{"_id":"note-a","createdAt":"2024-03-01T10:00:00Z","updatedAt":"2024-03-01T10:00:00Z"}`},
		{name: "bad timestamp", raw: `{"_id":"note-a","type":"note","createdAt":"yesterday","updatedAt":"2024-03-01T10:00:00Z"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc docstore.Document
			err := json.Unmarshal([]byte(tt.raw), &doc)
			require.Error(t, err)
		})
	}
}

func TestStringField(t *testing.T) {
	fields := map[string]any{"title": "groceries", "count": 3}

	t.Run("returns string value", func(t *testing.T) {
		v, err := docstore.StringField(fields, "title")
		require.NoError(t, err)
		assert.Equal(t, "groceries", v)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := docstore.StringField(fields, "absent")
		assert.ErrorIs(t, err, docstore.ErrSchemaValidation)
	})

	t.Run("non-string value", func(t *testing.T) {
		_, err := docstore.StringField(fields, "count")
		assert.ErrorIs(t, err, docstore.ErrSchemaValidation)
	})
}
