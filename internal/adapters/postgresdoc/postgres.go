// Package postgresdoc реализует документный бэкенд поверх PostgreSQL.
// Документы лежат в одной таблице documents: конверт в колонках,
// поля сущности - в JSONB.
package postgresdoc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"hypernotes/internal/docstore"
	"hypernotes/internal/ports/backend"
	"hypernotes/pkg/logger"
)

// Константы для сообщений об ошибках.
const (
	ErrorFailedToGet     = "failed to get document"
	ErrorFailedToQuery   = "failed to query documents"
	ErrorFailedToScan    = "failed to scan document row"
	ErrorFailedToAdd     = "failed to add document"
	ErrorFailedToRemove  = "failed to remove document"
	ErrorFailedToBulk    = "failed to bulk write documents"
	ErrorFailedToMarshal = "failed to marshal document fields"
	ErrorRowsIteration   = "error iterating document rows"
)

// ErrTypeFilterRequired возвращается для запроса без ключа type.
var ErrTypeFilterRequired = errors.New("query filter requires a type key")

// PgxPoolInterface определяет используемое подмножество пула pgx.
type PgxPoolInterface interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Backend реализует интерфейс backend.Backend поверх PostgreSQL.
type Backend struct {
	pool PgxPoolInterface
}

// New создает новый Postgres-бэкенд.
func New(pool PgxPoolInterface) *Backend {
	return &Backend{pool: pool}
}

const upsertSQL = `INSERT INTO documents (id, type, created_at, updated_at, fields)
         VALUES ($1, $2, $3, $4, $5)
         ON CONFLICT (id) DO UPDATE
         SET type = EXCLUDED.type,
             created_at = EXCLUDED.created_at,
             updated_at = EXCLUDED.updated_at,
             fields = EXCLUDED.fields`

// Get возвращает документ по идентификатору или backend.ErrNotFound.
func (b *Backend) Get(ctx context.Context, id string) (docstore.Document, error) {
	log := logger.Log(ctx).With(zap.String("method", "Backend.Get"), zap.String("docID", id))

	var (
		doc docstore.Document
		raw []byte
	)
	err := b.pool.QueryRow(ctx,
		`SELECT id, type, created_at, updated_at, fields FROM documents WHERE id = $1`,
		id,
	).Scan(&doc.ID, &doc.Type, &doc.CreatedAt, &doc.UpdatedAt, &raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return docstore.Document{}, fmt.Errorf("document %s: %w", id, backend.ErrNotFound)
		}
		log.Error(ctx, ErrorFailedToGet, zap.Error(err))
		return docstore.Document{}, fmt.Errorf("%s: %w", ErrorFailedToGet, err)
	}

	if err := json.Unmarshal(raw, &doc.Fields); err != nil {
		log.Error(ctx, ErrorFailedToScan, zap.Error(err))
		return docstore.Document{}, fmt.Errorf("%s: %w", ErrorFailedToScan, err)
	}
	return doc, nil
}

// Query возвращает документы с указанным дискриминантом, поля которых
// содержат остальные поля фильтра (jsonb containment).
func (b *Backend) Query(ctx context.Context, filter map[string]any) ([]docstore.Document, error) {
	log := logger.Log(ctx).With(zap.String("method", "Backend.Query"))

	docType, ok := filter["type"].(string)
	if !ok || docType == "" {
		return nil, ErrTypeFilterRequired
	}

	extra := make(map[string]any, len(filter))
	for k, v := range filter {
		if k != "type" {
			extra[k] = v
		}
	}
	extraJSON, err := json.Marshal(extra)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrorFailedToMarshal, err)
	}

	rows, err := b.pool.Query(ctx,
		`SELECT id, type, created_at, updated_at, fields
         FROM documents
         WHERE type = $1 AND fields @> $2`,
		docType, extraJSON,
	)
	if err != nil {
		log.Error(ctx, ErrorFailedToQuery, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrorFailedToQuery, err)
	}
	defer rows.Close()

	docs := make([]docstore.Document, 0)
	for rows.Next() {
		var (
			doc docstore.Document
			raw []byte
		)
		if err := rows.Scan(&doc.ID, &doc.Type, &doc.CreatedAt, &doc.UpdatedAt, &raw); err != nil {
			log.Error(ctx, ErrorFailedToScan, zap.Error(err))
			return nil, fmt.Errorf("%s: %w", ErrorFailedToScan, err)
		}
		if err := json.Unmarshal(raw, &doc.Fields); err != nil {
			log.Error(ctx, ErrorFailedToScan, zap.Error(err), zap.String("docID", doc.ID))
			return nil, fmt.Errorf("%s: %w", ErrorFailedToScan, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		log.Error(ctx, ErrorRowsIteration, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrorRowsIteration, err)
	}
	return docs, nil
}

// Add записывает один документ. Повторная запись того же идентификатора
// перезаписывает документ: бэкенд дает last-write-wins.
func (b *Backend) Add(ctx context.Context, doc docstore.Document) error {
	log := logger.Log(ctx).With(zap.String("method", "Backend.Add"), zap.String("docID", doc.ID))

	raw, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrorFailedToMarshal, err)
	}

	if _, err := b.pool.Exec(ctx, upsertSQL,
		doc.ID, string(doc.Type), doc.CreatedAt, doc.UpdatedAt, raw); err != nil {
		log.Error(ctx, ErrorFailedToAdd, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToAdd, err)
	}
	return nil
}

// Remove удаляет документ или возвращает backend.ErrNotFound.
func (b *Backend) Remove(ctx context.Context, id string) error {
	log := logger.Log(ctx).With(zap.String("method", "Backend.Remove"), zap.String("docID", id))

	tag, err := b.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		log.Error(ctx, ErrorFailedToRemove, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToRemove, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, backend.ErrNotFound)
	}
	return nil
}

// Bulk атомарно записывает набор документов одной транзакцией.
func (b *Backend) Bulk(ctx context.Context, docs []docstore.Document) error {
	log := logger.Log(ctx).With(zap.String("method", "Backend.Bulk"), zap.Int("count", len(docs)))

	tx, err := b.pool.Begin(ctx)
	if err != nil {
		log.Error(ctx, ErrorFailedToBulk, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToBulk, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, doc := range docs {
		raw, err := json.Marshal(doc.Fields)
		if err != nil {
			return fmt.Errorf("%s: %w", ErrorFailedToMarshal, err)
		}
		if _, err := tx.Exec(ctx, upsertSQL,
			doc.ID, string(doc.Type), doc.CreatedAt, doc.UpdatedAt, raw); err != nil {
			log.Error(ctx, ErrorFailedToBulk, zap.Error(err), zap.String("docID", doc.ID))
			return fmt.Errorf("%s: %w", ErrorFailedToBulk, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Error(ctx, ErrorFailedToBulk, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToBulk, err)
	}
	return nil
}
