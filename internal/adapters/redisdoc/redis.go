// Package redisdoc реализует документный бэкенд поверх Redis.
// Документы хранятся как плоский JSON под ключом doc:<id>, а множества
// type:<t> индексируют идентификаторы по дискриминанту для запросов.
package redisdoc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"hypernotes/internal/config"
	"hypernotes/internal/docstore"
	"hypernotes/internal/ports/backend"
	"hypernotes/pkg/logger"
)

// Константы для логирования.
const (
	LogMethodGet    = "get"
	LogMethodQuery  = "query"
	LogMethodAdd    = "add"
	LogMethodRemove = "remove"
	LogMethodBulk   = "bulk"

	ErrorFailedToGet     = "failed to get document from redis"
	ErrorFailedToQuery   = "failed to query documents in redis"
	ErrorFailedToAdd     = "failed to add document to redis"
	ErrorFailedToRemove  = "failed to remove document from redis"
	ErrorFailedToBulk    = "failed to bulk write documents to redis"
	ErrorFailedToClose   = "failed to close redis connection"
	ErrorFailedToMarshal = "failed to marshal document"
)

// ErrTypeFilterRequired возвращается для запроса без ключа type:
// документное пространство логически секционировано по дискриминанту.
var ErrTypeFilterRequired = errors.New("query filter requires a type key")

const (
	docKeyPrefix  = "doc:"
	typeKeyPrefix = "type:"
)

// Backend реализует интерфейс backend.Backend поверх Redis.
type Backend struct {
	client *redis.Client
}

// New создает новый Redis-бэкенд и проверяет соединение.
func New(ctx context.Context, cfg *config.RedisConfig) (*Backend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:            cfg.GetAddressString(),
		Password:        cfg.Password,
		DB:              cfg.DB,
		DialTimeout:     cfg.ConnectTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdle,
		ConnMaxIdleTime: cfg.IdleTimeout,
		ConnMaxLifetime: cfg.MaxConnLifetime,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &Backend{client: client}, nil
}

// Get возвращает документ по идентификатору или backend.ErrNotFound.
func (b *Backend) Get(ctx context.Context, id string) (docstore.Document, error) {
	log := logger.Log(ctx).With(zap.String("method", LogMethodGet), zap.String("docID", id))

	raw, err := b.client.Get(ctx, docKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return docstore.Document{}, fmt.Errorf("document %s: %w", id, backend.ErrNotFound)
		}
		log.Error(ctx, ErrorFailedToGet, zap.Error(err))
		return docstore.Document{}, fmt.Errorf("%s: %w", ErrorFailedToGet, err)
	}

	var doc docstore.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		log.Error(ctx, ErrorFailedToGet, zap.Error(err))
		return docstore.Document{}, fmt.Errorf("%s: %w", ErrorFailedToGet, err)
	}
	return doc, nil
}

// Query возвращает документы, совпадающие со всеми полями фильтра.
// Индекс дает кандидатов по дискриминанту, остальные поля сверяются
// по загруженным документам; устаревшие записи индекса пропускаются.
func (b *Backend) Query(ctx context.Context, filter map[string]any) ([]docstore.Document, error) {
	log := logger.Log(ctx).With(zap.String("method", LogMethodQuery))

	docType, ok := filter["type"].(string)
	if !ok || docType == "" {
		return nil, ErrTypeFilterRequired
	}

	ids, err := b.client.SMembers(ctx, typeKeyPrefix+docType).Result()
	if err != nil {
		log.Error(ctx, ErrorFailedToQuery, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrorFailedToQuery, err)
	}

	result := make([]docstore.Document, 0, len(ids))
	for _, id := range ids {
		raw, err := b.client.Get(ctx, docKeyPrefix+id).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			log.Error(ctx, ErrorFailedToQuery, zap.Error(err))
			return nil, fmt.Errorf("%s: %w", ErrorFailedToQuery, err)
		}
		var doc docstore.Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			log.Error(ctx, ErrorFailedToQuery, zap.Error(err), zap.String("docID", id))
			return nil, fmt.Errorf("%s: %w", ErrorFailedToQuery, err)
		}
		if matchesFields(doc, filter) {
			result = append(result, doc)
		}
	}
	return result, nil
}

// Add записывает один документ и его запись индекса.
func (b *Backend) Add(ctx context.Context, doc docstore.Document) error {
	log := logger.Log(ctx).With(zap.String("method", LogMethodAdd), zap.String("docID", doc.ID))

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrorFailedToMarshal, err)
	}

	pipe := b.client.TxPipeline()
	pipe.Set(ctx, docKeyPrefix+doc.ID, raw, 0)
	pipe.SAdd(ctx, typeKeyPrefix+string(doc.Type), doc.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Error(ctx, ErrorFailedToAdd, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToAdd, err)
	}
	return nil
}

// Remove удаляет документ и его запись индекса или возвращает backend.ErrNotFound.
func (b *Backend) Remove(ctx context.Context, id string) error {
	log := logger.Log(ctx).With(zap.String("method", LogMethodRemove), zap.String("docID", id))

	doc, err := b.Get(ctx, id)
	if err != nil {
		return err
	}

	pipe := b.client.TxPipeline()
	pipe.Del(ctx, docKeyPrefix+id)
	pipe.SRem(ctx, typeKeyPrefix+string(doc.Type), id)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Error(ctx, ErrorFailedToRemove, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToRemove, err)
	}
	return nil
}

// Bulk атомарно записывает набор документов одной транзакцией MULTI/EXEC.
func (b *Backend) Bulk(ctx context.Context, docs []docstore.Document) error {
	log := logger.Log(ctx).With(zap.String("method", LogMethodBulk), zap.Int("count", len(docs)))

	pipe := b.client.TxPipeline()
	for _, doc := range docs {
		raw, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("%s: %w", ErrorFailedToMarshal, err)
		}
		pipe.Set(ctx, docKeyPrefix+doc.ID, raw, 0)
		pipe.SAdd(ctx, typeKeyPrefix+string(doc.Type), doc.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Error(ctx, ErrorFailedToBulk, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToBulk, err)
	}
	return nil
}

// Close закрывает соединение с Redis.
func (b *Backend) Close() error {
	if err := b.client.Close(); err != nil {
		return fmt.Errorf("%s: %w", ErrorFailedToClose, err)
	}
	return nil
}

func matchesFields(doc docstore.Document, filter map[string]any) bool {
	for key, want := range filter {
		if key == "type" {
			continue
		}
		got, ok := doc.Fields[key]
		if !ok || got != want {
			return false
		}
	}
	return true
}
