// Package backend определяет порт документного бэкенда.
package backend

import (
	"context"
	"errors"

	"hypernotes/internal/docstore"
)

// ErrNotFound - ответ бэкенда со статусом 404. Сервисы отображают его
// в отсутствующий доменный результат; любая другая ошибка не перехватывается.
var ErrNotFound = errors.New("document not found")

// Backend - дескриптор документного бэкенда с примитивами
// get/query/add/remove/bulk. Единственная сильная гарантия согласованности -
// атомарность Bulk; остальные операции независимы.
type Backend interface {
	// Get возвращает документ по идентификатору или ErrNotFound.
	Get(ctx context.Context, id string) (docstore.Document, error)

	// Query возвращает документы, все поля которых равны полям фильтра.
	// Ключ "type" сопоставляется с дискриминантом документа.
	// Пустой результат - не ошибка.
	Query(ctx context.Context, filter map[string]any) ([]docstore.Document, error)

	// Add записывает один документ.
	Add(ctx context.Context, doc docstore.Document) error

	// Remove удаляет документ по идентификатору или возвращает ErrNotFound.
	Remove(ctx context.Context, id string) error

	// Bulk атомарно записывает набор документов.
	Bulk(ctx context.Context, docs []docstore.Document) error
}
