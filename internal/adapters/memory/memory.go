// Package memory содержит документный бэкенд в памяти. Используется в
// тестах и локальной разработке; семантика примитивов совпадает с
// сетевыми адаптерами, включая 404 и атомарный bulk.
package memory

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"hypernotes/internal/docstore"
	"hypernotes/internal/ports/backend"
)

// Backend реализует интерфейс backend.Backend поверх карты в памяти.
type Backend struct {
	mu   sync.RWMutex
	docs map[string]docstore.Document
}

// New создает новый пустой бэкенд в памяти.
func New() *Backend {
	return &Backend{docs: make(map[string]docstore.Document)}
}

// Get возвращает документ по идентификатору или backend.ErrNotFound.
func (b *Backend) Get(_ context.Context, id string) (docstore.Document, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	doc, ok := b.docs[id]
	if !ok {
		return docstore.Document{}, fmt.Errorf("document %s: %w", id, backend.ErrNotFound)
	}
	return cloneDoc(doc), nil
}

// Query возвращает документы, совпадающие со всеми полями фильтра.
func (b *Backend) Query(_ context.Context, filter map[string]any) ([]docstore.Document, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]docstore.Document, 0)
	for _, doc := range b.docs {
		if matches(doc, filter) {
			result = append(result, cloneDoc(doc))
		}
	}
	return result, nil
}

// Add записывает один документ. Повторная запись того же идентификатора
// перезаписывает документ: бэкенд дает last-write-wins.
func (b *Backend) Add(_ context.Context, doc docstore.Document) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.docs[doc.ID] = cloneDoc(doc)
	return nil
}

// Remove удаляет документ или возвращает backend.ErrNotFound.
func (b *Backend) Remove(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.docs[id]; !ok {
		return fmt.Errorf("document %s: %w", id, backend.ErrNotFound)
	}
	delete(b.docs, id)
	return nil
}

// Bulk атомарно записывает набор документов под одной блокировкой.
func (b *Backend) Bulk(_ context.Context, docs []docstore.Document) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, doc := range docs {
		b.docs[doc.ID] = cloneDoc(doc)
	}
	return nil
}

// Len возвращает число хранимых документов.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.docs)
}

func matches(doc docstore.Document, filter map[string]any) bool {
	for key, want := range filter {
		if key == "type" {
			if string(doc.Type) != want {
				return false
			}
			continue
		}
		got, ok := doc.Fields[key]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

func cloneDoc(doc docstore.Document) docstore.Document {
	fields := make(map[string]any, len(doc.Fields))
	for k, v := range doc.Fields {
		fields[k] = v
	}
	doc.Fields = fields
	return doc
}
