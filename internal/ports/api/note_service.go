// Package api определяет интерфейсы сервисов приложения.
package api

import (
	"context"

	"hypernotes/internal/domain/entities"
)

// NoteService определяет операции над заметками.
type NoteService interface {
	// GetNote возвращает заметку или nil, если бэкенд ответил 404.
	// Некорректный идентификатор - ошибка вызывающего, а не "не найдено".
	GetNote(ctx context.Context, id string) (*entities.Note, error)

	// GetNotesByParent возвращает заметки пользователя. Родитель обязан
	// существовать; пустой список - не ошибка.
	GetNotesByParent(ctx context.Context, parent string) ([]entities.Note, error)

	// CreateNote создает заметку для существующего родителя.
	CreateNote(ctx context.Context, parent, title, body string) (*entities.Note, error)

	// DeleteNote удаляет заметку, принадлежащую родителю.
	// Удаление несуществующей заметки - ошибка, а не no-op.
	DeleteNote(ctx context.Context, id, parent string) error
}

// UserFinder - минимальная зависимость сервиса заметок от сервиса пользователей.
type UserFinder interface {
	GetUserByID(ctx context.Context, id string) (*entities.User, error)
}
