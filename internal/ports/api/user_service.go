package api

import (
	"context"

	"hypernotes/internal/domain/entities"
)

// UserService определяет операции над пользователями и их учетными данными.
type UserService interface {
	// GetUserByID возвращает пользователя или nil, если бэкенд ответил 404.
	GetUserByID(ctx context.Context, id string) (*entities.User, error)

	// GetUserByEmail возвращает пользователя по email или nil.
	// При нарушении инварианта уникальности побеждает последний результат.
	GetUserByEmail(ctx context.Context, email string) (*entities.User, error)

	// CreateUser создает пользователя и запись пароля одной атомарной
	// bulk-записью. Хэш пароля никогда не возвращается.
	CreateUser(ctx context.Context, email, password string) (*entities.User, error)

	// DeleteUser каскадно удаляет заметки, запись пароля и пользователя,
	// в этом порядке. Каскад best-effort: при частичном сбое откат
	// не выполняется, повторный вызов довершает удаление.
	DeleteUser(ctx context.Context, email string) error

	// VerifyLogin - единственная точка входа аутентификации.
	VerifyLogin(ctx context.Context, email, password string) (*entities.User, error)
}

// NoteLister - минимальная зависимость сервиса пользователей от сервиса заметок.
type NoteLister interface {
	GetNotesByParent(ctx context.Context, parent string) ([]entities.Note, error)
}
