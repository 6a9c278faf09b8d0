// Package docstore реализует общий конверт документов схемы-less бэкенда:
// идентификаторы, конверт с временными метками и преобразование между
// доменными записями и документами хранилища.
package docstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Type - дискриминант вида документа.
type Type string

// Поддерживаемые виды документов.
const (
	TypeUser     Type = "user"
	TypeNote     Type = "note"
	TypePassword Type = "password"
)

// ErrSchemaValidation - нарушение структурных ограничений документа или записи.
var ErrSchemaValidation = errors.New("schema validation failed")

const idSeparator = "-"

// Идентификатор имеет вид <prefix>-<token>, где token - непустая
// последовательность символов [A-Za-z0-9_-].
func isValidToken(token string) bool {
	if token == "" {
		return false
	}
	for _, r := range token {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

// NewUserID генерирует новый идентификатор пользователя.
func NewUserID() string { return newID(TypeUser) }

// NewNoteID генерирует новый идентификатор заметки.
func NewNoteID() string { return newID(TypeNote) }

// NewPasswordID генерирует новый идентификатор записи пароля.
func NewPasswordID() string { return newID(TypePassword) }

func newID(t Type) string {
	return string(t) + idSeparator + uuid.NewString()
}

// TypeOfID возвращает вид документа, закодированный в префиксе идентификатора.
func TypeOfID(id string) (Type, error) {
	prefix, token, found := strings.Cut(id, idSeparator)
	if !found || !isValidToken(token) {
		return "", fmt.Errorf("malformed identifier %q: %w", id, ErrSchemaValidation)
	}
	switch t := Type(prefix); t {
	case TypeUser, TypeNote, TypePassword:
		return t, nil
	default:
		return "", fmt.Errorf("unknown identifier prefix %q: %w", prefix, ErrSchemaValidation)
	}
}

// ValidateID проверяет, что идентификатор корректен и несет префикс вида t.
func ValidateID(id string, t Type) error {
	kind, err := TypeOfID(id)
	if err != nil {
		return err
	}
	if kind != t {
		return fmt.Errorf("identifier %q is not a %s identifier: %w", id, t, ErrSchemaValidation)
	}
	return nil
}
