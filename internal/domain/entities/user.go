package entities

import (
	"fmt"
	"regexp"
	"strings"

	"hypernotes/internal/docstore"
)

// User представляет учетную запись. Email служит внешним ключом и хранится
// в нижнем регистре; складским ключом остается идентификатор.
type User struct {
	ID    string
	Email string
}

// Users - кодек документов пользователя.
var Users docstore.Codec[User] = userCodec{}

const fieldEmail = "email"

var emailRegex = regexp.MustCompile(`^[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}$`)

// NormalizeEmail приводит email к нижнему регистру и проверяет формат.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegex.MatchString(email) {
		return "", fmt.Errorf("invalid email format: %w", docstore.ErrSchemaValidation)
	}
	return email, nil
}

type userCodec struct{}

func (userCodec) DocType() docstore.Type { return docstore.TypeUser }

// ValidateFields проверяет поля документа пользователя.
func (userCodec) ValidateFields(fields map[string]any) error {
	email, err := docstore.StringField(fields, fieldEmail)
	if err != nil {
		return err
	}
	if _, err := NormalizeEmail(email); err != nil {
		return err
	}
	if email != strings.ToLower(email) {
		return fmt.Errorf("email is not lowercased: %w", docstore.ErrSchemaValidation)
	}
	return nil
}

func (userCodec) Encode(u User) docstore.Record {
	return docstore.Record{
		ID:     u.ID,
		Fields: map[string]any{fieldEmail: u.Email},
	}
}

func (c userCodec) Decode(rec docstore.Record) (User, error) {
	if err := docstore.ValidateID(rec.ID, docstore.TypeUser); err != nil {
		return User{}, err
	}
	if err := c.ValidateFields(rec.Fields); err != nil {
		return User{}, err
	}
	email, _ := docstore.StringField(rec.Fields, fieldEmail)
	return User{ID: rec.ID, Email: email}, nil
}
