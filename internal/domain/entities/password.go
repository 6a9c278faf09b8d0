package entities

import (
	"fmt"

	"hypernotes/internal/docstore"
)

// PasswordRecord хранит хэш учетных данных пользователя. Открытый пароль
// никогда не сохраняется. На каждого пользователя существует ровно одна
// запись пароля; инвариант поддерживается дисциплиной сервисов, а не
// ограничением бэкенда.
type PasswordRecord struct {
	ID     string
	Parent string
	Hash   string
}

// Passwords - кодек документов записи пароля.
var Passwords docstore.Codec[PasswordRecord] = passwordCodec{}

const fieldHash = "hash"

type passwordCodec struct{}

func (passwordCodec) DocType() docstore.Type { return docstore.TypePassword }

// ValidateFields проверяет поля записи пароля.
func (passwordCodec) ValidateFields(fields map[string]any) error {
	parent, err := docstore.StringField(fields, fieldParent)
	if err != nil {
		return err
	}
	if err := docstore.ValidateID(parent, docstore.TypeUser); err != nil {
		return err
	}
	hash, err := docstore.StringField(fields, fieldHash)
	if err != nil {
		return err
	}
	if hash == "" {
		return fmt.Errorf("password hash is empty: %w", docstore.ErrSchemaValidation)
	}
	return nil
}

func (passwordCodec) Encode(p PasswordRecord) docstore.Record {
	return docstore.Record{
		ID: p.ID,
		Fields: map[string]any{
			fieldParent: p.Parent,
			fieldHash:   p.Hash,
		},
	}
}

func (c passwordCodec) Decode(rec docstore.Record) (PasswordRecord, error) {
	if err := docstore.ValidateID(rec.ID, docstore.TypePassword); err != nil {
		return PasswordRecord{}, err
	}
	if err := c.ValidateFields(rec.Fields); err != nil {
		return PasswordRecord{}, err
	}
	parent, _ := docstore.StringField(rec.Fields, fieldParent)
	hash, _ := docstore.StringField(rec.Fields, fieldHash)
	return PasswordRecord{ID: rec.ID, Parent: parent, Hash: hash}, nil
}
