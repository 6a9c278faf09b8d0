package entities

import (
	"fmt"

	"hypernotes/internal/docstore"
)

// Note представляет заметку пользователя. Parent ссылается на существующего
// пользователя на момент создания и не перепроверяется при чтении.
type Note struct {
	ID     string
	Parent string
	Title  string
	Body   string
}

// Notes - кодек документов заметки.
var Notes docstore.Codec[Note] = noteCodec{}

// Имена полей документа заметки.
const (
	fieldParent = "parent"
	fieldTitle  = "title"
	fieldBody   = "body"
)

type noteCodec struct{}

func (noteCodec) DocType() docstore.Type { return docstore.TypeNote }

// ValidateFields проверяет поля документа заметки: родитель должен быть
// идентификатором пользователя, заголовок и текст - непустыми строками.
func (noteCodec) ValidateFields(fields map[string]any) error {
	parent, err := docstore.StringField(fields, fieldParent)
	if err != nil {
		return err
	}
	if err := docstore.ValidateID(parent, docstore.TypeUser); err != nil {
		return err
	}
	title, err := docstore.StringField(fields, fieldTitle)
	if err != nil {
		return err
	}
	if title == "" {
		return fmt.Errorf("note title is empty: %w", docstore.ErrSchemaValidation)
	}
	body, err := docstore.StringField(fields, fieldBody)
	if err != nil {
		return err
	}
	if body == "" {
		return fmt.Errorf("note body is empty: %w", docstore.ErrSchemaValidation)
	}
	return nil
}

func (noteCodec) Encode(n Note) docstore.Record {
	return docstore.Record{
		ID: n.ID,
		Fields: map[string]any{
			fieldParent: n.Parent,
			fieldTitle:  n.Title,
			fieldBody:   n.Body,
		},
	}
}

func (c noteCodec) Decode(rec docstore.Record) (Note, error) {
	if err := docstore.ValidateID(rec.ID, docstore.TypeNote); err != nil {
		return Note{}, err
	}
	if err := c.ValidateFields(rec.Fields); err != nil {
		return Note{}, err
	}
	parent, _ := docstore.StringField(rec.Fields, fieldParent)
	title, _ := docstore.StringField(rec.Fields, fieldTitle)
	body, _ := docstore.StringField(rec.Fields, fieldBody)
	return Note{ID: rec.ID, Parent: parent, Title: title, Body: body}, nil
}
