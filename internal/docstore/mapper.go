package docstore

import (
	"fmt"
	"time"
)

// Контексты ошибок преобразования.
const (
	errCtxEncodingDocument = "encoding document"
	errCtxDecodingDocument = "decoding document"
)

// ToDocument преобразует доменную запись в документ хранилища:
// выводит дискриминант из префикса идентификатора, проставляет updatedAt
// текущим временем при каждом вызове, createdAt - только если запись еще
// не имеет его, и проверяет результат по конверту и переданным схемам.
// Ввод-вывод не выполняется.
func ToDocument(rec Record, schemas ...Schema) (Document, error) {
	kind, err := TypeOfID(rec.ID)
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", errCtxEncodingDocument, err)
	}

	now := time.Now().UTC()
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	doc := Document{
		ID:        rec.ID,
		Type:      kind,
		CreatedAt: createdAt,
		UpdatedAt: now,
		Fields:    cloneFields(rec.Fields),
	}

	if err := doc.Validate(); err != nil {
		return Document{}, fmt.Errorf("%s: %w", errCtxEncodingDocument, err)
	}
	for _, schema := range schemas {
		if err := applySchema(schema, doc.Type, doc.Fields); err != nil {
			return Document{}, fmt.Errorf("%s: %w", errCtxEncodingDocument, err)
		}
	}
	return doc, nil
}

// FromDocument преобразует документ хранилища обратно в доменную запись:
// проверяет конверт (в том числе согласованность префикса и дискриминанта),
// прогоняет переданные схемы и отбрасывает складские поля.
func FromDocument(doc Document, schemas ...Schema) (Record, error) {
	if err := doc.Validate(); err != nil {
		return Record{}, fmt.Errorf("%s: %w", errCtxDecodingDocument, err)
	}
	for _, schema := range schemas {
		if err := applySchema(schema, doc.Type, doc.Fields); err != nil {
			return Record{}, fmt.Errorf("%s: %w", errCtxDecodingDocument, err)
		}
	}
	return Record{
		ID:        doc.ID,
		CreatedAt: doc.CreatedAt,
		Fields:    cloneFields(doc.Fields),
	}, nil
}

func applySchema(schema Schema, kind Type, fields map[string]any) error {
	if schema.DocType() != kind {
		return fmt.Errorf("schema for %q applied to %q document: %w", schema.DocType(), kind, ErrSchemaValidation)
	}
	return schema.ValidateFields(fields)
}

// Codec связывает типизированную сущность с ее схемой документа.
type Codec[T any] interface {
	Schema
	Encode(entity T) Record
	Decode(rec Record) (T, error)
}

// ToDocumentAs кодирует сущность и преобразует ее в документ,
// проверяя результат по схеме кодека.
func ToDocumentAs[T any](c Codec[T], entity T) (Document, error) {
	return ToDocument(c.Encode(entity), c)
}

// FromDocumentAs преобразует документ в запись по схеме кодека
// и декодирует результат в типизированную сущность.
func FromDocumentAs[T any](c Codec[T], doc Document) (T, error) {
	rec, err := FromDocument(doc, c)
	if err != nil {
		var zero T
		return zero, err
	}
	return c.Decode(rec)
}
