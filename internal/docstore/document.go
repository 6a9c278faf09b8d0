package docstore

import (
	"encoding/json"
	"fmt"
	"time"
)

// Зарезервированные ключи конверта в плоском JSON-представлении.
const (
	keyID        = "_id"
	keyType      = "type"
	keyCreatedAt = "createdAt"
	keyUpdatedAt = "updatedAt"
)

// Document - складское представление: обязательный конверт (идентификатор,
// дискриминант, временные метки) плюс открытый набор полей сущности.
// Вызывающим сервисам документы не отдаются - только записи.
type Document struct {
	ID        string
	Type      Type
	CreatedAt time.Time
	UpdatedAt time.Time
	Fields    map[string]any
}

// Record - доменное представление документа: идентификатор и поля сущности
// без складских служебных полей. CreatedAt нулевой до первой записи.
type Record struct {
	ID        string
	CreatedAt time.Time
	Fields    map[string]any
}

// Schema описывает структурные ограничения полей одного вида сущности.
type Schema interface {
	DocType() Type
	ValidateFields(fields map[string]any) error
}

// Validate проверяет обязательные поля конверта и согласованность
// дискриминанта с префиксом идентификатора.
func (d Document) Validate() error {
	kind, err := TypeOfID(d.ID)
	if err != nil {
		return err
	}
	if d.Type != kind {
		return fmt.Errorf("document type %q does not match identifier %q: %w", d.Type, d.ID, ErrSchemaValidation)
	}
	if d.CreatedAt.IsZero() || d.UpdatedAt.IsZero() {
		return fmt.Errorf("document %q is missing timestamps: %w", d.ID, ErrSchemaValidation)
	}
	return nil
}

// StringField извлекает обязательное строковое поле из набора полей.
func StringField(fields map[string]any, key string) (string, error) {
	v, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("missing field %q: %w", key, ErrSchemaValidation)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q is not a string: %w", key, ErrSchemaValidation)
	}
	return s, nil
}

// MarshalJSON сериализует документ в плоский hyper-образный JSON:
// поля конверта и поля сущности лежат на одном уровне.
func (d Document) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(d.Fields)+4)
	for k, v := range d.Fields {
		flat[k] = v
	}
	flat[keyID] = d.ID
	flat[keyType] = string(d.Type)
	flat[keyCreatedAt] = d.CreatedAt.UTC().Format(time.RFC3339Nano)
	flat[keyUpdatedAt] = d.UpdatedAt.UTC().Format(time.RFC3339Nano)
	return json.Marshal(flat)
}

// UnmarshalJSON разбирает плоский JSON обратно в конверт и поля сущности.
// Неизвестные поля сохраняются в Fields без изменений.
func (d *Document) UnmarshalJSON(data []byte) error {
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		return fmt.Errorf("unmarshaling document: %w", err)
	}

	id, err := StringField(flat, keyID)
	if err != nil {
		return err
	}
	docType, err := StringField(flat, keyType)
	if err != nil {
		return err
	}
	createdAt, err := timeField(flat, keyCreatedAt)
	if err != nil {
		return err
	}
	updatedAt, err := timeField(flat, keyUpdatedAt)
	if err != nil {
		return err
	}

	fields := make(map[string]any, len(flat))
	for k, v := range flat {
		switch k {
		case keyID, keyType, keyCreatedAt, keyUpdatedAt:
		default:
			fields[k] = v
		}
	}

	*d = Document{
		ID:        id,
		Type:      Type(docType),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		Fields:    fields,
	}
	return nil
}

func timeField(flat map[string]any, key string) (time.Time, error) {
	s, err := StringField(flat, key)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("field %q is not a timestamp: %w", key, ErrSchemaValidation)
	}
	return t, nil
}

func cloneFields(fields map[string]any) map[string]any {
	clone := make(map[string]any, len(fields))
	for k, v := range fields {
		clone[k] = v
	}
	return clone
}
