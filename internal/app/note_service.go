// Package app реализует бизнес-логику приложения заметок.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"hypernotes/internal/docstore"
	"hypernotes/internal/domain/entities"
	"hypernotes/internal/ports/api"
	"hypernotes/internal/ports/backend"
	"hypernotes/pkg/logger"
)

// Константы методов и сообщений сервиса заметок.
const (
	methodGetNote          = "GetNote"
	methodGetNotesByParent = "GetNotesByParent"
	methodCreateNote       = "CreateNote"
	methodDeleteNote       = "DeleteNote"

	msgNoteNotFound      = "note not found in backend"
	msgParentNotFound    = "parent user does not exist"
	msgNoteCreated       = "note created"
	msgNoteDeleted       = "note deleted"
	msgErrFetchingNote   = "failed to fetch note"
	msgErrQueryingNotes  = "failed to query notes"
	msgErrAddingNote     = "failed to add note document"
	msgErrRemovingNote   = "failed to remove note document"
	msgErrDecodingNote   = "failed to decode note document"
	msgErrCheckingParent = "failed to check parent user"

	errCtxValidatingNoteID = "validating note id"
	errCtxFetchingNote     = "fetching note"
	errCtxCheckingParent   = "checking parent user"
	errCtxParentNotFound   = "parent user"
	errCtxQueryingNotes    = "querying notes"
	errCtxDecodingNote     = "decoding note"
	errCtxEncodingNote     = "encoding note"
	errCtxAddingNote       = "adding note"
	errCtxRemovingNote     = "removing note"
	errCtxNoteNotFound     = "note"
)

// NoteServiceImpl реализует интерфейс api.NoteService.
type NoteServiceImpl struct {
	backend backend.Backend
	users   api.UserFinder
}

// NewNoteService создает новый экземпляр сервиса заметок.
func NewNoteService(b backend.Backend, users api.UserFinder) *NoteServiceImpl {
	return &NoteServiceImpl{
		backend: b,
		users:   users,
	}
}

// GetNote возвращает заметку по идентификатору. Ответ 404 от бэкенда
// отображается в nil; некорректный идентификатор - ошибка схемы.
func (s *NoteServiceImpl) GetNote(ctx context.Context, id string) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", methodGetNote), zap.String("noteID", id))

	if err := docstore.ValidateID(id, docstore.TypeNote); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxValidatingNoteID, err)
	}

	doc, err := s.backend.Get(ctx, id)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			log.Debug(ctx, msgNoteNotFound)
			return nil, nil
		}
		log.Error(ctx, msgErrFetchingNote, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxFetchingNote, err)
	}

	note, err := docstore.FromDocumentAs(entities.Notes, doc)
	if err != nil {
		log.Error(ctx, msgErrDecodingNote, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxDecodingNote, err)
	}
	return &note, nil
}

// GetNotesByParent возвращает все заметки пользователя. Родитель обязан
// существовать; отсутствие заметок - пустой список, а не ошибка.
func (s *NoteServiceImpl) GetNotesByParent(ctx context.Context, parent string) ([]entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", methodGetNotesByParent), zap.String("parent", parent))

	if err := s.checkParent(ctx, parent); err != nil {
		return nil, err
	}

	docs, err := s.backend.Query(ctx, map[string]any{
		"type":   string(docstore.TypeNote),
		"parent": parent,
	})
	if err != nil {
		log.Error(ctx, msgErrQueryingNotes, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxQueryingNotes, err)
	}

	notes := make([]entities.Note, 0, len(docs))
	for _, doc := range docs {
		note, err := docstore.FromDocumentAs(entities.Notes, doc)
		if err != nil {
			log.Error(ctx, msgErrDecodingNote, zap.Error(err), zap.String("docID", doc.ID))
			return nil, fmt.Errorf("%s: %w", errCtxDecodingNote, err)
		}
		notes = append(notes, note)
	}
	return notes, nil
}

// CreateNote создает заметку для существующего родителя. Запись выполняется
// только после успешной проверки родителя и схемы заметки; возвращается
// проверенная доменная запись, а не повторное чтение хранилища.
func (s *NoteServiceImpl) CreateNote(ctx context.Context, parent, title, body string) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", methodCreateNote), zap.String("parent", parent))

	if err := s.checkParent(ctx, parent); err != nil {
		return nil, err
	}

	note := entities.Note{
		ID:     docstore.NewNoteID(),
		Parent: parent,
		Title:  title,
		Body:   body,
	}

	doc, err := docstore.ToDocumentAs(entities.Notes, note)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxEncodingNote, err)
	}

	if err := s.backend.Add(ctx, doc); err != nil {
		log.Error(ctx, msgErrAddingNote, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxAddingNote, err)
	}

	log.Info(ctx, msgNoteCreated, zap.String("noteID", note.ID))
	return &note, nil
}

// DeleteNote удаляет заметку, предварительно убедившись, что она существует
// и принадлежит указанному родителю. Удаление отсутствующей заметки - ошибка.
func (s *NoteServiceImpl) DeleteNote(ctx context.Context, id, parent string) error {
	log := logger.Log(ctx).With(zap.String("method", methodDeleteNote), zap.String("noteID", id))

	note, err := s.GetNote(ctx, id)
	if err != nil {
		return err
	}
	if note == nil || note.Parent != parent {
		log.Debug(ctx, msgNoteNotFound)
		return fmt.Errorf("%s %s: %w", errCtxNoteNotFound, id, entities.ErrNotFound)
	}

	if err := s.backend.Remove(ctx, id); err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return fmt.Errorf("%s %s: %w", errCtxNoteNotFound, id, entities.ErrNotFound)
		}
		log.Error(ctx, msgErrRemovingNote, zap.Error(err))
		return fmt.Errorf("%s: %w", errCtxRemovingNote, err)
	}

	log.Info(ctx, msgNoteDeleted)
	return nil
}

// checkParent проверяет ссылочную целостность: родитель заметки должен
// существовать. Выполняется до любой записи.
func (s *NoteServiceImpl) checkParent(ctx context.Context, parent string) error {
	log := logger.Log(ctx).With(zap.String("parent", parent))

	user, err := s.users.GetUserByID(ctx, parent)
	if err != nil {
		log.Error(ctx, msgErrCheckingParent, zap.Error(err))
		return fmt.Errorf("%s: %w", errCtxCheckingParent, err)
	}
	if user == nil {
		log.Debug(ctx, msgParentNotFound)
		return fmt.Errorf("%s %s: %w", errCtxParentNotFound, parent, entities.ErrNotFound)
	}
	return nil
}
