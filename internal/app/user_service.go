package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"hypernotes/internal/docstore"
	"hypernotes/internal/domain/entities"
	"hypernotes/internal/ports/api"
	"hypernotes/internal/ports/backend"
	svc "hypernotes/internal/ports/services"
	"hypernotes/pkg/logger"
)

// Константы методов и сообщений сервиса пользователей.
const (
	methodGetUserByID    = "GetUserByID"
	methodGetUserByEmail = "GetUserByEmail"
	methodCreateUser     = "CreateUser"
	methodDeleteUser     = "DeleteUser"
	methodVerifyLogin    = "VerifyLogin"

	msgUserNotFound          = "user not found in backend"
	msgDuplicateEmails       = "multiple users share one email, last one wins"
	msgEmailExists           = "user with this email already exists"
	msgUserCreated           = "user created with credential record"
	msgUserDeleted           = "user deleted"
	msgCascadeStarting       = "starting cascade deletion"
	msgLoginRejected         = "login rejected, password mismatch"
	msgUserLoggedIn          = "user verified successfully"
	msgMissingPasswordRecord = "user exists without password record"

	msgErrFetchingUser    = "failed to fetch user"
	msgErrQueryingUsers   = "failed to query users"
	msgErrDecodingUser    = "failed to decode user document"
	msgErrHashingPassword = "failed to hash password"
	msgErrBulkWrite       = "failed to write user and password documents"
	msgErrListingNotes    = "failed to list notes for cascade"
	msgErrCascadeNotes    = "failed to delete notes during cascade"
	msgErrRemovingDoc     = "failed to remove document"
	msgErrVerifyingHash   = "failed to verify password against hash"

	errCtxValidatingUserID   = "validating user id"
	errCtxValidatingEmail    = "validating email"
	errCtxFetchingUser       = "fetching user"
	errCtxQueryingUsers      = "querying users"
	errCtxDecodingUser       = "decoding user"
	errCtxDecodingPassword   = "decoding password record"
	errCtxEmailRegistered    = "email already registered"
	errCtxHashingPassword    = "hashing password"
	errCtxEncodingUser       = "encoding user"
	errCtxEncodingPassword   = "encoding password record"
	errCtxBulkWrite          = "writing user and password"
	errCtxUserNotFound       = "user"
	errCtxPasswordNotFound   = "password record for user"
	errCtxQueryingPasswords  = "querying password records"
	errCtxListingNotes       = "listing notes for cascade"
	errCtxDeletingNotes      = "deleting notes"
	errCtxRemovingPassword   = "removing password record"
	errCtxRemovingUser       = "removing user record"
	errCtxVerifyingPassword  = "verifying password"
	errCtxInvalidCredentials = "invalid credentials"
)

// eventMissingPassword - событие оповещения об аномалии целостности данных.
const eventMissingPassword = "user missing password record"

// UserServiceImpl реализует интерфейс api.UserService.
// Каждая операция - отдельный обход бэкенда без разделяемого состояния.
type UserServiceImpl struct {
	backend   backend.Backend
	notes     api.NoteLister
	passwords svc.PasswordService
	alerter   svc.Alerter
}

// NewUserService создает новый экземпляр сервиса пользователей.
func NewUserService(b backend.Backend, notes api.NoteLister, passwords svc.PasswordService, alerter svc.Alerter) *UserServiceImpl {
	return &UserServiceImpl{
		backend:   b,
		notes:     notes,
		passwords: passwords,
		alerter:   alerter,
	}
}

// GetUserByID возвращает пользователя по идентификатору.
// Ответ 404 от бэкенда отображается в nil.
func (s *UserServiceImpl) GetUserByID(ctx context.Context, id string) (*entities.User, error) {
	log := logger.Log(ctx).With(zap.String("method", methodGetUserByID), zap.String("userID", id))

	if err := docstore.ValidateID(id, docstore.TypeUser); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxValidatingUserID, err)
	}

	doc, err := s.backend.Get(ctx, id)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			log.Debug(ctx, msgUserNotFound)
			return nil, nil
		}
		log.Error(ctx, msgErrFetchingUser, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxFetchingUser, err)
	}

	user, err := docstore.FromDocumentAs(entities.Users, doc)
	if err != nil {
		log.Error(ctx, msgErrDecodingUser, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxDecodingUser, err)
	}
	return &user, nil
}

// GetUserByEmail возвращает пользователя по email или nil. Email приводится
// к нижнему регистру и проверяется; при нескольких совпадениях (нарушенный
// инвариант уникальности) побеждает последний документ.
func (s *UserServiceImpl) GetUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	log := logger.Log(ctx).With(zap.String("method", methodGetUserByEmail))

	email, err := entities.NormalizeEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxValidatingEmail, err)
	}

	docs, err := s.backend.Query(ctx, map[string]any{
		"type":  string(docstore.TypeUser),
		"email": email,
	})
	if err != nil {
		log.Error(ctx, msgErrQueryingUsers, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxQueryingUsers, err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	if len(docs) > 1 {
		log.Warn(ctx, msgDuplicateEmails, zap.Int("count", len(docs)))
	}

	user, err := docstore.FromDocumentAs(entities.Users, docs[len(docs)-1])
	if err != nil {
		log.Error(ctx, msgErrDecodingUser, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxDecodingUser, err)
	}
	return &user, nil
}

// CreateUser создает пользователя и его запись пароля одной атомарной
// bulk-записью, чтобы пользователь не был наблюдаем без учетных данных.
// Проверка занятости email подвержена гонке двух конкурентных созданий -
// принятая слабость, бэкенд уникальность не обеспечивает.
func (s *UserServiceImpl) CreateUser(ctx context.Context, email, password string) (*entities.User, error) {
	log := logger.Log(ctx).With(zap.String("method", methodCreateUser))

	email, err := entities.NormalizeEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxValidatingEmail, err)
	}

	existing, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		log.Debug(ctx, msgEmailExists)
		return nil, fmt.Errorf("%s: %w", errCtxEmailRegistered, entities.ErrConflict)
	}

	hash, err := s.passwords.Hash(ctx, password)
	if err != nil {
		log.Error(ctx, msgErrHashingPassword, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxHashingPassword, err)
	}

	user := entities.User{ID: docstore.NewUserID(), Email: email}
	record := entities.PasswordRecord{
		ID:     docstore.NewPasswordID(),
		Parent: user.ID,
		Hash:   hash,
	}

	userDoc, err := docstore.ToDocumentAs(entities.Users, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxEncodingUser, err)
	}
	passwordDoc, err := docstore.ToDocumentAs(entities.Passwords, record)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxEncodingPassword, err)
	}

	if err := s.backend.Bulk(ctx, []docstore.Document{userDoc, passwordDoc}); err != nil {
		log.Error(ctx, msgErrBulkWrite, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxBulkWrite, err)
	}

	log.Info(ctx, msgUserCreated, zap.String("userID", user.ID))
	return &user, nil
}

// DeleteUser каскадно удаляет пользователя: сначала заметки, затем запись
// пароля, затем самого пользователя. Мультидокументных транзакций на
// разнородные удаления бэкенд не дает, поэтому каскад best-effort: при
// сбое на заметках пароль и пользователь остаются, повторный вызов
// довершает удаление. Удаления заметок независимы и выполняются
// конкурентно; все они завершаются до удаления пароля и пользователя.
func (s *UserServiceImpl) DeleteUser(ctx context.Context, email string) error {
	log := logger.Log(ctx).With(zap.String("method", methodDeleteUser))

	user, record, err := s.getUserAndPassword(ctx, email)
	if err != nil {
		return err
	}

	notes, err := s.notes.GetNotesByParent(ctx, user.ID)
	if err != nil {
		log.Error(ctx, msgErrListingNotes, zap.Error(err))
		return fmt.Errorf("%s: %w", errCtxListingNotes, err)
	}

	log.Info(ctx, msgCascadeStarting,
		zap.String("userID", user.ID),
		zap.Int("notes", len(notes)))

	if err := s.removeNotes(ctx, notes); err != nil {
		log.Error(ctx, msgErrCascadeNotes, zap.Error(err))
		return fmt.Errorf("%s: %w", errCtxDeletingNotes, err)
	}

	if err := s.removeTolerant(ctx, record.ID); err != nil {
		return fmt.Errorf("%s: %w", errCtxRemovingPassword, err)
	}
	if err := s.removeTolerant(ctx, user.ID); err != nil {
		return fmt.Errorf("%s: %w", errCtxRemovingUser, err)
	}

	log.Info(ctx, msgUserDeleted, zap.String("userID", user.ID))
	return nil
}

// VerifyLogin сверяет пароль со стоящим за пользователем хэшем.
// Ни хэш, ни открытый пароль не логируются и не возвращаются.
func (s *UserServiceImpl) VerifyLogin(ctx context.Context, email, password string) (*entities.User, error) {
	log := logger.Log(ctx).With(zap.String("method", methodVerifyLogin))

	user, record, err := s.getUserAndPassword(ctx, email)
	if err != nil {
		return nil, err
	}

	ok, err := s.passwords.Verify(ctx, password, record.Hash)
	if err != nil {
		log.Error(ctx, msgErrVerifyingHash, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errCtxVerifyingPassword, err)
	}
	if !ok {
		log.Debug(ctx, msgLoginRejected, zap.String("userID", user.ID))
		return nil, fmt.Errorf("%s: %w", errCtxInvalidCredentials, entities.ErrUnauthorized)
	}

	log.Info(ctx, msgUserLoggedIn, zap.String("userID", user.ID))
	return user, nil
}

// getUserAndPassword разрешает пользователя и его запись пароля одним
// обращением. Пользователь без записи пароля - аномалия целостности:
// она уходит в хук оповещений и возвращается как ErrNotFound.
func (s *UserServiceImpl) getUserAndPassword(ctx context.Context, email string) (*entities.User, *entities.PasswordRecord, error) {
	log := logger.Log(ctx)

	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, fmt.Errorf("%s: %w", errCtxUserNotFound, entities.ErrNotFound)
	}

	docs, err := s.backend.Query(ctx, map[string]any{
		"type":   string(docstore.TypePassword),
		"parent": user.ID,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", errCtxQueryingPasswords, err)
	}
	if len(docs) == 0 {
		log.Error(ctx, msgMissingPasswordRecord, zap.String("userID", user.ID))
		s.alerter.Alert(ctx, eventMissingPassword, map[string]string{
			"user_id": user.ID,
		})
		return nil, nil, fmt.Errorf("%s %s: %w", errCtxPasswordNotFound, user.ID, entities.ErrNotFound)
	}

	record, err := docstore.FromDocumentAs(entities.Passwords, docs[len(docs)-1])
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", errCtxDecodingPassword, err)
	}
	return user, &record, nil
}

// removeNotes конкурентно удаляет заметки каскада и дожидается всех
// удалений. Уже отсутствующая заметка не считается ошибкой: удаления
// идемпотентны на уровне хранилища.
func (s *UserServiceImpl) removeNotes(ctx context.Context, notes []entities.Note) error {
	var (
		wgp      sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for _, note := range notes {
		wgp.Add(1)
		go func(id string) {
			defer wgp.Done()
			if err := s.removeTolerant(ctx, id); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(note.ID)
	}
	wgp.Wait()
	return firstErr
}

// removeTolerant удаляет документ, трактуя 404 как уже достигнутый результат.
func (s *UserServiceImpl) removeTolerant(ctx context.Context, id string) error {
	if err := s.backend.Remove(ctx, id); err != nil && !errors.Is(err, backend.ErrNotFound) {
		logger.Log(ctx).Error(ctx, msgErrRemovingDoc, zap.Error(err), zap.String("docID", id))
		return err
	}
	return nil
}
