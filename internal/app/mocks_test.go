package app_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"hypernotes/internal/adapters/memory"
	"hypernotes/internal/adapters/services"
	"hypernotes/internal/app"
	"hypernotes/internal/docstore"
	"hypernotes/internal/ports/api"
)

// mockBackend - бэкенд на testify mock для проверки точных обращений.
type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Get(ctx context.Context, id string) (docstore.Document, error) {
	args := m.Called(ctx, id)
	doc, _ := args.Get(0).(docstore.Document)
	return doc, args.Error(1)
}

func (m *mockBackend) Query(ctx context.Context, filter map[string]any) ([]docstore.Document, error) {
	args := m.Called(ctx, filter)
	docs, _ := args.Get(0).([]docstore.Document)
	return docs, args.Error(1)
}

func (m *mockBackend) Add(ctx context.Context, doc docstore.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *mockBackend) Remove(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockBackend) Bulk(ctx context.Context, docs []docstore.Document) error {
	args := m.Called(ctx, docs)
	return args.Error(0)
}

// recordingAlerter копит оповещения для проверок.
type recordingAlerter struct {
	mu     sync.Mutex
	events []alertEvent
}

type alertEvent struct {
	event   string
	details map[string]string
}

func (a *recordingAlerter) Alert(_ context.Context, event string, details map[string]string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, alertEvent{event: event, details: details})
}

func (a *recordingAlerter) Events() []alertEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]alertEvent(nil), a.events...)
}

// testServices собирает сервисы на бэкенде в памяти с дешевым bcrypt.
type testServices struct {
	users   api.UserService
	notes   api.NoteService
	store   *memory.Backend
	alerter *recordingAlerter
}

func newTestServices() *testServices {
	store := memory.New()
	alerter := &recordingAlerter{}
	users, notes := app.NewServices(store, services.NewBcrypt(bcrypt.MinCost), alerter)
	return &testServices{
		users:   users,
		notes:   notes,
		store:   store,
		alerter: alerter,
	}
}
