package app

import (
	"hypernotes/internal/ports/api"
	"hypernotes/internal/ports/backend"
	svc "hypernotes/internal/ports/services"
)

// NewServices связывает сервисы приложения поверх одного дескриптора
// бэкенда. Сервисы зависят друг от друга взаимно (заметки проверяют
// родителя, каскад пользователя перечисляет заметки), поэтому связывание
// выполняется здесь, а не скрытым разделяемым окружением.
func NewServices(b backend.Backend, passwords svc.PasswordService, alerter svc.Alerter) (api.UserService, api.NoteService) {
	users := NewUserService(b, nil, passwords, alerter)
	notes := NewNoteService(b, users)
	users.notes = notes
	return users, notes
}
