// Package entities определяет доменные сущности приложения заметок
// и их кодеки документов.
package entities

import "errors"

// Таксономия доменных ошибок. Каждый вид имеет собственную идентичность,
// чтобы внешний слой мог показывать различимые сообщения; коды транспорта
// здесь не назначаются.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)
