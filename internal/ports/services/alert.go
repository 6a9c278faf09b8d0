package services

import "context"

// Alerter - хук операционных оповещений об аномалиях данных,
// например о пользователе без записи пароля. Сток оповещений
// настраивается в точке сборки.
type Alerter interface {
	Alert(ctx context.Context, event string, details map[string]string)
}
