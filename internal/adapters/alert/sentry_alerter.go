package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	svc "hypernotes/internal/ports/services"
)

const flushTimeout = 2 * time.Second

// SentryAlerter отправляет оповещения в Sentry. Само событие дублируется
// в лог стоящим рядом LogAlerter в точке сборки.
type SentryAlerter struct {
	hub *sentry.Hub
}

// NewSentryAlerter создает новый сток Sentry для указанного DSN.
func NewSentryAlerter(dsn, environment string) (*SentryAlerter, error) {
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sentry client: %w", err)
	}
	return &SentryAlerter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// Alert отправляет событие с деталями в виде тегов.
func (a *SentryAlerter) Alert(_ context.Context, event string, details map[string]string) {
	a.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelError)
		for k, v := range details {
			scope.SetTag(k, v)
		}
		a.hub.CaptureMessage(event)
	})
}

// Close сбрасывает буфер событий перед завершением.
func (a *SentryAlerter) Close() {
	a.hub.Flush(flushTimeout)
}

var _ svc.Alerter = (*SentryAlerter)(nil)
