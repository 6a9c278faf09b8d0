// Package alert содержит стоки операционных оповещений.
package alert

import (
	"context"

	"go.uber.org/zap"

	svc "hypernotes/internal/ports/services"
	"hypernotes/pkg/logger"
)

const msgDataAnomaly = "data integrity anomaly"

// LogAlerter пишет оповещения в лог уровнем Error. Сток по умолчанию,
// когда внешняя система оповещений не настроена.
type LogAlerter struct{}

// NewLogAlerter создает новый LogAlerter.
func NewLogAlerter() svc.Alerter {
	return &LogAlerter{}
}

// Alert пишет событие и его детали в лог.
func (a *LogAlerter) Alert(ctx context.Context, event string, details map[string]string) {
	fields := make([]zap.Field, 0, len(details)+1)
	fields = append(fields, zap.String("event", event))
	for k, v := range details {
		fields = append(fields, zap.String(k, v))
	}
	logger.Log(ctx).Error(ctx, msgDataAnomaly, fields...)
}
