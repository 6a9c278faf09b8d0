package config

import "time"

// Виды документного бэкенда.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// BackendConfig выбирает адаптер документного бэкенда.
type BackendConfig struct {
	Kind string `yaml:"kind" env:"NOTES_BACKEND" env-default:"memory"`
}

// SentryConfig содержит настройки стока оповещений. Пустой DSN означает,
// что оповещения уходят только в лог.
type SentryConfig struct {
	DSN         string `yaml:"dsn" env:"NOTES_SENTRY_DSN" env-default:""`
	Environment string `yaml:"environment" env:"NOTES_SENTRY_ENVIRONMENT" env-default:"development"`
}

// ShutdownConfig содержит настройки корректного завершения.
type ShutdownConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"NOTES_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// GetTimeout возвращает timeout завершения.
func (s *ShutdownConfig) GetTimeout() time.Duration {
	return s.Timeout
}
