// Package config предоставляет конфигурацию приложения заметок,
// загружаемую из переменных окружения через cleanenv.
package config

import (
	"context"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"

	"hypernotes/pkg/logger"
)

// Константы для сообщений.
const (
	msgLoadingConfiguration    = "loading configuration"
	msgConfigurationLoaded     = "configuration loaded successfully"
	msgFailedLoadConfiguration = "failed to load configuration"

	errFailedLoadConfiguration = "failed to load configuration"
)

// envFile - необязательный файл окружения для локального запуска.
const envFile = "deploy/.env"

// Config - конфигурация службы заметок.
type Config struct {
	Logging  LoggingConfig
	Backend  BackendConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Sentry   SentryConfig
	Shutdown ShutdownConfig
}

// Load загружает конфигурацию из файла окружения (если он есть)
// и переменных окружения.
func Load(ctx context.Context) (*Config, error) {
	log := logger.Log(ctx)
	log.Info(ctx, msgLoadingConfiguration, zap.String("path", envFile))

	var cfg Config
	var err error
	if _, statErr := os.Stat(envFile); statErr == nil {
		err = cleanenv.ReadConfig(envFile, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		log.Error(ctx, msgFailedLoadConfiguration, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errFailedLoadConfiguration, err)
	}

	log.Info(ctx, msgConfigurationLoaded, zap.String("backend", cfg.Backend.Kind))
	return &cfg, nil
}
