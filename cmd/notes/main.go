// Package main реализует точку входа службы заметок.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"hypernotes/internal/adapters/alert"
	"hypernotes/internal/adapters/memory"
	"hypernotes/internal/adapters/postgresdoc"
	"hypernotes/internal/adapters/redisdoc"
	"hypernotes/internal/adapters/services"
	"hypernotes/internal/app"
	"hypernotes/internal/config"
	"hypernotes/internal/db"
	"hypernotes/internal/docstore"
	"hypernotes/internal/ports/api"
	"hypernotes/internal/ports/backend"
	svc "hypernotes/internal/ports/services"
	"hypernotes/pkg/logger"
	"hypernotes/pkg/shutdown"
)

// Константы для переменных окружения.
const (
	EnvLoggerMode  = "NOTES_LOGGER_MODE"
	EnvLoggerLevel = "NOTES_LOGGER_LEVEL"
)

// Константы для сообщений об ошибках.
const (
	ErrInitLogger           = "failed to initialize logger"
	ErrSyncLogger           = "failed to sync logger"
	ErrLoadConfig           = "failed to load configuration"
	ErrInitLoggerWithConfig = "failed to initialize logger with configuration settings"
	ErrInitBackend          = "failed to initialize document backend"
	ErrInitAlerter          = "failed to initialize alerter"
	ErrUnknownBackend       = "unknown document backend kind"
	ErrSelfCheck            = "startup self-check failed"
)

// Константы для игнорируемых ошибок.
const (
	ErrSyncStderr = "sync /dev/stderr: invalid argument"
	ErrSyncStdout = "sync /dev/stdout: invalid argument"
)

// Константы для сообщений сервиса.
const (
	LogServiceStarted      = "note service started"
	LogServiceShutdownDone = "note service shutdown complete"
	LogClosingDB           = "closing database connections"
	LogClosingRedis        = "closing redis connection"
	LogFlushingAlerts      = "flushing pending alerts"
	LogInitBackend         = "initializing document backend"
	LogInitServices        = "initializing services"
	LogSelfCheck           = "running startup self-check"
)

const (
	migrationsDir = "migrations/documents"
	bcryptCost    = 10
	probeEmail    = "selfcheck@localhost.localdomain"
)

func main() {
	env := logger.Development
	if strings.ToLower(os.Getenv(EnvLoggerMode)) == "production" {
		env = logger.Production
	}

	log, err := logger.NewLogger(env, os.Getenv(EnvLoggerLevel))
	if err != nil {
		panic(ErrInitLogger + ": " + err.Error())
	}

	logger.SetGlobalLogger(log)

	ctx := logger.NewRequestIDContext(context.Background(), "")

	var exitCode int

	func() {
		defer func() {
			if err := log.Sync(); err != nil {
				errMsg := err.Error()
				if strings.Contains(errMsg, ErrSyncStderr) || strings.Contains(errMsg, ErrSyncStdout) {
					return
				}
				if _, writeErr := fmt.Fprintf(os.Stderr, "%s: %v\n", ErrSyncLogger, err); writeErr != nil {
					panic(writeErr)
				}
			}
		}()

		cfg, err := config.Load(ctx)
		if err != nil {
			log.Error(ctx, ErrLoadConfig, zap.Error(err))
			exitCode = 1
			return
		}

		finalLogger, err := logger.NewLogger(cfg.Logging.GetEnvironment(), cfg.Logging.Level)
		if err != nil {
			log.Error(ctx, ErrInitLoggerWithConfig, zap.Error(err))
			exitCode = 1
			return
		}
		logger.SetGlobalLogger(finalLogger)
		log = finalLogger

		log.Info(ctx, LogInitBackend, zap.String("kind", cfg.Backend.Kind))

		var hooks []func(context.Context) error

		var store backend.Backend
		switch cfg.Backend.Kind {
		case config.BackendMemory:
			store = memory.New()
		case config.BackendRedis:
			redisBackend, err := redisdoc.New(ctx, &cfg.Redis)
			if err != nil {
				log.Error(ctx, ErrInitBackend, zap.Error(err))
				exitCode = 1
				return
			}
			store = redisBackend
			hooks = append(hooks, func(ctx context.Context) error {
				log.Info(ctx, LogClosingRedis)
				return redisBackend.Close()
			})
		case config.BackendPostgres:
			database, err := db.New(ctx, &cfg.Postgres, migrationsDir)
			if err != nil {
				log.Error(ctx, ErrInitBackend, zap.Error(err))
				exitCode = 1
				return
			}
			store = postgresdoc.New(database.Pool())
			hooks = append(hooks, func(ctx context.Context) error {
				log.Info(ctx, LogClosingDB)
				database.Close(ctx)
				return nil
			})
		default:
			log.Error(ctx, ErrUnknownBackend, zap.String("kind", cfg.Backend.Kind))
			exitCode = 1
			return
		}

		log.Info(ctx, LogInitServices)
		passwords := services.NewBcrypt(bcryptCost)

		var alerter svc.Alerter = alert.NewLogAlerter()
		if cfg.Sentry.DSN != "" {
			sentryAlerter, err := alert.NewSentryAlerter(cfg.Sentry.DSN, cfg.Sentry.Environment)
			if err != nil {
				log.Error(ctx, ErrInitAlerter, zap.Error(err))
				exitCode = 1
				return
			}
			alerter = sentryAlerter
			hooks = append(hooks, func(ctx context.Context) error {
				log.Info(ctx, LogFlushingAlerts)
				sentryAlerter.Close()
				return nil
			})
		}

		userService, noteService := app.NewServices(store, passwords, alerter)

		log.Info(ctx, LogSelfCheck)
		if err := selfCheck(ctx, userService, noteService); err != nil {
			log.Error(ctx, ErrSelfCheck, zap.Error(err))
			exitCode = 1
			return
		}

		log.Info(ctx, LogServiceStarted,
			zap.String("environment", string(cfg.Logging.GetEnvironment())),
			zap.String("log_level", cfg.Logging.Level),
			zap.String("backend", cfg.Backend.Kind),
			zap.String("startup_time", time.Now().Format(time.RFC3339)))

		shutdown.Wait(cfg.Shutdown.GetTimeout(), hooks...)

		log.Info(ctx, LogServiceShutdownDone)
	}()

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// selfCheck прогоняет пути чтения обоих сервисов по заведомо
// отсутствующим идентификаторам, проверяя доступность бэкенда.
func selfCheck(ctx context.Context, users api.UserService, notes api.NoteService) error {
	if _, err := users.GetUserByEmail(ctx, probeEmail); err != nil {
		return fmt.Errorf("user lookup: %w", err)
	}
	if _, err := notes.GetNote(ctx, docstore.NewNoteID()); err != nil {
		return fmt.Errorf("note lookup: %w", err)
	}
	return nil
}
