package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/api"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/bot"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/config"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/database"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/domain"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/events"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/google"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/logging"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/metrics"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/repository"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/service"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/storage"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/worker"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, cfg.Location(), &logger)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации базы данных")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, cache := initCache(ctx, cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	calendarService, err := initGoogleCalendar(ctx, cfg, &logger)
	if err != nil {
		return err
	}

	notifier, err := initNotifier(cfg, &logger)
	if err != nil {
		return err
	}

	calendarWorker := worker.NewCalendarWorker(db, calendarService, redisClient, worker.DefaultRetryPolicy(), &logger)
	go calendarWorker.Start(ctx)

	eventBus := events.NewEventBus()
	subscribeAppointmentEvents(eventBus, &logger)

	bookingService := service.NewBookingService(
		db, calendarService, notifier, cache, calendarWorker, eventBus,
		cfg.Clinic.MaxBookingDays, &logger,
	)

	uploads, err := storage.NewLocalStorage(cfg.Storage.UploadsPath, cfg.Storage.PublicBaseURL)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации хранилища загрузок")
		return err
	}

	httpServer := api.NewHTTPServer(
		cfg.API, bookingService, db, uploads,
		uploads.Dir(), uploads.BaseURL(), &logger,
	)

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	startMetrics(ctx, cfg, &logger)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	return httpServer.Start()
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для базы данных")
		return err
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для экспорта")
		return err
	}
	return nil
}

func initCache(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, domain.AvailabilityCache) {
	fallback := repository.NewMemoryAvailabilityCache()

	if cfg.Redis.Address == "" {
		logger.Info().Msg("Redis не настроен, кэш доступности в памяти процесса")
		return nil, fallback
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable")
	}

	primary := repository.NewRedisAvailabilityCache(redisClient)
	return redisClient, repository.NewFailoverAvailabilityCache(primary, fallback, logger)
}

func initGoogleCalendar(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*google.CalendarService, error) {
	if cfg.Google.CredentialsFile == "" || cfg.Google.CalendarID == "" {
		logger.Error().Msg("Нехватает переменных для подключения к Гуглу")
		return nil, os.ErrInvalid
	}

	calendarSvc, err := google.NewCalendarService(cfg.Google.CredentialsFile, cfg.Google.CalendarID, cfg.Location())
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize Google Calendar service")
		return nil, err
	}

	if err := calendarSvc.TestConnection(ctx); err != nil {
		if email, emailErr := google.GetServiceAccountEmail(cfg.Google.CredentialsFile); emailErr == nil {
			logger.Error().Str("service_account", email).Msg("Выдайте сервисному аккаунту доступ к календарю")
		}
		logger.Error().Err(err).Msg("Google Calendar connection test failed")
		return nil, err
	}

	logger.Info().Msg("Google Calendar service initialized successfully")
	return calendarSvc, nil
}

// initNotifier создает send-only клиент Telegram для уведомлений о заявках.
func initNotifier(cfg *config.Config, logger *zerolog.Logger) (*service.TelegramService, error) {
	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания BotAPI")
		return nil, err
	}
	botAPI.Debug = cfg.Telegram.Debug

	return service.NewTelegramService(bot.NewTelegramClient(botAPI), cfg.Telegram.AdminChatID), nil
}

func subscribeAppointmentEvents(eventBus *events.EventBus, logger *zerolog.Logger) {
	for _, eventType := range []string{
		events.EventAppointmentCreated,
		events.EventAppointmentConfirmed,
		events.EventAppointmentCanceled,
		events.EventAppointmentCompleted,
	} {
		et := eventType
		eventBus.Subscribe(et, func(event *events.Event) error {
			logger.Info().Str("event", et).RawJSON("payload", event.Payload).Msg("appointment event")
			return nil
		})
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("Prometheus metrics listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
