package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/bot"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/config"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/database"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/domain"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/events"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/google"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/logging"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/repository"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/service"
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

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для базы данных")
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

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания BotAPI")
		return err
	}
	botAPI.Debug = cfg.Telegram.Debug
	tgService := service.NewTelegramService(bot.NewTelegramClient(botAPI), cfg.Telegram.AdminChatID)

	calendarWorker := worker.NewCalendarWorker(db, calendarService, redisClient, worker.DefaultRetryPolicy(), &logger)
	go calendarWorker.Start(ctx)

	eventBus := events.NewEventBus()

	bookingService := service.NewBookingService(
		db, calendarService, tgService, cache, calendarWorker, eventBus,
		cfg.Clinic.MaxBookingDays, &logger,
	)

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	telegramBot, err := bot.NewBot(tgService, bookingService, db, cfg, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания бота")
		return err
	}

	logger.Info().Msg("Бот запущен...")
	telegramBot.StartReminders(ctx)
	telegramBot.Start(ctx)

	logger.Info().Msg("Shutdown complete.")
	return nil
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
	logger := baseLogger.With().Str("component", "bot-main").Logger()

	return cfg, logger, closer, nil
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
		logger.Error().Err(err).Msg("Google Calendar connection test failed")
		return nil, err
	}

	logger.Info().Msg("Google Calendar service initialized successfully")
	return calendarSvc, nil
}
