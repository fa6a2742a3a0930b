package bot

import (
	"context"
	"os"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/config"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/domain"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/service"
)

// Bot — телеграм-бот оператора клиники: заявки приходят с кнопками
// подтверждения, команды показывают расписание.
type Bot struct {
	tgService      *service.TelegramService
	bookingService *service.BookingService
	repo           domain.Repository
	config         *config.Config
	logger         *zerolog.Logger
}

func NewBot(
	tgService *service.TelegramService,
	bookingService *service.BookingService,
	repo domain.Repository,
	cfg *config.Config,
	logger *zerolog.Logger,
) (*Bot, error) {
	if logger == nil {
		l := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger = &l
	}

	return &Bot{
		tgService:      tgService,
		bookingService: bookingService,
		repo:           repo,
		config:         cfg,
		logger:         logger,
	}, nil
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.tgService.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.tgService.GetSelf().UserName).Msg("Authorized on account")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopping...")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.processUpdate(ctx, update)
		}
	}
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	updateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	requestID := uuid.New().String()
	l := b.logger.With().Str("request_id", requestID).Logger()
	updateCtx = l.WithContext(updateCtx)

	b.withRecovery(func() {
		var userID int64
		if update.Message != nil {
			userID = update.Message.From.ID
		} else if update.CallbackQuery != nil {
			userID = update.CallbackQuery.From.ID
		}

		if userID == 0 {
			return
		}

		// Бот служебный: отвечает только оператору
		if !b.isOperator(userID) {
			b.logger.Warn().Int64("user_id", userID).Msg("Unauthorized bot access attempt")
			return
		}

		switch {
		case update.CallbackQuery != nil:
			b.handleCallbackQuery(updateCtx, update)
		case update.Message != nil && update.Message.IsCommand():
			b.handleCommand(updateCtx, update)
		}
	})
}

func (b *Bot) isOperator(userID int64) bool {
	return userID == b.config.Telegram.AdminChatID
}

func (b *Bot) withRecovery(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().Interface("panic", r).Msg("Recovered from panic in update handler")
		}
	}()
	fn()
}
