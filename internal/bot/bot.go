// Package bot is the staff-facing Telegram bot: it reads the contact inbox,
// runs Excel exports and shows the price table.
package bot

import (
	"context"
	"time"

	"carspa/internal/domain"
	"carspa/internal/metrics"
	"carspa/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const updateTimeout = 30 * time.Second

type Bot struct {
	tgService domain.TelegramService
	managers  map[int64]bool
	contacts  domain.ContactService
	exporter  domain.Exporter
	catalog   *models.Catalog
	loc       *time.Location
	now       func() time.Time
	logger    *zerolog.Logger
}

func NewBot(
	tgService domain.TelegramService,
	managerIDs []int64,
	contacts domain.ContactService,
	exporter domain.Exporter,
	catalog *models.Catalog,
	loc *time.Location,
	logger *zerolog.Logger,
) *Bot {
	managers := make(map[int64]bool, len(managerIDs))
	for _, id := range managerIDs {
		managers[id] = true
	}
	if loc == nil {
		loc = time.UTC
	}

	return &Bot{
		tgService: tgService,
		managers:  managers,
		contacts:  contacts,
		exporter:  exporter,
		catalog:   catalog,
		loc:       loc,
		now:       time.Now,
		logger:    logger,
	}
}

// Start polls Telegram until ctx is done or the updates channel closes.
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

// Stop stops receiving Telegram updates.
func (b *Bot) Stop() {
	if b == nil || b.tgService == nil {
		return
	}
	b.tgService.StopReceivingUpdates()
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	defer func() {
		metrics.ObserveBotUpdate(time.Since(start).Seconds())
	}()

	// Each update gets its own context
	updateCtx, cancel := context.WithTimeout(ctx, updateTimeout)
	defer cancel()

	l := b.logger.With().Str("request_id", uuid.NewString()).Logger()
	updateCtx = l.WithContext(updateCtx)

	b.withRecovery(func() {
		if update.Message == nil || update.Message.From == nil {
			return
		}
		b.handleMessage(updateCtx, update.Message)
	})
}
