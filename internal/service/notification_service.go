package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"carspa/internal/domain"
	"carspa/internal/metrics"
	"carspa/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// NotificationService sends booking and contact summaries to the managers' Telegram chats.
type NotificationService struct {
	bot      domain.TelegramSender
	managers []int64
	logger   *zerolog.Logger
}

func NewNotificationService(bot domain.TelegramSender, managers []int64, logger *zerolog.Logger) *NotificationService {
	return &NotificationService{
		bot:      bot,
		managers: managers,
		logger:   logger,
	}
}

// Enabled reports whether a bot and at least one recipient are configured.
func (s *NotificationService) Enabled() bool {
	return s.bot != nil && len(s.managers) > 0
}

func (s *NotificationService) NotifyBooking(ctx context.Context, payload models.BookingPayload) error {
	return s.broadcast(ctx, "booking", FormatBookingMessage(payload))
}

func (s *NotificationService) NotifyContact(ctx context.Context, msg models.ContactMessage) error {
	return s.broadcast(ctx, "contact", FormatContactMessage(msg))
}

func (s *NotificationService) broadcast(ctx context.Context, kind, text string) error {
	if !s.Enabled() {
		s.logger.Debug().Str("kind", kind).Msg("notifications disabled, message skipped")
		return nil
	}

	var errs []error
	for _, chatID := range s.managers {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.SendMarkdown(chatID, text); err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
			continue
		}
	}

	if err := errors.Join(errs...); err != nil {
		metrics.IncNotification(kind, "failed")
		return err
	}
	metrics.IncNotification(kind, "sent")
	return nil
}

func (s *NotificationService) SendMarkdown(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = models.ParseModeMarkdown
	msg.DisableWebPagePreview = true
	return s.bot.Send(msg)
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

// FormatPrice renders cents as dollars, e.g. 8999 -> "$89.99".
func FormatPrice(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

func FormatBookingMessage(p models.BookingPayload) string {
	var b strings.Builder
	b.WriteString("🚗 *New booking request*\n\n")
	fmt.Fprintf(&b, "*Package:* %s (%s)\n", escape(p.ServicePackage.DisplayName()), FormatPrice(p.ServicePackage.PriceCents()))
	fmt.Fprintf(&b, "*Date:* %s at %s\n", p.Date.Weekday().String()+", "+p.Date.String(), escape(p.Time))
	fmt.Fprintf(&b, "*Location:* %s\n", escape(p.Location))
	fmt.Fprintf(&b, "*Building:* %s\n", escape(p.Building))
	fmt.Fprintf(&b, "*Parking spot:* %s\n\n", escape(p.ParkingSpot))
	fmt.Fprintf(&b, "*Client:* %s\n", escape(p.Name))
	fmt.Fprintf(&b, "*Email:* %s\n", escape(p.Email))
	fmt.Fprintf(&b, "*Phone:* %s\n", escape(p.Phone))
	if strings.TrimSpace(p.Notes) != "" {
		fmt.Fprintf(&b, "\n*Notes:* %s\n", escape(p.Notes))
	}
	return b.String()
}

func FormatContactMessage(m models.ContactMessage) string {
	var b strings.Builder
	b.WriteString("✉️ *New contact message*\n\n")
	fmt.Fprintf(&b, "*From:* %s\n", escape(m.Name))
	fmt.Fprintf(&b, "*Email:* %s\n", escape(m.Email))
	if m.Phone != "" {
		fmt.Fprintf(&b, "*Phone:* %s\n", escape(m.Phone))
	}
	fmt.Fprintf(&b, "\n%s\n", escape(m.Message))
	return b.String()
}
