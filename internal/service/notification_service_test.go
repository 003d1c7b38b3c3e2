package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"carspa/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func samplePayload() models.BookingPayload {
	return models.BookingPayload{
		SessionID:      "s-1",
		Location:       "downtown",
		Building:       "1250 René-Lévesque",
		ParkingSpot:    "P3_41",
		ServicePackage: models.PackageSuper,
		Date:           models.NewDate(2026, time.October, 22),
		Time:           "14:00",
		Name:           "Michael Chen",
		Email:          "m.chen@example.com",
		Phone:          "514-555-0199",
		Notes:          "black *Tesla*",
	}
}

func TestFormatBookingMessage(t *testing.T) {
	text := FormatBookingMessage(samplePayload())

	assert.Contains(t, text, "Super Package ($149.99)")
	assert.Contains(t, text, "Thursday, 2026-10-22 at 14:00")
	assert.Contains(t, text, `P3\_41`)
	assert.Contains(t, text, `black \*Tesla\*`)
	assert.Contains(t, text, "Michael Chen")

	p := samplePayload()
	p.Notes = "  "
	assert.NotContains(t, FormatBookingMessage(p), "Notes")
}

func TestFormatContactMessage(t *testing.T) {
	text := FormatContactMessage(models.ContactMessage{Name: "Olivia", Email: "o@example.com", Message: "Hello"})
	assert.Contains(t, text, "Olivia")
	assert.NotContains(t, text, "Phone")
	assert.True(t, strings.HasSuffix(text, "Hello\n"))
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$49.99", FormatPrice(4999))
	assert.Equal(t, "$35.00", FormatPrice(3500))
	assert.Equal(t, "$0.05", FormatPrice(5))
}

func TestNotificationService(t *testing.T) {
	ctx := context.Background()

	t.Run("Broadcast", func(t *testing.T) {
		sender := new(mockTelegramSender)
		svc := NewNotificationService(sender, []int64{111, 222}, testLogger())

		for _, id := range []int64{111, 222} {
			chatID := id
			sender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
				msg, ok := c.(tgbotapi.MessageConfig)
				return ok && msg.ChatID == chatID && msg.ParseMode == models.ParseModeMarkdown
			})).Return(tgbotapi.Message{}, nil).Once()
		}

		require.NoError(t, svc.NotifyBooking(ctx, samplePayload()))
		sender.AssertExpectations(t)
	})

	t.Run("PartialFailure", func(t *testing.T) {
		sender := new(mockTelegramSender)
		svc := NewNotificationService(sender, []int64{1, 2}, testLogger())

		sender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
			return c.(tgbotapi.MessageConfig).ChatID == 1
		})).Return(tgbotapi.Message{}, errors.New("chat not found")).Once()
		sender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
			return c.(tgbotapi.MessageConfig).ChatID == 2
		})).Return(tgbotapi.Message{}, nil).Once()

		err := svc.NotifyContact(ctx, models.ContactMessage{Name: "a", Email: "b", Message: "c"})
		assert.ErrorContains(t, err, "chat 1")
		sender.AssertExpectations(t)
	})

	t.Run("Disabled", func(t *testing.T) {
		svc := NewNotificationService(nil, []int64{1}, testLogger())
		assert.False(t, svc.Enabled())
		assert.NoError(t, svc.NotifyBooking(ctx, samplePayload()))

		sender := new(mockTelegramSender)
		svc = NewNotificationService(sender, nil, testLogger())
		assert.False(t, svc.Enabled())
		assert.NoError(t, svc.NotifyBooking(ctx, samplePayload()))
		sender.AssertNotCalled(t, "Send", mock.Anything)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		sender := new(mockTelegramSender)
		svc := NewNotificationService(sender, []int64{1}, testLogger())
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		err := svc.NotifyBooking(cctx, samplePayload())
		assert.ErrorIs(t, err, context.Canceled)
		sender.AssertNotCalled(t, "Send", mock.Anything)
	})
}
