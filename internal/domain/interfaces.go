package domain

import (
	"context"
	"time"

	"carspa/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// SessionRepository stores booking drafts between requests.
type SessionRepository interface {
	GetSession(ctx context.Context, id string) (*models.BookingSession, error)
	SaveSession(ctx context.Context, session *models.BookingSession) error
	DeleteSession(ctx context.Context, id string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type ContactRepository interface {
	CreateContactMessage(ctx context.Context, msg *models.ContactMessage) error
	ListContactMessages(ctx context.Context, since, until time.Time) ([]*models.ContactMessage, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier delivers human-readable notices to the business staff.
type Notifier interface {
	NotifyBooking(ctx context.Context, payload models.BookingPayload) error
	NotifyContact(ctx context.Context, msg models.ContactMessage) error
}

type BookingService interface {
	Start(ctx context.Context) (*models.BookingSession, error)
	Get(ctx context.Context, id string) (*models.BookingSession, error)
	UpdateField(ctx context.Context, id, field, value string) (*models.BookingSession, error)
	Advance(ctx context.Context, id string) (*models.BookingSession, error)
	Retreat(ctx context.Context, id string) (*models.BookingSession, error)
	Submit(ctx context.Context, id, clientKey string) (*models.BookingPayload, error)
	Reset(ctx context.Context, id string) (*models.BookingSession, error)
	Missing(session *models.BookingSession) []string
}

type ContactService interface {
	Send(ctx context.Context, msg *models.ContactMessage, clientKey string) error
	List(ctx context.Context, since, until time.Time) ([]*models.ContactMessage, error)
}

// TelegramService is the part of the Bot API the manager bot uses.
type TelegramService interface {
	TelegramSender
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

// Exporter writes the Excel report for an inclusive range of days.
type Exporter interface {
	Export(ctx context.Context, from, to models.Date) (string, error)
}
