package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"carspa/internal/domain"
	"carspa/internal/events"
	"carspa/internal/metrics"
	"carspa/internal/models"

	"github.com/rs/zerolog"
)

var ErrInvalidContact = errors.New("invalid contact message")

const (
	contactRateLimit  = 3
	contactRateWindow = 10 * time.Minute
)

type ContactService struct {
	repo     domain.ContactRepository
	limiter  domain.SessionRepository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewContactService(repo domain.ContactRepository, limiter domain.SessionRepository, eventBus domain.EventPublisher, logger *zerolog.Logger) *ContactService {
	return &ContactService{
		repo:     repo,
		limiter:  limiter,
		eventBus: eventBus,
		logger:   logger,
		now:      time.Now,
	}
}

func validateContact(msg *models.ContactMessage) error {
	var missing []string
	if strings.TrimSpace(msg.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(msg.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(msg.Message) == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidContact, strings.Join(missing, ", "))
	}
	return nil
}

// Send stores the message and notifies managers. Phone is optional.
func (s *ContactService) Send(ctx context.Context, msg *models.ContactMessage, clientKey string) error {
	if err := validateContact(msg); err != nil {
		return err
	}

	if s.limiter != nil && clientKey != "" {
		allowed, err := s.limiter.CheckRateLimit(ctx, "contact:"+clientKey, contactRateLimit, contactRateWindow)
		if err != nil {
			s.logger.Warn().Err(err).Msg("contact rate limit check failed")
		} else if !allowed {
			return ErrRateLimited
		}
	}

	msg.Name = strings.TrimSpace(msg.Name)
	msg.Email = strings.TrimSpace(msg.Email)
	msg.Phone = strings.TrimSpace(msg.Phone)
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now().UTC()
	}

	if err := s.repo.CreateContactMessage(ctx, msg); err != nil {
		return fmt.Errorf("store contact message: %w", err)
	}
	metrics.IncContactMessage()

	if s.eventBus != nil {
		// the message is already stored, a notification failure is only logged
		if err := s.eventBus.PublishJSON(events.EventContactReceived, events.ContactReceivedPayload{Message: *msg}); err != nil {
			s.logger.Warn().Err(err).Int64("message_id", msg.ID).Msg("failed to publish contact event")
		}
	}

	s.logger.Info().Int64("message_id", msg.ID).Msg("contact message stored")
	return nil
}

func (s *ContactService) List(ctx context.Context, since, until time.Time) ([]*models.ContactMessage, error) {
	return s.repo.ListContactMessages(ctx, since, until)
}
