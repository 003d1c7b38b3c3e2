package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"carspa/internal/booking"
	"carspa/internal/domain"
	"carspa/internal/events"
	"carspa/internal/metrics"
	"carspa/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrSessionNotFound = errors.New("booking session not found")
	ErrRateLimited     = errors.New("too many requests")
)

const sessionLockStripes = 64

type BookingService struct {
	repo         domain.SessionRepository
	eventBus     domain.EventPublisher
	policy       booking.Policy
	submitLimit  int
	submitWindow time.Duration
	logger       *zerolog.Logger
	locks        [sessionLockStripes]sync.Mutex
}

func NewBookingService(
	repo domain.SessionRepository,
	eventBus domain.EventPublisher,
	policy booking.Policy,
	submitLimit int,
	submitWindow time.Duration,
	logger *zerolog.Logger,
) *BookingService {
	if submitLimit <= 0 {
		submitLimit = models.SubmitRateLimit
	}
	if submitWindow <= 0 {
		submitWindow = models.SubmitRateWindow * time.Second
	}
	return &BookingService{
		repo:         repo,
		eventBus:     eventBus,
		policy:       policy,
		submitLimit:  submitLimit,
		submitWindow: submitWindow,
		logger:       logger,
	}
}

func (s *BookingService) lock(id string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	mu := &s.locks[h.Sum32()%sessionLockStripes]
	mu.Lock()
	return mu.Unlock
}

func (s *BookingService) Start(ctx context.Context) (*models.BookingSession, error) {
	session := booking.NewSession(uuid.NewString(), s.policy)
	if err := s.repo.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.logger.Debug().Str("session_id", session.ID).Msg("booking session started")
	return session, nil
}

func (s *BookingService) Get(ctx context.Context, id string) (*models.BookingSession, error) {
	session, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Missing lists the required fields of the session's current step that are still empty.
func (s *BookingService) Missing(session *models.BookingSession) []string {
	return booking.MissingFields(session.Step, &session.State, s.policy)
}

// mutate loads a session under its lock, applies fn and stores the result
// when fn succeeds. The session is returned even when fn fails so callers can
// report the current step.
func (s *BookingService) mutate(ctx context.Context, id string, submit booking.SubmitFunc, fn func(w *booking.Workflow) error) (*models.BookingSession, error) {
	unlock := s.lock(id)
	defer unlock()

	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	w := booking.New(session, s.policy, submit)
	if err := fn(w); err != nil {
		return w.Session(), err
	}

	if err := s.repo.SaveSession(ctx, w.Session()); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return w.Session(), nil
}

func (s *BookingService) UpdateField(ctx context.Context, id, field, value string) (*models.BookingSession, error) {
	return s.mutate(ctx, id, nil, func(w *booking.Workflow) error {
		return w.Set(field, value)
	})
}

func (s *BookingService) Advance(ctx context.Context, id string) (*models.BookingSession, error) {
	return s.mutate(ctx, id, nil, func(w *booking.Workflow) error {
		from := w.Step()
		to, err := w.Advance()
		result := "ok"
		if err != nil {
			result = "incomplete"
		}
		metrics.IncStepTransition(from.String(), to.String(), result)
		return err
	})
}

func (s *BookingService) Retreat(ctx context.Context, id string) (*models.BookingSession, error) {
	return s.mutate(ctx, id, nil, func(w *booking.Workflow) error {
		from := w.Step()
		to := w.Retreat()
		metrics.IncStepTransition(from.String(), to.String(), "back")
		return nil
	})
}

func (s *BookingService) Reset(ctx context.Context, id string) (*models.BookingSession, error) {
	return s.mutate(ctx, id, nil, func(w *booking.Workflow) error {
		w.Reset()
		return nil
	})
}

// Submit sends the finished form. clientKey identifies the caller for rate
// limiting and may be empty. Only attempts that pass every step check count
// against the limit.
func (s *BookingService) Submit(ctx context.Context, id, clientKey string) (*models.BookingPayload, error) {
	var payload models.BookingPayload
	pkg := "unknown"
	_, err := s.mutate(ctx, id, s.publishSubmitted(clientKey), func(w *booking.Workflow) error {
		if p := w.Session().State.ServicePackage; p.Valid() {
			pkg = p.String()
		}
		var err error
		payload, err = w.Submit(ctx)
		return err
	})
	if err != nil {
		s.logSubmitError(id, err)
		metrics.IncSubmission(pkg, "error")
		return nil, err
	}

	metrics.IncSubmission(pkg, "ok")
	s.logger.Info().
		Str("session_id", id).
		Str("package", pkg).
		Str("date", payload.Date.String()).
		Str("time", payload.Time).
		Msg("booking submitted")
	return &payload, nil
}

func (s *BookingService) allowSubmit(ctx context.Context, clientKey string) error {
	if clientKey == "" {
		return nil
	}
	allowed, err := s.repo.CheckRateLimit(ctx, "submit:"+clientKey, s.submitLimit, s.submitWindow)
	if err != nil {
		s.logger.Warn().Err(err).Msg("submit rate limit check failed")
		return nil
	}
	if !allowed {
		return ErrRateLimited
	}
	return nil
}

func (s *BookingService) publishSubmitted(clientKey string) booking.SubmitFunc {
	return func(ctx context.Context, payload models.BookingPayload) error {
		if err := s.allowSubmit(ctx, clientKey); err != nil {
			return err
		}
		if s.eventBus == nil {
			return nil
		}
		return s.eventBus.PublishJSON(events.EventBookingSubmitted, events.BookingSubmittedPayload{
			Booking:   payload,
			PriceFrom: payload.ServicePackage.PriceCents(),
			ClientKey: clientKey,
		})
	}
}

func (s *BookingService) logSubmitError(id string, err error) {
	event := s.logger.Warn()
	if errors.Is(err, booking.ErrPreconditionViolation) {
		event = s.logger.Error()
	}
	event.Err(err).Str("session_id", id).Msg("booking submit rejected")
}
