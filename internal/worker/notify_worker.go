package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"carspa/internal/domain"
	"carspa/internal/events"
	"carspa/internal/metrics"
	"carspa/internal/models"

	"github.com/rs/zerolog"
)

const (
	TaskBooking = "booking"
	TaskContact = "contact"
)

var (
	ErrQueueFull = errors.New("notify queue is full")
	ErrStopped   = errors.New("notify worker is stopped")
)

// NotifyTask is one manager notification waiting to be delivered.
type NotifyTask struct {
	Type      string
	Booking   *models.BookingPayload
	Contact   *models.ContactMessage
	CreatedAt time.Time
}

// NotifyWorker delivers notifications in the background so that form
// submission never waits on Telegram.
type NotifyWorker struct {
	notifier    domain.Notifier
	retryPolicy RetryPolicy
	queue       chan NotifyTask
	logger      *zerolog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewNotifyWorker builds a worker with sane defaults.
func NewNotifyWorker(notifier domain.Notifier, queueSize int, retry RetryPolicy, logger *zerolog.Logger) *NotifyWorker {
	if queueSize <= 0 {
		queueSize = models.WorkerQueueSize
	}

	return &NotifyWorker{
		notifier:    notifier,
		retryPolicy: retry.withDefaults(),
		queue:       make(chan NotifyTask, queueSize),
		logger:      logger,
	}
}

// Subscribe wires the worker to the submission events.
func (w *NotifyWorker) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.EventBookingSubmitted, w.handleBookingSubmitted)
	bus.Subscribe(events.EventContactReceived, w.handleContactReceived)
}

func (w *NotifyWorker) handleBookingSubmitted(event *events.Event) error {
	var payload events.BookingSubmittedPayload
	if err := event.Decode(&payload); err != nil {
		return fmt.Errorf("decode %s: %w", event.Type, err)
	}
	return w.Enqueue(NotifyTask{Type: TaskBooking, Booking: &payload.Booking, CreatedAt: event.CreatedAt})
}

func (w *NotifyWorker) handleContactReceived(event *events.Event) error {
	var payload events.ContactReceivedPayload
	if err := event.Decode(&payload); err != nil {
		return fmt.Errorf("decode %s: %w", event.Type, err)
	}
	return w.Enqueue(NotifyTask{Type: TaskContact, Contact: &payload.Message, CreatedAt: event.CreatedAt})
}

// Enqueue adds a task without blocking.
func (w *NotifyWorker) Enqueue(task NotifyTask) error {
	if task.Type != TaskBooking && task.Type != TaskContact {
		return fmt.Errorf("unknown task type %q", task.Type)
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}

	select {
	case w.queue <- task:
		metrics.SetQueueDepth(len(w.queue))
		return nil
	default:
		w.logger.Error().Str("type", task.Type).Msg("notify queue full, task rejected")
		return ErrQueueFull
	}
}

// Start launches the consumer loop. It returns immediately.
func (w *NotifyWorker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.running = true

	go w.run(ctx, w.done)
}

// Stop cancels the loop and waits for the task in flight.
func (w *NotifyWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done

	if n := len(w.queue); n > 0 {
		w.logger.Warn().Int("pending", n).Msg("notify worker stopped with pending tasks")
	}
}

func (w *NotifyWorker) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	w.logger.Info().Msg("notify worker started")
	defer w.logger.Info().Msg("notify worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case task := <-w.queue:
			metrics.SetQueueDepth(len(w.queue))
			w.processTask(ctx, task)
		}
	}
}

func (w *NotifyWorker) processTask(ctx context.Context, task NotifyTask) {
	for attempt := 1; ; attempt++ {
		err := w.deliver(ctx, task)
		if err == nil {
			return
		}

		if attempt > w.retryPolicy.MaxRetries || ctx.Err() != nil {
			w.logger.Error().Err(err).
				Str("type", task.Type).
				Int("attempts", attempt).
				Msg("notification dropped")
			return
		}

		delay := w.retryPolicy.NextDelay(attempt)
		w.logger.Warn().Err(err).
			Str("type", task.Type).
			Int("attempt", attempt).
			Dur("retry_in", delay).
			Msg("notification failed, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			w.logger.Error().Str("type", task.Type).Msg("notification dropped on shutdown")
			return
		case <-timer.C:
		}
	}
}

func (w *NotifyWorker) deliver(ctx context.Context, task NotifyTask) error {
	switch task.Type {
	case TaskBooking:
		if task.Booking == nil {
			return errors.New("booking task without payload")
		}
		return w.notifier.NotifyBooking(ctx, *task.Booking)
	case TaskContact:
		if task.Contact == nil {
			return errors.New("contact task without payload")
		}
		return w.notifier.NotifyContact(ctx, *task.Contact)
	default:
		return fmt.Errorf("unknown task type %q", task.Type)
	}
}

// Pending returns the number of queued tasks.
func (w *NotifyWorker) Pending() int {
	return len(w.queue)
}
