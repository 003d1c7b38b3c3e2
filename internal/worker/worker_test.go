package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"carspa/internal/events"
	"carspa/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	mu        sync.Mutex
	failFirst int
	calls     int
	bookings  []models.BookingPayload
	contacts  []models.ContactMessage
}

func (f *fakeNotifier) attempt() error {
	f.calls++
	if f.calls <= f.failFirst {
		return errors.New("telegram: too many requests")
	}
	return nil
}

func (f *fakeNotifier) NotifyBooking(_ context.Context, p models.BookingPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.attempt(); err != nil {
		return err
	}
	f.bookings = append(f.bookings, p)
	return nil
}

func (f *fakeNotifier) NotifyContact(_ context.Context, m models.ContactMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.attempt(); err != nil {
		return err
	}
	f.contacts = append(f.contacts, m)
	return nil
}

func (f *fakeNotifier) snapshot() (calls, bookings, contacts int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, len(f.bookings), len(f.contacts)
}

func testLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func fastRetry(max int) RetryPolicy {
	return RetryPolicy{MaxRetries: max, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestNotifyWorkerDeliversEvents(t *testing.T) {
	notifier := &fakeNotifier{}
	w := NewNotifyWorker(notifier, 10, fastRetry(3), testLogger())
	bus := events.NewEventBus()
	w.Subscribe(bus)

	w.Start(context.Background())
	defer w.Stop()

	require.NoError(t, bus.PublishJSON(events.EventBookingSubmitted, events.BookingSubmittedPayload{
		Booking: models.BookingPayload{SessionID: "s-1", Name: "Sarah Johnson", ServicePackage: models.PackageBasic},
	}))
	require.NoError(t, bus.PublishJSON(events.EventContactReceived, events.ContactReceivedPayload{
		Message: models.ContactMessage{ID: 7, Name: "Olivia"},
	}))

	require.Eventually(t, func() bool {
		_, b, c := notifier.snapshot()
		return b == 1 && c == 1
	}, time.Second, 5*time.Millisecond)

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.Equal(t, "Sarah Johnson", notifier.bookings[0].Name)
	assert.Equal(t, models.PackageBasic, notifier.bookings[0].ServicePackage)
	assert.Equal(t, int64(7), notifier.contacts[0].ID)
}

func TestNotifyWorkerRetries(t *testing.T) {
	notifier := &fakeNotifier{failFirst: 2}
	w := NewNotifyWorker(notifier, 10, fastRetry(3), testLogger())

	w.processTask(context.Background(), NotifyTask{Type: TaskBooking, Booking: &models.BookingPayload{}})

	calls, bookings, _ := notifier.snapshot()
	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, bookings)
}

func TestNotifyWorkerDropsAfterMaxRetries(t *testing.T) {
	notifier := &fakeNotifier{failFirst: 100}
	w := NewNotifyWorker(notifier, 10, fastRetry(2), testLogger())

	w.processTask(context.Background(), NotifyTask{Type: TaskContact, Contact: &models.ContactMessage{}})

	calls, _, contacts := notifier.snapshot()
	assert.Equal(t, 3, calls) // first attempt + 2 retries
	assert.Equal(t, 0, contacts)
}

func TestNotifyWorkerStopsRetryingOnShutdown(t *testing.T) {
	notifier := &fakeNotifier{failFirst: 100}
	w := NewNotifyWorker(notifier, 10, RetryPolicy{MaxRetries: 10, InitialDelay: time.Hour, MaxDelay: time.Hour}, testLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.processTask(ctx, NotifyTask{Type: TaskBooking, Booking: &models.BookingPayload{}})
		close(done)
	}()

	require.Eventually(t, func() bool {
		calls, _, _ := notifier.snapshot()
		return calls == 1
	}, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("processTask did not return after cancel")
	}
}

func TestNotifyWorkerEnqueue(t *testing.T) {
	w := NewNotifyWorker(&fakeNotifier{}, 1, fastRetry(1), testLogger())

	err := w.Enqueue(NotifyTask{Type: "sms"})
	assert.Error(t, err)

	require.NoError(t, w.Enqueue(NotifyTask{Type: TaskBooking, Booking: &models.BookingPayload{}}))
	assert.Equal(t, 1, w.Pending())

	err = w.Enqueue(NotifyTask{Type: TaskBooking, Booking: &models.BookingPayload{}})
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestNotifyWorkerQueueFullSurfacesThroughBus(t *testing.T) {
	w := NewNotifyWorker(&fakeNotifier{}, 1, fastRetry(1), testLogger())
	bus := events.NewEventBus()
	w.Subscribe(bus)

	require.NoError(t, bus.PublishJSON(events.EventContactReceived, events.ContactReceivedPayload{}))
	err := bus.PublishJSON(events.EventContactReceived, events.ContactReceivedPayload{})
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestNotifyWorkerStartStop(t *testing.T) {
	w := NewNotifyWorker(&fakeNotifier{}, 10, fastRetry(1), testLogger())
	w.Stop() // no-op before start

	w.Start(context.Background())
	w.Start(context.Background()) // second start is ignored
	w.Stop()
	w.Stop()
}

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := RetryPolicy{InitialDelay: time.Second, BackoffFactor: 2, MaxDelay: 5 * time.Second}

	assert.Equal(t, time.Second, policy.NextDelay(1))
	assert.Equal(t, 2*time.Second, policy.NextDelay(2))
	assert.Equal(t, 5*time.Second, policy.NextDelay(5))
	assert.Equal(t, time.Second, policy.NextDelay(0))

	jittered := RetryPolicy{InitialDelay: time.Second, BackoffFactor: 2, Jitter: 0.5}
	for i := 0; i < 20; i++ {
		d := jittered.NextDelay(2)
		assert.GreaterOrEqual(t, d, time.Second)
		assert.LessOrEqual(t, d, 3*time.Second)
	}

	def := RetryPolicy{}.withDefaults()
	assert.Equal(t, 5, def.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, def.InitialDelay)
}
