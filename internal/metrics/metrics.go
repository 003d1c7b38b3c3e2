package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "carspa"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status code.",
		},
		[]string{"endpoint", "code"},
	)

	stepTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_step_transitions_total",
			Help:      "Booking form transitions by source step, target step and result.",
		},
		[]string{"from", "to", "result"},
	)

	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_submissions_total",
			Help:      "Booking submissions by service package and result.",
		},
		[]string{"package", "result"},
	)

	estimates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_estimates_total",
			Help:      "Price estimates by result.",
		},
		[]string{"result"},
	)

	contactMessages = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contact_messages_total",
			Help:      "Stored contact form messages.",
		},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Manager notifications by kind and result.",
		},
		[]string{"kind", "result"},
	)

	botCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bot_commands_total",
			Help:      "Manager bot commands by command and result.",
		},
		[]string{"command", "result"},
	)

	botUpdateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bot_update_processing_seconds",
			Help:      "Time spent processing Telegram updates.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "notify_queue_depth",
			Help:      "Notification tasks waiting in the worker queue.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, stepTransitions, submissions, estimates, contactMessages, notifications,
			botCommands, botUpdateDuration, queueDepth)
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint, code string) {
	httpRequests.WithLabelValues(endpoint, code).Inc()
}

func IncStepTransition(from, to, result string) {
	stepTransitions.WithLabelValues(from, to, result).Inc()
}

func IncSubmission(pkg, result string) {
	submissions.WithLabelValues(pkg, result).Inc()
}

func IncEstimate(result string) {
	estimates.WithLabelValues(result).Inc()
}

func IncContactMessage() {
	contactMessages.Inc()
}

func IncNotification(kind, result string) {
	notifications.WithLabelValues(kind, result).Inc()
}

func IncBotCommand(command, result string) {
	botCommands.WithLabelValues(command, result).Inc()
}

func ObserveBotUpdate(seconds float64) {
	botUpdateDuration.Observe(seconds)
}

func SetQueueDepth(n int) {
	queueDepth.Set(float64(n))
}
