package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"carspa/internal/config"
	"carspa/internal/domain"
	"carspa/internal/models"
	"carspa/internal/pricing"

	"github.com/rs/zerolog"
)

const maxBodyBytes = 64 << 10

// PriceEstimator is the calculator backing /api/v1/estimate.
type PriceEstimator interface {
	Estimate(vehicle, tier string, addOns []string) (*pricing.Quote, error)
	Table() pricing.TableView
}

// Deps are the collaborators the HTTP API is served from.
type Deps struct {
	Bookings domain.BookingService
	Pricing  PriceEstimator
	Contacts domain.ContactService
	Catalog  *models.Catalog
	Location *time.Location
	// Ready is polled by /readyz; nil means always ready.
	Ready func(ctx context.Context) error
}

// HTTPServer exposes the booking form, calculator and contact form as JSON.
type HTTPServer struct {
	cfg     config.HTTPConfig
	deps    Deps
	server  *http.Server
	auth    *HTTPAuth
	limiter *rateLimiter
	logger  *zerolog.Logger
}

func NewHTTPServer(cfg config.HTTPConfig, authCfg config.AuthConfig, deps Deps, logger *zerolog.Logger) *HTTPServer {
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	srv := &HTTPServer{
		cfg:     cfg,
		deps:    deps,
		auth:    NewHTTPAuth(authCfg),
		limiter: newRateLimiter(cfg.RateLimit),
		logger:  logger,
	}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.WriteTimeout) * time.Second,
	}

	return srv
}

// Handler builds the routed handler with the middleware chain applied.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/v1/catalog", s.handleCatalog)
	mux.HandleFunc("POST /api/v1/estimate", s.handleEstimate)

	mux.HandleFunc("POST /api/v1/bookings", s.handleStartBooking)
	mux.HandleFunc("GET /api/v1/bookings/{id}", s.handleGetBooking)
	mux.HandleFunc("PATCH /api/v1/bookings/{id}", s.handleUpdateBooking)
	mux.HandleFunc("POST /api/v1/bookings/{id}/advance", s.handleAdvance)
	mux.HandleFunc("POST /api/v1/bookings/{id}/retreat", s.handleRetreat)
	mux.HandleFunc("POST /api/v1/bookings/{id}/submit", s.handleSubmit)
	mux.HandleFunc("POST /api/v1/bookings/{id}/reset", s.handleReset)

	mux.HandleFunc("POST /api/v1/contact", s.handleContact)

	mux.Handle("GET /api/v1/admin/inquiries", s.auth.Require(PermReadInquiries, s.handleInquiries))

	// logging must see the same *http.Request as the mux, otherwise r.Pattern is empty
	var handler http.Handler = mux
	handler = s.limiter.Wrap(handler)
	handler = corsMiddleware(s.cfg.AllowedOrigins, handler)
	handler = loggingMiddleware(s.logger, handler)
	handler = recoverMiddleware(s.logger, handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
