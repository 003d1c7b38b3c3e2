package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"carspa/internal/booking"
	"carspa/internal/models"
	"carspa/internal/pricing"
	"carspa/internal/service"
)

type sessionView struct {
	SessionID  string              `json:"session_id"`
	Step       models.Step         `json:"step"`
	StepNumber int                 `json:"step_number"`
	State      models.BookingState `json:"state"`
	Valid      bool                `json:"valid"`
	Missing    []string            `json:"missing"`
	Completed  bool                `json:"completed"`
}

func (s *HTTPServer) viewOf(session *models.BookingSession) sessionView {
	missing := s.deps.Bookings.Missing(session)
	if missing == nil {
		missing = []string{}
	}
	return sessionView{
		SessionID:  session.ID,
		Step:       session.Step,
		StepNumber: session.Step.Number(),
		State:      session.State,
		Valid:      len(missing) == 0,
		Missing:    missing,
		Completed:  session.Completed,
	}
}

// writeServiceError maps domain errors onto HTTP statuses.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var incomplete *booking.IncompleteError
	switch {
	case errors.As(err, &incomplete):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":   booking.ErrValidationIncomplete.Error(),
			"step":    incomplete.Step,
			"missing": incomplete.Missing,
		})
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, booking.ErrPreconditionViolation),
		errors.Is(err, booking.ErrSessionCompleted):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, booking.ErrUnknownField),
		errors.Is(err, booking.ErrInvalidField),
		errors.Is(err, pricing.ErrInvalidSelection),
		errors.Is(err, service.ErrInvalidContact):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrRateLimited):
		w.Header().Set("Retry-After", "60")
		writeError(w, http.StatusTooManyRequests, service.ErrRateLimited.Error())
	default:
		s.logger.Error().Err(err).
			Str("request_id", RequestID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		if err := s.deps.Ready(r.Context()); err != nil {
			s.logger.Warn().Err(err).Msg("readiness check failed")
			writeError(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type packageView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
}

func (s *HTTPServer) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	packages := make([]packageView, 0, len(models.ServicePackages()))
	for _, p := range models.ServicePackages() {
		packages = append(packages, packageView{
			ID:          p.String(),
			Name:        p.DisplayName(),
			Description: p.Description(),
			PriceCents:  p.PriceCents(),
		})
	}

	resp := map[string]any{
		"packages": packages,
		"pricing":  s.deps.Pricing.Table(),
	}
	if s.deps.Catalog != nil {
		resp["business"] = s.deps.Catalog.Business
		resp["areas"] = s.deps.Catalog.Areas
		resp["time_slots"] = s.deps.Catalog.TimeSlots
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		VehicleClass string   `json:"vehicle_class"`
		PackageTier  string   `json:"package_tier"`
		AddOns       []string `json:"add_ons"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	quote, err := s.deps.Pricing.Estimate(body.VehicleClass, body.PackageTier, body.AddOns)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (s *HTTPServer) handleStartBooking(w http.ResponseWriter, r *http.Request) {
	session, err := s.deps.Bookings.Start(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.viewOf(session))
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	session, err := s.deps.Bookings.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewOf(session))
}

func (s *HTTPServer) handleUpdateBooking(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.Field) == "" {
		writeError(w, http.StatusBadRequest, "field is required")
		return
	}

	session, err := s.deps.Bookings.UpdateField(r.Context(), r.PathValue("id"), body.Field, body.Value)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewOf(session))
}

func (s *HTTPServer) handleAdvance(w http.ResponseWriter, r *http.Request) {
	session, err := s.deps.Bookings.Advance(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewOf(session))
}

func (s *HTTPServer) handleRetreat(w http.ResponseWriter, r *http.Request) {
	session, err := s.deps.Bookings.Retreat(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewOf(session))
}

func (s *HTTPServer) handleReset(w http.ResponseWriter, r *http.Request) {
	session, err := s.deps.Bookings.Reset(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewOf(session))
}

func (s *HTTPServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	payload, err := s.deps.Bookings.Submit(r.Context(), r.PathValue("id"), clientIP(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"booking":          payload,
		"price_from_cents": payload.ServicePackage.PriceCents(),
	})
}

func (s *HTTPServer) handleContact(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Message string `json:"message"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	msg := &models.ContactMessage{
		Name:    body.Name,
		Email:   body.Email,
		Phone:   body.Phone,
		Message: body.Message,
	}
	if err := s.deps.Contacts.Send(r.Context(), msg, clientIP(r)); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": msg.ID})
}

// handleInquiries lists contact messages received on [since, until], both
// given as YYYY-MM-DD in the business timezone. Defaults to the last 30 days.
func (s *HTTPServer) handleInquiries(w http.ResponseWriter, r *http.Request) {
	loc := s.deps.Location
	now := time.Now().In(loc)
	until := models.NewDate(now.Year(), now.Month(), now.Day())
	since := until.AddDays(-models.DefaultExportRangeDays)

	var err error
	if raw := strings.TrimSpace(r.URL.Query().Get("since")); raw != "" {
		if since, err = models.ParseDate(raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid since; expected YYYY-MM-DD")
			return
		}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("until")); raw != "" {
		if until, err = models.ParseDate(raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid until; expected YYYY-MM-DD")
			return
		}
	}
	if until.Before(since) {
		writeError(w, http.StatusBadRequest, "until is before since")
		return
	}

	messages, err := s.deps.Contacts.List(r.Context(), since.In(loc), until.In(loc).AddDate(0, 0, 1))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if messages == nil {
		messages = []*models.ContactMessage{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"since":    since,
		"until":    until,
		"messages": messages,
	})
}
