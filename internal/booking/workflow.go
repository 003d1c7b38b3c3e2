// Package booking drives the five-step booking form: location, service,
// date/time, contact and review.
//
// A Workflow wraps one stored session. Moving forward is gated on the
// current step being valid; moving back never is.
package booking

import (
	"context"
	"fmt"

	"carspa/internal/models"
)

// SubmitFunc receives the finished booking. It is the only side effect of Submit.
type SubmitFunc func(ctx context.Context, payload models.BookingPayload) error

type Workflow struct {
	session *models.BookingSession
	policy  Policy
	submit  SubmitFunc
}

// NewSession returns an empty session positioned on the first step.
func NewSession(id string, policy Policy) *models.BookingSession {
	now := policy.now()
	return &models.BookingSession{
		ID:        id,
		Step:      models.StepLocation,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// New attaches workflow rules to a session. The session is mutated in place.
func New(session *models.BookingSession, policy Policy, submit SubmitFunc) *Workflow {
	if !session.Step.Valid() {
		session.Step = models.StepLocation
	}
	return &Workflow{session: session, policy: policy, submit: submit}
}

func (w *Workflow) Session() *models.BookingSession {
	return w.session
}

func (w *Workflow) Step() models.Step {
	return w.session.Step
}

func (w *Workflow) Completed() bool {
	return w.session.Completed
}

// Valid reports whether the current step may be left forward.
func (w *Workflow) Valid() bool {
	return IsStepValid(w.session.Step, &w.session.State, w.policy)
}

func (w *Workflow) Missing() []string {
	return MissingFields(w.session.Step, &w.session.State, w.policy)
}

// Set applies a single field edit.
func (w *Workflow) Set(field, value string) error {
	if w.session.Completed {
		return ErrSessionCompleted
	}

	state := &w.session.State
	switch field {
	case FieldLocation:
		state.Location = value
	case FieldBuilding:
		state.Building = value
	case FieldParkingSpot:
		state.ParkingSpot = value
	case FieldServicePackage:
		pkg, err := models.ParseServicePackage(value)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidField, err)
		}
		state.ServicePackage = pkg
	case FieldDate:
		if value == "" {
			state.Date = nil
			break
		}
		d, err := models.ParseDate(value)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidField, err)
		}
		state.Date = &d
	case FieldTime:
		if value != "" && len(w.policy.TimeSlots) > 0 && !w.policy.SlotAllowed(value) {
			return fmt.Errorf("%w: %q is not an offered time slot", ErrInvalidField, value)
		}
		state.Time = value
	case FieldName:
		state.Name = value
	case FieldEmail:
		state.Email = value
	case FieldPhone:
		state.Phone = value
	case FieldNotes:
		state.Notes = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	w.touch()
	return nil
}

// Advance moves to the next step. When the current step is invalid the step
// is left unchanged and an *IncompleteError is returned.
func (w *Workflow) Advance() (models.Step, error) {
	if w.session.Completed {
		return w.session.Step, ErrSessionCompleted
	}
	if missing := w.Missing(); len(missing) > 0 {
		return w.session.Step, &IncompleteError{Step: w.session.Step, Missing: missing}
	}
	w.session.Step = NextStep(w.session.Step)
	w.touch()
	return w.session.Step, nil
}

// Retreat moves to the previous step.
func (w *Workflow) Retreat() models.Step {
	if w.session.Completed {
		return w.session.Step
	}
	w.session.Step = PrevStep(w.session.Step)
	w.touch()
	return w.session.Step
}

// Submit hands the booking to the submission collaborator. It is only legal on
// the review step; every earlier step is checked again since fields may have
// been edited after they were passed.
func (w *Workflow) Submit(ctx context.Context) (models.BookingPayload, error) {
	if w.session.Step != models.StepReview {
		return models.BookingPayload{}, fmt.Errorf("%w: submit called on step %s", ErrPreconditionViolation, w.session.Step)
	}
	if w.session.Completed {
		return models.BookingPayload{}, ErrSessionCompleted
	}
	for _, step := range models.Steps() {
		if missing := MissingFields(step, &w.session.State, w.policy); len(missing) > 0 {
			return models.BookingPayload{}, &IncompleteError{Step: step, Missing: missing}
		}
	}

	payload := w.payload()
	if w.submit != nil {
		if err := w.submit(ctx, payload); err != nil {
			return models.BookingPayload{}, fmt.Errorf("submit booking: %w", err)
		}
	}

	w.session.Completed = true
	w.touch()
	return payload, nil
}

// Reset starts the form over, keeping the session id.
func (w *Workflow) Reset() {
	w.session.Step = models.StepLocation
	w.session.State = models.BookingState{}
	w.session.Completed = false
	w.touch()
}

func (w *Workflow) payload() models.BookingPayload {
	state := w.session.State
	payload := models.BookingPayload{
		SessionID:      w.session.ID,
		Location:       state.Location,
		Building:       state.Building,
		ParkingSpot:    state.ParkingSpot,
		ServicePackage: state.ServicePackage,
		Time:           state.Time,
		Name:           state.Name,
		Email:          state.Email,
		Phone:          state.Phone,
		Notes:          state.Notes,
		SubmittedAt:    w.policy.now(),
	}
	if state.Date != nil {
		payload.Date = *state.Date
	}
	return payload
}

func (w *Workflow) touch() {
	w.session.UpdatedAt = w.policy.now()
}
