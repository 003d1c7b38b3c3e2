package booking

import (
	"slices"
	"strings"
	"time"

	"carspa/internal/models"
)

// Form field names, as used by field edits and in validation errors.
const (
	FieldLocation       = "location"
	FieldBuilding       = "building"
	FieldParkingSpot    = "parking_spot"
	FieldServicePackage = "service_package"
	FieldDate           = "date"
	FieldTime           = "time"
	FieldName           = "name"
	FieldEmail          = "email"
	FieldPhone          = "phone"
	FieldNotes          = "notes"
)

// NextStep is the step after s; review is terminal.
func NextStep(s models.Step) models.Step {
	switch s {
	case models.StepLocation:
		return models.StepService
	case models.StepService:
		return models.StepDateTime
	case models.StepDateTime:
		return models.StepContact
	case models.StepContact, models.StepReview:
		return models.StepReview
	default:
		return models.StepLocation
	}
}

// PrevStep is the step before s; location is initial.
func PrevStep(s models.Step) models.Step {
	switch s {
	case models.StepReview:
		return models.StepContact
	case models.StepContact:
		return models.StepDateTime
	case models.StepDateTime:
		return models.StepService
	default:
		return models.StepLocation
	}
}

// Policy holds the business rules that depend on the calendar. An empty
// TimeSlots accepts any time label.
type Policy struct {
	ClosedDays []time.Weekday
	TimeSlots  []string
	Location   *time.Location
	Now        func() time.Time
}

// DefaultPolicy closes on Sundays and counts days in Montreal time.
func DefaultPolicy() Policy {
	loc, err := time.LoadLocation(models.DefaultTimezone)
	if err != nil {
		loc = time.UTC
	}
	return Policy{
		ClosedDays: []time.Weekday{time.Sunday},
		Location:   loc,
		Now:        time.Now,
	}
}

func (p Policy) now() time.Time {
	now := time.Now()
	if p.Now != nil {
		now = p.Now()
	}
	if p.Location != nil {
		now = now.In(p.Location)
	}
	return now
}

// Today is the current calendar day in the business time zone.
func (p Policy) Today() models.Date {
	return models.DateOf(p.now())
}

func (p Policy) IsClosed(d models.Date) bool {
	wd := d.Weekday()
	for _, closed := range p.ClosedDays {
		if closed == wd {
			return true
		}
	}
	return false
}

// DateAllowed reports whether d can be booked: not in the past and not on a closed day.
func (p Policy) DateAllowed(d models.Date) bool {
	return !d.Before(p.Today()) && !p.IsClosed(d)
}

// SlotAllowed reports whether value is one of the offered time slots.
func (p Policy) SlotAllowed(value string) bool {
	if len(p.TimeSlots) == 0 {
		return !blank(value)
	}
	return slices.Contains(p.TimeSlots, value)
}

// MissingFields returns the fields that keep step from being valid, in form order.
func MissingFields(step models.Step, state *models.BookingState, policy Policy) []string {
	var missing []string
	switch step {
	case models.StepLocation:
		if blank(state.Location) {
			missing = append(missing, FieldLocation)
		}
		if blank(state.Building) {
			missing = append(missing, FieldBuilding)
		}
		if blank(state.ParkingSpot) {
			missing = append(missing, FieldParkingSpot)
		}
	case models.StepService:
		if !state.ServicePackage.Valid() {
			missing = append(missing, FieldServicePackage)
		}
	case models.StepDateTime:
		if state.Date == nil || state.Date.IsZero() || !policy.DateAllowed(*state.Date) {
			missing = append(missing, FieldDate)
		}
		if !policy.SlotAllowed(state.Time) {
			missing = append(missing, FieldTime)
		}
	case models.StepContact:
		if blank(state.Name) {
			missing = append(missing, FieldName)
		}
		if blank(state.Email) {
			missing = append(missing, FieldEmail)
		}
		if blank(state.Phone) {
			missing = append(missing, FieldPhone)
		}
	}
	return missing
}

// IsStepValid reports whether the user may continue past step.
func IsStepValid(step models.Step, state *models.BookingState, policy Policy) bool {
	return len(MissingFields(step, state, policy)) == 0
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
