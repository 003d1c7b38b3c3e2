package models

import "fmt"

// Step is one stage of the booking form. Steps are ordered; the zero value is not a step.
type Step int

const (
	StepLocation Step = iota + 1
	StepService
	StepDateTime
	StepContact
	StepReview
)

var stepNames = [...]string{
	StepLocation: "location",
	StepService:  "service",
	StepDateTime: "datetime",
	StepContact:  "contact",
	StepReview:   "review",
}

// Steps lists every step in form order.
func Steps() []Step {
	return []Step{StepLocation, StepService, StepDateTime, StepContact, StepReview}
}

func (s Step) Valid() bool {
	return s >= StepLocation && s <= StepReview
}

func (s Step) String() string {
	if !s.Valid() {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// Number is the 1-based position shown in the progress indicator.
func (s Step) Number() int {
	return int(s)
}

func ParseStep(raw string) (Step, error) {
	for _, s := range Steps() {
		if stepNames[s] == raw {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown step %q", raw)
}

func (s Step) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid step %d", int(s))
	}
	return []byte(stepNames[s]), nil
}

func (s *Step) UnmarshalText(text []byte) error {
	parsed, err := ParseStep(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
