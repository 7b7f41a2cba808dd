package models

import "fmt"

// WizardStep is one node of the planning wizard's linear progression.
type WizardStep string

const (
	StepDestination WizardStep = "destination"
	StepDates       WizardStep = "dates"
	StepTravelers   WizardStep = "travelers"
	StepBudget      WizardStep = "budget"
	StepPreferences WizardStep = "preferences"
	StepFlights     WizardStep = "flights"
	StepHotels      WizardStep = "hotels"
	StepActivities  WizardStep = "activities"
	StepReview      WizardStep = "review"
)

// WizardSteps lists every step in order.
var WizardSteps = []WizardStep{
	StepDestination,
	StepDates,
	StepTravelers,
	StepBudget,
	StepPreferences,
	StepFlights,
	StepHotels,
	StepActivities,
	StepReview,
}

// Index returns the position of s in WizardSteps, or -1.
func (s WizardStep) Index() int {
	for i, step := range WizardSteps {
		if step == s {
			return i
		}
	}
	return -1
}

func (s WizardStep) Valid() bool {
	return s.Index() >= 0
}

// Next returns the step after s. Review has no next step.
func (s WizardStep) Next() (WizardStep, bool) {
	i := s.Index()
	if i < 0 || i == len(WizardSteps)-1 {
		return s, false
	}
	return WizardSteps[i+1], true
}

// Prev returns the step before s. Destination has no previous step.
func (s WizardStep) Prev() (WizardStep, bool) {
	i := s.Index()
	if i <= 0 {
		return s, false
	}
	return WizardSteps[i-1], true
}

// ParseWizardStep validates a step name coming from a client.
func ParseWizardStep(raw string) (WizardStep, error) {
	s := WizardStep(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown wizard step %q: %w", raw, ErrBadRequest)
	}
	return s, nil
}

// DestinationPhase gates which fact the destination step accepts next.
type DestinationPhase string

const (
	PhaseOrigin      DestinationPhase = "origin"
	PhaseDestination DestinationPhase = "destination"
)
