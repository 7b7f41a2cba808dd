package wizard

import (
	"encoding/json"
	"fmt"

	"github.com/FACorreiaa/voyagr-planner/internal/app/models"
)

// Event is one input to the reducer.
type Event interface {
	EventKind() string
}

const (
	KindStepCompleted           = "step_completed"
	KindGeolocationResolved     = "geolocation_resolved"
	KindGeolocationFailed       = "geolocation_failed"
	KindReverseGeocodeCompleted = "reverse_geocode_completed"
	KindManualOriginRequested   = "manual_origin_requested"
	KindNavigated               = "navigated"
	KindBudgetDraftChanged      = "budget_draft_changed"
	KindBudgetCategoryChanged   = "budget_category_changed"
	KindBudgetConfirmed         = "budget_confirmed"
	KindSelectionToggled        = "selection_toggled"
	KindSelectionConfirmed      = "selection_confirmed"
	KindFlightSearchCompleted   = "flight_search_completed"
	KindFlightSearchRetried     = "flight_search_retried"
	KindDailyPlanAttached       = "daily_plan_attached"
	KindTripConfirmed           = "trip_confirmed"
	KindBookingCompleted        = "booking_completed"
)

// StepCompleted delivers a fact for the given step.
type StepCompleted struct {
	Step models.WizardStep `json:"step"`
	Fact models.TripFact   `json:"fact"`
}

// GeolocationResolved reports device coordinates for the origin.
type GeolocationResolved struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GeolocationFailed reports a denied or failed device location request.
type GeolocationFailed struct {
	Reason string `json:"reason"`
}

// ReverseGeocodeCompleted carries the outcome of a ReverseGeocodeEffect.
// Err is set on failure and Place is then ignored.
type ReverseGeocodeCompleted struct {
	Lat   float64       `json:"lat"`
	Lng   float64       `json:"lng"`
	Place *models.Place `json:"place,omitempty"`
	Err   string        `json:"err,omitempty"`
}

type ManualOriginRequested struct{}

// Navigated moves the cursor to an earlier step, or forward to any step
// whose predecessors are all complete. Facts are kept.
type Navigated struct {
	To models.WizardStep `json:"to"`
}

type BudgetDraftChanged struct {
	Total float64 `json:"total"`
}

type BudgetCategoryChanged struct {
	ID    string  `json:"id"`
	Value float64 `json:"value"`
}

// BudgetConfirmed commits the draft total. An empty currency uses the
// configured default.
type BudgetConfirmed struct {
	Currency string `json:"currency,omitempty"`
}

// SelectionToggled adds or removes one item of the preferences or
// activities accumulator. Activity is required on the activities step.
type SelectionToggled struct {
	Step     models.WizardStep       `json:"step"`
	ID       string                  `json:"id"`
	Activity *models.ActivitySummary `json:"activity,omitempty"`
}

type SelectionConfirmed struct {
	Step models.WizardStep `json:"step"`
}

// FlightSearchCompleted carries the outcome of a SearchFlightsEffect.
type FlightSearchCompleted struct {
	Token   int64                 `json:"token"`
	Options []models.FlightOption `json:"options,omitempty"`
	Err     string                `json:"err,omitempty"`
}

type FlightSearchRetried struct{}

// DailyPlanAttached stores the plan produced by an external planner.
type DailyPlanAttached struct {
	Plan []models.DayPlan `json:"plan"`
}

type TripConfirmed struct{}

// BookingCompleted carries the outcome of a BookTripEffect.
type BookingCompleted struct {
	Reference string `json:"reference,omitempty"`
	Err       string `json:"err,omitempty"`
}

func (StepCompleted) EventKind() string           { return KindStepCompleted }
func (GeolocationResolved) EventKind() string     { return KindGeolocationResolved }
func (GeolocationFailed) EventKind() string       { return KindGeolocationFailed }
func (ReverseGeocodeCompleted) EventKind() string { return KindReverseGeocodeCompleted }
func (ManualOriginRequested) EventKind() string   { return KindManualOriginRequested }
func (Navigated) EventKind() string               { return KindNavigated }
func (BudgetDraftChanged) EventKind() string      { return KindBudgetDraftChanged }
func (BudgetCategoryChanged) EventKind() string   { return KindBudgetCategoryChanged }
func (BudgetConfirmed) EventKind() string         { return KindBudgetConfirmed }
func (SelectionToggled) EventKind() string        { return KindSelectionToggled }
func (SelectionConfirmed) EventKind() string      { return KindSelectionConfirmed }
func (FlightSearchCompleted) EventKind() string   { return KindFlightSearchCompleted }
func (FlightSearchRetried) EventKind() string     { return KindFlightSearchRetried }
func (DailyPlanAttached) EventKind() string       { return KindDailyPlanAttached }
func (TripConfirmed) EventKind() string           { return KindTripConfirmed }
func (BookingCompleted) EventKind() string        { return KindBookingCompleted }

// clientEvents are the kinds a client may send. Effect results are only
// produced by the Service.
var clientEvents = map[string]func() Event{
	KindStepCompleted:         func() Event { return &StepCompleted{} },
	KindGeolocationResolved:   func() Event { return &GeolocationResolved{} },
	KindGeolocationFailed:     func() Event { return &GeolocationFailed{} },
	KindManualOriginRequested: func() Event { return &ManualOriginRequested{} },
	KindNavigated:             func() Event { return &Navigated{} },
	KindBudgetDraftChanged:    func() Event { return &BudgetDraftChanged{} },
	KindBudgetCategoryChanged: func() Event { return &BudgetCategoryChanged{} },
	KindBudgetConfirmed:       func() Event { return &BudgetConfirmed{} },
	KindSelectionToggled:      func() Event { return &SelectionToggled{} },
	KindSelectionConfirmed:    func() Event { return &SelectionConfirmed{} },
	KindFlightSearchRetried:   func() Event { return &FlightSearchRetried{} },
	KindDailyPlanAttached:     func() Event { return &DailyPlanAttached{} },
	KindTripConfirmed:         func() Event { return &TripConfirmed{} },
}

// DecodeEvent builds a client event from its kind and JSON payload. An
// empty payload is allowed for events without fields.
func DecodeEvent(kind string, payload json.RawMessage) (Event, error) {
	newEvent, ok := clientEvents[kind]
	if !ok {
		return nil, fmt.Errorf("event %q: %w", kind, models.ErrUnknownEvent)
	}
	ev := newEvent()
	if len(payload) > 0 && string(payload) != "null" {
		if err := json.Unmarshal(payload, ev); err != nil {
			return nil, fmt.Errorf("decode %s payload: %v: %w", kind, err, models.ErrBadRequest)
		}
	}
	return deref(ev), nil
}

// deref returns the value form so reducers can type-switch on values only.
func deref(ev Event) Event {
	switch e := ev.(type) {
	case *StepCompleted:
		return *e
	case *GeolocationResolved:
		return *e
	case *GeolocationFailed:
		return *e
	case *ManualOriginRequested:
		return *e
	case *Navigated:
		return *e
	case *BudgetDraftChanged:
		return *e
	case *BudgetCategoryChanged:
		return *e
	case *BudgetConfirmed:
		return *e
	case *SelectionToggled:
		return *e
	case *SelectionConfirmed:
		return *e
	case *FlightSearchRetried:
		return *e
	case *DailyPlanAttached:
		return *e
	case *TripConfirmed:
		return *e
	}
	return ev
}
