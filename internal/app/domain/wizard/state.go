package wizard

import (
	"slices"

	"github.com/FACorreiaa/voyagr-planner/internal/app/models"
)

// OriginStatus tracks how the origin of the destination step is being acquired.
type OriginStatus string

const (
	OriginChoose   OriginStatus = "choose"
	OriginLocating OriginStatus = "locating"
	OriginManual   OriginStatus = "manual"
	OriginResolved OriginStatus = "resolved"
)

type SearchStatus string

const (
	SearchIdle      SearchStatus = "idle"
	SearchSearching SearchStatus = "searching"
	SearchReady     SearchStatus = "ready"
	SearchFailed    SearchStatus = "failed"
)

type BookingStatus string

const (
	BookingIdle      BookingStatus = "idle"
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingFailed    BookingStatus = "failed"
)

// LocationFallbackCity names the origin when coordinates could not be
// turned into a city.
const LocationFallbackCity = "Your Location"

// FlightSearch is the flights step's view of the automatic search. Token
// identifies the search whose result the step is waiting for; HasSearched
// is the once-per-visit guard.
type FlightSearch struct {
	Token       int64                      `json:"token"`
	HasSearched bool                       `json:"hasSearched"`
	Status      SearchStatus               `json:"status"`
	Params      *models.FlightSearchParams `json:"params,omitempty"`
	Options     []models.FlightOption      `json:"options,omitempty"`
	Error       string                     `json:"error,omitempty"`
}

type Booking struct {
	Status    BookingStatus `json:"status"`
	Reference string        `json:"reference,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// State is everything a planning conversation needs to resume. It holds no
// functions or channels and round-trips through JSON.
type State struct {
	Step             models.WizardStep        `json:"step"`
	Phase            models.DestinationPhase  `json:"phase"`
	Itinerary        models.TripItinerary     `json:"itinerary"`
	Origin           OriginStatus             `json:"origin"`
	BudgetDraft      float64                  `json:"budgetDraft"`
	BudgetCategories []models.BudgetCategory  `json:"budgetCategories"`
	Interests        []string                 `json:"interests"`
	Activities       []models.ActivitySummary `json:"activities"`
	FlightSearch     FlightSearch             `json:"flightSearch"`
	Booking          Booking                  `json:"booking"`
	Notice           string                   `json:"notice,omitempty"`
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	out.Itinerary = s.Itinerary.Clone()
	out.BudgetCategories = slices.Clone(s.BudgetCategories)
	out.Interests = slices.Clone(s.Interests)
	out.Activities = slices.Clone(s.Activities)
	if s.FlightSearch.Params != nil {
		p := *s.FlightSearch.Params
		out.FlightSearch.Params = &p
	}
	out.FlightSearch.Options = slices.Clone(s.FlightSearch.Options)
	return out
}

// FirstIncomplete returns the earliest step whose fact is still missing.
// The destination step counts as complete once both ends are known.
func (s State) FirstIncomplete() models.WizardStep {
	it := s.Itinerary
	switch {
	case !it.Origin.HasCity() || !it.Destination.HasCity():
		return models.StepDestination
	case !it.Dates.Valid():
		return models.StepDates
	case it.Travelers < 1:
		return models.StepTravelers
	case it.Budget == nil:
		return models.StepBudget
	case it.Preferences == nil || len(it.Preferences.Interests) == 0:
		return models.StepPreferences
	case it.Flight == nil:
		return models.StepFlights
	case it.Hotel == nil:
		return models.StepHotels
	case len(it.SelectedActivities) == 0:
		return models.StepActivities
	}
	return models.StepReview
}
