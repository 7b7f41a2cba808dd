package wizard

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/FACorreiaa/voyagr-planner/internal/app/domain/airports"
	"github.com/FACorreiaa/voyagr-planner/internal/app/domain/budget"
	"github.com/FACorreiaa/voyagr-planner/internal/app/models"
)

const (
	DefaultBudgetMin             = 100.0
	DefaultBudgetMax             = 100000.0
	DefaultMaxActivitySelections = 10
)

// Config holds the bounds and lookup data the reducer depends on.
type Config struct {
	Airports              *airports.Table
	BudgetMin             float64
	BudgetMax             float64
	MaxActivitySelections int
	Currency              string
}

func DefaultConfig() Config {
	return Config{
		Airports:              airports.Default(),
		BudgetMin:             DefaultBudgetMin,
		BudgetMax:             DefaultBudgetMax,
		MaxActivitySelections: DefaultMaxActivitySelections,
		Currency:              "USD",
	}
}

// Result is the outcome of reducing one event. When Accepted is false the
// State is the input state unchanged and Reason says what was missing.
type Result struct {
	State    State    `json:"state"`
	Effects  []Effect `json:"-"`
	Accepted bool     `json:"accepted"`
	Reason   string   `json:"reason,omitempty"`
}

// Machine is the itinerary wizard as a pure reducer. It keeps no state of
// its own and is safe for concurrent use.
type Machine struct {
	cfg Config
}

func NewMachine(cfg Config) *Machine {
	def := DefaultConfig()
	if cfg.Airports == nil {
		cfg.Airports = def.Airports
	}
	if cfg.BudgetMin <= 0 {
		cfg.BudgetMin = def.BudgetMin
	}
	if cfg.BudgetMax <= 0 {
		cfg.BudgetMax = def.BudgetMax
	}
	if cfg.MaxActivitySelections <= 0 {
		cfg.MaxActivitySelections = def.MaxActivitySelections
	}
	if cfg.Currency == "" {
		cfg.Currency = def.Currency
	}
	return &Machine{cfg: cfg}
}

func (m *Machine) Config() Config {
	return m.cfg
}

// Start returns the state of a fresh conversation.
func (m *Machine) Start() State {
	return State{
		Step:             models.StepDestination,
		Phase:            models.PhaseOrigin,
		Origin:           OriginChoose,
		BudgetCategories: budget.DefaultCategories(),
		FlightSearch:     FlightSearch{Status: SearchIdle},
		Booking:          Booking{Status: BookingIdle},
	}
}

// Reduce applies ev to s. It never mutates s.
func (m *Machine) Reduce(s State, ev Event) Result {
	switch e := ev.(type) {
	case StepCompleted:
		return m.stepCompleted(s, e)
	case GeolocationResolved:
		return m.geolocationResolved(s, e)
	case GeolocationFailed:
		return m.geolocationFailed(s, e)
	case ReverseGeocodeCompleted:
		return m.reverseGeocodeCompleted(s, e)
	case ManualOriginRequested:
		if !awaitingOrigin(s) {
			return refuse(s, "origin is not being asked for")
		}
		next := begin(s)
		next.Origin = OriginManual
		return accept(next)
	case Navigated:
		return m.navigated(s, e)
	case BudgetDraftChanged:
		if s.Step != models.StepBudget {
			return refuse(s, "budget step is not current")
		}
		next := begin(s)
		next.BudgetDraft = e.Total
		return accept(next)
	case BudgetCategoryChanged:
		return m.budgetCategoryChanged(s, e)
	case BudgetConfirmed:
		return m.budgetConfirmed(s, e)
	case SelectionToggled:
		return m.selectionToggled(s, e)
	case SelectionConfirmed:
		return m.selectionConfirmed(s, e)
	case FlightSearchCompleted:
		return m.flightSearchCompleted(s, e)
	case FlightSearchRetried:
		return m.flightSearchRetried(s)
	case DailyPlanAttached:
		if len(e.Plan) == 0 {
			return refuse(s, "daily plan is empty")
		}
		next := begin(s)
		next.Itinerary = next.Itinerary.Merge(models.TripFact{DailyPlan: e.Plan})
		return accept(next)
	case TripConfirmed:
		return m.tripConfirmed(s)
	case BookingCompleted:
		return m.bookingCompleted(s, e)
	}
	return refuse(s, fmt.Sprintf("unsupported event %T", ev))
}

func begin(s State) State {
	next := s.Clone()
	next.Notice = ""
	return next
}

func accept(s State, effects ...Effect) Result {
	return Result{State: s, Effects: effects, Accepted: true}
}

func refuse(s State, reason string) Result {
	return Result{State: s, Reason: reason}
}

func awaitingOrigin(s State) bool {
	return s.Step == models.StepDestination && s.Phase == models.PhaseOrigin
}

func (m *Machine) stepCompleted(s State, e StepCompleted) Result {
	if e.Step != s.Step {
		return refuse(s, fmt.Sprintf("step %q is not current", e.Step))
	}
	f := e.Fact
	var fact models.TripFact

	switch s.Step {
	case models.StepDestination:
		if s.Phase == models.PhaseOrigin {
			if !f.Origin.HasCity() {
				return refuse(s, "an origin city is required")
			}
			return accept(withOrigin(begin(s), f.Origin))
		}
		if !f.Destination.HasCity() {
			if f.Origin.HasCity() {
				// A corrected origin keeps the destination phase.
				return accept(withOrigin(begin(s), f.Origin))
			}
			return refuse(s, "a destination city is required")
		}
		fact.Destination = f.Destination
		if f.Origin.HasCity() {
			fact.Origin = f.Origin
		}
	case models.StepDates:
		if !f.Dates.Valid() {
			return refuse(s, "end date must be after start date")
		}
		fact.Dates = f.Dates
	case models.StepTravelers:
		if f.Travelers == nil || *f.Travelers < 1 {
			return refuse(s, "at least one traveler is required")
		}
		fact.Travelers = f.Travelers
	case models.StepBudget:
		if !f.Budget.Valid() || !budget.WithinBounds(f.Budget.Total, m.cfg.BudgetMin, m.cfg.BudgetMax) {
			return refuse(s, m.budgetBoundsReason())
		}
		fact.Budget = f.Budget
	case models.StepPreferences:
		if f.Preferences == nil || len(f.Preferences.Interests) == 0 {
			return refuse(s, "select at least one interest")
		}
		fact.Preferences = f.Preferences
	case models.StepFlights:
		if f.Flight == nil {
			return refuse(s, "a flight is required")
		}
		fact.Flight = f.Flight
	case models.StepHotels:
		if f.Hotel == nil {
			return refuse(s, "a hotel is required")
		}
		fact.Hotel = f.Hotel
	case models.StepActivities:
		if n := len(f.SelectedActivities); n == 0 || n > m.cfg.MaxActivitySelections {
			return refuse(s, fmt.Sprintf("select between 1 and %d activities", m.cfg.MaxActivitySelections))
		}
		fact.SelectedActivities = f.SelectedActivities
	default:
		return refuse(s, "review is completed by confirming the trip")
	}

	next := begin(s)
	next.Itinerary = next.Itinerary.Merge(fact)
	switch {
	case fact.Budget != nil:
		next.BudgetDraft = fact.Budget.Total
	case fact.Preferences != nil:
		next.Interests = append([]string(nil), fact.Preferences.Interests...)
	case fact.SelectedActivities != nil:
		next.Activities = append([]models.ActivitySummary(nil), fact.SelectedActivities...)
	}
	return m.advance(next)
}

// withOrigin records an origin fact and moves the destination step to its
// destination phase.
func withOrigin(next State, origin *models.Place) State {
	next.Itinerary = next.Itinerary.Merge(models.TripFact{Origin: origin})
	next.Phase = models.PhaseDestination
	next.Origin = OriginResolved
	return next
}

func (m *Machine) advance(next State) Result {
	to, ok := next.Step.Next()
	if !ok {
		return accept(next)
	}
	return accept(next, m.enter(&next, to)...)
}

// enter moves the cursor to step, running the leave and entry rules.
func (m *Machine) enter(s *State, step models.WizardStep) []Effect {
	if s.Step == models.StepFlights && step != models.StepFlights {
		s.FlightSearch = FlightSearch{Token: s.FlightSearch.Token, Status: SearchIdle}
	}
	s.Step = step

	switch step {
	case models.StepDestination:
		if s.Itinerary.Origin.HasCity() {
			s.Phase = models.PhaseDestination
			s.Origin = OriginResolved
		} else {
			s.Phase = models.PhaseOrigin
		}
	case models.StepBudget:
		if s.BudgetDraft == 0 && s.Itinerary.Budget != nil {
			s.BudgetDraft = s.Itinerary.Budget.Total
		}
	case models.StepPreferences:
		if len(s.Interests) == 0 && s.Itinerary.Preferences != nil {
			s.Interests = append([]string(nil), s.Itinerary.Preferences.Interests...)
		}
	case models.StepActivities:
		if len(s.Activities) == 0 {
			s.Activities = append([]models.ActivitySummary(nil), s.Itinerary.SelectedActivities...)
		}
	case models.StepFlights:
		if s.FlightSearch.HasSearched || !searchReady(s.Itinerary) {
			return nil
		}
		return []Effect{m.startSearch(s)}
	}
	return nil
}

func searchReady(it models.TripItinerary) bool {
	return it.Destination.HasCity() && it.Dates.Valid() && it.Travelers >= 1
}

func (m *Machine) startSearch(s *State) Effect {
	params := m.SearchParams(s.Itinerary)
	s.FlightSearch = FlightSearch{
		Token:       s.FlightSearch.Token + 1,
		HasSearched: true,
		Status:      SearchSearching,
		Params:      &params,
	}
	return SearchFlightsEffect{Token: s.FlightSearch.Token, Params: params}
}

// SearchParams builds the automatic flight search request from the
// itinerary. Both cities go through the shared airport table; unknown
// cities fall back to JFK and CDG.
func (m *Machine) SearchParams(it models.TripItinerary) models.FlightSearchParams {
	p := models.FlightSearchParams{
		Origin:       airports.DefaultOrigin,
		Destination:  airports.DefaultWizardDestination,
		Adults:       max(it.Travelers, 1),
		CabinClass:   models.CabinEconomy,
		CurrencyCode: m.cfg.Currency,
		TripType:     models.TripRoundTrip,
		Sources: models.ParamSources{
			Origin:      models.SourceDefault,
			Destination: models.SourceDefault,
			Dates:       models.SourceContext,
			Adults:      models.SourceContext,
			CabinClass:  models.SourceDefault,
			TripType:    models.SourceDefault,
		},
	}
	if it.Origin.HasCity() {
		if code, ok := m.cfg.Airports.Lookup(it.Origin.City); ok {
			p.Origin = code
			p.Sources.Origin = models.SourceContext
		}
	}
	if it.Destination.HasCity() {
		if code, ok := m.cfg.Airports.Lookup(it.Destination.City); ok {
			p.Destination = code
			p.Sources.Destination = models.SourceContext
		}
	}
	if it.Dates != nil {
		p.DepartureDate = models.FormatISODate(it.Dates.StartDate)
		p.ReturnDate = models.FormatISODate(it.Dates.EndDate)
	}
	if it.Budget != nil && it.Budget.Currency != "" {
		p.CurrencyCode = it.Budget.Currency
	}
	return p
}

func (m *Machine) geolocationResolved(s State, e GeolocationResolved) Result {
	if !awaitingOrigin(s) {
		return refuse(s, "origin is not being asked for")
	}
	if !models.ValidateCoordinates(e.Lat, e.Lng) {
		return refuse(s, "coordinates out of range")
	}
	next := begin(s)
	next.Origin = OriginLocating
	return accept(next, ReverseGeocodeEffect{Lat: e.Lat, Lng: e.Lng})
}

func (m *Machine) geolocationFailed(s State, e GeolocationFailed) Result {
	if !awaitingOrigin(s) {
		return refuse(s, "origin is not being asked for")
	}
	next := begin(s)
	next.Origin = OriginManual
	next.Notice = "We could not get your location. Please enter your departure city."
	if e.Reason != "" {
		next.Notice = fmt.Sprintf("We could not get your location (%s). Please enter your departure city.", e.Reason)
	}
	return accept(next)
}

func (m *Machine) reverseGeocodeCompleted(s State, e ReverseGeocodeCompleted) Result {
	if !awaitingOrigin(s) || s.Origin != OriginLocating {
		return refuse(s, "no location lookup is pending")
	}
	lat, lng := e.Lat, e.Lng
	place := &models.Place{City: LocationFallbackCity}
	if e.Err == "" && e.Place.HasCity() {
		place = &models.Place{City: e.Place.City, Country: e.Place.Country}
	}
	place.Lat, place.Lng = &lat, &lng
	return accept(withOrigin(begin(s), place))
}

func (m *Machine) navigated(s State, e Navigated) Result {
	if !e.To.Valid() {
		return refuse(s, fmt.Sprintf("unknown step %q", e.To))
	}
	if s.Booking.Status == BookingPending || s.Booking.Status == BookingConfirmed {
		return refuse(s, "trip is already booked")
	}
	if e.To == s.Step {
		return accept(s)
	}
	if e.To.Index() > s.FirstIncomplete().Index() {
		return refuse(s, fmt.Sprintf("complete %s first", s.FirstIncomplete()))
	}
	next := begin(s)
	return accept(next, m.enter(&next, e.To)...)
}

func (m *Machine) budgetBoundsReason() string {
	return fmt.Sprintf("budget must be between %.0f and %.0f", m.cfg.BudgetMin, m.cfg.BudgetMax)
}

func (m *Machine) budgetCategoryChanged(s State, e BudgetCategoryChanged) Result {
	if s.Step != models.StepBudget {
		return refuse(s, "budget step is not current")
	}
	if !lo.ContainsBy(s.BudgetCategories, func(c models.BudgetCategory) bool { return c.ID == e.ID }) {
		return refuse(s, fmt.Sprintf("unknown budget category %q", e.ID))
	}
	next := begin(s)
	next.BudgetCategories = budget.SetCategoryValue(s.BudgetCategories, e.ID, e.Value)
	return accept(next)
}

func (m *Machine) budgetConfirmed(s State, e BudgetConfirmed) Result {
	if s.Step != models.StepBudget {
		return refuse(s, "budget step is not current")
	}
	if !budget.WithinBounds(s.BudgetDraft, m.cfg.BudgetMin, m.cfg.BudgetMax) {
		return refuse(s, m.budgetBoundsReason())
	}
	currency := e.Currency
	if currency == "" {
		currency = m.cfg.Currency
	}
	b := &models.Budget{
		Total:     s.BudgetDraft,
		Currency:  currency,
		Breakdown: budget.Breakdown(s.BudgetCategories),
	}
	if !b.Valid() {
		return refuse(s, "budget categories must sum to 100")
	}
	next := begin(s)
	next.Itinerary = next.Itinerary.Merge(models.TripFact{Budget: b})
	return m.advance(next)
}

func (m *Machine) selectionToggled(s State, e SelectionToggled) Result {
	if e.Step != s.Step {
		return refuse(s, fmt.Sprintf("step %q is not current", e.Step))
	}
	if e.ID == "" {
		return refuse(s, "selection id is required")
	}

	switch s.Step {
	case models.StepPreferences:
		next := begin(s)
		if lo.Contains(s.Interests, e.ID) {
			next.Interests = lo.Without(next.Interests, e.ID)
		} else {
			next.Interests = append(next.Interests, e.ID)
		}
		return accept(next)
	case models.StepActivities:
		selected := func(a models.ActivitySummary) bool { return a.ID == e.ID }
		next := begin(s)
		if lo.ContainsBy(s.Activities, selected) {
			next.Activities = lo.Reject(next.Activities, func(a models.ActivitySummary, _ int) bool { return selected(a) })
			return accept(next)
		}
		if e.Activity == nil {
			return refuse(s, "activity details are required")
		}
		if len(s.Activities) >= m.cfg.MaxActivitySelections {
			return refuse(s, fmt.Sprintf("at most %d activities can be selected", m.cfg.MaxActivitySelections))
		}
		a := *e.Activity
		a.ID = e.ID
		next.Activities = append(next.Activities, a)
		return accept(next)
	}
	return refuse(s, "current step has no selection")
}

func (m *Machine) selectionConfirmed(s State, e SelectionConfirmed) Result {
	if e.Step != s.Step {
		return refuse(s, fmt.Sprintf("step %q is not current", e.Step))
	}
	switch s.Step {
	case models.StepPreferences:
		return m.stepCompleted(s, StepCompleted{
			Step: s.Step,
			Fact: models.TripFact{Preferences: &models.Preferences{Interests: s.Interests}},
		})
	case models.StepActivities:
		return m.stepCompleted(s, StepCompleted{
			Step: s.Step,
			Fact: models.TripFact{SelectedActivities: s.Activities},
		})
	}
	return refuse(s, "current step has no selection")
}

func (m *Machine) flightSearchCompleted(s State, e FlightSearchCompleted) Result {
	if s.Step != models.StepFlights || s.FlightSearch.Status != SearchSearching || e.Token != s.FlightSearch.Token {
		return refuse(s, "stale flight search result")
	}
	next := begin(s)
	if e.Err != "" {
		next.FlightSearch.Status = SearchFailed
		next.FlightSearch.Error = e.Err
		next.FlightSearch.Options = nil
		return accept(next)
	}
	next.FlightSearch.Status = SearchReady
	next.FlightSearch.Error = ""
	next.FlightSearch.Options = append([]models.FlightOption(nil), e.Options...)
	return accept(next)
}

func (m *Machine) flightSearchRetried(s State) Result {
	if s.Step != models.StepFlights {
		return refuse(s, "flights step is not current")
	}
	if s.FlightSearch.Status == SearchSearching {
		return refuse(s, "a search is already running")
	}
	if !searchReady(s.Itinerary) {
		return refuse(s, "destination, dates and travelers are required")
	}
	next := begin(s)
	return accept(next, m.startSearch(&next))
}

func (m *Machine) tripConfirmed(s State) Result {
	if s.Step != models.StepReview {
		return refuse(s, "review step is not current")
	}
	if s.Booking.Status == BookingPending || s.Booking.Status == BookingConfirmed {
		return refuse(s, "trip is already being booked")
	}
	if !s.Itinerary.Complete() {
		return refuse(s, "itinerary is incomplete")
	}
	next := begin(s)
	next.Booking = Booking{Status: BookingPending}
	return accept(next, BookTripEffect{Itinerary: next.Itinerary.Clone()})
}

func (m *Machine) bookingCompleted(s State, e BookingCompleted) Result {
	if s.Booking.Status != BookingPending {
		return refuse(s, "no booking is pending")
	}
	next := begin(s)
	if e.Err != "" {
		next.Booking = Booking{Status: BookingFailed, Error: e.Err}
		next.Notice = "Booking failed. You can try confirming again."
		return accept(next)
	}
	next.Booking = Booking{Status: BookingConfirmed, Reference: e.Reference}
	return accept(next)
}
