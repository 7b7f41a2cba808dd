package wizard

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/voyagr-planner/internal/app/models"
)

func intPtr(n int) *int { return &n }

func tripDates() *models.DateRange {
	return &models.DateRange{
		StartDate: time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC),
	}
}

func mustAccept(t *testing.T, m *Machine, s State, ev Event) Result {
	t.Helper()
	r := m.Reduce(s, ev)
	require.True(t, r.Accepted, "%s refused: %s", ev.EventKind(), r.Reason)
	return r
}

func mustRefuse(t *testing.T, m *Machine, s State, ev Event) Result {
	t.Helper()
	r := m.Reduce(s, ev)
	require.False(t, r.Accepted, "%s unexpectedly accepted", ev.EventKind())
	assert.Equal(t, s, r.State, "refusal must not change state")
	assert.Empty(t, r.Effects)
	assert.NotEmpty(t, r.Reason)
	return r
}

// walkTo drives a fresh conversation from Lisbon to Paris until step is current.
func walkTo(t *testing.T, m *Machine, step models.WizardStep) State {
	t.Helper()
	s := m.Start()
	events := []Event{
		StepCompleted{Step: models.StepDestination, Fact: models.TripFact{Origin: &models.Place{City: "Lisbon"}}},
		StepCompleted{Step: models.StepDestination, Fact: models.TripFact{Destination: &models.Place{City: "Paris", Country: "France"}}},
		StepCompleted{Step: models.StepDates, Fact: models.TripFact{Dates: tripDates()}},
		StepCompleted{Step: models.StepTravelers, Fact: models.TripFact{Travelers: intPtr(2)}},
		BudgetDraftChanged{Total: 3000},
		BudgetConfirmed{Currency: "EUR"},
		SelectionToggled{Step: models.StepPreferences, ID: "food"},
		SelectionToggled{Step: models.StepPreferences, ID: "art"},
		SelectionConfirmed{Step: models.StepPreferences},
		nil, // flight search result, token taken from state
		StepCompleted{Step: models.StepFlights, Fact: models.TripFact{Flight: &models.FlightSummary{ID: "f1", Airline: "TAP", Price: 120, Currency: "EUR"}}},
		StepCompleted{Step: models.StepHotels, Fact: models.TripFact{Hotel: &models.HotelSummary{ID: "h1", Name: "Hotel Lutetia", Price: 300, Currency: "EUR"}}},
		SelectionToggled{Step: models.StepActivities, ID: "louvre", Activity: &models.ActivitySummary{Name: "Louvre", Price: 22}},
		SelectionConfirmed{Step: models.StepActivities},
	}
	for _, ev := range events {
		if s.Step == step {
			return s
		}
		if ev == nil {
			ev = FlightSearchCompleted{Token: s.FlightSearch.Token, Options: []models.FlightOption{{ID: "f1", Airline: "TAP", Price: 120}}}
		}
		s = mustAccept(t, m, s, ev).State
	}
	require.Equal(t, step, s.Step)
	return s
}

func TestStart(t *testing.T) {
	s := NewMachine(DefaultConfig()).Start()

	assert.Equal(t, models.StepDestination, s.Step)
	assert.Equal(t, models.PhaseOrigin, s.Phase)
	assert.Equal(t, OriginChoose, s.Origin)
	assert.Len(t, s.BudgetCategories, 5)
	assert.Equal(t, SearchIdle, s.FlightSearch.Status)
	assert.Equal(t, BookingIdle, s.Booking.Status)
}

func TestOriginFactMovesPhaseOnly(t *testing.T) {
	m := NewMachine(DefaultConfig())

	r := mustAccept(t, m, m.Start(), StepCompleted{
		Step: models.StepDestination,
		Fact: models.TripFact{Origin: &models.Place{City: "Boston"}},
	})

	assert.Equal(t, models.PhaseDestination, r.State.Phase)
	assert.Equal(t, models.StepDestination, r.State.Step)
	assert.Equal(t, "Boston", r.State.Itinerary.Origin.City)
	assert.Nil(t, r.State.Itinerary.Destination)
	assert.Empty(t, r.Effects)
}

func TestOriginPhaseIgnoresDestinationInSameFact(t *testing.T) {
	m := NewMachine(DefaultConfig())

	r := mustAccept(t, m, m.Start(), StepCompleted{
		Step: models.StepDestination,
		Fact: models.TripFact{Origin: &models.Place{City: "Boston"}, Destination: &models.Place{City: "Rome"}},
	})

	assert.Equal(t, models.StepDestination, r.State.Step)
	assert.Nil(t, r.State.Itinerary.Destination)
}

func TestDestinationPhaseIsMonotonic(t *testing.T) {
	m := NewMachine(DefaultConfig())
	s := walkTo(t, m, models.StepDestination)
	s = mustAccept(t, m, s, StepCompleted{Step: models.StepDestination, Fact: models.TripFact{Origin: &models.Place{City: "Boston"}}}).State

	events := []Event{
		StepCompleted{Step: models.StepDestination, Fact: models.TripFact{Origin: &models.Place{City: "Chicago"}}},
		StepCompleted{Step: models.StepDestination, Fact: models.TripFact{}},
		GeolocationResolved{Lat: 38.7, Lng: -9.1},
		GeolocationFailed{Reason: "denied"},
		ManualOriginRequested{},
		ReverseGeocodeCompleted{Lat: 1, Lng: 1, Place: &models.Place{City: "Nowhere"}},
		Navigated{To: models.StepDestination},
		StepCompleted{Step: models.StepDestination, Fact: models.TripFact{Destination: &models.Place{City: "Rome"}}},
		Navigated{To: models.StepDestination},
	}
	for _, ev := range events {
		s = m.Reduce(s, ev).State
		if s.Step == models.StepDestination {
			require.Equal(t, models.PhaseDestination, s.Phase, "after %s", ev.EventKind())
		}
	}
	assert.Equal(t, "Chicago", s.Itinerary.Origin.City)
	assert.Equal(t, "Rome", s.Itinerary.Destination.City)
}

func TestInvalidFactsDoNotAdvance(t *testing.T) {
	m := NewMachine(DefaultConfig())

	tests := []struct {
		name string
		step models.WizardStep
		fact models.TripFact
	}{
		{"origin without city", models.StepDestination, models.TripFact{Origin: &models.Place{Country: "US"}}},
		{"dates reversed", models.StepDates, models.TripFact{Dates: &models.DateRange{StartDate: tripDates().EndDate, EndDate: tripDates().StartDate}}},
		{"dates missing", models.StepDates, models.TripFact{Travelers: intPtr(2)}},
		{"zero travelers", models.StepTravelers, models.TripFact{Travelers: intPtr(0)}},
		{"budget below minimum", models.StepBudget, models.TripFact{Budget: &models.Budget{Total: 50, Currency: "USD", Breakdown: map[string]float64{"flights": 100}}}},
		{"budget breakdown off", models.StepBudget, models.TripFact{Budget: &models.Budget{Total: 500, Currency: "USD", Breakdown: map[string]float64{"flights": 90}}}},
		{"no interests", models.StepPreferences, models.TripFact{Preferences: &models.Preferences{}}},
		{"no flight", models.StepFlights, models.TripFact{}},
		{"no hotel", models.StepHotels, models.TripFact{Flight: &models.FlightSummary{ID: "x"}}},
		{"no activities", models.StepActivities, models.TripFact{}},
		{"review via step completion", models.StepReview, models.TripFact{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := walkTo(t, m, tc.step)
			mustRefuse(t, m, s, StepCompleted{Step: tc.step, Fact: tc.fact})
		})
	}
}

func TestStepCompletedForOtherStepIsRefused(t *testing.T) {
	m := NewMachine(DefaultConfig())
	s := walkTo(t, m, models.StepDates)

	mustRefuse(t, m, s, StepCompleted{Step: models.StepTravelers, Fact: models.TripFact{Travelers: intPtr(2)}})
}

func TestFactIsScopedToItsStep(t *testing.T) {
	m := NewMachine(DefaultConfig())
	s := walkTo(t, m, models.StepDates)

	r := mustAccept(t, m, s, StepCompleted{
		Step: models.StepDates,
		Fact: models.TripFact{Dates: tripDates(), Travelers: intPtr(4)},
	})

	assert.Equal(t, models.StepTravelers, r.State.Step)
	assert.Zero(t, r.State.Itinerary.Travelers)
}

func TestGeolocation(t *testing.T) {
	m := NewMachine(DefaultConfig())

	t.Run("resolved city", func(t *testing.T) {
		r := mustAccept(t, m, m.Start(), GeolocationResolved{Lat: 38.72, Lng: -9.14})
		assert.Equal(t, OriginLocating, r.State.Origin)
		require.Len(t, r.Effects, 1)
		assert.Equal(t, ReverseGeocodeEffect{Lat: 38.72, Lng: -9.14}, r.Effects[0])

		r = mustAccept(t, m, r.State, ReverseGeocodeCompleted{Lat: 38.72, Lng: -9.14, Place: &models.Place{City: "Lisbon", Country: "Portugal"}})
		origin := r.State.Itinerary.Origin
		assert.Equal(t, "Lisbon", origin.City)
		assert.Equal(t, "Portugal", origin.Country)
		assert.Equal(t, 38.72, *origin.Lat)
		assert.Equal(t, -9.14, *origin.Lng)
		assert.Equal(t, models.PhaseDestination, r.State.Phase)
		assert.Equal(t, OriginResolved, r.State.Origin)
	})

	t.Run("lookup failure falls back to your location", func(t *testing.T) {
		s := mustAccept(t, m, m.Start(), GeolocationResolved{Lat: 10, Lng: 20}).State
		r := mustAccept(t, m, s, ReverseGeocodeCompleted{Lat: 10, Lng: 20, Err: "timeout"})
		assert.Equal(t, LocationFallbackCity, r.State.Itinerary.Origin.City)
		assert.Equal(t, 10.0, *r.State.Itinerary.Origin.Lat)
		assert.Equal(t, models.PhaseDestination, r.State.Phase)
	})

	t.Run("empty city falls back to your location", func(t *testing.T) {
		s := mustAccept(t, m, m.Start(), GeolocationResolved{Lat: 10, Lng: 20}).State
		r := mustAccept(t, m, s, ReverseGeocodeCompleted{Lat: 10, Lng: 20, Place: &models.Place{Country: "Chad"}})
		assert.Equal(t, LocationFallbackCity, r.State.Itinerary.Origin.City)
	})

	t.Run("denied prompts manual entry", func(t *testing.T) {
		r := mustAccept(t, m, m.Start(), GeolocationFailed{Reason: "permission denied"})
		assert.Equal(t, OriginManual, r.State.Origin)
		assert.Contains(t, r.State.Notice, "permission denied")
		assert.Equal(t, models.PhaseOrigin, r.State.Phase)

		r = mustAccept(t, m, r.State, StepCompleted{Step: models.StepDestination, Fact: models.TripFact{Origin: &models.Place{City: "Porto"}}})
		assert.Empty(t, r.State.Notice)
		assert.Equal(t, models.PhaseDestination, r.State.Phase)
	})

	t.Run("manual requested", func(t *testing.T) {
		r := mustAccept(t, m, m.Start(), ManualOriginRequested{})
		assert.Equal(t, OriginManual, r.State.Origin)
	})

	t.Run("bad coordinates", func(t *testing.T) {
		mustRefuse(t, m, m.Start(), GeolocationResolved{Lat: 91, Lng: 0})
	})

	t.Run("result without pending lookup", func(t *testing.T) {
		mustRefuse(t, m, m.Start(), ReverseGeocodeCompleted{Lat: 1, Lng: 1, Place: &models.Place{City: "Lisbon"}})
	})
}

func TestFlightsAutoSearch(t *testing.T) {
	m := NewMachine(DefaultConfig())
	s := walkTo(t, m, models.StepPreferences)
	s = mustAccept(t, m, s, SelectionToggled{Step: models.StepPreferences, ID: "food"}).State

	r := mustAccept(t, m, s, SelectionConfirmed{Step: models.StepPreferences})

	require.Equal(t, models.StepFlights, r.State.Step)
	require.Len(t, r.Effects, 1)
	eff, ok := r.Effects[0].(SearchFlightsEffect)
	require.True(t, ok)
	assert.Equal(t, r.State.FlightSearch.Token, eff.Token)
	assert.Equal(t, "LIS", eff.Params.Origin, "origin comes from the itinerary")
	assert.Equal(t, "CDG", eff.Params.Destination)
	assert.Equal(t, "2025-06-01", eff.Params.DepartureDate)
	assert.Equal(t, "2025-06-10", eff.Params.ReturnDate)
	assert.Equal(t, 2, eff.Params.Adults)
	assert.Equal(t, "EUR", eff.Params.CurrencyCode)
	assert.Equal(t, models.SourceContext, eff.Params.Sources.Origin)
	assert.True(t, r.State.FlightSearch.HasSearched)
	assert.Equal(t, SearchSearching, r.State.FlightSearch.Status)

	t.Run("fires once per visit", func(t *testing.T) {
		again := mustAccept(t, m, r.State, Navigated{To: models.StepFlights})
		assert.Empty(t, again.Effects)
	})

	t.Run("result applied", func(t *testing.T) {
		done := mustAccept(t, m, r.State, FlightSearchCompleted{Token: eff.Token, Options: []models.FlightOption{{ID: "a"}, {ID: "b"}}})
		assert.Equal(t, SearchReady, done.State.FlightSearch.Status)
		assert.Len(t, done.State.FlightSearch.Options, 2)
	})

	t.Run("result after leaving is dropped", func(t *testing.T) {
		left := mustAccept(t, m, r.State, Navigated{To: models.StepBudget}).State
		assert.False(t, left.FlightSearch.HasSearched)
		mustRefuse(t, m, left, FlightSearchCompleted{Token: eff.Token})
	})

	t.Run("re-entry searches again and drops the old token", func(t *testing.T) {
		left := mustAccept(t, m, r.State, Navigated{To: models.StepPreferences}).State
		back := mustAccept(t, m, left, SelectionConfirmed{Step: models.StepPreferences})
		require.Len(t, back.Effects, 1)
		newer := back.Effects[0].(SearchFlightsEffect)
		assert.Greater(t, newer.Token, eff.Token)

		mustRefuse(t, m, back.State, FlightSearchCompleted{Token: eff.Token})
		mustAccept(t, m, back.State, FlightSearchCompleted{Token: newer.Token})
	})

	t.Run("failure then retry", func(t *testing.T) {
		failed := mustAccept(t, m, r.State, FlightSearchCompleted{Token: eff.Token, Err: "provider down"})
		assert.Equal(t, SearchFailed, failed.State.FlightSearch.Status)
		assert.Equal(t, "provider down", failed.State.FlightSearch.Error)

		retried := mustAccept(t, m, failed.State, FlightSearchRetried{})
		require.Len(t, retried.Effects, 1)
		assert.Equal(t, SearchSearching, retried.State.FlightSearch.Status)
		mustRefuse(t, m, retried.State, FlightSearchRetried{})
	})
}

func TestSearchParamsFallbacks(t *testing.T) {
	m := NewMachine(DefaultConfig())

	p := m.SearchParams(models.TripItinerary{
		Origin:      &models.Place{City: LocationFallbackCity},
		Destination: &models.Place{City: "Atlantis"},
		Dates:       tripDates(),
		Travelers:   1,
	})

	assert.Equal(t, "JFK", p.Origin)
	assert.Equal(t, "CDG", p.Destination)
	assert.Equal(t, models.SourceDefault, p.Sources.Origin)
	assert.Equal(t, models.SourceDefault, p.Sources.Destination)
	assert.Equal(t, "USD", p.CurrencyCode)
	assert.True(t, p.RoundTrip())
}

func TestBudgetStep(t *testing.T) {
	m := NewMachine(Config{BudgetMin: 500, BudgetMax: 5000})
	s := walkTo(t, m, models.StepBudget)

	t.Run("draft is local until confirmed", func(t *testing.T) {
		r := mustAccept(t, m, s, BudgetDraftChanged{Total: 99999})
		assert.Nil(t, r.State.Itinerary.Budget)
		assert.Equal(t, 99999.0, r.State.BudgetDraft)
	})

	t.Run("out of bounds is refused not clamped", func(t *testing.T) {
		for _, total := range []float64{0, 499, 5001} {
			draft := mustAccept(t, m, s, BudgetDraftChanged{Total: total}).State
			r := mustRefuse(t, m, draft, BudgetConfirmed{})
			assert.Contains(t, r.Reason, "between 500 and 5000")
		}
	})

	t.Run("categories rebalance and land in the breakdown", func(t *testing.T) {
		st := mustAccept(t, m, s, BudgetCategoryChanged{ID: "flights", Value: 60}).State
		assert.InDelta(t, 100, sumValues(st.BudgetCategories), 1e-9)
		st = mustAccept(t, m, st, BudgetDraftChanged{Total: 2000}).State

		r := mustAccept(t, m, st, BudgetConfirmed{})
		require.NotNil(t, r.State.Itinerary.Budget)
		assert.Equal(t, 2000.0, r.State.Itinerary.Budget.Total)
		assert.Equal(t, "USD", r.State.Itinerary.Budget.Currency)
		assert.Equal(t, 60.0, r.State.Itinerary.Budget.Breakdown["flights"])
		assert.Equal(t, models.StepPreferences, r.State.Step)
	})

	t.Run("unknown category", func(t *testing.T) {
		mustRefuse(t, m, s, BudgetCategoryChanged{ID: "casino", Value: 10})
	})

	t.Run("wrong step", func(t *testing.T) {
		mustRefuse(t, m, m.Start(), BudgetDraftChanged{Total: 1000})
	})
}

func sumValues(categories []models.BudgetCategory) float64 {
	var sum float64
	for _, c := range categories {
		sum += c.Value
	}
	return sum
}

func TestPreferencesAccumulator(t *testing.T) {
	m := NewMachine(DefaultConfig())
	s := walkTo(t, m, models.StepPreferences)

	mustRefuse(t, m, s, SelectionConfirmed{Step: models.StepPreferences})

	s = mustAccept(t, m, s, SelectionToggled{Step: models.StepPreferences, ID: "food"}).State
	s = mustAccept(t, m, s, SelectionToggled{Step: models.StepPreferences, ID: "art"}).State
	s = mustAccept(t, m, s, SelectionToggled{Step: models.StepPreferences, ID: "food"}).State
	assert.Equal(t, []string{"art"}, s.Interests)

	mustRefuse(t, m, s, SelectionToggled{Step: models.StepPreferences})
	mustRefuse(t, m, s, SelectionToggled{Step: models.StepActivities, ID: "x"})

	r := mustAccept(t, m, s, SelectionConfirmed{Step: models.StepPreferences})
	assert.Equal(t, []string{"art"}, r.State.Itinerary.Preferences.Interests)
}

func TestActivitiesLimit(t *testing.T) {
	m := NewMachine(Config{MaxActivitySelections: 2})
	s := walkTo(t, m, models.StepActivities)

	add := func(s State, id string) Result {
		return m.Reduce(s, SelectionToggled{Step: models.StepActivities, ID: id, Activity: &models.ActivitySummary{Name: id}})
	}
	s = add(s, "a").State
	s = add(s, "b").State
	r := add(s, "c")
	assert.False(t, r.Accepted)
	assert.Len(t, s.Activities, 2)

	mustRefuse(t, m, s, SelectionToggled{Step: models.StepActivities, ID: "d"})

	s = add(s, "a").State
	assert.Len(t, s.Activities, 1)
	assert.Equal(t, "b", s.Activities[0].ID)

	done := mustAccept(t, m, s, SelectionConfirmed{Step: models.StepActivities})
	assert.Equal(t, models.StepReview, done.State.Step)
	assert.Equal(t, "b", done.State.Itinerary.SelectedActivities[0].ID)
}

func TestReview(t *testing.T) {
	m := NewMachine(DefaultConfig())
	s := walkTo(t, m, models.StepReview)
	require.True(t, s.Itinerary.Complete())

	t.Run("edit keeps facts and review is reachable again", func(t *testing.T) {
		edit := mustAccept(t, m, s, Navigated{To: models.StepDates}).State
		assert.Equal(t, models.StepDates, edit.Step)
		assert.Equal(t, s.Itinerary, edit.Itinerary)

		back := mustAccept(t, m, edit, Navigated{To: models.StepReview}).State
		assert.Equal(t, models.StepReview, back.Step)
	})

	t.Run("confirm books the trip", func(t *testing.T) {
		r := mustAccept(t, m, s, TripConfirmed{})
		assert.Equal(t, BookingPending, r.State.Booking.Status)
		require.Len(t, r.Effects, 1)
		book := r.Effects[0].(BookTripEffect)
		assert.Equal(t, s.Itinerary, book.Itinerary)

		mustRefuse(t, m, r.State, TripConfirmed{})
		mustRefuse(t, m, r.State, Navigated{To: models.StepDates})

		done := mustAccept(t, m, r.State, BookingCompleted{Reference: "ref-1"})
		assert.Equal(t, BookingConfirmed, done.State.Booking.Status)
		assert.Equal(t, "ref-1", done.State.Booking.Reference)
		mustRefuse(t, m, done.State, BookingCompleted{Reference: "ref-2"})
	})

	t.Run("failed booking can be confirmed again", func(t *testing.T) {
		pending := mustAccept(t, m, s, TripConfirmed{}).State
		failed := mustAccept(t, m, pending, BookingCompleted{Err: "card declined"}).State
		assert.Equal(t, BookingFailed, failed.Booking.Status)
		assert.NotEmpty(t, failed.Notice)
		mustAccept(t, m, failed, TripConfirmed{})
	})

	t.Run("confirm needs review step", func(t *testing.T) {
		mustRefuse(t, m, walkTo(t, m, models.StepHotels), TripConfirmed{})
	})
}

func TestNavigationForwardNeedsEarlierFacts(t *testing.T) {
	m := NewMachine(DefaultConfig())
	s := walkTo(t, m, models.StepTravelers)

	mustRefuse(t, m, s, Navigated{To: models.StepBudget})
	mustRefuse(t, m, s, Navigated{To: "nowhere"})

	back := mustAccept(t, m, s, Navigated{To: models.StepDestination}).State
	assert.Equal(t, models.PhaseDestination, back.Phase)
	fwd := mustAccept(t, m, back, Navigated{To: models.StepTravelers}).State
	assert.Equal(t, models.StepTravelers, fwd.Step)
}

func TestDailyPlanAttached(t *testing.T) {
	m := NewMachine(DefaultConfig())
	s := walkTo(t, m, models.StepReview)

	r := mustAccept(t, m, s, DailyPlanAttached{Plan: []models.DayPlan{{Day: 1, Items: []models.PlanItem{{Time: "09:00", Title: "Louvre"}}}}})
	assert.Len(t, r.State.Itinerary.DailyPlan, 1)

	mustRefuse(t, m, s, DailyPlanAttached{})
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	m := NewMachine(DefaultConfig())
	s := walkTo(t, m, models.StepPreferences)
	s = mustAccept(t, m, s, SelectionToggled{Step: models.StepPreferences, ID: "food"}).State
	snapshot, err := json.Marshal(s)
	require.NoError(t, err)

	m.Reduce(s, SelectionToggled{Step: models.StepPreferences, ID: "art"})
	m.Reduce(s, SelectionConfirmed{Step: models.StepPreferences})
	m.Reduce(s, Navigated{To: models.StepBudget})

	after, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, string(snapshot), string(after))
}

func TestStateSurvivesJSON(t *testing.T) {
	m := NewMachine(DefaultConfig())
	s := walkTo(t, m, models.StepFlights)

	raw, err := json.Marshal(s)
	require.NoError(t, err)
	var restored State
	require.NoError(t, json.Unmarshal(raw, &restored))

	r := mustAccept(t, m, restored, FlightSearchCompleted{Token: s.FlightSearch.Token})
	assert.Equal(t, SearchReady, r.State.FlightSearch.Status)
}

func TestUnsupportedEvent(t *testing.T) {
	m := NewMachine(DefaultConfig())
	mustRefuse(t, m, m.Start(), &TripConfirmed{})
}
