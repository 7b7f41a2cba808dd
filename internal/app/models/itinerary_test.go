package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestMergeReplacesPresentKeysOnly(t *testing.T) {
	travelers := 3
	base := TripItinerary{
		Origin:      &Place{City: "Lisbon", Country: "Portugal"},
		Destination: &Place{City: "Paris"},
		Travelers:   2,
	}

	out := base.Merge(TripFact{
		Destination: &Place{City: "Rome"},
		Travelers:   &travelers,
	})

	assert.Equal(t, "Lisbon", out.Origin.City)
	assert.Equal(t, "Portugal", out.Origin.Country)
	assert.Equal(t, "Rome", out.Destination.City)
	assert.Equal(t, 3, out.Travelers)
	assert.Equal(t, "Paris", base.Destination.City, "receiver untouched")
	assert.Equal(t, 2, base.Travelers)
}

func TestMergeReplacesKeysWhole(t *testing.T) {
	base := TripItinerary{
		Destination: &Place{City: "Paris", Country: "France", Lat: floatPtr(48.85)},
	}

	out := base.Merge(TripFact{Destination: &Place{City: "Nice"}})

	assert.Equal(t, "Nice", out.Destination.City)
	assert.Empty(t, out.Destination.Country)
	assert.Nil(t, out.Destination.Lat)
}

func TestMergeEmptyFactIsIdentity(t *testing.T) {
	base := TripItinerary{Travelers: 1, Preferences: &Preferences{Interests: []string{"art"}}}
	assert.Equal(t, base, base.Merge(TripFact{}))
}

func TestMergeDoesNotAliasFact(t *testing.T) {
	fact := TripFact{
		Origin:      &Place{City: "Porto", Lat: floatPtr(41.15)},
		Preferences: &Preferences{Interests: []string{"food"}},
		SelectedActivities: []ActivitySummary{
			{ID: "a1", Name: "Livraria Lello"},
		},
	}

	out := TripItinerary{}.Merge(fact)
	*fact.Origin.Lat = 0
	fact.Preferences.Interests[0] = "changed"
	fact.SelectedActivities[0].ID = "changed"

	assert.InDelta(t, 41.15, *out.Origin.Lat, 1e-9)
	assert.Equal(t, "food", out.Preferences.Interests[0])
	assert.Equal(t, "a1", out.SelectedActivities[0].ID)
}

func TestCloneIsDeep(t *testing.T) {
	it := TripItinerary{
		Budget: &Budget{Total: 1000, Currency: "EUR", Breakdown: map[string]float64{"flights": 100}},
		DailyPlan: []DayPlan{{Day: 1, Items: []PlanItem{{Time: "09:00", Title: "Museum"}}}},
	}

	cp := it.Clone()
	cp.Budget.Breakdown["flights"] = 0
	cp.DailyPlan[0].Items[0].Title = "Beach"

	assert.InDelta(t, 100, it.Budget.Breakdown["flights"], 0)
	assert.Equal(t, "Museum", it.DailyPlan[0].Items[0].Title)
}

func TestComplete(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	full := TripItinerary{
		Origin:             &Place{City: "Lisbon"},
		Destination:        &Place{City: "Paris"},
		Dates:              &DateRange{StartDate: start, EndDate: start.AddDate(0, 0, 9)},
		Travelers:          2,
		Budget:             &Budget{Total: 3000, Currency: "EUR", Breakdown: map[string]float64{"flights": 60, "hotels": 40}},
		Preferences:        &Preferences{Interests: []string{"art"}},
		Flight:             &FlightSummary{ID: "f1"},
		Hotel:              &HotelSummary{ID: "h1"},
		SelectedActivities: []ActivitySummary{{ID: "louvre"}},
	}
	require.True(t, full.Complete())
	assert.Equal(t, 9, full.Dates.Nights())

	missing := map[string]func(*TripItinerary){
		"origin":     func(it *TripItinerary) { it.Origin = nil },
		"dates":      func(it *TripItinerary) { it.Dates.EndDate = it.Dates.StartDate },
		"travelers":  func(it *TripItinerary) { it.Travelers = 0 },
		"budget":     func(it *TripItinerary) { it.Budget.Breakdown["hotels"] = 30 },
		"interests":  func(it *TripItinerary) { it.Preferences.Interests = nil },
		"flight":     func(it *TripItinerary) { it.Flight = nil },
		"activities": func(it *TripItinerary) { it.SelectedActivities = nil },
	}
	for name, mutate := range missing {
		t.Run(name, func(t *testing.T) {
			it := full.Clone()
			mutate(&it)
			assert.False(t, it.Complete())
		})
	}
}

func TestBudgetValid(t *testing.T) {
	tests := []struct {
		name   string
		budget *Budget
		want   bool
	}{
		{"nil", nil, false},
		{"ok", &Budget{Total: 10, Currency: "USD", Breakdown: map[string]float64{"a": 33.3333333, "b": 66.6666667}}, true},
		{"zero total", &Budget{Total: 0, Currency: "USD", Breakdown: map[string]float64{"a": 100}}, false},
		{"no currency", &Budget{Total: 10, Breakdown: map[string]float64{"a": 100}}, false},
		{"negative share", &Budget{Total: 10, Currency: "USD", Breakdown: map[string]float64{"a": 110, "b": -10}}, false},
		{"sum off", &Budget{Total: 10, Currency: "USD", Breakdown: map[string]float64{"a": 99}}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.budget.Valid())
		})
	}
}

func TestWizardStepNavigation(t *testing.T) {
	next, ok := StepDestination.Next()
	assert.True(t, ok)
	assert.Equal(t, StepDates, next)

	_, ok = StepReview.Next()
	assert.False(t, ok)
	_, ok = StepDestination.Prev()
	assert.False(t, ok)

	prev, ok := StepReview.Prev()
	assert.True(t, ok)
	assert.Equal(t, StepActivities, prev)

	_, err := ParseWizardStep("checkout")
	assert.ErrorIs(t, err, ErrBadRequest)
	step, err := ParseWizardStep("hotels")
	require.NoError(t, err)
	assert.Equal(t, 6, step.Index())
}

func TestValidateCoordinates(t *testing.T) {
	assert.True(t, ValidateCoordinates(38.72, -9.14))
	assert.True(t, ValidateCoordinates(-90, 180))
	assert.False(t, ValidateCoordinates(90.01, 0))
	assert.False(t, ValidateCoordinates(0, -180.5))
}
