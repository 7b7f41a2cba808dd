package flightquery

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/voyagr-planner/internal/app/domain/airports"
	"github.com/FACorreiaa/voyagr-planner/internal/app/models"
)

var fixedToday = time.Date(2025, time.January, 10, 15, 30, 0, 0, time.UTC)

func newTestExtractor() *Extractor {
	return NewExtractor(airports.Default(), ExtractorConfig{
		Currency: "USD",
		Now:      func() time.Time { return fixedToday },
	}, nil)
}

func TestExtract_RoundTripBusinessInMarch(t *testing.T) {
	e := newTestExtractor()

	params := e.Extract("Round-trip to Paris from New York business class in March", "")

	assert.Equal(t, "CDG", params.Destination)
	assert.Equal(t, "JFK", params.Origin)
	assert.Equal(t, models.CabinBusiness, params.CabinClass)
	assert.Equal(t, models.TripRoundTrip, params.TripType)
	assert.Equal(t, "2025-03-01", params.DepartureDate)
	assert.Equal(t, "2025-03-15", params.ReturnDate)
	assert.True(t, params.RoundTrip())
	assert.Equal(t, models.SourceText, params.Sources.Destination)
	assert.Equal(t, models.SourceDefault, params.Sources.Origin, "capture runs into 'business class' and misses the table")
	assert.Equal(t, models.SourceText, params.Sources.Dates)
}

func TestExtract_OneWayToTokyo(t *testing.T) {
	e := newTestExtractor()

	params := e.Extract("one-way to Tokyo", "")

	assert.Equal(t, "NRT", params.Destination)
	assert.Equal(t, "JFK", params.Origin)
	assert.Empty(t, params.ReturnDate)
	assert.False(t, params.RoundTrip())
	assert.Equal(t, models.TripOneWay, params.TripType)
	assert.Equal(t, models.CabinEconomy, params.CabinClass)
	assert.Equal(t, models.SourceDefault, params.Sources.CabinClass)
	assert.Equal(t, "2025-01-10", params.DepartureDate)
}

func TestExtract_AllDefaults(t *testing.T) {
	e := newTestExtractor()

	params := e.Extract("hello there", "")

	assert.Equal(t, models.FlightSearchParams{
		Origin:        "JFK",
		Destination:   "LHR",
		DepartureDate: "2025-01-10",
		ReturnDate:    "2025-02-10",
		Adults:        1,
		CabinClass:    models.CabinEconomy,
		CurrencyCode:  "USD",
		TripType:      models.TripRoundTrip,
		Sources: models.ParamSources{
			Origin:      models.SourceDefault,
			Destination: models.SourceDefault,
			Dates:       models.SourceDefault,
			Adults:      models.SourceDefault,
			CabinClass:  models.SourceDefault,
			TripType:    models.SourceDefault,
		},
	}, params)
}

func TestExtract_Cities(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		name        string
		text        string
		context     string
		origin      string
		destination string
		destSource  models.ParamSource
	}{
		{"from then to", "flights from Boston to Lisbon", "", "BOS", "LIS", models.SourceText},
		{"to then from", "to Rome from Chicago in May", "", "ORD", "FCO", models.SourceText},
		{"trailing punctuation", "Fly to Rome, please", "", "JFK", "FCO", models.SourceText},
		{"multi word city", "tickets to hong kong for 2 people", "", "JFK", "HKG", models.SourceText},
		{"second to wins when first misses", "I want to go to Madrid", "", "JFK", "MAD", models.SourceText},
		{"later occurrence after a miss", "I want to go to Paris", "", "JFK", "CDG", models.SourceText},
		{"every capture misses", "I want to go to Atlantis", "", "JFK", "LHR", models.SourceDefault},
		{"day range after city", "to Paris Dec 13-24 in March", "", "JFK", "CDG", models.SourceText},
		{"full month range after city", "from Boston September 3-9 to Rome", "", "BOS", "FCO", models.SourceText},
		{"accented city", "ticket to São Paulo", "", "JFK", "GRU", models.SourceText},
		{"accented origin", "from Zürich to Lisbon", "", "ZRH", "LIS", models.SourceText},
		{"unknown city", "flight to Atlantis", "", "JFK", "LHR", models.SourceDefault},
		{"context overrides text", "flight to Paris", "destination: Tokyo", "JFK", "NRT", models.SourceContext},
		{"context without text match", "book me a flight", "destination: Dubai, travelers: 2", "JFK", "DXB", models.SourceContext},
		{"unknown context keeps text", "flight to Paris", "destination: Atlantis", "JFK", "CDG", models.SourceText},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			params := e.Extract(tc.text, tc.context)
			assert.Equal(t, tc.origin, params.Origin)
			assert.Equal(t, tc.destination, params.Destination)
			assert.Equal(t, tc.destSource, params.Sources.Destination)
		})
	}
}

func TestExtract_CabinPriority(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		text string
		want models.CabinClass
	}{
		{"business or first, whichever", models.CabinBusiness},
		{"First class to Dubai", models.CabinFirst},
		{"premium economy please", models.CabinPremiumEconomy},
		{"cheapest economy seat", models.CabinEconomy},
		{"anything", models.CabinEconomy},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			assert.Equal(t, tc.want, e.Extract(tc.text, "").CabinClass)
		})
	}
}

func TestExtract_Dates(t *testing.T) {
	tests := []struct {
		name      string
		today     time.Time
		text      string
		departure string
		ret       string
	}{
		{"month later this year", fixedToday, "trip in june", "2025-06-01", "2025-06-15"},
		{"month already passed rolls over", time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC), "in March", "2026-03-01", "2026-03-15"},
		{"first of current month is not past", time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), "in March", "2025-03-01", "2025-03-15"},
		{"day range", fixedToday, "to Tokyo Dec 13-24", "2025-12-13", "2025-12-24"},
		{"day range beats month name", fixedToday, "in December, exactly Dec 13-24", "2025-12-13", "2025-12-24"},
		{"day range in past rolls both", time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC), "Dec 13-24", "2026-12-13", "2026-12-24"},
		{"day range crossing month end", fixedToday, "Aug 28 - 3", "2025-08-28", "2025-09-03"},
		{"short word is not a month", fixedToday, "ma 3-4", "2025-01-10", "2025-02-10"},
		{"invalid day ignored", fixedToday, "Dec 0-40", "2025-01-10", "2025-02-10"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestExtractor()
			params := e.ExtractAt(tc.text, "", tc.today)
			assert.Equal(t, tc.departure, params.DepartureDate)
			assert.Equal(t, tc.ret, params.ReturnDate)
		})
	}
}

func TestExtract_DayRangeAfterCityKeepsBoth(t *testing.T) {
	e := newTestExtractor()

	params := e.Extract("to Paris Dec 13-24 in March", "")

	assert.Equal(t, "CDG", params.Destination)
	assert.Equal(t, "2025-12-13", params.DepartureDate)
	assert.Equal(t, "2025-12-24", params.ReturnDate)
}

func TestExtract_DatesContextIsNotParsed(t *testing.T) {
	e := newTestExtractor()

	params := e.Extract("flight to Paris", "dates: 2025-04-01 to 2025-04-10")

	assert.Equal(t, "2025-01-10", params.DepartureDate)
	assert.Equal(t, models.SourceDefault, params.Sources.Dates)
}

func TestExtract_Travelers(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		name    string
		text    string
		context string
		want    int
		source  models.ParamSource
	}{
		{"text adults", "flights for 3 adults to Rome", "", 3, models.SourceText},
		{"text beats context", "2 people to Paris", "travelers: 4", 2, models.SourceText},
		{"context singular", "to Paris", "traveler: 5", 5, models.SourceContext},
		{"zero ignored", "0 passengers", "", 1, models.SourceDefault},
		{"overflow ignored", "99999999999999999999999 people", "", 1, models.SourceDefault},
		{"nothing", "to Paris", "", 1, models.SourceDefault},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			params := e.Extract(tc.text, tc.context)
			assert.Equal(t, tc.want, params.Adults)
			assert.Equal(t, tc.source, params.Sources.Adults)
		})
	}
}

func TestExtract_RoundTripInvariant(t *testing.T) {
	e := newTestExtractor()

	inputs := []string{
		"one-way to Tokyo",
		"ONE-WAY to Paris",
		"oneway please",
		"OneWay business",
		"round trip to Rome",
		"one way to Rome",
		"",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			lower := strings.ToLower(in)
			oneWay := strings.Contains(lower, "one-way") || strings.Contains(lower, "oneway")
			params := e.Extract(in, "")
			assert.Equal(t, !oneWay, params.ReturnDate != "")
		})
	}
}

func TestExtract_TotalAndDeterministic(t *testing.T) {
	e := newTestExtractor()

	inputs := []string{
		"",
		"to",
		"from from to to",
		"to  ",
		"Dec 99-100",
		"🛫 to 東京 🛬",
		"to Paris from",
		"from London to Paris for 2 adults Dec 1-5 first class one-way",
		strings.Repeat("to rome ", 200),
	}
	for _, in := range inputs {
		first := e.Extract(in, "destination:")
		second := e.Extract(in, "destination:")
		assert.Equal(t, first, second)

		assert.Len(t, first.Origin, 3)
		assert.Len(t, first.Destination, 3)
		assert.GreaterOrEqual(t, first.Adults, 1)
		assert.NotEmpty(t, first.CabinClass)
		assert.NotEmpty(t, first.CurrencyCode)
		_, err := time.Parse(models.ISODateLayout, first.DepartureDate)
		require.NoError(t, err)
		if first.RoundTrip() {
			_, err = time.Parse(models.ISODateLayout, first.ReturnDate)
			require.NoError(t, err)
		}
	}
}

func TestNewExtractorDefaults(t *testing.T) {
	e := NewExtractor(nil, ExtractorConfig{}, nil)

	params := e.Extract("to Paris", "")
	assert.Equal(t, "CDG", params.Destination)
	assert.Equal(t, "USD", params.CurrencyCode)
}
