package models

import (
	"maps"
	"math"
	"slices"
	"time"
)

// DateRange is the travel window of a trip.
type DateRange struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// Valid reports whether the range ends strictly after it starts.
func (d *DateRange) Valid() bool {
	return d != nil && d.EndDate.After(d.StartDate)
}

// Nights returns the number of nights between start and end.
func (d *DateRange) Nights() int {
	if !d.Valid() {
		return 0
	}
	return int(d.EndDate.Sub(d.StartDate).Hours() / 24)
}

// Budget is the confirmed spending plan. Breakdown values are percentages.
type Budget struct {
	Total     float64            `json:"total"`
	Currency  string             `json:"currency"`
	Breakdown map[string]float64 `json:"breakdown"`
}

// BreakdownTolerance is the allowed drift of a breakdown sum from 100.
const BreakdownTolerance = 1e-6

// Valid reports whether the total is positive and the breakdown sums to 100.
func (b *Budget) Valid() bool {
	if b == nil || b.Total <= 0 || b.Currency == "" || len(b.Breakdown) == 0 {
		return false
	}
	var sum float64
	for _, v := range b.Breakdown {
		if v < 0 {
			return false
		}
		sum += v
	}
	return math.Abs(sum-100) <= BreakdownTolerance
}

type Preferences struct {
	Interests []string `json:"interests"`
}

// FlightSummary is the flight option the traveler picked.
type FlightSummary struct {
	ID            string     `json:"id"`
	Airline       string     `json:"airline"`
	DepartureTime string     `json:"departureTime"`
	ArrivalTime   string     `json:"arrivalTime"`
	Duration      string     `json:"duration,omitempty"`
	Stops         int        `json:"stops"`
	CabinClass    CabinClass `json:"cabinClass"`
	Price         float64    `json:"price"`
	Currency      string     `json:"currency"`
}

// HotelSummary is the hotel option the traveler picked.
type HotelSummary struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Location string  `json:"location,omitempty"`
	Rating   float64 `json:"rating,omitempty"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

type ActivitySummary struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category,omitempty"`
	Duration string  `json:"duration,omitempty"`
	Price    float64 `json:"price"`
}

type PlanItem struct {
	Time     string `json:"time"`
	Title    string `json:"title"`
	Location string `json:"location,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// DayPlan is produced by an external planner and only carried by the wizard.
type DayPlan struct {
	Day   int        `json:"day"`
	Date  time.Time  `json:"date"`
	Items []PlanItem `json:"items"`
}

// TripItinerary is the trip accumulated by a planning conversation. It stays
// partial until the review step.
type TripItinerary struct {
	Origin             *Place            `json:"origin,omitempty"`
	Destination        *Place            `json:"destination,omitempty"`
	Dates              *DateRange        `json:"dates,omitempty"`
	Travelers          int               `json:"travelers,omitempty"`
	Budget             *Budget           `json:"budget,omitempty"`
	Preferences        *Preferences      `json:"preferences,omitempty"`
	Flight             *FlightSummary    `json:"flight,omitempty"`
	Hotel              *HotelSummary     `json:"hotel,omitempty"`
	SelectedActivities []ActivitySummary `json:"selectedActivities,omitempty"`
	DailyPlan          []DayPlan         `json:"dailyPlan,omitempty"`
}

// TripFact is a partial itinerary. Nil fields are absent.
type TripFact struct {
	Origin             *Place            `json:"origin,omitempty"`
	Destination        *Place            `json:"destination,omitempty"`
	Dates              *DateRange        `json:"dates,omitempty"`
	Travelers          *int              `json:"travelers,omitempty"`
	Budget             *Budget           `json:"budget,omitempty"`
	Preferences        *Preferences      `json:"preferences,omitempty"`
	Flight             *FlightSummary    `json:"flight,omitempty"`
	Hotel              *HotelSummary     `json:"hotel,omitempty"`
	SelectedActivities []ActivitySummary `json:"selectedActivities,omitempty"`
	DailyPlan          []DayPlan         `json:"dailyPlan,omitempty"`
}

// Merge returns a new itinerary with every key present in f replacing the
// corresponding key of it. Keys are replaced whole, never merged field by
// field. The receiver is left untouched.
func (it TripItinerary) Merge(f TripFact) TripItinerary {
	out := it.Clone()
	if f.Origin != nil {
		out.Origin = f.Origin.clone()
	}
	if f.Destination != nil {
		out.Destination = f.Destination.clone()
	}
	if f.Dates != nil {
		d := *f.Dates
		out.Dates = &d
	}
	if f.Travelers != nil {
		out.Travelers = *f.Travelers
	}
	if f.Budget != nil {
		out.Budget = f.Budget.clone()
	}
	if f.Preferences != nil {
		out.Preferences = &Preferences{Interests: slices.Clone(f.Preferences.Interests)}
	}
	if f.Flight != nil {
		fl := *f.Flight
		out.Flight = &fl
	}
	if f.Hotel != nil {
		h := *f.Hotel
		out.Hotel = &h
	}
	if f.SelectedActivities != nil {
		out.SelectedActivities = slices.Clone(f.SelectedActivities)
	}
	if f.DailyPlan != nil {
		out.DailyPlan = cloneDailyPlan(f.DailyPlan)
	}
	return out
}

// Clone returns a deep copy of the itinerary.
func (it TripItinerary) Clone() TripItinerary {
	out := it
	out.Origin = it.Origin.clone()
	out.Destination = it.Destination.clone()
	if it.Dates != nil {
		d := *it.Dates
		out.Dates = &d
	}
	out.Budget = it.Budget.clone()
	if it.Preferences != nil {
		out.Preferences = &Preferences{Interests: slices.Clone(it.Preferences.Interests)}
	}
	if it.Flight != nil {
		fl := *it.Flight
		out.Flight = &fl
	}
	if it.Hotel != nil {
		h := *it.Hotel
		out.Hotel = &h
	}
	out.SelectedActivities = slices.Clone(it.SelectedActivities)
	out.DailyPlan = cloneDailyPlan(it.DailyPlan)
	return out
}

// Complete reports whether every fact the review step needs is present.
func (it TripItinerary) Complete() bool {
	return it.Origin.HasCity() &&
		it.Destination.HasCity() &&
		it.Dates.Valid() &&
		it.Travelers >= 1 &&
		it.Budget.Valid() &&
		it.Preferences != nil && len(it.Preferences.Interests) > 0 &&
		it.Flight != nil &&
		it.Hotel != nil &&
		len(it.SelectedActivities) > 0
}

func (b *Budget) clone() *Budget {
	if b == nil {
		return nil
	}
	out := *b
	out.Breakdown = maps.Clone(b.Breakdown)
	return &out
}

func cloneDailyPlan(plan []DayPlan) []DayPlan {
	if plan == nil {
		return nil
	}
	out := make([]DayPlan, len(plan))
	for i, d := range plan {
		out[i] = d
		out[i].Items = slices.Clone(d.Items)
	}
	return out
}
