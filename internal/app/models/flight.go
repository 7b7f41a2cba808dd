package models

import "time"

// CabinClass is the fare cabin requested for a flight search.
type CabinClass string

const (
	CabinEconomy        CabinClass = "ECONOMY"
	CabinPremiumEconomy CabinClass = "PREMIUM_ECONOMY"
	CabinBusiness       CabinClass = "BUSINESS"
	CabinFirst          CabinClass = "FIRST"
)

type TripType string

const (
	TripRoundTrip TripType = "ROUND_TRIP"
	TripOneWay    TripType = "ONE_WAY"
)

// ISODateLayout is the date format used in flight search parameters.
const ISODateLayout = "2006-01-02"

// ParamSource tells where an extracted value came from.
type ParamSource string

const (
	SourceText    ParamSource = "text"
	SourceContext ParamSource = "context"
	SourceDefault ParamSource = "default"
)

// ParamSources records the provenance of every extracted field so callers
// can tell explicit values from defaults.
type ParamSources struct {
	Origin      ParamSource `json:"origin"`
	Destination ParamSource `json:"destination"`
	Dates       ParamSource `json:"dates"`
	Adults      ParamSource `json:"adults"`
	CabinClass  ParamSource `json:"cabinClass"`
	TripType    ParamSource `json:"tripType"`
}

// FlightSearchParams is the structured request sent to a flight-search
// backend. ReturnDate is empty iff the trip is one-way.
type FlightSearchParams struct {
	Origin        string       `json:"origin"`
	Destination   string       `json:"destination"`
	DepartureDate string       `json:"departureDate"`
	ReturnDate    string       `json:"returnDate,omitempty"`
	Adults        int          `json:"adults"`
	CabinClass    CabinClass   `json:"cabinClass"`
	CurrencyCode  string       `json:"currencyCode"`
	TripType      TripType     `json:"tripType"`
	Sources       ParamSources `json:"sources"`
}

// RoundTrip reports whether a return date is requested.
func (p FlightSearchParams) RoundTrip() bool {
	return p.ReturnDate != ""
}

// FlightOption is one result returned by a flight-search backend.
type FlightOption struct {
	ID                  string     `json:"id"`
	Airline             string     `json:"airline"`
	AirlineCode         string     `json:"airlineCode,omitempty"`
	FlightNumber        string     `json:"flightNumber,omitempty"`
	DepartureTime       string     `json:"departureTime"`
	ArrivalTime         string     `json:"arrivalTime"`
	Duration            string     `json:"duration"`
	Stops               int        `json:"stops"`
	CabinClass          CabinClass `json:"cabinClass"`
	Price               float64    `json:"price"`
	Currency            string     `json:"currency"`
	ReturnDepartureTime string     `json:"returnDepartureTime,omitempty"`
	ReturnArrivalTime   string     `json:"returnArrivalTime,omitempty"`
	ReturnStops         int        `json:"returnStops,omitempty"`
}

// Summary converts a search result into the itinerary's flight fact.
func (o FlightOption) Summary() FlightSummary {
	return FlightSummary{
		ID:            o.ID,
		Airline:       o.Airline,
		DepartureTime: o.DepartureTime,
		ArrivalTime:   o.ArrivalTime,
		Duration:      o.Duration,
		Stops:         o.Stops,
		CabinClass:    o.CabinClass,
		Price:         o.Price,
		Currency:      o.Currency,
	}
}

// FormatISODate renders t in the flight search date layout.
func FormatISODate(t time.Time) string {
	return t.Format(ISODateLayout)
}
