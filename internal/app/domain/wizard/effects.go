package wizard

import (
	"github.com/FACorreiaa/voyagr-planner/internal/app/models"
)

// Effect is work the reducer asks its host to perform. The host reports the
// outcome back as an event.
type Effect interface {
	EffectKind() string
}

// SearchFlightsEffect asks for a flight search. The result must come back
// as FlightSearchCompleted carrying the same Token.
type SearchFlightsEffect struct {
	Token  int64                     `json:"token"`
	Params models.FlightSearchParams `json:"params"`
}

// ReverseGeocodeEffect asks for the city at a coordinate. The result comes
// back as ReverseGeocodeCompleted.
type ReverseGeocodeEffect struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// BookTripEffect hands a complete itinerary to the booking collaborator.
// The result comes back as BookingCompleted.
type BookTripEffect struct {
	Itinerary models.TripItinerary `json:"itinerary"`
}

func (SearchFlightsEffect) EffectKind() string  { return "search_flights" }
func (ReverseGeocodeEffect) EffectKind() string { return "reverse_geocode" }
func (BookTripEffect) EffectKind() string       { return "book_trip" }
