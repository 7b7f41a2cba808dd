package models

// Place is a city-level location used for both ends of a trip.
type Place struct {
	City    string   `json:"city"`
	Country string   `json:"country,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

// HasCity reports whether the place names a city.
func (p *Place) HasCity() bool {
	return p != nil && p.City != ""
}

// clone returns a copy that shares no pointers with p.
func (p *Place) clone() *Place {
	if p == nil {
		return nil
	}
	out := *p
	if p.Lat != nil {
		lat := *p.Lat
		out.Lat = &lat
	}
	if p.Lng != nil {
		lng := *p.Lng
		out.Lng = &lng
	}
	return &out
}

// ValidateCoordinates checks if latitude and longitude are inside their ranges.
func ValidateCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
