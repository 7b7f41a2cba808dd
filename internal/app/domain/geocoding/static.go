package geocoding

import (
	"context"
	"fmt"
	"math"

	"github.com/FACorreiaa/voyagr-planner/internal/app/models"
)

// Landmark is a known city centre used by StaticGeocoder.
type Landmark struct {
	City    string
	Country string
	Lat     float64
	Lng     float64
}

// StaticGeocoder resolves coordinates to the nearest known city within
// MaxDistanceKm. It serves local runs without an OpenRouteService key.
type StaticGeocoder struct {
	Landmarks     []Landmark
	MaxDistanceKm float64
}

var _ ReverseGeocoder = (*StaticGeocoder)(nil)

func NewStaticGeocoder() *StaticGeocoder {
	return &StaticGeocoder{
		MaxDistanceKm: 75,
		Landmarks: []Landmark{
			{"Lisbon", "Portugal", 38.7223, -9.1393},
			{"Porto", "Portugal", 41.1579, -8.6291},
			{"Paris", "France", 48.8566, 2.3522},
			{"London", "United Kingdom", 51.5074, -0.1278},
			{"Madrid", "Spain", 40.4168, -3.7038},
			{"Rome", "Italy", 41.9028, 12.4964},
			{"Berlin", "Germany", 52.52, 13.405},
			{"New York", "United States", 40.7128, -74.006},
			{"Boston", "United States", 42.3601, -71.0589},
			{"Chicago", "United States", 41.8781, -87.6298},
			{"San Francisco", "United States", 37.7749, -122.4194},
			{"Tokyo", "Japan", 35.6762, 139.6503},
		},
	}
}

func (g *StaticGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (*models.Place, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !models.ValidateCoordinates(lat, lng) {
		return nil, fmt.Errorf("coordinates %f,%f: %w", lat, lng, models.ErrValidation)
	}

	best, bestKm := -1, math.MaxFloat64
	for i, lm := range g.Landmarks {
		if km := haversineKm(lat, lng, lm.Lat, lm.Lng); km < bestKm {
			best, bestKm = i, km
		}
	}
	if best < 0 || bestKm > g.MaxDistanceKm {
		return nil, fmt.Errorf("no known city near %f,%f: %w", lat, lng, models.ErrNotFound)
	}
	lm := g.Landmarks[best]
	return withCoordinates(models.Place{City: lm.City, Country: lm.Country}, lat, lng), nil
}

func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKm = 6371.0
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
