package flights

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/FACorreiaa/voyagr-planner/internal/app/models"
)

var _ Searcher = StaticSearcher{}

// StaticSearcher returns deterministic sample offers for a route. It backs
// local development when no provider credentials are configured.
type StaticSearcher struct{}

type sampleCarrier struct {
	code  string
	name  string
	stops int
	hours int
	base  float64
}

var sampleCarriers = []sampleCarrier{
	{"TP", "TAP Air Portugal", 0, 7, 420},
	{"AF", "Air France", 1, 10, 365},
	{"BA", "British Airways", 1, 11, 390},
	{"UA", "United Airlines", 0, 8, 510},
}

var cabinMultiplier = map[models.CabinClass]float64{
	models.CabinEconomy:        1,
	models.CabinPremiumEconomy: 1.6,
	models.CabinBusiness:       3.2,
	models.CabinFirst:          5,
}

func (StaticSearcher) Search(ctx context.Context, params models.FlightSearchParams) ([]models.FlightOption, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dep, err := time.Parse(models.ISODateLayout, params.DepartureDate)
	if err != nil {
		return nil, fmt.Errorf("departure date %q: %w", params.DepartureDate, models.ErrValidation)
	}
	var ret time.Time
	if params.RoundTrip() {
		if ret, err = time.Parse(models.ISODateLayout, params.ReturnDate); err != nil {
			return nil, fmt.Errorf("return date %q: %w", params.ReturnDate, models.ErrValidation)
		}
	}

	cabin := params.CabinClass
	if cabin == "" {
		cabin = models.CabinEconomy
	}
	mult, ok := cabinMultiplier[cabin]
	if !ok {
		mult = 1
	}
	adults := max1(params.Adults)
	spread := float64(routeHash(params.Origin, params.Destination) % 150)

	options := make([]models.FlightOption, 0, len(sampleCarriers))
	for i, c := range sampleCarriers {
		depart := dep.Add(time.Duration(7+3*i) * time.Hour)
		opt := models.FlightOption{
			ID:            fmt.Sprintf("%s-%s-%s-%d", c.code, params.Origin, params.Destination, i+1),
			Airline:       c.name,
			AirlineCode:   c.code,
			FlightNumber:  fmt.Sprintf("%s%d", c.code, 100+int(spread)+i),
			DepartureTime: depart.Format("2006-01-02T15:04:05"),
			ArrivalTime:   depart.Add(time.Duration(c.hours) * time.Hour).Format("2006-01-02T15:04:05"),
			Duration:      fmt.Sprintf("%dh", c.hours),
			Stops:         c.stops,
			CabinClass:    cabin,
			Price:         (c.base + spread) * mult * float64(adults),
			Currency:      params.CurrencyCode,
		}
		if params.RoundTrip() {
			back := ret.Add(time.Duration(9+2*i) * time.Hour)
			opt.ReturnDepartureTime = back.Format("2006-01-02T15:04:05")
			opt.ReturnArrivalTime = back.Add(time.Duration(c.hours) * time.Hour).Format("2006-01-02T15:04:05")
			opt.ReturnStops = c.stops
		}
		options = append(options, opt)
	}
	return options, nil
}

func routeHash(origin, destination string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(origin + ":" + destination))
	return h.Sum32()
}
