package metrics

import (
	"context"
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the planner's metric instruments.
type AppMetrics struct {
	HTTPRequestsTotal       metric.Int64Counter
	HTTPRequestDuration     metric.Float64Histogram
	FlightQueriesTotal      metric.Int64Counter
	FlightSearchDuration    metric.Float64Histogram
	FlightSearchErrorsTotal metric.Int64Counter
	GeocodeRequestsTotal    metric.Int64Counter
	WizardEventsTotal       metric.Int64Counter
	WizardSessionsActive    metric.Int64UpDownCounter
	BookingsTotal           metric.Int64Counter
	CacheLookupsTotal       metric.Int64Counter
	DBQueryDurationSeconds  metric.Float64Histogram
	DBQueryErrorsTotal      metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics creates the instruments once from the global MeterProvider.
// Instruments created before the provider is installed are delegated to it
// once it is.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("voyagr-planner")
		var err error
		m := &AppMetrics{}

		m.HTTPRequestsTotal, err = meter.Int64Counter(
			"http_requests_total",
			metric.WithDescription("Total number of HTTP requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_requests_total: %v", err)
		}

		m.HTTPRequestDuration, err = meter.Float64Histogram(
			"http_request_duration_seconds",
			metric.WithDescription("Duration of HTTP requests in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_request_duration_seconds: %v", err)
		}

		m.FlightQueriesTotal, err = meter.Int64Counter(
			"flight_queries_total",
			metric.WithDescription("Utterances classified by the flight query detector"),
			metric.WithUnit("{query}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create flight_queries_total: %v", err)
		}

		m.FlightSearchDuration, err = meter.Float64Histogram(
			"flight_search_duration_seconds",
			metric.WithDescription("Duration of flight provider searches in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create flight_search_duration_seconds: %v", err)
		}

		m.FlightSearchErrorsTotal, err = meter.Int64Counter(
			"flight_search_errors_total",
			metric.WithDescription("Failed flight provider searches"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create flight_search_errors_total: %v", err)
		}

		m.GeocodeRequestsTotal, err = meter.Int64Counter(
			"geocode_requests_total",
			metric.WithDescription("Reverse geocoding lookups"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create geocode_requests_total: %v", err)
		}

		m.WizardEventsTotal, err = meter.Int64Counter(
			"wizard_events_total",
			metric.WithDescription("Events reduced by the itinerary wizard"),
			metric.WithUnit("{event}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create wizard_events_total: %v", err)
		}

		m.WizardSessionsActive, err = meter.Int64UpDownCounter(
			"wizard_sessions_active",
			metric.WithDescription("Planning sessions currently held in memory"),
			metric.WithUnit("{session}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create wizard_sessions_active: %v", err)
		}

		m.BookingsTotal, err = meter.Int64Counter(
			"bookings_total",
			metric.WithDescription("Trips handed to the booking collaborator"),
			metric.WithUnit("{booking}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create bookings_total: %v", err)
		}

		m.CacheLookupsTotal, err = meter.Int64Counter(
			"cache_lookups_total",
			metric.WithDescription("Adapter cache lookups by outcome"),
			metric.WithUnit("{lookup}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create cache_lookups_total: %v", err)
		}

		m.DBQueryDurationSeconds, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_duration_seconds: %v", err)
		}

		m.DBQueryErrorsTotal, err = meter.Int64Counter(
			"db_query_errors_total",
			metric.WithDescription("Total number of database query errors"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_errors_total: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the global instruments, creating them on first use.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}

// Count adds one to counter with the given attributes.
func Count(ctx context.Context, counter metric.Int64Counter, attrs ...attribute.KeyValue) {
	counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}
