package routes

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/FACorreiaa/voyagr-planner/internal/app/domain/airports"
	"github.com/FACorreiaa/voyagr-planner/internal/app/domain/booking"
	"github.com/FACorreiaa/voyagr-planner/internal/app/domain/budget"
	"github.com/FACorreiaa/voyagr-planner/internal/app/domain/flightquery"
	"github.com/FACorreiaa/voyagr-planner/internal/app/domain/flights"
	"github.com/FACorreiaa/voyagr-planner/internal/app/domain/geocoding"
	"github.com/FACorreiaa/voyagr-planner/internal/app/domain/wizard"
	"github.com/FACorreiaa/voyagr-planner/internal/pkg/cache"
	"github.com/FACorreiaa/voyagr-planner/internal/pkg/config"
	"github.com/FACorreiaa/voyagr-planner/internal/pkg/httpclient"
)

type AppHandlers struct {
	Wizard   *wizard.Handler
	Flights  *flightquery.Handler
	Budget   *budget.Handler
	Bookings *booking.Handler
}

// App is the wired planner: handlers plus the components that own
// goroutines and must be shut down.
type App struct {
	Handlers AppHandlers
	Wizard   *wizard.ServiceImpl
	Caches   *cache.CacheManager
	logger   *zap.Logger
}

// Build wires adapters, services and handlers. dbPool may be nil unless the
// postgres booking backend is selected.
func Build(cfg *config.Config, dbPool *pgxpool.Pool, logger *zap.Logger) (*App, error) {
	table := airports.Default()
	caches := cache.NewCacheManager(cache.TTLs{
		Flights:  cfg.FlightCacheTTL,
		Geocodes: cfg.GeocodeTTL,
	}, logger)

	searcher := newFlightSearcher(cfg, caches, logger)
	geocoder := newGeocoder(cfg, caches, logger)
	booker, err := newBooker(cfg, dbPool, logger)
	if err != nil {
		caches.Close()
		return nil, err
	}

	machine := wizard.NewMachine(wizard.Config{
		Airports:              table,
		BudgetMin:             cfg.Wizard.BudgetMin,
		BudgetMax:             cfg.Wizard.BudgetMax,
		MaxActivitySelections: cfg.Wizard.MaxActivitySelections,
		Currency:              cfg.Wizard.Currency,
	})
	wizardService := wizard.NewService(machine, searcher, geocoder, booker, wizard.ServiceConfig{
		SessionTTL:    cfg.Wizard.SessionTTL,
		EffectTimeout: cfg.Wizard.EffectTimeout,
	}, logger)

	extractor := flightquery.NewExtractor(table, flightquery.ExtractorConfig{Currency: cfg.Wizard.Currency}, logger)

	return &App{
		Handlers: AppHandlers{
			Wizard:   wizard.NewHandler(wizardService, logger),
			Flights:  flightquery.NewHandler(extractor, searcher, logger),
			Budget:   budget.NewHandler(logger),
			Bookings: booking.NewHandler(booker, logger),
		},
		Wizard: wizardService,
		Caches: caches,
		logger: logger,
	}, nil
}

func newFlightSearcher(cfg *config.Config, caches *cache.CacheManager, logger *zap.Logger) flights.Searcher {
	client := flights.NewClient(flights.Config{
		BaseURL:      cfg.Amadeus.BaseURL,
		ClientID:     cfg.Amadeus.ClientID,
		ClientSecret: cfg.Amadeus.ClientSecret,
		MaxResults:   cfg.Amadeus.MaxResults,
		HTTP:         httpclient.DefaultConfig(),
	}, caches.Flights, logger)
	if client.Configured() {
		logger.Info("Flight search backed by Amadeus", zap.String("base_url", cfg.Amadeus.BaseURL))
		return client
	}
	logger.Warn("AMADEUS_CLIENT_ID/SECRET not set, serving sample flight offers")
	return flights.StaticSearcher{}
}

func newGeocoder(cfg *config.Config, caches *cache.CacheManager, logger *zap.Logger) geocoding.ReverseGeocoder {
	client := geocoding.NewORSClient(geocoding.Config{
		BaseURL: cfg.ORS.BaseURL,
		APIKey:  cfg.ORS.APIKey,
		HTTP:    httpclient.DefaultConfig(),
	}, caches.Geocodes, logger)
	if client.Configured() {
		return client
	}
	logger.Warn("ORS_API_KEY not set, reverse geocoding against built-in city list")
	return geocoding.NewStaticGeocoder()
}

func newBooker(cfg *config.Config, dbPool *pgxpool.Pool, logger *zap.Logger) (booking.Booker, error) {
	switch cfg.BookingBackend {
	case config.BookingPostgres:
		if dbPool == nil {
			return nil, errors.New("postgres booking backend selected without a database pool")
		}
		return booking.NewRepository(dbPool, logger), nil
	case config.BookingMemory, "":
		return booking.NewMemoryBooker(logger), nil
	default:
		return nil, fmt.Errorf("unknown booking backend %q", cfg.BookingBackend)
	}
}

// Shutdown stops in-flight effects and cache janitors.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Wizard.Shutdown(ctx)
	a.Caches.Close()
	if err != nil {
		a.logger.Warn("Wizard effects did not drain before shutdown", zap.Error(err))
	}
	return err
}

// Setup registers every route on r.
func Setup(r *gin.Engine, app *App) {
	h := app.Handlers

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"caches": app.Caches.GetAllMetrics(),
		})
	})

	api := r.Group("/api")
	{
		flightGroup := api.Group("/flights")
		flightGroup.POST("/query", h.Flights.Query)
		flightGroup.POST("/search", h.Flights.Search)

		budgetGroup := api.Group("/budget")
		budgetGroup.POST("/allocate", h.Budget.Allocate)
		budgetGroup.POST("/amounts", h.Budget.Amounts)

		wizardGroup := api.Group("/wizard/sessions")
		wizardGroup.POST("", h.Wizard.StartSession)
		wizardGroup.GET("/:id", h.Wizard.GetSession)
		wizardGroup.POST("/:id/events", h.Wizard.DispatchEvent)
		wizardGroup.POST("/:id/steps/:step", h.Wizard.CompleteStep)
		wizardGroup.POST("/:id/confirm", h.Wizard.ConfirmTrip)

		api.GET("/bookings/:reference", h.Bookings.GetBooking)
	}
}
