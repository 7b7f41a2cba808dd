package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/voyagr-planner/internal/app/models"
	"github.com/FACorreiaa/voyagr-planner/internal/app/observability/metrics"
)

// FlightSearcher runs a flight search for the flights step.
type FlightSearcher interface {
	Search(ctx context.Context, params models.FlightSearchParams) ([]models.FlightOption, error)
}

// ReverseGeocoder turns device coordinates into a city.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (*models.Place, error)
}

// Booker receives confirmed trips.
type Booker interface {
	Book(ctx context.Context, sessionID uuid.UUID, itinerary models.TripItinerary) (*models.BookingConfirmation, error)
}

var _ Service = (*ServiceImpl)(nil)

// Service drives planning conversations over the reducer.
type Service interface {
	StartSession(ctx context.Context) (uuid.UUID, State, error)
	State(ctx context.Context, id uuid.UUID) (State, error)
	Dispatch(ctx context.Context, id uuid.UUID, ev Event) (Result, error)
	// OnStepComplete delivers a fact for step.
	OnStepComplete(ctx context.Context, id uuid.UUID, step models.WizardStep, fact models.TripFact) (Result, error)
	// OnTripConfirm confirms the reviewed itinerary and starts the booking.
	OnTripConfirm(ctx context.Context, id uuid.UUID) (Result, error)
}

type ServiceConfig struct {
	SessionTTL    time.Duration
	EffectTimeout time.Duration
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		SessionTTL:    2 * time.Hour,
		EffectTimeout: 15 * time.Second,
	}
}

type session struct {
	mu           sync.Mutex
	id           uuid.UUID
	state        State
	cancelSearch context.CancelFunc
}

// ServiceImpl keeps sessions in memory and runs reducer effects in the
// background. Events of one session are applied one at a time; effect
// results come back through Dispatch like any other event.
type ServiceImpl struct {
	machine  *Machine
	sessions *cache.Cache
	flights  FlightSearcher
	geocoder ReverseGeocoder
	booker   Booker
	cfg      ServiceConfig
	logger   *zap.Logger

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewService(machine *Machine, flights FlightSearcher, geocoder ReverseGeocoder, booker Booker, cfg ServiceConfig, logger *zap.Logger) *ServiceImpl {
	def := DefaultServiceConfig()
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = def.SessionTTL
	}
	if cfg.EffectTimeout <= 0 {
		cfg.EffectTimeout = def.EffectTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	s := &ServiceImpl{
		machine:  machine,
		sessions: cache.New(cfg.SessionTTL, cfg.SessionTTL/2),
		flights:  flights,
		geocoder: geocoder,
		booker:   booker,
		cfg:      cfg,
		logger:   logger,
		baseCtx:  baseCtx,
		cancel:   cancel,
	}
	s.sessions.OnEvicted(func(key string, v interface{}) {
		sess, ok := v.(*session)
		if !ok {
			return
		}
		sess.mu.Lock()
		if sess.cancelSearch != nil {
			sess.cancelSearch()
			sess.cancelSearch = nil
		}
		sess.mu.Unlock()
		metrics.Get().WizardSessionsActive.Add(context.Background(), -1)
		s.logger.Debug("Planning session evicted", zap.String("sessionID", key))
	})
	return s
}

func (s *ServiceImpl) StartSession(ctx context.Context) (uuid.UUID, State, error) {
	ctx, span := otel.Tracer("WizardService").Start(ctx, "StartSession")
	defer span.End()

	id := uuid.New()
	sess := &session{id: id, state: s.machine.Start()}
	s.sessions.SetDefault(id.String(), sess)
	metrics.Get().WizardSessionsActive.Add(ctx, 1)

	span.SetAttributes(attribute.String("session.id", id.String()))
	s.logger.Info("Planning session started", zap.String("sessionID", id.String()))
	return id, sess.state.Clone(), nil
}

func (s *ServiceImpl) State(ctx context.Context, id uuid.UUID) (State, error) {
	_, span := otel.Tracer("WizardService").Start(ctx, "State", trace.WithAttributes(
		attribute.String("session.id", id.String()),
	))
	defer span.End()

	sess, err := s.session(id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session lookup failed")
		return State{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state.Clone(), nil
}

func (s *ServiceImpl) Dispatch(ctx context.Context, id uuid.UUID, ev Event) (Result, error) {
	ctx, span := otel.Tracer("WizardService").Start(ctx, "Dispatch", trace.WithAttributes(
		attribute.String("session.id", id.String()),
		attribute.String("event.kind", ev.EventKind()),
	))
	defer span.End()

	l := s.logger.With(zap.String("method", "Dispatch"),
		zap.String("sessionID", id.String()), zap.String("event", ev.EventKind()))

	sess, err := s.session(id)
	if err != nil {
		l.Warn("Event for unknown session")
		span.RecordError(err)
		span.SetStatus(codes.Error, "session lookup failed")
		return Result{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	res := s.machine.Reduce(sess.state, ev)
	metrics.Count(ctx, metrics.Get().WizardEventsTotal,
		attribute.String("kind", ev.EventKind()),
		attribute.Bool("accepted", res.Accepted),
	)
	span.SetAttributes(attribute.Bool("event.accepted", res.Accepted))
	if !res.Accepted {
		l.Debug("Event refused", zap.String("step", string(sess.state.Step)), zap.String("reason", res.Reason))
		res.State = res.State.Clone()
		return res, nil
	}

	sess.state = res.State
	s.sessions.SetDefault(id.String(), sess)

	if sess.cancelSearch != nil && res.State.FlightSearch.Status != SearchSearching {
		sess.cancelSearch()
		sess.cancelSearch = nil
	}
	for _, eff := range res.Effects {
		s.run(sess, eff)
	}

	l.Debug("Event applied", zap.String("step", string(res.State.Step)), zap.Int("effects", len(res.Effects)))
	res.State = res.State.Clone()
	return res, nil
}

func (s *ServiceImpl) OnStepComplete(ctx context.Context, id uuid.UUID, step models.WizardStep, fact models.TripFact) (Result, error) {
	return s.Dispatch(ctx, id, StepCompleted{Step: step, Fact: fact})
}

func (s *ServiceImpl) OnTripConfirm(ctx context.Context, id uuid.UUID) (Result, error) {
	return s.Dispatch(ctx, id, TripConfirmed{})
}

// Wait blocks until every running effect has reported back.
func (s *ServiceImpl) Wait() {
	s.wg.Wait()
}

// Shutdown cancels running effects and waits for them to finish or for ctx
// to expire.
func (s *ServiceImpl) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for wizard effects: %w", ctx.Err())
	}
}

func (s *ServiceImpl) session(id uuid.UUID) (*session, error) {
	v, ok := s.sessions.Get(id.String())
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, models.ErrSessionNotFound)
	}
	return v.(*session), nil
}

// run starts eff in the background. Must be called with sess.mu held.
func (s *ServiceImpl) run(sess *session, eff Effect) {
	ctx, cancel := context.WithTimeout(s.baseCtx, s.cfg.EffectTimeout)

	var job func(context.Context) Event
	switch e := eff.(type) {
	case SearchFlightsEffect:
		if sess.cancelSearch != nil {
			sess.cancelSearch()
		}
		sess.cancelSearch = cancel
		job = func(ctx context.Context) Event { return s.searchFlights(ctx, e) }
	case ReverseGeocodeEffect:
		job = func(ctx context.Context) Event { return s.reverseGeocode(ctx, e) }
	case BookTripEffect:
		id := sess.id
		job = func(ctx context.Context) Event { return s.book(ctx, id, e) }
	default:
		cancel()
		s.logger.Warn("Unhandled wizard effect", zap.String("effect", eff.EffectKind()))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		ev := job(ctx)
		if _, err := s.Dispatch(context.Background(), sess.id, ev); err != nil {
			s.logger.Warn("Effect result dropped",
				zap.String("sessionID", sess.id.String()),
				zap.String("effect", eff.EffectKind()),
				zap.Error(err))
		}
	}()
}

func (s *ServiceImpl) searchFlights(ctx context.Context, e SearchFlightsEffect) Event {
	ctx, span := otel.Tracer("WizardService").Start(ctx, "SearchFlights", trace.WithAttributes(
		attribute.String("flight.origin", e.Params.Origin),
		attribute.String("flight.destination", e.Params.Destination),
		attribute.Int64("search.token", e.Token),
	))
	defer span.End()

	if s.flights == nil {
		return FlightSearchCompleted{Token: e.Token, Err: "Flight search is not available."}
	}

	start := time.Now()
	options, err := s.flights.Search(ctx, e.Params)
	m := metrics.Get()
	m.FlightSearchDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		m.FlightSearchErrorsTotal.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "flight search failed")
		s.logger.Warn("Flight search failed", zap.Int64("token", e.Token), zap.Error(err))
		msg := "Flight search failed. Please try again."
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "Flight search timed out. Please try again."
		}
		return FlightSearchCompleted{Token: e.Token, Err: msg}
	}

	span.SetStatus(codes.Ok, "flight search completed")
	return FlightSearchCompleted{Token: e.Token, Options: options}
}

func (s *ServiceImpl) reverseGeocode(ctx context.Context, e ReverseGeocodeEffect) Event {
	ctx, span := otel.Tracer("WizardService").Start(ctx, "ReverseGeocode")
	defer span.End()

	if s.geocoder == nil {
		return ReverseGeocodeCompleted{Lat: e.Lat, Lng: e.Lng, Err: models.ErrProviderUnavailable.Error()}
	}
	place, err := s.geocoder.ReverseGeocode(ctx, e.Lat, e.Lng)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reverse geocode failed")
		s.logger.Info("Reverse geocode failed, using fallback origin", zap.Error(err))
		return ReverseGeocodeCompleted{Lat: e.Lat, Lng: e.Lng, Err: err.Error()}
	}
	return ReverseGeocodeCompleted{Lat: e.Lat, Lng: e.Lng, Place: place}
}

func (s *ServiceImpl) book(ctx context.Context, id uuid.UUID, e BookTripEffect) Event {
	ctx, span := otel.Tracer("WizardService").Start(ctx, "BookTrip", trace.WithAttributes(
		attribute.String("session.id", id.String()),
	))
	defer span.End()

	if s.booker == nil {
		return BookingCompleted{Err: models.ErrProviderUnavailable.Error()}
	}
	conf, err := s.booker.Book(ctx, id, e.Itinerary)
	if err != nil {
		metrics.Count(ctx, metrics.Get().BookingsTotal, attribute.String("status", "failed"))
		span.RecordError(err)
		span.SetStatus(codes.Error, "booking failed")
		s.logger.Error("Booking failed", zap.String("sessionID", id.String()), zap.Error(err))
		return BookingCompleted{Err: "Booking could not be completed."}
	}
	metrics.Count(ctx, metrics.Get().BookingsTotal, attribute.String("status", "confirmed"))
	s.logger.Info("Trip booked", zap.String("sessionID", id.String()), zap.String("reference", conf.Reference.String()))
	return BookingCompleted{Reference: conf.Reference.String()}
}
