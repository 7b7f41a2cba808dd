package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/voyagr-planner/internal/app/models"
	"github.com/FACorreiaa/voyagr-planner/internal/app/observability/metrics"
)

// DB is the subset of pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ Booker = (*Repository)(nil)

// Repository stores confirmations in the bookings table.
type Repository struct {
	db     DB
	psql   sq.StatementBuilderType
	now    func() time.Time
	logger *zap.Logger
}

func NewRepository(db DB, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{
		db:     db,
		psql:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		now:    time.Now,
		logger: logger,
	}
}

func (r *Repository) Book(ctx context.Context, sessionID uuid.UUID, itinerary models.TripItinerary) (*models.BookingConfirmation, error) {
	ctx, span := otel.Tracer("BookingRepository").Start(ctx, "Book", trace.WithAttributes(
		attribute.String("session.id", sessionID.String()),
	))
	defer span.End()

	if !itinerary.Complete() {
		return nil, fmt.Errorf("itinerary is incomplete: %w", models.ErrValidation)
	}

	conf := models.BookingConfirmation{
		Reference:   uuid.New(),
		SessionID:   sessionID,
		ConfirmedAt: r.now().UTC().Truncate(time.Microsecond),
		Itinerary:   itinerary.Clone(),
	}
	raw, err := json.Marshal(conf.Itinerary)
	if err != nil {
		return nil, fmt.Errorf("encode itinerary: %w", err)
	}

	query, args, err := r.psql.
		Insert("bookings").
		Columns("reference", "session_id", "itinerary", "confirmed_at").
		Values(conf.Reference, conf.SessionID, raw, conf.ConfirmedAt).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}

	start := time.Now()
	_, err = r.db.Exec(ctx, query, args...)
	r.observe(ctx, "insert_booking", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert booking failed")
		r.logger.Error("Failed to insert booking", zap.Error(err), zap.String("session_id", sessionID.String()))
		return nil, fmt.Errorf("failed to insert booking: %w", err)
	}

	span.SetAttributes(attribute.String("booking.reference", conf.Reference.String()))
	return &conf, nil
}

func (r *Repository) Get(ctx context.Context, reference uuid.UUID) (*models.BookingConfirmation, error) {
	ctx, span := otel.Tracer("BookingRepository").Start(ctx, "Get", trace.WithAttributes(
		attribute.String("booking.reference", reference.String()),
	))
	defer span.End()

	query, args, err := r.psql.
		Select("reference", "session_id", "itinerary", "confirmed_at").
		From("bookings").
		Where(sq.Eq{"reference": reference}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var (
		conf models.BookingConfirmation
		raw  []byte
	)
	start := time.Now()
	err = r.db.QueryRow(ctx, query, args...).Scan(&conf.Reference, &conf.SessionID, &raw, &conf.ConfirmedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		r.observe(ctx, "get_booking", start, nil)
		return nil, fmt.Errorf("booking %s: %w", reference, models.ErrNotFound)
	}
	r.observe(ctx, "get_booking", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select booking failed")
		r.logger.Error("Failed to get booking", zap.Error(err))
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if err := json.Unmarshal(raw, &conf.Itinerary); err != nil {
		return nil, fmt.Errorf("decode itinerary: %w", err)
	}
	return &conf, nil
}

func (r *Repository) observe(ctx context.Context, op string, start time.Time, err error) {
	m := metrics.Get()
	attrs := metric.WithAttributes(attribute.String("operation", op))
	m.DBQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		m.DBQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}
