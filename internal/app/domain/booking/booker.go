package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FACorreiaa/voyagr-planner/internal/app/models"
)

// Booker hands a completed itinerary off and returns its confirmation.
type Booker interface {
	Book(ctx context.Context, sessionID uuid.UUID, itinerary models.TripItinerary) (*models.BookingConfirmation, error)
	Get(ctx context.Context, reference uuid.UUID) (*models.BookingConfirmation, error)
}

var _ Booker = (*MemoryBooker)(nil)

// MemoryBooker keeps confirmations in process memory.
type MemoryBooker struct {
	mu       sync.RWMutex
	bookings map[uuid.UUID]models.BookingConfirmation
	now      func() time.Time
	logger   *zap.Logger
}

func NewMemoryBooker(logger *zap.Logger) *MemoryBooker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryBooker{
		bookings: make(map[uuid.UUID]models.BookingConfirmation),
		now:      time.Now,
		logger:   logger,
	}
}

func (b *MemoryBooker) Book(ctx context.Context, sessionID uuid.UUID, itinerary models.TripItinerary) (*models.BookingConfirmation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !itinerary.Complete() {
		return nil, fmt.Errorf("itinerary is incomplete: %w", models.ErrValidation)
	}

	conf := models.BookingConfirmation{
		Reference:   uuid.New(),
		SessionID:   sessionID,
		ConfirmedAt: b.now().UTC(),
		Itinerary:   itinerary.Clone(),
	}

	b.mu.Lock()
	b.bookings[conf.Reference] = conf
	b.mu.Unlock()

	b.logger.Info("Trip booked",
		zap.String("reference", conf.Reference.String()),
		zap.String("session_id", sessionID.String()))
	return &conf, nil
}

func (b *MemoryBooker) Get(_ context.Context, reference uuid.UUID) (*models.BookingConfirmation, error) {
	b.mu.RLock()
	conf, ok := b.bookings[reference]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", reference, models.ErrNotFound)
	}
	conf.Itinerary = conf.Itinerary.Clone()
	return &conf, nil
}
