package cache

import (
	"time"

	"go.uber.org/zap"

	"github.com/FACorreiaa/voyagr-planner/internal/app/models"
)

// CacheManager holds the adapter caches.
type CacheManager struct {
	// Flights holds provider results keyed by search parameters.
	Flights *UnifiedCache[[]models.FlightOption]
	// Geocodes holds reverse geocoding results keyed by rounded coordinates.
	Geocodes *UnifiedCache[models.Place]
}

type TTLs struct {
	Flights  time.Duration
	Geocodes time.Duration
}

func DefaultTTLs() TTLs {
	return TTLs{
		Flights:  5 * time.Minute,
		Geocodes: 24 * time.Hour,
	}
}

func NewCacheManager(ttls TTLs, logger *zap.Logger) *CacheManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheManager{
		Flights:  NewUnifiedCache[[]models.FlightOption](ttls.Flights, "flights", logger),
		Geocodes: NewUnifiedCache[models.Place](ttls.Geocodes, "geocodes", logger),
	}
}

func (cm *CacheManager) GetAllMetrics() map[string]CacheMetrics {
	return map[string]CacheMetrics{
		"flights":  cm.Flights.GetMetrics(),
		"geocodes": cm.Geocodes.GetMetrics(),
	}
}

func (cm *CacheManager) ClearAll() {
	cm.Flights.Clear()
	cm.Geocodes.Clear()
}

// Close stops every janitor goroutine.
func (cm *CacheManager) Close() {
	cm.Flights.Close()
	cm.Geocodes.Close()
}
