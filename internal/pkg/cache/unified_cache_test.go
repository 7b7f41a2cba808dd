package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/voyagr-planner/internal/app/models"
)

func TestUnifiedCache_SetGet(t *testing.T) {
	c := NewUnifiedCache[string](time.Minute, "test", nil)
	defer c.Close()

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", "v")
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)

	c.Delete("k")
	_, ok = c.Get("k")
	assert.False(t, ok)

	assert.Equal(t, CacheMetrics{Hits: 1, Misses: 2, Sets: 1}, c.GetMetrics())
}

func TestUnifiedCache_Expiry(t *testing.T) {
	c := NewUnifiedCache[int](20*time.Millisecond, "expiry", nil)
	defer c.Close()

	c.Set("k", 1)
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)

	assert.Eventually(t, func() bool { return c.Size() == 0 }, time.Second, 10*time.Millisecond)
}

func TestUnifiedCache_Concurrent(t *testing.T) {
	c := NewUnifiedCache[int](time.Minute, "concurrent", nil)
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Set("k", i)
			c.Get("k")
		}(i)
	}
	wg.Wait()

	m := c.GetMetrics()
	assert.Equal(t, int64(50), m.Sets)
	assert.Equal(t, int64(50), m.Hits+m.Misses)
}

func TestKeyBuilder(t *testing.T) {
	a, err := NewKeyBuilder().Add("origin", "BOS").Add("adults", 2).Build()
	require.NoError(t, err)
	b, err := NewKeyBuilder().Add("origin", "BOS").Add("adults", 2).Build()
	require.NoError(t, err)
	c, err := NewKeyBuilder().Add("adults", 2).Add("origin", "BOS").Build()
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)

	_, err = NewKeyBuilder().Add("bad", make(chan int)).Build()
	assert.Error(t, err)
}

func TestCacheManager(t *testing.T) {
	cm := NewCacheManager(DefaultTTLs(), nil)
	defer cm.Close()

	cm.Flights.Set("k", []models.FlightOption{{ID: "1"}})
	cm.Geocodes.Set("g", models.Place{City: "Lisbon"})

	all := cm.GetAllMetrics()
	assert.Equal(t, int64(1), all["flights"].Sets)
	assert.Equal(t, int64(1), all["geocodes"].Sets)

	cm.ClearAll()
	assert.Zero(t, cm.Flights.Size())
	assert.Zero(t, cm.Geocodes.Size())
}
