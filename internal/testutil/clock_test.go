package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClock_StaysPut(t *testing.T) {
	start := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	clock := NewClock(start)

	assert.Equal(t, start, clock.Now())
	assert.Equal(t, start, clock.Now())
}

func TestClock_SetAndAdvance(t *testing.T) {
	clock := NewClock(time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2026, 10, 20, 8, 0, 0, 0, time.UTC), clock.Advance(24*time.Hour))

	earlier := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock.Set(earlier)
	assert.Equal(t, earlier, clock.Now())
}

func TestClock_ThreadSafe(t *testing.T) {
	start := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	clock := NewClock(start)
	const numGoroutines = 50

	var wg sync.WaitGroup
	for n := 0; n < numGoroutines; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock.Advance(time.Second)
			_ = clock.Now()
		}()
	}
	wg.Wait()

	assert.Equal(t, start.Add(numGoroutines*time.Second), clock.Now())
}
