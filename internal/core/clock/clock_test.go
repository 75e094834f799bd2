package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemSleepReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewSystem()
	start := time.Now()
	err := c.Sleep(ctx, 5*time.Second)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSystemSleepZeroDuration(t *testing.T) {
	c := NewSystem()
	assert.NoError(t, c.Sleep(context.Background(), 0))
	assert.NoError(t, c.Sleep(context.Background(), -time.Second))
}

func TestManualSleepAdvancesAndRecords(t *testing.T) {
	start := time.Date(2025, 7, 9, 12, 0, 0, 0, time.UTC)
	m := NewManual(start)

	require.NoError(t, m.Sleep(context.Background(), 500*time.Millisecond))
	require.NoError(t, m.Sleep(context.Background(), 2*time.Second))

	assert.Equal(t, start.Add(2500*time.Millisecond), m.Now())
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 2 * time.Second}, m.Sleeps())
	assert.Equal(t, 2500*time.Millisecond, m.TotalSlept())
}

func TestManualSleepHonorsCancel(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Sleep(ctx, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, m.Sleeps())
}

func TestManualAdvanceDoesNotRecord(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	m.Advance(3 * time.Second)

	assert.Equal(t, time.Unix(3, 0), m.Now())
	assert.Empty(t, m.Sleeps())
}
