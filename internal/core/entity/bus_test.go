package entity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tweetown/tweetown/internal/core/clock"
)

func TestBusBoardingFillsSeats(t *testing.T) {
	b := NewBus()
	assert.Equal(t, BusWaiting, b.State())

	alice := NewPerson(testTweet("t1", "alice"), 0)
	bob := NewPerson(testTweet("t2", "bob"), 1)

	require.NoError(t, b.AddPassenger(alice))
	assert.Equal(t, BusLoading, b.State(), "first passenger starts loading")

	require.NoError(t, b.AddPassenger(bob))
	view := b.View()
	assert.Equal(t, 2, view.PassengerCount)
	require.Len(t, view.Seats, 2)
	assert.Equal(t, "alice", view.Seats[0].Username)
	assert.Equal(t, "bob", view.Seats[1].Username)
}

func TestBusStartLoading(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(time.Unix(0, 0))
	b := NewBus()

	require.NoError(t, b.StartLoading())
	assert.Equal(t, BusLoading, b.State())
	require.NoError(t, b.StartLoading(), "opening open doors is a no-op")

	require.NoError(t, b.Depart(ctx, clk, ""))
	assert.ErrorIs(t, b.StartLoading(), ErrBadTransition)

	require.NoError(t, b.Arrive(ctx, clk))
	assert.ErrorIs(t, b.StartLoading(), ErrBadTransition)
}

func TestBusRefusesBoardingWhileDriving(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(time.Unix(0, 0))
	b := NewBus()

	require.NoError(t, b.AddPassenger(NewPerson(testTweet("t1", "alice"), 0)))
	require.NoError(t, b.Depart(ctx, clk, "topic-sorter-v1"))

	err := b.AddPassenger(NewPerson(testTweet("t2", "bob"), 1))
	assert.ErrorIs(t, err, ErrBusMoving)
	assert.Equal(t, 1, b.PassengerCount())
}

func TestBusJourneyProgress(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(time.Unix(0, 0))
	b := NewBus()
	require.NoError(t, b.AddPassenger(NewPerson(testTweet("t1", "alice"), 0)))

	require.NoError(t, b.Depart(ctx, clk, "topic-sorter-v1"))
	view := b.View()
	assert.Equal(t, BusDriving, view.State)
	assert.InDelta(t, 0.85, view.Progress, 0.001, "depart leaves the last stretch for arrival")
	assert.Equal(t, "topic-sorter-v1", view.Model)

	require.NoError(t, b.Arrive(ctx, clk))
	view = b.View()
	assert.Equal(t, BusArrived, view.State)
	assert.InDelta(t, 1.0, view.Progress, 0.001)
	assert.Equal(t, 1, view.PassengerCount, "arrival does not unload anyone")
}

func TestBusGuardsBadLegs(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(time.Unix(0, 0))
	b := NewBus()

	assert.ErrorIs(t, b.Arrive(ctx, clk), ErrBadTransition)

	require.NoError(t, b.Depart(ctx, clk, ""))
	assert.ErrorIs(t, b.Depart(ctx, clk, ""), ErrBadTransition)

	require.NoError(t, b.Arrive(ctx, clk))
	assert.ErrorIs(t, b.Arrive(ctx, clk), ErrBadTransition)
}

func TestBusUnload(t *testing.T) {
	b := NewBus()
	alice := NewPerson(testTweet("t1", "alice"), 0)
	bob := NewPerson(testTweet("t2", "bob"), 1)
	require.NoError(t, b.AddPassenger(alice))
	require.NoError(t, b.AddPassenger(bob))

	got, ok := b.Unload("t1")
	require.True(t, ok)
	assert.Equal(t, "t1", got.ID())

	view := b.View()
	assert.Equal(t, 1, view.PassengerCount)
	require.Len(t, view.Seats, 1)
	assert.Equal(t, "bob", view.Seats[0].Username)

	_, ok = b.Unload("t1")
	assert.False(t, ok, "second unload of the same id misses")
}

func TestBusReset(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(time.Unix(0, 0))
	b := NewBus()
	require.NoError(t, b.AddPassenger(NewPerson(testTweet("t1", "alice"), 0)))
	require.NoError(t, b.Depart(ctx, clk, "topic-sorter-v1"))

	b.Reset()
	view := b.View()
	assert.Equal(t, BusWaiting, view.State)
	assert.Zero(t, view.PassengerCount)
	assert.Empty(t, view.Seats)
	assert.Zero(t, view.Progress)
	assert.Empty(t, view.Model)

	// A reset bus can run a fresh journey.
	require.NoError(t, b.AddPassenger(NewPerson(testTweet("t2", "bob"), 0)))
	require.NoError(t, b.Depart(ctx, clk, "topic-sorter-v2"))
	require.NoError(t, b.Arrive(ctx, clk))
}
