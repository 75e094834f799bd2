package scene

import (
	"context"
	"sync"

	"github.com/tweetown/tweetown/internal/core/clock"
	"github.com/tweetown/tweetown/internal/core/entity"
	"github.com/tweetown/tweetown/internal/core/event"
	"github.com/tweetown/tweetown/internal/util"
)

// TransitScene owns the bus journey between the review desk and the city.
// Boarding itself is driven by passed reviews; the boarding events in the
// log only cross-check the passenger ledger.
type TransitScene struct {
	mu sync.Mutex

	clk clock.Clock
	bus *entity.Bus

	boardings int
	trips     int
}

// NewTransitScene wires the scene to the shared bus.
func NewTransitScene(clk clock.Clock, bus *entity.Bus) *TransitScene {
	return &TransitScene{clk: clk, bus: bus}
}

// HandleBoarding reconciles the log's passenger ledger against the seats the
// review scene already filled. Drift is reported, never repaired, because
// the review scene owns boarding. The doors still open: a boarding event for
// an untracked tweet must not leave the bus looking parked and idle.
func (s *TransitScene) HandleBoarding(p event.BusBoarding) error {
	s.mu.Lock()
	s.boardings++
	s.mu.Unlock()

	if err := s.bus.StartLoading(); err != nil {
		util.LogDebugf("boarding of %s noted but %v", p.TweetID, err)
	}

	aboard := s.bus.PassengerCount()
	if p.PassengerCount != aboard {
		util.LogWarnf("boarding ledger says %d passengers, bus has %d", p.PassengerCount, aboard)
	}
	return nil
}

// HandleDepart sends the bus toward the city.
func (s *TransitScene) HandleDepart(ctx context.Context, p event.BusDepart) error {
	if aboard := s.bus.PassengerCount(); p.PassengerCount != aboard {
		util.LogWarnf("depart ledger says %d passengers, bus has %d", p.PassengerCount, aboard)
	}

	if err := s.bus.Depart(ctx, s.clk, p.Model); err != nil {
		if isStateGuard(err) {
			util.LogDebugf("depart skipped: %v", err)
			return nil
		}
		return err
	}

	s.mu.Lock()
	s.trips++
	s.mu.Unlock()
	return nil
}

// HandleArrive parks the bus at the city stop.
func (s *TransitScene) HandleArrive(ctx context.Context) error {
	if err := s.bus.Arrive(ctx, s.clk); err != nil {
		if isStateGuard(err) {
			util.LogDebugf("arrive skipped: %v", err)
			return nil
		}
		return err
	}
	return nil
}

// Counts reports (boardings seen, trips driven).
func (s *TransitScene) Counts() (boardings, trips int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boardings, s.trips
}

// Reset parks an empty bus back at the review stop.
func (s *TransitScene) Reset() {
	s.bus.Reset()
	s.mu.Lock()
	s.boardings = 0
	s.trips = 0
	s.mu.Unlock()
}
