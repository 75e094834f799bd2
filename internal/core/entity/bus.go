package entity

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tweetown/tweetown/internal/core/clock"
)

// BusState is one leg of the transport stage.
type BusState string

const (
	BusWaiting BusState = "waiting"
	BusLoading BusState = "loading"
	BusDriving BusState = "driving"
	BusArrived BusState = "arrived"
)

// ErrBusMoving rejects boarding while the bus is on the road.
var ErrBusMoving = errors.New("bus is driving")

// Seat is the visual proxy shown in a bus window. It outlives nothing: it is
// a copy, so clearing seats never touches the person it mirrors.
type Seat struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// Bus is the single transport between the review desk and the city. It holds
// passenger references in boarding order plus one window seat per passenger.
type Bus struct {
	mu sync.Mutex

	state      BusState
	passengers []*Person
	seats      []Seat
	progress   float64
	model      string
}

// BusView is a lock-free copy of the bus for rendering and snapshots.
type BusView struct {
	State          BusState `json:"state"`
	Model          string   `json:"model,omitempty"`
	Progress       float64  `json:"progress"`
	PassengerCount int      `json:"passenger_count"`
	Seats          []Seat   `json:"seats"`
}

// NewBus returns an empty bus waiting at the review stop.
func NewBus() *Bus {
	return &Bus{state: BusWaiting}
}

// State returns the current leg.
func (b *Bus) State() BusState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// View snapshots the bus for rendering.
func (b *Bus) View() BusView {
	b.mu.Lock()
	defer b.mu.Unlock()

	seats := make([]Seat, len(b.seats))
	copy(seats, b.seats)
	return BusView{
		State:          b.state,
		Model:          b.model,
		Progress:       b.progress,
		PassengerCount: len(b.passengers),
		Seats:          seats,
	}
}

// PassengerCount returns the number of boarded passengers.
func (b *Bus) PassengerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.passengers)
}

// Passengers returns the boarding-ordered passenger list.
func (b *Bus) Passengers() []*Person {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Person, len(b.passengers))
	copy(out, b.passengers)
	return out
}

// StartLoading opens the doors at the review stop. Already loading is a
// no-op; a bus on the road or parked downtown refuses.
func (b *Bus) StartLoading() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BusWaiting:
		b.state = BusLoading
		return nil
	case BusLoading:
		return nil
	default:
		return fmt.Errorf("load while %s: %w", b.state, ErrBadTransition)
	}
}

// AddPassenger boards a person and fills a window seat. Boarding while the
// bus is driving is refused; the first passenger flips the bus from waiting
// to loading.
func (b *Bus) AddPassenger(p *Person) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BusDriving {
		return fmt.Errorf("board %s: %w", p.ID(), ErrBusMoving)
	}
	if b.state == BusWaiting {
		b.state = BusLoading
	}

	b.passengers = append(b.passengers, p)
	view := p.View()
	b.seats = append(b.seats, Seat{Username: view.Username, Avatar: view.Avatar})
	return nil
}

// Depart drives the bus toward the city, easing progress most of the way.
// The final stretch is finished by Arrive so the bus visibly pulls in when
// the arrival event lands.
func (b *Bus) Depart(ctx context.Context, clk clock.Clock, model string) error {
	b.mu.Lock()
	if b.state != BusWaiting && b.state != BusLoading {
		state := b.state
		b.mu.Unlock()
		return fmt.Errorf("depart from %s: %w", state, ErrBadTransition)
	}
	b.state = BusDriving
	b.model = model
	b.progress = 0
	b.mu.Unlock()

	return animate(ctx, clk, busDriveDuration, animationSteps, func(frac float64) {
		b.mu.Lock()
		b.progress = frac * 0.85
		b.mu.Unlock()
	})
}

// Arrive completes the journey and parks the bus at the city stop.
func (b *Bus) Arrive(ctx context.Context, clk clock.Clock) error {
	b.mu.Lock()
	if b.state != BusDriving {
		state := b.state
		b.mu.Unlock()
		return fmt.Errorf("arrive from %s: %w", state, ErrBadTransition)
	}
	b.state = BusArrived
	b.mu.Unlock()

	return animate(ctx, clk, busPullInDuration, animationSteps, func(frac float64) {
		b.mu.Lock()
		b.progress = 0.85 + frac*0.15
		b.mu.Unlock()
	})
}

// Unload removes the passenger with the given id and vacates their seat.
// Returns false when the id is not aboard.
func (b *Bus) Unload(id string) (*Person, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, p := range b.passengers {
		if p.ID() != id {
			continue
		}
		b.passengers = append(b.passengers[:i], b.passengers[i+1:]...)
		if i < len(b.seats) {
			b.seats = append(b.seats[:i], b.seats[i+1:]...)
		}
		return p, true
	}
	return nil, false
}

// Reset returns the bus to the review stop, empty.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = BusWaiting
	b.passengers = nil
	b.seats = nil
	b.progress = 0
	b.model = ""
}
