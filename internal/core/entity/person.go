package entity

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tweetown/tweetown/internal/core/clock"
	"github.com/tweetown/tweetown/internal/core/event"
)

// PersonState is one stop in a person's walk through the town.
type PersonState string

const (
	StateQueued    PersonState = "queued"
	StateReviewing PersonState = "reviewing"
	StateBoarded   PersonState = "boarded"
	StateRejected  PersonState = "rejected"
	StateSorted    PersonState = "sorted"
)

// ErrTerminalState rejects transitions out of rejected or sorted. Scenes
// treat it as a tolerated no-op, not a failure.
var ErrTerminalState = errors.New("person is in a terminal state")

// ErrBadTransition rejects transitions that skip a state. Scenes log and
// move on.
var ErrBadTransition = errors.New("transition not allowed from current state")

// Person is the visual stand-in for one tweet. It is created by the review
// scene when the fetch batch lands and lives in the scene's store for the
// whole run; terminal transitions hide it rather than free it.
type Person struct {
	mu sync.Mutex

	id        string
	username  string
	content   string
	avatar    string
	followers int

	state    PersonState
	score    float64
	scored   bool
	reason   string
	category string
	slot     int
	progress float64
	visible  bool
}

// PersonView is a lock-free copy of a person for rendering and snapshots.
type PersonView struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	Content   string      `json:"content"`
	Avatar    string      `json:"avatar,omitempty"`
	Followers int         `json:"followers,omitempty"`
	State     PersonState `json:"state"`
	Score     float64     `json:"score"`
	Scored    bool        `json:"scored"`
	Reason    string      `json:"reason,omitempty"`
	Category  string      `json:"category,omitempty"`
	Slot      int         `json:"slot"`
	Progress  float64     `json:"progress"`
	Visible   bool        `json:"visible"`
}

// NewPerson creates a queued, visible person from a fetched tweet. Slot is
// the position in the review queue and only affects layout.
func NewPerson(tweet event.Tweet, slot int) *Person {
	return &Person{
		id:        tweet.ID,
		username:  tweet.Username,
		content:   tweet.Content,
		avatar:    tweet.Avatar,
		followers: tweet.Followers,
		state:     StateQueued,
		slot:      slot,
		visible:   true,
	}
}

// ID returns the stable tweet id.
func (p *Person) ID() string {
	return p.id
}

// Username returns the author handle.
func (p *Person) Username() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.username
}

// State returns the current state.
func (p *Person) State() PersonState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// View snapshots the person for rendering.
func (p *Person) View() PersonView {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PersonView{
		ID:        p.id,
		Username:  p.username,
		Content:   p.content,
		Avatar:    p.avatar,
		Followers: p.followers,
		State:     p.state,
		Score:     p.score,
		Scored:    p.scored,
		Reason:    p.reason,
		Category:  p.category,
		Slot:      p.slot,
		Progress:  p.progress,
		Visible:   p.visible,
	}
}

// guardTransition enforces the one-way walk
// queued -> reviewing -> boarded -> sorted, with reviewing -> rejected as
// the failure exit. Callers hold p.mu.
func (p *Person) guardTransition(from, to PersonState) error {
	if p.state == StateRejected || p.state == StateSorted {
		return fmt.Errorf("%s -> %s for %s: %w", p.state, to, p.id, ErrTerminalState)
	}
	if p.state != from {
		return fmt.Errorf("%s -> %s for %s: %w", p.state, to, p.id, ErrBadTransition)
	}
	return nil
}

// BeginReview moves the person from the queue to the review desk.
func (p *Person) BeginReview(ctx context.Context, clk clock.Clock) error {
	p.mu.Lock()
	if err := p.guardTransition(StateQueued, StateReviewing); err != nil {
		p.mu.Unlock()
		return err
	}
	p.state = StateReviewing
	p.progress = 0
	p.mu.Unlock()

	return animate(ctx, clk, reviewGlideDuration, animationSteps, func(frac float64) {
		p.mu.Lock()
		p.progress = frac
		p.mu.Unlock()
	})
}

// Approve records a passing review and walks the person to the bus stop.
func (p *Person) Approve(ctx context.Context, clk clock.Clock, score float64) error {
	p.mu.Lock()
	if err := p.guardTransition(StateReviewing, StateBoarded); err != nil {
		p.mu.Unlock()
		return err
	}
	p.state = StateBoarded
	p.score = score
	p.scored = true
	p.progress = 0
	p.mu.Unlock()

	return animate(ctx, clk, boardWalkDuration, animationSteps, func(frac float64) {
		p.mu.Lock()
		p.progress = frac
		p.mu.Unlock()
	})
}

// Reject records a failing review and fades the person out. Rejected is
// terminal; the person stays in the store for leaderboard bookkeeping but is
// no longer drawn.
func (p *Person) Reject(ctx context.Context, clk clock.Clock, score float64, reason string) error {
	p.mu.Lock()
	if err := p.guardTransition(StateReviewing, StateRejected); err != nil {
		p.mu.Unlock()
		return err
	}
	p.state = StateRejected
	p.score = score
	p.scored = true
	p.reason = reason
	p.progress = 0
	p.mu.Unlock()

	err := animate(ctx, clk, rejectFadeDuration, animationSteps, func(frac float64) {
		p.mu.Lock()
		p.progress = frac
		p.mu.Unlock()
	})
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.visible = false
	p.mu.Unlock()
	return nil
}

// Deliver walks the person from the bus into a building. Sorted is terminal.
func (p *Person) Deliver(ctx context.Context, clk clock.Clock, category string) error {
	p.mu.Lock()
	if err := p.guardTransition(StateBoarded, StateSorted); err != nil {
		p.mu.Unlock()
		return err
	}
	p.state = StateSorted
	p.category = category
	p.progress = 0
	p.mu.Unlock()

	err := animate(ctx, clk, deliverWalkDuration, animationSteps, func(frac float64) {
		p.mu.Lock()
		p.progress = frac
		p.mu.Unlock()
	})
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.visible = false
	p.mu.Unlock()
	return nil
}
