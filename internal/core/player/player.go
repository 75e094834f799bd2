// Package player owns the ordered event list and the replay cursor. It
// delivers events to registered handlers strictly in log order, spacing them
// by the recorded gaps scaled for playback speed.
package player

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tweetown/tweetown/internal/core/clock"
	"github.com/tweetown/tweetown/internal/core/event"
	"github.com/tweetown/tweetown/internal/util"
)

const (
	// DefaultMaxGap caps the wait between two events so a long real-world
	// lull never stalls playback.
	DefaultMaxGap = 3 * time.Second

	// DefaultSpeed is the unscaled playback rate.
	DefaultSpeed = 1.0
)

// ErrSeekOutOfRange reports a seek target outside [0, len(events)].
var ErrSeekOutOfRange = errors.New("seek index out of range")

// Handler reacts to one event. Handlers for the same event run in
// registration order, each fully awaited before the next starts.
type Handler func(ctx context.Context, ev event.Event) error

// Progress describes one delivered event. Ratio is monotonically
// non-decreasing within a play cycle.
type Progress struct {
	Index   int           `json:"index"`
	Total   int           `json:"total"`
	Ratio   float64       `json:"ratio"`
	Elapsed time.Duration `json:"elapsed_ms"`
	Type    string        `json:"type"`
}

// Status is the externally visible player state.
type Status struct {
	IsPlaying    bool    `json:"is_playing"`
	IsPaused     bool    `json:"is_paused"`
	CurrentIndex int     `json:"current_index"`
	TotalEvents  int     `json:"total_events"`
	Progress     float64 `json:"progress"`
	Speed        float64 `json:"speed"`
}

// Config tunes a player at construction time. Zero values fall back to the
// defaults above.
type Config struct {
	MaxGap time.Duration
	Speed  float64
}

type registration struct {
	id int
	fn Handler
}

// Player replays a loaded event list. All methods are safe for concurrent
// use; playback itself runs on a single goroutine so handlers never overlap.
type Player struct {
	mu sync.Mutex

	clk    clock.Clock
	events []event.Event
	cursor int

	playing bool
	paused  bool
	speed   float64
	maxGap  time.Duration

	handlers map[string][]registration
	nextID   int

	resumeCh chan struct{}
	cancel   context.CancelFunc
	done     chan struct{}

	progressFn func(Progress)
	completeFn func()
}

// New creates an idle player with no events loaded.
func New(clk clock.Clock, cfg Config) *Player {
	if cfg.MaxGap <= 0 {
		cfg.MaxGap = DefaultMaxGap
	}
	if cfg.Speed <= 0 {
		cfg.Speed = DefaultSpeed
	}
	return &Player{
		clk:      clk,
		speed:    cfg.Speed,
		maxGap:   cfg.MaxGap,
		handlers: make(map[string][]registration),
	}
}

// Load replaces the event list and rewinds. A running playback is halted
// first. Scenes are not notified; the orchestrating layer resets them.
func (p *Player) Load(events []event.Event) {
	p.halt()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = make([]event.Event, len(events))
	copy(p.events, events)
	p.cursor = 0
	p.paused = false
	util.LogInfof("player loaded %d events", len(events))
}

// On registers a handler for an event type and returns a registration id
// for Off. Handlers run in registration order.
func (p *Player) On(eventType string, h Handler) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	p.handlers[eventType] = append(p.handlers[eventType], registration{id: p.nextID, fn: h})
	return p.nextID
}

// Off removes a handler previously registered with On.
func (p *Player) Off(eventType string, id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	regs := p.handlers[eventType]
	for i, r := range regs {
		if r.id == id {
			p.handlers[eventType] = append(regs[:i], regs[i+1:]...)
			return
		}
	}
}

// Play begins or resumes delivery from the current cursor. Calling Play on
// a player that is already running only clears a pause.
func (p *Player) Play(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.playing {
		p.resumeLocked()
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.playing = true
	p.resumeLocked()
	util.LogInfof("playback started at index %d of %d", p.cursor, len(p.events))
	go p.run(runCtx, p.done)
}

// Pause requests a stop at the next event boundary. An in-flight handler is
// never interrupted.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused {
		return
	}
	p.paused = true
	p.resumeCh = make(chan struct{})
	util.LogDebug("playback paused")
}

// Resume clears a pause.
func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resumeLocked()
}

func (p *Player) resumeLocked() {
	if !p.paused {
		return
	}
	p.paused = false
	if p.resumeCh != nil {
		close(p.resumeCh)
		p.resumeCh = nil
	}
	util.LogDebug("playback resumed")
}

// Stop halts playback and rewinds the cursor to zero. Scene state is not
// touched; a full replay needs a separate scene reset by the caller.
// Stop must not be called from inside a handler.
func (p *Player) Stop() {
	p.halt()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursor = 0
	p.paused = false
	util.LogInfo("playback stopped and rewound")
}

// halt cancels the run loop, unblocks any pause, and waits for it to exit.
func (p *Player) halt() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.cancel = nil
	p.done = nil
	p.resumeLocked()
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// SetSpeed changes the delay scaling factor for subsequent gaps. Values at
// or below zero are ignored.
func (p *Player) SetSpeed(factor float64) {
	if factor <= 0 {
		util.LogWarnf("ignoring non-positive speed %v", factor)
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.speed = factor
	util.LogDebugf("speed set to %vx", factor)
}

// Speed returns the current delay scaling factor.
func (p *Player) Speed() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.speed
}

// SeekTo moves the cursor without invoking the skipped handlers. Visual
// state will not match the log position until a full replay from zero.
func (p *Player) SeekTo(index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if index < 0 || index > len(p.events) {
		return fmt.Errorf("%w: %d with %d events", ErrSeekOutOfRange, index, len(p.events))
	}
	p.cursor = index
	return nil
}

// SeekToTime moves the cursor to the first event at or past the elapsed
// offset. Offsets past the end land on the terminal cursor.
func (p *Player) SeekToTime(offset time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursor = sort.Search(len(p.events), func(i int) bool {
		return p.events[i].Elapsed >= offset
	})
	return nil
}

// Status reports the cursor, flags, and progress ratio.
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	ratio := 0.0
	if len(p.events) > 0 {
		ratio = float64(p.cursor) / float64(len(p.events))
	}
	return Status{
		IsPlaying:    p.playing,
		IsPaused:     p.paused,
		CurrentIndex: p.cursor,
		TotalEvents:  len(p.events),
		Progress:     ratio,
		Speed:        p.speed,
	}
}

// CurrentEvent returns the next event to be delivered, if any.
func (p *Player) CurrentEvent() (event.Event, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cursor >= len(p.events) {
		return event.Event{}, false
	}
	return p.events[p.cursor], true
}

// Duration returns the log's recorded span, the elapsed offset of its last
// event.
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return 0
	}
	return p.events[len(p.events)-1].Elapsed
}

// SetProgressFunc installs the per-event progress callback. It runs on the
// playback goroutine after each delivered event; keep it quick.
func (p *Player) SetProgressFunc(fn func(Progress)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.progressFn = fn
}

// SetCompleteFunc installs the completion callback. It fires exactly once
// per play cycle, when the cursor reaches the end of the list.
func (p *Player) SetCompleteFunc(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completeFn = fn
}

// waitWhilePaused blocks until the pause flag clears or ctx is canceled.
func (p *Player) waitWhilePaused(ctx context.Context) error {
	for {
		p.mu.Lock()
		paused := p.paused
		ch := p.resumeCh
		p.mu.Unlock()

		if !paused {
			return ctx.Err()
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// run is the playback loop. One iteration per event: pause gate, dispatch,
// progress report, then the scaled and clamped inter-event sleep with the
// handler's own wall time already deducted.
func (p *Player) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	completed := false
	for {
		if err := p.waitWhilePaused(ctx); err != nil {
			break
		}

		p.mu.Lock()
		if p.cursor >= len(p.events) {
			p.mu.Unlock()
			completed = true
			break
		}
		idx := p.cursor
		ev := p.events[idx]
		total := len(p.events)
		speed := p.speed
		maxGap := p.maxGap
		hasNext := idx+1 < total
		var nextElapsed time.Duration
		if hasNext {
			nextElapsed = p.events[idx+1].Elapsed
		}
		regs := make([]registration, len(p.handlers[ev.Type]))
		copy(regs, p.handlers[ev.Type])
		p.mu.Unlock()

		started := p.clk.Now()
		p.dispatch(ctx, ev, regs)
		if ctx.Err() != nil {
			break
		}
		handlerTime := p.clk.Now().Sub(started)

		p.mu.Lock()
		p.cursor = idx + 1
		progressFn := p.progressFn
		p.mu.Unlock()

		if progressFn != nil {
			progressFn(Progress{
				Index:   idx,
				Total:   total,
				Ratio:   float64(idx+1) / float64(total),
				Elapsed: ev.Elapsed,
				Type:    ev.Type,
			})
		}

		if !hasNext {
			continue
		}

		gap := nextElapsed - ev.Elapsed
		if gap < 0 {
			util.LogWarnf("event %d jumps backwards by %v, treating as simultaneous", idx+1, -gap)
			gap = 0
		}
		raw := time.Duration(float64(gap) / speed)
		if raw > maxGap {
			raw = maxGap
		}
		if remain := raw - handlerTime; remain > 0 {
			if err := p.clk.Sleep(ctx, remain); err != nil {
				break
			}
		}
	}

	p.mu.Lock()
	p.playing = false
	completeFn := p.completeFn
	p.mu.Unlock()

	if completed {
		util.LogInfo("playback complete")
		if completeFn != nil {
			completeFn()
		}
	}
}

// dispatch runs every handler registered for the event, in order. Handler
// errors are logged and tolerated so one bad reaction cannot halt the show;
// cancellation stops the chain.
func (p *Player) dispatch(ctx context.Context, ev event.Event, regs []registration) {
	for _, r := range regs {
		if ctx.Err() != nil {
			return
		}
		if err := r.fn(ctx, ev); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			util.LogWarnf("handler for %s failed: %v", ev.Type, err)
		}
	}
}
