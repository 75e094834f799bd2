// Package theater runs the terminal show: it loads or tails an event log,
// drives the player and stage, and repaints the dashboard while reacting
// to hotkeys.
package theater

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/tweetown/tweetown/internal/config"
	"github.com/tweetown/tweetown/internal/core/clock"
	"github.com/tweetown/tweetown/internal/core/event"
	"github.com/tweetown/tweetown/internal/core/player"
	"github.com/tweetown/tweetown/internal/core/scene"
	"github.com/tweetown/tweetown/internal/data/source"
	"github.com/tweetown/tweetown/internal/presentation/display"
	"github.com/tweetown/tweetown/internal/presentation/interaction"
	"github.com/tweetown/tweetown/internal/util"
)

// messageTTL is how long a hotkey acknowledgement stays in the footer.
const messageTTL = 2 * time.Second

// speedLadder holds the playback multipliers the speed keys step through.
var speedLadder = []float64{0.25, 0.5, 1, 2, 4, 8, 16}

// Config selects the event source and tuning for one show.
type Config struct {
	// Source is a log path or http(s) URL. Ignored when Demo is set.
	Source string

	// Demo generates a synthetic run instead of reading Source.
	Demo       bool
	DemoTweets int
	DemoSeed   int64

	// Follow tails Source and applies events as they are appended. The
	// playback keys are idle in this mode because pacing belongs to the
	// producer.
	Follow bool

	Settings config.Settings

	// Out receives the rendered frames, stdout when nil.
	Out io.Writer
}

// Director owns the main loop for one terminal session.
type Director struct {
	cfg   Config
	stage *scene.Stage
	plr   *player.Player
	dash  *display.Dashboard
	term  *display.Terminal

	mu           sync.Mutex
	lastProgress player.Progress
	applied      int
	lastOffset   time.Duration
	logSpan      time.Duration
	showHelp     bool
	uiPaused     bool
	message      string
	messageUntil time.Time
}

// New wires a director from the config. Zero settings fall back to the
// defaults so a bare Config still plays.
func New(cfg Config) *Director {
	if cfg.Settings.RefreshHz == 0 {
		cfg.Settings = config.Default()
	}

	clk := clock.NewSystem()
	return &Director{
		cfg:   cfg,
		stage: scene.New(clk, scene.Config{LeaderboardSize: cfg.Settings.LeaderboardSize}),
		plr: player.New(clk, player.Config{
			MaxGap: cfg.Settings.MaxGap(),
			Speed:  cfg.Settings.Speed,
		}),
		dash: display.NewDashboard(cfg.Out, cfg.Settings.AccentCode(), nil),
		term: display.NewTerminal(cfg.Out),
	}
}

// Run plays the show until the log completes and the user quits, or the
// context is canceled. The terminal is restored on every exit path.
func (d *Director) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if !d.cfg.Follow {
		events, err := d.loadEvents(ctx)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return errors.New("event log is empty")
		}
		d.mu.Lock()
		d.logSpan = events[len(events)-1].Elapsed
		d.mu.Unlock()

		d.stage.Attach(d.plr)
		defer d.stage.Detach(d.plr)
		d.plr.Load(events)
		d.plr.SetProgressFunc(func(pr player.Progress) {
			d.mu.Lock()
			d.lastProgress = pr
			d.mu.Unlock()
		})
		d.plr.SetCompleteFunc(func() {
			d.setMessage("run complete, r replays")
		})
		defer d.plr.Stop()
	}

	keyboard, err := interaction.NewKeyboardReader()
	if err != nil {
		return fmt.Errorf("keyboard init: %w", err)
	}
	defer keyboard.Close()

	d.term.Enter()
	defer d.term.Exit()

	var followErr chan error
	if d.cfg.Follow {
		followErr = make(chan error, 1)
		go func() {
			followErr <- source.Follow(ctx, d.cfg.Source, d.applyLive)
		}()
		util.LogInfof("following %s", d.cfg.Source)
	} else {
		d.plr.Play(ctx)
	}

	uiTicker := time.NewTicker(time.Duration(1000/d.cfg.Settings.RefreshHz) * time.Millisecond)
	defer uiTicker.Stop()

	d.render()
	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-followErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("follow %s: %w", d.cfg.Source, err)
			}
			return nil

		case <-uiTicker.C:
			if !d.frozen() {
				d.render()
			}

		case keyEvent := <-keyboard.Events():
			if d.handleKey(ctx, keyEvent) {
				return nil
			}
			d.render()
		}
	}
}

func (d *Director) loadEvents(ctx context.Context) ([]event.Event, error) {
	if d.cfg.Demo {
		return source.Generate(source.Options{
			Tweets: d.cfg.DemoTweets,
			Seed:   d.cfg.DemoSeed,
		}), nil
	}
	return source.Load(ctx, d.cfg.Source)
}

// applyLive is the sink handed to source.Follow.
func (d *Director) applyLive(ctx context.Context, ev event.Event) error {
	if err := d.stage.Apply(ctx, ev); err != nil {
		return err
	}
	d.mu.Lock()
	d.applied++
	d.lastOffset = ev.Elapsed
	d.mu.Unlock()
	return nil
}

// handleKey reacts to one key press and reports whether the show should
// exit.
func (d *Director) handleKey(ctx context.Context, keyEvent interaction.KeyEvent) bool {
	switch keyEvent.Type {
	case interaction.KeyChar:
		switch keyEvent.Key {
		case 'q', 'Q', 3:
			return true
		case ' ':
			d.togglePause()
		case '+', '=':
			d.shiftSpeed(1)
		case '-', '_':
			d.shiftSpeed(-1)
		case 'r', 'R':
			d.replay(ctx)
		case 'h', 'H':
			d.toggleHelp()
		}

	case interaction.KeyEscape:
		d.mu.Lock()
		wasHelp := d.showHelp
		d.showHelp = false
		d.mu.Unlock()
		if !wasHelp {
			return true
		}
		d.term.Clear()
	}
	return false
}

func (d *Director) togglePause() {
	if d.cfg.Follow {
		d.mu.Lock()
		d.uiPaused = !d.uiPaused
		paused := d.uiPaused
		d.mu.Unlock()
		if paused {
			d.setMessage("screen frozen, events still apply")
		} else {
			d.setMessage("screen live")
		}
		return
	}

	if d.plr.Status().IsPaused {
		d.plr.Resume()
	} else {
		d.plr.Pause()
	}
}

func (d *Director) shiftSpeed(dir int) {
	if d.cfg.Follow {
		d.setMessage("speed keys are idle while following")
		return
	}

	idx := ladderIndex(d.plr.Speed()) + dir
	if idx < 0 {
		idx = 0
	}
	if idx > len(speedLadder)-1 {
		idx = len(speedLadder) - 1
	}
	d.plr.SetSpeed(speedLadder[idx])
	d.setMessage("speed " + util.FormatSpeed(speedLadder[idx]))
}

// replay rewinds the log and clears the town so the run starts over.
func (d *Director) replay(ctx context.Context) {
	if d.cfg.Follow {
		d.setMessage("replay is unavailable while following")
		return
	}

	d.plr.Stop()
	d.stage.Reset()
	d.mu.Lock()
	d.lastProgress = player.Progress{}
	d.mu.Unlock()
	d.plr.Play(ctx)
	d.setMessage("replaying from the top")
}

func (d *Director) toggleHelp() {
	d.mu.Lock()
	d.showHelp = !d.showHelp
	d.mu.Unlock()
	d.term.Clear()
}

func (d *Director) setMessage(msg string) {
	d.mu.Lock()
	d.message = msg
	d.messageUntil = time.Now().Add(messageTTL)
	d.mu.Unlock()
}

// frozen reports whether ticker-driven repaints are suspended. Key-driven
// repaints always happen so the user sees their own action.
func (d *Director) frozen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg.Follow && d.uiPaused && !d.showHelp
}

func (d *Director) render() {
	d.mu.Lock()
	frame := display.Frame{
		Elapsed:  d.lastProgress.Elapsed,
		LogSpan:  d.logSpan,
		Applied:  d.applied,
		Follow:   d.cfg.Follow,
		ShowHelp: d.showHelp,
	}
	if d.cfg.Follow {
		frame.Elapsed = d.lastOffset
	}
	if time.Now().Before(d.messageUntil) {
		frame.Message = d.message
	}
	d.mu.Unlock()

	frame.Snapshot = d.stage.Snapshot()
	frame.Player = d.plr.Status()
	d.dash.Render(frame)
}

// ladderIndex finds the ladder step closest to the current speed so config
// values between steps still land somewhere sensible.
func ladderIndex(speed float64) int {
	best := 0
	bestDiff := math.MaxFloat64
	for i, s := range speedLadder {
		if diff := math.Abs(s - speed); diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	return best
}
