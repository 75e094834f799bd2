// Package scene holds the stage-scoped state machines that turn pipeline
// events into entity transitions. Scenes tolerate missing or repeated
// lookups so a damaged log degrades the picture instead of halting it.
package scene

import (
	"context"
	"errors"
	"sync"

	"github.com/tweetown/tweetown/internal/core/clock"
	"github.com/tweetown/tweetown/internal/core/entity"
	"github.com/tweetown/tweetown/internal/core/event"
	"github.com/tweetown/tweetown/internal/util"
)

// ReviewScene owns every person for the run plus the bus while it loads.
// The fetch batch creates the queue; each review result walks one person to
// the desk and then either onto the bus or out of the picture.
type ReviewScene struct {
	mu sync.Mutex

	clk   clock.Clock
	store *entity.PersonStore
	bus   *entity.Bus

	expected int
	reviewed int
	passed   int
	rejected int
}

// NewReviewScene wires the scene to the shared person store and bus.
func NewReviewScene(clk clock.Clock, store *entity.PersonStore, bus *entity.Bus) *ReviewScene {
	return &ReviewScene{clk: clk, store: store, bus: bus}
}

// HandleFetch populates the review queue from the fetched batch.
func (s *ReviewScene) HandleFetch(ctx context.Context, p event.FetchDone) error {
	if p.Count != len(p.Tweets) {
		util.LogWarnf("fetch batch claims %d tweets but carries %d", p.Count, len(p.Tweets))
	}

	for i, tweet := range p.Tweets {
		if tweet.ID == "" {
			util.LogWarn("skipping fetched tweet with empty id")
			continue
		}
		if fresh := s.store.Add(entity.NewPerson(tweet, i)); !fresh {
			util.LogWarnf("duplicate tweet id %s in fetch batch, replaced", tweet.ID)
		}
	}

	s.mu.Lock()
	s.expected = len(p.Tweets)
	s.mu.Unlock()
	return nil
}

// HandleReview walks the person to the desk and applies the verdict. A
// passed review also boards the bus and fills a window seat; the boarding
// event that follows in the log is bookkeeping, not the trigger.
func (s *ReviewScene) HandleReview(ctx context.Context, p event.ReviewResult) error {
	person, ok := s.store.Get(p.TweetID)
	if !ok {
		util.LogDebugf("review result for untracked tweet %s ignored", p.TweetID)
		return nil
	}

	if person.State() == entity.StateQueued {
		if err := person.BeginReview(ctx, s.clk); err != nil {
			if isStateGuard(err) {
				util.LogDebugf("review of %s skipped: %v", p.TweetID, err)
				return nil
			}
			return err
		}
	}

	var err error
	if p.Passed {
		err = person.Approve(ctx, s.clk, p.Score)
	} else {
		err = person.Reject(ctx, s.clk, p.Score, p.Reason)
	}
	if err != nil {
		if isStateGuard(err) {
			util.LogDebugf("verdict for %s skipped: %v", p.TweetID, err)
			return nil
		}
		return err
	}

	s.mu.Lock()
	s.reviewed++
	if p.Passed {
		s.passed++
	} else {
		s.rejected++
	}
	s.mu.Unlock()

	if p.Passed {
		if err := s.bus.AddPassenger(person); err != nil {
			util.LogWarnf("could not board %s: %v", p.TweetID, err)
		}
	}
	return nil
}

// Counts reports (reviewed, passed, rejected, expected).
func (s *ReviewScene) Counts() (reviewed, passed, rejected, expected int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reviewed, s.passed, s.rejected, s.expected
}

// Reset releases every person and zeroes the tallies. The bus belongs to
// the transit scene's reset.
func (s *ReviewScene) Reset() {
	s.store.Reset()
	s.mu.Lock()
	s.expected = 0
	s.reviewed = 0
	s.passed = 0
	s.rejected = 0
	s.mu.Unlock()
}

// isStateGuard reports whether err is a tolerated state-machine refusal as
// opposed to a cancellation that must propagate.
func isStateGuard(err error) bool {
	return errors.Is(err, entity.ErrTerminalState) || errors.Is(err, entity.ErrBadTransition)
}
