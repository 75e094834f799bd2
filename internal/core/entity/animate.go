package entity

import (
	"context"
	"time"

	"github.com/tweetown/tweetown/internal/core/clock"
)

// Transition animation lengths. These are wall-clock costs paid inside event
// handlers; the player subtracts them from the following inter-event gap.
const (
	reviewGlideDuration = 240 * time.Millisecond
	boardWalkDuration   = 400 * time.Millisecond
	rejectFadeDuration  = 360 * time.Millisecond
	deliverWalkDuration = 450 * time.Millisecond
	busDriveDuration    = 800 * time.Millisecond
	busPullInDuration   = 300 * time.Millisecond

	animationSteps = 6
)

// animate advances fn from just above 0 to exactly 1 across steps, sleeping
// between frames on the given clock. Cancellation stops mid-glide and leaves
// the last applied fraction in place.
func animate(ctx context.Context, clk clock.Clock, total time.Duration, steps int, fn func(frac float64)) error {
	if steps < 1 {
		steps = 1
	}
	stepDuration := total / time.Duration(steps)

	for i := 1; i <= steps; i++ {
		if err := clk.Sleep(ctx, stepDuration); err != nil {
			return err
		}
		fn(float64(i) / float64(steps))
	}
	return nil
}
