// Package pacing owns the adaptive delay between upstream requests. The
// upstream API enforces a global rate limit, so the whole batch shares
// one controller and one persisted wait value.
package pacing

import (
	"github.com/dmaher/sfl-tracker/internal/telemetry"
)

// WaitStore persists an adopted wait value. Adopted changes are written
// immediately so a crash mid-run loses at most the in-flight adjustment.
type WaitStore interface {
	SaveWait(seconds float64) error
}

// Controller is a hysteresis control loop, not a PID controller: it
// requires a swing of more than 2 seconds in either direction before
// adopting a change, so latency noise cannot make it oscillate.
type Controller struct {
	wait    float64
	floor   float64
	ceiling float64

	recent      []float64 // trailing observed elapsed times
	consecFails int
	store       WaitStore
}

const (
	trailingWindow = 3
	failureStreak  = 3
	minSwing       = 2.0
)

// NewController starts from the persisted prior wait, clamped into
// [floor, ceiling].
func NewController(initialWait, floor, ceiling float64, store WaitStore) *Controller {
	w := initialWait
	if w < floor {
		w = floor
	}
	if w > ceiling {
		w = ceiling
	}
	return &Controller{wait: w, floor: floor, ceiling: ceiling, store: store}
}

// Wait returns the current delay in seconds.
func (c *Controller) Wait() float64 { return c.wait }

// Observe feeds one completed request into the control loop and returns
// the (possibly adjusted) wait. Rules, in order:
//
//  1. elapsed exceeded the wait: propose elapsed*1.2 capped at the
//     ceiling, adopt only if it raises the wait by more than 2s.
//  2. a streak of failures: back off to wait*1.5 capped at the ceiling.
//  3. the trailing window averages under 60% of the wait: propose
//     avg*1.5 floored, adopt only if it lowers the wait by more than 2s.
func (c *Controller) Observe(elapsed float64, hadFailure bool) float64 {
	if hadFailure {
		c.consecFails++
	} else {
		c.consecFails = 0
	}

	switch {
	case elapsed > c.wait:
		proposed := min(elapsed*1.2, c.ceiling)
		if proposed > c.wait+minSwing {
			telemetry.Infof("pacing: upstream slower than expected (%.1fs), raising wait %.1fs -> %.1fs",
				elapsed, c.wait, proposed)
			c.adopt(proposed)
		}

	case c.consecFails >= failureStreak:
		proposed := min(c.wait*1.5, c.ceiling)
		if proposed > c.wait {
			telemetry.Infof("pacing: %d consecutive failures, raising wait %.1fs -> %.1fs",
				c.consecFails, c.wait, proposed)
			c.adopt(proposed)
		}

	case !hadFailure && len(c.recent) >= trailingWindow:
		avg := average(c.recent[len(c.recent)-trailingWindow:])
		if avg < c.wait*0.6 {
			proposed := max(avg*1.5, c.floor)
			if proposed < c.wait-minSwing {
				telemetry.Infof("pacing: upstream consistently fast (%.1fs avg), lowering wait %.1fs -> %.1fs",
					avg, c.wait, proposed)
				c.adopt(proposed)
			}
		}
	}

	c.recent = append(c.recent, elapsed)
	if len(c.recent) > trailingWindow {
		c.recent = c.recent[len(c.recent)-trailingWindow:]
	}
	return c.wait
}

func (c *Controller) adopt(wait float64) {
	c.wait = wait
	if c.store == nil {
		return
	}
	if err := c.store.SaveWait(wait); err != nil {
		telemetry.Warnf("pacing: persist wait %.1fs: %v", wait, err)
	}
}

func average(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
