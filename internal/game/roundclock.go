package game

import "time"

// Round timing defaults.
const (
	DefaultRoundLength = 300 * time.Second
	DefaultScoreTick   = 5 * time.Second
)

// RoundClock counts down a round and meters the periodic score ticks.
type RoundClock struct {
	length    time.Duration
	tick      time.Duration
	startedAt time.Time
	lastTick  time.Time
	started   bool
}

// NewRoundClock returns a clock for rounds of length with a score tick every
// tick. A non-positive tick disables ticks.
func NewRoundClock(length, tick time.Duration) *RoundClock {
	if length <= 0 {
		length = DefaultRoundLength
	}
	return &RoundClock{length: length, tick: tick}
}

// Start begins the countdown at now.
func (c *RoundClock) Start(now time.Time) {
	c.startedAt = now
	c.lastTick = now
	c.started = true
}

// Stop freezes the clock.
func (c *RoundClock) Stop() { c.started = false }

// Remaining returns the time left at now, never negative.
func (c *RoundClock) Remaining(now time.Time) time.Duration {
	if !c.started {
		return 0
	}
	left := c.length - now.Sub(c.startedAt)
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether the round ran out at now.
func (c *RoundClock) Expired(now time.Time) bool {
	return c.started && now.Sub(c.startedAt) >= c.length
}

// DueTicks returns how many score ticks passed since the last call.
func (c *RoundClock) DueTicks(now time.Time) int {
	if !c.started || c.tick <= 0 {
		return 0
	}
	n := int(now.Sub(c.lastTick) / c.tick)
	if n > 0 {
		c.lastTick = c.lastTick.Add(time.Duration(n) * c.tick)
	}
	return n
}

// Elapsed returns the time since Start.
func (c *RoundClock) Elapsed(now time.Time) time.Duration {
	if c.startedAt.IsZero() {
		return 0
	}
	return now.Sub(c.startedAt)
}

// Length returns the round length.
func (c *RoundClock) Length() time.Duration { return c.length }
