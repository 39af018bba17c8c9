// Package game ties the typing lanes, the ward and the tool gate into one
// round.
package game

import (
	"time"

	"github.com/verte-zerg/plaguetype/internal/clock"
)

// Context is the round state every component shares: whether the round is
// running and the signed score.
type Context struct {
	clock   clock.Clock
	running bool
	score   int
}

// NewContext returns a stopped context reading time from c.
func NewContext(c clock.Clock) *Context {
	if c == nil {
		c = clock.System{}
	}
	return &Context{clock: c}
}

// Running reports whether the round is live.
func (c *Context) Running() bool { return c.running }

// SetRunning toggles the round flag.
func (c *Context) SetRunning(running bool) { c.running = running }

// Score returns the current score.
func (c *Context) Score() int { return c.score }

// AddScore adds delta and returns the new score. The score has no bounds.
func (c *Context) AddScore(delta int) int {
	c.score += delta
	return c.score
}

// Reset stops the round and zeroes the score.
func (c *Context) Reset() {
	c.running = false
	c.score = 0
}

// Now returns the context clock's time.
func (c *Context) Now() time.Time { return c.clock.Now() }
