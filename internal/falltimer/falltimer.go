// Package falltimer drives a falling word from the top of its lane to the bottom.
package falltimer

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/plaguetype/internal/clock"
)

// Default fall range. Words take between three and eight seconds to land.
const (
	DefaultMinDuration = 3000 * time.Millisecond
	DefaultMaxDuration = 8000 * time.Millisecond
)

// Config bounds the fall.
type Config struct {
	MinDuration time.Duration
	MaxDuration time.Duration
	// Top and Bottom are the vertical positions at progress 0 and 1.
	Top    float64
	Bottom float64
}

// DefaultConfig returns the default fall range over a unit lane.
func DefaultConfig() Config {
	return Config{
		MinDuration: DefaultMinDuration,
		MaxDuration: DefaultMaxDuration,
		Top:         0,
		Bottom:      1,
	}
}

// Timer tracks one word's descent.
type Timer struct {
	cfg   Config
	clock clock.Clock
	rnd   *rand.Rand

	falling   bool
	startedAt time.Time
	duration  time.Duration
	progress  float64
	position  float64
}

// New returns a stopped Timer at the top of the lane.
func New(cfg Config, c clock.Clock, rnd *rand.Rand) *Timer {
	if cfg.MaxDuration < cfg.MinDuration {
		cfg.MaxDuration = cfg.MinDuration
	}
	return &Timer{cfg: cfg, clock: c, rnd: rnd, position: cfg.Top}
}

// Start begins a fall with a random duration. It is a no-op while falling.
func (t *Timer) Start() {
	if t.falling {
		return
	}
	t.StartWithDuration(t.pickDuration())
}

// StartWithDuration begins a fall lasting d. It is a no-op while falling.
func (t *Timer) StartWithDuration(d time.Duration) {
	if t.falling {
		return
	}
	if d <= 0 {
		d = time.Millisecond
	}
	t.falling = true
	t.startedAt = t.clock.Now()
	t.duration = d
	t.progress = 0
	t.position = t.cfg.Top
}

func (t *Timer) pickDuration() time.Duration {
	span := t.cfg.MaxDuration - t.cfg.MinDuration
	if span <= 0 || t.rnd == nil {
		return t.cfg.MinDuration
	}
	return t.cfg.MinDuration + time.Duration(t.rnd.Int63n(int64(span)+1))
}

// Update recomputes the position for now. It returns true on the tick the
// word reaches the bottom; the timer is stopped at that point, so later
// calls return false until the next Start.
func (t *Timer) Update(now time.Time) bool {
	if !t.falling {
		return false
	}
	elapsed := now.Sub(t.startedAt)
	progress := float64(elapsed) / float64(t.duration)
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	t.progress = progress
	eased := progress * progress
	t.position = t.cfg.Top + (t.cfg.Bottom-t.cfg.Top)*eased
	if progress >= 1 {
		t.falling = false
		return true
	}
	return false
}

// Stop halts the fall where it is.
func (t *Timer) Stop() {
	t.falling = false
}

// ResetPosition halts the fall and rewinds to the top.
func (t *Timer) ResetPosition() {
	t.falling = false
	t.progress = 0
	t.position = t.cfg.Top
}

// Falling reports whether a fall is in progress.
func (t *Timer) Falling() bool { return t.falling }

// Progress returns the linear progress in [0,1] at the last Update.
func (t *Timer) Progress() float64 { return t.progress }

// Position returns the eased vertical position at the last Update.
func (t *Timer) Position() float64 { return t.position }

// Duration returns the length of the current or last fall.
func (t *Timer) Duration() time.Duration { return t.duration }
