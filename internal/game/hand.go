package game

import (
	"github.com/verte-zerg/plaguetype/internal/tools"
	"github.com/verte-zerg/plaguetype/internal/wordbank"
)

// Hand movement defaults. The hand sits at x = 0 and moves in steps within
// [-DefaultHandRange, DefaultHandRange].
const (
	DefaultHandRange = 5.0
	DefaultHandStep  = 2.5
	// ZoneBoundary separates the center zone from the sides.
	ZoneBoundary = 2.0
)

// HandOracle is what the round reads about the player's hand.
type HandOracle interface {
	HandPosition() (x, z float64)
	IsHoldingTool() bool
	HeldTool() (tools.Name, bool)
}

// ZoneFor returns the zone that contains x.
func ZoneFor(x float64) wordbank.Zone {
	switch {
	case x < -ZoneBoundary:
		return wordbank.ZoneLeft
	case x > ZoneBoundary:
		return wordbank.ZoneRight
	default:
		return wordbank.ZoneCenter
	}
}

// Hand is the player's cursor over the ward.
type Hand struct {
	x     float64
	limit float64
	step  float64
	held  tools.Name
}

var _ HandOracle = (*Hand)(nil)

// NewHand returns a centered, empty hand.
func NewHand(limit, step float64) *Hand {
	if limit <= 0 {
		limit = DefaultHandRange
	}
	if step <= 0 {
		step = DefaultHandStep
	}
	return &Hand{limit: limit, step: step}
}

// MoveLeft steps the hand left, stopping at the edge.
func (h *Hand) MoveLeft() { h.MoveTo(h.x - h.step) }

// MoveRight steps the hand right, stopping at the edge.
func (h *Hand) MoveRight() { h.MoveTo(h.x + h.step) }

// MoveTo places the hand at x, clamped to the range.
func (h *Hand) MoveTo(x float64) {
	if x < -h.limit {
		x = -h.limit
	}
	if x > h.limit {
		x = h.limit
	}
	h.x = x
}

// Center returns the hand to x = 0.
func (h *Hand) Center() { h.x = 0 }

// Zone returns the zone the hand is in.
func (h *Hand) Zone() wordbank.Zone { return ZoneFor(h.x) }

// Pick takes a tool from the belt, replacing any held tool.
func (h *Hand) Pick(name tools.Name) { h.held = name }

// Drop empties the hand.
func (h *Hand) Drop() { h.held = tools.None }

// HandPosition implements HandOracle.
func (h *Hand) HandPosition() (float64, float64) { return h.x, 0 }

// IsHoldingTool implements HandOracle.
func (h *Hand) IsHoldingTool() bool { return h.held != tools.None }

// HeldTool implements HandOracle.
func (h *Hand) HeldTool() (tools.Name, bool) {
	return h.held, h.held != tools.None
}

// Limit returns the range bound.
func (h *Hand) Limit() float64 { return h.limit }
