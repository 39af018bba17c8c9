// Package wordbank provides word bank filtering helpers.
package wordbank

import (
	"strings"

	"github.com/verte-zerg/plaguetype/internal/model"
)

// FilterFunc returns true when an entry should be kept.
type FilterFunc func(model.Entry) bool

// Zone is a horizontal band of the table the hand can be in.
type Zone int

// Hand zones, left to right.
const (
	ZoneLeft Zone = iota
	ZoneCenter
	ZoneRight
)

func (z Zone) String() string {
	switch z {
	case ZoneLeft:
		return "left"
	case ZoneRight:
		return "right"
	default:
		return "center"
	}
}

// FilterForZone keeps entries meant for the hand in zone. Entries without a
// placement fit any zone and the center zone accepts everything.
func FilterForZone(zone Zone) FilterFunc {
	switch zone {
	case ZoneLeft:
		return placementFilter(model.PlacementLeft)
	case ZoneRight:
		return placementFilter(model.PlacementRight)
	default:
		return func(model.Entry) bool { return true }
	}
}

func placementFilter(p model.Placement) FilterFunc {
	return func(e model.Entry) bool {
		return e.HandPlacement == model.PlacementNone || e.HandPlacement == p
	}
}

// FilterByDifficulty keeps entries of the given difficulty; empty keeps all.
func FilterByDifficulty(difficulty string) FilterFunc {
	if difficulty == "" {
		return func(model.Entry) bool { return true }
	}
	return func(e model.Entry) bool {
		return strings.EqualFold(e.Difficulty, difficulty)
	}
}

// Apply returns the entries passing every filter. When nothing passes the
// input is returned unchanged so a lane never runs dry.
func Apply(entries []model.Entry, filters ...FilterFunc) []model.Entry {
	out := make([]model.Entry, 0, len(entries))
outer:
	for _, e := range entries {
		for _, f := range filters {
			if !f(e) {
				continue outer
			}
		}
		out = append(out, e)
	}
	if len(out) == 0 {
		return entries
	}
	return out
}
