// Package tools defines the treatment tools and the shared tool queue that
// gates typing.
package tools

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/verte-zerg/plaguetype/internal/model"
)

// Name identifies a tool.
type Name string

// The toolbelt, in slot order.
const (
	Garlic    Name = "garlic"
	Rosaries  Name = "rosaries"
	Cross     Name = "cross"
	HolyWater Name = "holyWater"
	Scalpel   Name = "scalpel"
)

// None is the absence of a tool.
const None Name = ""

// ErrUnknownTool is returned by Parse for names outside the toolbelt.
var ErrUnknownTool = errors.New("unknown tool")

var belt = []Name{Garlic, Rosaries, Cross, HolyWater, Scalpel}

var labels = map[Name]string{
	Garlic:    "Garlic",
	Rosaries:  "Rosaries",
	Cross:     "Cross",
	HolyWater: "Holy Water",
	Scalpel:   "Scalpel",
}

// All returns the toolbelt in slot order.
func All() []Name {
	out := make([]Name, len(belt))
	copy(out, belt)
	return out
}

// Parse resolves a tool name case-insensitively. "holy-water" and
// "holy water" are accepted for HolyWater.
func Parse(s string) (Name, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	for _, n := range belt {
		if strings.ToLower(string(n)) == key {
			return n, nil
		}
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownTool, s)
}

// FromSlot returns the tool in toolbelt slot i.
func FromSlot(i int) (Name, bool) {
	if i < 0 || i >= len(belt) {
		return None, false
	}
	return belt[i], true
}

// Slot returns the toolbelt index, or -1 for an unknown tool.
func (n Name) Slot() int {
	for i, b := range belt {
		if b == n {
			return i
		}
	}
	return -1
}

// Valid reports whether n is on the toolbelt.
func (n Name) Valid() bool { return n.Slot() >= 0 }

// Label is the display name.
func (n Name) Label() string {
	if l, ok := labels[n]; ok {
		return l
	}
	return string(n)
}

// Random draws a tool uniformly.
func Random(rnd *rand.Rand) Name {
	return belt[rnd.Intn(len(belt))]
}

// ParseMode resolves a tool gating mode.
func ParseMode(s string) (model.ToolMode, error) {
	switch mode := model.ToolMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case model.ToolModeQueue, model.ToolModePerVictim, model.ToolModeOff:
		return mode, nil
	case "":
		return model.ToolModeQueue, nil
	default:
		return "", fmt.Errorf("unknown tool mode %q", s)
	}
}
