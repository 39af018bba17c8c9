// Package victim tracks the patients on the ward: their slots, health,
// tool requirements and which typing lanes treat them.
package victim

import (
	"time"

	"github.com/verte-zerg/plaguetype/internal/tools"
)

// DefaultMaxHealth is the health of a fully treated victim.
const DefaultMaxHealth = 200

// Position is a slot's place on the ward floor.
type Position struct {
	X float64
	Z float64
}

// SlotPosition returns the fixed position of slot i. Slots line up one
// behind the other.
func SlotPosition(i int) Position {
	return Position{X: 0, Z: -4 - float64(i)*1.5}
}

// Patient is the capability a health delta is routed through.
type Patient interface {
	ModifyHealth(delta int) int
	HealthPercent() float64
}

// Victim is one patient occupying a slot.
type Victim struct {
	Slot      int
	Position  Position
	Health    int
	MaxHealth int
	// RequiredTool is tools.None when the victim can be treated directly.
	RequiredTool tools.Name
	ToolUsed     bool
	SpawnedAt    time.Time
}

var _ Patient = (*Victim)(nil)

// ModifyHealth applies delta and clamps to [0, MaxHealth]. It returns the
// new health.
func (v *Victim) ModifyHealth(delta int) int {
	h := v.Health + delta
	if h < 0 {
		h = 0
	}
	if h > v.MaxHealth {
		h = v.MaxHealth
	}
	v.Health = h
	return h
}

// HealthPercent returns health as a percentage of MaxHealth.
func (v *Victim) HealthPercent() float64 {
	if v.MaxHealth <= 0 {
		return 0
	}
	return 100 * float64(v.Health) / float64(v.MaxHealth)
}

// NeedsTool reports whether typing is blocked until a tool is applied.
func (v *Victim) NeedsTool() bool {
	return v.RequiredTool != tools.None && !v.ToolUsed
}

// ApplyTool marks the requirement as met when name matches. It reports
// whether it matched; victims with no requirement never match.
func (v *Victim) ApplyTool(name tools.Name) bool {
	if v.RequiredTool == tools.None || name != v.RequiredTool {
		return false
	}
	v.ToolUsed = true
	return true
}
