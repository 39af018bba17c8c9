package victim

import (
	"errors"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/verte-zerg/plaguetype/internal/clock"
	"github.com/verte-zerg/plaguetype/internal/model"
	"github.com/verte-zerg/plaguetype/internal/tools"
)

// Defaults for the ward.
const (
	DefaultSlots         = 5
	DefaultSpawnInterval = 8 * time.Second
)

// Game over reasons raised by the manager.
const (
	ReasonTooManyVictims = "Too Many Victims!"
	ReasonAllDestroyed   = "All Victims Destroyed!"
)

// ErrNoAvailablePositions is returned by SpawnVictim when every slot is taken.
var ErrNoAvailablePositions = errors.New("no available positions")

// Outcome is how a victim left the ward.
type Outcome string

// Victim outcomes.
const (
	OutcomeHealed    Outcome = "healed"
	OutcomeDestroyed Outcome = "destroyed"
)

// Round is the shared round-running flag.
type Round interface {
	Running() bool
	SetRunning(running bool)
}

// Listener is told about ward changes. LaneReassigned carries slot -1 when
// no victim is left to take the lane.
type Listener interface {
	VictimSpawned(v Victim)
	VictimRetired(v Victim, outcome Outcome)
	LaneReassigned(lane, slot int)
}

// HealthIndicator receives a victim's health after every change.
type HealthIndicator interface {
	UpdateHealthIndicator(slot int, percent float64)
}

// Config sizes the ward.
type Config struct {
	Ruleset       model.Ruleset
	Slots         int
	Lanes         int
	MaxHealth     int
	SpawnInterval time.Duration
	// AssignTools gives each new victim a random required tool.
	AssignTools bool
}

// DefaultConfig returns a rescue ward with three lanes.
func DefaultConfig() Config {
	return Config{
		Ruleset:       model.RulesetRescue,
		Slots:         DefaultSlots,
		Lanes:         3,
		MaxHealth:     DefaultMaxHealth,
		SpawnInterval: DefaultSpawnInterval,
	}
}

// Deps are the collaborators of a Manager. Everything but Round may be nil.
type Deps struct {
	Round      Round
	Clock      clock.Clock
	Rand       *rand.Rand
	Listener   Listener
	Indicator  HealthIndicator
	OnGameOver func(reason string)
	Logger     *slog.Logger
}

// Manager owns the slots and the lane mapping.
type Manager struct {
	cfg  Config
	deps Deps

	slots      []*Victim
	lanes      map[int]int
	activeSlot int
	lastSpawn  time.Time
	gameOver   bool
	healed     int
	destroyed  int
}

// NewManager returns an empty ward.
func NewManager(cfg Config, deps Deps) *Manager {
	if cfg.Slots <= 0 {
		cfg.Slots = DefaultSlots
	}
	if cfg.MaxHealth <= 0 {
		cfg.MaxHealth = DefaultMaxHealth
	}
	if cfg.Ruleset == "" {
		cfg.Ruleset = model.RulesetRescue
	}
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		cfg:   cfg,
		deps:  deps,
		slots: make([]*Victim, cfg.Slots),
		lanes: map[int]int{},
	}
}

// Start clears the ward, opens a new round and spawns the first victim.
func (m *Manager) Start(now time.Time) {
	m.clear()
	m.gameOver = false
	m.healed = 0
	m.destroyed = 0
	m.lastSpawn = now
	if _, err := m.SpawnVictim(); err != nil {
		m.deps.Logger.Warn("failed to spawn first victim", "err", err)
	}
}

// Update spawns on the interval and checks the overflow condition.
func (m *Manager) Update(now time.Time) {
	if m.gameOver || !m.running() {
		return
	}
	if now.Sub(m.lastSpawn) >= m.cfg.SpawnInterval {
		m.lastSpawn = now
		if _, err := m.SpawnVictim(); err != nil {
			m.deps.Logger.Debug("spawn skipped", "err", err)
		}
	}
	m.checkOverflow()
}

// SpawnVictim places a victim in the lowest free slot. Unmapped lanes move
// to it, and lanes are taken from crowded victims until the load is even.
func (m *Manager) SpawnVictim() (*Victim, error) {
	slot := -1
	for i, v := range m.slots {
		if v == nil {
			slot = i
			break
		}
	}
	if slot < 0 {
		return nil, ErrNoAvailablePositions
	}
	v := &Victim{
		Slot:      slot,
		Position:  SlotPosition(slot),
		MaxHealth: m.cfg.MaxHealth,
		SpawnedAt: m.deps.Clock.Now(),
	}
	if m.cfg.Ruleset == model.RulesetDrain {
		v.Health = v.MaxHealth
	}
	if m.cfg.AssignTools {
		v.RequiredTool = tools.Random(m.deps.Rand)
	}
	m.slots[slot] = v
	m.deps.Logger.Info("victim spawned", "slot", slot, "tool", string(v.RequiredTool), "count", m.Count())
	if m.deps.Listener != nil {
		m.deps.Listener.VictimSpawned(*v)
	}
	m.indicate(v)

	for lane := 0; lane < m.cfg.Lanes; lane++ {
		if _, ok := m.lanes[lane]; !ok {
			m.lanes[lane] = slot
		}
	}
	m.rebalance(slot)
	return v, nil
}

// rebalance moves lanes onto slot while some victim has at least two more.
func (m *Manager) rebalance(slot int) {
	for {
		donor, most := -1, 0
		for _, v := range m.slots {
			if v == nil || v.Slot == slot {
				continue
			}
			if n := len(m.LanesFor(v.Slot)); n > most || (n == most && n > 0 && v.Slot > donor) {
				donor, most = v.Slot, n
			}
		}
		if donor < 0 || most <= len(m.LanesFor(slot))+1 {
			return
		}
		lanes := m.LanesFor(donor)
		m.reassign(lanes[len(lanes)-1], slot)
	}
}

func (m *Manager) reassign(lane, slot int) {
	if slot < 0 {
		delete(m.lanes, lane)
	} else {
		m.lanes[lane] = slot
	}
	m.deps.Logger.Debug("lane reassigned", "lane", lane, "slot", slot)
	if m.deps.Listener != nil {
		m.deps.Listener.LaneReassigned(lane, slot)
	}
}

// HealActiveVictim applies amount to the victim being treated.
func (m *Manager) HealActiveVictim(amount int) {
	if v := m.active(); v != nil {
		m.apply(v, amount)
	}
}

// ApplyToLane applies delta to the victim mapped to lane. It reports whether
// a victim was there.
func (m *Manager) ApplyToLane(lane, delta int) bool {
	slot, ok := m.lanes[lane]
	if !ok {
		return false
	}
	return m.ApplyToSlot(slot, delta)
}

// ApplyToSlot applies delta to the victim in slot.
func (m *Manager) ApplyToSlot(slot, delta int) bool {
	v := m.at(slot)
	if v == nil {
		return false
	}
	m.apply(v, delta)
	return true
}

// ApplyToolToLane offers a tool to the victim mapped to lane. found is false
// when the lane has no victim.
func (m *Manager) ApplyToolToLane(lane int, name tools.Name) (matched, found bool) {
	v := m.at(m.laneSlot(lane))
	if v == nil {
		return false, false
	}
	return v.ApplyTool(name), true
}

// LaneNeedsTool reports whether the lane's victim still waits for a tool.
func (m *Manager) LaneNeedsTool(lane int) bool {
	v := m.at(m.laneSlot(lane))
	return v != nil && v.NeedsTool()
}

func (m *Manager) apply(v *Victim, delta int) {
	if m.gameOver {
		return
	}
	v.ModifyHealth(delta)
	m.indicate(v)
	m.checkThreshold(v)
}

func (m *Manager) checkThreshold(v *Victim) {
	switch m.cfg.Ruleset {
	case model.RulesetDrain:
		if v.Health <= 0 {
			m.retire(v, OutcomeDestroyed)
		}
	default:
		if v.Health >= v.MaxHealth {
			m.retire(v, OutcomeHealed)
		}
	}
}

func (m *Manager) retire(v *Victim, outcome Outcome) {
	m.slots[v.Slot] = nil
	if outcome == OutcomeHealed {
		m.healed++
	} else {
		m.destroyed++
	}
	m.deps.Logger.Info("victim retired", "slot", v.Slot, "outcome", string(outcome), "count", m.Count())
	if m.deps.Listener != nil {
		m.deps.Listener.VictimRetired(*v, outcome)
	}
	orphans := m.LanesFor(v.Slot)
	if m.cfg.Ruleset == model.RulesetDrain && m.Count() == 0 {
		m.TriggerGameOver(ReasonAllDestroyed)
		return
	}
	for _, lane := range orphans {
		m.reassign(lane, m.leastLoaded())
	}
}

// leastLoaded returns the live slot with the fewest lanes, lowest slot on a
// tie, or -1 when the ward is empty.
func (m *Manager) leastLoaded() int {
	best, fewest := -1, 0
	for _, v := range m.slots {
		if v == nil {
			continue
		}
		if n := len(m.LanesFor(v.Slot)); best < 0 || n < fewest {
			best, fewest = v.Slot, n
		}
	}
	return best
}

func (m *Manager) checkOverflow() {
	if m.cfg.Ruleset == model.RulesetRescue && m.Count() >= m.cfg.Slots {
		m.TriggerGameOver(ReasonTooManyVictims)
	}
}

// TriggerGameOver ends the round once. Later calls are ignored until the
// next Start. It reports whether this call ended the round.
func (m *Manager) TriggerGameOver(reason string) bool {
	if m.gameOver {
		return false
	}
	m.gameOver = true
	if m.deps.Round != nil {
		m.deps.Round.SetRunning(false)
	}
	m.deps.Logger.Info("game over", "reason", reason, "healed", m.healed, "destroyed", m.destroyed)
	if m.deps.OnGameOver != nil {
		m.deps.OnGameOver(reason)
	}
	m.clear()
	return true
}

// Reset empties the ward without touching the game over guard.
func (m *Manager) Reset() {
	m.clear()
}

func (m *Manager) clear() {
	m.slots = make([]*Victim, m.cfg.Slots)
	m.lanes = map[int]int{}
	m.activeSlot = 0
}

// Victims returns copies of the live victims in slot order.
func (m *Manager) Victims() []Victim {
	out := make([]Victim, 0, len(m.slots))
	for _, v := range m.slots {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// Victim returns a copy of the victim in slot.
func (m *Manager) Victim(slot int) (Victim, bool) {
	v := m.at(slot)
	if v == nil {
		return Victim{}, false
	}
	return *v, true
}

// Count returns the number of live victims.
func (m *Manager) Count() int {
	n := 0
	for _, v := range m.slots {
		if v != nil {
			n++
		}
	}
	return n
}

// Slots returns the size of the ward.
func (m *Manager) Slots() int { return m.cfg.Slots }

// Ruleset returns the active ruleset.
func (m *Manager) Ruleset() model.Ruleset { return m.cfg.Ruleset }

// SetActiveSlot selects the victim tool effects go to.
func (m *Manager) SetActiveSlot(slot int) { m.activeSlot = slot }

// ActiveVictim returns the selected victim, or the lowest occupied slot when
// the selection is empty.
func (m *Manager) ActiveVictim() (Victim, bool) {
	v := m.active()
	if v == nil {
		return Victim{}, false
	}
	return *v, true
}

func (m *Manager) active() *Victim {
	if v := m.at(m.activeSlot); v != nil {
		return v
	}
	for _, v := range m.slots {
		if v != nil {
			return v
		}
	}
	return nil
}

// VictimForLane returns a copy of the victim mapped to lane.
func (m *Manager) VictimForLane(lane int) (Victim, bool) {
	return m.Victim(m.laneSlot(lane))
}

// SlotForLane returns the slot lane maps to.
func (m *Manager) SlotForLane(lane int) (int, bool) {
	slot, ok := m.lanes[lane]
	return slot, ok
}

// LanesFor returns the lanes mapped to slot in ascending order.
func (m *Manager) LanesFor(slot int) []int {
	var out []int
	for lane, s := range m.lanes {
		if s == slot {
			out = append(out, lane)
		}
	}
	sort.Ints(out)
	return out
}

// GameOver reports whether the round has ended.
func (m *Manager) GameOver() bool { return m.gameOver }

// Healed returns the victims healed this round.
func (m *Manager) Healed() int { return m.healed }

// Destroyed returns the victims destroyed this round.
func (m *Manager) Destroyed() int { return m.destroyed }

func (m *Manager) laneSlot(lane int) int {
	if slot, ok := m.lanes[lane]; ok {
		return slot
	}
	return -1
}

func (m *Manager) at(slot int) *Victim {
	if slot < 0 || slot >= len(m.slots) {
		return nil
	}
	return m.slots[slot]
}

func (m *Manager) running() bool {
	return m.deps.Round == nil || m.deps.Round.Running()
}

func (m *Manager) indicate(v *Victim) {
	if m.deps.Indicator != nil {
		m.deps.Indicator.UpdateHealthIndicator(v.Slot, v.HealthPercent())
	}
}
