package game

import (
	"log/slog"
	"math/rand"
	"sort"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/verte-zerg/plaguetype/internal/challenge"
	"github.com/verte-zerg/plaguetype/internal/clock"
	"github.com/verte-zerg/plaguetype/internal/falltimer"
	"github.com/verte-zerg/plaguetype/internal/model"
	"github.com/verte-zerg/plaguetype/internal/scheduler"
	"github.com/verte-zerg/plaguetype/internal/sound"
	"github.com/verte-zerg/plaguetype/internal/tools"
	"github.com/verte-zerg/plaguetype/internal/typing"
	"github.com/verte-zerg/plaguetype/internal/victim"
	"github.com/verte-zerg/plaguetype/internal/wordbank"
)

// Round end reasons raised by the game itself.
const (
	ReasonTimeUp     = "Time's Up!"
	ReasonAbandoned  = "Round Abandoned"
	defaultWordScore = 10
)

// Sink is the presentation layer.
type Sink interface {
	typing.Renderer
	victim.HealthIndicator
	tools.Indicator
	OnGameOver(result RoundResult)
}

// Recorder persists finished rounds.
type Recorder interface {
	RecordRound(result RoundResult) error
}

// RoundResult is the outcome of one round.
type RoundResult struct {
	Stats      model.RoundStats
	CharErrors []model.CharErrors
	Lanes      []typing.Stats
}

// Deps are the collaborators of a Game. Everything but Entries may be nil.
type Deps struct {
	Clock        clock.Clock
	Rand         *rand.Rand
	Entries      []model.Entry
	WordBankPath string
	Hand         HandOracle
	Sink         Sink
	Effects      *sound.Effects
	Recorder     Recorder
	Logger       *slog.Logger
	WeakSet      map[rune]struct{}
}

// DefaultConfig returns the standard round settings.
func DefaultConfig() model.Config {
	return model.Config{
		Ruleset:       model.RulesetRescue,
		ToolMode:      model.ToolModeQueue,
		Lanes:         3,
		Slots:         victim.DefaultSlots,
		MaxHealth:     victim.DefaultMaxHealth,
		RoundLength:   DefaultRoundLength,
		SpawnInterval: victim.DefaultSpawnInterval,
		ScoreTick:     DefaultScoreTick,
		MinFall:       falltimer.DefaultMinDuration,
		MaxFall:       falltimer.DefaultMaxDuration,
		StartDelay:    typing.DefaultStartDelay,
		AdvanceDelay:  typing.DefaultAdvanceDelay,
		WordHeal:      50,
		ErrorDamage:   5,
		MissDamage:    10,
		WordScore:     defaultWordScore,
		QueueLength:   3,
		WeakTop:       5,
		WeakFactor:    1.0,
		WeakWindow:    20,
	}
}

// Game is one player's ward.
type Game struct {
	cfg  model.Config
	deps Deps

	ctx      *Context
	sched    *scheduler.Scheduler
	sessions []*typing.Session
	zones    []wordbank.Zone
	manager  *victim.Manager
	queue    *tools.Queue
	round    *RoundClock

	roundID   string
	startedAt time.Time
	result    *RoundResult
}

// New builds a stopped game.
func New(cfg model.Config, deps Deps) *Game {
	if cfg.Lanes <= 0 {
		cfg.Lanes = 1
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
	if deps.Hand == nil {
		deps.Hand = NewHand(DefaultHandRange, DefaultHandStep)
	}
	if deps.Effects == nil {
		deps.Effects = sound.NewEffects(sound.NewBank(sound.SampleRate), nil)
	}

	g := &Game{
		cfg:   cfg,
		deps:  deps,
		ctx:   NewContext(deps.Clock),
		sched: scheduler.New(deps.Clock),
		round: NewRoundClock(cfg.RoundLength, cfg.ScoreTick),
	}

	var indicator tools.Indicator
	var health victim.HealthIndicator
	var renderer typing.Renderer
	if deps.Sink != nil {
		indicator, health, renderer = deps.Sink, deps.Sink, deps.Sink
	}

	g.manager = victim.NewManager(victim.Config{
		Ruleset:       cfg.Ruleset,
		Slots:         cfg.Slots,
		Lanes:         cfg.Lanes,
		MaxHealth:     cfg.MaxHealth,
		SpawnInterval: cfg.SpawnInterval,
		AssignTools:   cfg.ToolMode == model.ToolModePerVictim,
	}, victim.Deps{
		Round:      g.ctx,
		Clock:      deps.Clock,
		Rand:       deps.Rand,
		Listener:   g,
		Indicator:  health,
		OnGameOver: g.onGameOver,
		Logger:     deps.Logger.With("component", "victims"),
	})

	g.queue = tools.NewQueue(tools.DefaultQueueConfig(), tools.QueueDeps{
		Rand:      deps.Rand,
		Scorer:    g.ctx,
		Healer:    g.manager,
		Indicator: indicator,
		Logger:    deps.Logger.With("component", "tools"),
	})

	sessionCfg := typing.Config{
		Fall: falltimer.Config{
			MinDuration: cfg.MinFall,
			MaxDuration: cfg.MaxFall,
			Top:         0,
			Bottom:      1,
		},
		StartDelay:    cfg.StartDelay,
		AdvanceDelay:  cfg.AdvanceDelay,
		ShakeDuration: typing.DefaultShakeDuration,
		WeakFactor:    cfg.WeakFactor,
	}
	zones := []wordbank.Zone{wordbank.ZoneLeft, wordbank.ZoneCenter, wordbank.ZoneRight}
	for lane := 0; lane < cfg.Lanes; lane++ {
		zone := zones[lane%len(zones)]
		entries := wordbank.Apply(deps.Entries,
			wordbank.FilterForZone(zone),
			wordbank.FilterByDifficulty(cfg.Difficulty),
		)
		s := typing.New(lane, sessionCfg, typing.Deps{
			Picker:    challenge.NewPicker(entries, rand.New(rand.NewSource(deps.Rand.Int63()))),
			Scheduler: g.sched,
			Clock:     deps.Clock,
			Rand:      rand.New(rand.NewSource(deps.Rand.Int63())),
			Listener:  g,
			Renderer:  renderer,
			Logger:    deps.Logger.With("component", "typing"),
		})
		s.SetGate(g.gate(lane))
		g.sessions = append(g.sessions, s)
		g.zones = append(g.zones, zone)
	}
	return g
}

// Start opens a new round.
func (g *Game) Start() {
	now := g.deps.Clock.Now()
	g.sched.Clear()
	g.ctx.Reset()
	g.ctx.SetRunning(true)
	g.roundID = uuid.NewString()
	g.startedAt = now
	g.result = nil

	g.queue.Reset()
	if g.cfg.ToolMode == model.ToolModeQueue {
		g.queue.Fill(g.cfg.QueueLength)
	}
	g.manager.Start(now)
	for _, s := range g.sessions {
		s.Reset()
		s.SetWeakSet(g.deps.WeakSet)
		s.Start()
	}
	g.round.Start(now)
	g.syncActive()
	g.deps.Logger.Info("round started", "round", g.roundID, "ruleset", string(g.cfg.Ruleset),
		"tools", string(g.cfg.ToolMode), "lanes", len(g.sessions))
}

// Tick advances every timer to now.
func (g *Game) Tick(now time.Time) {
	if !g.ctx.Running() {
		return
	}
	g.sched.Advance(now)
	g.syncActive()
	for _, s := range g.sessions {
		s.Update(now)
	}
	g.manager.Update(now)
	if !g.ctx.Running() {
		return
	}
	if ticks := g.round.DueTicks(now); ticks > 0 {
		g.ctx.AddScore(ticks * g.manager.Count())
	}
	if g.round.Expired(now) {
		g.manager.TriggerGameOver(ReasonTimeUp)
	}
}

// HandleRune offers a keystroke to every lane; only lanes whose gate is
// open accept it. It reports whether any lane did.
func (g *Game) HandleRune(r rune) bool {
	if !g.ctx.Running() {
		return false
	}
	g.syncActive()
	accepted := false
	for _, s := range g.sessions {
		if s.HandleCharacter(r) {
			accepted = true
		}
		if !g.ctx.Running() {
			break
		}
	}
	return accepted
}

// HandleBackspace retracts a character in every open lane.
func (g *Game) HandleBackspace() bool {
	if !g.ctx.Running() {
		return false
	}
	accepted := false
	for _, s := range g.sessions {
		if s.HandleBackspace() {
			accepted = true
		}
	}
	return accepted
}

// UseTool applies the held tool. It reports whether the tool matched a
// requirement.
func (g *Game) UseTool() bool {
	if !g.ctx.Running() {
		return false
	}
	name, ok := g.deps.Hand.HeldTool()
	if !ok {
		return false
	}
	g.syncActive()
	switch g.cfg.ToolMode {
	case model.ToolModeQueue:
		return g.queue.UseTool(name).Matched
	case model.ToolModePerVictim:
		lane := g.HandLane()
		matched, found := g.manager.ApplyToolToLane(lane, name)
		if !found {
			return false
		}
		if !matched {
			g.manager.ApplyToLane(lane, -tools.DefaultDamageOnMiss)
		}
		g.deps.Logger.Debug("tool offered", "lane", lane, "tool", string(name), "matched", matched)
		return matched
	default:
		return false
	}
}

// Abort ends a running round early.
func (g *Game) Abort() {
	if g.ctx.Running() {
		g.manager.TriggerGameOver(ReasonAbandoned)
	}
}

func (g *Game) gate(lane int) typing.Gate {
	return func() bool {
		if !g.ctx.Running() {
			return false
		}
		x, _ := g.deps.Hand.HandPosition()
		if ZoneFor(x) != g.zones[lane] {
			return false
		}
		switch g.cfg.ToolMode {
		case model.ToolModeQueue:
			return g.queue.Empty()
		case model.ToolModePerVictim:
			return !g.manager.LaneNeedsTool(lane)
		default:
			return true
		}
	}
}

// HandLane returns the first lane in the hand's zone, or -1.
func (g *Game) HandLane() int {
	x, _ := g.deps.Hand.HandPosition()
	zone := ZoneFor(x)
	for lane, z := range g.zones {
		if z == zone {
			return lane
		}
	}
	return -1
}

func (g *Game) syncActive() {
	if slot, ok := g.manager.SlotForLane(g.HandLane()); ok {
		g.manager.SetActiveSlot(slot)
	}
}

// signed flips a heal into damage under the drain ruleset.
func (g *Game) signed(heal int) int {
	if g.cfg.Ruleset == model.RulesetDrain {
		return -heal
	}
	return heal
}

// CharacterJudged implements typing.Listener.
func (g *Game) CharacterJudged(lane int, _, typed rune, ok bool) {
	g.deps.Effects.Key(typed, ok)
	if !ok {
		g.manager.ApplyToLane(lane, g.signed(-g.cfg.ErrorDamage))
	}
}

// WordCompleted implements typing.Listener.
func (g *Game) WordCompleted(lane int, word string, perfect bool) {
	if !perfect {
		return
	}
	g.deps.Effects.Complete()
	g.ctx.AddScore(g.cfg.WordScore)
	g.manager.ApplyToLane(lane, g.signed(g.cfg.WordHeal))
}

// WordMissed implements typing.Listener.
func (g *Game) WordMissed(lane int, word string) {
	g.manager.ApplyToLane(lane, g.signed(-g.cfg.MissDamage))
}

// VictimSpawned implements victim.Listener.
func (g *Game) VictimSpawned(victim.Victim) {}

// VictimRetired implements victim.Listener.
func (g *Game) VictimRetired(victim.Victim, victim.Outcome) {
	if g.cfg.ToolMode == model.ToolModeQueue && g.ctx.Running() {
		g.queue.Fill(g.cfg.QueueLength)
	}
}

// LaneReassigned implements victim.Listener.
func (g *Game) LaneReassigned(lane, slot int) {
	if lane >= 0 && lane < len(g.sessions) {
		g.sessions[lane].Abandon()
	}
}

func (g *Game) onGameOver(reason string) {
	now := g.deps.Clock.Now()
	for _, s := range g.sessions {
		s.Stop()
	}
	g.sched.Clear()
	g.round.Stop()
	result := g.buildResult(reason, now)
	g.result = &result
	g.deps.Logger.Info("round over", "round", g.roundID, "reason", reason, "score", result.Stats.Score)
	if g.deps.Sink != nil {
		g.deps.Sink.OnGameOver(result)
	}
	if g.deps.Recorder != nil {
		if err := g.deps.Recorder.RecordRound(result); err != nil {
			g.deps.Logger.Error("failed to record round", "round", g.roundID, "err", err)
		}
	}
}

func (g *Game) buildResult(reason string, now time.Time) RoundResult {
	stats := model.RoundStats{
		RoundID:      g.roundID,
		StartedAt:    g.startedAt,
		EndedAt:      now,
		Ruleset:      g.cfg.Ruleset,
		ToolMode:     g.cfg.ToolMode,
		Reason:       reason,
		Score:        g.ctx.Score(),
		Healed:       g.manager.Healed(),
		Destroyed:    g.manager.Destroyed(),
		DurationMs:   now.Sub(g.startedAt).Milliseconds(),
		WordBankPath: g.deps.WordBankPath,
	}
	counts := map[string]int{}
	lanes := make([]typing.Stats, 0, len(g.sessions))
	for _, s := range g.sessions {
		ls := s.Stats()
		lanes = append(lanes, ls)
		stats.TotalWords += ls.TotalWords
		stats.CorrectWords += ls.CorrectWords
		stats.CorrectCharacters += ls.CorrectCharacters
		stats.IncorrectCharacters += ls.IncorrectCharacters
		for _, e := range ls.Errors {
			counts[string(unicode.ToLower(e.Expected))]++
		}
	}
	charErrors := make([]model.CharErrors, 0, len(counts))
	for ch, n := range counts {
		charErrors = append(charErrors, model.CharErrors{Char: ch, Incorrect: n})
	}
	sort.Slice(charErrors, func(i, j int) bool {
		if charErrors[i].Incorrect == charErrors[j].Incorrect {
			return charErrors[i].Char < charErrors[j].Char
		}
		return charErrors[i].Incorrect > charErrors[j].Incorrect
	})
	return RoundResult{Stats: stats, CharErrors: charErrors, Lanes: lanes}
}

// Context returns the shared round state.
func (g *Game) Context() *Context { return g.ctx }

// Running reports whether a round is live.
func (g *Game) Running() bool { return g.ctx.Running() }

// Score returns the current score.
func (g *Game) Score() int { return g.ctx.Score() }

// Remaining returns the time left in the round.
func (g *Game) Remaining(now time.Time) time.Duration { return g.round.Remaining(now) }

// Lanes returns the number of lanes.
func (g *Game) Lanes() int { return len(g.sessions) }

// LaneZone returns the hand zone lane is bound to.
func (g *Game) LaneZone(lane int) wordbank.Zone { return g.zones[lane] }

// LaneState returns the presentation state of lane.
func (g *Game) LaneState(lane int) typing.WordState { return g.sessions[lane].State() }

// LaneStats returns the running statistics of lane.
func (g *Game) LaneStats(lane int) typing.Stats { return g.sessions[lane].Stats() }

// LaneOpen reports whether lane would accept a keystroke now.
func (g *Game) LaneOpen(lane int) bool { return g.gate(lane)() }

// Victims returns the live victims.
func (g *Game) Victims() []victim.Victim { return g.manager.Victims() }

// SlotForLane returns the victim slot lane treats.
func (g *Game) SlotForLane(lane int) (int, bool) { return g.manager.SlotForLane(lane) }

// Slots returns the ward size.
func (g *Game) Slots() int { return g.manager.Slots() }

// ToolQueue returns the required tools, front first.
func (g *Game) ToolQueue() []tools.Name { return g.queue.Items() }

// ToolMode returns the gating mode.
func (g *Game) ToolMode() model.ToolMode { return g.cfg.ToolMode }

// Ruleset returns the active ruleset.
func (g *Game) Ruleset() model.Ruleset { return g.cfg.Ruleset }

// Result returns the last finished round.
func (g *Game) Result() (RoundResult, bool) {
	if g.result == nil {
		return RoundResult{}, false
	}
	return *g.result, true
}

// RoundID returns the id of the current or last round.
func (g *Game) RoundID() string { return g.roundID }
