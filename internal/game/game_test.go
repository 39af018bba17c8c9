package game

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/plaguetype/internal/clock"
	"github.com/verte-zerg/plaguetype/internal/model"
	"github.com/verte-zerg/plaguetype/internal/tools"
	"github.com/verte-zerg/plaguetype/internal/typing"
	"github.com/verte-zerg/plaguetype/internal/victim"
	"github.com/verte-zerg/plaguetype/internal/wordbank"
)

type fakeSink struct {
	words     map[int]typing.WordState
	health    map[int]float64
	tool      tools.Name
	gameOvers []RoundResult
}

func newFakeSink() *fakeSink {
	return &fakeSink{words: map[int]typing.WordState{}, health: map[int]float64{}}
}

func (s *fakeSink) RenderWordState(st typing.WordState) { s.words[st.Lane] = st }
func (s *fakeSink) RenderStats(int, typing.Stats) {}
func (s *fakeSink) UpdateHealthIndicator(slot int, percent float64) { s.health[slot] = percent }
func (s *fakeSink) UpdateToolIndicator(next tools.Name, ok bool) { s.tool = next }
func (s *fakeSink) OnGameOver(result RoundResult) { s.gameOvers = append(s.gameOvers, result) }

type fakeRecorder struct {
	rounds []RoundResult
	err    error
}

func (r *fakeRecorder) RecordRound(result RoundResult) error {
	r.rounds = append(r.rounds, result)
	return r.err
}

type fixture struct {
	game  *Game
	clock *clock.Mock
	hand  *Hand
	sink  *fakeSink
	rec   *fakeRecorder
}

// newFixture builds a single-lane game with the hand over the left lane.
func newFixture(t *testing.T, mutate func(*model.Config)) *fixture {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Lanes = 1
	cfg.ToolMode = model.ToolModeOff
	if mutate != nil {
		mutate(&cfg)
	}
	f := &fixture{
		clock: clock.NewMock(time.Unix(10000, 0)),
		hand:  NewHand(DefaultHandRange, DefaultHandStep),
		sink:  newFakeSink(),
		rec:   &fakeRecorder{},
	}
	f.hand.MoveTo(-DefaultHandRange)
	f.game = New(cfg, Deps{
		Clock:    f.clock,
		Rand:     rand.New(rand.NewSource(1)),
		Entries:  []model.Entry{{Challenge: "hi"}},
		Hand:     f.hand,
		Sink:     f.sink,
		Recorder: f.rec,
	})
	return f
}

func (f *fixture) tick(d time.Duration) {
	f.game.Tick(f.clock.Advance(d))
}

func (f *fixture) typeString(s string) {
	for _, r := range s {
		f.game.HandleRune(r)
	}
}

func (f *fixture) health(t *testing.T, slot int) int {
	t.Helper()
	v, ok := f.game.manager.Victim(slot)
	require.True(t, ok, "slot %d is empty", slot)
	return v.Health
}

func TestZoneFor(t *testing.T) {
	assert.Equal(t, wordbank.ZoneLeft, ZoneFor(-2.5))
	assert.Equal(t, wordbank.ZoneCenter, ZoneFor(-2))
	assert.Equal(t, wordbank.ZoneCenter, ZoneFor(2))
	assert.Equal(t, wordbank.ZoneRight, ZoneFor(2.01))
}

func TestHandMovesWithinRange(t *testing.T) {
	h := NewHand(5, 2.5)
	for i := 0; i < 5; i++ {
		h.MoveLeft()
	}
	x, _ := h.HandPosition()
	assert.Equal(t, -5.0, x)
	assert.Equal(t, wordbank.ZoneLeft, h.Zone())
	h.Center()
	h.MoveRight()
	assert.Equal(t, wordbank.ZoneRight, h.Zone())

	assert.False(t, h.IsHoldingTool())
	h.Pick(tools.Cross)
	name, ok := h.HeldTool()
	assert.True(t, ok)
	assert.Equal(t, tools.Cross, name)
	h.Drop()
	assert.False(t, h.IsHoldingTool())
}

func TestRoundClock(t *testing.T) {
	start := time.Unix(0, 0)
	c := NewRoundClock(300*time.Second, 5*time.Second)
	c.Start(start)
	assert.Equal(t, 300*time.Second, c.Remaining(start))
	assert.Equal(t, 0, c.DueTicks(start.Add(4*time.Second)))
	assert.Equal(t, 2, c.DueTicks(start.Add(11*time.Second)))
	assert.Equal(t, 1, c.DueTicks(start.Add(15*time.Second)))
	assert.False(t, c.Expired(start.Add(299*time.Second)))
	assert.True(t, c.Expired(start.Add(300*time.Second)))
	assert.Zero(t, c.Remaining(start.Add(400*time.Second)))
}

func TestCorrectWordHealsInRescue(t *testing.T) {
	f := newFixture(t, nil)
	f.game.Start()
	f.typeString("hi")
	assert.Equal(t, 50, f.health(t, 0))
	assert.Equal(t, 10, f.game.Score())
	assert.InDelta(t, 25.0, f.sink.health[0], 1e-9)

	f.tick(DefaultConfig().AdvanceDelay)
	f.typeString("x")
	assert.Equal(t, 45, f.health(t, 0))
}

func TestImperfectWordAppliesNothing(t *testing.T) {
	f := newFixture(t, func(c *model.Config) { c.ErrorDamage = 0 })
	f.game.Start()
	f.typeString("hx")
	assert.Zero(t, f.health(t, 0))
	assert.Zero(t, f.game.Score())
}

func TestDrainInvertsDeltas(t *testing.T) {
	f := newFixture(t, func(c *model.Config) { c.Ruleset = model.RulesetDrain })
	f.game.Start()
	f.typeString("hi")
	assert.Equal(t, 150, f.health(t, 0))
	f.tick(DefaultConfig().AdvanceDelay)
	f.typeString("x")
	assert.Equal(t, 155, f.health(t, 0))
}

func TestMissedWordDamages(t *testing.T) {
	f := newFixture(t, func(c *model.Config) {
		c.MinFall = time.Second
		c.MaxFall = time.Second
	})
	f.game.Start()
	f.typeString("hi")
	require.Equal(t, 50, f.health(t, 0))

	f.tick(500 * time.Millisecond)
	f.tick(100 * time.Millisecond)
	f.tick(time.Second)
	assert.Equal(t, 40, f.health(t, 0))
}

func TestHandZoneGatesLanes(t *testing.T) {
	f := newFixture(t, func(c *model.Config) { c.Lanes = 3 })
	f.hand.Center()
	f.game.Start()
	assert.False(t, f.game.LaneOpen(0))
	assert.True(t, f.game.LaneOpen(1))

	require.True(t, f.game.HandleRune('h'))
	assert.Equal(t, 0, f.game.LaneState(0).Cursor)
	assert.Equal(t, 1, f.game.LaneState(1).Cursor)
	assert.Equal(t, 0, f.game.LaneState(2).Cursor)

	f.hand.MoveTo(DefaultHandRange)
	f.game.HandleRune('h')
	assert.Equal(t, 1, f.game.LaneState(2).Cursor)
	assert.Equal(t, 1, f.game.LaneState(1).Cursor)
	assert.Equal(t, "h", f.sink.words[2].Typed)
}

func TestQueueGatesTyping(t *testing.T) {
	f := newFixture(t, func(c *model.Config) {
		c.ToolMode = model.ToolModeQueue
		c.QueueLength = 1
	})
	f.game.Start()
	queue := f.game.ToolQueue()
	require.Len(t, queue, 1)
	assert.Equal(t, queue[0], f.sink.tool)
	assert.False(t, f.game.HandleRune('h'), "typing waits for the queue")

	f.hand.Pick(queue[0])
	assert.True(t, f.game.UseTool())
	assert.Equal(t, 100, f.game.Score())
	assert.Equal(t, 15, f.health(t, 0))
	assert.Empty(t, f.game.ToolQueue())
	assert.True(t, f.game.HandleRune('h'))
}

func TestQueueWrongTool(t *testing.T) {
	f := newFixture(t, func(c *model.Config) {
		c.ToolMode = model.ToolModeQueue
		c.QueueLength = 1
		c.Ruleset = model.RulesetDrain
	})
	f.game.Start()
	front := f.game.ToolQueue()[0]
	for _, n := range tools.All() {
		if n != front {
			f.hand.Pick(n)
			break
		}
	}
	assert.False(t, f.game.UseTool())
	assert.Equal(t, -50, f.game.Score())
	assert.Equal(t, 180, f.health(t, 0))
	assert.Equal(t, []tools.Name{front}, f.game.ToolQueue())
}

func TestNoToolHeld(t *testing.T) {
	f := newFixture(t, func(c *model.Config) { c.ToolMode = model.ToolModeQueue })
	f.game.Start()
	assert.False(t, f.game.UseTool())
	assert.Zero(t, f.game.Score())
}

func TestQueueRefillsWhenVictimLeaves(t *testing.T) {
	f := newFixture(t, func(c *model.Config) {
		c.ToolMode = model.ToolModeQueue
		c.QueueLength = 2
		c.WordHeal = 200
	})
	f.game.Start()
	for _, n := range f.game.ToolQueue() {
		f.hand.Pick(n)
		require.True(t, f.game.UseTool())
	}
	require.Empty(t, f.game.ToolQueue())
	f.typeString("hi")
	assert.Equal(t, 1, f.game.manager.Healed())
	assert.Len(t, f.game.ToolQueue(), 2)
	assert.Empty(t, f.game.Victims())
	assert.True(t, f.game.Running())
}

func TestQueueRefillsWhenToolHealRetiresVictim(t *testing.T) {
	f := newFixture(t, func(c *model.Config) {
		c.ToolMode = model.ToolModeQueue
		c.QueueLength = 3
	})
	f.game.Start()
	require.True(t, f.game.manager.ApplyToSlot(0, 190))
	f.hand.Pick(f.game.ToolQueue()[0])
	require.True(t, f.game.UseTool())
	assert.Equal(t, 1, f.game.manager.Healed())
	assert.Len(t, f.game.ToolQueue(), 3)
}

func TestEmptyQueueToolCosts(t *testing.T) {
	f := newFixture(t, func(c *model.Config) {
		c.ToolMode = model.ToolModeQueue
		c.QueueLength = 1
		c.Ruleset = model.RulesetDrain
	})
	f.game.Start()
	front := f.game.ToolQueue()[0]
	f.hand.Pick(front)
	require.True(t, f.game.UseTool())
	require.Empty(t, f.game.ToolQueue())

	assert.False(t, f.game.UseTool())
	assert.Equal(t, 50, f.game.Score())
	assert.Equal(t, 180, f.health(t, 0))
	assert.Empty(t, f.game.ToolQueue())
}

func TestPerVictimTool(t *testing.T) {
	f := newFixture(t, func(c *model.Config) {
		c.ToolMode = model.ToolModePerVictim
		c.Ruleset = model.RulesetDrain
	})
	f.game.Start()
	victims := f.game.Victims()
	require.Len(t, victims, 1)
	required := victims[0].RequiredTool
	require.True(t, required.Valid())
	assert.False(t, f.game.HandleRune('h'))

	for _, n := range tools.All() {
		if n != required {
			f.hand.Pick(n)
			break
		}
	}
	assert.False(t, f.game.UseTool())
	assert.Equal(t, 180, f.health(t, 0))
	assert.Zero(t, f.game.Score(), "per-victim tools do not score")

	f.hand.Pick(required)
	assert.True(t, f.game.UseTool())
	assert.True(t, f.game.HandleRune('h'))
}

func TestLastVictimDestroyedEndsRoundOnce(t *testing.T) {
	f := newFixture(t, func(c *model.Config) {
		c.Ruleset = model.RulesetDrain
		c.WordHeal = 200
	})
	f.game.Start()
	f.typeString("hi")

	require.Len(t, f.sink.gameOvers, 1)
	result := f.sink.gameOvers[0]
	assert.Equal(t, victim.ReasonAllDestroyed, result.Stats.Reason)
	assert.Equal(t, 1, result.Stats.Destroyed)
	assert.Equal(t, 1, result.Stats.CorrectWords)
	assert.Equal(t, 10, result.Stats.Score)
	assert.NotEmpty(t, result.Stats.RoundID)
	assert.False(t, f.game.Running())

	for i := 0; i < 3; i++ {
		f.tick(time.Second)
		f.game.Abort()
	}
	assert.Len(t, f.sink.gameOvers, 1)
	assert.Len(t, f.rec.rounds, 1)
}

func TestTimeUp(t *testing.T) {
	f := newFixture(t, nil)
	f.game.Start()
	assert.Equal(t, DefaultRoundLength, f.game.Remaining(f.clock.Now()))
	f.tick(DefaultRoundLength)
	require.Len(t, f.sink.gameOvers, 1)
	assert.Equal(t, ReasonTimeUp, f.sink.gameOvers[0].Stats.Reason)
	assert.False(t, f.game.HandleRune('h'))
	f.tick(time.Second)
	assert.Len(t, f.sink.gameOvers, 1)
}

func TestScoreTickCountsVictims(t *testing.T) {
	f := newFixture(t, nil)
	f.game.Start()
	f.tick(5 * time.Second)
	assert.Equal(t, 1, f.game.Score())
	f.tick(5 * time.Second)
	assert.Equal(t, 2, len(f.game.Victims()))
	assert.Equal(t, 3, f.game.Score())
}

func TestAbortRecordsCharErrors(t *testing.T) {
	f := newFixture(t, func(c *model.Config) { c.ErrorDamage = 0 })
	f.rec.err = errors.New("disk full")
	f.game.Start()
	f.typeString("hx")
	f.game.Abort()

	require.Len(t, f.rec.rounds, 1)
	result := f.rec.rounds[0]
	assert.Equal(t, ReasonAbandoned, result.Stats.Reason)
	assert.Equal(t, 1, result.Stats.TotalWords)
	assert.Equal(t, 1, result.Stats.IncorrectCharacters)
	assert.Equal(t, []model.CharErrors{{Char: "i", Incorrect: 1}}, result.CharErrors)
	got, ok := f.game.Result()
	require.True(t, ok)
	assert.Equal(t, result.Stats.RoundID, got.Stats.RoundID)
}

func TestRestartAfterGameOver(t *testing.T) {
	f := newFixture(t, nil)
	f.game.Start()
	first := f.game.RoundID()
	f.game.Abort()
	f.game.Start()
	assert.True(t, f.game.Running())
	assert.NotEqual(t, first, f.game.RoundID())
	assert.Zero(t, f.game.Score())
	assert.Len(t, f.game.Victims(), 1)
	f.typeString("hi")
	assert.Equal(t, 50, f.health(t, 0))
}
