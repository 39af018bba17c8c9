package tools

import (
	"log/slog"
	"math/rand"
	"time"
)

// Score and health amounts for tool use.
const (
	DefaultReward       = 100
	DefaultPenalty      = 50
	DefaultHealOnMatch  = 15
	DefaultDamageOnMiss = 20
)

// Scorer accumulates the signed round score.
type Scorer interface {
	AddScore(delta int) int
}

// Healer applies a signed health delta to the victim currently being
// treated.
type Healer interface {
	HealActiveVictim(amount int)
}

// Indicator receives the tool the player must use next. ok is false when
// nothing is required.
type Indicator interface {
	UpdateToolIndicator(next Name, ok bool)
}

// QueueConfig holds the tool use rewards.
type QueueConfig struct {
	Reward       int
	Penalty      int
	HealOnMatch  int
	DamageOnMiss int
}

// DefaultQueueConfig returns the standard rewards.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		Reward:       DefaultReward,
		Penalty:      DefaultPenalty,
		HealOnMatch:  DefaultHealOnMatch,
		DamageOnMiss: DefaultDamageOnMiss,
	}
}

// QueueDeps are the collaborators of a Queue. Healer, Indicator and Logger
// may be nil.
type QueueDeps struct {
	Rand      *rand.Rand
	Scorer    Scorer
	Healer    Healer
	Indicator Indicator
	Logger    *slog.Logger
}

// Outcome describes one UseTool attempt.
type Outcome struct {
	Used        Name
	Expected    Name
	Matched     bool
	ScoreDelta  int
	HealthDelta int
}

// Queue is the global FIFO of required tools.
type Queue struct {
	cfg   QueueConfig
	deps  QueueDeps
	items []Name
}

// NewQueue returns an empty queue.
func NewQueue(cfg QueueConfig, deps QueueDeps) *Queue {
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	return &Queue{cfg: cfg, deps: deps}
}

// Fill replaces the queue with n tools drawn uniformly with replacement.
func (q *Queue) Fill(n int) {
	q.items = make([]Name, 0, n)
	for i := 0; i < n; i++ {
		q.items = append(q.items, Random(q.deps.Rand))
	}
	q.publish()
}

// Push appends specific tools.
func (q *Queue) Push(names ...Name) {
	q.items = append(q.items, names...)
	q.publish()
}

// NextRequired returns the front of the queue.
func (q *Queue) NextRequired() (Name, bool) {
	if len(q.items) == 0 {
		return None, false
	}
	return q.items[0], true
}

// UseTool checks name against the front of the queue. A match pops it,
// rewards the score and heals the active victim. A mismatch costs score and
// damages the active victim while the queue stays as it was. With nothing
// required any tool is a mismatch.
func (q *Queue) UseTool(name Name) Outcome {
	front, ok := q.NextRequired()
	out := Outcome{Used: name, Expected: front}
	if ok && name == front {
		q.items = q.items[1:]
		out.Matched = true
		out.ScoreDelta = q.cfg.Reward
		out.HealthDelta = q.cfg.HealOnMatch
	} else {
		out.ScoreDelta = -q.cfg.Penalty
		out.HealthDelta = -q.cfg.DamageOnMiss
	}
	if q.deps.Scorer != nil {
		q.deps.Scorer.AddScore(out.ScoreDelta)
	}
	if q.deps.Healer != nil {
		q.deps.Healer.HealActiveVictim(out.HealthDelta)
	}
	q.deps.Logger.Debug("tool used", "tool", string(name), "expected", string(front), "matched", out.Matched)
	if out.Matched {
		q.publish()
	}
	return out
}

// Items returns a copy of the queue, front first.
func (q *Queue) Items() []Name {
	out := make([]Name, len(q.items))
	copy(out, q.items)
	return out
}

// Len returns the number of queued tools.
func (q *Queue) Len() int { return len(q.items) }

// Empty reports whether no tool is required.
func (q *Queue) Empty() bool { return len(q.items) == 0 }

// Reset empties the queue.
func (q *Queue) Reset() {
	q.items = nil
	q.publish()
}

func (q *Queue) publish() {
	if q.deps.Indicator == nil {
		return
	}
	next, ok := q.NextRequired()
	q.deps.Indicator.UpdateToolIndicator(next, ok)
}
