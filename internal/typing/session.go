// Package typing implements the per-lane typing session: the falling word,
// keystroke judging and running statistics.
package typing

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/verte-zerg/plaguetype/internal/challenge"
	"github.com/verte-zerg/plaguetype/internal/clock"
	"github.com/verte-zerg/plaguetype/internal/falltimer"
	"github.com/verte-zerg/plaguetype/internal/scheduler"
)

// Default feedback delays.
const (
	DefaultStartDelay    = 100 * time.Millisecond
	DefaultAdvanceDelay  = 500 * time.Millisecond
	DefaultShakeDuration = 300 * time.Millisecond
)

// Gate reports whether keystrokes may currently reach the session.
type Gate func() bool

// Listener receives gameplay outcomes.
type Listener interface {
	CharacterJudged(lane int, expected, typed rune, ok bool)
	WordCompleted(lane int, word string, perfect bool)
	WordMissed(lane int, word string)
}

// Renderer receives presentation updates.
type Renderer interface {
	RenderWordState(state WordState)
	RenderStats(lane int, stats Stats)
}

// WordState is what the presentation layer needs to draw a lane.
type WordState struct {
	Lane     int
	Word     string
	Runes    []rune
	Marks    []challenge.Mark
	Cursor   int
	Typed    string
	Position float64
	Progress float64
	// Complete is set between a finished word and the next one.
	Complete bool
	Shaking  bool
}

// Config tunes one session.
type Config struct {
	Fall          falltimer.Config
	StartDelay    time.Duration
	AdvanceDelay  time.Duration
	ShakeDuration time.Duration
	WeakFactor    float64
}

// DefaultConfig returns the default delays and fall range.
func DefaultConfig() Config {
	return Config{
		Fall:          falltimer.DefaultConfig(),
		StartDelay:    DefaultStartDelay,
		AdvanceDelay:  DefaultAdvanceDelay,
		ShakeDuration: DefaultShakeDuration,
	}
}

// Deps are the collaborators of a session. Gate, Listener, Renderer and
// Logger may be nil.
type Deps struct {
	Picker    *challenge.Picker
	Scheduler *scheduler.Scheduler
	Clock     clock.Clock
	Rand      *rand.Rand
	Gate      Gate
	Listener  Listener
	Renderer  Renderer
	Logger    *slog.Logger
}

// Session is one lane's typing state.
type Session struct {
	lane   int
	entity string
	cfg    Config
	deps   Deps
	fall   *falltimer.Timer

	weakSet map[rune]struct{}

	started   bool
	stoppedAt time.Time
	current   *challenge.Challenge
	last      *challenge.Challenge
	cursor    int
	typed     []rune
	shaking   bool
	stats     Stats
}

// New returns an idle session for lane.
func New(lane int, cfg Config, deps Deps) *Session {
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	if deps.Scheduler == nil {
		deps.Scheduler = scheduler.New(deps.Clock)
	}
	return &Session{
		lane:   lane,
		entity: fmt.Sprintf("lane-%d", lane),
		cfg:    cfg,
		deps:   deps,
		fall:   falltimer.New(cfg.Fall, deps.Clock, deps.Rand),
	}
}

// Lane returns the lane id.
func (s *Session) Lane() int { return s.lane }

// SetGate replaces the keystroke gate.
func (s *Session) SetGate(g Gate) { s.deps.Gate = g }

// SetWeakSet biases word selection toward the given runes.
func (s *Session) SetWeakSet(weak map[rune]struct{}) { s.weakSet = weak }

// Running reports whether the session has started and not been stopped.
func (s *Session) Running() bool { return s.started }

// Start stamps the session start and presents the first word.
func (s *Session) Start() {
	s.started = true
	s.stoppedAt = time.Time{}
	if s.stats.StartedAt.IsZero() {
		s.stats.StartedAt = s.deps.Clock.Now()
	}
	s.NextWord()
}

// NextWord selects a fresh word and schedules its fall. It is a no-op when
// the word bank is empty.
func (s *Session) NextWord() {
	if s.deps.Picker == nil {
		return
	}
	var (
		next *challenge.Challenge
		ok   bool
	)
	if len(s.weakSet) > 0 {
		next, ok = s.deps.Picker.NextWeighted(s.weakSet, s.cfg.WeakFactor)
	} else {
		next, ok = s.deps.Picker.Next()
	}
	if !ok {
		return
	}
	s.deps.Scheduler.Cancel(s.key(scheduler.KindNextWord))
	s.current = next
	s.last = nil
	s.cursor = 0
	s.typed = s.typed[:0]
	s.fall.ResetPosition()
	s.deps.Scheduler.Schedule(s.key(scheduler.KindFallStart), s.cfg.StartDelay, s.fall.Start)
	s.render()
}

// HandleCharacter judges r against the next expected character.
// It reports whether the keystroke was accepted.
func (s *Session) HandleCharacter(r rune) bool {
	if s.current == nil || s.cursor >= s.current.Len() || !s.open() {
		return false
	}
	word := s.current
	pos := s.cursor
	expected := word.At(pos)
	ok := word.Judge(pos, r)

	s.stats.TotalCharacters++
	if ok {
		s.stats.CorrectCharacters++
	} else {
		s.stats.IncorrectCharacters++
		s.stats.Errors = append(s.stats.Errors, ErrorEntry{
			Word:     word.Text(),
			Position: pos,
			Expected: expected,
			Typed:    r,
		})
		s.shake()
	}
	s.typed = append(s.typed, r)
	s.cursor++
	if s.deps.Listener != nil {
		s.deps.Listener.CharacterJudged(s.lane, expected, r, ok)
	}

	if s.current == word && s.cursor == word.Len() {
		s.complete(word)
	}
	s.render()
	s.renderStats()
	return true
}

func (s *Session) complete(word *challenge.Challenge) {
	perfect := word.Matches(string(s.typed))
	s.stats.TotalWords++
	if perfect {
		s.stats.CorrectWords++
	}
	s.fall.Stop()
	s.deps.Scheduler.Cancel(s.key(scheduler.KindFallStart))
	// Keystrokes between now and the next word must not touch cursor state.
	s.current = nil
	s.last = word
	s.deps.Scheduler.Schedule(s.key(scheduler.KindNextWord), s.cfg.AdvanceDelay, s.NextWord)
	s.deps.Logger.Debug("word completed", "lane", s.lane, "word", word.Text(), "perfect", perfect)
	if s.deps.Listener != nil {
		s.deps.Listener.WordCompleted(s.lane, word.Text(), perfect)
	}
}

// HandleBackspace removes the last typed character of the current word.
func (s *Session) HandleBackspace() bool {
	if s.current == nil || !s.open() {
		return false
	}
	if s.cursor == 0 {
		return false
	}
	s.cursor--
	s.typed = s.typed[:s.cursor]
	s.current.Retract(s.cursor)
	s.render()
	return true
}

// Update advances the fall to now. A word reaching the bottom unfinished is
// a miss: it is counted as a finished word, reported to the listener and
// replaced immediately.
func (s *Session) Update(now time.Time) {
	if !s.started {
		return
	}
	if !s.fall.Update(now) || s.current == nil {
		return
	}
	word := s.current
	s.current = nil
	s.stats.TotalWords++
	s.deps.Logger.Debug("word missed", "lane", s.lane, "word", word.Text())
	if s.deps.Listener != nil {
		s.deps.Listener.WordMissed(s.lane, word.Text())
	}
	s.renderStats()
	if s.started && s.current == nil {
		s.NextWord()
	}
}

// Abandon drops the pending word and begins a fresh one without carrying
// the fall over.
func (s *Session) Abandon() {
	if !s.started {
		return
	}
	s.deps.Scheduler.CancelEntity(s.entity)
	s.current = nil
	s.fall.ResetPosition()
	s.NextWord()
}

// Stop ends the session. Statistics are kept until Reset.
func (s *Session) Stop() {
	if s.started {
		s.stoppedAt = s.deps.Clock.Now()
	}
	s.started = false
	s.deps.Scheduler.CancelEntity(s.entity)
	s.current = nil
	s.last = nil
	s.cursor = 0
	s.typed = s.typed[:0]
	s.shaking = false
	s.fall.ResetPosition()
	s.render()
}

// Reset stops the session and clears its statistics.
func (s *Session) Reset() {
	s.Stop()
	s.stats = Stats{}
	s.stoppedAt = time.Time{}
	s.renderStats()
}

// Stats returns a snapshot with freshly computed rates.
func (s *Session) Stats() Stats {
	out := s.stats.clone()
	if !out.StartedAt.IsZero() {
		end := s.deps.Clock.Now()
		if !s.stoppedAt.IsZero() {
			end = s.stoppedAt
		}
		out.Duration = end.Sub(out.StartedAt)
	}
	out.WordsPerMinute = WordsPerMinute(out.CorrectCharacters, out.Duration)
	out.Accuracy = Accuracy(out.CorrectCharacters, out.TotalCharacters)
	return out
}

// State returns the current lane presentation.
func (s *Session) State() WordState {
	st := WordState{
		Lane:     s.lane,
		Cursor:   s.cursor,
		Typed:    string(s.typed),
		Position: s.fall.Position(),
		Progress: s.fall.Progress(),
		Shaking:  s.shaking,
	}
	word := s.current
	if word == nil && s.last != nil {
		word = s.last
		st.Complete = true
	}
	if word != nil {
		st.Word = word.Text()
		st.Runes = word.Runes()
		st.Marks = word.Marks()
	}
	return st
}

// CurrentWord returns the active challenge text, or "" when none is active.
func (s *Session) CurrentWord() string {
	if s.current == nil {
		return ""
	}
	return s.current.Text()
}

// Cursor returns the index of the next character to be judged.
func (s *Session) Cursor() int { return s.cursor }

// Typed returns what has been typed for the current word.
func (s *Session) Typed() string { return string(s.typed) }

// Falling reports whether the current word is descending.
func (s *Session) Falling() bool { return s.fall.Falling() }

func (s *Session) open() bool {
	return s.deps.Gate == nil || s.deps.Gate()
}

func (s *Session) shake() {
	s.shaking = true
	s.deps.Scheduler.Schedule(s.key(scheduler.KindShake), s.cfg.ShakeDuration, func() {
		if !s.shaking {
			return
		}
		s.shaking = false
		s.render()
	})
}

func (s *Session) key(kind scheduler.Kind) scheduler.Key {
	return scheduler.Key{Entity: s.entity, Kind: kind}
}

func (s *Session) render() {
	if s.deps.Renderer != nil {
		s.deps.Renderer.RenderWordState(s.State())
	}
}

func (s *Session) renderStats() {
	if s.deps.Renderer != nil {
		s.deps.Renderer.RenderStats(s.lane, s.Stats())
	}
}
