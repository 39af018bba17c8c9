// Package scheduler runs delayed callbacks from the frame tick.
//
// Entries are keyed by entity and kind, so rescheduling the same key replaces
// the pending callback instead of stacking a second one. Nothing runs on its
// own goroutine: callbacks fire inside Advance, on the caller's goroutine.
package scheduler

import (
	"sort"
	"time"

	"github.com/verte-zerg/plaguetype/internal/clock"
)

// Kind names a timer purpose.
type Kind string

// Timer kinds used by the game.
const (
	KindFallStart Kind = "fall-start"
	KindNextWord  Kind = "next-word"
	KindShake     Kind = "shake"
)

// Key identifies one scheduled entry.
type Key struct {
	Entity string
	Kind   Kind
}

type entry struct {
	key Key
	due time.Time
	seq uint64
	fn  func()
}

// Scheduler holds pending entries.
type Scheduler struct {
	clock   clock.Clock
	entries map[Key]*entry
	seq     uint64
}

// New returns an empty Scheduler reading time from c.
func New(c clock.Clock) *Scheduler {
	return &Scheduler{clock: c, entries: map[Key]*entry{}}
}

// Schedule runs fn once delay has elapsed, replacing any entry under key.
func (s *Scheduler) Schedule(key Key, delay time.Duration, fn func()) {
	s.seq++
	s.entries[key] = &entry{
		key: key,
		due: s.clock.Now().Add(delay),
		seq: s.seq,
		fn:  fn,
	}
}

// Cancel drops the entry under key. It reports whether one was pending.
func (s *Scheduler) Cancel(key Key) bool {
	if _, ok := s.entries[key]; !ok {
		return false
	}
	delete(s.entries, key)
	return true
}

// CancelEntity drops every entry belonging to entity.
func (s *Scheduler) CancelEntity(entity string) int {
	n := 0
	for k := range s.entries {
		if k.Entity == entity {
			delete(s.entries, k)
			n++
		}
	}
	return n
}

// Pending reports whether key has an entry waiting.
func (s *Scheduler) Pending(key Key) bool {
	_, ok := s.entries[key]
	return ok
}

// Len returns the number of pending entries.
func (s *Scheduler) Len() int {
	return len(s.entries)
}

// Clear drops all entries.
func (s *Scheduler) Clear() {
	s.entries = map[Key]*entry{}
}

// Advance fires the entries due at or before now, earliest first. Entries
// added by callbacks during this call wait for the next Advance.
func (s *Scheduler) Advance(now time.Time) int {
	var due []*entry
	for _, e := range s.entries {
		if !e.due.After(now) {
			due = append(due, e)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due.Equal(due[j].due) {
			return due[i].seq < due[j].seq
		}
		return due[i].due.Before(due[j].due)
	})
	fired := 0
	for _, e := range due {
		// A callback earlier in this batch may have cancelled or replaced it.
		if cur, ok := s.entries[e.key]; !ok || cur != e {
			continue
		}
		delete(s.entries, e.key)
		e.fn()
		fired++
	}
	return fired
}
