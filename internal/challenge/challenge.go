package challenge

import (
	"golang.org/x/text/cases"

	"github.com/verte-zerg/plaguetype/internal/model"
)

// Mark is the judged state of one character.
type Mark uint8

// Character marks.
const (
	MarkPending Mark = iota
	MarkCorrect
	MarkIncorrect
)

// Challenge is one falling word and the judgement of each of its characters.
type Challenge struct {
	Entry model.Entry
	runes []rune
	marks []Mark
}

// New returns a Challenge for entry with every character pending.
func New(entry model.Entry) *Challenge {
	runes := []rune(entry.Challenge)
	return &Challenge{
		Entry: entry,
		runes: runes,
		marks: make([]Mark, len(runes)),
	}
}

// Text returns the challenge text.
func (c *Challenge) Text() string {
	return c.Entry.Challenge
}

// Len returns the challenge length in runes.
func (c *Challenge) Len() int {
	return len(c.runes)
}

// At returns the expected rune at pos.
func (c *Challenge) At(pos int) rune {
	return c.runes[pos]
}

// Runes returns a copy of the challenge runes.
func (c *Challenge) Runes() []rune {
	out := make([]rune, len(c.runes))
	copy(out, c.runes)
	return out
}

// Marks returns a copy of the per-character marks.
func (c *Challenge) Marks() []Mark {
	out := make([]Mark, len(c.marks))
	copy(out, c.marks)
	return out
}

// Judge compares typed against the character at pos, ignoring case, and
// records the result.
func (c *Challenge) Judge(pos int, typed rune) bool {
	ok := EqualFold(string(c.runes[pos]), string(typed))
	if ok {
		c.marks[pos] = MarkCorrect
	} else {
		c.marks[pos] = MarkIncorrect
	}
	return ok
}

// Retract returns the character at pos to pending.
func (c *Challenge) Retract(pos int) {
	c.marks[pos] = MarkPending
}

// Matches reports whether typed equals the challenge, ignoring case.
func (c *Challenge) Matches(typed string) bool {
	return EqualFold(c.Entry.Challenge, typed)
}

// EqualFold compares a and b under Unicode case folding.
func EqualFold(a, b string) bool {
	return foldString(a) == foldString(b)
}

func foldString(s string) string {
	// Casers carry state, so each call gets its own.
	return cases.Fold().String(s)
}
