package typing

import (
	"math"
	"time"
)

// ErrorEntry records one mistyped character.
type ErrorEntry struct {
	Word     string
	Position int
	Expected rune
	Typed    rune
}

// Stats accumulates over a session until Reset. WordsPerMinute and
// Accuracy are recomputed from the counters, never accumulated.
type Stats struct {
	TotalWords          int
	CorrectWords        int
	TotalCharacters     int
	CorrectCharacters   int
	IncorrectCharacters int
	Errors              []ErrorEntry
	WordsPerMinute      int
	Accuracy            int
	StartedAt           time.Time
	Duration            time.Duration
}

// WordsPerMinute returns round((correct/5)/minutes), or 0 when no time has
// passed or the value is not finite.
func WordsPerMinute(correctChars int, elapsed time.Duration) int {
	minutes := elapsed.Minutes()
	if minutes <= 0 {
		return 0
	}
	wpm := (float64(correctChars) / 5.0) / minutes
	if math.IsNaN(wpm) || math.IsInf(wpm, 0) {
		return 0
	}
	return int(math.Round(wpm))
}

// Accuracy returns round(100*correct/total), or 100 when nothing was typed.
func Accuracy(correctChars, totalChars int) int {
	if totalChars <= 0 {
		return 100
	}
	acc := int(math.Round(100 * float64(correctChars) / float64(totalChars)))
	if acc < 0 {
		return 0
	}
	if acc > 100 {
		return 100
	}
	return acc
}

func (s Stats) clone() Stats {
	out := s
	if s.Errors != nil {
		out.Errors = make([]ErrorEntry, len(s.Errors))
		copy(out.Errors, s.Errors)
	}
	return out
}
