package tui

import (
	"strings"
	"testing"

	"github.com/verte-zerg/plaguetype/internal/challenge"
	"github.com/verte-zerg/plaguetype/internal/typing"
)

func wordState(word string, marks ...challenge.Mark) typing.WordState {
	runes := []rune(word)
	m := make([]challenge.Mark, len(runes))
	copy(m, marks)
	return typing.WordState{Word: word, Runes: runes, Marks: m, Cursor: len(marks)}
}

func TestBuildStyledRunesCursor(t *testing.T) {
	runes := buildStyledRunes(wordState("ab", challenge.MarkCorrect), true)
	if len(runes) != 2 {
		t.Fatalf("expected 2 runes, got %d", len(runes))
	}
	if runes[0].s != correctStyle.Render("a") {
		t.Fatalf("expected correct style for first rune")
	}
	if runes[1].s != cursorStyle.Render("b") {
		t.Fatalf("expected cursor style for second rune")
	}
}

func TestBuildStyledRunesIncorrect(t *testing.T) {
	runes := buildStyledRunes(wordState("ab", challenge.MarkCorrect, challenge.MarkIncorrect), true)
	if runes[1].s != incorrectStyle.Render("b") {
		t.Fatalf("expected incorrect style for second rune")
	}
}

func TestBuildStyledRunesClosedLane(t *testing.T) {
	runes := buildStyledRunes(wordState("ab", challenge.MarkCorrect), false)
	if runes[0].s != correctStyle.Render("a") {
		t.Fatalf("expected judged rune to keep its style")
	}
	if runes[1].s != closedStyle.Render("b") {
		t.Fatalf("expected closed style for pending rune")
	}
}

func TestBuildStyledRunesComplete(t *testing.T) {
	state := wordState("ab", challenge.MarkCorrect, challenge.MarkCorrect)
	state.Complete = true
	for i, r := range buildStyledRunes(state, true) {
		if r.s != completeStyle.Render(string(state.Runes[i])) {
			t.Fatalf("expected complete style at %d", i)
		}
	}
}

func TestCenterIn(t *testing.T) {
	runes := []styledRune{{s: "a", width: 1}, {s: "b", width: 1}}
	if got := centerIn(runes, 6, false); got != "  ab  " {
		t.Fatalf("unexpected centered word %q", got)
	}
	if got := centerIn(runes, 6, true); got != "   ab " {
		t.Fatalf("unexpected shaking word %q", got)
	}
	if got := centerIn(runes, 1, false); got != "a" {
		t.Fatalf("expected word cut to width, got %q", got)
	}
}

func TestLaneRow(t *testing.T) {
	cases := []struct {
		pos  float64
		want int
	}{
		{0, 0},
		{0.5, 4},
		{1, 9},
		{2, 9},
		{-1, 0},
	}
	for _, c := range cases {
		if got := laneRow(c.pos, 10); got != c.want {
			t.Fatalf("laneRow(%v) = %d, want %d", c.pos, got, c.want)
		}
	}
}

func TestRenderLanePlacesWord(t *testing.T) {
	state := wordState("hi")
	state.Position = 1
	lines := renderLane(state, true, 8, 3)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	blank := strings.Repeat(" ", 8)
	if lines[0] != blank || lines[1] != blank {
		t.Fatalf("expected upper rows blank: %q", lines)
	}
	if lines[2] == blank {
		t.Fatalf("expected word on the bottom row")
	}
}

func TestCenterTextAndTitle(t *testing.T) {
	if got := centerText("left", 8); got != "  left  " {
		t.Fatalf("unexpected centered text %q", got)
	}
	if got := titleCase("rescue"); got != "Rescue" {
		t.Fatalf("unexpected title %q", got)
	}
}
