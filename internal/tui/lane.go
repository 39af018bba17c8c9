package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/verte-zerg/plaguetype/internal/challenge"
	"github.com/verte-zerg/plaguetype/internal/typing"
)

type styledRune struct {
	s     string
	width int
}

func buildStyledRunes(state typing.WordState, open bool) []styledRune {
	out := make([]styledRune, 0, len(state.Runes))
	for i, target := range state.Runes {
		mark := challenge.MarkPending
		if i < len(state.Marks) {
			mark = state.Marks[i]
		}
		var style lipgloss.Style
		switch {
		case state.Complete:
			style = completeStyle
		case mark == challenge.MarkCorrect:
			style = correctStyle
		case mark == challenge.MarkIncorrect:
			style = incorrectStyle
		case !open:
			style = closedStyle
		case i == state.Cursor:
			style = cursorStyle
		default:
			style = pendingStyle
		}
		out = append(out, styledRune{
			s:     style.Render(string(target)),
			width: runewidth.RuneWidth(target),
		})
	}
	return out
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

// centerIn pads the word to width cells. A shaking word is nudged one cell
// right. Words wider than the column are cut on a rune boundary.
func centerIn(runes []styledRune, width int, shaking bool) string {
	for lineWidthOf(runes) > width && len(runes) > 0 {
		runes = runes[:len(runes)-1]
	}
	free := width - lineWidthOf(runes)
	left := free / 2
	if shaking && left < free {
		left++
	}
	return strings.Repeat(" ", left) + renderStyledRunes(runes) + strings.Repeat(" ", free-left)
}

// laneRow maps a fall position to a row in a lane of height rows.
func laneRow(position float64, height int) int {
	if height <= 1 {
		return 0
	}
	if position < 0 {
		position = 0
	}
	if position > 1 {
		position = 1
	}
	return int(position * float64(height-1))
}

// renderLane draws one lane as height lines of width cells.
func renderLane(state typing.WordState, open bool, width, height int) []string {
	blank := strings.Repeat(" ", width)
	lines := make([]string, height)
	for i := range lines {
		lines[i] = blank
	}
	if len(state.Runes) == 0 || height <= 0 {
		return lines
	}
	row := laneRow(state.Position, height)
	lines[row] = centerIn(buildStyledRunes(state, open), width, state.Shaking)
	return lines
}

// handRow places a marker under the hand position in a row of width cells.
func handRow(x, limit float64, width int, label string) string {
	if width <= 0 {
		return ""
	}
	col := 0
	if limit > 0 {
		col = int((x + limit) / (2 * limit) * float64(width-1))
	}
	if col < 0 {
		col = 0
	}
	if col >= width {
		col = width - 1
	}
	marker := "^"
	if label != "" {
		marker = "^ " + label
	}
	line := strings.Repeat(" ", col) + marker
	if w := runewidth.StringWidth(line); w > width {
		line = runewidth.Truncate(line, width, "")
	} else {
		line += strings.Repeat(" ", width-w)
	}
	return handStyle.Render(line)
}

func centerText(s string, width int) string {
	s = runewidth.Truncate(s, width, "")
	free := width - runewidth.StringWidth(s)
	left := free / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", free-left)
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}
