// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/verte-zerg/plaguetype/internal/model"
)

const (
	sparkChars          = " .:-=+*#%@"
	terminalWidthBackup = 80
	curveLabelWidth     = 10
	defaultRecentRounds = 10
)

// RoundMetrics computes WPM and accuracy for a round.
func RoundMetrics(correct, incorrect int, durationMs int64) (wpm, accuracy float64) {
	if durationMs <= 0 {
		return 0, 0
	}
	minutes := float64(durationMs) / 60000.0
	wpm = (float64(correct) / 5.0) / minutes
	den := float64(correct + incorrect)
	if den > 0 {
		accuracy = float64(correct) / den
	}
	return wpm, accuracy
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// TerminalWidth returns the width of stdout, or a fallback when it is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// RenderSummary prints totals for rounds.
func RenderSummary(w io.Writer, rounds []model.RoundAggregate) error {
	if len(rounds) == 0 {
		_, err := fmt.Fprintln(w, "No rounds found.")
		return err
	}
	var totalWPM, totalAcc float64
	totalScore, bestScore := 0, 0
	healed, destroyed, words := 0, 0, 0
	var played int64
	for _, r := range rounds {
		wpm, acc := RoundMetrics(r.Correct, r.Incorrect, r.DurationMs)
		totalWPM += wpm
		totalAcc += acc
		totalScore += r.Score
		if r.Score > bestScore {
			bestScore = r.Score
		}
		healed += r.Healed
		destroyed += r.Destroyed
		words += r.TotalWords
		played += r.DurationMs
	}
	count := float64(len(rounds))
	lines := []string{
		"Summary",
		fmt.Sprintf("Rounds: %s", humanize.Comma(int64(len(rounds)))),
		fmt.Sprintf("Played: %s", formatDuration(played)),
		fmt.Sprintf("Avg Score: %.1f", float64(totalScore)/count),
		fmt.Sprintf("Best Score: %s", humanize.Comma(int64(bestScore))),
		fmt.Sprintf("Avg WPM: %.2f", totalWPM/count),
		fmt.Sprintf("Avg Accuracy: %.2f%%", (totalAcc/count)*100),
		fmt.Sprintf("Words: %s", humanize.Comma(int64(words))),
		fmt.Sprintf("Healed: %d  Destroyed: %d", healed, destroyed),
		"",
	}
	return writeLines(w, lines)
}

// RenderCurves prints score and WPM sparklines smoothed over window rounds,
// clipped to the most recent rounds that fit in totalWidth.
func RenderCurves(w io.Writer, rounds []model.RoundAggregate, window, totalWidth int) error {
	if len(rounds) == 0 {
		return nil
	}
	scores := make([]float64, len(rounds))
	wpms := make([]float64, len(rounds))
	for i, r := range rounds {
		scores[i] = float64(r.Score)
		wpms[i], _ = RoundMetrics(r.Correct, r.Incorrect, r.DurationMs)
	}
	scores = MovingAverage(scores, window)
	wpms = MovingAverage(wpms, window)

	width := totalWidth - curveLabelWidth
	if width < 1 {
		width = 1
	}
	if len(scores) > width {
		scores = scores[len(scores)-width:]
		wpms = wpms[len(wpms)-width:]
	}
	return writeLines(w, []string{
		"Curves",
		fmt.Sprintf("%-*s%s", curveLabelWidth, "Score", Sparkline(scores)),
		fmt.Sprintf("%-*s%s", curveLabelWidth, "WPM", Sparkline(wpms)),
		"",
	})
}

// RenderRecent prints the last n rounds, newest first.
func RenderRecent(w io.Writer, rounds []model.RoundAggregate, n int) error {
	if len(rounds) == 0 {
		return nil
	}
	if n <= 0 {
		n = defaultRecentRounds
	}
	start := len(rounds) - n
	if start < 0 {
		start = 0
	}
	cols := []column{
		{title: "When"}, {title: "Ruleset"}, {title: "Result"},
		{title: "Score", numeric: true}, {title: "WPM", numeric: true}, {title: "Accuracy", numeric: true},
		{title: "Healed", numeric: true}, {title: "Destroyed", numeric: true},
	}
	rows := make([][]string, 0, len(rounds)-start)
	for i := len(rounds) - 1; i >= start; i-- {
		r := rounds[i]
		wpm, acc := RoundMetrics(r.Correct, r.Incorrect, r.DurationMs)
		rows = append(rows, []string{
			humanize.Time(r.EndedAt),
			string(r.Ruleset),
			r.Reason,
			humanize.Comma(int64(r.Score)),
			fmt.Sprintf("%.1f", wpm),
			fmt.Sprintf("%.2f%%", acc*100),
			fmt.Sprintf("%d", r.Healed),
			fmt.Sprintf("%d", r.Destroyed),
		})
	}
	lines := append([]string{"Recent Rounds"}, renderTable(cols, rows)...)
	return writeLines(w, append(lines, ""))
}

// RenderCharTable prints per-character mistakes, worst first.
func RenderCharTable(w io.Writer, aggs []model.CharAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No character mistakes found.")
		return err
	}
	sorted := sortByIncorrect(aggs)
	cols := []column{
		{title: "Char"},
		{title: "Incorrect", numeric: true},
		{title: "Rounds", numeric: true},
		{title: "Per Round", numeric: true},
	}
	rows := make([][]string, 0, len(sorted))
	for _, agg := range sorted {
		perRound := 0.0
		if agg.Rounds > 0 {
			perRound = float64(agg.Incorrect) / float64(agg.Rounds)
		}
		label := agg.Char
		if label == " " {
			label = "<space>"
		}
		rows = append(rows, []string{
			label,
			fmt.Sprintf("%d", agg.Incorrect),
			fmt.Sprintf("%d", agg.Rounds),
			fmt.Sprintf("%.2f", perRound),
		})
	}
	lines := append([]string{"Per-Character Mistakes"}, renderTable(cols, rows)...)
	return writeLines(w, append(lines, ""))
}

func sortByIncorrect(aggs []model.CharAggregate) []model.CharAggregate {
	sorted := make([]model.CharAggregate, len(aggs))
	copy(sorted, aggs)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Incorrect == sorted[j].Incorrect {
			return sorted[i].Char < sorted[j].Char
		}
		return sorted[i].Incorrect > sorted[j].Incorrect
	})
	return sorted
}

func formatDuration(ms int64) string {
	secs := ms / 1000
	return fmt.Sprintf("%dm%02ds", secs/60, secs%60)
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
