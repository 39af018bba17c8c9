package stats

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/plaguetype/internal/model"
	"github.com/verte-zerg/plaguetype/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "plaguetype.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	var ids []string
	for i := 0; i < 3; i++ {
		start := time.Unix(0, 0).Add(time.Duration(i) * time.Minute)
		end := start.Add(30 * time.Second)
		stats := model.RoundStats{
			StartedAt:           start,
			EndedAt:             end,
			Ruleset:             model.RulesetRescue,
			ToolMode:            model.ToolModeQueue,
			Reason:              "Time's Up!",
			Score:               10 * (i + 1),
			TotalWords:          5,
			CorrectWords:        4,
			CorrectCharacters:   20,
			IncorrectCharacters: 2,
			DurationMs:          end.Sub(start).Milliseconds(),
		}
		id, err := st.InsertRound(ctx, stats, []model.CharErrors{{Char: "b", Incorrect: 1}})
		if err != nil {
			t.Fatalf("insert round: %v", err)
		}
		ids = append(ids, id)
	}

	report, err := BuildReport(ctx, st, model.StatsConfig{Last: 2})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Rounds) != 2 {
		t.Fatalf("expected 2 rounds, got %d", len(report.Rounds))
	}
	if report.Rounds[0].RoundID != ids[1] || report.Rounds[1].RoundID != ids[2] {
		t.Fatalf("unexpected round ids: %+v", report.Rounds)
	}
	if len(report.CharAggs) != 1 || report.CharAggs[0].Incorrect != 2 || report.CharAggs[0].Rounds != 2 {
		t.Fatalf("unexpected char aggregates: %+v", report.CharAggs)
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, 2, 80); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Summary", "Rounds: 2", "Curves", "Recent Rounds", "Per-Character Mistakes"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}
