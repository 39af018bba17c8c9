package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/plaguetype/internal/model"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "plaguetype.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	return s
}

func round(id string, ended time.Time, ruleset model.Ruleset, score int) model.RoundStats {
	return model.RoundStats{
		RoundID:             id,
		StartedAt:           ended.Add(-time.Minute),
		EndedAt:             ended,
		Ruleset:             ruleset,
		ToolMode:            model.ToolModeQueue,
		Reason:              "Time's Up!",
		Score:               score,
		Healed:              2,
		TotalWords:          10,
		CorrectWords:        8,
		CorrectCharacters:   40,
		IncorrectCharacters: 4,
		DurationMs:          60000,
	}
}

func TestInsertAndListRounds(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, r := range []model.RoundStats{
		round("a", base, model.RulesetRescue, 100),
		round("b", base.Add(time.Hour), model.RulesetDrain, 200),
		round("c", base.Add(2*time.Hour), model.RulesetRescue, 300),
	} {
		if _, err := s.InsertRound(ctx, r, []model.CharErrors{{Char: "e", Incorrect: i + 1}}); err != nil {
			t.Fatalf("insert %s: %v", r.RoundID, err)
		}
	}

	all, err := s.ListRounds(ctx, model.StatsConfig{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].RoundID != "a" || all[2].RoundID != "c" {
		t.Fatalf("expected rounds oldest first, got %+v", all)
	}
	if all[1].Ruleset != model.RulesetDrain || all[1].Score != 200 || all[1].CorrectWords != 8 {
		t.Fatalf("unexpected round fields: %+v", all[1])
	}
	if !all[0].EndedAt.Equal(base) {
		t.Fatalf("expected ended_at %v, got %v", base, all[0].EndedAt)
	}

	rescue, err := s.ListRounds(ctx, model.StatsConfig{Ruleset: model.RulesetRescue})
	if err != nil {
		t.Fatalf("list rescue: %v", err)
	}
	if len(rescue) != 2 {
		t.Fatalf("expected 2 rescue rounds, got %d", len(rescue))
	}

	since := base.Add(30 * time.Minute)
	recent, err := s.ListRounds(ctx, model.StatsConfig{Since: &since})
	if err != nil {
		t.Fatalf("list since: %v", err)
	}
	if len(recent) != 2 || recent[0].RoundID != "b" {
		t.Fatalf("expected rounds after since, got %+v", recent)
	}

	last, err := s.ListRounds(ctx, model.StatsConfig{Last: 2})
	if err != nil {
		t.Fatalf("list last: %v", err)
	}
	if len(last) != 2 || last[0].RoundID != "b" || last[1].RoundID != "c" {
		t.Fatalf("expected last two rounds in order, got %+v", last)
	}
}

func TestInsertRoundAssignsID(t *testing.T) {
	s := openTemp(t)
	id, err := s.InsertRound(context.Background(), round("", time.Now(), model.RulesetRescue, 1), nil)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if len(id) != 36 {
		t.Fatalf("expected uuid, got %q", id)
	}
}

func TestInsertDuplicateRollsBack(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	r := round("dup", time.Now(), model.RulesetRescue, 1)
	if _, err := s.InsertRound(ctx, r, nil); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := s.InsertRound(ctx, r, []model.CharErrors{{Char: "x", Incorrect: 1}}); err == nil {
		t.Fatalf("expected duplicate id error")
	}
	chars, err := s.ListCharErrorsForRounds(ctx, []string{"dup"})
	if err != nil {
		t.Fatalf("chars: %v", err)
	}
	if len(chars) != 0 {
		t.Fatalf("expected no char errors after rollback, got %+v", chars)
	}
}

func TestCharAggregates(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if _, err := s.InsertRound(ctx, round("old", base, model.RulesetRescue, 1),
		[]model.CharErrors{{Char: "q", Incorrect: 9}}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := s.InsertRound(ctx, round("mid", base.Add(time.Hour), model.RulesetRescue, 1),
		[]model.CharErrors{{Char: "e", Incorrect: 2}, {Char: "a", Incorrect: 1}}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := s.InsertRound(ctx, round("new", base.Add(2*time.Hour), model.RulesetRescue, 1),
		[]model.CharErrors{{Char: "e", Incorrect: 3}}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	weak, err := s.GetWeakChars(ctx, 2)
	if err != nil {
		t.Fatalf("weak: %v", err)
	}
	got := map[string]model.CharAggregate{}
	for _, agg := range weak {
		got[agg.Char] = agg
	}
	if _, ok := got["q"]; ok {
		t.Fatalf("expected rounds outside the window to be ignored")
	}
	if got["e"].Incorrect != 5 || got["e"].Rounds != 2 {
		t.Fatalf("unexpected aggregate for e: %+v", got["e"])
	}

	none, err := s.GetWeakChars(ctx, 0)
	if err != nil || none != nil {
		t.Fatalf("expected nil for empty window, got %+v %v", none, err)
	}

	chars, err := s.ListCharErrorsForRounds(ctx, []string{"old", "new"})
	if err != nil {
		t.Fatalf("chars: %v", err)
	}
	if len(chars) != 2 {
		t.Fatalf("expected 2 chars, got %+v", chars)
	}
}
