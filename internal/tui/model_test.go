package tui

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/plaguetype/internal/clock"
	"github.com/verte-zerg/plaguetype/internal/game"
	"github.com/verte-zerg/plaguetype/internal/model"
	"github.com/verte-zerg/plaguetype/internal/tools"
)

func newTestModel(t *testing.T, mutate func(*model.Config)) (*Model, *clock.Mock) {
	t.Helper()
	cfg := game.DefaultConfig()
	cfg.Lanes = 1
	cfg.ToolMode = model.ToolModeOff
	if mutate != nil {
		mutate(&cfg)
	}
	c := clock.NewMock(time.Unix(10000, 0))
	m := NewModel(cfg, game.Deps{
		Clock:   c,
		Rand:    rand.New(rand.NewSource(1)),
		Entries: []model.Entry{{Challenge: "hi"}},
	}, History{})
	return m, c
}

func keyMsg(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func runeMsg(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestTypingFollowsHandZone(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m.Update(runeMsg("hi"))
	if m.Game().Score() != 0 {
		t.Fatalf("expected keystrokes outside the lane zone to be ignored")
	}
	m.Update(keyMsg(tea.KeyLeft))
	m.Update(runeMsg("hi"))
	if got := m.Game().Score(); got != 10 {
		t.Fatalf("expected score 10, got %d", got)
	}
	if got := m.health[0]; got != 25 {
		t.Fatalf("expected health indicator at 25%%, got %v", got)
	}
}

func TestDigitsPickTools(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m.Update(runeMsg("3"))
	name, ok := m.hand.HeldTool()
	if !ok || name != tools.Cross {
		t.Fatalf("expected cross in hand, got %q", name)
	}
	m.Update(runeMsg("0"))
	if m.hand.IsHoldingTool() {
		t.Fatalf("expected empty hand")
	}
	m.Update(runeMsg("9"))
	if m.hand.IsHoldingTool() {
		t.Fatalf("expected unknown slot to be ignored")
	}
}

func TestEscAbortsThenQuits(t *testing.T) {
	m, _ := newTestModel(t, nil)
	_, cmd := m.Update(keyMsg(tea.KeyEsc))
	if cmd != nil {
		t.Fatalf("expected first esc to end the round only")
	}
	if m.Game().Running() || m.result == nil {
		t.Fatalf("expected round to be over")
	}
	if m.result.Stats.Reason != game.ReasonAbandoned {
		t.Fatalf("unexpected reason %q", m.result.Stats.Reason)
	}
	if !strings.Contains(m.View(), game.ReasonAbandoned) {
		t.Fatalf("expected game over screen")
	}
	_, cmd = m.Update(keyMsg(tea.KeyEsc))
	if !isQuit(cmd) {
		t.Fatalf("expected quit on second esc")
	}
}

func TestRestartAfterGameOver(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m.Update(keyMsg(tea.KeyEsc))
	m.Update(runeMsg("r"))
	if !m.Game().Running() || m.result != nil {
		t.Fatalf("expected a fresh round")
	}
	if m.history.Rounds != 1 || !m.history.HasLast {
		t.Fatalf("expected history to count the abandoned round: %+v", m.history)
	}
}

func TestCtrlCQuits(t *testing.T) {
	m, _ := newTestModel(t, nil)
	_, cmd := m.Update(keyMsg(tea.KeyCtrlC))
	if !isQuit(cmd) {
		t.Fatalf("expected quit")
	}
	if m.Game().Running() {
		t.Fatalf("expected round to be abandoned")
	}
}

func TestTickEndsRoundOnTime(t *testing.T) {
	m, c := newTestModel(t, func(cfg *model.Config) {
		cfg.RoundLength = 2 * time.Second
		cfg.MinFall = time.Minute
		cfg.MaxFall = time.Minute
	})
	c.Advance(3 * time.Second)
	_, cmd := m.Update(tickMsg(c.Now()))
	if cmd == nil {
		t.Fatalf("expected next tick to be scheduled")
	}
	if m.result == nil || m.result.Stats.Reason != game.ReasonTimeUp {
		t.Fatalf("expected time up, got %+v", m.result)
	}
}

func TestViewShowsWard(t *testing.T) {
	m, _ := newTestModel(t, func(cfg *model.Config) { cfg.ToolMode = model.ToolModeQueue })
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	out := m.View()
	for _, want := range []string{"Rescue", "Score 0", "Bed 1", "Tools", "left"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in view:\n%s", want, out)
		}
	}
}
