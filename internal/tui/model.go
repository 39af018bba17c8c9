// Package tui provides the Bubble Tea ward interface.
package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/plaguetype/internal/clock"
	"github.com/verte-zerg/plaguetype/internal/game"
	"github.com/verte-zerg/plaguetype/internal/model"
	"github.com/verte-zerg/plaguetype/internal/tools"
	"github.com/verte-zerg/plaguetype/internal/typing"
)

const (
	frameInterval  = time.Second / 30
	minLaneWidth   = 12
	minLaneHeight  = 4
	healthBarWidth = 20
	defaultWidth   = 60
	defaultHeight  = 24
)

// History is what the footer shows about earlier rounds.
type History struct {
	Rounds    int
	BestScore int
	LastScore int
	HasLast   bool
}

type tickMsg time.Time

// Model implements the Bubble Tea ward UI and receives game updates.
type Model struct {
	game  *game.Game
	hand  *game.Hand
	clock clock.Clock
	bar   progress.Model

	width  int
	height int

	words    map[int]typing.WordState
	stats    map[int]typing.Stats
	health   map[int]float64
	nextTool tools.Name
	hasNext  bool
	result   *game.RoundResult
	history  History
}

var _ game.Sink = (*Model)(nil)

var (
	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cursorStyle    = pendingStyle.Underline(true)
	closedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))
	completeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	zoneStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	activeZone     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	handStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	toolStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#9254DE"))
	nextToolStyle  = toolStyle.Bold(true).Underline(true)
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// NewModel builds the game with the model as its sink and starts a round.
// deps.Hand and deps.Sink are replaced.
func NewModel(cfg model.Config, deps game.Deps, history History) *Model {
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	m := &Model{
		hand:    game.NewHand(game.DefaultHandRange, game.DefaultHandStep),
		clock:   deps.Clock,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage(), progress.WithWidth(healthBarWidth)),
		words:   map[int]typing.WordState{},
		stats:   map[int]typing.Stats{},
		health:  map[int]float64{},
		history: history,
	}
	deps.Hand = m.hand
	deps.Sink = m
	m.game = game.New(cfg, deps)
	m.game.Start()
	return m
}

// Game returns the underlying game.
func (m *Model) Game() *game.Game { return m.game }

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.game.Tick(m.clock.Now())
		return m, tick()
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.game.Abort()
		return tea.Quit
	case tea.KeyEsc:
		if m.game.Running() {
			m.game.Abort()
			return nil
		}
		return tea.Quit
	case tea.KeyLeft:
		m.hand.MoveLeft()
	case tea.KeyRight:
		m.hand.MoveRight()
	case tea.KeyEnter:
		m.game.UseTool()
	case tea.KeyBackspace, tea.KeyDelete:
		m.game.HandleBackspace()
	case tea.KeySpace:
		m.game.HandleRune(' ')
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			if cmd := m.handleRune(r); cmd != nil {
				return cmd
			}
		}
	}
	return nil
}

func (m *Model) handleRune(r rune) tea.Cmd {
	if !m.game.Running() {
		switch r {
		case 'r', 'R':
			m.restart()
		case 'q', 'Q':
			return tea.Quit
		}
		return nil
	}
	switch {
	case r == '0':
		m.hand.Drop()
	case r >= '1' && r <= '9':
		if name, ok := tools.FromSlot(int(r - '1')); ok {
			m.hand.Pick(name)
		}
	default:
		m.game.HandleRune(r)
	}
	return nil
}

func (m *Model) restart() {
	m.result = nil
	m.words = map[int]typing.WordState{}
	m.stats = map[int]typing.Stats{}
	m.health = map[int]float64{}
	m.hasNext = false
	m.game.Start()
}

// RenderWordState implements typing.Renderer.
func (m *Model) RenderWordState(state typing.WordState) { m.words[state.Lane] = state }

// RenderStats implements typing.Renderer.
func (m *Model) RenderStats(lane int, stats typing.Stats) { m.stats[lane] = stats }

// UpdateHealthIndicator implements victim.HealthIndicator.
func (m *Model) UpdateHealthIndicator(slot int, percent float64) { m.health[slot] = percent }

// UpdateToolIndicator implements tools.Indicator.
func (m *Model) UpdateToolIndicator(next tools.Name, ok bool) {
	m.nextTool = next
	m.hasNext = ok
}

// OnGameOver implements game.Sink.
func (m *Model) OnGameOver(result game.RoundResult) {
	m.result = &result
	m.history.Rounds++
	m.history.LastScore = result.Stats.Score
	m.history.HasLast = true
	if result.Stats.Score > m.history.BestScore {
		m.history.BestScore = result.Stats.Score
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	width, height := m.width, m.height
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	if m.result != nil && !m.game.Running() {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, m.renderGameOver())
	}

	header := m.renderHeader()
	victims := m.renderVictims()
	toolLine := m.renderTools()
	footer := m.renderFooter()

	laneWidth := width / m.game.Lanes()
	if laneWidth < minLaneWidth {
		laneWidth = minLaneWidth
	}
	fixed := 4 + len(victims)
	if toolLine != "" {
		fixed++
	}
	laneHeight := height - fixed
	if laneHeight < minLaneHeight {
		laneHeight = minLaneHeight
	}

	lines := []string{header, m.renderZones(laneWidth)}
	lines = append(lines, m.renderLanes(laneWidth, laneHeight)...)
	held := ""
	if name, ok := m.hand.HeldTool(); ok {
		held = name.Label()
	}
	x, _ := m.hand.HandPosition()
	lines = append(lines, handRow(x, m.hand.Limit(), laneWidth*m.game.Lanes(), held))
	lines = append(lines, victims...)
	if toolLine != "" {
		lines = append(lines, toolLine)
	}
	lines = append(lines, footer)
	return strings.Join(lines, "\n")
}

func (m *Model) renderHeader() string {
	remaining := m.game.Remaining(m.clock.Now())
	return titleStyle.Render(fmt.Sprintf("Plague Ward · %s · Score %d · %s left",
		titleCase(string(m.game.Ruleset())), m.game.Score(), formatClock(remaining)))
}

func (m *Model) renderZones(laneWidth int) string {
	var b strings.Builder
	for lane := 0; lane < m.game.Lanes(); lane++ {
		label := m.game.LaneZone(lane).String()
		if slot, ok := m.game.SlotForLane(lane); ok {
			label = fmt.Sprintf("%s · bed %d", label, slot+1)
		}
		cell := centerText(label, laneWidth)
		if m.game.LaneOpen(lane) {
			b.WriteString(activeZone.Render(cell))
		} else {
			b.WriteString(zoneStyle.Render(cell))
		}
	}
	return b.String()
}

func (m *Model) renderLanes(laneWidth, laneHeight int) []string {
	columns := make([][]string, m.game.Lanes())
	for lane := range columns {
		state := m.game.LaneState(lane)
		columns[lane] = renderLane(state, m.game.LaneOpen(lane), laneWidth, laneHeight)
	}
	rows := make([]string, laneHeight)
	for row := range rows {
		var b strings.Builder
		for _, col := range columns {
			b.WriteString(col[row])
		}
		rows[row] = b.String()
	}
	return rows
}

func (m *Model) renderVictims() []string {
	victims := m.game.Victims()
	bySlot := map[int]int{}
	for i, v := range victims {
		bySlot[v.Slot] = i
	}
	lines := make([]string, 0, m.game.Slots())
	for slot := 0; slot < m.game.Slots(); slot++ {
		i, ok := bySlot[slot]
		if !ok {
			lines = append(lines, footerStyle.Render(fmt.Sprintf("Bed %d  empty", slot+1)))
			continue
		}
		v := victims[i]
		percent, seen := m.health[slot]
		if !seen {
			percent = v.HealthPercent()
		}
		line := fmt.Sprintf("Bed %d  %s %3.0f%%", slot+1, m.bar.ViewAs(percent/100), percent)
		if v.NeedsTool() {
			line += "  needs " + toolStyle.Render(v.RequiredTool.Label())
		}
		if lanes := m.lanesFor(slot); len(lanes) > 0 {
			line += footerStyle.Render("  lanes " + lanes)
		}
		lines = append(lines, line)
	}
	return lines
}

func (m *Model) lanesFor(slot int) string {
	var lanes []int
	for lane := 0; lane < m.game.Lanes(); lane++ {
		if s, ok := m.game.SlotForLane(lane); ok && s == slot {
			lanes = append(lanes, lane+1)
		}
	}
	sort.Ints(lanes)
	parts := make([]string, len(lanes))
	for i, l := range lanes {
		parts[i] = fmt.Sprintf("%d", l)
	}
	return strings.Join(parts, ",")
}

func (m *Model) renderTools() string {
	if m.game.ToolMode() == model.ToolModeOff {
		return ""
	}
	belt := make([]string, 0, len(tools.All()))
	for i, name := range tools.All() {
		belt = append(belt, fmt.Sprintf("%d %s", i+1, name.Label()))
	}
	line := footerStyle.Render(strings.Join(belt, "  "))
	if m.game.ToolMode() != model.ToolModeQueue {
		return line
	}
	queue := m.game.ToolQueue()
	if len(queue) == 0 {
		return "Tools clear  " + line
	}
	parts := make([]string, len(queue))
	for i, name := range queue {
		if i == 0 && m.hasNext && name == m.nextTool {
			parts[i] = nextToolStyle.Render(name.Label())
			continue
		}
		parts[i] = toolStyle.Render(name.Label())
	}
	return "Tools " + strings.Join(parts, " > ") + "  " + line
}

func (m *Model) renderFooter() string {
	var correct, incorrect int
	var elapsed time.Duration
	for lane := 0; lane < m.game.Lanes(); lane++ {
		st, ok := m.stats[lane]
		if !ok {
			continue
		}
		correct += st.CorrectCharacters
		incorrect += st.IncorrectCharacters
		if st.Duration > elapsed {
			elapsed = st.Duration
		}
	}
	segments := []string{
		fmt.Sprintf("%d WPM · %d%%", typing.WordsPerMinute(correct, elapsed), typing.Accuracy(correct, correct+incorrect)),
	}
	if m.history.HasLast {
		segments = append(segments, fmt.Sprintf("Last %d", m.history.LastScore))
	}
	if m.history.Rounds > 0 {
		segments = append(segments, fmt.Sprintf("Best %d over %d rounds", m.history.BestScore, m.history.Rounds))
	}
	segments = append(segments, "←/→ move · 1-5 pick · 0 drop · enter use · esc end")
	return footerStyle.Render(strings.Join(segments, "  "))
}

func (m *Model) renderGameOver() string {
	st := m.result.Stats
	lines := []string{
		titleStyle.Render(st.Reason),
		"",
		fmt.Sprintf("Score %d", st.Score),
		fmt.Sprintf("Healed %d · Destroyed %d", st.Healed, st.Destroyed),
		fmt.Sprintf("Words %d/%d", st.CorrectWords, st.TotalWords),
		fmt.Sprintf("%d WPM · %d%%",
			typing.WordsPerMinute(st.CorrectCharacters, time.Duration(st.DurationMs)*time.Millisecond),
			typing.Accuracy(st.CorrectCharacters, st.CorrectCharacters+st.IncorrectCharacters)),
	}
	if len(m.result.CharErrors) > 0 {
		worst := m.result.CharErrors
		if len(worst) > 5 {
			worst = worst[:5]
		}
		parts := make([]string, len(worst))
		for i, ce := range worst {
			parts[i] = fmt.Sprintf("%s×%d", ce.Char, ce.Incorrect)
		}
		lines = append(lines, "Missed "+strings.Join(parts, " "))
	}
	lines = append(lines, "", footerStyle.Render("r restart · q quit"))
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func formatClock(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
