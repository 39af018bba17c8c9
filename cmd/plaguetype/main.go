// Package main provides the CLI entrypoint for plaguetype.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/plaguetype/internal/config"
	"github.com/verte-zerg/plaguetype/internal/game"
	"github.com/verte-zerg/plaguetype/internal/model"
	"github.com/verte-zerg/plaguetype/internal/sound"
	"github.com/verte-zerg/plaguetype/internal/stats"
	"github.com/verte-zerg/plaguetype/internal/store"
	"github.com/verte-zerg/plaguetype/internal/tools"
	"github.com/verte-zerg/plaguetype/internal/tui"
	"github.com/verte-zerg/plaguetype/internal/wordbank"
)

const (
	defaultCurveWindow = 5
	defaultLogLevel    = "info"
)

// playFlags holds the root command flags before they are turned into a model.Config.
type playFlags struct {
	ruleset     string
	toolMode    string
	lanes       int
	slots       int
	maxHealth   int
	roundSecs   int
	spawnSecs   int
	scoreTick   int
	minFallMs   int
	maxFallMs   int
	wordHeal    int
	errorDamage int
	missDamage  int
	wordScore   int
	queueLength int
	difficulty  string
	wordBank    string
	sound       bool
	focusWeak   bool
	weakTop     int
	weakFactor  float64
	weakWindow  int
	seed        int64
	logFile     string
	logLevel    string
}

var (
	play playFlags

	statsRuleset     string
	statsSince       string
	statsLast        int
	statsCurveWindow int

	bankPath string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "plaguetype",
		Short:         "Plague doctor typing game",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPlayCmd,
	}

	d := game.DefaultConfig()
	f := rootCmd.Flags()
	f.StringVar(&play.ruleset, "ruleset", string(d.Ruleset), "ruleset: rescue or drain")
	f.StringVar(&play.toolMode, "tools", string(d.ToolMode), "tool gating: queue, per-victim or off")
	f.IntVar(&play.lanes, "lanes", d.Lanes, "number of typing lanes")
	f.IntVar(&play.slots, "slots", d.Slots, "number of victim beds")
	f.IntVar(&play.maxHealth, "max-health", d.MaxHealth, "victim max health")
	f.IntVar(&play.roundSecs, "round-secs", int(d.RoundLength/time.Second), "round length in seconds")
	f.IntVar(&play.spawnSecs, "spawn-secs", int(d.SpawnInterval/time.Second), "seconds between victim arrivals")
	f.IntVar(&play.scoreTick, "score-tick-secs", int(d.ScoreTick/time.Second), "seconds between survival score ticks (0 disables)")
	f.IntVar(&play.minFallMs, "min-fall-ms", int(d.MinFall/time.Millisecond), "fastest word fall in milliseconds")
	f.IntVar(&play.maxFallMs, "max-fall-ms", int(d.MaxFall/time.Millisecond), "slowest word fall in milliseconds")
	f.IntVar(&play.wordHeal, "word-heal", d.WordHeal, "health moved by a perfect word")
	f.IntVar(&play.errorDamage, "error-damage", d.ErrorDamage, "health moved by a wrong keystroke")
	f.IntVar(&play.missDamage, "miss-damage", d.MissDamage, "health moved by a word reaching the bottom")
	f.IntVar(&play.wordScore, "word-score", d.WordScore, "score per perfect word")
	f.IntVar(&play.queueLength, "queue-length", d.QueueLength, "tools queued in queue mode")
	f.StringVar(&play.difficulty, "difficulty", "", "only use word bank entries of this difficulty")
	f.StringVar(&play.wordBank, "word-bank", config.DefaultWordBankPath(), "word bank file (.json or one word per line)")
	f.BoolVar(&play.sound, "sound", false, "play key and chime sounds")
	f.BoolVar(&play.focusWeak, "focus-weak", false, "bias words toward characters you miss")
	f.IntVar(&play.weakTop, "weak-top", d.WeakTop, "number of weak characters to focus on")
	f.Float64Var(&play.weakFactor, "weak-factor", d.WeakFactor, "weight factor for weak characters")
	f.IntVar(&play.weakWindow, "weak-window", d.WeakWindow, "number of recent rounds to compute weak chars")
	f.Int64Var(&play.seed, "seed", 0, "random seed (0 picks one)")
	f.StringVar(&play.logFile, "log-file", "", "write logs to this file")
	f.StringVar(&play.logLevel, "log-level", defaultLogLevel, "log level: debug, info, warn or error")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newBankCmd())

	return rootCmd
}

func applyFileConfig(cmd *cobra.Command, fc config.FileConfig) {
	applyStringConfig(cmd, "ruleset", &play.ruleset, fc.Game.Ruleset)
	applyIntConfig(cmd, "lanes", &play.lanes, fc.Game.Lanes)
	applyIntConfig(cmd, "round-secs", &play.roundSecs, fc.Game.RoundSecs)
	applyIntConfig(cmd, "score-tick-secs", &play.scoreTick, fc.Game.ScoreTick)
	applyStringConfig(cmd, "word-bank", &play.wordBank, fc.Game.WordBank)
	applyBoolConfig(cmd, "sound", &play.sound, fc.Game.Sound)
	applyStringConfig(cmd, "difficulty", &play.difficulty, fc.Game.Difficulty)

	applyIntConfig(cmd, "min-fall-ms", &play.minFallMs, fc.Typing.MinFallMs)
	applyIntConfig(cmd, "max-fall-ms", &play.maxFallMs, fc.Typing.MaxFallMs)
	applyIntConfig(cmd, "word-heal", &play.wordHeal, fc.Typing.WordHeal)
	applyIntConfig(cmd, "error-damage", &play.errorDamage, fc.Typing.ErrorDamage)
	applyIntConfig(cmd, "miss-damage", &play.missDamage, fc.Typing.MissDamage)
	applyIntConfig(cmd, "word-score", &play.wordScore, fc.Typing.WordScore)
	applyBoolConfig(cmd, "focus-weak", &play.focusWeak, fc.Typing.FocusWeak)
	applyIntConfig(cmd, "weak-top", &play.weakTop, fc.Typing.WeakTop)
	applyFloatConfig(cmd, "weak-factor", &play.weakFactor, fc.Typing.WeakFactor)
	applyIntConfig(cmd, "weak-window", &play.weakWindow, fc.Typing.WeakWindow)

	applyIntConfig(cmd, "slots", &play.slots, fc.Victims.Slots)
	applyIntConfig(cmd, "max-health", &play.maxHealth, fc.Victims.MaxHealth)
	applyIntConfig(cmd, "spawn-secs", &play.spawnSecs, fc.Victims.SpawnSecs)

	applyStringConfig(cmd, "tools", &play.toolMode, fc.Tools.Mode)
	applyIntConfig(cmd, "queue-length", &play.queueLength, fc.Tools.QueueLength)

	applyStringConfig(cmd, "log-file", &play.logFile, fc.Log.File)
	applyStringConfig(cmd, "log-level", &play.logLevel, fc.Log.Level)
}

// buildConfig turns flags into a round config. Parse errors surface here,
// range checks in validateConfig.
func buildConfig(p playFlags) (model.Config, error) {
	ruleset, err := parseRuleset(p.ruleset)
	if err != nil {
		return model.Config{}, err
	}
	mode, err := tools.ParseMode(p.toolMode)
	if err != nil {
		return model.Config{}, fmt.Errorf("--tools must be queue, per-victim or off: %w", err)
	}
	cfg := game.DefaultConfig()
	cfg.Ruleset = ruleset
	cfg.ToolMode = mode
	cfg.Lanes = p.lanes
	cfg.Slots = p.slots
	cfg.MaxHealth = p.maxHealth
	cfg.RoundLength = time.Duration(p.roundSecs) * time.Second
	cfg.SpawnInterval = time.Duration(p.spawnSecs) * time.Second
	cfg.ScoreTick = time.Duration(p.scoreTick) * time.Second
	cfg.MinFall = time.Duration(p.minFallMs) * time.Millisecond
	cfg.MaxFall = time.Duration(p.maxFallMs) * time.Millisecond
	cfg.WordHeal = p.wordHeal
	cfg.ErrorDamage = p.errorDamage
	cfg.MissDamage = p.missDamage
	cfg.WordScore = p.wordScore
	cfg.QueueLength = p.queueLength
	cfg.Difficulty = strings.TrimSpace(p.difficulty)
	cfg.FocusWeak = p.focusWeak
	cfg.WeakTop = p.weakTop
	cfg.WeakFactor = p.weakFactor
	cfg.WeakWindow = p.weakWindow
	cfg.Seed = p.seed
	return cfg, nil
}

func parseRuleset(s string) (model.Ruleset, error) {
	switch r := model.Ruleset(strings.ToLower(strings.TrimSpace(s))); r {
	case model.RulesetRescue, model.RulesetDrain:
		return r, nil
	case "":
		return model.RulesetRescue, nil
	default:
		return "", fmt.Errorf("--ruleset must be rescue or drain, got %q", s)
	}
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFileConfig(cmd, fileCfg)

	cfg, err := buildConfig(play)
	if err != nil {
		return err
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	logger, closeLog, err := newLogger(play.logFile, play.logLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	entries, fallback := wordbank.LoadOrFallback(play.wordBank, logger)
	if fallback {
		logErrf("word bank %s unavailable; using builtin words\n", play.wordBank)
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	weakSet := map[rune]struct{}{}
	if cfg.FocusWeak {
		aggs, err := st.GetWeakChars(ctx, cfg.WeakWindow)
		if err != nil {
			logErrf("failed to load weak chars: %v\n", err)
		} else {
			weakSet = stats.SelectWeakChars(aggs, cfg.WeakTop)
			if len(weakSet) == 0 {
				logErrln("no stats available for weak-char focus yet; using normal word picks")
			}
		}
	}

	history, err := loadHistory(ctx, st)
	if err != nil {
		logger.Warn("failed to load round history", "err", err)
	}

	player := newPlayer(play.sound, logger)
	effects := sound.NewEffects(sound.NewBank(sound.SampleRate), player)
	defer func() {
		if cerr := effects.Close(); cerr != nil {
			logger.Warn("failed to close audio", "err", cerr)
		}
	}()

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger.Info("starting", "seed", seed, "entries", len(entries), "ruleset", string(cfg.Ruleset))

	m := tui.NewModel(cfg, game.Deps{
		Rand:         rand.New(rand.NewSource(seed)),
		Entries:      entries,
		WordBankPath: play.wordBank,
		Effects:      effects,
		Recorder:     roundRecorder{st: st},
		Logger:       logger,
		WeakSet:      weakSet,
	}, history)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if res, ok := m.Game().Result(); ok {
		logErrf("%s Score %d, healed %d, destroyed %d\n",
			res.Stats.Reason, res.Stats.Score, res.Stats.Healed, res.Stats.Destroyed)
	}
	return nil
}

// roundRecorder persists finished rounds to the store.
type roundRecorder struct {
	st *store.Store
}

func (r roundRecorder) RecordRound(res game.RoundResult) error {
	if _, err := r.st.InsertRound(context.Background(), res.Stats, res.CharErrors); err != nil {
		return fmt.Errorf("failed to save round: %w", err)
	}
	return nil
}

func loadHistory(ctx context.Context, st *store.Store) (tui.History, error) {
	rounds, err := st.ListRounds(ctx, model.StatsConfig{})
	if err != nil {
		return tui.History{}, err
	}
	var h tui.History
	for _, r := range rounds {
		if r.Score > h.BestScore {
			h.BestScore = r.Score
		}
	}
	h.Rounds = len(rounds)
	if len(rounds) > 0 {
		h.LastScore = rounds[len(rounds)-1].Score
		h.HasLast = true
	}
	return h, nil
}

func newPlayer(enabled bool, logger *slog.Logger) sound.Player {
	if !enabled {
		return sound.NopPlayer{}
	}
	p, err := sound.NewSpeakerPlayer(sound.SampleRate)
	if err != nil {
		logger.Warn("sound disabled", "err", err)
		return sound.NopPlayer{}
	}
	return p
}

// newLogger returns a text logger writing to path, or a discarding logger
// when path is empty. The returned func closes the file.
func newLogger(path, level string) (*slog.Logger, func(), error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, nil, fmt.Errorf("--log-level must be debug, info, warn or error: %w", err)
	}
	if path == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(file, &slog.HandlerOptions{Level: lvl}))
	return logger, func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close of the log file.
			_ = cerr
		}
	}, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show round history",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsRuleset, "ruleset", "", "ruleset filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N rounds")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildStatsConfig(statsRuleset, statsSince, statsLast)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	report, err := stats.BuildReport(context.Background(), st, cfg)
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}
	if err := report.Render(cmd.OutOrStdout(), statsCurveWindow, stats.TerminalWidth()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func buildStatsConfig(ruleset, since string, last int) (model.StatsConfig, error) {
	var cfg model.StatsConfig
	if ruleset != "" {
		r, err := parseRuleset(ruleset)
		if err != nil {
			return cfg, err
		}
		cfg.Ruleset = r
	}
	if since != "" {
		parsed, err := time.ParseInLocation("2006-01-02", since, time.Local)
		if err != nil {
			return cfg, fmt.Errorf("invalid --since value: %w", err)
		}
		cfg.Since = &parsed
	}
	if last < 0 {
		return cfg, fmt.Errorf("--last must be >= 0")
	}
	cfg.Last = last
	return cfg, nil
}

func newBankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bank",
		Short: "Summarize the word bank",
		Args:  cobra.NoArgs,
		RunE:  runBankCmd,
	}
	cmd.Flags().StringVar(&bankPath, "path", config.DefaultWordBankPath(), "word bank file")
	return cmd
}

func runBankCmd(cmd *cobra.Command, _ []string) error {
	entries, err := wordbank.Load(bankPath)
	source := bankPath
	if err != nil {
		logErrf("failed to load %s: %v\n", bankPath, err)
		entries = wordbank.Fallback()
		source = "builtin fallback"
	}
	if err := writeBankSummary(cmd.OutOrStdout(), source, entries); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func writeBankSummary(w io.Writer, source string, entries []model.Entry) error {
	difficulty := map[string]int{}
	placement := map[string]int{}
	for _, e := range entries {
		d := e.Difficulty
		if d == "" {
			d = "(none)"
		}
		difficulty[d]++
		p := string(e.HandPlacement)
		if p == "" {
			p = "any"
		}
		placement[p]++
	}
	lines := []string{
		fmt.Sprintf("Source: %s", source),
		fmt.Sprintf("Entries: %d", len(entries)),
		"Difficulty:",
	}
	lines = append(lines, countLines(difficulty)...)
	lines = append(lines, "Placement:")
	lines = append(lines, countLines(placement)...)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func countLines(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = fmt.Sprintf("  %s: %d", k, counts[k])
	}
	return lines
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	d := game.DefaultConfig()
	return fmt.Sprintf(`# plaguetype configuration
# Uncomment a value to enable it. CLI flags override config values.

[game]
# ruleset = %q           # rescue or drain
# lanes = %d                  # Number of typing lanes
# round-secs = %d           # Round length in seconds
# score-tick-secs = %d        # Seconds between survival score ticks
# word-bank = %q
# sound = false
# difficulty = "easy"         # Only use entries of this difficulty

[typing]
# min-fall-ms = %d
# max-fall-ms = %d
# word-heal = %d
# error-damage = %d
# miss-damage = %d
# word-score = %d
# focus-weak = false
# weak-top = %d
# weak-factor = %.1f
# weak-window = %d

[victims]
# slots = %d
# max-health = %d
# spawn-secs = %d

[tools]
# mode = %q               # queue, per-victim or off
# queue-length = %d

[log]
# file = ""
# level = %q
`,
		string(d.Ruleset),
		d.Lanes,
		int(d.RoundLength/time.Second),
		int(d.ScoreTick/time.Second),
		config.DefaultWordBankPath(),
		int(d.MinFall/time.Millisecond),
		int(d.MaxFall/time.Millisecond),
		d.WordHeal,
		d.ErrorDamage,
		d.MissDamage,
		d.WordScore,
		d.WeakTop,
		d.WeakFactor,
		d.WeakWindow,
		d.Slots,
		d.MaxHealth,
		int(d.SpawnInterval/time.Second),
		string(d.ToolMode),
		d.QueueLength,
		defaultLogLevel,
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.Lanes <= 0 {
		return fmt.Errorf("--lanes must be > 0")
	}
	if cfg.Slots <= 0 {
		return fmt.Errorf("--slots must be > 0")
	}
	if cfg.Ruleset == model.RulesetRescue && cfg.Slots < 2 {
		return fmt.Errorf("--slots must be >= 2 for the rescue ruleset")
	}
	if cfg.MaxHealth <= 0 {
		return fmt.Errorf("--max-health must be > 0")
	}
	if cfg.RoundLength <= 0 {
		return fmt.Errorf("--round-secs must be > 0")
	}
	if cfg.SpawnInterval <= 0 {
		return fmt.Errorf("--spawn-secs must be > 0")
	}
	if cfg.ScoreTick < 0 {
		return fmt.Errorf("--score-tick-secs must be >= 0")
	}
	if cfg.MinFall <= 0 {
		return fmt.Errorf("--min-fall-ms must be > 0")
	}
	if cfg.MaxFall < cfg.MinFall {
		return fmt.Errorf("--max-fall-ms must be >= --min-fall-ms")
	}
	if cfg.WordHeal < 0 || cfg.ErrorDamage < 0 || cfg.MissDamage < 0 {
		return fmt.Errorf("--word-heal, --error-damage and --miss-damage must be >= 0")
	}
	if cfg.WordScore < 0 {
		return fmt.Errorf("--word-score must be >= 0")
	}
	if cfg.ToolMode == model.ToolModeQueue && cfg.QueueLength <= 0 {
		return fmt.Errorf("--queue-length must be > 0 in queue mode")
	}
	if cfg.WeakTop < 0 {
		return fmt.Errorf("--weak-top must be >= 0")
	}
	if cfg.WeakFactor < 0 {
		return fmt.Errorf("--weak-factor must be >= 0")
	}
	if cfg.WeakWindow < 0 {
		return fmt.Errorf("--weak-window must be >= 0")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
