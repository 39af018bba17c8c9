// Package model defines shared data structures.
package model

import "time"

// Placement is the hand a word bank entry is meant for.
type Placement string

// Hand placements accepted in word bank data.
const (
	PlacementNone  Placement = ""
	PlacementLeft  Placement = "left"
	PlacementRight Placement = "right"
)

// Entry is one word bank challenge.
type Entry struct {
	Challenge     string    `json:"challenge"`
	HandPlacement Placement `json:"handPlacement,omitempty"`
	Difficulty    string    `json:"difficulty,omitempty"`
}

// Ruleset selects how victim health moves and how a round is lost.
type Ruleset string

// Supported rulesets.
const (
	// RulesetRescue starts victims at zero health; typing heals them until
	// they leave. The round is lost when every slot holds an unhealed victim.
	RulesetRescue Ruleset = "rescue"
	// RulesetDrain starts victims at full health; typing drains them until
	// they are destroyed. The round ends when the last victim is destroyed.
	RulesetDrain Ruleset = "drain"
)

// ToolMode selects how tools gate typing.
type ToolMode string

// Supported tool modes.
const (
	ToolModeQueue     ToolMode = "queue"
	ToolModePerVictim ToolMode = "per-victim"
	ToolModeOff       ToolMode = "off"
)

// Config defines round settings.
type Config struct {
	Ruleset       Ruleset
	ToolMode      ToolMode
	Lanes         int
	Slots         int
	MaxHealth     int
	RoundLength   time.Duration
	SpawnInterval time.Duration
	ScoreTick     time.Duration
	MinFall       time.Duration
	MaxFall       time.Duration
	StartDelay    time.Duration
	AdvanceDelay  time.Duration
	WordHeal      int
	ErrorDamage   int
	MissDamage    int
	WordScore     int
	QueueLength   int
	Difficulty    string
	FocusWeak     bool
	WeakTop       int
	WeakFactor    float64
	WeakWindow    int
	Seed          int64
}

// StatsConfig defines filters for stats output.
type StatsConfig struct {
	Ruleset Ruleset
	Since   *time.Time
	Last    int
}

// RoundStats captures a finished round.
type RoundStats struct {
	RoundID             string
	StartedAt           time.Time
	EndedAt             time.Time
	Ruleset             Ruleset
	ToolMode            ToolMode
	Reason              string
	Score               int
	Healed              int
	Destroyed           int
	TotalWords          int
	CorrectWords        int
	CorrectCharacters   int
	IncorrectCharacters int
	DurationMs          int64
	WordBankPath        string
}

// CharErrors counts mistakes against one expected character in a round.
type CharErrors struct {
	Char      string
	Incorrect int
}

// CharAggregate aggregates character mistakes across rounds.
type CharAggregate struct {
	Char      string
	Incorrect int
	Rounds    int
}

// RoundAggregate summarizes a round for reporting.
type RoundAggregate struct {
	RoundID      string
	EndedAt      time.Time
	Ruleset      Ruleset
	Reason       string
	Score        int
	Healed       int
	Destroyed    int
	TotalWords   int
	CorrectWords int
	Correct      int
	Incorrect    int
	DurationMs   int64
}
