// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/plaguetype/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for round history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS rounds (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			ruleset TEXT NOT NULL,
			tool_mode TEXT NOT NULL,
			reason TEXT NOT NULL,
			score INTEGER NOT NULL,
			healed INTEGER NOT NULL,
			destroyed INTEGER NOT NULL,
			total_words INTEGER NOT NULL,
			correct_words INTEGER NOT NULL,
			correct_chars INTEGER NOT NULL,
			incorrect_chars INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			wordbank_path TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS round_char_errors (
			round_id TEXT NOT NULL,
			char TEXT NOT NULL,
			incorrect INTEGER NOT NULL,
			PRIMARY KEY (round_id, char)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_ended_at ON rounds(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_round_char_errors_char ON round_char_errors(char);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertRound stores a finished round and its character mistakes. A round
// without an id gets a fresh one. It returns the stored id.
func (s *Store) InsertRound(ctx context.Context, stats model.RoundStats, chars []model.CharErrors) (id string, err error) {
	id = stats.RoundID
	if id == "" {
		id = uuid.NewString()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO rounds (id, started_at, ended_at, ruleset, tool_mode, reason, score, healed, destroyed,
			total_words, correct_words, correct_chars, incorrect_chars, duration_ms, wordbank_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		stats.StartedAt.UTC().Format(time.RFC3339Nano),
		stats.EndedAt.UTC().Format(time.RFC3339Nano),
		string(stats.Ruleset),
		string(stats.ToolMode),
		stats.Reason,
		stats.Score,
		stats.Healed,
		stats.Destroyed,
		stats.TotalWords,
		stats.CorrectWords,
		stats.CorrectCharacters,
		stats.IncorrectCharacters,
		stats.DurationMs,
		stats.WordBankPath,
	)
	if err != nil {
		return "", err
	}

	if len(chars) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO round_char_errors (round_id, char, incorrect) VALUES (?, ?, ?)`)
		if perr != nil {
			err = perr
			return "", err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, ce := range chars {
			if _, err = stmt.ExecContext(ctx, id, ce.Char, ce.Incorrect); err != nil {
				return "", err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// GetWeakChars aggregates character mistakes over the most recent rounds.
func (s *Store) GetWeakChars(ctx context.Context, window int) ([]model.CharAggregate, error) {
	if window <= 0 {
		return nil, nil
	}
	query := `WITH recent_rounds AS (
		SELECT id FROM rounds
		ORDER BY ended_at DESC
		LIMIT ?
	)
	SELECT ce.char, SUM(ce.incorrect) AS incorrect, COUNT(DISTINCT ce.round_id) AS rounds
	FROM round_char_errors ce
	JOIN recent_rounds r ON r.id = ce.round_id
	GROUP BY ce.char`

	rows, err := s.db.QueryContext(ctx, query, window)
	if err != nil {
		return nil, err
	}
	return scanCharAggregates(rows)
}

// ListRounds returns round aggregates filtered by stats config, oldest first.
func (s *Store) ListRounds(ctx context.Context, cfg model.StatsConfig) ([]model.RoundAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Ruleset != "" {
		clauses = append(clauses, "ruleset = ?")
		args = append(args, string(cfg.Ruleset))
	}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.UTC().Format(time.RFC3339Nano))
	}
	limit := ""
	if cfg.Last > 0 {
		limit = "LIMIT ?"
		args = append(args, cfg.Last)
	}
	query := fmt.Sprintf(`SELECT id, ended_at, ruleset, reason, score, healed, destroyed,
			total_words, correct_words, correct_chars, incorrect_chars, duration_ms
		FROM (
			SELECT * FROM rounds
			WHERE %s
			ORDER BY ended_at DESC
			%s
		)
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "), limit)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var rounds []model.RoundAggregate
	for rows.Next() {
		var agg model.RoundAggregate
		var endedAt, ruleset string
		if err := rows.Scan(&agg.RoundID, &endedAt, &ruleset, &agg.Reason, &agg.Score, &agg.Healed, &agg.Destroyed,
			&agg.TotalWords, &agg.CorrectWords, &agg.Correct, &agg.Incorrect, &agg.DurationMs); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.EndedAt = parsed
		agg.Ruleset = model.Ruleset(ruleset)
		rounds = append(rounds, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rounds, nil
}

// ListCharErrorsForRounds aggregates character mistakes across rounds.
func (s *Store) ListCharErrorsForRounds(ctx context.Context, roundIDs []string) ([]model.CharAggregate, error) {
	if len(roundIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(roundIDs))
	args := make([]any, len(roundIDs))
	for i, id := range roundIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT char, SUM(incorrect) AS incorrect, COUNT(DISTINCT round_id) AS rounds
		FROM round_char_errors
		WHERE round_id IN (%s)
		GROUP BY char`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanCharAggregates(rows)
}

func scanCharAggregates(rows *sql.Rows) ([]model.CharAggregate, error) {
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	var result []model.CharAggregate
	for rows.Next() {
		var agg model.CharAggregate
		if err := rows.Scan(&agg.Char, &agg.Incorrect, &agg.Rounds); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
