// Package wordbank loads typing challenges from files.
package wordbank

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/verte-zerg/plaguetype/internal/model"
)

// Fallback returns the builtin entries used when no bank can be loaded.
func Fallback() []model.Entry {
	return []model.Entry{
		{Challenge: "hello", HandPlacement: model.PlacementLeft, Difficulty: "easy"},
		{Challenge: "world", HandPlacement: model.PlacementRight, Difficulty: "easy"},
		{Challenge: "test", HandPlacement: model.PlacementLeft, Difficulty: "easy"},
	}
}

// Load reads a word bank. JSON files hold either an array of entries or an
// object of entries keyed by id; anything else is one challenge per line.
func Load(path string) ([]model.Entry, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return loadJSON(path)
	}
	return loadLines(path)
}

// LoadOrFallback loads the bank at path and substitutes Fallback on failure.
func LoadOrFallback(path string, logger *slog.Logger) ([]model.Entry, bool) {
	entries, err := Load(path)
	if err == nil {
		return entries, false
	}
	if logger != nil {
		logger.Warn("word bank unavailable, using builtin fallback", "path", path, "err", err)
	}
	return Fallback(), true
}

func loadJSON(path string) ([]model.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(data))
	var entries []model.Entry
	switch {
	case strings.HasPrefix(trimmed, "["):
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("failed to decode word bank: %w", err)
		}
	case strings.HasPrefix(trimmed, "{"):
		var keyed map[string]model.Entry
		if err := json.Unmarshal(data, &keyed); err != nil {
			return nil, fmt.Errorf("failed to decode word bank: %w", err)
		}
		keys := make([]string, 0, len(keyed))
		for k := range keyed {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			entries = append(entries, keyed[k])
		}
	default:
		return nil, fmt.Errorf("word bank must be a JSON array or object")
	}
	return clean(entries)
}

func loadLines(path string) ([]model.Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word bank.
			_ = cerr
		}
	}()

	var entries []model.Entry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		entries = append(entries, model.Entry{Challenge: scanner.Text()})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return clean(entries)
}

func clean(entries []model.Entry) ([]model.Entry, error) {
	out := entries[:0]
	for _, e := range entries {
		e.Challenge = strings.TrimSpace(e.Challenge)
		if e.Challenge == "" {
			continue
		}
		switch e.HandPlacement {
		case model.PlacementNone, model.PlacementLeft, model.PlacementRight:
		default:
			return nil, fmt.Errorf("invalid hand placement %q for %q", e.HandPlacement, e.Challenge)
		}
		out = append(out, e)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("word bank is empty")
	}
	return out, nil
}
