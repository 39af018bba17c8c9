package stats

import (
	"context"
	"io"

	"github.com/verte-zerg/plaguetype/internal/model"
	"github.com/verte-zerg/plaguetype/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Rounds   []model.RoundAggregate
	CharAggs []model.CharAggregate
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	rounds, err := st.ListRounds(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(rounds) > cfg.Last {
		rounds = rounds[len(rounds)-cfg.Last:]
	}
	charAggs, err := st.ListCharErrorsForRounds(ctx, roundIDs(rounds))
	if err != nil {
		return Report{}, err
	}
	return Report{Rounds: rounds, CharAggs: charAggs}, nil
}

// Render writes every stats section for the report.
func (r Report) Render(w io.Writer, window, totalWidth int) error {
	if err := RenderSummary(w, r.Rounds); err != nil {
		return err
	}
	if len(r.Rounds) == 0 {
		return nil
	}
	if err := RenderCurves(w, r.Rounds, window, totalWidth); err != nil {
		return err
	}
	if err := RenderRecent(w, r.Rounds, defaultRecentRounds); err != nil {
		return err
	}
	return RenderCharTable(w, r.CharAggs)
}

func roundIDs(rounds []model.RoundAggregate) []string {
	ids := make([]string, len(rounds))
	for i, r := range rounds {
		ids[i] = r.RoundID
	}
	return ids
}
