// Package backtest scores candidate games against every historical draw.
package backtest

import (
	"fmt"

	"github.com/xtding233/loto-backend/internal/history"
)

// TierCounts maps an overlap tier (Floor..K) to the number of draws that produced it.
// Every tier is present, zero or not.
type TierCounts map[int]int

// Total is the number of draws that reached any tier.
func (tc TierCounts) Total() int {
	t := 0
	for _, c := range tc {
		t += c
	}
	return t
}

// Record is the backtest of one game.
type Record struct {
	Index   int         `json:"index"`
	Numbers history.Set `json:"numbers"`
	Tiers   TierCounts  `json:"tiers"`
	Total   int         `json:"total"`
}

// Score tallies, for one game, how many draws overlapped it at each tier.
// Draws without exactly K numbers contribute nothing.
func Score(h *history.History, game history.Set) TierCounts {
	r := h.Rules()
	floor := r.Floor()
	tc := make(TierCounts, r.DrawSize-floor+1)
	for _, t := range r.Tiers() {
		tc[t] = 0
	}
	for i := 0; i < h.Len(); i++ {
		d := h.At(i).Numbers
		if d.Len() != r.DrawSize {
			continue
		}
		if hits := game.Overlap(d); hits >= floor {
			tc[hits]++
		}
	}
	return tc
}

// Evaluate validates every game and backtests it against the full history.
// Cost is O(len(games) × len(history)).
func Evaluate(h *history.History, games [][]int) ([]Record, error) {
	r := h.Rules()
	sets := make([]history.Set, len(games))
	for i, g := range games {
		s, err := history.ValidateGame(r, g)
		if err != nil {
			return nil, fmt.Errorf("game %d: %w", i+1, err)
		}
		sets[i] = s
	}
	return EvaluateSets(h, sets), nil
}

// EvaluateSets backtests games that are already known to be valid.
func EvaluateSets(h *history.History, games []history.Set) []Record {
	out := make([]Record, 0, len(games))
	for i, g := range games {
		tc := Score(h, g)
		out = append(out, Record{Index: i + 1, Numbers: g, Tiers: tc, Total: tc.Total()})
	}
	return out
}
