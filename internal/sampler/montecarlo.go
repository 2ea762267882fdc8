// Package sampler searches random candidate games for the ones that would have
// reached a given score tier most often across the full history.
//
// It is a plain Monte-Carlo estimate: quality grows with the sample budget and
// nothing guarantees a global optimum. Cost is O(budget × len(history)), each
// overlap being a single popcount, so callers in interactive paths should bound
// both the budget and the wall clock through the context.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/xtding233/loto-backend/internal/backtest"
	"github.com/xtding233/loto-backend/internal/history"
	"github.com/xtding233/loto-backend/internal/rng"
)

var ErrInvalidParams = errors.New("invalid sampler params")

// batchSize bounds how many candidates are drawn between context checks.
const batchSize = 512

// Params describes one sampling run.
type Params struct {
	Size    int     `json:"size"`
	Tier    int     `json:"tier"`
	TopN    int     `json:"top_n"`
	Budget  int     `json:"budget"`  // random draws, duplicates included
	Workers int     `json:"workers"` // <= 0 means GOMAXPROCS
	Seed    *uint64 `json:"seed,omitempty"`
}

// Candidate is one ranked game.
type Candidate struct {
	Numbers history.Set         `json:"numbers"`
	Tiers   backtest.TierCounts `json:"tiers"`
	Total   int                 `json:"total"`
	AtTier  int                 `json:"at_tier"`
	Rate    float64             `json:"rate_pct"` // AtTier as a percentage of all draws
}

// Report summarizes a run.
type Report struct {
	Candidates []Candidate `json:"candidates"`
	Sampled    int         `json:"sampled"`   // random draws consumed from the budget
	Unique     int         `json:"unique"`    // distinct candidates evaluated
	Qualified  int         `json:"qualified"` // candidates with at least one tier hit
	Truncated  bool        `json:"truncated"` // context ended before the budget was spent
}

// Validate checks p against the rules.
func (p Params) Validate(r history.Rules) error {
	if err := r.ValidateGameSize(p.Size); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	if err := r.ValidateTier(p.Tier); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	if p.TopN < 0 {
		return fmt.Errorf("%w: top_n must be >= 0", ErrInvalidParams)
	}
	if p.Budget < 0 {
		return fmt.Errorf("%w: budget must be >= 0", ErrInvalidParams)
	}
	return nil
}

// Sample draws p.Budget random games, backtests the distinct ones and returns the
// best p.TopN by (hits at p.Tier, total tier hits). Candidates without any tier hit
// are dropped. When ctx ends early the report holds what was finished and Truncated is set.
func Sample(ctx context.Context, h *history.History, p Params) (Report, error) {
	r := h.Rules()
	if err := p.Validate(r); err != nil {
		return Report{}, err
	}
	rep := Report{Candidates: []Candidate{}}
	if p.Budget == 0 || p.TopN == 0 {
		return rep, nil
	}
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	src := rng.FromSeed(p.Seed)
	universe := make([]int, r.MaxNumber)
	for i := range universe {
		universe[i] = i + 1
	}
	tried := make(map[history.Set]struct{})
	var qualified []Candidate

	for rep.Sampled < p.Budget {
		if ctx.Err() != nil {
			rep.Truncated = true
			break
		}
		batch := make([]history.Set, 0, batchSize)
		for len(batch) < batchSize && rep.Sampled < p.Budget {
			rep.Sampled++
			s := history.SetOf(rng.Sample(src, universe, p.Size)...)
			if _, dup := tried[s]; dup {
				continue
			}
			tried[s] = struct{}{}
			batch = append(batch, s)
		}

		scored, err := scoreBatch(ctx, h, batch, workers)
		if err != nil {
			rep.Truncated = true
			break
		}
		rep.Unique += len(batch)
		for i, tc := range scored {
			total := tc.Total()
			if total == 0 {
				continue
			}
			qualified = append(qualified, Candidate{
				Numbers: batch[i],
				Tiers:   tc,
				Total:   total,
				AtTier:  tc[p.Tier],
				Rate:    100 * float64(tc[p.Tier]) / float64(h.Len()),
			})
		}
	}

	rep.Qualified = len(qualified)
	rank(qualified)
	if len(qualified) > p.TopN {
		qualified = qualified[:p.TopN]
	}
	rep.Candidates = append(rep.Candidates, qualified...)
	return rep, nil
}

// scoreBatch backtests a batch data-parallel; results line up with batch.
func scoreBatch(ctx context.Context, h *history.History, batch []history.Set, workers int) ([]backtest.TierCounts, error) {
	out := make([]backtest.TierCounts, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	chunk := (len(batch) + workers - 1) / workers
	for start := 0; start < len(batch); start += chunk {
		lo, hi := start, min(start+chunk, len(batch))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				out[i] = backtest.Score(h, batch[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// rank orders by hits at the tier, then total hits, then numbers ascending.
func rank(cs []Candidate) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].AtTier != cs[j].AtTier {
			return cs[i].AtTier > cs[j].AtTier
		}
		if cs[i].Total != cs[j].Total {
			return cs[i].Total > cs[j].Total
		}
		a, b := cs[i].Numbers.Numbers(), cs[j].Numbers.Numbers()
		for k := range min(len(a), len(b)) {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return len(a) < len(b)
	})
}
