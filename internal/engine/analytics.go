package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xtding233/loto-backend/internal/backtest"
	"github.com/xtding233/loto-backend/internal/config"
	"github.com/xtding233/loto-backend/internal/generator"
	"github.com/xtding233/loto-backend/internal/history"
	"github.com/xtding233/loto-backend/internal/sampler"
	"github.com/xtding233/loto-backend/internal/stats"
)

// summaryCombos is how many sub-combinations per size the summary keeps.
const summaryCombos = 10

// Summary bundles every detector over one history snapshot.
type Summary struct {
	Draws      int                   `json:"draws"`
	Rejected   int                   `json:"rejected"`
	Last       *history.Draw         `json:"last,omitempty"`
	Frequency  stats.FrequencyTable  `json:"frequency"`
	Gaps       []stats.Gap           `json:"gaps"` // current desc
	Parity     []stats.ParitySplit   `json:"parity"`
	Runs       stats.RunTable        `json:"runs"`
	AllowedRun int                   `json:"allowed_run"`
	Sums       stats.SumSummary      `json:"sums"`
	Combos     map[int][]stats.Combo `json:"combos"`
}

// Summary runs all detectors once per snapshot and caches the result.
func (e *Engine) Summary() Summary {
	s := e.snap.Load()
	s.summaryOnce.Do(func() {
		start := time.Now()
		s.summary = summarize(s.hist, len(s.report.Rejected))
		e.log.WithFields(logrus.Fields{
			"draws":   s.summary.Draws,
			"elapsed": time.Since(start).String(),
		}).Debug("summary computed")
	})
	sum := s.summary
	// the median mode is a setting, so it is applied outside the cache
	sum.AllowedRun = generator.AllowedRun(sum.Runs, e.Settings().Generator.RunMedian)
	return sum
}

func summarize(h *history.History, rejected int) Summary {
	runs := stats.Runs(h)
	combos, _ := stats.Combinations(h, stats.AllComboSizes(), summaryCombos)
	sum := Summary{
		Draws:     h.Len(),
		Rejected:  rejected,
		Frequency: stats.Frequency(h, 0),
		Gaps:      stats.Gaps(h).ByCurrent(),
		Parity:    stats.Parity(h),
		Runs:      runs,
		Sums:      stats.Sums(h),
		Combos:    combos,
	}
	if d, ok := h.Last(); ok {
		sum.Last = &d
	}
	return sum
}

// Frequency ranks numbers over the last window draws (0 = all).
func (e *Engine) Frequency(window int) (stats.FrequencyTable, error) {
	if window < 0 {
		return stats.FrequencyTable{}, fmt.Errorf("%w: window must be >= 0", ErrInvalidArgument)
	}
	if window == 0 {
		return e.Summary().Frequency, nil
	}
	return stats.Frequency(e.History(), window), nil
}

// Gaps returns the per-number gap table of the current snapshot.
func (e *Engine) Gaps() stats.GapTable {
	return stats.Gaps(e.History())
}

// Combinations counts sub-combinations for the given sizes; topN < 0 returns all.
func (e *Engine) Combinations(sizes []int, topN int) (map[int][]stats.Combo, error) {
	if len(sizes) == 0 {
		sizes = stats.AllComboSizes()
	}
	return stats.Combinations(e.History(), sizes, topN)
}

// Generate runs the balanced generator with the configured params plus o.
func (e *Engine) Generate(o config.Overrides) (generator.Result, error) {
	p := o.Generator(e.Settings().Generator)
	res, err := generator.Generate(e.History(), p, e.log)
	if err != nil {
		return generator.Result{}, err
	}
	e.metrics.ObserveGenerate(res.Produced, res.Shortfall(), res.Forced)
	return res, nil
}

// Sample runs the Monte-Carlo sampler, bounded by the configured timeout.
// Budgets above the configured maximum are clamped.
func (e *Engine) Sample(ctx context.Context, o config.Overrides) (sampler.Report, error) {
	s := e.Settings()
	p := o.Sampler(s.Sampler)
	if s.Sampler.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Sampler.Timeout)
		defer cancel()
	}

	start := time.Now()
	rep, err := sampler.Sample(ctx, e.History(), p)
	elapsed := time.Since(start)
	e.metrics.ObserveSample(rep.Sampled, rep.Truncated, elapsed, err)
	if err != nil {
		return sampler.Report{}, err
	}
	e.log.WithFields(logrus.Fields{
		"size":      p.Size,
		"tier":      p.Tier,
		"budget":    p.Budget,
		"sampled":   rep.Sampled,
		"qualified": rep.Qualified,
		"truncated": rep.Truncated,
		"elapsed":   elapsed.String(),
	}).Info("sampler finished")
	return rep, nil
}

// Evaluate backtests games against the current snapshot.
func (e *Engine) Evaluate(games [][]int) ([]backtest.Record, error) {
	if len(games) == 0 {
		return nil, fmt.Errorf("%w: no games", ErrInvalidArgument)
	}
	return backtest.Evaluate(e.History(), games)
}
