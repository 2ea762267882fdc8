package generator

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/xtding233/loto-backend/internal/history"
	"github.com/xtding233/loto-backend/internal/rng"
)

var ErrInvalidParams = errors.New("invalid generator params")

// RunMedian selects how the allowed run length reads the run distribution.
type RunMedian string

const (
	// RunMedianLengths takes the median of the distinct run lengths observed.
	RunMedianLengths RunMedian = "lengths"
	// RunMedianObservations weights each length by how often it occurred.
	RunMedianObservations RunMedian = "observations"
)

const (
	// DefaultMaxCount caps Count when MaxCount is unset.
	DefaultMaxCount = 300
	// CountLimit is the largest MaxCount a configuration may set.
	CountLimit = 100_000
)

// Params controls one Generate call. Zero values of the derived fields
// (HotPicks, ColdPicks, LastDrawMaxOverlap, TargetSum, RetryBudget) mean "derive from size/history".
type Params struct {
	Count    int     `json:"count"`
	MaxCount int     `json:"max_count"` // 0 => DefaultMaxCount
	Size     int     `json:"size"`
	Seed     *uint64 `json:"seed,omitempty"` // nil => crypto source

	// seeding
	FrequencyWindow int `json:"frequency_window"` // draws used for "hot" ranking; 0 = whole history
	HotPool         int `json:"hot_pool"`         // top-frequency numbers eligible as hot seeds
	ColdPool        int `json:"cold_pool"`        // top-gap numbers eligible as cold seeds
	HotPicks        int `json:"hot_picks"`
	ColdPicks       int `json:"cold_picks"`

	// anti-clustering
	RunMedian            RunMedian `json:"run_median"` // "" => lengths
	RunRejectProbability float64   `json:"run_reject_probability"`

	// anti-repeat against the last draw in history
	AvoidLastDraw           bool    `json:"avoid_last_draw"`
	LastDrawMaxOverlap      int     `json:"last_draw_max_overlap"`
	RepeatRejectProbability float64 `json:"repeat_reject_probability"`

	// target-sum balancing
	BalanceSum           bool    `json:"balance_sum"`
	TargetSum            int     `json:"target_sum"`
	SumMargin            int     `json:"sum_margin"`
	SumRejectProbability float64 `json:"sum_reject_probability"`

	// budgets
	FillPasses  int `json:"fill_passes"`  // shuffled passes over unused numbers before forcing
	RetryBudget int `json:"retry_budget"` // candidate builds across the whole call
}

// DefaultParams returns the stock heuristics for one 15-number game.
func DefaultParams() Params {
	return Params{
		Count:                   1,
		MaxCount:                DefaultMaxCount,
		Size:                    15,
		HotPool:                 12,
		ColdPool:                10,
		RunMedian:               RunMedianLengths,
		RunRejectProbability:    0.85,
		AvoidLastDraw:           true,
		RepeatRejectProbability: 0.9,
		BalanceSum:              true,
		SumMargin:               20,
		SumRejectProbability:    0.5,
		FillPasses:              3,
	}
}

// Validate checks p against the lottery rules, collecting every problem.
func (p Params) Validate(r history.Rules) error {
	var errs []string
	switch {
	case p.MaxCount < 0 || p.MaxCount > CountLimit:
		errs = append(errs, fmt.Sprintf("max_count must be in [0,%d]", CountLimit))
	case p.Count < 1:
		errs = append(errs, "count must be >= 1")
	case p.Count > p.maxCount():
		errs = append(errs, fmt.Sprintf("count must be <= %d", p.maxCount()))
	}
	switch p.RunMedian {
	case "", RunMedianLengths, RunMedianObservations:
	default:
		errs = append(errs, fmt.Sprintf("run_median must be %q or %q", RunMedianLengths, RunMedianObservations))
	}
	if err := r.ValidateGameSize(p.Size); err != nil {
		errs = append(errs, err.Error())
	}
	for _, f := range []struct {
		name string
		v    int
	}{
		{"frequency_window", p.FrequencyWindow},
		{"hot_pool", p.HotPool},
		{"cold_pool", p.ColdPool},
		{"hot_picks", p.HotPicks},
		{"cold_picks", p.ColdPicks},
		{"last_draw_max_overlap", p.LastDrawMaxOverlap},
		{"target_sum", p.TargetSum},
		{"sum_margin", p.SumMargin},
		{"retry_budget", p.RetryBudget},
	} {
		if f.v < 0 {
			errs = append(errs, f.name+" must be >= 0")
		}
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"run_reject_probability", p.RunRejectProbability},
		{"repeat_reject_probability", p.RepeatRejectProbability},
		{"sum_reject_probability", p.SumRejectProbability},
	} {
		if rng.ValidateProb(f.v) != nil {
			errs = append(errs, f.name+" must be in [0,1]")
		}
	}
	if p.FillPasses < 1 {
		errs = append(errs, "fill_passes must be >= 1")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidParams, strings.Join(errs, "; "))
	}
	return nil
}

func (p Params) hotPicks() int {
	if p.HotPicks > 0 {
		return p.HotPicks
	}
	return min(6, max(3, p.Size/3))
}

func (p Params) coldPicks() int {
	if p.ColdPicks > 0 {
		return p.ColdPicks
	}
	return min(4, max(2, p.Size/6))
}

func (p Params) lastDrawThreshold() int {
	if p.LastDrawMaxOverlap > 0 {
		return p.LastDrawMaxOverlap
	}
	return max(p.Size-3, 0)
}

func (p Params) maxCount() int {
	if p.MaxCount > 0 {
		return p.MaxCount
	}
	return DefaultMaxCount
}

const retriesPerGame = 20

func (p Params) retryBudget() int {
	if p.RetryBudget > 0 {
		return p.RetryBudget
	}
	if p.Count > math.MaxInt/retriesPerGame {
		return math.MaxInt
	}
	return p.Count * retriesPerGame
}
