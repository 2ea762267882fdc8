package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xtding233/loto-backend/internal/generator"
)

var ErrInvalidConfig = errors.New("config validation failed")

// ValidateRaw checks semantic constraints of a RawConfig that do not need the
// resolved rules. Game-size and tier bounds are checked again after Resolve.
func ValidateRaw(cfg RawConfig) error {
	var errs []string

	// rules
	if r := cfg.Rules; r != nil {
		if r.DrawSize != nil && *r.DrawSize < 1 {
			errs = append(errs, "rules.draw_size must be >= 1")
		}
		if r.MaxNumber != nil && (*r.MaxNumber < 1 || *r.MaxNumber > 64) {
			errs = append(errs, "rules.max_number must be in [1,64]")
		}
		if r.DrawSize != nil && r.MaxGameSize != nil && *r.MaxGameSize < *r.DrawSize {
			errs = append(errs, "rules.max_game_size must be >= draw_size")
		}
	}

	// generator
	if g := cfg.Generator; g != nil {
		if g.Count != nil && *g.Count < 1 {
			errs = append(errs, "generator.count must be >= 1")
		}
		if g.MaxCount != nil && (*g.MaxCount < 0 || *g.MaxCount > generator.CountLimit) {
			errs = append(errs, fmt.Sprintf("generator.max_count must be in [0,%d]", generator.CountLimit))
		}
		if g.Count != nil && g.MaxCount != nil && *g.MaxCount > 0 && *g.Count > *g.MaxCount {
			errs = append(errs, "generator.count must not exceed max_count")
		}
		switch generator.RunMedian(g.RunMedian) {
		case "", generator.RunMedianLengths, generator.RunMedianObservations:
		default:
			errs = append(errs, fmt.Sprintf("generator.run_median %q must be lengths or observations", g.RunMedian))
		}
		for _, f := range []struct {
			name string
			v    *int
		}{
			{"frequency_window", g.FrequencyWindow},
			{"hot_pool", g.HotPool},
			{"cold_pool", g.ColdPool},
			{"hot_picks", g.HotPicks},
			{"cold_picks", g.ColdPicks},
			{"last_draw_max_overlap", g.LastDrawMaxOverlap},
			{"target_sum", g.TargetSum},
			{"sum_margin", g.SumMargin},
			{"fill_passes", g.FillPasses},
			{"retry_budget", g.RetryBudget},
		} {
			if f.v != nil && *f.v < 0 {
				errs = append(errs, fmt.Sprintf("generator.%s must be >= 0", f.name))
			}
		}
		for _, f := range []struct {
			name string
			v    *float64
		}{
			{"run_reject_probability", g.RunReject},
			{"repeat_reject_probability", g.RepeatReject},
			{"sum_reject_probability", g.SumReject},
		} {
			if f.v != nil && (*f.v < 0 || *f.v > 1) {
				errs = append(errs, fmt.Sprintf("generator.%s must be in [0,1]", f.name))
			}
		}
	}

	// sampler
	if s := cfg.Sampler; s != nil {
		if s.TopN != nil && *s.TopN < 0 {
			errs = append(errs, "sampler.top_n must be >= 0")
		}
		if s.Budget != nil && *s.Budget < 0 {
			errs = append(errs, "sampler.budget must be >= 0")
		}
		if s.MaxBudget != nil && *s.MaxBudget < 0 {
			errs = append(errs, "sampler.max_budget must be >= 0 (0 means unlimited)")
		}
		if s.Budget != nil && s.MaxBudget != nil && *s.MaxBudget > 0 && *s.Budget > *s.MaxBudget {
			errs = append(errs, "sampler.budget must not exceed max_budget")
		}
		if msg := checkDuration("sampler.timeout", s.Timeout); msg != "" {
			errs = append(errs, msg)
		}
	}

	// history
	if h := cfg.History; h != nil {
		if msg := checkDuration("history.debounce", h.Debounce); msg != "" {
			errs = append(errs, msg)
		}
	}

	// pricing
	if p := cfg.Pricing; p != nil {
		for size, cents := range p.Stakes {
			if cents < 0 {
				errs = append(errs, fmt.Sprintf("pricing.stakes[%d] must be >= 0", size))
			}
		}
	}

	// latest (optional)
	if l := cfg.Latest; l != nil {
		if msg := checkDuration("latest.timeout", l.Timeout); msg != "" {
			errs = append(errs, msg)
		}
		if l.RatePerSecond != nil && *l.RatePerSecond <= 0 {
			errs = append(errs, "latest.rate_per_second must be > 0")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}

func checkDuration(field, v string) string {
	if v == "" {
		return ""
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Sprintf("%s: %v", field, err)
	}
	if d < 0 {
		return field + " must be >= 0"
	}
	return ""
}
