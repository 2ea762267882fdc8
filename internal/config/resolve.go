// resolve.go
package config

import (
	"fmt"
	"time"

	"github.com/xtding233/loto-backend/internal/generator"
	"github.com/xtding233/loto-backend/internal/history"
	"github.com/xtding233/loto-backend/internal/pricing"
	"github.com/xtding233/loto-backend/internal/sampler"
)

// Overrides carries per-request query overrides on top of the resolved settings.
type Overrides struct {
	Count           *int
	Size            *int
	Seed            *uint64
	FrequencyWindow *int
	AvoidLastDraw   *bool
	BalanceSum      *bool
	TargetSum       *int

	Tier   *int
	TopN   *int
	Budget *int
}

type Resolver interface {
	// Returns merged RawConfig and normalized Settings
	Resolve(profile string) (RawConfig, Settings, error)
}

// Resolve merges default → profile and normalizes the result.
func (l *Loader) Resolve(profile string) (RawConfig, Settings, error) {
	raw, err := l.LoadMerged(profile)
	if err != nil {
		return RawConfig{}, Settings{}, err
	}
	s, err := Normalize(raw)
	if err != nil {
		return RawConfig{}, Settings{}, err
	}
	return raw, s, nil
}

// Normalize validates raw and fills every unset field with its default.
func Normalize(raw RawConfig) (Settings, error) {
	if err := ValidateRaw(raw); err != nil {
		return Settings{}, err
	}
	s := Defaults()
	s.Version = raw.Version

	if r := raw.Rules; r != nil {
		setInt(&s.Rules.DrawSize, r.DrawSize)
		setInt(&s.Rules.MaxNumber, r.MaxNumber)
		setInt(&s.Rules.MaxGameSize, r.MaxGameSize)
	}
	if err := s.Rules.Validate(); err != nil {
		return Settings{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	// rules may have moved the playable range
	s.Generator.Size = s.Rules.DrawSize
	s.Sampler.Defaults.Size = s.Rules.DrawSize
	s.Sampler.Defaults.Tier = s.Rules.DrawSize

	if g := raw.Generator; g != nil {
		p := &s.Generator
		setInt(&p.Count, g.Count)
		setInt(&p.MaxCount, g.MaxCount)
		setInt(&p.Size, g.Size)
		setInt(&p.FrequencyWindow, g.FrequencyWindow)
		setInt(&p.HotPool, g.HotPool)
		setInt(&p.ColdPool, g.ColdPool)
		setInt(&p.HotPicks, g.HotPicks)
		setInt(&p.ColdPicks, g.ColdPicks)
		if g.RunMedian != "" {
			p.RunMedian = generator.RunMedian(g.RunMedian)
		}
		setFloat(&p.RunRejectProbability, g.RunReject)
		setBool(&p.AvoidLastDraw, g.AvoidLastDraw)
		setInt(&p.LastDrawMaxOverlap, g.LastDrawMaxOverlap)
		setFloat(&p.RepeatRejectProbability, g.RepeatReject)
		setBool(&p.BalanceSum, g.BalanceSum)
		setInt(&p.TargetSum, g.TargetSum)
		setInt(&p.SumMargin, g.SumMargin)
		setFloat(&p.SumRejectProbability, g.SumReject)
		setInt(&p.FillPasses, g.FillPasses)
		setInt(&p.RetryBudget, g.RetryBudget)
	}
	if err := s.Generator.Validate(s.Rules); err != nil {
		return Settings{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if sc := raw.Sampler; sc != nil {
		d := &s.Sampler.Defaults
		setInt(&d.Size, sc.Size)
		setInt(&d.Tier, sc.Tier)
		setInt(&d.TopN, sc.TopN)
		setInt(&d.Budget, sc.Budget)
		setInt(&d.Workers, sc.Workers)
		setInt(&s.Sampler.MaxBudget, sc.MaxBudget)
		setDuration(&s.Sampler.Timeout, sc.Timeout)
	}
	if err := s.Sampler.Defaults.Validate(s.Rules); err != nil {
		return Settings{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if h := raw.History; h != nil {
		if h.Path != "" {
			s.History.Path = h.Path
		}
		setBool(&s.History.Watch, h.Watch)
		setDuration(&s.History.Debounce, h.Debounce)
	}

	if p := raw.Pricing; p != nil {
		if p.Currency != "" {
			s.Pricing.Currency = p.Currency
		}
		if len(p.Stakes) > 0 {
			s.Pricing.Stakes = p.Stakes
		}
	}

	if l := raw.Latest; l != nil {
		s.Latest.URL = l.URL
		setDuration(&s.Latest.Timeout, l.Timeout)
		setFloat(&s.Latest.RatePerSecond, l.RatePerSecond)
	}
	if raw.Ledger != nil && raw.Ledger.Path != "" {
		s.Ledger.Path = raw.Ledger.Path
	}
	return s, nil
}

// Defaults are the settings used when no profile file exists.
func Defaults() Settings {
	r := history.DefaultRules()
	return Settings{
		Rules:     r,
		Generator: generator.DefaultParams(),
		Sampler: SamplerSettings{
			Defaults: sampler.Params{
				Size:   r.DrawSize,
				Tier:   r.DrawSize,
				TopN:   10,
				Budget: 20000,
			},
			MaxBudget: 1_000_000,
			Timeout:   30 * time.Second,
		},
		History: HistorySettings{
			Path:     "data/draws.csv",
			Watch:    true,
			Debounce: 500 * time.Millisecond,
		},
		Pricing: pricing.DefaultCatalog(),
		Latest: LatestSettings{
			Timeout:       10 * time.Second,
			RatePerSecond: 1,
		},
	}
}

// Generator applies o to the configured generator params. MaxCount is never
// overridden, so a requested count above it fails validation.
func (o Overrides) Generator(p generator.Params) generator.Params {
	setInt(&p.Count, o.Count)
	setInt(&p.Size, o.Size)
	if o.Seed != nil {
		seed := *o.Seed
		p.Seed = &seed
	}
	setInt(&p.FrequencyWindow, o.FrequencyWindow)
	setBool(&p.AvoidLastDraw, o.AvoidLastDraw)
	setBool(&p.BalanceSum, o.BalanceSum)
	setInt(&p.TargetSum, o.TargetSum)
	return p
}

// Sampler applies o to the configured sampler defaults. A requested budget
// above MaxBudget is clamped rather than rejected.
func (o Overrides) Sampler(s SamplerSettings) sampler.Params {
	p := s.Defaults
	setInt(&p.Size, o.Size)
	setInt(&p.Tier, o.Tier)
	setInt(&p.TopN, o.TopN)
	setInt(&p.Budget, o.Budget)
	if o.Seed != nil {
		seed := *o.Seed
		p.Seed = &seed
	}
	if s.MaxBudget > 0 && p.Budget > s.MaxBudget {
		p.Budget = s.MaxBudget
	}
	return p
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// setDuration assumes v already passed ValidateRaw.
func setDuration(dst *time.Duration, v string) {
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}
