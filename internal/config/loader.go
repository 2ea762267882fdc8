package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultProfile is the profile used when none is named.
const DefaultProfile = "lotofacil"

// Paths helper for default/profile files.
type Paths struct {
	BaseDir string // base directory, e.g., /opt/loto/configs
}

func (p Paths) DefaultPath() string {
	return filepath.Join(p.BaseDir, "profiles", "default.yaml")
}
func (p Paths) ProfilePath(profile string) string {
	return filepath.Join(p.BaseDir, "profiles", profile+".yaml")
}

// Loader reads YAML configs and merges default → profile.
type Loader struct {
	paths Paths

	mu    sync.RWMutex
	cache map[string]RawConfig // key: profile name
}

// NewLoader creates a config loader with the given base directory.
func NewLoader(baseDir string) *Loader {
	return &Loader{
		paths: Paths{BaseDir: baseDir},
		cache: make(map[string]RawConfig),
	}
}

// Paths returns the files the loader reads for profile, for watching.
func (l *Loader) Paths(profile string) []string {
	return []string{l.paths.DefaultPath(), l.paths.ProfilePath(profile)}
}

// LoadMerged loads and merges default → profile.
// Missing files are treated as empty; malformed files are errors.
func (l *Loader) LoadMerged(profile string) (RawConfig, error) {
	if profile == "" {
		profile = DefaultProfile
	}
	l.mu.RLock()
	if cfg, ok := l.cache[profile]; ok {
		l.mu.RUnlock()
		return cfg, nil
	}
	l.mu.RUnlock()

	defCfg, err := readYAML(l.paths.DefaultPath())
	if err != nil {
		return RawConfig{}, fmt.Errorf("read default: %w", err)
	}
	profCfg, err := readYAML(l.paths.ProfilePath(profile))
	if err != nil {
		return RawConfig{}, fmt.Errorf("read profile %s: %w", profile, err)
	}
	merged := mergeRaw(defCfg, profCfg)

	l.mu.Lock()
	l.cache[profile] = merged
	l.mu.Unlock()
	return merged, nil
}

// Invalidate clears loader's cache. Call after a watcher detects changes.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]RawConfig)
}

// readYAML loads a YAML file into RawConfig. Missing files return zero cfg, no error.
func readYAML(path string) (RawConfig, error) {
	var cfg RawConfig
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return RawConfig{}, nil
		}
		return RawConfig{}, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return RawConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// pick returns b when set, a otherwise.
func pick[T any](a, b *T) *T {
	if b != nil {
		return b
	}
	return a
}

func pickStr(a, b string) string {
	if b != "" {
		return b
	}
	return a
}

// mergeRaw performs a deep merge: 'b' overrides 'a' wherever b sets a value.
// Stake tables merge per size.
func mergeRaw(a, b RawConfig) RawConfig {
	out := a
	out.Version = pickStr(a.Version, b.Version)
	out.Notes = pickStr(a.Notes, b.Notes)

	if b.Rules != nil {
		r := RulesConfig{}
		if a.Rules != nil {
			r = *a.Rules
		}
		r.DrawSize = pick(r.DrawSize, b.Rules.DrawSize)
		r.MaxNumber = pick(r.MaxNumber, b.Rules.MaxNumber)
		r.MaxGameSize = pick(r.MaxGameSize, b.Rules.MaxGameSize)
		out.Rules = &r
	}

	if b.Generator != nil {
		g := GeneratorConfig{}
		if a.Generator != nil {
			g = *a.Generator
		}
		bg := b.Generator
		g.Count = pick(g.Count, bg.Count)
		g.Size = pick(g.Size, bg.Size)
		g.FrequencyWindow = pick(g.FrequencyWindow, bg.FrequencyWindow)
		g.HotPool = pick(g.HotPool, bg.HotPool)
		g.ColdPool = pick(g.ColdPool, bg.ColdPool)
		g.HotPicks = pick(g.HotPicks, bg.HotPicks)
		g.ColdPicks = pick(g.ColdPicks, bg.ColdPicks)
		g.RunReject = pick(g.RunReject, bg.RunReject)
		g.AvoidLastDraw = pick(g.AvoidLastDraw, bg.AvoidLastDraw)
		g.LastDrawMaxOverlap = pick(g.LastDrawMaxOverlap, bg.LastDrawMaxOverlap)
		g.RepeatReject = pick(g.RepeatReject, bg.RepeatReject)
		g.BalanceSum = pick(g.BalanceSum, bg.BalanceSum)
		g.TargetSum = pick(g.TargetSum, bg.TargetSum)
		g.SumMargin = pick(g.SumMargin, bg.SumMargin)
		g.SumReject = pick(g.SumReject, bg.SumReject)
		g.FillPasses = pick(g.FillPasses, bg.FillPasses)
		g.RetryBudget = pick(g.RetryBudget, bg.RetryBudget)
		out.Generator = &g
	}

	if b.Sampler != nil {
		s := SamplerConfig{}
		if a.Sampler != nil {
			s = *a.Sampler
		}
		bs := b.Sampler
		s.Size = pick(s.Size, bs.Size)
		s.Tier = pick(s.Tier, bs.Tier)
		s.TopN = pick(s.TopN, bs.TopN)
		s.Budget = pick(s.Budget, bs.Budget)
		s.MaxBudget = pick(s.MaxBudget, bs.MaxBudget)
		s.Workers = pick(s.Workers, bs.Workers)
		s.Timeout = pickStr(s.Timeout, bs.Timeout)
		out.Sampler = &s
	}

	if b.History != nil {
		h := HistoryConfig{}
		if a.History != nil {
			h = *a.History
		}
		h.Path = pickStr(h.Path, b.History.Path)
		h.Watch = pick(h.Watch, b.History.Watch)
		h.Debounce = pickStr(h.Debounce, b.History.Debounce)
		out.History = &h
	}

	if b.Pricing != nil {
		p := PricingConfig{}
		if a.Pricing != nil {
			p.Currency = a.Pricing.Currency
			p.Stakes = maps.Clone(a.Pricing.Stakes)
		}
		p.Currency = pickStr(p.Currency, b.Pricing.Currency)
		if len(b.Pricing.Stakes) > 0 && p.Stakes == nil {
			p.Stakes = make(map[int]int, len(b.Pricing.Stakes))
		}
		maps.Copy(p.Stakes, b.Pricing.Stakes)
		out.Pricing = &p
	}

	if b.Latest != nil {
		l := LatestConfig{}
		if a.Latest != nil {
			l = *a.Latest
		}
		l.URL = pickStr(l.URL, b.Latest.URL)
		l.Timeout = pickStr(l.Timeout, b.Latest.Timeout)
		l.RatePerSecond = pick(l.RatePerSecond, b.Latest.RatePerSecond)
		out.Latest = &l
	}

	if b.Ledger != nil {
		l := LedgerConfig{}
		if a.Ledger != nil {
			l = *a.Ledger
		}
		l.Path = pickStr(l.Path, b.Ledger.Path)
		out.Ledger = &l
	}
	return out
}
