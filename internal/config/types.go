// types.go
package config

import (
	"time"

	"github.com/xtding233/loto-backend/internal/generator"
	"github.com/xtding233/loto-backend/internal/history"
	"github.com/xtding233/loto-backend/internal/pricing"
	"github.com/xtding233/loto-backend/internal/sampler"
)

// Raw config loaded from YAML; every field is optional so profiles can layer.
type RawConfig struct {
	Version   string           `yaml:"version"`
	Rules     *RulesConfig     `yaml:"rules,omitempty"`
	Generator *GeneratorConfig `yaml:"generator,omitempty"`
	Sampler   *SamplerConfig   `yaml:"sampler,omitempty"`
	History   *HistoryConfig   `yaml:"history,omitempty"`
	Pricing   *PricingConfig   `yaml:"pricing,omitempty"`
	Latest    *LatestConfig    `yaml:"latest,omitempty"`
	Ledger    *LedgerConfig    `yaml:"ledger,omitempty"`
	Notes     string           `yaml:"notes,omitempty"`
}

type RulesConfig struct {
	DrawSize    *int `yaml:"draw_size"`
	MaxNumber   *int `yaml:"max_number"`
	MaxGameSize *int `yaml:"max_game_size"`
}

type GeneratorConfig struct {
	Count              *int     `yaml:"count"`
	MaxCount           *int     `yaml:"max_count,omitempty"` // hard cap for request-supplied counts
	Size               *int     `yaml:"size"`
	FrequencyWindow    *int     `yaml:"frequency_window,omitempty"`
	HotPool            *int     `yaml:"hot_pool,omitempty"`
	ColdPool           *int     `yaml:"cold_pool,omitempty"`
	HotPicks           *int     `yaml:"hot_picks,omitempty"`
	ColdPicks          *int     `yaml:"cold_picks,omitempty"`
	RunMedian          string   `yaml:"run_median,omitempty"` // lengths | observations
	RunReject          *float64 `yaml:"run_reject_probability,omitempty"`
	AvoidLastDraw      *bool    `yaml:"avoid_last_draw,omitempty"`
	LastDrawMaxOverlap *int     `yaml:"last_draw_max_overlap,omitempty"`
	RepeatReject       *float64 `yaml:"repeat_reject_probability,omitempty"`
	BalanceSum         *bool    `yaml:"balance_sum,omitempty"`
	TargetSum          *int     `yaml:"target_sum,omitempty"`
	SumMargin          *int     `yaml:"sum_margin,omitempty"`
	SumReject          *float64 `yaml:"sum_reject_probability,omitempty"`
	FillPasses         *int     `yaml:"fill_passes,omitempty"`
	RetryBudget        *int     `yaml:"retry_budget,omitempty"`
}

type SamplerConfig struct {
	Size      *int   `yaml:"size"`
	Tier      *int   `yaml:"tier"`
	TopN      *int   `yaml:"top_n"`
	Budget    *int   `yaml:"budget"`
	MaxBudget *int   `yaml:"max_budget,omitempty"` // hard cap for request-supplied budgets
	Workers   *int   `yaml:"workers,omitempty"`
	Timeout   string `yaml:"timeout,omitempty"` // e.g. "30s"
}

type HistoryConfig struct {
	Path     string `yaml:"path"`
	Watch    *bool  `yaml:"watch,omitempty"`
	Debounce string `yaml:"debounce,omitempty"`
}

type PricingConfig struct {
	Currency string      `yaml:"currency"`
	Stakes   map[int]int `yaml:"stakes"` // size -> cents
}

type LatestConfig struct {
	URL           string   `yaml:"url"`
	Timeout       string   `yaml:"timeout,omitempty"`
	RatePerSecond *float64 `yaml:"rate_per_second,omitempty"`
}

type LedgerConfig struct {
	Path string `yaml:"path"`
}

// Normalized settings consumed by the engine and the servers.
type Settings struct {
	Version   string
	Rules     history.Rules
	Generator generator.Params
	Sampler   SamplerSettings
	History   HistorySettings
	Pricing   pricing.Catalog
	Latest    LatestSettings
	Ledger    LedgerSettings
}

type SamplerSettings struct {
	Defaults  sampler.Params
	MaxBudget int
	Timeout   time.Duration
}

type HistorySettings struct {
	Path     string
	Watch    bool
	Debounce time.Duration
}

type LatestSettings struct {
	URL           string
	Timeout       time.Duration
	RatePerSecond float64
}

type LedgerSettings struct {
	Path string
}
