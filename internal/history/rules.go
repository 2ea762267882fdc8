// Package history holds the validated, immutable draw history every analysis reads from.
package history

import (
	"errors"
	"fmt"
)

// MaxUniverse is the largest number universe a Set can represent.
const MaxUniverse = 64

var ErrInvalidRules = errors.New("invalid lottery rules")

// Rules describes the shape of one lottery: K numbers are drawn from [1, M],
// and a played game may mark between K and MaxGameSize numbers.
type Rules struct {
	DrawSize    int `yaml:"draw_size" json:"draw_size"`         // K, e.g. 15
	MaxNumber   int `yaml:"max_number" json:"max_number"`       // M, e.g. 25
	MaxGameSize int `yaml:"max_game_size" json:"max_game_size"` // e.g. 20
}

// DefaultRules returns the 15-of-25 layout.
func DefaultRules() Rules {
	return Rules{DrawSize: 15, MaxNumber: 25, MaxGameSize: 20}
}

// Validate checks the rules are internally consistent.
func (r Rules) Validate() error {
	switch {
	case r.MaxNumber < 1 || r.MaxNumber > MaxUniverse:
		return fmt.Errorf("%w: max_number must be in [1,%d], got %d", ErrInvalidRules, MaxUniverse, r.MaxNumber)
	case r.DrawSize < 1 || r.DrawSize > r.MaxNumber:
		return fmt.Errorf("%w: draw_size must be in [1,%d], got %d", ErrInvalidRules, r.MaxNumber, r.DrawSize)
	case r.MaxGameSize < r.DrawSize || r.MaxGameSize > r.MaxNumber:
		return fmt.Errorf("%w: max_game_size must be in [%d,%d], got %d", ErrInvalidRules, r.DrawSize, r.MaxNumber, r.MaxGameSize)
	}
	return nil
}

// Floor is the lowest overlap that counts as a scoring tier (K-4, never below 0).
func (r Rules) Floor() int {
	if r.DrawSize < 4 {
		return 0
	}
	return r.DrawSize - 4
}

// Tiers lists the scoring tiers from Floor up to DrawSize.
func (r Rules) Tiers() []int {
	out := make([]int, 0, r.DrawSize-r.Floor()+1)
	for t := r.Floor(); t <= r.DrawSize; t++ {
		out = append(out, t)
	}
	return out
}

// ValidateGameSize reports whether size is a playable game size.
func (r Rules) ValidateGameSize(size int) error {
	if size < r.DrawSize || size > r.MaxGameSize {
		return fmt.Errorf("%w: size must be in [%d,%d], got %d", ErrInvalidGame, r.DrawSize, r.MaxGameSize, size)
	}
	return nil
}

// ValidateTier reports whether tier is one of the scoring tiers.
func (r Rules) ValidateTier(tier int) error {
	if tier < r.Floor() || tier > r.DrawSize {
		return fmt.Errorf("%w: tier must be in [%d,%d], got %d", ErrInvalidGame, r.Floor(), r.DrawSize, tier)
	}
	return nil
}
