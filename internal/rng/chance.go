// Package rng provides the random sources and Bernoulli trials used by the generators.
package rng

import (
	"errors"
	"math"
)

var ErrInvalidProb = errors.New("invalid probability p; must be 0..1")

// Chance runs one Bernoulli trial under p and reports whether it hit.
// p <= 0 => never. p >= 1 => always. otherwise, rng.Float64() < p
func Chance(p float64, src RandomSource) (bool, error) {
	if err := ValidateProb(p); err != nil {
		return false, err
	}
	if p <= 0 {
		return false, nil
	}
	if p >= 1 {
		return true, nil
	}
	if src == nil {
		src = DefaultRNG()
	}
	return src.Float64() < p, nil
}

// ValidateProb rejects NaN, infinities and values outside [0, 1].
func ValidateProb(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return ErrInvalidProb
	}
	if p < 0 || p > 1 {
		return ErrInvalidProb
	}
	return nil
}
