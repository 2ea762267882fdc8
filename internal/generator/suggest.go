package generator

import (
	"fmt"

	"github.com/xtding233/loto-backend/internal/history"
	"github.com/xtding233/loto-backend/internal/stats"
)

const (
	// SuggestHot is how many of the most frequent numbers a suggestion starts from.
	SuggestHot = 10
	// SuggestCold is how many of the most overdue numbers are added to them.
	SuggestCold = 3
)

// Suggest builds one deterministic game of size numbers: the SuggestHot most
// frequent numbers over the whole history and the SuggestCold longest current
// gaps, completed with the lowest unused numbers. When hot and cold together
// exceed size the lowest of them are kept.
func Suggest(h *history.History, size int) (Game, error) {
	r := h.Rules()
	if err := r.ValidateGameSize(size); err != nil {
		return Game{}, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}

	origins := make(map[int]Origin, size)
	var set history.Set
	for _, n := range stats.Frequency(h, 0).Top(SuggestHot) {
		set = set.With(n)
		origins[n] = OriginHot
	}
	for _, n := range stats.Gaps(h).TopCurrent(SuggestCold) {
		if !set.Has(n) {
			set = set.With(n)
			origins[n] = OriginCold
		}
	}

	if set.Len() > size {
		var kept history.Set
		for _, n := range set.Numbers()[:size] {
			kept = kept.With(n)
		}
		set = kept
	}
	for n := 1; n <= r.MaxNumber && set.Len() < size; n++ {
		if !set.Has(n) {
			set = set.With(n)
			origins[n] = OriginNeutral
		}
	}
	for n := range origins {
		if !set.Has(n) {
			delete(origins, n)
		}
	}
	return Game{Numbers: set, Origins: origins}, nil
}
