package stats

import (
	"errors"
	"fmt"
	"sort"

	"github.com/xtding233/loto-backend/internal/history"
)

const (
	MinComboSize = 2
	MaxComboSize = 5
)

var ErrComboSize = errors.New("combination size out of range")

// Combo is a sub-combination of drawn numbers and how many draws contained it.
type Combo struct {
	Numbers history.Set `json:"numbers"`
	Count   int         `json:"count"`
}

// Combinations counts every size-s subset of every draw for each requested size
// and returns the topN most frequent per size (count desc, then numbers asc).
//
// Cost is C(K, s) subsets per draw; with K = 15 and s = 5 that is 3003 per draw.
// Sizes are capped at 5 to keep enumeration bounded; draws much wider than
// 20 numbers make this a performance cliff.
func Combinations(h *history.History, sizes []int, topN int) (map[int][]Combo, error) {
	for _, s := range sizes {
		if s < MinComboSize || s > MaxComboSize {
			return nil, fmt.Errorf("%w: %d not in [%d,%d]", ErrComboSize, s, MinComboSize, MaxComboSize)
		}
	}
	out := make(map[int][]Combo, len(sizes))
	for _, s := range sizes {
		if _, done := out[s]; done {
			continue
		}
		counts := make(map[history.Set]int)
		for i := 0; i < h.Len(); i++ {
			eachSubset(h.At(i).Numbers.Numbers(), s, func(sub history.Set) { counts[sub]++ })
		}
		out[s] = rankCombos(counts, topN)
	}
	return out, nil
}

// AllComboSizes is 2..5.
func AllComboSizes() []int {
	return []int{2, 3, 4, 5}
}

func rankCombos(counts map[history.Set]int, topN int) []Combo {
	ranked := make([]Combo, 0, len(counts))
	for set, c := range counts {
		ranked = append(ranked, Combo{Numbers: set, Count: c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return lexLess(ranked[i].Numbers, ranked[j].Numbers)
	})
	if topN >= 0 && topN < len(ranked) {
		ranked = ranked[:topN]
	}
	return ranked
}

// lexLess orders equal-size sets by their ascending member lists.
func lexLess(a, b history.Set) bool {
	diff := uint64(a ^ b)
	if diff == 0 {
		return false
	}
	low := diff & -diff
	return uint64(a)&low != 0
}

// eachSubset calls fn with every size-k subset of nums.
func eachSubset(nums []int, k int, fn func(history.Set)) {
	n := len(nums)
	if k > n || k <= 0 {
		return
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		var s history.Set
		for _, i := range idx {
			s = s.With(nums[i])
		}
		fn(s)

		// advance to the next index combination
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
