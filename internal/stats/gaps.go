package stats

import (
	"sort"

	"github.com/xtding233/loto-backend/internal/history"
)

// Gap is the drought state of one number.
// Current counts the trailing draws without the number; Max is the longest
// such run anywhere in the history, the trailing one included.
type Gap struct {
	Number  int `json:"number"`
	Current int `json:"current"`
	Max     int `json:"max"`
}

// GapTable holds one Gap per number in the universe, ordered by number.
type GapTable struct {
	Entries []Gap `json:"entries"`
}

// Gaps walks the whole history oldest to newest keeping an absence streak per number.
// Gaps are never windowed: they describe drought length.
func Gaps(h *history.History) GapTable {
	m := h.Rules().MaxNumber
	streak := make([]int, m+1)
	longest := make([]int, m+1)

	for i := 0; i < h.Len(); i++ {
		drawn := h.At(i).Numbers
		for n := 1; n <= m; n++ {
			if drawn.Has(n) {
				longest[n] = max(longest[n], streak[n])
				streak[n] = 0
			} else {
				streak[n]++
			}
		}
	}

	entries := make([]Gap, 0, m)
	for n := 1; n <= m; n++ {
		// a number still absent may be setting a new record
		entries = append(entries, Gap{Number: n, Current: streak[n], Max: max(longest[n], streak[n])})
	}
	return GapTable{Entries: entries}
}

// Get returns the gap entry for n.
func (t GapTable) Get(n int) (Gap, bool) {
	if n < 1 || n > len(t.Entries) {
		return Gap{}, false
	}
	return t.Entries[n-1], true
}

// ByCurrent ranks numbers by current gap desc, then max gap desc, then number asc.
func (t GapTable) ByCurrent() []Gap {
	out := append([]Gap(nil), t.Entries...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Current != out[j].Current {
			return out[i].Current > out[j].Current
		}
		if out[i].Max != out[j].Max {
			return out[i].Max > out[j].Max
		}
		return out[i].Number < out[j].Number
	})
	return out
}

// TopCurrent returns the k numbers with the longest current gap.
func (t GapTable) TopCurrent(k int) []int {
	ranked := t.ByCurrent()
	if k > len(ranked) {
		k = len(ranked)
	}
	out := make([]int, 0, max(k, 0))
	for _, g := range ranked[:max(k, 0)] {
		out = append(out, g.Number)
	}
	return out
}
