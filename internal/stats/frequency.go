// Package stats implements the read-only reductions over a draw history:
// frequency and gap accounting plus the pattern detectors.
//
// Every function is pure: it never mutates the History and returns freshly
// built tables, so results can be cached per history snapshot.
package stats

import (
	"sort"

	"github.com/xtding233/loto-backend/internal/history"
)

// NumberCount is one row of a frequency table.
type NumberCount struct {
	Number int `json:"number"`
	Count  int `json:"count"`
}

// FrequencyTable counts appearances per number over a trailing window.
// Entries always cover the full universe and are ranked by count desc, then number asc.
type FrequencyTable struct {
	Window  int           `json:"window"` // draws actually counted
	Entries []NumberCount `json:"entries"`

	counts []int // index = number
}

// Frequency tallies every number over the last window draws.
// window <= 0 or larger than the history means the whole history.
func Frequency(h *history.History, window int) FrequencyTable {
	m := h.Rules().MaxNumber
	counts := make([]int, m+1)
	draws := h.Window(window)
	for _, d := range draws {
		for _, n := range d.Numbers.Numbers() {
			counts[n]++
		}
	}

	entries := make([]NumberCount, 0, m)
	for n := 1; n <= m; n++ {
		entries = append(entries, NumberCount{Number: n, Count: counts[n]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Number < entries[j].Number
	})
	return FrequencyTable{Window: len(draws), Entries: entries, counts: counts}
}

// Count returns how often n appeared in the window (0 for unknown numbers).
func (t FrequencyTable) Count(n int) int {
	if n < 1 || n >= len(t.counts) {
		return 0
	}
	return t.counts[n]
}

// Top returns the k most frequent numbers in rank order.
func (t FrequencyTable) Top(k int) []int {
	if k > len(t.Entries) {
		k = len(t.Entries)
	}
	out := make([]int, 0, max(k, 0))
	for _, e := range t.Entries[:max(k, 0)] {
		out = append(out, e.Number)
	}
	return out
}
