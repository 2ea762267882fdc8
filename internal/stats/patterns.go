package stats

import (
	"sort"

	"github.com/xtding233/loto-backend/internal/history"
)

// ParitySplit is one (even, odd) shape and how many draws had it.
type ParitySplit struct {
	Even  int `json:"even"`
	Odd   int `json:"odd"`
	Count int `json:"count"`
}

// evenMask has every even number in [1, 64] set.
const evenMask history.Set = 0xAAAAAAAAAAAAAAAA

// Parity tallies the even/odd split of every draw, most common first.
func Parity(h *history.History) []ParitySplit {
	k := h.Rules().DrawSize
	tally := make(map[int]int)
	for i := 0; i < h.Len(); i++ {
		tally[EvenCount(h.At(i).Numbers)]++
	}
	out := make([]ParitySplit, 0, len(tally))
	for even, c := range tally {
		out = append(out, ParitySplit{Even: even, Odd: k - even, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Even < out[j].Even
	})
	return out
}

// EvenCount returns how many numbers in s are even.
func EvenCount(s history.Set) int { return s.Overlap(evenMask) }

// RunBucket counts maximal consecutive runs of one length.
type RunBucket struct {
	Length int `json:"length"`
	Count  int `json:"count"`
}

// RunTable is the distribution of maximal consecutive runs (length >= 2).
type RunTable struct {
	Buckets      []RunBucket `json:"buckets"` // length asc
	Observations int         `json:"observations"`
}

// Runs scans every draw for maximal runs of consecutive numbers.
// A run of 4 counts once in bucket 4, never in buckets 2 or 3.
func Runs(h *history.History) RunTable {
	tally := make(map[int]int)
	total := 0
	for i := 0; i < h.Len(); i++ {
		for _, l := range RunLengths(h.At(i).Numbers) {
			tally[l]++
			total++
		}
	}
	out := RunTable{Buckets: make([]RunBucket, 0, len(tally)), Observations: total}
	for l, c := range tally {
		out.Buckets = append(out.Buckets, RunBucket{Length: l, Count: c})
	}
	sort.Slice(out.Buckets, func(i, j int) bool { return out.Buckets[i].Length < out.Buckets[j].Length })
	return out
}

// Median returns the median of the distinct run lengths observed, each length
// counted once however often it occurred. ok is false when no run was observed.
func (t RunTable) Median() (median float64, ok bool) {
	n := len(t.Buckets)
	if n == 0 {
		return 0, false
	}
	return float64(t.Buckets[(n-1)/2].Length+t.Buckets[n/2].Length) / 2, true
}

// WeightedMedian returns the median run length over all observations, so
// common lengths pull it toward themselves. ok is false when no run was observed.
func (t RunTable) WeightedMedian() (median float64, ok bool) {
	if t.Observations == 0 {
		return 0, false
	}
	// positions of the middle observation(s), 0-based
	lo, hi := (t.Observations-1)/2, t.Observations/2
	var loV, hiV, seen int
	for _, b := range t.Buckets {
		if seen <= lo && lo < seen+b.Count {
			loV = b.Length
		}
		if seen <= hi && hi < seen+b.Count {
			hiV = b.Length
			break
		}
		seen += b.Count
	}
	return float64(loV+hiV) / 2, true
}

// RunLengths lists the maximal runs (length >= 2) of consecutive numbers in s, ascending by start.
func RunLengths(s history.Set) []int {
	var out []int
	cur := 0
	prev := -1
	for _, n := range s.Numbers() {
		if n == prev+1 {
			cur++
		} else {
			if cur >= 2 {
				out = append(out, cur)
			}
			cur = 1
		}
		prev = n
	}
	if cur >= 2 {
		out = append(out, cur)
	}
	return out
}

// LongestRun returns the longest run of consecutive numbers in s (0 for the empty set).
func LongestRun(s history.Set) int {
	// each step strips the last member of every run
	n := 0
	for v := uint64(s); v != 0; v &= v >> 1 {
		n++
	}
	return n
}
