package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/loto-backend/internal/history"
	"github.com/xtding233/loto-backend/internal/rng"
)

func seq(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func build(t *testing.T, draws ...[]int) *history.History {
	t.Helper()
	raw := make([]history.RawDraw, len(draws))
	for i, d := range draws {
		raw[i] = history.RawDraw{ID: i + 1, Numbers: d}
	}
	h, err := history.New(history.DefaultRules(), raw)
	require.NoError(t, err)
	require.Equal(t, len(draws), h.Len())
	return h
}

func randomHistory(t *testing.T, n int, seed uint64) *history.History {
	t.Helper()
	src := rng.NewSeededRNG(seed)
	universe := seq(1, 25)
	draws := make([][]int, n)
	for i := range draws {
		draws[i] = rng.Sample(src, universe, 15)
	}
	return build(t, draws...)
}

func TestFrequencyWindowScenario(t *testing.T) {
	h := build(t, seq(1, 15), seq(1, 15), seq(1, 15))
	ft := Frequency(h, 3)
	require.Len(t, ft.Entries, 25)
	assert.Equal(t, 3, ft.Window)
	for n := 1; n <= 15; n++ {
		assert.Equal(t, 3, ft.Count(n), "number %d", n)
	}
	for n := 16; n <= 25; n++ {
		assert.Equal(t, 0, ft.Count(n), "number %d", n)
	}
	// ties broken by number ascending
	assert.Equal(t, []int{1, 2, 3}, ft.Top(3))
	assert.Equal(t, 16, ft.Entries[15].Number)
}

func TestFrequencyTrailingWindow(t *testing.T) {
	h := build(t, seq(11, 25), seq(1, 15))
	ft := Frequency(h, 1)
	assert.Equal(t, 1, ft.Window)
	assert.Equal(t, 1, ft.Count(1))
	assert.Equal(t, 0, ft.Count(25))
}

func TestFrequencyMatchesDirectRecount(t *testing.T) {
	h := randomHistory(t, 200, 11)
	ft := Frequency(h, 0)
	for n := 1; n <= 25; n++ {
		want := 0
		for _, d := range h.Draws() {
			if d.Numbers.Has(n) {
				want++
			}
		}
		assert.Equal(t, want, ft.Count(n), "number %d", n)
	}
}

func TestGapNeverDrawnScenario(t *testing.T) {
	without7 := append(seq(1, 6), seq(8, 16)...)
	draws := make([][]int, 10)
	for i := range draws {
		draws[i] = without7
	}
	gt := Gaps(build(t, draws...))
	g, ok := gt.Get(7)
	require.True(t, ok)
	assert.Equal(t, 10, g.Current)
	assert.Equal(t, 10, g.Max)
	assert.Equal(t, 7, gt.TopCurrent(1)[0])
}

func TestGapHistoricalMax(t *testing.T) {
	// 20 appears in draws 1 and 5, then misses the last two
	with20 := append(seq(1, 14), 20)
	without20 := seq(1, 15)
	gt := Gaps(build(t, with20, without20, without20, without20, with20, without20, without20))
	g, _ := gt.Get(20)
	assert.Equal(t, 2, g.Current)
	assert.Equal(t, 3, g.Max)
}

func TestGapInvariantAndUniverse(t *testing.T) {
	gt := Gaps(randomHistory(t, 300, 5))
	require.Len(t, gt.Entries, 25)
	for i, g := range gt.Entries {
		assert.Equal(t, i+1, g.Number)
		assert.GreaterOrEqual(t, g.Max, g.Current)
	}
}

func TestEmptyHistoryDegradesToZero(t *testing.T) {
	h := history.Empty(history.DefaultRules())
	ft := Frequency(h, 10)
	require.Len(t, ft.Entries, 25)
	assert.Equal(t, 0, ft.Window)
	gt := Gaps(h)
	require.Len(t, gt.Entries, 25)
	for _, g := range gt.Entries {
		assert.Zero(t, g.Current)
		assert.Zero(t, g.Max)
	}
	assert.Empty(t, Parity(h))
	assert.Empty(t, Runs(h).Buckets)
	_, ok := Runs(h).Median()
	assert.False(t, ok)
	assert.Equal(t, SumSummary{Series: []SumPoint{}}, Sums(h))
	combos, err := Combinations(h, AllComboSizes(), 5)
	require.NoError(t, err)
	assert.Empty(t, combos[2])
}

func TestParity(t *testing.T) {
	odd8 := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}  // 7 even
	even8 := []int{2, 4, 6, 8, 10, 12, 14, 16, 1, 3, 5, 7, 9, 11, 13} // 8 even
	got := Parity(build(t, odd8, odd8, even8))
	require.Len(t, got, 2)
	assert.Equal(t, ParitySplit{Even: 7, Odd: 8, Count: 2}, got[0])
	assert.Equal(t, ParitySplit{Even: 8, Odd: 7, Count: 1}, got[1])
}

func TestRuns(t *testing.T) {
	// runs: 1-4 (4), 6-7 (2), 9 alone, 11-13 (3), 15,17,19,21,23,25 alone
	d := []int{1, 2, 3, 4, 6, 7, 9, 11, 12, 13, 15, 17, 19, 21, 23}
	assert.Equal(t, []int{4, 2, 3}, RunLengths(history.SetOf(d...)))
	assert.Equal(t, 4, LongestRun(history.SetOf(d...)))
	assert.Equal(t, 15, LongestRun(history.SetOf(seq(1, 15)...)))
	assert.Equal(t, 0, LongestRun(0))

	rt := Runs(build(t, d, seq(1, 15)))
	assert.Equal(t, []RunBucket{{2, 1}, {3, 1}, {4, 1}, {15, 1}}, rt.Buckets)
	assert.Equal(t, 4, rt.Observations)
	med, ok := rt.Median()
	require.True(t, ok)
	assert.Equal(t, 3.5, med)
	med, ok = rt.WeightedMedian()
	require.True(t, ok)
	assert.Equal(t, 3.5, med)
}

func TestRunMedianSkewed(t *testing.T) {
	// short runs dominate, as they do in real 15-of-25 histories
	rt := RunTable{Buckets: []RunBucket{
		{2, 799}, {3, 467}, {4, 343}, {5, 120}, {6, 60}, {7, 30}, {8, 15}, {9, 9}, {10, 6},
	}}
	for _, b := range rt.Buckets {
		rt.Observations += b.Count
	}

	med, ok := rt.Median()
	require.True(t, ok)
	assert.Equal(t, 6.0, med, "distinct lengths 2..10")

	med, ok = rt.WeightedMedian()
	require.True(t, ok)
	assert.Equal(t, 3.0, med)

	even := RunTable{Buckets: []RunBucket{{2, 50}, {3, 1}, {5, 1}, {8, 1}}, Observations: 53}
	med, _ = even.Median()
	assert.Equal(t, 4.0, med)
	_, ok = RunTable{}.WeightedMedian()
	assert.False(t, ok)
}

func TestCombinations(t *testing.T) {
	a := seq(1, 15)
	b := seq(2, 16)
	got, err := Combinations(build(t, a, b), []int{2, 5}, 3)
	require.NoError(t, err)
	require.Len(t, got[2], 3)
	// {2,3} is the lexicographically smallest pair present in both draws
	assert.Equal(t, history.SetOf(2, 3), got[2][0].Numbers)
	assert.Equal(t, 2, got[2][0].Count)
	assert.Equal(t, history.SetOf(2, 3, 4, 5, 6), got[5][0].Numbers)

	_, err = Combinations(build(t, a), []int{6}, 3)
	assert.ErrorIs(t, err, ErrComboSize)
}

func TestCombinationCountIsBinomial(t *testing.T) {
	got, err := Combinations(build(t, seq(1, 15)), []int{3}, -1)
	require.NoError(t, err)
	assert.Len(t, got[3], 455) // C(15,3)
}

func TestSums(t *testing.T) {
	s := Sums(build(t, seq(1, 15), seq(11, 25)))
	assert.Equal(t, 120, s.Min)
	assert.Equal(t, 270, s.Max)
	assert.Equal(t, 195.0, s.Mean)
	assert.Equal(t, 75.0, s.StdDev)
	require.Len(t, s.Series, 2)
	assert.Equal(t, SumPoint{DrawID: 1, Sum: 120}, s.Series[0])
}

func TestDetectorsAreIdempotent(t *testing.T) {
	h := randomHistory(t, 100, 99)
	before := h.Draws()
	assert.Equal(t, Frequency(h, 30), Frequency(h, 30))
	assert.Equal(t, Gaps(h), Gaps(h))
	assert.Equal(t, Parity(h), Parity(h))
	assert.Equal(t, Runs(h), Runs(h))
	assert.Equal(t, Sums(h), Sums(h))
	c1, _ := Combinations(h, AllComboSizes(), 5)
	c2, _ := Combinations(h, AllComboSizes(), 5)
	assert.Equal(t, c1, c2)
	assert.Equal(t, before, h.Draws())
}
