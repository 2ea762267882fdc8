package generator

import (
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/loto-backend/internal/history"
	"github.com/xtding233/loto-backend/internal/rng"
	"github.com/xtding233/loto-backend/internal/stats"
)

func seed(v uint64) *uint64 { return &v }

func seq(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func randomHistory(t *testing.T, r history.Rules, n int, s uint64) *history.History {
	t.Helper()
	src := rng.NewSeededRNG(s)
	universe := seq(1, r.MaxNumber)
	raw := make([]history.RawDraw, n)
	for i := range raw {
		raw[i] = history.RawDraw{ID: i + 1, Numbers: rng.Sample(src, universe, r.DrawSize)}
	}
	h, err := history.New(r, raw)
	require.NoError(t, err)
	return h
}

func quietLog() *logrus.Entry {
	l, _ := test.NewNullLogger()
	return logrus.NewEntry(l)
}

func assertWellFormed(t *testing.T, r history.Rules, g Game, size int) {
	t.Helper()
	nums := g.Numbers.Numbers()
	require.Len(t, nums, size)
	for _, n := range nums {
		assert.True(t, n >= 1 && n <= r.MaxNumber, "number %d out of range", n)
		o, ok := g.Origins[n]
		require.True(t, ok, "number %d has no origin", n)
		assert.Contains(t, []Origin{OriginHot, OriginCold, OriginNeutral}, o)
	}
	assert.Len(t, g.Origins, size)
}

func TestGenerateFiveDrawScenario(t *testing.T) {
	r := history.DefaultRules()
	h := randomHistory(t, r, 5, 1)
	p := DefaultParams()
	p.Count, p.Size, p.Seed = 1, 15, seed(7)

	res, err := Generate(h, p, quietLog())
	require.NoError(t, err)
	require.Equal(t, 1, res.Produced)
	assertWellFormed(t, r, res.Games[0], 15)
}

func TestGenerateEverySize(t *testing.T) {
	r := history.DefaultRules()
	h := randomHistory(t, r, 120, 2)
	for size := r.DrawSize; size <= r.MaxGameSize; size++ {
		p := DefaultParams()
		p.Count, p.Size, p.Seed = 8, size, seed(uint64(size))
		res, err := Generate(h, p, quietLog())
		require.NoError(t, err)
		assert.Equal(t, 8, res.Produced, "size %d", size)
		seen := map[history.Set]bool{}
		for _, g := range res.Games {
			assertWellFormed(t, r, g, size)
			assert.False(t, seen[g.Numbers], "duplicate game")
			seen[g.Numbers] = true
		}
	}
}

func TestGenerateEmptyHistory(t *testing.T) {
	r := history.DefaultRules()
	p := DefaultParams()
	p.Count, p.Seed = 3, seed(3)
	res, err := Generate(history.Empty(r), p, quietLog())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Produced)
	assert.Equal(t, 3, res.AllowedRun)
	assert.Equal(t, 15*26/2, res.TargetSum)
	for _, g := range res.Games {
		assertWellFormed(t, r, g, 15)
	}
}

func TestGenerateIsReproducibleWithSeed(t *testing.T) {
	h := randomHistory(t, history.DefaultRules(), 60, 4)
	p := DefaultParams()
	p.Count, p.Size, p.Seed = 5, 16, seed(99)
	a, err := Generate(h, p, quietLog())
	require.NoError(t, err)
	b, err := Generate(h, p, quietLog())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerateValidation(t *testing.T) {
	h := randomHistory(t, history.DefaultRules(), 10, 5)
	cases := map[string]func(*Params){
		"size too small":   func(p *Params) { p.Size = 14 },
		"size too large":   func(p *Params) { p.Size = 21 },
		"zero count":       func(p *Params) { p.Count = 0 },
		"bad probability":  func(p *Params) { p.RunRejectProbability = 1.5 },
		"negative margin":  func(p *Params) { p.SumMargin = -1 },
		"no fill passes":   func(p *Params) { p.FillPasses = 0 },
		"negative budget":  func(p *Params) { p.RetryBudget = -3 },
		"negative hotpool": func(p *Params) { p.HotPool = -1 },
		"huge count":       func(p *Params) { p.Count = 1 << 31 },
		"count over max":   func(p *Params) { p.Count, p.MaxCount = 11, 10 },
		"max count limit":  func(p *Params) { p.MaxCount = CountLimit + 1 },
		"unknown median":   func(p *Params) { p.RunMedian = "mode" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := DefaultParams()
			mutate(&p)
			_, err := Generate(h, p, quietLog())
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

func TestGenerateStopsOnDuplicateExhaustion(t *testing.T) {
	// only one distinct 4-number game exists in a universe of 4
	r := history.Rules{DrawSize: 3, MaxNumber: 4, MaxGameSize: 4}
	h := randomHistory(t, r, 6, 6)
	logger, hook := test.NewNullLogger()

	p := DefaultParams()
	p.Count, p.Size, p.Seed, p.RetryBudget = 3, 4, seed(1), 25
	res, err := Generate(h, p, logrus.NewEntry(logger))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Produced)
	assert.Equal(t, 2, res.Shortfall())
	assert.Equal(t, 25, res.Attempts)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, 1, hook.LastEntry().Data["produced"])
}

func TestGenerateForcedFillUsesLowestNumbers(t *testing.T) {
	h := randomHistory(t, history.DefaultRules(), 30, 8)
	p := DefaultParams()
	p.Seed = seed(2)
	p.HotPool, p.ColdPool = 0, 0
	p.FillPasses = 1
	// an unreachable target with certain rejection refuses every filler
	p.BalanceSum, p.TargetSum, p.SumMargin, p.SumRejectProbability = true, 1, 0, 1

	res, err := Generate(h, p, quietLog())
	require.NoError(t, err)
	require.Equal(t, 1, res.Produced)
	assert.Equal(t, 1, res.Forced)
	g := res.Games[0]
	assert.Equal(t, history.SetOf(seq(1, 15)...), g.Numbers)
	for _, o := range g.Origins {
		assert.Equal(t, OriginNeutral, o)
	}
}

func TestGenerateTrimsOversizedSeeds(t *testing.T) {
	// size 2 with 3 hot + 2 cold seeds must be trimmed, hot first
	r := history.Rules{DrawSize: 2, MaxNumber: 10, MaxGameSize: 3}
	h := randomHistory(t, r, 20, 9)
	p := DefaultParams()
	p.Count, p.Size, p.Seed = 3, 2, seed(4)

	res, err := Generate(h, p, quietLog())
	require.NoError(t, err)
	require.NotEmpty(t, res.Games)
	for _, g := range res.Games {
		assertWellFormed(t, r, g, 2)
		for _, o := range g.Origins {
			assert.Equal(t, OriginHot, o)
		}
	}
}

func testPlan(p Params, allowedRun int) *plan {
	return &plan{
		p:          p,
		rules:      history.DefaultRules(),
		src:        rng.NewSeededRNG(1),
		allowedRun: allowedRun,
		target:     195,
	}
}

func TestAcceptRunRejection(t *testing.T) {
	p := DefaultParams()
	p.AvoidLastDraw, p.BalanceSum = false, false

	p.RunRejectProbability = 1
	pl := testPlan(p, 3)
	set := history.SetOf(1, 2, 3)
	assert.False(t, pl.accept(set, 4), "run of 4 exceeds allowed 3")
	assert.True(t, pl.accept(set, 5))

	p.RunRejectProbability = 0
	pl = testPlan(p, 3)
	assert.True(t, pl.accept(set, 4), "zero probability never rejects")
}

func TestAcceptLastDrawOverlap(t *testing.T) {
	p := DefaultParams()
	p.BalanceSum = false
	p.RunRejectProbability = 0
	p.RepeatRejectProbability = 1

	pl := testPlan(p, 6)
	pl.last, pl.hasLast = history.SetOf(seq(1, 15)...), true
	set := history.SetOf(seq(1, 12)...) // threshold is size-3 = 12

	assert.False(t, pl.accept(set, 13))
	assert.True(t, pl.accept(set, 20))

	pl.p.AvoidLastDraw = false
	assert.True(t, pl.accept(set, 13))
}

func TestAcceptSumBalancing(t *testing.T) {
	p := DefaultParams()
	p.AvoidLastDraw = false
	p.RunRejectProbability = 0
	p.Size = 3
	p.SumMargin = 5
	p.SumRejectProbability = 1

	pl := testPlan(p, 6)
	pl.target = 39
	set := history.SetOf(12, 13)
	// exact final sums once the last slot is filled
	assert.True(t, pl.accept(set, 14))
	assert.False(t, pl.accept(set, 25))

	pl.p.BalanceSum = false
	assert.True(t, pl.accept(set, 25))
}

func TestAllowedRunClamp(t *testing.T) {
	assert.Equal(t, 3, AllowedRun(stats.RunTable{}, RunMedianLengths))
	assert.Equal(t, 3, AllowedRun(stats.RunTable{Buckets: []stats.RunBucket{{Length: 2, Count: 5}}, Observations: 5}, ""))
	assert.Equal(t, 5, AllowedRun(stats.RunTable{Buckets: []stats.RunBucket{{Length: 4, Count: 1}}, Observations: 1}, ""))
	assert.Equal(t, 6, AllowedRun(stats.RunTable{Buckets: []stats.RunBucket{{Length: 9, Count: 1}}, Observations: 1}, ""))
}

func TestAllowedRunMedianModes(t *testing.T) {
	rt := stats.RunTable{Buckets: []stats.RunBucket{
		{Length: 2, Count: 799}, {Length: 3, Count: 467}, {Length: 4, Count: 343},
		{Length: 5, Count: 120}, {Length: 6, Count: 60}, {Length: 7, Count: 30},
		{Length: 8, Count: 15}, {Length: 9, Count: 9}, {Length: 10, Count: 6},
	}, Observations: 1849}

	// distinct lengths 2..10 have median 6, clamped from 7
	assert.Equal(t, 6, AllowedRun(rt, RunMedianLengths))
	assert.Equal(t, 6, AllowedRun(rt, ""))
	// by observation the median is 3
	assert.Equal(t, 4, AllowedRun(rt, RunMedianObservations))

	// the distinct-length median truncates like an integer cast
	half := stats.RunTable{Buckets: []stats.RunBucket{{Length: 2, Count: 9}, {Length: 5, Count: 1}}, Observations: 10}
	assert.Equal(t, 4, AllowedRun(half, RunMedianLengths))
}

func TestGenerateRejectsHugeCountWithoutAllocating(t *testing.T) {
	h := randomHistory(t, history.DefaultRules(), 5, 7)
	p := DefaultParams()
	p.Count = 1 << 31
	res, err := Generate(h, p, quietLog())
	require.ErrorIs(t, err, ErrInvalidParams)
	assert.Contains(t, err.Error(), "count must be <= 300")
	assert.Empty(t, res.Games)

	p.Count, p.MaxCount = 2, 0
	res, err = Generate(h, p, quietLog())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Produced)
}

func TestRetryBudgetSaturates(t *testing.T) {
	p := Params{Count: math.MaxInt / 2}
	assert.Equal(t, math.MaxInt, p.retryBudget())
	p.Count = 4
	assert.Equal(t, 80, p.retryBudget())
	p.RetryBudget = 7
	assert.Equal(t, 7, p.retryBudget())
}
