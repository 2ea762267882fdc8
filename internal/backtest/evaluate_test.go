package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/loto-backend/internal/history"
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
	return h
}

func TestEvaluateExactDrawHitsTopTier(t *testing.T) {
	d1 := seq(1, 15)
	d2 := seq(11, 25)
	h := build(t, d1, d2)

	recs, err := Evaluate(h, [][]int{d1})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 1, recs[0].Tiers[15])
	// d2 shares only 5 numbers with d1
	assert.Equal(t, 1, recs[0].Total)
	assert.Equal(t, TierCounts{11: 0, 12: 0, 13: 0, 14: 0, 15: 1}, recs[0].Tiers)
}

func TestEvaluateLargerGame(t *testing.T) {
	h := build(t, seq(1, 15), seq(2, 16), seq(5, 19))
	// an 18-number game covers 1..18
	recs, err := Evaluate(h, [][]int{seq(1, 18)})
	require.NoError(t, err)
	tc := recs[0].Tiers
	assert.Equal(t, 2, tc[15]) // 1..15 and 2..16
	assert.Equal(t, 1, tc[14]) // 5..19 misses 19
	assert.Equal(t, 3, recs[0].Total)
	assert.Equal(t, 1, recs[0].Index)
}

func TestEvaluateBelowFloorIgnored(t *testing.T) {
	h := build(t, seq(11, 25))
	recs, err := Evaluate(h, [][]int{seq(1, 15)})
	require.NoError(t, err)
	assert.Zero(t, recs[0].Total)
	assert.Len(t, recs[0].Tiers, 5)
}

func TestEvaluateRejectsMalformedGames(t *testing.T) {
	h := build(t, seq(1, 15))
	_, err := Evaluate(h, [][]int{seq(1, 15), seq(1, 10)})
	assert.ErrorIs(t, err, history.ErrInvalidGame)
	assert.Contains(t, err.Error(), "game 2")

	_, err = Evaluate(h, [][]int{append(seq(1, 14), 30)})
	assert.ErrorIs(t, err, history.ErrOutOfRange)
}

func TestEvaluateEmptyHistory(t *testing.T) {
	recs, err := Evaluate(history.Empty(history.DefaultRules()), [][]int{seq(1, 15)})
	require.NoError(t, err)
	assert.Zero(t, recs[0].Total)
}
