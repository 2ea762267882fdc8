package rng

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChanceBounds(t *testing.T) {
	got, err := Chance(0, NewSeededRNG(1))
	require.NoError(t, err)
	assert.False(t, got, "p=0 should never hit")

	got, err = Chance(1, NewSeededRNG(1))
	require.NoError(t, err)
	assert.True(t, got, "p=1 should always hit")

	for _, p := range []float64{-0.1, 1.1, math.NaN(), math.Inf(1)} {
		_, err := Chance(p, nil)
		assert.ErrorIs(t, err, ErrInvalidProb, "p=%v", p)
	}
}

func TestChanceStatApprox(t *testing.T) {
	const p = 0.3
	const n = 100000
	src := NewSeededRNG(42)
	hit := 0
	for i := 0; i < n; i++ {
		ok, err := Chance(p, src)
		require.NoError(t, err)
		if ok {
			hit++
		}
	}
	// should be around 0.3
	assert.InDelta(t, p, float64(hit)/n, 0.01)
}

func TestSeededIsReproducible(t *testing.T) {
	a, b := NewSeededRNG(7), NewSeededRNG(7)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.IntN(1000), b.IntN(1000))
	}
}

func TestSampleDistinct(t *testing.T) {
	pool := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	src := NewSeededRNG(3)
	for i := 0; i < 200; i++ {
		got := Sample(src, pool, 4)
		require.Len(t, got, 4)
		seen := map[int]bool{}
		for _, v := range got {
			assert.False(t, seen[v])
			assert.Contains(t, pool, v)
			seen[v] = true
		}
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, pool, "pool must not be modified")
	assert.Len(t, Sample(src, pool, 20), 10)
	assert.Nil(t, Sample(src, pool, 0))
}

func TestShufflePermutes(t *testing.T) {
	xs := []int{1, 2, 3, 4, 5, 6}
	Shuffle(NewSeededRNG(9), xs)
	sorted := append([]int(nil), xs...)
	sort.Ints(sorted)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, sorted)
}

func TestCryptoIntNInRange(t *testing.T) {
	src := DefaultRNG()
	for i := 0; i < 1000; i++ {
		v := src.IntN(25)
		assert.True(t, v >= 0 && v < 25)
	}
	assert.Panics(t, func() { src.IntN(0) })
}
