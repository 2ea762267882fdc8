package rng

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// RandomSource abstract

type RandomSource interface {
	Float64() float64 // [0, 1)
	IntN(n int) int   // [0, n); panics if n <= 0
}

// crypto random : default generation method
type cryptoRNG struct{}

func (cryptoRNG) uint64() uint64 {
	var buf [8]byte
	if _, err := cryptoRand.Read(buf[:]); err != nil {
		// back to math/rand/v2
		return rand.Uint64()
	}
	return binary.BigEndian.Uint64(buf[:])
}

func (c cryptoRNG) Float64() float64 {
	// 53 bits => [0, 1)
	return float64(c.uint64()>>11) / (1 << 53)
}

func (c cryptoRNG) IntN(n int) int {
	if n <= 0 {
		panic("rng: invalid argument to IntN")
	}
	// rejection sampling keeps the result unbiased
	bound := uint64(n)
	limit := ^uint64(0) - (^uint64(0) % bound)
	for {
		v := c.uint64()
		if v < limit {
			return int(v % bound)
		}
	}
}

func DefaultRNG() RandomSource { return cryptoRNG{} }

// Replicable RNG (tests, reproducible batches)
type seededRNG struct{ r *rand.Rand }

func NewSeededRNG(seed uint64) RandomSource {
	return &seededRNG{r: rand.New(rand.NewPCG(seed, 0))}
}

func (s *seededRNG) Float64() float64 { return s.r.Float64() }
func (s *seededRNG) IntN(n int) int   { return s.r.IntN(n) }

// FromSeed returns a seeded source when seed is set, the default source otherwise.
func FromSeed(seed *uint64) RandomSource {
	if seed == nil {
		return DefaultRNG()
	}
	return NewSeededRNG(*seed)
}

// Shuffle permutes xs in place (Fisher-Yates).
func Shuffle(src RandomSource, xs []int) {
	for i := len(xs) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		xs[i], xs[j] = xs[j], xs[i]
	}
}

// Sample picks k distinct elements of pool without modifying it.
// k larger than the pool returns a shuffled copy of the whole pool.
func Sample(src RandomSource, pool []int, k int) []int {
	cp := append([]int(nil), pool...)
	if k > len(cp) {
		k = len(cp)
	}
	if k <= 0 {
		return nil
	}
	// partial Fisher-Yates over the head
	for i := 0; i < k; i++ {
		j := i + src.IntN(len(cp)-i)
		cp[i], cp[j] = cp[j], cp[i]
	}
	return cp[:k]
}
