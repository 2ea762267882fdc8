package history

import (
	"encoding/json"
	"math/bits"
	"strconv"
	"strings"
)

// Set is a bitset of numbers in [1, 64]; bit n-1 is set when n is a member.
type Set uint64

// SetOf builds a Set, silently ignoring numbers outside [1, 64].
func SetOf(nums ...int) Set {
	var s Set
	for _, n := range nums {
		s = s.With(n)
	}
	return s
}

func (s Set) Has(n int) bool {
	if n < 1 || n > MaxUniverse {
		return false
	}
	return s&(1<<uint(n-1)) != 0
}

func (s Set) With(n int) Set {
	if n < 1 || n > MaxUniverse {
		return s
	}
	return s | 1<<uint(n-1)
}

func (s Set) Without(n int) Set {
	if n < 1 || n > MaxUniverse {
		return s
	}
	return s &^ (1 << uint(n-1))
}

func (s Set) Len() int { return bits.OnesCount64(uint64(s)) }

// Overlap counts the numbers s and o share.
func (s Set) Overlap(o Set) int { return bits.OnesCount64(uint64(s & o)) }

// Numbers returns the members in ascending order.
func (s Set) Numbers() []int {
	out := make([]int, 0, s.Len())
	for v := uint64(s); v != 0; v &= v - 1 {
		out = append(out, bits.TrailingZeros64(v)+1)
	}
	return out
}

func (s Set) Sum() int {
	sum := 0
	for v := uint64(s); v != 0; v &= v - 1 {
		sum += bits.TrailingZeros64(v) + 1
	}
	return sum
}

// String renders the set as zero-padded numbers, e.g. "01 02 13".
func (s Set) String() string {
	nums := s.Numbers()
	parts := make([]string, len(nums))
	for i, n := range nums {
		if n < 10 {
			parts[i] = "0" + strconv.Itoa(n)
		} else {
			parts[i] = strconv.Itoa(n)
		}
	}
	return strings.Join(parts, " ")
}

func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Numbers())
}

func (s *Set) UnmarshalJSON(b []byte) error {
	var nums []int
	if err := json.Unmarshal(b, &nums); err != nil {
		return err
	}
	*s = SetOf(nums...)
	return nil
}
