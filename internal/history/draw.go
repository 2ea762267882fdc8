package history

import (
	"errors"
	"fmt"
)

var (
	ErrWrongCount  = errors.New("wrong number count")
	ErrOutOfRange  = errors.New("number out of range")
	ErrDuplicate   = errors.New("duplicate number")
	ErrDuplicateID = errors.New("duplicate draw id")
	ErrInvalidGame = errors.New("invalid game")
)

// RawDraw is a draw as delivered by a loader, before validation.
type RawDraw struct {
	ID      int
	Date    string
	Numbers []int
	Line    int // source position, 0 when unknown
}

// Draw is one validated historical result.
type Draw struct {
	ID      int    `json:"id"`
	Date    string `json:"date,omitempty"`
	Numbers Set    `json:"numbers"`
}

// Sum of the drawn numbers.
func (d Draw) Sum() int { return d.Numbers.Sum() }

// ValidateDraw checks raw against the rules: exactly K distinct numbers in [1, M].
func ValidateDraw(r Rules, raw RawDraw) (Draw, error) {
	set, err := validateNumbers(r, raw.Numbers)
	if err != nil {
		return Draw{}, err
	}
	if len(raw.Numbers) != r.DrawSize {
		return Draw{}, fmt.Errorf("%w: want %d, got %d", ErrWrongCount, r.DrawSize, len(raw.Numbers))
	}
	return Draw{ID: raw.ID, Date: raw.Date, Numbers: set}, nil
}

// ValidateGame checks a candidate game: K..MaxGameSize distinct numbers in [1, M].
func ValidateGame(r Rules, nums []int) (Set, error) {
	if err := r.ValidateGameSize(len(nums)); err != nil {
		return 0, err
	}
	set, err := validateNumbers(r, nums)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidGame, err)
	}
	return set, nil
}

func validateNumbers(r Rules, nums []int) (Set, error) {
	var set Set
	for _, n := range nums {
		if n < 1 || n > r.MaxNumber {
			return 0, fmt.Errorf("%w: %d not in [1,%d]", ErrOutOfRange, n, r.MaxNumber)
		}
		if set.Has(n) {
			return 0, fmt.Errorf("%w: %d", ErrDuplicate, n)
		}
		set = set.With(n)
	}
	return set, nil
}
