package history

import (
	"fmt"
	"sort"
)

// Rejection records a raw draw that failed validation and was left out.
type Rejection struct {
	ID      int    `json:"id"`
	Numbers []int  `json:"numbers"`
	Reason  string `json:"reason"`
	Line    int    `json:"line,omitempty"`
	Err     error  `json:"-"`
}

// History is an ordered (oldest first), immutable sequence of valid draws.
// A zero or nil History behaves as empty: every At index is out of range.
type History struct {
	rules    Rules
	draws    []Draw
	rejected []Rejection
}

// New validates raw draws and builds a History sorted by draw id.
// Invalid draws are discarded and reported through Rejected, never padded.
// The only error is for inconsistent rules.
func New(r Rules, raw []RawDraw) (*History, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	h := &History{rules: r, draws: make([]Draw, 0, len(raw))}
	seen := make(map[int]bool, len(raw))
	for _, rd := range raw {
		d, err := ValidateDraw(r, rd)
		if err == nil && seen[rd.ID] {
			err = fmt.Errorf("%w: %d", ErrDuplicateID, rd.ID)
		}
		if err != nil {
			h.rejected = append(h.rejected, Rejection{
				ID:      rd.ID,
				Numbers: append([]int(nil), rd.Numbers...),
				Reason:  err.Error(),
				Line:    rd.Line,
				Err:     err,
			})
			continue
		}
		seen[rd.ID] = true
		h.draws = append(h.draws, d)
	}
	sort.SliceStable(h.draws, func(i, j int) bool { return h.draws[i].ID < h.draws[j].ID })
	return h, nil
}

// Empty returns an empty history for the given rules.
func Empty(r Rules) *History {
	return &History{rules: r}
}

func (h *History) Rules() Rules {
	if h == nil {
		return DefaultRules()
	}
	return h.rules
}

func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.draws)
}

func (h *History) IsEmpty() bool { return h.Len() == 0 }

// At returns the i-th draw, oldest first. It panics when i is out of range.
func (h *History) At(i int) Draw {
	if i < 0 || i >= h.Len() {
		panic(fmt.Sprintf("history: index %d out of range [0,%d)", i, h.Len()))
	}
	return h.draws[i]
}

// Last returns the most recent draw.
func (h *History) Last() (Draw, bool) {
	if h.Len() == 0 {
		return Draw{}, false
	}
	return h.draws[len(h.draws)-1], true
}

// Draws returns a copy of all draws, oldest first.
func (h *History) Draws() []Draw {
	return h.Window(0)
}

// Window returns a copy of the trailing w draws; w <= 0 or w > Len means all of them.
func (h *History) Window(w int) []Draw {
	n := h.Len()
	if n == 0 {
		return nil
	}
	if w <= 0 || w > n {
		w = n
	}
	return append([]Draw(nil), h.draws[n-w:]...)
}

// Rejected lists draws discarded during construction.
func (h *History) Rejected() []Rejection {
	if h == nil {
		return nil
	}
	return append([]Rejection(nil), h.rejected...)
}
