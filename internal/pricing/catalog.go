package pricing

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUnknownSize     = errors.New("no stake for game size")
	ErrNoParticipants  = errors.New("participants must be >= 1")
	ErrNegativeAmounts = errors.New("amount must be >= 0")
)

// Catalog maps a game size (numbers marked) to its stake, in minor units.
type Catalog struct {
	Currency string      // ISO code, e.g. "BRL"
	Stakes   map[int]int // size -> price in cents
}

// DefaultCatalog is the official 15..20 price table.
func DefaultCatalog() Catalog {
	return Catalog{
		Currency: "BRL",
		Stakes: map[int]int{
			15: 350,
			16: 5600,
			17: 47600,
			18: 285600,
			19: 1356600,
			20: 5426400,
		},
	}
}

// StakeFor returns the price of one game of the given size.
func (c Catalog) StakeFor(size int) (int, error) {
	p, ok := c.Stakes[size]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownSize, size)
	}
	return p, nil
}

// Sizes lists the priced sizes in ascending order.
func (c Catalog) Sizes() []int {
	out := make([]int, 0, len(c.Stakes))
	for s := range c.Stakes {
		out = append(out, s)
	}
	sort.Ints(out)
	return out
}

// Quote is the cost of a batch of games.
type Quote struct {
	Lines      []Line `json:"lines"`
	TotalCents int    `json:"total_cents"`
	Currency   string `json:"currency"`
}

// Line groups games of one size.
type Line struct {
	Size      int `json:"size"`
	Qty       int `json:"qty"`
	UnitPrice int `json:"unit_price"` // cents
	Subtotal  int `json:"subtotal"`   // cents
}

// QuoteSizes prices one game per entry in sizes.
func (c Catalog) QuoteSizes(sizes []int) (Quote, error) {
	counts := map[int]int{}
	for _, s := range sizes {
		counts[s]++
	}
	q := Quote{Currency: c.Currency, Lines: []Line{}}
	for s, qty := range counts {
		unit, err := c.StakeFor(s)
		if err != nil {
			return Quote{}, err
		}
		sub := unit * qty
		q.Lines = append(q.Lines, Line{Size: s, Qty: qty, UnitPrice: unit, Subtotal: sub})
		q.TotalCents += sub
	}
	sort.Slice(q.Lines, func(i, j int) bool { return q.Lines[i].Size < q.Lines[j].Size })
	return q, nil
}
