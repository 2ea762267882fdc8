package engine

import (
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/xtding233/loto-backend/internal/backtest"
	"github.com/xtding233/loto-backend/internal/config"
	"github.com/xtding233/loto-backend/internal/generator"
	"github.com/xtding233/loto-backend/internal/history"
	"github.com/xtding233/loto-backend/internal/stats"
)

// Suggest returns the deterministic hot/overdue suggestion; size 0 means one draw's worth.
func (e *Engine) Suggest(size int) (generator.Game, error) {
	h := e.History()
	if size == 0 {
		size = h.Rules().DrawSize
	}
	return generator.Suggest(h, size)
}

// BatchGame is one game of a mixed-size batch with its descriptors and backtest.
type BatchGame struct {
	generator.Game
	Size   int             `json:"size"`
	Even   int             `json:"even"`
	Odd    int             `json:"odd"`
	Sum    int             `json:"sum"`
	Record backtest.Record `json:"record"`
}

// Batch is the result of GenerateBatch. Requested and Produced are per size.
type Batch struct {
	Games     []BatchGame `json:"games"`
	Requested map[int]int `json:"requested"`
	Produced  map[int]int `json:"produced"`
	Forced    int         `json:"forced"`
}

// Shortfall is how many requested games, over all sizes, were not produced.
func (b Batch) Shortfall() int {
	n := 0
	for size, want := range b.Requested {
		n += want - b.Produced[size]
	}
	return n
}

// GenerateBatch builds quantities[size] games of every size, smallest size
// first, then backtests them all against the current snapshot. o tunes the
// generator as in Generate; its count and size are ignored. The whole batch
// is bounded by the generator's max count.
func (e *Engine) GenerateBatch(quantities map[int]int, o config.Overrides) (Batch, error) {
	h := e.History()
	base := o.Generator(e.Settings().Generator)

	sizes := make([]int, 0, len(quantities))
	total := 0
	for size, qty := range quantities {
		if qty < 0 {
			return Batch{}, fmt.Errorf("%w: quantity for size %d must be >= 0", ErrInvalidArgument, size)
		}
		if qty == 0 {
			continue
		}
		if err := h.Rules().ValidateGameSize(size); err != nil {
			return Batch{}, err
		}
		sizes = append(sizes, size)
		total += qty
	}
	if total == 0 {
		return Batch{}, fmt.Errorf("%w: no games requested", ErrInvalidArgument)
	}
	maxCount := base.MaxCount
	if maxCount <= 0 {
		maxCount = generator.DefaultMaxCount
	}
	if total > maxCount {
		return Batch{}, fmt.Errorf("%w: batch of %d games exceeds %d", ErrInvalidArgument, total, maxCount)
	}
	slices.Sort(sizes)

	b := Batch{
		Games:     make([]BatchGame, 0, total),
		Requested: make(map[int]int, len(sizes)),
		Produced:  make(map[int]int, len(sizes)),
	}
	var sets []history.Set
	for _, size := range sizes {
		p := base
		p.Size, p.Count = size, quantities[size]
		if base.Seed != nil {
			// same seed, distinct stream per size
			seed := *base.Seed + uint64(size)
			p.Seed = &seed
		}
		res, err := generator.Generate(h, p, e.log)
		if err != nil {
			return Batch{}, err
		}
		e.metrics.ObserveGenerate(res.Produced, res.Shortfall(), res.Forced)
		b.Requested[size] = res.Requested
		b.Produced[size] = res.Produced
		b.Forced += res.Forced
		for _, g := range res.Games {
			even := stats.EvenCount(g.Numbers)
			b.Games = append(b.Games, BatchGame{
				Game: g,
				Size: size,
				Even: even,
				Odd:  g.Numbers.Len() - even,
				Sum:  g.Numbers.Sum(),
			})
			sets = append(sets, g.Numbers)
		}
	}

	for i, rec := range backtest.EvaluateSets(h, sets) {
		b.Games[i].Record = rec
	}
	e.log.WithFields(logrus.Fields{
		"sizes":     sizes,
		"requested": total,
		"produced":  len(b.Games),
	}).Info("batch generated")
	return b, nil
}
