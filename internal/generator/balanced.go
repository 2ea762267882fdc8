// Package generator builds candidate games that blend frequent ("hot"), overdue ("cold")
// and filler numbers under soft, stochastic constraints.
//
// The constraints are heuristics, not guarantees: a call may return fewer games
// than requested, and the result always says how many were produced.
package generator

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/xtding233/loto-backend/internal/history"
	"github.com/xtding233/loto-backend/internal/rng"
	"github.com/xtding233/loto-backend/internal/stats"
)

// Origin tags which heuristic selected a number. It never affects evaluation.
type Origin string

const (
	OriginHot     Origin = "hot"
	OriginCold    Origin = "cold"
	OriginNeutral Origin = "neutral"
)

// Game is one candidate with a provenance tag for every number.
type Game struct {
	Numbers history.Set    `json:"numbers"`
	Origins map[int]Origin `json:"origins"`
}

// Result reports what one Generate call produced.
type Result struct {
	Games      []Game `json:"games"`
	Requested  int    `json:"requested"`
	Produced   int    `json:"produced"`
	Attempts   int    `json:"attempts"`
	Forced     int    `json:"forced"` // games that needed forced completion
	AllowedRun int    `json:"allowed_run"`
	TargetSum  int    `json:"target_sum"`
}

// Shortfall is how many requested games could not be produced.
func (r Result) Shortfall() int { return r.Requested - r.Produced }

// plan is everything derived once per call.
type plan struct {
	p          Params
	rules      history.Rules
	src        rng.RandomSource
	hot        []int
	cold       []int
	allowedRun int
	last       history.Set
	hasLast    bool
	target     int
}

// Generate produces up to p.Count distinct games of p.Size numbers.
// Statistics are computed once per call. The only errors are validation errors.
func Generate(h *history.History, p Params, log *logrus.Entry) (Result, error) {
	r := h.Rules()
	if err := p.Validate(r); err != nil {
		return Result{}, err
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	pl := newPlan(h, p)
	res := Result{Requested: p.Count, AllowedRun: pl.allowedRun, TargetSum: pl.target}
	seen := make(map[history.Set]bool, min(p.Count, 1024))
	budget := p.retryBudget()

	for res.Attempts < budget && len(res.Games) < p.Count {
		res.Attempts++
		g, forced := pl.build()
		if seen[g.Numbers] {
			continue
		}
		seen[g.Numbers] = true
		if forced {
			res.Forced++
		}
		res.Games = append(res.Games, g)
	}
	res.Produced = len(res.Games)

	if res.Shortfall() > 0 {
		log.WithFields(logrus.Fields{
			"requested": res.Requested,
			"produced":  res.Produced,
			"attempts":  res.Attempts,
			"size":      p.Size,
		}).Warn("generator stopped short: retry budget exhausted")
	}
	return res, nil
}

func newPlan(h *history.History, p Params) *plan {
	r := h.Rules()
	pl := &plan{
		p:          p,
		rules:      r,
		src:        rng.FromSeed(p.Seed),
		hot:        stats.Frequency(h, p.FrequencyWindow).Top(p.HotPool),
		cold:       stats.Gaps(h).TopCurrent(p.ColdPool),
		allowedRun: AllowedRun(stats.Runs(h), p.RunMedian),
	}
	pl.last, pl.hasLast = lastDraw(h)
	pl.target = targetSum(h, p)
	return pl
}

func lastDraw(h *history.History) (history.Set, bool) {
	d, ok := h.Last()
	return d.Numbers, ok
}

// AllowedRun is clamp(median run length + 1, 3, 6); with no runs observed the median is taken as 2.
// mode picks the median, see RunMedian.
func AllowedRun(rt stats.RunTable, mode RunMedian) int {
	median := rt.Median
	if mode == RunMedianObservations {
		median = rt.WeightedMedian
	}
	med := 2
	if m, ok := median(); ok {
		med = int(m)
	}
	return min(6, max(3, med+1))
}

// targetSum scales the historical mean draw sum to the game size.
func targetSum(h *history.History, p Params) int {
	if p.TargetSum > 0 {
		return p.TargetSum
	}
	r := h.Rules()
	if h.IsEmpty() {
		return p.Size * (r.MaxNumber + 1) / 2
	}
	mean := stats.Sums(h).Mean
	return int(math.Round(mean * float64(p.Size) / float64(r.DrawSize)))
}

// build assembles one candidate. forced reports whether soft constraints had to be ignored.
func (pl *plan) build() (Game, bool) {
	size := pl.p.Size
	var set history.Set
	origins := make(map[int]Origin, size)

	for _, n := range rng.Sample(pl.src, pl.hot, pl.p.hotPicks()) {
		set = set.With(n)
		origins[n] = OriginHot
	}
	coldCandidates := make([]int, 0, len(pl.cold))
	for _, n := range pl.cold {
		if !set.Has(n) {
			coldCandidates = append(coldCandidates, n)
		}
	}
	for _, n := range rng.Sample(pl.src, coldCandidates, pl.p.coldPicks()) {
		set = set.With(n)
		origins[n] = OriginCold
	}

	for pass := 0; pass < pl.p.FillPasses && set.Len() < size; pass++ {
		pool := pl.unused(set)
		rng.Shuffle(pl.src, pool)
		for _, c := range pool {
			if set.Len() >= size {
				break
			}
			if pl.accept(set, c) {
				set = set.With(c)
				origins[c] = OriginNeutral
			}
		}
	}

	forced := false
	// size wins over heuristic quality: lowest unused numbers, no constraints
	for n := 1; n <= pl.rules.MaxNumber && set.Len() < size; n++ {
		if !set.Has(n) {
			set = set.With(n)
			origins[n] = OriginNeutral
			forced = true
		}
	}

	if set.Len() > size {
		set = pl.trim(set, origins)
	}
	return Game{Numbers: set, Origins: completeOrigins(set, origins)}, forced
}

func (pl *plan) unused(set history.Set) []int {
	out := make([]int, 0, pl.rules.MaxNumber-set.Len())
	for n := 1; n <= pl.rules.MaxNumber; n++ {
		if !set.Has(n) {
			out = append(out, n)
		}
	}
	return out
}

// accept applies the soft constraints to adding c; each rejection is a Bernoulli trial.
func (pl *plan) accept(set history.Set, c int) bool {
	next := set.With(c)

	if stats.LongestRun(next) > pl.allowedRun && pl.chance(pl.p.RunRejectProbability) {
		return false
	}
	if pl.p.AvoidLastDraw && pl.hasLast &&
		next.Overlap(pl.last) > pl.p.lastDrawThreshold() && pl.chance(pl.p.RepeatRejectProbability) {
		return false
	}
	if pl.p.BalanceSum {
		dev := pl.projectedSum(next) - float64(pl.target)
		if math.Abs(dev) > float64(pl.p.SumMargin) && pl.chance(pl.p.SumRejectProbability) {
			return false
		}
	}
	return true
}

// projectedSum extrapolates the final sum: current sum plus the mean of the
// still-unused numbers for every remaining slot.
func (pl *plan) projectedSum(next history.Set) float64 {
	remaining := pl.p.Size - next.Len()
	sum := float64(next.Sum())
	if remaining <= 0 {
		return sum
	}
	free := pl.rules.MaxNumber - next.Len()
	if free <= 0 {
		return sum
	}
	universe := pl.rules.MaxNumber * (pl.rules.MaxNumber + 1) / 2
	mean := float64(universe-next.Sum()) / float64(free)
	return sum + mean*float64(remaining)
}

func (pl *plan) chance(p float64) bool {
	// probabilities are validated up front
	hit, _ := rng.Chance(p, pl.src)
	return hit
}

// trim keeps hot numbers first, then cold, then neutral, random within each group.
func (pl *plan) trim(set history.Set, origins map[int]Origin) history.Set {
	groups := map[Origin][]int{}
	for _, n := range set.Numbers() {
		o := origins[n]
		if o == "" {
			o = OriginNeutral
		}
		groups[o] = append(groups[o], n)
	}
	var keep history.Set
	for _, o := range []Origin{OriginHot, OriginCold, OriginNeutral} {
		g := groups[o]
		rng.Shuffle(pl.src, g)
		for _, n := range g {
			if keep.Len() >= pl.p.Size {
				return keep
			}
			keep = keep.With(n)
		}
	}
	return keep
}

// completeOrigins returns a map covering exactly the numbers in set, defaulting to neutral.
func completeOrigins(set history.Set, origins map[int]Origin) map[int]Origin {
	out := make(map[int]Origin, set.Len())
	for _, n := range set.Numbers() {
		o, ok := origins[n]
		if !ok {
			o = OriginNeutral
		}
		out[n] = o
	}
	return out
}

// SortedOrigins lists a game's numbers with their tags in ascending order.
func (g Game) SortedOrigins() []NumberOrigin {
	out := make([]NumberOrigin, 0, len(g.Origins))
	for n, o := range g.Origins {
		out = append(out, NumberOrigin{Number: n, Origin: o})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// NumberOrigin pairs a number with its tag.
type NumberOrigin struct {
	Number int    `json:"number"`
	Origin Origin `json:"origin"`
}
