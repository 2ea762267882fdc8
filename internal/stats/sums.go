package stats

import (
	"math"
	"sort"

	"github.com/xtding233/loto-backend/internal/history"
)

// SumPoint is the sum of one draw.
type SumPoint struct {
	DrawID int    `json:"draw_id"`
	Date   string `json:"date,omitempty"`
	Sum    int    `json:"sum"`
}

// SumSummary describes the distribution of draw sums.
type SumSummary struct {
	Min    int        `json:"min"`
	Max    int        `json:"max"`
	Mean   float64    `json:"mean"`
	StdDev float64    `json:"std_dev"`
	P50    float64    `json:"p50"`
	P90    float64    `json:"p90"`
	Series []SumPoint `json:"series"` // chronological
}

// Sums computes the per-draw sum series and its summary. Empty history gives zeros.
func Sums(h *history.History) SumSummary {
	series := make([]SumPoint, 0, h.Len())
	xs := make([]int, 0, h.Len())
	for i := 0; i < h.Len(); i++ {
		d := h.At(i)
		s := d.Sum()
		series = append(series, SumPoint{DrawID: d.ID, Date: d.Date, Sum: s})
		xs = append(xs, s)
	}
	out := calcStats(xs)
	out.Series = series
	return out
}

// calcStats computes min/max/mean/stddev/percentiles for integer samples.
func calcStats(xs []int) SumSummary {
	n := len(xs)
	if n == 0 {
		return SumSummary{}
	}
	cp := append([]int(nil), xs...)
	sort.Ints(cp)

	// mean
	var sum float64
	for _, v := range cp {
		sum += float64(v)
	}
	mean := sum / float64(n)

	// variance (population)
	var acc float64
	for _, v := range cp {
		d := float64(v) - mean
		acc += d * d
	}

	percentile := func(p float64) float64 {
		if n == 1 || p <= 0 {
			return float64(cp[0])
		}
		if p >= 1 {
			return float64(cp[n-1])
		}
		pos := p * float64(n-1)
		i := int(math.Floor(pos))
		f := pos - float64(i)
		if i+1 >= n {
			return float64(cp[i])
		}
		return float64(cp[i])*(1-f) + float64(cp[i+1])*f
	}

	return SumSummary{
		Min:    cp[0],
		Max:    cp[n-1],
		Mean:   mean,
		StdDev: math.Sqrt(acc / float64(n)),
		P50:    percentile(0.50),
		P90:    percentile(0.90),
	}
}
