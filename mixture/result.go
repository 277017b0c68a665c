package mixture

import (
	"sort"

	"github.com/YuminosukeSato/scimix/core/model"
)

// Pair is one line of a mixture result.
type Pair struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	// Delta is the importance of the source (or the summed importance of
	// its aggregation group). Nil when no member was evaluated.
	Delta *float64 `json:"delta,omitempty"`
}

// Result is the presentation-ready view of a single solve.
type Result struct {
	Target        string  `json:"target"`
	Distance      float64 `json:"distance"`
	RMSE          float64 `json:"rmse"`
	Aggregated    bool    `json:"aggregated"`
	HasImportance bool    `json:"has_importance"`
	Pairs         []Pair  `json:"pairs"`
}

// ViewOptions controls how a Solution is turned into a Result.
type ViewOptions struct {
	// Aggregate sums weights (and importance) per aggregation key.
	Aggregate bool
	// PrintZeroes keeps pairs whose weight is exactly zero.
	PrintZeroes bool
}

// NewResult builds the view of sol. names are the source names in the order
// used for the solve; report may be nil.
// Pairs are sorted by descending weight, ties keep source order.
func NewResult(names []string, sol *Solution, report *ImportanceReport, opts ViewOptions) *Result {
	labels := append([]string(nil), names...)
	weights := append([]float64(nil), sol.Weights...)

	var deltas, counts []float64
	if report != nil {
		deltas = make([]float64, len(names))
		counts = make([]float64, len(names))
		for i := range names {
			if report.Evaluated[i] {
				deltas[i] = report.Delta[i]
				counts[i] = 1
			}
		}
	}

	if opts.Aggregate {
		var keys []string
		keys, weights = model.AggregateSum(names, weights)
		if report != nil {
			_, deltas = model.AggregateSum(names, deltas)
			_, counts = model.AggregateSum(names, counts)
		}
		labels = keys
	}

	pairs := make([]Pair, 0, len(labels))
	for i, name := range labels {
		p := Pair{Name: name, Weight: weights[i]}
		if report != nil && counts[i] > 0 {
			d := deltas[i]
			p.Delta = &d
		}
		pairs = append(pairs, p)
	}
	sort.SliceStable(pairs, func(a, b int) bool {
		return pairs[a].Weight > pairs[b].Weight
	})

	if !opts.PrintZeroes {
		kept := pairs[:0]
		for _, p := range pairs {
			if p.Weight != 0 {
				kept = append(kept, p)
			}
		}
		pairs = kept
	}

	return &Result{
		Target:        sol.Target,
		Distance:      sol.Distance,
		RMSE:          sol.RMSE,
		Aggregated:    opts.Aggregate,
		HasImportance: report != nil,
		Pairs:         pairs,
	}
}
