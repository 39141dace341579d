package scoring

import (
	"cmp"
	"slices"

	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
)

// Aggregate reduces values with kind. An empty kind means sum. Non-finite
// values are dropped first; ok is false when nothing is left.
func Aggregate(kind tournamenttypes.AggregatorKind, values []float64) (float64, bool) {
	kept := make([]float64, 0, len(values))
	for _, v := range values {
		if finite(v) {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return 0, false
	}

	switch kind {
	case tournamenttypes.AggregateCount:
		return float64(len(kept)), true
	case tournamenttypes.AggregateBest:
		return slices.Min(kept), true
	case tournamenttypes.AggregateAvg:
		return Round(sum(kept) / float64(len(kept))), true
	default:
		return sum(kept), true
	}
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// Entry is an unranked row. Rows with Valid unset are dropped by Rank.
type Entry struct {
	Key   string
	Label string
	Value float64
	Valid bool
}

// Ranked is one row of a ranking view.
type Ranked struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Rank  int     `json:"rank"`
}

// Rank orders the valid rows and numbers them 1..N by position. Ties keep
// their input order and still get distinct ranks.
func Rank(rows []Entry, order tournamenttypes.RankOrder) []Ranked {
	kept := make([]Entry, 0, len(rows))
	for _, r := range rows {
		if r.Valid && finite(r.Value) {
			kept = append(kept, r)
		}
	}

	slices.SortStableFunc(kept, func(a, b Entry) int {
		if order == tournamenttypes.RankDesc {
			return cmp.Compare(b.Value, a.Value)
		}
		return cmp.Compare(a.Value, b.Value)
	})

	out := make([]Ranked, len(kept))
	for i, r := range kept {
		out[i] = Ranked{Key: r.Key, Label: r.Label, Value: r.Value, Rank: i + 1}
	}
	return out
}
