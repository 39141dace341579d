package scoring

import (
	"math"

	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
)

// Round rounds half up: 2.5 becomes 3 and -2.5 becomes -2.
func Round(x float64) float64 {
	return math.Floor(x + 0.5)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Evaluate converts one raw value into points. bonusLabel is only consulted
// by range-convert-bonus.
func Evaluate(template tournamenttypes.Template, params tournamenttypes.TemplateParams, v float64, bonusLabel string) float64 {
	switch template {
	case tournamenttypes.TemplateNumberConvert:
		return Round(v * params.Factor)
	case tournamenttypes.TemplateRangeConvert:
		return lookupRange(params.Ranges, v)
	case tournamenttypes.TemplateRangeConvertBonus:
		return lookupRange(params.Ranges, v) + lookupBonus(params.Bonuses, bonusLabel)
	default:
		return v
	}
}

// lookupRange returns the score of the first row containing v, or 0.
func lookupRange(ranges []tournamenttypes.Range, v float64) float64 {
	for _, r := range ranges {
		if r.Min != nil && v < *r.Min {
			continue
		}
		if r.Max != nil && v > *r.Max {
			continue
		}
		return r.Score
	}
	return 0
}

func lookupBonus(bonuses []tournamenttypes.Bonus, label string) float64 {
	if label == "" {
		return 0
	}
	for _, b := range bonuses {
		if b.Label == label {
			return b.Score
		}
	}
	return 0
}

// EvaluateEntry scores the raw input stored for one target. Accumulate
// events evaluate every filled slot and fold them with the slot aggregator.
// ok is false when the entry holds nothing rankable.
func EvaluateEntry(def tournamenttypes.EventDefinition, entry tournamenttypes.InputEntry) (float64, bool) {
	if def.InputMode == tournamenttypes.InputAccumulate {
		values := make([]float64, 0, len(entry.Slots))
		for _, slot := range entry.Slots {
			if slot.Value == nil || !finite(*slot.Value) {
				continue
			}
			values = append(values, Evaluate(def.Template, def.Params, *slot.Value, slot.Bonus))
		}
		return Aggregate(def.SlotAggregator, values)
	}

	if entry.Value == nil || !finite(*entry.Value) {
		return 0, false
	}
	v := Evaluate(def.Template, def.Params, *entry.Value, entry.Bonus)
	if !finite(v) {
		return 0, false
	}
	return v, true
}
