package lifecycle

import (
	"fmt"

	"github.com/lotwise/lotwise/internal/types"
)

// Comparator decides whether a freshly trained candidate replaces the
// incumbent model.
type Comparator struct {
	// MAETolerance is the allowed MAE regression ratio. The asymmetric
	// band deliberately favors keeping models trained on fresher data
	// even at a slight accuracy cost.
	MAETolerance float64
}

// NewComparator creates a comparator with the given MAE tolerance.
func NewComparator(tolerance float64) *Comparator {
	return &Comparator{MAETolerance: tolerance}
}

// Compare evaluates a candidate's metrics against the incumbent's.
// A nil baseline means no prior model existed and the candidate is
// kept unconditionally. Improvement ratios are positive when the
// candidate is better; the keep/reject decision is driven solely by
// the MAE ratio.
func (c *Comparator) Compare(candidate, baseline *types.ModelMetricsRecord) *types.ModelComparisonResult {
	if baseline == nil {
		return &types.ModelComparisonResult{
			KeepNewModel: true,
			Reason:       "No baseline model to compare",
			Improvement:  map[string]float64{},
			NewMetrics:   candidate,
		}
	}

	improvements := map[string]float64{}
	for _, name := range types.ComparisonMetrics {
		newVal, ok := candidate.Metric(name)
		if !ok {
			continue
		}
		baseVal, ok := baseline.Metric(name)
		if !ok || baseVal == 0 {
			continue
		}
		if name == types.MetricR2 {
			improvements[name] = (newVal - baseVal) / baseVal
		} else {
			improvements[name] = (baseVal - newVal) / baseVal
		}
	}

	result := &types.ModelComparisonResult{
		Improvement:     improvements,
		NewMetrics:      candidate,
		BaselineMetrics: baseline,
	}

	maeImprovement, ok := improvements[types.MetricMAE]
	if !ok {
		result.KeepNewModel = true
		result.Reason = "Primary metric not available for comparison"
		return result
	}

	result.KeepNewModel = maeImprovement > -c.MAETolerance
	word := "degraded"
	if maeImprovement > 0 {
		word = "improved"
	}
	result.Reason = fmt.Sprintf("MAE %s by %.2f%%", word, maeImprovement*100)
	return result
}
