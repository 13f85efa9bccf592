package types

import (
	"fmt"
	"time"
)

// Metric names tracked for model comparison and degradation checks.
const (
	MetricMAE  = "mae"
	MetricRMSE = "rmse"
	MetricR2   = "r2"
	MetricMAPE = "mape"
)

// ComparisonMetrics is the ordered set of metrics used for degradation and
// improvement ratios. MAE is the primary decision metric.
var ComparisonMetrics = []string{MetricMAE, MetricRMSE, MetricR2}

// ModelMetricsRecord is one training run's accuracy metrics. Records are
// append-only: they are never mutated or deleted, and serve as the
// permanent audit trail. The baseline is the earliest record with a
// non-null MAE; the most recent record is the incumbent's metrics.
type ModelMetricsRecord struct {
	ID              int64     `json:"id,omitempty"`
	MAE             *float64  `json:"mae,omitempty"`
	RMSE            *float64  `json:"rmse,omitempty"`
	R2              *float64  `json:"r2,omitempty"`
	MAPE            *float64  `json:"mape,omitempty"`
	ModelVersion    string    `json:"model_version"`
	TrainingSamples int       `json:"training_samples"`
	TrainingTime    float64   `json:"training_time"` // seconds
	CreatedAt       time.Time `json:"created_at"`
}

// Metric returns the named metric value and whether it is present.
func (m *ModelMetricsRecord) Metric(name string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	var v *float64
	switch name {
	case MetricMAE:
		v = m.MAE
	case MetricRMSE:
		v = m.RMSE
	case MetricR2:
		v = m.R2
	case MetricMAPE:
		v = m.MAPE
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

// Validate checks that present metric values are sane.
func (m *ModelMetricsRecord) Validate() error {
	if m.ModelVersion == "" {
		return fmt.Errorf("model_version is required")
	}
	if m.TrainingSamples < 0 {
		return fmt.Errorf("training_samples cannot be negative (got %d)", m.TrainingSamples)
	}
	if m.MAE != nil && *m.MAE < 0 {
		return fmt.Errorf("mae cannot be negative (got %f)", *m.MAE)
	}
	if m.RMSE != nil && *m.RMSE < 0 {
		return fmt.Errorf("rmse cannot be negative (got %f)", *m.RMSE)
	}
	return nil
}

// RetrainDecision is the read-only verdict of the retraining trigger
// evaluator. Each reason is independently sufficient to justify
// retraining, except insufficient data which vetoes retraining outright
// (retraining is infeasible, not merely undesired).
type RetrainDecision struct {
	ShouldRetrain bool     `json:"should_retrain"`
	Reasons       []string `json:"reasons"`

	// ModelAgeDays is the incumbent artifact's age; -1 when no artifact exists.
	ModelAgeDays int `json:"model_age_days"`

	// DataVolume is the current count of trainable rows.
	DataVolume int `json:"data_volume"`

	// Degradation maps metric name to its degradation ratio relative to
	// baseline (positive = worse). Empty when metrics are unavailable.
	Degradation map[string]float64 `json:"degradation,omitempty"`
}

// ModelComparisonResult records the keep/reject verdict for a freshly
// trained candidate against the incumbent's metrics.
type ModelComparisonResult struct {
	KeepNewModel bool   `json:"keep_new_model"`
	Reason       string `json:"reason"`

	// Improvement maps metric name to its improvement ratio relative to the
	// baseline (positive = better). Empty when no baseline existed.
	Improvement map[string]float64 `json:"improvement,omitempty"`

	NewMetrics      *ModelMetricsRecord `json:"new_metrics,omitempty"`
	BaselineMetrics *ModelMetricsRecord `json:"baseline_metrics,omitempty"`
}

// RetrainResult is the outcome of one lifecycle run. Failures surface here
// rather than as errors: the orchestration boundary guarantees the
// incumbent artifact is either untouched or explicitly restored.
type RetrainResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`

	// Reasons carries the trigger evaluator's reasons when the run was
	// skipped as not needed.
	Reasons []string `json:"reasons,omitempty"`

	Metrics         *ModelMetricsRecord    `json:"metrics,omitempty"`
	Comparison      *ModelComparisonResult `json:"comparison,omitempty"`
	TrainingSamples int                    `json:"training_samples,omitempty"`

	// BackupVersion is the incumbent version recorded before training, if any.
	BackupVersion string `json:"backup_version,omitempty"`

	// BackupRestored reports whether the incumbent was explicitly restored
	// after a rejected or failed candidate.
	BackupRestored bool `json:"backup_restored,omitempty"`

	// Err carries the failure detail for unexpected orchestration errors.
	Err string `json:"error,omitempty"`
}
