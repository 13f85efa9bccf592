package lifecycle

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lotwise/lotwise/internal/types"
)

// Evaluator decides whether retraining should run.
type Evaluator struct {
	cfg       Config
	store     Store
	artifacts Artifacts

	// now is swappable for tests.
	now func() time.Time
}

// NewEvaluator creates a retraining trigger evaluator.
func NewEvaluator(cfg Config, store Store, artifacts Artifacts) *Evaluator {
	return &Evaluator{
		cfg:       cfg,
		store:     store,
		artifacts: artifacts,
		now:       time.Now,
	}
}

// ShouldRetrain evaluates the retraining triggers. Reasons accumulate
// independently; any one justifies retraining, except that an
// insufficient trainable-row count vetoes the decision while still
// reporting every accumulated reason.
func (e *Evaluator) ShouldRetrain(ctx context.Context) (*types.RetrainDecision, error) {
	decision := &types.RetrainDecision{
		ModelAgeDays: -1,
		Degradation:  map[string]float64{},
	}

	// A missing model short-circuits every other check.
	if !e.artifacts.Exists() {
		decision.ShouldRetrain = true
		decision.Reasons = []string{"Model file does not exist"}
		return decision, nil
	}

	intervalDays := days(e.cfg.RetrainingInterval)
	if modTime, err := e.artifacts.ModTime(); err != nil {
		// An artifact whose age cannot be read counts as infinitely old.
		log.Printf("lifecycle: failed to stat model artifact: %v", err)
		decision.Reasons = append(decision.Reasons,
			fmt.Sprintf("Model age unknown (threshold: %d)", intervalDays))
	} else {
		decision.ModelAgeDays = int(e.now().Sub(modTime).Hours() / 24)
		if decision.ModelAgeDays > intervalDays {
			decision.Reasons = append(decision.Reasons,
				fmt.Sprintf("Model is %d days old (threshold: %d)", decision.ModelAgeDays, intervalDays))
		}
	}

	if reason, stale, err := e.checkDataFreshness(ctx); err != nil {
		return nil, err
	} else if stale {
		decision.Reasons = append(decision.Reasons, "Training data is stale: "+reason)
	}

	degradation, maxDegradation, err := e.checkDegradation(ctx)
	if err != nil {
		return nil, err
	}
	decision.Degradation = degradation
	if maxDegradation > e.cfg.PerformanceThreshold {
		decision.Reasons = append(decision.Reasons,
			fmt.Sprintf("Performance degraded: Max degradation: %.2f%%", maxDegradation*100))
	}

	volume, err := e.store.CountTrainableRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count trainable rows: %w", err)
	}
	decision.DataVolume = volume
	if volume < e.cfg.MinTrainingSamples {
		// Infeasible regardless of how stale or degraded the model is.
		decision.Reasons = append(decision.Reasons,
			fmt.Sprintf("Insufficient training data: %d samples", volume))
		decision.ShouldRetrain = false
		return decision, nil
	}

	decision.ShouldRetrain = len(decision.Reasons) > 0
	return decision, nil
}

func (e *Evaluator) checkDataFreshness(ctx context.Context) (string, bool, error) {
	latest, err := e.store.LatestIngestionTime(ctx)
	if err != nil {
		return "", false, fmt.Errorf("failed to check data freshness: %w", err)
	}
	if latest == nil {
		return "No training data available", true, nil
	}
	ageDays := int(e.now().Sub(*latest).Hours() / 24)
	if ageDays > days(e.cfg.DataFreshness) {
		return fmt.Sprintf("Latest data is %d days old", ageDays), true, nil
	}
	return "", false, nil
}

// checkDegradation compares the incumbent's latest metrics against the
// baseline. For r2 higher is better, so degradation inverts.
func (e *Evaluator) checkDegradation(ctx context.Context) (map[string]float64, float64, error) {
	degradation := map[string]float64{}

	recent, err := e.store.LatestModelMetrics(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load latest metrics: %w", err)
	}
	baseline, err := e.store.BaselineModelMetrics(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load baseline metrics: %w", err)
	}
	if recent == nil || baseline == nil {
		return degradation, 0, nil
	}

	for _, name := range types.ComparisonMetrics {
		recentVal, ok := recent.Metric(name)
		if !ok {
			continue
		}
		baseVal, ok := baseline.Metric(name)
		if !ok || baseVal == 0 {
			continue
		}
		if name == types.MetricR2 {
			degradation[name] = (baseVal - recentVal) / baseVal
		} else {
			degradation[name] = (recentVal - baseVal) / baseVal
		}
	}

	maxDegradation := 0.0
	first := true
	for _, d := range degradation {
		if first || d > maxDegradation {
			maxDegradation = d
			first = false
		}
	}
	return degradation, maxDegradation, nil
}

func days(d time.Duration) int {
	return int(d.Hours() / 24)
}
