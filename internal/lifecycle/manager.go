package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/lotwise/lotwise/internal/trainer"
	"github.com/lotwise/lotwise/internal/types"
)

// Manager orchestrates one retraining run.
type Manager struct {
	cfg        Config
	store      Store
	artifacts  Artifacts
	trainer    trainer.Trainer
	evaluator  *Evaluator
	comparator *Comparator
}

// NewManager wires a lifecycle manager from its collaborators.
func NewManager(cfg Config, store Store, artifacts Artifacts, tr trainer.Trainer) *Manager {
	return &Manager{
		cfg:        cfg,
		store:      store,
		artifacts:  artifacts,
		trainer:    tr,
		evaluator:  NewEvaluator(cfg, store, artifacts),
		comparator: NewComparator(cfg.MAETolerance),
	}
}

// Check runs the trigger evaluation without training anything.
func (m *Manager) Check(ctx context.Context) (*types.RetrainDecision, error) {
	return m.evaluator.ShouldRetrain(ctx)
}

// Retrain runs the full CHECK, BACKUP, TRAIN, EVALUATE, COMMIT/ROLLBACK
// sequence. Failures never escape as errors: every outcome is captured
// in the result, and the artifact store ends either untouched or
// explicitly restored to the pre-run incumbent.
func (m *Manager) Retrain(ctx context.Context, force bool) *types.RetrainResult {
	log.Println("lifecycle: starting model retraining")

	// CHECK
	if !force {
		decision, err := m.evaluator.ShouldRetrain(ctx)
		if err != nil {
			return failure(err)
		}
		if !decision.ShouldRetrain {
			return &types.RetrainResult{
				Success: false,
				Message: "Retraining not needed",
				Reasons: decision.Reasons,
			}
		}
	}

	// BACKUP: remember the incumbent version as the rollback point.
	// Best effort: a failure here is logged, never fatal.
	backupVersion := ""
	if m.cfg.BackupOnRetrain && m.artifacts.Exists() {
		version, err := m.artifacts.CurrentVersion()
		if err != nil {
			log.Printf("lifecycle: failed to record rollback point: %v", err)
		} else {
			backupVersion = version
			log.Printf("lifecycle: rollback point is version %s", version)
		}
	}

	// The incumbent's own metrics are the comparison baseline.
	baseline, err := m.store.LatestModelMetrics(ctx)
	if err != nil {
		return failure(err)
	}

	// TRAIN
	rows, err := m.store.LoadCandidateRows(ctx)
	if err != nil {
		return failure(err)
	}
	if len(rows) < m.cfg.MinTrainingSamples {
		return &types.RetrainResult{
			Success:         false,
			Message:         fmt.Sprintf("Insufficient training data: %d samples", len(rows)),
			TrainingSamples: len(rows),
		}
	}

	trained, err := m.trainer.Train(ctx, rows)
	if err != nil {
		var insufficient *trainer.InsufficientDataError
		if errors.As(err, &insufficient) {
			return &types.RetrainResult{
				Success:         false,
				Message:         insufficient.Error(),
				TrainingSamples: insufficient.Rows,
			}
		}
		return failure(err)
	}

	// EVALUATE
	comparison := m.comparator.Compare(trained.Metrics, baseline)
	if !comparison.KeepNewModel {
		// The candidate never touched the store; restoring the rollback
		// point makes the rejection explicit in the audit trail.
		restored := false
		if backupVersion != "" {
			if err := m.artifacts.Restore(backupVersion); err != nil {
				log.Printf("lifecycle: failed to restore version %s: %v", backupVersion, err)
			} else {
				restored = true
			}
		}
		log.Printf("lifecycle: rejected candidate %s: %s", trained.Version, comparison.Reason)
		return &types.RetrainResult{
			Success:         false,
			Message:         "New model performance worse than baseline",
			Metrics:         trained.Metrics,
			Comparison:      comparison,
			TrainingSamples: trained.Metrics.TrainingSamples,
			BackupVersion:   backupVersion,
			BackupRestored:  restored,
		}
	}

	// COMMIT
	if err := m.artifacts.Commit(trained.Version, trained.Artifact); err != nil {
		return failure(err)
	}
	if err := m.store.AppendMetrics(ctx, trained.Metrics); err != nil {
		// Metrics must land with the artifact. Roll the pointer back so
		// the incumbent and its history stay consistent.
		result := failure(err)
		if backupVersion != "" {
			if restoreErr := m.artifacts.Restore(backupVersion); restoreErr != nil {
				log.Printf("lifecycle: failed to restore version %s: %v", backupVersion, restoreErr)
			} else {
				result.BackupRestored = true
			}
		}
		result.BackupVersion = backupVersion
		return result
	}

	log.Printf("lifecycle: model retrained successfully, version %s", trained.Version)
	return &types.RetrainResult{
		Success:         true,
		Message:         "Model retrained successfully",
		Metrics:         trained.Metrics,
		Comparison:      comparison,
		TrainingSamples: trained.Metrics.TrainingSamples,
		BackupVersion:   backupVersion,
	}
}

// failure captures an unexpected error at the orchestration boundary.
func failure(err error) *types.RetrainResult {
	log.Printf("lifecycle: retraining failed: %v", err)
	return &types.RetrainResult{
		Success: false,
		Message: fmt.Sprintf("Retraining failed: %v", err),
		Err:     err.Error(),
	}
}
