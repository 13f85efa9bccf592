// Package lifecycle decides when the pricing model should be retrained
// and whether a freshly trained candidate should replace the incumbent.
//
// Overview:
//
//	Evaluator  — accumulates independent retraining reasons (missing
//	             model, model age, stale data, metric degradation) and
//	             applies the insufficient-data veto.
//	Comparator — keep/reject policy for a candidate model against the
//	             incumbent's metrics, driven solely by the MAE
//	             improvement ratio with an asymmetric tolerance that
//	             favors fresher models.
//	Manager    — orchestrates CHECK, BACKUP, TRAIN, EVALUATE and then
//	             COMMIT or ROLLBACK. Errors are captured at the
//	             orchestration boundary into a RetrainResult; the
//	             artifact store is left either untouched or explicitly
//	             restored, never half-applied.
//
// Concurrent retraining runs are not supported. The caller must ensure
// only one run is in flight at a time.
package lifecycle

import (
	"context"
	"time"

	"github.com/lotwise/lotwise/internal/types"
)

// Store is the slice of the record store the lifecycle package consumes.
// The storage backends implement a superset of it.
type Store interface {
	LoadCandidateRows(ctx context.Context) ([]types.TrainingRow, error)
	CountTrainableRows(ctx context.Context) (int, error)
	LatestIngestionTime(ctx context.Context) (*time.Time, error)
	AppendMetrics(ctx context.Context, record *types.ModelMetricsRecord) error
	LatestModelMetrics(ctx context.Context) (*types.ModelMetricsRecord, error)
	BaselineModelMetrics(ctx context.Context) (*types.ModelMetricsRecord, error)
}

// Artifacts is the versioned model artifact store consumed by the
// evaluator and manager.
type Artifacts interface {
	Exists() bool
	ModTime() (time.Time, error)
	CurrentVersion() (string, error)
	Commit(version string, data []byte) error
	Restore(version string) error
}
