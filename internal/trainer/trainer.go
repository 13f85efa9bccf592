// Package trainer defines the model training contract used by the
// lifecycle manager and provides the reference segment-mean pricing
// trainer. The manager only depends on the Trainer interface, so a
// deployment can swap in an external training pipeline.
package trainer

import (
	"context"
	"fmt"

	"github.com/lotwise/lotwise/internal/types"
)

// TrainedModel is the output of one training run: a serialized artifact
// ready for the artifact store plus the holdout metrics for the run.
type TrainedModel struct {
	Version  string
	Artifact []byte
	Metrics  *types.ModelMetricsRecord
}

// Trainer trains a pricing model from candidate rows.
type Trainer interface {
	Train(ctx context.Context, rows []types.TrainingRow) (*TrainedModel, error)
}

// InsufficientDataError reports that a training run was aborted because
// too few rows were available.
type InsufficientDataError struct {
	Rows     int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient training data: %d rows available, %d required", e.Rows, e.Required)
}
