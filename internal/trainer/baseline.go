package trainer

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lotwise/lotwise/internal/types"
)

// BaselineTrainer is the reference pricing trainer: a segment-mean model
// keyed on make/model/year, falling back to make/model and then the
// global mean when a segment was never seen. It exists so the retraining
// loop can run end to end without an external ML pipeline.
type BaselineTrainer struct {
	// MinRows aborts training with InsufficientDataError below this count.
	MinRows int
	// HoldoutFraction of rows reserved for metric evaluation.
	HoldoutFraction float64
	// Seed fixes the train/holdout split; 0 means time-seeded.
	Seed int64
}

// NewBaselineTrainer returns a trainer with the default split.
func NewBaselineTrainer() *BaselineTrainer {
	return &BaselineTrainer{
		MinRows:         50,
		HoldoutFraction: 0.2,
	}
}

// Model is a trained segment-mean pricing model.
type Model struct {
	Version         string             `json:"version"`
	TrainedAt       time.Time          `json:"trained_at"`
	SegmentMeans    map[string]float64 `json:"segment_means"`
	ModelMeans      map[string]float64 `json:"model_means"`
	GlobalMean      float64            `json:"global_mean"`
	TrainingSamples int                `json:"training_samples"`
}

// LoadModel deserializes a model artifact.
func LoadModel(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode model artifact: %w", err)
	}
	return &m, nil
}

// Predict estimates the price for one row, falling back from the full
// segment to the make/model mean to the global mean.
func (m *Model) Predict(row types.TrainingRow) float64 {
	if mean, ok := m.SegmentMeans[segmentKey(row)]; ok {
		return mean
	}
	if mean, ok := m.ModelMeans[modelKey(row)]; ok {
		return mean
	}
	return m.GlobalMean
}

// Train fits the segment means on a shuffled split and evaluates on the
// holdout remainder.
func (t *BaselineTrainer) Train(ctx context.Context, rows []types.TrainingRow) (*TrainedModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	minRows := t.MinRows
	if minRows < 10 {
		minRows = 10
	}
	if len(rows) < minRows {
		return nil, &InsufficientDataError{Rows: len(rows), Required: minRows}
	}

	start := time.Now()

	fraction := t.HoldoutFraction
	if fraction <= 0 || fraction >= 1 {
		fraction = 0.2
	}

	seed := t.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	shuffled := make([]types.TrainingRow, len(rows))
	copy(shuffled, rows)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	holdoutSize := int(float64(len(shuffled)) * fraction)
	if holdoutSize < 1 {
		holdoutSize = 1
	}
	trainRows := shuffled[:len(shuffled)-holdoutSize]
	holdout := shuffled[len(shuffled)-holdoutSize:]

	model := fit(trainRows)
	model.Version = newVersion(start)
	model.TrainedAt = start.UTC()

	metrics := evaluate(model, holdout)
	metrics.ModelVersion = model.Version
	metrics.TrainingSamples = len(trainRows)
	metrics.TrainingTime = time.Since(start).Seconds()
	metrics.CreatedAt = time.Now().UTC()

	artifact, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode model artifact: %w", err)
	}

	return &TrainedModel{
		Version:  model.Version,
		Artifact: artifact,
		Metrics:  metrics,
	}, nil
}

func fit(rows []types.TrainingRow) *Model {
	type acc struct {
		sum   float64
		count int
	}
	segments := make(map[string]*acc)
	models := make(map[string]*acc)
	var total float64

	add := func(m map[string]*acc, key string, price float64) {
		a := m[key]
		if a == nil {
			a = &acc{}
			m[key] = a
		}
		a.sum += price
		a.count++
	}

	for _, row := range rows {
		add(segments, segmentKey(row), row.Price)
		add(models, modelKey(row), row.Price)
		total += row.Price
	}

	model := &Model{
		SegmentMeans:    make(map[string]float64, len(segments)),
		ModelMeans:      make(map[string]float64, len(models)),
		TrainingSamples: len(rows),
	}
	for key, a := range segments {
		model.SegmentMeans[key] = a.sum / float64(a.count)
	}
	for key, a := range models {
		model.ModelMeans[key] = a.sum / float64(a.count)
	}
	if len(rows) > 0 {
		model.GlobalMean = total / float64(len(rows))
	}
	return model
}

// evaluate computes holdout metrics: mean absolute error, root mean
// squared error, coefficient of determination, and mean absolute
// percentage error.
func evaluate(model *Model, holdout []types.TrainingRow) *types.ModelMetricsRecord {
	n := float64(len(holdout))

	var actualSum float64
	for _, row := range holdout {
		actualSum += row.Price
	}
	actualMean := actualSum / n

	var absErrSum, sqErrSum, ssTot, pctErrSum float64
	pctRows := 0
	for _, row := range holdout {
		pred := model.Predict(row)
		err := pred - row.Price
		absErrSum += math.Abs(err)
		sqErrSum += err * err
		ssTot += (row.Price - actualMean) * (row.Price - actualMean)
		// Percentage error is undefined at zero price.
		if row.Price > 0 {
			pctErrSum += math.Abs(err) / row.Price
			pctRows++
		}
	}

	mae := absErrSum / n
	rmse := math.Sqrt(sqErrSum / n)
	mape := 0.0
	if pctRows > 0 {
		mape = pctErrSum / float64(pctRows) * 100
	}

	// A constant holdout has no variance to explain.
	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - sqErrSum/ssTot
	}

	return &types.ModelMetricsRecord{
		MAE:  &mae,
		RMSE: &rmse,
		R2:   &r2,
		MAPE: &mape,
	}
}

func newVersion(at time.Time) string {
	return at.UTC().Format("20060102T150405") + "-" + uuid.NewString()[:8]
}

func segmentKey(row types.TrainingRow) string {
	return strings.ToLower(row.Make) + "|" + strings.ToLower(row.Model) + "|" + fmt.Sprint(row.Year)
}

func modelKey(row types.TrainingRow) string {
	return strings.ToLower(row.Make) + "|" + strings.ToLower(row.Model)
}
