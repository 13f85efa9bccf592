package lifecycle

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lotwise/lotwise/internal/trainer"
	"github.com/lotwise/lotwise/internal/types"
)

type fakeTrainer struct {
	model *trainer.TrainedModel
	err   error
	calls int
}

func (f *fakeTrainer) Train(ctx context.Context, rows []types.TrainingRow) (*trainer.TrainedModel, error) {
	f.calls++
	return f.model, f.err
}

func manyRows(n int) []types.TrainingRow {
	rows := make([]types.TrainingRow, n)
	for i := range rows {
		rows[i] = types.TrainingRow{Make: "Honda", Model: "Civic", Year: 2020, Price: 20000}
	}
	return rows
}

func trainedModel(mae float64) *trainer.TrainedModel {
	m := metrics(mae)
	m.ModelVersion = "candidate"
	m.TrainingSamples = 800
	return &trainer.TrainedModel{
		Version:  "candidate",
		Artifact: []byte("artifact"),
		Metrics:  m,
	}
}

func TestRetrainNotNeeded(t *testing.T) {
	now := time.Now()
	recent := now.Add(-24 * time.Hour)
	store := &fakeStore{trainable: 1500, latestIngest: &recent}
	artifacts := &fakeArtifacts{exists: true, modTime: now.Add(-time.Hour), current: "v1"}
	tr := &fakeTrainer{}

	m := NewManager(DefaultConfig(), store, artifacts, tr)
	result := m.Retrain(context.Background(), false)

	if result.Success {
		t.Error("expected non-success result")
	}
	if result.Message != "Retraining not needed" {
		t.Errorf("unexpected message: %q", result.Message)
	}
	if tr.calls != 0 {
		t.Error("trainer must not run when retraining is not needed")
	}
}

func TestRetrainSuccessCommitsAndAppendsMetrics(t *testing.T) {
	store := &fakeStore{
		rows:   manyRows(1200),
		latest: metrics(2000),
	}
	artifacts := &fakeArtifacts{exists: true, modTime: time.Now(), current: "v1"}
	tr := &fakeTrainer{model: trainedModel(1900)}

	m := NewManager(DefaultConfig(), store, artifacts, tr)
	result := m.Retrain(context.Background(), true)

	if !result.Success {
		t.Fatalf("expected success, got %q", result.Message)
	}
	if result.Message != "Model retrained successfully" {
		t.Errorf("unexpected message: %q", result.Message)
	}
	if artifacts.current != "candidate" {
		t.Errorf("expected candidate promoted, incumbent is %q", artifacts.current)
	}
	if len(store.appended) != 1 || store.appended[0].ModelVersion != "candidate" {
		t.Errorf("expected candidate metrics appended, got %v", store.appended)
	}
	if result.BackupVersion != "v1" {
		t.Errorf("expected rollback point v1, got %q", result.BackupVersion)
	}
	if result.TrainingSamples != 800 {
		t.Errorf("unexpected training samples: %d", result.TrainingSamples)
	}
}

func TestRetrainRejectsWorseCandidate(t *testing.T) {
	store := &fakeStore{
		rows:   manyRows(1200),
		latest: metrics(2000),
	}
	artifacts := &fakeArtifacts{exists: true, modTime: time.Now(), current: "v1"}
	tr := &fakeTrainer{model: trainedModel(3000)} // 50% worse

	m := NewManager(DefaultConfig(), store, artifacts, tr)
	result := m.Retrain(context.Background(), true)

	if result.Success {
		t.Error("expected rejection")
	}
	if result.Message != "New model performance worse than baseline" {
		t.Errorf("unexpected message: %q", result.Message)
	}
	if !result.BackupRestored {
		t.Error("expected explicit restore of the rollback point")
	}
	if artifacts.current != "v1" {
		t.Errorf("incumbent must stay v1, got %q", artifacts.current)
	}
	if len(artifacts.committed) != 0 {
		t.Error("rejected candidate must not be committed")
	}
	if len(store.appended) != 0 {
		t.Error("rejected candidate's metrics must not be appended")
	}
}

func TestRetrainFirstModelKeptWithoutBaseline(t *testing.T) {
	store := &fakeStore{rows: manyRows(1200)}
	artifacts := &fakeArtifacts{exists: false}
	tr := &fakeTrainer{model: trainedModel(2500)}

	m := NewManager(DefaultConfig(), store, artifacts, tr)
	result := m.Retrain(context.Background(), false)

	if !result.Success {
		t.Fatalf("expected success, got %q", result.Message)
	}
	if result.Comparison == nil || result.Comparison.Reason != "No baseline model to compare" {
		t.Errorf("unexpected comparison: %+v", result.Comparison)
	}
	if result.BackupVersion != "" {
		t.Errorf("no rollback point expected for first model, got %q", result.BackupVersion)
	}
}

func TestRetrainInsufficientRows(t *testing.T) {
	store := &fakeStore{rows: manyRows(400)}
	artifacts := &fakeArtifacts{exists: false}
	tr := &fakeTrainer{}

	m := NewManager(DefaultConfig(), store, artifacts, tr)
	result := m.Retrain(context.Background(), true)

	if result.Success {
		t.Error("expected non-success result")
	}
	if result.Message != "Insufficient training data: 400 samples" {
		t.Errorf("unexpected message: %q", result.Message)
	}
	if tr.calls != 0 {
		t.Error("trainer must not run on insufficient data")
	}
}

func TestRetrainTrainerInsufficientData(t *testing.T) {
	store := &fakeStore{rows: manyRows(1200)}
	artifacts := &fakeArtifacts{exists: false}
	tr := &fakeTrainer{err: &trainer.InsufficientDataError{Rows: 30, Required: 50}}

	m := NewManager(DefaultConfig(), store, artifacts, tr)
	result := m.Retrain(context.Background(), true)

	if result.Success {
		t.Error("expected non-success result")
	}
	if !strings.Contains(result.Message, "insufficient training data") {
		t.Errorf("unexpected message: %q", result.Message)
	}
	if result.Err != "" {
		t.Errorf("insufficient data is not an orchestration failure: %q", result.Err)
	}
}

func TestRetrainOrchestrationFailure(t *testing.T) {
	store := &fakeStore{loadErr: errors.New("db gone")}
	artifacts := &fakeArtifacts{exists: true, modTime: time.Now(), current: "v1"}
	tr := &fakeTrainer{}

	m := NewManager(DefaultConfig(), store, artifacts, tr)
	result := m.Retrain(context.Background(), true)

	if result.Success {
		t.Error("expected failure")
	}
	if !strings.HasPrefix(result.Message, "Retraining failed:") {
		t.Errorf("unexpected message: %q", result.Message)
	}
	if result.Err == "" {
		t.Error("expected captured error detail")
	}
	if artifacts.current != "v1" || len(artifacts.committed) != 0 {
		t.Error("artifact store must be untouched on failure")
	}
}

func TestRetrainMetricsAppendFailureRollsBack(t *testing.T) {
	store := &fakeStore{
		rows:      manyRows(1200),
		latest:    metrics(2000),
		appendErr: errors.New("insert failed"),
	}
	artifacts := &fakeArtifacts{exists: true, modTime: time.Now(), current: "v1"}
	tr := &fakeTrainer{model: trainedModel(1900)}

	m := NewManager(DefaultConfig(), store, artifacts, tr)
	result := m.Retrain(context.Background(), true)

	if result.Success {
		t.Error("expected failure")
	}
	if !result.BackupRestored {
		t.Error("expected rollback after metrics append failure")
	}
	if artifacts.current != "v1" {
		t.Errorf("expected incumbent restored to v1, got %q", artifacts.current)
	}
}
