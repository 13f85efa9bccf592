package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lotwise/lotwise/internal/types"
)

// AppendMetrics appends one training run's metrics to the history.
func (s *SQLiteStorage) AppendMetrics(ctx context.Context, record *types.ModelMetricsRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid metrics record: %w", err)
	}
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
		record.CreatedAt = createdAt
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO training_metrics (
			mae, rmse, r2, mape, model_version,
			training_samples, training_time, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, nullFloat(record.MAE), nullFloat(record.RMSE), nullFloat(record.R2),
		nullFloat(record.MAPE), record.ModelVersion, record.TrainingSamples,
		record.TrainingTime, createdAt)
	if err != nil {
		return fmt.Errorf("failed to insert metrics: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		record.ID = id
	}
	return nil
}

// LatestModelMetrics returns the incumbent model's metrics record.
func (s *SQLiteStorage) LatestModelMetrics(ctx context.Context) (*types.ModelMetricsRecord, error) {
	row := s.db.QueryRowContext(ctx, metricsSelect+`
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`)
	record, err := scanMetrics(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return record, err
}

// BaselineModelMetrics returns the earliest metrics record that carries a
// MAE value. This is the fixed reference point for degradation checks.
func (s *SQLiteStorage) BaselineModelMetrics(ctx context.Context) (*types.ModelMetricsRecord, error) {
	row := s.db.QueryRowContext(ctx, metricsSelect+`
		WHERE mae IS NOT NULL
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`)
	record, err := scanMetrics(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return record, err
}

// RetrainingHistory returns metrics records newest first.
func (s *SQLiteStorage) RetrainingHistory(ctx context.Context, limit int) ([]*types.ModelMetricsRecord, error) {
	query := metricsSelect + `
		ORDER BY created_at DESC, id DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics history: %w", err)
	}
	defer rows.Close()

	var history []*types.ModelMetricsRecord
	for rows.Next() {
		record, err := scanMetrics(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, record)
	}
	return history, rows.Err()
}

const metricsSelect = `
	SELECT id, mae, rmse, r2, mape, model_version,
	       training_samples, training_time, created_at
	FROM training_metrics
`

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMetrics(row scanner) (*types.ModelMetricsRecord, error) {
	var record types.ModelMetricsRecord
	var mae, rmse, r2, mape sql.NullFloat64
	var samples sql.NullInt64
	var trainingTime sql.NullFloat64
	var createdAt sql.NullTime

	err := row.Scan(&record.ID, &mae, &rmse, &r2, &mape,
		&record.ModelVersion, &samples, &trainingTime, &createdAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan metrics: %w", err)
	}

	record.MAE = floatPtr(mae)
	record.RMSE = floatPtr(rmse)
	record.R2 = floatPtr(r2)
	record.MAPE = floatPtr(mape)
	if samples.Valid {
		record.TrainingSamples = int(samples.Int64)
	}
	if trainingTime.Valid {
		record.TrainingTime = trainingTime.Float64
	}
	if createdAt.Valid {
		record.CreatedAt = createdAt.Time
	}
	return &record, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
