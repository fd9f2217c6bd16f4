package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	scierrors "github.com/YuminosukeSato/antiox/pkg/errors"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS prediction_log (
	id         UUID PRIMARY KEY,
	input      JSONB NOT NULL,
	prediction DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`

// PostgresLog writes records through a pgx pool.
type PostgresLog struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects, pings and creates the table if needed.
func OpenPostgres(ctx context.Context, url string) (*PostgresLog, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, scierrors.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, scierrors.Wrap(err, "postgres: ping")
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, scierrors.Wrap(err, "postgres: create prediction_log")
	}
	return NewPostgresLog(pool), nil
}

// NewPostgresLog wraps an existing pool. The table must exist.
func NewPostgresLog(pool *pgxpool.Pool) *PostgresLog {
	return &PostgresLog{pool: pool}
}

func (r *PostgresLog) SavePrediction(ctx context.Context, rec PredictionRecord) error {
	input, err := json.Marshal(rec.Input)
	if err != nil {
		return scierrors.Wrap(err, "postgres: marshal input")
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO prediction_log (id, input, prediction, created_at) VALUES ($1, $2, $3, $4)`,
		rec.ID.String(), input, rec.Prediction, rec.CreatedAt)
	if err != nil {
		return scierrors.Wrap(err, "postgres: failed to save prediction")
	}
	return nil
}

func (r *PostgresLog) Recent(ctx context.Context, limit int) ([]PredictionRecord, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id::text, input, prediction, created_at FROM prediction_log ORDER BY created_at DESC LIMIT $1`,
		lim)
	if err != nil {
		return nil, scierrors.Wrap(err, "postgres: failed to query predictions")
	}
	defer rows.Close()

	var out []PredictionRecord
	for rows.Next() {
		var rec PredictionRecord
		var id string
		var input []byte
		if err := rows.Scan(&id, &input, &rec.Prediction, &rec.CreatedAt); err != nil {
			return nil, scierrors.Wrap(err, "postgres: scan prediction")
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, scierrors.Wrap(err, "postgres: decode id")
		}
		if err := json.Unmarshal(input, &rec.Input); err != nil {
			return nil, scierrors.Wrap(err, "postgres: decode input")
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PostgresLog) Close() error {
	r.pool.Close()
	return nil
}
