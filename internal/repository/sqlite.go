package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	scierrors "github.com/YuminosukeSato/antiox/pkg/errors"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS prediction_log (
	id         TEXT PRIMARY KEY,
	input      TEXT NOT NULL,
	prediction REAL NOT NULL,
	created_at TEXT NOT NULL
)`

// sqliteTime sorts lexically in chronological order for UTC values.
const sqliteTime = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteLog writes records to a local SQLite file through sqlx.
type SQLiteLog struct {
	db *sqlx.DB
}

type sqliteRow struct {
	ID         string  `db:"id"`
	Input      string  `db:"input"`
	Prediction float64 `db:"prediction"`
	CreatedAt  string  `db:"created_at"`
}

// OpenSQLite opens (or creates) the database at path. ":memory:" is allowed.
func OpenSQLite(ctx context.Context, path string) (*SQLiteLog, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite", path)
	if err != nil {
		return nil, scierrors.Wrapf(err, "sqlite: open %s", path)
	}
	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, scierrors.Wrap(err, "sqlite: create prediction_log")
	}
	return &SQLiteLog{db: db}, nil
}

func (r *SQLiteLog) SavePrediction(ctx context.Context, rec PredictionRecord) error {
	input, err := json.Marshal(rec.Input)
	if err != nil {
		return scierrors.Wrap(err, "sqlite: marshal input")
	}
	row := sqliteRow{
		ID:         rec.ID.String(),
		Input:      string(input),
		Prediction: rec.Prediction,
		CreatedAt:  rec.CreatedAt.UTC().Format(sqliteTime),
	}
	_, err = r.db.NamedExecContext(ctx,
		`INSERT INTO prediction_log (id, input, prediction, created_at) VALUES (:id, :input, :prediction, :created_at)`,
		row)
	if err != nil {
		return scierrors.Wrap(err, "sqlite: failed to save prediction")
	}
	return nil
}

func (r *SQLiteLog) Recent(ctx context.Context, limit int) ([]PredictionRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	var rows []sqliteRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, input, prediction, created_at FROM prediction_log ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, scierrors.Wrap(err, "sqlite: failed to query predictions")
	}

	out := make([]PredictionRecord, 0, len(rows))
	for _, row := range rows {
		id, err := uuid.Parse(row.ID)
		if err != nil {
			return nil, scierrors.Wrap(err, "sqlite: decode id")
		}
		created, err := time.Parse(sqliteTime, row.CreatedAt)
		if err != nil {
			return nil, scierrors.Wrap(err, "sqlite: decode created_at")
		}
		rec := PredictionRecord{ID: id, Prediction: row.Prediction, CreatedAt: created}
		if err := json.Unmarshal([]byte(row.Input), &rec.Input); err != nil {
			return nil, scierrors.Wrap(err, "sqlite: decode input")
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *SQLiteLog) Close() error {
	return r.db.Close()
}
