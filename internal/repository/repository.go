// Package repository stores the prediction audit log.
package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	scierrors "github.com/YuminosukeSato/antiox/pkg/errors"
)

// PredictionRecord is one served prediction.
type PredictionRecord struct {
	ID         uuid.UUID          `db:"id" json:"id"`
	Input      map[string]float64 `db:"-" json:"input"`
	Prediction float64            `db:"prediction" json:"prediction"`
	CreatedAt  time.Time          `db:"created_at" json:"created_at"`
}

// NewPredictionRecord stamps a fresh id and the current time.
func NewPredictionRecord(input map[string]float64, prediction float64) PredictionRecord {
	return PredictionRecord{
		ID:         uuid.New(),
		Input:      input,
		Prediction: prediction,
		CreatedAt:  time.Now().UTC(),
	}
}

// PredictionLog appends audit records.
type PredictionLog interface {
	SavePrediction(ctx context.Context, rec PredictionRecord) error
	// Recent returns up to limit records, newest first. limit <= 0 returns all.
	Recent(ctx context.Context, limit int) ([]PredictionRecord, error)
	Close() error
}

// Open returns the sink for url:
//
//	""                      in-memory
//	postgres://... postgresql://...
//	sqlite://path or sqlite::memory:
func Open(ctx context.Context, url string) (PredictionLog, error) {
	switch {
	case url == "" || url == "memory":
		return NewMemoryLog(), nil
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return OpenPostgres(ctx, url)
	case strings.HasPrefix(url, "sqlite://"):
		return OpenSQLite(ctx, strings.TrimPrefix(url, "sqlite://"))
	case strings.HasPrefix(url, "sqlite:"):
		return OpenSQLite(ctx, strings.TrimPrefix(url, "sqlite:"))
	default:
		return nil, scierrors.NewValidationError("PREDICTION_LOG_URL", "unsupported scheme", url)
	}
}
