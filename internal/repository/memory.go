package repository

import (
	"context"
	"maps"
	"sync"
)

// MemoryLog keeps records in process memory. It is the default sink.
type MemoryLog struct {
	mu      sync.RWMutex
	records []PredictionRecord
}

// NewMemoryLog returns an empty log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

func (m *MemoryLog) SavePrediction(_ context.Context, rec PredictionRecord) error {
	rec.Input = maps.Clone(rec.Input)
	m.mu.Lock()
	m.records = append(m.records, rec)
	m.mu.Unlock()
	return nil
}

func (m *MemoryLog) Recent(_ context.Context, limit int) ([]PredictionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := len(m.records)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]PredictionRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

// Len returns the number of stored records.
func (m *MemoryLog) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func (m *MemoryLog) Close() error { return nil }
