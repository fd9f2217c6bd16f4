package repository

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInput() map[string]float64 {
	return map[string]float64{"r": 200, "g": 150, "b": 100, "brix": 12.5, "hardness": 8.3}
}

func exerciseLog(t *testing.T, l PredictionLog) {
	t.Helper()
	ctx := context.Background()

	first := NewPredictionRecord(sampleInput(), 0.61)
	second := NewPredictionRecord(sampleInput(), 0.63)
	second.CreatedAt = first.CreatedAt.Add(time.Millisecond)
	require.NoError(t, l.SavePrediction(ctx, first))
	require.NoError(t, l.SavePrediction(ctx, second))

	recent, err := l.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, second.ID, recent[0].ID)
	assert.Equal(t, first.ID, recent[1].ID)
	assert.Equal(t, 0.63, recent[0].Prediction)
	assert.Equal(t, sampleInput(), recent[0].Input)
	assert.True(t, second.CreatedAt.Equal(recent[0].CreatedAt))

	recent, err = l.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, second.ID, recent[0].ID)

	all, err := l.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMemoryLog(t *testing.T) {
	l := NewMemoryLog()
	exerciseLog(t, l)
	assert.Equal(t, 2, l.Len())
	require.NoError(t, l.Close())
}

func TestMemoryLogConcurrentWrites(t *testing.T) {
	l := NewMemoryLog()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.SavePrediction(context.Background(), NewPredictionRecord(sampleInput(), 0.6)))
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, l.Len())
}

func TestSQLiteLog(t *testing.T) {
	l, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	exerciseLog(t, l)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	l, err := Open(ctx, "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryLog{}, l)

	l, err = Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "a.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteLog{}, l)
	require.NoError(t, l.Close())

	l, err = Open(ctx, "sqlite::memory:")
	require.NoError(t, err)
	exerciseLog(t, l)
	require.NoError(t, l.Close())

	_, err = Open(ctx, "redis://localhost")
	assert.Error(t, err)
}
