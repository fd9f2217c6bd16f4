package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/antiox/internal/training"
	scierrors "github.com/YuminosukeSato/antiox/pkg/errors"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, ":5000", cfg.Addr())
	assert.Equal(t, "total_rgb_Brix_Hardness_AC.csv", cfg.DatasetPath)
	assert.Equal(t, "xgb_model.json", cfg.ModelPath)
	assert.Equal(t, "Anti-oxidation", cfg.LabelColumn)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "*", cfg.CORSOrigins)
	assert.Empty(t, cfg.PredictionLog)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, training.DefaultHyperParams(), cfg.HyperParams)
}

func TestFromEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "training.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("training:\n  tree_count: 25\n"), 0o600))

	cfg, err := FromEnv(envMap(map[string]string{
		"PORT":               "8080",
		"MODEL_PATH":         "/tmp/m.json",
		"LOG_LEVEL":          "DEBUG",
		"SHUTDOWN_TIMEOUT":   "250ms",
		"TRAINING_CONFIG":    yamlPath,
		"PREDICTION_LOG_URL": "sqlite://audit.db",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "/tmp/m.json", cfg.ModelPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 250*time.Millisecond, cfg.ShutdownTimeout)
	assert.Equal(t, 25, cfg.HyperParams.TreeCount)
	assert.Equal(t, "sqlite://audit.db", cfg.PredictionLog)
}

func TestFromEnvInvalid(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		param string
	}{
		{"port not numeric", map[string]string{"PORT": "http"}, "PORT"},
		{"port out of range", map[string]string{"PORT": "70000"}, "PORT"},
		{"bad level", map[string]string{"LOG_LEVEL": "verbose"}, "LOG_LEVEL"},
		{"bad timeout", map[string]string{"SHUTDOWN_TIMEOUT": "soon"}, "SHUTDOWN_TIMEOUT"},
		{"negative timeout", map[string]string{"SHUTDOWN_TIMEOUT": "-1s"}, "SHUTDOWN_TIMEOUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(envMap(tt.env))
			var vErr *scierrors.ValidationError
			require.True(t, scierrors.As(err, &vErr), "got %v", err)
			assert.Equal(t, tt.param, vErr.ParamName)
		})
	}

	_, err := FromEnv(envMap(map[string]string{"TRAINING_CONFIG": "/does/not/exist.yaml"}))
	assert.Error(t, err)
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("ANTIOX_UNUSED=1\nPORT=6001\n"), 0o600))
	t.Setenv("PORT", "")
	os.Unsetenv("PORT")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "6001", cfg.Port)
	os.Unsetenv("ANTIOX_UNUSED")
	os.Unsetenv("PORT")
}

func TestLoadToleratesMissingEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}
