package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/antiox/internal/dataset"
	"github.com/YuminosukeSato/antiox/internal/modelstore"
	"github.com/YuminosukeSato/antiox/internal/repository"
	"github.com/YuminosukeSato/antiox/internal/schema"
	"github.com/YuminosukeSato/antiox/internal/training"
	"github.com/YuminosukeSato/antiox/sklearn/ensemble"
	scierrors "github.com/YuminosukeSato/antiox/pkg/errors"
	"github.com/YuminosukeSato/antiox/pkg/log"
)

const exampleBody = `{"r": 200, "g": 150, "b": 100, "brix": 12.5, "hardness": 8.3}`

// writeDataset writes a CSV whose label is about 0.625 at the example body.
func writeDataset(t *testing.T, dir string) string {
	t.Helper()
	r := rand.New(rand.NewPCG(11, 11))
	var sb strings.Builder
	sb.WriteString("R,G,B,Brix,Hardness,Anti-oxidation\n")
	for i := 0; i < 300; i++ {
		red, g, b := r.Float64()*255, r.Float64()*255, r.Float64()*255
		brix, hard := 8+r.Float64()*8, 5+r.Float64()*6
		label := 0.5 + 0.0005*red + 0.002*brix
		fmt.Fprintf(&sb, "%.3f,%.3f,%.3f,%.3f,%.3f,%.6f\n", red, g, b, brix, hard, label)
	}
	path := filepath.Join(dir, "total_rgb_Brix_Hardness_AC.csv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o600))
	return path
}

func stump() *ensemble.Model {
	return &ensemble.Model{
		Objective:    ensemble.RegressionL2,
		NumFeatures:  5,
		FeatureNames: schema.Default.Columns(),
		InitScore:    0.62,
		Trees: []ensemble.Tree{{
			NumLeaves:     1,
			ShrinkageRate: 1,
			Nodes:         []ensemble.Node{{ParentID: -1, LeftChild: -1, RightChild: -1}},
		}},
	}
}

func newTestServer(t *testing.T, m *ensemble.Model, audit repository.PredictionLog) *Server {
	t.Helper()
	h := modelstore.NewHandle()
	if m != nil {
		require.NoError(t, h.Set(m))
	}
	return New(Options{Handle: h, Schema: schema.Default, Audit: audit, AccessLog: io.Discard})
}

func do(t *testing.T, s *Server, method, path, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestHome(t *testing.T) {
	s := newTestServer(t, nil, nil)
	status, body := do(t, s, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Anti-oxidation Prediction API", body["message"])
	assert.Equal(t, "1.0", body["version"])

	endpoints := body["endpoints"].(map[string]any)
	predict := endpoints["/predict"].(map[string]any)
	assert.Equal(t, "POST", predict["method"])
	example := predict["example"].(map[string]any)
	assert.Equal(t, 12.5, example["brix"])
	assert.Contains(t, endpoints, "/health")
}

func TestHealth(t *testing.T) {
	status, body := do(t, newTestServer(t, nil, nil), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, false, body["model_loaded"])

	_, body = do(t, newTestServer(t, stump(), nil), http.MethodGet, "/health", "")
	assert.Equal(t, true, body["model_loaded"])
}

func TestPredictEndpoint(t *testing.T) {
	audit := repository.NewMemoryLog()
	s := newTestServer(t, stump(), audit)

	status, body := do(t, s, http.MethodPost, "/predict", exampleBody)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "success", body["status"])
	assert.InDelta(t, 0.62, body["prediction"].(float64), 1e-12)
	assert.Equal(t, map[string]any{"r": 200.0, "g": 150.0, "b": 100.0, "brix": 12.5, "hardness": 8.3}, body["input"])

	s.handler.WaitAudits()
	recent, err := audit.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.InDelta(t, 0.62, recent[0].Prediction, 1e-12)
	assert.Equal(t, 12.5, recent[0].Input["brix"])
}

type failingLog struct{ *repository.MemoryLog }

func (*failingLog) SavePrediction(context.Context, repository.PredictionRecord) error {
	return scierrors.New("disk full")
}

func TestAuditFailureDoesNotAffectResponse(t *testing.T) {
	provider, logs := log.NewTestLoggerProvider(log.LevelDebug)
	log.SetProvider(provider)
	t.Cleanup(func() { log.SetProvider(log.NewZerologProvider(os.Stderr, log.LevelInfo)) })

	s := newTestServer(t, stump(), &failingLog{repository.NewMemoryLog()})
	status, body := do(t, s, http.MethodPost, "/predict", exampleBody)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", body["status"])

	s.handler.WaitAudits()
	assert.True(t, logs.ContainsMessage("Failed to save prediction log"))
}

func TestPredictErrors(t *testing.T) {
	tests := []struct {
		name   string
		model  *ensemble.Model
		body   string
		status int
		error  string
	}{
		{"missing", stump(), `{"r": 1, "g": 2}`, 400, "Missing required fields: b, brix, hardness"},
		{"rgb range", stump(), `{"r": 256, "g": 1, "b": 1, "brix": 1, "hardness": 1}`, 400, "RGB values must be between 0 and 255"},
		{"not json", stump(), `r=1&g=2`, 400, "Invalid input format"},
		{"array body", stump(), `[1, 2, 3]`, 400, "Invalid input format"},
		{"null body", stump(), `null`, 400, "Invalid input format"},
		{"bad value", stump(), `{"r": "red", "g": 1, "b": 1, "brix": 1, "hardness": 1}`, 400, "Invalid input format: "},
		{"no model", nil, exampleBody, 500, "Model not loaded. Please check server logs."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, newTestServer(t, tt.model, nil), http.MethodPost, "/predict", tt.body)
			assert.Equal(t, tt.status, status)
			msg, _ := body["error"].(string)
			assert.True(t, strings.HasPrefix(msg, tt.error), "got %q", msg)
		})
	}
}

func TestUnknownRouteKeepsErrorShape(t *testing.T) {
	status, body := do(t, newTestServer(t, nil, nil), http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body, "error")
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	s := newTestServer(t, stump(), nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://example.github.io")
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

// TestEndToEnd trains from a CSV on first start, persists the artifact and
// serves the example request.
func TestEndToEnd(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeDataset(t, dir)

	ds, err := dataset.Load(csvPath, schema.Default.Label, schema.Default)
	require.NoError(t, err)

	hp := training.DefaultHyperParams()
	hp.TreeCount = 200
	hp.L1Regularization = 0
	hp.RowSubsample = 1
	hp.ColumnSubsample = 1

	store := modelstore.NewStore(filepath.Join(dir, "xgb_model.json"), schema.Default)
	model, trained, err := store.LoadOrTrain(context.Background(), func(ctx context.Context) (*ensemble.Model, error) {
		return training.TrainProduction(ctx, ds, hp)
	})
	require.NoError(t, err)
	require.True(t, trained)
	assert.FileExists(t, store.Path())

	s := newTestServer(t, model, repository.NewMemoryLog())
	status, body := do(t, s, http.MethodPost, "/predict", exampleBody)
	require.Equal(t, http.StatusOK, status, body)
	assert.InDelta(t, 0.625, body["prediction"].(float64), 0.02)

	reloaded, err := store.Load()
	require.NoError(t, err)
	again := newTestServer(t, reloaded, nil)
	_, body2 := do(t, again, http.MethodPost, "/predict", exampleBody)
	assert.Equal(t, body["prediction"], body2["prediction"])
	s.handler.WaitAudits()
}
