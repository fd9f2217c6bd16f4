// Package modelstore persists the fitted regressor as a single JSON
// artifact and holds the process-wide model handle.
package modelstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/antiox/internal/schema"
	"github.com/YuminosukeSato/antiox/sklearn/ensemble"
	scierrors "github.com/YuminosukeSato/antiox/pkg/errors"
	"github.com/YuminosukeSato/antiox/pkg/log"
)

// DefaultArtifactPath is where the service looks for a fitted model.
const DefaultArtifactPath = "xgb_model.json"

// FormatVersion is written into every artifact; Load rejects others.
const FormatVersion = 1

// artifact is the on-disk envelope around the serialised model.
type artifact struct {
	FormatVersion int                 `json:"format_version"`
	ModelID       uuid.UUID           `json:"model_id"`
	CreatedAt     time.Time           `json:"created_at"`
	Model         *ensemble.JSONModel `json:"model"`
}

// Metadata describes a persisted artifact.
type Metadata struct {
	ModelID   uuid.UUID
	CreatedAt time.Time
	Path      string
}

// TrainFunc fits a production model. LoadOrTrain calls it only when no
// artifact exists.
type TrainFunc func(ctx context.Context) (*ensemble.Model, error)

// Store reads and writes the artifact at one path.
type Store struct {
	path   string
	schema schema.Schema
	logger log.Logger
}

// NewStore returns a store for path, checking feature names against sch.
// An empty path falls back to DefaultArtifactPath.
func NewStore(path string, sch schema.Schema) *Store {
	if path == "" {
		path = DefaultArtifactPath
	}
	return &Store{
		path:   path,
		schema: sch,
		logger: log.GetLoggerWithName("modelstore").With(log.ModelPathKey, path),
	}
}

// Path returns the artifact location.
func (s *Store) Path() string { return s.path }

// Persist writes model to a temporary file in the artifact directory and
// renames it into place, so readers never see a partial artifact.
func (s *Store) Persist(model *ensemble.Model) (*Metadata, error) {
	if model == nil {
		return nil, scierrors.NewModelError("Store.Persist", "nil model", nil)
	}
	if !s.schema.MatchesColumns(model.FeatureNames) {
		return nil, scierrors.NewMissingColumnsError(s.path, missingNames(s.schema.Columns(), model.FeatureNames))
	}

	meta := &Metadata{ModelID: uuid.New(), CreatedAt: time.Now().UTC(), Path: s.path}
	art := artifact{
		FormatVersion: FormatVersion,
		ModelID:       meta.ModelID,
		CreatedAt:     meta.CreatedAt,
		Model:         model.ToJSONModel(),
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".model-*.json")
	if err != nil {
		return nil, scierrors.NewModelError("Store.Persist", "create temp file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&art); err != nil {
		tmp.Close()
		return nil, scierrors.NewModelError("Store.Persist", "encode artifact", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, scierrors.NewModelError("Store.Persist", "close temp file", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return nil, scierrors.NewModelError("Store.Persist", "rename artifact", err)
	}

	s.logger.Info("Model persisted",
		log.OperationKey, log.OperationPersist,
		log.ModelIDKey, meta.ModelID.String(),
		log.TreesKey, model.NumTrees())
	return meta, nil
}

// Load reads the artifact. A missing file yields an error wrapping
// os.ErrNotExist.
func (s *Store) Load() (*ensemble.Model, error) {
	model, _, err := s.LoadWithMetadata()
	return model, err
}

// LoadWithMetadata is Load plus the artifact's id and creation time.
func (s *Store) LoadWithMetadata() (*ensemble.Model, *Metadata, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, nil, scierrors.Wrapf(err, "open model artifact %s", s.path)
	}
	defer f.Close()

	var art artifact
	if err := json.NewDecoder(f).Decode(&art); err != nil {
		return nil, nil, scierrors.NewModelError("Store.Load", "failed to parse artifact", err)
	}
	if art.FormatVersion != FormatVersion {
		return nil, nil, scierrors.NewModelError("Store.Load", "unsupported format version",
			scierrors.Newf("got %d, want %d", art.FormatVersion, FormatVersion))
	}
	if art.Model == nil {
		return nil, nil, scierrors.NewModelError("Store.Load", "artifact has no model", nil)
	}
	model, err := ensemble.FromJSONModel(art.Model)
	if err != nil {
		return nil, nil, err
	}
	if !s.schema.MatchesColumns(model.FeatureNames) {
		return nil, nil, scierrors.NewMissingColumnsError(s.path, missingNames(s.schema.Columns(), model.FeatureNames))
	}

	meta := &Metadata{ModelID: art.ModelID, CreatedAt: art.CreatedAt, Path: s.path}
	s.logger.Info("Model loaded",
		log.OperationKey, log.OperationLoad,
		log.ModelIDKey, meta.ModelID.String(),
		log.TreesKey, model.NumTrees())
	return model, meta, nil
}

// LoadOrTrain loads the artifact when one exists. Otherwise it calls train
// and persists the result before returning. trained reports whether train
// ran. An artifact that exists but cannot be read is an error; it is never
// silently replaced.
func (s *Store) LoadOrTrain(ctx context.Context, train TrainFunc) (model *ensemble.Model, trained bool, err error) {
	_, statErr := os.Stat(s.path)
	switch {
	case statErr == nil:
		model, err = s.Load()
		return model, false, err
	case !os.IsNotExist(statErr):
		return nil, false, scierrors.Wrapf(statErr, "stat model artifact %s", s.path)
	}

	s.logger.Info("No model artifact found, training",
		log.PhaseKey, log.PhaseStartup)
	model, err = train(ctx)
	if err != nil {
		return nil, true, scierrors.Wrap(err, "train production model")
	}
	if _, err := s.Persist(model); err != nil {
		return nil, true, err
	}
	return model, true, nil
}

// missingNames lists the entries of want absent from got. When every name
// is present but the order differs, want itself is reported.
func missingNames(want, got []string) []string {
	have := make(map[string]bool, len(got))
	for _, n := range got {
		have[n] = true
	}
	var missing []string
	for _, n := range want {
		if !have[n] {
			missing = append(missing, n)
		}
	}
	if len(missing) == 0 {
		return want
	}
	return missing
}
