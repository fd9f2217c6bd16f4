// Package schema defines the feature contract shared by the dataset
// loader, the model store and the prediction service.
package schema

import (
	"fmt"
	"slices"

	scierrors "github.com/YuminosukeSato/antiox/pkg/errors"
)

// Feature names one model input column.
type Feature struct {
	Column  string // column header in the training CSV
	JSONKey string // key in prediction requests and responses
	// Colour channels are bounded to [Min, Max]; others are unbounded.
	Bounded  bool
	Min, Max float64
}

// Schema is the ordered feature list plus the label column.
type Schema struct {
	Features []Feature
	Label    string
}

// Default is the anti-oxidation model schema. Column order is the order
// of the model's feature matrix.
var Default = Schema{
	Features: []Feature{
		{Column: "R", JSONKey: "r", Bounded: true, Min: 0, Max: 255},
		{Column: "G", JSONKey: "g", Bounded: true, Min: 0, Max: 255},
		{Column: "B", JSONKey: "b", Bounded: true, Min: 0, Max: 255},
		{Column: "Brix", JSONKey: "brix"},
		{Column: "Hardness", JSONKey: "hardness"},
	},
	Label: "Anti-oxidation",
}

// NumFeatures returns the width of the feature matrix.
func (s Schema) NumFeatures() int {
	return len(s.Features)
}

// Columns returns the CSV column names in model order.
func (s Schema) Columns() []string {
	out := make([]string, len(s.Features))
	for i, f := range s.Features {
		out[i] = f.Column
	}
	return out
}

// JSONKeys returns the request keys in model order.
func (s Schema) JSONKeys() []string {
	out := make([]string, len(s.Features))
	for i, f := range s.Features {
		out[i] = f.JSONKey
	}
	return out
}

// WithLabel returns a copy of s using a different label column.
func (s Schema) WithLabel(label string) Schema {
	s.Features = slices.Clone(s.Features)
	s.Label = label
	return s
}

// Validate reports a schema whose label doubles as a feature, or whose
// columns or keys repeat.
func (s Schema) Validate() error {
	if len(s.Features) == 0 {
		return scierrors.NewSchemaError("schema", "no features")
	}
	if s.Label == "" {
		return scierrors.NewSchemaError("schema", "no label column")
	}
	columns := make(map[string]bool, len(s.Features))
	keys := make(map[string]bool, len(s.Features))
	for _, f := range s.Features {
		if f.Column == s.Label {
			return scierrors.NewSchemaError("schema", fmt.Sprintf("label column %q is also a feature", s.Label))
		}
		if columns[f.Column] || keys[f.JSONKey] {
			return scierrors.NewSchemaError("schema", fmt.Sprintf("duplicate feature %q", f.Column))
		}
		columns[f.Column], keys[f.JSONKey] = true, true
	}
	return nil
}

// MatchesColumns reports whether names equals the schema columns in order.
func (s Schema) MatchesColumns(names []string) bool {
	return slices.Equal(s.Columns(), names)
}

// Record is one validated feature record, values in schema order.
type Record []float64

// Map returns the record keyed by JSON key, as echoed in responses.
func (s Schema) Map(r Record) map[string]float64 {
	out := make(map[string]float64, len(s.Features))
	for i, f := range s.Features {
		if i < len(r) {
			out[f.JSONKey] = r[i]
		}
	}
	return out
}
