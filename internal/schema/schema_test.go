package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSchema(t *testing.T) {
	assert.NoError(t, Default.Validate())
	assert.Equal(t, 5, Default.NumFeatures())
	assert.Equal(t, []string{"R", "G", "B", "Brix", "Hardness"}, Default.Columns())
	assert.Equal(t, []string{"r", "g", "b", "brix", "hardness"}, Default.JSONKeys())
	assert.Equal(t, "Anti-oxidation", Default.Label)
	assert.True(t, Default.MatchesColumns([]string{"R", "G", "B", "Brix", "Hardness"}))
	assert.False(t, Default.MatchesColumns([]string{"G", "R", "B", "Brix", "Hardness"}))
}

func TestSchemaValidate(t *testing.T) {
	assert.Error(t, Default.WithLabel("R").Validate(), "label must not be a feature")
	assert.Error(t, Default.WithLabel("").Validate())

	dup := Default.WithLabel("y")
	dup.Features = append(dup.Features, dup.Features[0])
	assert.Error(t, dup.Validate())

	// WithLabel must not alias the shared default
	custom := Default.WithLabel("score")
	custom.Features[0].Column = "Red"
	assert.Equal(t, "R", Default.Features[0].Column)
}

func TestRecordMap(t *testing.T) {
	m := Default.Map(Record{200, 150, 100, 12.5, 8.3})
	assert.Equal(t, map[string]float64{"r": 200, "g": 150, "b": 100, "brix": 12.5, "hardness": 8.3}, m)
}
