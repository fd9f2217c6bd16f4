package errors

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "Persist",
			kind:    "encode failed",
			err:     fmt.Errorf("disk full"),
			wantMsg: "antiox: Persist: encode failed: disk full",
		},
		{
			name:    "without original error",
			op:      "Load",
			kind:    "corrupt artifact",
			err:     nil,
			wantMsg: "antiox: Load: corrupt artifact",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			formatted := fmt.Sprintf("%+v", err)
			if !strings.Contains(formatted, "errors_test.go") {
				t.Error("Expected stack trace to contain test file name")
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestDatasetNotFoundError(t *testing.T) {
	err := NewDatasetNotFoundError("data.csv", os.ErrNotExist)

	var notFound *DatasetNotFoundError
	require.True(t, As(err, &notFound))
	assert.Equal(t, "data.csv", notFound.Path)
	assert.True(t, Is(err, os.ErrNotExist), "cause should stay reachable")
	assert.Contains(t, err.Error(), "dataset not found at data.csv")
}

func TestSchemaErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "missing columns",
			err:  NewMissingColumnsError("train.csv", []string{"Anti-oxidation", "Brix"}),
			want: "antiox: schema mismatch in train.csv: missing columns [Anti-oxidation, Brix]",
		},
		{
			name: "bad cell",
			err:  NewCellError("train.csv", 3, "R", `cannot parse "abc" as a number`),
			want: `antiox: schema mismatch in train.csv: row 3, column "R": cannot parse "abc" as a number`,
		},
		{
			name: "general",
			err:  NewSchemaError("artifact", "feature order differs"),
			want: "antiox: schema mismatch in artifact: feature order differs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			var schemaErr *SchemaError
			assert.True(t, As(tt.err, &schemaErr))
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 5, 4, 1)

	want := "antiox: Predict: dimension mismatch on axis 1 (features). Expected 5, got 4"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Error("Error should be castable to *DimensionError")
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("GradientBoostingRegressor", "Predict")

	want := "antiox: GradientBoostingRegressor: this model is not fitted yet. Call Fit() before using Predict()"
	assert.Equal(t, want, err.Error())

	var notFittedErr *NotFittedError
	assert.True(t, As(err, &notFittedErr))
}

func TestValidationAndUnavailableErrors(t *testing.T) {
	err := NewValidationError("learning_rate", "must be in (0, 1]", 1.5)
	assert.Equal(t, "antiox: validation failed for parameter 'learning_rate': must be in (0, 1] (got: 1.5)", err.Error())

	unavailable := NewServiceUnavailableError("model not loaded")
	var su *ServiceUnavailableError
	require.True(t, As(unavailable, &su))
	assert.Equal(t, "model not loaded", su.Reason)
}

func TestWrapfKeepsSentinel(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s: %d rows", "Load", 0)

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}
	if !strings.Contains(wrapped.Error(), "in Load: 0 rows") {
		t.Errorf("unexpected message %q", wrapped.Error())
	}
}

func TestCheckNumericalStability(t *testing.T) {
	assert.NoError(t, CheckNumericalStability("ok", []float64{1, 2, 3}, 0))
	assert.Error(t, CheckScalar("nan", nanValue(), 4))

	var instab *NumericalInstabilityError
	err := CheckNumericalStability("grad", []float64{1, nanValue()}, 7)
	require.True(t, As(err, &instab))
	assert.Equal(t, 7, instab.Iteration)
}

func TestSoftThreshold(t *testing.T) {
	tests := []struct {
		value, alpha, want float64
	}{
		{5, 2, 3},
		{-5, 2, -3},
		{1.5, 2, 0},
		{-2, 2, 0},
		{3, 0, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SoftThreshold(tt.value, tt.alpha), "SoftThreshold(%v, %v)", tt.value, tt.alpha)
	}
}

func TestWarnRoutesToZerologFunc(t *testing.T) {
	var got []error
	SetZerologWarnFunc(func(w error) { got = append(got, w) })
	defer SetZerologWarnFunc(nil)

	Warn(NewDataConversionWarning("string", "float64", "numeric string in request"))

	require.Len(t, got, 1)
	assert.Contains(t, got[0].Error(), "data converted from string to float64")
}

func nanValue() float64 {
	zero := 0.0
	return zero / zero
}
