// Package dataset reads the training table and separates features from
// the label according to a schema.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/antiox/internal/schema"
	scierrors "github.com/YuminosukeSato/antiox/pkg/errors"
	"github.com/YuminosukeSato/antiox/pkg/log"
)

// Dataset is a feature matrix in schema order with its label vector.
// The label column never appears in X.
type Dataset struct {
	X            *mat.Dense // rows x len(FeatureNames)
	Y            *mat.Dense // rows x 1
	FeatureNames []string
	Label        string
	Source       string
}

// Rows returns the number of samples.
func (d *Dataset) Rows() int {
	r, _ := d.X.Dims()
	return r
}

// Option configures parsing.
type Option func(*options)

type options struct {
	delimiter rune
}

// WithDelimiter sets the field delimiter. The default is a comma.
func WithDelimiter(r rune) Option {
	return func(o *options) { o.delimiter = r }
}

// Load opens path and parses it with Read.
func Load(path, labelColumn string, sch schema.Schema, opts ...Option) (*Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, scierrors.NewDatasetNotFoundError(path, err)
	}
	if info.IsDir() {
		return nil, scierrors.NewDatasetNotFoundError(path, scierrors.Newf("%s is a directory", path))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, scierrors.NewDatasetNotFoundError(path, err)
	}
	defer f.Close()

	return Read(f, path, labelColumn, sch, opts...)
}

// Read parses a delimited table with a header row. Feature columns are
// taken in schema order regardless of their order in the file and extra
// columns are ignored. Every cell of a used column must parse as a finite
// number.
func Read(r io.Reader, source, labelColumn string, sch schema.Schema, opts ...Option) (*Dataset, error) {
	o := options{delimiter: ','}
	for _, opt := range opts {
		opt(&o)
	}
	sch = sch.WithLabel(labelColumn)
	if err := sch.Validate(); err != nil {
		return nil, err
	}
	logger := log.GetLoggerWithName("dataset").With(log.DatasetKey, source)

	reader := csv.NewReader(r)
	reader.Comma = o.delimiter
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, scierrors.Wrapf(scierrors.ErrEmptyData, "dataset %s has no header", source)
	}
	if err != nil {
		return nil, scierrors.NewSchemaError(source, fmt.Sprintf("unreadable header: %v", err))
	}

	position := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := position[name]; dup {
			return nil, scierrors.NewSchemaError(source, fmt.Sprintf("duplicate column %q", name))
		}
		position[name] = i
	}

	columns := append(sch.Columns(), sch.Label)
	var missing []string
	used := make([]int, len(columns))
	for i, name := range columns {
		idx, ok := position[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		used[i] = idx
	}
	if len(missing) > 0 {
		return nil, scierrors.NewMissingColumnsError(source, missing)
	}
	if extra := len(header) - len(columns); extra > 0 {
		logger.Debug("Ignoring non-schema columns", "count", extra)
	}

	nFeatures := sch.NumFeatures()
	var xData, yData []float64
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, scierrors.NewCellError(source, row, "", err.Error())
		}
		for i, idx := range used {
			value, err := parseCell(record[idx])
			if err != nil {
				return nil, scierrors.NewCellError(source, row, columns[i], err.Error())
			}
			if i < nFeatures {
				xData = append(xData, value)
			} else {
				yData = append(yData, value)
			}
		}
	}
	if row == 0 {
		return nil, scierrors.Wrapf(scierrors.ErrEmptyData, "dataset %s has no rows", source)
	}

	logger.Info("Dataset loaded", log.SamplesKey, row, log.FeaturesKey, nFeatures)
	return &Dataset{
		X:            mat.NewDense(row, nFeatures, xData),
		Y:            mat.NewDense(row, 1, yData),
		FeatureNames: sch.Columns(),
		Label:        sch.Label,
		Source:       source,
	}, nil
}

func parseCell(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0, fmt.Errorf("empty cell")
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot parse %q as a number", cell)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", cell)
	}
	return v, nil
}
