// Package prediction validates raw feature records and runs them through
// the loaded model.
package prediction

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/antiox/internal/modelstore"
	"github.com/YuminosukeSato/antiox/internal/schema"
	scierrors "github.com/YuminosukeSato/antiox/pkg/errors"
	"github.com/YuminosukeSato/antiox/pkg/log"
)

// Kind classifies a failed prediction.
type Kind int

const (
	// KindValidation means the request itself was bad.
	KindValidation Kind = iota + 1
	// KindUnavailable means no model is loaded.
	KindUnavailable
	// KindInternal means inference failed on a valid request.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnavailable:
		return "unavailable"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Messages returned to clients.
const (
	MsgMissingFields  = "Missing required fields: "
	MsgInvalidFormat  = "Invalid input format: "
	MsgRGBRange       = "RGB values must be between 0 and 255"
	MsgModelNotLoaded = "Model not loaded. Please check server logs."
	MsgPredictFailed  = "Prediction failed: "
)

// Failure is a client-safe description of why Predict failed. Err carries
// the underlying cause for logging and is never shown to clients.
type Failure struct {
	Kind    Kind
	Message string
	Missing []string
	Err     error
}

func (f *Failure) Error() string { return f.Message }

// Result is a successful prediction with the record that produced it.
type Result struct {
	Prediction float64
	Input      schema.Record
}

// Service turns raw request maps into predictions. It only reads the
// handle and is safe for concurrent use.
type Service struct {
	handle *modelstore.Handle
	schema schema.Schema
	logger log.Logger
}

// NewService returns a service reading models from h.
func NewService(h *modelstore.Handle, sch schema.Schema) *Service {
	return &Service{
		handle: h,
		schema: sch,
		logger: log.GetLoggerWithName("prediction"),
	}
}

// Predict validates raw and runs inference. Checks run in order: presence,
// type, range, then readiness, so a bad request is rejected even while no
// model is loaded.
func (s *Service) Predict(raw map[string]any) (Result, *Failure) {
	if missing := s.missing(raw); len(missing) > 0 {
		return Result{}, &Failure{
			Kind:    KindValidation,
			Message: MsgMissingFields + strings.Join(missing, ", "),
			Missing: missing,
		}
	}

	record := make(schema.Record, len(s.schema.Features))
	for i, f := range s.schema.Features {
		v, err := toFloat(f.JSONKey, raw[f.JSONKey])
		if err != nil {
			return Result{}, &Failure{Kind: KindValidation, Message: MsgInvalidFormat + err.Error(), Err: err}
		}
		record[i] = v
	}

	for i, f := range s.schema.Features {
		if f.Bounded && (record[i] < f.Min || record[i] > f.Max) {
			return Result{}, &Failure{Kind: KindValidation, Message: MsgRGBRange}
		}
	}

	row := mat.NewDense(1, len(record), record)

	model, ok := s.handle.Model()
	if !ok {
		return Result{}, &Failure{
			Kind:    KindUnavailable,
			Message: MsgModelNotLoaded,
			Err:     scierrors.NewServiceUnavailableError("model handle is empty"),
		}
	}

	var pred float64
	err := scierrors.SafeExecute("prediction.infer", func() error {
		out, err := model.Predict(row)
		if err != nil {
			return err
		}
		pred = out.At(0, 0)
		return scierrors.CheckScalar("prediction.infer", pred, 0)
	})
	if err != nil {
		s.logger.Error("Inference failed", err,
			log.OperationKey, log.OperationPredict,
			log.ErrorCodeKey, log.ErrorInference)
		return Result{}, &Failure{Kind: KindInternal, Message: MsgPredictFailed + err.Error(), Err: err}
	}

	s.logger.Debug("Prediction completed",
		log.OperationKey, log.OperationPredict,
		log.PredictionKey, pred)
	return Result{Prediction: pred, Input: record}, nil
}

// missing lists absent keys in schema order.
func (s *Service) missing(raw map[string]any) []string {
	var out []string
	for _, f := range s.schema.Features {
		if _, ok := raw[f.JSONKey]; !ok {
			out = append(out, f.JSONKey)
		}
	}
	return out
}

// toFloat accepts JSON numbers and numeric strings. The result is finite.
func toFloat(key string, v any) (float64, error) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		p, err := x.Float64()
		if err != nil {
			return 0, scierrors.Newf("field '%s' is not a number: %q", key, x.String())
		}
		f = p
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, scierrors.Newf("field '%s' could not convert string to float: %q", key, x)
		}
		scierrors.Warn(scierrors.NewDataConversionWarning("string", "float64", "field "+key))
		f = p
	case nil:
		return 0, scierrors.Newf("field '%s' is null", key)
	default:
		return 0, scierrors.Newf("field '%s' must be a number, got %T", key, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, scierrors.Newf("field '%s' must be finite", key)
	}
	return f, nil
}
