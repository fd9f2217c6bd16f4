package modelstore

import (
	"sync/atomic"

	"github.com/YuminosukeSato/antiox/sklearn/ensemble"
	scierrors "github.com/YuminosukeSato/antiox/pkg/errors"
)

// Handle holds the model shared by request handlers. It is set at most
// once, before serving starts; readers never block.
type Handle struct {
	model atomic.Pointer[ensemble.Model]
}

// NewHandle returns an empty handle.
func NewHandle() *Handle {
	return &Handle{}
}

// Set stores m. A second Set, or a nil model, is an error.
func (h *Handle) Set(m *ensemble.Model) error {
	if m == nil {
		return scierrors.NewModelError("Handle.Set", "nil model", nil)
	}
	if !h.model.CompareAndSwap(nil, m) {
		return scierrors.New("model handle already set")
	}
	return nil
}

// Model returns the stored model and whether one is set.
func (h *Handle) Model() (*ensemble.Model, bool) {
	m := h.model.Load()
	return m, m != nil
}

// Ready reports whether a model is set.
func (h *Handle) Ready() bool {
	return h.model.Load() != nil
}
