package model

import "testing"

func TestBaseEstimatorLifecycle(t *testing.T) {
	var e BaseEstimator

	if e.IsFitted() {
		t.Fatal("zero value must be NotFitted")
	}
	if e.State().String() != "not_fitted" {
		t.Errorf("State() = %v", e.State())
	}

	e.SetFitted()
	if !e.IsFitted() || e.State() != Fitted {
		t.Error("SetFitted should mark the estimator fitted")
	}

	e.Reset()
	if e.IsFitted() {
		t.Error("Reset should return to NotFitted")
	}
}
