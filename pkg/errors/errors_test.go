package errors

import (
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"gonum.org/v1/gonum/mat"
)

func TestNotFittedError(t *testing.T) {
	err := NewNotFittedError("StandardizeTransform", "Forward")

	var nfe *NotFittedError
	if !As(err, &nfe) {
		t.Fatalf("expected NotFittedError, got %T", err)
	}
	if nfe.Name != "StandardizeTransform" || nfe.Method != "Forward" {
		t.Errorf("unexpected fields: %+v", nfe)
	}
	if !strings.Contains(err.Error(), "not fitted") {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestModelFitErrorUnwrap(t *testing.T) {
	cause := New("cholesky failed")
	err := NewModelFitError("GaussianProcess", map[string]interface{}{"lengthscale": 0.1}, cause)

	var mfe *ModelFitError
	if !As(err, &mfe) {
		t.Fatalf("expected ModelFitError, got %T", err)
	}
	if mfe.Model != "GaussianProcess" {
		t.Errorf("model = %s", mfe.Model)
	}
	if !Is(err, cause) {
		t.Error("expected cause to be reachable via Is")
	}
}

func TestTrialErrors(t *testing.T) {
	timeout := NewTrialTimeoutError("trial-7", 30*time.Second)
	var tte *TrialTimeoutError
	if !As(timeout, &tte) {
		t.Fatalf("expected TrialTimeoutError, got %T", timeout)
	}
	if tte.Limit != 30*time.Second {
		t.Errorf("limit = %v", tte.Limit)
	}

	cancelled := NewTrialCancelledError("trial-8")
	var tce *TrialCancelledError
	if !As(cancelled, &tce) {
		t.Fatalf("expected TrialCancelledError, got %T", cancelled)
	}
}

func TestWarningHandler(t *testing.T) {
	var mu sync.Mutex
	var captured []error

	old := warningHandler
	SetWarningHandler(func(w error) {
		mu.Lock()
		captured = append(captured, w)
		mu.Unlock()
	})
	defer SetWarningHandler(old)

	w := NewCovarianceWarning("Gaussian.Repair", 1e-8, 3)
	Warn(w)

	mu.Lock()
	defer mu.Unlock()
	if len(captured) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(captured))
	}
	var cw *CovarianceWarning
	if !As(captured[0], &cw) {
		t.Fatalf("expected CovarianceWarning, got %T", captured[0])
	}
	if cw.Jitter != 1e-8 || cw.Attempts != 3 {
		t.Errorf("unexpected fields: %+v", cw)
	}
}

func TestEmptyResultsError(t *testing.T) {
	err := NewEmptyResultsError("BestResult")
	var ere *EmptyResultsError
	if !As(err, &ere) {
		t.Fatalf("expected EmptyResultsError, got %T", err)
	}
}

func TestNumericalChecks(t *testing.T) {
	if err := CheckScalar("score", 0.95); err != nil {
		t.Errorf("unexpected error for finite scalar: %v", err)
	}
	if err := CheckScalar("score", math.NaN()); err == nil {
		t.Error("expected error for NaN scalar")
	}
	if err := CheckNumericalStability("weights", []float64{1, 2, 3}); err != nil {
		t.Errorf("unexpected error for finite slice: %v", err)
	}
	if err := CheckNumericalStability("weights", []float64{1, math.Inf(1)}); err == nil {
		t.Error("expected error for Inf in slice")
	}

	m := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	if err := CheckMatrix("x", m, 2, 2); err != nil {
		t.Errorf("unexpected error for finite matrix: %v", err)
	}
	m.Set(1, 0, math.NaN())
	if err := CheckMatrix("x", m, 2, 2); err == nil {
		t.Error("expected error for NaN in matrix")
	}
}

func TestRecover(t *testing.T) {
	err := SafeExecute("risky", func() error {
		panic("boom")
	})
	var pe *PanicError
	if !As(err, &pe) {
		t.Fatalf("expected PanicError, got %T (%v)", err, err)
	}
	if pe.Operation != "risky" {
		t.Errorf("operation = %s", pe.Operation)
	}
	if pe.StackTrace == "" {
		t.Error("expected stack trace")
	}
}
