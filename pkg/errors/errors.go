// Package errors provides the error taxonomy and warning system for
// autoemulate. Structural failures (unfitted state, dimension mismatch, fit
// divergence) are structured error types carrying stack traces via
// cockroachdb/errors; recoverable numerical conditions (covariance repair,
// ill-defined metrics) are emitted as warnings through a process-wide handler
// instead of failing the computation.
package errors

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Global warning handling
//
// ===========================================================================

var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("autoemulate-warning: %v\n", w)
	}
	// zerolog sink, injected by pkg/log to avoid a circular import
	zerologWarnFunc func(warning error)
)

// SetWarningHandler replaces the process-wide warning handler. Warnings are
// non-fatal numerical conditions (e.g. a repaired covariance); set a no-op
// handler to silence them.
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc wires the zerolog-backed sink (set by pkg/log).
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn emits a warning. The zerolog sink takes precedence when configured;
// otherwise the plain handler runs.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}
	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	Warning types (recoverable, non-fatal)
//
// ===========================================================================

// CovarianceWarning reports that a predictive covariance matrix was not
// positive semi-definite and was repaired by symmetrization plus diagonal
// jitter. The computation continues with the repaired matrix.
type CovarianceWarning struct {
	Op       string  // where the repair happened, e.g. "Gaussian.Repair"
	Jitter   float64 // diagonal jitter that restored positive-definiteness
	Attempts int     // jitter escalation attempts used
}

func (w *CovarianceWarning) Error() string {
	return fmt.Sprintf("%s: covariance repaired with jitter %.3g after %d attempt(s)",
		w.Op, w.Jitter, w.Attempts)
}

// MarshalZerologObject adds the structured warning fields to a zerolog event.
func (w *CovarianceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("operation", w.Op).
		Float64("jitter", w.Jitter).
		Int("attempts", w.Attempts).
		Str("type", "CovarianceWarning")
}

// NewCovarianceWarning creates a new CovarianceWarning.
func NewCovarianceWarning(op string, jitter float64, attempts int) *CovarianceWarning {
	return &CovarianceWarning{Op: op, Jitter: jitter, Attempts: attempts}
}

// UndefinedMetricWarning reports a metric that is ill-defined for the given
// inputs, e.g. R² when the targets have zero variance. The metric returns
// Result instead of failing.
type UndefinedMetricWarning struct {
	Metric    string
	Condition string
	Result    float64
}

func (w *UndefinedMetricWarning) Error() string {
	return fmt.Sprintf("'%s' is ill-defined and being set to %g due to %s", w.Metric, w.Result, w.Condition)
}

// MarshalZerologObject adds the structured warning fields to a zerolog event.
func (w *UndefinedMetricWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("metric", w.Metric).
		Str("condition", w.Condition).
		Float64("result", w.Result).
		Str("type", "UndefinedMetricWarning")
}

// NewUndefinedMetricWarning creates a new UndefinedMetricWarning.
func NewUndefinedMetricWarning(metric, condition string, result float64) *UndefinedMetricWarning {
	return &UndefinedMetricWarning{Metric: metric, Condition: condition, Result: result}
}

// ===========================================================================
//
//	Structured error types
//
// ===========================================================================

// NotFittedError indicates Forward/Inverse/Predict was called on a transform
// or emulator before Fit.
type NotFittedError struct {
	Name   string // transform or model name
	Method string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("autoemulate: %s: not fitted yet. Call Fit() before using %s()", e.Name, e.Method)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("name", e.Name).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace attached.
func NewNotFittedError(name, method string) error {
	err := &NotFittedError{Name: name, Method: method}
	return errors.WithStack(err)
}

// DimensionError indicates an input whose shape does not match the fitted or
// expected shape.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows/samples, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("autoemulate: %s: dimension mismatch on axis %d (%s). Expected %d, got %d",
		e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace attached.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValidationError indicates an invalid configuration parameter.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("autoemulate: validation failed for parameter '%s': %s (got: %v)",
		e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError creates a ValidationError with a stack trace attached.
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ValueError indicates an argument whose value (not shape) is unusable,
// e.g. an empty matrix or a negative sample count.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("autoemulate: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace attached.
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ModelFitError indicates that fitting an underlying emulator model diverged
// or threw. It carries the offending model name and configuration so failed
// trials remain diagnosable in the comparison report.
type ModelFitError struct {
	Model  string
	Config map[string]interface{}
	Err    error
}

func (e *ModelFitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("autoemulate: fit failed for %s (config %v): %v", e.Model, e.Config, e.Err)
	}
	return fmt.Sprintf("autoemulate: fit failed for %s (config %v)", e.Model, e.Config)
}

func (e *ModelFitError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *ModelFitError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model", e.Model).
		Interface("config", e.Config).
		Str("type", "ModelFitError")
	if e.Err != nil {
		event.Str("cause", e.Err.Error())
	}
}

// NewModelFitError creates a ModelFitError with a stack trace attached.
func NewModelFitError(model string, config map[string]interface{}, err error) error {
	fitErr := &ModelFitError{Model: model, Config: config, Err: err}
	return errors.WithStack(fitErr)
}

// EmptyResultsError indicates BestResult/Save was called on a comparison
// session with no successful trial.
type EmptyResultsError struct {
	Op string
}

func (e *EmptyResultsError) Error() string {
	return fmt.Sprintf("autoemulate: %s: no successful trials. Run Compare() first or check the failure report", e.Op)
}

// NewEmptyResultsError creates an EmptyResultsError with a stack trace attached.
func NewEmptyResultsError(op string) error {
	err := &EmptyResultsError{Op: op}
	return errors.WithStack(err)
}

// TrialTimeoutError indicates a single trial exceeded its time budget. The
// trial is recorded as failed; the session continues.
type TrialTimeoutError struct {
	TrialID string
	Limit   time.Duration
}

func (e *TrialTimeoutError) Error() string {
	return fmt.Sprintf("autoemulate: trial %s timed out after %s", e.TrialID, e.Limit)
}

// NewTrialTimeoutError creates a TrialTimeoutError with a stack trace attached.
func NewTrialTimeoutError(trialID string, limit time.Duration) error {
	err := &TrialTimeoutError{TrialID: trialID, Limit: limit}
	return errors.WithStack(err)
}

// TrialCancelledError indicates the comparison was cancelled before the trial
// completed.
type TrialCancelledError struct {
	TrialID string
}

func (e *TrialCancelledError) Error() string {
	return fmt.Sprintf("autoemulate: trial %s cancelled", e.TrialID)
}

// NewTrialCancelledError creates a TrialCancelledError with a stack trace attached.
func NewTrialCancelledError(trialID string) error {
	err := &TrialCancelledError{TrialID: trialID}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain matching target's type.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates an error with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// Join combines multiple errors into one.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// ===========================================================================
//
//	Common error variables
//
// ===========================================================================

var (
	// ErrEmptyData indicates empty input data.
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix indicates a singular matrix.
	ErrSingularMatrix = New("singular matrix")
)
