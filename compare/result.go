package compare

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/LevanBokeria/autoemulate/emulators"
	"github.com/LevanBokeria/autoemulate/metrics"
	"github.com/LevanBokeria/autoemulate/transforms"
)

// TrialStatus classifies the outcome of one trial.
type TrialStatus int

const (
	// TrialOK means the trial fitted and scored successfully.
	TrialOK TrialStatus = iota
	// TrialFailed means fit or scoring returned an error.
	TrialFailed
	// TrialTimeout means the trial exceeded the per-trial time limit.
	TrialTimeout
	// TrialCancelled means the comparison was cancelled before the trial ran
	// to completion.
	TrialCancelled
)

// String returns the string representation of the status.
func (s TrialStatus) String() string {
	switch s {
	case TrialOK:
		return "ok"
	case TrialFailed:
		return "failed"
	case TrialTimeout:
		return "timeout"
	case TrialCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// TrialResult is one evaluated (model, x-chain, y-chain, configuration)
// combination. Immutable once scored. Representative results additionally
// carry the emulator refitted on the full training split.
type TrialResult struct {
	// ID uniquely identifies the trial.
	ID string

	// Model is the registered emulator name.
	Model string

	// XChain and YChain describe the transform chains, e.g. "standardize,pca".
	XChain string
	YChain string

	// XSpecs and YSpecs reconstruct the unfitted chains.
	XSpecs []transforms.Spec
	YSpecs []transforms.Spec

	// Config is the sampled hyperparameter configuration.
	Config emulators.Config

	// CVScore is the mean cross-validated primary score of this
	// configuration on the training split.
	CVScore float64

	// TrainScore and TestScore are the primary scores of the refitted
	// representative on the training and held-out splits. Zero for plain
	// trials that were not selected as representatives.
	TrainScore float64
	TestScore  float64

	// SecondaryScore is the secondary metric on the held-out split, used to
	// break ranking ties.
	SecondaryScore float64

	// Status and Err record the outcome; Err is nil for TrialOK.
	Status TrialStatus
	Err    error

	// Emulator is the refitted model, set only on representative results.
	Emulator *emulators.TransformedEmulator

	// Seed is the trial's derived random seed.
	Seed uint64

	// Duration is the wall-clock time of fit plus scoring.
	Duration time.Duration
}

// newTrialID returns a fresh unique trial identifier.
func newTrialID() string { return uuid.NewString() }

// Combination names a candidate (model, x-chain, y-chain) triple prior to
// hyperparameter search. Chains are held as specs so every trial constructs
// its own unfitted instances; no two trials share fitted state.
type Combination struct {
	Model  string
	XSpecs []transforms.Spec
	YSpecs []transforms.Spec
}

// Describe returns "model[x=...,y=...]" for logs and error messages.
func (c Combination) Describe() string {
	return c.Model + "[x=" + describeSpecs(c.XSpecs) + " y=" + describeSpecs(c.YSpecs) + "]"
}

func describeSpecs(specs []transforms.Spec) string {
	if len(specs) == 0 {
		return "none"
	}
	s := specs[0].Name
	for _, spec := range specs[1:] {
		s += "," + spec.Name
	}
	return s
}

// Rank orders representative results best-first by the primary test score,
// breaking ties with the secondary score. Both metric directions are
// honored. The sort is stable so equal results keep enumeration order.
func Rank(results []*TrialResult, primary, secondary metrics.Metric) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.TestScore != b.TestScore {
			return primary.Better(a.TestScore, b.TestScore)
		}
		return secondary.Better(a.SecondaryScore, b.SecondaryScore)
	})
}
