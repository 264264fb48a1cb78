package compare

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/LevanBokeria/autoemulate/emulators"
	"github.com/LevanBokeria/autoemulate/metrics"
	"github.com/LevanBokeria/autoemulate/pkg/errors"
	"github.com/LevanBokeria/autoemulate/pkg/log"
	"github.com/LevanBokeria/autoemulate/transforms"
)

// Options configures a comparison session. Zero values select the documented
// defaults.
type Options struct {
	// PrimaryMetric ranks results (default R²). SecondaryMetric breaks
	// ranking ties (default RMSE).
	PrimaryMetric   metrics.Metric
	SecondaryMetric metrics.Metric

	// NFolds is the cross-validation fold count during tuning (default 5).
	NFolds int

	// TestFraction is the held-out share of the data (default 0.2). The
	// held-out split scores representatives and is never seen during tuning.
	TestFraction float64

	// Seed drives every stochastic step: the data split, fold shuffling,
	// configuration sampling and propagation sampling. Each trial's seed is
	// derived as Seed + global trial index.
	Seed uint64

	// Workers bounds combination-level parallelism (default NumCPU).
	Workers int

	// TrialTimeout limits one trial's fit+score; zero means no limit.
	TrialTimeout time.Duration

	// Tuner searches each combination's space (default random search).
	Tuner Tuner

	// OutputFromSamples switches output-chain uncertainty propagation to
	// sampling mode for every constructed emulator.
	OutputFromSamples bool
}

func (o Options) withDefaults() Options {
	if o.PrimaryMetric.Name == "" {
		o.PrimaryMetric = metrics.R2
	}
	if o.SecondaryMetric.Name == "" {
		o.SecondaryMetric = metrics.RMSEMetric
	}
	if o.NFolds == 0 {
		o.NFolds = 5
	}
	if o.TestFraction == 0 {
		o.TestFraction = 0.2
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.Tuner == nil {
		o.Tuner = RandomSearchTuner{}
	}
	return o
}

// DefaultChains returns the default transform-chain candidates for one axis:
// the empty chain and a standardization chain.
func DefaultChains() [][]transforms.Spec {
	return [][]transforms.Spec{
		nil,
		{{Name: "standardize"}},
	}
}

// Session owns one comparison: the train/held-out split, the candidate
// combinations, and after Compare the ranked results. The split is made once
// at construction and never mutated by queries.
type Session struct {
	xTrain, yTrain *mat.Dense
	xTest, yTest   *mat.Dense

	combinations []Combination
	spaces       map[string]Space
	folds        []Fold
	opts         Options
	logger       log.Logger

	results []*TrialResult // ranked representatives, set by Compare
	trials  []*TrialResult // every trial including failures
	failed  map[string]error
}

// NewSession splits the data and enumerates the candidate combinations.
// Empty chain lists fall back to DefaultChains. Models must name registered
// emulators.
func NewSession(x, y mat.Matrix, models []string, xChains, yChains [][]transforms.Spec, opts Options) (*Session, error) {
	if len(models) == 0 {
		return nil, errors.NewValidationError("models", "at least one candidate model is required", models)
	}
	opts = opts.withDefaults()
	if len(xChains) == 0 {
		xChains = DefaultChains()
	}
	if len(yChains) == 0 {
		yChains = DefaultChains()
	}

	xTrain, yTrain, xTest, yTest, err := TrainTestSplit(x, y, opts.TestFraction, opts.Seed)
	if err != nil {
		return nil, errors.Wrap(err, "NewSession")
	}

	nTrain, _ := xTrain.Dims()
	folds, err := NewKFold(opts.NFolds, opts.Seed).Split(nTrain)
	if err != nil {
		return nil, errors.Wrap(err, "NewSession")
	}

	var combos []Combination
	spaces := make(map[string]Space, len(models))
	for _, m := range models {
		spaces[m] = DefaultSpace(m)
		for _, xc := range xChains {
			for _, yc := range yChains {
				combos = append(combos, Combination{Model: m, XSpecs: xc, YSpecs: yc})
			}
		}
	}

	return &Session{
		xTrain:       xTrain,
		yTrain:       yTrain,
		xTest:        xTest,
		yTest:        yTest,
		combinations: combos,
		spaces:       spaces,
		folds:        folds,
		opts:         opts,
		logger:       log.GetLoggerWithName("compare"),
		failed:       make(map[string]error),
	}, nil
}

// SetSpace overrides the search space for a model before Compare.
func (s *Session) SetSpace(model string, space Space) error {
	if err := space.Validate(); err != nil {
		return err
	}
	s.spaces[model] = space
	return nil
}

// Combinations returns the enumerated candidate triples.
func (s *Session) Combinations() []Combination { return s.combinations }

type comboOutcome struct {
	index  int
	combo  Combination
	trials []*TrialResult
	rep    *TrialResult
	err    error // set when the combination wholly failed
}

// Compare evaluates every combination with nConfigs tuner trials each,
// refits each combination's best configuration on the full training split,
// and returns the representatives ranked by held-out primary score.
//
// Trial failures are recorded, not raised; a combination is excluded only
// when every one of its trials failed. Compare returns an error only when
// all combinations failed, aggregating the per-combination causes.
// Combinations run on a bounded worker pool; collection and ranking happen
// on the calling goroutine after all workers return.
func (s *Session) Compare(ctx context.Context, nConfigs int) ([]*TrialResult, error) {
	if nConfigs <= 0 {
		return nil, errors.NewValidationError("n_configs", "must be positive", nConfigs)
	}

	n, d := s.xTrain.Dims()
	_, t := s.yTrain.Dims()
	s.logger.Info("comparison started",
		log.SamplesKey, n,
		log.FeaturesKey, d,
		log.TargetsKey, t,
		log.SeedKey, s.opts.Seed,
		"combinations", len(s.combinations),
		"configs_per_combination", nConfigs,
	)

	jobs := make(chan int)
	outcomes := make([]comboOutcome, len(s.combinations))
	var wg sync.WaitGroup

	workers := s.opts.Workers
	if workers > len(s.combinations) {
		workers = len(s.combinations)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				outcomes[idx] = s.runCombination(ctx, idx, nConfigs)
			}
		}()
	}
	for idx := range s.combinations {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	// Single-threaded aggregation: collect trials, track failures, rank
	// representatives.
	s.results = nil
	s.trials = nil
	s.failed = make(map[string]error)
	var reps []*TrialResult
	for _, out := range outcomes {
		s.trials = append(s.trials, out.trials...)
		if out.rep != nil {
			reps = append(reps, out.rep)
			continue
		}
		s.failed[out.combo.Describe()] = out.err
		s.logger.Warn("combination wholly failed",
			log.CombinationKey, out.combo.Describe(),
			log.ErrorKey, out.err,
		)
	}

	if len(reps) == 0 {
		causes := make([]error, 0, len(s.failed))
		for name, cause := range s.failed {
			causes = append(causes, errors.Wrapf(cause, "%s", name))
		}
		return nil, errors.Wrap(errors.Join(causes...), "Compare: every combination failed")
	}

	Rank(reps, s.opts.PrimaryMetric, s.opts.SecondaryMetric)
	s.results = reps
	return s.results, nil
}

// runCombination tunes one combination and refits its best configuration.
// Pure function of (data, combination, seed); safe to run concurrently with
// other combinations.
func (s *Session) runCombination(ctx context.Context, idx, nConfigs int) comboOutcome {
	combo := s.combinations[idx]
	baseSeed := s.opts.Seed + uint64(idx*nConfigs)
	_, nFeatures := s.xTrain.Dims()
	_, nTargets := s.yTrain.Dims()
	space := combinationSpace(s.spaces[combo.Model], combo, nFeatures, nTargets)

	objective := func(ctx context.Context, config emulators.Config, seed uint64) (float64, error) {
		return s.runWithTimeout(ctx, func(ctx context.Context) (float64, error) {
			return s.crossValidate(ctx, combo, config, seed)
		})
	}

	tunerOutcomes := s.opts.Tuner.Search(ctx, space, objective, nConfigs, baseSeed)

	out := comboOutcome{index: idx, combo: combo}
	var best *TrialOutcome
	for i := range tunerOutcomes {
		to := &tunerOutcomes[i]
		tr := s.toTrialResult(combo, to)
		out.trials = append(out.trials, tr)
		if tr.Status != TrialOK {
			s.logger.Debug("trial did not complete",
				log.TrialIDKey, tr.ID,
				log.CombinationKey, combo.Describe(),
				log.ErrorKey, tr.Err,
			)
			continue
		}
		if best == nil || s.opts.PrimaryMetric.Better(to.Score, best.Score) {
			best = to
		}
	}

	if best == nil {
		out.err = firstError(out.trials)
		return out
	}

	rep, err := s.refit(ctx, combo, best)
	if err != nil {
		out.err = err
		return out
	}
	out.rep = rep
	s.logger.Info("combination evaluated",
		log.CombinationKey, combo.Describe(),
		log.ModelNameKey, combo.Model,
		log.MetricKey, s.opts.PrimaryMetric.Name,
		log.TestScoreKey, rep.TestScore,
		log.TrainScoreKey, rep.TrainScore,
		log.DurationMsKey, rep.Duration.Milliseconds(),
	)
	return out
}

// crossValidate scores one configuration as the mean primary score across
// the session folds. Every fold builds fresh transform and model instances,
// so no fitted state is shared between folds or trials.
func (s *Session) crossValidate(ctx context.Context, combo Combination, config emulators.Config, seed uint64) (float64, error) {
	var total float64
	for _, fold := range s.folds {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		te, err := s.buildEmulator(combo, config, seed)
		if err != nil {
			return 0, err
		}

		xTr := selectRows(s.xTrain, fold.TrainIdx)
		yTr := selectRows(s.yTrain, fold.TrainIdx)
		xTe := selectRows(s.xTrain, fold.TestIdx)
		yTe := selectRows(s.yTrain, fold.TestIdx)

		if err := errors.SafeExecute("trial fit", func() error { return te.Fit(xTr, yTr) }); err != nil {
			return 0, err
		}
		mean, err := te.PredictMean(xTe)
		if err != nil {
			return 0, err
		}
		score, err := metrics.Evaluate(s.opts.PrimaryMetric, yTe, mean)
		if err != nil {
			return 0, err
		}
		if err := errors.CheckScalar("cross-validation score", score); err != nil {
			return 0, err
		}
		total += score
	}
	return total / float64(len(s.folds)), nil
}

// refit trains the best configuration on the full training split and scores
// it on both splits. A refit failure marks the combination wholly failed.
func (s *Session) refit(ctx context.Context, combo Combination, best *TrialOutcome) (*TrialResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	te, err := s.buildEmulator(combo, best.Config, best.Seed)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	if err := errors.SafeExecute("refit", func() error { return te.Fit(s.xTrain, s.yTrain) }); err != nil {
		return nil, errors.Wrap(err, "refit on full training split")
	}

	trainMean, err := te.PredictMean(s.xTrain)
	if err != nil {
		return nil, err
	}
	trainScore, err := metrics.Evaluate(s.opts.PrimaryMetric, s.yTrain, trainMean)
	if err != nil {
		return nil, err
	}

	testMean, err := te.PredictMean(s.xTest)
	if err != nil {
		return nil, err
	}
	testScore, err := metrics.Evaluate(s.opts.PrimaryMetric, s.yTest, testMean)
	if err != nil {
		return nil, err
	}
	secondary, err := metrics.Evaluate(s.opts.SecondaryMetric, s.yTest, testMean)
	if err != nil {
		return nil, err
	}

	xSpecs := applySpecOverrides("x", combo.XSpecs, best.Config)
	ySpecs := applySpecOverrides("y", combo.YSpecs, best.Config)
	return &TrialResult{
		ID:             newTrialID(),
		Model:          combo.Model,
		XChain:         describeSpecs(xSpecs),
		YChain:         describeSpecs(ySpecs),
		XSpecs:         xSpecs,
		YSpecs:         ySpecs,
		Config:         best.Config,
		CVScore:        best.Score,
		TrainScore:     trainScore,
		TestScore:      testScore,
		SecondaryScore: secondary,
		Status:         TrialOK,
		Emulator:       te,
		Seed:           best.Seed,
		Duration:       best.Duration + time.Since(start),
	}, nil
}

// buildEmulator constructs a fresh unfitted TransformedEmulator for one
// trial. Chains are rebuilt from specs so the trial owns its fitted state
// exclusively; namespaced config entries override transform hyperparameters
// at their chain positions.
func (s *Session) buildEmulator(combo Combination, config emulators.Config, seed uint64) (*emulators.TransformedEmulator, error) {
	xChain, err := transforms.NewChain(applySpecOverrides("x", combo.XSpecs, config))
	if err != nil {
		return nil, err
	}
	yChain, err := transforms.NewChain(applySpecOverrides("y", combo.YSpecs, config))
	if err != nil {
		return nil, err
	}
	m, err := emulators.New(combo.Model, modelParams(config))
	if err != nil {
		return nil, err
	}
	te, err := emulators.NewTransformedEmulator(xChain, yChain, m)
	if err != nil {
		return nil, err
	}
	te.OutputFromSamples = s.opts.OutputFromSamples
	te.Propagate = transforms.PropagateConfig{Seed: seed}
	return te, nil
}

// toTrialResult classifies a tuner outcome into a trial record.
func (s *Session) toTrialResult(combo Combination, to *TrialOutcome) *TrialResult {
	tr := &TrialResult{
		ID:       newTrialID(),
		Model:    combo.Model,
		XChain:   describeSpecs(combo.XSpecs),
		YChain:   describeSpecs(combo.YSpecs),
		XSpecs:   combo.XSpecs,
		YSpecs:   combo.YSpecs,
		Config:   to.Config,
		CVScore:  to.Score,
		Seed:     to.Seed,
		Duration: to.Duration,
	}
	switch {
	case to.Err == nil:
		tr.Status = TrialOK
	case errors.Is(to.Err, context.DeadlineExceeded):
		tr.Status = TrialTimeout
		tr.Err = errors.NewTrialTimeoutError(tr.ID, s.opts.TrialTimeout)
	case errors.Is(to.Err, context.Canceled):
		tr.Status = TrialCancelled
		tr.Err = errors.NewTrialCancelledError(tr.ID)
	default:
		tr.Status = TrialFailed
		tr.Err = to.Err
	}
	return tr
}

// runWithTimeout applies the per-trial time limit. The trial body runs on its
// own goroutine so a blocked fit cannot stall the session past the limit; on
// timeout the body's context is cancelled and the trial is abandoned. The
// result travels through the channel so the abandoned goroutine never shares
// mutable state with the timeout path.
func (s *Session) runWithTimeout(ctx context.Context, fn func(ctx context.Context) (float64, error)) (float64, error) {
	if s.opts.TrialTimeout <= 0 {
		return fn(ctx)
	}
	tctx, cancel := context.WithTimeout(ctx, s.opts.TrialTimeout)
	defer cancel()

	type trialReturn struct {
		score float64
		err   error
	}
	done := make(chan trialReturn, 1)
	go func() {
		score, err := fn(tctx)
		done <- trialReturn{score: score, err: err}
	}()

	select {
	case r := <-done:
		return r.score, r.err
	case <-tctx.Done():
		return 0, tctx.Err()
	}
}

// Results returns the ranked representative results of the last Compare.
func (s *Session) Results() []*TrialResult { return s.results }

// Trials returns every trial of the last Compare, including failures.
func (s *Session) Trials() []*TrialResult { return s.trials }

// FailedCombinations maps wholly-failed combination descriptions to their
// causes.
func (s *Session) FailedCombinations() map[string]error { return s.failed }

// BestResult returns the rank-0 result. It fails with EmptyResultsError when
// Compare has not produced any successful combination.
func (s *Session) BestResult() (*TrialResult, error) {
	if len(s.results) == 0 {
		return nil, errors.NewEmptyResultsError("BestResult")
	}
	return s.results[0], nil
}

// HeldOut exposes the held-out split for downstream diagnostics.
func (s *Session) HeldOut() (x, y *mat.Dense) { return s.xTest, s.yTest }

// applySpecOverrides copies specs, overriding transform hyperparameters with
// any config entries namespaced by axis and chain position, e.g. a sampled
// "y0.n_components" value replaces n_components on the first y-transform.
// Specs without matching entries are returned as-is.
func applySpecOverrides(prefix string, specs []transforms.Spec, config emulators.Config) []transforms.Spec {
	out := make([]transforms.Spec, len(specs))
	for i := range specs {
		out[i] = specs[i]
		ns := fmt.Sprintf("%s%d.", prefix, i)
		var params map[string]interface{}
		for key, value := range config {
			if !strings.HasPrefix(key, ns) {
				continue
			}
			if params == nil {
				params = make(map[string]interface{}, len(specs[i].Params)+1)
				for k, v := range specs[i].Params {
					params[k] = v
				}
				out[i].Params = params
			}
			params[strings.TrimPrefix(key, ns)] = value
		}
	}
	return out
}

// modelParams strips the transform-namespaced entries from a sampled
// configuration, leaving the model's own hyperparameters.
func modelParams(config emulators.Config) emulators.Config {
	out := make(emulators.Config, len(config))
	for k, v := range config {
		if strings.Contains(k, ".") {
			continue
		}
		out[k] = v
	}
	return out
}

func firstError(trials []*TrialResult) error {
	for _, tr := range trials {
		if tr.Err != nil {
			return tr.Err
		}
	}
	return errors.New("no successful trial")
}
