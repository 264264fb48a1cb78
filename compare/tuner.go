package compare

import (
	"context"
	"time"

	"github.com/LevanBokeria/autoemulate/emulators"
)

// Objective scores one sampled configuration; for the comparison engine this
// is the cross-validated primary score on the training split. The seed is the
// trial's derived seed and must drive all stochastic steps inside.
type Objective func(ctx context.Context, config emulators.Config, seed uint64) (float64, error)

// TrialOutcome is one tuner trial: the sampled configuration, its score, and
// the error that classified the trial when it did not succeed.
type TrialOutcome struct {
	Index    int
	Config   emulators.Config
	Score    float64
	Seed     uint64
	Err      error
	Duration time.Duration
}

// Tuner searches a hyperparameter space by repeatedly sampling configurations
// and evaluating them through the objective. Implementations must derive each
// trial's seed as baseSeed + trial index so trials are reproducible in
// isolation.
type Tuner interface {
	Search(ctx context.Context, space Space, objective Objective, nTrials int, baseSeed uint64) []TrialOutcome
}

// RandomSearchTuner samples configurations uniformly from the space. Trials
// run sequentially; concurrency across combinations is the comparison
// engine's concern. A cancelled context stops sampling; trials not yet
// started are reported with the context's error.
type RandomSearchTuner struct{}

// Search implements Tuner.
func (RandomSearchTuner) Search(ctx context.Context, space Space, objective Objective, nTrials int, baseSeed uint64) []TrialOutcome {
	outcomes := make([]TrialOutcome, 0, nTrials)
	for i := 0; i < nTrials; i++ {
		seed := baseSeed + uint64(i)
		outcome := TrialOutcome{Index: i, Seed: seed}

		if err := ctx.Err(); err != nil {
			outcome.Err = err
			outcomes = append(outcomes, outcome)
			continue
		}

		rng := newRand(seed)
		outcome.Config = space.Sample(rng)

		start := time.Now()
		outcome.Score, outcome.Err = objective(ctx, outcome.Config, seed)
		outcome.Duration = time.Since(start)
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}
