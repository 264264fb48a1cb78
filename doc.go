// Package autoemulate compares and selects surrogate models ("emulators")
// for expensive simulators.
//
// Given input/output pairs from a simulator, the library enumerates
// combinations of candidate emulator models and input/output transform
// chains, tunes each combination with cross-validated trials, refits the best
// configuration per combination on the full training split, and ranks the
// results by held-out score. Predictions are full predictive distributions:
// uncertainty is propagated backwards through transform chains, analytically
// where the chain is linear and by sampling otherwise.
//
// # Packages
//
//   - distribution: predictive distributions (point estimate, Gaussian with
//     diagonal or full covariance) and positive semi-definite repair
//   - transforms: fitted invertible mappings (standardize, minmax, log, PCA)
//     with distribution-aware inversion, composed into chains
//   - emulators: the candidate models (Gaussian process, ridge) and
//     TransformedEmulator, which binds a model to its chains
//   - compare: the comparison engine: sessions, tuning, cross-validation,
//     ranking, persistence and reporting
//   - metrics: scoring functions with declared directions
//   - simulator: the data-generation contract plus synthetic simulators
//
// # Quick start
//
//	x, y := loadTrainingData()
//	session, err := compare.NewSession(x, y,
//	    []string{"gaussian_process", "ridge"}, nil, nil,
//	    compare.Options{Seed: 42})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := session.Compare(ctx, 10); err != nil {
//	    log.Fatal(err)
//	}
//	best, _ := session.BestResult()
//	pred, _ := best.Emulator.Predict(xNew)
//	fmt.Println(pred.Mean(), pred.Variance())
package autoemulate
