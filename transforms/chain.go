package transforms

import (
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/LevanBokeria/autoemulate/distribution"
	"github.com/LevanBokeria/autoemulate/pkg/errors"
)

// Chain is an ordered list of transforms. Forward application runs first to
// last, each transform consuming the previous one's output; Fit follows the
// same order, fitting each transform on the data as seen at its position.
// Inversion runs last to first. An empty chain is the identity.
type Chain []Transform

// Fit fits every transform in order, feeding each one the forward output of
// its predecessors.
func (c Chain) Fit(x mat.Matrix) error {
	current := x
	for _, t := range c {
		if err := t.Fit(current); err != nil {
			return errors.Wrapf(err, "Chain.Fit: %s", t.Name())
		}
		next, err := t.Forward(current)
		if err != nil {
			return errors.Wrapf(err, "Chain.Fit: %s", t.Name())
		}
		current = next
	}
	return nil
}

// Forward applies every transform in order.
func (c Chain) Forward(x mat.Matrix) (*mat.Dense, error) {
	current := denseOf(x)
	for _, t := range c {
		next, err := t.Forward(current)
		if err != nil {
			return nil, errors.Wrapf(err, "Chain.Forward: %s", t.Name())
		}
		current = next
	}
	return current, nil
}

// Inverse applies every transform's plain inverse in reverse order. For
// chains containing a lossy transform the result is approximate.
func (c Chain) Inverse(x mat.Matrix) (*mat.Dense, error) {
	current := denseOf(x)
	for i := len(c) - 1; i >= 0; i-- {
		next, err := c[i].Inverse(current)
		if err != nil {
			return nil, errors.Wrapf(err, "Chain.Inverse: %s", c[i].Name())
		}
		current = next
	}
	return current, nil
}

// InverseDistribution pushes a predictive distribution backwards through the
// chain, each step consuming the distribution produced by the previous
// inverse step.
func (c Chain) InverseDistribution(pred distribution.Prediction, mode Mode, cfg PropagateConfig) (distribution.Prediction, error) {
	current := pred
	for i := len(c) - 1; i >= 0; i-- {
		// Derive a distinct seed per step so chained sampling stages do not
		// reuse the same draws.
		stepCfg := cfg
		stepCfg.Seed = cfg.Seed + uint64(len(c)-i)*0x9e3779b9
		next, err := c[i].InverseDistribution(current, mode, stepCfg)
		if err != nil {
			return nil, errors.Wrapf(err, "Chain.InverseDistribution: %s", c[i].Name())
		}
		current = next
	}
	return current, nil
}

// Describe returns a compact identity string, e.g. "standardize,pca". An
// empty chain is "none". Used in reports and persistence records.
func (c Chain) Describe() string {
	if len(c) == 0 {
		return "none"
	}
	names := make([]string, len(c))
	for i, t := range c {
		names[i] = t.Name()
	}
	return strings.Join(names, ",")
}

// Specs returns the (name, params) pairs needed to reconstruct the chain
// unfitted via NewChain.
func (c Chain) Specs() []Spec {
	specs := make([]Spec, len(c))
	for i, t := range c {
		specs[i] = Spec{Name: t.Name(), Params: t.GetParams()}
	}
	return specs
}

// Spec identifies a transform kind plus its hyperparameters.
type Spec struct {
	Name   string
	Params map[string]interface{}
}

// NewChain builds an unfitted chain from specs using the registry.
func NewChain(specs []Spec) (Chain, error) {
	chain := make(Chain, len(specs))
	for i, spec := range specs {
		t, err := New(spec.Name, spec.Params)
		if err != nil {
			return nil, err
		}
		chain[i] = t
	}
	return chain, nil
}

func denseOf(x mat.Matrix) *mat.Dense {
	if d, ok := x.(*mat.Dense); ok {
		return d
	}
	return mat.DenseCopyOf(x)
}
