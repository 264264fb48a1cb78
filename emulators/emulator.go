// Package emulators provides the concrete surrogate models offered to the
// comparison engine, and TransformedEmulator, which binds one model to
// ordered input and output transform chains.
//
// Models form a closed, registered set: each registers a factory by name at
// init, and the comparison engine enumerates candidates by name. No runtime
// reflection is involved; extending the set means registering another
// factory.
package emulators

import (
	"sort"
	"sync"

	"github.com/LevanBokeria/autoemulate/core/model"
	"github.com/LevanBokeria/autoemulate/pkg/errors"
)

// Config carries model hyperparameters as produced by the tuner or parsed
// from a run configuration. Values are float64, int, bool or string.
type Config map[string]interface{}

// Float reads a float64 hyperparameter, accepting ints, with a default.
func (c Config) Float(key string, def float64) float64 {
	if v, ok := c[key]; ok {
		switch x := v.(type) {
		case float64:
			return x
		case int:
			return float64(x)
		}
	}
	return def
}

// Int reads an int hyperparameter, accepting float64s, with a default.
func (c Config) Int(key string, def int) int {
	if v, ok := c[key]; ok {
		switch x := v.(type) {
		case int:
			return x
		case float64:
			return int(x)
		}
	}
	return def
}

// Factory builds an unfitted emulator from a hyperparameter configuration.
type Factory func(config Config) (model.Emulator, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds an emulator factory under name.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// New constructs an unfitted emulator by registered name.
func New(name string, config Config) (model.Emulator, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.NewValidationError("model", "unknown emulator name", name)
	}
	return factory(config)
}

// Registered returns the sorted names of all registered emulators.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
