package power

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type registration struct {
	info    BackendInfo
	factory Factory
}

var (
	mu       sync.RWMutex
	registry = map[string]registration{}
)

// Register makes a backend available under the given model name. It is
// meant to be called from the init function of a backend package and
// panics if the model is empty or registered twice.
func Register(info BackendInfo, factory Factory) {
	mu.Lock()
	defer mu.Unlock()

	model := strings.TrimSpace(info.Model)
	if model == "" {
		panic("power: Register called with empty model")
	}
	if factory == nil {
		panic("power: Register factory is nil for " + model)
	}
	if _, dup := registry[model]; dup {
		panic("power: Register called twice for " + model)
	}
	info.Model = model
	registry[model] = registration{info: info, factory: factory}
}

// Lookup returns the factory and description for a model. An unknown model
// is a configuration error.
func Lookup(model string) (Factory, BackendInfo, error) {
	mu.RLock()
	defer mu.RUnlock()

	reg, ok := registry[model]
	if !ok {
		return nil, BackendInfo{}, &ConfigurationError{
			Field:  "model",
			Value:  model,
			Reason: fmt.Sprintf("no backend registered (known: %s)", strings.Join(sortedModels(), ", ")),
		}
	}
	return reg.factory, reg.info, nil
}

// Models returns the registered model names in sorted order.
func Models() []string {
	mu.RLock()
	defer mu.RUnlock()
	return sortedModels()
}

// Backends returns the description of every registered backend, sorted by
// model.
func Backends() []BackendInfo {
	mu.RLock()
	defer mu.RUnlock()

	infos := make([]BackendInfo, 0, len(registry))
	for _, model := range sortedModels() {
		infos = append(infos, registry[model].info)
	}
	return infos
}

// caller holds mu
func sortedModels() []string {
	models := maps.Keys(registry)
	slices.Sort(models)
	return models
}
