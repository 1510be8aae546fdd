package dataset

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]Definition)
	registryMu sync.RWMutex
)

// Register adds a dataset definition to the registry.
// Returns an error if a dataset with the same key is already registered.
func Register(def Definition) error {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Key]; exists {
		return fmt.Errorf("dataset already registered: %s", def.Key)
	}
	registry[def.Key] = def
	return nil
}

// RegisterAll registers every definition, stopping at the first conflict.
func RegisterAll(defs []Definition) error {
	for _, def := range defs {
		if err := Register(def); err != nil {
			return err
		}
	}
	return nil
}

// Get returns a dataset definition by key.
func Get(key string) (Definition, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknown, key)
	}
	return def, nil
}

// All returns all registered definitions sorted by group then key.
func All() []Definition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Definition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Group != result[j].Group {
			return result[i].Group < result[j].Group
		}
		return result[i].Key < result[j].Key
	})

	return result
}

// Replace swaps the registry contents for defs in one step, so readers see
// either the old set or the new one. On a duplicate key the registry is
// left untouched.
func Replace(defs []Definition) error {
	next := make(map[string]Definition, len(defs))
	for _, def := range defs {
		if _, exists := next[def.Key]; exists {
			return fmt.Errorf("dataset already registered: %s", def.Key)
		}
		next[def.Key] = def
	}

	registryMu.Lock()
	registry = next
	registryMu.Unlock()
	return nil
}

// Count returns the number of registered datasets.
func Count() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered datasets.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Definition)
}
