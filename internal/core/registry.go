package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	registry   = make(map[string]TableDefinition)
	registryMu sync.RWMutex
)

// Register adds a table definition to the registry.
// Panics if a table with the same key is already registered, or if Build
// does not read exactly the declared FieldSpecs with their declared types.
func Register(def TableDefinition) {
	if def.Build == nil {
		panic(fmt.Sprintf("table %s has no Build func", def.Info.Key))
	}
	checkDefinition(def)

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("table already registered: %s", def.Info.Key))
	}

	registry[def.Info.Key] = def
}

// checkDefinition runs Build on an empty row. Row accessors panic on
// undeclared or mistyped columns; declared columns Build never reads are
// reported here.
func checkDefinition(def TableDefinition) {
	specs := MakeSpecIndex(def.FieldSpecs)
	if len(specs) != len(def.FieldSpecs) {
		panic(fmt.Sprintf("table %s declares a column twice", def.Info.Key))
	}

	r := NewRow(0, nil, nil, specs, nil)
	r.read = make(map[string]bool)
	def.Build(r)

	for _, spec := range def.FieldSpecs {
		if !r.read[strings.ToLower(spec.Name)] {
			panic(fmt.Sprintf("table %s declares column %q but Build never reads it", def.Info.Key, spec.Name))
		}
	}
}

// Get returns a table definition by key.
// Returns false if not found.
func Get(key string) (TableDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// All returns all registered table definitions sorted by key.
func All() []TableDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]TableDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Info.Key < result[j].Info.Key
	})

	return result
}

// Keys returns the registered table keys, sorted.
func Keys() []string {
	defs := All()
	keys := make([]string, len(defs))
	for i, def := range defs {
		keys[i] = def.Info.Key
	}
	return keys
}

// TableCount returns the number of registered tables.
func TableCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered tables.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]TableDefinition)
}
