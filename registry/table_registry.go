/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"

	"github.com/suparena/tableops/storagemodels"
)

// tableRegistry holds table references by table name.
var tableRegistry = make(map[string]storagemodels.TableRef)

// RegisterTable registers a table reference under its name.
// Registering the same name twice panics to prevent accidental overrides.
func RegisterTable(ref storagemodels.TableRef) {
	if err := ref.Validate(); err != nil {
		panic(fmt.Sprintf("table registry: %v", err))
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := tableRegistry[ref.Name]; exists {
		panic(fmt.Sprintf("table registry: table %q already registered", ref.Name))
	}
	tableRegistry[ref.Name] = ref
}

// LookupTable returns the table reference registered under name.
func LookupTable(name string) (storagemodels.TableRef, error) {
	mu.RLock()
	defer mu.RUnlock()
	ref, ok := tableRegistry[name]
	if !ok {
		return storagemodels.TableRef{}, fmt.Errorf("table registry: no table registered as %q", name)
	}
	return ref, nil
}
