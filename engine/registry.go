package engine

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNoDefault is returned by Default when no engine has claimed the
// default slot, typically because no backend package was imported.
var ErrNoDefault = errors.New("engine: no default engine registered")

var registry = struct {
	mu        sync.RWMutex
	factories map[string]func() Engine
	dflt      string
}{factories: make(map[string]func() Engine)}

// Register makes an engine factory available under the given name.
// Backend packages call Register from init, so importing a backend is
// enough to make it constructible. Register panics if the name is
// already taken or the factory is nil.
func Register(name string, factory func() Engine) {
	if factory == nil {
		panic("engine: Register with nil factory")
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if _, dup := registry.factories[name]; dup {
		panic("engine: Register called twice for " + name)
	}
	registry.factories[name] = factory
}

// SetDefault selects the named engine as the one Default constructs.
// It panics if the name is not registered.
func SetDefault(name string) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if _, ok := registry.factories[name]; !ok {
		panic("engine: SetDefault of unregistered engine " + name)
	}
	registry.dflt = name
}

// Default constructs a fresh instance of the default engine. The
// default is claimed by the standard pooled backend's init, or chosen
// explicitly with SetDefault.
func Default() (Engine, error) {
	registry.mu.RLock()
	name := registry.dflt
	registry.mu.RUnlock()

	if name == "" {
		return nil, ErrNoDefault
	}
	return New(name)
}

// New constructs a fresh instance of the named engine.
func New(name string) (Engine, error) {
	registry.mu.RLock()
	factory, ok := registry.factories[name]
	registry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("engine: unknown engine %q", name)
	}
	return factory(), nil
}

// List returns the names of all registered engines, sorted for stable
// output.
func List() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	names := make([]string, 0, len(registry.factories))
	for name := range registry.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
