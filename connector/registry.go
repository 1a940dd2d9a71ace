// Package connector keeps the process-wide registry of available
// connector implementations. Vendor subpackages register themselves
// from init, so binaries pick their backends with blank imports, the
// same way database/sql drivers are wired.
package connector

import (
	"fmt"
	"slices"
	"sync"

	"github.com/quelldb/quell"
)

// Factory builds an unconfigured connector for one descriptor.
type Factory func(d quell.Descriptor) quell.Connector

type registration struct {
	kind    quell.Kind
	factory Factory
}

var (
	mu       sync.RWMutex
	registry = make(map[string]registration)
)

// Register makes a connector implementation available under the given
// implementation reference. It panics on a duplicate reference, like
// sql.Register.
func Register(impl string, kind quell.Kind, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if impl == "" || f == nil {
		panic("connector: Register with empty impl or nil factory")
	}
	if _, dup := registry[impl]; dup {
		panic("connector: Register called twice for " + impl)
	}
	registry[impl] = registration{kind: kind, factory: f}
}

// KindOf reports the capability kind of a registered implementation
// reference. It satisfies catalog.Resolver.
func KindOf(impl string) (quell.Kind, bool) {
	mu.RLock()
	defer mu.RUnlock()

	reg, ok := registry[impl]
	return reg.kind, ok
}

// Impls returns the registered implementation references, sorted.
func Impls() []string {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]string, 0, len(registry))
	for impl := range registry {
		out = append(out, impl)
	}
	slices.Sort(out)
	return out
}

// New builds an unconfigured connector for the descriptor's
// implementation reference.
func New(d quell.Descriptor) (quell.Connector, error) {
	mu.RLock()
	reg, ok := registry[d.Impl]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("connector for %s: %w: implementation %q not registered", d.Vendor, quell.ErrNotFound, d.Impl)
	}
	return reg.factory(d), nil
}
