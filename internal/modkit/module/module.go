// Package module holds the module contract and the port registry used at bootstrap
package module

import (
	"sort"
	"sync"

	phttp "transitplan/internal/platform/net/http"
)

// Module is what the api package mounts
// it lives apart from modkit so a module can export its own ports type without an import cycle
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}

var (
	mu  sync.RWMutex
	reg = map[string]any{}
)

// Register records the ports a module exports, replacing any earlier entry for name
func Register(name string, ports any) {
	mu.Lock()
	reg[name] = ports
	mu.Unlock()
}

// PortsAs returns the ports registered under name when they are a T
func PortsAs[T any](name string) (T, bool) {
	mu.RLock()
	v, ok := reg[name]
	mu.RUnlock()
	out, ok2 := v.(T)
	return out, ok && ok2
}

// Names lists registered modules in order
func Names() []string {
	mu.RLock()
	out := make([]string, 0, len(reg))
	for k := range reg {
		out = append(out, k)
	}
	mu.RUnlock()
	sort.Strings(out)
	return out
}

// Reset empties the registry
func Reset() {
	mu.Lock()
	reg = map[string]any{}
	mu.Unlock()
}
