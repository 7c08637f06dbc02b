package module

import "sync"

// process wide port registry, filled while main composes modules
var (
	mu  sync.RWMutex
	reg = map[string]any{}
)

// Register stores the port set published under name. Later calls replace it
func Register(name string, ports any) {
	mu.Lock()
	reg[name] = ports
	mu.Unlock()
}

// PortsAs returns the port set registered under name when it is a T
func PortsAs[T any](name string) (T, bool) {
	mu.RLock()
	v, ok := reg[name]
	mu.RUnlock()
	out, ok2 := v.(T)
	return out, ok && ok2
}

// Registered lists the registered names in no particular order
func Registered() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(reg))
	for k := range reg {
		out = append(out, k)
	}
	return out
}

// Reset empties the registry. Tests only
func Reset() {
	mu.Lock()
	reg = map[string]any{}
	mu.Unlock()
}
