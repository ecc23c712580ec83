package score

import "sync/atomic"

// Registry publishes the current config as an immutable snapshot. Scoring
// computations read a snapshot once and use it for their whole pass, so a
// concurrent save never scores half a pool under one version and half under
// another.
type Registry struct {
	current atomic.Pointer[Config]
}

// NewRegistry returns a registry seeded with cfg (defaults when nil).
func NewRegistry(cfg *Config) *Registry {
	r := &Registry{}
	if cfg == nil {
		cfg = Default()
	}
	r.current.Store(cfg)
	return r
}

// Snapshot returns the current immutable config. Callers must not mutate it.
func (r *Registry) Snapshot() *Config {
	return r.current.Load()
}

// Swap atomically publishes a new config snapshot.
func (r *Registry) Swap(cfg *Config) {
	r.current.Store(cfg)
}

// Calculator returns a calculator bound to the current snapshot.
func (r *Registry) Calculator() *Calculator {
	return NewCalculator(r.Snapshot())
}
