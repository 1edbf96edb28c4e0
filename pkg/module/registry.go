package module

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/getmockd/mockgate/pkg/logging"
)

// Policy controls when the registry reuses a cached module.
type Policy string

const (
	// PolicyAlways evicts and reloads the module on every resolution.
	PolicyAlways Policy = "always"
	// PolicyModTime reuses the cached module while its definition file and
	// the body files it reads are unchanged (same mod time, size and content
	// hash).
	PolicyModTime Policy = "modtime"
)

// ParsePolicy parses a reload policy name. The empty string selects PolicyAlways.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyAlways:
		return PolicyAlways, nil
	case PolicyModTime:
		return PolicyModTime, nil
	}
	return "", fmt.Errorf("unknown reload policy %q (want always or modtime)", s)
}

// Load outcomes reported to the load hook.
const (
	LoadLoaded = "loaded"
	LoadCached = "cached"
	LoadFailed = "failed"
)

// LoadHook observes every resolution that reaches the loader or the cache.
type LoadHook func(identity, outcome string)

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithPolicy sets the reload policy.
func WithPolicy(p Policy) RegistryOption {
	return func(r *Registry) {
		if p != "" {
			r.policy = p
		}
	}
}

// WithPrefix sets the data namespace prefix stripped by Normalize.
func WithPrefix(prefix string) RegistryOption {
	return func(r *Registry) { r.prefix = prefix }
}

// WithLoadHook registers a hook called after each resolution.
func WithLoadHook(h LoadHook) RegistryOption {
	return func(r *Registry) { r.hook = h }
}

// Registry resolves request paths to mock modules and caches what it loads.
// Loads of one identity are serialized; distinct identities load concurrently.
type Registry struct {
	loader Loader
	policy Policy
	prefix string
	logger *slog.Logger
	hook   LoadHook

	mu      sync.Mutex
	entries map[string]*Module
	locks   map[string]*identityLock
}

type identityLock struct {
	mu   sync.Mutex
	refs int
}

// NewRegistry returns a registry backed by loader.
func NewRegistry(loader Loader, opts ...RegistryOption) *Registry {
	r := &Registry{
		loader:  loader,
		policy:  PolicyAlways,
		prefix:  DefaultPrefix,
		logger:  logging.Nop(),
		entries: make(map[string]*Module),
		locks:   make(map[string]*identityLock),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the reload policy in effect.
func (r *Registry) Policy() Policy { return r.policy }

// Prefix returns the data namespace prefix.
func (r *Registry) Prefix() string { return r.prefix }

// Resolve normalizes pathname and returns the module for it. Every failure,
// including a definition that does not load, wraps ErrNotFound.
func (r *Registry) Resolve(pathname string) (*Module, error) {
	id, ok := Normalize(pathname, r.prefix)
	if !ok {
		r.logger.Info("mock module not found", "path", pathname, "reason", "path does not name a module")
		return nil, fmt.Errorf("%w: path %q does not name a module", ErrNotFound, pathname)
	}
	return r.ResolveIdentity(id)
}

// ResolveIdentity returns the module for an already normalized identity.
func (r *Registry) ResolveIdentity(identity string) (*Module, error) {
	unlock := r.lock(identity)
	defer unlock()

	if r.policy == PolicyModTime {
		if m := r.lookup(identity); m != nil && r.fresh(identity, m) {
			r.logger.Debug("mock module reused", "identity", identity, "source", m.Source)
			r.report(identity, LoadCached)
			return m, nil
		}
	}

	r.Evict(identity)

	m, err := r.loader.Load(identity)
	if err != nil {
		r.logger.Info("mock module not found", "identity", identity, "error", err)
		r.report(identity, LoadFailed)
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, identity, err)
	}
	if m.Identity == "" {
		named := *m
		named.Identity = identity
		m = &named
	}

	r.mu.Lock()
	r.entries[identity] = m
	r.mu.Unlock()

	r.logger.Debug("mock module loaded", "identity", identity, "source", m.Source, "handlers", len(m.handlers))
	r.report(identity, LoadLoaded)
	return m, nil
}

// Evict drops the cached module for identity and reports whether one existed.
func (r *Registry) Evict(identity string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[identity]
	delete(r.entries, identity)
	return ok
}

// EvictSource drops every cached module built from the given file, as its
// definition or as a dependency.
func (r *Registry) EvictSource(source string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var evicted []string
	for id, m := range r.entries {
		if m.DependsOn(source) {
			delete(r.entries, id)
			evicted = append(evicted, id)
		}
	}
	sort.Strings(evicted)
	return evicted
}

// Len returns the number of cached modules.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Entries returns the cached modules sorted by identity.
func (r *Registry) Entries() []*Module {
	r.mu.Lock()
	out := make([]*Module, 0, len(r.entries))
	for _, m := range r.entries {
		out = append(out, m)
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out
}

func (r *Registry) lookup(identity string) *Module {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[identity]
}

func (r *Registry) fresh(identity string, m *Module) bool {
	fp, ok := r.loader.(Fingerprinter)
	if !ok || m.Fingerprint.Path == "" {
		return false
	}
	current, err := fp.Fingerprint(identity)
	if err != nil || !current.Equal(m.Fingerprint) {
		return false
	}
	for _, dep := range m.Dependencies {
		if dep.Stale() {
			return false
		}
	}
	return true
}

func (r *Registry) report(identity, outcome string) {
	if r.hook != nil {
		r.hook(identity, outcome)
	}
}

// lock acquires the per-identity lock and returns its release function.
func (r *Registry) lock(identity string) func() {
	r.mu.Lock()
	l, ok := r.locks[identity]
	if !ok {
		l = &identityLock{}
		r.locks[identity] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, identity)
		}
		r.mu.Unlock()
	}
}
