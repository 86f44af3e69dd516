package plugin

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"clipstash/internal/errors"
)

// DefaultTimeout is the per-plugin invocation budget when neither the
// manager nor the plugin configures one.
const DefaultTimeout = 5 * time.Second

// entry pairs a registered plugin with its load sequence number, which
// breaks priority ties so registry order is reproducible across runs given
// the same load sequence.
type entry struct {
	plugin Plugin
	seq    int
}

// Manager owns the ordered active-plugin collection, handles load/unload
// lifecycle, and exposes the three pipeline entry points. Registry mutation
// is serialized relative to dispatch: dispatch iterates a snapshot taken
// under the read lock, so it never observes a registry mid-mutation.
type Manager struct {
	mu      sync.RWMutex
	entries []entry
	seq     int

	timeout time.Duration
	log     zerolog.Logger
}

// NewManager creates a manager with the given per-plugin timeout. A zero or
// negative timeout selects DefaultTimeout.
func NewManager(log zerolog.Logger, timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Manager{
		timeout: timeout,
		log:     log.With().Str("component", "plugin-manager").Logger(),
	}
}

// Load initializes p and, on success, inserts it into the registry sorted by
// priority tier ascending with ties broken by load order. On failure the
// plugin is discarded and never dispatched to.
func (m *Manager) Load(ctx context.Context, p Plugin) bool {
	if err := safeInitialize(ctx, p); err != nil {
		initErr := errors.NewInitFailed(p.Name(), err)
		m.log.Error().Str("plugin", p.Name()).Str("version", p.Version()).
			Msg(initErr.Message)
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.entries {
		if e.plugin.Name() == p.Name() {
			m.log.Error().Str("plugin", p.Name()).Msg("plugin already loaded")
			return false
		}
	}

	m.seq++
	m.entries = append(m.entries, entry{plugin: p, seq: m.seq})
	sort.SliceStable(m.entries, func(i, j int) bool {
		a, b := m.entries[i], m.entries[j]
		if a.plugin.Priority() != b.plugin.Priority() {
			return a.plugin.Priority() < b.plugin.Priority()
		}
		return a.seq < b.seq
	})

	m.log.Info().Str("plugin", p.Name()).Str("version", p.Version()).
		Stringer("priority", p.Priority()).Msg("plugin loaded")
	return true
}

// Unload removes the named plugin after a best-effort Shutdown. Returns
// false if no plugin with that name is active; the registry is unchanged.
func (m *Manager) Unload(ctx context.Context, name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, e := range m.entries {
		if e.plugin.Name() != name {
			continue
		}
		if err := safeShutdown(ctx, e.plugin); err != nil {
			m.log.Error().Str("plugin", name).Err(err).Msg("plugin shutdown failed")
		}
		m.entries = append(m.entries[:i], m.entries[i+1:]...)
		m.log.Info().Str("plugin", name).Msg("plugin unloaded")
		return true
	}

	m.log.Warn().Str("plugin", name).Msg("plugin not found")
	return false
}

// Get returns the registered plugin with the given name.
func (m *Manager) Get(name string) (Plugin, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if e.plugin.Name() == name {
			return e.plugin, true
		}
	}
	return nil, false
}

// ListActive returns a read-only descriptor snapshot of the registry in
// dispatch order, safe to iterate without affecting dispatch.
func (m *Manager) ListActive() []Descriptor {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Descriptor, len(m.entries))
	for i, e := range m.entries {
		out[i] = Descriptor{
			Name:        e.plugin.Name(),
			Version:     e.plugin.Version(),
			Priority:    e.plugin.Priority().String(),
			Enabled:     e.plugin.Enabled(),
			Initialized: true,
		}
	}
	return out
}

// ShutdownAll shuts every active plugin down, continuing past individual
// failures, and clears the registry. Used at process teardown.
func (m *Manager) ShutdownAll(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.entries {
		if err := safeShutdown(ctx, e.plugin); err != nil {
			m.log.Error().Str("plugin", e.plugin.Name()).Err(err).Msg("plugin shutdown failed")
		}
	}
	m.entries = nil
	m.log.Info().Msg("all plugins shut down")
}

// active returns the enabled subset of the registry in dispatch order. Each
// dispatch works from this stable snapshot.
func (m *Manager) active() []Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Plugin, 0, len(m.entries))
	for _, e := range m.entries {
		if e.plugin.Enabled() {
			out = append(out, e.plugin)
		}
	}
	return out
}

// budget returns the effective invocation timeout for p.
func (m *Manager) budget(p Plugin) time.Duration {
	if d := p.Timeout(); d > 0 {
		return d
	}
	return m.timeout
}

// safeInitialize calls Initialize, converting a panic into an error so a
// defective plugin cannot take the application down at load time.
func safeInitialize(ctx context.Context, p Plugin) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in initialize: %v", r)
		}
	}()
	return p.Initialize(ctx)
}

// safeShutdown calls Shutdown, converting a panic into an error.
func safeShutdown(ctx context.Context, p Plugin) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in shutdown: %v", r)
		}
	}()
	return p.Shutdown(ctx)
}
