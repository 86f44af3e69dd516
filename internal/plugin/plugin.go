// Package plugin implements the content-processing pipeline: the plugin
// contract, the registry/lifecycle manager, and the three dispatch routines
// every captured clip flows through.
package plugin

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"clipstash/internal/clip"
	"clipstash/internal/sysctx"
)

// ErrVeto is the sentinel a pre-paste hook returns to block a paste. It is a
// deliberate signal, not a failure: dispatch stops immediately and the caller
// must abort the paste.
var ErrVeto = errors.New("paste vetoed")

// Priority is the coarse ordering class controlling dispatch sequence.
// Lower values run earlier.
type Priority int

const (
	// PriorityCritical runs first: security and validation must see the
	// record before any enrichment writes derived fields that might
	// themselves leak sensitive content.
	PriorityCritical Priority = 1
	// PriorityHigh covers enrichment and prediction.
	PriorityHigh Priority = 2
	// PriorityMedium covers analytics and cross-referencing.
	PriorityMedium Priority = 3
	// PriorityLow covers background and integration work.
	PriorityLow Priority = 4
)

// String returns the tier name.
func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "CRITICAL"
	case PriorityHigh:
		return "HIGH"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityLow:
		return "LOW"
	}
	return "UNKNOWN"
}

// Plugin is the capability every processing stage implements. Embed Base for
// descriptor state and pass-through defaults of the optional hooks; Initialize
// and ProcessIngest must be supplied by the concrete plugin.
type Plugin interface {
	Name() string
	Version() string
	Priority() Priority

	// Enabled reports whether the plugin participates in dispatch. Disabled
	// plugins receive no hook calls and never appear in ProcessedBy.
	Enabled() bool
	Enable()
	Disable()

	// Timeout returns a per-plugin budget override for a single hook
	// invocation. Zero means use the manager default.
	Timeout() time.Duration

	// Initialize is called exactly once before first dispatch. On error the
	// plugin is never added to the registry and receives no further calls.
	Initialize(ctx context.Context) error

	// ProcessIngest receives the record as enriched by all higher-priority
	// plugins so far and returns the record to pass to the next stage.
	ProcessIngest(ctx context.Context, rec *clip.Record, snap sysctx.Snapshot) (*clip.Record, error)

	// OnPrePaste may return ErrVeto (or a nil record) to block the paste.
	OnPrePaste(ctx context.Context, rec *clip.Record, snap sysctx.Snapshot) (*clip.Record, error)

	// OnPostSearch may reorder or filter the result sequence.
	OnPostSearch(ctx context.Context, query string, results []*clip.Record) ([]*clip.Record, error)

	// Shutdown is called once at unload or process teardown. Errors are
	// logged, never fatal.
	Shutdown(ctx context.Context) error
}

// Descriptor is a read-only view of a registered plugin.
type Descriptor struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Priority    string `json:"priority"`
	Enabled     bool   `json:"enabled"`
	Initialized bool   `json:"initialized"`
}

// Base supplies descriptor state plus no-op defaults for the optional hooks.
type Base struct {
	name     string
	version  string
	priority Priority
	timeout  time.Duration
	enabled  atomic.Bool
}

// NewBase constructs the embeddable plugin base. Plugins start enabled.
func NewBase(name, version string, priority Priority) Base {
	b := Base{name: name, version: version, priority: priority}
	b.enabled.Store(true)
	return b
}

// Name returns the plugin name.
func (b *Base) Name() string { return b.name }

// Version returns the plugin's semantic version string.
func (b *Base) Version() string { return b.version }

// Priority returns the plugin's tier.
func (b *Base) Priority() Priority { return b.priority }

// Enabled reports whether the plugin participates in dispatch.
func (b *Base) Enabled() bool { return b.enabled.Load() }

// Enable turns the plugin on.
func (b *Base) Enable() { b.enabled.Store(true) }

// Disable turns the plugin off.
func (b *Base) Disable() { b.enabled.Store(false) }

// Timeout returns the per-plugin budget override, zero for manager default.
func (b *Base) Timeout() time.Duration { return b.timeout }

// SetTimeout overrides the per-invocation budget for this plugin.
func (b *Base) SetTimeout(d time.Duration) { b.timeout = d }

// OnPrePaste passes the record through unchanged.
func (b *Base) OnPrePaste(_ context.Context, rec *clip.Record, _ sysctx.Snapshot) (*clip.Record, error) {
	return rec, nil
}

// OnPostSearch passes the results through unchanged.
func (b *Base) OnPostSearch(_ context.Context, _ string, results []*clip.Record) ([]*clip.Record, error) {
	return results, nil
}

// Shutdown is a no-op by default.
func (b *Base) Shutdown(_ context.Context) error { return nil }
