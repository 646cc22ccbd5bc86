package kernels

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/crlotwhite/libetude-sub002/internal/hardware"
	"github.com/crlotwhite/libetude-sub002/internal/logging"
)

var (
	// ErrAlreadyRegistered is returned when an operation name is
	// registered twice. Overwriting a live kernel mid-run is never
	// allowed.
	ErrAlreadyRegistered = errors.New("kernels: operation already registered")

	// ErrNotFound is returned for unregistered names and for candidate
	// sets with no implementation the current hardware can run.
	ErrNotFound = errors.New("kernels: no usable implementation")

	// ErrInvalidArgument is returned for empty names or empty candidate
	// sets.
	ErrInvalidArgument = errors.New("kernels: invalid argument")
)

// resolution is the cached outcome of selecting a kernel for one entry.
// It is published atomically so the fast path never takes a lock.
type resolution struct {
	kernel Kernel
	tier   Tier
	gen    uint64
}

type entry struct {
	name       string
	candidates Candidates
	resolved   atomic.Pointer[resolution]
	mu         sync.Mutex // serializes slow-path resolution
}

// Table is the dispatch table for one detector instance.
type Table struct {
	detector *hardware.Detector

	mu      sync.RWMutex
	entries map[string]*entry
}

// NewTable returns an empty dispatch table gated by det's capability
// snapshots.
func NewTable(det *hardware.Detector) *Table {
	return &Table{
		detector: det,
		entries:  make(map[string]*entry),
	}
}

// Register inserts the candidate set for a new operation name.
// Re-registering an existing name fails with ErrAlreadyRegistered.
func (t *Table) Register(name string, c Candidates) error {
	if name == "" {
		return fmt.Errorf("%w: empty operation name", ErrInvalidArgument)
	}
	if c.empty() {
		return fmt.Errorf("%w: no candidates for %q", ErrInvalidArgument, name)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[name]; ok {
		return fmt.Errorf("%w: %q", ErrAlreadyRegistered, name)
	}
	t.entries[name] = &entry{name: name, candidates: c}
	return nil
}

// Select returns the best kernel for name permitted by the cached
// capability snapshot. The first call per snapshot generation resolves
// and caches; later calls return the cached pointer without locking.
func (t *Table) Select(name string) (Kernel, error) {
	t.mu.RLock()
	e, ok := t.entries[name]
	t.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q not registered", ErrNotFound, name)
	}

	if r := e.resolved.Load(); r != nil && r.gen == t.detector.Generation() {
		return r.kernel, nil
	}
	return t.resolve(e)
}

// ResolvedTier reports which tier name resolved to. It resolves on
// demand like Select.
func (t *Table) ResolvedTier(name string) (Tier, error) {
	if _, err := t.Select(name); err != nil {
		return TierGeneric, err
	}
	t.mu.RLock()
	e := t.entries[name]
	t.mu.RUnlock()
	return e.resolved.Load().tier, nil
}

// SelectAll eagerly resolves every registered entry. Called at startup
// so the first real-time audio callback never pays resolution latency.
// It returns the first resolution error but keeps resolving the rest.
func (t *Table) SelectAll() error {
	t.mu.RLock()
	all := make([]*entry, 0, len(t.entries))
	for _, e := range t.entries {
		all = append(all, e)
	}
	t.mu.RUnlock()

	var firstErr error
	for _, e := range all {
		if _, err := t.resolve(e); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Len returns the number of registered operations.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// resolve walks the candidate tiers in priority order against the
// current snapshot and publishes the outcome. Resolution is
// deterministic per snapshot generation, so concurrent resolvers of the
// same entry publish identical results.
func (t *Table) resolve(e *entry) (Kernel, error) {
	// Generation is read before the snapshot: if a re-detect lands in
	// between, the resolution is tagged with the older generation and the
	// next Select re-resolves, rather than pinning a stale kernel under
	// the new generation.
	gen := t.detector.Generation()
	caps := t.detector.Cached()

	e.mu.Lock()
	defer e.mu.Unlock()

	if r := e.resolved.Load(); r != nil && r.gen == gen {
		return r.kernel, nil
	}

	for _, tier := range priorityOrder {
		k := e.candidates.at(tier)
		if k == nil {
			continue
		}
		if tier == TierGPU {
			if !caps.GPUAvailable {
				continue
			}
		} else if !caps.HasSIMD(tier.required()) {
			continue
		}

		e.resolved.Store(&resolution{kernel: k, tier: tier, gen: gen})
		logging.Component("kernels").WithFields(map[string]interface{}{
			"op":   e.name,
			"tier": tier.String(),
		}).Debug("kernel resolved")
		return k, nil
	}

	return nil, fmt.Errorf("%w for %q", ErrNotFound, e.name)
}
