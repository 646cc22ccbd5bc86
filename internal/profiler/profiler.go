// Package profiler records per-operation latency statistics. Begin/End
// pairs wrap dispatched kernel calls in hot paths, so the critical
// section per call is a handful of integer updates under one mutex.
package profiler

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned by End without a matching Begin, and by
	// Metrics for unknown names.
	ErrNotFound = errors.New("profiler: no such metric")

	// ErrAlreadyActive is returned by Begin while a measurement for the
	// same name is still open. Profiling is not nestable per name.
	ErrAlreadyActive = errors.New("profiler: measurement already active")

	// ErrRegistryFull is returned when the fixed-capacity metric table
	// is exhausted.
	ErrRegistryFull = errors.New("profiler: metric registry full")

	// ErrInvalidArgument is returned for empty names.
	ErrInvalidArgument = errors.New("profiler: invalid argument")
)

// DefaultCapacity bounds the metric table when 0 is passed to New.
const DefaultCapacity = 256

// Metric is the aggregated timing record for one operation name.
type Metric struct {
	Name  string
	Count uint64
	Total time.Duration
	Min   time.Duration
	Max   time.Duration
	// AvgMs is Total/Count in milliseconds, recomputed from the integer
	// totals on every End so it cannot drift.
	AvgMs float64
}

type slot struct {
	m       Metric
	started time.Time
	active  bool
}

// Profiler is a bounded registry of named metrics.
type Profiler struct {
	mu       sync.Mutex
	capacity int
	index    map[string]int
	slots    []slot
}

// New creates a profiler holding at most capacity distinct names.
func New(capacity int) *Profiler {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Profiler{
		capacity: capacity,
		index:    make(map[string]int, capacity),
	}
}

// Begin records the start timestamp for name, creating the metric entry
// on first use.
func (p *Profiler) Begin(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidArgument)
	}
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	i, ok := p.index[name]
	if !ok {
		if len(p.slots) >= p.capacity {
			return fmt.Errorf("%w (capacity %d)", ErrRegistryFull, p.capacity)
		}
		i = len(p.slots)
		p.slots = append(p.slots, slot{m: Metric{Name: name}})
		p.index[name] = i
	}

	s := &p.slots[i]
	if s.active {
		return fmt.Errorf("%w: %q", ErrAlreadyActive, name)
	}
	s.started = now
	s.active = true
	return nil
}

// End closes the open measurement for name and folds the elapsed time
// into the aggregate counters.
func (p *Profiler) End(name string) error {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	i, ok := p.index[name]
	if !ok || !p.slots[i].active {
		return fmt.Errorf("%w: %q has no active measurement", ErrNotFound, name)
	}

	s := &p.slots[i]
	elapsed := now.Sub(s.started)
	s.active = false

	m := &s.m
	m.Count++
	m.Total += elapsed
	if m.Count == 1 || elapsed < m.Min {
		m.Min = elapsed
	}
	if elapsed > m.Max {
		m.Max = elapsed
	}
	m.AvgMs = float64(m.Total.Nanoseconds()) / float64(m.Count) / 1e6
	return nil
}

// Track wraps fn in a Begin/End pair. Registry errors are returned;
// fn always runs.
func (p *Profiler) Track(name string, fn func()) error {
	err := p.Begin(name)
	fn()
	if err != nil {
		return err
	}
	return p.End(name)
}

// Metrics returns a snapshot copy of the metric for name.
func (p *Profiler) Metrics(name string) (Metric, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	i, ok := p.index[name]
	if !ok {
		return Metric{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return p.slots[i].m, nil
}

// Snapshot returns copies of all metrics in registration order.
func (p *Profiler) Snapshot() []Metric {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Metric, len(p.slots))
	for i := range p.slots {
		out[i] = p.slots[i].m
	}
	return out
}

// ResetAll zeroes every counter but keeps the name bindings, so
// long-running sessions can be re-measured without re-registration.
func (p *Profiler) ResetAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.slots {
		name := p.slots[i].m.Name
		p.slots[i] = slot{m: Metric{Name: name}}
	}
}

// Len returns the number of registered metrics.
func (p *Profiler) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.slots)
}
