// Package memory tracks allocation statistics for allocations reported to a
// Manager, and offers a Region abstraction for grouping allocations that should be released
// together. Go's garbage collector does the actual freeing; this package
// exists to give the interpreter the same allocation accounting and
// region-scoped lifetime discipline as the reference implementation, not
// to replace the GC.
package memory

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Stats holds running allocation counters. All fields are updated
// atomically so a Manager can be shared across goroutines.
type Stats struct {
	totalAllocated    int64
	peakUsage         int64
	allocationCount   int64
	deallocationCount int64
	largestAllocation int64
}

func (s *Stats) TotalAllocated() int64    { return atomic.LoadInt64(&s.totalAllocated) }
func (s *Stats) PeakUsage() int64         { return atomic.LoadInt64(&s.peakUsage) }
func (s *Stats) AllocationCount() int64   { return atomic.LoadInt64(&s.allocationCount) }
func (s *Stats) DeallocationCount() int64 { return atomic.LoadInt64(&s.deallocationCount) }
func (s *Stats) LargestAllocation() int64 { return atomic.LoadInt64(&s.largestAllocation) }

func (s *Stats) AverageAllocationSize() float64 {
	count := s.AllocationCount()
	if count == 0 {
		return 0
	}
	return float64(s.TotalAllocated()) / float64(count)
}

func (s *Stats) String() string {
	return fmt.Sprintf(
		"Current Total Allocated: %d bytes\nPeak Memory Usage: %d bytes\n"+
			"Number of Allocations: %d\nNumber of Deallocations: %d\n"+
			"Largest Allocation: %d bytes\nAverage Allocation Size: %.2f bytes",
		s.TotalAllocated(), s.PeakUsage(), s.AllocationCount(), s.DeallocationCount(),
		s.LargestAllocation(), s.AverageAllocationSize())
}

// Manager is the top-level allocation accountant. AuditMode, when set,
// records a timestamp and a size for every live allocation so ReportLeaks
// can describe outstanding allocations.
type Manager struct {
	stats     Stats
	auditMode bool

	mu          sync.Mutex
	allocations map[int64]auditEntry
	nextID      int64
}

type auditEntry struct {
	label     string
	size      int64
	createdAt time.Time
}

func New(auditMode bool) *Manager {
	return &Manager{auditMode: auditMode, allocations: make(map[int64]auditEntry)}
}

func (m *Manager) SetAuditMode(enable bool) { m.auditMode = enable }

func (m *Manager) Stats() *Stats { return &m.stats }

// track records an allocation of the given size under label, returning a
// handle used to release it later.
func (m *Manager) track(size int64, label string) int64 {
	atomic.AddInt64(&m.stats.totalAllocated, size)
	atomic.AddInt64(&m.stats.allocationCount, 1)
	for {
		total := atomic.LoadInt64(&m.stats.totalAllocated)
		peak := atomic.LoadInt64(&m.stats.peakUsage)
		if total <= peak || atomic.CompareAndSwapInt64(&m.stats.peakUsage, peak, total) {
			break
		}
	}
	for {
		largest := atomic.LoadInt64(&m.stats.largestAllocation)
		if size <= largest || atomic.CompareAndSwapInt64(&m.stats.largestAllocation, largest, size) {
			break
		}
	}

	if !m.auditMode {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.allocations[id] = auditEntry{label: label, size: size, createdAt: time.Now()}
	return id
}

func (m *Manager) release(id int64, size int64) {
	atomic.AddInt64(&m.stats.totalAllocated, -size)
	atomic.AddInt64(&m.stats.deallocationCount, 1)
	if id == 0 {
		return
	}
	m.mu.Lock()
	delete(m.allocations, id)
	m.mu.Unlock()
}

// ReportLeaks describes every allocation that was tracked in audit mode and
// never released through a Region close.
func (m *Manager) ReportLeaks() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.allocations) == 0 {
		return "No memory leaks detected."
	}
	report := fmt.Sprintf("%d outstanding allocation(s):\n", len(m.allocations))
	for id, entry := range m.allocations {
		report += fmt.Sprintf("- #%d %s: %d bytes, alive %s\n",
			id, entry.label, entry.size, time.Since(entry.createdAt).Round(time.Millisecond))
	}
	return report
}

// Region groups a batch of allocations that are released together, e.g.
// the values a function call or a parallel task creates. It mirrors the
// reference implementation's scoped arena without actually owning memory:
// Close just settles the manager's books, since the Go runtime frees the
// underlying objects once they're unreachable.
type Region struct {
	manager     *Manager
	allocations []regionEntry
	closed      bool
}

type regionEntry struct {
	id   int64
	size int64
}

func (m *Manager) NewRegion() *Region {
	return &Region{manager: m}
}

// Alloc records size bytes as allocated under label and returns a handle
// that Close will release.
func (r *Region) Alloc(size int64, label string) int64 {
	id := r.manager.track(size, label)
	r.allocations = append(r.allocations, regionEntry{id: id, size: size})
	return id
}

// Close releases every allocation the region tracked. It is safe to call
// more than once.
func (r *Region) Close() {
	if r.closed {
		return
	}
	r.closed = true
	for _, entry := range r.allocations {
		r.manager.release(entry.id, entry.size)
	}
	r.allocations = nil
}

// Linear wraps a value with move-only semantics: once Take is called, the
// Linear no longer yields the value, modelling the reference
// implementation's non-copyable owning handle.
type Linear[T any] struct {
	value T
	taken bool
}

func NewLinear[T any](value T) *Linear[T] {
	return &Linear[T]{value: value}
}

// Take consumes the Linear, returning its value. It panics on a second call,
// since a Linear's whole point is single ownership.
func (l *Linear[T]) Take() T {
	if l.taken {
		panic("memory: Linear value already taken")
	}
	l.taken = true
	return l.value
}

// Borrow returns the wrapped value without consuming it.
func (l *Linear[T]) Borrow() T {
	if l.taken {
		panic("memory: Linear value already taken")
	}
	return l.value
}

// SharedRef is a reference-counted handle to a value shared across
// goroutines.
type SharedRef[T any] struct {
	mu    sync.Mutex
	value T
	count int32
}

func NewSharedRef[T any](value T) *SharedRef[T] {
	return &SharedRef[T]{value: value, count: 1}
}

func (r *SharedRef[T]) Retain() *SharedRef[T] {
	atomic.AddInt32(&r.count, 1)
	return r
}

func (r *SharedRef[T]) Release() int32 {
	return atomic.AddInt32(&r.count, -1)
}

func (r *SharedRef[T]) Get() T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value
}
