// Package callsite implements the per-expression-location binding
// cache. A site is created once per static call location and reused
// across every dynamic execution of that location, amortizing binding
// cost across repeated executions at the same site.
package callsite

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/funvibe/latebind/internal/binder"
	"github.com/funvibe/latebind/internal/binding"
	"github.com/funvibe/latebind/internal/config"
	"github.com/funvibe/latebind/internal/envelope"
	"github.com/funvibe/latebind/pkg/dyn"
)

// entry pairs a shape tuple with its binding. lastUsed drives LRU
// eviction and is the only mutable part of an installed entry, so hits
// can bump it without swapping the snapshot.
type entry struct {
	tuple    []dyn.Shape
	bnd      *binding.Binding
	lastUsed atomic.Uint64
}

// cacheState is an immutable snapshot: a bounded inline entry list, or
// the unbounded polymorphic table once the site has been promoted.
// Readers never observe a partially written entry because updates swap
// whole snapshots atomically.
type cacheState struct {
	entries []*entry
	poly    map[string]*entry
}

// Site caches the last N successful bindings for one operation at one
// call location, keyed by the operand shape tuple.
type Site struct {
	id          uuid.UUID
	op          dyn.Op
	binder      *binder.Binder
	capacity    int
	threshold   int
	polymorphic bool

	state      atomic.Pointer[cacheState]
	clock      atomic.Uint64
	missStreak atomic.Uint32

	hits       atomic.Uint64
	misses     atomic.Uint64
	evictions  atomic.Uint64
	promotions atomic.Uint64
	failures   atomic.Uint64
}

func New(b *binder.Binder, op dyn.Op, cache config.CacheConfig) *Site {
	capacity := cache.InlineCapacity
	if capacity <= 0 {
		capacity = config.DefaultInlineCapacity
	}
	threshold := cache.PromotionThreshold
	if threshold <= 0 {
		threshold = config.DefaultPromotionThreshold
	}
	return &Site{
		id:          uuid.New(),
		op:          op,
		binder:      b,
		capacity:    capacity,
		threshold:   threshold,
		polymorphic: cache.PolymorphicEnabled(),
	}
}

// ID identifies the site in stats and diagnostics.
func (s *Site) ID() uuid.UUID { return s.id }

func (s *Site) Op() dyn.Op { return s.op }

// Execute performs the site's operation against the supplied operand
// values: receiver first, then arguments left-to-right. A cache hit
// invokes the cached binding directly; a miss binds, installs the
// result, and executes it. Binding failures are raised as
// DispatchError, never swallowed; errors raised by the bound operation
// itself surface as TargetError.
func (s *Site) Execute(values ...interface{}) (interface{}, error) {
	envs := envelope.WrapAll(values)
	tuple := envelope.Shapes(envs)

	if e := s.lookup(tuple); e != nil {
		s.hits.Add(1)
		s.missStreak.Store(0)
		e.lastUsed.Store(s.clock.Add(1))
		return s.run(e.bnd, values)
	}

	s.misses.Add(1)
	bnd, boundTuple, f := s.bindChecked(envs, tuple, values)
	if f != nil {
		// Only failures the binder marked permanent are cached;
		// transient meta-object errors are not, since host state may
		// change.
		if f.Permanent {
			s.failures.Add(1)
			s.install(boundTuple, binding.NewFailure(f))
		}
		return nil, &dyn.DispatchError{Failure: f}
	}
	s.install(boundTuple, bnd)
	return s.run(bnd, values)
}

// bindChecked binds and rechecks the receiver shape at commit time. A
// shape that mutated during the bind forces one fresh miss cycle before
// the failure surfaces.
func (s *Site) bindChecked(envs []envelope.Envelope, tuple []dyn.Shape, values []interface{}) (*binding.Binding, []dyn.Shape, *dyn.BindFailure) {
	bnd, f := s.binder.Bind(s.op, envs)
	if f != nil {
		return nil, tuple, f
	}
	if len(values) == 0 || envelope.Wrap(values[0]).Shape() == tuple[0] {
		return bnd, tuple, nil
	}

	fresh := envelope.WrapAll(values)
	freshTuple := envelope.Shapes(fresh)
	bnd, f = s.binder.Bind(s.op, fresh)
	if f != nil {
		return nil, freshTuple, f
	}
	if envelope.Wrap(values[0]).Shape() != freshTuple[0] {
		return nil, freshTuple, &dyn.BindFailure{
			Kind:   dyn.ShapeChanged,
			Op:     s.op.Kind(),
			Member: s.op.Member(),
			Shapes: freshTuple,
			Reason: "receiver shape kept mutating during bind",
		}
	}
	return bnd, freshTuple, nil
}

func (s *Site) run(bnd *binding.Binding, values []interface{}) (interface{}, error) {
	out, err := bnd.Invoke(values)
	if err == nil {
		return out, nil
	}
	switch err.(type) {
	case *dyn.DispatchError, *dyn.TargetError:
		return nil, err
	default:
		return nil, &dyn.TargetError{Err: err}
	}
}

// lookup scans the current snapshot without locking.
func (s *Site) lookup(tuple []dyn.Shape) *entry {
	st := s.state.Load()
	if st == nil {
		return nil
	}
	if st.poly != nil {
		return st.poly[dyn.TupleID(tuple)]
	}
	for _, e := range st.entries {
		if dyn.TupleEqual(e.tuple, tuple) {
			return e
		}
	}
	return nil
}

// install publishes a new snapshot containing the entry. Concurrent
// writers race tolerantly: both bind independently and the last
// snapshot wins, so redundant work is wasted but never unsafe.
func (s *Site) install(tuple []dyn.Shape, bnd *binding.Binding) {
	e := &entry{tuple: tuple, bnd: bnd}
	e.lastUsed.Store(s.clock.Add(1))
	for {
		old := s.state.Load()
		next := s.nextState(old, e)
		if s.state.CompareAndSwap(old, next) {
			return
		}
	}
}

func (s *Site) nextState(old *cacheState, e *entry) *cacheState {
	if old == nil {
		return &cacheState{entries: []*entry{e}}
	}
	if old.poly != nil {
		m := make(map[string]*entry, len(old.poly)+1)
		for k, v := range old.poly {
			m[k] = v
		}
		m[dyn.TupleID(e.tuple)] = e
		return &cacheState{poly: m}
	}

	entries := make([]*entry, len(old.entries))
	copy(entries, old.entries)
	for i, x := range entries {
		if dyn.TupleEqual(x.tuple, e.tuple) {
			entries[i] = e
			return &cacheState{entries: entries}
		}
	}
	if len(entries) < s.capacity {
		return &cacheState{entries: append(entries, e)}
	}

	// The inline cache is full. Highly polymorphic sites promote to the
	// unbounded table once the miss streak passes the threshold instead
	// of thrashing the inline entries.
	if s.polymorphic && s.missStreak.Add(1) >= uint32(s.threshold) {
		m := make(map[string]*entry, len(entries)+1)
		for _, x := range entries {
			m[dyn.TupleID(x.tuple)] = x
		}
		m[dyn.TupleID(e.tuple)] = e
		s.promotions.Add(1)
		return &cacheState{poly: m}
	}

	evict := 0
	for i, x := range entries {
		if x.lastUsed.Load() < entries[evict].lastUsed.Load() {
			evict = i
		}
	}
	entries[evict] = e
	s.evictions.Add(1)
	return &cacheState{entries: entries}
}

// Clear drops every cached binding, including permanently failing
// entries, so the next execution re-binds from scratch.
func (s *Site) Clear() {
	s.state.Store(&cacheState{})
	s.missStreak.Store(0)
}

// Stats is a point-in-time snapshot of one site's cache behavior.
type Stats struct {
	Hits        uint64
	Misses      uint64
	Evictions   uint64
	Promotions  uint64
	Failures    uint64
	Entries     int
	Polymorphic bool
}

func (s *Site) Stats() Stats {
	st := s.state.Load()
	stats := Stats{
		Hits:       s.hits.Load(),
		Misses:     s.misses.Load(),
		Evictions:  s.evictions.Load(),
		Promotions: s.promotions.Load(),
		Failures:   s.failures.Load(),
	}
	if st != nil {
		if st.poly != nil {
			stats.Polymorphic = true
			stats.Entries = len(st.poly)
		} else {
			stats.Entries = len(st.entries)
		}
	}
	return stats
}
