// Package overlay implements the layered state view the in-process and
// RPC-fronted executors read from and write to: an in-memory overlay of
// pending writes sitting atop an (optionally empty) base source of truth.
package overlay

import (
	"sync"
)

// DefaultEvictionCap bounds the overlay's FIFO retention of writes. It is
// a defensive bound, not a tuning knob: a campaign that overruns it
// should restart from a fresh base rather than grow the overlay forever.
const DefaultEvictionCap = 100_000

// StateKey addresses a single cell of on-chain state: an object, a Move
// resource, or a module blob, depending on the adapter.
type StateKey string

// Value is an opaque, adapter-defined byte payload.
type Value []byte

// Base is the read-only source of truth an overlay sits on top of. The
// in-process executor uses an EmptyBase; the RPC simulator uses an
// RpcBackingStore satisfying this same interface.
type Base interface {
	Get(key StateKey) (Value, bool)
}

// EmptyBase never has anything: the default base for fuzzing a freshly
// deployed package with no pre-existing state.
type EmptyBase struct{}

// Get always misses.
func (EmptyBase) Get(StateKey) (Value, bool) { return nil, false }

// WriteOp is a single entry of a writeset: either a value to set, or (when
// Value is nil and Delete is true) a tombstone.
type WriteOp struct {
	Key    StateKey
	Value  Value
	Delete bool
}

// WriteSet is the ordered state delta produced by one execution.
type WriteSet []WriteOp

// overlayEntry is stored in the bounded FIFO alongside the key it covers,
// so eviction can also drop the entry out of the lookup map.
type overlayEntry struct {
	key     StateKey
	value   Value
	deleted bool
}

// View is a layered key-value map: overlay consulted first (including
// recorded tombstones), base as fallback.
// Writes only ever land in the overlay; the base is never mutated.
type View struct {
	mu         sync.RWMutex
	base       Base
	latest     map[StateKey]*overlayEntry
	fifo       []*overlayEntry
	evictCap   int
	modules    map[string]Value // module_id -> raw bytes, for fast existence probes
}

// New constructs a View over the given base. A nil base behaves as
// EmptyBase.
func New(base Base) *View {
	if base == nil {
		base = EmptyBase{}
	}
	return &View{
		base:     base,
		latest:   make(map[StateKey]*overlayEntry),
		fifo:     make([]*overlayEntry, 0, 1024),
		evictCap: DefaultEvictionCap,
		modules:  make(map[string]Value),
	}
}

// Get returns overlay[key] if present (including a tombstone, which
// reports ok=true but a nil Value), else falls back to base[key]. Never
// fails.
func (v *View) Get(key StateKey) (Value, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if e, ok := v.latest[key]; ok {
		if e.deleted {
			return nil, true
		}
		return e.value, true
	}
	return v.base.Get(key)
}

// ApplyWriteSet pushes every (key, op) pair from ws into the overlay.
// Either the whole writeset lands or, on no entries, nothing changes —
// there is no partial application because the loop itself never fails
// part-way through a pure in-memory map write.
func (v *View) ApplyWriteSet(ws WriteSet) {
	if len(ws) == 0 {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	for _, op := range ws {
		entry := &overlayEntry{key: op.Key, value: op.Value, deleted: op.Delete}
		v.latest[op.Key] = entry
		v.fifo = append(v.fifo, entry)
	}

	v.evictLocked()
}

// evictLocked drops the oldest overlay writes once the FIFO exceeds its
// cap, removing them from the lookup map only if a newer write for the
// same key hasn't already superseded them.
func (v *View) evictLocked() {
	overflow := len(v.fifo) - v.evictCap
	if overflow <= 0 {
		return
	}

	for i := 0; i < overflow; i++ {
		stale := v.fifo[i]
		if cur, ok := v.latest[stale.key]; ok && cur == stale {
			delete(v.latest, stale.key)
		}
	}
	v.fifo = v.fifo[overflow:]
}

// DeployModule writes the canonical module StateKey and separately
// remembers (module_id -> bytes) for O(1) existence/metadata probes.
func (v *View) DeployModule(moduleID string, key StateKey, bytes Value) {
	v.mu.Lock()
	defer v.mu.Unlock()

	entry := &overlayEntry{key: key, value: bytes}
	v.latest[key] = entry
	v.fifo = append(v.fifo, entry)
	v.modules[moduleID] = bytes
	v.evictLocked()
}

// ModuleBytes returns a previously deployed module's bytes, if known.
func (v *View) ModuleBytes(moduleID string) (Value, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	b, ok := v.modules[moduleID]
	return b, ok
}

// Size reports how many live overlay entries are currently tracked,
// mostly useful for tests and campaign diagnostics.
func (v *View) Size() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.latest)
}
