// Package coverage implements the AFL-style edge-coverage observer, the
// coverage/shift/new-abort feedback and objective decisions, and the
// in-memory corpus/solutions sets.
package coverage

import (
	"hash/fnv"
)

// DefaultMapSize is the fixed edge-map size (2^16).
const DefaultMapSize = 65536

// Map is a fixed-size saturating hitcount table. Index =
// (previous_location XOR current_location) &
// (SIZE-1); previous_location is retained across the PCs of a single
// execution, and shifted right by one bit between edges.
type Map struct {
	bitmap       []byte
	size         uint32
	prevLocation uint32
}

// NewMap allocates an edge map of the given size (rounded down to the
// nearest power of two, minimum 256); size <= 0 uses DefaultMapSize.
func NewMap(size int) *Map {
	if size <= 0 {
		size = DefaultMapSize
	}
	p := 256
	for p*2 <= size {
		p *= 2
	}
	return &Map{bitmap: make([]byte, p), size: uint32(p)}
}

// Reset zeroes the bitmap and resets previous_location, readying the map
// for the next execution. Observers are always reset before an
// execution,.
func (m *Map) Reset() {
	for i := range m.bitmap {
		m.bitmap[i] = 0
	}
	m.prevLocation = 0
}

// RecordTrace folds a single execution's PC trace into the map using the
// classical AFL path-sensitive edge hash, baseID disambiguating the
// producing function (or script).6.
func (m *Map) RecordTrace(baseID uint32, pcTrace []uint32) {
	mask := m.size - 1
	for _, pc := range pcTrace {
		current := baseID ^ pc
		idx := (current ^ m.prevLocation) & mask
		if m.bitmap[idx] != 255 {
			m.bitmap[idx]++
		}
		m.prevLocation = current >> 1
	}
}

// Bytes exposes the raw bitmap; callers must not retain it across a
// Reset.
func (m *Map) Bytes() []byte { return m.bitmap }

// Clone returns an independent copy of the current bitmap contents, sized
// identically to m.
func (m *Map) Clone() []byte {
	out := make([]byte, len(m.bitmap))
	copy(out, m.bitmap)
	return out
}

// EdgesCovered counts non-zero buckets.
func (m *Map) EdgesCovered() int {
	n := 0
	for _, v := range m.bitmap {
		if v > 0 {
			n++
		}
	}
	return n
}

// BaseIDForFunction computes the fnv1a32 hash of a module address, module
// name and function name, used as base_id for entry-function calls.
func BaseIDForFunction(moduleAddress [32]byte, moduleName, functionName string) uint32 {
	h := fnv.New32a()
	h.Write(moduleAddress[:])
	h.Write([]byte(moduleName))
	h.Write([]byte(functionName))
	return h.Sum32()
}

// BaseIDForScript computes the fnv1a32 hash of raw script bytes, used as
// base_id for script payloads.
func BaseIDForScript(scriptBytes []byte) uint32 {
	h := fnv.New32a()
	h.Write(scriptBytes)
	return h.Sum32()
}
