package overlay

import "testing"

type mapBase map[StateKey]Value

func (m mapBase) Get(key StateKey) (Value, bool) {
	v, ok := m[key]
	return v, ok
}

func TestOverlayCoherence(t *testing.T) {
	base := mapBase{"k2": Value("from-base")}
	v := New(base)

	v.ApplyWriteSet(WriteSet{
		{Key: "k1", Value: Value("v1")},
		{Key: "k2", Delete: true},
	})

	got, ok := v.Get("k1")
	if !ok || string(got) != "v1" {
		t.Fatalf("k1 = %q, %v; want v1, true", got, ok)
	}

	got, ok = v.Get("k2")
	if !ok || got != nil {
		t.Fatalf("k2 = %q, %v; want nil, true (tombstone hides base)", got, ok)
	}
}

func TestOverlayFallsBackToBase(t *testing.T) {
	base := mapBase{"only-in-base": Value("base-value")}
	v := New(base)

	got, ok := v.Get("only-in-base")
	if !ok || string(got) != "base-value" {
		t.Fatalf("got %q, %v; want base-value, true", got, ok)
	}

	_, ok = v.Get("missing-everywhere")
	if ok {
		t.Fatalf("expected miss for a key in neither overlay nor base")
	}
}

func TestOverlayEvictionIsFIFO(t *testing.T) {
	v := New(nil)
	v.evictCap = 4

	keys := []StateKey{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	for i, k := range keys {
		v.ApplyWriteSet(WriteSet{{Key: k, Value: Value{byte(i)}}})
	}

	if v.Size() > 4 {
		t.Fatalf("Size() = %d; want <= 4 after eviction", v.Size())
	}

	// The earliest keys should have been evicted; the latest ones remain.
	if _, ok := v.Get("j"); !ok {
		t.Fatalf("expected most recent key 'j' to survive eviction")
	}
}

func TestDeployModule(t *testing.T) {
	v := New(nil)
	v.DeployModule("0x1::counter", "module:0x1::counter", Value{0xde, 0xad})

	b, ok := v.ModuleBytes("0x1::counter")
	if !ok || len(b) != 2 {
		t.Fatalf("ModuleBytes() = %v, %v; want 2-byte blob", b, ok)
	}

	got, ok := v.Get("module:0x1::counter")
	if !ok || len(got) != 2 {
		t.Fatalf("Get(module key) = %v, %v; want the deployed bytes", got, ok)
	}
}
