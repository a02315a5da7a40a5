package sui

import (
	"testing"

	"github.com/movefuzz/movefuzz/internal/adapter"
	"github.com/movefuzz/movefuzz/internal/fuzzinput"
	"github.com/movefuzz/movefuzz/internal/objcache"
	"github.com/movefuzz/movefuzz/pkg/types"
)

func TestObjectInjectorRecordsOnlySharedMutable(t *testing.T) {
	oi := NewObjectInjector(4)
	id := types.ObjectID{1}
	changes := []adapter.ObjectChange{
		{ID: id, Ownership: types.OwnedObject, Digest: [32]byte{1}, Bytes: []byte("a")},
		{ID: id, Ownership: types.SharedMutableObject, Digest: [32]byte{2}, Bytes: []byte("b")},
	}
	oi.RecordChanges(changes)

	if oi.cache.VersionCount(id) != 1 {
		t.Fatalf("VersionCount = %d; want 1 (only the shared-mutable change recorded)", oi.cache.VersionCount(id))
	}
}

func TestInjectHistoricalVersionsSubstitutesSharedMutableRef(t *testing.T) {
	oi := NewObjectInjector(4)
	id := types.ObjectID{7}
	oi.cache.Put(id, objcache.Digest{9}, objcache.Object{
		Ref:   types.ObjectRef{ID: id, Ownership: types.SharedMutableObject, Version: 42},
		Bytes: []byte("historical"),
	})

	in := &fuzzinput.Input{
		Args: []types.Value{
			{Kind: types.KindObjectRef, ObjectRef: &types.ObjectRef{ID: id, Ownership: types.SharedMutableObject, Version: 1}},
		},
	}
	oi.InjectHistoricalVersions(in)

	if in.Args[0].ObjectRef.Version != 42 {
		t.Fatalf("expected the shared-mutable ref to be replaced with the cached historical version, got %+v", in.Args[0].ObjectRef)
	}
}
