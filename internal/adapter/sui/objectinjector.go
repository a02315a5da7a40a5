package sui

import (
	"github.com/movefuzz/movefuzz/internal/adapter"
	"github.com/movefuzz/movefuzz/internal/fuzzinput"
	"github.com/movefuzz/movefuzz/internal/objcache"
	"github.com/movefuzz/movefuzz/pkg/types"
)

// ObjectInjector is the C12 between-iteration orchestrator: after an
// execution, it records every shared-mutable object change into the
// cache; before the next mutation, it draws a uniform-random historical
// version for each shared-mutable object-ref argument and substitutes it
// in, deliberately time-travelling across state epochs.
type ObjectInjector struct {
	cache *objcache.Cache
}

// NewObjectInjector constructs an ObjectInjector around a fresh
// per-object-capacity-bounded ObjectCache.
func NewObjectInjector(perObjectCapacity int) *ObjectInjector {
	return &ObjectInjector{cache: objcache.New(perObjectCapacity)}
}

// RecordChanges feeds every shared-mutable object change from the last
// execution into the cache; owned and shared-immutable changes are
// ignored,.10's scope.
func (o *ObjectInjector) RecordChanges(changes []adapter.ObjectChange) {
	for _, c := range changes {
		if c.Ownership != types.SharedMutableObject {
			continue
		}
		ref := types.ObjectRef{ID: c.ID, Digest: c.Digest, Ownership: c.Ownership}
		o.cache.Put(c.ID, objcache.Digest(c.Digest), objcache.Object{Ref: ref, Bytes: c.Bytes})
	}
}

// InjectHistoricalVersions substitutes, for each argument of in that
// carries a shared-mutable ObjectRef, a uniform-random historical
// version drawn from that object id's LRU (if any versions are cached).
// Mutates in in place, matching the mutator package's clone-then-mutate
// convention (the caller is expected to have already cloned).
func (o *ObjectInjector) InjectHistoricalVersions(in *fuzzinput.Input) {
	for i := range in.Args {
		injectArg(o.cache, &in.Args[i])
	}
}

func injectArg(cache *objcache.Cache, v *types.Value) {
	if v.Kind == types.KindObjectRef && v.ObjectRef != nil && v.ObjectRef.Ownership == types.SharedMutableObject {
		if obj, ok := cache.RandomVersion(v.ObjectRef.ID); ok {
			ref := obj.Ref
			v.ObjectRef = &ref
		}
		return
	}
	if v.Kind == types.KindVector {
		for i := range v.Vector {
			injectArg(cache, &v.Vector[i])
		}
	}
}
