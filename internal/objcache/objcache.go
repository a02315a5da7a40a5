// Package objcache implements ObjectCache: a per-object LRU of historical
// object versions keyed by content digest, used by the Sui adapter to
// inject stale object versions into later iterations.
package objcache

import (
	"container/list"
	"crypto/rand"
	"math/big"
	"sync"

	"github.com/movefuzz/movefuzz/pkg/types"
)

// DefaultPerObjectCapacity bounds how many distinct digests are retained
// per object id before the least-recently-used version is evicted.
const DefaultPerObjectCapacity = 10_000

// Digest identifies an object's content, independent of which LRU slot it
// currently occupies. Adapters compute this from the on-chain object
// bytes; the cache treats it as an opaque dedup key.
type Digest [32]byte

// Object is the adapter-defined payload stored per (id, digest).
type Object struct {
	Ref   types.ObjectRef
	Bytes []byte
}

// perObjectLRU is a bounded LRU of digest -> Object for a single object
// id, a container/list-backed LRU in the same shape as a response cache.
type perObjectLRU struct {
	capacity int
	items    map[Digest]*list.Element
	order    *list.List
}

type lruEntry struct {
	digest Digest
	object Object
}

func newPerObjectLRU(capacity int) *perObjectLRU {
	return &perObjectLRU{
		capacity: capacity,
		items:    make(map[Digest]*list.Element),
		order:    list.New(),
	}
}

func (l *perObjectLRU) put(digest Digest, obj Object) (inserted bool) {
	if elem, ok := l.items[digest]; ok {
		l.order.MoveToFront(elem)
		return false
	}

	elem := l.order.PushFront(&lruEntry{digest: digest, object: obj})
	l.items[digest] = elem

	for l.order.Len() > l.capacity {
		back := l.order.Back()
		if back == nil {
			break
		}
		entry := back.Value.(*lruEntry)
		delete(l.items, entry.digest)
		l.order.Remove(back)
	}
	return true
}

func (l *perObjectLRU) versions() []Object {
	out := make([]Object, 0, l.order.Len())
	for e := l.order.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*lruEntry).object)
	}
	return out
}

// Cache is ObjectID -> LRU(digest -> Object). Never stores two entries
// with the same (id, digest): Put is
// idempotent for a digest already present, it only promotes recency.
type Cache struct {
	mu       sync.Mutex
	capacity int
	byID     map[types.ObjectID]*perObjectLRU
}

// New constructs a Cache with the given per-object capacity; <= 0 uses
// DefaultPerObjectCapacity.
func New(perObjectCapacity int) *Cache {
	if perObjectCapacity <= 0 {
		perObjectCapacity = DefaultPerObjectCapacity
	}
	return &Cache{
		capacity: perObjectCapacity,
		byID:     make(map[types.ObjectID]*perObjectLRU),
	}
}

// Put records a new (id, digest) -> object version, LRU-evicting the
// least recently used digest for that id if its capacity is exceeded.
func (c *Cache) Put(id types.ObjectID, digest Digest, obj Object) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lru, ok := c.byID[id]
	if !ok {
		lru = newPerObjectLRU(c.capacity)
		c.byID[id] = lru
	}
	lru.put(digest, obj)
}

// Versions returns every cached version for an object id, oldest-evicted
// first having already been dropped, in most-recently-used order.
func (c *Cache) Versions(id types.ObjectID) []Object {
	c.mu.Lock()
	defer c.mu.Unlock()

	lru, ok := c.byID[id]
	if !ok {
		return nil
	}
	return lru.versions()
}

// RandomVersion draws a uniform-random historical version for id, used by
// the between-iteration injection orchestrator to deliberately create
// time travel between state epochs. Returns false if nothing is cached
// for id yet.
func (c *Cache) RandomVersion(id types.ObjectID) (Object, bool) {
	versions := c.Versions(id)
	if len(versions) == 0 {
		return Object{}, false
	}
	idx, err := secureRandomInt(len(versions))
	if err != nil {
		idx = 0
	}
	return versions[idx], true
}

// Len reports how many distinct object ids the cache currently tracks.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byID)
}

// VersionCount reports how many digests are currently cached for id.
func (c *Cache) VersionCount(id types.ObjectID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if lru, ok := c.byID[id]; ok {
		return lru.order.Len()
	}
	return 0
}

func secureRandomInt(n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
