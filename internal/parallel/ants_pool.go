package parallel

import (
	"sync"

	"github.com/panjf2000/ants/v2"
)

// AntsPool wraps an ants.Pool for short-lived, CPU-bound fan-out work
// (per-finding TLSH hash computation during solution dedup): callers
// just want N independent closures run across a bounded goroutine pool
// and a place to wait for all of them.
type AntsPool struct {
	pool *ants.Pool
}

// NewAntsPool creates an AntsPool with the given worker capacity. A
// non-positive size falls back to ants' own default.
func NewAntsPool(size int) (*AntsPool, error) {
	if size <= 0 {
		size = ants.DefaultAntsPoolSize
	}
	p, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}
	return &AntsPool{pool: p}, nil
}

// Go submits fn to the pool, blocking if every worker is busy.
func (a *AntsPool) Go(fn func()) error {
	return a.pool.Submit(fn)
}

// Wait runs fns across the pool and blocks until every one completes.
func (a *AntsPool) Wait(fns ...func()) error {
	var wg sync.WaitGroup
	wg.Add(len(fns))
	for _, fn := range fns {
		fn := fn
		if err := a.pool.Submit(func() {
			defer wg.Done()
			fn()
		}); err != nil {
			wg.Done()
			return err
		}
	}
	wg.Wait()
	return nil
}

// Running reports the number of workers currently executing a task.
func (a *AntsPool) Running() int {
	return a.pool.Running()
}

// Release frees all idle workers and stops the pool.
func (a *AntsPool) Release() {
	a.pool.Release()
}
