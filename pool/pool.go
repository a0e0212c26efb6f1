// Package pool keeps a bounded set of reusable flate.Decoder instances,
// keyed by the preset dictionary (if any) each was last configured with, so
// a server decoding many short streams against a handful of known
// dictionaries doesn't pay a fresh window allocation per request.
package pool

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-tinylfu"

	"github.com/coreos/inflate/flate"
	"github.com/coreos/inflate/stop"
)

// Pool hands out *flate.Decoder values, reusing one already configured with
// the requested dictionary when the cache holds one under eviction
// pressure, per spec §9's allocator note and §5's "distinct instances are
// independent" guarantee (a Decoder taken from the pool is always Reset
// before use, so no state leaks between callers).
//
// Grounded on §9's pluggable-allocator design note; no teacher file does
// this (zran/flate/inflate.go's HuffmanDecoder is allocated fresh per call),
// so the cache shape is adapted from
// elliotnunn-BeHierarchic/internal/spinner/concurrent.go's tinylfu-backed
// block cache, generalized from byte-slice blocks to *flate.Decoder values.
type Pool struct {
	mu     sync.Mutex
	cache  *tinylfu.T[uint64, *flate.Decoder]
	closed bool
}

// New returns a Pool that retains up to size decoders, evicting the least
// valuable (by tinylfu's admission/frequency policy) once full.
func New(size int) *Pool {
	p := &Pool{}
	p.cache = tinylfu.New[uint64, *flate.Decoder](size, size*10, identityHash, tinylfu.OnEvict(p.onEvict))
	return p
}

// identityHash satisfies tinylfu's hasher signature for a key that is
// already a well-distributed 64-bit hash (see dictKey).
func identityHash(k uint64) uint64 { return k }

// dictKey fingerprints a preset dictionary so decoders configured with the
// same dictionary bytes land in the same cache bucket. The empty dictionary
// (the common case: no preset dictionary at all) gets its own fixed key
// rather than hashing a zero-length slice through xxhash for no reason.
func dictKey(dict []byte) uint64 {
	if len(dict) == 0 {
		return 0
	}
	return xxhash.Sum64(dict)
}

// Get returns a Decoder ready to decode a stream using dict as its preset
// dictionary (nil or empty for none), reusing a pooled one if available.
func (p *Pool) Get(dict []byte) *flate.Decoder {
	key := dictKey(dict)

	p.mu.Lock()
	d, ok := p.cache.Get(key)
	p.mu.Unlock()

	if !ok {
		d = flate.NewDecoder(flate.WithAllocator(flate.NewPooledAllocator()))
	} else {
		d.Reset()
	}
	if len(dict) > 0 {
		// SetDictionary only fails on a Decoder mid-stream; a freshly
		// Reset one is always eligible.
		_ = d.SetDictionary(dict)
	}
	return d
}

// Put returns d to the pool for reuse by a future Get with the same
// dictionary. Callers must not use d again after calling Put.
func (p *Pool) Put(dict []byte, d *flate.Decoder) {
	key := dictKey(dict)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		d.Release()
		return
	}
	p.cache.Add(key, d)
}

// onEvict releases a decoder's window allocation back to its allocator when
// tinylfu's policy pushes it out of the cache.
func (p *Pool) onEvict(_ uint64, d *flate.Decoder) {
	d.Release()
}

// Stop satisfies stop.Stoppable so a Pool can be registered in a
// stop.Group alongside the rest of an embedder's shutdown sequence. Further
// Put calls after Stop release their decoder immediately instead of
// re-entering the cache.
func (p *Pool) Stop() <-chan struct{} {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return stop.AlreadyDone
}

var _ stop.Stoppable = (*Pool)(nil)
