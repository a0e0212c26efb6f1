// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flate

import "sync"

// Allocator supplies a Decoder's largest allocation, the 32KiB sliding
// window; Huffman tables are allocated by the Decoder itself. Spec §9
// calls this out as a pluggable abstraction so embedders that decode many
// short streams can reuse buffers instead of paying a fresh allocation per
// Decoder; pool.Pool is the concrete consumer of this hook.
type Allocator interface {
	// getWindow returns a *window ready for use, possibly reused.
	getWindow() *window
	// putWindow returns a *window the caller no longer needs.
	putWindow(*window)
}

// defaultAllocator allocates a fresh window every time and never reuses one;
// it is what every Decoder gets unless told otherwise via WithAllocator.
type defaultAllocator struct{}

func (defaultAllocator) getWindow() *window  { return new(window) }
func (defaultAllocator) putWindow(*window)   {}

// syncPoolAllocator backs getWindow/putWindow with a sync.Pool, the same
// reuse strategy pool.Pool layers dictionary-aware eviction on top of.
type syncPoolAllocator struct {
	pool sync.Pool
}

// NewPooledAllocator returns an Allocator that recycles windows through a
// sync.Pool instead of allocating one per Decoder.
func NewPooledAllocator() Allocator {
	a := &syncPoolAllocator{}
	a.pool.New = func() interface{} { return new(window) }
	return a
}

func (a *syncPoolAllocator) getWindow() *window {
	return a.pool.Get().(*window)
}

func (a *syncPoolAllocator) putWindow(w *window) {
	w.reset()
	a.pool.Put(w)
}
