// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flate

import (
	"bytes"
	"testing"
)

func TestWindowCopyMatchNonOverlapping(t *testing.T) {
	var w window
	w.write([]byte("abcdefgh"))

	dst := make([]byte, 3)
	n, err := w.copyMatch(dst, 3, 8, 8) // copy "abc" from the very start
	if err != nil {
		t.Fatalf("copyMatch: %v", err)
	}
	if n != 3 || !bytes.Equal(dst, []byte("abc")) {
		t.Fatalf("got %d %q, want 3 %q", n, dst, "abc")
	}
}

func TestWindowCopyMatchOverlapping(t *testing.T) {
	var w window
	w.write([]byte("a"))

	// distance=1, length=5: classic RLE-style overlap, each copied byte
	// must be visible to the next iteration of the same copy.
	dst := make([]byte, 5)
	n, err := w.copyMatch(dst, 5, 1, 1)
	if err != nil {
		t.Fatalf("copyMatch: %v", err)
	}
	if n != 5 || !bytes.Equal(dst, []byte("aaaaa")) {
		t.Fatalf("got %d %q, want 5 %q", n, dst, "aaaaa")
	}
}

func TestWindowCopyMatchFarOffset(t *testing.T) {
	var w window
	w.write([]byte("abc"))

	dst := make([]byte, 1)
	_, err := w.copyMatch(dst, 1, 10, 3)
	if err != errFarOffset {
		t.Fatalf("got %v, want errFarOffset", err)
	}
}

func TestWindowCopyMatchBoundedByOutputSoFar(t *testing.T) {
	// Distance is within the bytes the buffer holds (a 3-byte dictionary,
	// distance 3) but beyond the outputSoFar the caller reports (0), so
	// copyMatch rejects it on that count alone.
	var w window
	w.setDictionary([]byte("abc"))

	dst := make([]byte, 1)
	_, err := w.copyMatch(dst, 1, 3, 0)
	if err != errFarOffset {
		t.Fatalf("got %v, want errFarOffset", err)
	}
}

func TestWindowWraparound(t *testing.T) {
	var w window
	// Fill past windowSize so the circular buffer wraps at least once.
	first := bytes.Repeat([]byte{0xAA}, windowSize)
	w.write(first)
	if w.count != windowSize {
		t.Fatalf("count = %d, want %d", w.count, windowSize)
	}

	tail := []byte("zzzz")
	w.write(tail)
	if w.count != windowSize {
		t.Fatalf("count = %d after wraparound write, want still %d", w.count, windowSize)
	}

	dst := make([]byte, len(tail))
	n, err := w.copyMatch(dst, len(tail), len(tail), windowSize+len(tail))
	if err != nil {
		t.Fatalf("copyMatch: %v", err)
	}
	if n != len(tail) || !bytes.Equal(dst, tail) {
		t.Fatalf("got %d %q, want %d %q", n, dst, len(tail), tail)
	}
}

func TestWindowSetDictionaryTruncatesToWindowSize(t *testing.T) {
	var w window
	dict := make([]byte, windowSize+100)
	for i := range dict {
		dict[i] = byte(i)
	}
	w.setDictionary(dict)
	if w.count != windowSize {
		t.Fatalf("count = %d, want %d", w.count, windowSize)
	}

	want := dict[len(dict)-1]
	dst := make([]byte, 1)
	_, err := w.copyMatch(dst, 1, 1, windowSize)
	if err != nil {
		t.Fatalf("copyMatch: %v", err)
	}
	if dst[0] != want {
		t.Fatalf("got %#x, want %#x", dst[0], want)
	}
}
