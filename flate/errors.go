// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flate

import "strconv"

// Kind enumerates the terminal error conditions a Decoder can report. Once a
// Decoder returns an error it moves to the bad state and every subsequent
// call to Inflate returns the same error until Reset.
type Kind int

const (
	// BadState reports a call made in an invalid order, such as
	// SetDictionary after input has already been consumed.
	BadState Kind = iota
	// OOM reports that table or window allocation failed.
	OOM
	// BadBlock reports block type 3 (reserved) or a STORED block whose
	// length and one's-complement length disagree.
	BadBlock
	// BadTree reports a malformed dynamic Huffman header: an
	// over-subscribed or under-subscribed code, HLIT/HDIST out of range,
	// a missing end-of-block code, or a length-repeat that over/underflows.
	BadTree
	// BadCode reports that the decoder consumed a bit pattern whose table
	// entry is invalid.
	BadCode
	// FarOffset reports a back-reference distance exceeding the bytes
	// available in the window plus the current output.
	FarOffset
	// InputEnd reports that more input was required but the caller
	// declared, via the finalInput argument to Inflate, that no more
	// input would arrive.
	InputEnd
)

func (k Kind) String() string {
	switch k {
	case BadState:
		return "invalid call order"
	case OOM:
		return "allocation failed"
	case BadBlock:
		return "corrupt block header"
	case BadTree:
		return "corrupt Huffman tree"
	case BadCode:
		return "corrupt Huffman code"
	case FarOffset:
		return "back-reference distance too far"
	case InputEnd:
		return "unexpected end of input"
	default:
		return "unknown flate error"
	}
}

// Error reports corrupt input, an internal error, or a protocol violation at
// a given offset into the input stream consumed so far.
type Error struct {
	Kind   Kind
	Offset int64
}

func (e *Error) Error() string {
	return "flate: " + e.Kind.String() + " at offset " + strconv.FormatInt(e.Offset, 10)
}

// fail records a terminal error at the decoder's current cumulative input
// offset (bytes consumed in prior Inflate calls plus bytes consumed so far
// in this one) and moves the Decoder to its bad state.
func (d *Decoder) fail(kind Kind) error {
	err := &Error{Kind: kind, Offset: d.roffset + int64(d.br.pos)}
	d.state = stateBad
	d.err = err
	return err
}
