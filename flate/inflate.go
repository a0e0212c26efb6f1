// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package flate implements a streaming, suspendable RFC 1951 DEFLATE
// decompressor. Unlike compress/flate, a Decoder never blocks on an
// io.Reader: callers feed it whatever input bytes they currently have and
// drain whatever output space they currently have, and Inflate returns
// control the moment either runs out, ready to resume on the next call with
// more of either.
package flate

// decState is the block decoder's top-level phase, spec §3's "block state".
type decState int

const (
	stateHeader decState = iota
	stateStoredLen
	stateStoredCopy
	stateDynamicHeader
	stateDecoding
	stateDone
	stateBad
)

// decodeSubstate is the DECODING phase's own five-way split (spec §4.4.2):
// a literal/length block body suspends at a different point depending on
// whether it was waiting on a symbol, extra bits, or an in-flight copy.
type decodeSubstate int

const (
	subSymbol decodeSubstate = iota
	subLenExtra
	subDistSymbol
	subDistExtra
	subCopy
)

// dynState is the DYNAMIC block header's own sub-machine (spec §4.4.1):
// HLIT/HDIST/HCLEN, the 19 code-length code lengths, then the HLIT+HDIST
// code lengths themselves (which are *also* Huffman coded, via repeat codes
// 16/17/18), then table construction.
type dynState int

const (
	dynCounts dynState = iota
	dynCodeLenLens
	dynLens
	dynRepeatExtra
	dynBuildTables
)

// Result reports why Inflate returned control to the caller.
type Result int

const (
	// ResultSourceExhausted means src was fully consumed but the stream is
	// not finished; call again with more input.
	ResultSourceExhausted Result = iota
	// ResultTargetExhausted means dst was fully written but the stream is
	// not finished; call again with a fresh dst.
	ResultTargetExhausted
	// ResultStreamEnd means the final block (BFINAL=1) was fully decoded.
	// Any remaining bytes of src past nsrc were not consumed.
	ResultStreamEnd
)

// Option configures a Decoder at construction time.
type Option func(*Decoder)

// WithAllocator overrides the default per-Decoder window allocation with a
// shared Allocator, letting a pool of Decoders reuse window buffers.
func WithAllocator(a Allocator) Option {
	return func(d *Decoder) { d.alloc = a }
}

// Decoder holds all state needed to decompress a DEFLATE stream across any
// number of Inflate calls. It is not safe for concurrent use; run each
// stream's Decoder on one goroutine at a time (spec §5).
type Decoder struct {
	br    bitReader
	win   *window
	alloc Allocator

	state   decState
	err     error
	roffset int64 // bytes consumed across all prior Inflate calls

	final bool // BFINAL of the block currently (or most recently) in progress

	// STORED block (state stateStoredLen / stateStoredCopy)
	storedRemain int

	// DYNAMIC header (state stateDynamicHeader)
	dyn          dynState
	numLit       int
	numDist      int
	numCodeLen   int
	codeLenLens  [19]int
	codeLenTable table
	lens         []int // length numLit+numDist, concatenated lit/len then dist lengths
	lensIdx      int
	prevLen      int
	repeatSym    int // 16, 17, or 18 while its extra bits are pending

	litLenTable table
	distTable   table

	// DECODING (state stateDecoding)
	sub        decodeSubstate
	length     int
	lenExtra   uint8
	distance   int
	distExtra  uint8
	copyRemain int

	dst      []byte
	dstPos   int
	srcFinal bool

	outputCount int // total bytes ever written across the stream, for FarOffset checks
}

// NewDecoder returns a Decoder ready to decode a new DEFLATE stream.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{alloc: defaultAllocator{}}
	for _, opt := range opts {
		opt(d)
	}
	d.win = d.alloc.getWindow()
	d.Reset()
	return d
}

// Reset discards all state and prepares the Decoder to decode a new,
// unrelated stream, reusing its window allocation.
func (d *Decoder) Reset() {
	if d.win == nil {
		d.win = d.alloc.getWindow()
	}
	d.win.reset()
	d.br = bitReader{}
	d.state = stateHeader
	d.err = nil
	d.roffset = 0
	d.final = false
	d.outputCount = 0
}

// Release returns the Decoder's window to its Allocator. The Decoder must
// not be used again afterward unless Reset is called, which allocates a
// fresh window.
func (d *Decoder) Release() {
	if d.win != nil {
		d.alloc.putWindow(d.win)
		d.win = nil
	}
}

// SetDictionary seeds the window with a preset dictionary, per RFC 1951's
// preset-dictionary mechanism (used by zlib framing). It must be called
// before any input has been fed to Inflate.
func (d *Decoder) SetDictionary(dict []byte) error {
	if d.state != stateHeader || d.roffset != 0 {
		return d.fail(BadState)
	}
	d.win.setDictionary(dict)
	d.outputCount = len(dict)
	return nil
}

// Err returns the terminal error, if any, that moved the Decoder to its bad
// state.
func (d *Decoder) Err() error { return d.err }

// Inflate consumes a prefix of src and produces a prefix of dst. It returns
// how many bytes of each it used and why it stopped. srcFinal tells the
// Decoder that src's unconsumed remainder, once drained, is the end of the
// compressed stream with no further input coming; a Decoder that still
// needs bits after srcFinal's bytes run out returns InputEnd.
//
// Grounded on zran/flate/inflate.go's NextBlock/readHuffman/huffmanBlock/
// dataBlock step functions, restructured from io.Reader-blocking calls into
// an explicit phase machine that suspends instead of blocking (spec §9).
func (d *Decoder) Inflate(src []byte, srcFinal bool, dst []byte) (nsrc, ndst int, result Result, err error) {
	if d.state == stateBad {
		return 0, 0, ResultSourceExhausted, d.err
	}
	d.br.setSource(src)
	d.srcFinal = srcFinal
	d.dst = dst
	d.dstPos = 0

	res, err := d.run()

	// On ResultSourceExhausted every byte of src has been taken: bits still
	// short of a whole symbol stay in the reservoir for the next call. On
	// any other result, whole bytes pulled from this src ahead of need (by
	// the fast path's refillWide in particular) are handed back before
	// reporting how much of src was consumed, so a caller re-reading past
	// nsrc (a gzip/zlib trailer, the next concatenated member) never finds
	// those bytes missing.
	if res != ResultSourceExhausted && d.br.nbits/8 <= uint(d.br.pos) {
		d.br.alignSuspend()
	}

	nsrc = d.br.consumed()
	ndst = d.dstPos
	d.roffset += int64(nsrc)
	return nsrc, ndst, res, err
}

// needBits ensures n bits are available, returning ok=false if the caller
// must supply more input (or, if srcFinal was set, an InputEnd error).
func (d *Decoder) needBits(n uint) (ok bool, err error) {
	if d.br.tryEnsure(n) {
		return true, nil
	}
	if d.srcFinal {
		return false, d.fail(InputEnd)
	}
	return false, nil
}

// run is the phase dispatch loop. Each case either makes progress and falls
// through to the next state, or returns because it needs more input, more
// output space, or has hit a terminal condition.
func (d *Decoder) run() (Result, error) {
	for {
		switch d.state {
		case stateHeader:
			if res, err, done := d.stepHeader(); done {
				return res, err
			}

		case stateStoredLen:
			if res, err, done := d.stepStoredLen(); done {
				return res, err
			}

		case stateStoredCopy:
			if res, err, done := d.stepStoredCopy(); done {
				return res, err
			}

		case stateDynamicHeader:
			if res, err, done := d.stepDynamicHeader(); done {
				return res, err
			}

		case stateDecoding:
			if res, err, done := d.stepDecoding(); done {
				return res, err
			}

		case stateDone:
			return ResultStreamEnd, nil

		default:
			return ResultSourceExhausted, d.fail(BadState)
		}
	}
}

// stepHeader reads BFINAL (1 bit) and BTYPE (2 bits) and dispatches to the
// matching block kind.
func (d *Decoder) stepHeader() (Result, error, bool) {
	ok, err := d.needBits(3)
	if err != nil {
		return 0, err, true
	}
	if !ok {
		return ResultSourceExhausted, nil, true
	}

	bits := d.br.take(3)
	d.final = bits&1 != 0
	switch bits >> 1 {
	case 0: // STORED
		d.br.alignToByte()
		d.state = stateStoredLen

	case 1: // fixed Huffman
		lit, dist, err := fixedTables()
		if err != nil {
			return 0, d.fail(OOM), true
		}
		d.litLenTable, d.distTable = lit, dist
		d.sub = subSymbol
		d.state = stateDecoding

	case 2: // dynamic Huffman
		d.dyn = dynCounts
		d.state = stateDynamicHeader

	default: // 3, reserved
		return 0, d.fail(BadBlock), true
	}
	return 0, nil, false
}

// stepStoredLen reads a STORED block's 4-byte LEN/NLEN header.
func (d *Decoder) stepStoredLen() (Result, error, bool) {
	ok, err := d.needBits(32)
	if err != nil {
		return 0, err, true
	}
	if !ok {
		return ResultSourceExhausted, nil, true
	}
	hdr := d.br.take(32)
	length := hdr & 0xffff
	nlength := hdr >> 16
	if length != nlength^0xffff {
		return 0, d.fail(BadBlock), true
	}
	d.storedRemain = int(length)
	d.state = stateStoredCopy
	return 0, nil, false
}

// stepStoredCopy copies a STORED block's raw bytes directly from the input,
// draining any whole bytes the reservoir had pre-buffered before reading
// straight from src.
func (d *Decoder) stepStoredCopy() (Result, error, bool) {
	for d.storedRemain > 0 {
		if d.dstPos >= len(d.dst) {
			return ResultTargetExhausted, nil, true
		}
		b, ok := d.readAlignedByte()
		if !ok {
			if d.srcFinal {
				return 0, d.fail(InputEnd), true
			}
			return ResultSourceExhausted, nil, true
		}
		d.dst[d.dstPos] = b
		d.dstPos++
		d.win.writeByte(b)
		d.outputCount++
		d.storedRemain--
	}
	d.state = d.nextBlockState()
	return 0, nil, false
}

// readAlignedByte returns the next whole byte, preferring bits already
// sitting in the reservoir (left over from alignToByte's discard of a
// partial byte) before reading fresh bytes from src.
func (d *Decoder) readAlignedByte() (byte, bool) {
	if d.br.nbits >= 8 {
		return byte(d.br.take(8)), true
	}
	if d.br.pos < len(d.br.src) {
		b := d.br.src[d.br.pos]
		d.br.pos++
		return b, true
	}
	return 0, false
}

// nextBlockState returns to stateHeader for another block, or stateDone if
// the block just finished was the final one.
func (d *Decoder) nextBlockState() decState {
	if d.final {
		return stateDone
	}
	return stateHeader
}

// stepDynamicHeader parses a DYNAMIC block's header: HLIT/HDIST/HCLEN, the
// 19 code-length code lengths, then the HLIT+HDIST code lengths themselves
// (Huffman coded via the code-length table, with repeat codes 16/17/18),
// then builds the two resulting tables.
//
// Grounded on zran/flate/inflate.go's readHuffman.
func (d *Decoder) stepDynamicHeader() (Result, error, bool) {
	for {
		switch d.dyn {
		case dynCounts:
			ok, err := d.needBits(14)
			if err != nil {
				return 0, err, true
			}
			if !ok {
				return ResultSourceExhausted, nil, true
			}
			hlit := int(d.br.take(5)) + 257
			hdist := int(d.br.take(5)) + 1
			hclen := int(d.br.take(4)) + 4
			if hlit > 286 || hdist > 30 {
				return 0, d.fail(BadTree), true
			}
			d.numLit = hlit
			d.numDist = hdist
			d.numCodeLen = hclen
			for i := range d.codeLenLens {
				d.codeLenLens[i] = 0
			}
			d.lensIdx = 0
			d.dyn = dynCodeLenLens

		case dynCodeLenLens:
			for d.lensIdx < d.numCodeLen {
				ok, err := d.needBits(3)
				if err != nil {
					return 0, err, true
				}
				if !ok {
					return ResultSourceExhausted, nil, true
				}
				d.codeLenLens[codeLengthOrder[d.lensIdx]] = int(d.br.take(3))
				d.lensIdx++
			}
			tbl, err := buildCodeLenTable(d.codeLenLens[:])
			if err != nil {
				return 0, d.fail(BadTree), true
			}
			d.codeLenTable = tbl
			d.lens = make([]int, d.numLit+d.numDist)
			d.lensIdx = 0
			d.prevLen = 0
			d.dyn = dynLens

		case dynLens:
			done := false
			for d.lensIdx < len(d.lens) {
				e, ok, err := d.decodeSymbol(d.codeLenTable)
				if err != nil {
					return 0, err, true
				}
				if !ok {
					return ResultSourceExhausted, nil, true
				}
				sym := int(e.info)
				switch {
				case sym < 16:
					d.lens[d.lensIdx] = sym
					d.prevLen = sym
					d.lensIdx++
				case sym == 16, sym == 17, sym == 18:
					d.repeatSym = sym
					d.dyn = dynRepeatExtra
					done = true
				default:
					return 0, d.fail(BadTree), true
				}
				if done {
					break
				}
			}
			if !done {
				d.dyn = dynBuildTables
			}

		case dynRepeatExtra:
			nbits, base, zeroValue := repeatCodeShape(d.repeatSym)
			ok, err := d.needBits(nbits)
			if err != nil {
				return 0, err, true
			}
			if !ok {
				return ResultSourceExhausted, nil, true
			}
			count := base + int(d.br.take(nbits))
			value := d.prevLen
			if zeroValue {
				value = 0
			} else if d.lensIdx == 0 {
				return 0, d.fail(BadTree), true
			}
			if d.lensIdx+count > len(d.lens) {
				return 0, d.fail(BadTree), true
			}
			for i := 0; i < count; i++ {
				d.lens[d.lensIdx] = value
				d.lensIdx++
			}
			d.prevLen = value
			d.dyn = dynLens

		case dynBuildTables:
			litLens := d.lens[:d.numLit]
			distLens := d.lens[d.numLit:]
			if litLens[endOfBlockSymbol] == 0 {
				return 0, d.fail(BadTree), true
			}
			lit, err := buildLitLenTable(litLens)
			if err != nil {
				return 0, d.fail(BadTree), true
			}
			dist, err := buildDistTable(distLens)
			if err != nil {
				return 0, d.fail(BadTree), true
			}
			d.litLenTable = lit
			d.distTable = dist
			d.sub = subSymbol
			d.state = stateDecoding
			return 0, nil, false
		}
	}
}

// repeatCodeShape returns the extra-bit count, base repeat count, and
// whether the repeated value is literal zero (symbols 17 and 18) rather than
// the previous code length (symbol 16), for a code-length repeat code.
func repeatCodeShape(sym int) (nbits uint, base int, zeroValue bool) {
	switch sym {
	case 16:
		return 2, 3, false
	case 17:
		return 3, 3, true
	default: // 18
		return 7, 11, true
	}
}

// decodeSymbol resolves one Huffman symbol from t, following a subtable
// redirect if the root entry calls for one (spec §4.4.3 steps 1-3). The
// returned entry's tag/info are the table leaf's own fields: tagLiteral
// (info=literal byte), tagEndOfBlock, or an extra-bit count 0..13 (info=the
// length/distance base value).
func (d *Decoder) decodeSymbol(t table) (e entry, ok bool, err error) {
	if !d.br.tryEnsure(t.root) {
		// Near the end of input a code shorter than root can still be
		// resolved from the bits already held: the index bits not yet
		// loaded read as zero, and a short code's entry fills every slot
		// that shares its low bits.
		e = t.entries[d.br.peek(t.root)]
		if e.tag != tagSubtable && e.tag != tagInvalid && uint(e.length) <= d.br.nbits {
			d.br.drop(uint(e.length))
			return e, true, nil
		}
	}
	ok, ferr := d.needBits(t.root)
	if ferr != nil {
		return entry{}, false, ferr
	}
	if !ok {
		return entry{}, false, nil
	}
	idx := d.br.peek(t.root)
	e = t.entries[idx]

	if e.tag == tagSubtable {
		ok, ferr = d.needBits(uint(e.length))
		if ferr != nil {
			return entry{}, false, ferr
		}
		if !ok {
			return entry{}, false, nil
		}
		full := d.br.peek(uint(e.length))
		suffix := full >> t.root
		e = t.entries[int(e.info)+int(suffix)]
	}

	if e.tag == tagInvalid {
		return entry{}, false, d.fail(BadCode)
	}

	d.br.drop(uint(e.length))
	return e, true, nil
}

// stepDecoding runs the literal/length/distance decode loop (spec
// §4.4.2/§4.4.3) until the block's end-of-block symbol, src runs out, or
// dst fills up.
//
// Grounded on zran/flate/inflate.go's huffmanBlock.
func (d *Decoder) stepDecoding() (Result, error, bool) {
	for {
		if d.sub == subSymbol {
			progressed, err := d.tryFast()
			if err != nil {
				return 0, err, true
			}
			if progressed {
				if d.state != stateDecoding {
					return 0, nil, false
				}
				continue
			}
		}

		switch d.sub {
		case subSymbol:
			// A literal symbol needs one byte of output space the instant
			// it is decoded, and decodeSymbol already drops its bits from
			// the reservoir with no way to put them back. Reserve that byte
			// before decoding so a target-exhausted suspension never loses
			// a symbol already taken off the wire.
			if d.dstPos >= len(d.dst) {
				return ResultTargetExhausted, nil, true
			}
			e, ok, err := d.decodeSymbol(d.litLenTable)
			if err != nil {
				return 0, err, true
			}
			if !ok {
				return ResultSourceExhausted, nil, true
			}
			switch e.tag {
			case tagLiteral:
				d.emit(byte(e.info))
			case tagEndOfBlock:
				d.state = d.nextBlockState()
				return 0, nil, false
			default:
				d.length = int(e.info)
				d.lenExtra = uint8(e.tag)
				if d.lenExtra == 0 {
					d.sub = subDistSymbol
				} else {
					d.sub = subLenExtra
				}
			}

		case subLenExtra:
			ok, err := d.needBits(uint(d.lenExtra))
			if err != nil {
				return 0, err, true
			}
			if !ok {
				return ResultSourceExhausted, nil, true
			}
			d.length += int(d.br.take(uint(d.lenExtra)))
			d.sub = subDistSymbol

		case subDistSymbol:
			e, ok, err := d.decodeSymbol(d.distTable)
			if err != nil {
				return 0, err, true
			}
			if !ok {
				return ResultSourceExhausted, nil, true
			}
			d.distance = int(e.info)
			d.distExtra = uint8(e.tag)
			if d.distExtra == 0 {
				d.copyRemain = d.length
				d.sub = subCopy
			} else {
				d.sub = subDistExtra
			}

		case subDistExtra:
			ok, err := d.needBits(uint(d.distExtra))
			if err != nil {
				return 0, err, true
			}
			if !ok {
				return ResultSourceExhausted, nil, true
			}
			d.distance += int(d.br.take(uint(d.distExtra)))
			d.copyRemain = d.length
			d.sub = subCopy

		case subCopy:
			for d.copyRemain > 0 {
				if d.dstPos >= len(d.dst) {
					return ResultTargetExhausted, nil, true
				}
				n, err := d.win.copyMatch(d.dst[d.dstPos:d.dstPos+1], 1, d.distance, d.outputCount)
				if err != nil {
					return 0, d.fail(FarOffset), true
				}
				d.dstPos += n
				d.outputCount += n
				d.copyRemain--
			}
			d.sub = subSymbol
		}
	}
}

// emit writes one literal byte to both the output and the window.
func (d *Decoder) emit(b byte) {
	d.dst[d.dstPos] = b
	d.dstPos++
	d.win.writeByte(b)
	d.outputCount++
}
