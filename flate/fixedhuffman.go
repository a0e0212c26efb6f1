// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flate

import "sync"

// Literal/length alphabet layout, RFC 1951 §3.2.5.
const (
	endOfBlockSymbol = 256
	lengthCodesStart = 257
	maxLitLenSymbol  = 287
)

// lengthBase and lengthExtraBits give, for each length symbol 257..285 (index
// sym-257), the smallest match length the symbol represents and how many
// extra bits follow it in the bitstream. Symbol 285 represents the single
// length 258 with no extra bits, RFC 1951's one documented irregularity in
// an otherwise uniform table.
var lengthBase = [...]uint16{
	3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31, 35, 43, 51, 59,
	67, 83, 99, 115, 131, 163, 195, 227, 258,
}

var lengthExtraBits = [...]uint8{
	0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3,
	4, 4, 4, 4, 5, 5, 5, 5, 0,
}

// distBase and distExtraBits give, for each of the 30 distance symbols, the
// smallest back-reference distance the symbol represents and its extra bit
// count.
var distBase = [...]uint16{
	1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193, 257, 385, 513,
	769, 1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577,
}

var distExtraBits = [...]uint8{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6, 7, 7, 8, 8,
	9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
}

// codeLengthOrder is the order in which a dynamic block's code-length code
// lengths are transmitted, RFC 1951 §3.2.7.
var codeLengthOrder = [...]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

var (
	fixedOnce       sync.Once
	fixedLitLen     table
	fixedDist       table
	fixedBuildError error
)

// fixedTables lazily builds the two fixed Huffman tables RFC 1951 §3.2.6
// specifies by literal bit-length assignment rather than a transmitted
// header, and caches them: every BTYPE=1 block in every Decoder shares the
// same tables.
//
// Grounded on zran/flate/inflate.go's fixedHuffmanDecoder construction.
func fixedTables() (litLen, dist table, err error) {
	fixedOnce.Do(func() {
		lengths := make([]int, maxLitLenSymbol+1)
		for i := 0; i <= 143; i++ {
			lengths[i] = 8
		}
		for i := 144; i <= 255; i++ {
			lengths[i] = 9
		}
		for i := 256; i <= 279; i++ {
			lengths[i] = 7
		}
		for i := 280; i <= maxLitLenSymbol; i++ {
			lengths[i] = 8
		}
		fixedLitLen, fixedBuildError = buildLitLenTable(lengths)
		if fixedBuildError != nil {
			return
		}

		// The fixed distance code assigns 5 bits to all 32 symbols so the
		// code is complete; 30 and 31 never occur in valid input and decode
		// to INVALID entries.
		distLengths := make([]int, 32)
		for i := range distLengths {
			distLengths[i] = 5
		}
		fixedDist, fixedBuildError = buildTable(distLengths, distRoot, distCapacity, func(sym int) (entryTag, uint16) {
			if sym >= len(distBase) {
				return tagInvalid, 0
			}
			return distLeaf(sym)
		}, false)
	})
	return fixedLitLen, fixedDist, fixedBuildError
}
