// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package zlib implements reading of zlib-format compressed data, as
// specified in RFC 1950, over this module's suspendable flate.Decoder.
package zlib

import (
	"bufio"
	"errors"
	"hash"
	"hash/adler32"
	"io"

	"github.com/coreos/inflate/flate"
)

const zlibDeflate = 8 // CM value for the DEFLATE compression method

var (
	// ErrHeader is returned when a stream's 2-byte CMF/FLG header is
	// malformed or uses an unsupported compression method.
	ErrHeader = errors.New("zlib: invalid header")
	// ErrChecksum is returned when the trailing Adler-32 disagrees with
	// what was actually decompressed.
	ErrChecksum = errors.New("zlib: invalid checksum")
	// ErrDictionary is returned by NewReaderDict when the dictionary's
	// Adler-32 does not match the one embedded in the stream header.
	ErrDictionary = errors.New("zlib: wrong dictionary")
)

// Reader is an io.Reader that decompresses a single zlib stream, verifying
// its Adler-32 trailer once the stream ends.
//
// Grounded on gzip/reader.go's shape (itself adapted from
// gzran/gzip/gunzip.go), restructured around RFC 1950 framing: a 2-byte
// CMF/FLG header, an optional 4-byte DICTID, and a 4-byte big-endian
// Adler-32 trailer in place of gzip's little-endian CRC-32+ISIZE pair.
type Reader struct {
	r      *bufio.Reader
	dec    *flate.Decoder
	digest hash.Hash32
	err    error

	buf [4]byte

	srcBuf  [4096]byte
	srcLen  int
	srcPos  int
	srcDone bool
}

// NewReader creates a Reader reading and decompressing from r.
func NewReader(r io.Reader) (*Reader, error) {
	return NewReaderDict(r, nil)
}

// NewReaderDict is like NewReader but uses a preset dictionary for
// decompression, per RFC 1951's preset-dictionary mechanism. The dictionary
// must match the one the stream's compressor used; its Adler-32 is checked
// against the header's DICTID before any data is decompressed.
func NewReaderDict(r io.Reader, dict []byte) (*Reader, error) {
	z := &Reader{
		r:      bufio.NewReader(r),
		dec:    flate.NewDecoder(),
		digest: adler32.New(),
	}
	if err := z.readHeader(dict); err != nil {
		return nil, err
	}
	return z, nil
}

func (z *Reader) readHeader(dict []byte) error {
	if _, err := io.ReadFull(z.r, z.buf[:2]); err != nil {
		return err
	}
	cmf, flg := z.buf[0], z.buf[1]
	if cmf&0x0f != zlibDeflate {
		return ErrHeader
	}
	if (uint(cmf)<<8|uint(flg))%31 != 0 {
		return ErrHeader
	}
	const fdict = 1 << 5
	if flg&fdict != 0 {
		if _, err := io.ReadFull(z.r, z.buf[:4]); err != nil {
			return err
		}
		if dict == nil {
			return ErrDictionary
		}
		checksum := adler32.Checksum(dict)
		want := uint32(z.buf[0])<<24 | uint32(z.buf[1])<<16 | uint32(z.buf[2])<<8 | uint32(z.buf[3])
		if checksum != want {
			return ErrDictionary
		}
	}
	if dict != nil {
		if err := z.dec.SetDictionary(dict); err != nil {
			return err
		}
	}
	return nil
}

func (z *Reader) fill() error {
	if z.srcPos < z.srcLen || z.srcDone {
		return nil
	}
	n, err := z.r.Read(z.srcBuf[:])
	z.srcLen, z.srcPos = n, 0
	if err != nil {
		z.srcDone = true
		if err != io.EOF {
			return err
		}
	}
	return nil
}

func (z *Reader) Read(p []byte) (n int, err error) {
	if z.err != nil {
		return 0, z.err
	}
	for len(p) > 0 {
		if err := z.fill(); err != nil {
			z.err = err
			return n, err
		}
		nsrc, ndst, result, ferr := z.dec.Inflate(z.srcBuf[z.srcPos:z.srcLen], z.srcDone, p)
		z.srcPos += nsrc
		if ndst > 0 {
			z.digest.Write(p[:ndst])
			n += ndst
			p = p[ndst:]
		}
		if ferr != nil {
			z.err = ferr
			return n, ferr
		}
		switch result {
		case flate.ResultTargetExhausted:
			return n, nil
		case flate.ResultSourceExhausted:
			continue
		case flate.ResultStreamEnd:
			if err := z.checkTrailer(); err != nil {
				z.err = err
				return n, err
			}
			return n, io.EOF
		}
	}
	return n, nil
}

func (z *Reader) checkTrailer() error {
	trailer := z.buf[:4]
	n := copy(trailer, z.srcBuf[z.srcPos:z.srcLen])
	z.srcPos += n
	if n < len(trailer) {
		if _, err := io.ReadFull(z.r, trailer[n:]); err != nil {
			return err
		}
	}
	want := uint32(trailer[0])<<24 | uint32(trailer[1])<<16 | uint32(trailer[2])<<8 | uint32(trailer[3])
	if want != z.digest.Sum32() {
		return ErrChecksum
	}
	return nil
}

// Close releases the Reader's flate.Decoder resources. It does not close
// the underlying io.Reader.
func (z *Reader) Close() error {
	z.dec.Release()
	return nil
}
