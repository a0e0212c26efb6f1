// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gzip implements reading of gzip-format compressed files, as
// specified in RFC 1952, over this module's suspendable flate.Decoder.
package gzip

import (
	"bufio"
	"bytes"
	"errors"
	"hash"
	"hash/crc32"
	"io"
	"time"

	"github.com/coreos/inflate/flate"
)

const (
	gzipID1     = 0x1f
	gzipID2     = 0x8b
	gzipDeflate = 8
	flagText    = 1 << 0
	flagHdrCrc  = 1 << 1
	flagExtra   = 1 << 2
	flagName    = 1 << 3
	flagComment = 1 << 4
)

var (
	// ErrChecksum is returned when a stream's trailing CRC-32 or length
	// disagrees with what was actually decompressed.
	ErrChecksum = errors.New("gzip: invalid checksum")
	// ErrHeader is returned when a stream's header is malformed.
	ErrHeader = errors.New("gzip: invalid header")
)

// Header holds the per-member metadata RFC 1952 stores alongside the
// compressed payload.
type Header struct {
	Comment string
	Extra   []byte
	ModTime time.Time
	Name    string
	OS      byte
}

// Reader is an io.Reader that decompresses a gzip stream. A gzip stream may
// be a concatenation of several members; by default Reader reads through
// all of them as one continuous stream of output (see Multistream).
//
// Grounded on gzran/gzip/gunzip.go, with its flate.Decompressor (an
// io.Reader-blocking struct with its own internal Read loop) replaced by
// this module's flate.Decoder, driven by Reader.Read pumping bytes from the
// underlying io.Reader into Decoder.Inflate a chunk at a time.
type Reader struct {
	Header

	r    *bufio.Reader
	dec  *flate.Decoder
	flg  byte
	buf  [512]byte
	err  error
	size uint32

	digest      hash.Hash32
	multistream bool

	// srcBuf stages bytes read from r for feeding to dec.Inflate, since
	// Inflate wants a slice it can partially consume rather than an
	// io.Reader.
	srcBuf  [4096]byte
	srcLen  int
	srcPos  int
	srcDone bool // underlying reader has reached EOF
}

// NewReader creates a Reader reading and decompressing from r, which is
// assumed to wrap a gzip-format compressed stream starting at the first
// member's header.
func NewReader(r io.Reader) (*Reader, error) {
	z := &Reader{
		r:           bufio.NewReader(r),
		dec:         flate.NewDecoder(),
		digest:      crc32.NewIEEE(),
		multistream: true,
	}
	if err := z.readHeader(true); err != nil {
		return nil, err
	}
	return z, nil
}

// Reset discards z's state and reconfigures it to read a fresh stream from
// r, reusing its flate.Decoder allocation.
func (z *Reader) Reset(r io.Reader) error {
	z.r = bufio.NewReader(r)
	z.dec.Reset()
	z.digest.Reset()
	z.size = 0
	z.err = nil
	z.multistream = true
	z.srcLen, z.srcPos, z.srcDone = 0, 0, false
	return z.readHeader(true)
}

// Multistream controls whether Read transparently continues into
// subsequent gzip members once the current one ends (the default) or
// returns io.EOF after the first.
func (z *Reader) Multistream(ok bool) { z.multistream = ok }

func get4(p []byte) uint32 {
	return uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16 | uint32(p[3])<<24
}

func (z *Reader) readString() (string, error) {
	needconv := false
	for i := 0; ; i++ {
		if i >= len(z.buf) {
			return "", ErrHeader
		}
		b, err := z.r.ReadByte()
		if err != nil {
			return "", err
		}
		z.buf[i] = b
		if b > 0x7f {
			needconv = true
		}
		if b == 0 {
			if needconv {
				s := make([]rune, 0, i)
				for _, v := range z.buf[:i] {
					s = append(s, rune(v))
				}
				return string(s), nil
			}
			return string(z.buf[:i]), nil
		}
	}
}

func (z *Reader) read2() (uint32, error) {
	if _, err := io.ReadFull(z.r, z.buf[:2]); err != nil {
		return 0, err
	}
	return uint32(z.buf[0]) | uint32(z.buf[1])<<8, nil
}

func (z *Reader) readHeader(save bool) error {
	if _, err := io.ReadFull(z.r, z.buf[:10]); err != nil {
		return err
	}
	if z.buf[0] != gzipID1 || z.buf[1] != gzipID2 || z.buf[2] != gzipDeflate {
		return ErrHeader
	}
	z.flg = z.buf[3]
	if save {
		z.ModTime = time.Unix(int64(get4(z.buf[4:8])), 0)
		z.OS = z.buf[9]
	}
	z.digest.Reset()
	z.digest.Write(z.buf[:10])

	if z.flg&flagExtra != 0 {
		n, err := z.read2()
		if err != nil {
			return err
		}
		data := make([]byte, n)
		if _, err := io.ReadFull(z.r, data); err != nil {
			return err
		}
		if save {
			z.Extra = data
		}
	}

	if z.flg&flagName != 0 {
		s, err := z.readString()
		if err != nil {
			return err
		}
		if save {
			z.Name = s
		}
	}

	if z.flg&flagComment != 0 {
		s, err := z.readString()
		if err != nil {
			return err
		}
		if save {
			z.Comment = s
		}
	}

	if z.flg&flagHdrCrc != 0 {
		n, err := z.read2()
		if err != nil {
			return err
		}
		if n != z.digest.Sum32()&0xffff {
			return ErrHeader
		}
	}

	z.digest.Reset()
	z.dec.Reset()
	z.size = 0
	z.srcLen, z.srcPos, z.srcDone = 0, 0, false
	return nil
}

// fill ensures srcBuf has bytes staged for dec.Inflate, or records that the
// underlying reader is exhausted.
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
			z.size += uint32(ndst)
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
			if err := z.finishMember(); err != nil {
				z.err = err
				return n, err
			}
			return n, nil
		}
	}
	return n, nil
}

// finishMember verifies a member's CRC-32/ISIZE trailer and, if multistream
// reading is enabled, transparently starts the next member.
func (z *Reader) finishMember() error {
	// Unread bytes belonging to the trailer may already be staged in
	// srcBuf; push the reader's position back onto the underlying stream
	// isn't possible through bufio.Reader's Read alone, so the trailer is
	// read straight from srcBuf first and only falls back to z.r once
	// srcBuf is drained.
	trailer := z.buf[:8]
	if err := z.readStaged(trailer); err != nil {
		return err
	}
	crc, isize := get4(trailer[:4]), get4(trailer[4:])
	if crc != z.digest.Sum32() || isize != z.size {
		return ErrChecksum
	}
	if !z.multistream {
		return io.EOF
	}
	// The next member's header may already be staged in srcBuf; put those
	// bytes back in front of the underlying reader before parsing it.
	if z.srcPos < z.srcLen {
		rest := append([]byte(nil), z.srcBuf[z.srcPos:z.srcLen]...)
		z.r = bufio.NewReader(io.MultiReader(bytes.NewReader(rest), z.r))
	}
	if err := z.readHeader(false); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return err
	}
	return nil
}

// readStaged reads exactly len(p) bytes, preferring whatever is still
// staged in srcBuf before falling back to the underlying reader.
func (z *Reader) readStaged(p []byte) error {
	n := copy(p, z.srcBuf[z.srcPos:z.srcLen])
	z.srcPos += n
	if n == len(p) {
		return nil
	}
	_, err := io.ReadFull(z.r, p[n:])
	return err
}

// Close releases the Reader's flate.Decoder resources. It does not close
// the underlying io.Reader.
func (z *Reader) Close() error {
	z.dec.Release()
	return nil
}
