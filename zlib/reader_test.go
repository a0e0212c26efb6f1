// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zlib

import (
	"bytes"
	"hash/adler32"
	"io"
	"testing"
)

func storedFlateBlock(data []byte) []byte {
	n := len(data)
	out := []byte{0x01}
	out = append(out, byte(n), byte(n>>8))
	nlen := uint16(n) ^ 0xffff
	out = append(out, byte(nlen), byte(nlen>>8))
	return append(out, data...)
}

// buildStream assembles a minimal valid RFC 1950 stream: a 2-byte CMF/FLG
// header (CM=8, CINFO=7, no FDICT, FCHECK chosen so the 16-bit header is a
// multiple of 31), a stored DEFLATE block, and a 4-byte big-endian Adler-32
// trailer.
func buildStream(t *testing.T, payload []byte) []byte {
	t.Helper()
	cmf := byte(0x78) // CM=8, CINFO=7, the conventional zlib default window
	flg := byte(0)
	check := (uint(cmf)<<8 | uint(flg)) % 31
	if check != 0 {
		flg += byte(31 - check)
	}

	var buf bytes.Buffer
	buf.WriteByte(cmf)
	buf.WriteByte(flg)
	buf.Write(storedFlateBlock(payload))

	sum := adler32.Checksum(payload)
	var trailer [4]byte
	trailer[0], trailer[1], trailer[2], trailer[3] = byte(sum>>24), byte(sum>>16), byte(sum>>8), byte(sum)
	buf.Write(trailer[:])
	return buf.Bytes()
}

func TestReadRoundTrip(t *testing.T) {
	want := []byte("hello, zlib")
	r, err := NewReader(bytes.NewReader(buildStream(t, want)))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestReadBadChecksum(t *testing.T) {
	data := buildStream(t, []byte("corrupt me"))
	data[len(data)-1] ^= 0xff
	r, err := NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if _, err := io.ReadAll(r); err != ErrChecksum {
		t.Fatalf("got %v, want ErrChecksum", err)
	}
}

func TestReadBadHeaderCheckBits(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte{0x78, 0x9c ^ 0x01, 0x01}))
	if err != ErrHeader {
		t.Fatalf("got %v, want ErrHeader", err)
	}
}

func TestReadBadCompressionMethod(t *testing.T) {
	// CM=7 (not DEFLATE) in the low nibble of CMF.
	_, err := NewReader(bytes.NewReader([]byte{0x77, 0x85}))
	if err != ErrHeader {
		t.Fatalf("got %v, want ErrHeader", err)
	}
}

func TestNewReaderDictRejectsWrongDictionary(t *testing.T) {
	const fdict = 1 << 5
	cmf := byte(0x78)
	flg := byte(fdict)
	check := (uint(cmf)<<8 | uint(flg)) % 31
	if check != 0 {
		flg += byte(31 - check)
		// Re-adding FDICT may have been cleared by the adjustment; restore it.
		flg |= fdict
		for (uint(cmf)<<8|uint(flg))%31 != 0 {
			flg++
		}
	}

	dict := []byte("dictionary bytes")
	sum := adler32.Checksum(dict)
	var buf bytes.Buffer
	buf.WriteByte(cmf)
	buf.WriteByte(flg)
	var dictID [4]byte
	dictID[0], dictID[1], dictID[2], dictID[3] = byte(sum>>24), byte(sum>>16), byte(sum>>8), byte(sum)
	buf.Write(dictID[:])

	_, err := NewReaderDict(bytes.NewReader(buf.Bytes()), []byte("wrong dictionary"))
	if err != ErrDictionary {
		t.Fatalf("got %v, want ErrDictionary", err)
	}
}
