// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gzip

import (
	"bytes"
	"hash/crc32"
	"io"
	"testing"
)

// storedFlateBlock builds a single-block, final, STORED-type DEFLATE stream,
// the simplest payload that exercises the gzip framing/trailer logic without
// depending on this module's Huffman decoding being exercised here too.
func storedFlateBlock(data []byte) []byte {
	n := len(data)
	out := []byte{0x01}
	out = append(out, byte(n), byte(n>>8))
	nlen := uint16(n) ^ 0xffff
	out = append(out, byte(nlen), byte(nlen>>8))
	return append(out, data...)
}

func buildMember(t *testing.T, name string, payload []byte) []byte {
	t.Helper()
	var flg byte
	var buf bytes.Buffer
	buf.WriteByte(gzipID1)
	buf.WriteByte(gzipID2)
	buf.WriteByte(gzipDeflate)
	if name != "" {
		flg |= flagName
	}
	buf.WriteByte(flg)
	buf.Write([]byte{0, 0, 0, 0}) // MTIME
	buf.WriteByte(0)              // XFL
	buf.WriteByte(0xff)           // OS unknown
	if name != "" {
		buf.WriteString(name)
		buf.WriteByte(0)
	}
	buf.Write(storedFlateBlock(payload))

	crc := crc32.ChecksumIEEE(payload)
	var trailer [8]byte
	trailer[0], trailer[1], trailer[2], trailer[3] = byte(crc), byte(crc>>8), byte(crc>>16), byte(crc>>24)
	n := uint32(len(payload))
	trailer[4], trailer[5], trailer[6], trailer[7] = byte(n), byte(n>>8), byte(n>>16), byte(n>>24)
	buf.Write(trailer[:])
	return buf.Bytes()
}

func TestReadSingleMember(t *testing.T) {
	want := []byte("hello, gzip")
	r, err := NewReader(bytes.NewReader(buildMember(t, "greeting.txt", want)))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if r.Name != "greeting.txt" {
		t.Fatalf("Name = %q, want %q", r.Name, "greeting.txt")
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestReadMultistream(t *testing.T) {
	m1 := buildMember(t, "", []byte("first member "))
	m2 := buildMember(t, "", []byte("second member"))
	r, err := NewReader(bytes.NewReader(append(m1, m2...)))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	want := "first member second member"
	if string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestMultistreamFalseStopsAfterFirstMember(t *testing.T) {
	m1 := buildMember(t, "", []byte("only this"))
	m2 := buildMember(t, "", []byte("not this"))
	r, err := NewReader(bytes.NewReader(append(m1, m2...)))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	r.Multistream(false)
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "only this" {
		t.Fatalf("got %q, want %q", got, "only this")
	}
}

func TestReadBadChecksum(t *testing.T) {
	data := buildMember(t, "", []byte("corrupt me"))
	data[len(data)-1] ^= 0xff // flip a bit in ISIZE
	r, err := NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if _, err := io.ReadAll(r); err != ErrChecksum {
		t.Fatalf("got %v, want ErrChecksum", err)
	}
}

func TestReadBadMagic(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte{0x1f, 0x8b, 0x07, 0, 0, 0, 0, 0, 0, 0}))
	if err != ErrHeader {
		t.Fatalf("got %v, want ErrHeader", err)
	}
}
