// Package streamio drives a flate.Decoder from an io.Reader source to a
// caller-supplied callback, so embedders that want "decompress this and
// call me with each chunk" don't need to hand-roll the refill/suspend loop
// every gzip.Reader-style wrapper in this module already implements.
package streamio

import (
	"io"

	"github.com/coreos/inflate/flate"
)

// DefaultChunkSize is used by Pump when no chunk size is given.
const DefaultChunkSize = 32 * 1024

// Pump repeatedly drives dec against bytes read from src, invoking fn with
// each chunk of decompressed output (of at most chunkSize bytes) as it
// becomes available. fn's error, if any, stops the pump early and is
// returned to the caller. Pump returns nil once the stream's final block
// has been fully decoded.
//
// Grounded on the chunked "read span, hand it to the caller, repeat" loop
// zran/zran.go's readSpan used to drive checkpointed decode; generalized
// here from "until span bytes" to "until the caller says stop or the
// stream ends", and from zran's single-purpose byte accumulation to an
// arbitrary callback.
func Pump(dec *flate.Decoder, src io.Reader, chunkSize int, fn func([]byte) error) error {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	in := make([]byte, chunkSize)
	out := make([]byte, chunkSize)
	var (
		inPos, inLen int
		srcDone      bool
	)

	for {
		if inPos >= inLen && !srcDone {
			n, err := src.Read(in)
			inLen, inPos = n, 0
			if err != nil {
				srcDone = true
				if err != io.EOF {
					return err
				}
			}
		}

		nsrc, ndst, result, err := dec.Inflate(in[inPos:inLen], srcDone, out)
		inPos += nsrc
		if ndst > 0 {
			if ferr := fn(out[:ndst]); ferr != nil {
				return ferr
			}
		}
		if err != nil {
			return err
		}
		if result == flate.ResultStreamEnd {
			return nil
		}
	}
}
