// Package httputil provides small net/http middleware: request logging and
// transparent gunzipping of gzip-encoded request bodies.
package httputil

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/coreos/inflate/capnslog"
)

var plog = capnslog.NewPackageLogger("github.com/coreos/inflate", "httputil")

// LoggingMiddleware logs the method and URL of every request before passing
// it to Next.
//
// Grounded on the teacher's httputil/middleware.go; its import of
// github.com/coreos-inc/auth/pkg/log is an internal package absent from the
// retrieval pack and unresolvable here, replaced with capnslog, the ambient
// logger the rest of this module uses.
type LoggingMiddleware struct {
	Next http.Handler
}

func (l *LoggingMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	plog.Infof("HTTP %s %v", r.Method, r.URL)
	l.Next.ServeHTTP(w, r)
}

// DecompressingMiddleware transparently gunzips a request body whose
// Content-Encoding is "gzip" before handing it to Next, for servers that
// want to accept compressed uploads without every handler re-implementing
// the check. It uses the standard library's compress/gzip rather than this
// module's own gzip package: an inbound HTTP body is read via io.Reader by
// net/http's plumbing already, so there is no suspend/resume boundary to
// cross here, unlike the Decoder-driven callers in streamio and pool.
type DecompressingMiddleware struct {
	Next http.Handler
}

func (d *DecompressingMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.EqualFold(r.Header.Get("Content-Encoding"), "gzip") {
		d.Next.ServeHTTP(w, r)
		return
	}
	zr, err := gzip.NewReader(r.Body)
	if err != nil {
		http.Error(w, "invalid gzip body", http.StatusBadRequest)
		return
	}
	r.Body = gunzippedBody{zr, r.Body}
	r.Header.Del("Content-Encoding")
	r.ContentLength = -1
	d.Next.ServeHTTP(w, r)
}

// gunzippedBody satisfies io.ReadCloser, reading decompressed bytes from zr
// but closing the original connection body, not just the gzip.Reader (which
// has no effect on the underlying net.Conn).
type gunzippedBody struct {
	zr   *gzip.Reader
	orig io.ReadCloser
}

func (b gunzippedBody) Read(p []byte) (int, error) { return b.zr.Read(p) }
func (b gunzippedBody) Close() error                { return b.orig.Close() }
