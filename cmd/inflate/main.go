// Command inflate decompresses one or more gzip, zlib, or raw DEFLATE files
// concurrently, writing each to <input>.out (or to stdout with -stdout).
//
// No teacher file fits this shape directly; the overall "-i/-o, flag.Parse,
// ReadAll, WriteFile" skeleton is grounded on
// JoshVarga-blast/cmd/blast/main.go, generalized from one fixed input/output
// pair to an arbitrary file list processed concurrently via
// golang.org/x/sync/errgroup, and wired into this module's own ambient
// stack (capnslog, flagutil, yamlutil, stop, pool) in place of blast's bare
// log.Fatal calls.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/coreos/inflate/capnslog"
	"github.com/coreos/inflate/flagutil"
	"github.com/coreos/inflate/flate"
	"github.com/coreos/inflate/gzip"
	"github.com/coreos/inflate/pool"
	"github.com/coreos/inflate/stop"
	"github.com/coreos/inflate/yamlutil"
	"github.com/coreos/inflate/zlib"
)

const repo = "github.com/coreos/inflate"

var plog = capnslog.NewPackageLogger(repo, "cmd/inflate")

func main() {
	if err := run(os.Args[1:]); err != nil {
		plog.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("inflate", flag.ContinueOnError)

	var logLevel flagutil.LogLevelFlag
	logLevel.Set("INFO")
	fs.Var(&logLevel, "loglevel", "log level: CRITICAL, ERROR, WARNING, NOTICE, INFO, DEBUG, TRACE")

	format := fs.String("format", "auto", "input format: auto, gzip, zlib, flate")
	configPath := fs.String("config", "", "optional YAML file providing defaults for unset flags")
	dictPath := fs.String("dict", "", "file containing a preset zlib/flate dictionary")
	workers := fs.Int("workers", 4, "maximum files decompressed concurrently")
	toStdout := fs.Bool("stdout", false, "write decompressed output to stdout instead of <input>.out")
	useJournal := fs.Bool("journal", false, "log to the systemd journal instead of stderr")
	var poolSize flagutil.ByteSizeFlag
	poolSize.Set("0B")
	fs.Var(&poolSize, "pool-decoders", "number of flate.Decoders to keep warm for reuse (0 disables pooling)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configPath != "" {
		raw, err := os.ReadFile(*configPath)
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
		if err := yamlutil.SetFlagsFromYaml(fs, raw); err != nil {
			return fmt.Errorf("applying config: %w", err)
		}
	}

	if *useJournal {
		capnslog.SetFormatter(capnslog.NewJournalFormatter())
	} else {
		capnslog.SetFormatter(capnslog.NewGlogFormatter(os.Stderr))
	}
	capnslog.MustRepoLogger(repo).SetGlobalLogLevel(logLevel.Level())

	files := fs.Args()
	if len(files) == 0 {
		fs.PrintDefaults()
		return errors.New("no input files given")
	}

	var dict []byte
	if *dictPath != "" {
		d, err := os.ReadFile(*dictPath)
		if err != nil {
			return fmt.Errorf("reading dictionary: %w", err)
		}
		dict = d
	}

	group := stop.NewGroup()
	var decoders *pool.Pool
	if poolSize.Bytes() > 0 {
		decoders = pool.New(int(poolSize.Bytes()))
		group.Add(decoders)
	}
	defer func() { <-group.Stop() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(*workers)
	for _, name := range files {
		name := name
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return decompressFile(name, *format, dict, *toStdout, decoders)
		})
	}
	return eg.Wait()
}

func decompressFile(name, format string, dict []byte, toStdout bool, decoders *pool.Pool) error {
	in, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	defer in.Close()

	resolved := format
	if resolved == "auto" {
		resolved = sniffFormat(name)
	}

	var r io.ReadCloser
	switch resolved {
	case "gzip":
		zr, err := gzip.NewReader(in)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		r = zr
	case "zlib":
		zr, err := zlib.NewReaderDict(in, dict)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		r = zr
	case "flate":
		r = newFlateReader(in, dict, decoders)
	default:
		return fmt.Errorf("%s: cannot determine format, pass -format", name)
	}
	defer r.Close()

	var out io.Writer
	if toStdout {
		out = os.Stdout
	} else {
		f, err := os.Create(name + ".out")
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		defer f.Close()
		out = f
	}

	n, err := io.Copy(out, r)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	plog.Infof("%s: wrote %d bytes", name, n)
	return nil
}

// sniffFormat guesses a container from the file's extension, falling back
// to "flate" (a bare, wrapper-less DEFLATE stream) for anything unrecognized.
func sniffFormat(name string) string {
	switch {
	case strings.HasSuffix(name, ".gz"), strings.HasSuffix(name, ".gzip"):
		return "gzip"
	case strings.HasSuffix(name, ".zz"), strings.HasSuffix(name, ".zlib"):
		return "zlib"
	default:
		return "flate"
	}
}

// flateReader adapts a flate.Decoder, which is driven a chunk at a time via
// Inflate, to the blocking io.ReadCloser shape os.Open/io.Copy expect, the
// same staged-buffer pattern gzip.Reader and zlib.Reader use. When decoders
// is non-nil the underlying Decoder is borrowed from and returned to it on
// Close, rather than discarded.
type flateReader struct {
	r        io.Reader
	dec      *flate.Decoder
	dict     []byte
	decoders *pool.Pool

	buf     [4096]byte
	pos, ln int
	done    bool
}

func newFlateReader(r io.Reader, dict []byte, decoders *pool.Pool) *flateReader {
	var dec *flate.Decoder
	if decoders != nil {
		dec = decoders.Get(dict)
	} else {
		dec = flate.NewDecoder()
		if len(dict) > 0 {
			_ = dec.SetDictionary(dict)
		}
	}
	return &flateReader{r: r, dec: dec, dict: dict, decoders: decoders}
}

func (z *flateReader) fill() error {
	if z.pos < z.ln || z.done {
		return nil
	}
	n, err := z.r.Read(z.buf[:])
	z.ln, z.pos = n, 0
	if err != nil {
		z.done = true
		if err != io.EOF {
			return err
		}
	}
	return nil
}

func (z *flateReader) Read(p []byte) (int, error) {
	for {
		if err := z.fill(); err != nil {
			return 0, err
		}
		nsrc, ndst, result, err := z.dec.Inflate(z.buf[z.pos:z.ln], z.done, p)
		z.pos += nsrc
		if err != nil {
			return ndst, err
		}
		if ndst > 0 {
			return ndst, nil
		}
		if result == flate.ResultStreamEnd {
			return 0, io.EOF
		}
	}
}

func (z *flateReader) Close() error {
	if z.decoders != nil {
		z.decoders.Put(z.dict, z.dec)
	} else {
		z.dec.Release()
	}
	return nil
}
