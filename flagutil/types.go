package flagutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/coreos/inflate/capnslog"
)

// LogLevelFlag parses a capnslog.LogLevel from its string name, for use as
// a -loglevel flag value. This type implements the flag.Value interface.
type LogLevelFlag struct {
	val capnslog.LogLevel
}

func (f *LogLevelFlag) Level() capnslog.LogLevel {
	return f.val
}

func (f *LogLevelFlag) Set(v string) error {
	l, err := capnslog.ParseLevel(strings.ToUpper(v))
	if err != nil {
		return err
	}
	f.val = l
	return nil
}

func (f *LogLevelFlag) String() string {
	return f.val.Char()
}

// byteSizeSuffixes maps a trailing unit suffix to its multiplier, largest
// first so a greedy match never picks "B" over "KiB".
var byteSizeSuffixes = []struct {
	suffix string
	mult   int64
}{
	{"GiB", 1 << 30},
	{"MiB", 1 << 20},
	{"KiB", 1 << 10},
	{"B", 1},
}

// ByteSizeFlag parses a human-readable size like "32KiB" or "4096" into a
// byte count, for flags such as a decoder pool's per-entry budget. This
// type implements the flag.Value interface.
type ByteSizeFlag struct {
	val int64
}

func (f *ByteSizeFlag) Bytes() int64 {
	return f.val
}

func (f *ByteSizeFlag) Set(v string) error {
	v = strings.TrimSpace(v)
	for _, s := range byteSizeSuffixes {
		if strings.HasSuffix(v, s.suffix) {
			n, err := strconv.ParseInt(strings.TrimSuffix(v, s.suffix), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid byte size %q: %v", v, err)
			}
			if n < 0 {
				return errors.New("byte size must not be negative")
			}
			f.val = n * s.mult
			return nil
		}
	}
	// A bare integer is a count of bytes, the form String prints.
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("byte size %q has no recognized unit suffix", v)
	}
	if n < 0 {
		return errors.New("byte size must not be negative")
	}
	f.val = n
	return nil
}

func (f *ByteSizeFlag) String() string {
	return strconv.FormatInt(f.val, 10)
}
