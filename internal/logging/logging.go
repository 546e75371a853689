// Package logging builds the charmbracelet logger shared by the entry points.
package logging

import (
	"bytes"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// timestampWriter prefixes each flushed line with an RFC3339 timestamp.
type timestampWriter struct {
	w   io.Writer
	buf bytes.Buffer
	mu  sync.Mutex
	now func() time.Time
}

// Write buffers bytes until a newline is found; every full line is written to
// the underlying writer with a timestamp. Partial lines stay in the buffer.
func (t *timestampWriter) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, _ := t.buf.Write(p)
	for {
		line, err := t.buf.ReadString('\n')
		if err != nil {
			// keep the partial line for the next Write
			t.buf.Reset()
			t.buf.WriteString(line)
			break
		}
		ts := t.now().Format(time.RFC3339)
		if _, err := t.w.Write([]byte(ts + " " + line)); err != nil {
			return n, err
		}
	}
	return n, nil
}

// terminalWriter exposes Fd so the logger can still detect a TTY through the
// timestamp wrapper.
type terminalWriter struct {
	w  io.Writer
	fd uintptr
}

func (tw *terminalWriter) Write(p []byte) (int, error) { return tw.w.Write(p) }

// Fd exposes the underlying file descriptor (e.g., os.Stderr.Fd()).
func (tw *terminalWriter) Fd() uintptr { return tw.fd }

// Options configures New.
type Options struct {
	Level   string
	Verbose bool
	File    string
	Prefix  string
	// Out defaults to os.Stderr.
	Out *os.File
}

// ParseLevel maps a config string onto a log level. The second result is false
// for unknown values, which fall back to info.
func ParseLevel(s string) (log.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DebugLevel, true
	case "info", "":
		return log.InfoLevel, true
	case "warn", "warning":
		return log.WarnLevel, true
	case "error":
		return log.ErrorLevel, true
	default:
		return log.InfoLevel, false
	}
}

// New returns a logger writing to stderr and, when opts.File is set, appending
// to that file too. The returned close func releases the file.
func New(opts Options) (*log.Logger, func() error) {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	var w io.Writer = out
	closeFn := func() error { return nil }
	var fileErr error
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			// write to both stderr and file so running interactively still shows logs
			w = io.MultiWriter(out, f)
			closeFn = f.Close
		} else {
			fileErr = err
		}
	}
	tw := &timestampWriter{w: w, now: time.Now}
	logger := log.New(&terminalWriter{w: tw, fd: out.Fd()})
	if opts.Prefix != "" {
		logger.SetPrefix(opts.Prefix)
	}

	if opts.Verbose {
		logger.SetLevel(log.DebugLevel)
	} else {
		lvl, ok := ParseLevel(opts.Level)
		logger.SetLevel(lvl)
		if !ok {
			logger.Warn("unknown log_level, defaulting to info", "provided", opts.Level)
		}
	}
	if fileErr != nil {
		logger.Warn("log_file could not be opened; logging to stderr only", "path", opts.File, "err", fileErr)
	}
	return logger, closeFn
}
