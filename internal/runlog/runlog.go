// Package runlog owns the append-only text logs the tool persists: the run
// log shared with stdout and the notification response log. Nothing else is
// durable between passes.
package runlog

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"radar-cuaca/internal/forecast"
)

// DefaultDir returns the log directory used when RADAR_LOG_DIR is unset.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "cuaca_logs"
	}
	return filepath.Join(home, "cuaca_logs")
}

// OpenAppend opens (creating if needed) an append-only log file in dir.
// Append-only writes keep the files safe across an abandoned in-flight pass.
func OpenAppend(dir, name string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}

// NewLogger returns a logger that writes WIB-stamped lines to stdout and,
// when dir is usable, to run.log. A failure to open the file degrades to
// stdout-only logging.
func NewLogger(dir string) (*log.Logger, func() error) {
	var w io.Writer = os.Stdout
	closeFn := func() error { return nil }

	f, err := OpenAppend(dir, "run.log")
	if err != nil {
		fmt.Fprintf(os.Stderr, "runlog: %v; logging to stdout only\n", err)
	} else {
		w = io.MultiWriter(os.Stdout, f)
		closeFn = f.Close
	}

	return log.New(&stampWriter{w: w}, "", 0), closeFn
}

// stampWriter prefixes each write with a WIB timestamp, matching the format
// used throughout the rendered report.
type stampWriter struct {
	w io.Writer
}

func (s *stampWriter) Write(p []byte) (int, error) {
	stamp := time.Now().In(forecast.WIB).Format("2006-01-02 15:04:05 WIB")
	if _, err := fmt.Fprintf(s.w, "[%s] ", stamp); err != nil {
		return 0, err
	}
	return s.w.Write(p)
}
