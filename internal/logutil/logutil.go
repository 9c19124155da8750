// Package logutil wraps the standard log package against a startup-dated
// log file (§6 "Log file: timestamped lines appended to a startup-dated
// file"), returning a single *log.Logger the rest of the server calls
// Printf/Fatalf against directly.
package logutil

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

// Open creates (or appends to) a startup-dated log file under dir and
// returns a *log.Logger that writes to both that file and stderr, plus
// the underlying file so the caller can close it on shutdown.
func Open(dir string, startedAt time.Time) (*log.Logger, *os.File, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("logutil: create log dir: %w", err)
	}
	name := fmt.Sprintf("voxelterra-%s.log", startedAt.Format("20060102-150405"))
	path := dir + string(os.PathSeparator) + name

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("logutil: open log file: %w", err)
	}

	w := io.MultiWriter(os.Stderr, f)
	logger := log.New(w, "", log.LstdFlags)
	return logger, f, nil
}
