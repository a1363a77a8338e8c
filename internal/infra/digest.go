package infra

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Digest collects rendered ERROR and FATAL log lines during a run so they can
// be mailed to the administrator afterwards. It satisfies zerolog's
// LevelWriter contract; lower-severity events pass through uncollected.
type Digest struct {
	mu    sync.Mutex
	lines []string
}

// Write implements io.Writer. Events arriving without level information are
// not collected.
func (d *Digest) Write(p []byte) (int, error) {
	return len(p), nil
}

// WriteLevel records the rendered line when the event is error-level or worse.
func (d *Digest) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level >= zerolog.ErrorLevel && level < zerolog.NoLevel {
		d.mu.Lock()
		d.lines = append(d.lines, strings.TrimRight(string(p), "\n"))
		d.mu.Unlock()
	}
	return len(p), nil
}

// Empty reports whether any error lines were collected.
func (d *Digest) Empty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.lines) == 0
}

// String renders the collected lines, one per row, for the email body.
func (d *Digest) String() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return strings.Join(d.lines, "\n")
}
