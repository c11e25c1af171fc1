package models

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// LogSink is the debug log. When opened on a file it is separate from the
// diagnostic stream (stderr), and the fatal path writes to both.
type LogSink struct {
	mu       sync.Mutex
	w        io.Writer
	closer   io.Closer
	separate bool
	// Verbose enables trace lines.
	Verbose bool
}

func NewLogSink(w io.Writer, separate bool) *LogSink {
	l := &LogSink{w: w, separate: separate}
	if c, ok := w.(io.Closer); ok && separate {
		l.closer = c
	}
	return l
}

// OpenLog opens path for appending. An empty path logs to stderr.
func OpenLog(path string) (*LogSink, error) {
	if path == "" {
		return NewLogSink(os.Stderr, false), nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open log file '%s'", path)
	}
	return NewLogSink(f, true), nil
}

// Separate reports whether the log goes somewhere other than stderr.
func (l *LogSink) Separate() bool {
	return l.separate
}

// TryLock acquires the sink without blocking. Callers must Unlock.
func (l *LogSink) TryLock() (io.Writer, bool) {
	if !l.mu.TryLock() {
		return nil, false
	}
	return l.w, true
}

func (l *LogSink) Unlock() {
	l.mu.Unlock()
}

func (l *LogSink) Printf(format string, a ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, format, a...)
}

// Trace writes one timestamped event line when Verbose is set.
func (l *LogSink) Trace(event, format string, a ...interface{}) {
	if !l.Verbose {
		return
	}
	l.Printf("%s %s %s\n", time.Now().Format("15:04:05.000000"), event, fmt.Sprintf(format, a...))
}

func (l *LogSink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closer != nil {
		err := l.closer.Close()
		l.closer = nil
		return err
	}
	return nil
}
