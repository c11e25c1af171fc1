package cpu

import (
	"fmt"
	"io"
	"os"

	"github.com/lunixbochs/vcpu/go/models"
	"github.com/lunixbochs/vcpu/go/models/replay"
)

// Finisher completes an in-flight replay recording.
type Finisher interface {
	Finish() error
}

// Reporter handles irrecoverable errors: it dumps the offending CPU to every
// sink, closes the replay recording and aborts the process.
type Reporter struct {
	// Sinks get the report unconditionally. Empty means stderr.
	Sinks []io.Writer
	// Log gets the report too when it is separate from stderr and can be
	// taken without blocking.
	Log    *models.LogSink
	Replay Finisher
	// UserOnly restores the default SIGABRT disposition before aborting.
	UserOnly bool

	// Terminate ends the process without running deferred cleanup.
	Terminate func(userOnly bool)
}

var DefaultReporter = &Reporter{}

func report(w io.Writer, c *CPU, msg string) {
	io.WriteString(w, msg)
	if c != nil {
		c.DumpState(w, DUMP_FPU|DUMP_CCOP)
	}
}

func (r *Reporter) Abort(c *CPU, format string, a ...interface{}) {
	msg := "vcpu: fatal: " + fmt.Sprintf(format, a...) + "\n"
	sinks := r.Sinks
	if len(sinks) == 0 {
		sinks = []io.Writer{os.Stderr}
	}
	for _, w := range sinks {
		report(w, c, msg)
	}
	if r.Log != nil && r.Log.Separate() {
		if w, ok := r.Log.TryLock(); ok {
			func() {
				defer r.Log.Unlock()
				report(w, c, msg)
			}()
		}
	}
	if r.Replay != nil {
		r.Replay.Finish()
	}
	terminate := r.Terminate
	if terminate == nil {
		terminate = abort
	}
	terminate(r.UserOnly)
}

// Abort reports an irrecoverable error on c and terminates the process.
func (c *CPU) Abort(format string, a ...interface{}) {
	if c.Replay != nil {
		c.Replay.Record(&replay.OpAbort{CPU: uint32(c.Index)})
	}
	c.reporter().Abort(c, format, a...)
}
