//go:build linux || darwin

package cpu

import (
	"os"
	"os/signal"
	"runtime/debug"

	"golang.org/x/sys/unix"
)

// abort raises SIGABRT. The runtime's handler prints every goroutine and,
// at the crash traceback level, re-raises the signal with the default
// action, so the process dies by SIGABRT. os.Exit is reached only if
// something still catches the signal.
func abort(userOnly bool) {
	if userOnly {
		// the guest signal emulation may have claimed SIGABRT
		signal.Reset(unix.SIGABRT)
	}
	debug.SetTraceback("crash")
	unix.Kill(unix.Getpid(), unix.SIGABRT)
	os.Exit(128 + int(unix.SIGABRT))
}
