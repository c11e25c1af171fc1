// Package cpu is the target- and backend-agnostic CPU object model.
//
// A CPU is an instance of a Class. The class carries the target's system
// operations (SysOps); the active accelerator carries the backend's
// operations (AccelOps). Every operation is optional and the dispatch
// methods on *CPU fall back to a documented default when a table leaves it
// unset.
package cpu

import (
	"fmt"

	"github.com/lunixbochs/vcpu/go/models"
	"github.com/lunixbochs/vcpu/go/models/memory"
	"github.com/lunixbochs/vcpu/go/models/replay"
)

const (
	// Index of a CPU that has not been added to a registry yet.
	UnassignedIndex = -1
	// ExceptionIndex value meaning no exception is pending.
	NoException = -1
)

// interrupt_request bits
const (
	// Bit 0 used to request an exit from the execution loop. It is retired
	// and cleared on every state load.
	INTERRUPT_EXIT_RETIRED = 0x0001

	INTERRUPT_HARD  = 0x0002
	INTERRUPT_HALT  = 0x0020
	INTERRUPT_DEBUG = 0x0080
	INTERRUPT_RESET = 0x0400
)

type CPU struct {
	Index int

	Halted            bool
	InterruptRequest  uint32
	ExceptionIndex    int32
	CrashOccurred     bool
	SinglestepEnabled bool
	StartPoweredOff   bool

	NumAddressSpaces int

	// Memory is shared with the machine; the CPU holds a reference from New
	// until Finalize.
	Memory *memory.Region
	// AccelState belongs to the accelerator and is only touched by it.
	AccelState interface{}
	// Env is target-private state set up by Class.Init.
	Env  interface{}
	Regs *Regs

	Class *Class
	Accel *AccelOps

	Reporter *Reporter
	Log      *models.LogSink
	Replay   *replay.Writer

	finalized bool
}

// New initializes an unrealized CPU of class c running under accel. mem is
// normally the machine's system memory; nil leaves the CPU without memory.
func New(c *Class, accel *AccelOps, mem *memory.Region) *CPU {
	cpu := &CPU{
		Index:            UnassignedIndex,
		ExceptionIndex:   NoException,
		NumAddressSpaces: 1,
		Class:            c,
		Accel:            accel,
		Memory:           mem,
	}
	if mem != nil {
		mem.Ref()
	}
	if c.Init != nil {
		c.Init(cpu)
	}
	return cpu
}

// Finalize drops the CPU's memory reference. It must be called once, after
// the CPU has been unrealized or failed to realize.
func (c *CPU) Finalize() {
	if c.finalized {
		c.Abort("cpu finalized twice")
		return
	}
	c.finalized = true
	if c.Memory != nil {
		c.Memory.Unref()
	}
}

func (c *CPU) String() string {
	return fmt.Sprintf("<CPU %d %s>", c.Index, c.Class.TypeName)
}

// SoftwareAccel reports whether the active accelerator executes guest code
// in software (and therefore keeps translation caches).
func (c *CPU) SoftwareAccel() bool {
	return c.Accel != nil && c.Accel.Kind == ACCEL_SOFTWARE
}

func (c *CPU) RaiseInterrupt(mask uint32) {
	c.InterruptRequest |= mask
	if c.Replay != nil {
		c.Replay.Record(&replay.OpInterrupt{CPU: uint32(c.Index), Mask: c.InterruptRequest})
	}
}

func (c *CPU) ResetInterrupt(mask uint32) {
	c.InterruptRequest &^= mask
	if c.Replay != nil {
		c.Replay.Record(&replay.OpInterrupt{CPU: uint32(c.Index), Mask: c.InterruptRequest})
	}
}

func (c *CPU) reporter() *Reporter {
	if c.Reporter != nil {
		return c.Reporter
	}
	return DefaultReporter
}
