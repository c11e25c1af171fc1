package cpu

import (
	"fmt"
	"io"
)

// physical address returned by debug translation of an unmapped address
const INVALID_PHYS_ADDR = ^uint64(0)

// MemTxAttrs qualifies a memory transaction.
type MemTxAttrs struct {
	// Unspecified is set when the caller had no attributes to give.
	Unspecified bool
	Secure      bool
	User        bool
	Space       uint8
	RequesterID uint16
	// Debug marks debugger-originated accesses.
	Debug bool
}

var MemTxAttrsUnspecified = MemTxAttrs{Unspecified: true}

type MemoryMapping struct {
	Phys   uint64
	Virt   uint64
	Length uint64
}

func (m MemoryMapping) String() string {
	return fmt.Sprintf("virt 0x%x-0x%x -> phys 0x%x", m.Virt, m.Virt+m.Length, m.Phys)
}

// GuestPanicInfo describes a crash reported by the guest.
type GuestPanicInfo struct {
	Kind    string
	Args    []uint64
	Message string
}

// SysOps are the target-specific system operations of a class. Any of them
// may be nil.
type SysOps struct {
	GetPagingEnabled func(c *CPU) bool
	GetMemoryMapping func(c *CPU) ([]MemoryMapping, error)

	GetPhysPageDebug      func(c *CPU, addr uint64) uint64
	GetPhysPageAttrsDebug func(c *CPU, addr uint64) (uint64, MemTxAttrs)

	AsidxFromAttrs func(c *CPU, attrs MemTxAttrs) int

	WriteELF32QemuNote func(w io.Writer, c *CPU) error
	WriteELF32Note     func(w io.Writer, c *CPU, cpuid int) error
	WriteELF64QemuNote func(w io.Writer, c *CPU) error
	WriteELF64Note     func(w io.Writer, c *CPU, cpuid int) error

	VirtioIsBigEndian func(c *CPU) bool
	GetCrashInfo      func(c *CPU) *GuestPanicInfo
}

type AccelKind int

const (
	ACCEL_SOFTWARE AccelKind = iota
	ACCEL_HARDWARE
)

func (k AccelKind) String() string {
	switch k {
	case ACCEL_SOFTWARE:
		return "software"
	case ACCEL_HARDWARE:
		return "hardware"
	}
	return fmt.Sprintf("accel(%d)", int(k))
}

// AccelOps are the operations of an execution backend. One table is shared
// by every CPU the backend runs.
type AccelOps struct {
	Name string
	Kind AccelKind

	// Realize sets up AccelState. It is the only fallible step of realize.
	Realize func(c *CPU) error
	// Unrealize releases AccelState. It runs after the CPU left the
	// registry and the persistence set, so it may defer reclamation.
	Unrealize func(c *CPU)

	// UpdateGuestDebug propagates a single-step change to the backend.
	UpdateGuestDebug func(c *CPU)
	// FlushCaches drops every cached translation of the CPU.
	FlushCaches func(c *CPU)
}
