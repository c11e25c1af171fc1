package cpu

import (
	"io"

	"github.com/pkg/errors"

	"github.com/lunixbochs/vcpu/go/models/replay"
)

var (
	ErrMemoryMappingUnsupported = errors.New("obtaining memory mappings is unsupported on this CPU")
	ErrNoteUnsupported          = errors.New("core dump note not implemented for this CPU")
)

func (c *CPU) sysops() *SysOps {
	if c.Class.SysOps == nil {
		return &SysOps{}
	}
	return c.Class.SysOps
}

func (c *CPU) PagingEnabled() bool {
	if ops := c.sysops(); ops.GetPagingEnabled != nil {
		return ops.GetPagingEnabled(c)
	}
	return false
}

func (c *CPU) MemoryMapping() ([]MemoryMapping, error) {
	if ops := c.sysops(); ops.GetMemoryMapping != nil {
		return ops.GetMemoryMapping(c)
	}
	return nil, ErrMemoryMappingUnsupported
}

// PhysPageAttrsDebug translates addr for the debugger. Targets without an
// attribute-aware translation get unspecified attributes. The returned
// attributes are always marked as a debug access.
func (c *CPU) PhysPageAttrsDebug(addr uint64) (uint64, MemTxAttrs) {
	ops := c.sysops()
	var paddr uint64
	var attrs MemTxAttrs
	if ops.GetPhysPageAttrsDebug != nil {
		paddr, attrs = ops.GetPhysPageAttrsDebug(c, addr)
	} else {
		attrs = MemTxAttrsUnspecified
		paddr = INVALID_PHYS_ADDR
		if ops.GetPhysPageDebug != nil {
			paddr = ops.GetPhysPageDebug(c, addr)
		}
	}
	attrs.Debug = true
	return paddr, attrs
}

func (c *CPU) PhysPageDebug(addr uint64) uint64 {
	paddr, _ := c.PhysPageAttrsDebug(addr)
	return paddr
}

// AsidxFromAttrs picks the address space an access with attrs targets.
// An index outside [0, NumAddressSpaces) is a fatal error.
func (c *CPU) AsidxFromAttrs(attrs MemTxAttrs) int {
	ret := 0
	if ops := c.sysops(); ops.AsidxFromAttrs != nil {
		ret = ops.AsidxFromAttrs(c, attrs)
	}
	if ret < 0 || ret >= c.NumAddressSpaces {
		c.Abort("address space index %d out of range [0, %d)", ret, c.NumAddressSpaces)
	}
	return ret
}

// WriteELF32QemuNote writes the emulator-specific note, if the target has one.
func (c *CPU) WriteELF32QemuNote(w io.Writer) error {
	if ops := c.sysops(); ops.WriteELF32QemuNote != nil {
		return ops.WriteELF32QemuNote(w, c)
	}
	return nil
}

func (c *CPU) WriteELF32Note(w io.Writer, cpuid int) error {
	if ops := c.sysops(); ops.WriteELF32Note != nil {
		return ops.WriteELF32Note(w, c, cpuid)
	}
	return ErrNoteUnsupported
}

func (c *CPU) WriteELF64QemuNote(w io.Writer) error {
	if ops := c.sysops(); ops.WriteELF64QemuNote != nil {
		return ops.WriteELF64QemuNote(w, c)
	}
	return nil
}

func (c *CPU) WriteELF64Note(w io.Writer, cpuid int) error {
	if ops := c.sysops(); ops.WriteELF64Note != nil {
		return ops.WriteELF64Note(w, c, cpuid)
	}
	return ErrNoteUnsupported
}

func (c *CPU) VirtioIsBigEndian() bool {
	if ops := c.sysops(); ops.VirtioIsBigEndian != nil {
		return ops.VirtioIsBigEndian(c)
	}
	return c.Class.Target.BigEndian
}

func (c *CPU) CrashInfo() *GuestPanicInfo {
	if ops := c.sysops(); ops.GetCrashInfo != nil {
		return ops.GetCrashInfo(c)
	}
	return nil
}

// SetSingleStep enables or disables single-step mode. The CPU's execution
// context must be paused.
func (c *CPU) SetSingleStep(enabled bool) {
	if c.SinglestepEnabled == enabled {
		return
	}
	c.SinglestepEnabled = enabled
	if c.Accel != nil && c.Accel.UpdateGuestDebug != nil {
		c.Accel.UpdateGuestDebug(c)
	}
	if c.Log != nil {
		c.Log.Trace("breakpoint_singlestep", "cpu=%d enable=%t", c.Index, enabled)
	}
	if c.Replay != nil {
		c.Replay.Record(&replay.OpSingleStep{CPU: uint32(c.Index), Enabled: enabled})
	}
}
