// Package arm declares the 32-bit ARM CPU models.
package arm

import (
	"io"

	"github.com/lunixbochs/vcpu/go/models/cpu"
	"github.com/lunixbochs/vcpu/go/models/vmstate"
)

const (
	REG_R0 = iota
	REG_R1
	REG_R2
	REG_R3
	REG_R4
	REG_R5
	REG_R6
	REG_R7
	REG_R8
	REG_R9
	REG_R10
	REG_R11
	REG_R12
	REG_SP
	REG_LR
	REG_PC
	REG_CPSR
	REG_FPSCR
	REG_SCTLR
	REG_TTBR
	REG_SCR
)

var regNames = map[int]string{
	REG_R0: "r0", REG_R1: "r1", REG_R2: "r2", REG_R3: "r3",
	REG_R4: "r4", REG_R5: "r5", REG_R6: "r6", REG_R7: "r7",
	REG_R8: "r8", REG_R9: "r9", REG_R10: "r10", REG_R11: "r11",
	REG_R12: "r12", REG_SP: "sp", REG_LR: "lr", REG_PC: "pc",
	REG_CPSR: "cpsr", REG_FPSCR: "fpscr",
	REG_SCTLR: "sctlr", REG_TTBR: "ttbr", REG_SCR: "scr",
}

const (
	SCTLR_M = 1 << 0
	SCR_NS  = 1 << 0
	CPSR_E  = 1 << 9

	// kernel virtual base when the MMU is on; ttbr holds its physical address
	KERNEL_BASE = 0xc0000000
)

var Target = &cpu.Target{Name: "arm", TypeSuffix: "arm-cpu", Bits: 32}

var Classes = cpu.NewClassTable(Target)

type env struct {
	pmu    bool
	hasEL3 bool
	panic  *cpu.GuestPanicInfo
}

func envOf(c *cpu.CPU) *env { return c.Env.(*env) }

func reg(c *cpu.CPU, enum int) uint64 {
	val, _ := c.Regs.RegRead(enum)
	return val
}

var sysops = &cpu.SysOps{
	GetPagingEnabled: func(c *cpu.CPU) bool {
		return reg(c, REG_SCTLR)&SCTLR_M != 0
	},
	GetMemoryMapping:      memoryMapping,
	GetPhysPageAttrsDebug: physPageAttrsDebug,
	AsidxFromAttrs: func(c *cpu.CPU, attrs cpu.MemTxAttrs) int {
		if attrs.Secure {
			return 1
		}
		return 0
	},
	WriteELF32Note: func(w io.Writer, c *cpu.CPU, cpuid int) error {
		return writePrstatus(w, c, cpuid)
	},
	VirtioIsBigEndian: func(c *cpu.CPU) bool {
		return reg(c, REG_CPSR)&CPSR_E != 0
	},
	GetCrashInfo: func(c *cpu.CPU) *cpu.GuestPanicInfo {
		return envOf(c).panic
	},
}

func translate(c *cpu.CPU, vaddr uint64) uint64 {
	if !c.PagingEnabled() {
		return vaddr
	}
	if vaddr < KERNEL_BASE {
		return cpu.INVALID_PHYS_ADDR
	}
	return vaddr - KERNEL_BASE + reg(c, REG_TTBR)
}

func physPageAttrsDebug(c *cpu.CPU, vaddr uint64) (uint64, cpu.MemTxAttrs) {
	attrs := cpu.MemTxAttrs{Secure: envOf(c).hasEL3 && reg(c, REG_SCR)&SCR_NS == 0}
	return translate(c, vaddr), attrs
}

func memoryMapping(c *cpu.CPU) ([]cpu.MemoryMapping, error) {
	if c.Memory == nil {
		return nil, nil
	}
	paging := c.PagingEnabled()
	ttbr := reg(c, REG_TTBR)
	var ret []cpu.MemoryMapping
	for _, p := range c.Memory.Pages() {
		m := cpu.MemoryMapping{Phys: p.Addr, Virt: p.Addr, Length: p.Size}
		if paging {
			if p.Addr < ttbr {
				continue
			}
			m.Virt = p.Addr - ttbr + KERNEL_BASE
		}
		ret = append(ret, m)
	}
	return ret, nil
}

// ReportPanic records a crash reported by the guest through firmware.
func ReportPanic(c *cpu.CPU, msg string, args ...uint64) {
	envOf(c).panic = &cpu.GuestPanicInfo{Kind: "arm-psci", Args: args, Message: msg}
	c.CrashOccurred = true
}

func regField(enum int) vmstate.Field {
	return vmstate.Uint64(regNames[enum], func(o interface{}) *uint64 { return o.(*cpu.CPU).Regs.Ptr(enum) })
}

// registers are persisted next to cpu_common; scr appeared in version 2
var vmstateRegs = &vmstate.Description{
	Name:           "arm_cpu/regs",
	Version:        2,
	MinimumVersion: 1,
	Fields: func() []vmstate.Field {
		var fields []vmstate.Field
		for enum := REG_R0; enum <= REG_TTBR; enum++ {
			fields = append(fields, regField(enum))
		}
		return append(fields, regField(REG_SCR).V(2))
	}(),
}

func newClass(model string, defaults features, deprecation string) *cpu.Class {
	typeName := model + "-" + Target.TypeSuffix
	setDefaults(typeName, defaults)
	return Classes.Register(&cpu.Class{
		TypeName:    typeName,
		Deprecation: deprecation,
		SysOps:      sysops,
		LegacyVMSD:  vmstateRegs,
		Init: func(c *cpu.CPU) {
			f := featuresOf(typeName)
			c.Env = &env{pmu: f.pmu, hasEL3: f.hasEL3}
			c.Regs = cpu.NewRegs(32, regNames)
			if f.hasEL3 {
				c.NumAddressSpaces = 2
			}
		},
		ParseFeatures: parseFeatures,
		DumpState:     dumpState,
	})
}

var (
	CortexA9  = newClass("cortex-a9", features{pmu: true, hasEL3: true}, "")
	CortexA15 = newClass("cortex-a15", features{pmu: true, hasEL3: true}, "")
	ARM926    = newClass("arm926", features{}, "no longer maintained")
)
