// Package mips declares the big-endian MIPS32 CPU models. The models keep
// their own state record and leave most system operations to the defaults.
package mips

import (
	"github.com/pkg/errors"

	"github.com/lunixbochs/vcpu/go/models/cpu"
	"github.com/lunixbochs/vcpu/go/models/vmstate"
)

const (
	REG_ZERO = iota
	REG_AT
	REG_V0
	REG_V1
	REG_A0
	REG_A1
	REG_A2
	REG_A3
	REG_T0
	REG_T1
	REG_T2
	REG_T3
	REG_T4
	REG_T5
	REG_T6
	REG_T7
	REG_S0
	REG_S1
	REG_S2
	REG_S3
	REG_S4
	REG_S5
	REG_S6
	REG_S7
	REG_T8
	REG_T9
	REG_K0
	REG_K1
	REG_GP
	REG_SP
	REG_FP
	REG_RA
	REG_PC
	REG_HI
	REG_LO
)

var regNames = map[int]string{
	REG_ZERO: "zero", REG_AT: "at", REG_V0: "v0", REG_V1: "v1",
	REG_A0: "a0", REG_A1: "a1", REG_A2: "a2", REG_A3: "a3",
	REG_T0: "t0", REG_T1: "t1", REG_T2: "t2", REG_T3: "t3",
	REG_T4: "t4", REG_T5: "t5", REG_T6: "t6", REG_T7: "t7",
	REG_S0: "s0", REG_S1: "s1", REG_S2: "s2", REG_S3: "s3",
	REG_S4: "s4", REG_S5: "s5", REG_S6: "s6", REG_S7: "s7",
	REG_T8: "t8", REG_T9: "t9", REG_K0: "k0", REG_K1: "k1",
	REG_GP: "gp", REG_SP: "sp", REG_FP: "fp", REG_RA: "ra",
	REG_PC: "pc", REG_HI: "hi", REG_LO: "lo",
}

var Target = &cpu.Target{Name: "mips", TypeSuffix: "mips-cpu", BigEndian: true, Bits: 32}

var Classes = cpu.NewClassTable(Target)

// kseg0 and kseg1 are unmapped windows onto the low 512MB
const (
	KSEG0     = 0x80000000
	KSEG2     = 0xc0000000
	KSEG_MASK = 0x1fffffff
)

var sysops = &cpu.SysOps{
	GetPhysPageDebug: func(c *cpu.CPU, vaddr uint64) uint64 {
		if vaddr >= KSEG0 && vaddr < KSEG2 {
			return vaddr & KSEG_MASK
		}
		return cpu.INVALID_PHYS_ADDR
	},
}

func asCPU(o interface{}) *cpu.CPU { return o.(*cpu.CPU) }

func regField(enum int) vmstate.Field {
	return vmstate.Uint64(regNames[enum], func(o interface{}) *uint64 { return asCPU(o).Regs.Ptr(enum) })
}

var vmstateMips = &vmstate.Description{
	Name:           "mips_cpu",
	Version:        1,
	MinimumVersion: 1,
	PostLoad: func(o interface{}, version int) {
		c := asCPU(o)
		c.InterruptRequest &^= cpu.INTERRUPT_EXIT_RETIRED
		if c.SoftwareAccel() && c.Accel.FlushCaches != nil {
			c.Accel.FlushCaches(c)
		}
	},
	Fields: func() []vmstate.Field {
		fields := []vmstate.Field{
			vmstate.Bool("halted", func(o interface{}) *bool { return &asCPU(o).Halted }),
			vmstate.Uint32("interrupt_request", func(o interface{}) *uint32 { return &asCPU(o).InterruptRequest }),
		}
		for enum := REG_ZERO; enum <= REG_LO; enum++ {
			fields = append(fields, regField(enum))
		}
		return fields
	}(),
}

func parseFeatures(typeName, list string) error {
	if list != "" {
		return errors.Errorf("%s takes no features", typeName)
	}
	return nil
}

func newClass(model, deprecation string) *cpu.Class {
	return Classes.Register(&cpu.Class{
		TypeName:    model + "-" + Target.TypeSuffix,
		Deprecation: deprecation,
		SysOps:      sysops,
		VMSD:        vmstateMips,
		Init: func(c *cpu.CPU) {
			c.Regs = cpu.NewRegs(32, regNames)
		},
		ParseFeatures: parseFeatures,
	})
}

var (
	M24Kc = newClass("24Kc", "")
	M24Kf = newClass("24Kf", "")
	M34Kf = newClass("34Kf", "")
	M4Kc  = newClass("4Kc", "superseded by 24Kc")
)
