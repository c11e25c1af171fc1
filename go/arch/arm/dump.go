package arm

import (
	"fmt"
	"io"

	"github.com/lunixbochs/vcpu/go/models/cpu"
)

func flag(psr uint64, bit uint, c byte) byte {
	if psr&(1<<bit) != 0 {
		return c
	}
	return '-'
}

func dumpState(c *cpu.CPU, w io.Writer, flags cpu.DumpFlags) {
	var core []cpu.RegVal
	for _, r := range c.Regs.Dump() {
		if r.Enum <= REG_PC {
			core = append(core, r)
		}
	}
	cpu.DumpRegs(w, core, 32, cpu.WantColor(w))
	psr := reg(c, REG_CPSR)
	if flags&cpu.DUMP_CCOP != 0 {
		fmt.Fprintf(w, "PSR=%08x %c%c%c%c\n", psr,
			flag(psr, 31, 'N'), flag(psr, 30, 'Z'), flag(psr, 29, 'C'), flag(psr, 28, 'V'))
	}
	if flags&cpu.DUMP_FPU != 0 {
		fmt.Fprintf(w, "FPSCR=%08x\n", reg(c, REG_FPSCR))
	}
	e := envOf(c)
	fmt.Fprintf(w, "SCTLR=%08x TTBR=%08x SCR=%08x pmu=%t el3=%t\n",
		reg(c, REG_SCTLR), reg(c, REG_TTBR), reg(c, REG_SCR), e.pmu, e.hasEL3)
}
