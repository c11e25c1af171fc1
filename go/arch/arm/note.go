package arm

import (
	"encoding/binary"
	"io"

	"github.com/lunixbochs/struc"

	"github.com/lunixbochs/vcpu/go/models/cpu"
)

const NT_PRSTATUS = 1

// prstatusNote is an ELF note carrying pid and the user register set,
// r0-r15, cpsr, orig_r0.
type prstatusNote struct {
	Namesz uint32
	Descsz uint32
	Type   uint32
	Name   string `struc:"[8]byte"`
	Pid    uint32
	Regs   []uint32 `struc:"[18]uint32"`
}

func writePrstatus(w io.Writer, c *cpu.CPU, cpuid int) error {
	note := &prstatusNote{
		Namesz: 5,
		Descsz: 4 + 18*4,
		Type:   NT_PRSTATUS,
		Name:   "CORE",
		Pid:    uint32(cpuid),
		Regs:   make([]uint32, 18),
	}
	for enum := REG_R0; enum <= REG_PC; enum++ {
		note.Regs[enum] = uint32(reg(c, enum))
	}
	note.Regs[16] = uint32(reg(c, REG_CPSR))
	order := binary.ByteOrder(binary.LittleEndian)
	if reg(c, REG_CPSR)&CPSR_E != 0 {
		order = binary.BigEndian
	}
	return struc.PackWithOptions(w, note, &struc.Options{Order: order})
}
