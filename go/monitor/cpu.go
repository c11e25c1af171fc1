package monitor

import (
	"github.com/pkg/errors"

	"github.com/lunixbochs/vcpu/go/models/cpu"
	"github.com/lunixbochs/vcpu/go/models/memory"
)

var InfoCmd = cmd(&Command{
	Name: "info",
	Desc: "Show machine information (cpus, regs, crash).",
	Run: func(c *Context, what string) error {
		switch what {
		case "cpus":
			c.M.CPUs.Iterate(func(v *cpu.CPU) bool {
				mark := " "
				if v.Index == c.Current {
					mark = "*"
				}
				model, _ := c.M.Classes.ModelFromType(v.Class.TypeName)
				c.Printf("%s CPU #%d: %s halted=%t\n", mark, v.Index, model, v.Halted)
				return true
			})
		case "regs":
			v, err := c.CPU()
			if err != nil {
				return err
			}
			v.DumpState(c, cpu.DUMP_FPU|cpu.DUMP_CCOP)
		case "crash":
			v, err := c.CPU()
			if err != nil {
				return err
			}
			info := v.CrashInfo()
			if info == nil {
				c.Printf("no crash information\n")
				return nil
			}
			c.Printf("%s: %s %#x\n", info.Kind, info.Message, info.Args)
		default:
			return errors.Errorf("unknown info topic '%s'", what)
		}
		return nil
	},
})

var CpuCmd = cmd(&Command{
	Name: "cpu",
	Desc: "Select the current CPU.",
	Run: func(c *Context, index int) error {
		if c.M.CPU(index) == nil {
			return errors.Errorf("no cpu #%d", index)
		}
		c.Current = index
		return nil
	},
})

var SinglestepCmd = cmd(&Command{
	Name: "singlestep",
	Desc: "Enable or disable single-stepping on the current CPU.",
	Run: func(c *Context, on bool) error {
		v, err := c.CPU()
		if err != nil {
			return err
		}
		v.SetSingleStep(on)
		return nil
	},
})

var GpaCmd = cmd(&Command{
	Name: "gpa",
	Desc: "Translate a virtual address for the current CPU.",
	Run: func(c *Context, addr uint64) error {
		v, err := c.CPU()
		if err != nil {
			return err
		}
		paddr, attrs := v.PhysPageAttrsDebug(addr)
		if paddr == cpu.INVALID_PHYS_ADDR {
			c.Printf("Unmapped\n")
			return nil
		}
		c.Printf("gpa: %#x secure=%t asidx=%d\n", paddr, attrs.Secure, v.AsidxFromAttrs(attrs))
		return nil
	},
})

var PagingCmd = cmd(&Command{
	Name: "paging",
	Desc: "Show whether the current CPU has paging enabled.",
	Run: func(c *Context) error {
		v, err := c.CPU()
		if err != nil {
			return err
		}
		c.Printf("paging: %t\n", v.PagingEnabled())
		return nil
	},
})

var MemmapCmd = cmd(&Command{
	Name: "memmap",
	Desc: "Display the current CPU's virtual to physical mappings.",
	Run: func(c *Context) error {
		v, err := c.CPU()
		if err != nil {
			return err
		}
		maps, err := v.MemoryMapping()
		if err != nil {
			return err
		}
		for _, m := range maps {
			c.Printf("  %v\n", m)
		}
		return nil
	},
})

var RegCmd = cmd(&Command{
	Name: "reg",
	Desc: "Write a register of the current CPU.",
	Run: func(c *Context, name string, val uint64) error {
		v, err := c.CPU()
		if err != nil {
			return err
		}
		enum, ok := v.Regs.Lookup(name)
		if !ok {
			return errors.Errorf("unknown register '%s'", name)
		}
		return v.Regs.RegWrite(enum, val)
	},
})

var IrqCmd = cmd(&Command{
	Name: "irq",
	Desc: "Raise (on) or clear (off) the hard interrupt line of the current CPU.",
	Run: func(c *Context, on bool) error {
		v, err := c.CPU()
		if err != nil {
			return err
		}
		if on {
			v.RaiseInterrupt(cpu.INTERRUPT_HARD)
		} else {
			v.ResetInterrupt(cpu.INTERRUPT_HARD)
		}
		return nil
	},
})

const maxDump = 64 << 10

// dumpMem prints size bytes of physical memory at paddr, labelled from addr.
func dumpMem(c *Context, addr, paddr, size uint64) error {
	if size > maxDump {
		return errors.Errorf("size %#x exceeds %#x", size, maxDump)
	}
	mem := make([]byte, size)
	if err := c.M.Memory.Read(paddr, mem); err != nil {
		return err
	}
	for _, line := range memory.HexDump(addr, mem, c.M.Classes.Target.Bits) {
		c.Printf("  %s\n", line)
	}
	return nil
}

var XpCmd = cmd(&Command{
	Name: "xp",
	Desc: "Dump physical memory.",
	Run: func(c *Context, addr, size uint64) error {
		return dumpMem(c, addr, addr, size)
	},
})

var XCmd = cmd(&Command{
	Name: "x",
	Desc: "Dump memory at a virtual address of the current CPU.",
	Run: func(c *Context, addr, size uint64) error {
		v, err := c.CPU()
		if err != nil {
			return err
		}
		paddr := v.PhysPageDebug(addr)
		if paddr == cpu.INVALID_PHYS_ADDR {
			return errors.Errorf("%#x is not mapped", addr)
		}
		return dumpMem(c, addr, paddr, size)
	},
})
