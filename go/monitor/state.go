package monitor

import (
	"os"

	"github.com/pkg/errors"

	"github.com/lunixbochs/vcpu/go/models/cpu"
)

var SavevmCmd = cmd(&Command{
	Name: "savevm",
	Desc: "Save machine state to a file.",
	Run: func(c *Context, path string) error {
		return c.M.SaveFile(path)
	},
})

var LoadvmCmd = cmd(&Command{
	Name: "loadvm",
	Desc: "Load machine state from a file.",
	Run: func(c *Context, path string) error {
		return c.M.LoadFile(path)
	},
})

// writeNotes writes the core dump notes of every CPU, numbered from 1.
func writeNotes(c *Context, f *os.File) error {
	var err error
	bits := c.M.Classes.Target.Bits
	c.M.CPUs.Iterate(func(v *cpu.CPU) bool {
		if bits == 64 {
			err = v.WriteELF64Note(f, v.Index+1)
		} else {
			err = v.WriteELF32Note(f, v.Index+1)
		}
		if err == nil {
			if bits == 64 {
				err = v.WriteELF64QemuNote(f)
			} else {
				err = v.WriteELF32QemuNote(f)
			}
		}
		if err != nil {
			err = errors.Wrapf(err, "cpu #%d", v.Index)
			return false
		}
		return true
	})
	return err
}

var DumpCmd = cmd(&Command{
	Name: "dump",
	Desc: "Write the CPUs' core dump notes to a file.",
	Run: func(c *Context, path string) error {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := writeNotes(c, f); err != nil {
			f.Close()
			os.Remove(path)
			return err
		}
		return f.Close()
	},
})

var CrashCmd = cmd(&Command{
	Name: "crash",
	Desc: "Report a fatal error on the current CPU and abort.",
	Run: func(c *Context, reason string) error {
		v, err := c.CPU()
		if err != nil {
			return err
		}
		v.Abort("monitor: %s", reason)
		return nil
	},
})
