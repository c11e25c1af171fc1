package cpu

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/mgutz/ansi"
)

var chName = ansi.ColorCode("default+b:default")
var chZero = ansi.ColorCode("black+h:default")

func colorPad(s, color string, pad int) string {
	length := len(s)
	s = color + s + ansi.Reset
	if length < pad {
		s = strings.Repeat(" ", pad-length) + s
	}
	return s
}

// WantColor reports whether w is a terminal that takes ANSI colors.
func WantColor(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DumpRegs prints regs four to a row, bits wide.
func DumpRegs(w io.Writer, regs []RegVal, bits int, color bool) {
	hexFmt := fmt.Sprintf("%%0%dx", bits/4)
	cols := 4
	for i, reg := range regs {
		val := fmt.Sprintf(hexFmt, reg.Val)
		if color {
			name := colorPad(reg.Name, chName, 4)
			if reg.Val == 0 {
				val = chZero + val + ansi.Reset
			}
			fmt.Fprintf(w, " %s 0x%s", name, val)
		} else {
			fmt.Fprintf(w, " %4s 0x%s", reg.Name, val)
		}
		if i%cols == cols-1 || i == len(regs)-1 {
			fmt.Fprintln(w)
		}
	}
}

// DumpState prints the generic CPU state, then the target's registers.
func (c *CPU) DumpState(w io.Writer, flags DumpFlags) {
	fmt.Fprintf(w, "CPU#%d %s halted=%t irq=%#x exception=%d crashed=%t singlestep=%t\n",
		c.Index, c.Class.TypeName, c.Halted, c.InterruptRequest, c.ExceptionIndex,
		c.CrashOccurred, c.SinglestepEnabled)
	if c.Class.DumpState != nil {
		c.Class.DumpState(c, w, flags)
	} else if c.Regs != nil {
		bits := 64
		if c.Class.Target != nil && c.Class.Target.Bits > 0 {
			bits = c.Class.Target.Bits
		}
		DumpRegs(w, c.Regs.Dump(), bits, WantColor(w))
	}
}
