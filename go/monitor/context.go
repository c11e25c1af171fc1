package monitor

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/lunixbochs/vcpu/go/machine"
	"github.com/lunixbochs/vcpu/go/models/cpu"
)

type Context struct {
	io.ReadWriter
	M *machine.Machine
	// Current is the index of the CPU commands act on.
	Current int
}

func (c *Context) Printf(format string, a ...interface{}) (n int, err error) {
	return fmt.Fprintf(c, format, a...)
}

// CPU returns the selected CPU.
func (c *Context) CPU() (*cpu.CPU, error) {
	if v := c.M.CPU(c.Current); v != nil {
		return v, nil
	}
	return nil, errors.Errorf("no cpu #%d", c.Current)
}
