package inspect

import (
	"fmt"

	"github.com/lunixbochs/vcpu/go/cmd"
	"github.com/lunixbochs/vcpu/go/machine"
	"github.com/lunixbochs/vcpu/go/models/cpu"
)

// Inspect prints every CPU's state, translation setup and state records.
func Inspect(c *cmd.MachineCmd, m *machine.Machine) error {
	w := c.Stdout
	m.CPUs.Iterate(func(v *cpu.CPU) bool {
		v.DumpState(w, cpu.DUMP_FPU|cpu.DUMP_CCOP)
		fmt.Fprintf(w, "paging: %t big-endian virtio: %t\n", v.PagingEnabled(), v.VirtioIsBigEndian())
		maps, merr := v.MemoryMapping()
		if merr != nil {
			fmt.Fprintf(w, "memory mapping: %v\n", merr)
		}
		for _, mm := range maps {
			fmt.Fprintf(w, "  %v\n", mm)
		}
		return true
	})
	fmt.Fprintln(w, "state records:")
	for _, e := range m.State.Entries() {
		fmt.Fprintf(w, "  %d %v\n", e.InstanceID, e.Desc)
	}
	return nil
}

func Main(args []string) int {
	c := cmd.NewMachineCmd()
	c.RunMachine = func(m *machine.Machine) error { return Inspect(c, m) }
	return c.Run(args)
}

func init() {
	cmd.Register("inspect", "print the state of a freshly built or restored machine", Main)
}
