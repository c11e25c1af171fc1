package run

import (
	"github.com/lunixbochs/vcpu/go/cmd"
	"github.com/lunixbochs/vcpu/go/machine"
	"github.com/lunixbochs/vcpu/go/monitor"
)

func Main(args []string) int {
	c := cmd.NewMachineCmd()
	c.RunMachine = func(m *machine.Machine) error {
		if !c.Config.Monitor {
			return nil
		}
		repl, err := monitor.NewRepl(m)
		if err != nil {
			return err
		}
		defer repl.Close()
		repl.Run()
		return nil
	}
	return c.Run(args)
}

func init() {
	cmd.Register("run", "build a machine, optionally restore state and open the monitor", Main)
}
