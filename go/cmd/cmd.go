package cmd

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/lunixbochs/vcpu/go/accel"
	"github.com/lunixbochs/vcpu/go/arch"
	"github.com/lunixbochs/vcpu/go/machine"
	"github.com/lunixbochs/vcpu/go/models"
)

type MachineCmd struct {
	Config *models.Config

	SetupFlags func() error
	RunMachine func(m *machine.Machine) error

	Machine *machine.Machine
	Flags   *flag.FlagSet
	// Stdout and Stderr default to the process streams.
	Stdout, Stderr io.Writer
}

func NewMachineCmd() *MachineCmd {
	fs := flag.NewFlagSet("cli", flag.ContinueOnError)
	return &MachineCmd{Flags: fs, Stdout: os.Stdout, Stderr: os.Stderr}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func (c *MachineCmd) PrintError(err error) {
	// print an error, and a stacktrace if available
	w := c.Stderr
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 40))
	fmt.Fprintf(w, "Error: %s\n", err)
	if err, ok := err.(stackTracer); ok && c.Config != nil && c.Config.Verbose {
		for _, f := range err.StackTrace() {
			fmt.Fprintf(w, "  %s:%d | %n()\n", f, f, f)
			if fmt.Sprintf("%n", f) == "main" {
				break
			}
		}
	}
}

// Run parses argv, builds the machine and hands it to RunMachine. It returns
// the process exit status.
func (c *MachineCmd) Run(argv []string) int {
	fs := c.Flags
	fs.SetOutput(c.Stderr)
	defaults := models.DefaultConfig()
	archName := fs.String("arch", defaults.Arch, "target architecture ("+strings.Join(arch.Names(), ", ")+")")
	cpuOpt := fs.String("cpu", defaults.CPU, "cpu model and features, model[,feature=on|off...] (\"help\" lists models)")
	smp := fs.Int("smp", defaults.SMP, "number of cpus")
	accelName := fs.String("accel", defaults.Accel, "execution backend ("+strings.Join(accel.Names(), ", ")+")")
	memMB := fs.Uint64("m", defaults.MemSize>>20, "RAM size in MiB")

	logfile := fs.String("D", "", "write the debug log to file (default stderr)")
	verbose := fs.Bool("v", false, "verbose output and trace events")

	load := fs.String("load", "", "restore machine state from file")
	save := fs.String("save", "", "save machine state to file on exit")
	replayFile := fs.String("replay", "", "record nondeterministic events to file")
	monitor := fs.Bool("monitor", false, "start the interactive monitor")
	userOnly := fs.Bool("user", false, "restore the default SIGABRT handler before a fatal abort")
	// used for Usage grouping
	snames := []string{"load", "save", "replay", "monitor"}

	fs.Usage = func() {
		fmt.Fprintf(c.Stderr, "Usage: %s [options]\n\nOptions:\n", argv[0])
		var flags, sflags []*flag.Flag
		fs.VisitAll(func(f *flag.Flag) {
			for _, name := range snames {
				if name == f.Name {
					sflags = append(sflags, f)
					return
				}
			}
			flags = append(flags, f)
		})
		models.PrintFlags(c.Stderr, flags)
		fmt.Fprintf(c.Stderr, "\nState Options:\n")
		models.PrintFlags(c.Stderr, sflags)
		fmt.Fprintf(c.Stderr, "\nExample:\n  %s -arch arm -cpu cortex-a15,pmu=off -smp 2 -monitor\n", argv[0])
	}
	if c.SetupFlags != nil {
		if err := c.SetupFlags(); err != nil {
			c.PrintError(err)
			return 1
		}
	}
	if err := fs.Parse(argv[1:]); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	classes, err := arch.GetArch(*archName)
	if err != nil {
		c.PrintError(err)
		return 1
	}
	if *cpuOpt == "help" {
		classes.List(c.Stdout)
		return 0
	}
	// a bad -cpu is a configuration error and exits the process
	classes.MustParseOption(*cpuOpt)

	c.Config = &models.Config{
		Arch:       *archName,
		CPU:        *cpuOpt,
		SMP:        *smp,
		Accel:      *accelName,
		MemSize:    *memMB << 20,
		LogFile:    models.ExpandPath(*logfile),
		Verbose:    *verbose,
		SaveFile:   *save,
		LoadFile:   *load,
		ReplayFile: *replayFile,
		Monitor:    *monitor,
		UserOnly:   *userOnly,
	}
	m, err := machine.New(c.Config)
	if err != nil {
		c.PrintError(err)
		return 1
	}
	c.Machine = m
	defer m.Close()

	if c.Config.LoadFile != "" {
		if err := m.LoadFile(c.Config.LoadFile); err != nil {
			c.PrintError(err)
			return 1
		}
	}
	if c.RunMachine != nil {
		if err := c.RunMachine(m); err != nil {
			c.PrintError(err)
			return 1
		}
	}
	if c.Config.SaveFile != "" {
		if err := m.SaveFile(c.Config.SaveFile); err != nil {
			c.PrintError(err)
			return 1
		}
	}
	if err := m.Close(); err != nil {
		c.PrintError(err)
		return 1
	}
	return 0
}
