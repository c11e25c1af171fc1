package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
)

type command struct {
	name, desc string
	main       func(args []string) int
}

var commands = make(map[string]*command)
var pad = len("help")

// Register adds a subcommand. main gets "<prog> <name>" as args[0] and
// returns the process exit status.
func Register(name, desc string, main func(args []string) int) {
	if len(name) > pad {
		pad = len(name)
	}
	commands[name] = &command{name, desc, main}
}

func printCommands(w io.Writer, prog string) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "Commands:")
	fstr := fmt.Sprintf("  %%-%ds | %%s\n", pad)
	for _, name := range names {
		fmt.Fprintf(w, fstr, name, commands[name].desc)
	}
	fmt.Fprintf(w, fstr, "help", "show the options of a command")
	fmt.Fprintf(w, "\nExample: %s run -cpu cortex-a9 -smp 2 -monitor\n\n", prog)
}

// Dispatch runs the subcommand named by argv[1] and returns its exit
// status. "help <command>" runs the command with -h.
func Dispatch(argv []string, stderr io.Writer) int {
	if len(argv) < 2 {
		printCommands(stderr, argv[0])
		return 1
	}
	name, args := argv[1], argv[2:]
	if name == "help" {
		if len(args) == 0 {
			printCommands(stderr, argv[0])
			return 0
		}
		name, args = args[0], []string{"-h"}
	}
	cmd, ok := commands[name]
	if !ok {
		c := &MachineCmd{Stderr: stderr}
		c.PrintError(errors.Errorf("command '%s' not found", name))
		printCommands(stderr, argv[0])
		return 1
	}
	return cmd.main(append([]string{argv[0] + " " + name}, args...))
}

func Main() {
	os.Exit(Dispatch(os.Args, os.Stderr))
}
