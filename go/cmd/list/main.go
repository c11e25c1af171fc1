package list

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/lunixbochs/vcpu/go/arch"
	"github.com/lunixbochs/vcpu/go/cmd"
)

// List prints the models of archName, or of every target if it is empty.
func List(w io.Writer, archName string) error {
	names := arch.Names()
	if archName != "" {
		names = []string{archName}
	}
	for i, name := range names {
		classes, err := arch.GetArch(name)
		if err != nil {
			return err
		}
		if len(names) > 1 {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "%s:\n", name)
		}
		classes.List(w)
	}
	return nil
}

func Main(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	archName := fs.String("arch", "", "only list models of this architecture")
	if err := fs.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if err := List(os.Stdout, *archName); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func init() {
	cmd.Register("list", "list cpu models", Main)
}
