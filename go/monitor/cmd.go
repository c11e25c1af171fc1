// Package monitor is the interactive console for inspecting and steering a
// running machine.
package monitor

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/lunixbochs/argjoy"
	"github.com/pkg/errors"
)

type Command struct {
	Name string
	Desc string
	// Run is a func(c *Context, args...) error; the remaining arguments are
	// converted from the command line by type.
	Run interface{}
}

var Commands = make(map[string]*Command)

func cmd(c *Command) *Command {
	fn := reflect.ValueOf(c.Run)
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		panic(fmt.Sprintf("Command.Run must be a func: got (%T) %#v\n", c.Run, c.Run))
	}
	Commands[c.Name] = c
	return c
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, errors.Errorf("expected on or off, got '%s'", s)
}

// argCodec converts one command-line word to a Run parameter.
func argCodec(arg interface{}, vals []interface{}) error {
	s, ok := vals[0].(string)
	if !ok {
		return argjoy.NoMatch
	}
	var err error
	switch v := arg.(type) {
	case *string:
		*v = s
	case *uint64:
		*v, err = strconv.ParseUint(s, 0, 64)
	case *int:
		*v, err = strconv.Atoi(s)
	case *bool:
		*v, err = parseBool(s)
	default:
		return argjoy.NoMatch
	}
	return err
}

var aj = argjoy.NewArgjoy()

func init() { aj.Register(argCodec) }

// usage is the parameter list of a command, e.g. "cpu <int>".
func usage(c *Command) string {
	t := reflect.TypeOf(c.Run)
	parts := []string{c.Name}
	for i := 1; i < t.NumIn(); i++ {
		parts = append(parts, "<"+t.In(i).String()+">")
	}
	return strings.Join(parts, " ")
}

func call(c *Context, command *Command, args []string) error {
	fn := reflect.ValueOf(command.Run)
	t := fn.Type()
	if len(args) != t.NumIn()-1 {
		return errors.Errorf("usage: %s", usage(command))
	}
	in := make([]reflect.Type, t.NumIn()-1)
	for i := range in {
		in[i] = t.In(i + 1)
	}
	converted, err := aj.Convert(in, false, args)
	if err != nil {
		return errors.Wrapf(err, "usage: %s", usage(command))
	}
	out := fn.Call(append([]reflect.Value{reflect.ValueOf(c)}, converted...))
	if len(out) > 0 {
		if err, ok := out[0].Interface().(error); ok {
			return err
		}
	}
	return nil
}

// Run executes one console line. Errors are printed, not returned; the
// result reports whether the console should keep going.
func Run(c *Context, line string) bool {
	args := strings.Fields(line)
	if len(args) == 0 {
		return true
	}
	name, args := args[0], args[1:]
	if name == "quit" || name == "q" {
		return false
	}
	if command, ok := Commands[name]; ok {
		if err := call(c, command, args); err != nil {
			c.Printf("error: %v\n", err)
		}
	} else {
		c.Printf("command not found.\n")
	}
	return true
}

var HelpCmd = cmd(&Command{
	Name: "help",
	Desc: "List commands.",
	Run: func(c *Context) error {
		names := make([]string, 0, len(Commands))
		for name := range Commands {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			c.Printf("  %-20s %s\n", usage(Commands[name]), Commands[name].Desc)
		}
		c.Printf("  %-20s %s\n", "quit", "Leave the monitor.")
		return nil
	},
})
