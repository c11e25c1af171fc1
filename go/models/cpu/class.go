package cpu

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/lunixbochs/vcpu/go/models/vmstate"
)

// Target describes a guest instruction set.
type Target struct {
	Name string
	// TypeSuffix is appended to a model name to form a class type name,
	// e.g. "cortex-a9" + "-" + "arm-cpu".
	TypeSuffix string
	BigEndian  bool
	Bits       int
}

func (t *Target) String() string {
	return fmt.Sprintf("<Target %s>", t.Name)
}

type DumpFlags int

const (
	DUMP_CODE DumpFlags = 1 << iota
	DUMP_FPU
	DUMP_CCOP
)

// Class is shared by every CPU of one model. Nothing in it is mutated per
// instance.
type Class struct {
	TypeName    string
	Target      *Target
	Deprecation string

	SysOps *SysOps

	// VMSD replaces the common record when the model persists itself.
	VMSD *vmstate.Description
	// LegacyVMSD is registered next to the primary record.
	LegacyVMSD *vmstate.Description

	// Init sets up target state of a new instance.
	Init func(c *CPU)
	// ParseFeatures receives the text after the first comma of a -cpu
	// option, verbatim.
	ParseFeatures func(typeName, features string) error
	// DumpState prints target registers; the generic header is printed by
	// (*CPU).DumpState.
	DumpState func(c *CPU, w io.Writer, flags DumpFlags)
}

func (c *Class) String() string {
	return fmt.Sprintf("<Class %s>", c.TypeName)
}

// ClassTable holds every class of one target.
type ClassTable struct {
	Target *Target

	mu      sync.RWMutex
	classes map[string]*Class
}

func NewClassTable(t *Target) *ClassTable {
	return &ClassTable{Target: t, classes: make(map[string]*Class)}
}

func (t *ClassTable) Register(c *Class) *Class {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.classes[c.TypeName]; ok {
		panic("Duplicate CPU class " + c.TypeName)
	}
	if c.Target == nil {
		c.Target = t.Target
	}
	t.classes[c.TypeName] = c
	return c
}

func (t *ClassTable) Lookup(typeName string) *Class {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.classes[typeName]
}

func (t *ClassTable) typeName(model string) string {
	return model + "-" + t.Target.TypeSuffix
}

// ClassByName resolves a user-facing model name (or a full type name).
func (t *ClassTable) ClassByName(model string) *Class {
	if model == "" {
		return nil
	}
	if c := t.Lookup(t.typeName(model)); c != nil {
		return c
	}
	return t.Lookup(model)
}

// ModelFromType strips the target suffix from a registered type name.
func (t *ClassTable) ModelFromType(typeName string) (string, bool) {
	if t.Lookup(typeName) == nil {
		return "", false
	}
	return strings.TrimSuffix(typeName, "-"+t.Target.TypeSuffix), true
}

// Sorted returns every class ordered by type name.
func (t *ClassTable) Sorted() []*Class {
	t.mu.RLock()
	ret := make([]*Class, 0, len(t.classes))
	for _, c := range t.classes {
		ret = append(ret, c)
	}
	t.mu.RUnlock()
	sort.Slice(ret, func(i, j int) bool {
		a, b := strings.ToLower(ret[i].TypeName), strings.ToLower(ret[j].TypeName)
		if a == b {
			return ret[i].TypeName < ret[j].TypeName
		}
		return a < b
	})
	return ret
}

func (t *ClassTable) List(w io.Writer) {
	fmt.Fprintln(w, "Available CPUs:")
	for _, c := range t.Sorted() {
		model, _ := t.ModelFromType(c.TypeName)
		if c.Deprecation != "" {
			fmt.Fprintf(w, "  %s (deprecated)\n", model)
		} else {
			fmt.Fprintf(w, "  %s\n", model)
		}
	}
}

var ErrEmptyModel = errors.New("-cpu option cannot be empty")

// ParseOption resolves "model[,features]" to a class type name and hands
// the features to the class's feature parser.
func (t *ClassTable) ParseOption(option string) (string, error) {
	pieces := strings.SplitN(option, ",", 2)
	if pieces[0] == "" {
		return "", ErrEmptyModel
	}
	c := t.ClassByName(pieces[0])
	if c == nil {
		return "", errors.Errorf("unable to find CPU model '%s'", pieces[0])
	}
	features := ""
	if len(pieces) > 1 {
		features = pieces[1]
	}
	if c.ParseFeatures != nil {
		if err := c.ParseFeatures(c.TypeName, features); err != nil {
			return "", errors.Wrapf(err, "%s", pieces[0])
		}
	}
	return c.TypeName, nil
}

// MustParseOption is ParseOption for command-line use: a bad option is a
// configuration error and exits the process.
func (t *ClassTable) MustParseOption(option string) string {
	typeName, err := t.ParseOption(option)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vcpu: %v\n", err)
		os.Exit(1)
	}
	return typeName
}
