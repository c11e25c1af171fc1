package cpu

import (
	"sort"

	"github.com/lunixbochs/fvbommel-util/sortorder"
	"github.com/pkg/errors"
)

type Reg struct {
	Enum int
	Name string
}

type RegVal struct {
	Reg
	Val uint64
}

type regList []Reg

func (r regList) Len() int           { return len(r) }
func (r regList) Swap(i, j int)      { r[i], r[j] = r[j], r[i] }
func (r regList) Less(i, j int) bool { return sortorder.NaturalLess(r[i].Name, r[j].Name) }

// Regs is a dense register file: enums are indexes into vals, so targets
// can hand out stable pointers to persist registers with vmstate.
type Regs struct {
	mask  uint64
	vals  []uint64
	names []string

	// sorted for Dump
	sorted regList
}

// NewRegs builds a register file from enum -> name. Enums must be small and
// non-negative.
func NewRegs(bits uint, names map[int]string) *Regs {
	max := -1
	for e := range names {
		if e < 0 {
			panic("negative register enum")
		}
		if e > max {
			max = e
		}
	}
	r := &Regs{
		mask:  ^uint64(0) >> (64 - bits),
		vals:  make([]uint64, max+1),
		names: make([]string, max+1),
	}
	for e, n := range names {
		r.names[e] = n
		r.sorted = append(r.sorted, Reg{e, n})
	}
	sort.Sort(r.sorted)
	return r
}

func (r *Regs) valid(enum int) bool {
	return enum >= 0 && enum < len(r.vals) && r.names[enum] != ""
}

func (r *Regs) RegRead(enum int) (uint64, error) {
	if !r.valid(enum) {
		return 0, errors.New("invalid register")
	}
	return r.vals[enum], nil
}

func (r *Regs) RegWrite(enum int, val uint64) error {
	if !r.valid(enum) {
		return errors.New("invalid register")
	}
	r.vals[enum] = val & r.mask
	return nil
}

// Ptr returns the storage of a register, for state records.
func (r *Regs) Ptr(enum int) *uint64 {
	if !r.valid(enum) {
		panic("invalid register")
	}
	return &r.vals[enum]
}

func (r *Regs) Lookup(name string) (int, bool) {
	for _, reg := range r.sorted {
		if reg.Name == name {
			return reg.Enum, true
		}
	}
	return 0, false
}

// Dump returns every register in natural name order.
func (r *Regs) Dump() []RegVal {
	ret := make([]RegVal, len(r.sorted))
	for i, reg := range r.sorted {
		ret[i] = RegVal{reg, r.vals[reg.Enum]}
	}
	return ret
}
