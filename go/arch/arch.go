// Package arch maps target names to their CPU class tables.
package arch

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/lunixbochs/vcpu/go/arch/arm"
	"github.com/lunixbochs/vcpu/go/arch/mips"
	"github.com/lunixbochs/vcpu/go/models/cpu"
)

var archMap = map[string]*cpu.ClassTable{
	"arm":  arm.Classes,
	"mips": mips.Classes,
}

func GetArch(name string) (*cpu.ClassTable, error) {
	t, ok := archMap[name]
	if !ok {
		return nil, errors.Errorf("Arch '%s' not found.", name)
	}
	return t, nil
}

func Names() []string {
	ret := make([]string, 0, len(archMap))
	for name := range archMap {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}
