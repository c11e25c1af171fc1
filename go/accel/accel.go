// Package accel selects an execution backend by name.
package accel

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/lunixbochs/vcpu/go/accel/soft"
	"github.com/lunixbochs/vcpu/go/models/cpu"
)

type factory func(reclaim soft.Reclaimer) *cpu.AccelOps

var accelMap = map[string]factory{
	"soft": func(r soft.Reclaimer) *cpu.AccelOps { return soft.New(r, soft.Options{}) },
	"tcg":  func(r soft.Reclaimer) *cpu.AccelOps { return soft.New(r, soft.Options{}) },
}

func Get(name string, reclaim soft.Reclaimer) (*cpu.AccelOps, error) {
	f, ok := accelMap[name]
	if !ok {
		return nil, errors.Errorf("Accelerator '%s' not found.", name)
	}
	return f(reclaim), nil
}

func Names() []string {
	ret := make([]string, 0, len(accelMap))
	for name := range accelMap {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}
