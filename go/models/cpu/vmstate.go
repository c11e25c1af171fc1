package cpu

import (
	"github.com/lunixbochs/vcpu/go/models/vmstate"
)

func asCPU(opaque interface{}) *CPU { return opaque.(*CPU) }

var vmstateExceptionIndex = &vmstate.Description{
	Name:           "cpu_common/exception_index",
	Version:        1,
	MinimumVersion: 1,
	Needed: func(opaque interface{}) bool {
		c := asCPU(opaque)
		return c.SoftwareAccel() && c.ExceptionIndex != NoException
	},
	Fields: []vmstate.Field{
		vmstate.Int32("exception_index", func(o interface{}) *int32 { return &asCPU(o).ExceptionIndex }),
	},
}

var vmstateCrashOccurred = &vmstate.Description{
	Name:           "cpu_common/crash_occurred",
	Version:        1,
	MinimumVersion: 1,
	Needed: func(opaque interface{}) bool {
		return asCPU(opaque).CrashOccurred
	},
	Fields: []vmstate.Field{
		vmstate.Bool("crash_occurred", func(o interface{}) *bool { return &asCPU(o).CrashOccurred }),
	},
}

// VMStateCommon is the record of every CPU whose class does not persist
// itself.
var VMStateCommon = &vmstate.Description{
	Name:           "cpu_common",
	Version:        1,
	MinimumVersion: 1,
	PreLoad: func(opaque interface{}) {
		asCPU(opaque).ExceptionIndex = NoException
	},
	PostLoad: func(opaque interface{}, version int) {
		c := asCPU(opaque)
		// bit 0 carried a now-removed meaning in older streams
		c.InterruptRequest &^= INTERRUPT_EXIT_RETIRED
		// memory was just replaced behind the translator's back
		if c.SoftwareAccel() && c.Accel.FlushCaches != nil {
			c.Accel.FlushCaches(c)
		}
	},
	Fields: []vmstate.Field{
		vmstate.Bool("halted", func(o interface{}) *bool { return &asCPU(o).Halted }),
		vmstate.Uint32("interrupt_request", func(o interface{}) *uint32 { return &asCPU(o).InterruptRequest }),
	},
	Subsections: []*vmstate.Description{
		vmstateExceptionIndex,
		vmstateCrashOccurred,
	},
}

// Records returns the state records a realized CPU registers, in
// registration order.
func (c *CPU) Records() []*vmstate.Description {
	var ret []*vmstate.Description
	if c.Class.VMSD != nil {
		ret = append(ret, c.Class.VMSD)
	} else {
		ret = append(ret, VMStateCommon)
	}
	if c.Class.LegacyVMSD != nil {
		ret = append(ret, c.Class.LegacyVMSD)
	}
	return ret
}
