package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunixbochs/vcpu/go/models/vmstate"
)

func softCPU(flushes *int) *CPU {
	accel := &AccelOps{Name: "test", Kind: ACCEL_SOFTWARE, FlushCaches: func(c *CPU) { *flushes++ }}
	return New(&Class{TypeName: "plain-test-cpu", Target: testTarget}, accel, nil)
}

func TestCommonRoundTrip(t *testing.T) {
	var flushes int
	src := softCPU(&flushes)
	src.Halted = true
	src.InterruptRequest = INTERRUPT_HARD | INTERRUPT_EXIT_RETIRED
	src.ExceptionIndex = 5
	src.CrashOccurred = true

	sec, err := vmstate.Save(VMStateCommon, src)
	require.NoError(t, err)
	assert.NotNil(t, sec.Subsection("cpu_common/exception_index"))
	assert.NotNil(t, sec.Subsection("cpu_common/crash_occurred"))

	dst := softCPU(&flushes)
	require.NoError(t, vmstate.Load(VMStateCommon, dst, sec))
	assert.True(t, dst.Halted)
	assert.Equal(t, uint32(INTERRUPT_HARD), dst.InterruptRequest)
	assert.Equal(t, int32(5), dst.ExceptionIndex)
	assert.True(t, dst.CrashOccurred)
	assert.Equal(t, 1, flushes)
}

func TestCommonSubsections(t *testing.T) {
	var flushes int
	c := softCPU(&flushes)
	sec, err := vmstate.Save(VMStateCommon, c)
	require.NoError(t, err)
	assert.Nil(t, sec.Subsection("cpu_common/exception_index"))
	assert.Nil(t, sec.Subsection("cpu_common/crash_occurred"))

	// hardware backends keep the exception index themselves
	hw := New(&Class{TypeName: "plain-test-cpu", Target: testTarget}, &AccelOps{Kind: ACCEL_HARDWARE}, nil)
	hw.ExceptionIndex = 3
	sec, err = vmstate.Save(VMStateCommon, hw)
	require.NoError(t, err)
	assert.Nil(t, sec.Subsection("cpu_common/exception_index"))
}

func TestCommonLoadResetsException(t *testing.T) {
	var flushes int
	src := softCPU(&flushes)
	sec, err := vmstate.Save(VMStateCommon, src)
	require.NoError(t, err)

	dst := softCPU(&flushes)
	dst.ExceptionIndex = 9
	require.NoError(t, vmstate.Load(VMStateCommon, dst, sec))
	assert.Equal(t, int32(NoException), dst.ExceptionIndex)
}

func TestCommonLoadNewerVersion(t *testing.T) {
	var flushes int
	src := softCPU(&flushes)
	src.Halted = true
	sec, err := vmstate.Save(VMStateCommon, src)
	require.NoError(t, err)
	sec.Version = 2

	dst := softCPU(&flushes)
	dst.ExceptionIndex = 4
	dst.InterruptRequest = INTERRUPT_EXIT_RETIRED
	assert.Error(t, vmstate.Load(VMStateCommon, dst, sec))
	assert.False(t, dst.Halted)
	assert.Equal(t, int32(4), dst.ExceptionIndex)
	assert.Equal(t, uint32(INTERRUPT_EXIT_RETIRED), dst.InterruptRequest)
	assert.Equal(t, 0, flushes)
}

func TestRecords(t *testing.T) {
	legacy := &vmstate.Description{Name: "legacy", Version: 1, MinimumVersion: 1}
	own := &vmstate.Description{Name: "own", Version: 1, MinimumVersion: 1}

	c := New(&Class{TypeName: "plain-test-cpu", Target: testTarget}, nil, nil)
	assert.Equal(t, []*vmstate.Description{VMStateCommon}, c.Records())

	c = New(&Class{TypeName: "plain-test-cpu", Target: testTarget, VMSD: own, LegacyVMSD: legacy}, nil, nil)
	assert.Equal(t, []*vmstate.Description{own, legacy}, c.Records())
}
