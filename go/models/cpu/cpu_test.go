package cpu

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunixbochs/vcpu/go/models"
	"github.com/lunixbochs/vcpu/go/models/memory"
)

func strseq(a []string, b []string) error {
	if len(a) != len(b) {
		return errors.Errorf("output list length mismatch")
	}
	for i, v := range a {
		if v != b[i] {
			return errors.Errorf("output list value mismatch: %s != %s", v, b[i])
		}
	}
	return nil
}

type fatal struct{ userOnly bool }

func testReporter(sinks ...io.Writer) *Reporter {
	return &Reporter{
		Sinks:     sinks,
		Terminate: func(userOnly bool) { panic(fatal{userOnly}) },
	}
}

// catchFatal runs fn and reports whether it hit a fatal error.
func catchFatal(fn func()) (caught bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(fatal); !ok {
				panic(r)
			}
			caught = true
		}
	}()
	fn()
	return false
}

var testTarget = &Target{Name: "test", TypeSuffix: "test-cpu", Bits: 32}

func newTestCPU(ops *SysOps, out io.Writer) *CPU {
	if out == nil {
		out = io.Discard
	}
	c := New(&Class{TypeName: "plain-test-cpu", Target: testTarget, SysOps: ops}, nil, nil)
	c.Reporter = testReporter(out)
	return c
}

func TestNew(t *testing.T) {
	inits := 0
	cls := &Class{TypeName: "plain-test-cpu", Target: testTarget, Init: func(c *CPU) { inits++ }}
	c := New(cls, nil, nil)
	assert.Equal(t, 1, inits)
	assert.Equal(t, UnassignedIndex, c.Index)
	assert.Equal(t, int32(NoException), c.ExceptionIndex)
	assert.Equal(t, 1, c.NumAddressSpaces)
	assert.False(t, c.SoftwareAccel())
}

func TestDispatchDefaults(t *testing.T) {
	var out bytes.Buffer
	c := newTestCPU(nil, &out)

	assert.False(t, c.PagingEnabled())
	_, err := c.MemoryMapping()
	assert.Equal(t, ErrMemoryMappingUnsupported, err)

	paddr, attrs := c.PhysPageAttrsDebug(0x1000)
	assert.Equal(t, INVALID_PHYS_ADDR, paddr)
	assert.True(t, attrs.Unspecified)
	assert.True(t, attrs.Debug)
	assert.Equal(t, INVALID_PHYS_ADDR, c.PhysPageDebug(0x1000))

	assert.Equal(t, 0, c.AsidxFromAttrs(MemTxAttrs{Secure: true}))
	assert.NoError(t, c.WriteELF32QemuNote(&out))
	assert.NoError(t, c.WriteELF64QemuNote(&out))
	assert.Equal(t, ErrNoteUnsupported, c.WriteELF32Note(&out, 1))
	assert.Equal(t, ErrNoteUnsupported, c.WriteELF64Note(&out, 1))
	assert.Nil(t, c.CrashInfo())
	assert.Equal(t, 0, out.Len())

	assert.False(t, c.VirtioIsBigEndian())
	big := New(&Class{TypeName: "big-test-cpu", Target: &Target{Name: "big", BigEndian: true}}, nil, nil)
	assert.True(t, big.VirtioIsBigEndian())
}

func TestPhysPageFallbacks(t *testing.T) {
	// plain translation only: unspecified attributes
	c := newTestCPU(&SysOps{
		GetPhysPageDebug: func(c *CPU, addr uint64) uint64 { return addr + 0x100 },
	}, nil)
	paddr, attrs := c.PhysPageAttrsDebug(0x1000)
	assert.Equal(t, uint64(0x1100), paddr)
	assert.Equal(t, MemTxAttrs{Unspecified: true, Debug: true}, attrs)

	// attribute-aware translation wins and is still marked as debug
	c = newTestCPU(&SysOps{
		GetPhysPageDebug: func(c *CPU, addr uint64) uint64 { return 0 },
		GetPhysPageAttrsDebug: func(c *CPU, addr uint64) (uint64, MemTxAttrs) {
			return addr, MemTxAttrs{Secure: true}
		},
	}, nil)
	paddr, attrs = c.PhysPageAttrsDebug(0x2000)
	assert.Equal(t, uint64(0x2000), paddr)
	assert.Equal(t, MemTxAttrs{Secure: true, Debug: true}, attrs)
	assert.Equal(t, uint64(0x2000), c.PhysPageDebug(0x2000))
}

func TestAsidxOutOfRange(t *testing.T) {
	var out bytes.Buffer
	c := newTestCPU(&SysOps{
		AsidxFromAttrs: func(c *CPU, attrs MemTxAttrs) int {
			if attrs.Secure {
				return 1
			}
			return 0
		},
	}, &out)
	assert.Equal(t, 0, c.AsidxFromAttrs(MemTxAttrs{}))
	assert.True(t, catchFatal(func() { c.AsidxFromAttrs(MemTxAttrs{Secure: true}) }))
	assert.Contains(t, out.String(), "address space index 1 out of range [0, 1)")

	c.NumAddressSpaces = 2
	assert.Equal(t, 1, c.AsidxFromAttrs(MemTxAttrs{Secure: true}))
}

func TestSetSingleStep(t *testing.T) {
	updates := 0
	var log bytes.Buffer
	c := newTestCPU(nil, nil)
	c.Accel = &AccelOps{Name: "test", UpdateGuestDebug: func(c *CPU) { updates++ }}
	c.Log = models.NewLogSink(&log, true)
	c.Log.Verbose = true

	c.SetSingleStep(true)
	c.SetSingleStep(true)
	assert.True(t, c.SinglestepEnabled)
	assert.Equal(t, 1, updates)
	c.SetSingleStep(false)
	assert.False(t, c.SinglestepEnabled)
	assert.Equal(t, 2, updates)
	assert.Equal(t, 2, strings.Count(log.String(), "breakpoint_singlestep"))
	assert.Contains(t, log.String(), "enable=true")
}

func TestFinalize(t *testing.T) {
	var out bytes.Buffer
	mem := memory.NewRegion("ram")
	c := New(&Class{TypeName: "plain-test-cpu", Target: testTarget}, nil, mem)
	c.Reporter = testReporter(&out)
	assert.Equal(t, int32(2), mem.Refs())
	c.Finalize()
	assert.Equal(t, int32(1), mem.Refs())
	assert.True(t, catchFatal(c.Finalize))
	assert.Equal(t, int32(1), mem.Refs())
}

type finisher struct{ calls int }

func (f *finisher) Finish() error {
	f.calls++
	return nil
}

func TestReporter(t *testing.T) {
	var a, b, logBuf bytes.Buffer
	f := &finisher{}
	r := testReporter(&a, &b)
	r.Log = models.NewLogSink(&logBuf, true)
	r.Replay = f
	r.UserOnly = true

	c := newTestCPU(nil, nil)
	c.Reporter = r
	var got fatal
	func() {
		defer func() { got = recover().(fatal) }()
		c.Abort("boom %d", 7)
	}()
	assert.True(t, got.userOnly)
	for _, buf := range []*bytes.Buffer{&a, &b, &logBuf} {
		assert.True(t, strings.HasPrefix(buf.String(), "vcpu: fatal: boom 7\n"))
		assert.Contains(t, buf.String(), "CPU#-1 plain-test-cpu")
	}
	assert.Equal(t, 1, f.calls)
}

func TestReporterLogBusy(t *testing.T) {
	var a, logBuf bytes.Buffer
	r := testReporter(&a)
	r.Log = models.NewLogSink(&logBuf, true)
	_, ok := r.Log.TryLock()
	require.True(t, ok)
	defer r.Log.Unlock()

	assert.True(t, catchFatal(func() { r.Abort(nil, "busy") }))
	assert.Equal(t, "vcpu: fatal: busy\n", a.String())
	assert.Equal(t, 0, logBuf.Len())
}

func TestReporterLogShared(t *testing.T) {
	var a, logBuf bytes.Buffer
	r := testReporter(&a)
	r.Log = models.NewLogSink(&logBuf, false)
	assert.True(t, catchFatal(func() { r.Abort(nil, "once") }))
	assert.Equal(t, 0, logBuf.Len())
}

func TestDumpState(t *testing.T) {
	var out bytes.Buffer
	c := newTestCPU(nil, nil)
	c.Regs = NewRegs(32, map[int]string{0: "pc", 1: "sp"})
	c.Regs.RegWrite(0, 0x1234)
	c.Halted = true
	c.DumpState(&out, 0)
	lines := strings.Split(out.String(), "\n")
	assert.Equal(t, "CPU#-1 plain-test-cpu halted=true irq=0x0 exception=-1 crashed=false singlestep=false", lines[0])
	assert.Equal(t, "   pc 0x00001234   sp 0x00000000", lines[1])
}

func TestInterrupts(t *testing.T) {
	c := newTestCPU(nil, nil)
	c.RaiseInterrupt(INTERRUPT_HARD | INTERRUPT_HALT)
	c.ResetInterrupt(INTERRUPT_HALT)
	assert.Equal(t, uint32(INTERRUPT_HARD), c.InterruptRequest)
}
