package monitor

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunixbochs/vcpu/go/arch/arm"
	"github.com/lunixbochs/vcpu/go/machine"
	"github.com/lunixbochs/vcpu/go/models"
)

func newContext(t *testing.T) (*Context, *bytes.Buffer) {
	m, err := machine.New(&models.Config{Arch: "arm", CPU: "cortex-a9", SMP: 2, Accel: "soft", MemSize: 0x10000})
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	var out bytes.Buffer
	return &Context{ReadWriter: &out, M: m}, &out
}

func run(c *Context, out *bytes.Buffer, line string) string {
	out.Reset()
	Run(c, line)
	return out.String()
}

func TestInfoCpus(t *testing.T) {
	c, out := newContext(t)
	assert.Equal(t, "* CPU #0: cortex-a9 halted=false\n  CPU #1: cortex-a9 halted=true\n", run(c, out, "info cpus"))
	assert.Equal(t, "", run(c, out, "cpu 1"))
	assert.Equal(t, 1, c.Current)
	assert.Equal(t, "  CPU #0: cortex-a9 halted=false\n* CPU #1: cortex-a9 halted=true\n", run(c, out, "info cpus"))
	assert.Equal(t, "error: no cpu #5\n", run(c, out, "cpu 5"))
	assert.Equal(t, "error: unknown info topic 'bogus'\n", run(c, out, "info bogus"))
	assert.Contains(t, run(c, out, "info regs"), "CPU#1 cortex-a9-arm-cpu")
	assert.Equal(t, "no crash information\n", run(c, out, "info crash"))
}

func TestCommandErrors(t *testing.T) {
	c, out := newContext(t)
	assert.Equal(t, "command not found.\n", run(c, out, "frobnicate"))
	assert.Equal(t, "error: usage: cpu <int>\n", run(c, out, "cpu"))
	assert.Contains(t, run(c, out, "cpu one"), "error: ")
	assert.Equal(t, "", run(c, out, "   "))
	assert.True(t, Run(c, "help"))
	assert.False(t, Run(c, "quit"))
	assert.Contains(t, run(c, out, "help"), "singlestep <bool>")
}

func TestSinglestep(t *testing.T) {
	c, out := newContext(t)
	assert.Equal(t, "", run(c, out, "singlestep on"))
	assert.True(t, c.M.CPU(0).SinglestepEnabled)
	run(c, out, "singlestep off")
	assert.False(t, c.M.CPU(0).SinglestepEnabled)
}

func TestTranslation(t *testing.T) {
	c, out := newContext(t)
	assert.Equal(t, "paging: false\n", run(c, out, "paging"))
	assert.Equal(t, "gpa: 0x100 secure=true asidx=1\n", run(c, out, "gpa 0x100"))
	assert.Equal(t, "  virt 0x0-0x10000 -> phys 0x0\n", run(c, out, "memmap"))

	run(c, out, "reg sctlr 1")
	assert.Equal(t, "paging: true\n", run(c, out, "paging"))
	assert.Equal(t, "Unmapped\n", run(c, out, "gpa 0x100"))
	assert.Equal(t, "  virt 0xc0000000-0xc0010000 -> phys 0x0\n", run(c, out, "memmap"))
	assert.Equal(t, "error: unknown register 'x99'\n", run(c, out, "reg x99 1"))
}

func TestIrq(t *testing.T) {
	c, out := newContext(t)
	run(c, out, "irq on")
	assert.NotZero(t, c.M.CPU(0).InterruptRequest)
	run(c, out, "irq off")
	assert.Zero(t, c.M.CPU(0).InterruptRequest)
}

func TestSaveLoad(t *testing.T) {
	c, out := newContext(t)
	path := filepath.Join(t.TempDir(), "state")
	run(c, out, "reg r4 0x44")
	assert.Equal(t, "", run(c, out, "savevm "+path))
	run(c, out, "reg r4 0")
	assert.Equal(t, "", run(c, out, "loadvm "+path))
	val, _ := c.M.CPU(0).Regs.RegRead(arm.REG_R4)
	assert.Equal(t, uint64(0x44), val)
	assert.Contains(t, run(c, out, "loadvm "+path+".missing"), "error: failed to open state file")
}

func TestDump(t *testing.T) {
	c, out := newContext(t)
	path := filepath.Join(t.TempDir(), "notes")
	assert.Equal(t, "", run(c, out, "dump "+path))
	st, err := os.Stat(path)
	require.NoError(t, err)

	// one prstatus note per cpu
	var one bytes.Buffer
	require.NoError(t, c.M.CPU(0).WriteELF32Note(&one, 1))
	assert.Equal(t, 12+8+4+18*4, one.Len())
	assert.Equal(t, int64(2*one.Len()), st.Size())
}

func TestMemoryDump(t *testing.T) {
	c, out := newContext(t)
	require.NoError(t, c.M.Memory.Write(0x100, []byte("hello")))
	assert.Equal(t, "  0x00000100: 68656c6c 6f                                  [hell o                  ]\n", run(c, out, "xp 0x100 5"))
	assert.Equal(t, run(c, out, "xp 0x100 5"), run(c, out, "x 0x100 5"))

	run(c, out, "reg sctlr 1")
	assert.Equal(t, "error: 0x100 is not mapped\n", run(c, out, "x 0x100 5"))
	assert.Contains(t, run(c, out, "x 0xc0000100 5"), "0xc0000100: 68656c6c")
	assert.Contains(t, run(c, out, "xp 0x20000 4"), "error: read of 4 bytes")
}
