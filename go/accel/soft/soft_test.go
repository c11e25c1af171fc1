package soft

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunixbochs/vcpu/go/models/cpu"
)

var testClass = &cpu.Class{
	TypeName: "plain-test-cpu",
	Target:   &cpu.Target{Name: "test", TypeSuffix: "test-cpu", Bits: 32},
}

type queue []func()

func (q *queue) Defer(fn func()) { *q = append(*q, fn) }

func TestState(t *testing.T) {
	s := newState()
	s.TLBFill(0x10123, 0x80456)
	paddr, ok := s.TLBLookup(0x10abc)
	assert.True(t, ok)
	assert.Equal(t, uint64(0x80abc), paddr)
	_, ok = s.TLBLookup(0x20000)
	assert.False(t, ok)

	s.AddBlock(0x1000, []byte{1, 2, 3})
	code, ok := s.Block(0x1000)
	assert.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, code)

	tlb, blocks := s.Len()
	assert.Equal(t, 1, tlb)
	assert.Equal(t, 1, blocks)
	s.Flush()
	tlb, blocks = s.Len()
	assert.Equal(t, 0, tlb)
	assert.Equal(t, 0, blocks)
	assert.Equal(t, 1, s.Flushes)
}

func TestLifecycle(t *testing.T) {
	var q queue
	ops := New(&q, Options{MaxCPUs: 1})
	assert.Equal(t, "soft", ops.Name)
	assert.Equal(t, cpu.ACCEL_SOFTWARE, ops.Kind)

	a, b := cpu.New(testClass, ops, nil), cpu.New(testClass, ops, nil)
	assert.True(t, a.SoftwareAccel())
	require.NoError(t, ops.Realize(a))
	assert.Error(t, ops.Realize(a))
	assert.EqualError(t, ops.Realize(b), "too many cpus (max 1)")

	s := StateOf(a)
	ops.Unrealize(a)
	assert.Nil(t, a.AccelState)
	// release waits for the reclaimer
	assert.False(t, s.Released())
	require.Len(t, q, 1)
	q[0]()
	assert.True(t, s.Released())

	require.NoError(t, ops.Realize(b))
}

func TestGuestDebug(t *testing.T) {
	ops := New(nil, Options{})
	c := cpu.New(testClass, ops, nil)
	require.NoError(t, ops.Realize(c))
	s := StateOf(c)
	s.AddBlock(0x1000, []byte{0})

	c.SetSingleStep(true)
	assert.True(t, s.Singlestep)
	_, ok := s.Block(0x1000)
	assert.False(t, ok)
	assert.Equal(t, 1, s.Flushes)

	c.SetSingleStep(true)
	assert.Equal(t, 1, s.Flushes)

	ops.Unrealize(c)
	assert.True(t, s.Released())
}
