// Package soft is the software execution backend's side of the CPU seam:
// per-CPU translation state and its lifecycle. The translator itself lives
// elsewhere.
package soft

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/lunixbochs/vcpu/go/models/cpu"
)

const PAGE_MASK = ^uint64(0xfff)

// Reclaimer runs a release callback once no reader can reach the CPU.
type Reclaimer interface {
	Defer(fn func())
}

// State caches translations for one CPU.
type State struct {
	mu       sync.Mutex
	tlb      map[uint64]uint64
	blocks   map[uint64][]byte
	released bool

	Flushes    int
	Singlestep bool
}

func newState() *State {
	s := &State{}
	s.reset()
	return s
}

func (s *State) reset() {
	s.tlb = make(map[uint64]uint64)
	s.blocks = make(map[uint64][]byte)
}

func (s *State) TLBFill(vaddr, paddr uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tlb[vaddr&PAGE_MASK] = paddr & PAGE_MASK
}

func (s *State) TLBLookup(vaddr uint64) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.tlb[vaddr&PAGE_MASK]
	return p | vaddr&^PAGE_MASK, ok
}

func (s *State) AddBlock(pc uint64, code []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks[pc] = code
}

func (s *State) Block(pc uint64) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.blocks[pc]
	return code, ok
}

// Len returns the number of cached TLB entries and translated blocks.
func (s *State) Len() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tlb), len(s.blocks)
}

// Flush drops the TLB and every translated block.
func (s *State) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	s.Flushes++
}

func (s *State) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

func (s *State) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tlb, s.blocks = nil, nil
	s.released = true
}

// StateOf returns the translation state of a CPU realized by this backend.
func StateOf(c *cpu.CPU) *State {
	s, ok := c.AccelState.(*State)
	if !ok {
		c.Abort("cpu has no software translation state")
	}
	return s
}

type Options struct {
	// MaxCPUs bounds the number of live CPUs; 0 means unbounded.
	MaxCPUs int
}

// New returns the backend's operation table. Released translation state is
// handed to reclaim, or freed immediately if reclaim is nil.
func New(reclaim Reclaimer, opts Options) *cpu.AccelOps {
	var live int32
	return &cpu.AccelOps{
		Name: "soft",
		Kind: cpu.ACCEL_SOFTWARE,
		Realize: func(c *cpu.CPU) error {
			if c.AccelState != nil {
				return errors.New("translation state already allocated")
			}
			if n := atomic.AddInt32(&live, 1); opts.MaxCPUs > 0 && int(n) > opts.MaxCPUs {
				atomic.AddInt32(&live, -1)
				return errors.Errorf("too many cpus (max %d)", opts.MaxCPUs)
			}
			c.AccelState = newState()
			return nil
		},
		Unrealize: func(c *cpu.CPU) {
			s := StateOf(c)
			c.AccelState = nil
			atomic.AddInt32(&live, -1)
			if reclaim != nil {
				reclaim.Defer(s.release)
			} else {
				s.release()
			}
		},
		UpdateGuestDebug: func(c *cpu.CPU) {
			s := StateOf(c)
			s.mu.Lock()
			s.Singlestep = c.SinglestepEnabled
			s.mu.Unlock()
			// blocks were translated for the old stepping mode
			s.Flush()
		},
		FlushCaches: func(c *cpu.CPU) {
			StateOf(c).Flush()
		},
	}
}
