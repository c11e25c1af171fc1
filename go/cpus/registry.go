// Package cpus owns the set of live CPUs and their realize/unrealize
// lifecycle.
package cpus

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/lunixbochs/vcpu/go/models/cpu"
)

var ErrDuplicateIndex = errors.New("cpu index already in use")

// Registry is the ordered list of realized CPUs.
//
// Writers are serialized by mu and publish a fresh immutable slice on every
// change, so readers never see a partially added entry. Readers that walk
// the list inside Read/Iterate hold the grace lock for reading; Defer waits
// for those readers before running its callback, which makes it safe to
// release state of a CPU that was just removed.
type Registry struct {
	mu   sync.Mutex
	list atomic.Value // []*cpu.CPU
	auto map[*cpu.CPU]bool

	grace   sync.RWMutex
	pending sync.WaitGroup

	qmu    sync.Mutex
	queue  chan func()
	done   chan struct{}
	closed bool
}

func NewRegistry() *Registry {
	r := &Registry{auto: make(map[*cpu.CPU]bool)}
	r.list.Store([]*cpu.CPU(nil))
	return r
}

func (r *Registry) load() []*cpu.CPU {
	return r.list.Load().([]*cpu.CPU)
}

// Add appends c. An unassigned index becomes one past the highest index in
// use; an explicit index must be free.
func (r *Registry) Add(c *cpu.CPU) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.load()
	for _, v := range old {
		if v == c {
			return errors.Errorf("%s already registered", c)
		}
	}
	auto := c.Index == cpu.UnassignedIndex
	if auto {
		next := 0
		for _, v := range old {
			if v.Index >= next {
				next = v.Index + 1
			}
		}
		c.Index = next
	} else {
		if c.Index < 0 {
			return errors.Errorf("invalid cpu index %d", c.Index)
		}
		for _, v := range old {
			if v.Index == c.Index {
				return errors.Wrapf(ErrDuplicateIndex, "index %d", c.Index)
			}
		}
	}
	list := make([]*cpu.CPU, len(old), len(old)+1)
	copy(list, old)
	r.list.Store(append(list, c))
	if auto {
		r.auto[c] = true
	}
	return nil
}

// Remove drops c. An index assigned by Add is released again.
func (r *Registry) Remove(c *cpu.CPU) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.load()
	list := make([]*cpu.CPU, 0, len(old))
	found := false
	for _, v := range old {
		if v == c {
			found = true
		} else {
			list = append(list, v)
		}
	}
	if !found {
		return false
	}
	r.list.Store(list)
	if r.auto[c] {
		delete(r.auto, c)
		c.Index = cpu.UnassignedIndex
	}
	return true
}

// Snapshot returns the current list. It must not be modified.
func (r *Registry) Snapshot() []*cpu.CPU {
	return r.load()
}

// Read runs fn on a stable snapshot inside a read-side critical section.
func (r *Registry) Read(fn func(list []*cpu.CPU)) {
	r.grace.RLock()
	defer r.grace.RUnlock()
	fn(r.load())
}

// Iterate calls fn on each CPU in order until fn returns false.
func (r *Registry) Iterate(fn func(c *cpu.CPU) bool) {
	r.Read(func(list []*cpu.CPU) {
		for _, c := range list {
			if !fn(c) {
				return
			}
		}
	})
}

func (r *Registry) Get(index int) *cpu.CPU {
	for _, c := range r.load() {
		if c.Index == index {
			return c
		}
	}
	return nil
}

func (r *Registry) Contains(c *cpu.CPU) bool {
	for _, v := range r.load() {
		if v == c {
			return true
		}
	}
	return false
}

func (r *Registry) Len() int {
	return len(r.load())
}

func (r *Registry) worker(queue chan func(), done chan struct{}) {
	defer close(done)
	for fn := range queue {
		r.wait()
		fn()
		r.pending.Done()
	}
}

// wait returns once every reader that may still see the old list is done.
func (r *Registry) wait() {
	r.grace.Lock()
	r.grace.Unlock()
}

// Defer runs fn asynchronously once all current readers are done. After
// Close it waits for the readers and runs fn inline.
func (r *Registry) Defer(fn func()) {
	r.qmu.Lock()
	if r.closed {
		r.qmu.Unlock()
		r.wait()
		fn()
		return
	}
	if r.queue == nil {
		r.queue = make(chan func(), 64)
		r.done = make(chan struct{})
		go r.worker(r.queue, r.done)
	}
	r.pending.Add(1)
	r.queue <- fn
	r.qmu.Unlock()
}

// Drain waits for every deferred callback queued so far.
func (r *Registry) Drain() {
	r.pending.Wait()
}

// Close runs the queued callbacks and stops the reclamation worker.
func (r *Registry) Close() {
	r.qmu.Lock()
	if r.closed {
		r.qmu.Unlock()
		return
	}
	r.closed = true
	queue, done := r.queue, r.done
	r.qmu.Unlock()
	if queue != nil {
		close(queue)
		<-done
	}
}
