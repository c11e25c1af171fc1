package memory

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Region is a guest physical address space shared between every CPU that
// links to it. CPUs hold a reference for as long as they exist; the region
// is considered dead once the last reference is dropped.
type Region struct {
	Name string

	refs  int32
	mu    sync.RWMutex
	pages Pages
}

func NewRegion(name string) *Region {
	return &Region{Name: name, refs: 1}
}

func (r *Region) String() string {
	return fmt.Sprintf("<Region %s refs=%d>", r.Name, r.Refs())
}

// Ref takes a reference and returns the new count.
func (r *Region) Ref() int32 {
	n := atomic.AddInt32(&r.refs, 1)
	if n <= 1 {
		panic("memory: Ref() on released region " + r.Name)
	}
	return n
}

// Unref drops a reference and returns the remaining count.
func (r *Region) Unref() int32 {
	n := atomic.AddInt32(&r.refs, -1)
	if n < 0 {
		panic("memory: Unref() below zero on region " + r.Name)
	}
	if n == 0 {
		r.mu.Lock()
		r.pages = nil
		r.mu.Unlock()
	}
	return n
}

func (r *Region) Refs() int32 {
	return atomic.LoadInt32(&r.refs)
}

// Map backs [addr, addr+size) with zeroed memory.
func (r *Region) Map(addr, size uint64, prot int, desc string) error {
	if size == 0 {
		return errors.New("zero-sized mapping")
	}
	if addr+size < addr {
		return errors.Errorf("mapping at %#x overflows address space", addr)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pages {
		if p.Overlaps(addr, size) {
			return errors.Errorf("mapping %#x-%#x overlaps %s", addr, addr+size, p)
		}
	}
	r.pages = append(r.pages, &Page{Addr: addr, Size: size, Prot: prot, Data: make([]byte, size), Desc: desc})
	sort.Sort(r.pages)
	return nil
}

// Pages returns a copy of the current page list, sorted by address.
func (r *Region) Pages() Pages {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make(Pages, len(r.pages))
	copy(ret, r.pages)
	return ret
}

func (r *Region) Find(addr uint64) *Page {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pages.Find(addr)
}

func (r *Region) Read(addr uint64, p []byte) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pg := r.pages.Find(addr)
	if pg == nil || addr+uint64(len(p)) > pg.Addr+pg.Size {
		return errors.Errorf("read of %d bytes at %#x not backed by %s", len(p), addr, r.Name)
	}
	copy(p, pg.Data[addr-pg.Addr:])
	return nil
}

func (r *Region) Write(addr uint64, p []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	pg := r.pages.Find(addr)
	if pg == nil || addr+uint64(len(p)) > pg.Addr+pg.Size {
		return errors.Errorf("write of %d bytes at %#x not backed by %s", len(p), addr, r.Name)
	}
	copy(pg.Data[addr-pg.Addr:], p)
	return nil
}
