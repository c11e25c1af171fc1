package vmstate

import (
	"sync"

	"github.com/pkg/errors"
)

// Entry binds a record description to one object.
type Entry struct {
	InstanceID int
	Desc       *Description
	Opaque     interface{}
}

// Record is one entry of a saved stream.
type Record struct {
	InstanceID int
	Section    *Section
}

type Stream struct {
	Records []*Record
}

// Registry is the set of objects that take part in snapshot and migration.
// Entries are saved in registration order.
type Registry struct {
	mu      sync.Mutex
	entries []*Entry
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) find(name string, instanceID int) int {
	for i, e := range r.entries {
		if e.Desc.Name == name && e.InstanceID == instanceID {
			return i
		}
	}
	return -1
}

func (r *Registry) Register(instanceID int, d *Description, opaque interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.find(d.Name, instanceID) >= 0 {
		return errors.Errorf("vmstate: %s instance %d already registered", d.Name, instanceID)
	}
	r.entries = append(r.entries, &Entry{InstanceID: instanceID, Desc: d, Opaque: opaque})
	return nil
}

// Unregister removes every entry of d bound to opaque.
func (r *Registry) Unregister(d *Description, opaque interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tmp := r.entries[:0]
	for _, e := range r.entries {
		if e.Desc != d || e.Opaque != opaque {
			tmp = append(tmp, e)
		}
	}
	for i := len(tmp); i < len(r.entries); i++ {
		r.entries[i] = nil
	}
	r.entries = tmp
}

func (r *Registry) Registered(d *Description, opaque interface{}) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.Desc == d && e.Opaque == opaque {
			return true
		}
	}
	return false
}

func (r *Registry) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	ret := make([]Entry, len(r.entries))
	for i, e := range r.entries {
		ret[i] = *e
	}
	return ret
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) Save() (*Stream, error) {
	s := &Stream{}
	for _, e := range r.Entries() {
		sec, err := Save(e.Desc, e.Opaque)
		if err != nil {
			return nil, errors.Wrapf(err, "saving %s instance %d", e.Desc.Name, e.InstanceID)
		}
		s.Records = append(s.Records, &Record{InstanceID: e.InstanceID, Section: sec})
	}
	return s, nil
}

// Load applies every record of s to its registered object. All records are
// validated first, so a rejected stream mutates nothing.
func (r *Registry) Load(s *Stream) error {
	r.mu.Lock()
	targets := make([]*Entry, len(s.Records))
	for i, rec := range s.Records {
		idx := r.find(rec.Section.Name, rec.InstanceID)
		if idx < 0 {
			r.mu.Unlock()
			return errors.Errorf("vmstate: unknown section %s instance %d", rec.Section.Name, rec.InstanceID)
		}
		targets[i] = r.entries[idx]
	}
	r.mu.Unlock()

	for i, rec := range s.Records {
		if err := Validate(targets[i].Desc, rec.Section); err != nil {
			return errors.Wrapf(err, "loading instance %d", rec.InstanceID)
		}
	}
	for i, rec := range s.Records {
		apply(targets[i].Desc, targets[i].Opaque, rec.Section)
	}
	return nil
}
