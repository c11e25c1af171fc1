// Package vmstate implements versioned state records for snapshot and
// migration. A Description lists the persisted fields of an object; Save
// turns an object into a Section tree and Load applies one back.
//
// Loading is two-phase: PreLoad may only reset transient fields to known
// defaults, PostLoad may only invalidate state derived from the loaded
// fields (caches). Neither can fail a load; a load fails only on a
// version or layout mismatch, and in that case nothing is mutated.
package vmstate

import (
	"fmt"

	"github.com/pkg/errors"
)

var ErrVersion = errors.New("unsupported record version")

// ResetFunc runs before fields are applied.
type ResetFunc func(opaque interface{})

// InvalidateFunc runs after fields and subsections are applied.
type InvalidateFunc func(opaque interface{}, version int)

type Description struct {
	Name           string
	Version        int
	MinimumVersion int
	// Unmigratable records refuse to be saved at all.
	Unmigratable bool

	Fields []Field

	PreLoad  ResetFunc
	PostLoad InvalidateFunc

	// Needed is only consulted for subsections; nil means always saved.
	Needed      func(opaque interface{}) bool
	Subsections []*Description
}

func (d *Description) String() string {
	return fmt.Sprintf("<vmstate %s v%d min %d>", d.Name, d.Version, d.MinimumVersion)
}

func (d *Description) subsection(name string) *Description {
	for _, sub := range d.Subsections {
		if sub.Name == name {
			return sub
		}
	}
	return nil
}

// Section is one saved record: name, version, packed field bytes and nested
// subsections.
type Section struct {
	Name        string
	Version     int
	Data        []byte
	Subsections []*Section
}

func (s *Section) Subsection(name string) *Section {
	for _, sub := range s.Subsections {
		if sub.Name == name {
			return sub
		}
	}
	return nil
}

func Save(d *Description, opaque interface{}) (*Section, error) {
	if d.Unmigratable {
		return nil, errors.Errorf("%s: state is not migratable", d.Name)
	}
	sec := &Section{
		Name:    d.Name,
		Version: d.Version,
		Data:    make([]byte, 0, dataSize(d.Fields, d.Version)),
	}
	var tmp [8]byte
	for _, f := range d.Fields {
		if !f.present(d.Version) {
			continue
		}
		p, err := packUint(f.Kind.Size(), tmp[:], f.get(opaque))
		if err != nil {
			return nil, errors.Wrapf(err, "%s.%s", d.Name, f.Name)
		}
		sec.Data = append(sec.Data, p...)
	}
	for _, sub := range d.Subsections {
		if sub.Needed != nil && !sub.Needed(opaque) {
			continue
		}
		ss, err := Save(sub, opaque)
		if err != nil {
			return nil, err
		}
		sec.Subsections = append(sec.Subsections, ss)
	}
	return sec, nil
}

// Validate checks sec (and every subsection Load would apply) against d
// without touching any object.
func Validate(d *Description, sec *Section) error {
	if sec.Name != d.Name {
		return errors.Errorf("section %q does not match record %q", sec.Name, d.Name)
	}
	if sec.Version < d.MinimumVersion || sec.Version > d.Version {
		return errors.Wrapf(ErrVersion, "%s: version %d outside [%d, %d]",
			d.Name, sec.Version, d.MinimumVersion, d.Version)
	}
	if want := dataSize(d.Fields, sec.Version); len(sec.Data) != want {
		return errors.Errorf("%s: field data is %d bytes, expecting %d", d.Name, len(sec.Data), want)
	}
	for _, ss := range sec.Subsections {
		if sub := d.subsection(ss.Name); sub != nil {
			if err := Validate(sub, ss); err != nil {
				return err
			}
		}
	}
	return nil
}

func Load(d *Description, opaque interface{}, sec *Section) error {
	if err := Validate(d, sec); err != nil {
		return err
	}
	apply(d, opaque, sec)
	return nil
}

// apply assumes sec has been validated.
func apply(d *Description, opaque interface{}, sec *Section) {
	if d.PreLoad != nil {
		d.PreLoad(opaque)
	}
	data := sec.Data
	for _, f := range d.Fields {
		if !f.present(sec.Version) {
			continue
		}
		size := f.Kind.Size()
		val, _ := unpackUint(size, data)
		f.set(opaque, val)
		data = data[size:]
	}
	for _, ss := range sec.Subsections {
		if sub := d.subsection(ss.Name); sub != nil {
			apply(sub, opaque, ss)
		}
	}
	if d.PostLoad != nil {
		d.PostLoad(opaque, sec.Version)
	}
}
