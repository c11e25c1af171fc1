// Package machine assembles a target, an accelerator, memory and a set of
// realized CPUs from a Config.
package machine

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/lunixbochs/vcpu/go/accel"
	"github.com/lunixbochs/vcpu/go/arch"
	"github.com/lunixbochs/vcpu/go/cpus"
	"github.com/lunixbochs/vcpu/go/models"
	"github.com/lunixbochs/vcpu/go/models/cpu"
	"github.com/lunixbochs/vcpu/go/models/memory"
	"github.com/lunixbochs/vcpu/go/models/replay"
	"github.com/lunixbochs/vcpu/go/models/vmstate"
)

type Machine struct {
	Config   *models.Config
	Classes  *cpu.ClassTable
	Class    *cpu.Class
	Accel    *cpu.AccelOps
	Memory   *memory.Region
	CPUs     *cpus.Registry
	State    *vmstate.Registry
	Manager  *cpus.Manager
	Log      *models.LogSink
	Replay   *replay.Writer
	Reporter *cpu.Reporter

	closed bool
}

// New builds the machine and realizes config.SMP CPUs. On error everything
// set up so far is released.
func New(config *models.Config) (ret *Machine, err error) {
	classes, err := arch.GetArch(config.Arch)
	if err != nil {
		return nil, err
	}
	typeName, err := classes.ParseOption(config.CPU)
	if err != nil {
		return nil, err
	}
	if config.SMP < 1 {
		return nil, errors.Errorf("invalid cpu count %d", config.SMP)
	}
	m := &Machine{
		Config:  config,
		Classes: classes,
		Class:   classes.Lookup(typeName),
		CPUs:    cpus.NewRegistry(),
		State:   vmstate.NewRegistry(),
	}
	if m.Log, err = models.OpenLog(config.LogFile); err != nil {
		return nil, err
	}
	m.Log.Verbose = config.Verbose
	defer func() {
		if err != nil {
			m.Close()
		}
	}()
	if m.Accel, err = accel.Get(config.Accel, m.CPUs); err != nil {
		return nil, err
	}
	m.Manager = cpus.NewManager(m.CPUs, m.State)
	m.Manager.Log = m.Log

	m.Memory = memory.NewRegion("ram")
	if config.MemSize > 0 {
		if err = m.Memory.Map(0, config.MemSize, memory.PROT_ALL, "ram"); err != nil {
			return nil, err
		}
	}
	m.Reporter = &cpu.Reporter{Log: m.Log, UserOnly: config.UserOnly}
	if config.ReplayFile != "" {
		f, err := os.Create(config.ReplayFile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create replay file")
		}
		if m.Replay, err = replay.NewWriter(f, config.Arch, config.SMP); err != nil {
			f.Close()
			return nil, err
		}
		m.Reporter.Replay = m.Replay
	}
	for i := 0; i < config.SMP; i++ {
		if _, err = m.AddCPU(i > 0); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// AddCPU creates and realizes one more CPU of the machine's model.
func (m *Machine) AddCPU(poweredOff bool) (*cpu.CPU, error) {
	c := cpu.New(m.Class, m.Accel, m.Memory)
	c.Reporter = m.Reporter
	c.Log = m.Log
	c.Replay = m.Replay
	c.StartPoweredOff = poweredOff
	c.Halted = poweredOff
	if err := m.Manager.Realize(c); err != nil {
		c.Finalize()
		return nil, err
	}
	return c, nil
}

// RemoveCPU unrealizes and finalizes c.
func (m *Machine) RemoveCPU(c *cpu.CPU) {
	m.Manager.Unrealize(c)
	c.Finalize()
}

func (m *Machine) CPU(index int) *cpu.CPU {
	return m.CPUs.Get(index)
}

func (m *Machine) Save(w io.Writer) error {
	stream, err := m.State.Save()
	if err != nil {
		return err
	}
	return vmstate.Encode(w, stream)
}

func (m *Machine) Load(r io.Reader) error {
	stream, err := vmstate.Decode(r)
	if err != nil {
		return err
	}
	return m.State.Load(stream)
}

func (m *Machine) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create state file")
	}
	if err := m.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (m *Machine) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "failed to open state file")
	}
	defer f.Close()
	return m.Load(f)
}

// Close unrealizes every CPU, newest first, runs deferred reclamation and
// stops its worker, then finishes the replay recording. Later calls do nothing.
func (m *Machine) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	if m.Manager != nil {
		list := m.CPUs.Snapshot()
		for i := len(list) - 1; i >= 0; i-- {
			m.RemoveCPU(list[i])
		}
	}
	if m.CPUs != nil {
		m.CPUs.Close()
	}
	var err error
	if m.Replay != nil {
		err = m.Replay.Finish()
	}
	if m.Memory != nil {
		m.Memory.Unref()
	}
	if m.Log != nil {
		m.Log.Close()
	}
	return err
}
