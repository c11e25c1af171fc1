package cpus

import (
	"github.com/pkg/errors"

	"github.com/lunixbochs/vcpu/go/models"
	"github.com/lunixbochs/vcpu/go/models/cpu"
	"github.com/lunixbochs/vcpu/go/models/vmstate"
)

// Manager realizes and unrealizes CPUs against one CPU registry and one
// persistence registry. Callers serialize lifecycle operations.
type Manager struct {
	CPUs  *Registry
	State *vmstate.Registry
	Log   *models.LogSink
}

func NewManager(cpus *Registry, state *vmstate.Registry) *Manager {
	return &Manager{CPUs: cpus, State: state}
}

func (m *Manager) trace(event string, c *cpu.CPU) {
	if m.Log != nil {
		m.Log.Trace(event, "cpu=%d type=%s", c.Index, c.Class.TypeName)
	}
}

func accelUnrealize(c *cpu.CPU) {
	if c.Accel != nil && c.Accel.Unrealize != nil {
		c.Accel.Unrealize(c)
	}
}

// Realize sets up the accelerator state of c, then publishes c in the
// registry and the persistence set. Nothing is published on failure.
func (m *Manager) Realize(c *cpu.CPU) error {
	if c.Accel != nil && c.Accel.Realize != nil {
		if err := c.Accel.Realize(c); err != nil {
			return errors.Wrapf(err, "%s: %s accelerator setup failed", c.Class.TypeName, c.Accel.Name)
		}
	}
	if err := m.CPUs.Add(c); err != nil {
		accelUnrealize(c)
		return err
	}
	records := c.Records()
	for i, d := range records {
		if err := m.State.Register(c.Index, d, c); err != nil {
			for j := i - 1; j >= 0; j-- {
				m.State.Unregister(records[j], c)
			}
			m.CPUs.Remove(c)
			accelUnrealize(c)
			return err
		}
	}
	m.trace("cpu_realize", c)
	return nil
}

// Unrealize reverses Realize. The accelerator is torn down last, once no
// registry reader or snapshot can reach c anymore.
func (m *Manager) Unrealize(c *cpu.CPU) {
	m.trace("cpu_unrealize", c)
	records := c.Records()
	for i := len(records) - 1; i >= 0; i-- {
		m.State.Unregister(records[i], c)
	}
	if !m.CPUs.Remove(c) {
		c.Abort("unrealize of unregistered cpu")
		return
	}
	accelUnrealize(c)
}
