package accel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lunixbochs/vcpu/go/models/cpu"
)

func TestGet(t *testing.T) {
	for _, name := range Names() {
		ops, err := Get(name, nil)
		if assert.NoError(t, err, name) {
			assert.Equal(t, cpu.ACCEL_SOFTWARE, ops.Kind)
		}
	}
	_, err := Get("kvm", nil)
	assert.EqualError(t, err, "Accelerator 'kvm' not found.")
	assert.Equal(t, []string{"soft", "tcg"}, Names())
}
