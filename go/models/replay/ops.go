package replay

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

var order = binary.LittleEndian

const (
	OP_NOP        = 0
	OP_SINGLESTEP = 1
	OP_INTERRUPT  = 2
	OP_ABORT      = 3
	OP_END        = 4
)

// Op is one recorded event.
type Op interface {
	Sizeof() int
	Pack(p []byte)
	Unpack(r io.Reader) (int, error)
}

func Unpack(r io.Reader) (Op, int, error) {
	var tmp [1]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return nil, 0, err
	}
	var op Op
	switch tmp[0] {
	case OP_NOP:
		op = &OpNop{}
	case OP_SINGLESTEP:
		op = &OpSingleStep{}
	case OP_INTERRUPT:
		op = &OpInterrupt{}
	case OP_ABORT:
		op = &OpAbort{}
	case OP_END:
		op = &OpEnd{}
	default:
		return nil, 1, errors.Errorf("Unknown op: %d", tmp[0])
	}
	n, err := op.Unpack(r)
	return op, n + 1, err
}

type OpNop struct{}

func (o *OpNop) Sizeof() int                     { return 1 }
func (o *OpNop) Pack(p []byte)                   { p[0] = OP_NOP }
func (o *OpNop) Unpack(r io.Reader) (int, error) { return 0, nil }

type OpEnd struct{ OpNop }

func (o *OpEnd) Pack(p []byte) { p[0] = OP_END }

type OpSingleStep struct {
	CPU     uint32
	Enabled bool
}

func (o *OpSingleStep) Sizeof() int { return 1 + 4 + 1 }
func (o *OpSingleStep) Pack(p []byte) {
	p[0] = OP_SINGLESTEP
	order.PutUint32(p[1:], o.CPU)
	p[5] = 0
	if o.Enabled {
		p[5] = 1
	}
}

func (o *OpSingleStep) Unpack(r io.Reader) (int, error) {
	var tmp [4 + 1]byte
	n, err := io.ReadFull(r, tmp[:])
	if err == nil {
		o.CPU = order.Uint32(tmp[:])
		o.Enabled = tmp[4] != 0
	}
	return n, err
}

type OpInterrupt struct {
	CPU  uint32
	Mask uint32
}

func (o *OpInterrupt) Sizeof() int { return 1 + 4 + 4 }
func (o *OpInterrupt) Pack(p []byte) {
	p[0] = OP_INTERRUPT
	order.PutUint32(p[1:], o.CPU)
	order.PutUint32(p[5:], o.Mask)
}

func (o *OpInterrupt) Unpack(r io.Reader) (int, error) {
	var tmp [4 + 4]byte
	n, err := io.ReadFull(r, tmp[:])
	if err == nil {
		o.CPU = order.Uint32(tmp[:])
		o.Mask = order.Uint32(tmp[4:])
	}
	return n, err
}

type OpAbort struct {
	CPU uint32
}

func (o *OpAbort) Sizeof() int { return 1 + 4 }
func (o *OpAbort) Pack(p []byte) {
	p[0] = OP_ABORT
	order.PutUint32(p[1:], o.CPU)
}

func (o *OpAbort) Unpack(r io.Reader) (int, error) {
	var tmp [4]byte
	n, err := io.ReadFull(r, tmp[:])
	if err == nil {
		o.CPU = order.Uint32(tmp[:])
	}
	return n, err
}
