// Package replay records the nondeterministic events of a run so that it
// can be replayed. The file is a fixed header followed by a snappy stream
// of ops, terminated by OpEnd when the recording is finished cleanly.
package replay

import (
	"io"
	"strings"
	"sync"

	"github.com/golang/snappy"
	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

var REPLAY_MAGIC = "VCRP"

type Header struct {
	Magic   string `struc:"[4]byte"`
	Version uint32
	// Right-null-padded target name, e.g. "arm".
	Target  string `struc:"[32]byte"`
	NumCPUs uint32
}

type Writer struct {
	mu       sync.Mutex
	w        io.WriteCloser
	zw       *snappy.Writer
	buf      []byte
	finished bool
	err      error
}

func NewWriter(w io.WriteCloser, target string, ncpus int) (*Writer, error) {
	header := &Header{
		Magic:   REPLAY_MAGIC,
		Version: 1,
		Target:  target,
		NumCPUs: uint32(ncpus),
	}
	if err := struc.Pack(w, header); err != nil {
		return nil, errors.Wrap(err, "failed to pack header")
	}
	return &Writer{w: w, zw: snappy.NewBufferedWriter(w)}, nil
}

// Record appends op. Errors are sticky and reported by Finish.
func (t *Writer) Record(op Op) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished || t.err != nil {
		return
	}
	t.err = t.pack(op)
}

func (t *Writer) pack(op Op) error {
	size := op.Sizeof()
	if cap(t.buf) < size {
		t.buf = make([]byte, size)
	}
	p := t.buf[:size]
	op.Pack(p)
	_, err := t.zw.Write(p)
	return err
}

// Finish terminates the stream so a partial recording stays readable. It is
// safe to call more than once.
func (t *Writer) Finish() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return t.err
	}
	t.finished = true
	if t.err == nil {
		t.err = t.pack(&OpEnd{})
	}
	if err := t.zw.Close(); err != nil && t.err == nil {
		t.err = err
	}
	if err := t.w.Close(); err != nil && t.err == nil {
		t.err = err
	}
	return t.err
}

type Reader struct {
	r      io.ReadCloser
	zr     *snappy.Reader
	Header Header
}

func NewReader(r io.ReadCloser) (*Reader, error) {
	t := &Reader{r: r}
	if err := struc.Unpack(r, &t.Header); err != nil {
		return nil, errors.Wrap(err, "failed to unpack header")
	}
	if t.Header.Magic != REPLAY_MAGIC {
		return nil, errors.New("invalid replay file magic")
	}
	t.Header.Target = strings.TrimRight(t.Header.Target, "\x00")
	t.zr = snappy.NewReader(r)
	return t, nil
}

// Next returns the next op, or io.EOF after OpEnd.
func (t *Reader) Next() (Op, error) {
	op, _, err := Unpack(t.zr)
	if err != nil {
		if err == io.EOF {
			return nil, errors.New("replay stream truncated")
		}
		return nil, err
	}
	if _, ok := op.(*OpEnd); ok {
		return nil, io.EOF
	}
	return op, nil
}

func (t *Reader) Close() {
	t.zr.Reset(nil)
	t.r.Close()
}
