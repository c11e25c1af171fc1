package vmstate

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	d := widgetDesc()
	a, b := &widget{Count: 1}, &widget{Count: 2, Flagged: true}
	require.NoError(t, r.Register(0, d, a))
	require.NoError(t, r.Register(1, d, b))
	assert.Error(t, r.Register(1, d, &widget{}), "duplicate instance id")
	assert.Equal(t, 2, r.Len())
	assert.True(t, r.Registered(d, a))

	s, err := r.Save()
	require.NoError(t, err)
	require.Len(t, s.Records, 2)
	assert.Equal(t, 0, s.Records[0].InstanceID)
	assert.Equal(t, 1, s.Records[1].InstanceID)

	a.Count, b.Count, b.Flagged = 10, 20, false
	require.NoError(t, r.Load(s))
	assert.Equal(t, uint32(1), a.Count)
	assert.Equal(t, uint32(2), b.Count)
	assert.True(t, b.Flagged)

	r.Unregister(d, a)
	assert.False(t, r.Registered(d, a))
	assert.Equal(t, 1, r.Len())
	assert.Error(t, r.Load(s), "stream names an unregistered instance")
}

func TestRegistryLoadAtomic(t *testing.T) {
	r := NewRegistry()
	d := widgetDesc()
	a, b := &widget{Count: 1}, &widget{Count: 2}
	require.NoError(t, r.Register(0, d, a))
	require.NoError(t, r.Register(1, d, b))
	s, err := r.Save()
	require.NoError(t, err)
	s.Records[1].Section.Version = 0

	a.Count = 5
	err = r.Load(s)
	assert.Equal(t, ErrVersion, errors.Cause(err))
	assert.Equal(t, uint32(5), a.Count, "earlier records must not be applied when a later one is rejected")
}

func TestCodec(t *testing.T) {
	r := NewRegistry()
	d := widgetDesc()
	require.NoError(t, r.Register(3, d, &widget{Count: 0xdead, Offset: -1, Wide: 99, Flagged: true, Extra: 4}))
	require.NoError(t, r.Register(4, d, &widget{}))
	s, err := r.Save()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, s))
	raw := append([]byte(nil), buf.Bytes()...)
	out, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, s, out)

	// flip a byte in the compressed body
	raw[len(raw)-1] ^= 0xff
	_, err = Decode(bytes.NewReader(raw))
	assert.Error(t, err)

	_, err = Decode(bytes.NewReader([]byte("NOPE0000000000000000")))
	assert.Error(t, err)
}
