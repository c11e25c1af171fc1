package memory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHexDump(t *testing.T) {
	lines := HexDump(0x1000, []byte("ABCDEFGH\x00\x01"), 32)
	// 32-bit words: 5 per line
	assert.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "0x00001000: 41424344 45464748 0001    "))
	assert.True(t, strings.HasSuffix(lines[0], "[ABCD EFGH ..            ]"))

	// 64-bit words: 2 per line
	lines = HexDump(0, make([]byte, 64), 64)
	assert.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], "0x0000000000000010: "))
	assert.Empty(t, HexDump(0, nil, 32))
}

func TestHexDumpNarrowWords(t *testing.T) {
	for _, bits := range []int{0, 4, 8} {
		lines := HexDump(0x10, []byte("AB"), bits)
		assert.Len(t, lines, 1)
		assert.True(t, strings.HasPrefix(lines[0], "0x10: 41 42 "), "bits=%d: %q", bits, lines[0])
		assert.True(t, strings.HasSuffix(lines[0], "]"))
		assert.Contains(t, lines[0], "[A B ")
	}
}
