package memory

import (
	"encoding/hex"
	"fmt"
	"strings"
)

func printable(p []byte) string {
	o := make([]byte, len(p))
	for i, c := range p {
		if c >= 0x20 && c <= 0x7e {
			o[i] = c
		} else {
			o[i] = '.'
		}
	}
	return string(o)
}

// HexDump formats mem as lines of "addr: words [ascii]" that fit in 80
// columns, grouping bytes into bits-wide words. Widths under 8 bits dump
// single bytes.
func HexDump(base uint64, mem []byte, bits int) []string {
	wordSize := bits / 8
	if wordSize < 1 {
		wordSize = 1
	}
	addrFmt := fmt.Sprintf("0x%%0%dx:", wordSize*2)
	addrWidth := wordSize*2 + 4
	words := ((80 - addrWidth) * 3 / 4) / ((wordSize + 1) * 2)
	lineSize := words * wordSize

	var out []string
	hexCol := make([]string, words)
	textCol := make([]string, words)
	for i := 0; i < len(mem); i += lineSize {
		line := mem[i:]
		for j := range hexCol {
			start, end := j*wordSize, (j+1)*wordSize
			if start >= len(line) {
				hexCol[j] = strings.Repeat(" ", wordSize*2)
				textCol[j] = strings.Repeat(" ", wordSize)
				continue
			}
			short := 0
			if end > len(line) {
				short = end - len(line)
				end = len(line)
			}
			hexCol[j] = hex.EncodeToString(line[start:end]) + strings.Repeat("  ", short)
			textCol[j] = printable(line[start:end]) + strings.Repeat(" ", short)
		}
		out = append(out, fmt.Sprintf(addrFmt, base+uint64(i))+" "+
			strings.Join(hexCol, " ")+" ["+strings.Join(textCol, " ")+"]")
	}
	return out
}
