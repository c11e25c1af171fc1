package cpu

import (
	"strconv"
	"testing"
)

func makeRegs(bits uint) ([]int, *Regs) {
	enums := make([]int, 100)
	names := make(map[int]string)
	for i := range enums {
		enums[i] = 100 - i
		names[enums[i]] = "r" + strconv.Itoa(enums[i])
	}
	return enums, NewRegs(bits, names)
}

func BenchmarkRegsRead(b *testing.B) {
	enums, regs := makeRegs(64)
	for i := 0; i < b.N; i++ {
		regs.RegRead(enums[i%len(enums)])
	}
}

func TestRegs(t *testing.T) {
	enums, regs := makeRegs(64)

	for _, e := range enums {
		if val, _ := regs.RegRead(e); val != 0 {
			t.Fatalf("RegRead() returned %d before any write, expecting 0", val)
		}
	}

	// set all regs to pos * 2
	for i, e := range enums {
		if err := regs.RegWrite(e, uint64(i*2)); err != nil {
			t.Fatal(err, "initial RegWrite() failed")
		}
	}
	for i, e := range enums {
		if val, err := regs.RegRead(e); err != nil {
			t.Fatal(err, "initial RegRead() failed")
		} else if val != uint64(i*2) {
			t.Fatalf("RegRead() returned %d, expecting %d", val, i*2)
		}
	}
	if _, err := regs.RegRead(0); err == nil {
		t.Fatal("RegRead() of unnamed enum should fail")
	}
	if _, err := regs.RegRead(1000); err == nil {
		t.Fatal("RegRead() of out of range enum should fail")
	}
}

func TestRegs8(t *testing.T) {
	enums, regs := makeRegs(8)
	if err := regs.RegWrite(enums[0], 0xffff); err != nil {
		t.Fatal("RegWrite() failed")
	}
	if val, _ := regs.RegRead(enums[0]); val != 0xff {
		t.Fatalf("RegRead() returned %d, expecting 255", val)
	}
}

func TestRegsNaturalOrder(t *testing.T) {
	regs := NewRegs(32, map[int]string{0: "r10", 1: "r2", 2: "r1", 3: "pc"})
	var names []string
	for _, r := range regs.Dump() {
		names = append(names, r.Name)
	}
	if err := strseq(names, []string{"pc", "r1", "r2", "r10"}); err != nil {
		t.Fatal(err)
	}
	if e, ok := regs.Lookup("r2"); !ok || e != 1 {
		t.Fatalf("Lookup(r2) = %d, %v", e, ok)
	}
}
