package runlist

import (
	"bytes"
	"testing"
)

func TestDecodeSimplePositiveRun(t *testing.T) {
	// header 0x21: length_len=1, offset_len=2; length=5, offset=+100 (0x0064)
	buf := []byte{0x21, 0x05, 0x64, 0x00, 0x00}
	extents, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(extents) != 1 {
		t.Fatalf("expected 1 extent, got %d", len(extents))
	}
	if extents[0].Length != 5 || extents[0].AbsoluteLCN != 100 || extents[0].Sparse {
		t.Fatalf("unexpected extent: %+v", extents[0])
	}
}

func TestDecodeNegativeDelta(t *testing.T) {
	// Two runs: first LCN=+200, second run has delta -50, so absolute LCN=150.
	// This exercises the spec's explicit "later extents precede earlier ones
	// on disk" scenario, which a naive unsigned decode would get wrong.
	buf := []byte{
		0x21, 0x05, 0xC8, 0x00, // length=5, delta=+200 -> LCN 200
		0x21, 0x03, 0xCE, 0xFF, // length=3, delta=-50  -> LCN 150
		0x00,
	}
	extents, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(extents) != 2 {
		t.Fatalf("expected 2 extents, got %d", len(extents))
	}
	if extents[0].AbsoluteLCN != 200 {
		t.Fatalf("extent 0: expected LCN 200, got %d", extents[0].AbsoluteLCN)
	}
	if extents[1].AbsoluteLCN != 150 {
		t.Fatalf("extent 1: expected LCN 150 (200-50), got %d", extents[1].AbsoluteLCN)
	}
}

func TestDecodeSparseRun(t *testing.T) {
	// header 0x01: length_len=1, offset_len=0 -> sparse.
	buf := []byte{0x01, 0x0A, 0x00}
	extents, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(extents) != 1 || !extents[0].Sparse || extents[0].Length != 10 {
		t.Fatalf("unexpected extents: %+v", extents)
	}
}

// TestSparseNotConfusedWithZeroDelta is a regression test for the bug the
// spec calls out explicitly: a run whose *decoded* delta happens to be zero
// (offset_len nonzero, bytes all zero) must NOT be treated as sparse -
// only offset_len == 0 means sparse.
func TestSparseNotConfusedWithZeroDelta(t *testing.T) {
	// header 0x11: length_len=1, offset_len=1; length=4, delta=0x00 (zero, but explicit).
	buf := []byte{0x11, 0x04, 0x00, 0x00}
	extents, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(extents) != 1 {
		t.Fatalf("expected 1 extent, got %d", len(extents))
	}
	if extents[0].Sparse {
		t.Fatalf("run with explicit zero delta must not be marked sparse")
	}
	if extents[0].AbsoluteLCN != 0 {
		t.Fatalf("expected LCN 0, got %d", extents[0].AbsoluteLCN)
	}
}

func TestDecodeMalformedZeroLength(t *testing.T) {
	buf := []byte{0x10, 0x05} // length_len = 0 is invalid
	extents, err := Decode(buf)
	if err == nil {
		t.Fatal("expected ErrMalformedRunlist")
	}
	if len(extents) != 0 {
		t.Fatalf("expected no extents decoded, got %d", len(extents))
	}
}

type fakeDisk struct {
	data []byte
}

func (f *fakeDisk) ReadAt(p []byte, off int64) (int, error) {
	n := copy(p, f.data[off:])
	return n, nil
}

func TestMaterializeZeroFillsSparseAndTruncates(t *testing.T) {
	const bytesPerCluster = 4
	disk := &fakeDisk{data: bytes.Repeat([]byte{0xAB}, 64)}

	extents := []Extent{
		{Length: 2, AbsoluteLCN: 0},      // 8 bytes of 0xAB
		{Length: 1, Sparse: true},        // 4 zero bytes
		{Length: 2, AbsoluteLCN: 4},      // 8 bytes of 0xAB
	}

	out, err := Materialize(disk, extents, bytesPerCluster, 15)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if len(out) != 15 {
		t.Fatalf("expected truncation to real_size 15, got %d", len(out))
	}
	for i := 0; i < 8; i++ {
		if out[i] != 0xAB {
			t.Fatalf("byte %d: expected 0xAB, got %#x", i, out[i])
		}
	}
	for i := 8; i < 12; i++ {
		if out[i] != 0 {
			t.Fatalf("byte %d: expected zero-filled sparse region, got %#x", i, out[i])
		}
	}
}
