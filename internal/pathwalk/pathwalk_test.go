package pathwalk

import (
	"encoding/binary"
	"testing"
	"unicode/utf16"

	"github.com/ntfsgo/mftrecover/internal/mft"
)

// buildFileNameValue mirrors the mft package's own test helper (kept local
// since it's unexported there): parent reference + UTF-16LE name.
func buildFileNameValue(parentRef uint64, name string) []byte {
	u16 := utf16.Encode([]rune(name))
	value := make([]byte, 66+2*len(u16))
	binary.LittleEndian.PutUint64(value[0:8], parentRef)
	value[64] = byte(len(u16))
	for i, c := range u16 {
		binary.LittleEndian.PutUint16(value[66+2*i:], c)
	}
	return value
}

func buildFileNameRecord(t *testing.T, index int, parentRef uint64, name string) *mft.Record {
	t.Helper()

	const headerSize = 24
	value := buildFileNameValue(parentRef, name)

	attr := make([]byte, headerSize+len(value))
	binary.LittleEndian.PutUint32(attr[0:], uint32(mft.AttrFileName))
	binary.LittleEndian.PutUint32(attr[4:], uint32(len(attr)))
	attr[8] = 0 // resident
	binary.LittleEndian.PutUint32(attr[16:], uint32(len(value)))
	binary.LittleEndian.PutUint16(attr[22:], uint16(headerSize))
	copy(attr[headerSize:], value)

	record := make([]byte, 1024)
	copy(record[:4], "FILE")
	binary.LittleEndian.PutUint16(record[0x14:], 56)
	copy(record[56:], attr)
	end := 56 + len(attr)
	binary.LittleEndian.PutUint32(record[end:], 0xFFFFFFFF)
	binary.LittleEndian.PutUint32(record[0x18:], uint32(end+4))
	binary.LittleEndian.PutUint32(record[0x1C:], 1024)

	rec, err := mft.ParseRecord(record, index, 4096)
	if err != nil {
		t.Fatalf("ParseRecord: %v", err)
	}
	return rec
}

func buildStream(t *testing.T, entries map[int][2]any) *mft.Stream {
	t.Helper()
	maxIdx := 0
	for i := range entries {
		if i > maxIdx {
			maxIdx = i
		}
	}
	stream := &mft.Stream{Records: make([]*mft.Record, maxIdx+1)}
	for i, e := range entries {
		parentRef := e[0].(uint64)
		name := e[1].(string)
		stream.Records[i] = buildFileNameRecord(t, i, parentRef, name)
	}
	return stream
}

func TestResolveSimpleChain(t *testing.T) {
	// 5 = root ("."), 10 = "docs" under root, 20 = "report.txt" under docs.
	stream := buildStream(t, map[int][2]any{
		5:  {uint64(5), "."},
		10: {uint64(5), "docs"},
		20: {uint64(10), "report.txt"},
	})

	path, err := Resolve(stream, 20)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if path != "/docs/report.txt" {
		t.Errorf("path = %q, want /docs/report.txt", path)
	}
}

func TestResolveCycleFallsBackToOrphan(t *testing.T) {
	// 10 and 20 reference each other as parent: a cycle.
	stream := buildStream(t, map[int][2]any{
		10: {uint64(20), "a"},
		20: {uint64(10), "b"},
	})

	path, err := Resolve(stream, 10)
	if err != ErrCyclicPath {
		t.Fatalf("err = %v, want ErrCyclicPath", err)
	}
	if want := "__ORPHANED__/a"; path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
}

func TestResolveMissingParentFallsBackToOrphan(t *testing.T) {
	stream := buildStream(t, map[int][2]any{
		10: {uint64(999), "lonely.txt"}, // parent 999 doesn't exist in the stream
	})

	path, err := Resolve(stream, 10)
	if err == nil {
		t.Fatal("expected an orphaned-path error")
	}
	if want := "__ORPHANED__/lonely.txt"; path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
}
