// Package runlist decodes NTFS non-resident attribute run-lists into
// cluster extents and materializes their bytes against a volume reader.
package runlist

import (
	"errors"
	"fmt"
	"io"
)

var ErrMalformedRunlist = errors.New("runlist: malformed run-list")

// Extent is one decoded run: length clusters starting at AbsoluteLCN,
// unless Sparse is set, in which case it represents Length clusters of
// zero-filled data and AbsoluteLCN is meaningless.
type Extent struct {
	Length      uint64
	AbsoluteLCN int64
	Sparse      bool
}

// Decode parses a packed run-list byte stream (as found after an attribute's
// run_list_offset) into an ordered list of extents. A header byte of 0x00 or
// end-of-buffer terminates the list. On a malformed header or an operand
// that would overrun buf, Decode returns the extents successfully decoded so
// far along with ErrMalformedRunlist, matching the "log and stop at the last
// good run" recovery behavior.
func Decode(buf []byte) ([]Extent, error) {
	var extents []Extent
	var currentLCN int64
	pos := 0

	for pos < len(buf) {
		header := buf[pos]
		if header == 0 {
			break
		}
		pos++

		lengthLen := int(header & 0x0F)
		offsetLen := int(header>>4) & 0x0F

		if lengthLen == 0 {
			return extents, fmt.Errorf("%w: zero length field at byte %d", ErrMalformedRunlist, pos-1)
		}
		if pos+lengthLen+offsetLen > len(buf) {
			return extents, fmt.Errorf("%w: operand overruns buffer at byte %d", ErrMalformedRunlist, pos-1)
		}

		length := readUnsigned(buf[pos : pos+lengthLen])
		pos += lengthLen

		sparse := offsetLen == 0
		var ext Extent
		ext.Length = length
		ext.Sparse = sparse

		if !sparse {
			delta := readSigned(buf[pos : pos+offsetLen])
			pos += offsetLen
			currentLCN += delta
			ext.AbsoluteLCN = currentLCN
		}

		extents = append(extents, ext)
	}

	return extents, nil
}

// readUnsigned decodes a little-endian unsigned integer of arbitrary width.
func readUnsigned(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// readSigned decodes a little-endian two's-complement integer, sign-extended
// from the top bit of the last (most significant) byte.
func readSigned(b []byte) int64 {
	v := readUnsigned(b)
	bits := uint(len(b)) * 8
	if bits < 64 && b[len(b)-1]&0x80 != 0 {
		v |= ^uint64(0) << bits
	}
	return int64(v)
}

// Materialize reads the bytes described by extents from r (a Byte Reader
// keyed by absolute volume byte offsets), zero-filling sparse extents, and
// truncates the result to realSize.
func Materialize(r io.ReaderAt, extents []Extent, bytesPerCluster int64, realSize uint64) ([]byte, error) {
	out := make([]byte, 0, realSize)

	for _, ext := range extents {
		n := ext.Length * uint64(bytesPerCluster)

		if ext.Sparse {
			out = append(out, make([]byte, n)...)
			continue
		}

		chunk := make([]byte, n)
		offset := ext.AbsoluteLCN * bytesPerCluster
		if _, err := r.ReadAt(chunk, offset); err != nil && err != io.EOF {
			return nil, fmt.Errorf("runlist: read extent at LCN %d: %w", ext.AbsoluteLCN, err)
		}
		out = append(out, chunk...)
	}

	if uint64(len(out)) > realSize {
		out = out[:realSize]
	}

	return out, nil
}
