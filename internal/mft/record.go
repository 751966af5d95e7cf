package mft

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	recordMagic = "FILE"

	recordUsaOffsetOff    = 0x04
	recordUsaCountOff     = 0x06
	recordAttrsOffsetOff  = 0x14
	recordFlagsOffsetOff  = 0x16
	recordUsedSizeOff     = 0x18
	recordAllocSizeOff    = 0x1C

	sectorSize = 512

	minAttrsOffset = 42

	attrWalkMinRemaining = 12
)

var (
	ErrMalformedRecord = errors.New("mft: malformed record")
	ErrBadUsaNumber    = errors.New("mft: USA fix-up number mismatch")
)

// RecordFlags is the MFT record's flags field (in-use, directory, ...).
type RecordFlags uint16

const (
	FlagInUse     RecordFlags = 0x0001
	FlagDirectory RecordFlags = 0x0002
)

// Record is one parsed 1024-byte MFT entry: its header fields and its
// attributes in record order, looked up by (type, name) via Get and All.
type Record struct {
	Index      int
	UsedSize   uint32
	AllocSize  uint32
	AttrsOffset uint16
	Flags      RecordFlags

	Attributes []Attribute

	// FixupWarning is non-nil if the USA fix-up detected a sector-tail
	// mismatch; the record is still returned best-effort.
	FixupWarning error
}

// ParseRecord validates and decodes a 1024-byte file record: applies the
// USA fix-up, then walks its attribute list. buf is mutated in place by the
// fix-up (sector tails are rewritten with their original bytes).
func ParseRecord(buf []byte, index int, bytesPerCluster int64) (*Record, error) {
	if len(buf) < recordUsedSizeOff+4 {
		return nil, fmt.Errorf("%w: record %d too short", ErrMalformedRecord, index)
	}
	if string(buf[:4]) != recordMagic {
		return nil, fmt.Errorf("%w: record %d missing FILE signature", ErrMalformedRecord, index)
	}

	fixupWarning := applyFixup(buf, index)

	attrsOffset := binary.LittleEndian.Uint16(buf[recordAttrsOffsetOff:])
	usedSize := binary.LittleEndian.Uint32(buf[recordUsedSizeOff:])
	allocSize := binary.LittleEndian.Uint32(buf[recordAllocSizeOff:])
	flags := RecordFlags(binary.LittleEndian.Uint16(buf[recordFlagsOffsetOff:]))

	if attrsOffset < minAttrsOffset || int(attrsOffset) >= len(buf) {
		return nil, fmt.Errorf("%w: record %d has attrs_offset %d out of range", ErrMalformedRecord, index, attrsOffset)
	}

	rec := &Record{
		Index:       index,
		UsedSize:    usedSize,
		AllocSize:   allocSize,
		AttrsOffset: attrsOffset,
		Flags:       flags,
		FixupWarning: fixupWarning,
	}

	pos := int(attrsOffset)
	for pos+4 <= len(buf) {
		remaining := buf[pos:]
		if len(remaining) < attrWalkMinRemaining {
			break
		}
		typ := binary.LittleEndian.Uint32(remaining)
		if AttributeType(typ) == attrListTerminator {
			break
		}

		attr, recordLength, err := parseAttribute(remaining, bytesPerCluster)
		if err != nil {
			// Per-attribute corruption: skip this attribute, continue the walk
			// if record_length at least gave us an advance; otherwise the whole
			// record is unsalvageable from here on.
			rl := binary.LittleEndian.Uint32(remaining[attrHeaderRecordLength:])
			if rl == 0 || int(rl) > len(remaining) {
				return nil, fmt.Errorf("%w: record %d: %v", ErrMalformedRecord, index, err)
			}
			pos += int(rl)
			continue
		}

		rec.Attributes = append(rec.Attributes, *attr)
		pos += int(recordLength)
	}

	return rec, nil
}

// applyFixup performs the Update Sequence Array fix-up in place on buf,
// returning a non-nil warning (not an error; the record is still usable)
// if any sector's stamped tail didn't match the expected USA number.
func applyFixup(buf []byte, index int) error {
	usaOffset := binary.LittleEndian.Uint16(buf[recordUsaOffsetOff:])
	usaCount := binary.LittleEndian.Uint16(buf[recordUsaCountOff:])

	if usaOffset == 0 || usaCount == 0 {
		return nil
	}
	if int(usaOffset)+int(usaCount)*2 > len(buf) {
		return fmt.Errorf("%w: record %d USA overflows buffer", ErrBadUsaNumber, index)
	}

	usaNumber := binary.LittleEndian.Uint16(buf[usaOffset:])

	var warn error
	sectors := len(buf) / sectorSize
	for i := 0; i < sectors && i+1 < int(usaCount); i++ {
		tailOff := i*sectorSize + sectorSize - 2
		if tailOff+2 > len(buf) {
			break
		}
		tail := binary.LittleEndian.Uint16(buf[tailOff:])
		if tail != usaNumber {
			if warn == nil {
				warn = fmt.Errorf("%w: record %d sector %d at offset %d", ErrBadUsaNumber, index, i, tailOff)
			}
			continue
		}
		replacement := buf[usaOffset+2+uint16(i)*2:]
		binary.LittleEndian.PutUint16(buf[tailOff:], binary.LittleEndian.Uint16(replacement))
	}

	return warn
}

// Get returns the value for the first attribute matching typ and name
// ("" for the unnamed/default attribute), or nil if absent.
func (r *Record) Get(typ AttributeType, name string) *Value {
	for i := range r.Attributes {
		if r.Attributes[i].Type == typ && r.Attributes[i].Name == name {
			return r.Attributes[i].Value
		}
	}
	return nil
}

// All returns every attribute matching typ, in record order (used to
// enumerate alternate data streams, which are all $DATA attributes
// distinguished by name).
func (r *Record) All(typ AttributeType) []Attribute {
	var out []Attribute
	for _, a := range r.Attributes {
		if a.Type == typ {
			out = append(out, a)
		}
	}
	return out
}
