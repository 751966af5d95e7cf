package mft

import (
	"encoding/binary"
	"unicode/utf16"
)

// buildFileNameValue constructs a FILE_NAME attribute's resident value
// payload: an 8-byte parent reference, 56 bytes of fields this parser
// ignores, a one-byte name length in UTF-16 code units at offset 64, a
// namespace byte at offset 65, then the UTF-16LE name itself.
func buildFileNameValue(parentRef uint64, name string) []byte {
	u16 := utf16.Encode([]rune(name))
	value := make([]byte, 66+2*len(u16))
	binary.LittleEndian.PutUint64(value[0:8], parentRef)
	value[64] = byte(len(u16))
	value[65] = 0x01 // namespace: arbitrary, unused by ParseFileName
	for i, c := range u16 {
		binary.LittleEndian.PutUint16(value[66+2*i:], c)
	}
	return value
}

// appendResidentAttr appends a resident attribute (header + value) to buf
// and returns the extended slice along with the attribute's record_length.
func appendResidentAttr(buf []byte, typ AttributeType, name string, value []byte) ([]byte, uint32) {
	const headerSize = 24
	nameUnits := utf16.Encode([]rune(name))
	nameBytes := len(nameUnits) * 2

	valueOffset := headerSize + nameBytes
	recordLength := valueOffset + len(value)
	// Pad to 8-byte alignment, matching real on-disk attribute records.
	if pad := recordLength % 8; pad != 0 {
		recordLength += 8 - pad
	}

	attr := make([]byte, recordLength)
	binary.LittleEndian.PutUint32(attr[attrHeaderType:], uint32(typ))
	binary.LittleEndian.PutUint32(attr[attrHeaderRecordLength:], uint32(recordLength))
	attr[attrHeaderNonResident] = 0
	attr[attrHeaderNameLength] = byte(len(nameUnits))
	binary.LittleEndian.PutUint16(attr[attrHeaderNameOffset:], uint16(headerSize))
	for i, c := range nameUnits {
		binary.LittleEndian.PutUint16(attr[headerSize+2*i:], c)
	}
	binary.LittleEndian.PutUint32(attr[residentValueLength:], uint32(len(value)))
	binary.LittleEndian.PutUint16(attr[residentValueOffset:], uint16(valueOffset))
	copy(attr[valueOffset:valueOffset+len(value)], value)

	return append(buf, attr...), uint32(recordLength)
}

// appendNonResidentAttr appends a non-resident attribute whose run-list is
// the raw bytes runListBytes (already in packed run-list format).
func appendNonResidentAttr(buf []byte, typ AttributeType, name string, runListBytes []byte, realSize uint64) []byte {
	const headerSize = 64 // room for the fixed non-resident fields used here
	nameUnits := utf16.Encode([]rune(name))
	nameBytes := len(nameUnits) * 2

	runListOffset := headerSize + nameBytes
	recordLength := runListOffset + len(runListBytes)
	if pad := recordLength % 8; pad != 0 {
		recordLength += 8 - pad
	}

	attr := make([]byte, recordLength)
	binary.LittleEndian.PutUint32(attr[attrHeaderType:], uint32(typ))
	binary.LittleEndian.PutUint32(attr[attrHeaderRecordLength:], uint32(recordLength))
	attr[attrHeaderNonResident] = 1
	attr[attrHeaderNameLength] = byte(len(nameUnits))
	binary.LittleEndian.PutUint16(attr[attrHeaderNameOffset:], uint16(headerSize))
	for i, c := range nameUnits {
		binary.LittleEndian.PutUint16(attr[headerSize+2*i:], c)
	}
	binary.LittleEndian.PutUint16(attr[nonResidentRunListOffset:], uint16(runListOffset))
	binary.LittleEndian.PutUint64(attr[nonResidentRealSize:], realSize)
	copy(attr[runListOffset:runListOffset+len(runListBytes)], runListBytes)

	return append(buf, attr...)
}

// finishRecord appends an attribute-list terminator, stamps used_size and
// alloc_size, and pads the result out to 1024 bytes.
func finishRecord(buf []byte) []byte {
	binary.LittleEndian.PutUint32(buf[recordUsedSizeOff:], uint32(len(buf)+4))
	binary.LittleEndian.PutUint32(buf[recordAllocSizeOff:], 1024)

	buf = append(buf, 0xFF, 0xFF, 0xFF, 0xFF)
	out := make([]byte, 1024)
	copy(out, buf)
	return out
}

// newRecordPrefix builds a record's fixed header (length attrsOffset), with
// the magic and attrs_offset field set, ready for attributes to be appended
// directly after it via appendResidentAttr/appendNonResidentAttr.
// used_size and alloc_size are filled in by finishRecord once the final
// length is known.
func newRecordPrefix(attrsOffset uint16) []byte {
	buf := make([]byte, attrsOffset)
	copy(buf[:4], recordMagic)
	binary.LittleEndian.PutUint16(buf[recordAttrsOffsetOff:], attrsOffset)
	return buf
}
