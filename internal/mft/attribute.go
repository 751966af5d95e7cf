package mft

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf16"

	"github.com/ntfsgo/mftrecover/internal/runlist"
)

// AttributeType is one of the well-known NTFS attribute type codes.
type AttributeType uint32

const (
	AttrStandardInformation AttributeType = 0x10
	AttrAttributeList       AttributeType = 0x20
	AttrFileName            AttributeType = 0x30
	AttrObjectID            AttributeType = 0x40
	AttrSecurityDescriptor  AttributeType = 0x50
	AttrVolumeName          AttributeType = 0x60
	AttrVolumeInformation   AttributeType = 0x70
	AttrData                AttributeType = 0x80
	AttrIndexRoot           AttributeType = 0x90
	AttrIndexAllocation     AttributeType = 0xA0
	AttrBitmap              AttributeType = 0xB0
	AttrSymbolicLink        AttributeType = 0xC0

	attrListTerminator AttributeType = 0xFFFFFFFF
)

var attributeNames = map[AttributeType]string{
	AttrStandardInformation: "STANDARD_INFO",
	AttrAttributeList:       "ATTR_LIST",
	AttrFileName:            "FILE_NAME",
	AttrObjectID:            "OBJECT_ID",
	AttrSecurityDescriptor:  "SECURITY",
	AttrVolumeName:          "VOLUME_NAME",
	AttrVolumeInformation:   "VOLUME_INFO",
	AttrData:                "DATA",
	AttrIndexRoot:           "INDEX_ROOT",
	AttrIndexAllocation:     "INDEX_ALLOC",
	AttrBitmap:              "BITMAP",
	AttrSymbolicLink:        "SYMLINK",
}

// Name returns the well-known attribute name, or "unknown_<code>" for any
// attribute type not in the table above.
func (t AttributeType) Name() string {
	if name, ok := attributeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown_%#x", uint32(t))
}

var (
	ErrAttributeOverflow = errors.New("mft: attribute extent overflows record")
)

const (
	attrHeaderType         = 0
	attrHeaderRecordLength = 4
	attrHeaderNonResident  = 8
	attrHeaderNameLength   = 9
	attrHeaderNameOffset   = 10

	residentValueLength = 16
	residentValueOffset = 22

	nonResidentRunListOffset = 32
	nonResidentRealSize      = 48

	fileNameLengthOffset = 64
	fileNameStringOffset = 66

	minAttrHeaderSize = 16
)

// Value is a lazily-materialized attribute value: either resident bytes
// embedded in the record, or a non-resident run-list plus real size.
type Value struct {
	resident bool
	bytes    []byte

	runList         []runlist.Extent
	bytesPerCluster int64
	realSize        uint64
}

// Materialize returns the attribute's value bytes, reading non-resident
// extents from r on demand.
func (v *Value) Materialize(r io.ReaderAt) ([]byte, error) {
	if v.resident {
		return v.bytes, nil
	}
	return runlist.Materialize(r, v.runList, v.bytesPerCluster, v.realSize)
}

// IsResident reports whether the value's bytes are embedded in the record.
func (v *Value) IsResident() bool { return v.resident }

// Attribute is one decoded attribute record: its type, optional name (used
// for alternate data streams and named attributes), and lazy value.
type Attribute struct {
	Type  AttributeType
	Name  string // "" for the unnamed/default attribute
	Value *Value
}

// ParsedFileName is the structured decode of a FILE_NAME attribute.
type ParsedFileName struct {
	ParentRef uint64
	Name      string
}

// parseAttribute decodes one attribute starting at the head of buf, which
// must cover at least the attribute's declared record_length (the caller is
// responsible for slicing buf to the record's bounds). It returns the
// attribute and its record_length so the caller can advance.
func parseAttribute(buf []byte, bytesPerCluster int64) (*Attribute, uint32, error) {
	if len(buf) < minAttrHeaderSize {
		return nil, 0, fmt.Errorf("%w: header truncated", ErrAttributeOverflow)
	}

	typ := AttributeType(binary.LittleEndian.Uint32(buf[attrHeaderType:]))
	recordLength := binary.LittleEndian.Uint32(buf[attrHeaderRecordLength:])
	nonResident := buf[attrHeaderNonResident] != 0
	nameLength := int(buf[attrHeaderNameLength])
	nameOffset := binary.LittleEndian.Uint16(buf[attrHeaderNameOffset:])

	if recordLength == 0 || int(recordLength) > len(buf) {
		return nil, 0, fmt.Errorf("%w: record_length %d exceeds buffer", ErrAttributeOverflow, recordLength)
	}
	body := buf[:recordLength]

	var name string
	if nameLength > 0 {
		nameEnd := int(nameOffset) + 2*nameLength
		if nameEnd > len(body) {
			return nil, 0, fmt.Errorf("%w: attribute name overflows record", ErrAttributeOverflow)
		}
		name = decodeUTF16LE(body[nameOffset:nameEnd])
	}

	val := &Value{}
	if !nonResident {
		if residentValueOffset+2 > len(body) {
			return nil, 0, fmt.Errorf("%w: resident header truncated", ErrAttributeOverflow)
		}
		valueLength := binary.LittleEndian.Uint32(body[residentValueLength:])
		valueOffset := binary.LittleEndian.Uint16(body[residentValueOffset:])
		end := int(valueOffset) + int(valueLength)
		if end > len(body) {
			return nil, 0, fmt.Errorf("%w: resident value overflows record", ErrAttributeOverflow)
		}
		val.resident = true
		val.bytes = append([]byte(nil), body[valueOffset:end]...)
	} else {
		if nonResidentRealSize+8 > len(body) {
			return nil, 0, fmt.Errorf("%w: non-resident header truncated", ErrAttributeOverflow)
		}
		runListOffset := binary.LittleEndian.Uint16(body[nonResidentRunListOffset:])
		realSize := binary.LittleEndian.Uint64(body[nonResidentRealSize:])
		if int(runListOffset) > len(body) {
			return nil, 0, fmt.Errorf("%w: run-list offset overflows record", ErrAttributeOverflow)
		}
		extents, err := runlist.Decode(body[runListOffset:])
		if err != nil && len(extents) == 0 {
			return nil, 0, fmt.Errorf("%w: %v", ErrAttributeOverflow, err)
		}
		val.runList = extents
		val.bytesPerCluster = bytesPerCluster
		val.realSize = realSize
	}

	return &Attribute{Type: typ, Name: name, Value: val}, recordLength, nil
}

// ParseFileName decodes the structured FILE_NAME payload from raw value
// bytes: a parent file reference and a UTF-16LE name whose length in code
// units is a single byte at value-offset 64.
func ParseFileName(value []byte) (*ParsedFileName, error) {
	if len(value) < fileNameLengthOffset+1 {
		return nil, fmt.Errorf("%w: FILE_NAME value truncated", ErrAttributeOverflow)
	}
	parentRef := binary.LittleEndian.Uint64(value[0:8])
	nameLenUnits := int(value[fileNameLengthOffset])
	nameEnd := fileNameStringOffset + 2*nameLenUnits
	if nameEnd > len(value) {
		return nil, fmt.Errorf("%w: FILE_NAME string overflows value", ErrAttributeOverflow)
	}
	name := decodeUTF16LE(value[fileNameStringOffset:nameEnd])
	return &ParsedFileName{ParentRef: parentRef, Name: name}, nil
}

func decodeUTF16LE(b []byte) string {
	u16 := make([]uint16, len(b)/2)
	for i := range u16 {
		u16[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return string(utf16.Decode(u16))
}
