// Package bootsect decodes the NTFS boot sector: volume geometry and the
// location of the Master File Table.
package bootsect

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	oemIDOffset           = 0x03
	bytesPerSectorOffset  = 0x0B
	sectorsPerClusterOff  = 0x0D
	mftClusterOffset      = 0x30
	mftMirrorClusterOff   = 0x38
	clustersPerRecordOff  = 0x40

	ntfsOEMID = "NTFS    "

	// standardRecordSize is the only record size this implementation
	// accepts, per the spec's explicit rejection of non-default sizes.
	standardRecordSize = 1024

	minBootSectorSize = 0x48
)

var (
	ErrNotAnNtfsVolume     = errors.New("bootsect: not an NTFS volume")
	ErrUnsupportedRecordSize = errors.New("bootsect: unsupported MFT record size")
	ErrShortBootSector    = errors.New("bootsect: boot sector too short to parse")
)

// BootSector holds the geometry fields needed to locate and walk the MFT.
type BootSector struct {
	BytesPerSector    uint16
	SectorsPerCluster uint8
	MFTCluster        uint64
	MFTMirrorCluster  uint64
	ClustersPerRecord int8

	BytesPerCluster int64
	MFTRecordSize   int64
	MFTOffset       int64
}

// Overrides lets the caller force bytes-per-sector / sectors-per-cluster,
// matching the --sector-size / --cluster-size CLI flags.
type Overrides struct {
	SectorSize  uint16
	ClusterSize uint8
}

// Parse decodes a boot sector from raw bytes at volume offset 0 (the caller
// is responsible for any cloned-image prefix stripping before calling this).
func Parse(buf []byte, ov Overrides) (*BootSector, error) {
	if len(buf) < minBootSectorSize {
		return nil, ErrShortBootSector
	}

	if string(buf[oemIDOffset:oemIDOffset+8]) != ntfsOEMID {
		return nil, ErrNotAnNtfsVolume
	}

	bs := &BootSector{
		BytesPerSector:    binary.LittleEndian.Uint16(buf[bytesPerSectorOffset:]),
		SectorsPerCluster: buf[sectorsPerClusterOff],
		MFTCluster:        binary.LittleEndian.Uint64(buf[mftClusterOffset:]),
		MFTMirrorCluster:  binary.LittleEndian.Uint64(buf[mftMirrorClusterOff:]),
		ClustersPerRecord: int8(buf[clustersPerRecordOff]),
	}

	if ov.SectorSize != 0 {
		bs.BytesPerSector = ov.SectorSize
	}
	if ov.ClusterSize != 0 {
		bs.SectorsPerCluster = ov.ClusterSize
	}

	bs.BytesPerCluster = int64(bs.BytesPerSector) * int64(bs.SectorsPerCluster)

	if bs.ClustersPerRecord < 0 {
		// Negative means "record size is 2^(-n) bytes" (power-of-two encoding).
		bs.MFTRecordSize = 1 << uint(-bs.ClustersPerRecord)
	} else {
		bs.MFTRecordSize = int64(bs.ClustersPerRecord) * bs.BytesPerCluster
	}

	if bs.MFTRecordSize != standardRecordSize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrUnsupportedRecordSize, bs.MFTRecordSize)
	}

	bs.MFTOffset = int64(bs.MFTCluster) * bs.BytesPerCluster

	return bs, nil
}
