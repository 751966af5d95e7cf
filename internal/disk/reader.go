package disk

import (
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	SectorSize = 512

	// ClonedImagePrefix is the size of the pre-partition wrapper some
	// disk-cloning tools prepend ahead of the real NTFS partition.
	ClonedImagePrefix = 0x102000

	ntfsOEMOffset        = 0x03
	ntfsOEMOffsetCloned  = ClonedImagePrefix + ntfsOEMOffset
	ntfsOEMID            = "NTFS    "
)

type Reader struct {
	file       *os.File
	size       int64
	sectorSize int
}

func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open device: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat device: %w", err)
	}

	size := stat.Size()

	// For block devices, size might be 0, need to seek to end
	if size == 0 {
		size, err = file.Seek(0, io.SeekEnd)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to determine device size: %w", err)
		}
		file.Seek(0, io.SeekStart)
	}

	return &Reader{
		file:       file,
		size:       size,
		sectorSize: SectorSize,
	}, nil
}

func (r *Reader) Close() error {
	return r.file.Close()
}

func (r *Reader) Size() int64 {
	return r.size
}

func (r *Reader) SectorSize() int {
	return r.sectorSize
}

func (r *Reader) ReadAt(buf []byte, offset int64) (int, error) {
	return r.file.ReadAt(buf, offset)
}

func (r *Reader) ReadSector(sector int64) ([]byte, error) {
	buf := make([]byte, r.sectorSize)
	_, err := r.ReadAt(buf, sector*int64(r.sectorSize))
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func (r *Reader) ReadSectors(startSector int64, count int) ([]byte, error) {
	buf := make([]byte, count*r.sectorSize)
	_, err := r.ReadAt(buf, startSector*int64(r.sectorSize))
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func (r *Reader) ReadCluster(clusterStart int64, clusterSize int) ([]byte, error) {
	buf := make([]byte, clusterSize)
	_, err := r.ReadAt(buf, clusterStart)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Seek wraps file.Seek
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	return r.file.Seek(offset, whence)
}

// Read wraps file.Read
func (r *Reader) Read(buf []byte) (int, error) {
	return r.file.Read(buf)
}

// SignatureKind describes where, if anywhere, the NTFS OEM ID was found.
type SignatureKind int

const (
	SignatureNone SignatureKind = iota
	SignatureDirect
	SignatureCloned
)

// DetectNTFSSignature checks both the direct-partition offset (0x03) and
// the cloned-image offset (0x102003) for the "NTFS    " OEM ID.
func DetectNTFSSignature(r *Reader) (SignatureKind, error) {
	buf := make([]byte, 8)
	if _, err := r.ReadAt(buf, ntfsOEMOffset); err == nil {
		if string(buf) == ntfsOEMID {
			return SignatureDirect, nil
		}
	}

	if r.Size() > ntfsOEMOffsetCloned+8 {
		if _, err := r.ReadAt(buf, ntfsOEMOffsetCloned); err == nil {
			if string(buf) == ntfsOEMID {
				return SignatureCloned, nil
			}
		}
	}

	return SignatureNone, nil
}

// StripClonedImage copies everything from ClonedImagePrefix onward into a
// new file alongside the original, named by replacing a trailing ".img" in
// srcPath with "_modified.img" (or appending the suffix if there is none).
// It returns the path of the newly written file.
func StripClonedImage(srcPath string) (string, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("failed to open source image: %w", err)
	}
	defer src.Close()

	if _, err := src.Seek(ClonedImagePrefix, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to seek past cloned-image prefix: %w", err)
	}

	destPath := clonedImageDestPath(srcPath)
	dest, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create stripped image: %w", err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, src); err != nil {
		return "", fmt.Errorf("failed to write stripped image: %w", err)
	}

	return destPath, nil
}

func clonedImageDestPath(srcPath string) string {
	if strings.HasSuffix(srcPath, ".img") {
		return strings.TrimSuffix(srcPath, ".img") + "_modified.img"
	}
	return srcPath + "_modified.img"
}
