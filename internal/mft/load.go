package mft

import (
	"errors"
	"fmt"
	"io"

	"github.com/ntfsgo/mftrecover/internal/bootsect"
)

var ErrMftTruncated = errors.New("mft: materialized MFT shorter than provisional window")

// Load bootstraps the MFT: it reads the provisional window (one MFT
// record's worth of bytes, at bs.MFTOffset) described by the boot sector,
// parses that window as the MFT's own first record, and follows that
// record's unnamed $DATA run-list to materialize the full MFT image. If the
// materialized image is shorter than the provisional window, it returns a
// non-nil warning and falls back to the provisional window (partial
// recovery limited to record 0).
//
// windowSize is ordinarily bs.MFTRecordSize; callers may pass a larger value
// to exercise a bigger fallback window, but it must cover at least one record.
func Load(r io.ReaderAt, bs *bootsect.BootSector, windowSize int64) ([]byte, error, error) {
	provisional := make([]byte, windowSize)
	n, err := r.ReadAt(provisional, bs.MFTOffset)
	if err != nil && err != io.EOF {
		return nil, nil, fmt.Errorf("mft: failed to read provisional MFT window: %w", err)
	}
	provisional = provisional[:n]

	if len(provisional) < int(bs.MFTRecordSize) {
		return nil, nil, fmt.Errorf("mft: provisional window too short for even one record")
	}

	selfRecordBuf := append([]byte(nil), provisional[:bs.MFTRecordSize]...)
	selfRecord, err := ParseRecord(selfRecordBuf, 0, bs.BytesPerCluster)
	if err != nil {
		return nil, nil, fmt.Errorf("mft: failed to parse self-describing record: %w", err)
	}

	dataAttr := selfRecord.Get(AttrData, "")
	if dataAttr == nil {
		return nil, nil, fmt.Errorf("mft: self-describing record has no $DATA attribute")
	}

	materialized, err := dataAttr.Materialize(r)
	if err != nil {
		return nil, nil, fmt.Errorf("mft: failed to materialize MFT $DATA: %w", err)
	}

	if len(materialized) < len(provisional) {
		warn := fmt.Errorf("%w: materialized %d bytes, provisional window is %d bytes", ErrMftTruncated, len(materialized), len(provisional))
		return provisional, warn, nil
	}

	return materialized, nil, nil
}
