package recovery

import (
	"fmt"
	"io"
	"os"

	"github.com/ntfsgo/mftrecover/internal/bootsect"
	"github.com/ntfsgo/mftrecover/internal/disk"
	"github.com/ntfsgo/mftrecover/internal/mft"
)

// BootstrapOptions controls how the MFT image is obtained before a Driver
// run: either read from the volume via the normal self-bootstrap, or
// supplied directly via --mft, and optionally dumped via --save-mft.
type BootstrapOptions struct {
	MFTPath     string // --mft: use this file's content as the MFT, skip bootstrap
	SaveMFTPath string // --save-mft: write the materialized MFT here
	Overrides   bootsect.Overrides
	Log         io.Writer
}

// Bootstrap decodes the volume's boot sector and returns the materialized
// MFT image plus the geometry needed to build a Stream. --mft only skips
// the self-describing bootstrap of the MFT's own $DATA run-list (file data
// elsewhere on the volume is still addressed via the boot sector's
// geometry), so the boot sector is always parsed.
func Bootstrap(r *disk.Reader, opts BootstrapOptions) ([]byte, *bootsect.BootSector, error) {
	bootBuf := make([]byte, disk.SectorSize)
	if _, err := r.ReadAt(bootBuf, 0); err != nil {
		return nil, nil, fmt.Errorf("recovery: failed to read boot sector: %w", err)
	}

	bs, err := bootsect.Parse(bootBuf, opts.Overrides)
	if err != nil {
		return nil, nil, err
	}

	var image []byte
	if opts.MFTPath != "" {
		image, err = os.ReadFile(opts.MFTPath)
		if err != nil {
			return nil, nil, fmt.Errorf("recovery: failed to read --mft file: %w", err)
		}
		logf(opts.Log, "using supplied MFT file %s (%d bytes), skipping bootstrap", opts.MFTPath, len(image))
	} else {
		windowSize := bs.MFTRecordSize
		var warn error
		image, warn, err = mft.Load(r, bs, windowSize)
		if err != nil {
			return nil, nil, fmt.Errorf("recovery: MFT bootstrap failed: %w", err)
		}
		if warn != nil {
			logf(opts.Log, "%v", warn)
		}
	}

	if opts.SaveMFTPath != "" {
		if err := os.WriteFile(opts.SaveMFTPath, image, 0o644); err != nil {
			logf(opts.Log, "failed to save MFT: %v", err)
		}
	}

	return image, bs, nil
}

func logf(w io.Writer, format string, args ...any) {
	if w == nil {
		return
	}
	fmt.Fprintf(w, format+"\n", args...)
}
