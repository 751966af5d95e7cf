// Package recovery ties together the MFT record stream, path
// reconstruction, and glob matching into the end-to-end recovery driver:
// listing matched records or writing their primary and alternate data
// streams to an output directory.
package recovery

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ntfsgo/mftrecover/internal/glob"
	"github.com/ntfsgo/mftrecover/internal/mft"
	"github.com/ntfsgo/mftrecover/internal/pathwalk"
)

// Options configures a Driver run.
type Options struct {
	Patterns []string // empty means "list only"
	OutDir   string
	// Log receives one-line progress and warning messages; if nil,
	// messages are discarded.
	Log io.Writer
}

// FileEntry is one candidate record surfaced for listing or recovery.
type FileEntry struct {
	Path       string
	Index      int
	ADSNames   []string
	Orphaned   bool
}

// Driver runs the recovery pass over a parsed MFT stream.
type Driver struct {
	stream *mft.Stream
	reader io.ReaderAt
	opts   Options
}

func NewDriver(stream *mft.Stream, reader io.ReaderAt, opts Options) *Driver {
	return &Driver{stream: stream, reader: reader, opts: opts}
}

// Run walks every record in the stream, matching or listing per Options.
// It returns the entries it processed (for tests and the TUI's results
// view); per-file errors are logged, not returned, matching the driver's
// "continue past failures" error model.
func (d *Driver) Run() ([]FileEntry, error) {
	var entries []FileEntry

	for i := 0; i < d.stream.Len(); i++ {
		rec := d.stream.At(i)
		if rec == nil {
			continue
		}
		fnValue := rec.Get(mft.AttrFileName, "")
		if fnValue == nil {
			continue
		}
		raw, err := fnValue.Materialize(d.reader)
		if err != nil {
			d.logf("record %d: failed to read FILE_NAME: %v", i, err)
			continue
		}
		parsed, err := mft.ParseFileName(raw)
		if err != nil {
			d.logf("record %d: failed to decode FILE_NAME: %v", i, err)
			continue
		}
		if parsed.Name == "." || parsed.Name == "" {
			continue
		}

		fullPath, walkErr := pathwalk.Resolve(d.stream, i)
		orphaned := walkErr != nil
		if walkErr != nil {
			d.logf("record %d: %v, placing under %s", i, walkErr, pathwalk.OrphanDir)
		}

		dataAttrs := rec.All(mft.AttrData)
		var adsNames []string
		for _, a := range dataAttrs {
			if a.Name != "" {
				adsNames = append(adsNames, a.Name)
			}
		}

		entry := FileEntry{Path: fullPath, Index: i, ADSNames: adsNames, Orphaned: orphaned}

		if len(d.opts.Patterns) == 0 {
			d.list(entry)
			entries = append(entries, entry)
			continue
		}

		if !d.matches(parsed.Name, fullPath) {
			continue
		}

		if err := d.recover(rec, entry); err != nil {
			d.logf("record %d: recovery failed: %v", i, err)
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (d *Driver) matches(basename, fullPath string) bool {
	for _, p := range d.opts.Patterns {
		if glob.Match(p, basename) || glob.Match(p, fullPath) {
			return true
		}
	}
	return false
}

func (d *Driver) list(entry FileEntry) {
	if len(entry.ADSNames) == 0 {
		d.logf("%s", entry.Path)
		return
	}
	d.logf("%s %s", entry.Path, strings.Join(adsMarkers(entry.ADSNames), " "))
}

func adsMarkers(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = "ADS:" + n
	}
	return out
}

func (d *Driver) recover(rec *mft.Record, entry FileEntry) error {
	destPath, err := uniquePath(filepath.Join(d.opts.OutDir, filepath.FromSlash(entry.Path)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutputCollision, err)
	}

	primary := rec.Get(mft.AttrData, "")
	if primary != nil {
		if err := d.writeStream(primary, destPath); err != nil {
			return err
		}
	}

	for _, a := range rec.All(mft.AttrData) {
		if a.Name == "" {
			continue
		}
		adsPath, err := uniquePath(destPath + "~" + a.Name)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrOutputCollision, err)
		}
		if err := d.writeStream(a.Value, adsPath); err != nil {
			return err
		}
	}

	return nil
}

func (d *Driver) writeStream(v *mft.Value, destPath string) error {
	data, err := v.Materialize(d.reader)
	if err != nil {
		return fmt.Errorf("failed to materialize stream: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	return nil
}

func (d *Driver) logf(format string, args ...any) {
	if d.opts.Log == nil {
		return
	}
	fmt.Fprintf(d.opts.Log, format+"\n", args...)
}
