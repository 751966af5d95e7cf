package mft

const recordSize = 1024

// Stream is the MFT sliced into fixed-size record windows: a dense,
// index-stable sequence where a window that isn't a valid FILE record maps
// to a nil *Record ("absent") rather than shrinking the sequence.
type Stream struct {
	Records []*Record
	// Warnings collects non-fatal per-record issues (USA mismatches,
	// attribute overflows) keyed by record index, for progress reporting.
	Warnings map[int]error
}

// BuildStream slices image into recordSize windows and parses each one
// whose first four bytes are "FILE".
func BuildStream(image []byte, bytesPerCluster int64) *Stream {
	s := &Stream{Warnings: make(map[int]error)}

	count := len(image) / recordSize
	s.Records = make([]*Record, count)

	for i := 0; i < count; i++ {
		window := image[i*recordSize : (i+1)*recordSize]
		if string(window[:4]) != recordMagic {
			continue
		}

		buf := append([]byte(nil), window...)
		rec, err := ParseRecord(buf, i, bytesPerCluster)
		if err != nil {
			s.Warnings[i] = err
			continue
		}
		if rec.FixupWarning != nil {
			s.Warnings[i] = rec.FixupWarning
		}
		s.Records[i] = rec
	}

	return s
}

// At returns the record at index i, or nil if absent or out of range.
func (s *Stream) At(i int) *Record {
	if i < 0 || i >= len(s.Records) {
		return nil
	}
	return s.Records[i]
}

// Len returns the number of record slots (including absent ones).
func (s *Stream) Len() int {
	return len(s.Records)
}
