package unpack

// Stage identifies the current phase of an unpack or repack.
type Stage uint8

// Progress stages.
const (
	// StageReadingIndex indicates the header table or manifest is being read.
	StageReadingIndex Stage = iota

	// StageExtracting indicates entries are being written to files.
	StageExtracting

	// StageCompressing indicates files are being compressed into the archive.
	StageCompressing

	// StageFinishing indicates the header table or manifest is being written.
	StageFinishing
)

// String returns the string representation of the stage.
func (s Stage) String() string {
	switch s {
	case StageReadingIndex:
		return "reading index"
	case StageExtracting:
		return "extracting"
	case StageCompressing:
		return "compressing"
	case StageFinishing:
		return "finishing"
	default:
		return "unknown"
	}
}

// ProgressEvent is a progress update during Unpack or Repack.
type ProgressEvent struct {
	Stage Stage

	// Name is the entry just processed, if any.
	Name string

	EntriesDone  int
	EntriesTotal int

	// BytesDone is the number of uncompressed bytes handled so far.
	BytesDone int64
}

// Fraction returns the completed share of entries in [0, 1].
func (e ProgressEvent) Fraction() float64 {
	if e.EntriesTotal <= 0 {
		if e.Stage == StageFinishing {
			return 1
		}
		return 0
	}
	return float64(e.EntriesDone) / float64(e.EntriesTotal)
}

// ProgressFunc receives progress updates. Calls are serialized.
type ProgressFunc func(ProgressEvent)
