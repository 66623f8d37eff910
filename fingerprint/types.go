package fingerprint

import "fmt"

// Mode selects which pipeline the worker pool runs.
type Mode int

const (
	// ModeGenerate writes one fingerprint per supported source image.
	ModeGenerate Mode = iota
	// ModeFindDuplicates scores candidates against loaded fingerprints.
	ModeFindDuplicates
	// ModeExtractMetadata prints capture timestamps.
	ModeExtractMetadata
)

func (m Mode) String() string {
	switch m {
	case ModeGenerate:
		return "generate-fingerprints"
	case ModeFindDuplicates:
		return "find-duplicates"
	case ModeExtractMetadata:
		return "extract-metadata"
	}
	return "unknown"
}

// Distortion thresholds, calibrated to the 100x100 fingerprint box where
// scores range 0..10000: below Low a pair counts as identical copies of
// the same photo, below High as similar (resized or re-encoded
// variants), anything above is noise and stays silent.
const (
	LowDistortionThreshold  = 100
	HighDistortionThreshold = 1000
)

// DefaultFuzzFactor is the percentage of full channel scale absorbed
// before a pixel counts as different, covering minor compression
// artifacts between a candidate and its fingerprint.
const DefaultFuzzFactor = 5

// MatchClass classifies one candidate/fingerprint distortion score.
type MatchClass int

const (
	MatchNone MatchClass = iota
	MatchIdentical
	MatchSimilar
)

// Classify maps a distortion score onto a match class. The mapping is a
// pure function of the score and the two fixed thresholds: a score of 0
// is always identical, anything at or above the high threshold never
// produces output.
func Classify(score float64) MatchClass {
	switch {
	case score < LowDistortionThreshold:
		return MatchIdentical
	case score < HighDistortionThreshold:
		return MatchSimilar
	default:
		return MatchNone
	}
}

// Match records one candidate/fingerprint pairing worth reporting.
type Match struct {
	CandidatePath string
	Name          string
	Class         MatchClass
}

// Line renders the match in the tool's tab-separated output format.
func (m Match) Line() string {
	switch m.Class {
	case MatchIdentical:
		return fmt.Sprintf("%s\tis identical to\t%s", m.CandidatePath, m.Name)
	case MatchSimilar:
		return fmt.Sprintf("%s\tis similar to\t%s", m.CandidatePath, m.Name)
	}
	return ""
}

// WorkerOptions configures one pipeline run. Built once by main and
// shared read-only by every worker.
type WorkerOptions struct {
	Mode         Mode
	SrcDirectory string
	DstDirectory string
	NumThreads   int
	FuzzFactor   int
	DebugMode    bool
	JSONPath     string
}

// Result is the per-file outcome a worker hands to the tracker.
type Result struct {
	Path    string
	Err     error
	Matches []Match
}
