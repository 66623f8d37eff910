package fingerprint

import (
	"fmt"
	"io"

	"photofingerprint/imageproc"
	"photofingerprint/logging"
	"photofingerprint/walker"

	"gocv.io/x/gocv"
)

// Entry is one loaded fingerprint: the fingerprint image, the on-disk
// stem and the source path recovered from the comment attribute.
type Entry struct {
	Image      gocv.Mat
	Stem       string
	SourcePath string
}

// DisplayName prefers the stamped source path over the stem, so matches
// point back at the original photo rather than the fingerprint copy.
func (e Entry) DisplayName() string {
	if e.SourcePath != "" {
		return e.SourcePath
	}
	return e.Stem
}

// Store holds every fingerprint in memory for the duration of a
// find-duplicates run. Load completes before any worker starts, after
// which the collection is read-only and needs no locking. Fingerprints
// are small by construction, so the whole directory stays resident.
type Store struct {
	entries []Entry
	out     io.Writer
}

// NewStore creates an empty store reporting load progress to out.
func NewStore(out io.Writer) *Store {
	return &Store{out: out}
}

// Len returns the number of loaded fingerprints.
func (s *Store) Len() int {
	return len(s.entries)
}

// Load traverses the fingerprint directory and reads every supported
// image fully into memory before returning, reporting a running count.
// Consumption is single-threaded; the traversal itself still runs on the
// walker's own goroutine.
func (s *Store) Load(directory string) {
	dw := walker.NewDirectoryWalker(directory)
	dw.Traverse(true)
	defer dw.Finish()

	registry := imageproc.NewLoaderRegistry()
	meta := imageproc.NewMetadata()
	defer meta.Close()

	fmt.Fprintln(s.out, "Loading fingerprints into memory...")
	for {
		path, ok := dw.GetNext()
		if !ok {
			break
		}
		if !IsSupportedImage(path) {
			continue
		}

		img, err := registry.LoadImage(path)
		if err != nil {
			img.Close()
			logging.LogWarning("cannot load fingerprint %s: %v", path, err)
			continue
		}

		sourcePath, err := meta.ReadComment(path)
		if err != nil {
			logging.DebugLog("cannot read comment attribute on %s: %v", path, err)
		}

		s.entries = append(s.entries, Entry{
			Image:      img,
			Stem:       Stem(path),
			SourcePath: sourcePath,
		})
		fmt.Fprintf(s.out, "\r%d", len(s.entries))
	}
	fmt.Fprintf(s.out, "\rDONE\n")
}

// Close releases the loaded fingerprint images.
func (s *Store) Close() {
	for i := range s.entries {
		s.entries[i].Image.Close()
	}
	s.entries = nil
}

// FindMatchesForImage scores a normalized candidate against every loaded
// fingerprint. Each fingerprint is classified independently, so one
// candidate may match several fingerprints.
func (s *Store) FindMatchesForImage(img gocv.Mat, path string, fuzzFactor int) []Match {
	var matches []Match
	for _, entry := range s.entries {
		score := imageproc.Distortion(img, entry.Image, fuzzFactor)
		class := Classify(score)
		if class == MatchNone {
			continue
		}
		matches = append(matches, Match{
			CandidatePath: path,
			Name:          entry.DisplayName(),
			Class:         class,
		})
	}
	return matches
}
