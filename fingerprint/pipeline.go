package fingerprint

import (
	"fmt"
	"os"
	"path/filepath"

	"photofingerprint/imageproc"
	"photofingerprint/logging"
	"photofingerprint/walker"

	"golang.org/x/sync/errgroup"
)

// Run executes one pipeline run end to end. For find-duplicates the
// fingerprint store is fully loaded before the first worker starts; the
// two phases are strictly ordered, never overlapped.
func Run(opts WorkerOptions) error {
	var store *Store
	if opts.Mode == ModeFindDuplicates {
		store = NewStore(os.Stdout)
		store.Load(opts.SrcDirectory)
		defer store.Close()
		fmt.Fprintf(os.Stderr, "Comparing against %d fingerprints\n", store.Len())
	}
	return RunWorkers(store, opts)
}

// RunWorkers starts the traversal producer and a pool of workers
// consuming from it, then blocks until every worker has exited and the
// traversal goroutine is reclaimed. The store is only consulted in
// find-duplicates mode.
func RunWorkers(store *Store, opts WorkerOptions) error {
	root := opts.SrcDirectory
	if opts.Mode == ModeFindDuplicates {
		// Fingerprints came from src; the tree being searched is dst.
		root = opts.DstDirectory
	}

	dw := walker.NewDirectoryWalker(root)
	dw.Traverse(true)

	tracker := newTracker()

	var group errgroup.Group
	for i := 0; i < opts.NumThreads; i++ {
		group.Go(func() error {
			return runWorker(dw, store, opts, tracker)
		})
	}
	err := group.Wait()
	dw.Finish()

	tracker.Close()
	tracker.PrintSummary(os.Stderr, opts)

	if opts.JSONPath != "" {
		if werr := tracker.WritePairs(opts.JSONPath); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}

// attributeTool is the metadata surface the mode handlers touch,
// satisfied by imageproc.Metadata.
type attributeTool interface {
	WriteComment(path, comment string) error
	ReadCaptureTime(path string) (string, error)
}

// runWorker is the consumption loop every mode shares: pull the next
// path, filter by extension, dispatch to the mode handler. Per-file
// failures are recovered inside the handlers; the loop only ends when
// the walker signals completion.
func runWorker(dw *walker.DirectoryWalker, store *Store, opts WorkerOptions, tracker *Tracker) error {
	registry := imageproc.NewLoaderRegistry()
	meta := imageproc.NewMetadata()
	defer meta.Close()

	for {
		path, ok := dw.GetNext()
		if !ok {
			return nil
		}
		if !IsSupportedImage(path) {
			continue
		}

		switch opts.Mode {
		case ModeGenerate:
			tracker.Record(generateFingerprint(registry, meta, path, opts.DstDirectory))
		case ModeFindDuplicates:
			tracker.Record(findDuplicates(registry, store, path, opts.FuzzFactor))
		case ModeExtractMetadata:
			tracker.Record(extractMetadata(meta, path))
		}
	}
}

// generateFingerprint normalizes one source image and writes it into the
// destination directory, stamped with the path it came from.
func generateFingerprint(registry *imageproc.LoaderRegistry, meta attributeTool, path, dstDirectory string) Result {
	// One progress line per attempted file.
	fmt.Println(path)

	img, err := registry.LoadImage(path)
	if err != nil {
		img.Close()
		return skipFile(path, err)
	}
	defer img.Close()

	normalized := imageproc.NormalizeFingerprint(img)
	defer normalized.Close()

	outputPath := filepath.Join(dstDirectory, FingerprintFilename(path))
	if err := imageproc.WriteFingerprint(normalized, outputPath); err != nil {
		return skipFile(path, err)
	}

	// The comment is the durable link back to the original; matches are
	// reported under this name later.
	if err := meta.WriteComment(outputPath, path); err != nil {
		// A skipped file leaves no half-written fingerprint behind.
		os.Remove(outputPath)
		return skipFile(path, err)
	}

	logging.LogImageProcessed(path, true, "")
	return Result{Path: path}
}

// skipFile reports a recoverable per-file failure and keeps the batch
// going.
func skipFile(path string, err error) Result {
	fmt.Fprintf(os.Stderr, "skipping %s %v\n", path, err)
	logging.LogImageProcessed(path, false, err.Error())
	return Result{Path: path, Err: err}
}

// findDuplicates normalizes one candidate exactly the way generate does
// and scores it against every fingerprint in the store.
func findDuplicates(registry *imageproc.LoaderRegistry, store *Store, path string, fuzzFactor int) Result {
	img, err := registry.LoadImage(path)
	if err != nil {
		img.Close()
		// Unreadable candidates are expected in large collections.
		logging.DebugLog("skipping unreadable candidate %s: %v", path, err)
		return Result{Path: path, Err: err}
	}
	defer img.Close()

	normalized := imageproc.NormalizeFingerprint(img)
	defer normalized.Close()

	matches := store.FindMatchesForImage(normalized, path, fuzzFactor)
	for _, m := range matches {
		fmt.Println(m.Line())
	}
	return Result{Path: path, Matches: matches}
}

// extractMetadata prints the capture timestamp of files that carry one.
// Files without the attribute are common, so their absence produces no
// diagnostic at all.
func extractMetadata(meta attributeTool, path string) Result {
	createdAt, err := meta.ReadCaptureTime(path)
	if err != nil {
		logging.DebugLog("cannot read capture time from %s: %v", path, err)
		return Result{Path: path, Err: err}
	}
	if createdAt == "" {
		return Result{Path: path}
	}

	timestamp, err := ConvertExifTimestamp(createdAt)
	if err != nil {
		logging.DebugLog("unparseable capture time %q on %s: %v", createdAt, path, err)
		return Result{Path: path, Err: err}
	}

	fmt.Printf("%s\t%s\n", path, timestamp)
	return Result{Path: path}
}
