package fingerprint

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"photofingerprint/imageproc"

	"gocv.io/x/gocv"
)

// writeSolidJPEG writes a single-color JPEG so tests have real decodable
// input without shipping binary fixtures.
func writeSolidJPEG(t *testing.T, path string, width, height int, val float64) {
	t.Helper()
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(val, val, val, 0), height, width, gocv.MatTypeCV8UC3)
	defer img.Close()
	if ok := gocv.IMWrite(path, img); !ok {
		t.Fatalf("cannot write test image %s", path)
	}
}

func dstListing(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("cannot read destination: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names
}

// The pool must run to completion over trees holding nothing it can
// process: non-image files are filtered before any handler runs, so no
// image backend work happens at all.
func TestRunWorkersFiltersNonImages(t *testing.T) {
	src := t.TempDir()
	for _, name := range []string{"notes.txt", "data.csv", "archive.zip"} {
		if err := os.WriteFile(filepath.Join(src, name), []byte("x"), 0644); err != nil {
			t.Fatalf("cannot write test file: %v", err)
		}
	}

	options := WorkerOptions{
		Mode:         ModeExtractMetadata,
		SrcDirectory: src,
		NumThreads:   4,
		FuzzFactor:   DefaultFuzzFactor,
	}
	if err := RunWorkers(nil, options); err != nil {
		t.Errorf("RunWorkers returned error: %v", err)
	}
}

func TestRunWorkersEmptyDirectory(t *testing.T) {
	options := WorkerOptions{
		Mode:         ModeGenerate,
		SrcDirectory: t.TempDir(),
		DstDirectory: t.TempDir(),
		NumThreads:   2,
		FuzzFactor:   DefaultFuzzFactor,
	}
	if err := RunWorkers(nil, options); err != nil {
		t.Errorf("RunWorkers returned error: %v", err)
	}

	entries, err := os.ReadDir(options.DstDirectory)
	if err != nil {
		t.Fatalf("cannot read destination: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("destination not empty after run over empty source: %v", entries)
	}
}

// A corrupt file is skipped without terminating the batch or touching
// the results of the readable files around it.
func TestRunWorkersGenerateSkipsCorruptFiles(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeSolidJPEG(t, filepath.Join(src, "good.jpg"), 200, 100, 128)
	if err := os.WriteFile(filepath.Join(src, "corrupt.jpg"), []byte("not a jpeg"), 0644); err != nil {
		t.Fatalf("cannot write test file: %v", err)
	}

	options := WorkerOptions{
		Mode:         ModeGenerate,
		SrcDirectory: src,
		DstDirectory: dst,
		NumThreads:   4,
		FuzzFactor:   DefaultFuzzFactor,
	}
	if err := RunWorkers(nil, options); err != nil {
		t.Fatalf("RunWorkers returned error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dst, "good.tif")); err != nil {
		t.Errorf("fingerprint for readable file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "corrupt.tif")); !os.IsNotExist(err) {
		t.Error("corrupt input produced a fingerprint")
	}
}

// The set of generated fingerprints depends only on the input tree,
// never on how many workers consumed it.
func TestRunWorkersGenerateThreadCountInvariant(t *testing.T) {
	src := t.TempDir()
	for i := 0; i < 6; i++ {
		writeSolidJPEG(t, filepath.Join(src, fmt.Sprintf("photo%d.jpg", i)), 120+10*i, 90, float64(40*i))
	}
	if err := os.WriteFile(filepath.Join(src, "broken.jpg"), []byte("x"), 0644); err != nil {
		t.Fatalf("cannot write test file: %v", err)
	}

	var listings [][]string
	for _, threads := range []int{1, 8} {
		dst := t.TempDir()
		options := WorkerOptions{
			Mode:         ModeGenerate,
			SrcDirectory: src,
			DstDirectory: dst,
			NumThreads:   threads,
			FuzzFactor:   DefaultFuzzFactor,
		}
		if err := RunWorkers(nil, options); err != nil {
			t.Fatalf("RunWorkers with %d threads returned error: %v", threads, err)
		}
		listings = append(listings, dstListing(t, dst))
	}

	if len(listings[0]) != len(listings[1]) {
		t.Fatalf("thread counts produced different file sets: %v vs %v", listings[0], listings[1])
	}
	for i := range listings[0] {
		if listings[0][i] != listings[1][i] {
			t.Fatalf("thread counts produced different file sets: %v vs %v", listings[0], listings[1])
		}
	}
}

// Running generate twice over the same tree converges on the same
// destination contents.
func TestRunWorkersGenerateIdempotent(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeSolidJPEG(t, filepath.Join(src, "one.jpg"), 160, 120, 64)
	writeSolidJPEG(t, filepath.Join(src, "two.jpg"), 120, 160, 200)

	options := WorkerOptions{
		Mode:         ModeGenerate,
		SrcDirectory: src,
		DstDirectory: dst,
		NumThreads:   2,
		FuzzFactor:   DefaultFuzzFactor,
	}
	if err := RunWorkers(nil, options); err != nil {
		t.Fatalf("first run returned error: %v", err)
	}
	first := dstListing(t, dst)

	if err := RunWorkers(nil, options); err != nil {
		t.Fatalf("second run returned error: %v", err)
	}
	second := dstListing(t, dst)

	want := []string{"one.tif", "two.tif"}
	for _, got := range [][]string{first, second} {
		if len(got) != len(want) {
			t.Fatalf("destination listing = %v; want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("destination listing = %v; want %v", got, want)
			}
		}
	}
}

// A photo compared against its own generated fingerprint must come back
// identical, reported under the stamped source path.
func TestFindDuplicatesMatchesOwnFingerprint(t *testing.T) {
	src := t.TempDir()
	fpDir := t.TempDir()
	photo := filepath.Join(src, "scene.jpg")
	writeSolidJPEG(t, photo, 200, 100, 90)

	gen := WorkerOptions{
		Mode:         ModeGenerate,
		SrcDirectory: src,
		DstDirectory: fpDir,
		NumThreads:   1,
		FuzzFactor:   DefaultFuzzFactor,
	}
	if err := RunWorkers(nil, gen); err != nil {
		t.Fatalf("generate run returned error: %v", err)
	}

	store := NewStore(io.Discard)
	store.Load(fpDir)
	defer store.Close()
	if store.Len() != 1 {
		t.Fatalf("loaded %d fingerprints; want 1", store.Len())
	}

	registry := imageproc.NewLoaderRegistry()
	res := findDuplicates(registry, store, photo, DefaultFuzzFactor)
	if res.Err != nil {
		t.Fatalf("findDuplicates returned error: %v", res.Err)
	}
	if len(res.Matches) != 1 || res.Matches[0].Class != MatchIdentical {
		t.Fatalf("matches = %+v; want one identical match", res.Matches)
	}
	if res.Matches[0].Name != photo {
		t.Errorf("match reported under %q; want the stamped source path %q", res.Matches[0].Name, photo)
	}
}

func TestExtractMetadataWithoutCaptureTime(t *testing.T) {
	src := t.TempDir()
	photo := filepath.Join(src, "plain.jpg")
	writeSolidJPEG(t, photo, 80, 60, 50)

	meta := imageproc.NewMetadata()
	defer meta.Close()

	res := extractMetadata(meta, photo)
	if res.Err != nil {
		t.Errorf("extractMetadata returned error: %v", res.Err)
	}
}

type failingCommentWriter struct{}

func (failingCommentWriter) WriteComment(path, comment string) error {
	return errors.New("attribute write refused")
}

func (failingCommentWriter) ReadCaptureTime(path string) (string, error) {
	return "", nil
}

// A file reported as skipped must leave no partial fingerprint behind,
// even when the failure happens after the image was written.
func TestGenerateLeavesNoPartialFingerprintOnStampFailure(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	photo := filepath.Join(src, "scene.jpg")
	writeSolidJPEG(t, photo, 160, 120, 70)

	registry := imageproc.NewLoaderRegistry()
	res := generateFingerprint(registry, failingCommentWriter{}, photo, dst)
	if res.Err == nil {
		t.Fatal("expected error from failed comment stamp")
	}
	if _, err := os.Stat(filepath.Join(dst, "scene.tif")); !os.IsNotExist(err) {
		t.Error("partial fingerprint left behind after stamp failure")
	}
}
