package walker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write test file %s: %v", path, err)
	}
}

func collect(dw *DirectoryWalker) []string {
	var paths []string
	for {
		path, ok := dw.GetNext()
		if !ok {
			return paths
		}
		paths = append(paths, path)
	}
}

func TestTraverseYieldsEveryFileExactlyOnce(t *testing.T) {
	root := t.TempDir()
	want := []string{
		filepath.Join(root, "a.jpg"),
		filepath.Join(root, "notes.txt"),
		filepath.Join(root, "sub", "b.png"),
		filepath.Join(root, "sub", "deep", "c.tif"),
	}
	for _, p := range want {
		writeFile(t, p)
	}

	dw := NewDirectoryWalker(root)
	dw.Traverse(true)
	got := collect(dw)
	dw.Finish()

	sort.Strings(got)
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("got %d paths, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("path %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestTraverseWithoutDescend(t *testing.T) {
	root := t.TempDir()
	topFile := filepath.Join(root, "top.jpg")
	writeFile(t, topFile)
	writeFile(t, filepath.Join(root, "sub", "nested.jpg"))

	dw := NewDirectoryWalker(root)
	dw.Traverse(false)
	got := collect(dw)
	dw.Finish()

	if len(got) != 1 || got[0] != topFile {
		t.Errorf("non-recursive traversal got %v, want just %s", got, topFile)
	}
}

func TestTraverseEmptyDirectory(t *testing.T) {
	dw := NewDirectoryWalker(t.TempDir())
	dw.Traverse(true)

	if path, ok := dw.GetNext(); ok {
		t.Errorf("empty directory yielded %s", path)
	}
	dw.Finish()
}

func TestConcurrentConsumersNoDuplicateDispatch(t *testing.T) {
	root := t.TempDir()
	const want = 200
	for i := 0; i < want; i++ {
		sub := string(rune('a' + i%8))
		writeFile(t, filepath.Join(root, sub, fmt.Sprintf("file%03d.jpg", i)))
	}

	dw := NewDirectoryWalker(root)
	dw.Traverse(true)

	var mu sync.Mutex
	seen := make(map[string]int)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				path, ok := dw.GetNext()
				if !ok {
					return
				}
				mu.Lock()
				seen[path]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	dw.Finish()

	if len(seen) != want {
		t.Errorf("consumers saw %d distinct paths, want %d", len(seen), want)
	}
	for path, count := range seen {
		if count != 1 {
			t.Errorf("path %s delivered %d times", path, count)
		}
	}
}
