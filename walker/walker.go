// Package walker provides asynchronous directory traversal: one producer
// goroutine enumerates a tree while any number of consumers pull the
// discovered files.
package walker

import (
	"io/fs"
	"path/filepath"
	"sync"

	"photofingerprint/logging"
)

// queueSize bounds how far enumeration may run ahead of the consumers.
const queueSize = 1024

// DirectoryWalker enumerates a directory tree in the background and
// hands discovered regular files to consumers one at a time. Discovered
// paths flow through a buffered channel that is closed when the walk
// returns, so consumers block in GetNext until a path arrives or
// traversal is complete.
type DirectoryWalker struct {
	directory string
	paths     chan string
	wg        sync.WaitGroup
}

// NewDirectoryWalker creates a walker rooted at the given directory.
func NewDirectoryWalker(directory string) *DirectoryWalker {
	return &DirectoryWalker{
		directory: directory,
		paths:     make(chan string, queueSize),
	}
}

// Traverse starts background enumeration and returns immediately. When
// descend is true the walk recurses into subdirectories, otherwise only
// the root's immediate files are considered. Filesystem errors during
// enumeration (permission denied, broken symlinks) are skipped; the
// walker only ever signals completion to its consumers.
func (w *DirectoryWalker) Traverse(descend bool) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer close(w.paths)
		w.walk(descend)
	}()
}

func (w *DirectoryWalker) walk(descend bool) {
	filepath.WalkDir(w.directory, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logging.DebugLog("skipping unreadable entry %s: %v", path, err)
			if d != nil && d.IsDir() && path != w.directory {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if !descend && path != w.directory {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		w.paths <- path
		return nil
	})
}

// GetNext blocks until the next discovered path is available. The second
// return value is false once traversal has completed and every queued
// path has been consumed; no paths are delivered after that. Each path
// is delivered to exactly one caller.
func (w *DirectoryWalker) GetNext() (string, bool) {
	path, ok := <-w.paths
	return path, ok
}

// Finish waits for the traversal goroutine to terminate. Call it once,
// after all consumers have observed completion.
func (w *DirectoryWalker) Finish() {
	w.wg.Wait()
}
