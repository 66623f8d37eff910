package fingerprint

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"photofingerprint/logging"
)

// Tracker aggregates per-file results from all workers. A single
// goroutine owns the counters and the match list; workers only send on
// the results channel.
type Tracker struct {
	results chan Result
	done    chan struct{}
	started time.Time

	processed int
	errors    int
	matched   int
	pairs     [][2]string
}

func newTracker() *Tracker {
	t := &Tracker{
		results: make(chan Result, 64),
		done:    make(chan struct{}),
		started: time.Now(),
	}
	go t.consume()
	return t
}

func (t *Tracker) consume() {
	defer close(t.done)
	for result := range t.results {
		t.processed++
		if result.Err != nil {
			t.errors++
			continue
		}
		t.matched += len(result.Matches)
		for _, m := range result.Matches {
			t.pairs = append(t.pairs, [2]string{m.CandidatePath, m.Name})
		}
	}
}

// Record hands one per-file outcome to the tracker.
func (t *Tracker) Record(r Result) {
	t.results <- r
}

// Close stops intake and waits until every queued result is counted.
// Record must not be called afterwards.
func (t *Tracker) Close() {
	close(t.results)
	<-t.done
}

// PrintSummary reports end-of-run statistics. Call after Close.
func (t *Tracker) PrintSummary(w io.Writer, opts WorkerOptions) {
	elapsed := time.Since(t.started).Round(time.Second)
	fmt.Fprintf(w, "Processed %d files in %v\n", t.processed, elapsed)
	if opts.Mode == ModeFindDuplicates {
		fmt.Fprintf(w, "Found %d candidate duplicates\n", t.matched)
	}
	if t.errors > 0 {
		fmt.Fprintf(w, "Skipped %d unreadable files\n", t.errors)
	}
	if opts.DebugMode {
		logging.DebugLog("%s finished: processed=%d errors=%d matches=%d elapsed=%v",
			opts.Mode, t.processed, t.errors, t.matched, elapsed)
	}
}

// WritePairs writes the collected matches as a JSON array of
// [candidatePath, fingerprintName] pairs, the shape the duplicate review
// tool consumes. Call after Close.
func (t *Tracker) WritePairs(path string) error {
	pairs := t.pairs
	if pairs == nil {
		pairs = [][2]string{}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot write match list: %v", err)
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(pairs)
}
