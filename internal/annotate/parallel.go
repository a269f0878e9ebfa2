package annotate

import (
	"runtime"
	"sync"

	"github.com/inodb/vibe-circ/internal/breakpoint"
)

// WorkItem holds a parsed record ready for annotation.
type WorkItem struct {
	Seq    int
	Record *breakpoint.Breakpoint
}

// WorkResult holds the output columns for a single record.
type WorkResult struct {
	Seq     int
	Record  *breakpoint.Breakpoint
	Columns []string
	Err     error
}

func (a *Annotator) workerCount() int {
	if a.workers <= 0 {
		return runtime.NumCPU()
	}
	return a.workers
}

// ParallelAnnotate annotates work items using a pool of workers.
// Results are sent to the returned channel in arrival order (not sequence order).
// Use OrderedCollect to consume results in sequence-number order.
// If workers is 0, runtime.NumCPU() is used.
func (a *Annotator) ParallelAnnotate(items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for item := range items {
				cols, err := a.Annotate(item.Record)
				results <- WorkResult{
					Seq:     item.Seq,
					Record:  item.Record,
					Columns: cols,
					Err:     err,
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results in a pending map and emits them
// as soon as the next expected sequence number is available.
// Blocks until the results channel is closed.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
