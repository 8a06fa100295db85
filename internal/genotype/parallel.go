package genotype

import (
	"sync"
)

// WorkItem holds an input file ready for genotyping.
type WorkItem struct {
	Seq    int
	Source Source
}

// WorkResult holds the genotyping output for a single file.
type WorkResult struct {
	Seq    int
	Source Source
	Rows   []Row
	Err    error
}

// ParallelGenotype genotypes work items using a pool of workers.
// Results are sent to the returned channel in arrival order (not sequence order).
// Use OrderedCollect to consume results in sequence-number order.
// If workers is 0, a single worker is used.
func (g *Genotyper) ParallelGenotype(items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = 1
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				rows, err := g.GenotypeFile(item.Source)
				results <- WorkResult{
					Seq:    item.Seq,
					Source: item.Source,
					Rows:   rows,
					Err:    err,
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
