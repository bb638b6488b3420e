package converter

import (
	"context"
	"fmt"
	"sync"
)

// WorkerResult carries one aggregated event back to the collector. Event and
// Aggregate are owned by the result, not by the worker that produced them.
type WorkerResult struct {
	Index     int
	Event     *InputEvent
	Aggregate *Aggregate
	Err       error
}

// worker owns its own event and aggregate buffers and reads events by index.
func worker(id int, geo *Geometry, verbosity int, src EventSource, jobs <-chan int, results chan<- WorkerResult) {
	var ev InputEvent
	agg := NewAggregate(geo)
	aggregator := NewAggregator(geo, verbosity)

	for i := range jobs {
		if verbosity > 1 {
			logger.Info(fmt.Sprintf("Worker %d processing event %d", id, i), "workers")
		}
		if err := src.Event(i, &ev); err != nil {
			results <- WorkerResult{Index: i, Err: fmt.Errorf("error reading event %d: %w", i, err)}
			continue
		}
		aggregator.Process(&ev, agg)

		results <- WorkerResult{Index: i, Event: ev.Clone(), Aggregate: agg.Clone()}
	}
}

// inFlightPerWorker bounds how many events each worker may run ahead of the
// collector.
const inFlightPerWorker = 4

// sendEventsToWorkers takes a slot before dispatching each index. The
// collector gives the slot back once the event has been emitted, so at most
// cap(slots) events are held between reading and emission.
func sendEventsToWorkers(ctx context.Context, first, last int, jobs chan<- int, slots chan<- struct{}) {
	defer close(jobs)
	for i := first; i < last; i++ {
		select {
		case <-ctx.Done():
			return
		case slots <- struct{}{}:
		}
		select {
		case <-ctx.Done():
			return
		case jobs <- i:
		}
	}
}

// runParallel aggregates events on NumWorkers goroutines and emits them in
// input order from the calling goroutine.
func (c *Converter) runParallel(ctx context.Context, src EventSource, first, last int) (Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int, c.NumWorkers)
	results := make(chan WorkerResult, c.NumWorkers)
	slots := make(chan struct{}, c.NumWorkers*inFlightPerWorker)

	var wg sync.WaitGroup
	for w := 1; w <= c.NumWorkers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			worker(id, c.Geometry, c.Verbosity, src, jobs, results)
		}(w)
	}
	go sendEventsToWorkers(ctx, first, last, jobs, slots)
	go func() {
		wg.Wait()
		close(results)
	}()

	var (
		summary Summary
		runErr  error
	)
	pending := make(map[int]WorkerResult)
	next := first
	for res := range results {
		if runErr != nil {
			continue
		}
		pending[res.Index] = res
		for {
			r, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			if r.Err != nil {
				runErr = r.Err
				cancel()
				break
			}
			c.progress(next-first, last-first)
			if err := c.Emitter.Emit(r.Event, r.Aggregate); err != nil {
				runErr = err
				cancel()
				break
			}
			summary.Processed++
			summary.Rejected += r.Aggregate.Rejected
			next++
			<-slots
		}
	}
	if runErr != nil {
		return summary, runErr
	}
	if next < last {
		logger.Info(fmt.Sprintf("Stopping before event %d: %v", next, ctx.Err()), "converter")
		summary.Interrupted = true
	}
	return summary, nil
}
