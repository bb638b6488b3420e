package converter

import (
	"context"
	"fmt"
)

// Summary reports what a run did.
type Summary struct {
	Processed int
	Rejected  int
	// Interrupted is set when the context ended the loop early.
	Interrupted bool
}

// Converter drives the event loop: read an event, aggregate it, emit it.
type Converter struct {
	Geometry      *Geometry
	Emitter       Emitter
	MaxEvents     int
	Skip          int
	NumWorkers    int
	ProgressEvery int
	Verbosity     int
}

func NewConverter(geo *Geometry, emitter Emitter, config Configuration) *Converter {
	return &Converter{
		Geometry:      geo,
		Emitter:       emitter,
		MaxEvents:     config.MaxEvents,
		Skip:          config.Skip,
		NumWorkers:    config.NumWorkers,
		ProgressEvery: config.ProgressEvery,
		Verbosity:     config.Verbosity,
	}
}

// eventRange returns the indices [first, last) to process out of n events.
func (c *Converter) eventRange(n int) (int, int) {
	first := min(max(c.Skip, 0), n)
	last := n
	if c.MaxEvents > 0 && first+c.MaxEvents < last {
		last = first + c.MaxEvents
	}
	return first, last
}

func (c *Converter) progress(done, total int) {
	if c.Verbosity > 0 && c.ProgressEvery > 0 && done%c.ProgressEvery == 0 {
		logger.Info(fmt.Sprintf("Processing event %d of %d", done, total), "converter")
	}
}

// Run converts the events of src. Cancelling ctx stops the loop before the
// next event is read; everything emitted so far stays emitted.
func (c *Converter) Run(ctx context.Context, src EventSource) (Summary, error) {
	if c.Geometry == nil || c.Emitter == nil {
		return Summary{}, &ErrConfig{Field: "converter", Reason: "geometry and emitter are required"}
	}
	first, last := c.eventRange(src.NumEvents())
	if c.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Converting events %d to %d", first, last), "converter")
	}
	if c.NumWorkers > 1 {
		return c.runParallel(ctx, src, first, last)
	}

	var (
		summary Summary
		ev      InputEvent
	)
	agg := NewAggregate(c.Geometry)
	aggregator := NewAggregator(c.Geometry, c.Verbosity)

	for i := first; i < last; i++ {
		if err := ctx.Err(); err != nil {
			logger.Info(fmt.Sprintf("Stopping before event %d: %v", i, err), "converter")
			summary.Interrupted = true
			return summary, nil
		}
		c.progress(i-first, last-first)

		if err := src.Event(i, &ev); err != nil {
			return summary, fmt.Errorf("error reading event %d: %w", i, err)
		}
		aggregator.Process(&ev, agg)
		if err := c.Emitter.Emit(&ev, agg); err != nil {
			return summary, err
		}
		summary.Processed++
		summary.Rejected += agg.Rejected
	}
	return summary, nil
}
