// Package dispatch implements the worker-pool policy backends use to
// process a batch of records concurrently.
package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/yoleg/proxytest/internal/request"
)

// ForEach calls fn once for every record, honoring the worker-count policy:
//
//	workers == 1: records are processed sequentially on the calling
//	              goroutine, which makes debugging deterministic.
//	workers <= 0: unbounded, one goroutine per record.
//	workers >  1: a bounded pool of that many goroutines; records are
//	              submitted in slice order, completion order is unspecified.
//
// ForEach blocks until every record has been attempted exactly once. A panic
// inside fn is contained by that record's own error boundary: the record is
// marked finished-with-error and siblings continue unaffected.
func ForEach(ctx context.Context, records []*request.Record, workers int, fn func(context.Context, *request.Record)) {
	if len(records) == 0 {
		return
	}

	if workers == 1 {
		for _, rec := range records {
			process(ctx, rec, fn)
		}
		return
	}

	if workers <= 0 || workers > len(records) {
		workers = len(records)
	}

	queue := make(chan *request.Record)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for rec := range queue {
				process(ctx, rec, fn)
			}
		}()
	}
	for _, rec := range records {
		queue <- rec
	}
	close(queue)
	wg.Wait()
}

// process is the per-unit error boundary. A panicking fn must never abort
// sibling records, so the panic becomes this record's error outcome.
func process(ctx context.Context, rec *request.Record, fn func(context.Context, *request.Record)) {
	defer func() {
		if v := recover(); v != nil {
			if rec.State() == request.StateUnstarted {
				rec.Start()
			}
			if !rec.Finished() {
				rec.Fail(fmt.Errorf("panic while processing request: %v", v))
			}
		}
	}()
	fn(ctx, rec)
}
