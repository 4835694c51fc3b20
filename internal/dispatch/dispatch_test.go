package dispatch_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yoleg/proxytest/internal/dispatch"
	"github.com/yoleg/proxytest/internal/request"
)

func makeRecords(t *testing.T, n int) []*request.Record {
	t.Helper()
	records := make([]*request.Record, n)
	for i := range records {
		rec, err := request.New(request.Config{
			Name: fmt.Sprintf("request%d", i),
			URL:  "http://example.com/",
		})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		records[i] = rec
	}
	return records
}

func TestForEachProcessesAllExactlyOnce(t *testing.T) {
	const n = 12
	for _, workers := range []int{1, 0, 2, n, n + 5} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			records := makeRecords(t, n)
			var calls int64
			dispatch.ForEach(context.Background(), records, workers, func(_ context.Context, rec *request.Record) {
				atomic.AddInt64(&calls, 1)
				rec.Start()
				rec.Succeed("", 200)
			})
			if calls != n {
				t.Fatalf("calls = %d, want %d", calls, n)
			}
			for i, rec := range records {
				if !rec.Finished() {
					t.Fatalf("record %d not finished", i)
				}
			}
		})
	}
}

func TestForEachSequentialWhenOneWorker(t *testing.T) {
	records := makeRecords(t, 5)
	var order []string
	dispatch.ForEach(context.Background(), records, 1, func(_ context.Context, rec *request.Record) {
		order = append(order, rec.Config.Name)
		rec.Start()
		rec.Succeed("", 200)
	})
	for i, name := range order {
		if want := fmt.Sprintf("request%d", i); name != want {
			t.Fatalf("order = %v, want submission order", order)
		}
	}
}

func TestForEachBoundsConcurrency(t *testing.T) {
	const n = 16
	const workers = 3
	records := makeRecords(t, n)
	var active, peak int64
	dispatch.ForEach(context.Background(), records, workers, func(_ context.Context, rec *request.Record) {
		current := atomic.AddInt64(&active, 1)
		for {
			old := atomic.LoadInt64(&peak)
			if current <= old || atomic.CompareAndSwapInt64(&peak, old, current) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt64(&active, -1)
		rec.Start()
		rec.Succeed("", 200)
	})
	if peak > workers {
		t.Fatalf("peak concurrency = %d, want <= %d", peak, workers)
	}
}

func TestForEachUnboundedRunsAllConcurrently(t *testing.T) {
	const n = 8
	records := makeRecords(t, n)
	var wg sync.WaitGroup
	wg.Add(n)
	barrier := make(chan struct{})
	done := make(chan struct{})
	go func() {
		// Every record must get its own goroutine; they all block on the
		// barrier, so this only completes if none share a worker.
		dispatch.ForEach(context.Background(), records, 0, func(_ context.Context, rec *request.Record) {
			wg.Done()
			<-barrier
			rec.Start()
			rec.Succeed("", 200)
		})
		close(done)
	}()
	waited := make(chan struct{})
	go func() {
		wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(5 * time.Second):
		t.Fatal("unbounded dispatch did not run all records concurrently")
	}
	close(barrier)
	<-done
}

func TestForEachContainsPanics(t *testing.T) {
	records := makeRecords(t, 3)
	dispatch.ForEach(context.Background(), records, 1, func(_ context.Context, rec *request.Record) {
		rec.Start()
		if rec.Config.Name == "request1" {
			panic("kaboom")
		}
		rec.Succeed("", 200)
	})

	for i, rec := range records {
		if !rec.Finished() {
			t.Fatalf("record %d not finished after sibling panic", i)
		}
	}
	if records[0].Succeeded() == false || records[2].Succeeded() == false {
		t.Fatal("sibling records should retain their success")
	}
	if records[1].Succeeded() {
		t.Fatal("panicking record should be failed")
	}
	if got := records[1].Status().Error; got == "" {
		t.Fatal("panicking record should carry an error message")
	}
}

func TestForEachPanicBeforeStart(t *testing.T) {
	records := makeRecords(t, 1)
	dispatch.ForEach(context.Background(), records, 1, func(_ context.Context, rec *request.Record) {
		panic("before start")
	})
	if !records[0].Finished() {
		t.Fatal("record should be finished with error")
	}
	if records[0].Succeeded() {
		t.Fatal("record should be failed")
	}
}

func TestForEachEmptyBatch(t *testing.T) {
	// Must return immediately without spawning anything.
	dispatch.ForEach(context.Background(), nil, 4, func(_ context.Context, rec *request.Record) {
		t.Fatal("callback should not run for an empty batch")
	})
}
