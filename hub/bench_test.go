package hub_test

import (
	"context"
	"testing"

	"github.com/mongsil1012/opendir/hub"
)

// BenchmarkHubBatch measures the allocation cost of Hub.Batch context setup.
func BenchmarkHubBatch(b *testing.B) {
	h := hub.New(5)
	ctx := context.Background()

	// Drain the worker channel and call Done() so batch sends unblock
	go func() {
		for p := range h.WorkerCh() {
			p.Done()
		}
	}()

	b.ResetTimer()
	b.ReportAllocs()
	for b.Loop() {
		h.Batch(ctx, func(bctx context.Context) {
			h.SendWorkerEvent(bctx, hub.WorkerEvent{JobID: "bench"})
		})
	}
}
