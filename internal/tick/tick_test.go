package tick

import (
	"context"
	"io"
	"log"
	"testing"
	"time"
)

func TestLoopInvokesCleanupAndStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	counters := &Counters{}
	logger := log.New(io.Discard, "", 0)

	var cleanups int
	done := make(chan struct{})

	go func() {
		Loop(ctx, 200, counters, func() { cleanups++ }, logger)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Loop did not exit after context cancellation")
	}

	if cleanups == 0 {
		t.Fatalf("expected onCleanup to fire at least once")
	}
}

func TestAvgMillisHandlesZeroCount(t *testing.T) {
	if got := avgMillis(0, 0); got != 0 {
		t.Fatalf("avgMillis(0,0) = %f, want 0", got)
	}
}

func TestCountersSnapshotReflectsRecordedSamples(t *testing.T) {
	c := &Counters{}
	c.RecordChunkBuild(10 * time.Millisecond)
	c.RecordMeshBuild(20 * time.Millisecond)
	c.RecordSend(5 * time.Millisecond)

	snap := c.snapshot(42)
	if snap.RequestsServed != 1 {
		t.Errorf("RequestsServed = %d, want 1", snap.RequestsServed)
	}
	if snap.AvgChunkBuildMillis <= 0 {
		t.Errorf("AvgChunkBuildMillis = %f, want > 0", snap.AvgChunkBuildMillis)
	}
}
