// Package tick runs the monotonic 60 Hz server loop of §4.F. The loop
// itself does no gameplay work (the server is reactive); it exists to
// pace cleanup scheduling and periodic telemetry, and to give a
// deterministic cadence a future server-authoritative simulation could
// hook into. Telemetry is marshaled with github.com/json-iterator/go,
// following SoftbearStudios-mk48's hub-state snapshot encoding, and
// written through the same *log.Logger the rest of the server uses
// (internal/logutil), one JSON object per line.
package tick

import (
	"context"
	"log"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Counters are the aggregated metrics §4.F asks the loop to report every
// 5*TickRate ticks: total requests served and rolling averages of the
// three timed phases of a chunk request, plus cache occupancy.
type Counters struct {
	mu sync.Mutex

	RequestsServed   int64
	ChunkBuildTotal  time.Duration
	ChunkBuildCount  int64
	MeshBuildTotal   time.Duration
	MeshBuildCount   int64
	SendTotal        time.Duration
	SendCount        int64
	ColumnCacheLen   func() int
	MeshCacheLen     func() int
}

// TelemetrySnapshot is the JSON-serialized form of Counters emitted every
// reporting interval (§4.F).
type TelemetrySnapshot struct {
	Tick               int64   `json:"tick"`
	RequestsServed     int64   `json:"requests_served"`
	AvgChunkBuildMillis float64 `json:"avg_chunk_build_ms"`
	AvgMeshBuildMillis  float64 `json:"avg_mesh_build_ms"`
	AvgSendMillis       float64 `json:"avg_send_ms"`
	ColumnCacheSize     int     `json:"column_cache_size"`
	MeshCacheSize       int     `json:"mesh_cache_size"`
}

// RecordChunkBuild accumulates one chunk-build timing sample.
func (c *Counters) RecordChunkBuild(d time.Duration) {
	c.mu.Lock()
	c.ChunkBuildTotal += d
	c.ChunkBuildCount++
	c.mu.Unlock()
}

// RecordMeshBuild accumulates one mesh-build timing sample.
func (c *Counters) RecordMeshBuild(d time.Duration) {
	c.mu.Lock()
	c.MeshBuildTotal += d
	c.MeshBuildCount++
	c.mu.Unlock()
}

// RecordSend accumulates one response-send timing sample and counts the
// request it belongs to as served.
func (c *Counters) RecordSend(d time.Duration) {
	c.mu.Lock()
	c.SendTotal += d
	c.SendCount++
	c.RequestsServed++
	c.mu.Unlock()
}

func avgMillis(total time.Duration, count int64) float64 {
	if count == 0 {
		return 0
	}
	return float64(total.Microseconds()) / float64(count) / 1000.0
}

func (c *Counters) snapshot(tickNum int64) TelemetrySnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := TelemetrySnapshot{
		Tick:                tickNum,
		RequestsServed:      c.RequestsServed,
		AvgChunkBuildMillis: avgMillis(c.ChunkBuildTotal, c.ChunkBuildCount),
		AvgMeshBuildMillis:  avgMillis(c.MeshBuildTotal, c.MeshBuildCount),
		AvgSendMillis:       avgMillis(c.SendTotal, c.SendCount),
	}
	if c.ColumnCacheLen != nil {
		s.ColumnCacheSize = c.ColumnCacheLen()
	}
	if c.MeshCacheLen != nil {
		s.MeshCacheSize = c.MeshCacheLen()
	}
	return s
}

// Loop runs the monotonic accumulator-based tick loop at rateHz ticks per
// second until ctx is cancelled (§4.F, §5 "single top-level cancellation
// token"). onCleanup fires on every tick (cheap, idempotent schedulers
// belong here); every 5*rateHz ticks a TelemetrySnapshot is logged.
func Loop(ctx context.Context, rateHz int, counters *Counters, onCleanup func(), logger *log.Logger) {
	if rateHz <= 0 {
		rateHz = 60
	}
	tickDuration := time.Second / time.Duration(rateHz)
	reportEvery := int64(5 * rateHz)

	last := time.Now()
	var accumulator time.Duration
	var tickNum int64

	ticker := time.NewTicker(tickDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			accumulator += now.Sub(last)
			last = now

			for accumulator >= tickDuration {
				accumulator -= tickDuration
				tickNum++

				if onCleanup != nil {
					onCleanup()
				}

				if tickNum%reportEvery == 0 {
					snap := counters.snapshot(tickNum)
					line, err := jsonAPI.Marshal(snap)
					if err == nil {
						logger.Printf("telemetry %s", line)
					}
				}
			}
		}
	}
}
