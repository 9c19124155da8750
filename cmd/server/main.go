package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/StoreStation/voxelterra/internal/chunkmgr"
	"github.com/StoreStation/voxelterra/internal/config"
	"github.com/StoreStation/voxelterra/internal/console"
	"github.com/StoreStation/voxelterra/internal/entitybus"
	"github.com/StoreStation/voxelterra/internal/logutil"
	"github.com/StoreStation/voxelterra/internal/meshcache"
	"github.com/StoreStation/voxelterra/internal/netserver"
	"github.com/StoreStation/voxelterra/internal/tick"
	"github.com/StoreStation/voxelterra/internal/worldgen"
)

func main() {
	// config.Load owns every flag this binary accepts (-config, -log-dir,
	// -server-port, -world-seed, ...) on one FlagSet, so this is the only
	// argv parse that happens.
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	startedAt := time.Now()
	logger, logFile, err := logutil.Open(cfg.LogDir, startedAt)
	if err != nil {
		log.Fatalf("failed to open log file: %v", err)
	}
	defer logFile.Close()

	world := worldgen.NewWorldContext(cfg.WorldSeed)
	columns := chunkmgr.NewColumnCache(world, cfg.MaxCachedColumns)
	mgr := chunkmgr.NewManager(columns, world)
	meshes := meshcache.New(mgr, world, cfg.MaxCachedMeshes)

	counters := &tick.Counters{
		ColumnCacheLen: columns.Len,
		MeshCacheLen:   meshes.Len,
	}

	tcpAddr := ":" + strconv.Itoa(cfg.ServerPort)
	udpAddr := ":" + strconv.Itoa(cfg.UDPPort)

	tcpServer := netserver.New(tcpAddr, world, meshes, counters, logger)
	if err := tcpServer.Start(); err != nil {
		logger.Fatalf("failed to start TCP server: %v", err)
	}

	bus := entitybus.New(logger)
	if err := bus.Start(udpAddr); err != nil {
		logger.Fatalf("failed to start UDP entity bus: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Cleanup scheduling rides the tick loop's own cadence (§4.F "the
	// loop exists to pace cleanup scheduling") rather than a second
	// timer goroutine; the gate below only actually sweeps once every
	// ~60s worth of ticks.
	cleanupGate := newTickGate(cfg.TickRate * 60)
	go tick.Loop(ctx, cfg.TickRate, counters, func() {
		cleanupGate.fire(meshes.Cleanup)
	}, logger)

	go console.Run(ctx, os.Stdin, console.Dependencies{
		Columns: columns,
		Meshes:  meshes,
		World:   world,
		Logger:  logger,
	})

	logger.Printf("voxelterra server started (seed=%d, tcp=%s, udp=%s)", cfg.WorldSeed, tcpAddr, udpAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Printf("shutting down (received signal: %v)...", sig)

	cancel()
	tcpServer.Stop()
	bus.Stop()
	logger.Printf("server stopped")
}

// tickGate fires fn once every `every` calls to fire, pacing a cheap
// per-tick hook down to a coarser cadence.
type tickGate struct {
	every int
	count int
}

func newTickGate(every int) *tickGate {
	if every <= 0 {
		every = 1
	}
	return &tickGate{every: every}
}

func (g *tickGate) fire(fn func()) {
	g.count++
	if g.count >= g.every {
		g.count = 0
		fn()
	}
}
