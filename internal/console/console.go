// Package console implements a small stdin admin console (stats, evict,
// edits) against the running server: line commands are split with
// strings.Fields and dispatched through a switch, the operational surface
// this system gives operators since there is no in-band chat channel.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/StoreStation/voxelterra/internal/chunkmgr"
	"github.com/StoreStation/voxelterra/internal/meshcache"
	"github.com/StoreStation/voxelterra/internal/voxel"
	"github.com/StoreStation/voxelterra/internal/worldgen"
)

// Dependencies bundles the running server state the console commands
// inspect or mutate.
type Dependencies struct {
	Columns *chunkmgr.ColumnCache
	Meshes  *meshcache.Cache
	World   *worldgen.WorldContext
	Logger  *log.Logger
}

// Run reads line commands from r until ctx is cancelled or r returns EOF.
// Unknown commands print a usage hint rather than closing the console.
func Run(ctx context.Context, r io.Reader, deps Dependencies) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			dispatch(line, deps)
		}
	}
}

func dispatch(line string, deps Dependencies) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return
	}
	cmd := strings.ToLower(parts[0])

	switch cmd {
	case "stats":
		handleStats(deps)
	case "evict":
		handleEvict(deps, parts[1:])
	case "edits":
		handleEdits(deps)
	default:
		deps.Logger.Printf("console: unknown command %q (try: stats, evict <cx> <cy> <cz>, edits)", cmd)
	}
}

func handleStats(deps Dependencies) {
	hits, misses := deps.Columns.Stats()
	deps.Logger.Printf("console: columns=%d (hits=%d misses=%d) meshes=%d builds=%d",
		deps.Columns.Len(), hits, misses, deps.Meshes.Len(), deps.Meshes.BuildCount())
}

func handleEvict(deps Dependencies, args []string) {
	if len(args) != 3 {
		deps.Logger.Printf("console: usage: evict <cx> <cy> <cz>")
		return
	}
	coord, err := parseCoord(args)
	if err != nil {
		deps.Logger.Printf("console: %v", err)
		return
	}
	deps.Meshes.Invalidate(coord)
	deps.Logger.Printf("console: evicted mesh cache entry for %+v", coord)
}

func handleEdits(deps Dependencies) {
	deps.Logger.Printf("console: %d edit(s) recorded in the in-memory overlay", deps.World.EditCount())
}

func parseCoord(args []string) (voxel.ChunkCoord, error) {
	vals := make([]int32, 3)
	for i, a := range args {
		n, err := strconv.ParseInt(a, 10, 32)
		if err != nil {
			return voxel.ChunkCoord{}, fmt.Errorf("invalid coordinate %q: %w", a, err)
		}
		vals[i] = int32(n)
	}
	return voxel.ChunkCoord{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}
