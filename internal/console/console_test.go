package console

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/StoreStation/voxelterra/internal/chunkmgr"
	"github.com/StoreStation/voxelterra/internal/meshcache"
	"github.com/StoreStation/voxelterra/internal/worldgen"
)

func TestRunDispatchesStatsAndEdits(t *testing.T) {
	world := worldgen.NewWorldContext(1)
	cols := chunkmgr.NewColumnCache(world, 100)
	mgr := chunkmgr.NewManager(cols, world)
	meshes := meshcache.New(mgr, world, 100)

	var out bytes.Buffer
	logger := log.New(&out, "", 0)
	deps := Dependencies{Columns: cols, Meshes: meshes, World: world, Logger: logger}

	input := strings.NewReader("stats\nedits\nbogus\n")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	Run(ctx, input, deps)

	got := out.String()
	if !strings.Contains(got, "columns=") {
		t.Errorf("expected stats output, got %q", got)
	}
	if !strings.Contains(got, "edit(s) recorded") {
		t.Errorf("expected edits output, got %q", got)
	}
	if !strings.Contains(got, "unknown command") {
		t.Errorf("expected unknown-command output, got %q", got)
	}
}

func TestParseCoordRejectsNonInteger(t *testing.T) {
	if _, err := parseCoord([]string{"1", "x", "3"}); err == nil {
		t.Fatalf("expected error for non-integer coordinate")
	}
}
