package netserver

import (
	"bytes"
	"context"
	"io"
	"log"
	"net"
	"testing"
	"time"

	"github.com/StoreStation/voxelterra/internal/chunkmgr"
	"github.com/StoreStation/voxelterra/internal/meshcache"
	"github.com/StoreStation/voxelterra/internal/wire"
	"github.com/StoreStation/voxelterra/internal/worldgen"
)

func newTestServer(t *testing.T) (*Server, func()) {
	t.Helper()
	world := worldgen.NewWorldContext(69420)
	cols := chunkmgr.NewColumnCache(world, 1000)
	mgr := chunkmgr.NewManager(cols, world)
	meshes := meshcache.New(mgr, world, 1000)
	logger := log.New(io.Discard, "", 0)

	srv := New("127.0.0.1:0", world, meshes, nil, logger)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv.listener = ln
	srv.addr = ln.Addr().String()
	go srv.acceptLoop()

	return srv, func() { srv.Stop() }
}

func TestChunkRequestRoundTrip(t *testing.T) {
	srv, stop := newTestServer(t)
	defer stop()

	conn, err := net.Dial("tcp", srv.addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var req bytes.Buffer
	req.WriteByte(packetChunkRequest)
	var body [12]byte
	wire.PutInt32(body[0:4], 0)
	wire.PutInt32(body[4:8], 0)
	wire.PutInt32(body[8:12], 0)
	req.Write(body[:])
	if _, err := conn.Write(req.Bytes()); err != nil {
		t.Fatalf("write request: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	renderLen, err := wire.ReadInt32(conn)
	if err != nil {
		t.Fatalf("read render payload len: %v", err)
	}
	if renderLen < 4 {
		t.Fatalf("render payload len too small: %d", renderLen)
	}
	vertexCount, err := wire.ReadInt32(conn)
	if err != nil {
		t.Fatalf("read vertex count: %v", err)
	}
	if _, err := io.CopyN(io.Discard, conn, int64(vertexCount)*7*4); err != nil {
		t.Fatalf("read render vertices: %v", err)
	}

	collisionLen, err := wire.ReadInt32(conn)
	if err != nil {
		t.Fatalf("read collision payload len: %v", err)
	}
	if collisionLen < 8 {
		t.Fatalf("collision payload len too small: %d", collisionLen)
	}
}

func TestBlockBreakBroadcastsToOtherClients(t *testing.T) {
	srv, stop := newTestServer(t)
	defer stop()

	breaker, err := net.Dial("tcp", srv.addr)
	if err != nil {
		t.Fatalf("dial breaker: %v", err)
	}
	defer breaker.Close()

	observer, err := net.Dial("tcp", srv.addr)
	if err != nil {
		t.Fatalf("dial observer: %v", err)
	}
	defer observer.Close()

	// Let the accept loop register both streams before broadcasting.
	time.Sleep(50 * time.Millisecond)

	var req bytes.Buffer
	req.WriteByte(packetBlockBreak)
	var body [12]byte
	wire.PutInt32(body[0:4], 16)
	wire.PutInt32(body[4:8], 30)
	wire.PutInt32(body[8:12], 16)
	req.Write(body[:])
	if _, err := breaker.Write(req.Bytes()); err != nil {
		t.Fatalf("write blockbreak: %v", err)
	}

	observer.SetReadDeadline(time.Now().Add(5 * time.Second))
	packetType, err := wire.ReadByte(observer)
	if err != nil {
		t.Fatalf("read broadcast type: %v", err)
	}
	if packetType != broadcastBlockBreak {
		t.Fatalf("packetType = %d, want %d", packetType, broadcastBlockBreak)
	}
	x, _ := wire.ReadInt32(observer)
	y, _ := wire.ReadInt32(observer)
	z, _ := wire.ReadInt32(observer)
	if x != 16 || y != 30 || z != 16 {
		t.Fatalf("broadcast coords = (%d,%d,%d), want (16,30,16)", x, y, z)
	}
}

func TestContextCancelStopsServer(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.RunUntilCancel(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("server did not stop after cancellation")
	}
}
