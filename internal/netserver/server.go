// Package netserver implements the TCP request pipeline of §4.G: a
// length-prefixed per-client stream of chunk requests and BlockBreak
// edits, with per-connection serialized writes and broadcast to the
// active stream set on accepted edits. An accept loop spawns one goroutine
// per connection; shutdown closes a stopCh the accept loop checks and
// closes every active connection, which ends that connection goroutine's
// blocking read. Each connection loop reads a packet, switches on its
// type, and dispatches to the matching handler.
package netserver

import (
	"context"
	"log"
	"net"
	"sync"
	"time"

	"github.com/StoreStation/voxelterra/internal/meshcache"
	"github.com/StoreStation/voxelterra/internal/tick"
	"github.com/StoreStation/voxelterra/internal/voxel"
	"github.com/StoreStation/voxelterra/internal/wire"
	"github.com/StoreStation/voxelterra/internal/worldgen"
)

const (
	packetChunkRequest byte = 0
	packetBlockBreak   byte = 1

	broadcastBlockBreak byte = 1

	readWriteTimeout = 5 * time.Second
)

// EditBroadcaster is implemented by anything that needs to react to an
// accepted BlockBreak beyond the TCP broadcast itself (the mesh cache
// invalidation in this server).
type EditBroadcaster interface {
	InvalidateEdit(edit worldgen.Edit)
}

// Server is the TCP request pipeline (§4.G).
type Server struct {
	addr     string
	listener net.Listener
	stopCh   chan struct{}
	logger   *log.Logger

	world    *worldgen.WorldContext
	meshes   *meshcache.Cache
	counters *tick.Counters

	mu      sync.Mutex
	streams map[*stream]struct{}
}

type stream struct {
	conn      net.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
}

func (s *stream) close() {
	s.closeOnce.Do(func() { s.conn.Close() })
}

// New creates a TCP request pipeline bound to addr once Start is called.
func New(addr string, world *worldgen.WorldContext, meshes *meshcache.Cache, counters *tick.Counters, logger *log.Logger) *Server {
	return &Server{
		addr:     addr,
		stopCh:   make(chan struct{}),
		logger:   logger,
		world:    world,
		meshes:   meshes,
		counters: counters,
		streams:  make(map[*stream]struct{}),
	}
}

// Start binds the listener and runs the accept loop in a new goroutine.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.logger.Printf("TCP chunk server listening on %s", s.addr)
	go s.acceptLoop()
	return nil
}

// Stop closes the listener and every active connection (§5 "on cancel ...
// in-flight network operations abort").
func (s *Server) Stop() {
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Lock()
	for st := range s.streams {
		st.close()
	}
	s.mu.Unlock()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
				s.logger.Printf("accept error: %v", err)
				continue
			}
		}
		st := &stream{conn: conn}
		s.mu.Lock()
		s.streams[st] = struct{}{}
		s.mu.Unlock()
		go s.handleConnection(st)
	}
}

func (s *Server) removeStream(st *stream) {
	s.mu.Lock()
	delete(s.streams, st)
	s.mu.Unlock()
	st.close()
}

// handleConnection reads and dispatches a stream of typed requests until
// a short read, protocol error, or send failure ends the connection (§7).
func (s *Server) handleConnection(st *stream) {
	defer s.removeStream(st)

	for {
		st.conn.SetReadDeadline(time.Now().Add(readWriteTimeout))
		packetType, err := wire.ReadByte(st.conn)
		if err != nil {
			// Short read / EOF mid-packet (§7): drop silently.
			return
		}

		switch packetType {
		case packetChunkRequest:
			if !s.handleChunkRequest(st) {
				return
			}
		case packetBlockBreak:
			if !s.handleBlockBreak(st) {
				return
			}
		default:
			// Unknown packet type is a protocol error (§7): close.
			return
		}
	}
}

func (s *Server) handleChunkRequest(st *stream) bool {
	cx, err := wire.ReadInt32(st.conn)
	if err != nil {
		return false
	}
	cy, err := wire.ReadInt32(st.conn)
	if err != nil {
		return false
	}
	cz, err := wire.ReadInt32(st.conn)
	if err != nil {
		return false
	}

	start := time.Now()
	var onBuild func(time.Duration)
	if s.counters != nil {
		onBuild = s.counters.RecordMeshBuild
	}
	render, collision := s.meshes.GetOrBuildTimed(voxel.ChunkCoord{X: cx, Y: cy, Z: cz}, onBuild)
	if s.counters != nil {
		s.counters.RecordChunkBuild(time.Since(start))
	}

	sendStart := time.Now()
	st.writeMu.Lock()
	st.conn.SetWriteDeadline(time.Now().Add(readWriteTimeout))
	err = writeChunkResponse(st.conn, render, collision)
	st.writeMu.Unlock()
	if s.counters != nil {
		s.counters.RecordSend(time.Since(sendStart))
	}
	return err == nil
}

func (s *Server) handleBlockBreak(st *stream) bool {
	x, err := wire.ReadInt32(st.conn)
	if err != nil {
		return false
	}
	y, err := wire.ReadInt32(st.conn)
	if err != nil {
		return false
	}
	z, err := wire.ReadInt32(st.conn)
	if err != nil {
		return false
	}

	const editRadius = 1.5
	edit := s.world.ApplyEdit(x, y, z, editRadius)
	s.meshes.InvalidateEdit(edit)
	s.broadcastBlockBreak(x, y, z)
	return true
}

// broadcastBlockBreak writes the accepted-edit notice (§6 "Broadcast
// after accepted BlockBreak") to every active stream, dropping any stream
// that errors (§4.G write discipline / §7 send-failure policy).
func (s *Server) broadcastBlockBreak(x, y, z int32) {
	s.mu.Lock()
	targets := make([]*stream, 0, len(s.streams))
	for st := range s.streams {
		targets = append(targets, st)
	}
	s.mu.Unlock()

	var buf [13]byte
	buf[0] = broadcastBlockBreak
	wire.PutInt32(buf[1:5], x)
	wire.PutInt32(buf[5:9], y)
	wire.PutInt32(buf[9:13], z)

	for _, st := range targets {
		st.conn.SetWriteDeadline(time.Now().Add(readWriteTimeout))
		st.writeMu.Lock()
		_, err := st.conn.Write(buf[:])
		st.writeMu.Unlock()
		if err != nil {
			s.removeStream(st)
		}
	}
}

// RunUntilCancel blocks until ctx is cancelled, then stops the server
// (§5 "single top-level cancellation token").
func (s *Server) RunUntilCancel(ctx context.Context) {
	<-ctx.Done()
	s.Stop()
}
