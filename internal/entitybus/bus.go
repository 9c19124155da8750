package entitybus

import (
	"errors"
	"log"
	"net"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/StoreStation/voxelterra/internal/wire"
)

const (
	typePlayerPosition byte = 1
	typePlayerInput    byte = 2
	typeEntityUpdate   byte = 3
	typeKeepAlive      byte = 4
	typePositionAck    byte = 5
	typeBlockBreakUDP  byte = 6

	playerPositionBytes = 38
	positionAckBytes    = 37
	entityUpdateBytes   = 38
)

// Bus is the datagram entity bus of §4.H.
type Bus struct {
	conn   *net.UDPConn
	logger *log.Logger

	mu        sync.Mutex
	endpoints map[string]uuid.UUID
	players   map[uuid.UUID]*PlayerState
	addrByID  map[uuid.UUID]*net.UDPAddr
}

// New creates a datagram entity bus; call Start to bind and serve.
func New(logger *log.Logger) *Bus {
	return &Bus{
		logger:    logger,
		endpoints: make(map[string]uuid.UUID),
		players:   make(map[uuid.UUID]*PlayerState),
		addrByID:  make(map[uuid.UUID]*net.UDPAddr),
	}
}

// Start binds addr (host:port) and runs the receive loop in a new
// goroutine until the connection is closed by Stop.
func (b *Bus) Start(addr string) error {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return err
	}
	b.conn = conn
	b.logger.Printf("UDP entity bus listening on %s", addr)
	go b.receiveLoop()
	return nil
}

// Stop closes the datagram socket, unblocking the receive loop.
func (b *Bus) Stop() {
	if b.conn != nil {
		b.conn.Close()
	}
}

func (b *Bus) receiveLoop() {
	buf := make([]byte, 2048)
	for {
		n, addr, err := b.conn.ReadFromUDP(buf)
		if err != nil {
			// A closed socket (shutdown) ends the loop quietly; any other
			// read error drops that datagram with no response and the loop
			// keeps reading.
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}
		b.handlePacket(addr, append([]byte(nil), buf[:n]...))
	}
}

func (b *Bus) handlePacket(addr *net.UDPAddr, data []byte) {
	if len(data) == 0 {
		return
	}
	switch data[0] {
	case typePlayerPosition:
		b.handlePlayerPosition(addr, data)
	case typePlayerInput:
		// Reserved, currently no-op (§4.H).
	case typeKeepAlive:
		b.conn.WriteToUDP(data, addr)
	case typeBlockBreakUDP:
		// Reserved; TCP is authoritative (§9 open question resolution 2).
	default:
		// Unknown type or an outbound-only type received inbound: drop.
	}
}

func (b *Bus) playerIDFor(addr *net.UDPAddr) uuid.UUID {
	key := addr.String()
	b.mu.Lock()
	defer b.mu.Unlock()
	if id, ok := b.endpoints[key]; ok {
		return id
	}
	id := uuid.New()
	b.endpoints[key] = id
	b.players[id] = &PlayerState{}
	b.addrByID[id] = addr
	return id
}

func (b *Bus) handlePlayerPosition(addr *net.UDPAddr, data []byte) {
	if len(data) < playerPositionBytes {
		return
	}
	id := b.playerIDFor(addr)

	in := Incoming{
		Seq:      wire.Uint32At(data, 1),
		Position: mgl32.Vec3{wire.Float32At(data, 5), wire.Float32At(data, 9), wire.Float32At(data, 13)},
		Velocity: mgl32.Vec3{wire.Float32At(data, 17), wire.Float32At(data, 21), wire.Float32At(data, 25)},
		Yaw:      wire.Float32At(data, 29),
		Pitch:    wire.Float32At(data, 33),
		Grounded: data[37] != 0,
		At:       time.Now(),
	}

	b.mu.Lock()
	state := b.players[id]
	b.mu.Unlock()

	accept, dt := Validate(state, in)
	if accept {
		state.Commit(in, dt)
		b.sendPositionAck(addr, state, in.Seq)
		b.broadcastEntityUpdate(id, state)
		return
	}
	// Invalid: optionally send a corrective ack with the last validated
	// state (§4.H).
	b.sendPositionAck(addr, state, state.LastSeq)
}

func (b *Bus) sendPositionAck(addr *net.UDPAddr, state *PlayerState, seq uint32) {
	var buf [positionAckBytes]byte
	buf[0] = typePositionAck
	wire.PutUint32(buf[1:5], seq)
	wire.PutFloat32(buf[5:9], state.Position.X())
	wire.PutFloat32(buf[9:13], state.Position.Y())
	wire.PutFloat32(buf[13:17], state.Position.Z())
	wire.PutFloat32(buf[17:21], state.Velocity.X())
	wire.PutFloat32(buf[21:25], state.Velocity.Y())
	wire.PutFloat32(buf[25:29], state.Velocity.Z())
	wire.PutFloat32(buf[29:33], state.Yaw)
	wire.PutFloat32(buf[33:37], state.Pitch)
	b.conn.WriteToUDP(buf[:], addr)
}

// broadcastEntityUpdate sends an EntityUpdate to every known endpoint
// except the one that just moved (§4.H "broadcast an EntityUpdate to all
// other known endpoints").
func (b *Bus) broadcastEntityUpdate(id uuid.UUID, state *PlayerState) {
	var buf [entityUpdateBytes]byte
	buf[0] = typeEntityUpdate
	idBytes := id[:4]
	copy(buf[1:5], idBytes)
	wire.PutFloat32(buf[5:9], state.Position.X())
	wire.PutFloat32(buf[9:13], state.Position.Y())
	wire.PutFloat32(buf[13:17], state.Position.Z())
	wire.PutFloat32(buf[17:21], state.Velocity.X())
	wire.PutFloat32(buf[21:25], state.Velocity.Y())
	wire.PutFloat32(buf[25:29], state.Velocity.Z())
	wire.PutFloat32(buf[29:33], state.Yaw)
	wire.PutFloat32(buf[33:37], state.Pitch)
	if state.Grounded {
		buf[37] = 1
	}

	b.mu.Lock()
	targets := make([]*net.UDPAddr, 0, len(b.addrByID))
	for otherID, addr := range b.addrByID {
		if otherID == id {
			continue
		}
		targets = append(targets, addr)
	}
	staleCutoff := time.Now().Add(-5 * time.Second)
	for otherID, st := range b.players {
		if st.LastUpdatedAt.Before(staleCutoff) && otherID != id {
			// Lazily GC'd by the broadcast path (§5 "a stale player is any
			// whose last update exceeds 5s").
			delete(b.players, otherID)
			delete(b.addrByID, otherID)
		}
	}
	b.mu.Unlock()

	for _, addr := range targets {
		b.conn.WriteToUDP(buf[:], addr)
	}
}
