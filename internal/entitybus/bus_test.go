package entitybus

import (
	"io"
	"log"
	"net"
	"testing"
	"time"

	"github.com/StoreStation/voxelterra/internal/wire"
)

func TestKeepAliveIsEchoedVerbatim(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	bus := New(logger)
	if err := bus.Start("127.0.0.1:0"); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer bus.Stop()

	client, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	if err != nil {
		t.Fatalf("client listen: %v", err)
	}
	defer client.Close()

	payload := []byte{typeKeepAlive, 1, 2, 3, 4}
	if _, err := client.WriteToUDP(payload, bus.conn.LocalAddr().(*net.UDPAddr)); err != nil {
		t.Fatalf("write keepalive: %v", err)
	}

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 64)
	n, _, err := client.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("read echo: %v", err)
	}
	if string(buf[:n]) != string(payload) {
		t.Fatalf("echo mismatch: got %v, want %v", buf[:n], payload)
	}
}

func TestPlayerPositionProducesPositionAck(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	bus := New(logger)
	if err := bus.Start("127.0.0.1:0"); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer bus.Stop()

	client, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	if err != nil {
		t.Fatalf("client listen: %v", err)
	}
	defer client.Close()

	var pkt [playerPositionBytes]byte
	pkt[0] = typePlayerPosition
	wire.PutUint32(pkt[1:5], 7)
	// position, velocity, yaw, pitch all zero; grounded flag at [37].
	pkt[37] = 1

	if _, err := client.WriteToUDP(pkt[:], bus.conn.LocalAddr().(*net.UDPAddr)); err != nil {
		t.Fatalf("write position: %v", err)
	}

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 64)
	n, _, err := client.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("read ack: %v", err)
	}
	if n != positionAckBytes {
		t.Fatalf("ack length = %d, want %d", n, positionAckBytes)
	}
	if buf[0] != typePositionAck {
		t.Fatalf("ack type = %d, want %d", buf[0], typePositionAck)
	}
	if seq := wire.Uint32At(buf, 1); seq != 7 {
		t.Fatalf("acked_seq = %d, want 7", seq)
	}
}
