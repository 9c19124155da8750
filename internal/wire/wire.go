// Package wire implements the little-endian primitives used by the chunk
// and entity protocols (§6). Every multi-byte field is little-endian per
// the wire format.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// MaxPayloadBytes is the protocol error threshold from §6/§7: a payload
// length field at or above this is rejected and the connection is closed.
const MaxPayloadBytes = 100 * 1024 * 1024

// ReadByte reads a single byte.
func ReadByte(r io.Reader) (byte, error) {
	var buf [1]byte
	_, err := io.ReadFull(r, buf[:])
	return buf[0], err
}

// WriteByte writes a single byte.
func WriteByte(w io.Writer, v byte) error {
	_, err := w.Write([]byte{v})
	return err
}

// ReadInt32 reads a little-endian signed 32-bit integer.
func ReadInt32(r io.Reader) (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(buf[:])), nil
}

// WriteInt32 writes a little-endian signed 32-bit integer.
func WriteInt32(w io.Writer, v int32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(v))
	_, err := w.Write(buf[:])
	return err
}

// ReadUint32 reads a little-endian unsigned 32-bit integer.
func ReadUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// WriteUint32 writes a little-endian unsigned 32-bit integer.
func WriteUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// ReadFloat32 reads a little-endian IEEE-754 32-bit float.
func ReadFloat32(r io.Reader) (float32, error) {
	bits, err := ReadUint32(r)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(bits), nil
}

// WriteFloat32 writes a little-endian IEEE-754 32-bit float.
func WriteFloat32(w io.Writer, v float32) error {
	return WriteUint32(w, math.Float32bits(v))
}

// PutInt32 encodes v little-endian into buf[0:4].
func PutInt32(buf []byte, v int32) {
	binary.LittleEndian.PutUint32(buf, uint32(v))
}

// PutFloat32 encodes v little-endian into buf[0:4].
func PutFloat32(buf []byte, v float32) {
	binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
}

// Int32At decodes a little-endian int32 from buf[off:off+4].
func Int32At(buf []byte, off int) int32 {
	return int32(binary.LittleEndian.Uint32(buf[off : off+4]))
}

// PutUint32 encodes v little-endian into buf[0:4].
func PutUint32(buf []byte, v uint32) {
	binary.LittleEndian.PutUint32(buf, v)
}

// Uint32At decodes a little-endian uint32 from buf[off:off+4].
func Uint32At(buf []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(buf[off : off+4])
}

// Float32At decodes a little-endian float32 from buf[off:off+4].
func Float32At(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off : off+4]))
}

// CheckPayloadLen validates a length-prefixed payload against the protocol
// error threshold in §6/§7 (oversized payload closes the connection).
func CheckPayloadLen(n int32) error {
	if n < 0 || int64(n) >= MaxPayloadBytes {
		return fmt.Errorf("wire: payload length %d exceeds protocol limit", n)
	}
	return nil
}
