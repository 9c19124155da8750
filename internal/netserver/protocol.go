package netserver

import (
	"bytes"
	"io"

	"github.com/StoreStation/voxelterra/internal/meshgen"
	"github.com/StoreStation/voxelterra/internal/wire"
)

// writeChunkResponse writes the two length-prefixed payloads of §6
// ("Response to ChunkRequest"): the render mesh, then the collision
// mesh. Both buffers are encoded wholesale up front so payload_len is
// known before any bytes are written, avoiding partial-frame writes on a
// mid-encode failure. Each payload's length is checked against the
// protocol's 100 MB cap (§6/§7) before anything is written; a payload
// over the cap aborts the response and the caller drops the connection.
func writeChunkResponse(w io.Writer, render *meshgen.RenderMesh, collision *meshgen.CollisionMesh) error {
	var buf bytes.Buffer
	if err := writeRenderPayload(&buf, render); err != nil {
		return err
	}
	if err := writeCollisionPayload(&buf, collision); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func writeRenderPayload(w io.Writer, render *meshgen.RenderMesh) error {
	vertexCount := len(render.Vertices) / 7
	payloadLen := int32(4 + len(render.Vertices)*4)
	if err := wire.CheckPayloadLen(payloadLen); err != nil {
		return err
	}

	buf := make([]byte, 4+4+len(render.Vertices)*4)
	wire.PutInt32(buf[0:4], payloadLen)
	wire.PutInt32(buf[4:8], int32(vertexCount))
	off := 8
	for _, v := range render.Vertices {
		wire.PutFloat32(buf[off:off+4], v)
		off += 4
	}
	_, err := w.Write(buf)
	return err
}

func writeCollisionPayload(w io.Writer, collision *meshgen.CollisionMesh) error {
	vertexCount := len(collision.Vertices)
	indexCount := len(collision.Indices)
	payloadLen := int32(4 + 4 + vertexCount*3*4 + indexCount*4)
	if err := wire.CheckPayloadLen(payloadLen); err != nil {
		return err
	}

	buf := make([]byte, 4+payloadLen)
	wire.PutInt32(buf[0:4], payloadLen)
	wire.PutInt32(buf[4:8], int32(vertexCount))
	wire.PutInt32(buf[8:12], int32(indexCount))

	off := 12
	for _, v := range collision.Vertices {
		wire.PutFloat32(buf[off:off+4], v.X())
		wire.PutFloat32(buf[off+4:off+8], v.Y())
		wire.PutFloat32(buf[off+8:off+12], v.Z())
		off += 12
	}
	for _, idx := range collision.Indices {
		wire.PutInt32(buf[off:off+4], int32(idx))
		off += 4
	}
	_, err := w.Write(buf)
	return err
}
