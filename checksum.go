package zphy

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl32"
)

// Checksum digests the pose and velocity of every body, in order. Body IDs are
// left out, so two worlds built and stepped the same way have equal checksums.
func (w *World) Checksum() uint64 {
	d := xxhash.New()
	buf := make([]byte, 0, 16*4)

	for _, body := range w.Bodies {
		buf = buf[:0]
		buf = appendVec3(buf, body.Transform.Position)
		buf = appendVec3(buf, body.Transform.Rotation.V)
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(body.Transform.Rotation.W))
		buf = appendVec3(buf, body.Velocity.Linear)
		buf = appendVec3(buf, body.Velocity.Angular)

		_, _ = d.Write(buf)
	}

	return d.Sum64()
}

func appendVec3(buf []byte, v mgl32.Vec3) []byte {
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}
