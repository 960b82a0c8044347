package actor

import "github.com/go-gl/mathgl/mgl32"

// Transform is the world pose of a body
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
}

// RotationMatrix returns the 3x3 rotation matrix of the pose
func (t Transform) RotationMatrix() mgl32.Mat3 {
	return t.Rotation.Mat4().Mat3()
}
