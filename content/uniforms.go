package content

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/vkngwrapper/renderloop/driver"
)

// UniformBufferObject is the per-image uniform block read by the vertex
// shader.
type UniformBufferObject struct {
	Model mgl32.Mat4
	View  mgl32.Mat4
	Proj  mgl32.Mat4
}

// Uniforms computes the transforms at elapsed time for a target of the
// given extent. The model turns a quarter circle per second about Z.
func Uniforms(elapsed time.Duration, extent driver.Extent) UniformBufferObject {
	period := math.Mod(elapsed.Seconds(), 4.0)
	angle := float32(period * math.Pi / 2.0)

	aspect := float32(1)
	if extent.Height > 0 {
		aspect = float32(extent.Width) / float32(extent.Height)
	}

	ubo := UniformBufferObject{
		Model: mgl32.HomogRotate3D(angle, mgl32.Vec3{0, 0, 1}),
		View:  mgl32.LookAtV(mgl32.Vec3{3, 3, 3}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1}),
		Proj:  mgl32.Perspective(mgl32.DegToRad(45), aspect, 0.1, 10),
	}
	// Vulkan clip space has Y pointing down.
	ubo.Proj[5] *= -1
	return ubo
}
