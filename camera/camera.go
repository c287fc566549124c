// Package camera implements the perspective camera and the damped orbit controls that
// move it around a target.
package camera

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Defaults used by New.
const (
	DefaultFOV  = 75
	DefaultNear = 0.1
	DefaultFar  = 100
)

// Camera is a perspective camera looking from Position at Target.
type Camera struct {
	// FOV is the vertical field of view in degrees.
	FOV    float32
	Aspect float32
	Near   float32
	Far    float32

	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3
}

// New returns a camera with the default lens, standing on +Z and looking at the origin.
func New(aspect float32) *Camera {
	return &Camera{
		FOV:      DefaultFOV,
		Aspect:   aspect,
		Near:     DefaultNear,
		Far:      DefaultFar,
		Position: mgl32.Vec3{0, 0, 5},
		Up:       mgl32.Vec3{0, 1, 0},
	}
}

// LookAt points the camera at target.
func (c *Camera) LookAt(target mgl32.Vec3) {
	c.Target = target
}

// SetAspect updates the width/height ratio. Non-positive values are ignored.
func (c *Camera) SetAspect(aspect float32) {
	if aspect > 0 {
		c.Aspect = aspect
	}
}

// View returns the world-to-eye matrix.
func (c *Camera) View() mgl32.Mat4 {
	up := c.Up
	forward := c.Target.Sub(c.Position)
	if forward.LenSqr() == 0 {
		forward = mgl32.Vec3{0, 0, -1}
	}
	if forward.Cross(up).LenSqr() < 1e-12 {
		// Looking straight along the up axis; any perpendicular up will do.
		up = mgl32.Vec3{0, 0, -1}
		if forward[1] < 0 {
			up = mgl32.Vec3{0, 0, 1}
		}
	}
	return mgl32.LookAtV(c.Position, c.Position.Add(forward), up)
}

// Projection returns the OpenGL-style perspective matrix.
func (c *Camera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.Aspect, c.Near, c.Far)
}

// Ray returns the picking ray through a point in normalised device coordinates: it
// starts at the camera and has unit length.
func (c *Camera) Ray(ndc mgl32.Vec2) (origin, direction mgl32.Vec3) {
	inv := c.Projection().Mul4(c.View()).Inv()

	p := inv.Mul4x1(mgl32.Vec4{ndc[0], ndc[1], 0.5, 1})
	if p[3] == 0 {
		return c.Position, c.Target.Sub(c.Position).Normalize()
	}
	point := p.Vec3().Mul(1 / p[3])

	return c.Position, point.Sub(c.Position).Normalize()
}

// Project maps a world point to normalised device coordinates.
func (c *Camera) Project(world mgl32.Vec3) mgl32.Vec3 {
	clip := c.Projection().Mul4(c.View()).Mul4x1(world.Vec4(1))
	return clip.Vec3().Mul(1 / clip[3])
}
