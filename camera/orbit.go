package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// DefaultDampingFactor is the share of a pending rotation applied per update.
	DefaultDampingFactor = 0.05

	polarEpsilon = 1e-6
	settledDelta = 1e-6
)

// Orbit rotates and dollies a camera around a target point. Input accumulates pending
// deltas; Update applies them, a little at a time when damping is enabled.
type Orbit struct {
	Camera *Camera
	Target mgl32.Vec3

	EnableDamping bool
	DampingFactor float32

	RotateSpeed float32
	ZoomSpeed   float32

	MinDistance float32
	MaxDistance float32

	deltaTheta float32
	deltaPhi   float32
	scale      float32
}

// NewOrbit returns controls around the camera's current target.
func NewOrbit(cam *Camera) *Orbit {
	return &Orbit{
		Camera:        cam,
		Target:        cam.Target,
		DampingFactor: DefaultDampingFactor,
		RotateSpeed:   1,
		ZoomSpeed:     1,
		MaxDistance:   float32(math.Inf(1)),
		scale:         1,
	}
}

// SetTarget moves the orbit centre and aims the camera at it.
func (o *Orbit) SetTarget(target mgl32.Vec3) {
	o.Target = target
	o.Camera.LookAt(target)
}

// Rotate queues a rotation for a pointer drag of (dx, dy) pixels. A drag across the
// whole viewport height turns the camera once around.
func (o *Orbit) Rotate(dx, dy, viewportHeight float32) {
	if viewportHeight <= 0 {
		return
	}
	o.deltaTheta -= 2 * math.Pi * dx / viewportHeight * o.RotateSpeed
	o.deltaPhi -= 2 * math.Pi * dy / viewportHeight * o.RotateSpeed
}

// Zoom queues a dolly for a scroll of steps notches; positive moves closer.
func (o *Orbit) Zoom(steps float32) {
	if steps == 0 {
		return
	}
	step := float32(math.Pow(0.95, float64(o.ZoomSpeed)))
	o.scale *= float32(math.Pow(float64(step), float64(steps)))
}

// Pending reports whether an update would still move the camera.
func (o *Orbit) Pending() bool {
	return abs(o.deltaTheta) > settledDelta || abs(o.deltaPhi) > settledDelta || o.scale != 1
}

// Update moves the camera by the pending deltas and re-aims it at the target. It
// reports whether the camera moved.
func (o *Orbit) Update() bool {
	cam := o.Camera
	if !o.Pending() {
		cam.LookAt(o.Target)
		return false
	}

	offset := cam.Position.Sub(o.Target)

	radius := offset.Len()
	theta := float32(math.Atan2(float64(offset[0]), float64(offset[2])))
	phi := float32(math.Pi / 2)
	if radius > 0 {
		phi = float32(math.Acos(float64(mgl32.Clamp(offset[1]/radius, -1, 1))))
	}

	if o.EnableDamping {
		theta += o.deltaTheta * o.DampingFactor
		phi += o.deltaPhi * o.DampingFactor
	} else {
		theta += o.deltaTheta
		phi += o.deltaPhi
	}
	phi = mgl32.Clamp(phi, polarEpsilon, math.Pi-polarEpsilon)

	radius = mgl32.Clamp(radius*o.scale, o.MinDistance, o.MaxDistance)

	sinPhi := float32(math.Sin(float64(phi)))
	offset = mgl32.Vec3{
		radius * sinPhi * float32(math.Sin(float64(theta))),
		radius * float32(math.Cos(float64(phi))),
		radius * sinPhi * float32(math.Cos(float64(theta))),
	}

	before := cam.Position
	cam.Position = o.Target.Add(offset)
	cam.LookAt(o.Target)

	if o.EnableDamping {
		o.deltaTheta *= 1 - o.DampingFactor
		o.deltaPhi *= 1 - o.DampingFactor
	} else {
		o.deltaTheta = 0
		o.deltaPhi = 0
	}
	o.scale = 1

	return cam.Position.Sub(before).LenSqr() > settledDelta*settledDelta
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
