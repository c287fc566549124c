// Package viewport tracks the window size and converts window coordinates to normalised
// device coordinates.
package viewport

import (
	"github.com/go-gl/mathgl/mgl32"

	"cube-navigator/camera"
)

// Manager owns the size of the drawing area. Sizes are in screen coordinates, the same
// space cursor positions are reported in.
type Manager struct {
	Width  int
	Height int

	Camera *camera.Camera
}

// New returns a manager for a width x height window and sets the camera aspect to match.
func New(width, height int, cam *camera.Camera) *Manager {
	m := &Manager{Camera: cam}
	m.Resize(width, height)
	return m
}

// Resize stores the new size and updates the camera aspect ratio. Zero or negative
// sizes, reported while the window is minimised, are ignored. It reports whether the
// size changed.
func (m *Manager) Resize(width, height int) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	if width == m.Width && height == m.Height {
		return false
	}

	m.Width, m.Height = width, height
	if m.Camera != nil {
		m.Camera.SetAspect(m.Aspect())
	}
	return true
}

// Aspect returns width / height, or 1 before the first valid resize.
func (m *Manager) Aspect() float32 {
	if m.Width <= 0 || m.Height <= 0 {
		return 1
	}
	return float32(m.Width) / float32(m.Height)
}

// Valid reports whether the viewport has a usable size.
func (m *Manager) Valid() bool {
	return m.Width > 0 && m.Height > 0
}

// NDC maps a window point to [-1, 1] on both axes with Y pointing up.
func (m *Manager) NDC(x, y float64) mgl32.Vec2 {
	return NDC(x, y, m.Width, m.Height)
}

// NDC maps a point of a width x height area to [-1, 1] on both axes with Y pointing up.
func NDC(x, y float64, width, height int) mgl32.Vec2 {
	return mgl32.Vec2{
		float32(x/float64(width)*2 - 1),
		float32(-(y/float64(height))*2 + 1),
	}
}
