package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// FrameLift raises the eye above the centre by this fraction of the model height.
	FrameLift = 0.2

	// FrameDistance moves the eye back along +Z by this multiple of the model depth.
	FrameDistance = 4

	// AnchorFraction is how much of its height a loaded model is lowered by.
	AnchorFraction = 1.0 / 1000
)

// Framing is where a camera goes to show a whole model.
type Framing struct {
	Center mgl32.Vec3
	Size   mgl32.Vec3
	Eye    mgl32.Vec3
	Target mgl32.Vec3
}

// Frame places the eye in front of the box: up by FrameLift of its height and back by
// FrameDistance of its depth, looking at its centre.
func Frame(box Box3) Framing {
	c := box.Center()
	s := box.Size()

	return Framing{
		Center: c,
		Size:   s,
		Eye:    mgl32.Vec3{c[0], c[1] + s[1]*FrameLift, c[2] + s[2]*FrameDistance},
		Target: c,
	}
}

// Anchor lowers root by AnchorFraction of the box height.
func Anchor(root *Node, box Box3) {
	root.Position[1] -= box.Size()[1] * AnchorFraction
}
