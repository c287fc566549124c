package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Mesh is an indexed triangle list in the node's local space. Front faces wind
// counter-clockwise.
type Mesh struct {
	Positions []mgl32.Vec3
	Indices   []uint32
}

// TriangleCount returns the number of whole triangles in the index list.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Triangle returns the corners of triangle i.
func (m *Mesh) Triangle(i int) (a, b, c mgl32.Vec3) {
	return m.Positions[m.Indices[3*i]], m.Positions[m.Indices[3*i+1]], m.Positions[m.Indices[3*i+2]]
}

// Valid reports whether every index points at a position.
func (m *Mesh) Valid() bool {
	for _, idx := range m.Indices {
		if int(idx) >= len(m.Positions) {
			return false
		}
	}
	return true
}

// Append adds another triangle list to m, rebasing its indices.
func (m *Mesh) Append(positions []mgl32.Vec3, indices []uint32) {
	base := uint32(len(m.Positions))
	m.Positions = append(m.Positions, positions...)
	for _, idx := range indices {
		m.Indices = append(m.Indices, base+idx)
	}
}

// NewBoxMesh builds an axis-aligned box centred on the origin.
func NewBoxMesh(width, height, depth float32) *Mesh {
	x, y, z := width/2, height/2, depth/2

	return &Mesh{
		Positions: []mgl32.Vec3{
			{-x, -y, z}, {x, -y, z}, {x, y, z}, {-x, y, z},
			{-x, -y, -z}, {x, -y, -z}, {x, y, -z}, {-x, y, -z},
		},
		Indices: []uint32{
			0, 1, 2, 2, 3, 0, // +z
			5, 4, 7, 7, 6, 5, // -z
			1, 5, 6, 6, 2, 1, // +x
			4, 0, 3, 3, 7, 4, // -x
			3, 2, 6, 6, 7, 3, // +y
			4, 5, 1, 1, 0, 4, // -y
		},
	}
}
