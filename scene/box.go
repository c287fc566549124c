package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Box3 is an axis-aligned bounding box. The zero value is not empty; use EmptyBox.
type Box3 struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// EmptyBox returns a box that any point expands.
func EmptyBox() Box3 {
	inf := float32(math.Inf(1))
	return Box3{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// IsEmpty reports whether the box contains no point.
func (b Box3) IsEmpty() bool {
	return b.Max[0] < b.Min[0] || b.Max[1] < b.Min[1] || b.Max[2] < b.Min[2]
}

// ExpandByPoint grows the box to contain p.
func (b *Box3) ExpandByPoint(p mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		b.Min[i] = min(b.Min[i], p[i])
		b.Max[i] = max(b.Max[i], p[i])
	}
}

// Union grows the box to contain o.
func (b *Box3) Union(o Box3) {
	if o.IsEmpty() {
		return
	}
	b.ExpandByPoint(o.Min)
	b.ExpandByPoint(o.Max)
}

// Center returns the middle of the box, or the origin for an empty box.
func (b Box3) Center() mgl32.Vec3 {
	if b.IsEmpty() {
		return mgl32.Vec3{}
	}
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the extents of the box, or zero for an empty box.
func (b Box3) Size() mgl32.Vec3 {
	if b.IsEmpty() {
		return mgl32.Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// ContainsPoint reports whether p lies inside or on the box.
func (b Box3) ContainsPoint(p mgl32.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// MeshBounds returns the world-space box of a single node's geometry.
func MeshBounds(n *Node) Box3 {
	box := EmptyBox()
	if n.Mesh == nil {
		return box
	}

	world := n.WorldMatrix()
	for _, p := range n.Mesh.Positions {
		box.ExpandByPoint(mgl32.TransformCoordinate(p, world))
	}
	return box
}

// Bounds returns the world-space box of every mesh under root, root included.
func Bounds(root *Node) Box3 {
	box := EmptyBox()
	root.Traverse(func(n *Node) {
		box.Union(MeshBounds(n))
	})
	return box
}
