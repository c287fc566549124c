// Package scene holds the in-memory scene graph: named nodes with transforms, triangle
// meshes and flat materials.
package scene

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Kind tells what a node stands for in the source asset.
type Kind int

const (
	KindGroup Kind = iota
	KindMesh
	KindCamera
	KindLight
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "Group"
	case KindMesh:
		return "Mesh"
	case KindCamera:
		return "Camera"
	case KindLight:
		return "Light"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Node is one element of the scene hierarchy. Names come from the asset and may be empty
// or repeated.
type Node struct {
	Name string
	Kind Kind

	// Mesh is nil for everything but mesh nodes.
	Mesh     *Mesh
	Material *Material

	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3

	Children []*Node
	parent   *Node
}

// NewGroup returns an empty group node with an identity transform.
func NewGroup(name string) *Node {
	return &Node{
		Name:     name,
		Kind:     KindGroup,
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// NewMeshNode returns a mesh node with an identity transform.
func NewMeshNode(name string, mesh *Mesh, material *Material) *Node {
	n := NewGroup(name)
	n.Kind = KindMesh
	n.Mesh = mesh
	n.Material = material
	return n
}

// Add appends children to n, detaching them from their previous parent.
func (n *Node) Add(children ...*Node) *Node {
	for _, child := range children {
		if child == nil || child == n {
			continue
		}
		if child.parent != nil {
			child.parent.Remove(child)
		}
		child.parent = n
		n.Children = append(n.Children, child)
	}
	return n
}

// Remove detaches child from n. It reports whether child was found.
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// Parent returns the node n is attached to, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Traverse calls fn for n and every descendant, parents before children, in child order.
func (n *Node) Traverse(fn func(*Node)) {
	fn(n)
	for _, child := range n.Children {
		child.Traverse(fn)
	}
}

// Find returns the first node in traversal order with the given name.
func (n *Node) Find(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, child := range n.Children {
		if found := child.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// LocalMatrix returns translation * rotation * scale.
func (n *Node) LocalMatrix() mgl32.Mat4 {
	t := mgl32.Translate3D(n.Position[0], n.Position[1], n.Position[2])
	r := n.Rotation.Normalize().Mat4()
	s := mgl32.Scale3D(n.Scale[0], n.Scale[1], n.Scale[2])
	return t.Mul4(r).Mul4(s)
}

// WorldMatrix composes the local matrices from the root down to n. It is recomputed on
// every call.
func (n *Node) WorldMatrix() mgl32.Mat4 {
	m := n.LocalMatrix()
	for p := n.parent; p != nil; p = p.parent {
		m = p.LocalMatrix().Mul4(m)
	}
	return m
}

// SetTransform decomposes a column-major affine matrix into position, rotation and scale.
// Shear is lost.
func (n *Node) SetTransform(m mgl32.Mat4) {
	n.Position = mgl32.Vec3{m[12], m[13], m[14]}

	sx := m.Col(0).Vec3().Len()
	sy := m.Col(1).Vec3().Len()
	sz := m.Col(2).Vec3().Len()
	if m.Det() < 0 {
		sx = -sx
	}
	n.Scale = mgl32.Vec3{sx, sy, sz}

	if sx == 0 || sy == 0 || sz == 0 {
		n.Rotation = mgl32.QuatIdent()
		return
	}

	var rot mgl32.Mat4
	for i := 0; i < 3; i++ {
		rot[i] = m[i] / sx
		rot[4+i] = m[4+i] / sy
		rot[8+i] = m[8+i] / sz
	}
	rot[15] = 1
	n.Rotation = mgl32.Mat4ToQuat(rot).Normalize()
}

// String renders the node the way it is printed when a model is loaded.
func (n *Node) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %q", n.Kind, n.Name)
	if n.Mesh != nil {
		fmt.Fprintf(&b, " (%d vertices, %d triangles)", len(n.Mesh.Positions), n.Mesh.TriangleCount())
	}
	fmt.Fprintf(&b, " position=%v", n.Position)
	if len(n.Children) > 0 {
		fmt.Fprintf(&b, " children=%d", len(n.Children))
	}
	return b.String()
}
