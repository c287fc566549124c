package render

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"
	"github.com/xlab/linmath"

	"cube-navigator/scene"
)

// Vertex is one corner of a triangle, already in world space.
type Vertex struct {
	Pos   linmath.Vec3
	Color linmath.Vec3
}

// UniformBufferObject is the block bound at binding 0 of the vertex shader.
type UniformBufferObject struct {
	Model linmath.Mat4x4
	View  linmath.Mat4x4
	Proj  linmath.Mat4x4
}

// vulkanClip maps OpenGL clip space onto Vulkan's: Y points down and depth runs from
// 0 to 1.
var vulkanClip = mgl32.Mat4{
	1, 0, 0, 0,
	0, -1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// DefaultColor is used for meshes without a material.
var DefaultColor = scene.Color{R: 0.8, G: 0.8, B: 0.8}

func VertexSize() uint32 {
	return uint32(unsafe.Sizeof(Vertex{}))
}

func VertexBindingDescription() vk.VertexInputBindingDescription {
	return vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    VertexSize(),
		InputRate: vk.VertexInputRateVertex,
	}
}

func VertexAttributeDescriptions() [2]vk.VertexInputAttributeDescription {
	return [2]vk.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Pos)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Color)),
		},
	}
}

// Mat4 converts a column-major mgl32 matrix into the shader layout.
func Mat4(m mgl32.Mat4) linmath.Mat4x4 {
	var out linmath.Mat4x4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			out[c][r] = m[c*4+r]
		}
	}
	return out
}

// NewUniformBufferObject fills the block from OpenGL-convention matrices, such as the
// ones returned by camera.Camera.
func NewUniformBufferObject(model linmath.Mat4x4, view, proj mgl32.Mat4) UniformBufferObject {
	return UniformBufferObject{
		Model: model,
		View:  Mat4(view),
		Proj:  Mat4(vulkanClip.Mul4(proj)),
	}
}

// IdentityModel returns the model matrix for geometry built by BuildVertices.
func IdentityModel() linmath.Mat4x4 {
	var m linmath.Mat4x4
	m.Identity()
	return m
}

// BuildVertices flattens every mesh under root into one vertex and index list. The
// node transforms are baked into the positions, and each vertex takes the linear
// colour of its node's material.
func BuildVertices(root *scene.Node) ([]Vertex, []uint32) {
	var (
		vertices []Vertex
		indices  []uint32
	)

	root.Traverse(func(n *scene.Node) {
		if n.Mesh == nil || !n.Mesh.Valid() {
			return
		}

		color := DefaultColor
		if n.Material != nil {
			color = n.Material.Color
		}
		cr, cg, cb := color.Linear()

		base := uint32(len(vertices))
		world := n.WorldMatrix()
		for _, p := range n.Mesh.Positions {
			w := mgl32.TransformCoordinate(p, world)
			vertices = append(vertices, Vertex{
				Pos:   linmath.Vec3{w[0], w[1], w[2]},
				Color: linmath.Vec3{cr, cg, cb},
			})
		}

		// A mirroring transform turns counter-clockwise triangles clockwise.
		mirrored := world.Det() < 0
		for i := 0; i+2 < len(n.Mesh.Indices); i += 3 {
			a, b, c := n.Mesh.Indices[i], n.Mesh.Indices[i+1], n.Mesh.Indices[i+2]
			if mirrored {
				b, c = c, b
			}
			indices = append(indices, base+a, base+b, base+c)
		}
	})

	return vertices, indices
}

func clearColor(c scene.Color) []float32 {
	r, g, b := c.Linear()
	return []float32{r, g, b, 1}
}
