package render

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	. "github.com/onsi/gomega"
	vk "github.com/vulkan-go/vulkan"
	"github.com/xlab/linmath"

	"cube-navigator/scene"
)

func TestVertexLayout(t *testing.T) {
	g := NewWithT(t)

	g.Expect(VertexSize()).To(BeEquivalentTo(24))

	binding := VertexBindingDescription()
	g.Expect(binding.Stride).To(Equal(VertexSize()))

	attrs := VertexAttributeDescriptions()
	g.Expect(attrs[0].Location).To(BeEquivalentTo(0))
	g.Expect(attrs[0].Offset).To(BeEquivalentTo(0))
	g.Expect(attrs[1].Location).To(BeEquivalentTo(1))
	g.Expect(attrs[1].Offset).To(BeEquivalentTo(12))
}

func TestMat4KeepsColumns(t *testing.T) {
	g := NewWithT(t)

	m := mgl32.Translate3D(1, 2, 3)
	out := Mat4(m)

	g.Expect(out[3]).To(Equal(linmath.Vec4{1, 2, 3, 1}))
	g.Expect(out[0]).To(Equal(linmath.Vec4{1, 0, 0, 0}))
}

func TestUniformBufferUsesVulkanClipSpace(t *testing.T) {
	g := NewWithT(t)

	near, far := float32(0.1), float32(100)
	proj := mgl32.Perspective(mgl32.DegToRad(75), 1, near, far)
	ubo := NewUniformBufferObject(IdentityModel(), mgl32.Ident4(), proj)

	clip := func(p mgl32.Vec3) mgl32.Vec3 {
		var m mgl32.Mat4
		for c := 0; c < 4; c++ {
			for r := 0; r < 4; r++ {
				m[c*4+r] = ubo.Proj[c][r]
			}
		}
		v := m.Mul4x1(p.Vec4(1))
		return v.Vec3().Mul(1 / v[3])
	}

	g.Expect(float64(clip(mgl32.Vec3{0, 0, -near})[2])).To(BeNumerically("~", 0, 1e-5))
	g.Expect(float64(clip(mgl32.Vec3{0, 0, -far})[2])).To(BeNumerically("~", 1, 1e-4))

	// A point above the axis lands in the upper half, which is negative Y in Vulkan.
	g.Expect(clip(mgl32.Vec3{0, 1, -5})[1]).To(BeNumerically("<", 0))

	g.Expect(ubo.Model).To(Equal(IdentityModel()))
	g.Expect(ubo.View).To(Equal(Mat4(mgl32.Ident4())))
}

func TestBuildVerticesBakesTransformsAndColours(t *testing.T) {
	g := NewWithT(t)

	red := scene.NewBasicMaterial(scene.HexColor(0xFF0000))

	root := scene.NewGroup("root")
	a := scene.NewMeshNode("a", triangle(), red)
	b := scene.NewMeshNode("b", triangle(), nil)
	b.Position = mgl32.Vec3{10, 0, 0}
	root.Add(a, b, scene.NewGroup("empty"))

	vertices, indices := BuildVertices(root)

	g.Expect(vertices).To(HaveLen(6))
	g.Expect(indices).To(Equal([]uint32{0, 1, 2, 3, 4, 5}))

	g.Expect(vertices[0].Color).To(Equal(linmath.Vec3{1, 0, 0}))
	g.Expect(vertices[4].Pos).To(Equal(linmath.Vec3{11, 0, 0}))

	dr, _, _ := DefaultColor.Linear()
	g.Expect(vertices[3].Color[0]).To(Equal(dr))
}

func TestBuildVerticesKeepsWindingUnderMirror(t *testing.T) {
	g := NewWithT(t)

	root := scene.NewGroup("root")
	n := scene.NewMeshNode("mirrored", triangle(), nil)
	n.Scale = mgl32.Vec3{-1, 1, 1}
	root.Add(n)

	vertices, indices := BuildVertices(root)
	g.Expect(indices).To(Equal([]uint32{0, 2, 1}))

	a, b, c := vertices[indices[0]].Pos, vertices[indices[1]].Pos, vertices[indices[2]].Pos
	ab := mgl32.Vec3{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
	ac := mgl32.Vec3{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
	g.Expect(ab.Cross(ac)[2]).To(BeNumerically(">", 0), "still facing +Z")
}

func TestSwapChainChoices(t *testing.T) {
	g := NewWithT(t)

	formats := []vk.SurfaceFormat{
		{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}
	g.Expect(chooseSwapSurfaceFormat(formats)).To(Equal(formats[1]))
	g.Expect(chooseSwapSurfaceFormat(formats[:1])).To(Equal(formats[0]))

	g.Expect(chooseSwapPresentMode([]vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox})).
		To(Equal(vk.PresentModeMailbox))
	g.Expect(chooseSwapPresentMode([]vk.PresentMode{vk.PresentModeImmediate})).
		To(Equal(vk.PresentModeFifo))

	fixed := vk.SurfaceCapabilities{CurrentExtent: vk.Extent2D{Width: 640, Height: 480}}
	g.Expect(chooseSwapExtent(fixed, 1, 1)).To(Equal(vk.Extent2D{Width: 640, Height: 480}))

	free := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32},
		MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: vk.Extent2D{Width: 1024, Height: 1024},
	}
	g.Expect(chooseSwapExtent(free, 1280, 720)).To(Equal(vk.Extent2D{Width: 1024, Height: 720}))
	g.Expect(chooseSwapExtent(free, -5, 0)).To(Equal(vk.Extent2D{Width: 1, Height: 1}))
}

func TestMissingNames(t *testing.T) {
	g := NewWithT(t)

	g.Expect(missingNames([]string{"a\x00", "b\x00"}, []string{"b\x00", "c\x00"})).
		To(Equal([]string{"a\x00"}))
	g.Expect(missingNames(nil, []string{"x"})).To(BeEmpty())
}

func TestPipelineHelpers(t *testing.T) {
	g := NewWithT(t)

	g.Expect(cullMode(true)).To(Equal(vk.CullModeFlags(vk.CullModeBackBit)))
	g.Expect(cullMode(false)).To(Equal(vk.CullModeFlags(vk.CullModeNone)))

	g.Expect(clearColor(scene.HexColor(0xFFFFFF))).
		To(HaveEach(BeNumerically("~", 1, 1e-6)))
	g.Expect(clearColor(scene.Color{})).To(Equal([]float32{0, 0, 0, 1}))
}

func triangle() *scene.Mesh {
	m := &scene.Mesh{}
	m.Append([]mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, []uint32{0, 1, 2})
	return m
}
