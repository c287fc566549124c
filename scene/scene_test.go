package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	. "github.com/onsi/gomega"
)

func TestTraverseVisitsParentsFirst(t *testing.T) {
	g := NewWithT(t)

	root := NewGroup("root")
	a := NewGroup("a")
	b := NewMeshNode("b", NewBoxMesh(1, 1, 1), nil)
	c := NewMeshNode("c", NewBoxMesh(1, 1, 1), nil)
	a.Add(b)
	root.Add(a, c)

	var names []string
	root.Traverse(func(n *Node) { names = append(names, n.Name) })

	g.Expect(names).To(Equal([]string{"root", "a", "b", "c"}))
	g.Expect(b.Parent()).To(BeIdenticalTo(a))
	g.Expect(root.Find("c")).To(BeIdenticalTo(c))
	g.Expect(root.Find("missing")).To(BeNil())
}

func TestAddReparents(t *testing.T) {
	g := NewWithT(t)

	first := NewGroup("first")
	second := NewGroup("second")
	child := NewGroup("child")

	first.Add(child)
	second.Add(child)

	g.Expect(first.Children).To(BeEmpty())
	g.Expect(second.Children).To(ConsistOf(child))
	g.Expect(child.Parent()).To(BeIdenticalTo(second))
}

func TestApplyMaterialSkipsNonMeshNodes(t *testing.T) {
	g := NewWithT(t)

	root := NewGroup("scene")
	light := NewGroup("sun")
	light.Kind = KindLight
	cube1 := NewMeshNode("cube1", NewBoxMesh(1, 1, 1), nil)
	cube2 := NewMeshNode("cube2", NewBoxMesh(1, 1, 1), nil)
	root.Add(light, cube1, cube2)

	m := NewBasicMaterial(HexColor(0xE03616))
	g.Expect(ApplyMaterial(root, m)).To(Equal(2))

	g.Expect(cube1.Material).To(BeIdenticalTo(m))
	g.Expect(cube2.Material).To(BeIdenticalTo(m))
	g.Expect(root.Material).To(BeNil())
	g.Expect(light.Material).To(BeNil())
}

func TestWorldMatrixComposesParents(t *testing.T) {
	g := NewWithT(t)

	parent := NewGroup("parent")
	parent.Position = mgl32.Vec3{10, 0, 0}
	parent.Scale = mgl32.Vec3{2, 2, 2}

	child := NewGroup("child")
	child.Position = mgl32.Vec3{1, 0, 0}
	parent.Add(child)

	p := mgl32.TransformCoordinate(mgl32.Vec3{}, child.WorldMatrix())
	g.Expect(p.ApproxEqual(mgl32.Vec3{12, 0, 0})).To(BeTrue(), "got %v", p)
}

func TestSetTransformRoundTrip(t *testing.T) {
	g := NewWithT(t)

	src := NewGroup("src")
	src.Position = mgl32.Vec3{1, 2, 3}
	src.Rotation = mgl32.QuatRotate(mgl32.DegToRad(30), mgl32.Vec3{0, 1, 0})
	src.Scale = mgl32.Vec3{2, 3, 4}

	dst := NewGroup("dst")
	dst.SetTransform(src.LocalMatrix())

	g.Expect(dst.Position.ApproxEqual(src.Position)).To(BeTrue())
	g.Expect(dst.Scale.ApproxEqualThreshold(src.Scale, 1e-4)).To(BeTrue())
	g.Expect(dst.Rotation.OrientationEqualThreshold(src.Rotation, 1e-4)).To(BeTrue())
}

func TestBoundsIncludesNestedTransforms(t *testing.T) {
	g := NewWithT(t)

	root := NewGroup("root")
	group := NewGroup("group")
	group.Position = mgl32.Vec3{0, 5, 0}
	cube := NewMeshNode("cube", NewBoxMesh(2, 2, 2), nil)
	cube.Position = mgl32.Vec3{3, 0, 0}
	group.Add(cube)
	root.Add(group, NewGroup("empty"))

	box := Bounds(root)
	g.Expect(box.IsEmpty()).To(BeFalse())
	g.Expect(box.Min.ApproxEqual(mgl32.Vec3{2, 4, -1})).To(BeTrue(), "min %v", box.Min)
	g.Expect(box.Max.ApproxEqual(mgl32.Vec3{4, 6, 1})).To(BeTrue(), "max %v", box.Max)
	g.Expect(box.Center().ApproxEqual(mgl32.Vec3{3, 5, 0})).To(BeTrue())
	g.Expect(box.Size().ApproxEqual(mgl32.Vec3{2, 2, 2})).To(BeTrue())
}

func TestEmptyBox(t *testing.T) {
	g := NewWithT(t)

	box := Bounds(NewGroup("nothing"))
	g.Expect(box.IsEmpty()).To(BeTrue())
	g.Expect(box.Size()).To(Equal(mgl32.Vec3{}))
	g.Expect(box.Center()).To(Equal(mgl32.Vec3{}))

	box.ExpandByPoint(mgl32.Vec3{1, 1, 1})
	g.Expect(box.IsEmpty()).To(BeFalse())
	g.Expect(box.ContainsPoint(mgl32.Vec3{1, 1, 1})).To(BeTrue())
}

func TestFramePlacesEyeInFrontOfBox(t *testing.T) {
	boxes := []Box3{
		{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}},
		{Min: mgl32.Vec3{2, 0, -3}, Max: mgl32.Vec3{6, 1, 5}},
		{Min: mgl32.Vec3{-10, 4, 0.5}, Max: mgl32.Vec3{-9.5, 4.25, 0.75}},
	}

	for _, box := range boxes {
		g := NewWithT(t)

		c, s := box.Center(), box.Size()
		f := Frame(box)

		want := mgl32.Vec3{c[0], c[1] + 0.2*s[1], c[2] + 4*s[2]}
		g.Expect(f.Eye.ApproxEqual(want)).To(BeTrue(), "eye %v, want %v", f.Eye, want)
		g.Expect(f.Target).To(Equal(c))
		g.Expect(f.Center).To(Equal(c))
		g.Expect(f.Size).To(Equal(s))
	}
}

func TestAnchorLowersByFractionOfHeight(t *testing.T) {
	g := NewWithT(t)

	root := NewGroup("model")
	root.Position = mgl32.Vec3{0, 1, 0}
	Anchor(root, Box3{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{1, 500, 1}})

	g.Expect(root.Position[1]).To(BeNumerically("~", 0.5, 1e-6))
}

func TestParseColor(t *testing.T) {
	g := NewWithT(t)

	c, err := ParseColor("#E03616")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(c.Hex()).To(Equal("#e03616"))
	want := HexColor(0xE03616)
	g.Expect(c.R).To(BeNumerically("~", want.R, 1e-6))
	g.Expect(c.G).To(BeNumerically("~", want.G, 1e-6))
	g.Expect(c.B).To(BeNumerically("~", want.B, 1e-6))

	r, gr, b := HexColor(0xFFFFFF).Linear()
	g.Expect([]float32{r, gr, b}).To(HaveEach(BeNumerically("~", 1, 1e-6)))

	_, err = ParseColor("red")
	g.Expect(err).To(HaveOccurred())
}

func TestMeshValid(t *testing.T) {
	g := NewWithT(t)

	m := NewBoxMesh(1, 1, 1)
	g.Expect(m.Valid()).To(BeTrue())
	g.Expect(m.TriangleCount()).To(Equal(12))

	m.Append([]mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, []uint32{0, 1, 2})
	g.Expect(m.TriangleCount()).To(Equal(13))
	a, b, c := m.Triangle(12)
	g.Expect([]mgl32.Vec3{a, b, c}).To(Equal([]mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}))

	m.Indices = append(m.Indices, 99)
	g.Expect(m.Valid()).To(BeFalse())
}
