package viewport

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	. "github.com/onsi/gomega"

	"cube-navigator/camera"
)

func TestNDCCorners(t *testing.T) {
	g := NewWithT(t)

	m := New(800, 600, nil)

	g.Expect(m.NDC(0, 0)).To(Equal(mgl32.Vec2{-1, 1}))
	g.Expect(m.NDC(800, 600)).To(Equal(mgl32.Vec2{1, -1}))
	g.Expect(m.NDC(400, 300)).To(Equal(mgl32.Vec2{0, 0}))
	g.Expect(m.NDC(200, 450)).To(Equal(mgl32.Vec2{-0.5, -0.5}))
}

func TestResizeUpdatesCameraAspect(t *testing.T) {
	g := NewWithT(t)

	cam := camera.New(1)
	m := New(800, 600, cam)
	g.Expect(cam.Aspect).To(BeNumerically("~", 800.0/600, 1e-6))

	g.Expect(m.Resize(1000, 500)).To(BeTrue())
	g.Expect(cam.Aspect).To(BeNumerically("==", 2))
	g.Expect(m.Aspect()).To(BeNumerically("==", 2))

	g.Expect(m.Resize(1000, 500)).To(BeFalse())
}

func TestResizeIgnoresZeroSizes(t *testing.T) {
	g := NewWithT(t)

	cam := camera.New(1)
	m := New(640, 480, cam)

	g.Expect(m.Resize(0, 480)).To(BeFalse())
	g.Expect(m.Resize(640, 0)).To(BeFalse())
	g.Expect(m.Resize(0, 0)).To(BeFalse())

	g.Expect(m.Width).To(Equal(640))
	g.Expect(m.Height).To(Equal(480))
	g.Expect(cam.Aspect).To(BeNumerically("~", 640.0/480, 1e-6))
	g.Expect(m.Valid()).To(BeTrue())

	g.Expect(New(0, 0, nil).Valid()).To(BeFalse())
	g.Expect(New(0, 0, nil).Aspect()).To(BeNumerically("==", 1))
}
