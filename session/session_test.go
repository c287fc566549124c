package session

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sync"
	"testing"

	. "github.com/onsi/gomega"

	"cube-navigator/events"
	"cube-navigator/loader"
	"cube-navigator/models"
	"cube-navigator/navigate"
	"cube-navigator/scene"
)

const (
	width  = 800
	height = 600
)

type executed struct {
	actions []navigate.Action
	err     error
}

func (e *executed) Execute(_ context.Context, a navigate.Action) error {
	e.actions = append(e.actions, a)
	return e.err
}

type published struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *published) Publish(e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *published) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	s    *Session
	exec *executed
	pub  *published
	logs *bytes.Buffer
}

func newFixture() *fixture {
	f := &fixture{exec: &executed{}, pub: &published{}, logs: &bytes.Buffer{}}
	f.s = New(width, height, navigate.DefaultPolicy(), f.exec, f.pub, log.New(f.logs, "", 0))
	return f
}

func (f *fixture) load(g *WithT, source string) {
	l := loader.New(models.FS, scene.NewBasicMaterial(scene.HexColor(0xE03616)), log.New(&bytes.Buffer{}, "", 0))
	f.s.Begin(context.Background(), l, source)
	g.Eventually(f.s.Poll).Should(BeTrue())
}

// screenOf returns where the centre of the named node's geometry is drawn. OBJ nodes keep
// their vertices in model space, so the node origin is not on the mesh.
func (f *fixture) screenOf(name string) (float64, float64) {
	n := f.s.Root.Find(name)
	ndc := f.s.Camera.Project(scene.MeshBounds(n).Center())
	return float64(ndc.X()+1) / 2 * width, float64(1-ndc.Y()) / 2 * height
}

func TestClickBeforeLoadDoesNothing(t *testing.T) {
	g := NewWithT(t)
	f := newFixture()

	a, err := f.s.Click(context.Background(), width/2, height/2)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(a.Kind).To(Equal(navigate.NoOp))
	g.Expect(f.exec.actions).To(BeEmpty())
	g.Expect(f.pub.types()).To(BeEmpty())
	g.Expect(f.s.Poll()).To(BeFalse())
}

func TestLoadEnablesPickingAndFramesCamera(t *testing.T) {
	g := NewWithT(t)
	f := newFixture()

	f.load(g, models.Default)

	g.Expect(f.s.Loaded()).To(BeTrue())
	g.Expect(f.s.Err()).NotTo(HaveOccurred())
	m := f.s.Model()
	g.Expect(f.s.Camera.Position).To(Equal(m.Framing.Eye))
	g.Expect(f.s.Camera.Target).To(Equal(m.Framing.Target))
	g.Expect(f.s.Controls.Target).To(Equal(m.Framing.Target))
	g.Expect(m.Root.Parent()).To(BeIdenticalTo(f.s.Root))
	g.Expect(f.pub.types()).To(Equal([]string{events.TypeLoad}))

	// Later polls have nothing left to apply.
	g.Expect(f.s.Poll()).To(BeFalse())
}

func TestClickOnCube2Navigates(t *testing.T) {
	g := NewWithT(t)
	f := newFixture()
	f.load(g, models.Default)

	x, y := f.screenOf("cube2")
	a, err := f.s.Click(context.Background(), x, y)

	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(a).To(Equal(navigate.Action{Kind: navigate.Navigate, Target: "../home"}))
	g.Expect(f.exec.actions).To(Equal([]navigate.Action{a}))
	g.Expect(f.logs.String()).To(ContainSubstring("cube2 was clicked on\n"))
	g.Expect(f.pub.types()).To(Equal([]string{events.TypeLoad, events.TypePick, events.TypeAction}))
}

func TestClickOnCube1Informs(t *testing.T) {
	g := NewWithT(t)
	f := newFixture()
	f.load(g, "cubes.obj")

	x, y := f.screenOf("cube1")
	a, err := f.s.Click(context.Background(), x, y)

	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(a.Kind).To(Equal(navigate.Inform))
	g.Expect(a.Message).To(Equal("Clicking this cube (cube1) doesn't take you anywhere"))
	g.Expect(f.logs.String()).To(ContainSubstring("cube1 was clicked on\n"))
}

func TestClickResolvesInBothFormats(t *testing.T) {
	for _, source := range []string{"cubes.glb", "cubes.obj"} {
		t.Run(source, func(t *testing.T) {
			g := NewWithT(t)
			f := newFixture()
			f.load(g, source)

			x, y := f.screenOf("cube1")
			a, err := f.s.Click(context.Background(), x, y)
			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(a.Kind).To(Equal(navigate.Inform))

			x, y = f.screenOf("cube2")
			a, err = f.s.Click(context.Background(), x, y)
			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(a).To(Equal(navigate.Action{Kind: navigate.Navigate, Target: "../home"}))
		})
	}
}

func TestClickOnBackgroundIsNoOp(t *testing.T) {
	g := NewWithT(t)
	f := newFixture()
	f.load(g, models.Default)

	a, err := f.s.Click(context.Background(), 1, 1)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(a.Kind).To(Equal(navigate.NoOp))
	g.Expect(f.exec.actions).To(BeEmpty())
	g.Expect(f.pub.types()).To(Equal([]string{events.TypeLoad, events.TypePick}))
}

func TestFailedLoadKeepsPickingDisabled(t *testing.T) {
	g := NewWithT(t)
	f := newFixture()

	l := loader.New(models.FS, nil, log.New(&bytes.Buffer{}, "", 0))
	f.s.Begin(context.Background(), l, "missing.glb")
	g.Eventually(func() error {
		f.s.Poll()
		return f.s.Err()
	}).Should(HaveOccurred())

	g.Expect(f.s.Loaded()).To(BeFalse())
	g.Expect(f.logs.String()).To(HavePrefix("An error occurred while loading the model: "))
	g.Expect(f.pub.types()).To(Equal([]string{events.TypeLoadError}))

	a, err := f.s.Click(context.Background(), width/2, height/2)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(a.Kind).To(Equal(navigate.NoOp))
}

func TestExecutorFailureIsReturned(t *testing.T) {
	g := NewWithT(t)
	f := newFixture()
	f.exec.err = errors.New("no browser")
	f.load(g, models.Default)

	x, y := f.screenOf("cube2")
	a, err := f.s.Click(context.Background(), x, y)
	g.Expect(a.Kind).To(Equal(navigate.Navigate))
	g.Expect(err).To(MatchError(f.exec.err))
}

func TestResizeAndControls(t *testing.T) {
	g := NewWithT(t)
	f := newFixture()
	f.load(g, models.Default)

	f.s.Resize(0, 0)
	g.Expect(f.s.Viewport.Width).To(Equal(width))

	f.s.Resize(1000, 500)
	g.Expect(f.s.Camera.Aspect).To(BeNumerically("==", 2))
	g.Expect(f.pub.types()).To(ContainElement(events.TypeResize))

	before := f.s.Camera.Position
	f.s.Drag(50, 0)
	g.Expect(f.s.Update()).To(BeTrue())
	g.Expect(f.s.Camera.Position).NotTo(Equal(before))

	distance := f.s.Camera.Position.Sub(f.s.Controls.Target).Len()
	f.s.Controls.EnableDamping = false
	f.s.Scroll(1)
	f.s.Update()
	g.Expect(f.s.Camera.Position.Sub(f.s.Controls.Target).Len()).To(BeNumerically("<", distance))
}
