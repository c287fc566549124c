package navigate

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"

	. "github.com/onsi/gomega"

	"cube-navigator/scene"
)

func TestDecide(t *testing.T) {
	g := NewWithT(t)
	p := DefaultPolicy()

	g.Expect(p.Decide(nil)).To(Equal(Action{Kind: NoOp}))
	g.Expect(p.Decide(scene.NewGroup("cube2"))).To(Equal(Action{Kind: Navigate, Target: "../home"}))
	g.Expect(p.Decide(scene.NewGroup("cube1"))).To(Equal(Action{
		Kind:    Inform,
		Message: "Clicking this cube (cube1) doesn't take you anywhere",
	}))
	g.Expect(p.Decide(scene.NewGroup(""))).To(HaveField("Kind", Inform))
	g.Expect(p.Decide(scene.NewGroup("Cube2"))).To(HaveField("Kind", Inform))
}

func TestDecideIsPure(t *testing.T) {
	g := NewWithT(t)
	p := DefaultPolicy()

	// Different nodes with the same name decide the same way.
	a := scene.NewMeshNode("cube2", scene.NewBoxMesh(1, 1, 1), nil)
	b := scene.NewGroup("cube2")
	g.Expect(p.Decide(a)).To(Equal(p.Decide(b)))
	g.Expect(p.Decide(a)).To(Equal(p.Decide(a)))
}

type recorder struct {
	navigated []string
	notified  []string
	err       error
}

func (r *recorder) Navigate(_ context.Context, target string) error {
	r.navigated = append(r.navigated, target)
	return r.err
}

func (r *recorder) Notify(_ context.Context, message string) error {
	r.notified = append(r.notified, message)
	return r.err
}

func TestExecuteResolvesAgainstPageURL(t *testing.T) {
	g := NewWithT(t)

	rec := &recorder{}
	closed := 0
	e, err := NewExecutor("http://localhost:8080/cubes/", rec, rec)
	g.Expect(err).NotTo(HaveOccurred())
	e.AfterNavigate = func() { closed++ }

	g.Expect(e.Execute(context.Background(), Action{Kind: Navigate, Target: "../home"})).To(Succeed())
	g.Expect(rec.navigated).To(Equal([]string{"http://localhost:8080/home"}))
	g.Expect(closed).To(Equal(1))

	g.Expect(e.Execute(context.Background(), Action{Kind: Inform, Message: "hi"})).To(Succeed())
	g.Expect(rec.notified).To(Equal([]string{"hi"}))

	g.Expect(e.Execute(context.Background(), Action{Kind: NoOp})).To(Succeed())
	g.Expect(rec.navigated).To(HaveLen(1))
	g.Expect(rec.notified).To(HaveLen(1))
	g.Expect(closed).To(Equal(1))
}

func TestExecuteReportsFailures(t *testing.T) {
	g := NewWithT(t)

	boom := errors.New("boom")
	rec := &recorder{err: boom}
	closed := false
	e, err := NewExecutor("http://localhost:8080/cubes/", rec, rec)
	g.Expect(err).NotTo(HaveOccurred())
	e.AfterNavigate = func() { closed = true }

	err = e.Execute(context.Background(), Action{Kind: Navigate, Target: "../home"})
	g.Expect(err).To(MatchError(boom))
	g.Expect(err).To(MatchError(ContainSubstring("http://localhost:8080/home")))
	g.Expect(closed).To(BeFalse())

	g.Expect(e.Execute(context.Background(), Action{Kind: Inform, Message: "x"})).To(MatchError(boom))

	e.Navigator = nil
	g.Expect(e.Execute(context.Background(), Action{Kind: Navigate, Target: "/"})).To(HaveOccurred())

	g.Expect(e.Execute(context.Background(), Action{Kind: Kind(42)})).To(MatchError(ContainSubstring("Kind(42)")))
}

func TestResolveWithoutBase(t *testing.T) {
	g := NewWithT(t)

	e := &Executor{}
	g.Expect(e.Resolve("https://example.com/a")).To(Equal("https://example.com/a"))
}

type title struct{ value string }

func (t *title) SetTitle(s string) { t.value = s }

func TestLogNotifier(t *testing.T) {
	g := NewWithT(t)

	var buf bytes.Buffer
	win := &title{}
	n := LogNotifier{Logger: log.New(&buf, "", 0), Window: win, Title: "Cubes"}

	g.Expect(n.Notify(context.Background(), DefaultMessage)).To(Succeed())
	g.Expect(buf.String()).To(Equal(DefaultMessage + "\n"))
	g.Expect(win.value).To(Equal("Cubes - " + DefaultMessage))
}

func TestBrowserNavigatorHonoursCancelledContext(t *testing.T) {
	g := NewWithT(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := BrowserNavigator{}.Navigate(ctx, "http://localhost:8080/home")
	g.Expect(err).To(MatchError(context.Canceled))
}

func TestActionString(t *testing.T) {
	g := NewWithT(t)

	g.Expect(Action{Kind: Navigate, Target: "../home"}.String()).To(Equal("navigate to ../home"))
	g.Expect(Action{Kind: Inform, Message: "m"}.String()).To(Equal(`inform "m"`))
	g.Expect(Action{}.String()).To(Equal("noop"))
}
