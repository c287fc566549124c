// Package session is the state of one viewer window: what is loaded, where the camera
// is, and what a click does. It is used from the window thread only.
package session

import (
	"context"
	"fmt"
	"log"

	"cube-navigator/camera"
	"cube-navigator/events"
	"cube-navigator/loader"
	"cube-navigator/navigate"
	"cube-navigator/pick"
	"cube-navigator/scene"
	"cube-navigator/viewport"
)

// Executor carries out navigation actions.
type Executor interface {
	Execute(ctx context.Context, a navigate.Action) error
}

// Session ties the viewport, camera, orbit controls and loaded model to the click
// policy. Picking is only enabled once a model was loaded and applied.
type Session struct {
	Viewport *viewport.Manager
	Camera   *camera.Camera
	Controls *camera.Orbit
	Root     *scene.Node

	Policy   navigate.Policy
	Executor Executor
	Events   events.Publisher
	Logger   *log.Logger

	model   *loader.Model
	source  string
	pending <-chan loader.Result
	failed  error
}

// New returns a session for a width x height window with an empty scene.
func New(width, height int, policy navigate.Policy, exec Executor, pub events.Publisher, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	if pub == nil {
		pub = events.Discard
	}

	cam := camera.New(1)
	return &Session{
		Viewport: viewport.New(width, height, cam),
		Camera:   cam,
		Controls: camera.NewOrbit(cam),
		Root:     scene.NewGroup("root"),
		Policy:   policy,
		Executor: exec,
		Events:   pub,
		Logger:   logger,
	}
}

// Begin starts loading source in the background. The result is picked up by Poll.
func (s *Session) Begin(ctx context.Context, l *loader.Loader, source string) {
	s.source = source
	s.pending = l.LoadAsync(ctx, source)
}

// Loaded reports whether a model has been applied, which is when clicks start to pick.
func (s *Session) Loaded() bool {
	return s.model != nil
}

// Model returns the applied model, or nil.
func (s *Session) Model() *loader.Model {
	return s.model
}

// Err returns why the load failed, if it did.
func (s *Session) Err() error {
	return s.failed
}

// Poll applies a finished load. It never blocks and reports whether the scene changed.
func (s *Session) Poll() bool {
	if s.pending == nil {
		return false
	}

	var res loader.Result
	select {
	case r, ok := <-s.pending:
		s.pending = nil
		if !ok {
			return false
		}
		res = r
	default:
		return false
	}

	if res.Err != nil {
		s.failed = res.Err
		s.Logger.Printf("An error occurred while loading the model: %s", res.Err)
		s.Events.Publish(events.LoadError(s.source, res.Err))
		return false
	}

	s.apply(res.Model)
	return true
}

// Apply attaches a loaded model right away, bypassing Begin and Poll.
func (s *Session) Apply(m *loader.Model) {
	s.pending = nil
	s.apply(m)
}

func (s *Session) apply(m *loader.Model) {
	s.Root.Add(m.Root)
	s.model = m

	s.Camera.Position = m.Framing.Eye
	s.Controls.SetTarget(m.Framing.Target)

	var names []string
	m.Root.Traverse(func(n *scene.Node) { names = append(names, n.Name) })
	s.Events.Publish(events.Load(m.Source, names))
}

// Click handles a primary-button click at window position (x, y). Before a model is
// loaded it does nothing.
func (s *Session) Click(ctx context.Context, x, y float64) (navigate.Action, error) {
	if s.model == nil {
		return navigate.Action{Kind: navigate.NoOp}, nil
	}

	var picked *scene.Node
	hit, ok := pick.Nearest(x, y, s.Viewport.Width, s.Viewport.Height, s.Camera, s.model.Root)
	if ok {
		picked = hit.Node
		s.Logger.Printf("%s was clicked on", picked.Name)
		s.Events.Publish(events.Pick(x, y, picked.Name, &hit.Point))
	} else {
		s.Events.Publish(events.Pick(x, y, "", nil))
	}

	action := s.Policy.Decide(picked)
	if action.Kind == navigate.NoOp {
		return action, nil
	}

	s.Events.Publish(events.Action(action.Kind.String(), action.Target, action.Message))
	if s.Executor == nil {
		return action, nil
	}
	if err := s.Executor.Execute(ctx, action); err != nil {
		s.Logger.Printf("Click on %s: %s", picked.Name, err)
		return action, fmt.Errorf("executing %s: %w", action, err)
	}
	return action, nil
}

// Resize follows a window size change.
func (s *Session) Resize(width, height int) {
	if s.Viewport.Resize(width, height) {
		s.Events.Publish(events.Resize(width, height))
	}
}

// Drag orbits the camera by a pointer movement in window coordinates.
func (s *Session) Drag(dx, dy float64) {
	s.Controls.Rotate(float32(dx), float32(dy), float32(s.Viewport.Height))
}

// Scroll zooms by a number of wheel notches; positive is towards the target.
func (s *Session) Scroll(dy float64) {
	s.Controls.Zoom(float32(dy))
}

// Update advances the orbit controls by one frame and reports whether the camera moved.
func (s *Session) Update() bool {
	return s.Controls.Update()
}
