package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"

	"cube-navigator/config"
	"cube-navigator/events"
	"cube-navigator/loader"
	"cube-navigator/models"
	"cube-navigator/navigate"
	"cube-navigator/render"
	"cube-navigator/session"
)

// clickSlop is how far in pixels the pointer may travel between press and release for
// the release to still count as a click rather than the end of an orbit drag.
const clickSlop = 4

// viewerApp shows a model and navigates when its target node is clicked.
type viewerApp struct {
	cfg config.Config

	ctx    context.Context
	cancel context.CancelFunc

	window   *glfw.Window
	renderer *render.Renderer
	session  *session.Session

	hub    *events.Hub
	server *events.Server

	pressed      bool
	pressX       float64
	pressY       float64
	lastX, lastY float64
}

func (a *viewerApp) Run() error {
	a.ctx, a.cancel = context.WithCancel(context.Background())
	defer a.cancel()

	window, err := openWindow(a.cfg.Window.Title, a.cfg.Window.Width, a.cfg.Window.Height)
	if err != nil {
		return fmt.Errorf("initWindow: %w", err)
	}
	a.window = window
	defer closeWindow(window)

	a.renderer, err = newRenderer(window, a.cfg, !a.cfg.Model.DoubleSided)
	if err != nil {
		return fmt.Errorf("initVulkan: %w", err)
	}
	defer a.renderer.Destroy()

	if err := a.startEvents(); err != nil {
		return fmt.Errorf("startEvents: %w", err)
	}
	defer a.stopEvents()

	if err := a.initSession(); err != nil {
		return fmt.Errorf("initSession: %w", err)
	}
	a.setCallbacks()

	if err := a.mainLoop(); err != nil {
		return fmt.Errorf("mainLoop: %w", err)
	}

	return nil
}

func (a *viewerApp) startEvents() error {
	if a.cfg.Events.Addr == "" {
		return nil
	}

	a.hub = events.NewHub(log.Default())
	server, err := events.Listen(a.cfg.Events.Addr, a.cfg.Events.Path, a.hub)
	if err != nil {
		return err
	}
	a.server = server

	log.Printf("Event feed on ws://%s%s", server.Addr(), a.cfg.Events.Path)
	go func() {
		if err := server.Serve(); err != nil {
			log.Printf("event feed stopped: %s", err)
		}
	}()

	return nil
}

func (a *viewerApp) stopEvents() {
	if a.server == nil {
		return
	}

	a.hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := a.server.Shutdown(ctx); err != nil {
		log.Printf("shutting down event feed: %s", err)
	}
}

func (a *viewerApp) initSession() error {
	nav := a.cfg.Navigation

	exec, err := navigate.NewExecutor(
		nav.PageURL,
		navigate.BrowserNavigator{Logger: log.Default()},
		navigate.LogNotifier{Logger: log.Default(), Window: a.window, Title: a.cfg.Window.Title},
	)
	if err != nil {
		return err
	}
	if nav.CloseOnNavigate {
		exec.AfterNavigate = func() {
			a.window.SetShouldClose(true)
		}
	}

	policy := navigate.Policy{
		TargetName:  nav.Target,
		Destination: nav.Destination,
		Message:     nav.Message,
	}

	var pub events.Publisher = events.Discard
	if a.hub != nil {
		pub = a.hub
	}

	width, height := a.window.GetSize()
	s := session.New(width, height, policy, exec, pub, log.Default())

	s.Camera.FOV = a.cfg.Camera.FOV
	s.Camera.Near = a.cfg.Camera.Near
	s.Camera.Far = a.cfg.Camera.Far
	s.Controls.EnableDamping = a.cfg.Camera.Damping
	s.Controls.DampingFactor = a.cfg.Camera.DampingFactor

	material, err := a.cfg.Material()
	if err != nil {
		return err
	}

	fsys, source, err := modelSource(a.cfg.Model.Path)
	if err != nil {
		return err
	}
	log.Printf("Loading %s", source)
	s.Begin(a.ctx, loader.New(fsys, material, log.Default()), source)

	a.session = s
	return nil
}

// modelSource returns where the loader reads path from. An empty path is the
// embedded default model.
func modelSource(path string) (fs.FS, string, error) {
	if path == "" {
		return models.FS, models.Default, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("model path %s: %w", path, err)
	}
	return os.DirFS(filepath.Dir(abs)), filepath.Base(abs), nil
}

func (a *viewerApp) setCallbacks() {
	a.window.SetFramebufferSizeCallback(func(_ *glfw.Window, _, _ int) {
		a.renderer.FramebufferResized()
	})

	a.window.SetSizeCallback(func(_ *glfw.Window, width, height int) {
		a.session.Resize(width, height)
	})

	a.window.SetMouseButtonCallback(a.mouseButtonCallback)
	a.window.SetCursorPosCallback(a.cursorPosCallback)

	a.window.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		a.session.Scroll(yoff)
	})
}

func (a *viewerApp) mouseButtonCallback(
	w *glfw.Window,
	button glfw.MouseButton,
	action glfw.Action,
	_ glfw.ModifierKey,
) {
	if button != glfw.MouseButtonLeft {
		return
	}

	x, y := w.GetCursorPos()

	switch action {
	case glfw.Press:
		a.pressed = true
		a.pressX, a.pressY = x, y
		a.lastX, a.lastY = x, y
	case glfw.Release:
		if !a.pressed {
			return
		}
		a.pressed = false
		if math.Hypot(x-a.pressX, y-a.pressY) > clickSlop {
			return
		}
		if _, err := a.session.Click(a.ctx, x, y); err != nil {
			log.Printf("ERROR: %s", err)
		}
	}
}

func (a *viewerApp) cursorPosCallback(_ *glfw.Window, x, y float64) {
	if !a.pressed {
		return
	}
	a.session.Drag(x-a.lastX, y-a.lastY)
	a.lastX, a.lastY = x, y
}

func (a *viewerApp) mainLoop() error {
	log.Printf("main loop!\n")

	cam := a.session.Camera
	model := render.IdentityModel()

	for !a.window.ShouldClose() {
		if a.session.Poll() {
			if err := a.upload(); err != nil {
				return err
			}
		}

		a.session.Update()

		ubo := render.NewUniformBufferObject(model, cam.View(), cam.Projection())
		if err := a.renderer.DrawFrame(ubo); err != nil {
			return fmt.Errorf("error drawing a frame: %w", err)
		}

		glfw.PollEvents()
	}

	a.renderer.Wait()

	return nil
}

func (a *viewerApp) upload() error {
	vertices, indices := render.BuildVertices(a.session.Root)
	if err := a.renderer.Upload(vertices, indices); err != nil {
		return fmt.Errorf("uploading the scene: %w", err)
	}
	return nil
}
