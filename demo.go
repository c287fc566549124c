package main

import (
	"fmt"
	"log"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/xlab/linmath"

	"cube-navigator/camera"
	"cube-navigator/config"
	"cube-navigator/render"
	"cube-navigator/scene"
)

const (
	demoWidth  = 800
	demoHeight = 600
)

// demoApp spins a red cube in front of a fixed camera. Nothing is loaded and nothing
// can be clicked.
type demoApp struct {
	cfg       config.Config
	startTime time.Time

	window   *glfw.Window
	renderer *render.Renderer
	camera   *camera.Camera
}

func (a *demoApp) Run() error {
	window, err := openWindow(a.cfg.Window.Title, demoWidth, demoHeight)
	if err != nil {
		return fmt.Errorf("initWindow: %w", err)
	}
	a.window = window
	defer closeWindow(window)

	a.renderer, err = newRenderer(window, a.cfg, true)
	if err != nil {
		return fmt.Errorf("initVulkan: %w", err)
	}
	defer a.renderer.Destroy()

	a.camera = camera.New(float32(demoWidth) / demoHeight)
	a.camera.Position = mgl32.Vec3{2, 2, 2}
	a.camera.LookAt(mgl32.Vec3{})

	root := scene.NewGroup("demo")
	root.Add(scene.NewMeshNode(
		"cube",
		scene.NewBoxMesh(1, 1, 1),
		scene.NewBasicMaterial(scene.HexColor(0xFF0000)),
	))

	vertices, indices := render.BuildVertices(root)
	if err := a.renderer.Upload(vertices, indices); err != nil {
		return fmt.Errorf("uploading the cube: %w", err)
	}

	window.SetFramebufferSizeCallback(func(_ *glfw.Window, _, _ int) {
		a.renderer.FramebufferResized()
	})
	window.SetSizeCallback(func(_ *glfw.Window, width, height int) {
		if width > 0 && height > 0 {
			a.camera.SetAspect(float32(width) / float32(height))
		}
	})
	window.SetCursorPosCallback(func(_ *glfw.Window, x, _ float64) {
		log.Printf("Mouse X: %v", x)
	})

	if err := a.mainLoop(); err != nil {
		return fmt.Errorf("mainLoop: %w", err)
	}

	return nil
}

func (a *demoApp) mainLoop() error {
	for !a.window.ShouldClose() {
		ubo := render.NewUniformBufferObject(
			spin(time.Since(a.startTime)),
			a.camera.View(),
			a.camera.Projection(),
		)
		if err := a.renderer.DrawFrame(ubo); err != nil {
			return fmt.Errorf("error drawing a frame: %w", err)
		}

		glfw.PollEvents()
	}

	a.renderer.Wait()

	return nil
}

// spin returns the cube's model matrix after running for elapsed: one radian about Z
// per second.
func spin(elapsed time.Duration) linmath.Mat4x4 {
	var model linmath.Mat4x4
	model.Identity()
	model.RotateZ(&model, float32(elapsed.Seconds()))
	return model
}
