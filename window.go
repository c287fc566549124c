package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-gl/glfw/v3.3/glfw"

	"cube-navigator/config"
	"cube-navigator/render"
	"cube-navigator/shaders"
)

func openWindow(title string, width, height int) (*glfw.Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw.Init: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	window, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("creating window: %w", err)
	}

	return window, nil
}

func closeWindow(window *glfw.Window) {
	window.Destroy()
	glfw.Terminate()
}

// newRenderer reads the compiled shaders named by cfg and sets up Vulkan for window.
func newRenderer(
	window *glfw.Window,
	cfg config.Config,
	cullBackFaces bool,
) (*render.Renderer, error) {
	program, err := shaders.Load(os.DirFS(cfg.Render.Shaders))
	if err != nil {
		return nil, fmt.Errorf("loading shaders from %s: %w", cfg.Render.Shaders, err)
	}

	background, err := cfg.Background()
	if err != nil {
		return nil, err
	}

	return render.New(window, render.Options{
		AppName:       cfg.Window.Title,
		Validation:    cfg.Render.Validation,
		Program:       program,
		Background:    background,
		CullBackFaces: cullBackFaces,
		Logger:        log.Default(),
	})
}
