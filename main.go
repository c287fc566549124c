package main

import (
	"flag"
	"log"
	"runtime"
	"time"

	"cube-navigator/config"
)

func init() {
	// This is needed to arrange that main() runs on main thread.
	// See documentation for functions that are only allowed to be called
	// from the main thread.
	runtime.LockOSThread()

	flag.StringVar(&args.config, "config", "", "TOML file with viewer settings")
	flag.StringVar(&args.model, "model", "", "Model file (.glb, .gltf or .obj) to load "+
		"instead of the embedded cubes")
	flag.BoolVar(&args.demo, "demo", false, "Show the spinning cube demo instead of a model")
	flag.BoolVar(&args.debug, "debug", false, "Enable Vulkan validation layers")
	flag.StringVar(&args.events, "events", "", "Address to serve the websocket event feed on")
	flag.StringVar(&args.shaders, "shaders", "", "Directory with the compiled vert.spv and frag.spv")
}

var args struct {
	config  string
	model   string
	demo    bool
	debug   bool
	events  string
	shaders string
}

type app interface {
	Run() error
}

func main() {
	flag.Parse()

	cfg, err := config.Load(args.config)
	if err != nil {
		log.Fatalf("ERROR: %s", err)
	}
	applyFlags(&cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("ERROR: %s", err)
	}

	if args.debug {
		if out, err := cfg.Encode(); err == nil {
			log.Printf("Effective settings:\n%s", out)
		}
	}

	var a app = &viewerApp{cfg: cfg}
	if args.demo {
		a = &demoApp{cfg: cfg, startTime: time.Now()}
	}

	if err := a.Run(); err != nil {
		log.Fatalf("ERROR: %s", err)
	}
}

// applyFlags lets the command line override the settings file.
func applyFlags(cfg *config.Config) {
	if args.model != "" {
		cfg.Model.Path = args.model
	}
	if args.debug {
		cfg.Render.Validation = true
	}
	if args.events != "" {
		cfg.Events.Addr = args.events
	}
	if args.shaders != "" {
		cfg.Render.Shaders = args.shaders
	}
}
