// Package loader reads model files into scene graphs and prepares them for display: one
// flat material everywhere, a bounding box, a small downward anchor shift and a camera
// framing.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path"
	"strings"

	"cube-navigator/scene"
)

var (
	// ErrUnsupportedFormat is returned for files no decoder handles.
	ErrUnsupportedFormat = errors.New("unsupported model format")

	// ErrEmptyModel is returned when a file decodes to no triangles.
	ErrEmptyModel = errors.New("model has no mesh geometry")

	// ErrCorruptModel is returned when a file refers to data it does not contain.
	ErrCorruptModel = errors.New("corrupt model")
)

// Error is a failed load.
type Error struct {
	Source string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("loading %s: %s", e.Source, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Model is a loaded, prepared model.
type Model struct {
	Source string
	Root   *scene.Node

	// Bounds and Framing are taken before the anchor shift.
	Bounds  scene.Box3
	Framing scene.Framing
}

// Result is what LoadAsync delivers.
type Result struct {
	Model *Model
	Err   error
}

// decoder turns the named file of fsys into an unprepared node tree.
type decoder func(fsys fs.FS, name string) (*scene.Node, error)

var decoders = map[string]decoder{
	".glb":  decodeGLTF,
	".gltf": decodeGLTF,
	".obj":  decodeOBJ,
}

// Loader reads models from FS and paints them with Material.
type Loader struct {
	FS       fs.FS
	Material *scene.Material
	Logger   *log.Logger
}

// New returns a loader for fsys. A nil material leaves the decoded nodes unpainted.
func New(fsys fs.FS, material *scene.Material, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{FS: fsys, Material: material, Logger: logger}
}

// Load reads and prepares source. Every failure is an *Error, including a decoder panic.
func (l *Loader) Load(ctx context.Context, source string) (m *Model, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, &Error{Source: source, Err: fmt.Errorf("%w: %v", ErrCorruptModel, r)}
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, &Error{Source: source, Err: err}
	}

	decode, ok := decoders[strings.ToLower(path.Ext(source))]
	if !ok {
		return nil, &Error{Source: source, Err: fmt.Errorf("%w: %q", ErrUnsupportedFormat, path.Ext(source))}
	}

	root, err := decode(l.FS, source)
	if err != nil {
		return nil, &Error{Source: source, Err: err}
	}

	m, err = l.prepare(source, root)
	if err != nil {
		return nil, &Error{Source: source, Err: err}
	}
	return m, nil
}

// LoadAsync loads source on its own goroutine. The channel receives exactly one Result
// and is then closed; nobody has to read it.
func (l *Loader) LoadAsync(ctx context.Context, source string) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		m, err := l.Load(ctx, source)
		ch <- Result{Model: m, Err: err}
	}()
	return ch
}

func (l *Loader) prepare(source string, root *scene.Node) (*Model, error) {
	triangles := 0
	root.Traverse(func(n *scene.Node) {
		if n.Mesh != nil {
			triangles += n.Mesh.TriangleCount()
		}
	})
	if triangles == 0 {
		return nil, ErrEmptyModel
	}

	l.Logger.Println("Child models:")
	root.Traverse(func(n *scene.Node) {
		l.Logger.Printf("  %s", n)
	})

	if l.Material != nil {
		scene.ApplyMaterial(root, l.Material)
	}

	box := scene.Bounds(root)
	framing := scene.Frame(box)
	scene.Anchor(root, box)

	return &Model{
		Source:  source,
		Root:    root,
		Bounds:  box,
		Framing: framing,
	}, nil
}
