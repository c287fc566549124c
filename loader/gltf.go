package loader

import (
	"fmt"
	"io/fs"
	"path"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"cube-navigator/scene"
)

const (
	extDraco  = "KHR_draco_mesh_compression"
	extLights = "KHR_lights_punctual"
)

func decodeGLTF(fsys fs.FS, name string) (*scene.Node, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dir, err := fs.Sub(fsys, path.Dir(name))
	if err != nil {
		return nil, err
	}

	doc := new(gltf.Document)
	if err := gltf.NewDecoderFS(f, dir).Decode(doc); err != nil {
		return nil, fmt.Errorf("decoding gltf: %w", err)
	}

	for _, ext := range doc.ExtensionsRequired {
		if ext == extDraco {
			return nil, fmt.Errorf("%w: %s meshes are not decoded", ErrUnsupportedFormat, ext)
		}
	}

	return buildGLTFScene(doc)
}

func buildGLTFScene(doc *gltf.Document) (*scene.Node, error) {
	idx := 0
	if doc.Scene != nil {
		idx = int(*doc.Scene)
	}

	root := scene.NewGroup("Scene")
	if idx < 0 || idx >= len(doc.Scenes) {
		// No scene: every parentless node is a root.
		for _, n := range rootNodes(doc) {
			child, err := buildGLTFNode(doc, n, 0)
			if err != nil {
				return nil, err
			}
			root.Add(child)
		}
		return root, nil
	}

	s := doc.Scenes[idx]
	if s.Name != "" {
		root.Name = s.Name
	}
	for _, n := range s.Nodes {
		child, err := buildGLTFNode(doc, int(n), 0)
		if err != nil {
			return nil, err
		}
		root.Add(child)
	}
	return root, nil
}

func rootNodes(doc *gltf.Document) []int {
	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if ci := int(c); ci >= 0 && ci < len(isChild) {
				isChild[ci] = true
			}
		}
	}

	var roots []int
	for i := range doc.Nodes {
		if !isChild[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

func buildGLTFNode(doc *gltf.Document, i int, depth int) (*scene.Node, error) {
	if i < 0 || i >= len(doc.Nodes) {
		return nil, fmt.Errorf("%w: node %d out of range", ErrCorruptModel, i)
	}
	if depth > len(doc.Nodes) {
		return nil, fmt.Errorf("%w: node %d cyclic hierarchy", ErrCorruptModel, i)
	}
	src := doc.Nodes[i]

	n := scene.NewGroup(src.Name)
	switch {
	case src.Mesh != nil:
		mesh, err := gltfMesh(doc, int(*src.Mesh))
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", src.Name, err)
		}
		n.Kind = scene.KindMesh
		n.Mesh = mesh
	case src.Camera != nil:
		n.Kind = scene.KindCamera
	case src.Extensions[extLights] != nil:
		n.Kind = scene.KindLight
	}

	if mat := mgl32.Mat4(src.MatrixOrDefault()); mat != mgl32.Ident4() {
		n.SetTransform(mat)
	} else {
		r := src.RotationOrDefault()
		n.Position = mgl32.Vec3(src.TranslationOrDefault())
		n.Rotation = mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}
		n.Scale = mgl32.Vec3(src.ScaleOrDefault())
	}

	for _, c := range src.Children {
		child, err := buildGLTFNode(doc, int(c), depth+1)
		if err != nil {
			return nil, err
		}
		n.Add(child)
	}
	return n, nil
}

// gltfMesh merges the triangle primitives of mesh i. Points and lines are skipped.
func gltfMesh(doc *gltf.Document, i int) (*scene.Mesh, error) {
	if i < 0 || i >= len(doc.Meshes) {
		return nil, fmt.Errorf("%w: mesh %d out of range", ErrCorruptModel, i)
	}

	mesh := &scene.Mesh{}
	for p, prim := range doc.Meshes[i].Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}
		if prim.Extensions[extDraco] != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, extDraco)
		}

		a, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		pos, err := accessor(doc, int(a))
		if err != nil {
			return nil, fmt.Errorf("primitive %d positions: %w", p, err)
		}
		positions, err := modeler.ReadPosition(doc, pos, nil)
		if err != nil {
			return nil, fmt.Errorf("primitive %d positions: %w", p, err)
		}

		var indices []uint32
		if prim.Indices != nil {
			idx, err := accessor(doc, int(*prim.Indices))
			if err != nil {
				return nil, fmt.Errorf("primitive %d indices: %w", p, err)
			}
			indices, err = modeler.ReadIndices(doc, idx, nil)
			if err != nil {
				return nil, fmt.Errorf("primitive %d indices: %w", p, err)
			}
		} else {
			indices = make([]uint32, len(positions))
			for k := range indices {
				indices[k] = uint32(k)
			}
		}

		verts := make([]mgl32.Vec3, len(positions))
		for k, v := range positions {
			verts[k] = mgl32.Vec3(v)
		}
		mesh.Append(verts, indices[:len(indices)/3*3])
	}

	if !mesh.Valid() {
		return nil, fmt.Errorf("%w: mesh %d index out of range", ErrCorruptModel, i)
	}
	return mesh, nil
}

func accessor(doc *gltf.Document, i int) (*gltf.Accessor, error) {
	if i < 0 || i >= len(doc.Accessors) {
		return nil, fmt.Errorf("%w: accessor %d out of range", ErrCorruptModel, i)
	}
	return doc.Accessors[i], nil
}
