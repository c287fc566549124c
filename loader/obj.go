package loader

import (
	"fmt"
	"io/fs"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mokiat/go-data-front/decoder/obj"

	"cube-navigator/scene"
)

func decodeOBJ(fsys fs.FS, name string) (*scene.Node, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	model, err := obj.NewDecoder(obj.DefaultLimits()).Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding obj: %w", err)
	}

	root := scene.NewGroup("Scene")
	for _, object := range model.Objects {
		mesh := &scene.Mesh{}

		for _, m := range object.Meshes {
			for _, face := range m.Faces {
				refs := face.References
				if len(refs) < 3 {
					continue
				}

				// Fan out from the first corner; faces are assumed convex.
				corners := make([]mgl32.Vec3, len(refs))
				for i, ref := range refs {
					if ref.VertexIndex < 0 || ref.VertexIndex >= int64(len(model.Vertices)) {
						return nil, fmt.Errorf("%w: object %q references vertex %d of %d",
							ErrCorruptModel, object.Name, ref.VertexIndex+1, len(model.Vertices))
					}
					v := model.GetVertexFromReference(ref)
					corners[i] = mgl32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
				}
				indices := make([]uint32, 0, 3*(len(refs)-2))
				for i := 1; i+1 < len(refs); i++ {
					indices = append(indices, 0, uint32(i), uint32(i+1))
				}
				mesh.Append(corners, indices)
			}
		}

		if mesh.TriangleCount() == 0 {
			root.Add(scene.NewGroup(object.Name))
			continue
		}
		root.Add(scene.NewMeshNode(object.Name, mesh, nil))
	}
	return root, nil
}
