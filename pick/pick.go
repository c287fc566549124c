// Package pick finds the scene node under a window point by casting a ray from the
// camera through it.
package pick

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"cube-navigator/camera"
	"cube-navigator/scene"
	"cube-navigator/viewport"
)

const epsilon = 1e-7

// Ray is a half-line with a unit direction.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Intersection is one ray hit.
type Intersection struct {
	Node     *scene.Node
	Distance float32
	Point    mgl32.Vec3
}

// FromCamera returns the ray through a point in normalised device coordinates.
func FromCamera(cam *camera.Camera, ndc mgl32.Vec2) Ray {
	origin, dir := cam.Ray(ndc)
	return Ray{Origin: origin, Direction: dir}
}

// Pick returns the nearest node under the window point (x, y), or false when the ray
// hits nothing or the viewport has no area.
func Pick(x, y float64, width, height int, cam *camera.Camera, root *scene.Node) (*scene.Node, bool) {
	hit, ok := Nearest(x, y, width, height, cam, root)
	return hit.Node, ok
}

// Nearest is Pick with the hit distance and point.
func Nearest(x, y float64, width, height int, cam *camera.Camera, root *scene.Node) (Intersection, bool) {
	if width <= 0 || height <= 0 || cam == nil || root == nil {
		return Intersection{}, false
	}

	hits := Intersect(FromCamera(cam, viewport.NDC(x, y, width, height)), root)
	if len(hits) == 0 {
		return Intersection{}, false
	}
	return hits[0], true
}

// Intersect returns every mesh node under root that the ray hits, nearest first. A node
// appears once, at its nearest hit.
func Intersect(ray Ray, root *scene.Node) []Intersection {
	var hits []Intersection
	intersectNode(ray, root, mgl32.Ident4(), &hits)

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	return hits
}

func intersectNode(ray Ray, n *scene.Node, parent mgl32.Mat4, hits *[]Intersection) {
	world := parent.Mul4(n.LocalMatrix())

	if n.Mesh != nil && n.Mesh.TriangleCount() > 0 {
		if hit, ok := intersectMesh(ray, n, world); ok {
			*hits = append(*hits, hit)
		}
	}

	for _, child := range n.Children {
		intersectNode(ray, child, world, hits)
	}
}

func intersectMesh(ray Ray, n *scene.Node, world mgl32.Mat4) (Intersection, bool) {
	mesh := n.Mesh

	corners := make([]mgl32.Vec3, len(mesh.Positions))
	box := scene.EmptyBox()
	for i, p := range mesh.Positions {
		corners[i] = mgl32.TransformCoordinate(p, world)
		box.ExpandByPoint(corners[i])
	}
	if !hitsBox(ray, box) {
		return Intersection{}, false
	}

	cull := n.Material == nil || n.Material.Side == scene.FrontSide
	// Mirrored transforms flip the winding of every triangle.
	mirrored := world.Det() < 0

	best := float32(math.Inf(1))
	for i := 0; i < mesh.TriangleCount(); i++ {
		a := corners[mesh.Indices[3*i]]
		b := corners[mesh.Indices[3*i+1]]
		c := corners[mesh.Indices[3*i+2]]
		if mirrored {
			b, c = c, b
		}

		if t, ok := Triangle(ray, a, b, c, cull); ok && t < best {
			best = t
		}
	}

	if math.IsInf(float64(best), 1) {
		return Intersection{}, false
	}
	return Intersection{Node: n, Distance: best, Point: ray.At(best)}, true
}

// Triangle intersects the ray with triangle abc using the Möller-Trumbore test and
// returns the distance to the hit. With cull set, triangles seen from behind (clockwise
// from the ray origin) are missed.
func Triangle(ray Ray, a, b, c mgl32.Vec3, cull bool) (float32, bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)

	p := ray.Direction.Cross(e2)
	det := e1.Dot(p)

	if cull {
		if det < epsilon {
			return 0, false
		}
	} else if det > -epsilon && det < epsilon {
		return 0, false
	}

	inv := 1 / det
	s := ray.Origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}

	q := s.Cross(e1)
	v := ray.Direction.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t := e2.Dot(q) * inv
	if t < 0 {
		return 0, false
	}
	return t, true
}

// hitsBox is the slab test against an axis-aligned box.
func hitsBox(ray Ray, box scene.Box3) bool {
	if box.IsEmpty() {
		return false
	}

	tmin := float32(math.Inf(-1))
	tmax := float32(math.Inf(1))
	for i := 0; i < 3; i++ {
		o, d := ray.Origin[i], ray.Direction[i]
		if d == 0 {
			if o < box.Min[i] || o > box.Max[i] {
				return false
			}
			continue
		}
		t1 := (box.Min[i] - o) / d
		t2 := (box.Max[i] - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
		if tmin > tmax {
			return false
		}
	}
	return tmax >= 0
}
