package scene

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is an sRGB colour with components in [0, 1].
type Color struct {
	R, G, B float32
}

// ParseColor reads "#rrggbb" or "#rgb".
func ParseColor(hex string) (Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return Color{}, fmt.Errorf("parsing colour %q: %w", hex, err)
	}
	return Color{R: float32(c.R), G: float32(c.G), B: float32(c.B)}, nil
}

// HexColor converts a 0xRRGGBB literal.
func HexColor(rgb uint32) Color {
	return Color{
		R: float32((rgb>>16)&0xff) / 255,
		G: float32((rgb>>8)&0xff) / 255,
		B: float32(rgb&0xff) / 255,
	}
}

// Linear returns the colour in linear RGB, which is what an sRGB swap chain expects
// shaders to write.
func (c Color) Linear() (r, g, b float32) {
	lr, lg, lb := colorful.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B)}.LinearRgb()
	return float32(lr), float32(lg), float32(lb)
}

// Hex formats the colour as "#rrggbb".
func (c Color) Hex() string {
	return colorful.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B)}.Hex()
}

// Side selects which triangle faces are visible and pickable.
type Side int

const (
	FrontSide Side = iota
	DoubleSide
)

// Material is a flat, unlit colour.
type Material struct {
	Name  string
	Color Color
	Side  Side
}

// NewBasicMaterial returns a front-sided flat material.
func NewBasicMaterial(color Color) *Material {
	return &Material{Name: "basic", Color: color}
}

// ApplyMaterial sets m on every mesh node under root and returns how many nodes were
// changed. Groups, cameras and lights keep their (nil) material.
func ApplyMaterial(root *Node, m *Material) int {
	changed := 0
	root.Traverse(func(n *Node) {
		if n.Kind != KindMesh || n.Mesh == nil {
			return
		}
		n.Material = m
		changed++
	})
	return changed
}
