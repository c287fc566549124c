package shaders

import (
	"io/fs"
	"testing"
	"testing/fstest"

	. "github.com/onsi/gomega"
)

var module = []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00}

func TestLoad(t *testing.T) {
	g := NewWithT(t)

	p, err := Load(fstest.MapFS{
		VertexFile:   {Data: module},
		FragmentFile: {Data: module},
	})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(p.Vertex).To(Equal(module))
	g.Expect(p.Fragment).To(Equal(module))
}

func TestLoadRejects(t *testing.T) {
	g := NewWithT(t)

	_, err := Load(fstest.MapFS{VertexFile: {Data: module}})
	g.Expect(err).To(MatchError(fs.ErrNotExist))
	g.Expect(err).To(MatchError(ContainSubstring("fragment shader")))

	_, err = Load(fstest.MapFS{
		VertexFile:   {Data: []byte("#version 450\n")},
		FragmentFile: {Data: module},
	})
	g.Expect(err).To(MatchError(ErrNotSPIRV))
}

func TestSourcesAreEmbedded(t *testing.T) {
	g := NewWithT(t)

	src, err := fs.ReadFile(Sources, "shader.vert")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(string(src)).To(ContainSubstring("ubo.proj * ubo.view * ubo.model"))
}
