// Package shaders holds the flat-colour shader program. The GLSL sources are embedded;
// the compiled SPIR-V is read at start-up from a directory, by default this one after
// running `go generate`.
package shaders

import (
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
)

//go:generate ./compile.sh

// Sources embeds the GLSL the SPIR-V files are compiled from.
//
//go:embed shader.vert shader.frag
var Sources embed.FS

const (
	VertexFile   = "vert.spv"
	FragmentFile = "frag.spv"

	spirvMagic = 0x07230203
)

// ErrNotSPIRV is returned for files which are not SPIR-V modules.
var ErrNotSPIRV = errors.New("not a SPIR-V module")

// Program is the compiled code of both stages.
type Program struct {
	Vertex   []byte
	Fragment []byte
}

// Load reads the compiled program from fsys.
func Load(fsys fs.FS) (Program, error) {
	vert, err := readSPIRV(fsys, VertexFile)
	if err != nil {
		return Program{}, fmt.Errorf("failed to read vertex shader bytecode: %w", err)
	}

	frag, err := readSPIRV(fsys, FragmentFile)
	if err != nil {
		return Program{}, fmt.Errorf("failed to read fragment shader bytecode: %w", err)
	}

	return Program{Vertex: vert, Fragment: frag}, nil
}

func readSPIRV(fsys fs.FS, name string) ([]byte, error) {
	code, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	if len(code) < 4 || len(code)%4 != 0 || binary.LittleEndian.Uint32(code) != spirvMagic {
		return nil, fmt.Errorf("%s: %w", name, ErrNotSPIRV)
	}
	return code, nil
}
