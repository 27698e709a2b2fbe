package content

import (
	_ "embed"

	"github.com/cockroachdb/errors"
	"github.com/gogpu/naga"
)

// ShaderSource is the WGSL for the vertex-colored mesh pipeline. Its entry
// points are VertexEntry and FragmentEntry.
//
//go:embed shader.wgsl
var ShaderSource string

const (
	VertexEntry   = "vs_main"
	FragmentEntry = "fs_main"
)

// CompileShader compiles WGSL to SPIR-V words.
func CompileShader(src string) ([]uint32, error) {
	spirv, err := naga.Compile(src)
	if err != nil {
		return nil, errors.Wrap(err, "compile shader")
	}
	if len(spirv)%4 != 0 {
		return nil, errors.Newf("compile shader: %d bytes is not a whole number of words", len(spirv))
	}

	words := make([]uint32, len(spirv)/4)
	for i := range words {
		words[i] = uint32(spirv[i*4]) |
			uint32(spirv[i*4+1])<<8 |
			uint32(spirv[i*4+2])<<16 |
			uint32(spirv[i*4+3])<<24
	}
	return words, nil
}
