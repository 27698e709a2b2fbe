// Package content provides the mesh, shader and per-frame uniforms drawn by
// the render loop, and adapts them to a Vulkan device.
package content

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

// Options selects what Load prepares.
type Options struct {
	// MeshPath is an OBJ file to draw. The built-in cube is used when empty.
	MeshPath string
	// MaterialPath is the OBJ material library, if any.
	MaterialPath string
	// ShaderSource overrides the built-in WGSL.
	ShaderSource string
}

// Assets are the device-independent inputs of a Scene.
type Assets struct {
	SPIRV []uint32
	Mesh  Mesh
}

// Load compiles the shader and loads the mesh concurrently.
func Load(ctx context.Context, opts Options) (Assets, error) {
	var assets Assets
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		src := opts.ShaderSource
		if src == "" {
			src = ShaderSource
		}
		spirv, err := CompileShader(src)
		if err != nil {
			return err
		}
		assets.SPIRV = spirv
		return ctx.Err()
	})

	g.Go(func() error {
		mesh, err := loadMesh(opts)
		if err != nil {
			return err
		}
		assets.Mesh = mesh
		return ctx.Err()
	})

	if err := g.Wait(); err != nil {
		return Assets{}, err
	}
	return assets, nil
}

func loadMesh(opts Options) (Mesh, error) {
	if opts.MeshPath == "" {
		return Cube(), nil
	}

	meshFile, err := os.Open(opts.MeshPath)
	if err != nil {
		return Mesh{}, errors.Wrap(err, "open mesh")
	}
	defer meshFile.Close()

	if opts.MaterialPath == "" {
		return LoadOBJ(meshFile, nil)
	}

	matFile, err := os.Open(opts.MaterialPath)
	if err != nil {
		return Mesh{}, errors.Wrap(err, "open material")
	}
	defer matFile.Close()

	return LoadOBJ(meshFile, matFile)
}
