package content

import (
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is the layout of the vertex buffer: two tightly packed vec3s.
type Vertex struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
}

// Mesh is an indexed triangle list.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// Cube is a unit cube with a distinct color at each corner.
func Cube() Mesh {
	vertices := []Vertex{
		{Position: mgl32.Vec3{-1, -1, -1}, Color: mgl32.Vec3{1, 0, 0}},
		{Position: mgl32.Vec3{1, -1, -1}, Color: mgl32.Vec3{0, 1, 0}},
		{Position: mgl32.Vec3{1, 1, -1}, Color: mgl32.Vec3{0, 0, 1}},
		{Position: mgl32.Vec3{-1, 1, -1}, Color: mgl32.Vec3{1, 1, 0}},
		{Position: mgl32.Vec3{-1, -1, 1}, Color: mgl32.Vec3{1, 0, 1}},
		{Position: mgl32.Vec3{1, -1, 1}, Color: mgl32.Vec3{0, 1, 1}},
		{Position: mgl32.Vec3{1, 1, 1}, Color: mgl32.Vec3{1, 1, 1}},
		{Position: mgl32.Vec3{-1, 1, 1}, Color: mgl32.Vec3{0.2, 0.6, 1}},
	}
	indices := []uint32{
		0, 1, 2, 2, 3, 0,
		4, 5, 6, 6, 7, 4,
		4, 5, 1, 1, 0, 4,
		7, 6, 2, 2, 3, 7,
		4, 0, 3, 3, 7, 4,
		5, 1, 2, 2, 6, 5,
	}
	return Mesh{Vertices: vertices, Indices: indices}
}

// LoadOBJ decodes a Wavefront OBJ mesh, fanning polygons into triangles.
// mtl may be nil. OBJ vertices carry no color, so one is derived from the
// position.
func LoadOBJ(objFile io.Reader, mtl io.Reader) (Mesh, error) {
	if mtl == nil {
		mtl = strings.NewReader("")
	}
	decoder, err := obj.DecodeReader(objFile, mtl)
	if err != nil {
		return Mesh{}, errors.Wrap(err, "decode obj")
	}

	var mesh Mesh
	unique := make(map[int]uint32)
	add := func(face obj.Face, i int) {
		vert := face.Vertices[i]
		index, ok := unique[vert]
		if !ok {
			pos := mgl32.Vec3{
				decoder.Vertices[vert*3],
				decoder.Vertices[vert*3+1],
				decoder.Vertices[vert*3+2],
			}
			index = uint32(len(mesh.Vertices))
			mesh.Vertices = append(mesh.Vertices, Vertex{Position: pos, Color: positionColor(pos)})
			unique[vert] = index
		}
		mesh.Indices = append(mesh.Indices, index)
	}

	for _, object := range decoder.Objects {
		for _, face := range object.Faces {
			for i := 2; i < len(face.Vertices); i++ {
				add(face, 0)
				add(face, i-1)
				add(face, i)
			}
		}
	}
	if len(mesh.Indices) == 0 {
		return Mesh{}, errors.New("decode obj: no faces")
	}
	return mesh, nil
}

func positionColor(pos mgl32.Vec3) mgl32.Vec3 {
	var c mgl32.Vec3
	for i := range pos {
		c[i] = mgl32.Clamp(pos[i]*0.5+0.5, 0, 1)
	}
	return c
}
