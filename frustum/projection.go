package frustum

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Convention builds a perspective projection matrix for one clip-space
// depth convention. Matrices use the column-vector convention (clip = P*v).
type Convention interface {
	Name() string
	// Projection builds the matrix for a vertical field of view in degrees.
	// Inputs are not validated; fov of 0 or 180 yields non-finite entries.
	Projection(fovDeg, aspect, near, far float64) *mat.Dense
}

// OpenGL maps view depth to clip range [-1,1] with the camera looking down -z.
type OpenGL struct{}

// Direct3D maps view depth to clip range [0,1] with the camera looking down +z.
type Direct3D struct{}

func (OpenGL) Name() string   { return "opengl" }
func (Direct3D) Name() string { return "direct3d" }

func (OpenGL) Projection(fovDeg, aspect, near, far float64) *mat.Dense {
	f := focalLength(fovDeg)
	m := mat.NewDense(4, 4, nil)
	m.Set(0, 0, f/aspect)
	m.Set(1, 1, f)
	m.Set(2, 2, (far+near)/(near-far))
	m.Set(2, 3, 2*far*near/(near-far))
	m.Set(3, 2, -1)
	return m
}

func (Direct3D) Projection(fovDeg, aspect, near, far float64) *mat.Dense {
	f := focalLength(fovDeg)
	m := mat.NewDense(4, 4, nil)
	m.Set(0, 0, f/aspect)
	m.Set(1, 1, f)
	m.Set(2, 2, far/(far-near))
	m.Set(2, 3, -far*near/(far-near))
	m.Set(3, 2, 1)
	return m
}

// focalLength is cot(fov/2) for a field of view in degrees.
func focalLength(fovDeg float64) float64 {
	return 1.0 / math.Tan(fovDeg*math.Pi/180.0/2.0)
}

// Conventions lists the supported conventions, Direct3D first.
func Conventions() []Convention {
	return []Convention{Direct3D{}, OpenGL{}}
}

// ConventionByName resolves a convention from its configuration name.
func ConventionByName(name string) (Convention, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "direct3d", "d3d", "dx", "directx":
		return Direct3D{}, nil
	case "opengl", "gl":
		return OpenGL{}, nil
	}
	return nil, fmt.Errorf("unknown projection convention %q", name)
}
