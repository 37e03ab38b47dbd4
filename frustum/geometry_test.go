package frustum

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnitCube_Counts(t *testing.T) {
	cube := UnitCube()
	assert.Len(t, cube.Vertices(), 8)
	assert.Len(t, cube.Edges(), 12)
}

func TestUnitCube_EdgesAreUnitLength(t *testing.T) {
	cube := UnitCube()
	for i, e := range cube.Edges() {
		if got := cube.EdgeLength(i); math.Abs(got-1) > 1e-15 {
			t.Errorf("edge %d %v length = %v, want 1", i, e, got)
		}
	}
}

func TestUnitCube_NoDiagonalsOrDuplicates(t *testing.T) {
	cube := UnitCube()
	seen := make(map[[2]int]bool)
	for _, e := range cube.Edges() {
		a, b := e[0], e[1]
		if a > b {
			a, b = b, a
		}
		key := [2]int{a, b}
		assert.False(t, seen[key], "duplicate edge %v", e)
		seen[key] = true
	}

	// Every vertex of a cube has exactly three edges.
	degree := make(map[int]int)
	for _, e := range cube.Edges() {
		degree[e[0]]++
		degree[e[1]]++
	}
	for v := 0; v < 8; v++ {
		assert.Equal(t, 3, degree[v], "vertex %d degree", v)
	}
}

func TestUnitCube_HomogeneousCorners(t *testing.T) {
	for i, v := range UnitCube().Vertices() {
		assert.Equal(t, 1.0, v[3], "vertex %d w", i)
		for k := 0; k < 3; k++ {
			assert.True(t, v[k] == 0 || v[k] == 1, "vertex %d coordinate %d = %v", i, k, v[k])
		}
	}
}

func TestUnitCube_AccessorsReturnCopies(t *testing.T) {
	cube := UnitCube()
	vs := cube.Vertices()
	vs[0][0] = 42
	es := cube.Edges()
	es[0][1] = 7

	assert.Equal(t, 0.0, cube.Vertices()[0][0])
	assert.Equal(t, 1, cube.Edges()[0][1])
}
