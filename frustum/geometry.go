package frustum

import "math"

// Vertex is a homogeneous point (x, y, z, w).
type Vertex [4]float64

// Edge is a pair of vertex indices.
type Edge [2]int

// Geometry is the reference solid whose edges should come out at unit
// length after the estimated world-view transform.
type Geometry struct {
	vertices []Vertex
	edges    []Edge
}

// UnitCube returns the cube spanning [0,1]^3 and its 12 unit-length edges.
// Face and space diagonals are not included.
func UnitCube() Geometry {
	return Geometry{
		vertices: []Vertex{
			{0, 0, 0, 1},
			{1, 0, 0, 1},
			{0, 1, 0, 1},
			{0, 0, 1, 1},
			{1, 1, 0, 1},
			{1, 0, 1, 1},
			{0, 1, 1, 1},
			{1, 1, 1, 1},
		},
		edges: []Edge{
			{0, 1}, {0, 2}, {0, 3},
			{1, 4}, {1, 5},
			{2, 4}, {2, 6},
			{3, 5}, {3, 6},
			{4, 7}, {5, 7}, {6, 7},
		},
	}
}

// Vertices returns a copy of the vertex list.
func (g Geometry) Vertices() []Vertex {
	out := make([]Vertex, len(g.vertices))
	copy(out, g.vertices)
	return out
}

// Edges returns a copy of the edge list.
func (g Geometry) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// EdgeLength is the untransformed Euclidean length of edge i.
func (g Geometry) EdgeLength(i int) float64 {
	e := g.edges[i]
	return distance3(g.vertices[e[0]], g.vertices[e[1]])
}

// distance3 is the Euclidean distance between the xyz parts of two points.
func distance3(a, b Vertex) float64 {
	dx := b[0] - a[0]
	dy := b[1] - a[1]
	dz := b[2] - a[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
