package frustum

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// MinW is the floor applied to the homogeneous coordinate before the
// perspective divide. Values below it (including negative w) are clamped.
const MinW = 1e-9

// ErrSingular is returned when a matrix cannot be inverted.
var ErrSingular = errors.New("matrix is singular")

// Layout says how the 16 authored values of the combined transform are laid out.
type Layout int

const (
	// RowVector values are authored row-major for the v' = v*M convention
	// and are transposed on load.
	RowVector Layout = iota
	// ColumnVector values are authored row-major for the v' = M*v
	// convention and are used as-is.
	ColumnVector
)

func (l Layout) String() string {
	if l == ColumnVector {
		return "column-vector"
	}
	return "row-vector"
}

// ParseLayout resolves a layout name. Empty means RowVector.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "row-vector", "row", "transpose":
		return RowVector, nil
	case "column-vector", "column", "as-is":
		return ColumnVector, nil
	}
	return RowVector, fmt.Errorf("unknown combined layout %q", s)
}

// Order selects how the world-view matrix is recovered from the combined
// transform. With the column-vector convention WVP = P*WV, so InverseFirst
// (WV = P^-1 * WVP) is the consistent choice; InverseLast (WV = WVP * P^-1)
// matches a combined transform that was built in the opposite order.
type Order int

const (
	InverseFirst Order = iota
	InverseLast
)

func (o Order) String() string {
	if o == InverseLast {
		return "inverse-last"
	}
	return "inverse-first"
}

// ParseOrder resolves an order name. Empty means InverseFirst.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "inverse-first", "pinv-wvp":
		return InverseFirst, nil
	case "inverse-last", "wvp-pinv":
		return InverseLast, nil
	}
	return InverseFirst, fmt.Errorf("unknown composition order %q", s)
}

// CombinedFromValues builds the internal column-vector matrix from the 16
// authored row-major values.
func CombinedFromValues(values []float64, layout Layout) (*mat.Dense, error) {
	if len(values) != 16 {
		return nil, fmt.Errorf("combined transform needs 16 values, got %d", len(values))
	}
	data := make([]float64, 16)
	copy(data, values)
	m := mat.NewDense(4, 4, data)
	if layout == RowVector {
		var t mat.Dense
		t.CloneFrom(m.T())
		return &t, nil
	}
	return m, nil
}

// Identity4 returns a 4x4 identity matrix.
func Identity4() *mat.Dense {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// InvertMatrix inverts a 4x4 matrix. Any failure reported by gonum,
// including an ill-conditioned result, is returned as ErrSingular.
func InvertMatrix(m mat.Matrix) (*mat.Dense, error) {
	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	return &inv, nil
}

// MultiplyMatrices returns a*b. Applying the result to a column vector is
// equivalent to applying b first, then a.
func MultiplyMatrices(a, b mat.Matrix) *mat.Dense {
	var m mat.Dense
	m.Mul(a, b)
	return &m
}

// TransformVertex applies m to a homogeneous point (column-vector convention).
func TransformVertex(m mat.Matrix, v Vertex) Vertex {
	var out Vertex
	for r := 0; r < 4; r++ {
		out[r] = m.At(r, 0)*v[0] + m.At(r, 1)*v[1] + m.At(r, 2)*v[2] + m.At(r, 3)*v[3]
	}
	return out
}

// TransformVertices applies m to every point.
func TransformVertices(m mat.Matrix, vs []Vertex) []Vertex {
	result := make([]Vertex, len(vs))
	for i, v := range vs {
		result[i] = TransformVertex(m, v)
	}
	return result
}

// PerspectiveDivide divides xyz by w clamped to MinW and returns w=1.
func PerspectiveDivide(v Vertex) Vertex {
	w := v[3]
	if w < MinW {
		w = MinW
	}
	return Vertex{v[0] / w, v[1] / w, v[2] / w, 1}
}

// FormatMatrix renders a matrix for diagnostic output.
func FormatMatrix(m mat.Matrix) string {
	return fmt.Sprintf("%.6g", mat.Formatted(m, mat.Squeeze()))
}
