package frustum

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// rigidTransform builds a world-view matrix: yaw about Y, then pitch about
// X, then translation t.
func rigidTransform(yawDeg, pitchDeg float64, t [3]float64) *mat.Dense {
	cy, sy := math.Cos(yawDeg*math.Pi/180), math.Sin(yawDeg*math.Pi/180)
	cp, sp := math.Cos(pitchDeg*math.Pi/180), math.Sin(pitchDeg*math.Pi/180)
	ry := mat.NewDense(3, 3, []float64{
		cy, 0, sy,
		0, 1, 0,
		-sy, 0, cy,
	})
	rx := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, cp, -sp,
		0, sp, cp,
	})
	var r mat.Dense
	r.Mul(ry, rx)

	m := Identity4()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, r.At(i, j))
		}
		m.Set(i, 3, t[i])
	}
	return m
}

// syntheticCombined returns P * WV for the given convention and parameters.
func syntheticCombined(conv Convention, p Params, aspect, far float64, wv mat.Matrix) *mat.Dense {
	return MultiplyMatrices(conv.Projection(p.FOV, aspect, p.Near, far), wv)
}

// rowMajor flattens a matrix into row-major values.
func rowMajor(m mat.Matrix) []float64 {
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out = append(out, m.At(i, j))
		}
	}
	return out
}

// assertMatrixNear fails when any element differs by more than tol.
func assertMatrixNear(t *testing.T, want, got mat.Matrix, tol float64) {
	t.Helper()
	if !mat.EqualApprox(want, got, tol) {
		t.Errorf("matrices differ (tol %g)\nwant:\n%s\ngot:\n%s", tol, FormatMatrix(want), FormatMatrix(got))
	}
}
