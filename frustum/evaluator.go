package frustum

import (
	"log"
	"math"

	"gonum.org/v1/gonum/mat"
)

// MatrixScorer scores a candidate projection matrix.
type MatrixScorer interface {
	Evaluate(proj mat.Matrix) Evaluation
}

// Evaluator scores how well a candidate projection, combined with the fixed
// combined transform, reconstructs the rigid reference geometry. It holds
// only read-only state and is safe for concurrent use.
type Evaluator struct {
	combined *mat.Dense
	geometry Geometry
	order    Order

	// Verbose logs the estimated world-view matrix on every evaluation.
	// Diagnostic only; leave off inside the search loops.
	Verbose bool
}

// NewEvaluator creates an evaluator for a combined transform already in the
// internal column-vector convention (see CombinedFromValues).
func NewEvaluator(combined mat.Matrix, geom Geometry, order Order) *Evaluator {
	var c mat.Dense
	c.CloneFrom(combined)
	return &Evaluator{
		combined: &c,
		geometry: geom,
		order:    order,
	}
}

// Order returns the composition order used to estimate the world-view matrix.
func (e *Evaluator) Order() Order {
	return e.order
}

// EstimateWorldView recovers the world-view matrix implied by proj.
// Returns ErrSingular if proj cannot be inverted.
func (e *Evaluator) EstimateWorldView(proj mat.Matrix) (*mat.Dense, error) {
	inv, err := InvertMatrix(proj)
	if err != nil {
		return nil, err
	}
	if e.order == InverseLast {
		return MultiplyMatrices(e.combined, inv), nil
	}
	return MultiplyMatrices(inv, e.combined), nil
}

// Evaluate returns the summed squared deviation of every transformed edge
// length from 1. Singular or numerically degenerate candidates are
// rejected rather than reported as errors.
func (e *Evaluator) Evaluate(proj mat.Matrix) Evaluation {
	if !isFinite(proj) {
		return Reject(RejectNonFinite)
	}
	wv, err := e.EstimateWorldView(proj)
	if err != nil {
		return Reject(RejectSingular)
	}
	if e.Verbose {
		log.Printf("[EVAL] Estimated world-view matrix (%s):\n%s", e.order, FormatMatrix(wv))
	}
	return e.edgeError(wv)
}

// edgeError transforms the geometry through wv and sums (|edge| - 1)^2.
func (e *Evaluator) edgeError(wv mat.Matrix) Evaluation {
	pts := TransformVertices(wv, e.geometry.vertices)
	for i := range pts {
		pts[i] = PerspectiveDivide(pts[i])
	}

	total := 0.0
	for _, edge := range e.geometry.edges {
		d := distance3(pts[edge[0]], pts[edge[1]])
		total += (d - 1.0) * (d - 1.0)
	}

	if math.IsNaN(total) || math.IsInf(total, 0) {
		return Reject(RejectNonFinite)
	}
	return Accept(total)
}

// isFinite reports whether every entry of m is finite.
func isFinite(m mat.Matrix) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if !isFiniteValue(m.At(i, j)) {
				return false
			}
		}
	}
	return true
}

func isFiniteValue(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
