package frustum

import "math"

// Scorer scores a parameter vector. Both search stages minimize
// Score(p).Score().
type Scorer interface {
	Score(p Params) Evaluation
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(p Params) Evaluation

func (f ScorerFunc) Score(p Params) Evaluation { return f(p) }

// Bounds are the open field-of-view limits in degrees accepted by Problem.
type Bounds struct {
	MinFOV float64
	MaxFOV float64
}

// DefaultBounds keeps the simplex away from the tan() poles at 0 and 180.
func DefaultBounds() Bounds {
	return Bounds{MinFOV: 1, MaxFOV: 179}
}

// Problem is the domain-constrained cost: it rejects out-of-range
// parameters before building a projection and handing it to the matrix
// scorer. Aspect and Far are fixed for the whole search.
type Problem struct {
	Convention Convention
	Aspect     float64
	Far        float64
	Bounds     Bounds
	Scorer     MatrixScorer
}

// NewProblem creates a problem with DefaultBounds.
func NewProblem(conv Convention, aspect, far float64, scorer MatrixScorer) *Problem {
	return &Problem{
		Convention: conv,
		Aspect:     aspect,
		Far:        far,
		Bounds:     DefaultBounds(),
		Scorer:     scorer,
	}
}

// Score rejects fov outside (MinFOV, MaxFOV) and near outside (0, Far)
// without calling the matrix scorer.
func (p *Problem) Score(params Params) Evaluation {
	if math.IsNaN(params.FOV) || params.FOV <= p.Bounds.MinFOV || params.FOV >= p.Bounds.MaxFOV {
		return Reject(RejectFOV)
	}
	if math.IsNaN(params.Near) || params.Near <= 0 || params.Near >= p.Far {
		return Reject(RejectNear)
	}
	proj := p.Convention.Projection(params.FOV, p.Aspect, params.Near, p.Far)
	return p.Scorer.Evaluate(proj)
}
