package frustum

import (
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// DefaultRefineConfig returns the default refinement settings: 500
// iterations, xtol 1e-6, ftol 1e-9, fov bounds (1, 179).
func DefaultRefineConfig() RefineConfig {
	return RefineConfig{
		MaxIterations:   500,
		XTolerance:      1e-6,
		FTolerance:      1e-9,
		StallIterations: 20,
		MinFOV:          1,
		MaxFOV:          179,
	}
}

// ToleranceConverge reports convergence once the best simplex vertex has
// moved by at most XAbsolute (max-norm) and its value has changed by at
// most FAbsolute for Iterations consecutive major iterations.
type ToleranceConverge struct {
	XAbsolute  float64
	FAbsolute  float64
	Iterations int

	last      []float64
	lastF     float64
	started   bool
	stalled   int
	converged bool
}

func (c *ToleranceConverge) Init(dim int) {
	c.last = make([]float64, dim)
	c.lastF = math.Inf(1)
	c.started = false
	c.stalled = 0
	c.converged = false
}

func (c *ToleranceConverge) Converged(loc *optimize.Location) optimize.Status {
	if !c.started {
		copy(c.last, loc.X)
		c.lastF = loc.F
		c.started = true
		return optimize.NotTerminated
	}

	dx := 0.0
	for i, v := range loc.X {
		dx = math.Max(dx, math.Abs(v-c.last[i]))
	}
	df := math.Abs(loc.F - c.lastF)
	copy(c.last, loc.X)
	c.lastF = loc.F

	if dx <= c.XAbsolute && df <= c.FAbsolute {
		c.stalled++
	} else {
		c.stalled = 0
	}
	if c.stalled >= c.Iterations {
		c.converged = true
		return optimize.FunctionConvergence
	}
	return optimize.NotTerminated
}

// Done reports whether the tolerances were met.
func (c *ToleranceConverge) Done() bool {
	return c.converged
}

// initialSimplex perturbs each coordinate of x0 by 5% (0.00025 for zero
// coordinates), giving dim+1 vertices with x0 first.
func initialSimplex(x0 []float64) [][]float64 {
	vertices := make([][]float64, len(x0)+1)
	vertices[0] = append([]float64(nil), x0...)
	for i := range x0 {
		v := append([]float64(nil), x0...)
		if v[i] != 0 {
			v[i] *= 1.05
		} else {
			v[i] = 0.00025
		}
		vertices[i+1] = v
	}
	return vertices
}

// Refine polishes start with a derivative-free Nelder-Mead search over
// (fov, near), minimizing scorer.Score(p).Score(). The result always
// carries the best point reached; Converged is false when an iteration or
// evaluation limit stopped the search first, or when the best point is
// itself rejected (a flat sentinel plateau is not a minimum).
func Refine(scorer Scorer, start Params, cfg RefineConfig) (RefineResult, error) {
	if cfg.MaxIterations <= 0 {
		return RefineResult{}, fmt.Errorf("refine: max iterations must be positive, got %d", cfg.MaxIterations)
	}
	stall := cfg.StallIterations
	if stall <= 0 {
		stall = 1
	}

	cost := func(x []float64) float64 {
		return scorer.Score(Params{FOV: x[0], Near: x[1]}).Score()
	}

	x0 := []float64{start.FOV, start.Near}
	vertices := initialSimplex(x0)
	values := make([]float64, len(vertices))
	for i, v := range vertices {
		values[i] = cost(v)
	}

	conv := &ToleranceConverge{
		XAbsolute:  cfg.XTolerance,
		FAbsolute:  cfg.FTolerance,
		Iterations: stall,
	}
	settings := &optimize.Settings{
		MajorIterations: cfg.MaxIterations,
		Converger:       conv,
	}
	method := &optimize.NelderMead{
		InitialVertices: vertices,
		InitialValues:   values,
	}

	res, err := optimize.Minimize(optimize.Problem{Func: cost}, x0, settings, method)
	if res == nil {
		return RefineResult{}, fmt.Errorf("nelder-mead refinement from %s: %w", start, err)
	}
	if err != nil {
		log.Printf("[REFINE] Optimizer stopped early: %v", err)
	}

	best := Params{FOV: res.X[0], Near: res.X[1]}
	rejected := scorer.Score(best).IsRejected()
	if rejected {
		log.Printf("[REFINE] Best point %s is rejected; reporting not converged", best)
	}

	result := RefineResult{
		Params:      best,
		Error:       res.F,
		Converged:   conv.Done() && !rejected,
		Status:      res.Status.String(),
		Iterations:  res.Stats.MajorIterations,
		Evaluations: res.Stats.FuncEvaluations + len(vertices),
	}

	log.Printf("[REFINE] %s err=%.12f: status=%s, iterations=%d, evaluations=%d, converged=%v",
		result.Params, result.Error, result.Status, result.Iterations, result.Evaluations, result.Converged)

	return result, nil
}
