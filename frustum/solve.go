package frustum

import (
	"fmt"
	"log"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"
)

// ConventionAuto solves with every convention and keeps the best fit.
const ConventionAuto = "auto"

// Solver runs the coarse-then-refine pipeline for one combined transform.
type Solver struct {
	Evaluator *Evaluator
	Aspect    float64
	Far       float64
	Grid      GridConfig
	Refine    RefineConfig
}

// NewSolver builds the evaluator for cfg's combined transform. cfg should
// already be validated.
func NewSolver(cfg *Config) (*Solver, error) {
	layout, err := ParseLayout(cfg.Combined.Layout)
	if err != nil {
		return nil, err
	}
	order, err := ParseOrder(cfg.Combined.Order)
	if err != nil {
		return nil, err
	}
	combined, err := CombinedFromValues(cfg.Combined.Values, layout)
	if err != nil {
		return nil, err
	}

	log.Printf("[SOLVE] Combined transform (%s, %s):\n%s", layout, order, FormatMatrix(combined))

	return &Solver{
		Evaluator: NewEvaluator(combined, UnitCube(), order),
		Aspect:    cfg.Projection.Aspect,
		Far:       cfg.Projection.Far,
		Grid:      cfg.Coarse,
		Refine:    cfg.Refine,
	}, nil
}

// Problem returns the constrained cost for a convention.
func (s *Solver) Problem(conv Convention) *Problem {
	p := NewProblem(conv, s.Aspect, s.Far, s.Evaluator)
	p.Bounds = s.Refine.Bounds()
	return p
}

// Solve runs the coarse search and then refines its best pair.
func (s *Solver) Solve(conv Convention) (Solution, error) {
	problem := s.Problem(conv)

	log.Printf("[SOLVE] %s: aspect=%.6f far=%.1f", conv.Name(), s.Aspect, s.Far)

	coarse, err := CoarseSearch(problem, s.Far, s.Grid)
	if err != nil {
		return Solution{}, fmt.Errorf("coarse search (%s): %w", conv.Name(), err)
	}

	refined, err := Refine(problem, coarse.Best, s.Refine)
	if err != nil {
		return Solution{}, fmt.Errorf("refinement (%s): %w", conv.Name(), err)
	}

	return Solution{
		Convention: conv.Name(),
		Aspect:     s.Aspect,
		Far:        s.Far,
		Coarse:     coarse,
		Refined:    refined,
		Timestamp:  time.Now().Unix(),
	}, nil
}

// SolveNamed solves for the named convention. ConventionAuto tries every
// convention and keeps the lowest refined error; on a tie the earlier
// convention in Conventions() wins.
func (s *Solver) SolveNamed(name string) (Solution, error) {
	if !strings.EqualFold(strings.TrimSpace(name), ConventionAuto) {
		conv, err := ConventionByName(name)
		if err != nil {
			return Solution{}, err
		}
		return s.Solve(conv)
	}

	var best Solution
	found := false
	for _, conv := range Conventions() {
		sol, err := s.Solve(conv)
		if err != nil {
			return Solution{}, err
		}
		log.Printf("[SOLVE] auto: %s refined err=%.12f", conv.Name(), sol.Refined.Error)
		if !found || sol.Refined.Error < best.Refined.Error {
			best = sol
			found = true
		}
	}
	log.Printf("[SOLVE] auto: selected %s", best.Convention)
	return best, nil
}

// EvaluateParams scores one explicit (fov, near) pair with the named
// convention and returns the estimated world-view matrix when the
// projection is invertible.
func (s *Solver) EvaluateParams(conventionName string, p Params) (Evaluation, *mat.Dense, error) {
	conv, err := ConventionByName(conventionName)
	if err != nil {
		return Evaluation{}, nil, err
	}
	eval := s.Problem(conv).Score(p)
	if eval.IsRejected() {
		return eval, nil, nil
	}
	proj := conv.Projection(p.FOV, s.Aspect, p.Near, s.Far)
	wv, err := s.Evaluator.EstimateWorldView(proj)
	if err != nil {
		return eval, nil, nil
	}
	return eval, wv, nil
}
