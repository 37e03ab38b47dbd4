package frustum

import (
	"errors"
	"fmt"
	"log"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrInvalidGrid is returned for a coarse grid that cannot be scanned.
	ErrInvalidGrid = errors.New("invalid coarse grid")
	// ErrNoCandidates is returned when every grid pair was skipped.
	ErrNoCandidates = errors.New("no coarse candidate below the far plane")
)

const (
	// fovSlack makes the upper fov bound inclusive despite float accumulation.
	fovSlack = 1e-9
	// MaxGridPoints caps the number of scanned fov values.
	MaxGridPoints = 100000
)

// DefaultGridConfig returns the default coarse grid: fov 30..120 step 2,
// near in {0.05, 0.1, 0.2, 0.5, 1.0}.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		FOVMin:     30,
		FOVMax:     120,
		FOVStep:    2.0,
		NearValues: []float64{0.05, 0.1, 0.2, 0.5, 1.0},
	}
}

// FOVValues returns the scanned field-of-view values in ascending order.
// Grids with non-finite bounds, or more than MaxGridPoints values, yield nil.
func (g GridConfig) FOVValues() []float64 {
	n, ok := g.fovCount()
	if !ok {
		return nil
	}
	values := make([]float64, 0, n)
	for k := 0; k < n; k++ {
		values = append(values, g.FOVMin+float64(k)*g.FOVStep)
	}
	return values
}

// fovCount returns how many fov values the grid spans.
func (g GridConfig) fovCount() (int, bool) {
	if !isFiniteValue(g.FOVMin) || !isFiniteValue(g.FOVMax) || !isFiniteValue(g.FOVStep) {
		return 0, false
	}
	if g.FOVStep <= 0 || g.FOVMax < g.FOVMin {
		return 0, false
	}
	n := math.Ceil((g.FOVMax + fovSlack - g.FOVMin) / g.FOVStep)
	if n > MaxGridPoints {
		return 0, false
	}
	return int(n), true
}

func (g GridConfig) validate() error {
	if !isFiniteValue(g.FOVMin) || !isFiniteValue(g.FOVMax) {
		return fmt.Errorf("%w: fov range [%v, %v] is not finite", ErrInvalidGrid, g.FOVMin, g.FOVMax)
	}
	if !isFiniteValue(g.FOVStep) || g.FOVStep <= 0 {
		return fmt.Errorf("%w: fov step must be positive, got %v", ErrInvalidGrid, g.FOVStep)
	}
	if g.FOVMax < g.FOVMin {
		return fmt.Errorf("%w: fov range [%v, %v] is empty", ErrInvalidGrid, g.FOVMin, g.FOVMax)
	}
	if _, ok := g.fovCount(); !ok {
		return fmt.Errorf("%w: fov range [%v, %v] step %v exceeds %d values",
			ErrInvalidGrid, g.FOVMin, g.FOVMax, g.FOVStep, MaxGridPoints)
	}
	if len(g.NearValues) == 0 {
		return fmt.Errorf("%w: no near-plane candidates", ErrInvalidGrid)
	}
	for i, near := range g.NearValues {
		if !isFiniteValue(near) {
			return fmt.Errorf("%w: near candidate %d is not finite", ErrInvalidGrid, i)
		}
	}
	return nil
}

// candidates lists the grid pairs in scan order, dropping near >= far.
func (g GridConfig) candidates(far float64) (pairs []Params, skipped int) {
	for _, fov := range g.FOVValues() {
		for _, near := range g.NearValues {
			if near >= far {
				skipped++
				continue
			}
			pairs = append(pairs, Params{FOV: fov, Near: near})
		}
	}
	return pairs, skipped
}

// CoarseSearch scores every grid pair and returns the one with the lowest
// score. Pairs are scored concurrently but reduced in scan order (fov
// ascending, near in configured order) with a strict comparison, so ties go
// to the first pair encountered.
func CoarseSearch(scorer Scorer, far float64, grid GridConfig) (CoarseResult, error) {
	if err := grid.validate(); err != nil {
		return CoarseResult{}, err
	}

	pairs, skipped := grid.candidates(far)
	if len(pairs) == 0 {
		return CoarseResult{}, fmt.Errorf("%w: far=%v, near candidates=%v (far must exceed the smallest near value)",
			ErrNoCandidates, far, grid.NearValues)
	}

	workers := grid.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	samples := make([]GridSample, len(pairs))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, p := range pairs {
		g.Go(func() error {
			samples[i] = GridSample{Index: i, Params: p, Evaluation: scorer.Score(p)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return CoarseResult{}, err
	}

	result := CoarseResult{
		Error:     math.Inf(1),
		Evaluated: len(samples),
		Skipped:   skipped,
		Samples:   samples,
	}
	for _, s := range samples {
		if s.Evaluation.IsRejected() {
			result.Rejected++
		}
		if score := s.Evaluation.Score(); score < result.Error {
			result.Error = score
			result.Best = s.Params
		}
	}

	log.Printf("[COARSE] Scanned %d candidates (%d rejected, %d skipped) with %d workers: best %s err=%.6f",
		result.Evaluated, result.Rejected, result.Skipped, workers, result.Best, result.Error)

	return result, nil
}
