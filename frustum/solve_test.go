package frustum

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syntheticCase struct {
	conv       Convention
	truth      Params
	yaw, pitch float64
	t          [3]float64
}

var syntheticCases = []syntheticCase{
	{Direct3D{}, Params{FOV: 45, Near: 0.15}, 30, 20, [3]float64{-0.5, -0.4, 4}},
	{Direct3D{}, Params{FOV: 62.5, Near: 0.3}, -40, 35, [3]float64{0.2, -0.6, 6}},
	{Direct3D{}, Params{FOV: 78.3, Near: 0.07}, 15, -25, [3]float64{-0.3, 0.1, 3}},
	{OpenGL{}, Params{FOV: 55, Near: 0.12}, 30, 20, [3]float64{-0.5, -0.4, -5}},
}

// configFor returns a config whose combined transform is P*WV for sc.
func configFor(t *testing.T, sc syntheticCase, layout Layout) *Config {
	t.Helper()
	combined := syntheticCombined(sc.conv, sc.truth, testAspect, testFar, rigidTransform(sc.yaw, sc.pitch, sc.t))

	cfg := DefaultConfig()
	cfg.Projection.Convention = sc.conv.Name()
	cfg.Combined.Layout = layout.String()
	if layout == RowVector {
		cfg.Combined.Values = rowMajor(combined.T())
	} else {
		cfg.Combined.Values = rowMajor(combined)
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestSolver_RecoversSyntheticParameters(t *testing.T) {
	for _, sc := range syntheticCases {
		for _, layout := range []Layout{RowVector, ColumnVector} {
			name := fmt.Sprintf("%s/fov=%g,near=%g/%s", sc.conv.Name(), sc.truth.FOV, sc.truth.Near, layout)
			t.Run(name, func(t *testing.T) {
				solver, err := NewSolver(configFor(t, sc, layout))
				require.NoError(t, err)

				sol, err := solver.Solve(sc.conv)
				require.NoError(t, err)

				assert.Equal(t, sc.conv.Name(), sol.Convention)
				assert.InDelta(t, sc.truth.FOV, sol.Refined.Params.FOV, 1e-2)
				assert.InDelta(t, sc.truth.Near, sol.Refined.Params.Near, 1e-3)
				assert.Less(t, sol.Refined.Error, 1e-6)
				assert.LessOrEqual(t, sol.Refined.Error, sol.Coarse.Error)
				assert.NotZero(t, sol.Timestamp)
			})
		}
	}
}

func TestSolver_RefinedNeverWorseThanCoarse(t *testing.T) {
	solver, err := NewSolver(DefaultConfig())
	require.NoError(t, err)

	sol, err := solver.Solve(Direct3D{})
	require.NoError(t, err)

	assert.Equal(t, 46*5, sol.Coarse.Evaluated)
	assert.LessOrEqual(t, sol.Refined.Error, sol.Coarse.Error)
	assert.Greater(t, sol.Refined.Params.FOV, 1.0)
	assert.Less(t, sol.Refined.Params.FOV, 179.0)
	assert.Greater(t, sol.Refined.Params.Near, 0.0)
}

func TestSolver_SolveNamedAuto(t *testing.T) {
	solver, err := NewSolver(configFor(t, syntheticCases[0], RowVector))
	require.NoError(t, err)

	d3d, err := solver.Solve(Direct3D{})
	require.NoError(t, err)
	gl, err := solver.Solve(OpenGL{})
	require.NoError(t, err)

	auto, err := solver.SolveNamed("auto")
	require.NoError(t, err)

	want := d3d
	if gl.Refined.Error < d3d.Refined.Error {
		want = gl
	}
	assert.Equal(t, want.Convention, auto.Convention)
	assert.Equal(t, want.Refined.Params, auto.Refined.Params)
}

func TestSolver_SolveNamedUnknown(t *testing.T) {
	solver, err := NewSolver(DefaultConfig())
	require.NoError(t, err)

	_, err = solver.SolveNamed("vulkan")
	assert.Error(t, err)
}

func TestSolver_NoCandidateBelowFar(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Projection.Far = 0.01
	solver, err := NewSolver(cfg)
	require.NoError(t, err)

	_, err = solver.Solve(Direct3D{})
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestSolver_EvaluateParams(t *testing.T) {
	sc := syntheticCases[1]
	solver, err := NewSolver(configFor(t, sc, ColumnVector))
	require.NoError(t, err)

	eval, wv, err := solver.EvaluateParams("d3d", sc.truth)
	require.NoError(t, err)
	assert.InDelta(t, 0, eval.Score(), 1e-9)
	require.NotNil(t, wv)
	assertMatrixNear(t, rigidTransform(sc.yaw, sc.pitch, sc.t), wv, 1e-6)

	eval, wv, err = solver.EvaluateParams("direct3d", Params{FOV: 200, Near: 0.1})
	require.NoError(t, err)
	assert.Equal(t, RejectFOV, eval.Reason)
	assert.Nil(t, wv)

	_, _, err = solver.EvaluateParams("vulkan", sc.truth)
	assert.Error(t, err)
}

func TestNewSolver_BadLayout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Combined.Layout = "diagonal"
	_, err := NewSolver(cfg)
	assert.Error(t, err)
}
