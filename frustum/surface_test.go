package frustum

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCoarse(t *testing.T) CoarseResult {
	t.Helper()
	scorer := ScorerFunc(func(p Params) Evaluation {
		if p.FOV > 110 {
			return Reject(RejectSingular)
		}
		d := (p.FOV - 64) / 10
		return Accept(d*d + p.Near)
	})
	result, err := CoarseSearch(scorer, 10000, DefaultGridConfig())
	require.NoError(t, err)
	return result
}

func TestSurfaceRenderer_Axes(t *testing.T) {
	r := NewSurfaceRenderer(testCoarse(t))
	assert.Len(t, r.fovs, 46)
	assert.Equal(t, []float64{0.05, 0.1, 0.2, 0.5, 1.0}, r.nears)

	b := r.Bound()
	assert.Equal(t, 30.0, b.Min[0])
	assert.Equal(t, 120.0, b.Max[0])
	assert.Equal(t, 0.05, b.Min[1])
	assert.Equal(t, 1.0, b.Max[1])

	col, row := r.cell(Params{FOV: 64, Near: 0.2})
	assert.Equal(t, 17, col)
	assert.Equal(t, 2, row)
}

func TestSurfaceRenderer_ScoreRangeIgnoresRejected(t *testing.T) {
	r := NewSurfaceRenderer(testCoarse(t))
	lo, hi := r.scoreRange()
	assert.Less(t, lo, hi)
	assert.Less(t, hi, 3.0, "sentinel scores must not stretch the colour scale")
}

func TestHeatColor(t *testing.T) {
	assert.Equal(t, uint8(255), heatColor(0).B)
	assert.Equal(t, uint8(255), heatColor(1).R)
	assert.Equal(t, heatColor(1), heatColor(7), "clamped")
}

func TestSurfaceRenderer_RenderToSVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewSurfaceRenderer(testCoarse(t)).RenderToSVG(&buf))
	assert.True(t, strings.Contains(buf.String(), "<svg"))
}

func TestSurfaceRenderer_RenderToPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewSurfaceRenderer(testCoarse(t)).RenderToPNG(&buf))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 0)
}

func TestSurfaceRenderer_EmptySamples(t *testing.T) {
	r := NewSurfaceRenderer(CoarseResult{})
	var buf bytes.Buffer
	assert.Error(t, r.RenderToSVG(&buf))
	assert.Error(t, r.RenderToPNG(&buf))
}

func TestSurfaceRenderer_RenderHeatmap(t *testing.T) {
	result := testCoarse(t)
	img := NewSurfaceRenderer(result).RenderHeatmap()

	assert.Equal(t, heatMargin+46*heatCell+10, img.Bounds().Dx())
	assert.Equal(t, 20+5*heatRow+heatMargin/2, img.Bounds().Dy())

	col, row := NewSurfaceRenderer(result).cell(result.Best)
	c := img.RGBAAt(heatMargin+col*heatCell+1, 20+row*heatRow+1)
	assert.Equal(t, uint8(0), c.R, "best cell is marked black")
	assert.Equal(t, uint8(0), c.B)
}

func TestWriteSurface(t *testing.T) {
	dir := t.TempDir()
	result := testCoarse(t)

	for _, name := range []string{"surface.svg", "surface.PNG", "surface.webp"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteSurface(path, result), name)
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}

	assert.Error(t, WriteSurface(filepath.Join(dir, "surface.jpg"), result))
	_, err := os.Stat(filepath.Join(dir, "surface.jpg"))
	assert.True(t, os.IsNotExist(err), "unsupported format must not leave a file behind")

	require.NoError(t, WriteHeatmap(filepath.Join(dir, "heat.webp"), result))
	assert.Error(t, WriteHeatmap(filepath.Join(dir, "heat.gif"), result))

	heat := filepath.Join(dir, "heat.png")
	require.NoError(t, WriteHeatmap(heat, result))
	f, err := os.Open(heat)
	require.NoError(t, err)
	defer f.Close()
	_, err = png.Decode(f)
	assert.NoError(t, err)
}

func TestSurfaceRenderer_RenderToWebP(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewSurfaceRenderer(testCoarse(t)).RenderToWebP(&buf))
	b := buf.Bytes()
	require.Greater(t, len(b), 12)
	assert.Equal(t, "RIFF", string(b[0:4]))
	assert.Equal(t, "WEBP", string(b[8:12]))
}
