package frustum

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/paulmach/orb"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// SurfaceRenderer draws the coarse-grid error surface: one cell per
// (fov, near) sample, coloured by log10 of its score. Columns are fov
// values (ascending), rows are near values in scan order.
type SurfaceRenderer struct {
	Samples    []GridSample
	Best       Params
	CellWidth  float64
	CellHeight float64
	Resolution canvas.Resolution

	fovs  []float64
	nears []float64
}

// NewSurfaceRenderer creates a renderer for a coarse result.
func NewSurfaceRenderer(result CoarseResult) *SurfaceRenderer {
	r := &SurfaceRenderer{
		Samples:    result.Samples,
		Best:       result.Best,
		CellWidth:  12,
		CellHeight: 40,
		Resolution: canvas.DPI(96),
	}
	r.indexAxes()
	return r
}

// indexAxes collects the distinct fov and near values.
func (r *SurfaceRenderer) indexAxes() {
	seenFOV := make(map[float64]bool)
	seenNear := make(map[float64]bool)
	for _, s := range r.Samples {
		if !seenFOV[s.Params.FOV] {
			seenFOV[s.Params.FOV] = true
			r.fovs = append(r.fovs, s.Params.FOV)
		}
		if !seenNear[s.Params.Near] {
			seenNear[s.Params.Near] = true
			r.nears = append(r.nears, s.Params.Near)
		}
	}
	sort.Float64s(r.fovs)
}

// Bound is the parameter-space extent of the samples (X = fov, Y = near).
func (r *SurfaceRenderer) Bound() orb.Bound {
	mp := make(orb.MultiPoint, 0, len(r.Samples))
	for _, s := range r.Samples {
		mp = append(mp, orb.Point{s.Params.FOV, s.Params.Near})
	}
	return mp.Bound()
}

// cell returns the column and row of a sample.
func (r *SurfaceRenderer) cell(p Params) (int, int) {
	col := sort.SearchFloat64s(r.fovs, p.FOV)
	row := 0
	for i, n := range r.nears {
		if n == p.Near {
			row = i
			break
		}
	}
	return col, row
}

// scoreRange returns the log10 range of the evaluated (non-rejected) scores.
func (r *SurfaceRenderer) scoreRange() (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range r.Samples {
		if s.Evaluation.IsRejected() {
			continue
		}
		v := logScore(s.Evaluation.Score())
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return 0, 1
	}
	if hi-lo < 1e-12 {
		hi = lo + 1
	}
	return lo, hi
}

func logScore(v float64) float64 {
	return math.Log10(v + 1e-15)
}

// heatColor maps t in [0,1] from blue (low error) to red (high error).
func heatColor(t float64) color.RGBA {
	t = math.Max(0, math.Min(1, t))
	return color.RGBA{
		R: uint8(255 * t),
		G: uint8(255 * (1 - math.Abs(2*t-1))),
		B: uint8(255 * (1 - t)),
		A: 255,
	}
}

var rejectedColor = color.RGBA{160, 160, 160, 255}

// sampleColor picks the fill for one sample.
func (r *SurfaceRenderer) sampleColor(s GridSample, lo, hi float64) color.RGBA {
	if s.Evaluation.IsRejected() {
		return rejectedColor
	}
	return heatColor((logScore(s.Evaluation.Score()) - lo) / (hi - lo))
}

func (r *SurfaceRenderer) size() (float64, float64) {
	return float64(len(r.fovs)) * r.CellWidth, float64(len(r.nears)) * r.CellHeight
}

// canvasRenderer is implemented by both the svg and rasterizer renderers.
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// RenderToSVG writes the surface as SVG.
func (r *SurfaceRenderer) RenderToSVG(w io.Writer) error {
	if len(r.Samples) == 0 {
		return fmt.Errorf("no samples to render")
	}
	width, height := r.size()
	svgRenderer := svg.New(w, width, height, nil)
	r.renderToCanvas(svgRenderer, width, height)
	return svgRenderer.Close()
}

// RenderToPNG writes the surface as a rasterized PNG.
func (r *SurfaceRenderer) RenderToPNG(w io.Writer) error {
	img, err := r.rasterize()
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// RenderToWebP writes the surface as a lossless WebP.
func (r *SurfaceRenderer) RenderToWebP(w io.Writer) error {
	img, err := r.rasterize()
	if err != nil {
		return err
	}
	return nativewebp.Encode(w, img, nil)
}

func (r *SurfaceRenderer) rasterize() (image.Image, error) {
	if len(r.Samples) == 0 {
		return nil, fmt.Errorf("no samples to render")
	}
	width, height := r.size()
	rast := rasterizer.New(width, height, r.Resolution, canvas.DefaultColorSpace)
	r.renderToCanvas(rast, width, height)
	return rast, nil
}

// renderToCanvas draws cells, then outlines the best cell.
func (r *SurfaceRenderer) renderToCanvas(renderer canvasRenderer, width, height float64) {
	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	renderer.RenderPath(canvas.Rectangle(width, height), bgStyle, canvas.Identity)

	lo, hi := r.scoreRange()
	for _, s := range r.Samples {
		col, row := r.cell(s.Params)
		style := canvas.DefaultStyle
		style.Fill = canvas.Paint{Color: r.sampleColor(s, lo, hi)}
		style.Stroke = canvas.Paint{Color: canvas.Transparent}
		cellPath := canvas.Rectangle(r.CellWidth, r.CellHeight).
			Translate(float64(col)*r.CellWidth, float64(row)*r.CellHeight)
		renderer.RenderPath(cellPath, style, canvas.Identity)
	}

	col, row := r.cell(r.Best)
	bestStyle := canvas.DefaultStyle
	bestStyle.Fill = canvas.Paint{Color: canvas.Transparent}
	bestStyle.Stroke = canvas.Paint{Color: canvas.Black}
	bestStyle.StrokeWidth = 1.5
	bestPath := canvas.Rectangle(r.CellWidth, r.CellHeight).
		Translate(float64(col)*r.CellWidth, float64(row)*r.CellHeight)
	renderer.RenderPath(bestPath, bestStyle, canvas.Identity)
}

// Heatmap layout in pixels.
const (
	heatCell   = 8
	heatRow    = 32
	heatMargin = 60
)

// RenderHeatmap draws a labelled raster heatmap: axis labels, the near value
// of each row and the fov range along the bottom.
func (r *SurfaceRenderer) RenderHeatmap() *image.RGBA {
	w := heatMargin + len(r.fovs)*heatCell + 10
	h := 20 + len(r.nears)*heatRow + heatMargin/2
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}

	lo, hi := r.scoreRange()
	for _, s := range r.Samples {
		col, row := r.cell(s.Params)
		c := r.sampleColor(s, lo, hi)
		if s.Params == r.Best {
			c = color.RGBA{0, 0, 0, 255}
		}
		x0 := heatMargin + col*heatCell
		y0 := 20 + row*heatRow
		for dy := 0; dy < heatRow-2; dy++ {
			for dx := 0; dx < heatCell-1; dx++ {
				img.Set(x0+dx, y0+dy, c)
			}
		}
	}

	black := color.RGBA{0, 0, 0, 255}
	drawText(img, 4, 13, fmt.Sprintf("log10 err [%.2f, %.2f]", lo, hi), black)
	for i, n := range r.nears {
		drawText(img, 4, 20+i*heatRow+heatRow/2+4, fmt.Sprintf("n=%g", n), black)
	}
	b := r.Bound()
	bottom := 20 + len(r.nears)*heatRow + 16
	drawText(img, heatMargin, bottom, fmt.Sprintf("fov %g", b.Min[0]), black)
	maxLabel := fmt.Sprintf("%g", b.Max[0])
	drawText(img, w-10-7*len(maxLabel), bottom, maxLabel, black)
	return img
}

// drawText renders text onto an image at the specified position
func drawText(img *image.RGBA, x, y int, text string, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// WriteSurface renders the surface to path, choosing SVG, PNG or WebP by
// extension.
func WriteSurface(path string, result CoarseResult) error {
	r := NewSurfaceRenderer(result)
	var render func(io.Writer) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg":
		render = r.RenderToSVG
	case ".png":
		render = r.RenderToPNG
	case ".webp":
		render = r.RenderToWebP
	default:
		return fmt.Errorf("unsupported surface format %q (use .svg, .png or .webp)", filepath.Ext(path))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := render(f); err != nil {
		return fmt.Errorf("rendering %s: %w", path, err)
	}
	return nil
}

// WriteHeatmap writes the labelled raster heatmap as PNG, or as lossless
// WebP for a .webp path.
func WriteHeatmap(path string, result CoarseResult) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".png" && ext != ".webp" {
		return fmt.Errorf("unsupported heatmap format %q (use .png or .webp)", filepath.Ext(path))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	img := NewSurfaceRenderer(result).RenderHeatmap()
	if ext == ".webp" {
		err = nativewebp.Encode(f, img, nil)
	} else {
		err = png.Encode(f, img)
	}
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return nil
}
