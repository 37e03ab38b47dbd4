package main

import (
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kwv/frustumfit/frustum"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// testSolution builds a solution from a cheap synthetic coarse scan.
func testSolution(t *testing.T) frustum.Solution {
	t.Helper()
	scorer := frustum.ScorerFunc(func(p frustum.Params) frustum.Evaluation {
		d := p.FOV - 50
		return frustum.Accept(d*d + p.Near)
	})
	grid := frustum.GridConfig{FOVMin: 40, FOVMax: 60, FOVStep: 5, NearValues: []float64{0.1, 0.5}}
	coarse, err := frustum.CoarseSearch(scorer, 100, grid)
	if err != nil {
		t.Fatalf("CoarseSearch: %v", err)
	}
	return frustum.Solution{
		Convention: "opengl",
		Aspect:     1.5,
		Far:        100,
		Coarse:     coarse,
		Refined:    frustum.RefineResult{Params: coarse.Best, Error: coarse.Error, Converged: true},
	}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

// ---------------------------------------------------------------------------
// endpoints
// ---------------------------------------------------------------------------

func TestHealthEndpoint(t *testing.T) {
	rr := get(t, newHTTPServer(testSolution(t)), "/health")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var body struct {
		Status     string `json:"status"`
		Convention string `json:"convention"`
		Converged  bool   `json:"converged"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Convention != "opengl" || !body.Converged {
		t.Errorf("unexpected health body %+v", body)
	}
}

func TestSolutionEndpoint(t *testing.T) {
	rr := get(t, newHTTPServer(testSolution(t)), "/solution")
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s", ct)
	}
	var sol frustum.Solution
	if err := json.Unmarshal(rr.Body.Bytes(), &sol); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sol.Coarse.Best != (frustum.Params{FOV: 50, Near: 0.1}) {
		t.Errorf("Best = %+v", sol.Coarse.Best)
	}
}

func TestSurfaceEndpoints(t *testing.T) {
	h := newHTTPServer(testSolution(t))

	rr := get(t, h, "/surface.svg")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "<svg") {
		t.Errorf("/surface.svg status=%d body starts %.40q", rr.Code, rr.Body.String())
	}

	for _, path := range []string{"/surface.png", "/heatmap.png"} {
		rr := get(t, h, path)
		if rr.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rr.Code)
			continue
		}
		if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
			t.Errorf("%s Content-Type = %s", path, ct)
		}
		if _, err := png.Decode(rr.Body); err != nil {
			t.Errorf("%s is not a PNG: %v", path, err)
		}
	}
}

func TestSurfaceEndpoints_NoSamples(t *testing.T) {
	h := newHTTPServer(frustum.Solution{Convention: "direct3d"})
	for _, path := range []string{"/surface.svg", "/surface.png", "/heatmap.png"} {
		if rr := get(t, h, path); rr.Code != http.StatusServiceUnavailable {
			t.Errorf("%s status = %d, want 503", path, rr.Code)
		}
	}
}
