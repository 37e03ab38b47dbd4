package main

import (
	"encoding/json"
	"image/png"
	"log"
	"net/http"
	"time"

	"github.com/kwv/frustumfit/frustum"
)

// newHTTPServer serves a finished solution and its coarse error surface.
func newHTTPServer(sol frustum.Solution) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[HTTP] /health request from %s", r.RemoteAddr)
		w.Header().Set("Content-Type", "application/json")
		status := struct {
			Status     string    `json:"status"`
			Timestamp  time.Time `json:"timestamp"`
			Convention string    `json:"convention"`
			Converged  bool      `json:"converged"`
		}{
			Status:     "ok",
			Timestamp:  time.Now(),
			Convention: sol.Convention,
			Converged:  sol.Refined.Converged,
		}
		if err := json.NewEncoder(w).Encode(status); err != nil {
			log.Printf("Error encoding health status: %v", err)
		}
	})

	mux.HandleFunc("/solution", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(sol); err != nil {
			log.Printf("Error encoding solution: %v", err)
		}
	})

	mux.HandleFunc("/surface.svg", func(w http.ResponseWriter, r *http.Request) {
		if len(sol.Coarse.Samples) == 0 {
			http.Error(w, "No coarse samples available", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "no-cache")
		if err := frustum.NewSurfaceRenderer(sol.Coarse).RenderToSVG(w); err != nil {
			log.Printf("Error rendering surface SVG: %v", err)
		}
	})

	mux.HandleFunc("/surface.png", func(w http.ResponseWriter, r *http.Request) {
		if len(sol.Coarse.Samples) == 0 {
			http.Error(w, "No coarse samples available", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		if err := frustum.NewSurfaceRenderer(sol.Coarse).RenderToPNG(w); err != nil {
			log.Printf("Error rendering surface PNG: %v", err)
		}
	})

	mux.HandleFunc("/heatmap.png", func(w http.ResponseWriter, r *http.Request) {
		if len(sol.Coarse.Samples) == 0 {
			http.Error(w, "No coarse samples available", http.StatusServiceUnavailable)
			return
		}
		img := frustum.NewSurfaceRenderer(sol.Coarse).RenderHeatmap()
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		if err := png.Encode(w, img); err != nil {
			log.Printf("Error encoding heatmap PNG: %v", err)
		}
	})

	return mux
}
