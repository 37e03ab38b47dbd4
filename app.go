package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/kwv/frustumfit/frustum"
)

// App encapsulates the application state and dependencies
type App struct {
	Config *frustum.Config
	Solver *frustum.Solver
	Out    io.Writer

	// CLI Flags (effectively dependencies)
	ConfigFile  string
	Convention  string
	Far         float64
	Aspect      float64
	Evaluate    string
	PrintMatrix bool
	SurfaceFile string
	HeatmapFile string
	MQTTMode    bool
	HTTPPort    int
	SaveConfig  string

	newMQTTClient func(frustum.MQTTConfig) (mqtt.Client, error)
	serve         func(addr string, h http.Handler) error
}

// NewApp creates a new App writing results to out.
func NewApp(out io.Writer) *App {
	return &App{
		Out:           out,
		newMQTTClient: frustum.NewMQTTClient,
		serve:         serveUntilSignal,
	}
}

// ApplyOptions applies CLI options to the App instance
func (a *App) ApplyOptions(opts AppOptions) {
	a.ConfigFile = opts.ConfigFile
	a.Convention = opts.Convention
	a.Far = opts.Far
	a.Aspect = opts.Aspect
	a.Evaluate = opts.Evaluate
	a.PrintMatrix = opts.PrintMatrix
	a.SurfaceFile = opts.SurfaceFile
	a.HeatmapFile = opts.HeatmapFile
	a.MQTTMode = opts.MQTTMode
	a.HTTPPort = opts.HTTPPort
	a.SaveConfig = opts.SaveConfig
}

// loadConfig builds the effective configuration: file (or defaults), then
// environment, then command-line overrides.
func (a *App) loadConfig() (*frustum.Config, error) {
	config := frustum.DefaultConfig()
	if a.ConfigFile != "" {
		loaded, err := frustum.LoadConfig(a.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w (looked at %s)", err, a.ConfigFile)
		}
		config = loaded
		log.Printf("Loaded config from %s", a.ConfigFile)
	}
	config.ApplyEnv()

	if a.Convention != "" {
		config.Projection.Convention = a.Convention
	}
	if a.Far > 0 {
		config.Projection.Far = a.Far
	}
	if a.Aspect > 0 {
		config.Projection.Aspect = a.Aspect
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (a *App) setup() error {
	config, err := a.loadConfig()
	if err != nil {
		return err
	}
	if a.SaveConfig != "" {
		if err := frustum.SaveConfig(a.SaveConfig, config); err != nil {
			return err
		}
		log.Printf("Saved effective config to %s", a.SaveConfig)
	}
	solver, err := frustum.NewSolver(config)
	if err != nil {
		return err
	}
	a.Config = config
	a.Solver = solver
	return nil
}

// RunSolve runs the coarse search and refinement and reports the result.
func (a *App) RunSolve() error {
	if err := a.setup(); err != nil {
		return err
	}

	sol, err := a.Solver.SolveNamed(a.Config.Projection.Convention)
	if err != nil {
		return err
	}
	a.printSolution(sol)

	if a.PrintMatrix {
		if err := a.printWorldView(sol.Convention, sol.Refined.Params); err != nil {
			return err
		}
	}

	if a.SurfaceFile != "" {
		if err := frustum.WriteSurface(a.SurfaceFile, sol.Coarse); err != nil {
			return err
		}
		log.Printf("Saved error surface to %s", a.SurfaceFile)
	}
	if a.HeatmapFile != "" {
		if err := frustum.WriteHeatmap(a.HeatmapFile, sol.Coarse); err != nil {
			return err
		}
		log.Printf("Saved error heatmap to %s", a.HeatmapFile)
	}

	if a.MQTTMode {
		if err := a.publish(sol); err != nil {
			return err
		}
	}

	if a.HTTPPort > 0 {
		addr := fmt.Sprintf("0.0.0.0:%d", a.HTTPPort)
		return a.serve(addr, newHTTPServer(sol))
	}
	return nil
}

func (a *App) printSolution(sol frustum.Solution) {
	if strings.EqualFold(strings.TrimSpace(a.Config.Projection.Convention), frustum.ConventionAuto) {
		fmt.Fprintf(a.Out, "Convention: %s\n", sol.Convention)
	}
	c := sol.Coarse
	fmt.Fprintf(a.Out, "Coarse guess: fov=%.2f, near=%.3f, far=%.1f, err=%.6f\n",
		c.Best.FOV, c.Best.Near, sol.Far, c.Error)
	r := sol.Refined
	fmt.Fprintf(a.Out, "Refined: fov=%.6f, near=%.6f, far=%.6f, err=%.12f, converged=%v\n",
		r.Params.FOV, r.Params.Near, sol.Far, r.Error, r.Converged)
}

func (a *App) printWorldView(convention string, p frustum.Params) error {
	_, wv, err := a.Solver.EvaluateParams(convention, p)
	if err != nil {
		return err
	}
	if wv == nil {
		fmt.Fprintf(a.Out, "World-view matrix (%s): unavailable, projection rejected\n", convention)
		return nil
	}
	fmt.Fprintf(a.Out, "World-view matrix (%s, %s):\n%s\n", convention, a.Solver.Evaluator.Order(), frustum.FormatMatrix(wv))
	return nil
}

// RunEvaluate scores the explicit FOV,NEAR pair from -evaluate. With the
// auto convention every convention is scored. -print-matrix turns on the
// evaluator's [EVAL] log of the estimated world-view matrix.
func (a *App) RunEvaluate() error {
	p, err := parseParams(a.Evaluate)
	if err != nil {
		return err
	}
	if err := a.setup(); err != nil {
		return err
	}
	a.Solver.Evaluator.Verbose = a.PrintMatrix

	names := []string{a.Config.Projection.Convention}
	if strings.EqualFold(strings.TrimSpace(names[0]), frustum.ConventionAuto) {
		names = names[:0]
		for _, conv := range frustum.Conventions() {
			names = append(names, conv.Name())
		}
	}

	for _, name := range names {
		eval, wv, err := a.Solver.EvaluateParams(name, p)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "Evaluate (%s): fov=%.6f, near=%.6f, far=%.6f, %s\n",
			name, p.FOV, p.Near, a.Config.Projection.Far, eval)
		// The verbose evaluator has already logged an estimated matrix.
		if a.PrintMatrix && wv == nil {
			fmt.Fprintf(a.Out, "World-view matrix (%s): unavailable, projection rejected\n", name)
		}
	}
	return nil
}

// parseParams parses "FOV,NEAR".
func parseParams(s string) (frustum.Params, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return frustum.Params{}, fmt.Errorf("invalid -evaluate value %q: want FOV,NEAR", s)
	}
	fov, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return frustum.Params{}, fmt.Errorf("invalid fov %q: %w", parts[0], err)
	}
	near, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return frustum.Params{}, fmt.Errorf("invalid near %q: %w", parts[1], err)
	}
	return frustum.Params{FOV: fov, Near: near}, nil
}

// publish sends sol to the configured broker and disconnects.
func (a *App) publish(sol frustum.Solution) error {
	client, err := a.newMQTTClient(a.Config.MQTT)
	if err != nil {
		return fmt.Errorf("failed to connect to MQTT: %w", err)
	}
	if client == nil {
		return fmt.Errorf("-mqtt requires mqtt.broker or MQTT_BROKER")
	}
	defer client.Disconnect(250)

	publisher := frustum.NewPublisher(client, a.Config.MQTT.PublishPrefix)
	publisher.SetQoS(a.Config.MQTT.QoS)
	publisher.SetRetain(a.Config.MQTT.Retain)
	return publisher.PublishSolution(sol)
}

// serveUntilSignal serves h on addr until SIGINT or SIGTERM.
func serveUntilSignal(addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[HTTP] Starting server on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	fmt.Println("\nHTTP endpoints:")
	fmt.Println("  GET /health        - Health check")
	fmt.Println("  GET /solution      - Solution JSON")
	fmt.Println("  GET /surface.svg   - Coarse error surface (SVG)")
	fmt.Println("  GET /surface.png   - Coarse error surface (PNG)")
	fmt.Println("  GET /heatmap.png   - Labelled coarse error heatmap")
	fmt.Println("\nPress Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errCh:
		return fmt.Errorf("[HTTP] server error: %w", err)
	case <-sigChan:
	}

	fmt.Println("\nShutting down server...")
	return srv.Close()
}
