package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
)

// Version is set at build time via -ldflags
var Version = "dev"

// AppOptions holds the parsed command-line flags.
type AppOptions struct {
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
}

// Runner is the set of modes main can dispatch to.
type Runner interface {
	ApplyOptions(opts AppOptions)
	RunSolve() error
	RunEvaluate() error
}

func main() {
	app := NewApp(os.Stdout)
	if err := run(os.Args[1:], os.Stderr, app); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("frustumfit: %v", err)
	}
}

// run parses args, applies them to app and runs the selected mode. Usage
// and version text go to out.
func run(args []string, out io.Writer, app Runner) error {
	fs := flag.NewFlagSet("frustumfit", flag.ContinueOnError)
	fs.SetOutput(out)

	var opts AppOptions
	fs.StringVar(&opts.ConfigFile, "config", "", "Path to YAML configuration file (built-in defaults when empty)")
	fs.StringVar(&opts.Convention, "convention", "", "Projection convention: direct3d, opengl or auto (overrides config)")
	fs.Float64Var(&opts.Far, "far", 0, "Far plane distance (overrides config when > 0)")
	fs.Float64Var(&opts.Aspect, "aspect", 0, "Aspect ratio width/height (overrides config when > 0)")
	fs.StringVar(&opts.Evaluate, "evaluate", "", "Score one explicit pair FOV,NEAR instead of searching")
	fs.BoolVar(&opts.PrintMatrix, "print-matrix", false, "Print the estimated world-view matrix")
	fs.StringVar(&opts.SurfaceFile, "surface", "", "Write the coarse error surface to this .svg, .png or .webp file")
	fs.StringVar(&opts.HeatmapFile, "heatmap", "", "Write a labelled coarse error heatmap (.png or .webp)")
	fs.BoolVar(&opts.MQTTMode, "mqtt", false, "Publish the solution to the configured MQTT broker")
	fs.IntVar(&opts.HTTPPort, "http-port", 0, "Serve the solution over HTTP on this port after solving (0 disables)")
	fs.StringVar(&opts.SaveConfig, "save-config", "", "Write the effective configuration (file, env and flag overrides) to this YAML file")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	fmt.Fprintf(out, "frustumfit version: %s\n", Version)
	app.ApplyOptions(opts)

	if opts.Evaluate != "" {
		return app.RunEvaluate()
	}
	return app.RunSolve()
}
