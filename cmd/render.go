package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/output"
	"github.com/df07/go-sphere-tracer/pkg/renderer"
	"github.com/df07/go-sphere-tracer/pkg/scene"
	"github.com/df07/go-sphere-tracer/pkg/watcher"
)

// stdoutPath selects standard output instead of a file
const stdoutPath = "-"

type renderOptions struct {
	scene     string
	scenesDir string
	output   string
	format   string
	width    int
	samples  int
	depth    int
	workers  int
	tileSize int
	seed     int64
	quiet    bool
	watch    bool

	vfov          float64
	defocusAngle  float64
	focusDistance float64
	lookFrom      core.Vec3
	lookAt        core.Vec3
	lookFromFlag  *vec3Value
	lookAtFlag    *vec3Value
}

func newRenderCmd() *cobra.Command {
	opts := &renderOptions{}
	opts.lookFromFlag = newVec3Value(&opts.lookFrom)
	opts.lookAtFlag = newVec3Value(&opts.lookAt)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a scene to a PPM or PNG image",
		Long: `Render a built-in scene or a YAML/TOML scene file.

Without --output the image is saved as output/<scene>/render_<timestamp>.<format>.
Use --output - to write the image to stdout; progress then stays on stderr.`,
		Example: `  sphere-tracer render --scene spheres --width 800 --samples 200 -o spheres.png
  sphere-tracer render --scene scenes/glass-trio.yaml --watch
  sphere-tracer render --scene single-sphere -o - > image.ppm`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runRender(ctx, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.scene, "scene", "s", "default", "Built-in scene ID, file:<name> ID, or path to a .yaml/.yml/.toml scene")
	flags.StringVar(&opts.scenesDir, "scenes-dir", "", "Directory used to resolve file:<name> scene IDs (default ./scenes or ../scenes)")
	flags.StringVarP(&opts.output, "output", "o", "", "Output file, or - for stdout")
	flags.StringVarP(&opts.format, "format", "f", "", "Output format: ppm or png (default from the output extension, else ppm)")
	flags.IntVarP(&opts.width, "width", "w", 0, "Image width in pixels (default from the scene)")
	flags.IntVar(&opts.samples, "samples", 0, "Samples per pixel (default from the scene)")
	flags.IntVar(&opts.depth, "depth", 0, "Maximum ray bounce depth (default from the scene)")
	flags.IntVar(&opts.workers, "workers", 0, "Number of parallel workers (0 = CPU count)")
	flags.IntVar(&opts.tileSize, "tile-size", renderer.DefaultTileSize, "Edge length of a render tile in pixels")
	flags.Int64Var(&opts.seed, "seed", renderer.DefaultSeed, "Random seed; the same seed gives the same image for any worker count")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress progress output")
	flags.BoolVar(&opts.watch, "watch", false, "Re-render whenever the scene file changes")
	flags.Float64Var(&opts.vfov, "vfov", 0, "Vertical field of view in degrees (default from the scene)")
	flags.Float64Var(&opts.defocusAngle, "defocus-angle", 0, "Defocus blur angle in degrees (default from the scene)")
	flags.Float64Var(&opts.focusDistance, "focus-distance", 0, "Distance to the plane of perfect focus (default from the scene)")
	flags.Var(opts.lookFromFlag, "look-from", "Camera position as x,y,z (default from the scene)")
	flags.Var(opts.lookAtFlag, "look-at", "Point the camera looks at as x,y,z (default from the scene)")

	return cmd
}

// runRender renders once, then keeps re-rendering on scene file changes when watching
func runRender(ctx context.Context, opts *renderOptions, stdout, stderr io.Writer) error {
	logger := renderer.NewWriterLogger(stderr)
	if opts.quiet {
		logger = renderer.NewSilentLogger()
	}

	if opts.watch && opts.output == stdoutPath {
		return errors.New("--watch cannot be combined with --output -")
	}

	var sceneFile string
	if opts.watch {
		path, ok, err := sceneFilePath(opts.scenesDirOrDefault(), opts.scene)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("--watch needs a scene file, got %q", opts.scene)
		}
		sceneFile = path
	}

	if err := renderOnce(ctx, opts, stdout, logger); err != nil {
		return err
	}
	if !opts.watch {
		return nil
	}

	fw, err := watcher.NewFileWatcher(watcher.DefaultDebounce, logger)
	if err != nil {
		return err
	}
	defer fw.Close()

	changes := make(chan struct{}, 1)
	if err := fw.Watch([]string{sceneFile}, func(string) {
		select {
		case changes <- struct{}{}:
		default:
		}
	}); err != nil {
		return err
	}
	fw.Start(ctx)

	logger.Printf("Watching %s for changes (Ctrl+C to stop)\n", sceneFile)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			logger.Printf("%s changed, re-rendering...\n", sceneFile)
			if err := renderOnce(ctx, opts, stdout, logger); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				// Keep watching so the next save can fix the scene
				logger.Printf("Render failed: %v\n", err)
			}
		}
	}
}

func renderOnce(ctx context.Context, opts *renderOptions, stdout io.Writer, logger core.Logger) error {
	s, err := loadScene(opts)
	if err != nil {
		return err
	}

	rt := renderer.NewRaytracer(s, renderer.RenderConfig{
		TileSize:   opts.tileSize,
		NumWorkers: opts.workers,
		Seed:       opts.seed,
	}, logger)
	logger.Printf("Rendering %q at %dx%d, %d samples/pixel, max depth %d\n",
		s.Name, rt.Width(), rt.Height(), s.SamplingConfig.SamplesPerPixel, s.SamplingConfig.MaxDepth)

	startTime := time.Now()
	var stats renderer.RenderStats
	render := func(sink output.PixelSink) error {
		var err error
		stats, err = rt.Render(ctx, sink)
		return err
	}

	destination := opts.output
	if destination == stdoutPath {
		destination = "stdout"
		if err := writeStdout(stdout, opts.format, render); err != nil {
			return err
		}
	} else {
		if destination == "" {
			destination = defaultOutputPath(s.Name, opts.format, time.Now())
		}
		if err := output.WriteFile(destination, opts.format, render); err != nil {
			return err
		}
	}

	logger.Printf("Render completed in %v\n", time.Since(startTime))
	logger.Printf("Samples per pixel: %.1f (range %d - %d), mean luminance %.3f\n",
		stats.AverageSamples, stats.MinSamples, stats.MaxSamplesUsed, stats.MeanLuminance)
	logger.Printf("Render saved as %s\n", destination)
	return nil
}

// loadScene resolves the scene and applies command line overrides
func loadScene(opts *renderOptions) (*scene.Scene, error) {
	s, err := scene.LoadFrom(opts.scenesDirOrDefault(), opts.scene, scene.CameraConfig{
		Width:         opts.width,
		VFov:          opts.vfov,
		DefocusAngle:  opts.defocusAngle,
		FocusDistance: opts.focusDistance,
	})
	if err != nil {
		return nil, err
	}

	// Explicit vectors win even when they are zero
	if opts.lookFromFlag.set {
		s.CameraConfig.LookFrom = opts.lookFrom
	}
	if opts.lookAtFlag.set {
		s.CameraConfig.LookAt = opts.lookAt
	}

	s.SamplingConfig = scene.MergeSamplingConfig(s.SamplingConfig, scene.SamplingConfig{
		SamplesPerPixel: opts.samples,
		MaxDepth:        opts.depth,
	})
	return s, nil
}

func writeStdout(w io.Writer, format string, render func(output.PixelSink) error) error {
	var sink output.PixelSink
	switch strings.ToLower(format) {
	case "", output.FormatPPM:
		sink = output.NewPPMWriter(w)
	case output.FormatPNG:
		sink = output.NewPNGWriter(w)
	default:
		return fmt.Errorf("%w: %q", output.ErrUnknownFormat, format)
	}

	if err := render(sink); err != nil {
		return err
	}
	return sink.Close()
}

// defaultOutputPath returns output/<scene>/render_<timestamp>.<format>
func defaultOutputPath(sceneName, format string, now time.Time) string {
	if format == "" {
		format = output.FormatPPM
	}
	filename := fmt.Sprintf("render_%s.%s", now.Format("20060102_150405"), strings.ToLower(format))
	return filepath.Join("output", slug(sceneName), filename)
}

func slug(name string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, name)
	s = strings.Trim(s, "-")
	if s == "" {
		return "scene"
	}
	return s
}

func (opts *renderOptions) scenesDirOrDefault() string {
	if opts.scenesDir != "" {
		return opts.scenesDir
	}
	return scene.FindScenesDir()
}

// sceneFilePath reports the file behind a scene argument, if there is one
func sceneFilePath(scenesDir, name string) (string, bool, error) {
	if !strings.HasPrefix(name, "file:") {
		return name, scene.IsSceneFile(name), nil
	}

	path, err := scene.ResolveFileID(scenesDir, name)
	if err != nil {
		return "", false, err
	}
	return path, true, nil
}
