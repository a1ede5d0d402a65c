// Command flockdemo renders an instanced flock scene offscreen and saves
// the last frame as a PNG.
//
// The scene comes from a YAML or TOML config file naming an SVG document
// and a Go script. Without them a built-in swarm of stars is drawn.
//
//	flockdemo -config scene.yaml -frames 120 -out swarm.png
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"log"
	"log/slog"
	"math"
	"os"
	"os/signal"

	"github.com/gogpu/flock"
	"github.com/gogpu/flock/config"
	"github.com/gogpu/flock/script"
	"github.com/gogpu/flock/svg"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML or TOML scene config")
		backend    = flag.String("backend", "", "GPU backend: vulkan or noop (overrides config)")
		frames     = flag.Int("frames", -1, "frames to render, 0 runs until interrupted (overrides config)")
		output     = flag.String("out", "", "output PNG (overrides config)")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	flock.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	if *backend != "" {
		cfg.Backend = *backend
	}
	if *frames >= 0 {
		cfg.Frames = *frames
	}
	if *output != "" {
		cfg.Output = *output
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	r, err := flock.Open(cfg.Backend, cfg.Options()...)
	if err != nil {
		return err
	}
	defer r.Destroy()

	r.SetCameraPos(cfg.Camera.X, cfg.Camera.Y)
	r.SetCameraZoom(cfg.Camera.Zoom)

	meshes, err := loadMeshes(r, cfg.SVG)
	if err != nil {
		return err
	}

	var updater flock.Updater
	if cfg.Script != "" {
		host := script.NewHost(r, meshes)
		defer host.Close()
		if err := host.LoadFile(cfg.Script); err != nil {
			return err
		}
		if cfg.Watch {
			if err := host.Watch(); err != nil {
				return err
			}
		}
		updater = host
	} else {
		sw, err := newSwarm(r, meshes)
		if err != nil {
			return err
		}
		updater = sw
	}

	loop := flock.NewLoop(r, updater)
	if err := loop.Run(ctx, cfg.Frames); err != nil {
		// An interrupt or deadline ends the run; the last frame is still saved.
		if !stopped(err) || loop.Frame() == 0 {
			return err
		}
		flock.Logger().Info("flockdemo: stopped", "reason", err)
	}
	stats := r.LastFrameStats()
	flock.Logger().Info("flockdemo: done", "title", cfg.Title, "frames", loop.Frame(),
		"draws", stats.DrawCalls, "instances", stats.Instances)

	return savePNG(r, cfg.Output)
}

func stopped(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// loadMeshes uploads the SVG document, one mesh per shape plus the whole
// document as "scene". Without a document it uploads the built-in star
// and disc.
func loadMeshes(r *flock.Renderer, path string) (map[string]flock.Mesh, error) {
	if path == "" {
		return builtinMeshes(r)
	}
	doc, err := svg.DecodeFile(path)
	if err != nil {
		return nil, err
	}
	doc = doc.Centered()

	meshes, err := svg.Upload(r.Registry, doc)
	if err != nil {
		return nil, err
	}
	scene, err := svg.UploadMerged(r.Registry, doc)
	if err != nil {
		return nil, err
	}
	meshes["scene"] = scene
	return meshes, nil
}

func builtinMeshes(r *flock.Renderer) (map[string]flock.Mesh, error) {
	star := flock.NewPath()
	var pts []flock.Point
	for i := 0; i < 10; i++ {
		radius := 12.0
		if i%2 == 1 {
			radius = 5
		}
		a := float64(i)*math.Pi/5 - math.Pi/2
		pts = append(pts, flock.Pt(radius*math.Cos(a), radius*math.Sin(a)))
	}
	star.Polygon(pts...)

	disc := flock.NewPath()
	disc.Circle(0, 0, 40)

	gold, ok := flock.Named("gold")
	if !ok {
		return nil, errors.New("star: unknown colour gold")
	}
	starMesh, err := r.UploadPath(star, gold, 1)
	if err != nil {
		return nil, fmt.Errorf("star: %w", err)
	}
	discMesh, err := r.UploadPath(disc, flock.White, 0.6)
	if err != nil {
		return nil, fmt.Errorf("disc: %w", err)
	}
	return map[string]flock.Mesh{"star": starMesh, "disc": discMesh}, nil
}

// swarm spins a spiral of stars in front of a disc.
type swarm struct {
	r     *flock.Renderer
	star  flock.Mesh
	count int
}

func newSwarm(r *flock.Renderer, meshes map[string]flock.Mesh) (*swarm, error) {
	s := &swarm{r: r, star: meshes["star"], count: 400}
	if disc, ok := meshes["disc"]; ok {
		i, err := r.AddInstance(disc, 0, 0)
		if err != nil {
			return nil, fmt.Errorf("disc: %w", err)
		}
		if err := r.SetZ(disc, i, 0); err != nil {
			return nil, fmt.Errorf("disc: %w", err)
		}
	}
	return s, nil
}

func (s *swarm) Update(frame int) error {
	t := float64(frame) / 60
	for i := 0; i < s.count; i++ {
		a := float64(i)*0.3 + t
		d := 50 + float64(i)*0.8
		x := float32(d * math.Cos(a))
		y := float32(d * math.Sin(a))

		if frame == 0 {
			if _, err := s.r.AddInstance(s.star, x, y); err != nil {
				return err
			}
			hue := float32(i) / float32(s.count)
			if err := s.r.SetColorMultiplier(s.star, i, flock.RGB{R: 1, G: 1 - hue, B: hue}); err != nil {
				return err
			}
			continue
		}
		if err := s.r.SetX(s.star, i, x); err != nil {
			return err
		}
		if err := s.r.SetY(s.star, i, y); err != nil {
			return err
		}
		if err := s.r.SetRotation(s.star, i, float32(a)); err != nil {
			return err
		}
	}
	return nil
}

func savePNG(r *flock.Renderer, path string) error {
	img, err := r.Snapshot()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	flock.Logger().Info("flockdemo: saved", "path", path, "size", img.Bounds().Size())
	return nil
}
