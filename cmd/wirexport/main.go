package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	wire "github.com/flywave/go-wire"
	"github.com/flywave/go-wire/internal/config"
	"github.com/flywave/go-wire/internal/logger"
)

type wirexport struct {
	flags    config.Flags
	selected string
	quiet    bool
}

func (w *wirexport) usage(fs *flag.FlagSet) func() {
	return func() {
		fmt.Fprintf(fs.Output(), "usage: wirexport [flags] <input.gltf|.glb|.mst> [output%s]\n", wire.WIREEXT)
		fs.PrintDefaults()
	}
}

// outputPath appends the wire extension when missing; an empty out derives it from the input.
func outputPath(in, out string) string {
	if out == "" {
		out = strings.TrimSuffix(in, filepath.Ext(in))
	}
	if !strings.EqualFold(filepath.Ext(out), wire.WIREEXT) {
		out += wire.WIREEXT
	}
	return out
}

func openScene(path string, selected []string) (wire.Scene, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
		s, err := wire.OpenGltfScene(path)
		if err != nil {
			return nil, err
		}
		s.Select(selected...)
		return s, nil
	case wire.MSTEXT:
		return wire.OpenMstScene(path)
	default:
		return nil, fmt.Errorf("%w: unsupported input %s", wire.ErrInvalidScene, path)
	}
}

func (w *wirexport) run(args []string) error {
	fs := flag.NewFlagSet("wirexport", flag.ContinueOnError)
	fs.Usage = w.usage(fs)
	w.flags.Register(fs)
	fs.StringVar(&w.selected, "select", "", "Comma separated node names treated as selected (glTF)")
	fs.BoolVar(&w.quiet, "quiet", false, "Hide the progress bar")
	if err := w.flags.Parse(fs, args); err != nil {
		return err
	}

	cfg, err := config.Load(w.flags.Config)
	if err != nil {
		return err
	}
	w.flags.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.File, true)
	defer logger.Sync(log)

	if w.flags.SavePreset != "" {
		if err := cfg.SaveTo(w.flags.SavePreset); err != nil {
			return fmt.Errorf("failed to save preset: %w", err)
		}
		log.Info("preset saved", zap.String("path", w.flags.SavePreset))
		if fs.NArg() == 0 {
			return nil
		}
	}

	if fs.NArg() < 1 || fs.NArg() > 2 {
		fs.Usage()
		return errors.New("expected an input file and an optional output file")
	}
	in := fs.Arg(0)
	out := outputPath(in, fs.Arg(1))

	var names []string
	if w.selected != "" {
		names = strings.Split(w.selected, ",")
	}
	scene, err := openScene(in, names)
	if err != nil {
		return err
	}

	ex := wire.NewExporter(cfg.ExportOptions(), log)
	var bar *progressbar.ProgressBar
	if !w.quiet {
		ex.Progress = func(done, total int, name string) {
			if bar == nil {
				bar = progressbar.Default(int64(total), "exporting")
			}
			bar.Describe(name)
			_ = bar.Set(done)
		}
	}
	stats, err := ex.Export(out, scene)
	if bar != nil {
		_ = bar.Close()
	}
	if err != nil {
		return err
	}

	log.Info("export done",
		zap.String("input", in),
		zap.String("output", out),
		zap.Int("objects", stats.Objects),
		zap.Int("faces", stats.Faces),
		zap.Int("vertices", stats.Counters.NextVertex-1),
		zap.Int("normals", stats.Counters.NextNormal-1),
	)
	return nil
}

func main() {
	w := wirexport{}

	if err := w.run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "wirexport: %v\n", err)
		os.Exit(1)
	}
}
