package config

import "flag"

// Flags are the command line overrides, applied after the config file.
type Flags struct {
	Config      string
	Debug       bool
	LogFile     string
	Selection   bool
	NoModifiers bool
	Render      bool
	Normals     bool
	Triangulate bool
	Scale       float64
	AxisForward string
	AxisUp      string
	Binary      bool
	NoHeader    bool
	FaceNormals bool
	InlineFaces bool
	Version     int
	SavePreset  string
	set         map[string]bool
}

// Register binds the flags to fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Config, "config", "", "Path to config or preset file (.yaml or .toml)")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log-file", "", "Also log to a rotating file")
	fs.BoolVar(&f.Selection, "selection", false, "Export selected objects only")
	fs.BoolVar(&f.NoModifiers, "no-modifiers", false, "Do not apply modifiers")
	fs.BoolVar(&f.Render, "render", false, "Use render settings for modifiers")
	fs.BoolVar(&f.Normals, "normals", false, "Write normals")
	fs.BoolVar(&f.Triangulate, "triangulate", false, "Triangulate faces")
	fs.Float64Var(&f.Scale, "scale", 1.0, "Global scale")
	fs.StringVar(&f.AxisForward, "forward", "", "Forward axis (X, Y, Z, -X, -Y, -Z)")
	fs.StringVar(&f.AxisUp, "up", "", "Up axis (X, Y, Z, -X, -Y, -Z)")
	fs.BoolVar(&f.Binary, "binary", false, "Write the binary encoding")
	fs.BoolVar(&f.NoHeader, "no-header", false, "Omit the header")
	fs.BoolVar(&f.FaceNormals, "face-normals", false, "Write one normal per face (inline faces)")
	fs.BoolVar(&f.InlineFaces, "inline-faces", false, "Write positions inline in face records")
	fs.IntVar(&f.Version, "format-version", 0, "Format version written to the header")
	fs.StringVar(&f.SavePreset, "save-preset", "", "Write the effective config to this file")
}

// Parse parses args and remembers which flags were given.
func (f *Flags) Parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) {
		f.set[fl.Name] = true
	})
	return nil
}

// Apply overrides cfg with the flags that were given explicitly.
func (f *Flags) Apply(cfg *Config) {
	if f.set["debug"] && f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.set["log-file"] {
		cfg.Logging.File.Path = f.LogFile
	}
	ex := &cfg.Export
	if f.set["selection"] {
		ex.UseSelection = f.Selection
	}
	if f.set["no-modifiers"] {
		ex.ApplyModifiers = !f.NoModifiers
	}
	if f.set["render"] {
		ex.ApplyModifiersRender = f.Render
	}
	if f.set["normals"] {
		ex.WriteNormals = f.Normals
	}
	if f.set["triangulate"] {
		ex.Triangulate = f.Triangulate
	}
	if f.set["scale"] {
		ex.GlobalScale = f.Scale
	}
	if f.set["forward"] {
		ex.AxisForward = f.AxisForward
	}
	if f.set["up"] {
		ex.AxisUp = f.AxisUp
	}
	if f.set["binary"] {
		ex.TextMode = !f.Binary
	}
	if f.set["no-header"] {
		ex.Header = !f.NoHeader
	}
	if f.set["face-normals"] {
		ex.FaceNormals = f.FaceNormals
	}
	if f.set["inline-faces"] {
		ex.InlineFaces = f.InlineFaces
	}
	if f.set["format-version"] {
		ex.Version = f.Version
	}
}
