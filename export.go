package wire

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	dmat "github.com/flywave/go3d/float64/mat4"
	"go.uber.org/zap"
)

// ExportOptions 导出界面暴露的配置项
type ExportOptions struct {
	UseSelection         bool    `json:"useSelection" yaml:"use_selection" toml:"use_selection"`
	ApplyModifiers       bool    `json:"applyModifiers" yaml:"apply_modifiers" toml:"apply_modifiers"`
	ApplyModifiersRender bool    `json:"applyModifiersRender" yaml:"apply_modifiers_render" toml:"apply_modifiers_render"`
	WriteNormals         bool    `json:"writeNormals" yaml:"write_normals" toml:"write_normals"`
	Triangulate          bool    `json:"triangulate" yaml:"triangulate" toml:"triangulate"`
	GlobalScale          float64 `json:"globalScale" yaml:"global_scale" toml:"global_scale"`
	AxisForward          string  `json:"axisForward" yaml:"axis_forward" toml:"axis_forward"`
	AxisUp               string  `json:"axisUp" yaml:"axis_up" toml:"axis_up"`
	TextMode             bool    `json:"textMode" yaml:"text_mode" toml:"text_mode"`
	Header               bool    `json:"header" yaml:"header" toml:"header"`
	FaceNormals          bool    `json:"faceNormals" yaml:"face_normals" toml:"face_normals"`
	InlineFaces          bool    `json:"inlineFaces" yaml:"inline_faces" toml:"inline_faces"`
	Version              int     `json:"version" yaml:"version" toml:"version"`
}

func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		ApplyModifiers: true,
		GlobalScale:    1.0,
		AxisForward:    DefaultAxisForward,
		AxisUp:         DefaultAxisUp,
		TextMode:       true,
		Header:         true,
		Version:        FormatVersion,
	}
}

func (o *ExportOptions) Validate() error {
	if _, err := o.GlobalMatrix(); err != nil {
		return err
	}
	return o.Options().Validate()
}

// Options 解析出编码器选项
func (o *ExportOptions) Options() *Options {
	return &Options{
		Version:       o.Version,
		Header:        o.Header,
		TextMode:      o.TextMode,
		Triangles:     o.Triangulate,
		VertexNormals: o.WriteNormals,
		FaceNormals:   o.FaceNormals,
	}
}

func (o *ExportOptions) GlobalMatrix() (dmat.T, error) {
	return GlobalMatrix(o.GlobalScale, o.AxisForward, o.AxisUp)
}

func (o *ExportOptions) Layout() FaceLayout {
	if o.InlineFaces {
		return InlineFaces
	}
	return ReferencedFaces
}

func (o *ExportOptions) ResolveSettings() ResolveSettings {
	return ResolveSettings{ApplyModifiers: o.ApplyModifiers, Render: o.ApplyModifiersRender}
}

// ExportStats 单次导出的统计
type ExportStats struct {
	Objects  int
	Skipped  int
	Meshes   int
	Faces    int
	Counters Counters
	// Bounds 已写出顶点的导出空间包围盒
	Bounds Boundbox
}

// Exporter 导出流程编排: 打开输出, 遍历对象, 关闭输出
type Exporter struct {
	opts   ExportOptions
	logger *zap.Logger

	// Progress is called after every top level object with the number of objects done.
	Progress func(done, total int, name string)
}

func NewExporter(opts ExportOptions, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{opts: opts, logger: logger}
}

func (e *Exporter) ExportOptions() ExportOptions {
	return e.opts
}

// Export 将场景写入 path. 失败时已写出的部分保留在磁盘上
func (e *Exporter) Export(path string, scene Scene) (stats *ExportStats, err error) {
	if err := e.opts.Validate(); err != nil {
		return nil, err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, ioFailure("create output directory", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, ioFailure("open output", err)
	}
	bw := bufio.NewWriter(f)
	defer func() {
		ferr := bw.Flush()
		cerr := f.Close()
		if err != nil {
			return
		}
		if ferr != nil {
			err = ioFailure("flush output", ferr)
		} else if cerr != nil {
			err = ioFailure("close output", cerr)
		}
	}()

	e.logger.Info("wiresterizer export", zap.String("path", path), zap.Bool("text", e.opts.TextMode))
	stats, err = e.ExportTo(bw, scene)
	if err != nil {
		return stats, err
	}
	e.logger.Info("wiresterizer export finished",
		zap.String("path", path),
		zap.Int("objects", stats.Objects),
		zap.Int("meshes", stats.Meshes),
		zap.Int("faces", stats.Faces),
	)
	if !stats.Bounds.IsEmpty() {
		e.logger.Debug("export bounds", zap.Float64s("bounds", stats.Bounds[:]))
	}
	return stats, nil
}

// ExportTo 将场景写入 wt, 不负责关闭
func (e *Exporter) ExportTo(wt io.Writer, scene Scene) (*ExportStats, error) {
	if err := e.opts.Validate(); err != nil {
		return nil, err
	}
	global, err := e.opts.GlobalMatrix()
	if err != nil {
		return nil, err
	}
	opts := e.opts.Options()
	w := NewWriter(wt, opts)
	if err := w.WriteHeader(); err != nil {
		return nil, err
	}
	if opts.Header && !opts.TextMode {
		word, _ := PackHeaderWord(opts)
		e.logger.Debug("binary header", zap.String("word", fmt.Sprintf("0x%08x", word)))
	}

	objects := e.collectObjects(scene)
	fl := NewFlattener(w, e.opts.Layout())
	stats := &ExportStats{Bounds: EmptyBoundbox()}
	settings := e.opts.ResolveSettings()

	for i, ob := range objects {
		if ob.DupliChild() {
			e.logger.Debug("ignoring dupli child", zap.String("object", ob.Name()))
			stats.Skipped++
			e.progress(i+1, len(objects), ob.Name())
			continue
		}
		collected := append([]Instance{{Object: ob, Matrix: ob.Matrix()}}, ob.Duplis()...)
		if len(collected) > 1 {
			e.logger.Debug("dupli children", zap.String("object", ob.Name()), zap.Int("count", len(collected)-1))
		}
		for _, inst := range collected {
			if err := e.exportInstance(fl, &global, &inst, settings, &stats.Bounds); err != nil {
				stats.fill(fl)
				return stats, fmt.Errorf("export %q: %w", inst.Object.Name(), err)
			}
		}
		stats.Objects++
		e.progress(i+1, len(objects), ob.Name())
	}
	stats.fill(fl)
	return stats, nil
}

func (s *ExportStats) fill(fl *Flattener) {
	s.Meshes = fl.MeshCount()
	s.Faces = fl.FaceCount()
	s.Counters = fl.Counters()
}

func (e *Exporter) collectObjects(scene Scene) []Object {
	all := scene.Objects()
	if !e.opts.UseSelection {
		return all
	}
	var sel []Object
	for _, ob := range all {
		if ob.Selected() {
			sel = append(sel, ob)
		}
	}
	return sel
}

func (e *Exporter) progress(done, total int, name string) {
	if e.Progress != nil {
		e.Progress(done, total, name)
	}
}

func (e *Exporter) exportInstance(fl *Flattener, global *dmat.T, inst *Instance, settings ResolveSettings, bounds *Boundbox) error {
	mesh, err := inst.Object.Resolve(settings)
	if err != nil {
		e.logger.Debug("skipping unresolvable object", zap.String("object", inst.Object.Name()), zap.Error(err))
		return nil
	}
	if mesh == nil {
		return nil
	}
	if mesh.IsEmpty() {
		e.logger.Debug("skipping empty mesh", zap.String("object", inst.Object.Name()))
		return nil
	}
	if err := e.prepareMesh(mesh, global, &inst.Matrix); err != nil {
		return err
	}
	before := fl.Counters()
	if err := fl.Flatten(mesh); err != nil {
		return err
	}
	box := mesh.GetBoundbox()
	bounds.Union(&box)
	e.logger.Debug("mesh written",
		zap.String("object", inst.Object.Name()),
		zap.Int("vertices", len(mesh.Vertices)),
		zap.Int("faces", len(mesh.Polygons)),
		zap.Int("firstVertex", before.NextVertex),
		zap.Float64s("bounds", box[:]),
	)
	return nil
}

// prepareMesh 三角化必须在变换之前, 否则三角剖分可能随变换而不同
func (e *Exporter) prepareMesh(mesh *Mesh, global, objMat *dmat.T) error {
	if err := mesh.Validate(); err != nil {
		return err
	}
	if e.opts.Triangulate {
		mesh.Triangulate()
	}
	world := mulMat(global, objMat)
	mesh.Transform(&world)
	if e.opts.WriteNormals && len(mesh.Polygons) > 0 && !mesh.HasLoopNormals() {
		mesh.CalcLoopNormals()
	}
	return nil
}

// Save 以 opts 导出场景到 path
func Save(path string, scene Scene, opts ExportOptions, logger *zap.Logger) error {
	_, err := NewExporter(opts, logger).Export(path, scene)
	return err
}
