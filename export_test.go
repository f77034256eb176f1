package wire

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	dmat "github.com/flywave/go3d/float64/mat4"
	"github.com/flywave/go3d/float64/vec4"
	"github.com/flywave/go3d/vec3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type brokenObject struct {
	MeshObject
}

var errBrokenModifier = errors.New("modifier stack failed")

func (o *brokenObject) Resolve(ResolveSettings) (*Mesh, error) {
	return nil, errBrokenModifier
}

type recordingObject struct {
	MeshObject
	got *ResolveSettings
}

func (o *recordingObject) Resolve(s ResolveSettings) (*Mesh, error) {
	*o.got = s
	return o.MeshObject.Resolve(s)
}

func translation(x, y, z float64) *dmat.T {
	m := dmat.Ident
	m[3] = vec4.T{x, y, z, 1}
	return &m
}

func identityOptions() ExportOptions {
	opts := DefaultExportOptions()
	opts.AxisForward = SceneForward
	opts.AxisUp = SceneUp
	return opts
}

func bareTriangle(name string) *Mesh {
	m := triangleMesh(name, vec3.T{})
	m.LoopNormals = nil
	return m
}

func sampleScene() *MemoryScene {
	s := &MemoryScene{}
	s.Add(
		&MeshObject{ObjName: "cube", Mesh: quadMesh("cube"), IsSelected: true},
		&MeshObject{ObjName: "child", Mesh: bareTriangle("child"), IsDupli: true},
		&MeshObject{ObjName: "parent", Instances: []Instance{
			{Object: &MeshObject{ObjName: "child", Mesh: bareTriangle("child"), IsDupli: true}, Matrix: *translation(0, 0, 5)},
		}},
		&brokenObject{MeshObject{ObjName: "broken", IsSelected: true}},
	)
	return s
}

// TestDefaultExportOptions 测试默认导出选项
func TestDefaultExportOptions(t *testing.T) {
	opts := DefaultExportOptions()
	require.NoError(t, opts.Validate())
	assert.False(t, opts.UseSelection)
	assert.True(t, opts.ApplyModifiers)
	assert.False(t, opts.ApplyModifiersRender)
	assert.False(t, opts.WriteNormals)
	assert.False(t, opts.Triangulate)
	assert.Equal(t, 1.0, opts.GlobalScale)
	assert.Equal(t, "-Z", opts.AxisForward)
	assert.Equal(t, "Y", opts.AxisUp)
	assert.Equal(t, ReferencedFaces, opts.Layout())

	o := opts.Options()
	assert.Equal(t, &Options{Version: FormatVersion, Header: true, TextMode: true}, o)
}

// TestExportOptionsValidate 测试非法导出选项
func TestExportOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*ExportOptions)
		target error
	}{
		{"scale too small", func(o *ExportOptions) { o.GlobalScale = 0 }, ErrInvalidOptions},
		{"scale too large", func(o *ExportOptions) { o.GlobalScale = 5000 }, ErrInvalidOptions},
		{"bad axis", func(o *ExportOptions) { o.AxisUp = "Q" }, ErrInvalidOptions},
		{"same axis", func(o *ExportOptions) { o.AxisForward = "Y" }, ErrInvalidOptions},
		{"version", func(o *ExportOptions) { o.Version = 1024 }, ErrInvalidVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultExportOptions()
			tt.modify(&opts)
			assert.ErrorIs(t, opts.Validate(), tt.target)

			var buf bytes.Buffer
			_, err := NewExporter(opts, nil).ExportTo(&buf, sampleScene())
			assert.ErrorIs(t, err, tt.target)
			assert.Zero(t, buf.Len())
		})
	}
}

// TestExportScene 测试导出流程: 跳过复制子对象, 展开复制实例, 跳过无法解析的对象
func TestExportScene(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	ex := NewExporter(identityOptions(), zap.New(core))

	var progress []int
	ex.Progress = func(done, total int, name string) {
		assert.Equal(t, 4, total)
		progress = append(progress, done)
	}

	var buf bytes.Buffer
	stats, err := ex.ExportTo(&buf, sampleScene())
	require.NoError(t, err)

	assert.Equal(t,
		"# Wiresterizer\n# Version 1\n"+
			"v 0.000000 0.000000 0.000000\n"+
			"v 1.000000 0.000000 0.000000\n"+
			"v 1.000000 1.000000 0.000000\n"+
			"v 0.000000 1.000000 0.000000\n"+
			"f 1 2 3 4\n"+
			"v 0.000000 0.000000 5.000000\n"+
			"v 1.000000 0.000000 5.000000\n"+
			"v 0.000000 1.000000 5.000000\n"+
			"f 5 6 7\n",
		buf.String())

	assert.Equal(t, 3, stats.Objects)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 2, stats.Meshes)
	assert.Equal(t, 2, stats.Faces)
	assert.Equal(t, Counters{NextVertex: 8, NextNormal: 1}, stats.Counters)
	assert.Equal(t, Boundbox{0, 0, 0, 1, 1, 5}, stats.Bounds)
	assert.Equal(t, []int{1, 2, 3, 4}, progress)

	assert.Equal(t, 1, logs.FilterMessage("ignoring dupli child").Len())
	skipped := logs.FilterMessage("skipping unresolvable object").All()
	require.Len(t, skipped, 1)
	assert.Equal(t, "broken", skipped[0].ContextMap()["object"])
}

// TestExportEmptyMeshBetweenObjects 测试多对象导出中途的空网格被跳过且不影响索引
func TestExportEmptyMeshBetweenObjects(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	opts := identityOptions()
	opts.Header = false
	scene := &MemoryScene{}
	scene.Add(
		&MeshObject{ObjName: "quad", Mesh: quadMesh("quad")},
		&MeshObject{ObjName: "empty", Mesh: &Mesh{Name: "empty"}},
		&MeshObject{ObjName: "tri", Mesh: bareTriangle("tri")},
	)

	var buf bytes.Buffer
	stats, err := NewExporter(opts, zap.New(core)).ExportTo(&buf, scene)
	require.NoError(t, err)

	assert.Equal(t,
		"v 0.000000 0.000000 0.000000\n"+
			"v 1.000000 0.000000 0.000000\n"+
			"v 1.000000 1.000000 0.000000\n"+
			"v 0.000000 1.000000 0.000000\n"+
			"f 1 2 3 4\n"+
			"v 0.000000 0.000000 0.000000\n"+
			"v 1.000000 0.000000 0.000000\n"+
			"v 0.000000 1.000000 0.000000\n"+
			"f 5 6 7\n",
		buf.String())
	assert.Equal(t, 3, stats.Objects)
	assert.Equal(t, 2, stats.Meshes)
	assert.Equal(t, Counters{NextVertex: 8, NextNormal: 1}, stats.Counters)

	skipped := logs.FilterMessage("skipping empty mesh").All()
	require.Len(t, skipped, 1)
	assert.Equal(t, "empty", skipped[0].ContextMap()["object"])
}

// TestExportSelection 测试仅导出选中对象
func TestExportSelection(t *testing.T) {
	opts := identityOptions()
	opts.UseSelection = true
	var buf bytes.Buffer
	stats, err := NewExporter(opts, nil).ExportTo(&buf, sampleScene())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Objects)
	assert.Equal(t, 1, stats.Meshes)
	assert.Contains(t, buf.String(), "f 1 2 3 4\n")
	assert.NotContains(t, buf.String(), "f 5 6 7")
}

// TestExportDefaultAxes 测试默认坐标轴下的顶点与计算法线
func TestExportDefaultAxes(t *testing.T) {
	opts := DefaultExportOptions()
	opts.WriteNormals = true
	scene := &MemoryScene{}
	scene.Add(&MeshObject{ObjName: "tri", Mesh: bareTriangle("tri")})

	var buf bytes.Buffer
	_, err := NewExporter(opts, nil).ExportTo(&buf, scene)
	require.NoError(t, err)
	assert.Equal(t,
		"# Wiresterizer\n# Version 1\n# Vertex normals\n"+
			"v 0.000000 0.000000 0.000000\n"+
			"v 1.000000 0.000000 0.000000\n"+
			"v 0.000000 0.000000 -1.000000\n"+
			"vn 0.0000 1.0000 0.0000\n"+
			"f 1//1 2//1 3//1\n",
		buf.String())
}

// TestExportObjectMatrixAndScale 测试对象矩阵与全局缩放的组合
func TestExportObjectMatrixAndScale(t *testing.T) {
	opts := identityOptions()
	opts.GlobalScale = 2
	opts.Header = false
	scene := &MemoryScene{}
	scene.Add(&MeshObject{ObjName: "tri", Mesh: bareTriangle("tri"), Mat: translation(1, 0, 0)})

	var buf bytes.Buffer
	_, err := NewExporter(opts, nil).ExportTo(&buf, scene)
	require.NoError(t, err)
	assert.Equal(t,
		"v 2.000000 0.000000 0.000000\n"+
			"v 4.000000 0.000000 0.000000\n"+
			"v 2.000000 2.000000 0.000000\n"+
			"f 1 2 3\n",
		buf.String())
}

// TestExportTriangulate 测试三角化选项
func TestExportTriangulate(t *testing.T) {
	opts := identityOptions()
	opts.Triangulate = true
	opts.WriteNormals = true
	scene := &MemoryScene{}
	scene.Add(&MeshObject{ObjName: "quad", Mesh: quadMesh("quad")})

	var buf bytes.Buffer
	stats, err := NewExporter(opts, nil).ExportTo(&buf, scene)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "# Triangles\n# Vertex normals\n")
	assert.Contains(t, buf.String(), "f 1//1 2//1 3//1\nf 1//1 3//1 4//1\n")
	assert.Equal(t, 2, stats.Faces)
}

// TestExportResolveSettings 测试修改器设置传递给宿主
func TestExportResolveSettings(t *testing.T) {
	var got ResolveSettings
	opts := identityOptions()
	opts.ApplyModifiers = false
	opts.ApplyModifiersRender = true
	scene := &MemoryScene{}
	scene.Add(&recordingObject{MeshObject: MeshObject{ObjName: "rec", Mesh: bareTriangle("rec")}, got: &got})

	_, err := NewExporter(opts, nil).ExportTo(&bytes.Buffer{}, scene)
	require.NoError(t, err)
	assert.Equal(t, ResolveSettings{ApplyModifiers: false, Render: true}, got)
}

// TestExportBinary 测试二进制导出只包含头部
func TestExportBinary(t *testing.T) {
	opts := identityOptions()
	opts.TextMode = false
	opts.WriteNormals = true

	var buf bytes.Buffer
	stats, err := NewExporter(opts, nil).ExportTo(&buf, sampleScene())
	require.NoError(t, err)
	assert.Equal(t, []byte{'W', 'I', 'R', 'E', 0x00, 0x00, 0x10, 0x01}, buf.Bytes())
	assert.Equal(t, 2, stats.Meshes)
}

// TestExportInvalidMesh 测试非法网格终止导出
func TestExportInvalidMesh(t *testing.T) {
	scene := &MemoryScene{}
	scene.Add(
		&MeshObject{ObjName: "ok", Mesh: bareTriangle("ok")},
		&MeshObject{ObjName: "bad", Mesh: &Mesh{Vertices: []vec3.T{{}, {}}, Polygons: [][]uint32{{0, 1}}}},
		&MeshObject{ObjName: "never", Mesh: bareTriangle("never")},
	)
	var buf bytes.Buffer
	stats, err := NewExporter(identityOptions(), nil).ExportTo(&buf, scene)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidMesh)
	assert.Contains(t, err.Error(), `"bad"`)
	assert.Equal(t, 1, stats.Meshes)
	assert.Contains(t, buf.String(), "f 1 2 3\n")
	assert.NotContains(t, buf.String(), "f 4 5 6")
}

// TestExportToFile 测试写入文件
func TestExportToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "scene"+WIREEXT)
	opts := identityOptions()
	require.NoError(t, Save(path, sampleScene(), opts, zap.NewNop()))

	var want bytes.Buffer
	_, err := NewExporter(opts, nil).ExportTo(&want, sampleScene())
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want.String(), string(got))
}

// TestExportInvalidOptionsCreatesNoFile 测试选项非法时不创建输出文件
func TestExportInvalidOptionsCreatesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out"+WIREEXT)
	opts := identityOptions()
	opts.Version = -1
	_, err := NewExporter(opts, nil).Export(path, sampleScene())
	assert.ErrorIs(t, err, ErrInvalidVersion)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
