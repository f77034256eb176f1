package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	dmat "github.com/flywave/go3d/float64/mat4"

	"github.com/flywave/go3d/vec3"
)

const MST_SIGNATURE string = "fwtm"
const MSTEXT string = ".mst"

const (
	MST_V1 uint32 = 1
	MST_V2 uint32 = 2
	MST_V3 uint32 = 3
	MST_V4 uint32 = 4
	MST_V5 uint32 = 5
)

const (
	MESH_TRIANGLE_MATERIAL_TYPE_COLOR   = 0
	MESH_TRIANGLE_MATERIAL_TYPE_TEXTURE = 1
	MESH_TRIANGLE_MATERIAL_TYPE_PBR     = 2
	MESH_TRIANGLE_MATERIAL_TYPE_LAMBERT = 3
	MESH_TRIANGLE_MATERIAL_TYPE_PHONG   = 4
)

const (
	PROP_TYPE_STRING = iota
	PROP_TYPE_INT
	PROP_TYPE_FLOAT
	PROP_TYPE_BOOL
	PROP_TYPE_ARRAY
	PROP_TYPE_MAP
)

// 单个数组长度上限, 防止损坏文件导致超大分配
const mstMaxCount = 1 << 26

// MstNode MST 网格节点的几何部分
type MstNode struct {
	Vertices []vec3.T    `json:"vertices"`
	Normals  []vec3.T    `json:"normals,omitempty"`
	Mat      *dmat.T     `json:"mat,omitempty"`
	Faces    [][3]uint32 `json:"faces"`
}

// MstInstance 实例化网格: 同一组节点放置在多个变换上
type MstInstance struct {
	Transfors []*dmat.T  `json:"transfors"`
	Nodes     []*MstNode `json:"nodes"`
	Hash      uint64     `json:"hash"`
}

// MstFile MST 文件中与几何相关的内容; 材质与属性被跳过
type MstFile struct {
	Version   uint32         `json:"version"`
	Code      uint32         `json:"code,omitempty"`
	Nodes     []*MstNode     `json:"nodes"`
	Instances []*MstInstance `json:"instances,omitempty"`
}

type mstReader struct {
	rd  io.Reader
	err error
}

func (r *mstReader) fail(format string, args ...interface{}) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: mst: %s", ErrInvalidScene, fmt.Sprintf(format, args...))
	}
}

func (r *mstReader) readLittleByte(v interface{}) {
	if r.err != nil {
		return
	}
	if err := binary.Read(r.rd, binary.LittleEndian, v); err != nil {
		r.err = fmt.Errorf("%w: mst: %w", ErrInvalidScene, err)
	}
}

func (r *mstReader) u32() uint32 {
	var v uint32
	r.readLittleByte(&v)
	return v
}

func (r *mstReader) count(what string) int {
	n := r.u32()
	if n > mstMaxCount {
		r.fail("%s count %d too large", what, n)
		return 0
	}
	return int(n)
}

func (r *mstReader) skip(n int64) {
	if r.err != nil || n == 0 {
		return
	}
	if _, err := io.CopyN(io.Discard, r.rd, n); err != nil {
		r.err = fmt.Errorf("%w: mst: %w", ErrInvalidScene, err)
	}
}

func (r *mstReader) skipSized(what string) {
	r.skip(int64(r.count(what)))
}

func (r *mstReader) mat() *dmat.T {
	m := &dmat.T{}
	r.readLittleByte(m[0][:])
	r.readLittleByte(m[1][:])
	r.readLittleByte(m[2][:])
	r.readLittleByte(m[3][:])
	return m
}

func (r *mstReader) skipTexture() {
	r.skip(4) // id
	r.skipSized("texture name")
	r.skip(16 + 2 + 2 + 2) // size, format, type, compressed
	r.skipSized("texture data")
	r.skip(1) // repeated
}

func (r *mstReader) skipTextureMaterial() {
	r.skip(3 + 4) // color, transparency
	for i := 0; i < 2; i++ {
		var has uint16
		r.readLittleByte(&has)
		if has == 1 {
			r.skipTexture()
		}
	}
}

func (r *mstReader) skipMaterials(v uint32) {
	n := r.count("material")
	for i := 0; i < n && r.err == nil; i++ {
		ty := r.u32()
		switch ty {
		case MESH_TRIANGLE_MATERIAL_TYPE_COLOR:
			r.skip(3 + 4)
		case MESH_TRIANGLE_MATERIAL_TYPE_TEXTURE:
			r.skipTextureMaterial()
		case MESH_TRIANGLE_MATERIAL_TYPE_PBR:
			r.skipTextureMaterial()
			r.skip(3) // emissive
			if v < MST_V2 {
				r.skip(1)
			}
			r.skip(6*4 + 3 + 4 + 3*4 + 4 + 4 + 3 + 3)
		case MESH_TRIANGLE_MATERIAL_TYPE_LAMBERT:
			r.skipTextureMaterial()
			r.skip(3 * 3)
		case MESH_TRIANGLE_MATERIAL_TYPE_PHONG:
			r.skipTextureMaterial()
			r.skip(3*3 + 3 + 4 + 4)
		default:
			r.fail("unknown material type %d", ty)
		}
	}
}

func (r *mstReader) skipPropsValue(ty uint32, depth int) {
	switch ty {
	case PROP_TYPE_STRING:
		r.skipSized("string property")
	case PROP_TYPE_INT, PROP_TYPE_FLOAT:
		r.skip(8)
	case PROP_TYPE_BOOL:
		r.skip(1)
	case PROP_TYPE_ARRAY:
		n := r.count("array property")
		for i := 0; i < n && r.err == nil; i++ {
			r.skipPropsValue(r.u32(), depth+1)
		}
	case PROP_TYPE_MAP:
		r.skipProps(depth + 1)
	default:
		r.fail("unknown property type %d", ty)
	}
}

func (r *mstReader) skipProps(depth int) {
	if depth > 32 {
		r.fail("properties nested too deep")
		return
	}
	n := r.count("property")
	for i := 0; i < n && r.err == nil; i++ {
		r.skipSized("property key")
		r.skipPropsValue(r.u32(), depth)
	}
}

func (r *mstReader) node(withProps bool) *MstNode {
	nd := &MstNode{}
	nd.Vertices = make([]vec3.T, r.count("vertex"))
	for i := range nd.Vertices {
		r.readLittleByte(nd.Vertices[i][:])
	}
	nd.Normals = make([]vec3.T, r.count("normal"))
	for i := range nd.Normals {
		r.readLittleByte(nd.Normals[i][:])
	}
	r.skip(int64(r.count("color")) * 3)
	r.skip(int64(r.count("texcoord")) * 8)
	var isMat uint8
	r.readLittleByte(&isMat)
	if isMat == 1 {
		nd.Mat = r.mat()
	}
	groups := r.count("face group")
	for g := 0; g < groups && r.err == nil; g++ {
		r.skip(4) // batch id
		faces := make([][3]uint32, r.count("face"))
		r.readLittleByte(faces)
		nd.Faces = append(nd.Faces, faces...)
	}
	edges := r.count("edge group")
	for g := 0; g < edges && r.err == nil; g++ {
		r.skip(4)
		r.skip(int64(r.count("edge")) * 8)
	}
	if withProps {
		r.skipProps(0)
	}
	return nd
}

func (r *mstReader) instance(v uint32) *MstInstance {
	inst := &MstInstance{}
	n := r.count("transform")
	for i := 0; i < n && r.err == nil; i++ {
		inst.Transfors = append(inst.Transfors, r.mat())
	}
	features := int64(r.count("feature"))
	if v < MST_V3 {
		r.skip(features * 4)
	} else {
		r.skip(features * 8)
	}
	r.skip(6 * 8) // bbox
	r.skipMaterials(v)
	nodes := r.count("node")
	for i := 0; i < nodes && r.err == nil; i++ {
		inst.Nodes = append(inst.Nodes, r.node(false))
	}
	if v >= MST_V4 {
		r.skip(4) // code
	}
	if v >= MST_V5 {
		if r.u32() == 1 {
			r.skipProps(0)
		}
	}
	r.readLittleByte(&inst.Hash)
	return inst
}

// ReadMst 读取 MST 文件的几何内容
func ReadMst(rd io.Reader) (*MstFile, error) {
	r := &mstReader{rd: rd}
	sig := make([]byte, 4)
	if _, err := io.ReadFull(rd, sig); err != nil {
		return nil, fmt.Errorf("%w: mst signature: %w", ErrInvalidScene, err)
	}
	if !bytes.Equal(sig, []byte(MST_SIGNATURE)) {
		return nil, fmt.Errorf("%w: bad mst signature %q", ErrInvalidScene, sig)
	}
	ms := &MstFile{}
	ms.Version = r.u32()
	if r.err == nil && (ms.Version < MST_V1 || ms.Version > MST_V5) {
		return nil, fmt.Errorf("%w: unsupported mst version %d", ErrInvalidScene, ms.Version)
	}
	if ms.Version >= MST_V4 {
		ms.Code = r.u32()
	}
	r.skipMaterials(ms.Version)
	nodes := r.count("node")
	for i := 0; i < nodes && r.err == nil; i++ {
		ms.Nodes = append(ms.Nodes, r.node(ms.Version >= MST_V5))
	}
	insts := r.count("instance")
	for i := 0; i < insts && r.err == nil; i++ {
		ms.Instances = append(ms.Instances, r.instance(ms.Version))
	}
	if ms.Version >= MST_V5 && r.u32() > 0 {
		r.skipProps(0)
	}
	if r.err != nil {
		return nil, r.err
	}
	return ms, nil
}

// MstScene 以 MST 文件作为宿主场景
type MstScene struct {
	File    *MstFile
	objects []Object
}

func OpenMstScene(path string) (*MstScene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open mst %s: %w", ErrInvalidScene, path, err)
	}
	defer f.Close()
	return ReadMstScene(f)
}

func ReadMstScene(rd io.Reader) (*MstScene, error) {
	ms, err := ReadMst(rd)
	if err != nil {
		return nil, err
	}
	return NewMstScene(ms), nil
}

// NewMstScene exposes every node as an object and every instance mesh as a dupli parent.
func NewMstScene(ms *MstFile) *MstScene {
	s := &MstScene{File: ms}
	for i, nd := range ms.Nodes {
		s.objects = append(s.objects, &mstNodeObject{name: fmt.Sprintf("node_%d", i), node: nd})
	}
	for i, inst := range ms.Instances {
		s.objects = append(s.objects, &mstInstanceObject{name: fmt.Sprintf("instance_%d", i), inst: inst})
	}
	return s
}

func (s *MstScene) Objects() []Object {
	return s.objects
}

type mstNodeObject struct {
	name  string
	node  *MstNode
	dupli bool
}

func (o *mstNodeObject) Name() string { return o.name }

// MST 没有选择集, 所有对象视为选中
func (o *mstNodeObject) Selected() bool { return true }

func (o *mstNodeObject) DupliChild() bool { return o.dupli }

func (o *mstNodeObject) Matrix() dmat.T {
	if o.node.Mat == nil {
		return dmat.Ident
	}
	return *o.node.Mat
}

func (o *mstNodeObject) Duplis() []Instance { return nil }

func (o *mstNodeObject) Resolve(ResolveSettings) (*Mesh, error) {
	nd := o.node
	mesh := &Mesh{Name: o.name}
	mesh.Vertices = append([]vec3.T(nil), nd.Vertices...)
	perVertex := len(nd.Normals) == len(nd.Vertices)
	for _, f := range nd.Faces {
		for _, vi := range f {
			if int(vi) >= len(nd.Vertices) {
				return nil, fmt.Errorf("%w: %s face vertex %d of %d", ErrInvalidScene, o.name, vi, len(nd.Vertices))
			}
		}
		mesh.Polygons = append(mesh.Polygons, []uint32{f[0], f[1], f[2]})
		if perVertex {
			mesh.LoopNormals = append(mesh.LoopNormals, nd.Normals[f[0]], nd.Normals[f[1]], nd.Normals[f[2]])
		}
	}
	return mesh, nil
}

type mstInstanceObject struct {
	name string
	inst *MstInstance
}

func (o *mstInstanceObject) Name() string { return o.name }

func (o *mstInstanceObject) Selected() bool { return true }

func (o *mstInstanceObject) DupliChild() bool { return false }

func (o *mstInstanceObject) Matrix() dmat.T { return dmat.Ident }

// Duplis 每个变换放置一份实例节点
func (o *mstInstanceObject) Duplis() []Instance {
	var out []Instance
	for ti, tr := range o.inst.Transfors {
		for ni, nd := range o.inst.Nodes {
			child := &mstNodeObject{name: fmt.Sprintf("%s_%d_node_%d", o.name, ti, ni), node: nd, dupli: true}
			local := child.Matrix()
			out = append(out, Instance{Object: child, Matrix: mulMat(tr, &local)})
		}
	}
	return out
}

func (o *mstInstanceObject) Resolve(ResolveSettings) (*Mesh, error) {
	return nil, nil
}
