package wire

import (
	"fmt"

	dmat "github.com/flywave/go3d/float64/mat4"
	"github.com/flywave/go3d/float64/quaternion"
	"github.com/flywave/go3d/float64/vec4"

	"github.com/flywave/go3d/vec3"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

var (
	emptyMatrix = [16]float32{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
)

// GltfScene 以 glTF 文档作为宿主场景
type GltfScene struct {
	doc      *gltf.Document
	objects  []Object
	selected map[string]bool
}

func OpenGltfScene(path string) (*GltfScene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open gltf %s: %w", ErrInvalidScene, path, err)
	}
	return NewGltfScene(doc)
}

// NewGltfScene walks the default scene (or the first one) and collects every node with a mesh.
func NewGltfScene(doc *gltf.Document) (*GltfScene, error) {
	s := &GltfScene{doc: doc, selected: make(map[string]bool)}
	if len(doc.Scenes) == 0 {
		return s, nil
	}
	sceneIdx := 0
	if doc.Scene != nil {
		sceneIdx = int(*doc.Scene)
	}
	if sceneIdx >= len(doc.Scenes) {
		return nil, fmt.Errorf("%w: default scene %d of %d", ErrInvalidScene, sceneIdx, len(doc.Scenes))
	}
	visited := make(map[uint32]bool)
	for _, root := range doc.Scenes[sceneIdx].Nodes {
		if err := s.walk(root, &dmat.Ident, visited); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *GltfScene) walk(idx uint32, parent *dmat.T, visited map[uint32]bool) error {
	if int(idx) >= len(s.doc.Nodes) {
		return fmt.Errorf("%w: node %d of %d", ErrInvalidScene, idx, len(s.doc.Nodes))
	}
	if visited[idx] {
		return fmt.Errorf("%w: node %d visited twice", ErrInvalidScene, idx)
	}
	visited[idx] = true

	nd := s.doc.Nodes[idx]
	local := nodeMatrix(nd)
	world := mulMat(parent, &local)
	if nd.Mesh != nil {
		s.objects = append(s.objects, &gltfObject{scene: s, node: nd, index: idx, world: world})
	}
	for _, c := range nd.Children {
		if err := s.walk(c, &world, visited); err != nil {
			return err
		}
	}
	return nil
}

func (s *GltfScene) Document() *gltf.Document {
	return s.doc
}

// Select 标记选中的节点名
func (s *GltfScene) Select(names ...string) {
	for _, n := range names {
		s.selected[n] = true
	}
}

func (s *GltfScene) Objects() []Object {
	return s.objects
}

func toMat(mat [16]float32) dmat.T {
	m := dmat.T{}
	for c := 0; c < 4; c++ {
		m[c] = vec4.T{float64(mat[c*4]), float64(mat[c*4+1]), float64(mat[c*4+2]), float64(mat[c*4+3])}
	}
	return m
}

func nodeMatrix(nd *gltf.Node) dmat.T {
	if nd.Matrix != emptyMatrix && nd.Matrix != gltf.DefaultMatrix {
		return toMat(nd.Matrix)
	}
	m := dmat.Ident
	rot := nd.Rotation
	if rot != [4]float32{} {
		q := quaternion.T{float64(rot[0]), float64(rot[1]), float64(rot[2]), float64(rot[3])}
		m.AssignQuaternion(&q)
	}
	sc := nd.Scale
	if sc == [3]float32{} {
		sc = [3]float32{1, 1, 1}
	}
	for c := 0; c < 3; c++ {
		k := float64(sc[c])
		m[c] = vec4.T{m[c][0] * k, m[c][1] * k, m[c][2] * k, 0}
	}
	tr := nd.Translation
	m[3] = vec4.T{float64(tr[0]), float64(tr[1]), float64(tr[2]), 1}
	return m
}

type gltfObject struct {
	scene *GltfScene
	node  *gltf.Node
	index uint32
	world dmat.T
}

func (o *gltfObject) Name() string {
	if o.node.Name != "" {
		return o.node.Name
	}
	return fmt.Sprintf("node_%d", o.index)
}

func (o *gltfObject) Selected() bool { return o.scene.selected[o.Name()] }

func (o *gltfObject) DupliChild() bool { return false }

func (o *gltfObject) Matrix() dmat.T { return o.world }

func (o *gltfObject) Duplis() []Instance { return nil }

// Resolve 合并网格的所有三角形图元; ApplyModifiers 时叠加变形目标
func (o *gltfObject) Resolve(settings ResolveSettings) (*Mesh, error) {
	doc := o.scene.doc
	mi := int(*o.node.Mesh)
	if mi >= len(doc.Meshes) {
		return nil, fmt.Errorf("%w: mesh %d of %d", ErrInvalidScene, mi, len(doc.Meshes))
	}
	gm := doc.Meshes[mi]
	weights := o.node.Weights
	if len(weights) == 0 {
		weights = gm.Weights
	}

	mesh := &Mesh{Name: o.Name()}
	allNormals := true
	var loopNormals []vec3.T
	for pi, ps := range gm.Primitives {
		switch ps.Mode {
		case gltf.PrimitiveTriangles, gltf.PrimitiveTriangleStrip, gltf.PrimitiveTriangleFan:
		default:
			continue
		}
		pos, err := readVec3Attr(doc, ps.Attributes, "POSITION")
		if err != nil {
			return nil, fmt.Errorf("primitive %d: %w", pi, err)
		}
		if pos == nil {
			continue
		}
		nls, err := readVec3Attr(doc, ps.Attributes, "NORMAL")
		if err != nil {
			return nil, fmt.Errorf("primitive %d: %w", pi, err)
		}
		if settings.ApplyModifiers && len(weights) > 0 {
			if err := applyMorphTargets(doc, ps, weights, pos, nls); err != nil {
				return nil, fmt.Errorf("primitive %d: %w", pi, err)
			}
		}
		indices, err := readIndices(doc, ps, len(pos))
		if err != nil {
			return nil, fmt.Errorf("primitive %d: %w", pi, err)
		}
		tris := assembleTriangles(ps.Mode, indices)

		base := uint32(len(mesh.Vertices))
		for i := range pos {
			mesh.Vertices = append(mesh.Vertices, vec3.T(pos[i]))
		}
		if nls == nil || len(nls) != len(pos) {
			allNormals = false
		}
		for _, t := range tris {
			for _, vi := range t {
				if int(vi) >= len(pos) {
					return nil, fmt.Errorf("%w: primitive %d index %d of %d vertices", ErrInvalidScene, pi, vi, len(pos))
				}
			}
			mesh.Polygons = append(mesh.Polygons, []uint32{base + t[0], base + t[1], base + t[2]})
			if allNormals {
				loopNormals = append(loopNormals, vec3.T(nls[t[0]]), vec3.T(nls[t[1]]), vec3.T(nls[t[2]]))
			}
		}
	}
	if allNormals && len(mesh.Polygons) > 0 {
		mesh.LoopNormals = loopNormals
	}
	return mesh, nil
}

func readVec3Attr(doc *gltf.Document, attrs gltf.Attribute, name string) ([][3]float32, error) {
	idx, ok := attrs[name]
	if !ok {
		return nil, nil
	}
	if int(idx) >= len(doc.Accessors) {
		return nil, fmt.Errorf("%w: %s accessor %d of %d", ErrInvalidScene, name, idx, len(doc.Accessors))
	}
	var data [][3]float32
	var err error
	if name == "NORMAL" {
		data, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil)
	} else {
		data, err = modeler.ReadPosition(doc, doc.Accessors[idx], nil)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrInvalidScene, name, err)
	}
	return data, nil
}

func readIndices(doc *gltf.Document, ps *gltf.Primitive, count int) ([]uint32, error) {
	if ps.Indices == nil {
		indices := make([]uint32, count)
		for i := range indices {
			indices[i] = uint32(i)
		}
		return indices, nil
	}
	if int(*ps.Indices) >= len(doc.Accessors) {
		return nil, fmt.Errorf("%w: indices accessor %d of %d", ErrInvalidScene, *ps.Indices, len(doc.Accessors))
	}
	indices, err := modeler.ReadIndices(doc, doc.Accessors[*ps.Indices], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: read indices: %w", ErrInvalidScene, err)
	}
	return indices, nil
}

func assembleTriangles(mode gltf.PrimitiveMode, indices []uint32) [][3]uint32 {
	var tris [][3]uint32
	switch mode {
	case gltf.PrimitiveTriangleStrip:
		for i := 0; i+2 < len(indices); i++ {
			if i%2 == 0 {
				tris = append(tris, [3]uint32{indices[i], indices[i+1], indices[i+2]})
			} else {
				tris = append(tris, [3]uint32{indices[i+1], indices[i], indices[i+2]})
			}
		}
	case gltf.PrimitiveTriangleFan:
		for i := 1; i+1 < len(indices); i++ {
			tris = append(tris, [3]uint32{indices[0], indices[i], indices[i+1]})
		}
	default:
		for i := 0; i+2 < len(indices); i += 3 {
			tris = append(tris, [3]uint32{indices[i], indices[i+1], indices[i+2]})
		}
	}
	return tris
}

// applyMorphTargets 按权重叠加位置与法线位移
func applyMorphTargets(doc *gltf.Document, ps *gltf.Primitive, weights []float32, pos, nls [][3]float32) error {
	for ti, target := range ps.Targets {
		if ti >= len(weights) || weights[ti] == 0 {
			continue
		}
		w := weights[ti]
		dp, err := readVec3Attr(doc, target, "POSITION")
		if err != nil {
			return err
		}
		if len(dp) == len(pos) {
			for i := range pos {
				pos[i][0] += w * dp[i][0]
				pos[i][1] += w * dp[i][1]
				pos[i][2] += w * dp[i][2]
			}
		}
		if nls == nil {
			continue
		}
		dn, err := readVec3Attr(doc, target, "NORMAL")
		if err != nil {
			return err
		}
		if len(dn) == len(nls) {
			for i := range nls {
				n := vec3.T{nls[i][0] + w*dn[i][0], nls[i][1] + w*dn[i][1], nls[i][2] + w*dn[i][2]}
				if n.Length() > 0 {
					n.Normalize()
				}
				nls[i] = [3]float32(n)
			}
		}
	}
	return nil
}
