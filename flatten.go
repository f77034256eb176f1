package wire

import (
	"fmt"
)

// FaceLayout 面记录布局
type FaceLayout int

const (
	// ReferencedFaces writes v/vn records per mesh and faces as 1-based global references.
	ReferencedFaces FaceLayout = iota
	// InlineFaces writes every face with its vertex positions inline.
	InlineFaces
)

func (l FaceLayout) String() string {
	switch l {
	case ReferencedFaces:
		return "referenced"
	case InlineFaces:
		return "inline"
	default:
		return fmt.Sprintf("FaceLayout(%d)", int(l))
	}
}

// Flattener 将网格展开为编码器记录, 持有整个导出过程的全局索引计数
type Flattener struct {
	w        *Writer
	layout   FaceLayout
	counters Counters
	meshes   int
	faces    int
}

func NewFlattener(w *Writer, layout FaceLayout) *Flattener {
	return &Flattener{w: w, layout: layout, counters: NewCounters()}
}

func (f *Flattener) Counters() Counters {
	return f.counters
}

// MeshCount returns the number of meshes that contributed geometry.
func (f *Flattener) MeshCount() int {
	return f.meshes
}

func (f *Flattener) FaceCount() int {
	return f.faces
}

// Flatten 写出一个网格并推进全局计数; 空网格被跳过
func (f *Flattener) Flatten(m *Mesh) error {
	if m.IsEmpty() {
		return nil
	}
	opts := f.w.Options()
	if opts.Indexing {
		return unsupported("indexed mode")
	}
	if err := m.Validate(); err != nil {
		return err
	}
	if opts.Triangles {
		for i, p := range m.Polygons {
			if len(p) != 3 {
				return fmt.Errorf("%w: %q polygon %d has %d vertices, triangles required", ErrInvalidMesh, m.Name, i, len(p))
			}
		}
	}

	var uniqueNormals int
	var err error
	switch f.layout {
	case InlineFaces:
		err = f.flattenInline(m)
	default:
		uniqueNormals, err = f.flattenReferenced(m)
	}
	if err != nil {
		return err
	}

	f.counters.NextVertex += len(m.Vertices)
	f.counters.NextNormal += uniqueNormals
	f.meshes++
	f.faces += len(m.Polygons)
	return nil
}

func (f *Flattener) flattenReferenced(m *Mesh) (int, error) {
	opts := f.w.Options()
	for i := range m.Vertices {
		if err := f.w.WriteVertex(&m.Vertices[i]); err != nil {
			return 0, err
		}
	}

	var loopToNormal []int
	var table *normalTable
	if opts.VertexNormals && len(m.Polygons) > 0 {
		if !m.HasLoopNormals() {
			return 0, fmt.Errorf("%w: %q has no loop normals", ErrInvalidMesh, m.Name)
		}
		table = newNormalTable()
		loopToNormal = make([]int, len(m.LoopNormals))
		for l := range m.LoopNormals {
			idx, first := table.add(&m.LoopNormals[l])
			if first {
				n := table.keys[idx].Vec3()
				if err := f.w.WriteNormal(&n); err != nil {
					return 0, err
				}
			}
			loopToNormal[l] = idx
		}
	}

	loop := 0
	for _, p := range m.Polygons {
		face := &Face{Vertices: make([]Vertex, len(p))}
		if loopToNormal != nil {
			face.Normals = make([]int, len(p))
		}
		for k, vi := range p {
			face.Vertices[k] = Vertex{Index: f.counters.NextVertex + int(vi), Pos: m.Vertices[vi]}
			if loopToNormal != nil {
				face.Normals[k] = f.counters.NextNormal + loopToNormal[loop+k]
			}
		}
		loop += len(p)
		if err := f.w.WriteFaceRefs(face); err != nil {
			return 0, err
		}
	}

	if table == nil {
		return 0, nil
	}
	return table.Len(), nil
}

func (f *Flattener) flattenInline(m *Mesh) error {
	opts := f.w.Options()
	for i, p := range m.Polygons {
		face := &Face{Vertices: make([]Vertex, len(p))}
		for k, vi := range p {
			face.Vertices[k] = Vertex{Index: f.counters.NextVertex + int(vi), Pos: m.Vertices[vi]}
		}
		if opts.FaceNormals {
			face.Normal = m.PolygonNormal(i)
		}
		if err := f.w.WriteFace(face); err != nil {
			return err
		}
	}
	return nil
}
