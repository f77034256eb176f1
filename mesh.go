package wire

import (
	"fmt"
	"math"

	dmat "github.com/flywave/go3d/float64/mat4"
	dvec3 "github.com/flywave/go3d/float64/vec3"

	"github.com/flywave/go3d/vec3"
)

// Mesh 宿主解析后的多边形网格
type Mesh struct {
	Name        string     `json:"name"`
	Vertices    []vec3.T   `json:"vertices"`
	Polygons    [][]uint32 `json:"polygons"`
	LoopNormals []vec3.T   `json:"loopNormals,omitempty"`
}

func (m *Mesh) LoopCount() int {
	n := 0
	for _, p := range m.Polygons {
		n += len(p)
	}
	return n
}

func (m *Mesh) IsEmpty() bool {
	return len(m.Polygons)+len(m.Vertices) == 0
}

func (m *Mesh) HasLoopNormals() bool {
	return len(m.LoopNormals) > 0
}

// Validate checks polygon sizes, vertex slots and the loop normal count.
func (m *Mesh) Validate() error {
	for i, p := range m.Polygons {
		if len(p) < 3 {
			return fmt.Errorf("%w: %q polygon %d has %d vertices", ErrInvalidMesh, m.Name, i, len(p))
		}
		for _, vi := range p {
			if int(vi) >= len(m.Vertices) {
				return fmt.Errorf("%w: %q polygon %d references vertex %d of %d", ErrInvalidMesh, m.Name, i, vi, len(m.Vertices))
			}
		}
	}
	if m.HasLoopNormals() && len(m.LoopNormals) != m.LoopCount() {
		return fmt.Errorf("%w: %q has %d loop normals for %d loops", ErrInvalidMesh, m.Name, len(m.LoopNormals), m.LoopCount())
	}
	return nil
}

func (m *Mesh) Clone() *Mesh {
	c := &Mesh{Name: m.Name}
	c.Vertices = append([]vec3.T(nil), m.Vertices...)
	c.Polygons = make([][]uint32, len(m.Polygons))
	for i, p := range m.Polygons {
		c.Polygons[i] = append([]uint32(nil), p...)
	}
	if m.LoopNormals != nil {
		c.LoopNormals = append([]vec3.T(nil), m.LoopNormals...)
	}
	return c
}

// Triangulate 扇形三角化, 循环法线随顶点一起拆分
func (m *Mesh) Triangulate() {
	hasNormals := m.HasLoopNormals()
	var polys [][]uint32
	var normals []vec3.T
	loop := 0
	for _, p := range m.Polygons {
		if len(p) <= 3 {
			polys = append(polys, p)
			if hasNormals {
				normals = append(normals, m.LoopNormals[loop:loop+len(p)]...)
			}
			loop += len(p)
			continue
		}
		for i := 1; i+1 < len(p); i++ {
			polys = append(polys, []uint32{p[0], p[i], p[i+1]})
			if hasNormals {
				normals = append(normals, m.LoopNormals[loop], m.LoopNormals[loop+i], m.LoopNormals[loop+i+1])
			}
		}
		loop += len(p)
	}
	m.Polygons = polys
	if hasNormals {
		m.LoopNormals = normals
	}
}

// FlipWinding 反转所有多边形的环绕顺序
func (m *Mesh) FlipWinding() {
	loop := 0
	for _, p := range m.Polygons {
		for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
			p[i], p[j] = p[j], p[i]
		}
		if m.HasLoopNormals() {
			ln := m.LoopNormals[loop : loop+len(p)]
			for i, j := 0, len(ln)-1; i < j; i, j = i+1, j-1 {
				ln[i], ln[j] = ln[j], ln[i]
			}
		}
		loop += len(p)
	}
}

// Transform 应用仿射变换; 行列式为负时翻转环绕
func (m *Mesh) Transform(mat *dmat.T) {
	for i := range m.Vertices {
		m.Vertices[i] = transformPoint(mat, &m.Vertices[i])
	}
	det := determinant3x3(mat)
	if m.HasLoopNormals() {
		invT := inverseTranspose3x3(mat, det)
		for i := range m.LoopNormals {
			m.LoopNormals[i] = transformNormal(&invT, &m.LoopNormals[i])
		}
	}
	if det < 0 {
		m.FlipWinding()
	}
}

// PolygonNormal 按 Newell 方法计算多边形法线
func (m *Mesh) PolygonNormal(i int) vec3.T {
	p := m.Polygons[i]
	var n dvec3.T
	for k := range p {
		cur := m.Vertices[p[k]]
		next := m.Vertices[p[(k+1)%len(p)]]
		n[0] += float64(cur[1]-next[1]) * float64(cur[2]+next[2])
		n[1] += float64(cur[2]-next[2]) * float64(cur[0]+next[0])
		n[2] += float64(cur[0]-next[0]) * float64(cur[1]+next[1])
	}
	l := n.Length()
	if l == 0 {
		return vec3.T{0, 0, 1}
	}
	return vec3.T{float32(n[0] / l), float32(n[1] / l), float32(n[2] / l)}
}

// CalcLoopNormals 为每个循环填入所在多边形的平面法线
func (m *Mesh) CalcLoopNormals() {
	normals := make([]vec3.T, 0, m.LoopCount())
	for i, p := range m.Polygons {
		n := m.PolygonNormal(i)
		for range p {
			normals = append(normals, n)
		}
	}
	m.LoopNormals = normals
}

// Boundbox 轴对齐包围盒 {minX, minY, minZ, maxX, maxY, maxZ}
type Boundbox [6]float64

// EmptyBoundbox min 为 +Inf, max 为 -Inf, 任何点都会扩展它
func EmptyBoundbox() Boundbox {
	inf := math.Inf(1)
	return Boundbox{inf, inf, inf, -inf, -inf, -inf}
}

func (b *Boundbox) IsEmpty() bool {
	return b[0] > b[3]
}

func (b *Boundbox) Extend(v *vec3.T) {
	for k := 0; k < 3; k++ {
		c := float64(v[k])
		b[k] = math.Min(b[k], c)
		b[k+3] = math.Max(b[k+3], c)
	}
}

func (b *Boundbox) Union(o *Boundbox) {
	for k := 0; k < 3; k++ {
		b[k] = math.Min(b[k], o[k])
		b[k+3] = math.Max(b[k+3], o[k+3])
	}
}

func (m *Mesh) GetBoundbox() Boundbox {
	box := EmptyBoundbox()
	for i := range m.Vertices {
		box.Extend(&m.Vertices[i])
	}
	return box
}

// go3d 矩阵按列存储: mat[col][row]
func transformPoint(mat *dmat.T, v *vec3.T) vec3.T {
	var out vec3.T
	for r := 0; r < 3; r++ {
		s := mat[3][r]
		for c := 0; c < 3; c++ {
			s += mat[c][r] * float64(v[c])
		}
		out[r] = float32(s)
	}
	return out
}

func determinant3x3(mat *dmat.T) float64 {
	a := func(r, c int) float64 { return mat[c][r] }
	return a(0, 0)*(a(1, 1)*a(2, 2)-a(1, 2)*a(2, 1)) -
		a(0, 1)*(a(1, 0)*a(2, 2)-a(1, 2)*a(2, 0)) +
		a(0, 2)*(a(1, 0)*a(2, 1)-a(1, 1)*a(2, 0))
}

// inverseTranspose3x3 returns rows of the inverse-transpose of the upper 3x3.
// A singular matrix falls back to the cofactor matrix.
func inverseTranspose3x3(mat *dmat.T, det float64) [3]dvec3.T {
	a := func(r, c int) float64 { return mat[c][r] }
	cof := [3]dvec3.T{
		{a(1, 1)*a(2, 2) - a(1, 2)*a(2, 1), a(1, 2)*a(2, 0) - a(1, 0)*a(2, 2), a(1, 0)*a(2, 1) - a(1, 1)*a(2, 0)},
		{a(0, 2)*a(2, 1) - a(0, 1)*a(2, 2), a(0, 0)*a(2, 2) - a(0, 2)*a(2, 0), a(0, 1)*a(2, 0) - a(0, 0)*a(2, 1)},
		{a(0, 1)*a(1, 2) - a(0, 2)*a(1, 1), a(0, 2)*a(1, 0) - a(0, 0)*a(1, 2), a(0, 0)*a(1, 1) - a(0, 1)*a(1, 0)},
	}
	if det == 0 {
		return cof
	}
	for i := range cof {
		cof[i].Scale(1 / det)
	}
	return cof
}

func transformNormal(invT *[3]dvec3.T, n *vec3.T) vec3.T {
	v := dvec3.T{float64(n[0]), float64(n[1]), float64(n[2])}
	out := dvec3.T{dvec3.Dot(&invT[0], &v), dvec3.Dot(&invT[1], &v), dvec3.Dot(&invT[2], &v)}
	l := out.Length()
	if l == 0 {
		return *n
	}
	return vec3.T{float32(out[0] / l), float32(out[1] / l), float32(out[2] / l)}
}
