package wire

import (
	dmat "github.com/flywave/go3d/float64/mat4"
)

// ResolveSettings 宿主解析网格时的修改器设置
type ResolveSettings struct {
	ApplyModifiers bool
	Render         bool
}

// Instance 由父对象生成的 (对象, 世界矩阵) 实例
type Instance struct {
	Object Object
	Matrix dmat.T
}

// Object 场景中的一个可导出对象
type Object interface {
	Name() string
	Selected() bool
	// DupliChild reports whether the object is only exported through its parent's Duplis.
	DupliChild() bool
	Matrix() dmat.T
	Duplis() []Instance
	// Resolve returns the object's local mesh, or nil when it has no geometry.
	Resolve(settings ResolveSettings) (*Mesh, error)
}

type Scene interface {
	Objects() []Object
}

// MeshObject 内存中的网格对象
type MeshObject struct {
	ObjName    string
	Mesh       *Mesh
	Mat        *dmat.T
	IsSelected bool
	IsDupli    bool
	Instances  []Instance
}

func (o *MeshObject) Name() string { return o.ObjName }

func (o *MeshObject) Selected() bool { return o.IsSelected }

func (o *MeshObject) DupliChild() bool { return o.IsDupli }

func (o *MeshObject) Matrix() dmat.T {
	if o.Mat == nil {
		return dmat.Ident
	}
	return *o.Mat
}

func (o *MeshObject) Duplis() []Instance { return o.Instances }

// Resolve hands out a copy so the export pipeline can transform it in place.
func (o *MeshObject) Resolve(ResolveSettings) (*Mesh, error) {
	if o.Mesh == nil {
		return nil, nil
	}
	return o.Mesh.Clone(), nil
}

// MemoryScene 按顺序保存对象的场景
type MemoryScene struct {
	Objs []Object
}

func (s *MemoryScene) Objects() []Object { return s.Objs }

func (s *MemoryScene) Add(objs ...Object) {
	s.Objs = append(s.Objs, objs...)
}
