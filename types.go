package wire

import (
	"github.com/flywave/go3d/vec3"
)

const WIREEXT string = ".wire"

// 二进制头部魔数, ASCII "WIRE"
const BIN_MAGIC_CODE uint32 = 0x57495245

// 导出器写出的格式版本
const FormatVersion = 1

const (
	BIN_VERSION_BITS = 10
	BIN_VERSION_MASK = 1<<BIN_VERSION_BITS - 1

	BIN_TRIANGLES_POS      = 10
	BIN_INDEXING_POS       = 11
	BIN_VERTEX_NORMALS_POS = 12
	BIN_FACE_NORMALS_POS   = 13

	BIN_TRIANGLES_BIT      = 1 << BIN_TRIANGLES_POS
	BIN_INDEXING_BIT       = 1 << BIN_INDEXING_POS
	BIN_VERTEX_NORMALS_BIT = 1 << BIN_VERTEX_NORMALS_POS
	BIN_FACE_NORMALS_BIT   = 1 << BIN_FACE_NORMALS_POS

	// bits 14-31 are reserved for later header additions
	BIN_RESERVED_MASK = ^uint32(BIN_VERSION_MASK | BIN_TRIANGLES_BIT | BIN_INDEXING_BIT | BIN_VERTEX_NORMALS_BIT | BIN_FACE_NORMALS_BIT)
)

const (
	TEXT_MAGIC_LINE          = "# Wiresterizer"
	TEXT_VERSION_LINE        = "# Version %d"
	TEXT_TRIANGLES_LINE      = "# Triangles"
	TEXT_INDEXING_LINE       = "# Indexing"
	TEXT_VERTEX_NORMALS_LINE = "# Vertex normals"
	TEXT_FACE_NORMALS_LINE   = "# Face normals"
)

// Options 单次导出的格式选项
type Options struct {
	Version       int  `json:"version" yaml:"version"`
	Header        bool `json:"header" yaml:"header"`
	TextMode      bool `json:"textMode" yaml:"text_mode"`
	Triangles     bool `json:"triangles" yaml:"triangles"`
	Indexing      bool `json:"indexing" yaml:"indexing"`
	VertexNormals bool `json:"vertexNormals" yaml:"vertex_normals"`
	FaceNormals   bool `json:"faceNormals" yaml:"face_normals"`
}

func (o *Options) UsesNormals() bool {
	return o.VertexNormals || o.FaceNormals
}

// Validate checks that the version fits the 10 bit header field.
func (o *Options) Validate() error {
	if o.Version < 0 || o.Version > BIN_VERSION_MASK {
		return invalidVersion(o.Version)
	}
	return nil
}

// Vertex 带全局索引的顶点
type Vertex struct {
	Index int    `json:"index"`
	Pos   vec3.T `json:"pos"`
}

// Face 编码器使用的面记录
type Face struct {
	Vertices []Vertex `json:"vertices"`
	Normal   vec3.T   `json:"normal"`
	Normals  []int    `json:"normals,omitempty"`
}

// Counters 全局顶点/法线索引计数, 1 起始
type Counters struct {
	NextVertex int `json:"nextVertex"`
	NextNormal int `json:"nextNormal"`
}

func NewCounters() Counters {
	return Counters{NextVertex: 1, NextNormal: 1}
}
