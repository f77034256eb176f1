package wire

import (
	"fmt"
	"io"

	"github.com/flywave/go3d/vec3"
)

// Writer 绑定输出流、选项与编码, 编码在创建时选定一次
type Writer struct {
	wt   io.Writer
	opts Options
	enc  Encoding
}

func NewWriter(wt io.Writer, opts *Options) *Writer {
	return &Writer{wt: wt, opts: *opts, enc: NewEncoding(opts)}
}

func (w *Writer) Options() *Options {
	return &w.opts
}

func (w *Writer) Encoding() Encoding {
	return w.enc
}

// WriteHeader 写出头部; Header 关闭时不写任何内容
func (w *Writer) WriteHeader() error {
	if !w.opts.Header {
		return nil
	}
	if err := w.opts.Validate(); err != nil {
		return err
	}
	if err := w.enc.WriteHeaderMagic(w.wt, &w.opts); err != nil {
		return ioFailure("write header magic", err)
	}
	if err := w.enc.WriteHeaderOpts(w.wt, &w.opts); err != nil {
		return ioFailure("write header options", err)
	}
	return nil
}

// WriteFace 写出一条带内联坐标的面记录
func (w *Writer) WriteFace(face *Face) error {
	if w.opts.Indexing {
		return unsupported("indexed mode")
	}
	if w.opts.VertexNormals {
		return unsupported("vertex normals in inline faces")
	}
	if err := w.enc.WriteFaceStart(w.wt, face); err != nil {
		return ioFailure("write face start", err)
	}
	if w.opts.FaceNormals {
		if err := w.enc.WriteFaceNorm(w.wt, face, &face.Normal); err != nil {
			return ioFailure("write face normal", err)
		}
	}
	for i := range face.Vertices {
		if err := w.enc.WriteFaceVert(w.wt, face, &face.Vertices[i]); err != nil {
			return ioFailure("write face vertex", err)
		}
	}
	if err := w.enc.WriteFaceEnd(w.wt, face); err != nil {
		return ioFailure("write face end", err)
	}
	return nil
}

func (w *Writer) WriteVertex(pos *vec3.T) error {
	if err := w.enc.WriteVertex(w.wt, pos); err != nil {
		return ioFailure("write vertex", err)
	}
	return nil
}

func (w *Writer) WriteNormal(norm *vec3.T) error {
	if err := w.enc.WriteNormal(w.wt, norm); err != nil {
		return ioFailure("write normal", err)
	}
	return nil
}

// WriteFaceRefs 写出按全局索引引用顶点/法线的面记录
func (w *Writer) WriteFaceRefs(face *Face) error {
	if w.opts.Indexing {
		return unsupported("indexed mode")
	}
	if face.Normals != nil && len(face.Normals) != len(face.Vertices) {
		return fmt.Errorf("%w: %d normal refs for %d vertices", ErrInvalidMesh, len(face.Normals), len(face.Vertices))
	}
	if err := w.enc.WriteFaceRefs(w.wt, face); err != nil {
		return ioFailure("write face", err)
	}
	return nil
}

// WriteHeader 按 opts 向 wt 写出头部
func WriteHeader(opts *Options, wt io.Writer) error {
	return NewWriter(wt, opts).WriteHeader()
}

// WriteFace 按 opts 向 wt 写出一条面记录
func WriteFace(opts *Options, wt io.Writer, face *Face) error {
	return NewWriter(wt, opts).WriteFace(face)
}
