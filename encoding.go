package wire

import (
	"fmt"
	"io"
	"strconv"

	"github.com/flywave/go3d/vec3"
)

// Encoding 物理编码, 文本与二进制共用同一套记录结构
type Encoding interface {
	WriteHeaderMagic(wt io.Writer, opts *Options) error
	WriteHeaderOpts(wt io.Writer, opts *Options) error

	WriteFaceStart(wt io.Writer, face *Face) error
	WriteFaceEnd(wt io.Writer, face *Face) error
	WriteFaceNorm(wt io.Writer, face *Face, norm *vec3.T) error
	WriteFaceVert(wt io.Writer, face *Face, vert *Vertex) error

	WriteVertex(wt io.Writer, pos *vec3.T) error
	WriteNormal(wt io.Writer, norm *vec3.T) error
	WriteFaceRefs(wt io.Writer, face *Face) error
}

// NewEncoding 按 TextMode 选择编码
func NewEncoding(opts *Options) Encoding {
	if opts.TextMode {
		return TextEncoding{}
	}
	return BinaryEncoding{}
}

// TextEncoding UTF-8 行文本编码
type TextEncoding struct{}

func (TextEncoding) WriteHeaderMagic(wt io.Writer, _ *Options) error {
	_, err := io.WriteString(wt, TEXT_MAGIC_LINE+"\n")
	return err
}

func (TextEncoding) WriteHeaderOpts(wt io.Writer, opts *Options) error {
	if _, err := fmt.Fprintf(wt, TEXT_VERSION_LINE+"\n", opts.Version); err != nil {
		return err
	}
	flags := []struct {
		set  bool
		line string
	}{
		{opts.Triangles, TEXT_TRIANGLES_LINE},
		{opts.Indexing, TEXT_INDEXING_LINE},
		{opts.VertexNormals, TEXT_VERTEX_NORMALS_LINE},
		{opts.FaceNormals, TEXT_FACE_NORMALS_LINE},
	}
	for _, f := range flags {
		if !f.set {
			continue
		}
		if _, err := io.WriteString(wt, f.line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func (TextEncoding) WriteFaceStart(wt io.Writer, _ *Face) error {
	_, err := io.WriteString(wt, "f")
	return err
}

func (TextEncoding) WriteFaceEnd(wt io.Writer, _ *Face) error {
	_, err := io.WriteString(wt, "\n")
	return err
}

func (TextEncoding) WriteFaceNorm(wt io.Writer, _ *Face, norm *vec3.T) error {
	_, err := fmt.Fprintf(wt, " %.4f %.4f %.4f", norm[0], norm[1], norm[2])
	return err
}

func (TextEncoding) WriteFaceVert(wt io.Writer, _ *Face, vert *Vertex) error {
	_, err := fmt.Fprintf(wt, " %.6f %.6f %.6f", vert.Pos[0], vert.Pos[1], vert.Pos[2])
	return err
}

func (TextEncoding) WriteVertex(wt io.Writer, pos *vec3.T) error {
	_, err := fmt.Fprintf(wt, "v %.6f %.6f %.6f\n", pos[0], pos[1], pos[2])
	return err
}

func (TextEncoding) WriteNormal(wt io.Writer, norm *vec3.T) error {
	_, err := fmt.Fprintf(wt, "vn %.4f %.4f %.4f\n", norm[0], norm[1], norm[2])
	return err
}

func (TextEncoding) WriteFaceRefs(wt io.Writer, face *Face) error {
	buf := make([]byte, 0, 1+len(face.Vertices)*12)
	buf = append(buf, 'f')
	for i := range face.Vertices {
		buf = append(buf, ' ')
		buf = strconv.AppendInt(buf, int64(face.Vertices[i].Index), 10)
		if face.Normals != nil {
			buf = append(buf, '/', '/')
			buf = strconv.AppendInt(buf, int64(face.Normals[i]), 10)
		}
	}
	buf = append(buf, '\n')
	_, err := wt.Write(buf)
	return err
}

// BinaryEncoding 大端二进制编码. 面记录布局尚未定义, 对应写入为空操作
type BinaryEncoding struct{}

func (BinaryEncoding) WriteHeaderMagic(wt io.Writer, _ *Options) error {
	return writeBigUint32(wt, BIN_MAGIC_CODE)
}

func (BinaryEncoding) WriteHeaderOpts(wt io.Writer, opts *Options) error {
	word, err := PackHeaderWord(opts)
	if err != nil {
		return err
	}
	return writeBigUint32(wt, word)
}

func (BinaryEncoding) WriteFaceStart(io.Writer, *Face) error { return nil }

func (BinaryEncoding) WriteFaceEnd(io.Writer, *Face) error { return nil }

// TODO: define the binary face normal record once the reader side agrees on a fixed per-vertex size.
func (BinaryEncoding) WriteFaceNorm(io.Writer, *Face, *vec3.T) error { return nil }

func (BinaryEncoding) WriteFaceVert(io.Writer, *Face, *Vertex) error { return nil }

func (BinaryEncoding) WriteVertex(io.Writer, *vec3.T) error { return nil }

func (BinaryEncoding) WriteNormal(io.Writer, *vec3.T) error { return nil }

func (BinaryEncoding) WriteFaceRefs(io.Writer, *Face) error { return nil }
