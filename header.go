package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

func boolBit(b bool, pos uint) uint32 {
	if b {
		return 1 << pos
	}
	return 0
}

// PackHeaderWord 将选项打包为头部字
func PackHeaderWord(opts *Options) (uint32, error) {
	if err := opts.Validate(); err != nil {
		return 0, err
	}
	word := uint32(opts.Version) |
		boolBit(opts.Triangles, BIN_TRIANGLES_POS) |
		boolBit(opts.Indexing, BIN_INDEXING_POS) |
		boolBit(opts.VertexNormals, BIN_VERTEX_NORMALS_POS) |
		boolBit(opts.FaceNormals, BIN_FACE_NORMALS_POS)
	return word, nil
}

// UnpackHeaderWord 解析头部字, 保留位必须为 0
func UnpackHeaderWord(word uint32) (*Options, error) {
	if word&BIN_RESERVED_MASK != 0 {
		return nil, fmt.Errorf("%w: reserved bits 0x%08x set", ErrInvalidHeader, word&BIN_RESERVED_MASK)
	}
	return &Options{
		Version:       int(word & BIN_VERSION_MASK),
		Header:        true,
		Triangles:     word&BIN_TRIANGLES_BIT != 0,
		Indexing:      word&BIN_INDEXING_BIT != 0,
		VertexNormals: word&BIN_VERTEX_NORMALS_BIT != 0,
		FaceNormals:   word&BIN_FACE_NORMALS_BIT != 0,
	}, nil
}

func writeBigUint32(wt io.Writer, v uint32) error {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, v)
	_, err := wt.Write(buf)
	return err
}
