package wire

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPackHeaderWord 测试头部字打包
func TestPackHeaderWord(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want uint32
	}{
		{"version only", Options{Version: 1}, 0x00000001},
		{"max version", Options{Version: 1023}, 0x000003FF},
		{"triangles", Options{Version: 1, Triangles: true}, 0x00000401},
		{"indexing", Options{Version: 1, Indexing: true}, 0x00000801},
		{"vertex normals", Options{Version: 1, VertexNormals: true}, 0x00001001},
		{"face normals", Options{Version: 1, FaceNormals: true}, 0x00002001},
		{"all flags", Options{Version: 7, Triangles: true, Indexing: true, VertexNormals: true, FaceNormals: true}, 0x00003C07},
		{"text mode ignored", Options{Version: 2, TextMode: true, Header: true}, 0x00000002},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, err := PackHeaderWord(&tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, word)
			assert.Zero(t, word&BIN_RESERVED_MASK)
		})
	}
}

// TestPackHeaderWordVersionRange 测试版本范围
func TestPackHeaderWordVersionRange(t *testing.T) {
	for _, v := range []int{-1, 1024, 1 << 20} {
		_, err := PackHeaderWord(&Options{Version: v})
		assert.ErrorIs(t, err, ErrInvalidVersion, "version %d", v)
	}
	for v := 0; v <= BIN_VERSION_MASK; v++ {
		word, err := PackHeaderWord(&Options{Version: v, FaceNormals: true})
		require.NoError(t, err)
		opts, err := UnpackHeaderWord(word)
		require.NoError(t, err)
		assert.Equal(t, v, opts.Version)
		assert.True(t, opts.FaceNormals)
	}
}

// TestUnpackHeaderWord 测试头部字解析
func TestUnpackHeaderWord(t *testing.T) {
	opts, err := UnpackHeaderWord(0x00001405)
	require.NoError(t, err)
	assert.Equal(t, &Options{Version: 5, Header: true, Triangles: true, VertexNormals: true}, opts)

	_, err = UnpackHeaderWord(0x00004001)
	assert.ErrorIs(t, err, ErrInvalidHeader)
	_, err = UnpackHeaderWord(0x80000000)
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

// TestWriteHeaderBinary 测试二进制头部
func TestWriteHeaderBinary(t *testing.T) {
	var buf bytes.Buffer
	opts := &Options{Version: 3, Header: true, Triangles: true, VertexNormals: true}
	require.NoError(t, WriteHeader(opts, &buf))

	out := buf.Bytes()
	require.Len(t, out, 8)
	assert.Equal(t, []byte("WIRE"), out[:4])
	assert.Equal(t, BIN_MAGIC_CODE, binary.BigEndian.Uint32(out[:4]))
	assert.Equal(t, uint32(0x00001403), binary.BigEndian.Uint32(out[4:]))
}

// TestWriteHeaderText 测试文本头部
func TestWriteHeaderText(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"no flags", Options{Version: 1}, "# Wiresterizer\n# Version 1\n"},
		{"triangles", Options{Version: 1, Triangles: true}, "# Wiresterizer\n# Version 1\n# Triangles\n"},
		{
			"all flags",
			Options{Version: 9, Triangles: true, Indexing: true, VertexNormals: true, FaceNormals: true},
			"# Wiresterizer\n# Version 9\n# Triangles\n# Indexing\n# Vertex normals\n# Face normals\n",
		},
		{"face normals", Options{Version: 0, FaceNormals: true}, "# Wiresterizer\n# Version 0\n# Face normals\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Header = true
			tt.opts.TextMode = true
			var buf bytes.Buffer
			require.NoError(t, WriteHeader(&tt.opts, &buf))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

// TestWriteHeaderDisabled 测试关闭头部时不写出
func TestWriteHeaderDisabled(t *testing.T) {
	for _, text := range []bool{true, false} {
		var buf bytes.Buffer
		require.NoError(t, WriteHeader(&Options{Version: 1, TextMode: text}, &buf))
		assert.Zero(t, buf.Len())
	}
}

// TestWriteHeaderInvalidVersion 测试非法版本在写出任何字节前失败
func TestWriteHeaderInvalidVersion(t *testing.T) {
	for _, text := range []bool{true, false} {
		for _, v := range []int{-1, 1024} {
			var buf bytes.Buffer
			err := WriteHeader(&Options{Version: v, Header: true, TextMode: text}, &buf)
			assert.ErrorIs(t, err, ErrInvalidVersion)
			assert.Zero(t, buf.Len(), "text=%v version=%d", text, v)
		}
	}
}
