package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wire "github.com/flywave/go-wire"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		in, out, want string
	}{
		{"scene.gltf", "", "scene.wire"},
		{"dir/scene.glb", "", "dir/scene.wire"},
		{"scene.gltf", "out", "out.wire"},
		{"scene.gltf", "out.wire", "out.wire"},
		{"scene.gltf", "out.WIRE", "out.WIRE"},
		{"scene.gltf", "out.txt", "out.txt.wire"},
	}
	for _, tt := range tests {
		t.Run(tt.in+"->"+tt.out, func(t *testing.T) {
			assert.Equal(t, tt.want, outputPath(tt.in, tt.out))
		})
	}
}

func TestOpenSceneUnsupported(t *testing.T) {
	_, err := openScene("model.obj", nil)
	assert.ErrorIs(t, err, wire.ErrInvalidScene)
}

func TestRunSavePresetOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preset.yaml")
	w := wirexport{}
	require.NoError(t, w.run([]string{"-normals", "-triangulate", "-save-preset", path}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "write_normals: true"))
	assert.True(t, strings.Contains(string(data), "triangulate: true"))
}

func TestRunRejectsBadScale(t *testing.T) {
	w := wirexport{}
	err := w.run([]string{"-scale", "5000", "scene.gltf"})
	assert.ErrorIs(t, err, wire.ErrInvalidOptions)
}
