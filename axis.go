package wire

import (
	"fmt"
	"strings"

	dmat "github.com/flywave/go3d/float64/mat4"
	dvec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/flywave/go3d/float64/vec4"
)

const (
	// 场景坐标系: Y 向前, Z 向上
	SceneForward = "Y"
	SceneUp      = "Z"

	DefaultAxisForward = "-Z"
	DefaultAxisUp      = "Y"

	MinGlobalScale = 0.01
	MaxGlobalScale = 1000.0
)

var axisVectors = map[string]dvec3.T{
	"X":  {1, 0, 0},
	"Y":  {0, 1, 0},
	"Z":  {0, 0, 1},
	"-X": {-1, 0, 0},
	"-Y": {0, -1, 0},
	"-Z": {0, 0, -1},
}

func parseAxis(name string) (dvec3.T, error) {
	v, ok := axisVectors[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return dvec3.T{}, fmt.Errorf("%w: unknown axis %q", ErrInvalidOptions, name)
	}
	return v, nil
}

func axisFrame(forward, up string) (fwd, upv, right dvec3.T, err error) {
	if fwd, err = parseAxis(forward); err != nil {
		return
	}
	if upv, err = parseAxis(up); err != nil {
		return
	}
	if dvec3.Dot(&fwd, &upv) != 0 {
		err = fmt.Errorf("%w: forward %q and up %q share an axis", ErrInvalidOptions, forward, up)
		return
	}
	right = dvec3.Cross(&fwd, &upv)
	return
}

// AxisConversion 返回把 (fromForward, fromUp) 坐标系映射到 (toForward, toUp) 的旋转矩阵
func AxisConversion(fromForward, fromUp, toForward, toUp string) (dmat.T, error) {
	sf, su, sr, err := axisFrame(fromForward, fromUp)
	if err != nil {
		return dmat.Ident, err
	}
	tf, tu, tr, err := axisFrame(toForward, toUp)
	if err != nil {
		return dmat.Ident, err
	}
	m := dmat.Ident
	for j := 0; j < 3; j++ {
		for r := 0; r < 3; r++ {
			m[j][r] = tf[r]*sf[j] + tu[r]*su[j] + tr[r]*sr[j]
		}
	}
	return m, nil
}

// GlobalMatrix 统一缩放与坐标轴转换
func GlobalMatrix(scale float64, forward, up string) (dmat.T, error) {
	if scale < MinGlobalScale || scale > MaxGlobalScale {
		return dmat.Ident, fmt.Errorf("%w: scale %g not in [%g, %g]", ErrInvalidOptions, scale, MinGlobalScale, MaxGlobalScale)
	}
	m, err := AxisConversion(SceneForward, SceneUp, forward, up)
	if err != nil {
		return dmat.Ident, err
	}
	for c := 0; c < 3; c++ {
		m[c] = vec4.T{m[c][0] * scale, m[c][1] * scale, m[c][2] * scale, 0}
	}
	return m, nil
}

func mulMat(a, b *dmat.T) dmat.T {
	var out dmat.T
	out.AssignMul(a, b)
	return out
}
