package wire

import (
	"math"

	"github.com/flywave/go3d/vec3"
)

const normalKeyScale = 1e4

// NormalKey 保留 4 位小数的法线去重键
type NormalKey [3]float64

func roundKey(v float32) float64 {
	r := math.Round(float64(v)*normalKeyScale) / normalKeyScale
	if r == 0 {
		// fold -0 into +0
		return 0
	}
	return r
}

func MakeNormalKey(n *vec3.T) NormalKey {
	return NormalKey{roundKey(n[0]), roundKey(n[1]), roundKey(n[2])}
}

func (k NormalKey) Vec3() vec3.T {
	return vec3.T{float32(k[0]), float32(k[1]), float32(k[2])}
}

// normalTable 单个网格内的有序法线去重表
type normalTable struct {
	index map[NormalKey]int
	keys  []NormalKey
}

func newNormalTable() *normalTable {
	return &normalTable{index: make(map[NormalKey]int)}
}

// add returns the local index of n and whether it was seen for the first time.
func (t *normalTable) add(n *vec3.T) (int, bool) {
	key := MakeNormalKey(n)
	if idx, ok := t.index[key]; ok {
		return idx, false
	}
	idx := len(t.keys)
	t.index[key] = idx
	t.keys = append(t.keys, key)
	return idx, true
}

func (t *normalTable) Len() int {
	return len(t.keys)
}
