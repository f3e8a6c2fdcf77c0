package world

import (
	"fmt"

	"github.com/annel0/voxel-engine/internal/vec"
)

// ChunkSize ширина и глубина чанка в блоках
const ChunkSize = 16

// ChunkCoord координаты вертикальной колонны-чанка в сетке чанков (X, Z)
type ChunkCoord struct {
	X int
	Z int
}

// Origin возвращает мировые координаты угла чанка (y = 0)
func (c ChunkCoord) Origin() vec.Vec3 {
	return vec.Vec3{X: c.X * ChunkSize, Y: 0, Z: c.Z * ChunkSize}
}

// Neighbor возвращает соседний чанк со смещением (dx, dz)
func (c ChunkCoord) Neighbor(dx, dz int) ChunkCoord {
	return ChunkCoord{X: c.X + dx, Z: c.Z + dz}
}

func (c ChunkCoord) String() string {
	return fmt.Sprintf("Chunk(%d,%d)", c.X, c.Z)
}

// ToChunkCoords переводит мировые X/Z в координаты чанка и локальные координаты в нём.
// Деление округляет к минус бесконечности, поэтому 0 <= lx, lz < ChunkSize и для отрицательных wx, wz.
func ToChunkCoords(wx, wz int) (cc ChunkCoord, lx, lz int) {
	cc = ChunkCoord{X: vec.FloorDiv(wx, ChunkSize), Z: vec.FloorDiv(wz, ChunkSize)}
	lx = wx - cc.X*ChunkSize
	lz = wz - cc.Z*ChunkSize
	return cc, lx, lz
}
