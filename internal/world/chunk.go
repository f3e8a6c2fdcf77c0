package world

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/annel0/voxel-engine/internal/metrics"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
)

// BlockAccess доступ на чтение к блокам в мировых координатах
type BlockAccess interface {
	GetBlock(x, y, z int) block.BlockID
}

// BlockFunc адаптер обычной функции к BlockAccess
type BlockFunc func(x, y, z int) block.BlockID

// GetBlock вызывает f(x, y, z)
func (f BlockFunc) GetBlock(x, y, z int) block.BlockID {
	return f(x, y, z)
}

// VisibleCell твёрдая ячейка, у которой хотя бы одна грань граничит с воздухом
type VisibleCell struct {
	Pos   vec.Vec3 // Мировые координаты ячейки
	Block block.BlockID
}

// Height возвращает высоту ячейки (мировой Y)
func (v VisibleCell) Height() int {
	return v.Pos.Y
}

// Center возвращает центр куба ячейки
func (v VisibleCell) Center() mgl64.Vec3 {
	return v.Pos.Center()
}

// neighbors шесть осевых направлений
var neighbors = [6]vec.Vec3{
	{X: 1}, {X: -1},
	{Y: 1}, {Y: -1},
	{Z: 1}, {Z: -1},
}

// Chunk хранит плотный массив блоков одной колонны мира размером ChunkSize x height x ChunkSize
type Chunk struct {
	Coord  ChunkCoord // Координаты чанка в мире
	height int

	// Плоский массив, индекс x + ChunkSize*(z + ChunkSize*y)
	blocks []block.BlockID

	// dirty означает, что кэш видимых ячеек устарел
	dirty   bool
	visible []VisibleCell
}

// NewChunk создаёт чанк и один раз заполняет его генератором (nil: пустой чанк)
func NewChunk(coord ChunkCoord, height int, gen Generator) *Chunk {
	if height < 0 {
		height = 0
	}
	c := &Chunk{
		Coord:  coord,
		height: height,
		blocks: make([]block.BlockID, ChunkSize*ChunkSize*height),
		dirty:  true,
	}
	if gen != nil {
		gen.Generate(c)
	}
	return c
}

// Height возвращает высоту мира, общую для всех чанков
func (c *Chunk) Height() int {
	return c.height
}

// Origin возвращает мировые координаты угла чанка
func (c *Chunk) Origin() vec.Vec3 {
	return c.Coord.Origin()
}

func (c *Chunk) inBounds(x, y, z int) bool {
	return x >= 0 && x < ChunkSize && z >= 0 && z < ChunkSize && y >= 0 && y < c.height
}

func index(x, y, z int) int {
	return x + ChunkSize*(z+ChunkSize*y)
}

// GetLocal возвращает блок по локальным координатам; вне чанка: воздух
func (c *Chunk) GetLocal(x, y, z int) block.BlockID {
	if !c.inBounds(x, y, z) {
		return block.AirBlockID
	}
	return c.blocks[index(x, y, z)]
}

// SetLocal записывает блок по локальным координатам. id приводится к [0,255],
// запись вне чанка игнорируется.
func (c *Chunk) SetLocal(x, y, z int, id int) {
	c.set(x, y, z, block.Clamp(id))
}

func (c *Chunk) set(x, y, z int, id block.BlockID) {
	if !c.inBounds(x, y, z) {
		return
	}
	c.blocks[index(x, y, z)] = id
	c.dirty = true
}

// MarkDirty помечает кэш видимых ячеек устаревшим
func (c *Chunk) MarkDirty() {
	c.dirty = true
}

// IsDirty сообщает, требуется ли перестроение кэша
func (c *Chunk) IsDirty() bool {
	return c.dirty
}

// Blocks возвращает копию массива блоков
func (c *Chunk) Blocks() []block.BlockID {
	out := make([]block.BlockID, len(c.blocks))
	copy(out, c.blocks)
	return out
}

// SolidCount возвращает количество твёрдых ячеек
func (c *Chunk) SolidCount() int {
	n := 0
	for _, id := range c.blocks {
		if id != block.AirBlockID {
			n++
		}
	}
	return n
}

// Visible возвращает кэш видимых ячеек, перестраивая его при необходимости.
// lookup используется для проверки соседей, в том числе через границы чанков.
// Срез заменяется целиком при перестроении и не должен изменяться вызывающим.
func (c *Chunk) Visible(lookup BlockAccess) []VisibleCell {
	if c.dirty {
		c.rebuildVisible(lookup)
	}
	return c.visible
}

func (c *Chunk) rebuildVisible(lookup BlockAccess) {
	start := time.Now()
	origin := c.Origin()

	visible := make([]VisibleCell, 0, len(c.visible))
	for x := 0; x < ChunkSize; x++ {
		for y := 0; y < c.height; y++ {
			for z := 0; z < ChunkSize; z++ {
				id := c.blocks[index(x, y, z)]
				if id == block.AirBlockID {
					continue
				}

				pos := vec.Vec3{X: origin.X + x, Y: y, Z: origin.Z + z}
				if !exposed(lookup, pos) {
					continue
				}
				visible = append(visible, VisibleCell{Pos: pos, Block: id})
			}
		}
	}
	c.visible = visible
	c.dirty = false

	metrics.VisibleRebuilds.Inc()
	metrics.VisibleRebuildDuration.Observe(time.Since(start).Seconds())
}

// exposed проверяет, граничит ли ячейка с воздухом хотя бы одной гранью
func exposed(lookup BlockAccess, pos vec.Vec3) bool {
	for _, d := range neighbors {
		n := pos.Add(d)
		if lookup.GetBlock(n.X, n.Y, n.Z) == block.AirBlockID {
			return true
		}
	}
	return false
}
