package world

import (
	"sort"

	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/metrics"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
)

// DefaultHeight высота мира по умолчанию
const DefaultHeight = 64

// World владеет всеми чанками и является единственной точкой чтения и записи блоков.
// Чанки создаются при первом обращении и не выгружаются.
// World не потокобезопасен: все вызовы, изменяющие мир, должны идти из одного писателя.
type World struct {
	height int
	gen    Generator
	chunks map[ChunkCoord]*Chunk
	log    *logging.Logger

	onCreate func(cc ChunkCoord, c *Chunk)
}

// New создаёт пустой мир. height <= 0 заменяется на DefaultHeight, gen == nil даёт пустые чанки.
func New(height int, gen Generator) *World {
	if height <= 0 {
		height = DefaultHeight
	}
	return &World{
		height: height,
		gen:    gen,
		chunks: make(map[ChunkCoord]*Chunk),
		log:    logging.GetComponentLogger("world"),
	}
}

// Height возвращает высоту мира
func (w *World) Height() int {
	return w.height
}

// GetBlock возвращает блок в мировых координатах.
// Вне диапазона высот или в несгенерированном чанке возвращается воздух; чанк не создаётся.
func (w *World) GetBlock(wx, wy, wz int) block.BlockID {
	if wy < 0 || wy >= w.height {
		return block.AirBlockID
	}
	cc, lx, lz := ToChunkCoords(wx, wz)
	c, ok := w.chunks[cc]
	if !ok {
		return block.AirBlockID
	}
	return c.GetLocal(lx, wy, lz)
}

// SetBlock записывает блок в мировых координатах. id приводится к [0,255].
// Запись вне диапазона высот игнорируется. Запись на границе чанка помечает
// соседний чанк (если он существует) устаревшим.
func (w *World) SetBlock(wx, wy, wz int, id int) {
	if wy < 0 || wy >= w.height {
		metrics.BlockEdits.WithLabelValues("ignored").Inc()
		return
	}

	cc, lx, lz := ToChunkCoords(wx, wz)
	c := w.GetOrCreateChunk(cc)

	bid := block.Clamp(id)
	c.set(lx, wy, lz, bid)
	if bid == block.AirBlockID {
		metrics.BlockEdits.WithLabelValues("remove").Inc()
	} else {
		metrics.BlockEdits.WithLabelValues("place").Inc()
	}

	if lx == 0 {
		w.markDirty(cc.Neighbor(-1, 0))
	}
	if lx == ChunkSize-1 {
		w.markDirty(cc.Neighbor(1, 0))
	}
	if lz == 0 {
		w.markDirty(cc.Neighbor(0, -1))
	}
	if lz == ChunkSize-1 {
		w.markDirty(cc.Neighbor(0, 1))
	}
}

func (w *World) markDirty(cc ChunkCoord) {
	if c, ok := w.chunks[cc]; ok {
		c.MarkDirty()
	}
}

// Chunk возвращает существующий чанк без создания
func (w *World) Chunk(cc ChunkCoord) (*Chunk, bool) {
	c, ok := w.chunks[cc]
	return c, ok
}

// OnChunkCreated задаёт обработчик, вызываемый после генерации каждого нового чанка
func (w *World) OnChunkCreated(fn func(cc ChunkCoord, c *Chunk)) {
	w.onCreate = fn
}

// GetOrCreateChunk возвращает чанк, генерируя его при первом обращении
func (w *World) GetOrCreateChunk(cc ChunkCoord) *Chunk {
	if c, ok := w.chunks[cc]; ok {
		return c
	}

	c := NewChunk(cc, w.height, w.gen)
	w.chunks[cc] = c

	metrics.ChunksGenerated.Inc()
	metrics.ChunksLoaded.Set(float64(len(w.chunks)))
	w.log.Debug("Сгенерирован %s, твёрдых ячеек: %d", cc, c.SolidCount())
	if w.onCreate != nil {
		w.onCreate(cc, c)
	}
	return c
}

// EnsureArea создаёт все чанки в квадрате радиуса radius вокруг center
func (w *World) EnsureArea(center ChunkCoord, radius int) {
	if radius < 0 {
		return
	}
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			w.GetOrCreateChunk(center.Neighbor(dx, dz))
		}
	}
}

// ChunkCoords возвращает координаты всех чанков, отсортированные по X, затем по Z
func (w *World) ChunkCoords() []ChunkCoord {
	coords := make([]ChunkCoord, 0, len(w.chunks))
	for cc := range w.chunks {
		coords = append(coords, cc)
	}
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].X != coords[j].X {
			return coords[i].X < coords[j].X
		}
		return coords[i].Z < coords[j].Z
	})
	return coords
}

// ChunkCount возвращает количество созданных чанков
func (w *World) ChunkCount() int {
	return len(w.chunks)
}

// VisibleCells возвращает видимые ячейки чанка, перестраивая кэш при необходимости.
// Для отсутствующего чанка возвращает false.
func (w *World) VisibleCells(cc ChunkCoord) ([]VisibleCell, bool) {
	c, ok := w.chunks[cc]
	if !ok {
		return nil, false
	}
	return c.Visible(w), true
}

// SurfaceY возвращает Y первой ячейки воздуха над верхним твёрдым блоком колонны.
// Чанк колонны создаётся при необходимости.
func (w *World) SurfaceY(wx, wz int) int {
	cc, _, _ := ToChunkCoords(wx, wz)
	w.GetOrCreateChunk(cc)
	for y := w.height - 1; y >= 0; y-- {
		if block.IsSolid(w.GetBlock(wx, y, wz)) {
			return y + 1
		}
	}
	return 0
}

// SpawnPoint возвращает первую ячейку воздуха над поверхностью колонны (wx, wz)
func (w *World) SpawnPoint(wx, wz int) vec.Vec3 {
	return vec.Vec3{X: wx, Y: w.SurfaceY(wx, wz), Z: wz}
}
