package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-engine/internal/world/block"
)

func TestToChunkCoords(t *testing.T) {
	cases := []struct {
		wx, wz int
		cc     ChunkCoord
		lx, lz int
	}{
		{0, 0, ChunkCoord{0, 0}, 0, 0},
		{15, 15, ChunkCoord{0, 0}, 15, 15},
		{16, 0, ChunkCoord{1, 0}, 0, 0},
		{-1, -1, ChunkCoord{-1, -1}, 15, 15},
		{-16, -17, ChunkCoord{-1, -2}, 0, 15},
		{33, -33, ChunkCoord{2, -3}, 1, 15},
	}
	for _, tc := range cases {
		cc, lx, lz := ToChunkCoords(tc.wx, tc.wz)
		assert.Equal(t, tc.cc, cc, "(%d,%d)", tc.wx, tc.wz)
		assert.Equal(t, tc.lx, lx)
		assert.Equal(t, tc.lz, lz)
	}
}

func TestToChunkCoordsRoundTrip(t *testing.T) {
	for wx := -70; wx <= 70; wx++ {
		for _, wz := range []int{-33, -16, -1, 0, 15, 47} {
			cc, lx, lz := ToChunkCoords(wx, wz)
			require.True(t, lx >= 0 && lx < ChunkSize)
			require.True(t, lz >= 0 && lz < ChunkSize)
			require.Equal(t, wx, cc.X*ChunkSize+lx)
			require.Equal(t, wz, cc.Z*ChunkSize+lz)
		}
	}
}

func TestWorldGetSetBlock(t *testing.T) {
	w := New(32, nil)

	positions := [][3]int{{0, 0, 0}, {-1, 5, -1}, {17, 31, -40}, {-100, 10, 200}}
	for i, p := range positions {
		id := i + 1
		w.SetBlock(p[0], p[1], p[2], id)
		assert.Equal(t, block.BlockID(id), w.GetBlock(p[0], p[1], p[2]), "%v", p)
	}

	w.SetBlock(1, 1, 1, 1000)
	assert.Equal(t, block.BlockID(255), w.GetBlock(1, 1, 1))
}

func TestWorldOutOfHeight(t *testing.T) {
	w := New(16, FlatGenerator{Level: 15})
	w.GetOrCreateChunk(ChunkCoord{})

	assert.Equal(t, block.AirBlockID, w.GetBlock(0, -1, 0))
	assert.Equal(t, block.AirBlockID, w.GetBlock(0, 16, 0))

	w.SetBlock(100, -1, 100, 1)
	w.SetBlock(100, 16, 100, 1)
	assert.Equal(t, 1, w.ChunkCount(), "запись вне высоты не создаёт чанк")
}

func TestWorldLazyCreation(t *testing.T) {
	w := New(16, FlatGenerator{Level: 3})

	// Чтение не генерирует чанки
	assert.Equal(t, block.AirBlockID, w.GetBlock(5, 1, 5))
	assert.Equal(t, 0, w.ChunkCount())

	w.SetBlock(5, 10, 5, int(block.DirtBlockID))
	require.Equal(t, 1, w.ChunkCount())
	assert.Equal(t, block.StoneBlockID, w.GetBlock(5, 1, 5), "созданный чанк сгенерирован")
	assert.Equal(t, block.DirtBlockID, w.GetBlock(5, 10, 5))

	c1 := w.GetOrCreateChunk(ChunkCoord{})
	c2 := w.GetOrCreateChunk(ChunkCoord{})
	assert.Same(t, c1, c2, "чанк генерируется один раз")
}

func TestWorldDirtyPropagation(t *testing.T) {
	w := New(16, FlatGenerator{Level: 2})
	coords := []ChunkCoord{{0, 0}, {1, 0}, {2, 0}, {1, 1}, {1, -1}}
	clean := func() {
		for _, cc := range coords {
			_, ok := w.VisibleCells(cc)
			require.True(t, ok)
		}
	}

	for _, cc := range coords {
		w.GetOrCreateChunk(cc)
	}
	clean()

	// Локальная (0, y, 5) чанка (1,0): затрагивается только западный сосед
	w.SetBlock(16, 5, 5, int(block.StoneBlockID))
	assertDirty(t, w, map[ChunkCoord]bool{
		{0, 0}: true, {1, 0}: true, {2, 0}: false, {1, 1}: false, {1, -1}: false,
	})

	clean()

	// Угол (15, y, 15) чанка (1,0): восточный и северный соседи
	w.SetBlock(31, 5, 15, int(block.StoneBlockID))
	assertDirty(t, w, map[ChunkCoord]bool{
		{0, 0}: false, {1, 0}: true, {2, 0}: true, {1, 1}: true, {1, -1}: false,
	})

	clean()

	// Внутренняя ячейка не трогает соседей
	w.SetBlock(20, 5, 7, int(block.StoneBlockID))
	assertDirty(t, w, map[ChunkCoord]bool{
		{0, 0}: false, {1, 0}: true, {2, 0}: false, {1, 1}: false, {1, -1}: false,
	})

	// Отсутствующий сосед не создаётся
	w.SetBlock(32+15, 5, 0, int(block.StoneBlockID))
	_, ok := w.Chunk(ChunkCoord{3, 0})
	assert.False(t, ok)
	_, ok = w.Chunk(ChunkCoord{2, -1})
	assert.False(t, ok)
}

func assertDirty(t *testing.T, w *World, want map[ChunkCoord]bool) {
	t.Helper()
	for cc, dirty := range want {
		c, ok := w.Chunk(cc)
		require.True(t, ok, "%s", cc)
		assert.Equal(t, dirty, c.IsDirty(), "%s", cc)
	}
}

func TestWorldVisibilityAcrossSeam(t *testing.T) {
	w := New(8, FlatGenerator{Level: 3})
	w.EnsureArea(ChunkCoord{}, 1)
	require.Equal(t, 9, w.ChunkCount())

	// Внутри сплошного слоя ячейка закрыта со всех сторон
	isVisible := func(cc ChunkCoord, x, y, z int) bool {
		cells, ok := w.VisibleCells(cc)
		require.True(t, ok)
		for _, v := range cells {
			if v.Pos.X == x && v.Pos.Y == y && v.Pos.Z == z {
				return true
			}
		}
		return false
	}
	assert.False(t, isVisible(ChunkCoord{0, 0}, 15, 2, 4))

	// Снимаем ячейку на стороне соседа: граница становится видимой у (0,0)
	w.SetBlock(16, 2, 4, int(block.AirBlockID))
	assert.True(t, isVisible(ChunkCoord{0, 0}, 15, 2, 4))

	// Возвращаем: снова закрыта
	w.SetBlock(16, 2, 4, int(block.StoneBlockID))
	assert.False(t, isVisible(ChunkCoord{0, 0}, 15, 2, 4))
}

func TestWorldSurfaceAndCoords(t *testing.T) {
	w := New(16, FlatGenerator{Level: 4})

	assert.Equal(t, 5, w.SurfaceY(-7, 3))
	assert.Equal(t, 1, w.ChunkCount())

	w.SetBlock(-7, 9, 3, int(block.SandBlockID))
	assert.Equal(t, 10, w.SurfaceY(-7, 3))
	assert.Equal(t, 10, w.SpawnPoint(-7, 3).Y)

	empty := New(16, FlatGenerator{Level: -1})
	assert.Equal(t, 0, empty.SurfaceY(0, 0))

	w.EnsureArea(ChunkCoord{X: 2, Z: 2}, 0)
	assert.Equal(t, []ChunkCoord{{-1, 0}, {2, 2}}, w.ChunkCoords())

	_, ok := w.VisibleCells(ChunkCoord{X: 9, Z: 9})
	assert.False(t, ok)
}

func TestWorldDeterministicTerrain(t *testing.T) {
	gen := NewNoiseGenerator(2024, DefaultTerrainParams(), nil)
	a := New(DefaultHeight, gen)
	b := New(DefaultHeight, NewNoiseGenerator(2024, DefaultTerrainParams(), nil))

	a.EnsureArea(ChunkCoord{}, 1)
	b.EnsureArea(ChunkCoord{}, 1)
	for _, cc := range a.ChunkCoords() {
		ca, _ := a.Chunk(cc)
		cb, ok := b.Chunk(cc)
		require.True(t, ok)
		assert.Equal(t, ca.Blocks(), cb.Blocks(), "%s", cc)
	}

	// Высота совпадает с верхним твёрдым блоком
	top := gen.HeightAt(-5, 9, DefaultHeight)
	assert.Equal(t, top+1, a.SurfaceY(-5, 9))
}

func TestNewDefaultsHeight(t *testing.T) {
	assert.Equal(t, DefaultHeight, New(0, nil).Height())
	assert.Equal(t, 24, New(24, nil).Height())
}
