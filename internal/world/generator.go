package world

import (
	"math"

	"github.com/annel0/voxel-engine/internal/noise"
	"github.com/annel0/voxel-engine/internal/world/block"
)

// Generator заполняет только что созданный чанк. Вызывается ровно один раз при создании.
type Generator interface {
	Generate(c *Chunk)
}

// Смещения сида для независимых сигналов рельефа
const (
	mountainSeedOffset = 7919
	detailSeedOffset   = 15485
)

// TerrainParams параметры рельефа
type TerrainParams struct {
	BaseHeight float64 `yaml:"base_height"`

	// Континент: крупные низины и возвышенности
	ContinentScale     float64       `yaml:"continent_scale"`
	ContinentOctaves   noise.Octaves `yaml:"continent"`
	ContinentExponent  float64       `yaml:"continent_exponent"`
	ContinentAmplitude float64       `yaml:"continent_amplitude"`

	// Горы: ridged-шум, проявляется только выше порога континента
	MountainScale     float64       `yaml:"mountain_scale"`
	MountainOctaves   noise.Octaves `yaml:"mountain"`
	MountainAmplitude float64       `yaml:"mountain_amplitude"`
	MountainMaskLow   float64       `yaml:"mountain_mask_low"`
	MountainMaskHigh  float64       `yaml:"mountain_mask_high"`

	// Мелкие детали, центрированные вокруг нуля
	DetailScale     float64       `yaml:"detail_scale"`
	DetailOctaves   noise.Octaves `yaml:"detail"`
	DetailAmplitude float64       `yaml:"detail_amplitude"`

	// Материалы колонны
	SandLevel int `yaml:"sand_level"`
	SnowLevel int `yaml:"snow_level"`
	DirtDepth int `yaml:"dirt_depth"`
}

// DefaultTerrainParams параметры рельефа для мира высотой 64
func DefaultTerrainParams() TerrainParams {
	return TerrainParams{
		BaseHeight: 8,

		ContinentScale:     0.0045,
		ContinentOctaves:   noise.Octaves{Count: 4, Persistence: 0.5, Lacunarity: 2.0},
		ContinentExponent:  1.6,
		ContinentAmplitude: 20,

		MountainScale:     0.011,
		MountainOctaves:   noise.Octaves{Count: 5, Persistence: 0.5, Lacunarity: 2.1},
		MountainAmplitude: 28,
		MountainMaskLow:   0.45,
		MountainMaskHigh:  0.75,

		DetailScale:     0.07,
		DetailOctaves:   noise.Octaves{Count: 3, Persistence: 0.5, Lacunarity: 2.0},
		DetailAmplitude: 2,

		SandLevel: 10,
		SnowLevel: 44,
		DirtDepth: 3,
	}
}

// NoiseGenerator генератор карты высот из трёх сигналов: континент, горы, детали.
// Пещер и нависаний нет: колонна заполняется от 0 до высоты включительно.
type NoiseGenerator struct {
	Seed   int64
	Params TerrainParams
	Detail noise.Source
}

// NewNoiseGenerator создаёт генератор. detail == nil: детали из value-noise fBm.
func NewNoiseGenerator(seed int64, params TerrainParams, detail noise.Source) *NoiseGenerator {
	if detail == nil {
		detail = noise.ValueFbm{Seed: seed + detailSeedOffset, Octaves: params.DetailOctaves}
	}
	return &NoiseGenerator{Seed: seed, Params: params, Detail: detail}
}

// HeightAt возвращает высоту верхнего твёрдого блока колонны (wx, wz)
// для мира высотой worldHeight. Результат в [1, worldHeight-2].
func (g *NoiseGenerator) HeightAt(wx, wz, worldHeight int) int {
	p := g.Params
	x, z := float64(wx), float64(wz)

	continent := p.ContinentOctaves.Fbm(x*p.ContinentScale, z*p.ContinentScale, g.Seed)
	shaped := math.Pow(continent, p.ContinentExponent)

	mountain := p.MountainOctaves.Ridged(x*p.MountainScale, z*p.MountainScale, g.Seed+mountainSeedOffset)
	mask := noise.SmoothStep(p.MountainMaskLow, p.MountainMaskHigh, continent)

	detail := g.Detail.Sample(x*p.DetailScale, z*p.DetailScale)*2 - 1

	h := p.BaseHeight +
		shaped*p.ContinentAmplitude +
		mountain*p.MountainAmplitude*mask +
		detail*p.DetailAmplitude

	return clampHeight(int(math.Floor(h)), worldHeight)
}

// clampHeight оставляет над поверхностью хотя бы одну ячейку воздуха
func clampHeight(h, worldHeight int) int {
	if hi := worldHeight - 2; h > hi {
		h = hi
	}
	if h < 1 {
		h = 1
	}
	return h
}

// Generate заполняет все колонны чанка
func (g *NoiseGenerator) Generate(c *Chunk) {
	origin := c.Origin()
	for x := 0; x < ChunkSize; x++ {
		for z := 0; z < ChunkSize; z++ {
			top := g.HeightAt(origin.X+x, origin.Z+z, c.Height())
			for y := 0; y <= top; y++ {
				c.set(x, y, z, g.materialAt(y, top))
			}
		}
	}
}

// materialAt выбирает материал ячейки по глубине от поверхности
func (g *NoiseGenerator) materialAt(y, top int) block.BlockID {
	p := g.Params
	switch {
	case y == top && top <= p.SandLevel:
		return block.SandBlockID
	case y == top && top >= p.SnowLevel:
		return block.SnowBlockID
	case y == top:
		return block.GrassBlockID
	case y >= top-p.DirtDepth:
		return block.DirtBlockID
	default:
		return block.StoneBlockID
	}
}

// FlatGenerator заполняет все ячейки с y <= Level. Level < 0: пустой мир.
type FlatGenerator struct {
	Level int
	Block block.BlockID // 0: камень
}

// Generate заполняет слои от 0 до Level
func (g FlatGenerator) Generate(c *Chunk) {
	id := g.Block
	if id == block.AirBlockID {
		id = block.StoneBlockID
	}
	for y := 0; y <= g.Level && y < c.Height(); y++ {
		for x := 0; x < ChunkSize; x++ {
			for z := 0; z < ChunkSize; z++ {
				c.set(x, y, z, id)
			}
		}
	}
}
