package noise

import (
	"github.com/aquilax/go-perlin"
)

// Source двумерный источник шума со значениями в [0,1]
type Source interface {
	Sample(x, z float64) float64
}

// ValueFbm источник на основе Fbm2D
type ValueFbm struct {
	Seed    int64
	Octaves Octaves
}

// Sample возвращает значение fBm value-noise в точке
func (v ValueFbm) Sample(x, z float64) float64 {
	return v.Octaves.Fbm(x, z, v.Seed)
}

// Perlin источник шума Перлина. В отличие от глобального генератора,
// каждый экземпляр держит собственное состояние, привязанное к сиду.
type Perlin struct {
	gen *perlin.Perlin
}

// NewPerlin создаёт генератор шума Перлина с указанным сидом
func NewPerlin(seed int64, octaves int) *Perlin {
	alpha := 2.0 // Сглаживание шума
	beta := 2.0  // Частота шума
	if octaves <= 0 {
		octaves = 3
	}
	return &Perlin{gen: perlin.NewPerlin(alpha, beta, int32(octaves), seed)}
}

// Sample возвращает значение шума Перлина для указанных координат (от 0 до 1)
func (p *Perlin) Sample(x, z float64) float64 {
	// Значение шума от -1 до 1
	n := p.gen.Noise2D(x, z)
	return clamp01((n + 1.0) / 2.0)
}
