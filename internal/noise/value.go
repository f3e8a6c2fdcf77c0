// Package noise содержит детерминированные генераторы двумерного шума для рельефа.
// Все функции чистые: результат зависит только от координат, сида и параметров октав.
package noise

import (
	"math"
	"math/bits"
)

// OctaveSeedStep смещение сида между октавами, чтобы октавы не коррелировали
const OctaveSeedStep = 1013

// minNorm порог суммарного веса октав, ниже которого результат считается нулевым
const minNorm = 1e-6

// Hash перемешивает целочисленную точку решётки и сид в значение из [0,1)
func Hash(ix, iz int, seed int64) float64 {
	s := uint32(seed) ^ uint32(uint64(seed)>>32)

	h := s*0x9E3779B1 ^ uint32(ix)*0x85EBCA77
	h = bits.RotateLeft32(h, 13) * 0xC2B2AE3D
	h ^= uint32(iz) * 0x27D4EB2F
	h = bits.RotateLeft32(h, 17) * 0x165667B1

	// Финальное лавинное перемешивание
	h ^= h >> 15
	h *= 0x85EBCA77
	h ^= h >> 13
	h *= 0xC2B2AE3D
	h ^= h >> 16

	// Старшие 24 бита точно представимы во float64
	return float64(h>>8) / (1 << 24)
}

// smooth кубическое сглаживание t²(3−2t)
func smooth(t float64) float64 {
	return t * t * (3 - 2*t)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Value2D возвращает value-noise в точке (x, z): билинейная интерполяция
// четырёх хешей решётки со сглаженными дробными частями. Диапазон [0,1).
func Value2D(x, z float64, seed int64) float64 {
	fx := math.Floor(x)
	fz := math.Floor(z)
	x0, z0 := int(fx), int(fz)

	tx := smooth(x - fx)
	tz := smooth(z - fz)

	a := Hash(x0, z0, seed)
	b := Hash(x0+1, z0, seed)
	c := Hash(x0, z0+1, seed)
	d := Hash(x0+1, z0+1, seed)

	return lerp(lerp(a, b, tx), lerp(c, d, tx), tz)
}

// Octaves задаёт параметры фрактального суммирования
type Octaves struct {
	Count       int     `yaml:"octaves"`
	Persistence float64 `yaml:"persistence"`
	Lacunarity  float64 `yaml:"lacunarity"`
}

// Fbm2D суммирует октавы Value2D с растущей частотой и убывающей амплитудой,
// нормирует на суммарный вес и ограничивает [0,1]
func Fbm2D(x, z float64, seed int64, octaves int, persistence, lacunarity float64) float64 {
	return accumulate(x, z, seed, octaves, persistence, lacunarity, nil)
}

// RidgedFbm2D как Fbm2D, но каждая октава складывается вокруг середины: 1 − |2n − 1|.
// Пики шума превращаются в острые хребты.
func RidgedFbm2D(x, z float64, seed int64, octaves int, persistence, lacunarity float64) float64 {
	return accumulate(x, z, seed, octaves, persistence, lacunarity, ridge)
}

func ridge(n float64) float64 {
	return 1 - math.Abs(2*n-1)
}

func accumulate(x, z float64, seed int64, octaves int, persistence, lacunarity float64, shape func(float64) float64) float64 {
	sum, norm := 0.0, 0.0
	amp, freq := 1.0, 1.0

	for i := 0; i < octaves; i++ {
		n := Value2D(x*freq, z*freq, seed+int64(i)*OctaveSeedStep)
		if shape != nil {
			n = shape(n)
		}
		sum += n * amp
		norm += amp

		amp *= persistence
		freq *= lacunarity
	}

	if norm <= minNorm {
		return 0
	}
	return clamp01(sum / norm)
}

// Fbm вызывает Fbm2D с параметрами из o
func (o Octaves) Fbm(x, z float64, seed int64) float64 {
	return Fbm2D(x, z, seed, o.Count, o.Persistence, o.Lacunarity)
}

// Ridged вызывает RidgedFbm2D с параметрами из o
func (o Octaves) Ridged(x, z float64, seed int64) float64 {
	return RidgedFbm2D(x, z, seed, o.Count, o.Persistence, o.Lacunarity)
}

// SmoothStep стандартный ограниченный кубический переход от a к b
func SmoothStep(a, b, t float64) float64 {
	if b == a {
		if t < a {
			return 0
		}
		return 1
	}
	t = clamp01((t - a) / (b - a))
	return t * t * (3 - 2*t)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
