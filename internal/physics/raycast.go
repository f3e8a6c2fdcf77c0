package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/annel0/voxel-engine/internal/metrics"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
)

// BlockSource доступ на чтение к блокам. Реализуется миром и тестовыми заглушками.
type BlockSource interface {
	GetBlock(x, y, z int) block.BlockID
}

// minDirLenSq направления короче этого считаются нулевыми
const minDirLenSq = 1e-8

// Hit результат трассировки луча
type Hit struct {
	Found    bool
	Block    vec.Vec3      // Ячейка, в которую попал луч
	Place    vec.Vec3      // Соседняя ячейка со стороны грани попадания
	Normal   vec.Vec3      // Нормаль грани; нулевая, если луч начался внутри блока
	Distance float64       // Расстояние вдоль нормализованного луча до входа в ячейку
	ID       block.BlockID // Тип блока в ячейке попадания
}

// Cast проходит луч по сетке (3D-DDA) и возвращает первую твёрдую ячейку
// на расстоянии не больше maxDist. При точном равенстве расстояний до границ
// шаг делается по X, затем по Y, затем по Z.
func Cast(src BlockSource, origin, dir mgl64.Vec3, maxDist float64) Hit {
	if dir.Dot(dir) < minDirLenSq || math.IsNaN(maxDist) || math.IsInf(maxDist, 0) || maxDist < 0 {
		metrics.Raycasts.WithLabelValues("degenerate").Inc()
		return Hit{}
	}
	dir = dir.Normalize()

	cell := vec.Floor(origin)
	pos := [3]int{cell.X, cell.Y, cell.Z}

	var step [3]int
	var tDelta, tMax [3]float64
	for i := 0; i < 3; i++ {
		d := dir[i]
		if d >= 0 {
			step[i] = 1
		} else {
			step[i] = -1
		}
		if d == 0 {
			tDelta[i] = math.Inf(1)
			tMax[i] = math.Inf(1)
			continue
		}
		boundary := float64(pos[i])
		if d > 0 {
			boundary++
		}
		tDelta[i] = math.Abs(1 / d)
		tMax[i] = math.Abs((boundary - origin[i]) / d)
	}

	var normal [3]int
	t := 0.0
	for t <= maxDist {
		if id := src.GetBlock(pos[0], pos[1], pos[2]); id != block.AirBlockID {
			hit := vec.Vec3{X: pos[0], Y: pos[1], Z: pos[2]}
			n := vec.Vec3{X: normal[0], Y: normal[1], Z: normal[2]}
			metrics.Raycasts.WithLabelValues("hit").Inc()
			return Hit{
				Found:    true,
				Block:    hit,
				Place:    hit.Add(n),
				Normal:   n,
				Distance: t,
				ID:       id,
			}
		}

		axis := nextAxis(tMax)
		pos[axis] += step[axis]
		t = tMax[axis]
		tMax[axis] += tDelta[axis]
		normal = [3]int{}
		normal[axis] = -step[axis]
	}

	metrics.Raycasts.WithLabelValues("miss").Inc()
	return Hit{}
}

// nextAxis выбирает ось с ближайшей границей, при равенстве предпочитая меньший индекс
// (X, затем Y, затем Z). Сравнения нестрогие намеренно: строгая цепочка при равенстве
// X и Y выбрала бы Y, а порядок обхода на рёбрах должен быть X > Y > Z.
func nextAxis(tMax [3]float64) int {
	switch {
	case tMax[0] <= tMax[1] && tMax[0] <= tMax[2]:
		return 0
	case tMax[1] <= tMax[2]:
		return 1
	default:
		return 2
	}
}
