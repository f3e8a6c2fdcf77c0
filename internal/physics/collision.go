package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/annel0/voxel-engine/internal/world/block"
)

// Axis индекс оси в mgl64.Vec3
type Axis int

const (
	AxisX Axis = 0
	AxisY Axis = 1
	AxisZ Axis = 2
)

// DefaultEpsilon зазор, на который тело выталкивается за грань блока
const DefaultEpsilon = 0.0001

// Box прямоугольный коллайдер тела. Позиция тела: центр нижней грани.
type Box struct {
	HalfWidth float64 // Половина ширины по X и Z
	Height    float64
}

// Bounds возвращает мировые границы коллайдера в позиции pos
func (b Box) Bounds(pos mgl64.Vec3) (lower, upper mgl64.Vec3) {
	lower = mgl64.Vec3{pos[0] - b.HalfWidth, pos[1], pos[2] - b.HalfWidth}
	upper = mgl64.Vec3{pos[0] + b.HalfWidth, pos[1] + b.Height, pos[2] + b.HalfWidth}
	return lower, upper
}

// OverlapsCell проверяет строгое пересечение коллайдера с ячейкой. Касание гранями не считается.
func (b Box) OverlapsCell(pos mgl64.Vec3, x, y, z int) bool {
	lower, upper := b.Bounds(pos)
	return overlaps(lower, upper, x, y, z)
}

func overlaps(lower, upper mgl64.Vec3, x, y, z int) bool {
	cell := [3]float64{float64(x), float64(y), float64(z)}
	for i := 0; i < 3; i++ {
		if upper[i] <= cell[i] || lower[i] >= cell[i]+1 {
			return false
		}
	}
	return true
}

// ResolveAxis выталкивает коллайдер из твёрдых ячеек только вдоль оси axis,
// против знака скорости по этой оси, и обнуляет эту компоненту скорости.
// После каждой коррекции границы пересчитываются, поэтому последующие ячейки
// проверяются уже для сдвинутого коллайдера. Возвращает новые позицию и скорость
// и признак того, что было столкновение.
func ResolveAxis(src BlockSource, box Box, pos, vel mgl64.Vec3, axis Axis, eps float64) (mgl64.Vec3, mgl64.Vec3, bool) {
	lower, upper := box.Bounds(pos)

	x0, x1 := floorInt(lower[0]), floorInt(upper[0])
	y0, y1 := floorInt(lower[1]), floorInt(upper[1])
	z0, z1 := floorInt(lower[2]), floorInt(upper[2])

	collided := false
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			for z := z0; z <= z1; z++ {
				if src.GetBlock(x, y, z) == block.AirBlockID {
					continue
				}
				if !overlaps(lower, upper, x, y, z) {
					continue
				}
				collided = true

				below, above := box.extents(axis)
				lo := float64([3]int{x, y, z}[axis])
				switch v := vel[axis]; {
				case v > 0:
					pos[axis] = lo - above - eps
				case v < 0:
					pos[axis] = lo + 1 + below + eps
				}
				vel[axis] = 0

				lower, upper = box.Bounds(pos)
			}
		}
	}
	return pos, vel, collided
}

// extents расстояния от позиции тела до минимальной и максимальной границ коллайдера по оси
func (b Box) extents(axis Axis) (below, above float64) {
	if axis == AxisY {
		return 0, b.Height
	}
	return b.HalfWidth, b.HalfWidth
}

func floorInt(v float64) int {
	return int(math.Floor(v))
}

// Mover интегрирует движение коллайдера по осям в порядке X, Z, Y
type Mover struct {
	Box              Box
	Epsilon          float64
	TerminalVelocity float64 // Максимальная скорость падения (> 0); 0: без ограничения
}

// Result состояние тела после шага
type Result struct {
	Position mgl64.Vec3
	Velocity mgl64.Vec3
	Grounded bool // Тело двигалось вниз и было остановлено опорой на этом шаге
}

// Step сдвигает тело на vel*dt и разрешает столкновения по одной оси за раз
func (m Mover) Step(src BlockSource, pos, vel mgl64.Vec3, dt float64) Result {
	if m.TerminalVelocity > 0 && vel[1] < -m.TerminalVelocity {
		vel[1] = -m.TerminalVelocity
	}

	for _, axis := range [2]Axis{AxisX, AxisZ} {
		pos[axis] += vel[axis] * dt
		pos, vel, _ = ResolveAxis(src, m.Box, pos, vel, axis, m.Epsilon)
	}

	pos[1] += vel[1] * dt
	oldVy := vel[1]
	pos, vel, _ = ResolveAxis(src, m.Box, pos, vel, AxisY, m.Epsilon)

	return Result{
		Position: pos,
		Velocity: vel,
		Grounded: oldVy < 0 && vel[1] == 0,
	}
}
