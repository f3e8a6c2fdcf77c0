package vec

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 представляет трехмерный вектор с целочисленными координатами (ячейка воксельной сетки)
type Vec3 struct {
	X int
	Y int
	Z int
}

// Единичные оси
var (
	UnitX = Vec3{X: 1}
	UnitY = Vec3{Y: 1}
	UnitZ = Vec3{Z: 1}
)

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Neg возвращает противоположный вектор
func (v Vec3) Neg() Vec3 {
	return Vec3{X: -v.X, Y: -v.Y, Z: -v.Z}
}

// IsZero сообщает, что все компоненты равны нулю
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// Center возвращает центр ячейки в мировых координатах
func (v Vec3) Center() mgl64.Vec3 {
	return mgl64.Vec3{float64(v.X) + 0.5, float64(v.Y) + 0.5, float64(v.Z) + 0.5}
}

// Float преобразует в вектор с плавающей точкой (угол ячейки)
func (v Vec3) Float() mgl64.Vec3 {
	return mgl64.Vec3{float64(v.X), float64(v.Y), float64(v.Z)}
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%d,%d,%d)", v.X, v.Y, v.Z)
}

// Floor возвращает ячейку, содержащую точку p
func Floor(p mgl64.Vec3) Vec3 {
	return Vec3{
		X: int(math.Floor(p[0])),
		Y: int(math.Floor(p[1])),
		Z: int(math.Floor(p[2])),
	}
}
