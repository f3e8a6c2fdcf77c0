package player

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-engine/internal/physics"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world"
	"github.com/annel0/voxel-engine/internal/world/block"
)

const dt = 1.0 / 60

func newFlatWorld(level int) *world.World {
	w := world.New(32, world.FlatGenerator{Level: level})
	w.EnsureArea(world.ChunkCoord{}, 1)
	return w
}

// standing игрок, стоящий на плоском мире уровня 5 и смотрящий вдоль +Z
func standing(t *testing.T) (*Controller, *world.World) {
	t.Helper()
	w := newFlatWorld(5)
	c := New(DefaultConfig(), mgl64.Vec3{8.5, 6 + physics.DefaultEpsilon, 8.5})
	c.yaw, c.pitch = 0, 0
	c.Update(w, Input{}, dt)
	require.True(t, c.Grounded())
	return c, w
}

func TestLookClampsAndWraps(t *testing.T) {
	c := New(DefaultConfig(), mgl64.Vec3{})
	assert.Equal(t, DefaultYaw, c.State().Yaw)
	assert.Equal(t, DefaultPitch, c.State().Pitch)

	c.Look(0, -10000)
	assert.Equal(t, 89.0, c.State().Pitch)
	c.Look(0, 10000)
	assert.Equal(t, -89.0, c.State().Pitch)

	c.Look(1500, 0) // -180 градусов
	assert.InDelta(t, 315.0, c.State().Yaw, 1e-9)
	c.Look(-3000, 0) // +360 градусов
	assert.InDelta(t, 315.0, c.State().Yaw, 1e-9)

	for i := 0; i < 50; i++ {
		c.Look(777, 0)
		yaw := c.State().Yaw
		require.True(t, yaw >= 0 && yaw < 360, "yaw=%v", yaw)
	}
}

func TestLookDirection(t *testing.T) {
	c := New(DefaultConfig(), mgl64.Vec3{})
	c.yaw, c.pitch = 0, 0
	assert.True(t, c.LookDirection().ApproxEqual(mgl64.Vec3{0, 0, 1}))

	c.yaw = 90
	assert.True(t, c.LookDirection().ApproxEqual(mgl64.Vec3{1, 0, 0}))

	c.pitch = -89
	d := c.LookDirection()
	assert.InDelta(t, 1.0, d.Len(), 1e-12)
	assert.Less(t, d[1], -0.99)
}

func TestFallAndLand(t *testing.T) {
	w := newFlatWorld(5)
	c := New(DefaultConfig(), mgl64.Vec3{8.5, 10, 8.5})

	c.Update(w, Input{}, dt)
	assert.False(t, c.Grounded())

	for i := 0; i < 300; i++ {
		c.Update(w, Input{}, dt)
	}
	s := c.State()
	assert.True(t, s.Grounded)
	assert.InDelta(t, 6.0, s.Position[1], 1e-3)
	assert.Zero(t, s.Velocity[1])
	assert.InDelta(t, 6+1.62, c.EyePosition()[1], 1e-3)
}

func TestJumpOnlyFromGround(t *testing.T) {
	c, w := standing(t)

	c.Update(w, Input{Jump: true}, dt)
	s := c.State()
	assert.False(t, s.Grounded)
	assert.InDelta(t, 10.2-18*dt, s.Velocity[1], 1e-9)
	assert.Greater(t, s.Position[1], 6.1)

	// Повторный прыжок в воздухе игнорируется
	vy := s.Velocity[1]
	c.Update(w, Input{Jump: true}, dt)
	assert.InDelta(t, vy-18*dt, c.State().Velocity[1], 1e-9)

	// Приземление
	for i := 0; i < 120; i++ {
		c.Update(w, Input{}, dt)
	}
	assert.True(t, c.Grounded())
}

func TestHorizontalMovement(t *testing.T) {
	c, w := standing(t)
	start := c.Position()

	c.Update(w, Input{Forward: true}, dt)
	moved := c.Position().Sub(start)
	assert.InDelta(t, 7*dt, moved[2], 1e-9, "yaw=0: вперёд вдоль +Z")
	assert.InDelta(t, 0, moved[0], 1e-9)

	// По диагонали скорость не превышает MoveSpeed
	c.Update(w, Input{Forward: true, Left: true}, dt)
	v := c.State().Velocity
	assert.InDelta(t, 7.0, mgl64.Vec2{v[0], v[2]}.Len(), 1e-9)

	// Противоположные клавиши гасят друг друга
	c.Update(w, Input{Forward: true, Back: true}, dt)
	v = c.State().Velocity
	assert.Zero(t, v[0])
	assert.Zero(t, v[2])
}

func TestRemoveAndPlace(t *testing.T) {
	c, w := standing(t)
	w.SetBlock(8, 7, 11, int(block.StoneBlockID))

	hit := c.Target(w)
	require.True(t, hit.Found)
	assert.Equal(t, vec.Vec3{X: 8, Y: 7, Z: 11}, hit.Block)
	assert.Equal(t, vec.Vec3{Z: -1}, hit.Normal)

	// Ставим блоки к себе, пока не упрёмся в собственное тело
	hit, ok := c.Place(w, block.SandBlockID)
	require.True(t, ok)
	assert.Equal(t, vec.Vec3{X: 8, Y: 7, Z: 10}, hit.Place)
	assert.Equal(t, block.SandBlockID, w.GetBlock(8, 7, 10))

	_, ok = c.Place(w, block.SandBlockID)
	require.True(t, ok)
	assert.Equal(t, block.SandBlockID, w.GetBlock(8, 7, 9))

	hit, ok = c.Place(w, block.SandBlockID)
	assert.False(t, ok, "ячейка пересекает игрока")
	assert.Equal(t, vec.Vec3{X: 8, Y: 7, Z: 8}, hit.Place)
	assert.Equal(t, block.AirBlockID, w.GetBlock(8, 7, 8))

	// Снимаем поставленные блоки по одному
	hit, ok = c.Remove(w)
	require.True(t, ok)
	assert.Equal(t, vec.Vec3{X: 8, Y: 7, Z: 9}, hit.Block)
	assert.Equal(t, block.AirBlockID, w.GetBlock(8, 7, 9))

	hit, ok = c.Remove(w)
	require.True(t, ok)
	assert.Equal(t, vec.Vec3{X: 8, Y: 7, Z: 10}, hit.Block)
}

func TestRemoveWithoutTarget(t *testing.T) {
	c, w := standing(t)
	c.pitch = 89

	before := w.GetBlock(8, 5, 8)
	_, ok := c.Remove(w)
	assert.False(t, ok, "в небе нечего снимать")
	assert.Equal(t, before, w.GetBlock(8, 5, 8))

	_, ok = c.Place(w, block.StoneBlockID)
	assert.False(t, ok)
}

func TestPlaceIntoSolidIsNoop(t *testing.T) {
	c, w := standing(t)
	// Глаза внутри блока: цель: сама ячейка, она уже твёрдая
	w.SetBlock(8, 7, 8, int(block.DirtBlockID))

	hit, ok := c.Place(w, block.StoneBlockID)
	require.True(t, hit.Found)
	assert.False(t, ok)
	assert.Equal(t, block.DirtBlockID, w.GetBlock(8, 7, 8))

	_, ok = c.Place(w, block.AirBlockID)
	assert.False(t, ok, "воздух не ставится")
}

func TestTeleport(t *testing.T) {
	c, w := standing(t)
	c.Update(w, Input{Jump: true}, dt)

	c.Teleport(mgl64.Vec3{1, 20, 1})
	s := c.State()
	assert.Equal(t, mgl64.Vec3{1, 20, 1}, s.Position)
	assert.Equal(t, mgl64.Vec3{}, s.Velocity)
	assert.False(t, s.Grounded)
}
