// Package player реализует управление игроком: обзор, движение с гравитацией,
// прыжок и редактирование блоков лучом из глаз.
package player

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/physics"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world/block"
)

// Начальная ориентация камеры
const (
	DefaultYaw   = 135.0
	DefaultPitch = -15.0
	maxPitch     = 89.0
)

// Config параметры тела и движения игрока
type Config struct {
	HalfWidth        float64 `yaml:"half_width"`
	Height           float64 `yaml:"height"`
	EyeHeight        float64 `yaml:"eye_height"`
	MoveSpeed        float64 `yaml:"move_speed"`
	JumpSpeed        float64 `yaml:"jump_speed"`
	Gravity          float64 `yaml:"gravity"`
	TerminalVelocity float64 `yaml:"terminal_velocity"`
	Sensitivity      float64 `yaml:"mouse_sensitivity"` // Градусов на единицу смещения мыши
	Reach            float64 `yaml:"reach"`
}

// DefaultConfig возвращает стандартные параметры игрока
func DefaultConfig() Config {
	return Config{
		HalfWidth:        0.30,
		Height:           1.80,
		EyeHeight:        1.62,
		MoveSpeed:        7.0,
		JumpSpeed:        10.2,
		Gravity:          18.0,
		TerminalVelocity: 60.0,
		Sensitivity:      0.12,
		Reach:            60.0,
	}
}

// Input состояние управления на один тик
type Input struct {
	Forward bool    `json:"forward"`
	Back    bool    `json:"back"`
	Left    bool    `json:"left"`
	Right   bool    `json:"right"`
	Jump    bool    `json:"jump"`
	LookDX  float64 `json:"look_dx"` // Смещение мыши по горизонтали
	LookDY  float64 `json:"look_dy"` // Смещение мыши по вертикали
}

// Editor мир, доступный для чтения и записи блоков
type Editor interface {
	physics.BlockSource
	SetBlock(x, y, z int, id int)
}

// State снимок состояния игрока
type State struct {
	Position mgl64.Vec3 `json:"position"`
	Velocity mgl64.Vec3 `json:"velocity"`
	Yaw      float64    `json:"yaw"`
	Pitch    float64    `json:"pitch"`
	Grounded bool       `json:"grounded"`
}

// Controller управляет телом игрока. Позиция: центр нижней грани коллайдера.
type Controller struct {
	cfg   Config
	mover physics.Mover

	pos      mgl64.Vec3
	vel      mgl64.Vec3
	yaw      float64
	pitch    float64
	grounded bool

	log *logging.Logger
}

// New создаёт игрока в точке spawn
func New(cfg Config, spawn mgl64.Vec3) *Controller {
	return &Controller{
		cfg: cfg,
		mover: physics.Mover{
			Box:              physics.Box{HalfWidth: cfg.HalfWidth, Height: cfg.Height},
			Epsilon:          physics.DefaultEpsilon,
			TerminalVelocity: cfg.TerminalVelocity,
		},
		pos:   spawn,
		yaw:   DefaultYaw,
		pitch: DefaultPitch,
		log:   logging.GetComponentLogger("player"),
	}
}

// Config возвращает параметры игрока
func (c *Controller) Config() Config {
	return c.cfg
}

// Position возвращает позицию игрока
func (c *Controller) Position() mgl64.Vec3 {
	return c.pos
}

// Teleport переносит игрока и сбрасывает скорость
func (c *Controller) Teleport(pos mgl64.Vec3) {
	c.pos = pos
	c.vel = mgl64.Vec3{}
	c.grounded = false
}

// Grounded сообщает, стоит ли игрок на опоре после последнего тика
func (c *Controller) Grounded() bool {
	return c.grounded
}

// State возвращает снимок состояния
func (c *Controller) State() State {
	return State{
		Position: c.pos,
		Velocity: c.vel,
		Yaw:      c.yaw,
		Pitch:    c.pitch,
		Grounded: c.grounded,
	}
}

// Look поворачивает камеру на смещение мыши (dx, dy)
func (c *Controller) Look(dx, dy float64) {
	c.yaw -= dx * c.cfg.Sensitivity
	c.pitch -= dy * c.cfg.Sensitivity

	c.pitch = mgl64.Clamp(c.pitch, -maxPitch, maxPitch)
	c.yaw = math.Mod(c.yaw, 360)
	if c.yaw < 0 {
		c.yaw += 360
	}
}

// LookDirection возвращает единичный вектор взгляда
func (c *Controller) LookDirection() mgl64.Vec3 {
	yaw := mgl64.DegToRad(c.yaw)
	pitch := mgl64.DegToRad(c.pitch)
	cp := math.Cos(pitch)
	return mgl64.Vec3{math.Sin(yaw) * cp, math.Sin(pitch), math.Cos(yaw) * cp}.Normalize()
}

// forwardXZ направление взгляда, спроецированное на горизонталь
func (c *Controller) forwardXZ() mgl64.Vec3 {
	yaw := mgl64.DegToRad(c.yaw)
	return mgl64.Vec3{math.Sin(yaw), 0, math.Cos(yaw)}
}

// EyePosition возвращает позицию глаз
func (c *Controller) EyePosition() mgl64.Vec3 {
	return c.pos.Add(mgl64.Vec3{0, c.cfg.EyeHeight, 0})
}

// wishVelocity переводит нажатые клавиши в горизонтальную скорость в мировых осях
func (c *Controller) wishVelocity(in Input) mgl64.Vec3 {
	var wish mgl64.Vec3
	if in.Forward {
		wish[2]++
	}
	if in.Back {
		wish[2]--
	}
	if in.Right {
		wish[0]++
	}
	if in.Left {
		wish[0]--
	}
	if wish.LenSqr() > 0 {
		wish = wish.Normalize()
	}

	forward := c.forwardXZ()
	right := forward.Cross(mgl64.Vec3{0, 1, 0}).Normalize()
	return right.Mul(wish[0]).Add(forward.Mul(wish[2])).Mul(c.cfg.MoveSpeed)
}

// Update выполняет один тик: обзор, скорость из ввода, прыжок, гравитация и
// перемещение с разрешением столкновений по осям X, Z, Y.
func (c *Controller) Update(src physics.BlockSource, in Input, dt float64) {
	c.Look(in.LookDX, in.LookDY)

	move := c.wishVelocity(in)
	c.vel[0] = move[0]
	c.vel[2] = move[2]

	if c.grounded && in.Jump {
		c.vel[1] = c.cfg.JumpSpeed
		c.grounded = false
	}

	c.vel[1] -= c.cfg.Gravity * dt

	res := c.mover.Step(src, c.pos, c.vel, dt)
	c.pos = res.Position
	c.vel = res.Velocity
	c.grounded = res.Grounded
}

// Target возвращает блок, на который смотрит игрок, в пределах досягаемости
func (c *Controller) Target(src physics.BlockSource) physics.Hit {
	return physics.Cast(src, c.EyePosition(), c.LookDirection(), c.cfg.Reach)
}

// Remove убирает блок под прицелом. Возвращает false, если цели нет.
func (c *Controller) Remove(ed Editor) (physics.Hit, bool) {
	hit := c.Target(ed)
	if !hit.Found {
		return hit, false
	}
	ed.SetBlock(hit.Block.X, hit.Block.Y, hit.Block.Z, int(block.AirBlockID))
	return hit, true
}

// Place ставит блок id в соседнюю с прицелом ячейку. Ячейка должна быть воздухом
// и не пересекаться с телом игрока.
func (c *Controller) Place(ed Editor, id block.BlockID) (physics.Hit, bool) {
	if id == block.AirBlockID {
		return physics.Hit{}, false
	}
	hit := c.Target(ed)
	if !hit.Found {
		return hit, false
	}

	p := hit.Place
	if ed.GetBlock(p.X, p.Y, p.Z) != block.AirBlockID {
		c.log.Trace("Установка в %s отклонена: ячейка занята", p)
		return hit, false
	}
	if c.overlaps(p) {
		c.log.Trace("Установка в %s отклонена: ячейка пересекает игрока", p)
		return hit, false
	}

	ed.SetBlock(p.X, p.Y, p.Z, int(id))
	return hit, true
}

func (c *Controller) overlaps(cell vec.Vec3) bool {
	return c.mover.Box.OverlapsCell(c.pos, cell.X, cell.Y, cell.Z)
}
