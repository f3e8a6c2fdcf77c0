package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/annel0/voxel-engine/internal/player"
	"github.com/annel0/voxel-engine/internal/sim"
	"github.com/annel0/voxel-engine/internal/world"
	"github.com/annel0/voxel-engine/internal/world/block"
)

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BlockRequest запрос на запись блока
type BlockRequest struct {
	X  *int `json:"x" binding:"required"`
	Y  *int `json:"y" binding:"required"`
	Z  *int `json:"z" binding:"required"`
	ID *int `json:"id" binding:"required"`
}

// BlockResponse блок в мировых координатах
type BlockResponse struct {
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Z    int    `json:"z"`
	ID   uint8  `json:"id"`
	Name string `json:"name"`
}

// RaycastRequest запрос на трассировку луча
type RaycastRequest struct {
	Origin      [3]float64 `json:"origin"`
	Direction   [3]float64 `json:"direction"`
	MaxDistance float64    `json:"max_distance"`
}

// RaycastResponse результат трассировки; Hit == nil: промах
type RaycastResponse struct {
	Found bool            `json:"found"`
	Hit   *sim.TargetInfo `json:"hit,omitempty"`
}

// PlaceRequest запрос на установку блока игроком
type PlaceRequest struct {
	ID int `json:"id"`
}

// VisibleCellResponse видимая ячейка чанка
type VisibleCellResponse struct {
	X  int   `json:"x"`
	Y  int   `json:"y"`
	Z  int   `json:"z"`
	ID uint8 `json:"id"`
}

func badRequest(c *gin.Context, format string, args ...interface{}) {
	c.JSON(http.StatusBadRequest, GenericResponse{
		Success: false,
		Message: fmt.Sprintf(format, args...),
	})
}

func ok(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"time":    time.Now().Unix(),
		"session": rs.session.ID.String(),
	})
}

// handleStats возвращает статистику мира и процесса
func (rs *RestServer) handleStats(c *gin.Context) {
	snap := rs.session.Snapshot()

	ok(c, "Статистика получена", gin.H{
		"world": gin.H{
			"session": snap.ID,
			"tick":    snap.Tick,
			"chunks":  snap.Chunks,
			"height":  rs.session.WorldHeight(),
		},
		"server": rs.metrics.Snapshot(),
	})
}

// parseIntParams читает целочисленные параметры запроса; первое неверное значение: ошибка
func parseIntParams(get func(string) string, names ...string) ([]int, error) {
	out := make([]int, len(names))
	for i, name := range names {
		raw := get(name)
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("параметр %s: неверное целое %q", name, raw)
		}
		out[i] = v
	}
	return out, nil
}

// handleGetBlock возвращает блок по мировым координатам
func (rs *RestServer) handleGetBlock(c *gin.Context) {
	xyz, err := parseIntParams(c.Query, "x", "y", "z")
	if err != nil {
		badRequest(c, "%v", err)
		return
	}

	id := rs.session.GetBlock(xyz[0], xyz[1], xyz[2])
	ok(c, "Блок получен", BlockResponse{X: xyz[0], Y: xyz[1], Z: xyz[2], ID: uint8(id), Name: block.Name(id)})
}

// handleSetBlock записывает блок. id приводится к [0,255], запись вне высоты мира игнорируется.
func (rs *RestServer) handleSetBlock(c *gin.Context) {
	var req BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Неверный формат запроса: %v", err)
		return
	}

	x, y, z := *req.X, *req.Y, *req.Z
	rs.session.SetBlock(c.Request.Context(), x, y, z, *req.ID)

	id := rs.session.GetBlock(x, y, z)
	ok(c, "Блок записан", BlockResponse{X: x, Y: y, Z: z, ID: uint8(id), Name: block.Name(id)})
}

// handleChunks возвращает список созданных чанков
func (rs *RestServer) handleChunks(c *gin.Context) {
	chunks := rs.session.Chunks()
	ok(c, "Чанки получены", gin.H{
		"chunks": chunks,
		"total":  len(chunks),
	})
}

// handleVisible возвращает видимые ячейки чанка
func (rs *RestServer) handleVisible(c *gin.Context) {
	xz, err := parseIntParams(c.Param, "cx", "cz")
	if err != nil {
		badRequest(c, "%v", err)
		return
	}

	cc := world.ChunkCoord{X: xz[0], Z: xz[1]}
	cells, found := rs.session.VisibleCells(cc)
	if !found {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: fmt.Sprintf("%s не создан", cc),
		})
		return
	}

	out := make([]VisibleCellResponse, len(cells))
	for i, cell := range cells {
		out[i] = VisibleCellResponse{X: cell.Pos.X, Y: cell.Pos.Y, Z: cell.Pos.Z, ID: uint8(cell.Block)}
	}
	ok(c, "Видимые ячейки получены", gin.H{
		"chunk": gin.H{"x": cc.X, "z": cc.Z},
		"cells": out,
		"total": len(out),
	})
}

// handleRaycast трассирует луч по миру
func (rs *RestServer) handleRaycast(c *gin.Context) {
	var req RaycastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Неверный формат запроса: %v", err)
		return
	}
	if req.MaxDistance <= 0 {
		req.MaxDistance = player.DefaultConfig().Reach
	}
	if !(req.MaxDistance <= rs.maxRay) {
		badRequest(c, "max_distance %g превышает предел %g", req.MaxDistance, rs.maxRay)
		return
	}

	hit := rs.session.Raycast(c.Request.Context(), mgl64.Vec3(req.Origin), mgl64.Vec3(req.Direction), req.MaxDistance)
	ok(c, "Луч оттрассирован", RaycastResponse{Found: hit.Found, Hit: sim.NewTargetInfo(hit)})
}

// handlePlayer возвращает снимок игрока
func (rs *RestServer) handlePlayer(c *gin.Context) {
	ok(c, "Состояние игрока", rs.session.Snapshot())
}

// handleInput задаёт управление игроком
func (rs *RestServer) handleInput(c *gin.Context) {
	var in player.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Неверный формат запроса: %v", err)
		return
	}

	rs.session.SetInput(in)
	ok(c, "Ввод принят", nil)
}

// handlePlace ставит блок перед игроком
func (rs *RestServer) handlePlace(c *gin.Context) {
	var req PlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Неверный формат запроса: %v", err)
		return
	}
	if req.ID <= 0 || req.ID > 255 {
		badRequest(c, "id должен быть в диапазоне [1,255], получено %d", req.ID)
		return
	}

	hit, placed := rs.session.Place(c.Request.Context(), block.BlockID(req.ID))
	ok(c, editMessage(placed, "Блок поставлен", "Установка невозможна"), gin.H{
		"placed": placed,
		"target": sim.NewTargetInfo(hit),
	})
}

// handleRemove убирает блок под прицелом
func (rs *RestServer) handleRemove(c *gin.Context) {
	hit, removed := rs.session.Remove(c.Request.Context())
	ok(c, editMessage(removed, "Блок убран", "Нет цели"), gin.H{
		"removed": removed,
		"target":  sim.NewTargetInfo(hit),
	})
}

func editMessage(done bool, yes, no string) string {
	if done {
		return yes
	}
	return no
}
