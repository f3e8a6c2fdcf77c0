// worldprobe печатает карту поверхности мира для заданного сида и, при желании,
// результат трассировки луча. Мир генерируется в памяти, сервер не нужен.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/annel0/voxel-engine/internal/config"
	"github.com/annel0/voxel-engine/internal/physics"
	"github.com/annel0/voxel-engine/internal/world"
	"github.com/annel0/voxel-engine/internal/world/block"
)

var surfaceGlyphs = map[block.BlockID]byte{
	block.AirBlockID:   ' ',
	block.StoneBlockID: '#',
	block.DirtBlockID:  '%',
	block.GrassBlockID: '"',
	block.SandBlockID:  '.',
	block.SnowBlockID:  '*',
}

func main() {
	var (
		configPath = flag.String("config", "", "YAML конфигурация (секция world)")
		seed       = flag.Int64("seed", 0, "сид мира (0: из конфигурации)")
		radius     = flag.Int("radius", 1, "радиус области в чанках вокруг (0,0)")
		heights    = flag.Bool("heights", false, "печатать высоты вместо материалов")
		rayOrigin  = flag.String("ray-origin", "", "начало луча x,y,z")
		rayDir     = flag.String("ray-dir", "0,-1,0", "направление луча x,y,z")
		rayMax     = flag.Float64("ray-max", 60, "максимальная длина луча")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}
	if *seed != 0 {
		cfg.World.Seed = *seed
	}

	w := world.New(cfg.World.Height, cfg.World.NewGenerator())
	w.EnsureArea(world.ChunkCoord{}, *radius)

	fmt.Printf("seed=%d generator=%s height=%d chunks=%d\n",
		cfg.World.Seed, cfg.World.Generator, w.Height(), w.ChunkCount())
	printSurface(os.Stdout, w, *radius, *heights)

	if *rayOrigin == "" {
		return
	}
	origin, err := parseVec3(*rayOrigin)
	if err != nil {
		log.Fatalf("❌ -ray-origin: %v", err)
	}
	dir, err := parseVec3(*rayDir)
	if err != nil {
		log.Fatalf("❌ -ray-dir: %v", err)
	}

	hit := physics.Cast(w, origin, dir, *rayMax)
	if !hit.Found {
		fmt.Println("ray: промах")
		return
	}
	fmt.Printf("ray: %s в %s, грань %s, место %s, t=%.3f\n",
		block.Name(hit.ID), hit.Block, hit.Normal, hit.Place, hit.Distance)
}

// printSurface печатает по символу на колонку: строки идут по Z, столбцы по X
func printSurface(out io.Writer, w *world.World, radius int, heights bool) {
	lo := -radius * world.ChunkSize
	hi := (radius+1)*world.ChunkSize - 1

	for wz := lo; wz <= hi; wz++ {
		var line strings.Builder
		for wx := lo; wx <= hi; wx++ {
			top := w.SurfaceY(wx, wz)
			if heights {
				// Одна цифра на колонку: высота в десятках блоков
				line.WriteByte(byte('0' + min(top/10, 9)))
				continue
			}
			glyph, ok := surfaceGlyphs[w.GetBlock(wx, top-1, wz)]
			if !ok {
				glyph = '?'
			}
			line.WriteByte(glyph)
		}
		fmt.Fprintln(out, line.String())
	}
}

func parseVec3(s string) (mgl64.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return mgl64.Vec3{}, fmt.Errorf("ожидалось x,y,z, получено %q", s)
	}
	var v mgl64.Vec3
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return mgl64.Vec3{}, fmt.Errorf("компонента %d: %w", i, err)
		}
		v[i] = f
	}
	return v, nil
}
