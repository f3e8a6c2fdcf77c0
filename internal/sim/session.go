// Package sim владеет миром и игроком и сериализует все изменения:
// тики движения и правки блоков выполняются под одним мьютексом.
package sim

import (
	"context"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/voxel-engine/internal/eventbus"
	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/metrics"
	"github.com/annel0/voxel-engine/internal/physics"
	"github.com/annel0/voxel-engine/internal/player"
	"github.com/annel0/voxel-engine/internal/world"
	"github.com/annel0/voxel-engine/internal/world/block"
)

// DefaultTickRate тиков в секунду по умолчанию
const DefaultTickRate = 60

// MaxRayDistance верхняя граница длины произвольного луча: трассировка идёт под мьютексом сессии
const MaxRayDistance = 256.0

type tickerFactory func(time.Duration) (<-chan time.Time, func())

type timeSource func() time.Time

func defaultTickerFactory() tickerFactory {
	return func(d time.Duration) (<-chan time.Time, func()) {
		ticker := time.NewTicker(d)
		return ticker.C, ticker.Stop
	}
}

// Options параметры сессии
type Options struct {
	Height      int
	Generator   world.Generator
	SpawnRadius int // Радиус стартовой области в чанках
	Player      player.Config
	TickRate    int
	Events      eventbus.EventBus // nil: события не публикуются
}

// Snapshot состояние сессии на момент вызова
type Snapshot struct {
	ID     uuid.UUID    `json:"id"`
	Tick   uint64       `json:"tick"`
	Player player.State `json:"player"`
	Chunks int          `json:"chunks"`
	Target *TargetInfo  `json:"target,omitempty"`
}

// TargetInfo блок под прицелом игрока
type TargetInfo struct {
	Block    [3]int  `json:"block"`
	Place    [3]int  `json:"place"`
	Normal   [3]int  `json:"normal"`
	Distance float64 `json:"distance"`
	ID       uint8   `json:"id"`
}

// NewTargetInfo переводит результат трассировки в JSON-представление; nil: промах
func NewTargetInfo(hit physics.Hit) *TargetInfo {
	if !hit.Found {
		return nil
	}
	return &TargetInfo{
		Block:    [3]int{hit.Block.X, hit.Block.Y, hit.Block.Z},
		Place:    [3]int{hit.Place.X, hit.Place.Y, hit.Place.Z},
		Normal:   [3]int{hit.Normal.X, hit.Normal.Y, hit.Normal.Z},
		Distance: hit.Distance,
		ID:       uint8(hit.ID),
	}
}

// Session один мир и один игрок. Все методы потокобезопасны.
type Session struct {
	ID uuid.UUID

	mu      sync.Mutex
	world   *world.World
	player  *player.Controller
	pending player.Input
	tick    uint64

	tickDur   time.Duration
	wg        sync.WaitGroup
	newTicker tickerFactory
	now       timeSource

	events eventbus.EventBus
	outbox []outboxEvent // события, накопленные под мьютексом
	pubMu  sync.Mutex    // сохраняет порядок публикации между flush

	log    *logging.Logger
	tracer trace.Tracer
}

type outboxEvent struct {
	eventType string
	payload   interface{}
}

// NewSession создаёт мир, генерирует стартовую область и ставит игрока на поверхность в центре чанка (0,0)
func NewSession(opts Options) *Session {
	if opts.TickRate <= 0 {
		opts.TickRate = DefaultTickRate
	}
	if opts.SpawnRadius < 0 {
		opts.SpawnRadius = 0
	}

	s := &Session{
		ID:        uuid.New(),
		world:     world.New(opts.Height, opts.Generator),
		tickDur:   time.Second / time.Duration(opts.TickRate),
		newTicker: defaultTickerFactory(),
		now:       time.Now,
		events:    opts.Events,
		log:       logging.GetComponentLogger("sim"),
		tracer:    otel.Tracer("github.com/annel0/voxel-engine/internal/sim"),
	}
	w := s.world
	if s.events != nil {
		w.OnChunkCreated(func(cc world.ChunkCoord, c *world.Chunk) {
			s.queue(eventbus.ChunkCreated, eventbus.ChunkInfo{X: cc.X, Z: cc.Z, Solid: c.SolidCount()})
		})
	}
	w.EnsureArea(world.ChunkCoord{}, opts.SpawnRadius)

	spawnX, spawnZ := world.ChunkSize/2, world.ChunkSize/2
	spawn := mgl64.Vec3{
		float64(spawnX) + 0.5,
		float64(w.SurfaceY(spawnX, spawnZ)),
		float64(spawnZ) + 0.5,
	}
	s.player = player.New(opts.Player, spawn)

	s.log.Info("Сессия %s: %d чанков, спавн %v", s.ID, w.ChunkCount(), spawn)
	s.flush(context.Background())
	return s
}

// queue откладывает событие до выхода из-под мьютекса. Вызывается только под s.mu
// (или до того, как сессия стала доступна другим горутинам).
func (s *Session) queue(eventType string, payload interface{}) {
	if s.events == nil {
		return
	}
	s.outbox = append(s.outbox, outboxEvent{eventType: eventType, payload: payload})
}

// flush публикует накопленные события. Ошибки публикации только логируются:
// шина событий не влияет на состояние мира.
func (s *Session) flush(ctx context.Context) {
	if s.events == nil {
		return
	}
	// Пачки забираются и публикуются под pubMu, иначе параллельные правки
	// могут уйти в шину не в том порядке, в котором применены к миру
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	batch := s.outbox
	s.outbox = nil
	s.mu.Unlock()

	for _, e := range batch {
		ev, err := eventbus.NewEnvelope(s.ID.String(), e.eventType, e.payload)
		if err == nil {
			err = s.events.Publish(ctx, ev)
		}
		if err != nil {
			s.log.Warn("Событие %s не опубликовано: %v", e.eventType, err)
		}
	}
}

// TickInterval возвращает номинальную длительность тика
func (s *Session) TickInterval() time.Duration {
	return s.tickDur
}

// Start запускает цикл тиков до отмены ctx
func (s *Session) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
}

func (s *Session) run(ctx context.Context) {
	defer s.wg.Done()

	tickerC, stop := s.newTicker(s.tickDur)
	defer stop()

	s.log.Debug("Цикл тиков запущен, интервал %s", s.tickDur)
	last := s.now()
	for {
		select {
		case <-ctx.Done():
			s.log.Debug("Цикл тиков остановлен")
			return
		case now := <-tickerC:
			delta := now.Sub(last)
			if delta <= 0 || delta > 10*s.tickDur {
				delta = s.tickDur
			}
			last = now
			s.Tick(delta.Seconds())
		}
	}
}

// Wait ждёт завершения цикла тиков
func (s *Session) Wait() {
	s.wg.Wait()
}

// Tick выполняет один шаг симуляции с накопленным вводом
func (s *Session) Tick(dt float64) {
	start := time.Now()

	s.mu.Lock()
	in := s.pending
	// Клавиши движения удерживаются, прыжок и смещение мыши расходуются за один тик
	s.pending.Jump = false
	s.pending.LookDX, s.pending.LookDY = 0, 0

	s.player.Update(s.world, in, dt)
	s.tick++
	s.mu.Unlock()
	s.flush(context.Background())

	metrics.Ticks.Inc()
	metrics.TickDuration.Observe(time.Since(start).Seconds())
}

// SetInput задаёт состояние управления для следующих тиков. Прыжок запоминается
// до ближайшего тика, смещения мыши суммируются.
func (s *Session) SetInput(in player.Input) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending.Forward = in.Forward
	s.pending.Back = in.Back
	s.pending.Left = in.Left
	s.pending.Right = in.Right
	s.pending.Jump = s.pending.Jump || in.Jump
	s.pending.LookDX += in.LookDX
	s.pending.LookDY += in.LookDY
}

// Snapshot возвращает текущее состояние
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		ID:     s.ID,
		Tick:   s.tick,
		Player: s.player.State(),
		Chunks: s.world.ChunkCount(),
		Target: NewTargetInfo(s.player.Target(s.world)),
	}
}

// GetBlock читает блок мира
func (s *Session) GetBlock(x, y, z int) block.BlockID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world.GetBlock(x, y, z)
}

// SetBlock записывает блок мира
func (s *Session) SetBlock(ctx context.Context, x, y, z int, id int) {
	ctx, span := s.tracer.Start(ctx, "sim.SetBlock", trace.WithAttributes(
		attribute.Int("x", x), attribute.Int("y", y), attribute.Int("z", z), attribute.Int("id", id),
	))
	defer span.End()

	s.mu.Lock()
	if y >= 0 && y < s.world.Height() {
		// Старое значение читаем из уже сгенерированного чанка
		cc, _, _ := world.ToChunkCoords(x, z)
		s.world.GetOrCreateChunk(cc)
	}
	old := s.world.GetBlock(x, y, z)
	s.world.SetBlock(x, y, z, id)
	if cur := s.world.GetBlock(x, y, z); cur != old {
		s.queue(eventbus.BlockEdited, eventbus.BlockEdit{X: x, Y: y, Z: z, Old: uint8(old), New: uint8(cur), Op: "set"})
	}
	s.mu.Unlock()

	s.flush(ctx)
}

// Raycast трассирует произвольный луч по миру. maxDist ограничивается MaxRayDistance.
func (s *Session) Raycast(ctx context.Context, origin, dir mgl64.Vec3, maxDist float64) physics.Hit {
	_, span := s.tracer.Start(ctx, "sim.Raycast")
	defer span.End()

	if !(maxDist <= MaxRayDistance) {
		maxDist = MaxRayDistance
	}

	s.mu.Lock()
	hit := physics.Cast(s.world, origin, dir, maxDist)
	s.mu.Unlock()

	span.SetAttributes(attribute.Bool("found", hit.Found))
	return hit
}

// Place ставит блок id перед игроком
func (s *Session) Place(ctx context.Context, id block.BlockID) (physics.Hit, bool) {
	ctx, span := s.tracer.Start(ctx, "sim.Place", trace.WithAttributes(attribute.Int("id", int(id))))
	defer span.End()

	s.mu.Lock()
	hit, ok := s.player.Place(s.world, id)
	if ok {
		p := hit.Place
		s.queue(eventbus.BlockEdited, eventbus.BlockEdit{X: p.X, Y: p.Y, Z: p.Z, Old: uint8(block.AirBlockID), New: uint8(id), Op: "place"})
	}
	s.mu.Unlock()
	s.flush(ctx)

	span.SetAttributes(attribute.Bool("placed", ok))
	if ok {
		s.log.Debug("Блок %s поставлен в %s", block.Name(id), hit.Place)
	}
	return hit, ok
}

// Remove убирает блок под прицелом игрока
func (s *Session) Remove(ctx context.Context) (physics.Hit, bool) {
	ctx, span := s.tracer.Start(ctx, "sim.Remove")
	defer span.End()

	s.mu.Lock()
	hit, ok := s.player.Remove(s.world)
	if ok {
		b := hit.Block
		s.queue(eventbus.BlockEdited, eventbus.BlockEdit{X: b.X, Y: b.Y, Z: b.Z, Old: uint8(hit.ID), New: uint8(block.AirBlockID), Op: "remove"})
	}
	s.mu.Unlock()
	s.flush(ctx)

	span.SetAttributes(attribute.Bool("removed", ok))
	if ok {
		s.log.Debug("Блок %s убран из %s", block.Name(hit.ID), hit.Block)
	}
	return hit, ok
}

// Teleport переносит игрока
func (s *Session) Teleport(pos mgl64.Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player.Teleport(pos)
}

// ChunkInfo краткие сведения о чанке
type ChunkInfo struct {
	X      int  `json:"x"`
	Z      int  `json:"z"`
	Solid  int  `json:"solid"`
	Dirty  bool `json:"dirty"`
	Height int  `json:"height"`
}

// Chunks возвращает сведения о всех созданных чанках
func (s *Session) Chunks() []ChunkInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	coords := s.world.ChunkCoords()
	out := make([]ChunkInfo, 0, len(coords))
	for _, cc := range coords {
		c, _ := s.world.Chunk(cc)
		out = append(out, ChunkInfo{
			X:      cc.X,
			Z:      cc.Z,
			Solid:  c.SolidCount(),
			Dirty:  c.IsDirty(),
			Height: c.Height(),
		})
	}
	return out
}

// VisibleCells возвращает копию видимых ячеек чанка
func (s *Session) VisibleCells(cc world.ChunkCoord) ([]world.VisibleCell, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cells, ok := s.world.VisibleCells(cc)
	if !ok {
		return nil, false
	}
	out := make([]world.VisibleCell, len(cells))
	copy(out, cells)
	return out, true
}

// WorldHeight возвращает высоту мира
func (s *Session) WorldHeight() int {
	return s.world.Height()
}
