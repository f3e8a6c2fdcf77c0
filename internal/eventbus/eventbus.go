package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/annel0/voxel-engine/internal/metrics"
)

// Типы событий мира
const (
	BlockEdited  = "BlockEdited"
	ChunkCreated = "ChunkCreated"
)

// ErrClosed возвращается при публикации в закрытую шину
var ErrClosed = errors.New("eventbus: шина закрыта")

// Envelope универсальный контейнер события.
type Envelope struct {
	ID        string          `json:"id"`        // UUID события
	Timestamp time.Time       `json:"timestamp"` // Время создания (UTC)
	Source    string          `json:"source"`    // Идентификатор сессии-источника
	EventType string          `json:"type"`
	Priority  int             `json:"priority"` // 0=Low … 9=Critical
	Payload   json.RawMessage `json:"payload"`
}

// BlockEdit полезная нагрузка BlockEdited
type BlockEdit struct {
	X   int    `json:"x"`
	Y   int    `json:"y"`
	Z   int    `json:"z"`
	Old uint8  `json:"old"`
	New uint8  `json:"new"`
	Op  string `json:"op"` // place | remove | set
}

// ChunkInfo полезная нагрузка ChunkCreated
type ChunkInfo struct {
	X     int `json:"x"`
	Z     int `json:"z"`
	Solid int `json:"solid"`
}

// NewEnvelope собирает событие с JSON-нагрузкой
func NewEnvelope(source, eventType string, payload interface{}) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", eventType, err)
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: eventType,
		Payload:   data,
	}, nil
}

// Filter позволяет подписаться только на нужные события.
type Filter struct {
	Types   []string // Если пусто: все типы.
	Sources []string // Если пусто: все источники.
}

// Subscription возвращается при подписке; позволяет отписаться.
type Subscription interface {
	Unsubscribe()
}

// Handler потребляет события.
type Handler func(ctx context.Context, ev *Envelope)

// Stats агрегированные счётчики шины.
type Stats struct {
	Published uint64
	Consumed  uint64
	Dropped   uint64
	InFlight  int
}

// EventBus абстракция шины событий мира.
type EventBus interface {
	Publish(ctx context.Context, ev *Envelope) error
	Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error)
	Metrics() Stats
	Close() error
}

//================ In-Memory implementation =================//

type memoryBus struct {
	mu     sync.RWMutex // защищает buffer/closed
	buffer chan *Envelope
	closed bool
	done   chan struct{}

	subMu       sync.RWMutex
	subscribers map[int]subscriber
	nextID      int

	statMu sync.Mutex
	stats  Stats
}

type subscriber struct {
	filter  Filter
	handler Handler
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewMemoryBus создаёт in-memory шину с указанным буфером.
func NewMemoryBus(capacity int) EventBus {
	if capacity <= 0 {
		capacity = 1
	}
	mb := &memoryBus{
		subscribers: make(map[int]subscriber),
		buffer:      make(chan *Envelope, capacity),
		done:        make(chan struct{}),
	}
	go mb.dispatchLoop()
	return mb
}

func (mb *memoryBus) Publish(ctx context.Context, ev *Envelope) error {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	if mb.closed {
		return ErrClosed
	}

	select {
	case mb.buffer <- ev:
		mb.countPublished(ev)
		return nil
	default:
	}

	// Буфер заполнен: низкий приоритет (<5) отбрасываем
	if ev.Priority < 5 {
		mb.countDropped()
		return nil
	}
	select {
	case mb.buffer <- ev:
		mb.countPublished(ev)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (mb *memoryBus) countPublished(ev *Envelope) {
	mb.statMu.Lock()
	mb.stats.Published++
	mb.statMu.Unlock()
	metrics.EventsPublished.WithLabelValues(ev.EventType).Inc()
}

func (mb *memoryBus) countDropped() {
	mb.statMu.Lock()
	mb.stats.Dropped++
	mb.statMu.Unlock()
	metrics.EventsDropped.Inc()
}

func (mb *memoryBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	mb.mu.RLock()
	closed := mb.closed
	mb.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}

	mb.subMu.Lock()
	defer mb.subMu.Unlock()
	id := mb.nextID
	mb.nextID++
	cctx, cancel := context.WithCancel(ctx)
	mb.subscribers[id] = subscriber{filter: f, handler: h, ctx: cctx, cancel: cancel}

	return &memSub{bus: mb, id: id}, nil
}

func (mb *memoryBus) Metrics() Stats {
	mb.statMu.Lock()
	s := mb.stats
	mb.statMu.Unlock()
	s.InFlight = len(mb.buffer)
	return s
}

// Close прекращает приём событий и дожидается доставки уже принятых.
func (mb *memoryBus) Close() error {
	mb.mu.Lock()
	if mb.closed {
		mb.mu.Unlock()
		return nil
	}
	mb.closed = true
	close(mb.buffer)
	mb.mu.Unlock()

	<-mb.done
	return nil
}

// dispatchLoop рассылает события подписчикам в порядке публикации.
func (mb *memoryBus) dispatchLoop() {
	defer close(mb.done)
	for ev := range mb.buffer {
		mb.subMu.RLock()
		subs := make([]subscriber, 0, len(mb.subscribers))
		for _, sub := range mb.subscribers {
			subs = append(subs, sub)
		}
		mb.subMu.RUnlock()

		for _, sub := range subs {
			if !matchFilter(ev, sub.filter) || sub.ctx.Err() != nil {
				continue
			}
			sub.handler(sub.ctx, ev)
			mb.statMu.Lock()
			mb.stats.Consumed++
			mb.statMu.Unlock()
			metrics.EventsConsumed.Inc()
		}
	}
}

func matchFilter(ev *Envelope, f Filter) bool {
	match := func(val string, arr []string) bool {
		if len(arr) == 0 {
			return true
		}
		for _, v := range arr {
			if v == val {
				return true
			}
		}
		return false
	}
	return match(ev.EventType, f.Types) && match(ev.Source, f.Sources)
}

type memSub struct {
	bus *memoryBus
	id  int
}

func (s *memSub) Unsubscribe() {
	s.bus.subMu.Lock()
	if sub, ok := s.bus.subscribers[s.id]; ok {
		sub.cancel()
		delete(s.bus.subscribers, s.id)
	}
	s.bus.subMu.Unlock()
}
