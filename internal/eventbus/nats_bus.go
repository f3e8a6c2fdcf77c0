package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	nats "github.com/nats-io/nats.go"

	"github.com/annel0/voxel-engine/internal/metrics"
)

// DefaultSubjectPrefix префикс subject'ов событий мира
const DefaultSubjectPrefix = "voxel.events"

// NATSBus реализует EventBus поверх core NATS: события уходят в subject <prefix>.<type>.
type NATSBus struct {
	nc        *nats.Conn
	prefix    string
	published uint64
	consumed  uint64
	dropped   uint64
}

// NewNATSBus подключается к NATS. url: nats://127.0.0.1:4222.
func NewNATSBus(url, prefix string) (*NATSBus, error) {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}

	nc, err := nats.Connect(url, nats.Name("voxel-engine"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &NATSBus{nc: nc, prefix: prefix}, nil
}

func (nb *NATSBus) subject(eventType string) string {
	return fmt.Sprintf("%s.%s", nb.prefix, eventType)
}

// Publish сериализует Envelope в JSON и публикует в subject <prefix>.<type>.
func (nb *NATSBus) Publish(ctx context.Context, ev *Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := nb.nc.Publish(nb.subject(ev.EventType), data); err != nil {
		atomic.AddUint64(&nb.dropped, 1)
		metrics.EventsDropped.Inc()
		return fmt.Errorf("nats publish: %w", err)
	}
	atomic.AddUint64(&nb.published, 1)
	metrics.EventsPublished.WithLabelValues(ev.EventType).Inc()
	return nil
}

// Subscribe подписывается на subject типа (или на все типы) и вызывает handler из горутины NATS.
func (nb *NATSBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	subj := nb.subject("*")
	if len(f.Types) == 1 {
		subj = nb.subject(f.Types[0])
	}

	natSub, err := nb.nc.Subscribe(subj, func(msg *nats.Msg) {
		var ev Envelope
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			atomic.AddUint64(&nb.dropped, 1)
			metrics.EventsDropped.Inc()
			return
		}
		if !matchFilter(&ev, f) || ctx.Err() != nil {
			return
		}
		h(ctx, &ev)
		atomic.AddUint64(&nb.consumed, 1)
		metrics.EventsConsumed.Inc()
	})
	if err != nil {
		return nil, fmt.Errorf("nats subscribe %s: %w", subj, err)
	}

	return &natsSub{natSub}, nil
}

// natsSub обёртка вокруг *nats.Subscription
type natsSub struct {
	s *nats.Subscription
}

func (n *natsSub) Unsubscribe() {
	_ = n.s.Unsubscribe()
}

// Metrics возвращает текущие счётчики.
func (nb *NATSBus) Metrics() Stats {
	return Stats{
		Published: atomic.LoadUint64(&nb.published),
		Consumed:  atomic.LoadUint64(&nb.consumed),
		Dropped:   atomic.LoadUint64(&nb.dropped),
	}
}

// Close дожидается отправки буфера и закрывает соединение.
func (nb *NATSBus) Close() error {
	return nb.nc.Drain()
}
