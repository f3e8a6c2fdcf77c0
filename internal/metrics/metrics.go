// Package metrics объявляет Prometheus-метрики движка мира.
// Метрики регистрируются в дефолтном регистре один раз при загрузке пакета.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "voxel"

var (
	// ChunksGenerated общее число сгенерированных чанков
	ChunksGenerated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "world",
		Name:      "chunks_generated_total",
		Help:      "Общее число сгенерированных чанков.",
	})

	// ChunksLoaded текущее число чанков в мире
	ChunksLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "world",
		Name:      "chunks_loaded",
		Help:      "Количество чанков, находящихся в памяти.",
	})

	// BlockEdits изменения блоков через SetBlock, по типу операции
	BlockEdits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "world",
		Name:      "block_edits_total",
		Help:      "Изменения блоков (place/remove/ignored).",
	}, []string{"op"})

	// VisibleRebuilds перестроения кэша видимых ячеек
	VisibleRebuilds = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "world",
		Name:      "visible_rebuilds_total",
		Help:      "Число перестроений кэша видимых ячеек чанков.",
	})

	// VisibleRebuildDuration длительность перестроения кэша видимых ячеек
	VisibleRebuildDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "world",
		Name:      "visible_rebuild_duration_seconds",
		Help:      "Длительность перестроения кэша видимых ячеек одного чанка.",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
	})

	// Raycasts лучи, по результату (hit/miss/degenerate)
	Raycasts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "physics",
		Name:      "raycasts_total",
		Help:      "Число трассировок луча по результату.",
	}, []string{"result"})

	// TickDuration длительность одного тика симуляции
	TickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "sim",
		Name:      "tick_duration_seconds",
		Help:      "Длительность одного тика симуляции.",
		Buckets:   []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.016, 0.033},
	})

	// Ticks общее число тиков симуляции
	Ticks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sim",
		Name:      "ticks_total",
		Help:      "Общее число выполненных тиков симуляции.",
	})

	// EventsPublished события, отданные в шину, по типу
	EventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "eventbus",
		Name:      "messages_published_total",
		Help:      "Общее число опубликованных сообщений.",
	}, []string{"type"})

	// EventsConsumed события, доставленные подписчикам
	EventsConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "eventbus",
		Name:      "messages_consumed_total",
		Help:      "Общее число доставленных сообщений подписчикам.",
	})

	// EventsDropped события, отброшенные из-за переполнения или ошибок
	EventsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "eventbus",
		Name:      "messages_dropped_total",
		Help:      "Сообщений, отброшенных из-за ошибок или переполнения буфера.",
	})
)

func init() {
	prometheus.MustRegister(
		ChunksGenerated,
		ChunksLoaded,
		BlockEdits,
		VisibleRebuilds,
		VisibleRebuildDuration,
		Raycasts,
		TickDuration,
		Ticks,
		EventsPublished,
		EventsConsumed,
		EventsDropped,
	)
}
