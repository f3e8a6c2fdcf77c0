package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/middleware"
	"github.com/annel0/voxel-engine/internal/sim"
)

// RestServer представляет REST API для просмотра и редактирования мира
type RestServer struct {
	router  *gin.Engine
	handler http.Handler // router за gzip-обёрткой
	session *sim.Session
	port    string
	maxRay  float64
	metrics *ServerMetrics
	log     *logging.Logger

	httpServer *http.Server
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port        string       // порт для запуска сервера, например ":8088"
	Session     *sim.Session // сессия мира
	ServiceName string       // имя сервиса для трассировки

	MaxRayDistance float64 // предел max_distance в /api/raycast; 0: sim.MaxRayDistance

	// Регистр для HTTP-метрик; nil: дефолтный
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8088"
	}
	if config.ServiceName == "" {
		config.ServiceName = "voxel-engine"
	}
	if config.MaxRayDistance <= 0 || config.MaxRayDistance > sim.MaxRayDistance {
		config.MaxRayDistance = sim.MaxRayDistance
	}
	if config.Registerer == nil {
		config.Registerer = prometheus.DefaultRegisterer
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	log := logging.GetComponentLogger("api")

	// === Observability middleware ===
	router.Use(otelgin.Middleware(config.ServiceName))
	router.Use(middleware.NewRequestLogger(log).Handler())

	promMw := middleware.NewPrometheusMiddleware("voxel_api", config.Registerer)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, config.Gatherer)

	server := &RestServer{
		router:  router,
		session: config.Session,
		port:    config.Port,
		maxRay:  config.MaxRayDistance,
		metrics: NewServerMetrics(),
		log:     log,
	}
	// Списки видимых ячеек большие: отдаём их сжатыми, если клиент согласен
	server.handler = gzhttp.GzipHandler(router)
	server.httpServer = &http.Server{
		Addr:              config.Port,
		Handler:           server.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	server.setupRoutes()

	return server
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	api := rs.router.Group("/api")
	{
		api.GET("/stats", rs.handleStats)

		api.GET("/block", rs.handleGetBlock)
		api.PUT("/block", rs.handleSetBlock)

		api.GET("/chunks", rs.handleChunks)
		api.GET("/chunks/:cx/:cz/visible", rs.handleVisible)

		api.POST("/raycast", rs.handleRaycast)
	}

	player := api.Group("/player")
	{
		player.GET("", rs.handlePlayer)
		player.POST("/input", rs.handleInput)
		player.POST("/place", rs.handlePlace)
		player.POST("/remove", rs.handleRemove)
	}

	rs.router.GET("/health", rs.handleHealth)
}

// Handler возвращает http.Handler сервера (для тестов и встраивания)
func (rs *RestServer) Handler() http.Handler {
	return rs.handler
}

// Start запускает REST сервер и блокируется до остановки
func (rs *RestServer) Start() error {
	rs.log.Info("🌐 REST API слушает %s", rs.port)

	if err := rs.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("rest server: %w", err)
	}
	return nil
}

// Stop корректно останавливает REST сервер
func (rs *RestServer) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return rs.httpServer.Shutdown(ctx)
}
