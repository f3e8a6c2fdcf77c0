package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/annel0/voxel-engine/internal/api"
	"github.com/annel0/voxel-engine/internal/config"
	"github.com/annel0/voxel-engine/internal/eventbus"
	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/observability"
	"github.com/annel0/voxel-engine/internal/sim"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию $GAME_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	logOpts, err := cfg.Logging.LoggingOptions()
	if err != nil {
		log.Fatalf("❌ Ошибка настроек логирования: %v", err)
	}
	if err := logging.InitDefaultLogger("server", logOpts); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	logging.GetLoggerManager().Configure(logOpts)
	defer logging.GetLoggerManager().CloseAll()

	logging.Info("🎮 Запуск воксельного мира: seed=%d, генератор=%s, высота=%d",
		cfg.World.Seed, cfg.World.Generator, cfg.World.Height)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled)
	if err != nil {
		logging.Error("❌ Ошибка инициализации OpenTelemetry: %v", err)
		os.Exit(1)
	}

	bus, err := cfg.Events.NewBus()
	if err != nil {
		logging.Error("❌ Ошибка подключения к шине событий: %v", err)
		os.Exit(1)
	}
	if bus != nil {
		if _, err := eventbus.StartLoggingListener(ctx, bus, logging.GetComponentLogger("events")); err != nil {
			logging.Warn("Подписка логгера на события не удалась: %v", err)
		}
	}

	session := sim.NewSession(sim.Options{
		Height:      cfg.World.Height,
		Generator:   cfg.World.NewGenerator(),
		SpawnRadius: cfg.World.SpawnRadius,
		Player:      cfg.Player,
		TickRate:    cfg.Server.TickRate,
		Events:      bus,
	})
	session.Start(ctx)

	restPort := fmt.Sprintf(":%d", cfg.Server.GetRESTPort())
	server := api.NewRestServer(api.Config{
		Port:        restPort,
		Session:     session,
		ServiceName: cfg.Telemetry.ServiceName,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logging.Info("✅ Мир запущен")
	logging.Info("   🌐 REST API: http://localhost%s", restPort)
	logging.Info("   ❤️  Health check: http://localhost%s/health", restPort)
	logging.Info("   📈 Метрики: http://localhost%s/metrics", restPort)

	select {
	case <-ctx.Done():
		logging.Info("📡 Получен сигнал завершения, останавливаемся...")
	case err := <-errCh:
		if err != nil {
			logging.Error("❌ REST API остановлен с ошибкой: %v", err)
		}
		stop()
	}

	// === GRACEFUL SHUTDOWN ===
	if err := server.Stop(context.Background()); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}
	session.Wait()

	if bus != nil {
		if err := bus.Close(); err != nil {
			logging.Error("❌ Ошибка закрытия шины событий: %v", err)
		}
	}
	if err := shutdownTelemetry(context.Background()); err != nil {
		logging.Error("❌ Ошибка остановки OpenTelemetry: %v", err)
	}

	logging.Info("👋 Сервер успешно остановлен")
}
