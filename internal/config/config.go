package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/annel0/voxel-engine/internal/eventbus"
	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/noise"
	"github.com/annel0/voxel-engine/internal/player"
	"github.com/annel0/voxel-engine/internal/world"
)

// Виды генератора
const (
	GeneratorNoise = "noise"
	GeneratorFlat  = "flat"
)

// Источники детального шума
const (
	DetailValue  = "value"
	DetailPerlin = "perlin"
)

// Config корневая структура конфигурации приложения
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Player    player.Config   `yaml:"player"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
	Events    EventsConfig    `yaml:"events"`
}

type WorldConfig struct {
	Seed         int64               `yaml:"seed"`
	Height       int                 `yaml:"height"`
	SpawnRadius  int                 `yaml:"spawn_radius"`
	Generator    string              `yaml:"generator"`
	FlatLevel    int                 `yaml:"flat_level"`
	DetailSource string              `yaml:"detail_source"`
	Terrain      world.TerrainParams `yaml:"terrain"`
}

type ServerConfig struct {
	RESTPort int `yaml:"rest_port"`
	TickRate int `yaml:"tick_rate"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

type LoggingConfig struct {
	ConsoleLevel string `yaml:"console_level"`
	FileLevel    string `yaml:"file_level"`
	Dir          string `yaml:"dir"` // Пусто: без файлов
}

// EventsConfig настройки шины событий мира
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	NATSURL string `yaml:"nats_url"` // Пусто: in-memory шина
	Subject string `yaml:"subject"`  // Префикс subject'ов NATS
	Buffer  int    `yaml:"buffer"`   // Ёмкость in-memory шины
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		World: WorldConfig{
			Seed:         1337,
			Height:       world.DefaultHeight,
			SpawnRadius:  1,
			Generator:    GeneratorNoise,
			FlatLevel:    5,
			DetailSource: DetailValue,
			Terrain:      world.DefaultTerrainParams(),
		},
		Player: player.DefaultConfig(),
		Server: ServerConfig{
			TickRate: 60,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "voxel-engine",
		},
		Logging: LoggingConfig{
			ConsoleLevel: "info",
			FileLevel:    "debug",
		},
		Events: EventsConfig{
			Subject: eventbus.DefaultSubjectPrefix,
			Buffer:  1024,
		},
	}
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "GAME_REST_PORT", 8088)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", используется ENV GAME_CONFIG; если и он пуст: только дефолты.
// ENV GAME_SEED переопределяет сид мира.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("GAME_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if url := os.Getenv("GAME_NATS_URL"); url != "" {
		cfg.Events.Enabled = true
		cfg.Events.NATSURL = url
	}

	if envSeed := os.Getenv("GAME_SEED"); envSeed != "" {
		seed, err := strconv.ParseInt(envSeed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("GAME_SEED: %w", err)
		}
		cfg.World.Seed = seed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	var errs []error

	if c.World.Height < 4 {
		errs = append(errs, fmt.Errorf("world.height must be >= 4, got %d", c.World.Height))
	}
	if c.World.SpawnRadius < 0 {
		errs = append(errs, fmt.Errorf("world.spawn_radius must be >= 0, got %d", c.World.SpawnRadius))
	}
	switch c.World.Generator {
	case GeneratorNoise, GeneratorFlat:
	default:
		errs = append(errs, fmt.Errorf("world.generator: unknown %q", c.World.Generator))
	}
	switch c.World.DetailSource {
	case DetailValue, DetailPerlin:
	default:
		errs = append(errs, fmt.Errorf("world.detail_source: unknown %q", c.World.DetailSource))
	}

	p := c.Player
	if p.HalfWidth <= 0 || p.HalfWidth >= 0.5 {
		errs = append(errs, fmt.Errorf("player.half_width must be in (0, 0.5), got %v", p.HalfWidth))
	}
	if p.Height <= 0 || p.EyeHeight <= 0 || p.EyeHeight > p.Height {
		errs = append(errs, fmt.Errorf("player: eye_height %v must be in (0, height %v]", p.EyeHeight, p.Height))
	}
	if p.TerminalVelocity < 0 {
		errs = append(errs, fmt.Errorf("player.terminal_velocity must be >= 0, got %v", p.TerminalVelocity))
	}

	if c.Server.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("server.tick_rate must be > 0, got %d", c.Server.TickRate))
	}

	if c.Events.Enabled && c.Events.NATSURL == "" && c.Events.Buffer <= 0 {
		errs = append(errs, fmt.Errorf("events.buffer must be > 0, got %d", c.Events.Buffer))
	}

	for _, lvl := range []string{c.Logging.ConsoleLevel, c.Logging.FileLevel} {
		if _, err := logging.ParseLevel(lvl); err != nil {
			errs = append(errs, fmt.Errorf("logging: %w", err))
		}
	}

	return errors.Join(errs...)
}

// NewGenerator создаёт генератор мира по настройкам
func (w WorldConfig) NewGenerator() world.Generator {
	if w.Generator == GeneratorFlat {
		return world.FlatGenerator{Level: w.FlatLevel}
	}

	var detail noise.Source
	if w.DetailSource == DetailPerlin {
		detail = noise.NewPerlin(w.Seed, w.Terrain.DetailOctaves.Count)
	}
	return world.NewNoiseGenerator(w.Seed, w.Terrain, detail)
}

// NewBus создаёт шину событий: NATS, если задан адрес, иначе in-memory.
// Выключенная шина: nil без ошибки.
func (e EventsConfig) NewBus() (eventbus.EventBus, error) {
	if !e.Enabled {
		return nil, nil
	}
	if e.NATSURL != "" {
		bus, err := eventbus.NewNATSBus(e.NATSURL, e.Subject)
		if err != nil {
			return nil, fmt.Errorf("events: %w", err)
		}
		return bus, nil
	}
	return eventbus.NewMemoryBus(e.Buffer), nil
}

// LoggingOptions переводит настройки в параметры логгеров
func (l LoggingConfig) LoggingOptions() (logging.Options, error) {
	console, err := logging.ParseLevel(l.ConsoleLevel)
	if err != nil {
		return logging.Options{}, err
	}
	file, err := logging.ParseLevel(l.FileLevel)
	if err != nil {
		return logging.Options{}, err
	}
	return logging.Options{
		Dir:          l.Dir,
		Console:      os.Stdout,
		ConsoleLevel: console,
		FileLevel:    file,
	}, nil
}
