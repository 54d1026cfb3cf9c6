package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ErrInvalidConfig возвращается при некорректной конфигурации
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Поддерживаемые транспорты push-канала
const (
	TransportWebsocket = "websocket"
	TransportKafka     = "kafka"
)

// Переменные окружения, переопределяющие файл
const (
	EnvUserID        = "SYNC_USER_ID"
	EnvBookingAPIURL = "BOOKING_API_URL"
	EnvRealtimeURL   = "REALTIME_URL"
)

// Config конфигурация сервиса синхронизации
type Config struct {
	Logs       LogsConfig       `toml:"logs"`
	Server     ServerConfig     `toml:"server"`
	Metrics    MetricsConfig    `toml:"metrics"`
	BookingAPI BookingAPIConfig `toml:"booking_api"`
	Realtime   RealtimeConfig   `toml:"realtime"`
	Sync       SyncConfig       `toml:"sync"`
}

type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// ServerConfig настройки HTTP сервера, таймауты в секундах
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	ServiceName string `toml:"service_name"`
	Path        string `toml:"path"`
}

// BookingAPIConfig бэкенд полной загрузки, таймаут в секундах
type BookingAPIConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"`
}

type RealtimeConfig struct {
	// Transport websocket или kafka
	Transport string `toml:"transport"`
	// ConnectTimeout таймаут подключения и join в секундах
	ConnectTimeout int             `toml:"connect_timeout"`
	Websocket      WebsocketConfig `toml:"websocket"`
	Kafka          KafkaConfig     `toml:"kafka"`
}

type WebsocketConfig struct {
	URL               string `toml:"url"`
	HandshakeTimeout  int    `toml:"handshake_timeout"`
	WriteTimeout      int    `toml:"write_timeout"`
	ReconnectAttempts int    `toml:"reconnect_attempts"`
	BackoffMinMs      int    `toml:"backoff_min_ms"`
	BackoffMaxMs      int    `toml:"backoff_max_ms"`
}

type KafkaConfig struct {
	Brokers          []string `toml:"brokers"`
	Topic            string   `toml:"topic"`
	GroupID          string   `toml:"group_id"`
	JoinTopic        string   `toml:"join_topic"`
	CommitIntervalMs int      `toml:"commit_interval_ms"`
}

type SyncConfig struct {
	// UserID пользователь, список которого синхронизирует процесс
	UserID string `toml:"user_id"`
	// GateOnUpdatedAt отбрасывать обновления со старым updatedAt
	GateOnUpdatedAt bool `toml:"gate_on_updated_at"`
	// ElapsedRefreshSeconds период пересчета минут поиска, 0 - выключено
	ElapsedRefreshSeconds int `toml:"elapsed_refresh_seconds"`
	// RefreshInterval период полной загрузки в секундах, 0 - только по запросу
	RefreshInterval int `toml:"refresh_interval"`
}

// Load читает конфигурацию из TOML файла, применяет значения по умолчанию
// и переопределения из окружения, затем проверяет результат
func Load(path string) (*Config, error) {
	cfg := defaults()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Logs: LogsConfig{
			Level: "info",
		},
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     10,
			WriteTimeout:    10,
			IdleTimeout:     60,
			ShutdownTimeout: 10,
		},
		Metrics: MetricsConfig{
			ServiceName: "booking_sync",
			Path:        "/metrics",
		},
		BookingAPI: BookingAPIConfig{
			Timeout: 10,
		},
		Realtime: RealtimeConfig{
			Transport:      TransportWebsocket,
			ConnectTimeout: 10,
			Websocket: WebsocketConfig{
				HandshakeTimeout:  10,
				WriteTimeout:      5,
				ReconnectAttempts: 5,
				BackoffMinMs:      500,
				BackoffMaxMs:      30000,
			},
			Kafka: KafkaConfig{
				GroupID:          "booking-sync",
				CommitIntervalMs: 1000,
			},
		},
	}
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvUserID); ok && v != "" {
		c.Sync.UserID = v
	}
	if v, ok := lookup(EnvBookingAPIURL); ok && v != "" {
		c.BookingAPI.URL = v
	}
	if v, ok := lookup(EnvRealtimeURL); ok && v != "" {
		c.Realtime.Websocket.URL = v
	}
}

// Validate проверяет обязательные поля и диапазоны
func (c *Config) Validate() error {
	var problems []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		problems = append(problems, fmt.Sprintf("server.http_port %d out of range", c.Server.HTTPPort))
	}
	if c.BookingAPI.URL == "" {
		problems = append(problems, "booking_api.url is required")
	}
	if c.BookingAPI.Timeout <= 0 {
		problems = append(problems, "booking_api.timeout must be positive")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		problems = append(problems, fmt.Sprintf("metrics.path %q must start with /", c.Metrics.Path))
	}

	switch c.Realtime.Transport {
	case TransportWebsocket:
		if c.Realtime.Websocket.URL == "" {
			problems = append(problems, "realtime.websocket.url is required")
		}
		if c.Realtime.Websocket.ReconnectAttempts < 0 {
			problems = append(problems, "realtime.websocket.reconnect_attempts must not be negative")
		}
	case TransportKafka:
		if len(c.Realtime.Kafka.Brokers) == 0 {
			problems = append(problems, "realtime.kafka.brokers is required")
		}
		if c.Realtime.Kafka.Topic == "" {
			problems = append(problems, "realtime.kafka.topic is required")
		}
	default:
		problems = append(problems, fmt.Sprintf("realtime.transport %q is not supported", c.Realtime.Transport))
	}

	if c.Sync.ElapsedRefreshSeconds < 0 {
		problems = append(problems, "sync.elapsed_refresh_seconds must not be negative")
	}
	if c.Sync.RefreshInterval < 0 {
		problems = append(problems, "sync.refresh_interval must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Duration переводит секунды из конфига в time.Duration
func Duration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

// Millis переводит миллисекунды из конфига в time.Duration
func Millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
