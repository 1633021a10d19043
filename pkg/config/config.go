package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"TapeLens/internal/domain/models"
)

// Config is the full application configuration, loaded from YAML with
// environment overrides.
type Config struct {
	Environment string `yaml:"environment" default:"dev" validate:"required"`

	Server struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`

	Ingest struct {
		Source     string `yaml:"source" default:"kafka" validate:"oneof=kafka websocket"`
		Shards     int    `yaml:"shards" default:"4"`
		MaxTPS     int    `yaml:"max_tps" default:"50"` // per-instrument throttle
		BufferSize int    `yaml:"buffer_size" default:"1024"`
	} `yaml:"ingest"`

	Kafka struct {
		Brokers    []string      `yaml:"brokers"`
		Topic      string        `yaml:"topic" default:"market.ticks"`
		GroupID    string        `yaml:"group_id" default:"tapelens"`
		Workers    int           `yaml:"workers" default:"2"`
		MinBytes   int           `yaml:"min_bytes" default:"10000"`
		MaxBytes   int           `yaml:"max_bytes" default:"10000000"`
		RetryMax   int           `yaml:"retry_max" default:"3"`
		BackoffMin time.Duration `yaml:"backoff_min" default:"50ms"`
		BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
	} `yaml:"kafka"`

	Stream struct {
		URL            string        `yaml:"url"`
		APIKey         string        `yaml:"api_key"`
		Instruments    []string      `yaml:"instruments"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"3s"`
		PingInterval   time.Duration `yaml:"ping_interval" default:"20s"`
	} `yaml:"stream"`

	ClickHouse struct {
		Enabled      bool          `yaml:"enabled"`
		Host         string        `yaml:"host" default:"localhost"`
		Port         int           `yaml:"port" default:"9000"`
		Database     string        `yaml:"database" default:"tapelens"`
		User         string        `yaml:"user" default:"default"`
		Password     string        `yaml:"password"`
		DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"clickhouse"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Notify struct {
		Workers       int    `yaml:"workers" default:"2"`
		TelegramToken string `yaml:"telegram_token"`
		TelegramChat  int64  `yaml:"telegram_chat"`
		WebhookURL    string `yaml:"webhook_url"`
	} `yaml:"notify"`

	Analysis AnalysisConfig `yaml:"analysis"`
}

// AnalysisConfig carries the thresholds and the weighted rule set handed to
// the pipeline through the settings provider.
type AnalysisConfig struct {
	VolumeHistoryLength   int           `yaml:"volume_history_length" default:"20"`
	VolumeBurstMultiplier float64       `yaml:"volume_burst_multiplier" default:"2.0"`
	BandMultiplier        float64       `yaml:"band_multiplier" default:"2.0"`
	IVHistoryLength       int           `yaml:"iv_history_length" default:"90"`
	IVSpikeThreshold      float64       `yaml:"iv_spike_threshold" default:"80"`
	EMAFastPeriod         int           `yaml:"ema_fast_period" default:"9"`
	EMASlowPeriod         int           `yaml:"ema_slow_period" default:"21"`
	RSIPeriod             int           `yaml:"rsi_period" default:"14"`
	ATRPeriod             int           `yaml:"atr_period" default:"14"`
	TickSize              float64       `yaml:"tick_size" default:"0.05"`
	IBDuration            time.Duration `yaml:"ib_duration" default:"1h"`
	CandleInterval        time.Duration `yaml:"candle_interval" default:"1m"`
	CandleHistoryLength   int           `yaml:"candle_history_length" default:"120"`
	SessionStart          string        `yaml:"session_start" default:"09:15"`
	SessionEnd            string        `yaml:"session_end" default:"15:30"`
	OpeningWindow         time.Duration `yaml:"opening_window" default:"30m"`
	ClosingWindow         time.Duration `yaml:"closing_window" default:"30m"`
	DebounceWindow        time.Duration `yaml:"debounce_window" default:"60s"`
	SqueezeThreshold      float64       `yaml:"squeeze_threshold" default:"0.005"`

	Drivers []models.SignalDriver `yaml:"drivers"`
}

// Load reads and parses a YAML configuration file, applying defaults and
// validating required fields.
func Load(path string) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("INGEST_SOURCE"); v != "" {
		c.Ingest.Source = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("STREAM_API_KEY"); v != "" {
		c.Stream.APIKey = v
	}
	if v := os.Getenv("INSTRUMENTS"); v != "" {
		c.Stream.Instruments = strings.Split(v, ",")
	}
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		c.Notify.TelegramToken = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}

	return c, nil
}

// Validate checks structural constraints and the ingest wiring.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	switch c.Ingest.Source {
	case "kafka":
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers required for kafka ingest")
		}
	case "websocket":
		if c.Stream.URL == "" {
			return fmt.Errorf("stream.url required for websocket ingest")
		}
		if len(c.Stream.Instruments) == 0 {
			return fmt.Errorf("stream.instruments cannot be empty")
		}
	}
	return nil
}
