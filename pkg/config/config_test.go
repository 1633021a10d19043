package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
environment: dev
kafka:
  brokers: ["localhost:9092"]
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Server.Port != 8080 {
		t.Fatalf("port = %d, want default 8080", c.Server.Port)
	}
	if c.Ingest.Source != "kafka" {
		t.Fatalf("source = %q, want kafka", c.Ingest.Source)
	}
	if c.Analysis.DebounceWindow != 60*time.Second {
		t.Fatalf("debounce = %v, want 60s", c.Analysis.DebounceWindow)
	}
	if c.Analysis.TickSize != 0.05 {
		t.Fatalf("tick size = %v", c.Analysis.TickSize)
	}
}

func TestLoadKafkaRequiresBrokers(t *testing.T) {
	path := writeConfig(t, `
environment: dev
ingest:
  source: kafka
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected broker validation error")
	}
}

func TestLoadWebsocketRequiresURL(t *testing.T) {
	path := writeConfig(t, `
environment: dev
ingest:
  source: websocket
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected stream url validation error")
	}
}

func TestLoadRejectsUnknownSource(t *testing.T) {
	path := writeConfig(t, `
environment: dev
ingest:
  source: carrier-pigeon
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected oneof validation error")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
environment: dev
kafka:
  brokers: ["localhost:9092"]
`)
	t.Setenv("KAFKA_TOPIC", "override.ticks")
	t.Setenv("REDIS_ADDR", "redis:6379")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Kafka.Topic != "override.ticks" {
		t.Fatalf("topic = %q", c.Kafka.Topic)
	}
	if c.Redis.Addr != "redis:6379" {
		t.Fatalf("redis addr = %q", c.Redis.Addr)
	}
}

func TestLoadDrivers(t *testing.T) {
	path := writeConfig(t, `
environment: dev
kafka:
  brokers: ["localhost:9092"]
analysis:
  drivers:
    - name: price_above_vwap
      weight: 2
      group: structure
      enabled: true
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Analysis.Drivers) != 1 {
		t.Fatalf("drivers = %+v", c.Analysis.Drivers)
	}
	d := c.Analysis.Drivers[0]
	if d.Name != "price_above_vwap" || d.Weight != 2 || !d.Enabled {
		t.Fatalf("driver = %+v", d)
	}
}
