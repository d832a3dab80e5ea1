package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/variants")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("VARIANT_WORKERS", "3")
	t.Setenv("VARIANT_STRICT_MULTI_CORRECT", "true")
	t.Setenv("BUNDLE_CACHE_TTL", "5m")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.LogLevel)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "kafka-2:9092" {
		t.Errorf("unexpected brokers: %v", cfg.Kafka.Brokers)
	}
	if cfg.Variant.Workers != 3 || !cfg.Variant.StrictMultiCorrect {
		t.Errorf("unexpected variant config: %+v", cfg.Variant)
	}
	if cfg.BundleCacheTTL != 5*time.Minute {
		t.Errorf("expected 5m ttl, got %v", cfg.BundleCacheTTL)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port, got %s", cfg.Port)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	t.Run("missing database url", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		if _, err := LoadConfig(); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("bad worker count", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/variants")
		t.Setenv("VARIANT_WORKERS", "many")
		if _, err := LoadConfig(); err == nil {
			t.Error("expected error")
		}
	})
}
