package config

import (
	"os"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	os.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	os.Setenv("MONGODB_DATABASE", "coscribe_test")
	os.Setenv("REDIS_HOST", "localhost")
	os.Setenv("REDIS_PORT", "6379")
	os.Setenv("JWT_SECRET", "testsecret123456789012345678901234")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.MongoDB.URI == "" || cfg.Redis.Host == "" {
		t.Fatalf("unexpected empty config values: %+v", cfg)
	}
	if cfg.RedisAddr() != "localhost:6379" {
		t.Fatalf("unexpected redis addr: %s", cfg.RedisAddr())
	}
	if !cfg.RateLimit.Enabled || cfg.RateLimit.RPS <= 0 {
		t.Fatalf("unexpected rate limit defaults: %+v", cfg.RateLimit)
	}
	if cfg.Hub.SessionBuffer <= 0 || cfg.Hub.EventBuffer <= 0 {
		t.Fatalf("unexpected hub defaults: %+v", cfg.Hub)
	}
}
