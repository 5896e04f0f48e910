package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)

	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "secret",
	}))
	req.NoError(err)

	req.Equal("production", cfg.Env)
	req.Equal("3000", cfg.Port)
	req.Equal(168*time.Hour, cfg.TokenTTL)
	req.Equal("postgres", cfg.DBDriver)
	req.Equal(64, cfg.SendBuffer)
	req.Equal(int64(30), cfg.SendRateLimit)
	req.Equal(10*time.Second, cfg.SendRateWindow)
	req.Equal(30*time.Second, cfg.HealthCheckInterval)
	req.False(cfg.RedisEnabled())
	req.False(cfg.KafkaEnabled())
	req.False(cfg.IsDev())
}

func TestLoad_DevEnvironment(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "secret",
		"ENV":        "dev",
	}))
	require.NoError(t, err)
	require.True(t, cfg.IsDev())
}

func TestLoad_RequiresSecret(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.Error(t, err)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "secret",
		"DB_DRIVER":  "mongo",
	}))
	require.ErrorContains(t, err, "DB_DRIVER")
}

func TestConfig_Origins(t *testing.T) {
	req := require.New(t)

	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":      "secret",
		"CLIENT_URL":      "https://sphere.example",
		"ALLOWED_ORIGINS": "https://a.example, ,https://b.example",
		"KAFKA_BROKERS":   "k1:9092,k2:9092",
	}))
	req.NoError(err)

	req.Equal([]string{
		"http://localhost:3000",
		"http://localhost:5173",
		"https://sphere.example",
		"https://a.example",
		"https://b.example",
	}, cfg.Origins())
	req.Equal([]string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	req.True(cfg.KafkaEnabled())
}
