package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port string `yaml:"port"`
	Env  string `yaml:"env"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type StorageConfig struct {
	DataFile string `yaml:"data_file"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type RateLimitConfig struct {
	Requests int `yaml:"requests"`
}

type AnalyticsConfig struct {
	StrugglingWindow int `yaml:"struggling_window"`
}

type WorkerConfig struct {
	QueueSize int `yaml:"queue_size"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Storage   StorageConfig   `yaml:"storage"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Worker    WorkerConfig    `yaml:"worker"`
}

func Default() *Config {
	return &Config{
		Server:    ServerConfig{Port: "8080", Env: "production"},
		Log:       LogConfig{Level: "info"},
		Storage:   StorageConfig{DataFile: "habits.json"},
		Redis:     RedisConfig{Host: "localhost", Port: "6379"},
		RateLimit: RateLimitConfig{Requests: 100},
		Analytics: AnalyticsConfig{StrugglingWindow: 30},
		Worker:    WorkerConfig{QueueSize: 100},
	}
}

// Load applies, in increasing priority: defaults, the YAML file at path (skipped
// when path is empty or missing), a .env file in the working directory, and the
// process environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	_ = godotenv.Load()

	if err := cfg.overrideFromEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) overrideFromEnv() error {
	if v := os.Getenv("METIME_DATA_FILE"); v != "" {
		c.Storage.DataFile = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		c.Server.Env = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		c.Redis.Port = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"REDIS_DB", &c.Redis.DB},
		{"RATE_LIMIT_REQUESTS", &c.RateLimit.Requests},
		{"STRUGGLING_WINDOW", &c.Analytics.StrugglingWindow},
		{"WORKER_QUEUE_SIZE", &c.Worker.QueueSize},
	}
	for _, e := range ints {
		v := os.Getenv(e.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", e.key, v, err)
		}
		*e.dst = n
	}

	if v := os.Getenv("REDIS_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_ENABLED %q: %w", v, err)
		}
		c.Redis.Enabled = b
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Storage.DataFile == "" {
		return errors.New("storage.data_file must be set")
	}
	if c.Analytics.StrugglingWindow <= 0 {
		return fmt.Errorf("analytics.struggling_window must be positive, got %d", c.Analytics.StrugglingWindow)
	}
	if c.Worker.QueueSize <= 0 {
		return fmt.Errorf("worker.queue_size must be positive, got %d", c.Worker.QueueSize)
	}
	if c.RateLimit.Requests <= 0 {
		return fmt.Errorf("rate_limit.requests must be positive, got %d", c.RateLimit.Requests)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("redis.db must not be negative, got %d", c.Redis.DB)
	}
	return nil
}
