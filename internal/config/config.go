package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Backend
	Server      string        `yaml:"server"`
	Timeout     time.Duration `yaml:"timeout"`
	LongTimeout time.Duration `yaml:"long_timeout"`

	// Durable storage for the installed-plugin set and credentials
	Store string `yaml:"store"`

	// Console server
	Port           string `yaml:"port"`
	JWTSecret      string `yaml:"jwt_secret"`
	AllowedOrigins string `yaml:"allowed_origins"`
	RateLimitRPS   int    `yaml:"rate_limit_rps"`
	RateLimitBurst int    `yaml:"rate_limit_burst"`

	// Notices
	NotifyWebhookURL string `yaml:"notify_webhook_url"`
	KafkaBrokers     string `yaml:"kafka_brokers"`
	KafkaNoticeTopic string `yaml:"kafka_notice_topic"`

	LogLevel string `yaml:"log_level"`
}

func Load() *Config {
	return &Config{
		Server:      getEnv("OPSHUB_SERVER", "http://localhost:9876"),
		Timeout:     getDuration("OPSHUB_TIMEOUT", 60*time.Second),
		LongTimeout: getDuration("OPSHUB_LONG_TIMEOUT", 5*time.Minute),

		Store: getEnv("OPSHUB_STORE", defaultStore()),

		Port:           getEnv("PORT", "8080"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		RateLimitRPS:   getInt("RATE_LIMIT_RPS", 100),
		RateLimitBurst: getInt("RATE_LIMIT_BURST", 200),

		NotifyWebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		KafkaBrokers:     getEnv("KAFKA_BROKERS", ""),
		KafkaNoticeTopic: getEnv("KAFKA_NOTICE_TOPIC", "opshub.notices"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// LoadFile loads the environment configuration and overlays the non-empty
// values found in the YAML file at path. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := Load()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.merge(&file)
	return cfg, nil
}

func (c *Config) merge(o *Config) {
	setString(&c.Server, o.Server)
	setString(&c.Store, o.Store)
	setString(&c.Port, o.Port)
	setString(&c.JWTSecret, o.JWTSecret)
	setString(&c.AllowedOrigins, o.AllowedOrigins)
	setString(&c.NotifyWebhookURL, o.NotifyWebhookURL)
	setString(&c.KafkaBrokers, o.KafkaBrokers)
	setString(&c.KafkaNoticeTopic, o.KafkaNoticeTopic)
	setString(&c.LogLevel, o.LogLevel)
	if o.Timeout > 0 {
		c.Timeout = o.Timeout
	}
	if o.LongTimeout > 0 {
		c.LongTimeout = o.LongTimeout
	}
	if o.RateLimitRPS > 0 {
		c.RateLimitRPS = o.RateLimitRPS
	}
	if o.RateLimitBurst > 0 {
		c.RateLimitBurst = o.RateLimitBurst
	}
}

// KafkaBrokerList splits the comma separated broker list.
func (c *Config) KafkaBrokerList() []string {
	return splitList(c.KafkaBrokers)
}

// AllowedOriginList splits the comma separated CORS origins.
func (c *Config) AllowedOriginList() []string {
	return splitList(c.AllowedOrigins)
}

func splitList(raw string) []string {
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Dir returns the per-user state directory (~/.opshub).
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".opshub")
}

// DefaultFile is the config file read when OPSHUB_CONFIG is unset.
func DefaultFile() string {
	return getEnv("OPSHUB_CONFIG", filepath.Join(Dir(), "config.yaml"))
}

func defaultStore() string {
	return filepath.Join(Dir(), "state.json")
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return fallback
}

func getInt(key string, fallback int) int {
	var n int
	if _, err := fmt.Sscanf(os.Getenv(key), "%d", &n); err == nil && n > 0 {
		return n
	}
	return fallback
}
