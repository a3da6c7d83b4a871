package sublinear

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/sockerless/sublinear/store"
	"gopkg.in/yaml.v3"
)

const defaultPort = 8787

// Config is the process configuration. It is read from an optional YAML
// file, then overridden by SUBLINEAR_* environment variables.
type Config struct {
	Addr        string `yaml:"addr"`
	Port        int    `yaml:"port"`
	DatabaseURL string `yaml:"database_url"`
	BaseURL     string `yaml:"base_url"`
	RequireAuth bool   `yaml:"require_auth"`
	APIKey      string `yaml:"api_key"`
	LogLevel    string `yaml:"log_level"`

	ServiceName  string `yaml:"service_name"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`

	Seed store.SeedConfig `yaml:"seed"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	cfg := Config{RequireAuth: true}
	cfg.fillDefaults()
	return cfg
}

// LoadConfig reads path (if non-empty) and applies environment overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{RequireAuth: true}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	str("SUBLINEAR_ADDR", &c.Addr)
	str("SUBLINEAR_DATABASE_URL", &c.DatabaseURL)
	str("SUBLINEAR_BASE_URL", &c.BaseURL)
	str("SUBLINEAR_API_KEY", &c.APIKey)
	str("SUBLINEAR_LOG_LEVEL", &c.LogLevel)
	str("SUBLINEAR_SERVICE_NAME", &c.ServiceName)
	str("OTEL_EXPORTER_OTLP_ENDPOINT", &c.OTLPEndpoint)
	str("SUBLINEAR_SEED_VIEWER_NAME", &c.Seed.ViewerName)
	str("SUBLINEAR_SEED_VIEWER_EMAIL", &c.Seed.ViewerEmail)
	str("SUBLINEAR_SEED_TEAM_NAME", &c.Seed.TeamName)
	str("SUBLINEAR_SEED_TEAM_KEY", &c.Seed.TeamKey)

	if v, ok := os.LookupEnv("SUBLINEAR_REQUIRE_AUTH"); ok {
		c.RequireAuth = parseBool(v)
	}
	if v, ok := os.LookupEnv("SUBLINEAR_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("invalid SUBLINEAR_PORT %q", v)
		}
		c.Port = port
	}
	return nil
}

func (c *Config) fillDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.Addr == "" {
		c.Addr = net.JoinHostPort("127.0.0.1", strconv.Itoa(c.Port))
	}
	if c.BaseURL == "" {
		c.BaseURL = fmt.Sprintf("http://localhost:%d", c.Port)
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = "sublinear.db"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ServiceName == "" {
		c.ServiceName = "sublinear"
	}
}

func parseBool(v string) bool {
	switch v {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	}
	return false
}
