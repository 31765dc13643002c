package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Logging    LoggingConfig    `yaml:"logging"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	API        APIConfig        `yaml:"api"`
	Wizard     WizardConfig     `yaml:"wizard"`
	Inventory  InventoryConfig  `yaml:"inventory"`
	Exports    ExportConfig     `yaml:"exports"`
	Google     GoogleConfig     `yaml:"google"`
	Demo       DemoConfig       `yaml:"demo"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	Port      int                `yaml:"port"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type WizardConfig struct {
	// SearchDelay simulates the inventory fetch between search and spots.
	SearchDelay       time.Duration `yaml:"search_delay"`
	StateTTL          time.Duration `yaml:"state_ttl"`
	MaxDurationHours  int64         `yaml:"max_duration_hours"`
	RateLimitRequests int           `yaml:"rate_limit_requests"`
	RateLimitWindow   time.Duration `yaml:"rate_limit_window"`
}

// UnmarshalYAML parses duration fields from strings like "1500ms".
func (w *WizardConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		SearchDelay       string `yaml:"search_delay"`
		StateTTL          string `yaml:"state_ttl"`
		MaxDurationHours  int64  `yaml:"max_duration_hours"`
		RateLimitRequests int    `yaml:"rate_limit_requests"`
		RateLimitWindow   string `yaml:"rate_limit_window"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	w.MaxDurationHours = raw.MaxDurationHours
	w.RateLimitRequests = raw.RateLimitRequests

	for _, field := range []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"search_delay", raw.SearchDelay, &w.SearchDelay},
		{"state_ttl", raw.StateTTL, &w.StateTTL},
		{"rate_limit_window", raw.RateLimitWindow, &w.RateLimitWindow},
	} {
		if field.raw == "" {
			continue
		}
		d, err := time.ParseDuration(field.raw)
		if err != nil {
			return fmt.Errorf("wizard.%s: %w", field.name, err)
		}
		*field.dst = d
	}
	return nil
}

type InventoryConfig struct {
	Path string `yaml:"path"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type GoogleConfig struct {
	CredentialsFile      string `yaml:"credentials_file"`
	BookingSpreadSheetID string `yaml:"bookings_spreadsheet_id"`
}

// DemoConfig is the profile injected on sign-in. There is no credential
// check anywhere; any sign-in succeeds with these values as defaults.
type DemoConfig struct {
	Name        string  `yaml:"name"`
	Phone       string  `yaml:"phone"`
	Email       string  `yaml:"email"`
	Rating      float64 `yaml:"rating"`
	MemberSince string  `yaml:"member_since"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; ignore when absent
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Подставляем переменные окружения в YAML до парсинга
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Inventory.Path == "" {
		return errors.New("inventory path is required")
	}
	if c.Wizard.MaxDurationHours < 1 {
		return errors.New("wizard.max_duration_hours must be positive")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "parkwise"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}

	if c.Wizard.SearchDelay == 0 {
		c.Wizard.SearchDelay = 1500 * time.Millisecond
	}
	if c.Wizard.StateTTL == 0 {
		c.Wizard.StateTTL = 24 * time.Hour
	}
	if c.Wizard.MaxDurationHours == 0 {
		c.Wizard.MaxDurationHours = 72
	}
	if c.Wizard.RateLimitRequests == 0 {
		c.Wizard.RateLimitRequests = 20
	}
	if c.Wizard.RateLimitWindow == 0 {
		c.Wizard.RateLimitWindow = time.Minute
	}

	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}

	if c.Demo.Name == "" {
		c.Demo.Name = "John Doe"
	}
	if c.Demo.Rating == 0 {
		c.Demo.Rating = 4.9
	}
	if c.Demo.MemberSince == "" {
		c.Demo.MemberSince = "April 2025"
	}
}
