package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Oracle struct {
		BaseCurrency     string        `yaml:"base_currency"`
		BaseCurrencyUnit uint64        `yaml:"base_currency_unit"`
		ValidityWindow   time.Duration `yaml:"validity_window"`
		MinFreshness     time.Duration `yaml:"min_freshness"`
	} `yaml:"oracle"`
	Provider struct {
		Mode           string        `yaml:"mode"` // genuine or synthetic
		PublicKey      string        `yaml:"public_key"`
		FeePerUpdate   uint64        `yaml:"fee_per_update"`
		WebSocketURL   string        `yaml:"websocket_url"`
		FeedIDs        []string      `yaml:"feed_ids"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"provider"`
	Auth struct {
		AssetListingKeys []string `yaml:"asset_listing_keys"`
		PoolAdminKeys    []string `yaml:"pool_admin_keys"`
	} `yaml:"auth"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		UpdatesTopic string   `yaml:"updates_topic"`
		EventsTopic  string   `yaml:"events_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Archive struct {
		QueueEnabled bool   `yaml:"queue_enabled"`
		QueueName    string `yaml:"queue_name"`
		Workers      int    `yaml:"workers"`
	} `yaml:"archive"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
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

	// Override with environment variables
	if v := os.Getenv("PROVIDER_MODE"); v != "" {
		c.Provider.Mode = v
	}
	if v := os.Getenv("PROVIDER_PUBLIC_KEY"); v != "" {
		c.Provider.PublicKey = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("ASSET_LISTING_KEYS"); v != "" {
		c.Auth.AssetListingKeys = strings.Split(v, ",")
	}
	if v := os.Getenv("POOL_ADMIN_KEYS"); v != "" {
		c.Auth.PoolAdminKeys = strings.Split(v, ",")
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Oracle.BaseCurrency == "" {
		return fmt.Errorf("oracle.base_currency is required")
	}
	if c.Oracle.BaseCurrencyUnit == 0 {
		return fmt.Errorf("oracle.base_currency_unit must be positive")
	}
	if c.Oracle.ValidityWindow <= 0 || c.Oracle.MinFreshness <= 0 {
		return fmt.Errorf("oracle freshness windows must be positive")
	}
	if c.Provider.Mode != "genuine" && c.Provider.Mode != "synthetic" {
		return fmt.Errorf("provider.mode must be 'genuine' or 'synthetic', got '%s'", c.Provider.Mode)
	}
	if c.Provider.Mode == "genuine" && c.Provider.PublicKey == "" {
		return fmt.Errorf("provider.public_key is required in genuine mode")
	}
	return nil
}
