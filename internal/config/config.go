package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Matcher  MatcherConfig  `mapstructure:"matcher"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RatePerSecond  float64       `mapstructure:"rate_per_second"`
	RateBurst      int           `mapstructure:"rate_burst"`
	MetricsEnabled bool          `mapstructure:"metrics_enabled"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

// MatcherConfig tunes the availability matching engine.
type MatcherConfig struct {
	WindowDays      int           `mapstructure:"window_days"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	DefaultTimezone string        `mapstructure:"default_timezone"`
}

// envOverrides are applied on top of the config file, for container
// deployments that only set environment variables.
type envOverrides struct {
	DBHost     string `envconfig:"DB_HOST"`
	DBPort     int    `envconfig:"DB_PORT"`
	DBUser     string `envconfig:"DB_USER"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME"`
	RedisURL   string `envconfig:"REDIS_URL"`
	ServerPort int    `envconfig:"SERVER_PORT"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 10*time.Second)
	viper.SetDefault("server.write_timeout", 10*time.Second)
	viper.SetDefault("server.rate_per_second", 20.0)
	viper.SetDefault("server.rate_burst", 40)
	viper.SetDefault("server.metrics_enabled", true)
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("matcher.window_days", 60)
	viper.SetDefault("matcher.cache_ttl", 5*time.Minute)
	viper.SetDefault("matcher.default_timezone", "America/New_York")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("failed to read environment overrides: %w", err)
	}
	if env.DBHost != "" {
		config.Database.Host = env.DBHost
	}
	if env.DBPort != 0 {
		config.Database.Port = env.DBPort
	}
	if env.DBUser != "" {
		config.Database.User = env.DBUser
	}
	if env.DBPassword != "" {
		config.Database.Password = env.DBPassword
	}
	if env.DBName != "" {
		config.Database.Name = env.DBName
	}
	if env.RedisURL != "" {
		config.Redis.URL = env.RedisURL
	}
	if env.ServerPort != 0 {
		config.Server.Port = env.ServerPort
	}

	return &config, nil
}
