package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	CORS          CORSConfig          `mapstructure:"cors"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
	Uploads       UploadsConfig       `mapstructure:"uploads"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type DatabaseConfig struct {
	Path           string `mapstructure:"path"`
	MaxConnections int    `mapstructure:"max_connections"`
}

type JWTConfig struct {
	Secret     string `mapstructure:"secret"`
	TTLMinutes int    `mapstructure:"ttl_minutes"`
}

func (c JWTConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
}

type UploadsConfig struct {
	Root  string `mapstructure:"root"`
	MaxMB int64  `mapstructure:"max_mb"`
}

func (c UploadsConfig) MaxBytes() int64 {
	return c.MaxMB * 1024 * 1024
}

type NotificationsConfig struct {
	DueSoonWindowDays int `mapstructure:"due_soon_window_days"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

const minSecretLength = 32

func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.SetEnvPrefix("SPONSOR_OPS")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// env-only deployments are allowed; a missing file is not fatal
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "60s")
	viper.SetDefault("database.path", "sponsor_ops.db")
	viper.SetDefault("database.max_connections", 10)
	viper.SetDefault("jwt.ttl_minutes", 720)
	viper.SetDefault("cors.allowed_origins", []string{"http://localhost:5173", "http://127.0.0.1:5173"})
	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests_per_minute", 240)
	viper.SetDefault("rate_limit.burst", 240)
	viper.SetDefault("uploads.root", "uploads")
	viper.SetDefault("uploads.max_mb", 50)
	viper.SetDefault("notifications.due_soon_window_days", 3)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("jwt.secret is required (set a strong secret in config or SPONSOR_OPS_JWT_SECRET)")
	}
	if len(c.JWT.Secret) < minSecretLength {
		return fmt.Errorf("jwt.secret must be at least %d characters", minSecretLength)
	}
	if c.JWT.TTLMinutes <= 0 {
		return fmt.Errorf("jwt.ttl_minutes must be positive")
	}
	if c.Uploads.MaxMB <= 0 {
		return fmt.Errorf("uploads.max_mb must be positive")
	}
	return nil
}
