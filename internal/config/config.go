package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server   ServerConfig
	Database PostgresConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Export   ExportConfig
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	StatsTTL time.Duration `mapstructure:"stats_ttl"`
}

type StorageConfig struct {
	BasePath string `mapstructure:"base_path"`
}

// ExportConfig controls the monthly archive trigger. The job fires on
// ScheduleDay of each month at ScheduleHour local time.
type ExportConfig struct {
	MonthlyDir   string `mapstructure:"monthly_dir"`
	ScheduleDay  int    `mapstructure:"schedule_day"`
	ScheduleHour int    `mapstructure:"schedule_hour"`
}

// Load initializes configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetEnvPrefix("GREENHOUSE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Load config file if exists
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "60s")
	viper.SetDefault("server.shutdown_timeout", "30s")
	viper.SetDefault("server.allowed_origins", []string{"*"})

	// Database defaults
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.sslmode", "disable")

	// Redis defaults
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.stats_ttl", "60s")

	// Storage defaults
	viper.SetDefault("storage.base_path", "./storage")

	// Export defaults: first day of month, 02:00 local
	viper.SetDefault("export.monthly_dir", "exports/monthly")
	viper.SetDefault("export.schedule_day", 1)
	viper.SetDefault("export.schedule_hour", 2)
}

func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if config.Storage.BasePath == "" {
		return fmt.Errorf("storage base path is required")
	}
	if config.Export.ScheduleDay < 1 || config.Export.ScheduleDay > 28 {
		return fmt.Errorf("export schedule day must be between 1 and 28")
	}
	if config.Export.ScheduleHour < 0 || config.Export.ScheduleHour > 23 {
		return fmt.Errorf("export schedule hour must be between 0 and 23")
	}
	return nil
}
