package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
	OTP      OTPConfig      `toml:"otp"`
	Updates  UpdatesConfig  `toml:"updates"`
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Port    int    `toml:"port"`
	GinMode string `toml:"gin_mode"`
}

// DatabaseConfig holds the database configuration
type DatabaseConfig struct {
	Driver     string `toml:"driver"` // "postgres" or "sqlite"
	Host       string `toml:"host"`
	Port       int    `toml:"port"`
	Username   string `toml:"username"`
	Password   string `toml:"password"`
	DBName     string `toml:"dbname"`
	SSLMode    string `toml:"sslmode"`
	TestDBName string `toml:"test_dbname"`
	SQLitePath string `toml:"sqlite_path"`
}

// AuthConfig holds the authentication configuration
type AuthConfig struct {
	JWTSecret       string        `toml:"jwt_secret"`
	AccessTokenTTL  time.Duration `toml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `toml:"refresh_token_ttl"`
	// AdminToken guards operator routes; empty disables them
	AdminToken string `toml:"admin_token"`
}

// OTPConfig selects and tunes the one-time-password strategy
type OTPConfig struct {
	Mode        string        `toml:"mode"` // "local" or "issued"
	LocalCode   string        `toml:"local_code"`
	LocalDelay  time.Duration `toml:"local_delay"`
	TTL         time.Duration `toml:"ttl"`
	MaxAttempts int           `toml:"max_attempts"`
}

// UpdatesConfig holds the installable-app release settings
type UpdatesConfig struct {
	CurrentVersion string        `toml:"current_version"`
	PollInterval   time.Duration `toml:"poll_interval"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	if c.Driver == DriverSQLite {
		return c.SQLitePath + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.DBName, c.SSLMode,
	)
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    8080,
			GinMode: "release",
		},
		Database: DatabaseConfig{
			Driver:     DriverPostgres,
			Host:       "localhost",
			Port:       5432,
			Username:   "postgres",
			Password:   "password",
			DBName:     "digiplay",
			SSLMode:    "disable",
			TestDBName: "digiplay_test",
			SQLitePath: "digiplay.db",
		},
		Auth: AuthConfig{
			JWTSecret:       "your-secret-key-here",
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: 24 * time.Hour,
		},
		OTP: OTPConfig{
			Mode:        "local",
			LocalCode:   "111111",
			LocalDelay:  500 * time.Millisecond,
			TTL:         2 * time.Minute,
			MaxAttempts: 5,
		},
		Updates: UpdatesConfig{
			CurrentVersion: "1.0.0",
			PollInterval:   time.Hour,
		},
	}
}

// LoadConfig loads .env, then the optional TOML file named by DIGIPLAY_CONFIG,
// then environment variables. Later sources win.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if path := os.Getenv("DIGIPLAY_CONFIG"); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnvAsInt("SERVER_PORT", cfg.Server.Port)
	cfg.Server.GinMode = getEnv("GIN_MODE", cfg.Server.GinMode)

	cfg.Database.Driver = getEnv("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnvAsInt("DB_PORT", cfg.Database.Port)
	cfg.Database.Username = getEnv("DB_USERNAME", cfg.Database.Username)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.DBName = getEnv("DB_NAME", cfg.Database.DBName)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)
	cfg.Database.TestDBName = getEnv("TEST_DB_NAME", cfg.Database.TestDBName)
	cfg.Database.SQLitePath = getEnv("DB_SQLITE_PATH", cfg.Database.SQLitePath)

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.AccessTokenTTL = getEnvAsDuration("ACCESS_TOKEN_TTL", cfg.Auth.AccessTokenTTL)
	cfg.Auth.RefreshTokenTTL = getEnvAsDuration("REFRESH_TOKEN_TTL", cfg.Auth.RefreshTokenTTL)
	cfg.Auth.AdminToken = getEnv("ADMIN_TOKEN", cfg.Auth.AdminToken)

	cfg.OTP.Mode = getEnv("OTP_MODE", cfg.OTP.Mode)
	cfg.OTP.LocalCode = getEnv("OTP_LOCAL_CODE", cfg.OTP.LocalCode)
	cfg.OTP.LocalDelay = getEnvAsDuration("OTP_LOCAL_DELAY", cfg.OTP.LocalDelay)
	cfg.OTP.TTL = getEnvAsDuration("OTP_TTL", cfg.OTP.TTL)
	cfg.OTP.MaxAttempts = getEnvAsInt("OTP_MAX_ATTEMPTS", cfg.OTP.MaxAttempts)

	cfg.Updates.CurrentVersion = getEnv("APP_VERSION", cfg.Updates.CurrentVersion)
	cfg.Updates.PollInterval = getEnvAsDuration("APP_UPDATE_POLL_INTERVAL", cfg.Updates.PollInterval)
}

// Helper functions to read environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
