package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	RateLimit     RateLimitConfig
	CORS          CORSConfig
	PhoneRegistry PhoneRegistryConfig
	Log           LogConfig
	Jobs          JobsConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

// IsDevelopment reports whether the server runs in development mode
func (s ServerConfig) IsDevelopment() bool {
	return s.Env == "development"
}

type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            string
	User            string
	Password        string
	Database        string
	Schema          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port for the redis client
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

type CORSConfig struct {
	Origins []string
}

type PhoneRegistryConfig struct {
	URL            string
	APIKey         string
	CheckTimeout   time.Duration
	BulkTimeout    time.Duration
	CleanupTimeout time.Duration
}

type LogConfig struct {
	Level string
	File  string
}

type JobsConfig struct {
	Enabled           bool
	StatusRefreshSpec string
	PhoneCleanupSpec  string
	PhoneCleanupDays  int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SCHEMA", "public")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 25)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_REQUESTS", 60)
	v.SetDefault("RATE_LIMIT_WINDOW", time.Minute)
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")
	v.SetDefault("PHONE_REGISTRY_URL", "http://localhost:8000")
	v.SetDefault("PHONE_REGISTRY_CHECK_TIMEOUT", 10*time.Second)
	v.SetDefault("PHONE_REGISTRY_BULK_TIMEOUT", 60*time.Second)
	v.SetDefault("PHONE_REGISTRY_CLEANUP_TIMEOUT", 30*time.Second)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("JOBS_ENABLED", true)
	v.SetDefault("JOBS_STATUS_REFRESH_SPEC", "@every 1h")
	v.SetDefault("JOBS_PHONE_CLEANUP_SPEC", "")
	v.SetDefault("JOBS_PHONE_CLEANUP_DAYS", 90)
}

// Load reads configuration from the environment, with an optional .env file
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not read .env file: %v", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Printf("Warning: Could not read config file: %v", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port: v.GetString("SERVER_PORT"),
			Env:  v.GetString("SERVER_ENV"),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(v.GetString("DB_DRIVER")),
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetString("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Database:        v.GetString("DB_DATABASE"),
			Schema:          v.GetString("DB_SCHEMA"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			Enabled:  v.GetBool("RATE_LIMIT_ENABLED"),
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   v.GetDuration("RATE_LIMIT_WINDOW"),
		},
		CORS: CORSConfig{
			Origins: splitList(v.GetString("CORS_ORIGINS")),
		},
		PhoneRegistry: PhoneRegistryConfig{
			URL:            strings.TrimRight(v.GetString("PHONE_REGISTRY_URL"), "/"),
			APIKey:         v.GetString("PHONE_REGISTRY_API_KEY"),
			CheckTimeout:   v.GetDuration("PHONE_REGISTRY_CHECK_TIMEOUT"),
			BulkTimeout:    v.GetDuration("PHONE_REGISTRY_BULK_TIMEOUT"),
			CleanupTimeout: v.GetDuration("PHONE_REGISTRY_CLEANUP_TIMEOUT"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
			File:  v.GetString("LOG_FILE"),
		},
		Jobs: JobsConfig{
			Enabled:           v.GetBool("JOBS_ENABLED"),
			StatusRefreshSpec: v.GetString("JOBS_STATUS_REFRESH_SPEC"),
			PhoneCleanupSpec:  v.GetString("JOBS_PHONE_CLEANUP_SPEC"),
			PhoneCleanupDays:  v.GetInt("JOBS_PHONE_CLEANUP_DAYS"),
		},
	}
}

// splitList turns a comma separated value into a trimmed, non-empty list
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
